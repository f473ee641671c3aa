package wikitext

import "strings"

// StripRawParameters removes every {{{...}}} template parameter slot,
// including nested ones. Two-brace templates and single braces are left
// alone. An unterminated {{{ loses only its delimiter.
func StripRawParameters(text string) string {
	if !strings.Contains(text, RawParam.Open) {
		return text
	}

	text = removeSpans(text, FindSpans(text, RawParam))

	// Whatever openers are left never found a closer.
	for strings.Contains(text, RawParam.Open) {
		text = strings.ReplaceAll(text, RawParam.Open, "")
	}
	return text
}
