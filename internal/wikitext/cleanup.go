package wikitext

import (
	"regexp"
	"strings"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
)

var (
	boldRe = regexp.MustCompile(`'''(.*?)'''`)

	// An unterminated comment hides the rest of the page, as in MediaWiki.
	commentRe = regexp.MustCompile(`(?s)<!--.*?(?:-->|\z)`)
	tagRe     = regexp.MustCompile(`(?i)</?[a-z][a-z0-9-]*(?:\s[^<>]*)?/?>`)

	headingRe = regexp.MustCompile(`^(={1,6})\s*(.+?)\s*(={1,6})$`)

	hspaceRunRe = regexp.MustCompile(`[ \t]+`)
	blankRunRe  = regexp.MustCompile(`\n{3,}`)
)

// selfReferenceTokens are wiki shorthands for "the subject of this page".
var selfReferenceTokens = []string{"{{ориг}}", "{{PAGENAME}}"}

// combiningAcute is the stress mark used in dictionary-style Russian text.
const combiningAcute = '\u0301'

// SubstituteTitle puts the page title in place of the first bold span and
// of every self-reference token.
func SubstituteTitle(text, title string) string {
	if title == "" {
		return text
	}

	if loc := boldRe.FindStringIndex(text); loc != nil {
		text = text[:loc[0]] + "'''" + title + "'''" + text[loc[1]:]
	}
	for _, tok := range selfReferenceTokens {
		text = strings.ReplaceAll(text, tok, title)
	}
	return text
}

// RemoveAccents drops combining acute accents.
func RemoveAccents(text string) string {
	if !strings.ContainsRune(text, combiningAcute) {
		return text
	}

	out, _, err := transform.String(runes.Remove(runes.Predicate(func(r rune) bool {
		return r == combiningAcute
	})), text)
	if err != nil {
		return strings.ReplaceAll(text, string(combiningAcute), "")
	}
	return out
}

// RemoveTags deletes HTML comments and tags, keeping the text between an
// opening and a closing tag. Line breaks become spaces.
func RemoveTags(text string) string {
	text = commentRe.ReplaceAllString(text, "")
	text = brTagRe.ReplaceAllString(text, " ")
	return tagRe.ReplaceAllString(text, "")
}

// heading parses a "== Title ==" line.
func heading(line string) (level int, title string, ok bool) {
	m := headingRe.FindStringSubmatch(strings.TrimSpace(line))
	if m == nil {
		return 0, "", false
	}
	return min(len(m[1]), len(m[3])), strings.TrimSpace(m[2]), true
}

func sameTitle(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

// DeleteSections removes every section whose heading matches one of names,
// case-insensitively. A section runs until the next heading of the same or a
// higher level.
func DeleteSections(text string, names []string) string {
	if len(names) == 0 {
		return text
	}

	lines := strings.Split(text, "\n")
	kept := make([]string, 0, len(lines))
	skipLevel := 0

	for _, line := range lines {
		if level, title, ok := heading(line); ok {
			if skipLevel > 0 && level <= skipLevel {
				skipLevel = 0
			}
			if skipLevel == 0 && matchesAny(title, names) {
				skipLevel = level
				continue
			}
		}
		if skipLevel > 0 {
			continue
		}
		kept = append(kept, line)
	}

	return strings.Join(kept, "\n")
}

func matchesAny(title string, names []string) bool {
	for _, n := range names {
		if sameTitle(title, n) {
			return true
		}
	}
	return false
}

// TruncateAfterSection cuts the text at the heading named name. The heading
// and everything after it are removed.
func TruncateAfterSection(text, name string) string {
	if strings.TrimSpace(name) == "" {
		return text
	}

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if _, title, ok := heading(line); ok && sameTitle(title, name) {
			return strings.Join(lines[:i], "\n")
		}
	}
	return text
}

// CleanTagsAndSections removes tags and comments, deletes the useless
// sections and, when truncateAfter is set, everything from that section on.
// It expects templates and tables to be resolved already.
func CleanTagsAndSections(text string, useless []string, truncateAfter string) string {
	text = RemoveTags(text)
	text = DeleteSections(text, useless)
	return TruncateAfterSection(text, truncateAfter)
}

// NormalizeWhitespace collapses horizontal whitespace, trims every line,
// squeezes runs of blank lines into one blank line and trims both ends.
func NormalizeWhitespace(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")

	lines := strings.Split(text, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSpace(hspaceRunRe.ReplaceAllString(l, " "))
	}

	text = blankRunRe.ReplaceAllString(strings.Join(lines, "\n"), "\n\n")
	return strings.TrimSpace(text)
}
