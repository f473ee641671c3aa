package wikitext

import (
	"regexp"
	"strings"
)

// innermostLinkRe matches a [[...]] link that contains no other bracket.
var innermostLinkRe = regexp.MustCompile(`\[\[([^\[\]]*)\]\]`)

// ResolveWikilinks collapses every [[target|display]] to its display text
// and every [[target]] to its target. Nested links resolve innermost first.
//
//	[[A]]          -> A
//	[[A|B]]        -> B
//	[[A|[[B|C]]]]  -> C
func ResolveWikilinks(text string) string {
	out, _ := ResolveWikilinksN(text, DefaultMaxPasses)
	return out
}

// ResolveWikilinksN is ResolveWikilinks with an explicit pass limit. It
// returns an *UnresolvedError with the partial text if links remain after
// limit passes.
func ResolveWikilinksN(text string, limit int) (string, error) {
	limit = maxPasses(limit)

	for pass := 0; pass < limit; pass++ {
		if !strings.Contains(text, "[[") {
			return text, nil
		}

		replaced := 0
		text = innermostLinkRe.ReplaceAllStringFunc(text, func(m string) string {
			replaced++
			return linkDisplay(m[2 : len(m)-2])
		})
		if replaced == 0 {
			return text, nil
		}
	}

	if innermostLinkRe.MatchString(text) {
		return text, &UnresolvedError{Construct: "wikilink", Passes: limit}
	}
	return text, nil
}

// linkDisplay returns the last pipe-delimited segment of a link body.
func linkDisplay(inner string) string {
	inner = strings.TrimSpace(inner)
	if i := strings.LastIndexByte(inner, '|'); i >= 0 {
		inner = inner[i+1:]
	}
	return strings.TrimSpace(inner)
}
