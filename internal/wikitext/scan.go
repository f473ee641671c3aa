// Package wikitext converts MediaWiki markup into plain retrieval text.
//
// Every function in this package is a pure string transformation: no I/O,
// no package-level mutable state, safe to call from many goroutines.
package wikitext

import "strings"

// Delims is a pair of multi-character open/close delimiters.
type Delims struct {
	Open  string
	Close string
}

// Common wikitext delimiters
var (
	RawParam = Delims{Open: "{{{", Close: "}}}"}
	Template = Delims{Open: "{{", Close: "}}"}
	Link     = Delims{Open: "[[", Close: "]]"}
	Table    = Delims{Open: "{|", Close: "|}"}
)

// Span is a half-open byte range [Start, End) into a text.
type Span struct {
	Start int
	End   int
}

// FindSpans returns the maximal balanced spans of d in text, in document order.
//
// While any of the guard delimiters is open, occurrences of d are not treated
// as boundaries. An opener that is never closed is ordinary text.
func FindSpans(text string, d Delims, guards ...Delims) []Span {
	var spans []Span
	guardDepth := make([]int, len(guards))
	depth, start := 0, 0

	for i := 0; i < len(text); {
		if n, ok := stepGuards(text, i, guards, guardDepth); ok {
			i += n
			continue
		}
		if guarded(guardDepth) {
			i++
			continue
		}

		if strings.HasPrefix(text[i:], d.Open) {
			if depth == 0 {
				start = i
			}
			depth++
			i += len(d.Open)
			continue
		}
		if depth > 0 && strings.HasPrefix(text[i:], d.Close) {
			depth--
			i += len(d.Close)
			if depth == 0 {
				spans = append(spans, Span{Start: start, End: i})
			}
			continue
		}
		i++
	}

	return spans
}

// stepGuards advances over a guard delimiter at i, updating its depth.
func stepGuards(text string, i int, guards []Delims, depth []int) (int, bool) {
	rest := text[i:]
	for g, d := range guards {
		if strings.HasPrefix(rest, d.Open) {
			depth[g]++
			return len(d.Open), true
		}
		if strings.HasPrefix(rest, d.Close) {
			if depth[g] > 0 {
				depth[g]--
			}
			return len(d.Close), true
		}
	}
	return 0, false
}

func guarded(depth []int) bool {
	for _, d := range depth {
		if d > 0 {
			return true
		}
	}
	return false
}

// removeSpans returns text with every span cut out.
func removeSpans(text string, spans []Span) string {
	if len(spans) == 0 {
		return text
	}

	var b strings.Builder
	b.Grow(len(text))
	last := 0
	for _, s := range spans {
		b.WriteString(text[last:s.Start])
		last = s.End
	}
	b.WriteString(text[last:])
	return b.String()
}

// depthTracker follows nesting of templates, links, tags and parentheses
// while walking a string byte by byte.
type depthTracker struct {
	curly, square, angle, paren int

	// trackInline enables the < > and ( ) counters.
	trackInline bool
}

// step consumes the construct at s[i:] if it changes a depth and reports how
// many bytes it took.
func (t *depthTracker) step(s string, i int) int {
	switch {
	case strings.HasPrefix(s[i:], "{{"):
		t.curly++
		return 2
	case strings.HasPrefix(s[i:], "}}"):
		if t.curly > 0 {
			t.curly--
		}
		return 2
	case strings.HasPrefix(s[i:], "[["):
		t.square++
		return 2
	case strings.HasPrefix(s[i:], "]]"):
		if t.square > 0 {
			t.square--
		}
		return 2
	}

	if !t.trackInline {
		return 0
	}
	switch s[i] {
	case '<':
		t.angle++
	case '>':
		if t.angle > 0 {
			t.angle--
		}
	case '(':
		t.paren++
	case ')':
		if t.paren > 0 {
			t.paren--
		}
	default:
		return 0
	}
	return 1
}

func (t *depthTracker) topLevel() bool {
	return t.curly == 0 && t.square == 0 && t.angle == 0 && t.paren == 0
}
