package wikitext

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	// attrNameRe matches the start of a name=value cell attribute.
	attrNameRe = regexp.MustCompile(`^\s*[A-Za-z_:][A-Za-z0-9_.:-]*\s*=`)

	brTagRe    = regexp.MustCompile(`(?i)<\s*br\s*/?\s*>`)
	spaceRunRe = regexp.MustCompile(`\s+`)

	// wideGapRe separates cells of a row that was written without pipes.
	wideGapRe = regexp.MustCompile(`\s{2,}`)
)

// splitCells splits a row on the top-level sep ("||" or "!!"). Separators
// inside templates, links, tags or parentheses do not count.
func splitCells(s, sep string) []string {
	var (
		cells []string
		t     = depthTracker{trackInline: true}
		last  = 0
	)

	for i := 0; i < len(s); {
		if t.topLevel() && strings.HasPrefix(s[i:], sep) {
			cells = append(cells, s[last:i])
			i += len(sep)
			last = i
			continue
		}
		if n := t.step(s, i); n > 0 {
			i += n
			continue
		}
		i++
	}

	return append(cells, s[last:])
}

// splitWideGaps splits s on top-level runs of two or more whitespace
// characters.
func splitWideGaps(s string) []string {
	var (
		parts []string
		t     = depthTracker{trackInline: true}
		last  = 0
	)

	for i := 0; i < len(s); {
		if n := t.step(s, i); n > 0 {
			i += n
			continue
		}
		if t.topLevel() {
			if loc := wideGapRe.FindStringIndex(s[i:]); loc != nil && loc[0] == 0 {
				parts = append(parts, s[last:i])
				i += loc[1]
				last = i
				continue
			}
		}
		i++
	}

	parts = append(parts, s[last:])
	out := parts[:0]
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			out = append(out, p)
		}
	}
	return out
}

// dropAttributeBlock removes a leading "attrs |" block from a cell. The
// prefix before the first top-level single pipe is dropped only when it
// holds nothing but name=value attributes.
func dropAttributeBlock(cell string) string {
	t := depthTracker{trackInline: true}
	for i := 0; i < len(cell); {
		if n := t.step(cell, i); n > 0 {
			i += n
			continue
		}
		if cell[i] == '|' && t.topLevel() {
			if isAttributeBlock(cell[:i]) {
				return cell[i+1:]
			}
			return cell
		}
		i++
	}
	return cell
}

// isAttributeBlock reports whether s is a (possibly empty) run of
// name=value attributes.
func isAttributeBlock(s string) bool {
	for {
		s = strings.TrimLeftFunc(s, unicode.IsSpace)
		if s == "" {
			return true
		}
		loc := attrNameRe.FindStringIndex(s)
		if loc == nil {
			return false
		}
		s = s[skipAttrValue(s, loc[1]):]
	}
}

// stripAttributes deletes name=value pairs that sit outside templates and
// links. Values may be quoted with ' or ".
func stripAttributes(s string) string {
	var (
		b strings.Builder
		t depthTracker
	)
	b.Grow(len(s))

	for i := 0; i < len(s); {
		if n := t.step(s, i); n > 0 {
			b.WriteString(s[i : i+n])
			i += n
			continue
		}
		if !t.topLevel() {
			b.WriteByte(s[i])
			i++
			continue
		}

		loc := attrNameRe.FindStringIndex(s[i:])
		if loc == nil {
			b.WriteByte(s[i])
			i++
			continue
		}
		i = skipAttrValue(s, i+loc[1])
	}

	return b.String()
}

// skipAttrValue returns the index just past the attribute value that starts
// at (or after whitespace following) j.
func skipAttrValue(s string, j int) int {
	for j < len(s) {
		r, size := utf8.DecodeRuneInString(s[j:])
		if !unicode.IsSpace(r) {
			break
		}
		j += size
	}
	if j >= len(s) {
		return j
	}

	if q := s[j]; q == '"' || q == '\'' {
		if end := strings.IndexByte(s[j+1:], q); end >= 0 {
			return j + 1 + end + 1
		}
		return len(s)
	}

	for j < len(s) {
		r, size := utf8.DecodeRuneInString(s[j:])
		if unicode.IsSpace(r) || strings.ContainsRune("|!<>", r) {
			break
		}
		j += size
	}
	return j
}

// Table syntax in literal cell text is carried through ConvertTables as
// private-use runes.
var (
	cellEscaper   = strings.NewReplacer("|", "\uE000", "!", "\uE001", "=", "\uE002")
	cellUnescaper = strings.NewReplacer("\uE000", "|", "\uE001", "!", "\uE002", "=")
)

// EscapeCell hides the markup characters | ! = in s so that text placed in
// a generated table cell is not read as table syntax. ConvertTables
// restores them.
func EscapeCell(s string) string {
	return cellEscaper.Replace(s)
}

// cleanCell turns raw cell markup into a single line of text.
func cleanCell(s string) string {
	s = stripAttributes(strings.TrimSpace(s))
	s = brTagRe.ReplaceAllString(s, "; ")
	s = strings.TrimSpace(spaceRunRe.ReplaceAllString(s, " "))
	return cellUnescaper.Replace(s)
}

// parseCells splits one table line (without its leading marker) into
// cleaned cells.
func parseCells(content, sep string) []string {
	raw := splitCells(content, sep)
	cells := make([]string, len(raw))
	for i, c := range raw {
		cells[i] = cleanCell(dropAttributeBlock(c))
	}
	return cells
}
