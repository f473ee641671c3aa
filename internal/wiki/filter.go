package wiki

import "strings"

// DefaultExcludeWords mark pagination and registration artifacts in titles.
var DefaultExcludeWords = []string{"row", "register", "resultcell", "all increases"}

// ExcludeFilter drops records that should not reach the index.
type ExcludeFilter struct {
	// Words excludes titles containing any of them, case-insensitively.
	Words []string
	// Subpages excludes titles containing "/".
	Subpages bool
}

// DefaultExcludeFilter returns the filter used for dump cleaning.
func DefaultExcludeFilter() *ExcludeFilter {
	return &ExcludeFilter{
		Words:    append([]string(nil), DefaultExcludeWords...),
		Subpages: true,
	}
}

// Excluded reports whether a record titled title is dropped. A nil filter
// keeps everything.
func (f *ExcludeFilter) Excluded(title string) bool {
	if f == nil {
		return false
	}
	if f.Subpages && strings.Contains(title, "/") {
		return true
	}

	lower := strings.ToLower(title)
	for _, w := range f.Words {
		if w = strings.ToLower(strings.TrimSpace(w)); w != "" && strings.Contains(lower, w) {
			return true
		}
	}
	return false
}
