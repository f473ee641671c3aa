package tools

import (
	"context"

	"github.com/terraria-rag/wikiclean/internal/wikitext"
)

// CleanSections removes markup tags, drops the useless sections and cuts
// the page at truncateAfter. Nil arguments fall back to the engine's
// configured values; an empty truncateAfter keeps the whole page.
func CleanSections(ctx context.Context, e *Engine, text string, uselessSections []string, truncateAfter *string) (*TextResult, error) {
	if err := required("text", text); err != nil {
		return nil, err
	}
	if err := e.acquire(ctx); err != nil {
		return nil, err
	}

	useless := e.opts.UselessSections
	if uselessSections != nil {
		useless = uselessSections
	}
	truncate := e.opts.TruncateAfter
	if truncateAfter != nil {
		truncate = *truncateAfter
	}

	out := wikitext.CleanTagsAndSections(text, useless, truncate)
	return textResult(wikitext.NormalizeWhitespace(out)), nil
}
