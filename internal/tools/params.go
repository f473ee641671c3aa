package tools

import (
	"context"

	"github.com/terraria-rag/wikiclean/internal/wikitext"
)

// StripRawParameters removes {{{...}}} parameter slots.
func StripRawParameters(ctx context.Context, e *Engine, text string) (*TextResult, error) {
	if err := required("text", text); err != nil {
		return nil, err
	}
	if err := e.acquire(ctx); err != nil {
		return nil, err
	}
	return textResult(wikitext.StripRawParameters(text)), nil
}
