package tools

import (
	"context"

	"github.com/terraria-rag/wikiclean/internal/wikitext"
)

// ConvertTables flattens {| ... |} tables into one line per data row.
func ConvertTables(ctx context.Context, e *Engine, text string) (*TextResult, error) {
	if err := required("text", text); err != nil {
		return nil, err
	}
	if err := e.acquire(ctx); err != nil {
		return nil, err
	}
	return textResult(wikitext.ConvertTables(text)), nil
}
