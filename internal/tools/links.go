package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/terraria-rag/wikiclean/internal/wikitext"
)

// ResolveWikilinks replaces [[...]] links with their display text.
func ResolveWikilinks(ctx context.Context, e *Engine, text string) (*TextResult, error) {
	if err := required("text", text); err != nil {
		return nil, err
	}
	if err := e.acquire(ctx); err != nil {
		return nil, err
	}

	out, err := wikitext.ResolveWikilinksN(text, e.opts.MaxPasses)
	if err != nil {
		return nil, fmt.Errorf("resolve wikilinks: %w", err)
	}
	return textResult(out), nil
}

func textResult(text string) *TextResult {
	return &TextResult{Text: text, WordCount: len(strings.Fields(text))}
}
