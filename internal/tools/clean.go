package tools

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/terraria-rag/wikiclean/internal/wiki"
)

// CleanWikitext runs the full pipeline over one page.
func CleanWikitext(ctx context.Context, e *Engine, title, content, format string) (*CleanResult, error) {
	if err := required("content", content); err != nil {
		return nil, err
	}
	format = strings.ToLower(strings.TrimSpace(format))
	if format != "" && format != wiki.FormatWikitext && format != wiki.FormatHTML {
		return nil, &ArgumentError{Field: "format", Reason: "must be wikitext or html"}
	}
	if err := e.acquire(ctx); err != nil {
		return nil, err
	}

	st := e.snapshot()

	// Check cache
	cacheKey := cleanCacheKey(st, title, format, content)
	if cached, ok := e.GetCache().Get(cacheKey); ok {
		return cached.(*CleanResult), nil
	}

	rec, err := st.cleaner.CleanRecord(wiki.Record{Title: title, Content: content, Format: format})
	if err != nil {
		return nil, fmt.Errorf("clean wikitext: %w", err)
	}

	result := &CleanResult{
		Title:     title,
		Content:   rec.Content,
		Warnings:  rec.Warnings,
		WordCount: rec.WordCount(),
	}

	// Cache the result
	e.GetCache().Set(cacheKey, result, e.GetCacheTTL())

	return result, nil
}

func cleanCacheKey(st *state, title, format, content string) string {
	return wiki.ContentCacheKey("clean", strconv.FormatUint(st.generation, 10), title, format, content)
}
