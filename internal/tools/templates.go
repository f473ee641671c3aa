package tools

import (
	"context"
	"fmt"

	"github.com/terraria-rag/wikiclean/internal/templates"
	"github.com/terraria-rag/wikiclean/internal/wikitext"
)

// ExpandTemplates renders {{...}} calls with the loaded template rules.
func ExpandTemplates(ctx context.Context, e *Engine, text string) (*TextResult, error) {
	if err := required("text", text); err != nil {
		return nil, err
	}
	if err := e.acquire(ctx); err != nil {
		return nil, err
	}

	out, err := wikitext.ExpandTemplatesN(text, e.Registry(), e.opts.MaxPasses)
	if err != nil {
		return nil, fmt.Errorf("expand templates: %w", err)
	}
	return textResult(out), nil
}

// ExtractTemplates lists the outermost template calls in text with their
// arguments split into positional and named. A non-empty name keeps only
// calls of that template.
func ExtractTemplates(ctx context.Context, e *Engine, text, name string) (*TemplatesResult, error) {
	if err := required("text", text); err != nil {
		return nil, err
	}
	if err := e.acquire(ctx); err != nil {
		return nil, err
	}

	want := templates.NormalizeName(name)
	calls := make([]TemplateCall, 0)
	for _, inv := range wikitext.Invocations(text) {
		if want != "" && templates.NormalizeName(inv.Name) != want {
			continue
		}
		call := TemplateCall{Name: inv.Name, Positional: inv.Positional()}
		if named := inv.Named(); len(named) > 0 {
			call.Named = named
		}
		calls = append(calls, call)
	}

	return &TemplatesResult{Templates: calls, Count: len(calls)}, nil
}
