package tools

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/terraria-rag/wikiclean/internal/templates"
	"github.com/terraria-rag/wikiclean/internal/wiki"
	"github.com/terraria-rag/wikiclean/internal/wikitext"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newEngine(t *testing.T, cfg Config) *Engine {
	t.Helper()
	e := NewEngine(templates.Default(), cfg)
	t.Cleanup(e.Close)
	return e
}

func TestCleanWikitext(t *testing.T) {
	e := newEngine(t, Config{CacheTTL: time.Minute})
	ctx := context.Background()

	res, err := CleanWikitext(ctx, e, "Potion", "'''Foo''' is a [[Bar|baz]]. {{item|Sword}}", "")
	require.NoError(t, err)
	assert.Equal(t, "'''Potion''' is a baz. (Предмет: Sword)", res.Content)
	assert.Equal(t, "Potion", res.Title)
	assert.Equal(t, 6, res.WordCount)
	assert.Empty(t, res.Warnings)

	again, err := CleanWikitext(ctx, e, "Potion", "'''Foo''' is a [[Bar|baz]]. {{item|Sword}}", "")
	require.NoError(t, err)
	assert.Same(t, res, again, "second call is served from cache")

	other, err := CleanWikitext(ctx, e, "Elixir", "'''Foo''' is a [[Bar|baz]]. {{item|Sword}}", "")
	require.NoError(t, err)
	assert.Equal(t, "'''Elixir''' is a baz. (Предмет: Sword)", other.Content)
}

func TestCleanWikitext_HTML(t *testing.T) {
	e := newEngine(t, Config{})

	res, err := CleanWikitext(context.Background(), e, "Potion",
		`<p><b>Potion</b> heals <a href="/wiki/Player">the player</a>.</p>`, "HTML")
	require.NoError(t, err)
	assert.Equal(t, "Potion heals the player.", res.Content)
}

func TestCleanWikitext_Arguments(t *testing.T) {
	e := newEngine(t, Config{})
	ctx := context.Background()

	_, err := CleanWikitext(ctx, e, "T", "", "")
	var argErr *ArgumentError
	require.ErrorAs(t, err, &argErr)
	assert.Equal(t, "content", argErr.Field)

	_, err = CleanWikitext(ctx, e, "T", "x", "markdown")
	require.ErrorAs(t, err, &argErr)
	assert.Equal(t, "format", argErr.Field)
}

func TestEngine_RateLimit(t *testing.T) {
	e := newEngine(t, Config{RateLimit: 0.001, Burst: 1})
	ctx := context.Background()

	_, err := ConvertTables(ctx, e, "x")
	require.NoError(t, err)

	_, err = ConvertTables(ctx, e, "x")
	assert.ErrorIs(t, err, ErrRateLimited)
}

func TestEngine_Cancelled(t *testing.T) {
	e := newEngine(t, Config{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := StripRawParameters(ctx, e, "x")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestEngine_Reload(t *testing.T) {
	e := newEngine(t, Config{CacheTTL: time.Minute})
	ctx := context.Background()

	before, err := CleanWikitext(ctx, e, "T", "{{x}}", "")
	require.NoError(t, err)
	assert.Equal(t, "", before.Content)

	reg, err := templates.New(templates.UnknownSuppress, []templates.Rule{
		{Names: []string{"x"}, Kind: templates.KindLiteral, Text: "X"},
	})
	require.NoError(t, err)
	e.Reload(reg)

	assert.Same(t, reg, e.Registry())
	assert.Zero(t, e.GetCache().Len(), "reload drops cached results")

	after, err := CleanWikitext(ctx, e, "T", "{{x}}", "")
	require.NoError(t, err)
	assert.Equal(t, "X", after.Content)
}

func TestEngine_ReloadDuringClean(t *testing.T) {
	e := newEngine(t, Config{CacheTTL: time.Minute})
	ctx := context.Background()

	old := e.snapshot()
	reg, err := templates.New(templates.UnknownSuppress, []templates.Rule{
		{Names: []string{"x"}, Kind: templates.KindLiteral, Text: "X"},
	})
	require.NoError(t, err)
	e.Reload(reg)

	// A call that started before the reload stores its result late.
	stale := &CleanResult{Title: "T", Content: "stale"}
	e.GetCache().Set(cleanCacheKey(old, "T", "", "{{x}}"), stale, time.Minute)

	got, err := CleanWikitext(ctx, e, "T", "{{x}}", "")
	require.NoError(t, err)
	assert.Equal(t, "X", got.Content)
	assert.Greater(t, e.snapshot().generation, old.generation)
}

func TestSingleStageTools(t *testing.T) {
	e := newEngine(t, Config{})
	ctx := context.Background()

	tests := []struct {
		name string
		run  func(string) (*TextResult, error)
		in   string
		want string
	}{
		{
			name: "resolve_wikilinks",
			run:  func(s string) (*TextResult, error) { return ResolveWikilinks(ctx, e, s) },
			in:   "a [[x|y]] b [[z]]",
			want: "a y b z",
		},
		{
			name: "strip_raw_parameters",
			run:  func(s string) (*TextResult, error) { return StripRawParameters(ctx, e, s) },
			in:   "a{{{1|x}}}b",
			want: "ab",
		},
		{
			name: "convert_tables",
			run:  func(s string) (*TextResult, error) { return ConvertTables(ctx, e, s) },
			in:   "{|\n! A\n! B\n|-\n| 1\n| 2\n|-\n| 3\n|}",
			want: "A: 1 | B: 2\nA: 3",
		},
		{
			name: "expand_templates",
			run:  func(s string) (*TextResult, error) { return ExpandTemplates(ctx, e, s) },
			in:   "{{item|Sword}} {{na}}",
			want: "(Предмет: Sword) not available",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := tt.run(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, res.Text)

			_, err = tt.run("")
			var argErr *ArgumentError
			assert.ErrorAs(t, err, &argErr)
		})
	}
}

func TestResolveWikilinks_Unresolved(t *testing.T) {
	e := newEngine(t, Config{Options: wiki.Options{MaxPasses: 1}})

	_, err := ResolveWikilinks(context.Background(), e, "[[a|[[b|[[c]]]]]]")
	assert.ErrorIs(t, err, wikitext.ErrUnresolvedMarkup)
}

func TestExtractTemplates(t *testing.T) {
	e := newEngine(t, Config{})
	ctx := context.Background()
	text := "{{Infobox item|name=Кирка|damage=5}} {{item|Sword}} {{Item|mode=x|Bow}}"

	res, err := ExtractTemplates(ctx, e, text, "item")
	require.NoError(t, err)
	assert.Equal(t, 2, res.Count)
	assert.Equal(t, []TemplateCall{
		{Name: "item", Positional: []string{"Sword"}},
		{Name: "Item", Positional: []string{"Bow"}, Named: map[string]string{"mode": "x"}},
	}, res.Templates)

	res, err = ExtractTemplates(ctx, e, text, "")
	require.NoError(t, err)
	assert.Equal(t, 3, res.Count)
	assert.Equal(t, map[string]string{"name": "Кирка", "damage": "5"}, res.Templates[0].Named)

	res, err = ExtractTemplates(ctx, e, "no templates", "")
	require.NoError(t, err)
	assert.NotNil(t, res.Templates)
	assert.Zero(t, res.Count)
}

func TestCleanSections(t *testing.T) {
	e := newEngine(t, Config{Options: wiki.Options{
		UselessSections: wiki.DefaultUselessSections,
		TruncateAfter:   wiki.DefaultTruncateAfter,
	}})
	ctx := context.Background()
	text := "Text<br>more\n== Рецепт ==\nrecipe\n== Сноски ==\nrefs"

	res, err := CleanSections(ctx, e, text, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "Text more", res.Text)

	keep := ""
	res, err = CleanSections(ctx, e, text, []string{}, &keep)
	require.NoError(t, err)
	assert.Equal(t, "Text more\n== Рецепт ==\nrecipe\n== Сноски ==\nrefs", res.Text)
}
