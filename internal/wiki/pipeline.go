package wiki

import (
	"errors"
	"fmt"
	"strings"

	"github.com/terraria-rag/wikiclean/internal/wikitext"
)

// Section defaults for the Russian Terraria wiki.
var (
	DefaultUselessSections = []string{"Рецепт", "Создание"}
	DefaultTruncateAfter   = "Сноски"
)

// Options configures a Cleaner.
type Options struct {
	// Handler renders templates. Nil drops every template.
	Handler wikitext.Handler

	// UselessSections are deleted together with their subsections.
	UselessSections []string

	// TruncateAfter names the section where a page is cut off. Empty keeps
	// the whole page.
	TruncateAfter string

	// MaxPasses bounds link and template resolution. Zero means
	// wikitext.DefaultMaxPasses.
	MaxPasses int
}

// Cleaner runs the cleaning pipeline over records. It holds no mutable state
// and may be shared between goroutines.
type Cleaner struct {
	opts Options
}

// NewCleaner creates a Cleaner.
func NewCleaner(opts Options) *Cleaner {
	opts.UselessSections = append([]string(nil), opts.UselessSections...)
	return &Cleaner{opts: opts}
}

// Options returns the configuration the cleaner was built with.
func (c *Cleaner) Options() Options {
	opts := c.opts
	opts.UselessSections = append([]string(nil), c.opts.UselessSections...)
	return opts
}

// CleanText turns one page of wikitext into plain text.
//
// Markup that does not settle within the pass limit is still cleaned as far
// as possible and reported in warnings. A handler error is returned as is.
func (c *Cleaner) CleanText(title, content string) (string, []string, error) {
	var warnings []string
	degraded := func(err error) error {
		var ue *wikitext.UnresolvedError
		if errors.As(err, &ue) {
			warnings = append(warnings, ue.Error())
			return nil
		}
		return err
	}

	text := wikitext.SubstituteTitle(content, title)
	text = wikitext.RemoveAccents(text)

	text, err := wikitext.ResolveWikilinksN(text, c.opts.MaxPasses)
	if err = degraded(err); err != nil {
		return "", nil, err
	}

	text = wikitext.StripRawParameters(text)
	text = wikitext.ConvertTables(text)

	expanded, err := wikitext.ExpandTemplatesN(text, c.opts.Handler, c.opts.MaxPasses)
	if err = degraded(err); err != nil {
		return "", nil, err
	}

	text = wikitext.CleanTagsAndSections(expanded, c.opts.UselessSections, c.opts.TruncateAfter)
	return wikitext.NormalizeWhitespace(text), warnings, nil
}

// CleanRecord cleans rec.Content. A record without content is returned
// unchanged. HTML records are converted to wikitext first.
func (c *Cleaner) CleanRecord(rec Record) (Record, error) {
	if strings.TrimSpace(rec.Content) == "" {
		return rec, nil
	}

	content := rec.Content
	if rec.IsHTML() {
		converted, err := HTMLToWikitext(content)
		if err != nil {
			return rec, fmt.Errorf("clean %q: %w", rec.Title, err)
		}
		content = converted
	}

	text, warnings, err := c.CleanText(rec.Title, content)
	if err != nil {
		return rec, fmt.Errorf("clean %q: %w", rec.Title, err)
	}

	rec.Content = text
	if len(warnings) > 0 {
		rec.Warnings = append(append([]string(nil), rec.Warnings...), warnings...)
	}
	return rec, nil
}
