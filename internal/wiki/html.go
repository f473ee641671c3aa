package wiki

import (
	"fmt"
	"regexp"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"

	"github.com/terraria-rag/wikiclean/internal/wikitext"
)

var (
	// converter turns rendered page HTML into wikitext-shaped plain text
	converter *md.Converter

	excessNewlinesRe = regexp.MustCompile(`\n{3,}`)
)

// noiseSelectors are removed from a rendered page before conversion.
var noiseSelectors = strings.Join([]string{
	"style",
	"script",
	".navbox",
	".toc",
	"#toc",
	".mw-references-wrap",
	".references",
	".printfooter",
	".catlinks",
}, ", ")

func init() {
	converter = md.NewConverter("", true, &md.Options{
		HeadingStyle:     "atx",
		HorizontalRule:   "---",
		BulletListMarker: "*",
		CodeBlockStyle:   "fenced",
		EscapeMode:       "disabled",
	})

	// Rules added later win, so these replace the commonmark defaults.
	converter.AddRules(
		// Edit section links
		md.Rule{
			Filter: []string{"span"},
			AdvancedReplacement: func(content string, selec *goquery.Selection, opt *md.Options) (md.AdvancedResult, bool) {
				if selec.HasClass("mw-editsection") {
					return md.AdvancedResult{}, false
				}
				return md.AdvancedResult{Markdown: content}, false
			},
		},
		// Reference markers
		md.Rule{
			Filter: []string{"sup"},
			AdvancedReplacement: func(content string, selec *goquery.Selection, opt *md.Options) (md.AdvancedResult, bool) {
				if selec.HasClass("reference") {
					return md.AdvancedResult{}, false
				}
				return md.AdvancedResult{Markdown: content}, false
			},
		},
		// Links keep their text only, like resolved wikilinks.
		md.Rule{
			Filter: []string{"a"},
			Replacement: func(content string, selec *goquery.Selection, opt *md.Options) *string {
				return md.String(content)
			},
		},
		md.Rule{
			Filter: []string{"img"},
			Replacement: func(content string, selec *goquery.Selection, opt *md.Options) *string {
				return md.String("")
			},
		},
		// Emphasis carries no meaning for retrieval.
		md.Rule{
			Filter: []string{"b", "strong", "i", "em"},
			Replacement: func(content string, selec *goquery.Selection, opt *md.Options) *string {
				return md.String(content)
			},
		},
		md.Rule{
			Filter: []string{"h1", "h2", "h3", "h4", "h5", "h6"},
			Replacement: func(content string, selec *goquery.Selection, opt *md.Options) *string {
				title := strings.Join(strings.Fields(content), " ")
				if title == "" {
					return nil
				}
				level := int(goquery.NodeName(selec)[1] - '0')
				marks := strings.Repeat("=", level)
				return md.String("\n\n" + marks + " " + title + " " + marks + "\n\n")
			},
		},
		// Tables become wikitext tables so ConvertTables flattens them.
		md.Rule{
			Filter: []string{"table"},
			Replacement: func(content string, selec *goquery.Selection, opt *md.Options) *string {
				return md.String("\n\n" + tableToWikitext(selec) + "\n\n")
			},
		},
	)
}

// HTMLToWikitext converts a rendered MediaWiki page into text the cleaning
// pipeline understands: headings as "== Title ==", tables as {| ... |},
// links as their text.
func HTMLToWikitext(html string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}
	doc.Find(noiseSelectors).Remove()

	text := converter.Convert(doc.Selection)
	return cleanupConverted(text), nil
}

// cleanupConverted performs post-conversion cleanup
func cleanupConverted(text string) string {
	text = excessNewlinesRe.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}

// tableToWikitext renders the rows of an HTML table, ignoring tables nested
// inside it.
func tableToWikitext(table *goquery.Selection) string {
	var b strings.Builder
	b.WriteString("{|\n")

	rows := table.Find("tr").FilterFunction(func(_ int, tr *goquery.Selection) bool {
		return tr.Closest("table").IsSelection(table)
	})
	rows.Each(func(i int, tr *goquery.Selection) {
		if i > 0 {
			b.WriteString("|-\n")
		}

		var headers, cells []string
		tr.ChildrenFiltered("th, td").Each(func(_ int, cell *goquery.Selection) {
			text := cellText(cell)
			if goquery.NodeName(cell) == "th" {
				headers = append(headers, text)
			} else {
				cells = append(cells, text)
			}
		})

		switch {
		case len(cells) == 0 && len(headers) > 0:
			b.WriteString("! " + strings.Join(headers, " !! ") + "\n")
		case len(cells) > 0:
			// Row headers read as ordinary cells.
			b.WriteString("| " + strings.Join(append(headers, cells...), " || ") + "\n")
		}
	})

	b.WriteString("|}")
	return b.String()
}

func cellText(cell *goquery.Selection) string {
	cell = cell.Clone()
	cell.Find("br").ReplaceWithHtml(" ; ")
	cell.Find("sup.reference, .mw-editsection").Remove()

	text := strings.Join(strings.Fields(cell.Text()), " ")
	// Cell text is literal; ConvertTables restores the escaped characters.
	return wikitext.EscapeCell(strings.ReplaceAll(text, " ;", ";"))
}
