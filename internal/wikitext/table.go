package wikitext

import (
	"fmt"
	"strings"
)

// ConvertTables replaces every {| ... |} table with plain lines, one per
// data row, in the form "Header: value | Header: value". Empty cells are
// left out and rows without any content are dropped. Text outside tables is
// not touched. Tables that sit inside a template or a link are not tables.
func ConvertTables(text string) string {
	spans := FindSpans(text, Table, Template, Link)
	if len(spans) == 0 {
		return text
	}

	var b strings.Builder
	b.Grow(len(text))
	last := 0
	for _, s := range spans {
		b.WriteString(text[last:s.Start])
		b.WriteString(parseTable(text[s.Start:s.End]).render())
		last = s.End
	}
	b.WriteString(text[last:])
	return b.String()
}

// rowState is the position of the table row parser. It decides where a
// line without a table marker goes.
type rowState int

const (
	outsideTable rowState = iota
	// betweenRows: no cell is open, e.g. right after "|-".
	betweenRows
	inCaption
	inHeaderRow
	inDataRow
)

// table is a parsed wiki table before flattening.
type table struct {
	headerRows [][]string
	// dataRows holds the raw content of every physical data line, grouped
	// by logical row. Continuation lines are joined to the line they
	// continue.
	dataRows [][]string
}

// tableParser walks the lines of one table. header and data hold the raw
// lines of the open logical row.
type tableParser struct {
	state  rowState
	depth  int
	header []string
	data   []string
	out    table
}

// parseTable parses a span produced by FindSpans, "{|" through "|}".
func parseTable(src string) table {
	src = strings.TrimSuffix(src, Table.Close)
	lines := strings.Split(src, "\n")

	p := &tableParser{state: betweenRows, depth: 1}
	// The opening line only carries table attributes.
	for _, raw := range lines[1:] {
		p.feed(strings.TrimLeft(strings.TrimRight(raw, "\r"), " \t"))
	}
	p.flush()
	return p.out
}

func (p *tableParser) feed(line string) {
	if p.state == outsideTable {
		return
	}

	switch {
	case line == "":
	case strings.HasPrefix(line, "{|"):
		// Rows of a nested table merge into the enclosing one.
		p.depth++
	case strings.HasPrefix(line, "|}"):
		p.flush()
		if p.depth--; p.depth == 0 {
			p.state = outsideTable
		}
	case strings.HasPrefix(line, "|-"):
		p.flush()
	case strings.HasPrefix(line, "|+"):
		p.state = inCaption
	case strings.HasPrefix(line, "!"):
		p.state = inHeaderRow
		p.header = append(p.header, strings.TrimSpace(strings.TrimLeft(line, "!")))
	case strings.HasPrefix(line, "|"):
		p.state = inDataRow
		p.data = append(p.data, strings.TrimSpace(strings.TrimLeft(line, "|")))
	default:
		p.continueCell(line)
	}
}

// continueCell appends a line without a table marker to the cell that is
// open. Text outside any cell is dropped.
func (p *tableParser) continueCell(line string) {
	switch p.state {
	case inHeaderRow:
		p.header[len(p.header)-1] += "\n" + line
	case inDataRow:
		p.data[len(p.data)-1] += "\n" + line
	}
}

// flush closes the current logical row.
func (p *tableParser) flush() {
	if p.header != nil {
		var cells []string
		for _, content := range p.header {
			cells = append(cells, parseCells(content, "!!")...)
		}
		p.out.headerRows = append(p.out.headerRows, cells)
	}
	if p.data != nil {
		p.out.dataRows = append(p.out.dataRows, p.data)
	}
	p.header, p.data = nil, nil
	if p.state != outsideTable {
		p.state = betweenRows
	}
}

// headers flattens multi-row headers into one name per column.
func (t table) headers() []string {
	width := 0
	for _, r := range t.headerRows {
		width = max(width, len(r))
	}

	names := make([]string, width)
	for col := range names {
		var parts []string
		for _, r := range t.headerRows {
			if col < len(r) && r[col] != "" {
				parts = append(parts, r[col])
			}
		}
		if len(parts) == 0 {
			names[col] = fmt.Sprintf("col%d", col+1)
			continue
		}
		names[col] = strings.Join(parts, " - ")
	}
	return names
}

// rows parses the data lines into cleaned cells. expected is the number of
// columns announced by the header.
func (t table) rows(expected int) [][]string {
	rows := make([][]string, 0, len(t.dataRows))
	for _, lines := range t.dataRows {
		var cells []string
		for _, content := range lines {
			cells = append(cells, parseCells(content, "||")...)
		}

		if len(lines) == 1 && len(cells) == 1 && expected > 1 && !strings.Contains(lines[0], "\n") {
			if parts := splitWideGaps(lines[0]); len(parts) > 1 {
				cells = cells[:0]
				for _, part := range parts {
					cells = append(cells, cleanCell(part))
				}
			}
		}
		rows = append(rows, cells)
	}
	return rows
}

// render emits one "Header: value | ..." line per non-empty row.
func (t table) render() string {
	headers := t.headers()
	rows := t.rows(len(headers))

	var lines []string
	for _, cells := range rows {
		// Extra cells get synthesized headers instead of being dropped.
		for len(headers) < len(cells) {
			headers = append(headers, fmt.Sprintf("Column %d", len(headers)+1))
		}

		var parts []string
		for i, cell := range cells {
			if cell != "" {
				parts = append(parts, headers[i]+": "+cell)
			}
		}
		if len(parts) > 0 {
			lines = append(lines, strings.Join(parts, " | "))
		}
	}
	return strings.Join(lines, "\n")
}
