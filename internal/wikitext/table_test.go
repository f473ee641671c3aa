package wikitext

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
)

func TestConvertTables(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "header row and data rows",
			in: `Before
{| class="wikitable"
! Name !! Damage
|-
| Sword || 10
|-
| Bow ||
|}
After`,
			want: "Before\nName: Sword | Damage: 10\nName: Bow\nAfter",
		},
		{
			name: "one cell per line",
			in:   "{|\n! A\n! B\n|-\n| 1\n| 2\n|-\n| 3\n|}",
			want: "A: 1 | B: 2\nA: 3",
		},
		{
			name: "multi-row header",
			in: `{|
! rowspan=2 | Item !! colspan=2 | Stats
|-
! !! Damage !! Speed
|-
| Sword || 10 || Fast
|}`,
			want: "Item: Sword | Stats - Damage: 10 | Speed: Fast",
		},
		{
			name: "no header",
			in:   "{|\n| a || b\n|-\n| c || d || e\n|}",
			want: "Column 1: a | Column 2: b\nColumn 1: c | Column 2: d | Column 3: e",
		},
		{
			name: "extra cells get synthesized headers",
			in:   "{|\n! A\n|-\n| x || y\n|}",
			want: "A: x | Column 2: y",
		},
		{
			name: "empty rows are dropped",
			in:   "{|\n! A\n|-\n| \n|-\n| v\n|}",
			want: "A: v",
		},
		{
			name: "cell attributes and line breaks",
			in:   "{|\n! Ore !! Count\n|-\n| style=\"color:red\" | Copper<br/>Tin || 5\n|}",
			want: "Ore: Copper; Tin | Count: 5",
		},
		{
			name: "separators inside templates do not split",
			in:   "{|\n| {{item|A||B}} || 2\n|}",
			want: "Column 1: {{item|A||B}} | Column 2: 2",
		},
		{
			name: "pipe inside parentheses or a tag is cell text",
			in:   "{|\n! Name !! Drops\n|-\n| Zombie || Shackle (2%) <small>(a | b)</small>\n|}",
			want: "Name: Zombie | Drops: Shackle (2%) <small>(a | b)</small>",
		},
		{
			name: "double pipe inside parentheses does not split",
			in:   "{|\n! Name !! Note\n|-\n| Sword || deals (a || b) damage\n|}",
			want: "Name: Sword | Note: deals (a || b) damage",
		},
		{
			name: "text before a single pipe is kept unless it is attributes",
			in:   "{|\n! Sold by\n|-\n| Merchant | Arms Dealer\n|-\n| align=center | Nurse\n|}",
			want: "Sold by: Merchant | Arms Dealer\nSold by: Nurse",
		},
		{
			name: "cell continues on following lines",
			in:   "{|\n! Name !! Drops\n|-\n| Slime\n|\n* Gel (100%)\n* Slime Staff (0.01%)\n|}",
			want: "Name: Slime | Drops: * Gel (100%) * Slime Staff (0.01%)",
		},
		{
			name: "header cell continues on following lines",
			in:   "{|\n! Name\n! Drops\nper kill\n|-\n| Slime || Gel\n|}",
			want: "Name: Slime | Drops per kill: Gel",
		},
		{
			name: "stray lines outside cells are dropped",
			in:   "{|\n|+ Caption\nmore caption\n! A\n|-\nstray\n| 1\n|}",
			want: "A: 1",
		},
		{
			name: "cells separated by wide gaps",
			in:   "{|\n! A !! B !! C\n|-\n| x  y  z\n|}",
			want: "A: x | B: y | C: z",
		},
		{
			name: "caption is ignored",
			in:   "{|\n|+ Caption\n! A\n|-\n| 1\n|}",
			want: "A: 1",
		},
		{
			name: "table inside a template is left alone",
			in:   "{{box|{|\n| a\n|}}}",
			want: "{{box|{|\n| a\n|}}}",
		},
		{
			name: "unterminated table is text",
			in:   "{|\n| a",
			want: "{|\n| a",
		},
		{
			name: "no table",
			in:   "plain | text || here",
			want: "plain | text || here",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ConvertTables(tt.in))
		})
	}
}

func TestParseTable(t *testing.T) {
	src := "{| class=\"wikitable\"\n! rowspan=2 | Item !! Stats\n|-\n! !! Damage\n|-\n| Sword\n| 10\n|-\n| Bow || 5\n|}"

	tbl := parseTable(src)

	wantHeaders := [][]string{{"Item", "Stats"}, {"", "Damage"}}
	if diff := cmp.Diff(wantHeaders, tbl.headerRows); diff != "" {
		t.Errorf("header rows mismatch (-want +got):\n%s", diff)
	}

	wantData := [][]string{{"Sword", "10"}, {"Bow || 5"}}
	if diff := cmp.Diff(wantData, tbl.dataRows); diff != "" {
		t.Errorf("data rows mismatch (-want +got):\n%s", diff)
	}

	assert.Equal(t, []string{"Item", "Stats - Damage"}, tbl.headers())
}

func TestParseTable_ContinuationLines(t *testing.T) {
	tbl := parseTable("{|\n! Drops\nper kill\n|-\n| Slime\n|\n* Gel\n|}")

	if diff := cmp.Diff([][]string{{"Drops per kill"}}, tbl.headerRows); diff != "" {
		t.Errorf("header rows mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([][]string{{"Slime", "\n* Gel"}}, tbl.dataRows); diff != "" {
		t.Errorf("data rows mismatch (-want +got):\n%s", diff)
	}
}

func TestDropAttributeBlock(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{`style="color:red" | Copper`, " Copper"},
		{`rowspan=2 colspan='3' | x`, " x"},
		{"| x", " x"},
		{"Merchant | Arms Dealer", "Merchant | Arms Dealer"},
		{"a=1 and more | x", "a=1 and more | x"},
		{"Shackle (a | b)", "Shackle (a | b)"},
		{"<small>a | b</small>", "<small>a | b</small>"},
		{"plain", "plain"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, dropAttributeBlock(tt.in), tt.in)
	}
}

func TestTableHeaders_EmptyColumn(t *testing.T) {
	tbl := table{headerRows: [][]string{{"", "B"}}}
	assert.Equal(t, []string{"col1", "B"}, tbl.headers())
}

func TestConvertTables_RowCount(t *testing.T) {
	// Output never has more lines than the table has data rows.
	src := "{|\n! H\n|-\n| a\n|-\n| b\n|-\n|\n|-\n| c\n|}"
	tbl := parseTable(src)
	out := ConvertTables(src)

	assert.LessOrEqual(t, len(strings.Split(out, "\n")), len(tbl.dataRows))
	assert.Equal(t, "H: a\nH: b\nH: c", out)
}

func TestSplitCells(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"a || b", []string{"a ", " b"}},
		{"[[x||y]] || b", []string{"[[x||y]] ", " b"}},
		{"<span a='||'>t</span> || b", []string{"<span a='||'>t</span> ", " b"}},
		{"(a || b) || c", []string{"(a || b) ", " c"}},
		{"single", []string{"single"}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, splitCells(tt.in, "||"), tt.in)
	}
}

func TestCleanCell(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{`align="center" 12`, "12"},
		{"a<br>b<BR />c", "a; b; c"},
		{"  lots   of\tspace ", "lots of space"},
		{"{{item|x=1}}", "{{item|x=1}}"},
		{EscapeCell("a | b=c!"), "a | b=c!"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, cleanCell(tt.in), tt.in)
	}
}
