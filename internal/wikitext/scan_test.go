package wikitext

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFindSpans(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		delims Delims
		guards []Delims
		want   []Span
	}{
		{
			name:   "flat and nested templates",
			text:   "a{{b}}c{{d{{e}}f}}",
			delims: Template,
			want:   []Span{{Start: 1, End: 6}, {Start: 7, End: 18}},
		},
		{
			name:   "unterminated opener is text",
			text:   "{{a|b",
			delims: Template,
			want:   nil,
		},
		{
			name:   "table inside template is ignored",
			text:   "{{x|{|a|}}}\n{|\n|b\n|}",
			delims: Table,
			guards: []Delims{Template, Link},
			want:   []Span{{Start: 12, End: 20}},
		},
		{
			name:   "nested tables form one span",
			text:   "{|\n{|\n|}\n|}tail",
			delims: Table,
			guards: []Delims{Template, Link},
			want:   []Span{{Start: 0, End: 11}},
		},
		{
			name:   "closer without opener",
			text:   "a}}b",
			delims: Template,
			want:   nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FindSpans(tt.text, tt.delims, tt.guards...))
		})
	}
}

func TestRemoveSpans(t *testing.T) {
	text := "keep{{drop}}keep{{drop}}"
	assert.Equal(t, "keepkeep", removeSpans(text, FindSpans(text, Template)))
	assert.Equal(t, "plain", removeSpans("plain", nil))
}
