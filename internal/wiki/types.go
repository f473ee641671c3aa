package wiki

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Content formats
const (
	FormatWikitext = "wikitext"
	FormatHTML     = "html"
)

// Record is one page of a wiki dump.
//
// Keys other than title, content, format and warnings are kept verbatim in
// Metadata and written back unchanged.
type Record struct {
	Title    string
	Content  string
	Format   string
	Warnings []string
	Metadata map[string]json.RawMessage
}

var recordKeys = map[string]bool{
	"title":    true,
	"content":  true,
	"format":   true,
	"warnings": true,
}

// IsHTML reports whether Content holds rendered page HTML.
func (r Record) IsHTML() bool {
	return strings.EqualFold(r.Format, FormatHTML)
}

// WordCount counts whitespace-separated words in Content.
func (r Record) WordCount() int {
	return len(strings.Fields(r.Content))
}

// UnmarshalJSON reads a record object. content may be a string or, as in raw
// revision API output, an object with a "*" field.
func (r *Record) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*r = Record{}
	if v, ok := raw["title"]; ok {
		if err := json.Unmarshal(v, &r.Title); err != nil {
			return fmt.Errorf("title: %w", err)
		}
	}
	if v, ok := raw["content"]; ok {
		var c revisionText
		if err := json.Unmarshal(v, &c); err != nil {
			return fmt.Errorf("content: %w", err)
		}
		r.Content = c.Content
	}
	if v, ok := raw["format"]; ok {
		if err := json.Unmarshal(v, &r.Format); err != nil {
			return fmt.Errorf("format: %w", err)
		}
	}
	if v, ok := raw["warnings"]; ok {
		if err := json.Unmarshal(v, &r.Warnings); err != nil {
			return fmt.Errorf("warnings: %w", err)
		}
	}

	for k, v := range raw {
		if recordKeys[k] {
			continue
		}
		if r.Metadata == nil {
			r.Metadata = make(map[string]json.RawMessage)
		}
		r.Metadata[k] = v
	}
	return nil
}

// MarshalJSON writes title and content first, then format and warnings when
// set, then metadata keys in sorted order. HTML characters are not escaped.
func (r Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')

	first := true
	field := func(key string, v any) error {
		val, err := marshalPlain(v)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		writeField(&buf, &first, key, val)
		return nil
	}

	if err := field("title", r.Title); err != nil {
		return nil, err
	}
	if err := field("content", r.Content); err != nil {
		return nil, err
	}
	if r.Format != "" {
		if err := field("format", r.Format); err != nil {
			return nil, err
		}
	}
	if len(r.Warnings) > 0 {
		if err := field("warnings", r.Warnings); err != nil {
			return nil, err
		}
	}

	keys := make([]string, 0, len(r.Metadata))
	for k := range r.Metadata {
		if !recordKeys[k] {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	for _, k := range keys {
		v := r.Metadata[k]
		if len(v) == 0 {
			v = json.RawMessage("null")
		}
		writeField(&buf, &first, k, v)
	}

	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func writeField(buf *bytes.Buffer, first *bool, key string, val []byte) {
	if !*first {
		buf.WriteByte(',')
	}
	*first = false
	k, _ := marshalPlain(key)
	buf.Write(k)
	buf.WriteByte(':')
	buf.Write(val)
}

// marshalPlain is json.Marshal without HTML escaping.
func marshalPlain(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// revisionText handles both string and object formats for page text
type revisionText struct {
	Content string
}

func (t *revisionText) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		t.Content = s
		return nil
	}

	var obj struct {
		Content string `json:"*"`
	}
	if err := json.Unmarshal(data, &obj); err == nil {
		t.Content = obj.Content
		return nil
	}

	return fmt.Errorf("text must be string or object with * field")
}
