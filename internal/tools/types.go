package tools

// CleanResult is the output of clean_wikitext.
type CleanResult struct {
	Title     string   `json:"title"`
	Content   string   `json:"content"`
	Warnings  []string `json:"warnings,omitempty"`
	WordCount int      `json:"word_count"`
}

// TextResult is the output of the single-stage tools.
type TextResult struct {
	Text      string `json:"text"`
	WordCount int    `json:"word_count"`
}

// TemplateCall is one parsed template invocation.
type TemplateCall struct {
	Name       string            `json:"name"`
	Positional []string          `json:"positional,omitempty"`
	Named      map[string]string `json:"named,omitempty"`
}

// TemplatesResult is the output of extract_templates.
type TemplatesResult struct {
	Templates []TemplateCall `json:"templates"`
	Count     int            `json:"count"`
}
