package wiki

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordJSON_RoundTripsMetadata(t *testing.T) {
	in := `{"title":"Мощность кирки","pageid":15283,"ns":0,"timestamp":"2025-07-17T23:59:02Z","user":"KUBE","content":"x < y & z","extra":{"nested":[1,2]}}`

	var rec Record
	require.NoError(t, json.Unmarshal([]byte(in), &rec))
	assert.Equal(t, "Мощность кирки", rec.Title)
	assert.Equal(t, "x < y & z", rec.Content)
	assert.Len(t, rec.Metadata, 5)

	out, err := json.Marshal(rec)
	require.NoError(t, err)
	assert.JSONEq(t, in, string(out))
	assert.Contains(t, string(out), `"x < y & z"`)
	assert.Contains(t, string(out), "Мощность кирки")
}

func TestRecordJSON_KeyOrder(t *testing.T) {
	rec := Record{
		Title:    "A",
		Content:  "c",
		Format:   FormatHTML,
		Warnings: []string{"w"},
		Metadata: map[string]json.RawMessage{"user": json.RawMessage(`"KUBE"`), "ns": json.RawMessage(`0`)},
	}

	out, err := json.Marshal(rec)
	require.NoError(t, err)
	assert.Equal(t, `{"title":"A","content":"c","format":"html","warnings":["w"],"ns":0,"user":"KUBE"}`, string(out))
}

func TestRecordJSON_RevisionContent(t *testing.T) {
	var rec Record
	require.NoError(t, json.Unmarshal([]byte(`{"title":"B","content":{"*":"'''B'''"}}`), &rec))
	assert.Equal(t, "'''B'''", rec.Content)

	require.NoError(t, json.Unmarshal([]byte(`{"title":"C","content":null}`), &rec))
	assert.Equal(t, "", rec.Content)
	assert.Nil(t, rec.Metadata)

	assert.Error(t, json.Unmarshal([]byte(`{"content":42}`), &rec))
	assert.Error(t, json.Unmarshal([]byte(`[]`), &rec))
}

func TestRecordHelpers(t *testing.T) {
	assert.True(t, Record{Format: "HTML"}.IsHTML())
	assert.False(t, Record{}.IsHTML())
	assert.Equal(t, 3, Record{Content: " a b\nc "}.WordCount())
}
