package wiki

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDump(t *testing.T) {
	t.Run("object keyed by title", func(t *testing.T) {
		recs, err := LoadDump(strings.NewReader(`{
			"Зелье": {"title": "Зелье", "content": "2", "pageid": 2},
			"Alpha": {"content": "1"}
		}`))
		require.NoError(t, err)
		require.Len(t, recs, 2)
		assert.Equal(t, "Alpha", recs[0].Title)
		assert.Equal(t, "Зелье", recs[1].Title)
		assert.JSONEq(t, "2", string(recs[1].Metadata["pageid"]))
	})

	t.Run("array", func(t *testing.T) {
		recs, err := LoadDump(strings.NewReader(`[{"title":"B","content":"b"},{"title":"A","content":"a"}]`))
		require.NoError(t, err)
		require.Len(t, recs, 2)
		assert.Equal(t, "B", recs[0].Title)
	})

	t.Run("invalid", func(t *testing.T) {
		for _, in := range []string{"", "  ", "42", `"x"`} {
			_, err := LoadDump(strings.NewReader(in))
			assert.ErrorIs(t, err, ErrInvalidDump, in)
		}

		_, err := LoadDump(strings.NewReader(`[{"title":`))
		assert.Error(t, err)
	})
}

func TestWriteDump(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteDump(&buf, nil))
	assert.Equal(t, "[]\n", buf.String())

	buf.Reset()
	require.NoError(t, WriteDump(&buf, []Record{{Title: "Зелье", Content: "a < b"}}))
	assert.Equal(t, "[\n    {\n        \"title\": \"Зелье\",\n        \"content\": \"a < b\"\n    }\n]\n", buf.String())
}

func TestDumpFile_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cleaned.json")

	in := []Record{
		{Title: "Кирка", Content: "text", Warnings: []string{"w"}},
		{Title: "Empty"},
	}
	require.NoError(t, WriteDumpFile(path, in))

	out, err := ReadDumpFile(path)
	require.NoError(t, err)
	assert.Equal(t, in, out)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "Кирка")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary file must be gone")

	_, err = ReadDumpFile(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)
}
