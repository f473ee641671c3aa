package wiki

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
)

// ErrInvalidDump is returned for input that is neither a JSON object nor an
// array of records.
var ErrInvalidDump = errors.New("dump must be a JSON object or array of records")

// LoadDump reads records from r. The input is either an array of records or
// an object mapping titles to records; object entries are returned sorted by
// key and take the key as title when they have none.
func LoadDump(r io.Reader) ([]Record, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read dump: %w", err)
	}

	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, ErrInvalidDump
	}

	switch data[0] {
	case '[':
		var recs []Record
		if err := json.Unmarshal(data, &recs); err != nil {
			return nil, fmt.Errorf("decode dump: %w", err)
		}
		return recs, nil

	case '{':
		var byTitle map[string]Record
		if err := json.Unmarshal(data, &byTitle); err != nil {
			return nil, fmt.Errorf("decode dump: %w", err)
		}

		keys := make([]string, 0, len(byTitle))
		for k := range byTitle {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		recs := make([]Record, 0, len(keys))
		for _, k := range keys {
			rec := byTitle[k]
			if rec.Title == "" {
				rec.Title = k
			}
			recs = append(recs, rec)
		}
		return recs, nil
	}

	return nil, ErrInvalidDump
}

// ReadDumpFile loads the dump at path.
func ReadDumpFile(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dump: %w", err)
	}
	defer f.Close()

	recs, err := LoadDump(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return recs, nil
}

// WriteDump writes recs as an indented JSON array. Non-ASCII text and HTML
// characters are written as is.
func WriteDump(w io.Writer, recs []Record) error {
	if recs == nil {
		recs = []Record{}
	}

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(recs); err != nil {
		return fmt.Errorf("encode dump: %w", err)
	}
	return nil
}

// WriteDumpFile writes recs to path. The file is replaced only once the
// whole dump has been written.
func WriteDumpFile(path string, recs []Record) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create dump: %w", err)
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	if err = WriteDump(tmp, recs); err != nil {
		return err
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("close dump: %w", err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("write dump: %w", err)
	}
	return nil
}
