package query

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"strings"

	"github.com/phrazzld/taskboard-api/internal/store"
)

// ParseSort parses a sort document such as {"deadline": 1, "name": -1}.
// Key order in the document is the sort precedence. Directions may be 1, -1
// or one of "asc", "ascending", "desc", "descending".
func ParseSort(raw string, schema store.Schema) ([]store.SortField, error) {
	if raw == "" {
		return nil, nil
	}

	dec := json.NewDecoder(bytes.NewReader([]byte(raw)))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil || tok != json.Delim('{') {
		return nil, invalid("sort", "expected an object")
	}

	var fields []store.SortField
	seen := make(map[string]bool)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, invalid("sort", "malformed JSON: %v", err)
		}
		key, ok := tok.(string)
		if !ok {
			return nil, invalid("sort", "expected a field name")
		}

		var direction any
		if err := dec.Decode(&direction); err != nil {
			return nil, invalid("sort", "malformed JSON: %v", err)
		}
		desc, err := parseDirection(direction)
		if err != nil {
			return nil, invalid("sort", "field %q: %v", key, err)
		}

		typ, ok := schema[key]
		if !ok {
			return nil, invalid("sort", "unknown field %q", key)
		}
		if typ == store.FieldStringList {
			return nil, invalid("sort", "cannot sort by %q", key)
		}
		if seen[key] {
			continue
		}
		seen[key] = true
		fields = append(fields, store.SortField{Field: key, Desc: desc})
	}

	if tok, err := dec.Token(); err != nil || tok != json.Delim('}') {
		return nil, invalid("sort", "unterminated object")
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, invalid("sort", "trailing data")
	}
	return fields, nil
}

func parseDirection(v any) (bool, error) {
	switch d := v.(type) {
	case json.Number:
		switch d.String() {
		case "1":
			return false, nil
		case "-1":
			return true, nil
		}
	case string:
		switch strings.ToLower(d) {
		case "asc", "ascending", "1":
			return false, nil
		case "desc", "descending", "-1":
			return true, nil
		}
	}
	return false, errors.New("direction must be 1 or -1")
}
