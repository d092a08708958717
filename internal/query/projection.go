package query

import (
	"bytes"
	"encoding/json"
	"errors"
)

const idField = "_id"

// Projection selects which fields of a document appear in a response.
// A nil *Projection keeps every field.
type Projection struct {
	fields    map[string]bool
	inclusive bool
	// hideID is only meaningful for inclusive projections; exclusive
	// projections list _id like any other field.
	hideID bool
}

// ParseProjection parses a select document such as {"name": 1, "email": 1}
// or {"pendingTasks": 0}. Inclusions and exclusions cannot be mixed, except
// that _id may be excluded from an inclusive projection. Unknown fields are
// accepted and simply never match.
func ParseProjection(raw string) (*Projection, error) {
	if raw == "" {
		return nil, nil
	}

	dec := json.NewDecoder(bytes.NewReader([]byte(raw)))
	dec.UseNumber()
	var doc map[string]any
	if err := dec.Decode(&doc); err != nil {
		return nil, invalid("select", "malformed JSON: %v", err)
	}
	if dec.More() {
		return nil, invalid("select", "trailing data")
	}
	if doc == nil {
		return nil, invalid("select", "expected an object")
	}
	if len(doc) == 0 {
		return nil, nil
	}

	include := make(map[string]bool, len(doc))
	for field, v := range doc {
		in, err := selectFlag(v)
		if err != nil {
			return nil, invalid("select", "field %q: %v", field, err)
		}
		include[field] = in
	}

	p := &Projection{fields: make(map[string]bool)}
	var includes, excludes int
	for field, in := range include {
		if field == idField {
			continue
		}
		if in {
			includes++
		} else {
			excludes++
		}
	}
	if includes > 0 && excludes > 0 {
		return nil, invalid("select", "cannot mix inclusion and exclusion")
	}

	idIn, hasID := include[idField]
	switch {
	case includes > 0:
		p.inclusive = true
		p.hideID = hasID && !idIn
		for field, in := range include {
			if in && field != idField {
				p.fields[field] = true
			}
		}
	case excludes > 0 || (hasID && !idIn):
		for field, in := range include {
			if !in {
				p.fields[field] = true
			}
		}
	default:
		// Only {"_id": 1}.
		p.inclusive = true
	}
	return p, nil
}

func selectFlag(v any) (bool, error) {
	switch f := v.(type) {
	case bool:
		return f, nil
	case json.Number:
		n, err := f.Float64()
		if err != nil {
			return false, err
		}
		return n != 0, nil
	}
	return false, errors.New("values must be 0, 1 or a boolean")
}

// Apply returns a copy of doc holding only the projected fields.
func (p *Projection) Apply(doc map[string]any) map[string]any {
	if p == nil {
		return doc
	}
	out := make(map[string]any, len(doc))
	for field, value := range doc {
		if p.keeps(field) {
			out[field] = value
		}
	}
	return out
}

func (p *Projection) keeps(field string) bool {
	if p.inclusive {
		if field == idField {
			return !p.hideID
		}
		return p.fields[field]
	}
	return !p.fields[field]
}
