package query

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"

	"github.com/phrazzld/taskboard-api/internal/domain"
	"github.com/phrazzld/taskboard-api/internal/store"
)

// ParseFilter parses a where document against schema.
// An empty string yields a nil filter. Values that cannot be cast to their
// field type produce a *store.CastError; every other problem a *ParseError.
func ParseFilter(raw string, schema store.Schema) (store.Filter, error) {
	if raw == "" {
		return nil, nil
	}

	dec := json.NewDecoder(bytes.NewReader([]byte(raw)))
	dec.UseNumber()
	var doc map[string]any
	if err := dec.Decode(&doc); err != nil {
		return nil, invalid("where", "malformed JSON: %v", err)
	}
	if dec.More() {
		return nil, invalid("where", "trailing data")
	}
	if doc == nil {
		return nil, invalid("where", "expected an object")
	}
	return parseDocument(doc, schema)
}

func parseDocument(doc map[string]any, schema store.Schema) (store.Filter, error) {
	keys := make([]string, 0, len(doc))
	for k := range doc {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var parts store.And
	for _, key := range keys {
		value := doc[key]
		switch key {
		case "$and", "$or":
			children, err := parseClauses(key, value, schema)
			if err != nil {
				return nil, err
			}
			if key == "$and" {
				parts = append(parts, store.And(children))
			} else {
				parts = append(parts, store.Or(children))
			}
			continue
		}
		if len(key) > 0 && key[0] == '$' {
			return nil, invalid("where", "unknown operator %q", key)
		}

		typ, ok := schema[key]
		if !ok {
			return nil, invalid("where", "unknown field %q", key)
		}
		conds, err := parseField(key, typ, value)
		if err != nil {
			return nil, err
		}
		parts = append(parts, conds...)
	}

	if len(parts) == 1 {
		return parts[0], nil
	}
	return parts, nil
}

func parseClauses(op string, value any, schema store.Schema) ([]store.Filter, error) {
	list, ok := value.([]any)
	if !ok || len(list) == 0 {
		return nil, invalid("where", "%s expects a non-empty array", op)
	}
	children := make([]store.Filter, 0, len(list))
	for _, item := range list {
		doc, ok := item.(map[string]any)
		if !ok {
			return nil, invalid("where", "%s expects objects", op)
		}
		child, err := parseDocument(doc, schema)
		if err != nil {
			return nil, err
		}
		children = append(children, child)
	}
	return children, nil
}

func parseField(field string, typ store.FieldType, value any) ([]store.Filter, error) {
	ops, isObject := value.(map[string]any)
	if !isObject {
		operand, err := castValue(field, typ, value)
		if err != nil {
			return nil, err
		}
		return []store.Filter{store.Condition{Field: field, Type: typ, Op: store.OpEq, Value: operand}}, nil
	}
	if len(ops) == 0 {
		return nil, invalid("where", "empty condition for %q", field)
	}

	names := make([]string, 0, len(ops))
	for name := range ops {
		names = append(names, name)
	}
	sort.Strings(names)

	conds := make([]store.Filter, 0, len(ops))
	for _, name := range names {
		op, ok := store.ParseOp(name)
		if !ok {
			return nil, invalid("where", "unknown operator %q for %q", name, field)
		}
		if typ == store.FieldStringList && op.IsOrdering() {
			return nil, invalid("where", "operator %s not supported on %q", name, field)
		}

		cond := store.Condition{Field: field, Type: typ, Op: op}
		if op.IsSet() {
			list, ok := ops[name].([]any)
			if !ok {
				return nil, invalid("where", "%s on %q expects an array", name, field)
			}
			cond.Values = make([]any, 0, len(list))
			for _, item := range list {
				operand, err := castValue(field, typ, item)
				if err != nil {
					return nil, err
				}
				cond.Values = append(cond.Values, operand)
			}
		} else {
			operand, err := castValue(field, typ, ops[name])
			if err != nil {
				return nil, err
			}
			cond.Value = operand
		}
		conds = append(conds, cond)
	}
	return conds, nil
}

// castValue converts a decoded JSON literal to the Go type stores expect for typ.
func castValue(field string, typ store.FieldType, value any) (any, error) {
	castErr := &store.CastError{Field: field, Value: literal(value), Type: typ}

	switch typ {
	case store.FieldID:
		s, ok := value.(string)
		if !ok {
			return nil, castErr
		}
		id, err := domain.ParseID(s)
		if err != nil {
			return nil, castErr
		}
		return id.String(), nil

	case store.FieldString, store.FieldStringList:
		switch v := value.(type) {
		case string:
			return v, nil
		case json.Number:
			return v.String(), nil
		case bool:
			return strconv.FormatBool(v), nil
		}
		return nil, castErr

	case store.FieldBool:
		switch v := value.(type) {
		case bool:
			return v, nil
		case string:
			if b, err := strconv.ParseBool(v); err == nil {
				return b, nil
			}
		}
		return nil, castErr

	case store.FieldTime:
		var input any = value
		if n, ok := value.(json.Number); ok {
			f, err := n.Float64()
			if err != nil {
				return nil, castErr
			}
			input = f
		}
		if _, ok := input.(bool); ok {
			return nil, castErr
		}
		t, err := domain.ParseDate(field, input)
		if err != nil {
			return nil, castErr
		}
		return t, nil
	}
	return nil, castErr
}

// literal renders a decoded JSON value for error messages.
func literal(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case nil:
		return "null"
	case json.Number:
		return v.String()
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprint(v)
		}
		return string(b)
	}
}
