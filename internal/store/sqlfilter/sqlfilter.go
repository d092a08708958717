// Package sqlfilter compiles store filters and sort orders into parameterised
// SQL fragments for the relational backends.
package sqlfilter

import (
	"fmt"
	"strings"

	"github.com/phrazzld/taskboard-api/internal/store"
)

// Dialect captures the differences between SQL backends.
type Dialect interface {
	// Placeholder returns the bind marker for the n-th argument (1-based).
	Placeholder(n int) string

	// Contains returns a predicate that is true when the list column holds
	// the value bound at placeholder.
	Contains(column, placeholder string) string

	// Value converts a typed filter operand into a driver argument.
	Value(typ store.FieldType, v any) any
}

// Columns maps JSON field names to SQL column names.
type Columns map[string]string

// Compiler turns filters into WHERE clauses for one table.
type Compiler struct {
	dialect Dialect
	columns Columns
	schema  store.Schema
}

// New creates a Compiler for a table described by schema and columns.
func New(d Dialect, schema store.Schema, columns Columns) *Compiler {
	return &Compiler{dialect: d, columns: columns, schema: schema}
}

// Schema returns the schema the compiler validates filters against.
func (c *Compiler) Schema() store.Schema {
	return c.schema
}

// builder accumulates arguments while a filter is compiled.
type builder struct {
	c    *Compiler
	args []any
}

func (b *builder) bind(typ store.FieldType, v any) string {
	b.args = append(b.args, b.c.dialect.Value(typ, v))
	return b.c.dialect.Placeholder(len(b.args))
}

// Where compiles f into a boolean SQL expression and its arguments.
// argOffset is the number of arguments already bound by the caller.
// A nil filter compiles to "TRUE".
func (c *Compiler) Where(f store.Filter, argOffset int) (string, []any, error) {
	if err := store.ValidateFilter(f, c.schema); err != nil {
		return "", nil, err
	}
	b := &builder{c: c, args: make([]any, argOffset)}
	expr, err := b.compile(f)
	if err != nil {
		return "", nil, err
	}
	return expr, b.args[argOffset:], nil
}

func (b *builder) compile(f store.Filter) (string, error) {
	switch node := f.(type) {
	case nil:
		return "TRUE", nil
	case store.Condition:
		return b.condition(node)
	case store.And:
		return b.join(node, " AND ", "TRUE")
	case store.Or:
		return b.join(node, " OR ", "FALSE")
	default:
		return "", fmt.Errorf("%w: unsupported filter %T", store.ErrInvalidQuery, f)
	}
}

func (b *builder) join(children []store.Filter, sep, empty string) (string, error) {
	if len(children) == 0 {
		return empty, nil
	}
	parts := make([]string, 0, len(children))
	for _, child := range children {
		expr, err := b.compile(child)
		if err != nil {
			return "", err
		}
		parts = append(parts, expr)
	}
	return "(" + strings.Join(parts, sep) + ")", nil
}

var comparison = map[store.Op]string{
	store.OpEq:  "=",
	store.OpNe:  "<>",
	store.OpGt:  ">",
	store.OpGte: ">=",
	store.OpLt:  "<",
	store.OpLte: "<=",
}

func (b *builder) condition(c store.Condition) (string, error) {
	column, ok := b.c.columns[c.Field]
	if !ok {
		return "", fmt.Errorf("%w: unknown field %q", store.ErrInvalidQuery, c.Field)
	}

	if c.Type == store.FieldStringList {
		return b.listCondition(column, c)
	}

	switch c.Op {
	case store.OpIn, store.OpNin:
		if len(c.Values) == 0 {
			if c.Op == store.OpIn {
				return "FALSE", nil
			}
			return "TRUE", nil
		}
		marks := make([]string, 0, len(c.Values))
		for _, v := range c.Values {
			marks = append(marks, b.bind(c.Type, v))
		}
		keyword := "IN"
		if c.Op == store.OpNin {
			keyword = "NOT IN"
		}
		return fmt.Sprintf("%s %s (%s)", column, keyword, strings.Join(marks, ", ")), nil
	default:
		sqlOp, ok := comparison[c.Op]
		if !ok {
			return "", fmt.Errorf("%w: unknown operator %q", store.ErrInvalidQuery, c.Op)
		}
		return fmt.Sprintf("%s %s %s", column, sqlOp, b.bind(c.Type, c.Value)), nil
	}
}

func (b *builder) listCondition(column string, c store.Condition) (string, error) {
	contains := func(v any) string {
		return b.c.dialect.Contains(column, b.bind(store.FieldString, v))
	}

	switch c.Op {
	case store.OpEq:
		return contains(c.Value), nil
	case store.OpNe:
		return "NOT " + contains(c.Value), nil
	case store.OpIn, store.OpNin:
		if len(c.Values) == 0 {
			if c.Op == store.OpIn {
				return "FALSE", nil
			}
			return "TRUE", nil
		}
		parts := make([]string, 0, len(c.Values))
		for _, v := range c.Values {
			parts = append(parts, contains(v))
		}
		expr := "(" + strings.Join(parts, " OR ") + ")"
		if c.Op == store.OpNin {
			expr = "NOT " + expr
		}
		return expr, nil
	default:
		return "", fmt.Errorf("%w: operator %s not supported on %q", store.ErrInvalidQuery, c.Op, c.Field)
	}
}

// OrderBy compiles sort fields into an ORDER BY list. fallback is appended
// to keep the order deterministic and is used alone when fields is empty.
func (c *Compiler) OrderBy(fields []store.SortField, fallback string) (string, error) {
	parts := make([]string, 0, len(fields)+1)
	for _, f := range fields {
		column, ok := c.columns[f.Field]
		if !ok {
			return "", fmt.Errorf("%w: unknown sort field %q", store.ErrInvalidQuery, f.Field)
		}
		if c.schema[f.Field] == store.FieldStringList {
			return "", fmt.Errorf("%w: cannot sort by %q", store.ErrInvalidQuery, f.Field)
		}
		dir := "ASC"
		if f.Desc {
			dir = "DESC"
		}
		parts = append(parts, column+" "+dir)
	}
	if fallback != "" {
		parts = append(parts, fallback)
	}
	return strings.Join(parts, ", "), nil
}
