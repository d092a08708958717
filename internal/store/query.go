package store

import "fmt"

// FieldType is the storage type of a filterable field.
type FieldType int

// Supported field types.
const (
	FieldString FieldType = iota
	FieldID
	FieldBool
	FieldTime
	FieldStringList
)

// String returns a readable name for the type.
func (t FieldType) String() string {
	switch t {
	case FieldID:
		return "id"
	case FieldBool:
		return "boolean"
	case FieldTime:
		return "date"
	case FieldStringList:
		return "string list"
	default:
		return "string"
	}
}

// Schema maps JSON field names to their types.
type Schema map[string]FieldType

// UserSchema lists the filterable and sortable User fields.
var UserSchema = Schema{
	"_id":          FieldID,
	"name":         FieldString,
	"email":        FieldString,
	"pendingTasks": FieldStringList,
	"dateCreated":  FieldTime,
}

// TaskSchema lists the filterable and sortable Task fields.
var TaskSchema = Schema{
	"_id":              FieldID,
	"name":             FieldString,
	"description":      FieldString,
	"deadline":         FieldTime,
	"completed":        FieldBool,
	"assignedUser":     FieldString,
	"assignedUserName": FieldString,
	"dateCreated":      FieldTime,
}

// Op is a comparison operator in a filter condition.
type Op string

// Supported comparison operators.
const (
	OpEq  Op = "$eq"
	OpNe  Op = "$ne"
	OpGt  Op = "$gt"
	OpGte Op = "$gte"
	OpLt  Op = "$lt"
	OpLte Op = "$lte"
	OpIn  Op = "$in"
	OpNin Op = "$nin"
)

// IsSet reports whether the operator takes a list of values.
func (o Op) IsSet() bool {
	return o == OpIn || o == OpNin
}

// IsOrdering reports whether the operator compares order rather than equality.
func (o Op) IsOrdering() bool {
	return o == OpGt || o == OpGte || o == OpLt || o == OpLte
}

// ParseOp returns the operator named by s.
func ParseOp(s string) (Op, bool) {
	switch op := Op(s); op {
	case OpEq, OpNe, OpGt, OpGte, OpLt, OpLte, OpIn, OpNin:
		return op, true
	}
	return "", false
}

// Filter is a predicate over entity fields. The concrete types are
// Condition, And and Or. A nil Filter matches every entity.
type Filter interface {
	isFilter()
}

// Condition compares one field against typed values.
//
// Value holds the operand for scalar operators and Values the operands for
// OpIn and OpNin. Operands are already cast to the field type: string for
// FieldString, FieldID (canonical form) and FieldStringList elements, bool for
// FieldBool and time.Time for FieldTime.
type Condition struct {
	Field  string
	Type   FieldType
	Op     Op
	Value  any
	Values []any
}

// And matches when every child matches. An empty And matches everything.
type And []Filter

// Or matches when at least one child matches. An empty Or matches nothing.
type Or []Filter

func (Condition) isFilter() {}
func (And) isFilter()       {}
func (Or) isFilter()        {}

// Eq is a convenience constructor for an equality condition.
func Eq(field string, typ FieldType, value any) Condition {
	return Condition{Field: field, Type: typ, Op: OpEq, Value: value}
}

// SortField orders results by one field.
type SortField struct {
	Field string
	Desc  bool
}

// Query describes a list operation.
//
// A nil Limit means no cap; a Limit of zero returns no rows.
type Query struct {
	Filter Filter
	Sort   []SortField
	Skip   int
	Limit  *int
}

// Validate checks the query against schema.
func (q Query) Validate(schema Schema) error {
	if err := ValidateFilter(q.Filter, schema); err != nil {
		return err
	}
	for _, s := range q.Sort {
		typ, ok := schema[s.Field]
		if !ok {
			return fmt.Errorf("%w: unknown sort field %q", ErrInvalidQuery, s.Field)
		}
		if typ == FieldStringList {
			return fmt.Errorf("%w: cannot sort by %q", ErrInvalidQuery, s.Field)
		}
	}
	if q.Skip < 0 {
		return fmt.Errorf("%w: negative skip", ErrInvalidQuery)
	}
	if q.Limit != nil && *q.Limit < 0 {
		return fmt.Errorf("%w: negative limit", ErrInvalidQuery)
	}
	return nil
}

// ValidateFilter checks that f only references fields in schema with
// operators their types support.
func ValidateFilter(f Filter, schema Schema) error {
	switch node := f.(type) {
	case nil:
		return nil
	case Condition:
		typ, ok := schema[node.Field]
		if !ok {
			return fmt.Errorf("%w: unknown field %q", ErrInvalidQuery, node.Field)
		}
		if typ != node.Type {
			return fmt.Errorf("%w: field %q is a %s", ErrInvalidQuery, node.Field, typ)
		}
		if _, ok := ParseOp(string(node.Op)); !ok {
			return fmt.Errorf("%w: unknown operator %q", ErrInvalidQuery, node.Op)
		}
		if typ == FieldStringList && node.Op.IsOrdering() {
			return fmt.Errorf("%w: operator %s not supported on %q", ErrInvalidQuery, node.Op, node.Field)
		}
		return nil
	case And:
		for _, child := range node {
			if err := ValidateFilter(child, schema); err != nil {
				return err
			}
		}
		return nil
	case Or:
		for _, child := range node {
			if err := ValidateFilter(child, schema); err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("%w: unsupported filter %T", ErrInvalidQuery, f)
	}
}

// Page returns how many of total matching entities a query window yields.
func Page(total, skip int, limit *int) int {
	n := total - skip
	if n < 0 {
		n = 0
	}
	if limit != nil && *limit < n {
		n = *limit
	}
	return n
}
