package memory

import (
	"sort"
	"strings"
	"time"

	"github.com/phrazzld/taskboard-api/internal/store"
)

// document is the field map an entity exposes for filtering and sorting.
type document = map[string]any

// matches evaluates f against doc.
func matches(f store.Filter, doc document) bool {
	switch node := f.(type) {
	case nil:
		return true
	case store.Condition:
		return matchCondition(node, doc)
	case store.And:
		for _, child := range node {
			if !matches(child, doc) {
				return false
			}
		}
		return true
	case store.Or:
		for _, child := range node {
			if matches(child, doc) {
				return true
			}
		}
		return false
	default:
		return false
	}
}

func matchCondition(c store.Condition, doc document) bool {
	value := doc[c.Field]

	if list, ok := value.([]string); ok {
		contains := func(operand any) bool {
			for _, elem := range list {
				if any(elem) == operand {
					return true
				}
			}
			return false
		}
		switch c.Op {
		case store.OpEq:
			return contains(c.Value)
		case store.OpNe:
			return !contains(c.Value)
		case store.OpIn:
			for _, operand := range c.Values {
				if contains(operand) {
					return true
				}
			}
			return false
		case store.OpNin:
			for _, operand := range c.Values {
				if contains(operand) {
					return false
				}
			}
			return true
		}
		return false
	}

	equal := func(operand any) bool {
		cmp, ok := compare(value, operand)
		return ok && cmp == 0
	}

	switch c.Op {
	case store.OpEq:
		return equal(c.Value)
	case store.OpNe:
		return !equal(c.Value)
	case store.OpIn:
		for _, operand := range c.Values {
			if equal(operand) {
				return true
			}
		}
		return false
	case store.OpNin:
		for _, operand := range c.Values {
			if equal(operand) {
				return false
			}
		}
		return true
	}

	cmp, ok := compare(value, c.Value)
	if !ok {
		return false
	}
	switch c.Op {
	case store.OpGt:
		return cmp > 0
	case store.OpGte:
		return cmp >= 0
	case store.OpLt:
		return cmp < 0
	case store.OpLte:
		return cmp <= 0
	}
	return false
}

// compare orders two values of the same dynamic type.
// The boolean result is false when the values are not comparable.
func compare(a, b any) (int, bool) {
	switch x := a.(type) {
	case string:
		y, ok := b.(string)
		if !ok {
			return 0, false
		}
		return strings.Compare(x, y), true
	case bool:
		y, ok := b.(bool)
		if !ok {
			return 0, false
		}
		switch {
		case x == y:
			return 0, true
		case !x:
			return -1, true
		default:
			return 1, true
		}
	case time.Time:
		y, ok := b.(time.Time)
		if !ok {
			return 0, false
		}
		return x.Compare(y), true
	}
	return 0, false
}

// sortDocuments orders docs in place by fields. The sort is stable so
// insertion order breaks ties.
func sortDocuments(docs []document, fields []store.SortField) {
	if len(fields) == 0 {
		return
	}
	sort.SliceStable(docs, func(i, j int) bool {
		for _, f := range fields {
			cmp, ok := compare(docs[i][f.Field], docs[j][f.Field])
			if !ok || cmp == 0 {
				continue
			}
			if f.Desc {
				return cmp > 0
			}
			return cmp < 0
		}
		return false
	})
}

// window applies skip and limit to n matched items and returns the bounds.
func window(n, skip int, limit *int) (int, int) {
	start := skip
	if start > n {
		start = n
	}
	end := n
	if limit != nil && start+*limit < end {
		end = start + *limit
	}
	return start, end
}
