package query

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/phrazzld/taskboard-api/internal/store"
)

// List is a parsed list request.
type List struct {
	Query      store.Query
	Projection *Projection
	// Count requests the number of matching entities instead of the entities.
	Count bool
}

// Options tunes ParseList for one collection.
type Options struct {
	// DefaultLimit caps the result window when the request carries no limit
	// parameter. Nil means no cap. A limit parameter that is not a
	// non-negative integer removes the cap.
	DefaultLimit *int
}

// ParseList builds a List from the query parameters of a list request.
// skip and limit values that are not non-negative integers are ignored.
func ParseList(values url.Values, schema store.Schema, opts Options) (*List, error) {
	filter, err := ParseFilter(values.Get("where"), schema)
	if err != nil {
		return nil, err
	}
	sortFields, err := ParseSort(values.Get("sort"), schema)
	if err != nil {
		return nil, err
	}
	projection, err := ParseProjection(values.Get("select"))
	if err != nil {
		return nil, err
	}

	list := &List{
		Query: store.Query{
			Filter: filter,
			Sort:   sortFields,
			Limit:  opts.DefaultLimit,
		},
		Projection: projection,
		Count:      strings.EqualFold(values.Get("count"), "true"),
	}
	if skip, ok := nonNegative(values.Get("skip")); ok {
		list.Query.Skip = skip
	}
	if values.Has("limit") {
		list.Query.Limit = nil
		if limit, ok := nonNegative(values.Get("limit")); ok {
			list.Query.Limit = &limit
		}
	}
	return list, nil
}

func nonNegative(raw string) (int, bool) {
	if raw == "" {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// Limit returns a pointer to n, for building Options.
func Limit(n int) *int {
	return &n
}
