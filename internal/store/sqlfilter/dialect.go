package sqlfilter

import (
	"fmt"
	"time"

	"github.com/phrazzld/taskboard-api/internal/store"
)

// Postgres is the Dialect for PostgreSQL with list fields stored as TEXT[].
type Postgres struct{}

// Placeholder implements Dialect.
func (Postgres) Placeholder(n int) string { return fmt.Sprintf("$%d", n) }

// Contains implements Dialect.
func (Postgres) Contains(column, placeholder string) string {
	return fmt.Sprintf("(%s = ANY(%s))", placeholder, column)
}

// Value implements Dialect.
func (Postgres) Value(_ store.FieldType, v any) any { return v }

// SQLite is the Dialect for SQLite with list fields stored as JSON arrays,
// booleans as integers and dates as Unix milliseconds.
type SQLite struct{}

// Placeholder implements Dialect.
func (SQLite) Placeholder(int) string { return "?" }

// Contains implements Dialect.
func (SQLite) Contains(column, placeholder string) string {
	return fmt.Sprintf("EXISTS (SELECT 1 FROM json_each(%s) WHERE json_each.value = %s)", column, placeholder)
}

// Value implements Dialect.
func (SQLite) Value(typ store.FieldType, v any) any {
	switch x := v.(type) {
	case time.Time:
		return x.UnixMilli()
	case bool:
		if x {
			return 1
		}
		return 0
	}
	return v
}
