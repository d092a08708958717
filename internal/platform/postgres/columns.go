package postgres

import (
	"fmt"

	"github.com/phrazzld/taskboard-api/internal/store"
	"github.com/phrazzld/taskboard-api/internal/store/sqlfilter"
)

var userColumns = sqlfilter.Columns{
	"_id":          "id",
	"name":         "name",
	"email":        "email",
	"pendingTasks": "pending_tasks",
	"dateCreated":  "date_created",
}

var taskColumns = sqlfilter.Columns{
	"_id":              "id",
	"name":             "name",
	"description":      "description",
	"deadline":         "deadline",
	"completed":        "completed",
	"assignedUser":     "assigned_user",
	"assignedUserName": "assigned_user_name",
	"dateCreated":      "date_created",
}

// insertionOrder keeps unsorted listings in creation order.
const insertionOrder = "seq ASC"

// selectSQL renders a windowed SELECT for one table.
func selectSQL(columns, table string, c *sqlfilter.Compiler, q store.Query) (string, []any, error) {
	if err := q.Validate(c.Schema()); err != nil {
		return "", nil, err
	}
	where, args, err := c.Where(q.Filter, 0)
	if err != nil {
		return "", nil, err
	}
	order, err := c.OrderBy(q.Sort, insertionOrder)
	if err != nil {
		return "", nil, err
	}

	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s ORDER BY %s", columns, table, where, order)
	if q.Limit != nil {
		query += fmt.Sprintf(" LIMIT %d", *q.Limit)
	}
	if q.Skip > 0 {
		query += fmt.Sprintf(" OFFSET %d", q.Skip)
	}
	return query, args, nil
}
