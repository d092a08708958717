package sqlite

import (
	"gorm.io/gorm"

	"github.com/phrazzld/taskboard-api/internal/store"
	"github.com/phrazzld/taskboard-api/internal/store/sqlfilter"
)

// insertionOrder keeps unsorted listings in creation order.
const insertionOrder = "seq ASC"

// applyQuery scopes tx to the filter, order and window of q.
func applyQuery(tx *gorm.DB, c *sqlfilter.Compiler, q store.Query) (*gorm.DB, error) {
	if err := q.Validate(c.Schema()); err != nil {
		return nil, err
	}
	where, args, err := c.Where(q.Filter, 0)
	if err != nil {
		return nil, err
	}
	order, err := c.OrderBy(q.Sort, insertionOrder)
	if err != nil {
		return nil, err
	}

	if q.Filter != nil {
		tx = tx.Where(where, args...)
	}
	tx = tx.Order(order)
	if q.Limit != nil {
		tx = tx.Limit(*q.Limit)
	}
	if q.Skip > 0 {
		tx = tx.Offset(q.Skip)
	}
	return tx, nil
}

func count(tx *gorm.DB, c *sqlfilter.Compiler, f store.Filter) (int, error) {
	where, args, err := c.Where(f, 0)
	if err != nil {
		return 0, err
	}
	if f != nil {
		tx = tx.Where(where, args...)
	}
	var n int64
	if err := tx.Count(&n).Error; err != nil {
		return 0, err
	}
	return int(n), nil
}
