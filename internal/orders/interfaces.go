package orders

import (
	"context"

	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/pagination"
)

// ListQuery selects one page of a session's order history.
type ListQuery struct {
	SessionID string
	Limit     int
	After     *pagination.Cursor
}

// Repository defines persistence operations for placed orders. Orders are
// append-only: there is no update or delete path.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, order Order) (*Order, error)
	FindByOrderID(ctx context.Context, orderID string) (*Order, error)
	ListBySession(ctx context.Context, query ListQuery) ([]Order, *pagination.Cursor, error)
}
