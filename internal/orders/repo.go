package orders

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/internal/repo"
	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
)

// ErrOrderNotFound is returned when no order matches.
var ErrOrderNotFound = errors.New("order not found")

type repository struct {
	repo.Base
}

// NewRepository builds an orders repository bound to the provided DB.
func NewRepository(conn *gorm.DB) Repository {
	return &repository{Base: repo.NewBase(conn)}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{Base: r.Base.WithTx(tx)}
}

// Create writes the order and its items in one transaction.
func (r *repository) Create(ctx context.Context, order Order) (*Order, error) {
	row := ToModel(order)
	err := r.Atomic(ctx, func(tx *gorm.DB) error {
		items := row.Items
		row.Items = nil
		if err := tx.Create(row).Error; err != nil {
			return err
		}
		if len(items) > 0 {
			if err := tx.Create(&items).Error; err != nil {
				return err
			}
		}
		row.Items = items
		return nil
	})
	if err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "order id already exists")
		}
		return nil, fmt.Errorf("create order %s: %w", order.OrderID, err)
	}
	created := FromModel(row)
	return &created, nil
}

func (r *repository) FindByOrderID(ctx context.Context, orderID string) (*Order, error) {
	var row models.Order
	err := r.DB(ctx).
		Preload("Items", func(q *gorm.DB) *gorm.DB { return q.Order("position ASC") }).
		Where("order_id = ?", orderID).
		Take(&row).Error
	if err = repo.NotFound(err, ErrOrderNotFound); errors.Is(err, ErrOrderNotFound) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("find order %s: %w", orderID, err)
	}
	order := FromModel(&row)
	return &order, nil
}

// ListBySession returns a page of a session's orders newest first, plus the
// cursor of the last row when more rows follow.
func (r *repository) ListBySession(ctx context.Context, q ListQuery) ([]Order, *pagination.Cursor, error) {
	query := r.DB(ctx).
		Preload("Items", func(tx *gorm.DB) *gorm.DB { return tx.Order("position ASC") }).
		Where("session_id = ?", q.SessionID)
	if q.After != nil {
		query = query.Where("(order_date < ? OR (order_date = ? AND order_id < ?))", q.After.At, q.After.At, q.After.ID)
	}

	var rows []models.Order
	err := query.
		Order("order_date DESC").
		Order("order_id DESC").
		Limit(pagination.Probe(q.Limit)).
		Find(&rows).Error
	if err != nil {
		return nil, nil, fmt.Errorf("list orders: %w", err)
	}

	rows, more := pagination.Trim(rows, q.Limit)
	var next *pagination.Cursor
	if more {
		last := rows[len(rows)-1]
		next = &pagination.Cursor{At: last.OrderDate.UTC(), ID: last.OrderID}
	}
	out := make([]Order, 0, len(rows))
	for i := range rows {
		out = append(out, FromModel(&rows[i]))
	}
	return out, next, nil
}
