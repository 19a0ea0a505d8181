package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

// Base holds the connection shared by the catalog and orders repositories.
type Base struct {
	db   *gorm.DB
	inTx bool
}

// NewBase constructs a Base repository backed by the provided GORM connection.
func NewBase(db *gorm.DB) Base {
	return Base{db: db}
}

// DB returns the GORM connection bound to the supplied context (if any).
func (b Base) DB(ctx context.Context) *gorm.DB {
	if ctx == nil {
		return b.db
	}
	return b.db.WithContext(ctx)
}

// WithTx returns a Base bound to an outer transaction.
func (b Base) WithTx(tx *gorm.DB) Base {
	return Base{db: tx, inTx: true}
}

// InTx reports whether the repository is bound to an outer transaction.
func (b Base) InTx() bool {
	return b.inTx
}

// Atomic runs fn inside a transaction. A repository already bound to an outer
// transaction runs fn on it directly and leaves commit to the owner.
func (b Base) Atomic(ctx context.Context, fn func(tx *gorm.DB) error) error {
	if b.inTx {
		return fn(b.DB(ctx))
	}
	return b.DB(ctx).Transaction(fn)
}

// NotFound maps gorm's missing-row error onto the repository's own sentinel.
func NotFound(err, sentinel error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return sentinel
	}
	return err
}
