package cart

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/angelmondragon/storefront-backend/internal/catalog"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

const (
	OpGet    = "get"
	OpAdd    = "add"
	OpUpdate = "update"
	OpRemove = "remove"
	OpClear  = "clear"
)

// MaxQuantity bounds the quantity of a single cart line.
const MaxQuantity = math.MaxInt32

type productLoader interface {
	Get(ctx context.Context, id int64) (*catalog.Product, error)
}

type opObserver interface {
	ObserveCartOp(op string, err error)
}

// Service exposes session cart operations. Every mutation returns the
// authoritative snapshot after the change.
type Service interface {
	Get(ctx context.Context, sessionID string) ([]Line, error)
	Add(ctx context.Context, sessionID string, productID int64, quantity int) ([]Line, error)
	SetQuantity(ctx context.Context, sessionID string, productID int64, quantity int) ([]Line, error)
	Remove(ctx context.Context, sessionID string, productID int64) ([]Line, error)
	Clear(ctx context.Context, sessionID string) error
	// Transact runs fn with the session lock held and a private copy of the cart.
	// The cart is deleted only when fn returns clearCart=true and a nil error.
	Transact(ctx context.Context, sessionID string, fn func(lines []Line) (clearCart bool, err error)) error
}

type service struct {
	store    Store
	products productLoader
	locks    *Locker
	metrics  opObserver
}

// NewService builds a cart service backed by the provided store and catalog.
func NewService(store Store, products productLoader, locks *Locker, metrics opObserver) (Service, error) {
	if store == nil {
		return nil, fmt.Errorf("cart store required")
	}
	if products == nil {
		return nil, fmt.Errorf("product loader required")
	}
	if locks == nil {
		locks = NewLocker()
	}
	return &service{
		store:    store,
		products: products,
		locks:    locks,
		metrics:  metrics,
	}, nil
}

func (s *service) Get(ctx context.Context, sessionID string) (lines []Line, err error) {
	defer func() { s.observe(OpGet, err) }()
	if err := requireSession(sessionID); err != nil {
		return nil, err
	}
	lines, err = s.store.Load(ctx, sessionID)
	if err != nil {
		return nil, storageError(err)
	}
	return Clone(lines), nil
}

func (s *service) Add(ctx context.Context, sessionID string, productID int64, quantity int) (lines []Line, err error) {
	defer func() { s.observe(OpAdd, err) }()
	if err := requireSession(sessionID); err != nil {
		return nil, err
	}
	if productID <= 0 || quantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid product or quantity").
			WithDetails(map[string]any{"productId": productID, "quantity": quantity})
	}
	if quantity > MaxQuantity {
		return nil, quantityTooLarge(productID)
	}

	product, err := s.products.Get(ctx, productID)
	if err != nil {
		return nil, err
	}

	return s.mutate(ctx, sessionID, func(current []Line) ([]Line, error) {
		if i := indexOf(current, productID); i >= 0 {
			if current[i].Quantity > MaxQuantity-quantity {
				return nil, quantityTooLarge(productID)
			}
			current[i].Quantity += quantity
			return current, nil
		}
		return append(current, Line{
			ProductID: product.ID,
			Name:      product.Name,
			Price:     product.Price,
			Quantity:  quantity,
		}), nil
	})
}

func (s *service) SetQuantity(ctx context.Context, sessionID string, productID int64, quantity int) (lines []Line, err error) {
	defer func() { s.observe(OpUpdate, err) }()
	if err := requireSession(sessionID); err != nil {
		return nil, err
	}

	return s.mutate(ctx, sessionID, func(current []Line) ([]Line, error) {
		i := indexOf(current, productID)
		if i < 0 {
			return nil, itemNotFound(productID)
		}
		if quantity <= 0 {
			return append(current[:i], current[i+1:]...), nil
		}
		if quantity > MaxQuantity {
			return nil, quantityTooLarge(productID)
		}
		current[i].Quantity = quantity
		return current, nil
	})
}

func (s *service) Remove(ctx context.Context, sessionID string, productID int64) (lines []Line, err error) {
	defer func() { s.observe(OpRemove, err) }()
	if err := requireSession(sessionID); err != nil {
		return nil, err
	}

	return s.mutate(ctx, sessionID, func(current []Line) ([]Line, error) {
		i := indexOf(current, productID)
		if i < 0 {
			return nil, itemNotFound(productID)
		}
		return append(current[:i], current[i+1:]...), nil
	})
}

func (s *service) Clear(ctx context.Context, sessionID string) (err error) {
	defer func() { s.observe(OpClear, err) }()
	if err := requireSession(sessionID); err != nil {
		return err
	}
	unlock := s.locks.Lock(sessionID)
	defer unlock()
	if err := s.store.Delete(ctx, sessionID); err != nil {
		return storageError(err)
	}
	return nil
}

func (s *service) Transact(ctx context.Context, sessionID string, fn func(lines []Line) (bool, error)) error {
	if err := requireSession(sessionID); err != nil {
		return err
	}
	unlock := s.locks.Lock(sessionID)
	defer unlock()

	current, err := s.store.Load(ctx, sessionID)
	if err != nil {
		return storageError(err)
	}

	clearCart, err := fn(Clone(current))
	if err != nil || !clearCart {
		return err
	}
	if err := s.store.Delete(ctx, sessionID); err != nil {
		return storageError(err)
	}
	return nil
}

// mutate loads, edits and saves the cart under the session lock. A failing edit
// leaves the stored cart untouched.
func (s *service) mutate(ctx context.Context, sessionID string, edit func([]Line) ([]Line, error)) ([]Line, error) {
	unlock := s.locks.Lock(sessionID)
	defer unlock()

	current, err := s.store.Load(ctx, sessionID)
	if err != nil {
		return nil, storageError(err)
	}

	next, err := edit(Clone(current))
	if err != nil {
		return nil, err
	}
	if err := s.store.Save(ctx, sessionID, next); err != nil {
		return nil, storageError(err)
	}
	return Clone(next), nil
}

func (s *service) observe(op string, err error) {
	if s.metrics != nil {
		s.metrics.ObserveCartOp(op, err)
	}
}

func requireSession(sessionID string) error {
	if strings.TrimSpace(sessionID) == "" {
		return pkgerrors.New(pkgerrors.CodeInternal, "session handle missing")
	}
	return nil
}

func itemNotFound(productID int64) error {
	return pkgerrors.New(pkgerrors.CodeNotFound, "item not found in cart").
		WithDetails(map[string]any{"productId": productID})
}

func quantityTooLarge(productID int64) error {
	return pkgerrors.New(pkgerrors.CodeValidation, "quantity exceeds limit").
		WithDetails(map[string]any{"productId": productID, "max": MaxQuantity})
}

func storageError(err error) error {
	return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "cart storage failure")
}
