package checkout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/angelmondragon/storefront-backend/internal/cart"
	"github.com/angelmondragon/storefront-backend/internal/checkout/helpers"
	"github.com/angelmondragon/storefront-backend/internal/orders"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

const SuccessMessage = "Checkout successful! Order has been placed."

type cartTransactor interface {
	Transact(ctx context.Context, sessionID string, fn func(lines []cart.Line) (bool, error)) error
}

type orderCreator interface {
	Create(ctx context.Context, order orders.Order) (*orders.Order, error)
}

type checkoutObserver interface {
	ObserveCheckout(duration time.Duration, err error)
}

// Service converts a session cart into a placed order.
type Service interface {
	Checkout(ctx context.Context, sessionID string, info orders.CustomerInfo) (*orders.Order, error)
}

// Options tunes the order write. Zero values fall back to 5s and one retry.
type Options struct {
	StorageTimeout time.Duration
	PersistRetries int
	Now            func() time.Time
	NewOrderID     func() string
}

type service struct {
	carts    cartTransactor
	orders   orderCreator
	logg     *logger.Logger
	metrics  checkoutObserver
	timeout  time.Duration
	attempts int
	now      func() time.Time
	newID    func() string
}

// NewService builds the checkout service.
func NewService(carts cartTransactor, ordersRepo orderCreator, logg *logger.Logger, metrics checkoutObserver, opts Options) (Service, error) {
	if carts == nil {
		return nil, fmt.Errorf("cart service required")
	}
	if ordersRepo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if opts.StorageTimeout <= 0 {
		opts.StorageTimeout = 5 * time.Second
	}
	if opts.PersistRetries < 0 {
		opts.PersistRetries = 0
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.NewOrderID == nil {
		opts.NewOrderID = orders.NewOrderID
	}
	return &service{
		carts:    carts,
		orders:   ordersRepo,
		logg:     logg,
		metrics:  metrics,
		timeout:  opts.StorageTimeout,
		attempts: opts.PersistRetries + 1,
		now:      opts.Now,
		newID:    opts.NewOrderID,
	}, nil
}

// Checkout validates customer info then the cart, persists the order and only
// then clears the cart. The session lock is held for the whole sequence.
func (s *service) Checkout(ctx context.Context, sessionID string, info orders.CustomerInfo) (placed *orders.Order, err error) {
	started := s.now()
	defer func() {
		if s.metrics != nil {
			s.metrics.ObserveCheckout(s.now().Sub(started), err)
		}
	}()

	info = helpers.NormalizeCustomerInfo(info)

	txErr := s.carts.Transact(ctx, sessionID, func(lines []cart.Line) (bool, error) {
		if err := helpers.ValidateCustomerInfo(info); err != nil {
			return false, err
		}
		if err := helpers.ValidateCart(lines); err != nil {
			return false, err
		}

		order := orders.Order{
			OrderID:      s.newID(),
			SessionID:    sessionID,
			CustomerInfo: info,
			Items:        helpers.OrderItems(lines),
			TotalAmount:  cart.Total(lines),
			OrderDate:    s.now().UTC(),
		}

		created, err := s.persist(ctx, order)
		if err != nil {
			return false, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to place order")
		}
		placed = created
		return true, nil
	})

	if txErr != nil && placed != nil {
		// The order is durable; a stale cart is preferable to inviting a duplicate order.
		logCtx := s.logg.WithOrderID(s.logg.WithSessionID(ctx, sessionID), placed.OrderID)
		s.logg.Error(logCtx, "checkout.cart_clear_failed", txErr)
		return placed, nil
	}
	if txErr != nil {
		return nil, txErr
	}

	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"session_id":   sessionID,
		"order_id":     placed.OrderID,
		"total_amount": placed.TotalAmount,
		"items":        len(placed.Items),
	}), "checkout.order_placed")
	return placed, nil
}

func (s *service) persist(ctx context.Context, order orders.Order) (*orders.Order, error) {
	var lastErr error
	for attempt := 1; attempt <= s.attempts; attempt++ {
		created, err := s.createOnce(ctx, order)
		if err == nil {
			return created, nil
		}
		lastErr = err

		if ctx.Err() != nil || !pkgerrors.Retryable(err) || attempt == s.attempts {
			break
		}
		s.logg.Warn(s.logg.WithFields(ctx, map[string]any{
			"order_id": order.OrderID,
			"attempt":  attempt,
			"error":    err.Error(),
		}), "checkout.persist_retry")
	}
	return nil, lastErr
}

func (s *service) createOnce(ctx context.Context, order orders.Order) (*orders.Order, error) {
	opCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	created, err := s.orders.Create(opCtx, order)
	if err != nil {
		if errors.Is(opCtx.Err(), context.DeadlineExceeded) && !errors.Is(err, context.DeadlineExceeded) {
			err = fmt.Errorf("%w: %v", context.DeadlineExceeded, err)
		}
		return nil, err
	}
	return created, nil
}
