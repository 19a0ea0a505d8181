package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"

	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
)

// DefaultHistoryLimit is the page size used when the caller does not ask for one.
const DefaultHistoryLimit = 50

// Page is one slice of order history. NextCursor is empty on the last page.
type Page struct {
	Orders     []Order
	NextCursor string
}

// Service exposes the order history read paths for a session.
type Service interface {
	Get(ctx context.Context, sessionID, orderID string) (*Order, error)
	List(ctx context.Context, sessionID string, params pagination.Params) (*Page, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	return &service{repo: repo}, nil
}

// Get returns the order only to the session that placed it; anything else is reported as not found.
func (s *service) Get(ctx context.Context, sessionID, orderID string) (*Order, error) {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return nil, orderNotFound(orderID)
	}
	order, err := s.repo.FindByOrderID(ctx, orderID)
	if errors.Is(err, ErrOrderNotFound) {
		return nil, orderNotFound(orderID)
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to load order")
	}
	if order.SessionID != sessionID {
		return nil, orderNotFound(orderID)
	}
	return order, nil
}

func (s *service) List(ctx context.Context, sessionID string, params pagination.Params) (*Page, error) {
	limit := params.Limit
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	after, err := pagination.DecodeCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	query := ListQuery{SessionID: sessionID, Limit: pagination.Clamp(limit), After: after}

	list, next, err := s.repo.ListBySession(ctx, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to load orders")
	}
	page := &Page{Orders: list}
	if page.Orders == nil {
		page.Orders = []Order{}
	}
	if next != nil {
		page.NextCursor = next.Encode()
	}
	return page, nil
}

func orderNotFound(orderID string) error {
	return pkgerrors.New(pkgerrors.CodeNotFound, "order not found").
		WithDetails(map[string]any{"orderId": orderID})
}
