package catalog

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

// Service exposes read-only catalog lookups.
type Service interface {
	Get(ctx context.Context, id int64) (*Product, error)
	List(ctx context.Context, filter Filter) ([]Product, error)
}

type productReader interface {
	FindByID(ctx context.Context, id int64) (*models.Product, error)
	List(ctx context.Context, filter Filter) ([]models.Product, error)
}

// lookupTimeout bounds a shared product query, which outlives any single caller.
const lookupTimeout = 5 * time.Second

type service struct {
	repo  productReader
	group singleflight.Group
}

// NewService constructs a catalog service instance.
func NewService(repo productReader) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	return &service{repo: repo}, nil
}

// Get resolves a product by id. Concurrent lookups of the same id share one
// query; it runs detached so one caller giving up does not fail the others.
func (s *service) Get(ctx context.Context, id int64) (*Product, error) {
	flight := s.group.DoChan(strconv.FormatInt(id, 10), func() (any, error) {
		lookupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), lookupTimeout)
		defer cancel()
		return s.repo.FindByID(lookupCtx, id)
	})

	var res singleflight.Result
	select {
	case <-ctx.Done():
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, ctx.Err(), "failed to load product")
	case res = <-flight:
	}
	v, err := res.Val, res.Err
	if err != nil {
		if errors.Is(err, ErrProductNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found").
				WithDetails(map[string]any{"productId": id})
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to load product")
	}
	product := NewProduct(v.(*models.Product))
	return &product, nil
}

// List returns the products matching filter ordered by id.
func (s *service) List(ctx context.Context, filter Filter) ([]Product, error) {
	filter, err := filter.Normalize()
	if err != nil {
		return nil, err
	}
	rows, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to load products")
	}
	products := make([]Product, 0, len(rows))
	for i := range rows {
		products = append(products, NewProduct(&rows[i]))
	}
	return products, nil
}
