package catalog

import (
	"strings"

	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

// Filter narrows the product listing. The zero value matches everything.
type Filter struct {
	Category string
	Brand    string
	MinPrice *int64
	MaxPrice *int64
}

// Normalize trims the string knobs and rejects impossible price bounds.
func (f Filter) Normalize() (Filter, error) {
	f.Category = strings.TrimSpace(f.Category)
	f.Brand = strings.TrimSpace(f.Brand)

	if f.MinPrice != nil && *f.MinPrice < 0 {
		return f, pkgerrors.New(pkgerrors.CodeValidation, "minPrice must be zero or greater").
			WithDetails(map[string]any{"field": "minPrice"})
	}
	if f.MaxPrice != nil && *f.MaxPrice < 0 {
		return f, pkgerrors.New(pkgerrors.CodeValidation, "maxPrice must be zero or greater").
			WithDetails(map[string]any{"field": "maxPrice"})
	}
	if f.MinPrice != nil && f.MaxPrice != nil && *f.MinPrice > *f.MaxPrice {
		return f, pkgerrors.New(pkgerrors.CodeValidation, "minPrice cannot exceed maxPrice").
			WithDetails(map[string]any{"minPrice": *f.MinPrice, "maxPrice": *f.MaxPrice})
	}
	return f, nil
}
