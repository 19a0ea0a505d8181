package helpers

import (
	"strings"

	"github.com/angelmondragon/storefront-backend/internal/cart"
	"github.com/angelmondragon/storefront-backend/internal/orders"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

// NormalizeCustomerInfo trims every field.
func NormalizeCustomerInfo(info orders.CustomerInfo) orders.CustomerInfo {
	return orders.CustomerInfo{
		Name:          strings.TrimSpace(info.Name),
		Address:       strings.TrimSpace(info.Address),
		City:          strings.TrimSpace(info.City),
		Pincode:       strings.TrimSpace(info.Pincode),
		Mobile:        strings.TrimSpace(info.Mobile),
		PaymentMethod: strings.TrimSpace(info.PaymentMethod),
	}
}

// ValidateCustomerInfo requires a name and an address once trimmed.
func ValidateCustomerInfo(info orders.CustomerInfo) error {
	missing := []string{}
	if strings.TrimSpace(info.Name) == "" {
		missing = append(missing, "name")
	}
	if strings.TrimSpace(info.Address) == "" {
		missing = append(missing, "address")
	}
	if len(missing) > 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "customer information is required").
			WithDetails(map[string]any{"missing": missing})
	}
	return nil
}

// ValidateCart rejects an empty cart.
func ValidateCart(lines []cart.Line) error {
	if len(lines) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "cannot checkout with an empty cart")
	}
	return nil
}
