package controllers

import (
	"math"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/storefront-backend/api/responses"
	"github.com/angelmondragon/storefront-backend/api/validators"
	"github.com/angelmondragon/storefront-backend/internal/cart"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

const defaultAddQuantity = 1

type addToCartRequest struct {
	ProductID validators.FlexInt `json:"productId"`
	Quantity  validators.FlexInt `json:"quantity"`
}

type updateCartRequest struct {
	Quantity validators.FlexInt `json:"quantity"`
}

// GetCart returns the session's cart lines; a new session sees an empty array.
func GetCart(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID, ok := sessionFromRequest(w, r, logg)
		if !ok {
			return
		}
		lines, err := svc.Get(r.Context(), sessionID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, lines)
	}
}

// AddToCart adds quantity (default 1) of a product and answers 201 with the cart.
func AddToCart(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID, ok := sessionFromRequest(w, r, logg)
		if !ok {
			return
		}

		var payload addToCartRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, invalidProductOrQuantity(err))
			return
		}

		productID := payload.ProductID.Int(0)
		quantity := payload.Quantity.Int(defaultAddQuantity)
		if productID <= 0 || !validQuantity(quantity) || quantity <= 0 {
			responses.WriteError(r.Context(), logg, w, invalidProductOrQuantity(nil))
			return
		}

		lines, err := svc.Add(r.Context(), sessionID, productID, int(quantity))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, lines)
	}
}

// UpdateCartItem sets a line's quantity; zero or less removes the line.
func UpdateCartItem(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID, ok := sessionFromRequest(w, r, logg)
		if !ok {
			return
		}

		productID, ok := cartProductID(w, r, logg)
		if !ok {
			return
		}

		var payload updateCartRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, invalidQuantity(err))
			return
		}
		if !payload.Quantity.Set || !validQuantity(payload.Quantity.Value) {
			responses.WriteError(r.Context(), logg, w, invalidQuantity(nil))
			return
		}

		lines, err := svc.SetQuantity(r.Context(), sessionID, productID, int(payload.Quantity.Value))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, lines)
	}
}

// RemoveCartItem deletes a line; a product not in the cart is a 404.
func RemoveCartItem(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID, ok := sessionFromRequest(w, r, logg)
		if !ok {
			return
		}

		productID, ok := cartProductID(w, r, logg)
		if !ok {
			return
		}

		lines, err := svc.Remove(r.Context(), sessionID, productID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, lines)
	}
}

func cartProductID(w http.ResponseWriter, r *http.Request, logg *logger.Logger) (int64, bool) {
	raw := chi.URLParam(r, "productId")
	id, ok := validators.ParsePathID(raw)
	if !ok {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "item not found in cart").
			WithDetails(map[string]any{"productId": raw}))
		return 0, false
	}
	return id, true
}

func validQuantity(q int64) bool {
	return q >= math.MinInt32 && q <= math.MaxInt32
}

func invalidProductOrQuantity(cause error) error {
	if cause != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, cause, "invalid product or quantity")
	}
	return pkgerrors.New(pkgerrors.CodeValidation, "invalid product or quantity")
}

func invalidQuantity(cause error) error {
	if cause != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, cause, "invalid quantity")
	}
	return pkgerrors.New(pkgerrors.CodeValidation, "invalid quantity")
}
