package catalog

import (
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
)

// Product is the catalog entry returned to clients and used to price cart lines.
type Product struct {
	ID              int64   `json:"id"`
	Brand           string  `json:"brand"`
	Name            string  `json:"name"`
	Price           int64   `json:"price"`
	OriginalPrice   int64   `json:"originalPrice"`
	Category        string  `json:"category"`
	Rating          float64 `json:"rating"`
	RatingCount     int     `json:"ratingCount"`
	Image           string  `json:"image"`
	DiscountPercent int64   `json:"discountPercent"`
}

// NewProduct builds the client view of a persisted product.
func NewProduct(m *models.Product) Product {
	return Product{
		ID:              m.ID,
		Brand:           m.Brand,
		Name:            m.Name,
		Price:           m.Price,
		OriginalPrice:   m.OriginalPrice,
		Category:        m.Category,
		Rating:          m.Rating,
		RatingCount:     m.RatingCount,
		Image:           m.Image,
		DiscountPercent: DiscountPercent(m.Price, m.OriginalPrice),
	}
}

// DiscountPercent is (original - price) / original * 100 rounded half up; 0 when there is no markdown.
func DiscountPercent(price, originalPrice int64) int64 {
	if originalPrice <= 0 || price >= originalPrice {
		return 0
	}
	off := decimal.NewFromInt(originalPrice - price)
	pct := off.Mul(decimal.NewFromInt(100)).Div(decimal.NewFromInt(originalPrice))
	return pct.Round(0).IntPart()
}
