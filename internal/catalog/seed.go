package catalog

import (
	"context"
	"fmt"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

type seedStore interface {
	Count(ctx context.Context) (int64, error)
	InsertMissing(ctx context.Context, products []models.Product) (int64, error)
}

// SeedProducts is the starter catalog written on first boot.
func SeedProducts() []models.Product {
	return []models.Product{
		{ID: 1, Brand: "Brand A", Name: "Men Regular Fit Solid T-Shirt", Price: 799, OriginalPrice: 1499, Category: "T-Shirts", Rating: 4.3, RatingCount: 1200, Image: "https://placehold.co/300x400/EFEFEF/AAAAAA&text=Product1"},
		{ID: 2, Brand: "Brand B", Name: "Men Slim Fit Casual Shirt", Price: 1199, OriginalPrice: 1999, Category: "Shirts", Rating: 4.1, RatingCount: 850, Image: "https://placehold.co/300x400/CD5C5C/FFFFFF&text=Product2"},
		{ID: 3, Brand: "Brand A", Name: "Relaxed Fit Denim Jeans", Price: 1499, OriginalPrice: 2999, Category: "Jeans", Rating: 4.5, RatingCount: 2500, Image: "https://placehold.co/300x400/4682B4/FFFFFF&text=Product3"},
		{ID: 4, Brand: "Brand C", Name: "Striped Polo T-Shirt", Price: 899, OriginalPrice: 1799, Category: "T-Shirts", Rating: 4.2, RatingCount: 980, Image: "https://placehold.co/300x400/2E8B57/FFFFFF&text=Product4"},
		{ID: 5, Brand: "Brand B", Name: "Classic Blue Washed Jeans", Price: 1699, OriginalPrice: 3199, Category: "Jeans", Rating: 4.6, RatingCount: 3100, Image: "https://placehold.co/300x400/6A5ACD/FFFFFF&text=Product5"},
		{ID: 6, Brand: "Brand C", Name: "Formal Checkered Shirt", Price: 450, OriginalPrice: 999, Category: "Shirts", Rating: 3.9, RatingCount: 500, Image: "https://placehold.co/300x400/D2B48C/FFFFFF&text=Product6"},
		{ID: 7, Brand: "Brand A", Name: "Graphic Print T-Shirt", Price: 480, OriginalPrice: 899, Category: "T-Shirts", Rating: 4.0, RatingCount: 750, Image: "https://placehold.co/300x400/708090/FFFFFF&text=Product7"},
		{ID: 8, Brand: "Brand D", Name: "Cargo Style Trousers", Price: 1999, OriginalPrice: 3499, Category: "Jeans", Rating: 4.7, RatingCount: 4200, Image: "https://placehold.co/300x400/5F9EA0/FFFFFF&text=Product8"},
	}
}

// SeedIfEmpty writes the starter catalog when the products table is empty.
// Running it again, or concurrently from another instance, is harmless.
func SeedIfEmpty(ctx context.Context, store seedStore, logg *logger.Logger) error {
	count, err := store.Count(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		if logg != nil {
			logg.Info(logg.WithField(ctx, "products", count), "catalog.seed.skipped")
		}
		return nil
	}

	inserted, err := store.InsertMissing(ctx, SeedProducts())
	if err != nil {
		return fmt.Errorf("seed catalog: %w", err)
	}
	if logg != nil {
		logg.Info(logg.WithField(ctx, "inserted", inserted), "catalog.seed.completed")
	}
	return nil
}
