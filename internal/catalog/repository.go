package catalog

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/storefront-backend/internal/repo"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
)

// ErrProductNotFound is returned by the repository when no row matches.
var ErrProductNotFound = errors.New("product not found")

// Repository reads and seeds catalog rows.
type Repository struct {
	repo.Base
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// FindByID loads a single product.
func (r *Repository) FindByID(ctx context.Context, id int64) (*models.Product, error) {
	var product models.Product
	err := repo.NotFound(r.DB(ctx).Where("id = ?", id).Take(&product).Error, ErrProductNotFound)
	if errors.Is(err, ErrProductNotFound) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("find product %d: %w", id, err)
	}
	return &product, nil
}

// List returns products matching filter ordered by id ascending.
func (r *Repository) List(ctx context.Context, filter Filter) ([]models.Product, error) {
	query := r.DB(ctx).Model(&models.Product{})
	if filter.Category != "" {
		query = query.Where("LOWER(category) = LOWER(?)", filter.Category)
	}
	if filter.Brand != "" {
		query = query.Where("LOWER(brand) = LOWER(?)", filter.Brand)
	}
	if filter.MinPrice != nil {
		query = query.Where("price >= ?", *filter.MinPrice)
	}
	if filter.MaxPrice != nil {
		query = query.Where("price <= ?", *filter.MaxPrice)
	}

	var products []models.Product
	if err := query.Order("id ASC").Find(&products).Error; err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return products, nil
}

// Count returns the number of catalog rows.
func (r *Repository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.DB(ctx).Model(&models.Product{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("count products: %w", err)
	}
	return count, nil
}

// InsertMissing inserts products whose id is not present yet and reports how many were written.
func (r *Repository) InsertMissing(ctx context.Context, products []models.Product) (int64, error) {
	if len(products) == 0 {
		return 0, nil
	}
	res := r.DB(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "id"}}, DoNothing: true}).
		Create(&products)
	if res.Error != nil {
		return 0, fmt.Errorf("insert products: %w", res.Error)
	}
	return res.RowsAffected, nil
}
