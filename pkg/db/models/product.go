package models

import "time"

// Product is a catalog entry. Prices are stored in minor currency units.
type Product struct {
	ID            int64     `gorm:"column:id;primaryKey;autoIncrement:false"`
	Brand         string    `gorm:"column:brand;not null"`
	Name          string    `gorm:"column:name;not null"`
	Price         int64     `gorm:"column:price;not null"`
	OriginalPrice int64     `gorm:"column:original_price;not null"`
	Category      string    `gorm:"column:category;not null"`
	Rating        float64   `gorm:"column:rating;not null;default:0"`
	RatingCount   int       `gorm:"column:rating_count;not null;default:0"`
	Image         string    `gorm:"column:image;not null;default:''"`
	CreatedAt     time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (Product) TableName() string { return "products" }
