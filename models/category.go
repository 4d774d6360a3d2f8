package models

import "time"

// Category represents a product category.
// Its slug doubles as the denormalized product_type stored on products.
type Category struct {
	ID        uint   `gorm:"primaryKey"`
	Name      string `gorm:"uniqueIndex;not null"`
	Slug      string `gorm:"uniqueIndex;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (c *Category) TableName() string {
	return "categories"
}
