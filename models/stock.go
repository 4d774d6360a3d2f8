package models

import "time"

// StockLevel holds the stock snapshot of a variant. One row per variant in
// practice. Status is free text; only the StockStatus values are interpreted.
type StockLevel struct {
	ID           uint   `gorm:"primaryKey"`
	VariantID    string `gorm:"type:uuid;not null;index"`
	QtyAvailable int    `gorm:"not null;default:0"`
	QtyReserved  int    `gorm:"not null;default:0"`
	Warehouse    *string
	Status       string `gorm:"not null;default:in_stock"`
	UpdatedAt    *time.Time
}

func (s *StockLevel) TableName() string {
	return "stock_levels"
}
