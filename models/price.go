package models

import "time"

// PriceTypeRetail is the price type written by the importer.
const PriceTypeRetail = "retail"

// Price is one entry of a variant's price history. Rows are append only;
// the current price is the row with the latest ValidFrom.
type Price struct {
	ID          uint      `gorm:"primaryKey"`
	VariantID   string    `gorm:"type:uuid;not null;index:idx_prices_variant_valid_from,priority:1"`
	Currency    string    `gorm:"type:char(3);not null;default:ZAR"`
	AmountCents int64     `gorm:"not null"`
	PriceType   string    `gorm:"not null;default:retail"`
	ValidFrom   time.Time `gorm:"not null;index:idx_prices_variant_valid_from,priority:2"`
	ValidTo     *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (p *Price) TableName() string {
	return "prices"
}
