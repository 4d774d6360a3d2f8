package models

import "time"

// Vendor is a board or card manufacturer brand shown to shoppers as "brand".
type Vendor struct {
	ID        uint   `gorm:"primaryKey"`
	Name      string `gorm:"not null"`
	Slug      string `gorm:"uniqueIndex;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (v *Vendor) TableName() string {
	return "vendors"
}
