package models

import (
	"time"

	"github.com/lib/pq"
)

// DefaultProductType is stored on products that have no category.
const DefaultProductType = "other"

// Product represents a catalog product. The id is a client generated UUID.
// IsFeatured, IsPopular and IsNew are computed by the flag reconciliation
// and never written by regular CRUD paths.
type Product struct {
	ID             string `gorm:"type:uuid;primaryKey"`
	Slug           string `gorm:"uniqueIndex;not null"`
	Name           string `gorm:"not null"`
	Brand          *string
	Manufacturer   *string
	VendorID       *uint
	Vendor         *Vendor `gorm:"foreignKey:VendorID;constraint:OnDelete:SET NULL"`
	BoardPartnerID *uint
	BoardPartner   *Vendor   `gorm:"foreignKey:BoardPartnerID;constraint:OnDelete:SET NULL"`
	CategoryID     *uint     `gorm:"index"`
	Category       *Category `gorm:"foreignKey:CategoryID;constraint:OnDelete:SET NULL"`
	ModelNumber    *string
	ReleaseDate    *time.Time     `gorm:"type:date"`
	ProductType    string         `gorm:"not null;default:other;index"`
	Tags           pq.StringArray `gorm:"type:text[]"`
	IsFeatured     bool           `gorm:"not null;default:false"`
	IsPopular      bool           `gorm:"not null;default:false"`
	IsNew          bool           `gorm:"not null;default:false"`

	// CPU only
	Cores             *int
	BoostClock        *string
	Microarchitecture *string
	Socket            *string

	Variants  []ProductVariant `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	Images    []Image          `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (p *Product) TableName() string {
	return "products"
}

// DisplayBrand prefers the linked vendor name over the scraped brand string.
func (p *Product) DisplayBrand() *string {
	if p.Vendor != nil {
		name := p.Vendor.Name
		return &name
	}
	return p.Brand
}

// BoardPartnerName returns the board partner vendor name, if linked.
func (p *Product) BoardPartnerName() *string {
	if p.BoardPartner == nil {
		return nil
	}
	name := p.BoardPartner.Name
	return &name
}
