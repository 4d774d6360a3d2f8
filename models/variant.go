package models

import (
	"time"

	"gorm.io/datatypes"
)

// ProductVariant is a purchasable configuration of a product.
// Scraped spec fields are kept twice: the raw string as scraped and a
// coerced integer used for querying.
type ProductVariant struct {
	ID                   string   `gorm:"type:uuid;primaryKey"`
	ProductID            string   `gorm:"type:uuid;not null;index"`
	Product              *Product `gorm:"foreignKey:ProductID"`
	SKU                  *string  `gorm:"column:sku;uniqueIndex"`
	Title                *string
	Specs                datatypes.JSONMap `gorm:"column:specs"`
	AttributesNormalized datatypes.JSONMap `gorm:"column:attributes_normalized"`
	IsActive             bool              `gorm:"not null;default:true"`

	MPN             *string                     `gorm:"column:mpn;index"`
	SourceName      *string                     `gorm:"column:source_name"`
	SourceURL       *string                     `gorm:"column:source_url;type:text"`
	SourceVariantID *string                     `gorm:"column:source_variant_id;index"`
	ScrapedAt       *time.Time                  `gorm:"column:scraped_at"`
	RawJSONLD       *string                     `gorm:"column:raw_jsonld;type:text"`
	RawSpecTables   datatypes.JSON              `gorm:"column:raw_spec_tables"`
	ImageURLs       datatypes.JSONSlice[string] `gorm:"column:image_urls"`

	VramGB        *string `gorm:"column:vram_gb"`
	VramGBInt     *int    `gorm:"column:vram_gb_int"`
	VramType      *string `gorm:"column:vram_type"`
	BusWidthBit   *string `gorm:"column:bus_width_bit"`
	BusWidthInt   *int    `gorm:"column:bus_width_int"`
	BoostClockGHz *string `gorm:"column:boost_clock_ghz"`
	BoostClockMHz *int    `gorm:"column:boost_clock_mhz"`
	TDPWatts      *string `gorm:"column:tdp_watts"`
	TDPWattsInt   *int    `gorm:"column:tdp_watts_int"`
	Cores         *string `gorm:"column:cores"`
	CoresInt      *int    `gorm:"column:cores_int"`
	Threads       *string `gorm:"column:threads"`
	ThreadsInt    *int    `gorm:"column:threads_int"`

	Prices    []Price     `gorm:"foreignKey:VariantID;constraint:OnDelete:CASCADE"`
	Stock     *StockLevel `gorm:"foreignKey:VariantID;constraint:OnDelete:CASCADE"`
	Images    []Image     `gorm:"foreignKey:VariantID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (v *ProductVariant) TableName() string {
	return "product_variants"
}
