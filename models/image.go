package models

import "time"

const (
	ImageRoleGallery   = "gallery"
	ImageRoleThumbnail = "thumbnail"
)

// Image is a product or variant image. (product_id, variant_id, path) is
// unique so repeated imports never duplicate a row.
type Image struct {
	ID        uint    `gorm:"primaryKey"`
	ProductID *string `gorm:"type:uuid;uniqueIndex:idx_images_owner_path,priority:1"`
	VariantID *string `gorm:"type:uuid;uniqueIndex:idx_images_owner_path,priority:2"`
	Role      string  `gorm:"not null;default:gallery"`
	Path      string  `gorm:"type:text;not null;uniqueIndex:idx_images_owner_path,priority:3"`
	Width     *int
	Height    *int
	Alt       *string
	SortOrder int `gorm:"not null;default:0"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (i *Image) TableName() string {
	return "images"
}
