package models

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CatalogWriter is the set of catalog operations the importer performs
// inside its transaction. Find methods return nil, nil on a miss.
type CatalogWriter interface {
	FindVariantByMPN(ctx context.Context, mpn string) (*ProductVariant, error)
	FindVariantBySourceID(ctx context.Context, sourceVariantID string) (*ProductVariant, error)
	FindVariantBySKU(ctx context.Context, sku string) (*ProductVariant, error)
	FirstOrCreateCategory(ctx context.Context, name string) (*Category, error)
	SlugTaken(ctx context.Context, slug string) (bool, error)
	CreateProduct(ctx context.Context, product *Product) error
	CreateVariant(ctx context.Context, variant *ProductVariant) error
	SaveVariant(ctx context.Context, variant *ProductVariant) error
	AppendPrice(ctx context.Context, price *Price) error
	FirstOrCreateImage(ctx context.Context, image *Image) error
	ReconcileProduct(ctx context.Context, productID string) error
}

// ImportRepository runs import work in a single database transaction.
type ImportRepository struct {
	db  *gorm.DB
	now func() time.Time
}

func NewImportRepository(db *gorm.DB) *ImportRepository {
	return &ImportRepository{db: db, now: time.Now}
}

// WithinTransaction commits when fn returns nil and rolls back otherwise.
func (r *ImportRepository) WithinTransaction(ctx context.Context, fn func(CatalogWriter) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&importTx{db: tx, now: r.now})
	})
}

type importTx struct {
	db  *gorm.DB
	now func() time.Time
}

func (t *importTx) findVariant(ctx context.Context, column, value string) (*ProductVariant, error) {
	var v ProductVariant
	err := t.db.WithContext(ctx).
		Where(column+" = ?", value).
		Order("created_at ASC, id ASC").
		First(&v).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &v, nil
}

func (t *importTx) FindVariantByMPN(ctx context.Context, mpn string) (*ProductVariant, error) {
	return t.findVariant(ctx, "mpn", mpn)
}

func (t *importTx) FindVariantBySourceID(ctx context.Context, sourceVariantID string) (*ProductVariant, error) {
	return t.findVariant(ctx, "source_variant_id", sourceVariantID)
}

func (t *importTx) FindVariantBySKU(ctx context.Context, sku string) (*ProductVariant, error) {
	return t.findVariant(ctx, "sku", sku)
}

// FirstOrCreateCategory returns the category with this exact name, creating
// it with a derived unique slug when missing. The unique index on name is
// what prevents duplicates.
func (t *importTx) FirstOrCreateCategory(ctx context.Context, name string) (*Category, error) {
	name = strings.TrimSpace(name)
	db := t.db.WithContext(ctx)

	var category Category
	err := db.Where("name = ?", name).First(&category).Error
	if err == nil {
		return &category, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	s, err := UniqueSlug(ctx, name, "category", func(ctx context.Context, candidate string) (bool, error) {
		var n int64
		err := t.db.WithContext(ctx).Model(&Category{}).Where("slug = ?", candidate).Count(&n).Error
		return n > 0, err
	})
	if err != nil {
		return nil, err
	}

	category = Category{Name: name, Slug: s}
	if err := db.Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "name"}}, DoNothing: true}).
		Create(&category).Error; err != nil {
		return nil, err
	}
	if category.ID == 0 {
		if err := db.Where("name = ?", name).First(&category).Error; err != nil {
			return nil, err
		}
	}
	return &category, nil
}

func (t *importTx) SlugTaken(ctx context.Context, slug string) (bool, error) {
	var n int64
	err := t.db.WithContext(ctx).Model(&Product{}).Where("slug = ?", slug).Count(&n).Error
	return n > 0, err
}

func (t *importTx) CreateProduct(ctx context.Context, product *Product) error {
	if product.ProductType == "" {
		product.ProductType = DefaultProductType
	}
	return t.db.WithContext(ctx).Omit(clause.Associations).Create(product).Error
}

func (t *importTx) CreateVariant(ctx context.Context, variant *ProductVariant) error {
	return t.db.WithContext(ctx).Omit(clause.Associations).Create(variant).Error
}

func (t *importTx) SaveVariant(ctx context.Context, variant *ProductVariant) error {
	return t.db.WithContext(ctx).Omit(clause.Associations).Save(variant).Error
}

func (t *importTx) AppendPrice(ctx context.Context, price *Price) error {
	if price.PriceType == "" {
		price.PriceType = PriceTypeRetail
	}
	return t.db.WithContext(ctx).Create(price).Error
}

// FirstOrCreateImage inserts the image unless (product_id, variant_id, path)
// already exists.
func (t *importTx) FirstOrCreateImage(ctx context.Context, image *Image) error {
	if image.Role == "" {
		image.Role = ImageRoleGallery
	}
	return t.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "product_id"}, {Name: "variant_id"}, {Name: "path"}},
			DoNothing: true,
		}).
		Create(image).Error
}

func (t *importTx) ReconcileProduct(ctx context.Context, productID string) error {
	return reconcileProduct(t.db.WithContext(ctx), t.now(), productID)
}
