package importer

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/thabzzzzz/hardwarestorefront-sub000/models"
)

const slugSourceLimit = 80

// resolver matches rows to existing variants by identity key and creates
// the product and variant pair for rows that match nothing.
type resolver struct {
	tx    models.CatalogWriter
	newID func() string
}

func newResolver(tx models.CatalogWriter) *resolver {
	return &resolver{tx: tx, newID: uuid.NewString}
}

// find tries mpn, then source variant id, then sku. Each step runs only when
// the previous one matched nothing.
func (r *resolver) find(ctx context.Context, mpn, sourceID, sku string) (*models.ProductVariant, error) {
	if mpn != "" {
		v, err := r.tx.FindVariantByMPN(ctx, mpn)
		if err != nil || v != nil {
			return v, err
		}
	}
	if sourceID != "" {
		v, err := r.tx.FindVariantBySourceID(ctx, sourceID)
		if err != nil || v != nil {
			return v, err
		}
	}
	if sku != "" {
		return r.tx.FindVariantBySKU(ctx, sku)
	}
	return nil, nil
}

// create inserts a new product with one variant for the row.
func (r *resolver) create(ctx context.Context, rec Record, category *models.Category, sourceID string) (*models.ProductVariant, error) {
	sku := rec.Get("sku")
	mpn := rec.Get("mpn")
	name := rec.Get("name")

	slugSource := firstNonEmpty(name, sku, mpn)
	productSlug, err := models.UniqueSlug(ctx, truncateRunes(slugSource, slugSourceLimit), "product", r.tx.SlugTaken)
	if err != nil {
		return nil, fmt.Errorf("allocate slug: %w", err)
	}

	brand := optional(rec.Get("brand"))
	product := &models.Product{
		ID:           r.newID(),
		Slug:         productSlug,
		Name:         firstNonEmpty(name, mpn, sku),
		Brand:        brand,
		Manufacturer: brand,
		ModelNumber:  optional(mpn),
		ProductType:  models.DefaultProductType,
	}
	if category != nil {
		product.CategoryID = &category.ID
		product.ProductType = category.Slug
	}
	if err := r.tx.CreateProduct(ctx, product); err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}

	variant := &models.ProductVariant{
		ID:              r.newID(),
		ProductID:       product.ID,
		SKU:             optional(sku),
		Title:           optional(name),
		MPN:             optional(mpn),
		SourceVariantID: optional(sourceID),
		IsActive:        true,
	}
	if err := r.tx.CreateVariant(ctx, variant); err != nil {
		return nil, fmt.Errorf("create variant: %w", err)
	}

	if err := r.tx.ReconcileProduct(ctx, product.ID); err != nil {
		return nil, fmt.Errorf("reconcile product %s: %w", product.ID, err)
	}
	return variant, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
