package importer

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/thabzzzzz/hardwarestorefront-sub000/models"
)

// --- Fake Catalog ---

// fakeCatalog keeps the catalog in memory. WithinTransaction snapshots the
// state and restores it when fn fails.
type fakeCatalog struct {
	categories []models.Category
	products   []models.Product
	variants   []models.ProductVariant
	prices     []models.Price
	images     []models.Image
	reconciled []string

	failOnMPN    string
	transactions int
	nextID       uint
}

type catalogState struct {
	categories []models.Category
	products   []models.Product
	variants   []models.ProductVariant
	prices     []models.Price
	images     []models.Image
	reconciled []string
}

func (f *fakeCatalog) snapshot() catalogState {
	return catalogState{
		categories: append([]models.Category(nil), f.categories...),
		products:   append([]models.Product(nil), f.products...),
		variants:   append([]models.ProductVariant(nil), f.variants...),
		prices:     append([]models.Price(nil), f.prices...),
		images:     append([]models.Image(nil), f.images...),
		reconciled: append([]string(nil), f.reconciled...),
	}
}

func (f *fakeCatalog) restore(s catalogState) {
	f.categories = s.categories
	f.products = s.products
	f.variants = s.variants
	f.prices = s.prices
	f.images = s.images
	f.reconciled = s.reconciled
}

func (f *fakeCatalog) WithinTransaction(_ context.Context, fn func(models.CatalogWriter) error) error {
	f.transactions++
	saved := f.snapshot()
	if err := fn(f); err != nil {
		f.restore(saved)
		return err
	}
	return nil
}

func (f *fakeCatalog) writes() int {
	return len(f.categories) + len(f.products) + len(f.variants) + len(f.prices) + len(f.images)
}

func (f *fakeCatalog) id() uint {
	f.nextID++
	return f.nextID
}

func (f *fakeCatalog) findVariant(match func(v models.ProductVariant) bool) (*models.ProductVariant, error) {
	for _, v := range f.variants {
		if match(v) {
			found := v
			return &found, nil
		}
	}
	return nil, nil
}

func (f *fakeCatalog) FindVariantByMPN(_ context.Context, mpn string) (*models.ProductVariant, error) {
	return f.findVariant(func(v models.ProductVariant) bool { return v.MPN != nil && *v.MPN == mpn })
}

func (f *fakeCatalog) FindVariantBySourceID(_ context.Context, id string) (*models.ProductVariant, error) {
	return f.findVariant(func(v models.ProductVariant) bool { return v.SourceVariantID != nil && *v.SourceVariantID == id })
}

func (f *fakeCatalog) FindVariantBySKU(_ context.Context, sku string) (*models.ProductVariant, error) {
	return f.findVariant(func(v models.ProductVariant) bool { return v.SKU != nil && *v.SKU == sku })
}

func (f *fakeCatalog) FirstOrCreateCategory(ctx context.Context, name string) (*models.Category, error) {
	name = strings.TrimSpace(name)
	for _, c := range f.categories {
		if c.Name == name {
			found := c
			return &found, nil
		}
	}
	s, err := models.UniqueSlug(ctx, name, "category", func(_ context.Context, candidate string) (bool, error) {
		for _, c := range f.categories {
			if c.Slug == candidate {
				return true, nil
			}
		}
		return false, nil
	})
	if err != nil {
		return nil, err
	}
	c := models.Category{ID: f.id(), Name: name, Slug: s}
	f.categories = append(f.categories, c)
	return &c, nil
}

func (f *fakeCatalog) SlugTaken(_ context.Context, s string) (bool, error) {
	for _, p := range f.products {
		if p.Slug == s {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeCatalog) CreateProduct(_ context.Context, p *models.Product) error {
	f.products = append(f.products, *p)
	return nil
}

func (f *fakeCatalog) CreateVariant(_ context.Context, v *models.ProductVariant) error {
	if v.SKU != nil {
		if existing, _ := f.FindVariantBySKU(context.Background(), *v.SKU); existing != nil {
			return errors.New("duplicate key value violates unique constraint on sku")
		}
	}
	f.variants = append(f.variants, *v)
	return nil
}

func (f *fakeCatalog) SaveVariant(_ context.Context, v *models.ProductVariant) error {
	if f.failOnMPN != "" && v.MPN != nil && *v.MPN == f.failOnMPN {
		return errors.New("connection reset by peer")
	}
	for i := range f.variants {
		if f.variants[i].ID == v.ID {
			f.variants[i] = *v
			return nil
		}
	}
	f.variants = append(f.variants, *v)
	return nil
}

func (f *fakeCatalog) AppendPrice(_ context.Context, p *models.Price) error {
	p.ID = f.id()
	f.prices = append(f.prices, *p)
	return nil
}

func (f *fakeCatalog) FirstOrCreateImage(_ context.Context, img *models.Image) error {
	for _, existing := range f.images {
		if *existing.ProductID == *img.ProductID && *existing.VariantID == *img.VariantID && existing.Path == img.Path {
			return nil
		}
	}
	img.ID = f.id()
	f.images = append(f.images, *img)
	return nil
}

func (f *fakeCatalog) ReconcileProduct(_ context.Context, id string) error {
	f.reconciled = append(f.reconciled, id)
	return nil
}

func (f *fakeCatalog) variantByMPN(mpn string) *models.ProductVariant {
	v, _ := f.FindVariantByMPN(context.Background(), mpn)
	return v
}

func (f *fakeCatalog) pricesFor(variantID string) []models.Price {
	var out []models.Price
	for _, p := range f.prices {
		if p.VariantID == variantID {
			out = append(out, p)
		}
	}
	return out
}

// --- Fake Locker ---

type fakeLocker struct {
	held         bool
	err          error
	acquireCalls int
	releaseCalls int
	lastTTL      time.Duration
}

func (l *fakeLocker) Acquire(_ context.Context, _, _ string, ttl time.Duration) (bool, error) {
	l.acquireCalls++
	l.lastTTL = ttl
	if l.err != nil {
		return false, l.err
	}
	if l.held {
		return false, nil
	}
	l.held = true
	return true, nil
}

func (l *fakeLocker) Release(context.Context, string, string) error {
	l.releaseCalls++
	l.held = false
	return nil
}

// --- Helpers ---

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
