package models

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ProductsRepository struct {
	db *gorm.DB
}

// ErrProductNotFound is returned when a product is not found.
var ErrProductNotFound = errors.New("product not found")

const (
	DefaultPerPage = 12
	MaxPerPage     = 100
)

var (
	uuidShape      = regexp.MustCompile(`^[0-9a-fA-F-]{36}$`)
	tokenSeparator = regexp.MustCompile(`[^A-Za-z0-9]+`)
)

// ListItem is one variant of a listing page with its current price.
type ListItem struct {
	Variant      ProductVariant
	CurrentPrice *Price
}

// ListPage is a page of variants plus the current price bounds of the
// filtered population before the price range is applied.
type ListPage struct {
	Items    []ListItem
	Total    int64
	Page     int
	PerPage  int
	PriceMin *int64
	PriceMax *int64
}

// LastPage returns the number of the last page, at least 1.
func (p *ListPage) LastPage() int {
	if p.PerPage <= 0 || p.Total == 0 {
		return 1
	}
	return int((p.Total + int64(p.PerPage) - 1) / int64(p.PerPage))
}

// ProductDetail is a product with its representative variant.
type ProductDetail struct {
	Product      *Product
	Variant      *ProductVariant
	CurrentPrice *Price
}

func NewProductsRepository(db *gorm.DB) *ProductsRepository {
	return &ProductsRepository{
		db: db,
	}
}

// List runs the catalog query engine.
func (r *ProductsRepository) List(ctx context.Context, q ListQuery) (*ListPage, error) {
	page, perPage := normalizePaging(q.Page, q.PerPage)

	categoryID, err := r.resolveCategory(ctx, q.CategorySlug)
	if err != nil {
		return nil, err
	}
	filters := q.Filters(categoryID)

	filtered := func() *gorm.DB {
		query := r.db.WithContext(ctx).Model(&ProductVariant{}).
			Joins("JOIN products ON products.id = product_variants.product_id").
			Where("product_variants.is_active = ?", true)
		for _, f := range filters {
			query = f.Apply(query)
		}
		return query
	}
	priced := func() *gorm.DB {
		query := filtered()
		if f := q.PriceFilter(); f != nil {
			query = f.Apply(query)
		}
		return query
	}

	// Bounds come from the population before the price range applies
	var bounds struct {
		PriceMin *int64
		PriceMax *int64
	}
	if err := r.db.WithContext(ctx).
		Table("(?) AS filtered", filtered().Select(CurrentPriceSQL+" AS current_price")).
		Select("MIN(filtered.current_price) AS price_min, MAX(filtered.current_price) AS price_max").
		Scan(&bounds).Error; err != nil {
		return nil, err
	}

	var total int64
	if err := priced().Count(&total).Error; err != nil {
		return nil, err
	}

	var variants []ProductVariant
	query := priced().Select("product_variants.*")
	query = applySort(query, q.Sort, q.Order)
	if err := query.
		Preload("Product").
		Preload("Product.Vendor").
		Preload("Product.BoardPartner").
		Preload("Product.Images", orderImages).
		Preload("Images", orderImages).
		Preload("Stock").
		Offset((page - 1) * perPage).
		Limit(perPage).
		Find(&variants).Error; err != nil {
		return nil, err
	}

	ids := make([]string, len(variants))
	for i, v := range variants {
		ids[i] = v.ID
	}
	prices, err := LatestPrices(ctx, r.db, ids)
	if err != nil {
		return nil, err
	}

	items := make([]ListItem, len(variants))
	for i, v := range variants {
		items[i] = ListItem{Variant: v}
		if p, ok := prices[v.ID]; ok {
			price := p
			items[i].CurrentPrice = &price
		}
	}

	return &ListPage{
		Items:    items,
		Total:    total,
		Page:     page,
		PerPage:  perPage,
		PriceMin: bounds.PriceMin,
		PriceMax: bounds.PriceMax,
	}, nil
}

func (r *ProductsRepository) resolveCategory(ctx context.Context, slug string) (*uint, error) {
	if slug == "" {
		return nil, nil
	}
	var category Category
	err := r.db.WithContext(ctx).Where("slug = ?", slug).First(&category).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &category.ID, nil
}

func normalizePaging(page, perPage int) (int, int) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = DefaultPerPage
	}
	if perPage > MaxPerPage {
		perPage = MaxPerPage
	}
	return page, perPage
}

func applySort(query *gorm.DB, key SortKey, order SortOrder) *gorm.DB {
	dir := "ASC"
	if order == OrderDesc {
		dir = "DESC"
	}
	switch key {
	case SortDate:
		query = query.Order("products.release_date " + dir + " NULLS LAST")
	case SortPrice:
		query = query.Order(CurrentPriceSQL + " " + dir + " NULLS LAST")
	default:
		query = query.Order("product_variants.created_at ASC")
	}
	return query.Order("product_variants.id ASC")
}

func orderImages(db *gorm.DB) *gorm.DB {
	return db.Order("sort_order ASC, id ASC")
}

func withDetailAssociations(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Vendor").
		Preload("BoardPartner").
		Preload("Images", orderImages).
		Preload("Variants", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC, id ASC")
		}).
		Preload("Variants.Stock")
}

// GetBySlugOrID resolves the product behind a detail page: by primary key
// when key looks like a UUID, otherwise by case-insensitive exact slug.
// There is no fuzzy fallback.
func (r *ProductsRepository) GetBySlugOrID(ctx context.Context, key string) (*Product, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, ErrProductNotFound
	}

	query := withDetailAssociations(r.db.WithContext(ctx))
	if uuidShape.MatchString(key) {
		id, err := uuid.Parse(key)
		if err != nil {
			return nil, ErrProductNotFound
		}
		query = query.Where("id = ?", id.String())
	} else {
		query = query.Where("LOWER(slug) = LOWER(?)", key)
	}

	var product Product
	if err := query.First(&product).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err // Other DB error
	}
	return &product, nil
}

// GetDetail loads a product with its representative variant and that
// variant's current price.
func (r *ProductsRepository) GetDetail(ctx context.Context, key string) (*ProductDetail, error) {
	product, err := r.GetBySlugOrID(ctx, key)
	if err != nil {
		return nil, err
	}

	detail := &ProductDetail{Product: product, Variant: PrimaryVariant(product.Variants)}
	if detail.Variant != nil {
		detail.CurrentPrice, err = LatestPrice(ctx, r.db, detail.Variant.ID)
		if err != nil {
			return nil, err
		}
	}
	return detail, nil
}

// PrimaryVariant picks the first active variant, else the first variant.
func PrimaryVariant(variants []ProductVariant) *ProductVariant {
	for i := range variants {
		if variants[i].IsActive {
			return &variants[i]
		}
	}
	if len(variants) > 0 {
		return &variants[0]
	}
	return nil
}

// Resolve maps a possibly stale slug to a canonical one for redirects:
// exact slug, then UUID, then the first product whose slug or name contains
// every alphanumeric token of the input.
func (r *ProductsRepository) Resolve(ctx context.Context, key string) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return "", ErrProductNotFound
	}
	db := r.db.WithContext(ctx)

	var product Product
	err := db.Where("LOWER(slug) = LOWER(?)", key).First(&product).Error
	if err == nil {
		return product.Slug, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", err
	}

	if uuidShape.MatchString(key) {
		if id, perr := uuid.Parse(key); perr == nil {
			err = db.Where("id = ?", id.String()).First(&product).Error
			if err == nil {
				return product.Slug, nil
			}
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return "", err
			}
		}
	}

	tokens := ResolveTokens(key)
	if len(tokens) == 0 {
		return "", ErrProductNotFound
	}
	query := db.Model(&Product{})
	for _, t := range tokens {
		like := containsPattern(t)
		query = query.Where("(slug ILIKE ? OR name ILIKE ?)", like, like)
	}
	err = query.Order("created_at ASC, id ASC").First(&product).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrProductNotFound
		}
		return "", err
	}
	return product.Slug, nil
}

// ResolveTokens splits a requested slug into its alphanumeric tokens.
func ResolveTokens(key string) []string {
	var tokens []string
	for _, t := range tokenSeparator.Split(key, -1) {
		if t != "" {
			tokens = append(tokens, t)
		}
	}
	return tokens
}
