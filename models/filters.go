package models

import (
	"fmt"
	"strings"

	"gorm.io/gorm"
)

// StockStatus is a stock bucket accepted by the listing filter.
type StockStatus string

const (
	StockInStock    StockStatus = "in_stock"
	StockOutOfStock StockStatus = "out_of_stock"
	StockReserved   StockStatus = "reserved"
)

// ParseStockStatus validates a stock_status query value.
func ParseStockStatus(s string) (StockStatus, error) {
	switch v := StockStatus(strings.ToLower(strings.TrimSpace(s))); v {
	case StockInStock, StockOutOfStock, StockReserved:
		return v, nil
	}
	return "", fmt.Errorf("unknown stock status %q", s)
}

func (s StockStatus) condition() string {
	switch s {
	case StockInStock:
		return "(sl.qty_available > 0 AND sl.status NOT IN ('out_of_stock', 'reserved'))"
	case StockOutOfStock:
		return "(sl.status = 'out_of_stock' OR (sl.qty_available <= 0 AND sl.status <> 'reserved'))"
	case StockReserved:
		return "(sl.status = 'reserved')"
	}
	return "FALSE"
}

// SortKey selects the listing order.
type SortKey string

const (
	SortDefault SortKey = ""
	SortDate    SortKey = "date"
	SortPrice   SortKey = "price"
)

// ParseSortKey validates a sort query value. Empty means default order.
func ParseSortKey(s string) (SortKey, error) {
	switch v := SortKey(strings.ToLower(strings.TrimSpace(s))); v {
	case SortDefault, SortDate, SortPrice:
		return v, nil
	}
	return "", fmt.Errorf("unknown sort %q", s)
}

// SortOrder is the listing direction.
type SortOrder string

const (
	OrderAsc  SortOrder = "asc"
	OrderDesc SortOrder = "desc"
)

// ParseSortOrder validates an order query value. Empty means ascending.
func ParseSortOrder(s string) (SortOrder, error) {
	switch v := SortOrder(strings.ToLower(strings.TrimSpace(s))); v {
	case "":
		return OrderAsc, nil
	case OrderAsc, OrderDesc:
		return v, nil
	}
	return "", fmt.Errorf("unknown order %q", s)
}

// ProductFlag is one of the computed product booleans.
type ProductFlag string

const (
	FlagFeatured ProductFlag = "featured"
	FlagPopular  ProductFlag = "popular"
	FlagNew      ProductFlag = "new"
)

func (f ProductFlag) column() string {
	switch f {
	case FlagFeatured:
		return "products.is_featured"
	case FlagPopular:
		return "products.is_popular"
	case FlagNew:
		return "products.is_new"
	}
	return ""
}

// PriceRange bounds the current price in cents. A nil Max is unbounded.
type PriceRange struct {
	Min int64
	Max *int64
}

// ListQuery is the validated listing request.
type ListQuery struct {
	CategorySlug  string
	Type          string
	Search        string
	Tag           string
	Flags         []ProductFlag
	Manufacturers []string
	StockStatuses []StockStatus
	// Slugs restricts the listing to these product slugs.
	Slugs   []string
	Price   *PriceRange
	Sort    SortKey
	Order   SortOrder
	Page    int
	PerPage int
}

// Filter is one compiled listing predicate. Filters of different kinds are
// AND-combined.
type Filter interface {
	Kind() string
	Apply(db *gorm.DB) *gorm.DB
}

// CategoryFilter restricts to products of a resolved category.
type CategoryFilter struct{ ID uint }

func (CategoryFilter) Kind() string { return "category" }

func (f CategoryFilter) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("products.category_id = ?", f.ID)
}

// TypeFilter is the legacy match on the denormalized product type or slug,
// used when the requested category slug does not resolve.
type TypeFilter struct{ Type string }

func (TypeFilter) Kind() string { return "type" }

func (f TypeFilter) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("(products.product_type = ? OR products.slug = ?)", f.Type, f.Type)
}

// SearchFilter matches variant title or sku.
type SearchFilter struct{ Term string }

func (SearchFilter) Kind() string { return "search" }

func (f SearchFilter) Apply(db *gorm.DB) *gorm.DB {
	like := containsPattern(f.Term)
	return db.Where("(product_variants.title ILIKE ? OR product_variants.sku ILIKE ?)", like, like)
}

// TagFilter is a loose substring match over the product tags.
type TagFilter struct{ Tag string }

func (TagFilter) Kind() string { return "tag" }

func (f TagFilter) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("array_to_string(products.tags, ',') ILIKE ?", containsPattern(f.Tag))
}

// FlagFilter requires a computed product flag to be set.
type FlagFilter struct{ Flag ProductFlag }

func (FlagFilter) Kind() string { return "flag" }

func (f FlagFilter) Apply(db *gorm.DB) *gorm.DB {
	return db.Where(f.Flag.column()+" = ?", true)
}

// ManufacturerFilter matches any of the requested manufacturers, each
// expanded to its brand family.
type ManufacturerFilter struct{ Names []string }

func (ManufacturerFilter) Kind() string { return "manufacturer" }

func (f ManufacturerFilter) Apply(db *gorm.DB) *gorm.DB {
	var (
		parts []string
		args  []interface{}
	)
	for _, name := range f.Names {
		sql, vars := manufacturerCondition(name)
		parts = append(parts, sql)
		args = append(args, vars...)
	}
	if len(parts) == 0 {
		return db
	}
	return db.Where("("+strings.Join(parts, " OR ")+")", args...)
}

// SlugFilter restricts the listing to an explicit set of products.
type SlugFilter struct{ Slugs []string }

func (SlugFilter) Kind() string { return "slug" }

func (f SlugFilter) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("products.slug IN ?", f.Slugs)
}

// StockStatusFilter matches variants whose stock row falls in any of the
// requested buckets.
type StockStatusFilter struct{ Statuses []StockStatus }

func (StockStatusFilter) Kind() string { return "stock_status" }

func (f StockStatusFilter) Apply(db *gorm.DB) *gorm.DB {
	if len(f.Statuses) == 0 {
		return db
	}
	conds := make([]string, len(f.Statuses))
	for i, s := range f.Statuses {
		conds[i] = s.condition()
	}
	return db.Where("EXISTS (SELECT 1 FROM stock_levels sl WHERE sl.variant_id = product_variants.id AND (" +
		strings.Join(conds, " OR ") + "))")
}

// PriceRangeFilter bounds the current price of the variant.
type PriceRangeFilter struct{ Range PriceRange }

func (PriceRangeFilter) Kind() string { return "price_range" }

func (f PriceRangeFilter) Apply(db *gorm.DB) *gorm.DB {
	db = db.Where(CurrentPriceSQL+" >= ?", f.Range.Min)
	if f.Range.Max != nil {
		db = db.Where(CurrentPriceSQL+" <= ?", *f.Range.Max)
	}
	return db
}

// Filters compiles every non-price dimension of the query. categoryID is the
// id the requested category slug resolved to, if any.
func (q ListQuery) Filters(categoryID *uint) []Filter {
	var filters []Filter

	if categoryID != nil {
		filters = append(filters, CategoryFilter{ID: *categoryID})
	} else if q.Type != "" {
		filters = append(filters, TypeFilter{Type: q.Type})
	}
	if q.Search != "" {
		filters = append(filters, SearchFilter{Term: q.Search})
	}
	if q.Tag != "" {
		filters = append(filters, TagFilter{Tag: q.Tag})
	}
	for _, flag := range q.Flags {
		filters = append(filters, FlagFilter{Flag: flag})
	}
	if len(q.Manufacturers) > 0 {
		filters = append(filters, ManufacturerFilter{Names: q.Manufacturers})
	}
	if len(q.StockStatuses) > 0 {
		filters = append(filters, StockStatusFilter{Statuses: q.StockStatuses})
	}
	if len(q.Slugs) > 0 {
		filters = append(filters, SlugFilter{Slugs: q.Slugs})
	}
	return filters
}

// PriceFilter returns the price range filter, or nil when no bound was given.
func (q ListQuery) PriceFilter() Filter {
	if q.Price == nil {
		return nil
	}
	return PriceRangeFilter{Range: *q.Price}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func containsPattern(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}
