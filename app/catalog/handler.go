package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/thabzzzzz/hardwarestorefront-sub000/models"
)

type ListResponse struct {
	Data        []ListItem `json:"data"`
	CurrentPage int        `json:"current_page"`
	LastPage    int        `json:"last_page"`
	PerPage     int        `json:"per_page"`
	Total       int64      `json:"total"`
	Meta        Meta       `json:"meta"`
}

type Meta struct {
	PriceMin *int64 `json:"price_min"`
	PriceMax *int64 `json:"price_max"`
}

type Price struct {
	AmountCents int64  `json:"amount_cents"`
	Currency    string `json:"currency"`
}

type Stock struct {
	QtyAvailable int    `json:"qty_available"`
	Status       string `json:"status"`
}

type ListItem struct {
	VariantID    string                 `json:"variant_id"`
	ProductID    string                 `json:"product_id"`
	Name         string                 `json:"name"`
	Title        *string                `json:"title"`
	Slug         string                 `json:"slug"`
	Brand        *string                `json:"brand"`
	BoardPartner *string                `json:"board_partner"`
	Manufacturer *string                `json:"manufacturer"`
	SKU          *string                `json:"sku"`
	ProductType  string                 `json:"product_type"`
	CurrentPrice *Price                 `json:"current_price"`
	Thumbnail    *string                `json:"thumbnail"`
	ShortSpecs   map[string]interface{} `json:"short_specs"`
	Stock        *Stock                 `json:"stock"`
	IsFeatured   bool                   `json:"is_featured"`
	IsPopular    bool                   `json:"is_popular"`
	IsNew        bool                   `json:"is_new"`

	Cores             *int    `json:"cores,omitempty"`
	BoostClock        *string `json:"boost_clock,omitempty"`
	Microarchitecture *string `json:"microarchitecture,omitempty"`
	Socket            *string `json:"socket,omitempty"`
}

type ProductDetailResponse struct {
	ProductID    string                 `json:"product_id"`
	Slug         string                 `json:"slug"`
	Title        string                 `json:"title"`
	Brand        *string                `json:"brand"`
	BoardPartner *string                `json:"board_partner"`
	Manufacturer *string                `json:"manufacturer"`
	ProductType  string                 `json:"product_type"`
	Categories   []string               `json:"categories"`
	Thumbnail    *string                `json:"thumbnail"`
	Stock        *Stock                 `json:"stock"`
	Price        *Price                 `json:"price"`
	Specs        map[string]interface{} `json:"specs"`
	SpecTables   interface{}            `json:"spec_tables"`
	SpecFields   map[string]interface{} `json:"spec_fields"`
	IsFeatured   bool                   `json:"is_featured"`
	IsPopular    bool                   `json:"is_popular"`
	IsNew        bool                   `json:"is_new"`

	Cores             *int    `json:"cores,omitempty"`
	BoostClock        *string `json:"boost_clock,omitempty"`
	Microarchitecture *string `json:"microarchitecture,omitempty"`
	Socket            *string `json:"socket,omitempty"`
}

type ResolveResponse struct {
	Canonical string `json:"canonical"`
}

type ProductProvider interface {
	List(ctx context.Context, q models.ListQuery) (*models.ListPage, error)
	GetDetail(ctx context.Context, key string) (*models.ProductDetail, error)
	Resolve(ctx context.Context, key string) (string, error)
}

type CatalogHandler struct {
	repo   ProductProvider
	thumbs *ThumbnailResolver
	logger *slog.Logger
}

func NewCatalogHandler(r ProductProvider, thumbs *ThumbnailResolver, logger *slog.Logger) *CatalogHandler {
	return &CatalogHandler{
		repo:   r,
		thumbs: thumbs,
		logger: logger,
	}
}

// HandleGet serves the listing. A category_slug path value, when the route
// binds one, restricts the listing to that category.
func (h *CatalogHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, r.PathValue("category_slug"))
}

// ListWithCategory serves the listing with a fixed default category.
func (h *CatalogHandler) ListWithCategory(slug string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.list(w, r, slug)
	}
}

func (h *CatalogHandler) list(w http.ResponseWriter, r *http.Request, routeCategory string) {
	q, err := ParseListQuery(r.URL.Query(), routeCategory)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	page, err := h.repo.List(r.Context(), q)
	if err != nil {
		h.logger.Error("list products", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get products")
		return
	}

	data := make([]ListItem, len(page.Items))
	for i, item := range page.Items {
		data[i] = projectListItem(item)
	}

	writeJSON(w, http.StatusOK, ListResponse{
		Data:        data,
		CurrentPage: page.Page,
		LastPage:    page.LastPage(),
		PerPage:     page.PerPage,
		Total:       page.Total,
		Meta: Meta{
			PriceMin: page.PriceMin,
			PriceMax: page.PriceMax,
		},
	})
}

// HandleGetProduct serves one product by exact slug or UUID. Misses are 404
// and are never widened to a fuzzy match.
func (h *CatalogHandler) HandleGetProduct(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("slug")

	detail, err := h.repo.GetDetail(r.Context(), key)
	if err != nil {
		if !errors.Is(err, models.ErrProductNotFound) {
			h.logger.Error("get product", "key", key, "error", err)
		}
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "Product not found"})
		return
	}

	writeJSON(w, http.StatusOK, h.projectDetail(detail))
}

// HandleResolve maps a stale or approximate slug to the canonical slug.
func (h *CatalogHandler) HandleResolve(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("slug")

	canonical, err := h.repo.Resolve(r.Context(), key)
	if err != nil {
		if errors.Is(err, models.ErrProductNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{"message": "Not found"})
			return
		}
		h.logger.Error("resolve product", "key", key, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to resolve product")
		return
	}

	writeJSON(w, http.StatusOK, ResolveResponse{Canonical: canonical})
}

func projectListItem(item models.ListItem) ListItem {
	v := item.Variant
	out := ListItem{
		VariantID:    v.ID,
		ProductID:    v.ProductID,
		Title:        v.Title,
		SKU:          v.SKU,
		CurrentPrice: projectPrice(item.CurrentPrice),
		Thumbnail:    optional(listThumbnail(&v)),
		ShortSpecs:   shortSpecs(v.Specs),
		Stock:        projectStock(v.Stock),
	}

	if p := v.Product; p != nil {
		out.Name = p.Name
		out.Slug = p.Slug
		out.Brand = p.DisplayBrand()
		out.BoardPartner = p.BoardPartnerName()
		out.Manufacturer = models.CanonicalManufacturer(p.ProductType, p.Manufacturer, p.Name)
		out.ProductType = p.ProductType
		out.IsFeatured = p.IsFeatured
		out.IsPopular = p.IsPopular
		out.IsNew = p.IsNew
		if models.IsCPUType(p.ProductType) {
			out.Cores = p.Cores
			out.BoostClock = p.BoostClock
			out.Microarchitecture = p.Microarchitecture
			out.Socket = p.Socket
		}
	}
	return out
}

// listThumbnail picks the product's clean thumbnail, then a thumbnail role
// image on the variant or product, then the first scraped image URL.
func listThumbnail(v *models.ProductVariant) string {
	if v.Product != nil {
		if t := models.ProductThumbnail(v.Product.Images); t != "" {
			return t
		}
	}
	if t := models.RoleImage(v.Images, models.ImageRoleThumbnail); t != "" {
		return t
	}
	if v.Product != nil {
		if t := models.RoleImage(v.Product.Images, models.ImageRoleThumbnail); t != "" {
			return t
		}
	}
	if len(v.ImageURLs) > 0 {
		return v.ImageURLs[0]
	}
	return ""
}

func (h *CatalogHandler) projectDetail(d *models.ProductDetail) ProductDetailResponse {
	p := d.Product
	out := ProductDetailResponse{
		ProductID:    p.ID,
		Slug:         p.Slug,
		Title:        p.Name,
		Brand:        p.DisplayBrand(),
		BoardPartner: p.BoardPartnerName(),
		Manufacturer: p.Manufacturer,
		ProductType:  p.ProductType,
		Categories:   []string{},
		Thumbnail:    optional(h.thumbs.Resolve(models.ProductThumbnail(p.Images))),
		Price:        projectPrice(d.CurrentPrice),
		Specs:        map[string]interface{}{},
		SpecFields:   map[string]interface{}{},
		IsFeatured:   p.IsFeatured,
		IsPopular:    p.IsPopular,
		IsNew:        p.IsNew,
	}
	if p.ProductType != "" {
		out.Categories = []string{p.ProductType}
	}
	if models.IsCPUType(p.ProductType) {
		out.Cores = p.Cores
		out.BoostClock = p.BoostClock
		out.Microarchitecture = p.Microarchitecture
		out.Socket = p.Socket
	}

	v := d.Variant
	if v == nil {
		return out
	}
	out.Stock = projectStock(v.Stock)

	specs := map[string]interface{}(v.Specs)
	if len(specs) == 0 {
		specs = synthesizeSpecs(v)
	}
	sanitizer := newSpecSanitizer()
	out.Specs = sanitizer.sanitizeMap(specs)

	out.SpecFields = specFields(v)
	if tables, ok := decodeSpecTables(v.RawSpecTables); ok {
		out.SpecTables = sanitizer.sanitize(tables)
	}
	return out
}

func projectPrice(p *models.Price) *Price {
	if p == nil {
		return nil
	}
	return &Price{AmountCents: p.AmountCents, Currency: p.Currency}
}

func projectStock(s *models.StockLevel) *Stock {
	if s == nil {
		return nil
	}
	return &Stock{QtyAvailable: s.QtyAvailable, Status: s.Status}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
