package server

import (
	"io/fs"
	"log/slog"
	"net/http"

	"github.com/thabzzzzz/hardwarestorefront-sub000/app/catalog"
	"github.com/thabzzzzz/hardwarestorefront-sub000/app/categories"
	"github.com/thabzzzzz/hardwarestorefront-sub000/config"
	"github.com/thabzzzzz/hardwarestorefront-sub000/metrics"
)

// Handlers groups the feature handlers mounted by NewRouter.
type Handlers struct {
	Catalog    *catalog.CatalogHandler
	Categories *categories.CategoryHandler
	HotDeals   *catalog.HotDealsHandler
	// Public, when set, is served for every path no API route claims.
	Public fs.FS
}

// NewRouter registers the storefront API and wraps it with logging,
// metrics and the global rate limit.
func NewRouter(h Handlers, cfg config.HTTPConfig, logger *slog.Logger) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/products", h.Catalog.HandleGet)
	mux.HandleFunc("GET /api/gpus", h.Catalog.ListWithCategory("gpus"))
	mux.HandleFunc("GET /api/cpus", h.Catalog.ListWithCategory("cpus"))
	mux.HandleFunc("GET /api/categories/{category_slug}/products", h.Catalog.HandleGet)
	mux.HandleFunc("GET /api/products/{slug}", h.Catalog.HandleGetProduct)
	mux.HandleFunc("GET /api/products/resolve/{slug}", h.Catalog.HandleResolve)
	if h.HotDeals != nil {
		mux.HandleFunc("GET /api/hot-deals", h.HotDeals.HandleGet)
	}

	mux.HandleFunc("GET /api/categories", h.Categories.HandleGetAll)
	mux.HandleFunc("POST /api/categories", h.Categories.HandleCreate)

	mux.Handle("GET /metrics", metrics.MetricsHandler())

	if h.Public != nil {
		mux.Handle("GET /", http.FileServerFS(h.Public))
	}

	var handler http.Handler = mux
	handler = rateLimit(handler, cfg.RateLimit, cfg.RateBurst)
	handler = instrument(handler, logger)
	return handler
}
