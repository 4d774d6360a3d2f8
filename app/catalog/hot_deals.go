package catalog

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/thabzzzzz/hardwarestorefront-sub000/models"
)

type HotDealsResponse struct {
	Data []ListItem `json:"data"`
}

// HotDealsHandler serves the curated landing page listing. The projected
// items are cached for ttl; a failed refresh is not cached.
type HotDealsHandler struct {
	repo   ProductProvider
	slugs  []string
	ttl    time.Duration
	logger *slog.Logger
	now    func() time.Time

	mu      sync.Mutex
	cached  []ListItem
	expires time.Time
}

func NewHotDealsHandler(r ProductProvider, slugs []string, ttl time.Duration, logger *slog.Logger) *HotDealsHandler {
	return &HotDealsHandler{
		repo:   r,
		slugs:  slugs,
		ttl:    ttl,
		logger: logger,
		now:    time.Now,
	}
}

func (h *HotDealsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	items, err := h.items(r.Context())
	if err != nil {
		h.logger.Error("list hot deals", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get hot deals")
		return
	}
	writeJSON(w, http.StatusOK, HotDealsResponse{Data: items})
}

func (h *HotDealsHandler) items(ctx context.Context) ([]ListItem, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.cached != nil && h.now().Before(h.expires) {
		return h.cached, nil
	}
	if len(h.slugs) == 0 {
		return []ListItem{}, nil
	}

	page, err := h.repo.List(ctx, models.ListQuery{Slugs: h.slugs, PerPage: models.MaxPerPage})
	if err != nil {
		return nil, err
	}
	items := make([]ListItem, len(page.Items))
	for i, item := range page.Items {
		items[i] = projectListItem(item)
	}

	h.cached = items
	h.expires = h.now().Add(h.ttl)
	return items, nil
}
