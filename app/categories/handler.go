package categories

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/thabzzzzz/hardwarestorefront-sub000/models"
)

type CategoryResponse struct {
	ID   uint   `json:"id"`
	Slug string `json:"slug"`
	Name string `json:"name"`
}

type CategoryProvider interface {
	GetAllCategories(ctx context.Context) ([]models.Category, error)
	CreateCategory(ctx context.Context, category *models.Category) error
}

type CategoryHandler struct {
	repo   CategoryProvider
	logger *slog.Logger
}

func NewCategoryHandler(r CategoryProvider, logger *slog.Logger) *CategoryHandler {
	return &CategoryHandler{repo: r, logger: logger}
}

func (h *CategoryHandler) HandleGetAll(w http.ResponseWriter, r *http.Request) {
	categories, err := h.repo.GetAllCategories(r.Context())
	if err != nil {
		h.logger.Error("list categories", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to fetch categories")
		return
	}

	response := make([]CategoryResponse, len(categories))
	for i, c := range categories {
		response[i] = toResponse(c)
	}

	writeJSON(w, http.StatusOK, response)
}

func (h *CategoryHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Name string `json:"name"`
		Slug string `json:"slug"`
	}

	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	input.Name = strings.TrimSpace(input.Name)
	if input.Name == "" {
		writeError(w, http.StatusBadRequest, "Missing name")
		return
	}

	category := &models.Category{
		Name: input.Name,
		Slug: strings.TrimSpace(input.Slug),
	}

	if err := h.repo.CreateCategory(r.Context(), category); err != nil {
		if errors.Is(err, models.ErrCategoryExists) {
			writeError(w, http.StatusConflict, "Category already exists")
			return
		}
		h.logger.Error("create category", "name", input.Name, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to create category")
		return
	}

	writeJSON(w, http.StatusCreated, toResponse(*category))
}

func toResponse(c models.Category) CategoryResponse {
	return CategoryResponse{ID: c.ID, Slug: c.Slug, Name: c.Name}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
