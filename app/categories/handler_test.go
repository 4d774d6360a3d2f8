package categories

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/thabzzzzz/hardwarestorefront-sub000/models"
)

// --- Mock Repository ---

type MockCategoryRepo struct {
	Categories []models.Category
	CreateErr  error
	ListErr    error
	LastSaved  *models.Category
}

func (m *MockCategoryRepo) GetAllCategories(context.Context) ([]models.Category, error) {
	if m.ListErr != nil {
		return nil, m.ListErr
	}
	return m.Categories, nil
}

func (m *MockCategoryRepo) CreateCategory(_ context.Context, cat *models.Category) error {
	m.LastSaved = cat
	if m.CreateErr != nil {
		return m.CreateErr
	}
	cat.ID = 7
	if cat.Slug == "" {
		cat.Slug = strings.ToLower(strings.ReplaceAll(cat.Name, " ", "-"))
	}
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// --- Tests: GET /api/categories ---

func TestHandleGetAll(t *testing.T) {
	testCases := []struct {
		name               string
		mockRepoSetup      func() *MockCategoryRepo
		expectedStatusCode int
		checkResponse      func(t *testing.T, rec *httptest.ResponseRecorder)
	}{
		{
			name: "Success with multiple categories",
			mockRepoSetup: func() *MockCategoryRepo {
				return &MockCategoryRepo{
					Categories: []models.Category{
						{ID: 1, Slug: "cpus", Name: "CPUs"},
						{ID: 2, Slug: "gpus", Name: "GPUs"},
					},
				}
			},
			expectedStatusCode: http.StatusOK,
			checkResponse: func(t *testing.T, rec *httptest.ResponseRecorder) {
				var resp []CategoryResponse
				err := json.NewDecoder(rec.Body).Decode(&resp)
				assert.NoError(t, err)
				assert.Len(t, resp, 2)
				assert.Equal(t, "cpus", resp[0].Slug)
				assert.Equal(t, "GPUs", resp[1].Name)
				assert.Equal(t, uint(2), resp[1].ID)
			},
		},
		{
			name: "Success with empty list",
			mockRepoSetup: func() *MockCategoryRepo {
				return &MockCategoryRepo{
					Categories: []models.Category{},
				}
			},
			expectedStatusCode: http.StatusOK,
			checkResponse: func(t *testing.T, rec *httptest.ResponseRecorder) {
				assert.JSONEq(t, `[]`, rec.Body.String())
			},
		},
		{
			name: "Repository error",
			mockRepoSetup: func() *MockCategoryRepo {
				return &MockCategoryRepo{
					ListErr: errors.New("db down"),
				}
			},
			expectedStatusCode: http.StatusInternalServerError,
			checkResponse: func(t *testing.T, rec *httptest.ResponseRecorder) {
				var errResp map[string]string
				err := json.NewDecoder(rec.Body).Decode(&errResp)
				assert.NoError(t, err)
				assert.Equal(t, "failed to fetch categories", errResp["error"])
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// Arrange
			mockRepo := tc.mockRepoSetup()
			handler := NewCategoryHandler(mockRepo, discardLogger())
			req := httptest.NewRequest("GET", "/api/categories", nil)
			rec := httptest.NewRecorder()

			// Act
			handler.HandleGetAll(rec, req)

			// Assert
			assert.Equal(t, tc.expectedStatusCode, rec.Code)
			if tc.checkResponse != nil {
				tc.checkResponse(t, rec)
			}
		})
	}
}

// --- Tests: POST /api/categories ---

func TestHandleCreate(t *testing.T) {
	testCases := []struct {
		name               string
		requestBody        string
		mockRepoSetup      func() *MockCategoryRepo
		expectedStatusCode int
		checkResponse      func(t *testing.T, rec *httptest.ResponseRecorder)
		checkRepoCall      func(t *testing.T, repo *MockCategoryRepo)
	}{
		{
			name:        "Success with derived slug",
			requestBody: `{"name":"  Power Supplies "}`,
			mockRepoSetup: func() *MockCategoryRepo {
				return &MockCategoryRepo{}
			},
			expectedStatusCode: http.StatusCreated,
			checkResponse: func(t *testing.T, rec *httptest.ResponseRecorder) {
				var resp CategoryResponse
				err := json.NewDecoder(rec.Body).Decode(&resp)
				assert.NoError(t, err)
				assert.Equal(t, uint(7), resp.ID)
				assert.Equal(t, "power-supplies", resp.Slug)
			},
			checkRepoCall: func(t *testing.T, repo *MockCategoryRepo) {
				assert.NotNil(t, repo.LastSaved)
				assert.Equal(t, "Power Supplies", repo.LastSaved.Name)
			},
		},
		{
			name:        "Explicit slug is kept",
			requestBody: `{"name":"Graphics Cards","slug":"gpus"}`,
			mockRepoSetup: func() *MockCategoryRepo {
				return &MockCategoryRepo{}
			},
			expectedStatusCode: http.StatusCreated,
			checkRepoCall: func(t *testing.T, repo *MockCategoryRepo) {
				assert.Equal(t, "gpus", repo.LastSaved.Slug)
			},
		},
		{
			name:        "Invalid JSON body",
			requestBody: `{invalid json`,
			mockRepoSetup: func() *MockCategoryRepo {
				return &MockCategoryRepo{}
			},
			expectedStatusCode: http.StatusBadRequest,
			checkResponse: func(t *testing.T, rec *httptest.ResponseRecorder) {
				var errResp map[string]string
				err := json.NewDecoder(rec.Body).Decode(&errResp)
				assert.NoError(t, err)
				assert.Equal(t, "Invalid JSON body", errResp["error"])
			},
			checkRepoCall: func(t *testing.T, repo *MockCategoryRepo) {
				assert.Nil(t, repo.LastSaved, "CreateCategory should not be called with invalid JSON")
			},
		},
		{
			name:        "Missing name",
			requestBody: `{"slug":"gpus"}`,
			mockRepoSetup: func() *MockCategoryRepo {
				return &MockCategoryRepo{}
			},
			expectedStatusCode: http.StatusBadRequest,
			checkResponse: func(t *testing.T, rec *httptest.ResponseRecorder) {
				var errResp map[string]string
				err := json.NewDecoder(rec.Body).Decode(&errResp)
				assert.NoError(t, err)
				assert.Equal(t, "Missing name", errResp["error"])
			},
			checkRepoCall: func(t *testing.T, repo *MockCategoryRepo) {
				assert.Nil(t, repo.LastSaved, "CreateCategory should not be called with missing fields")
			},
		},
		{
			name:        "Duplicate category",
			requestBody: `{"name":"GPUs"}`,
			mockRepoSetup: func() *MockCategoryRepo {
				return &MockCategoryRepo{CreateErr: models.ErrCategoryExists}
			},
			expectedStatusCode: http.StatusConflict,
		},
		{
			name:        "Repository error on create",
			requestBody: `{"name":"Toys"}`,
			mockRepoSetup: func() *MockCategoryRepo {
				return &MockCategoryRepo{CreateErr: errors.New("insert failed")}
			},
			expectedStatusCode: http.StatusInternalServerError,
			checkResponse: func(t *testing.T, rec *httptest.ResponseRecorder) {
				var errResp map[string]string
				err := json.NewDecoder(rec.Body).Decode(&errResp)
				assert.NoError(t, err)
				assert.Equal(t, "Failed to create category", errResp["error"])
			},
			checkRepoCall: func(t *testing.T, repo *MockCategoryRepo) {
				assert.NotNil(t, repo.LastSaved, "CreateCategory should have been called")
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// Arrange
			mockRepo := tc.mockRepoSetup()
			handler := NewCategoryHandler(mockRepo, discardLogger())
			req := httptest.NewRequest("POST", "/api/categories", strings.NewReader(tc.requestBody))
			req.Header.Set("Content-Type", "application/json")
			rec := httptest.NewRecorder()

			// Act
			handler.HandleCreate(rec, req)

			// Assert
			assert.Equal(t, tc.expectedStatusCode, rec.Code)

			if tc.checkResponse != nil {
				tc.checkResponse(t, rec)
			}

			if tc.checkRepoCall != nil {
				tc.checkRepoCall(t, mockRepo)
			}
		})
	}
}
