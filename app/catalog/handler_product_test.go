package catalog

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"github.com/thabzzzzz/hardwarestorefront-sub000/models"
)

func newTestDetail() *models.ProductDetail {
	product := &models.Product{
		ID:           "0b6f3a52-5d0e-4c41-9f0c-2f4f7f0f5d11",
		Slug:         "asus-dual-rtx-4070",
		Name:         "ASUS Dual GeForce RTX 4070",
		Brand:        strPtr("ASUS"),
		Manufacturer: strPtr("NVIDIA"),
		ProductType:  "gpus",
		BoardPartner: &models.Vendor{Name: "ASUS"},
		Images: []models.Image{
			{Path: "/images/rtx4070.png", SortOrder: 0},
			{Path: "/images/rtx4070-back.png", SortOrder: 1},
		},
	}
	variant := &models.ProductVariant{
		ID:            "v1",
		ProductID:     product.ID,
		IsActive:      true,
		VramGB:        strPtr("12GB"),
		VramType:      strPtr("GDDR6X"),
		BusWidthInt:   func() *int { n := 192; return &n }(),
		BoostClockMHz: func() *int { n := 2520; return &n }(),
		MPN:           strPtr("DUAL-RTX4070-O12G"),
		Stock:         &models.StockLevel{QtyAvailable: 0, Status: "out_of_stock"},
		RawSpecTables: datatypes.JSON(`[["Brand Brand","ASUS"],["Price","$599"],["Memory","12GB"]]`),
	}
	product.Variants = []models.ProductVariant{*variant}
	return &models.ProductDetail{
		Product:      product,
		Variant:      variant,
		CurrentPrice: &models.Price{AmountCents: 1079982, Currency: "ZAR"},
	}
}

func TestHandleGetProduct(t *testing.T) {
	public := fstest.MapFS{
		"images/rtx4070-800w.png": &fstest.MapFile{Data: []byte("png")},
		"images/rtx4070-400w.png": &fstest.MapFile{Data: []byte("png")},
	}

	testCases := []struct {
		name               string
		slug               string
		mockRepoSetup      func() *MockProductRepo
		expectedStatusCode int
		checkResponse      func(t *testing.T, rec *httptest.ResponseRecorder)
		checkRepoCall      func(t *testing.T, repo *MockProductRepo)
	}{
		{
			name: "Success with synthesized specs and best thumbnail",
			slug: "asus-dual-rtx-4070",
			mockRepoSetup: func() *MockProductRepo {
				return &MockProductRepo{Detail: newTestDetail()}
			},
			expectedStatusCode: http.StatusOK,
			checkResponse: func(t *testing.T, rec *httptest.ResponseRecorder) {
				var resp ProductDetailResponse
				require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
				assert.Equal(t, "asus-dual-rtx-4070", resp.Slug)
				assert.Equal(t, "ASUS Dual GeForce RTX 4070", resp.Title)
				assert.Equal(t, "ASUS", *resp.Brand)
				assert.Equal(t, "ASUS", *resp.BoardPartner)
				assert.Equal(t, []string{"gpus"}, resp.Categories)
				assert.Equal(t, "/images/rtx4070-800w.png", *resp.Thumbnail)
				assert.Equal(t, int64(1079982), resp.Price.AmountCents)
				assert.Equal(t, "out_of_stock", resp.Stock.Status)

				assert.Equal(t, "12GB", resp.Specs["Memory"])
				assert.Equal(t, "GDDR6X", resp.Specs["Memory Type"])
				assert.Equal(t, "192-Bit", resp.Specs["Bus Width"])
				assert.Equal(t, "2520 MHz", resp.Specs["Boost Clock"])

				tables, ok := resp.SpecTables.([]interface{})
				require.True(t, ok)
				assert.Equal(t, []interface{}{[]interface{}{"Brand", "ASUS"}}, tables,
					"price row dropped, doubled key collapsed, memory row already shown in specs")

				assert.Equal(t, "DUAL-RTX4070-O12G", resp.SpecFields["mpn"])
				assert.Equal(t, float64(192), resp.SpecFields["bus_width_int"])
				assert.NotContains(t, resp.SpecFields, "threads")
			},
			checkRepoCall: func(t *testing.T, repo *MockProductRepo) {
				assert.Equal(t, "asus-dual-rtx-4070", repo.lastKey)
			},
		},
		{
			name: "Lookup by id",
			slug: "0b6f3a52-5d0e-4c41-9f0c-2f4f7f0f5d11",
			mockRepoSetup: func() *MockProductRepo {
				return &MockProductRepo{Detail: newTestDetail()}
			},
			expectedStatusCode: http.StatusOK,
		},
		{
			name: "Near miss slug is not found",
			slug: "asus-dual-rtx-407",
			mockRepoSetup: func() *MockProductRepo {
				return &MockProductRepo{Detail: newTestDetail(), Canonical: "asus-dual-rtx-4070"}
			},
			expectedStatusCode: http.StatusNotFound,
			checkResponse: func(t *testing.T, rec *httptest.ResponseRecorder) {
				var resp map[string]string
				require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
				assert.Equal(t, "Product not found", resp["message"])
			},
		},
		{
			name: "Storage failure is still a 404",
			slug: "anything",
			mockRepoSetup: func() *MockProductRepo {
				return &MockProductRepo{Err: errors.New("db down")}
			},
			expectedStatusCode: http.StatusNotFound,
		},
		{
			name: "Product without variants",
			slug: "bare",
			mockRepoSetup: func() *MockProductRepo {
				return &MockProductRepo{Detail: &models.ProductDetail{
					Product: &models.Product{ID: "p1", Slug: "bare", Name: "Bare", ProductType: ""},
				}}
			},
			expectedStatusCode: http.StatusOK,
			checkResponse: func(t *testing.T, rec *httptest.ResponseRecorder) {
				var raw map[string]json.RawMessage
				require.NoError(t, json.NewDecoder(rec.Body).Decode(&raw))
				assert.JSONEq(t, `{}`, string(raw["specs"]))
				assert.JSONEq(t, `[]`, string(raw["categories"]))
				assert.JSONEq(t, `null`, string(raw["price"]))
				assert.JSONEq(t, `null`, string(raw["thumbnail"]))
				assert.JSONEq(t, `null`, string(raw["spec_tables"]))
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// Arrange
			mockRepo := tc.mockRepoSetup()
			handler := NewCatalogHandler(mockRepo, NewThumbnailResolver(public), discardLogger())
			req := httptest.NewRequest("GET", "/api/products/"+tc.slug, nil)
			req.SetPathValue("slug", tc.slug)
			rec := httptest.NewRecorder()

			// Act
			handler.HandleGetProduct(rec, req)

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

func TestHandleResolve(t *testing.T) {
	testCases := []struct {
		name               string
		repo               *MockProductRepo
		expectedStatusCode int
		expectedBody       string
	}{
		{
			name:               "Canonical slug",
			repo:               &MockProductRepo{Canonical: "asus-dual-rtx-4070"},
			expectedStatusCode: http.StatusOK,
			expectedBody:       `{"canonical":"asus-dual-rtx-4070"}`,
		},
		{
			name:               "Not found",
			repo:               &MockProductRepo{},
			expectedStatusCode: http.StatusNotFound,
			expectedBody:       `{"message":"Not found"}`,
		},
		{
			name:               "Storage failure",
			repo:               &MockProductRepo{Err: errors.New("db down")},
			expectedStatusCode: http.StatusInternalServerError,
			expectedBody:       `{"error":"failed to resolve product"}`,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			handler := NewCatalogHandler(tc.repo, nil, discardLogger())
			req := httptest.NewRequest("GET", "/api/products/resolve/asus-dual-rtx-407", nil)
			req.SetPathValue("slug", "asus-dual-rtx-407")
			rec := httptest.NewRecorder()

			handler.HandleResolve(rec, req)

			assert.Equal(t, tc.expectedStatusCode, rec.Code)
			assert.JSONEq(t, tc.expectedBody, rec.Body.String())
			assert.Equal(t, "asus-dual-rtx-407", tc.repo.lastKey)
		})
	}
}
