package catalog

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHotDealsHandler(t *testing.T) {
	testCases := []struct {
		name               string
		slugs              []string
		mockRepo           *MockProductRepo
		expectedStatusCode int
		expectedItems      int
		expectedListCalls  int
	}{
		{
			name:               "Success projects the configured products",
			slugs:              []string{"nzxt-h5-mini-itx-case"},
			mockRepo:           &MockProductRepo{Page: newTestPage()},
			expectedStatusCode: http.StatusOK,
			expectedItems:      2,
			expectedListCalls:  1,
		},
		{
			name:               "No configured slugs skips the query",
			mockRepo:           &MockProductRepo{},
			expectedStatusCode: http.StatusOK,
			expectedItems:      0,
			expectedListCalls:  0,
		},
		{
			name:               "Repository error",
			slugs:              []string{"nzxt-h5-mini-itx-case"},
			mockRepo:           &MockProductRepo{Err: errors.New("db down")},
			expectedStatusCode: http.StatusInternalServerError,
			expectedListCalls:  1,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// Arrange
			handler := NewHotDealsHandler(tc.mockRepo, tc.slugs, 30*time.Second, discardLogger())
			rec := httptest.NewRecorder()

			// Act
			handler.HandleGet(rec, httptest.NewRequest("GET", "/api/hot-deals", nil))

			// Assert
			assert.Equal(t, tc.expectedStatusCode, rec.Code)
			assert.Equal(t, tc.expectedListCalls, tc.mockRepo.listCalls)
			if tc.expectedStatusCode != http.StatusOK {
				return
			}
			var body HotDealsResponse
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
			assert.NotNil(t, body.Data)
			assert.Len(t, body.Data, tc.expectedItems)
			if tc.expectedListCalls > 0 {
				assert.Equal(t, tc.slugs, tc.mockRepo.lastQuery.Slugs)
			}
		})
	}
}

func TestHotDealsHandlerCachesUntilExpiry(t *testing.T) {
	repo := &MockProductRepo{Page: newTestPage()}
	handler := NewHotDealsHandler(repo, []string{"slug-v1"}, 30*time.Second, discardLogger())
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	handler.now = func() time.Time { return now }

	serve := func() int {
		rec := httptest.NewRecorder()
		handler.HandleGet(rec, httptest.NewRequest("GET", "/api/hot-deals", nil))
		return rec.Code
	}

	require.Equal(t, http.StatusOK, serve())
	now = now.Add(29 * time.Second)
	require.Equal(t, http.StatusOK, serve())
	assert.Equal(t, 1, repo.listCalls)

	now = now.Add(2 * time.Second)
	require.Equal(t, http.StatusOK, serve())
	assert.Equal(t, 2, repo.listCalls)
}

func TestHotDealsHandlerDoesNotCacheFailures(t *testing.T) {
	repo := &MockProductRepo{Err: errors.New("db down")}
	handler := NewHotDealsHandler(repo, []string{"slug-v1"}, time.Minute, discardLogger())

	rec := httptest.NewRecorder()
	handler.HandleGet(rec, httptest.NewRequest("GET", "/api/hot-deals", nil))
	require.Equal(t, http.StatusInternalServerError, rec.Code)

	repo.Err = nil
	repo.Page = newTestPage()
	rec = httptest.NewRecorder()
	handler.HandleGet(rec, httptest.NewRequest("GET", "/api/hot-deals", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2, repo.listCalls)
}
