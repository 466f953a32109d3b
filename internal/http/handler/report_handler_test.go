package handler_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/salesops/crm-dashboard/internal/domain"
	"github.com/salesops/crm-dashboard/internal/http/handler"
	"github.com/salesops/crm-dashboard/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func createReportRouter(t *testing.T) (http.Handler, *storage.ReportArchive) {
	t.Helper()
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	archive := storage.NewReportArchive(store, time.UTC)

	h := handler.NewReportHandler(archive, time.UTC, zap.NewNop())
	r := chi.NewRouter()
	r.Get("/reports", h.List)
	r.Get("/reports/{date}/{id}", h.Get)
	return r, archive
}

func TestReportHandler(t *testing.T) {
	router, archive := createReportRouter(t)

	key, err := archive.Save(context.Background(), &domain.Report{GeneratedAt: handlerNow})
	require.NoError(t, err)
	id := strings.TrimSuffix(path.Base(key), ".json")

	t.Run("lists a day", func(t *testing.T) {
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/reports?date=2025-06-18", nil))

		require.Equal(t, http.StatusOK, rr.Code)
		var listed handler.ArchivedReports
		decodeBody(t, rr, &listed)
		assert.Equal(t, "2025-06-18", listed.Date)
		assert.Equal(t, []string{key}, listed.Keys)
	})

	t.Run("empty day", func(t *testing.T) {
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/reports?date=2025-01-01", nil))

		require.Equal(t, http.StatusOK, rr.Code)
		var listed handler.ArchivedReports
		decodeBody(t, rr, &listed)
		assert.Empty(t, listed.Keys)
	})

	t.Run("date is required", func(t *testing.T) {
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/reports", nil))

		require.Equal(t, http.StatusBadRequest, rr.Code)
		var apiErr domain.APIError
		decodeBody(t, rr, &apiErr)
		assert.Contains(t, apiErr.Errors, "date")
	})

	t.Run("loads a report", func(t *testing.T) {
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/reports/2025-06-18/"+id, nil))

		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
		var report domain.Report
		decodeBody(t, rr, &report)
		assert.True(t, handlerNow.Equal(report.GeneratedAt))
	})

	t.Run("missing report", func(t *testing.T) {
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/reports/2025-06-17/"+id, nil))

		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	t.Run("id must be a uuid", func(t *testing.T) {
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/reports/2025-06-18/not-a-uuid", nil))

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}
