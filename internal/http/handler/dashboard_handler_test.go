package handler_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/salesops/crm-dashboard/internal/domain"
	"github.com/salesops/crm-dashboard/internal/http/handler"
	"github.com/salesops/crm-dashboard/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func createDashboardHandler(t *testing.T) *handler.DashboardHandler {
	t.Helper()
	db := testutil.SetupTestDB(t)
	seedSnapshot(t, db)
	return handler.NewDashboardHandler(newDashboardService(db), zap.NewNop())
}

func TestDashboardHandler_GetReport(t *testing.T) {
	h := createDashboardHandler(t)

	t.Run("defaults to all time", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/dashboard", nil)
		rr := httptest.NewRecorder()

		h.GetReport(rr, req)

		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
		assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))

		var report domain.Report
		decodeBody(t, rr, &report)
		assert.Equal(t, domain.PeriodAll, report.Funnel.Period.Preset)
		assert.Equal(t, 3, report.Funnel.Leads.Total)
		assert.Equal(t, 1, report.Funnel.Leads.Converted)
	})

	t.Run("period preset", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/dashboard?period=YEAR", nil)
		rr := httptest.NewRecorder()

		h.GetReport(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)
		var report domain.Report
		decodeBody(t, rr, &report)
		assert.Equal(t, domain.PeriodThisYear, report.Funnel.Period.Preset)
		assert.Equal(t, 2, report.Funnel.Leads.Total)
	})

	t.Run("start without period selects custom", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/dashboard?start=2025-06-01&end=2025-06-30", nil)
		rr := httptest.NewRecorder()

		h.GetReport(rr, req)

		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
		var report domain.Report
		decodeBody(t, rr, &report)
		assert.Equal(t, domain.PeriodCustom, report.Funnel.Period.Preset)
		assert.Equal(t, 1, report.Funnel.Leads.Total)
	})

	t.Run("single custom bound", func(t *testing.T) {
		tests := []struct {
			query string
			total int
		}{
			{query: "start=2025-06-01", total: 1},
			{query: "end=2025-05-31", total: 2},
		}
		for _, tt := range tests {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/dashboard?"+tt.query, nil)
			rr := httptest.NewRecorder()

			h.GetReport(rr, req)

			require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
			var report domain.Report
			decodeBody(t, rr, &report)
			assert.Equal(t, domain.PeriodCustom, report.Funnel.Period.Preset, tt.query)
			assert.Equal(t, tt.total, report.Funnel.Leads.Total, tt.query)
		}
	})

	t.Run("owner filter", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/dashboard?owners=10,42", nil)
		rr := httptest.NewRecorder()

		h.GetReport(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)
		var report domain.Report
		decodeBody(t, rr, &report)
		assert.Equal(t, 2, report.Funnel.Leads.Total)
	})
}

func TestDashboardHandler_RejectsBadQuery(t *testing.T) {
	h := createDashboardHandler(t)

	tests := []struct {
		name    string
		query   string
		field   string
		message string
	}{
		{name: "unknown period", query: "period=decade", field: "period", message: "Must be one of: today yesterday"},
		{name: "malformed start", query: "start=18/06/2025", field: "start", message: "Must be a date formatted as 2006-01-02"},
		{name: "owner not numeric", query: "owners=alice", field: "owners[0]", message: "Must be a whole number"},
		{name: "too many owners", query: "owners=" + strings.Repeat("1,", 50) + "1", field: "owners", message: "At most 50 values are allowed"},
		{name: "negative threshold", query: "retardThreshold=-1", field: "retardThreshold", message: "Must be a whole number"},
		{name: "closing target not a number", query: "closingTarget=high", field: "closingTarget", message: "Must be a numeric value"},
		{name: "reminder flag", query: "excludeWithReminder=maybe", field: "excludeWithReminder", message: "Must be true or false"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/dashboard?"+tt.query, nil)
			rr := httptest.NewRecorder()

			h.GetReport(rr, req)

			require.Equal(t, http.StatusBadRequest, rr.Code)
			var apiErr domain.APIError
			decodeBody(t, rr, &apiErr)
			assert.Equal(t, domain.ErrorTypeValidation, apiErr.Type)
			require.Contains(t, apiErr.Errors, tt.field)
			assert.Contains(t, apiErr.Errors[tt.field], tt.message)
		})
	}

	t.Run("end before start", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/dashboard?period=custom&start=2025-06-10&end=2025-06-01", nil)
		rr := httptest.NewRecorder()

		h.GetReport(rr, req)

		require.Equal(t, http.StatusBadRequest, rr.Code)
		var apiErr domain.APIError
		decodeBody(t, rr, &apiErr)
		assert.Equal(t, domain.ErrorTypeBadRequest, apiErr.Type)
		assert.Contains(t, apiErr.Detail, "end is before start")
	})

	t.Run("closing target above 100", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/dashboard?closingTarget=150", nil)
		rr := httptest.NewRecorder()

		h.GetReport(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestDashboardHandler_Components(t *testing.T) {
	h := createDashboardHandler(t)

	tests := []struct {
		name   string
		path   string
		handle http.HandlerFunc
	}{
		{name: "funnel", path: "/api/v1/dashboard/funnel?period=month", handle: h.GetFunnel},
		{name: "alerts", path: "/api/v1/dashboard/alerts?retardThreshold=1&criticalThreshold=5", handle: h.GetAlerts},
		{name: "quality", path: "/api/v1/dashboard/quality", handle: h.GetQuality},
		{name: "hot deals", path: "/api/v1/dashboard/hot-deals", handle: h.GetHotDeals},
		{name: "allocation", path: "/api/v1/dashboard/allocation", handle: h.GetAllocation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			rr := httptest.NewRecorder()

			tt.handle(rr, req)

			assert.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
			assert.NotEmpty(t, rr.Body.String())
		})
	}
}

func TestDashboardHandler_GetCommercials(t *testing.T) {
	h := createDashboardHandler(t)

	t.Run("one scorecard per active user", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/dashboard/commercials", nil)
		rr := httptest.NewRecorder()

		h.GetCommercials(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)
		var scorecards []domain.OwnerFunnel
		decodeBody(t, rr, &scorecards)
		require.Len(t, scorecards, 2)
		assert.Equal(t, "10", scorecards[0].OwnerID)
		assert.Equal(t, 2, scorecards[0].Leads)
	})

	t.Run("unknown owner leaves every scorecard empty", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/dashboard/commercials?owners=999", nil)
		rr := httptest.NewRecorder()

		h.GetCommercials(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)
		var scorecards []domain.OwnerFunnel
		decodeBody(t, rr, &scorecards)
		for _, sc := range scorecards {
			assert.Zero(t, sc.Leads, sc.OwnerID)
		}
	})
}

func TestDashboardHandler_GetDaily(t *testing.T) {
	h := createDashboardHandler(t)

	t.Run("explicit date", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/dashboard/daily?date=2025-06-17", nil)
		rr := httptest.NewRecorder()

		h.GetDaily(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)
		var daily domain.DailyReport
		decodeBody(t, rr, &daily)
		assert.Equal(t, "2025-06-17", daily.Date)
		assert.Equal(t, 1, daily.ActivitiesCreated)
	})

	t.Run("defaults to today", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/dashboard/daily", nil)
		rr := httptest.NewRecorder()

		h.GetDaily(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)
		var daily domain.DailyReport
		decodeBody(t, rr, &daily)
		assert.Equal(t, "2025-06-18", daily.Date)
		assert.Equal(t, 0, daily.ActivitiesCreated)
	})

	t.Run("bad date", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/dashboard/daily?date=yesterday", nil)
		rr := httptest.NewRecorder()

		h.GetDaily(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}
