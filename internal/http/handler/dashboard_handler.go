package handler

import (
	"net/http"

	"github.com/salesops/crm-dashboard/internal/analytics"
	"github.com/salesops/crm-dashboard/internal/service"
	"go.uber.org/zap"
)

type DashboardHandler struct {
	dashboardService *service.DashboardService
	logger           *zap.Logger
}

func NewDashboardHandler(dashboardService *service.DashboardService, logger *zap.Logger) *DashboardHandler {
	return &DashboardHandler{
		dashboardService: dashboardService,
		logger:           logger,
	}
}

// parseOptions validates the query string. It writes a 400 and returns
// false when a parameter is malformed.
func (h *DashboardHandler) parseOptions(w http.ResponseWriter, r *http.Request) (analytics.Options, bool) {
	q := readDashboardQuery(r)
	if err := validate.Struct(q); err != nil {
		respondValidationError(w, err)
		return analytics.Options{}, false
	}
	return q.options(h.dashboardService.DefaultOptions(), h.dashboardService.Location()), true
}

// @Summary Get the full dashboard
// @Description Computes every dashboard component from the last synchronized CRM snapshot.
// @Description
// @Description **Period:** `today`, `yesterday`, `week`, `lastweek`, `month`, `lastmonth`, `quarter`, `year`, `all` or `custom`.
// @Description Passing `start` or `end` without a period selects `custom`.
// @Description
// @Description **Owners** restrict the funnel only. Alerts, quality and allocation always cover every owner.
// @Tags Dashboard
// @Produce json
// @Param period query string false "Period preset" Enums(today, yesterday, week, lastweek, month, lastmonth, quarter, year, all, custom)
// @Param start query string false "Custom period start (YYYY-MM-DD)"
// @Param end query string false "Custom period end (YYYY-MM-DD)"
// @Param owners query string false "Comma separated CRM user IDs"
// @Param retardThreshold query int false "Days without contact before a lead is late"
// @Param criticalThreshold query int false "Days without contact before a lead is critical"
// @Param excludeWithReminder query bool false "Skip leads with an open reminder"
// @Param closingTarget query number false "Target closing rate in percent"
// @Param date query string false "Daily report date (YYYY-MM-DD)"
// @Success 200 {object} domain.Report
// @Failure 400 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /dashboard [get]
func (h *DashboardHandler) GetReport(w http.ResponseWriter, r *http.Request) {
	opts, ok := h.parseOptions(w, r)
	if !ok {
		return
	}
	report, err := h.dashboardService.Report(r.Context(), opts)
	if err != nil {
		respondServiceError(w, h.logger, "failed to compute dashboard", err)
		return
	}
	respondJSON(w, http.StatusOK, report)
}

// @Summary Get the lead and deal funnel
// @Description Lead funnel, commercial deal funnel, per-commercial scorecards, source breakdown and the monthly series.
// @Tags Dashboard
// @Produce json
// @Param period query string false "Period preset"
// @Param start query string false "Custom period start (YYYY-MM-DD)"
// @Param end query string false "Custom period end (YYYY-MM-DD)"
// @Param owners query string false "Comma separated CRM user IDs"
// @Success 200 {object} domain.FunnelReport
// @Failure 400 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /dashboard/funnel [get]
func (h *DashboardHandler) GetFunnel(w http.ResponseWriter, r *http.Request) {
	opts, ok := h.parseOptions(w, r)
	if !ok {
		return
	}
	funnel, err := h.dashboardService.Funnel(r.Context(), opts)
	if err != nil {
		respondServiceError(w, h.logger, "failed to compute funnel", err)
		return
	}
	respondJSON(w, http.StatusOK, funnel)
}

// @Summary Get per-commercial scorecards
// @Tags Dashboard
// @Produce json
// @Param period query string false "Period preset"
// @Param owners query string false "Comma separated CRM user IDs"
// @Success 200 {array} domain.OwnerFunnel
// @Failure 400 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /dashboard/commercials [get]
func (h *DashboardHandler) GetCommercials(w http.ResponseWriter, r *http.Request) {
	opts, ok := h.parseOptions(w, r)
	if !ok {
		return
	}
	commercials, err := h.dashboardService.Commercials(r.Context(), opts)
	if err != nil {
		respondServiceError(w, h.logger, "failed to compute commercials", err)
		return
	}
	respondJSON(w, http.StatusOK, commercials)
}

// @Summary Get follow-up alerts
// @Description Leads without recent contact grouped by owner, plus stale deals and quotes.
// @Tags Dashboard
// @Produce json
// @Param retardThreshold query int false "Days without contact before a lead is late"
// @Param criticalThreshold query int false "Days without contact before a lead is critical"
// @Param excludeWithReminder query bool false "Skip leads with an open reminder"
// @Success 200 {object} domain.AlertsReport
// @Failure 400 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /dashboard/alerts [get]
func (h *DashboardHandler) GetAlerts(w http.ResponseWriter, r *http.Request) {
	opts, ok := h.parseOptions(w, r)
	if !ok {
		return
	}
	alerts, err := h.dashboardService.Alerts(r.Context(), opts)
	if err != nil {
		respondServiceError(w, h.logger, "failed to compute alerts", err)
		return
	}
	respondJSON(w, http.StatusOK, alerts)
}

// @Summary Get data quality findings
// @Description Orphan won deals, their probable leads, audit items and loyal customers.
// @Tags Dashboard
// @Produce json
// @Success 200 {object} domain.QualityReport
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /dashboard/quality [get]
func (h *DashboardHandler) GetQuality(w http.ResponseWriter, r *http.Request) {
	quality, err := h.dashboardService.Quality(r.Context())
	if err != nil {
		respondServiceError(w, h.logger, "failed to compute quality report", err)
		return
	}
	respondJSON(w, http.StatusOK, quality)
}

// @Summary Get hot deals
// @Tags Dashboard
// @Produce json
// @Success 200 {object} domain.HotDealsReport
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /dashboard/hot-deals [get]
func (h *DashboardHandler) GetHotDeals(w http.ResponseWriter, r *http.Request) {
	hot, err := h.dashboardService.HotDeals(r.Context())
	if err != nil {
		respondServiceError(w, h.logger, "failed to compute hot deals", err)
		return
	}
	respondJSON(w, http.StatusOK, hot)
}

// @Summary Get lead allocation recommendations
// @Description Scores every commercial over the last 30 days and recommends how to route new leads.
// @Tags Dashboard
// @Produce json
// @Success 200 {object} domain.AllocationReport
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /dashboard/allocation [get]
func (h *DashboardHandler) GetAllocation(w http.ResponseWriter, r *http.Request) {
	allocation, err := h.dashboardService.Allocation(r.Context())
	if err != nil {
		respondServiceError(w, h.logger, "failed to compute allocation", err)
		return
	}
	respondJSON(w, http.StatusOK, allocation)
}

// @Summary Get the daily activity report
// @Tags Dashboard
// @Produce json
// @Param date query string false "Report date (YYYY-MM-DD), defaults to today"
// @Success 200 {object} domain.DailyReport
// @Failure 400 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /dashboard/daily [get]
func (h *DashboardHandler) GetDaily(w http.ResponseWriter, r *http.Request) {
	opts, ok := h.parseOptions(w, r)
	if !ok {
		return
	}
	daily, err := h.dashboardService.Daily(r.Context(), opts)
	if err != nil {
		respondServiceError(w, h.logger, "failed to compute daily report", err)
		return
	}
	respondJSON(w, http.StatusOK, daily)
}
