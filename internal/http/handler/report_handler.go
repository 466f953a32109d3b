package handler

import (
	"errors"
	"net/http"
	"path"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/salesops/crm-dashboard/internal/storage"
	"go.uber.org/zap"
)

// ReportHandler serves archived dashboard reports.
type ReportHandler struct {
	archive *storage.ReportArchive
	loc     *time.Location
	logger  *zap.Logger
}

func NewReportHandler(archive *storage.ReportArchive, loc *time.Location, logger *zap.Logger) *ReportHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &ReportHandler{archive: archive, loc: loc, logger: logger}
}

// ArchivedReports lists the archive keys of one day.
type ArchivedReports struct {
	Date string   `json:"date"`
	Keys []string `json:"keys"`
}

type archiveListQuery struct {
	Date string `validate:"required,datetime=2006-01-02"`
}

type archiveGetParams struct {
	Date string `validate:"required,datetime=2006-01-02"`
	ID   string `validate:"required,uuid"`
}

// @Summary List archived reports
// @Description Reports are archived after every successful synchronization.
// @Tags Reports
// @Produce json
// @Param date query string true "Archive day (YYYY-MM-DD)"
// @Success 200 {object} ArchivedReports
// @Failure 400 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /reports [get]
func (h *ReportHandler) List(w http.ResponseWriter, r *http.Request) {
	q := archiveListQuery{Date: r.URL.Query().Get("date")}
	if err := validate.Struct(q); err != nil {
		respondValidationError(w, err)
		return
	}
	day, _ := time.ParseInLocation(dateLayout, q.Date, h.loc)

	keys, err := h.archive.List(r.Context(), day)
	if err != nil {
		h.logger.Error("failed to list archived reports", zap.String("date", q.Date), zap.Error(err))
		respondWithError(w, http.StatusInternalServerError, "Failed to list archived reports")
		return
	}
	if keys == nil {
		keys = []string{}
	}
	respondJSON(w, http.StatusOK, ArchivedReports{Date: q.Date, Keys: keys})
}

// @Summary Get an archived report
// @Tags Reports
// @Produce json
// @Param date path string true "Archive day (YYYY-MM-DD)"
// @Param id path string true "Report ID" format(uuid)
// @Success 200 {object} domain.Report
// @Failure 400 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /reports/{date}/{id} [get]
func (h *ReportHandler) Get(w http.ResponseWriter, r *http.Request) {
	p := archiveGetParams{Date: chi.URLParam(r, "date"), ID: chi.URLParam(r, "id")}
	if err := validate.Struct(p); err != nil {
		respondValidationError(w, err)
		return
	}

	key := path.Join("reports", p.Date, p.ID+".json")
	report, err := h.archive.Load(r.Context(), key)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respondWithError(w, http.StatusNotFound, "Report not found")
			return
		}
		h.logger.Error("failed to load archived report", zap.String("key", key), zap.Error(err))
		respondWithError(w, http.StatusInternalServerError, "Failed to load archived report")
		return
	}
	respondJSON(w, http.StatusOK, report)
}
