package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/salesops/crm-dashboard/internal/auth"
	"github.com/salesops/crm-dashboard/internal/domain"
	"github.com/salesops/crm-dashboard/internal/service"
	"go.uber.org/zap"
)

type SyncHandler struct {
	syncService *service.SyncService
	logger      *zap.Logger
}

func NewSyncHandler(syncService *service.SyncService, logger *zap.Logger) *SyncHandler {
	return &SyncHandler{
		syncService: syncService,
		logger:      logger,
	}
}

// SyncStatus describes the synchronizer state.
type SyncStatus struct {
	Enabled       bool            `json:"enabled"`
	Running       bool            `json:"running"`
	LastSucceeded *domain.SyncRun `json:"lastSucceeded,omitempty"`
}

type triggerSyncQuery struct {
	Wait string `validate:"omitempty,boolean"`
}

type syncHistoryQuery struct {
	Limit string `validate:"omitempty,number"`
}

// @Summary Trigger a CRM synchronization
// @Description Starts a full pull of users, sources, leads, deals, quotes and activities from the CRM.
// @Description By default the run happens in the background and the call returns 202.
// @Description With `wait=true` the call blocks and returns the run result.
// @Tags Sync
// @Produce json
// @Param wait query bool false "Block until the run finishes"
// @Success 200 {object} domain.SyncResult
// @Success 202 {object} map[string]string
// @Failure 409 {object} domain.APIError "A run is already in progress"
// @Failure 502 {object} domain.APIError "The CRM could not be reached"
// @Failure 503 {object} domain.APIError "Synchronization is not configured"
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /sync [post]
func (h *SyncHandler) Trigger(w http.ResponseWriter, r *http.Request) {
	q := triggerSyncQuery{Wait: r.URL.Query().Get("wait")}
	if err := validate.Struct(q); err != nil {
		respondValidationError(w, err)
		return
	}
	if !h.syncService.Enabled() {
		respondServiceError(w, h.logger, "failed to trigger sync", service.ErrSyncDisabled)
		return
	}

	caller := ""
	if c, ok := auth.FromContext(r.Context()); ok {
		caller = c.Subject
	}
	h.logger.Info("sync requested", zap.String("caller", caller))

	if wait, _ := strconv.ParseBool(q.Wait); wait {
		result, err := h.syncService.Run(r.Context(), service.TriggerManual)
		if err != nil {
			respondServiceError(w, h.logger, "sync failed", err)
			return
		}
		respondJSON(w, http.StatusOK, result)
		return
	}

	if h.syncService.Running() {
		respondServiceError(w, h.logger, "failed to trigger sync", service.ErrSyncInProgress)
		return
	}
	go h.runDetached(context.WithoutCancel(r.Context()))
	respondJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
}

func (h *SyncHandler) runDetached(ctx context.Context) {
	if _, err := h.syncService.Run(ctx, service.TriggerManual); err != nil {
		if errors.Is(err, service.ErrSyncInProgress) {
			h.logger.Info("manual sync skipped, another run is in progress")
			return
		}
		h.logger.Error("manual sync failed", zap.Error(err))
	}
}

// @Summary Get synchronization status
// @Tags Sync
// @Produce json
// @Success 200 {object} SyncStatus
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /sync/status [get]
func (h *SyncHandler) Status(w http.ResponseWriter, r *http.Request) {
	last, err := h.syncService.LastSucceeded(r.Context())
	if err != nil {
		respondServiceError(w, h.logger, "failed to get sync status", err)
		return
	}
	respondJSON(w, http.StatusOK, SyncStatus{
		Enabled:       h.syncService.Enabled(),
		Running:       h.syncService.Running(),
		LastSucceeded: last,
	})
}

// @Summary List recent synchronization runs
// @Tags Sync
// @Produce json
// @Param limit query int false "Maximum runs to return (default 20, max 100)"
// @Success 200 {array} domain.SyncRun
// @Failure 400 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /sync/runs [get]
func (h *SyncHandler) ListRuns(w http.ResponseWriter, r *http.Request) {
	q := syncHistoryQuery{Limit: r.URL.Query().Get("limit")}
	if err := validate.Struct(q); err != nil {
		respondValidationError(w, err)
		return
	}
	limit, _ := strconv.Atoi(q.Limit)

	runs, err := h.syncService.History(r.Context(), limit)
	if err != nil {
		respondServiceError(w, h.logger, "failed to list sync runs", err)
		return
	}
	if runs == nil {
		runs = []domain.SyncRun{}
	}
	respondJSON(w, http.StatusOK, runs)
}
