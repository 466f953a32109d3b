package router

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/salesops/crm-dashboard/internal/auth"
	"github.com/salesops/crm-dashboard/internal/config"
	"github.com/salesops/crm-dashboard/internal/database"
	"github.com/salesops/crm-dashboard/internal/http/handler"
	"github.com/salesops/crm-dashboard/internal/http/middleware"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	_ "github.com/salesops/crm-dashboard/docs" // swagger docs
)

// SyncState reports the synchronizer to the readiness probe.
type SyncState interface {
	Enabled() bool
	Running() bool
}

type Router struct {
	cfg              *config.Config
	logger           *zap.Logger
	db               *gorm.DB
	authMiddleware   *auth.Middleware
	rateLimiter      *middleware.RateLimiter
	syncState        SyncState
	dashboardHandler *handler.DashboardHandler
	syncHandler      *handler.SyncHandler
	reportHandler    *handler.ReportHandler
}

func NewRouter(
	cfg *config.Config,
	logger *zap.Logger,
	db *gorm.DB,
	authMiddleware *auth.Middleware,
	rateLimiter *middleware.RateLimiter,
	syncState SyncState,
	dashboardHandler *handler.DashboardHandler,
	syncHandler *handler.SyncHandler,
	reportHandler *handler.ReportHandler,
) *Router {
	return &Router{
		cfg:              cfg,
		logger:           logger,
		db:               db,
		authMiddleware:   authMiddleware,
		rateLimiter:      rateLimiter,
		syncState:        syncState,
		dashboardHandler: dashboardHandler,
		syncHandler:      syncHandler,
		reportHandler:    reportHandler,
	}
}

func (rt *Router) Setup() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(rt.logger))
	r.Use(middleware.Logging(rt.logger))
	r.Use(middleware.SecurityHeaders(&rt.cfg.Security))
	r.Use(middleware.CORS(&rt.cfg.CORS, rt.cfg.App.Environment, rt.logger))
	r.Use(rt.rateLimiter.LimitByIP)

	// Liveness
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	r.Get("/health/db", rt.databaseHealth)
	r.Get("/health/ready", rt.readiness)

	if rt.cfg.Server.EnableSwagger {
		r.Get("/swagger/*", httpSwagger.Handler(
			httpSwagger.URL("/swagger/doc.json"),
		))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(rt.authMiddleware.Authenticate)
		r.Use(rt.rateLimiter.Limit)

		r.Route("/dashboard", func(r chi.Router) {
			r.Get("/", rt.dashboardHandler.GetReport)
			r.Get("/funnel", rt.dashboardHandler.GetFunnel)
			r.Get("/commercials", rt.dashboardHandler.GetCommercials)
			r.Get("/alerts", rt.dashboardHandler.GetAlerts)
			r.Get("/quality", rt.dashboardHandler.GetQuality)
			r.Get("/hot-deals", rt.dashboardHandler.GetHotDeals)
			r.Get("/allocation", rt.dashboardHandler.GetAllocation)
			r.Get("/daily", rt.dashboardHandler.GetDaily)
		})

		r.Route("/sync", func(r chi.Router) {
			r.Get("/status", rt.syncHandler.Status)
			r.Get("/runs", rt.syncHandler.ListRuns)
			r.With(
				rt.authMiddleware.RequireRole(auth.RoleOperator),
				rt.rateLimiter.LimitSync,
			).Post("/", rt.syncHandler.Trigger)
		})

		r.Route("/reports", func(r chi.Router) {
			r.Get("/", rt.reportHandler.List)
			r.Get("/{date}/{id}", rt.reportHandler.Get)
		})
	})

	return r
}

func (rt *Router) databaseHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	stats, err := database.HealthCheckWithStats(rt.db)
	if err != nil {
		rt.logger.Error("Database health check failed", zap.Error(err))
		w.WriteHeader(http.StatusServiceUnavailable)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"status":  "unhealthy",
			"error":   err.Error(),
			"service": "database",
		})
		return
	}

	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"status":  "healthy",
		"service": "database",
		"stats": map[string]interface{}{
			"max_open_connections": stats.MaxOpenConnections,
			"open_connections":     stats.OpenConnections,
			"in_use":               stats.InUse,
			"idle":                 stats.Idle,
			"wait_count":           stats.WaitCount,
			"wait_duration_ms":     stats.WaitDuration.Milliseconds(),
			"max_idle_closed":      stats.MaxIdleClosed,
			"max_lifetime_closed":  stats.MaxLifetimeClosed,
		},
	})
}

// readiness fails only on the database. A disabled synchronizer serves
// whatever was last stored and is reported, not treated as unhealthy.
func (rt *Router) readiness(w http.ResponseWriter, r *http.Request) {
	checks := make(map[string]interface{})
	allHealthy := true

	if err := database.HealthCheck(rt.db); err != nil {
		rt.logger.Error("Database health check failed", zap.Error(err))
		checks["database"] = map[string]interface{}{
			"status": "unhealthy",
			"error":  err.Error(),
		}
		allHealthy = false
	} else {
		checks["database"] = map[string]interface{}{
			"status": "healthy",
		}
	}

	if rt.syncState != nil {
		status := "disabled"
		if rt.syncState.Enabled() {
			status = "idle"
			if rt.syncState.Running() {
				status = "running"
			}
		}
		checks["crm_sync"] = map[string]interface{}{
			"status": status,
		}
	}

	w.Header().Set("Content-Type", "application/json")
	status, code := "healthy", http.StatusOK
	if !allHealthy {
		status, code = "unhealthy", http.StatusServiceUnavailable
	}
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"status": status,
		"checks": checks,
	})
}
