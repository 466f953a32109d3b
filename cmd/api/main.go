package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/salesops/crm-dashboard/docs"
	"github.com/salesops/crm-dashboard/internal/analytics"
	"github.com/salesops/crm-dashboard/internal/auth"
	"github.com/salesops/crm-dashboard/internal/config"
	"github.com/salesops/crm-dashboard/internal/crm"
	"github.com/salesops/crm-dashboard/internal/database"
	"github.com/salesops/crm-dashboard/internal/http/handler"
	"github.com/salesops/crm-dashboard/internal/http/middleware"
	"github.com/salesops/crm-dashboard/internal/http/router"
	"github.com/salesops/crm-dashboard/internal/jobs"
	"github.com/salesops/crm-dashboard/internal/logger"
	"github.com/salesops/crm-dashboard/internal/repository"
	"github.com/salesops/crm-dashboard/internal/service"
	"github.com/salesops/crm-dashboard/internal/storage"
	"go.uber.org/zap"
)

// @title CRM Sales Dashboard API
// @version 1.0
// @description Sales funnel, follow-up alerts, data quality and lead allocation computed from the CRM.

// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description JWT Bearer token

// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name x-api-key
// @description API Key for system operations
// @Security BearerAuth
// @Security ApiKeyAuth

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()

	// Load basic configuration first (for logging setup)
	basicCfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log, err := logger.NewLogger(&basicCfg.Logging, &basicCfg.App)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	log.Info("Starting application",
		zap.String("app", basicCfg.App.Name),
		zap.String("env", basicCfg.App.Environment),
		zap.Int("port", basicCfg.App.Port),
	)

	if basicCfg.App.Environment == "development" {
		docs.SwaggerInfo.Host = fmt.Sprintf("localhost:%d", basicCfg.App.Port)
	}

	// In development secrets come from the environment,
	// in staging/production from Azure Key Vault.
	cfg, err := config.LoadWithSecrets(ctx, log)
	if err != nil {
		return fmt.Errorf("failed to load secrets: %w", err)
	}

	db, err := database.NewDatabase(&cfg.Database, log)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer func() {
		if err := database.Close(db); err != nil {
			log.Warn("Error closing database", zap.Error(err))
		}
	}()
	if cfg.Database.Driver == "sqlite" {
		// Postgres deployments run cmd/migrate instead.
		if err := database.AutoMigrate(db); err != nil {
			return fmt.Errorf("failed to migrate database: %w", err)
		}
	}

	reportStorage, err := storage.NewStorage(&cfg.Storage, log)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	loc := cfg.Analytics.Location()
	archive := storage.NewReportArchive(reportStorage, loc)
	log.Info("Storage initialized", zap.String("mode", cfg.Storage.Mode))

	// The CRM client is optional: without a webhook the API serves the
	// data already stored.
	var crmClient *crm.Client
	if cfg.CRM.WebhookURL != "" {
		crmClient, err = crm.NewClient(cfg.CRM.WebhookURL, cfg.CRM.ClientOptions(), log)
		if err != nil {
			return fmt.Errorf("failed to create CRM client: %w", err)
		}
	} else {
		log.Warn("CRM webhook not configured, synchronization disabled")
	}

	engine := analytics.NewEngine(cfg.Analytics.Settings())
	dashboardService := service.NewDashboardService(
		repository.NewSnapshotRepository(db),
		engine,
		cfg.Analytics.DefaultOptions(),
		log,
	)
	syncService := service.NewSyncService(
		crmClient,
		service.NewSyncRepositories(db),
		dashboardService,
		archive,
		service.SyncOptions{
			BatchSize:            cfg.Sync.BatchSize,
			ActivityLookbackDays: cfg.Sync.ActivityLookbackDays,
			Timeout:              cfg.Sync.TimeoutDuration(),
			Location:             loc,
			ArchiveReports:       cfg.Sync.ArchiveReports,
		},
		log,
	)
	if err := syncService.RecoverInterrupted(ctx); err != nil {
		log.Warn("Failed to recover interrupted sync runs", zap.Error(err))
	}

	authMiddleware := auth.NewMiddleware(&cfg.Auth, log)
	rateLimiter := middleware.NewRateLimiter(&cfg.RateLimit, log)

	rt := router.NewRouter(
		cfg,
		log,
		db,
		authMiddleware,
		rateLimiter,
		syncService,
		handler.NewDashboardHandler(dashboardService, log),
		handler.NewSyncHandler(syncService, log),
		handler.NewReportHandler(archive, loc, log),
	)

	var scheduler *jobs.Scheduler
	if cfg.Sync.Enabled && syncService.Enabled() {
		scheduler = jobs.NewScheduler(log)
		if err := jobs.RegisterCRMSyncJob(
			scheduler,
			syncService,
			log,
			cfg.Sync.Cron,
			cfg.Sync.TimeoutDuration(),
			cfg.Sync.RunOnStartup,
		); err != nil {
			log.Error("Failed to register CRM sync job", zap.Error(err))
		} else {
			scheduler.Start()
			log.Info("Scheduler started with CRM sync job",
				zap.String("cron_expr", cfg.Sync.Cron),
				zap.Duration("timeout", cfg.Sync.TimeoutDuration()),
			)
		}
	} else {
		log.Info("CRM periodic sync disabled",
			zap.Bool("sync_enabled", cfg.Sync.Enabled),
			zap.Bool("crm_client_available", crmClient != nil),
		)
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.App.Port),
		Handler:      rt.Setup(),
		ReadTimeout:  cfg.Server.ReadTimeoutDuration(),
		WriteTimeout: cfg.Server.WriteTimeoutDuration(),
	}

	serverErrors := make(chan error, 1)
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		serverErrors <- srv.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case sig := <-shutdown:
		log.Info("Shutdown signal received", zap.String("signal", sig.String()))

		// Waits for a running sync job to finish.
		if scheduler != nil {
			ctx := scheduler.Stop()
			<-ctx.Done()
			log.Info("Scheduler stopped")
		}

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Error("Failed to shutdown gracefully", zap.Error(err))
			return err
		}

		log.Info("Server stopped gracefully")
	}

	return nil
}
