package jobs

import (
	"context"
	"errors"
	"time"

	"github.com/salesops/crm-dashboard/internal/domain"
	"github.com/salesops/crm-dashboard/internal/service"
	"go.uber.org/zap"
)

// CRMSyncJobName is the name of the CRM sync job
const CRMSyncJobName = "crm_sync"

// DefaultStaleMaxAge is how old the last successful sync may be before a
// startup sync runs.
const DefaultStaleMaxAge = 15 * time.Minute

// CRMSyncService is the part of *service.SyncService the job needs.
type CRMSyncService interface {
	Run(ctx context.Context, trigger string) (*domain.SyncResult, error)
	LastSucceeded(ctx context.Context) (*domain.SyncRun, error)
}

// CRMSyncJob pulls CRM records on a schedule.
type CRMSyncJob struct {
	service CRMSyncService
	logger  *zap.Logger
	timeout time.Duration
	now     func() time.Time
}

// NewCRMSyncJob creates the job. timeout bounds each run.
func NewCRMSyncJob(service CRMSyncService, logger *zap.Logger, timeout time.Duration) *CRMSyncJob {
	return &CRMSyncJob{
		service: service,
		logger:  logger,
		timeout: timeout,
		now:     time.Now,
	}
}

// Run executes one scheduled sync.
func (j *CRMSyncJob) Run() {
	j.run(service.TriggerScheduled)
}

func (j *CRMSyncJob) run(trigger string) *domain.SyncResult {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	start := time.Now()
	result, err := j.service.Run(ctx, trigger)
	if err != nil {
		if errors.Is(err, service.ErrSyncInProgress) {
			j.logger.Info("CRM sync skipped", zap.String("trigger", trigger), zap.Error(err))
			return nil
		}
		j.logger.Error("CRM sync job failed",
			zap.String("trigger", trigger),
			zap.Error(err),
			zap.Duration("duration", time.Since(start)))
		return result
	}

	var fetched, upserted, failed int
	for _, e := range result.Entities {
		fetched += e.Fetched
		upserted += e.Upserted
		if e.Error != "" {
			failed++
		}
	}
	j.logger.Info("CRM sync job completed",
		zap.String("trigger", trigger),
		zap.String("run_id", result.RunID),
		zap.Int("fetched", fetched),
		zap.Int("upserted", upserted),
		zap.Int("failed_entities", failed),
		zap.String("archive_key", result.ArchiveKey),
		zap.Duration("duration", time.Since(start)))
	return result
}

// RunStartupSync syncs when the last successful run is missing or older than
// maxAge. It reports whether a sync ran.
func (j *CRMSyncJob) RunStartupSync(maxAge time.Duration) bool {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	last, err := j.service.LastSucceeded(ctx)
	cancel()
	if err != nil {
		j.logger.Warn("could not read last CRM sync, syncing anyway", zap.Error(err))
	} else if last != nil && last.FinishedAt != nil && j.now().Sub(*last.FinishedAt) < maxAge {
		j.logger.Info("CRM data is fresh, skipping startup sync",
			zap.Time("last_sync", *last.FinishedAt),
			zap.Duration("max_age", maxAge))
		return false
	}

	j.run(service.TriggerStartup)
	return true
}

// RegisterCRMSyncJob registers the CRM sync with the scheduler. When
// runStartupSync is set a stale-data sync also runs in the background so
// API startup is not blocked.
func RegisterCRMSyncJob(scheduler *Scheduler, service CRMSyncService, logger *zap.Logger, cronExpr string, timeout time.Duration, runStartupSync bool) error {
	job := NewCRMSyncJob(service, logger, timeout)

	if runStartupSync {
		go job.RunStartupSync(DefaultStaleMaxAge)
	}

	return scheduler.AddJob(CRMSyncJobName, cronExpr, job.Run)
}
