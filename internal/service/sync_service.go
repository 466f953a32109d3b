package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/salesops/crm-dashboard/internal/crm"
	"github.com/salesops/crm-dashboard/internal/domain"
	"github.com/salesops/crm-dashboard/internal/logger"
	"github.com/salesops/crm-dashboard/internal/mapper"
	"github.com/salesops/crm-dashboard/internal/repository"
	"github.com/salesops/crm-dashboard/internal/storage"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Sync triggers.
const (
	TriggerManual    = "manual"
	TriggerScheduled = "scheduled"
	TriggerStartup   = "startup"
)

// Entity names reported in sync results, in fetch order.
const (
	EntityUsers      = "users"
	EntitySources    = "sources"
	EntityLeads      = "leads"
	EntityDeals      = "deals"
	EntityQuotes     = "quotes"
	EntityActivities = "activities"
)

// SyncRepositories groups the stores written by a sync run.
type SyncRepositories struct {
	Leads      *repository.LeadRepository
	Deals      *repository.DealRepository
	Quotes     *repository.QuoteRepository
	Activities *repository.ActivityRepository
	Users      *repository.UserRepository
	Sources    *repository.SourceRepository
	Runs       *repository.SyncRunRepository
}

// NewSyncRepositories builds every sync repository over one connection.
func NewSyncRepositories(db *gorm.DB) SyncRepositories {
	return SyncRepositories{
		Leads:      repository.NewLeadRepository(db),
		Deals:      repository.NewDealRepository(db),
		Quotes:     repository.NewQuoteRepository(db),
		Activities: repository.NewActivityRepository(db),
		Users:      repository.NewUserRepository(db),
		Sources:    repository.NewSourceRepository(db),
		Runs:       repository.NewSyncRunRepository(db),
	}
}

// SyncOptions tune a sync run.
type SyncOptions struct {
	BatchSize            int
	ActivityLookbackDays int
	Timeout              time.Duration
	// Location interprets zone-less CRM timestamps.
	Location *time.Location
	// ArchiveReports computes and stores the default report after a run.
	ArchiveReports bool
}

// SyncService pulls CRM records into the relational store. At most one run
// executes at a time per service.
type SyncService struct {
	client    *crm.Client
	repos     SyncRepositories
	dashboard *DashboardService
	archive   *storage.ReportArchive
	opts      SyncOptions
	logger    *zap.Logger
	now       func() time.Time

	mu      sync.Mutex
	running bool
}

// NewSyncService creates the sync service. client may be nil when no CRM
// webhook is configured; archive may be nil to skip report archiving.
func NewSyncService(
	client *crm.Client,
	repos SyncRepositories,
	dashboard *DashboardService,
	archive *storage.ReportArchive,
	opts SyncOptions,
	logger *zap.Logger,
) *SyncService {
	if opts.BatchSize <= 0 {
		opts.BatchSize = repository.DefaultBatchSize
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	return &SyncService{
		client:    client,
		repos:     repos,
		dashboard: dashboard,
		archive:   archive,
		opts:      opts,
		logger:    logger,
		now:       time.Now,
	}
}

// SetClock replaces the wall clock. Used by tests.
func (s *SyncService) SetClock(now func() time.Time) {
	s.now = now
}

// Enabled reports whether a CRM client is configured.
func (s *SyncService) Enabled() bool {
	return s.client != nil
}

// Running reports whether a run is in progress.
func (s *SyncService) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *SyncService) acquire() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return false
	}
	s.running = true
	return true
}

func (s *SyncService) release() {
	s.mu.Lock()
	s.running = false
	s.mu.Unlock()
}

// RecoverInterrupted fails runs left running by a previous process.
func (s *SyncService) RecoverInterrupted(ctx context.Context) error {
	n, err := s.repos.Runs.FailRunning(ctx, "interrupted by restart")
	if err != nil {
		return fmt.Errorf("failed to recover interrupted sync runs: %w", err)
	}
	if n > 0 {
		s.logger.Warn("marked interrupted sync runs as failed", zap.Int64("count", n))
	}
	return nil
}

// LastSucceeded returns the newest successful run, or nil when none exists.
func (s *SyncService) LastSucceeded(ctx context.Context) (*domain.SyncRun, error) {
	run, err := s.repos.Runs.LatestSucceeded(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get last sync run: %w", err)
	}
	return run, nil
}

// History returns the latest sync runs, newest first.
func (s *SyncService) History(ctx context.Context, limit int) ([]domain.SyncRun, error) {
	if limit < 0 || limit > 100 {
		return nil, fmt.Errorf("%w: limit must be between 0 and 100", ErrInvalidInput)
	}
	runs, err := s.repos.Runs.ListRecent(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list sync runs: %w", err)
	}
	return runs, nil
}

// Run performs one full synchronization. Entities are fetched independently:
// a failing entity is recorded and the others still sync. The returned error
// is non-nil only when the run could not start or every entity failed.
func (s *SyncService) Run(ctx context.Context, trigger string) (*domain.SyncResult, error) {
	if s.client == nil {
		return nil, ErrSyncDisabled
	}
	if !s.acquire() {
		return nil, ErrSyncInProgress
	}
	defer s.release()

	if s.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.Timeout)
		defer cancel()
	}

	run := &domain.SyncRun{
		ID:        uuid.NewString(),
		Trigger:   trigger,
		Status:    domain.SyncRunRunning,
		StartedAt: s.now().UTC(),
	}
	if err := s.repos.Runs.Create(ctx, run); err != nil {
		return nil, fmt.Errorf("failed to record sync run: %w", err)
	}

	log := logger.WithSyncRun(s.logger, run.ID, trigger)
	log.Info("CRM sync started")

	result := &domain.SyncResult{RunID: run.ID, StartedAt: run.StartedAt}
	loc := s.opts.Location
	batch := s.opts.BatchSize

	users, res := syncEntity(ctx, EntityUsers, s.client.ListUsers, mapper.User,
		func(u *domain.User) string { return u.ID }, s.repos.Users.UpsertBatch, batch)
	// An empty or truncated listing says nothing about who left.
	if res.Error == "" && !res.HasMore && len(users) > 0 {
		ids := make([]string, len(users))
		for i := range users {
			ids[i] = users[i].ID
		}
		if n, err := s.repos.Users.DeactivateMissing(ctx, ids); err != nil {
			log.Warn("failed to deactivate missing users", zap.Error(err))
		} else if n > 0 {
			log.Info("deactivated users missing from CRM", zap.Int64("count", n))
		}
	}
	result.Entities = append(result.Entities, res)

	_, res = syncEntity(ctx, EntitySources, s.client.ListSources, mapper.Source,
		func(src *domain.Source) string { return src.ID }, s.repos.Sources.UpsertBatch, batch)
	result.Entities = append(result.Entities, res)

	_, res = syncEntity(ctx, EntityLeads, s.client.ListLeads,
		func(r *crm.LeadRecord) domain.Lead { return mapper.Lead(r, loc) },
		func(l *domain.Lead) string { return l.ID }, s.repos.Leads.UpsertBatch, batch)
	result.Entities = append(result.Entities, res)

	_, res = syncEntity(ctx, EntityDeals, s.client.ListDeals,
		func(r *crm.DealRecord) domain.Deal { return mapper.Deal(r, loc) },
		func(d *domain.Deal) string { return d.ID }, s.repos.Deals.UpsertBatch, batch)
	result.Entities = append(result.Entities, res)

	_, res = syncEntity(ctx, EntityQuotes, s.client.ListQuotes,
		func(r *crm.QuoteRecord) domain.Quote { return mapper.Quote(r, loc) },
		func(q *domain.Quote) string { return q.ID }, s.repos.Quotes.UpsertBatch, batch)
	result.Entities = append(result.Entities, res)

	var since *time.Time
	if s.opts.ActivityLookbackDays > 0 {
		cutoff := s.now().UTC().AddDate(0, 0, -s.opts.ActivityLookbackDays)
		since = &cutoff
	}
	_, res = syncEntity(ctx, EntityActivities,
		func(ctx context.Context) (*crm.Page[crm.ActivityRecord], error) {
			return s.client.ListActivities(ctx, since)
		},
		func(r *crm.ActivityRecord) domain.Activity { return mapper.Activity(r, loc) },
		func(a *domain.Activity) string { return a.ID }, s.repos.Activities.UpsertBatch, batch)
	if res.Error == "" && since != nil {
		if n, err := s.repos.Activities.DeleteCreatedBefore(ctx, *since); err != nil {
			log.Warn("failed to prune old activities", zap.Error(err))
		} else if n > 0 {
			log.Debug("pruned activities outside the lookback", zap.Int64("count", n))
		}
	}
	result.Entities = append(result.Entities, res)

	run.Status, run.Error = summarize(result.Entities)
	for _, e := range result.Entities {
		run.Fetched += e.Fetched
		run.Upserted += e.Upserted
		if e.Error != "" {
			log.Warn("CRM entity sync failed", zap.String("entity", e.Entity), zap.String("error", e.Error))
		}
	}

	if run.Status != domain.SyncRunFailed && s.opts.ArchiveReports && s.archive != nil && s.dashboard != nil {
		key, err := s.archiveReport(ctx)
		if err != nil {
			log.Warn("failed to archive dashboard report", zap.Error(err))
		} else {
			run.ArchiveKey = key
			result.ArchiveKey = key
		}
	}

	finished := s.now().UTC()
	run.FinishedAt = &finished
	result.FinishedAt = finished

	// The run context may have expired; record the outcome regardless.
	saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	if err := s.repos.Runs.Update(saveCtx, run); err != nil {
		log.Error("failed to record sync run outcome", zap.Error(err))
	}

	log.Info("CRM sync finished",
		zap.String("status", string(run.Status)),
		zap.Int("fetched", run.Fetched),
		zap.Int("upserted", run.Upserted),
		zap.Duration("elapsed", finished.Sub(run.StartedAt)),
	)

	if run.Status == domain.SyncRunFailed {
		return result, failureError(ctx, result.Entities)
	}
	return result, nil
}

func (s *SyncService) archiveReport(ctx context.Context) (string, error) {
	report, err := s.dashboard.Report(ctx, s.dashboard.DefaultOptions())
	if err != nil {
		return "", err
	}
	return s.archive.Save(ctx, report)
}

// syncEntity fetches one entity kind, maps it and upserts what was fetched.
// Partial pages are still stored.
func syncEntity[R any, M any](
	ctx context.Context,
	entity string,
	fetch func(context.Context) (*crm.Page[R], error),
	convert func(*R) M,
	id func(*M) string,
	upsert func(context.Context, []M, int) (int, error),
	batchSize int,
) ([]M, domain.EntitySyncResult) {
	res := domain.EntitySyncResult{Entity: entity}

	page, fetchErr := fetch(ctx)
	if page == nil {
		page = &crm.Page[R]{}
	}
	res.Fetched = len(page.Items)
	res.Pages = page.Pages
	res.HasMore = page.HasMore

	rows := mapper.Map(page.Items, convert, id)
	if len(rows) > 0 {
		n, err := upsert(ctx, rows, batchSize)
		res.Upserted = n
		if err != nil {
			res.Error = fmt.Sprintf("failed to store %s: %v", entity, err)
			return rows, res
		}
	}
	if fetchErr != nil {
		res.Error = fetchErr.Error()
		if errors.Is(fetchErr, crm.ErrRateLimited) || errors.Is(fetchErr, crm.ErrUnavailable) {
			res.Error = fmt.Sprintf("%s: %v", ErrCRMUnavailable, fetchErr)
		}
	}
	return rows, res
}

// summarize derives the run status: failed when every entity failed,
// partial when some did.
func summarize(entities []domain.EntitySyncResult) (domain.SyncRunStatus, string) {
	var failed int
	var firstErr string
	for _, e := range entities {
		if e.Error != "" {
			failed++
			if firstErr == "" {
				firstErr = e.Entity + ": " + e.Error
			}
		}
	}
	switch {
	case failed == 0:
		return domain.SyncRunSucceeded, ""
	case failed == len(entities):
		return domain.SyncRunFailed, firstErr
	default:
		return domain.SyncRunPartial, firstErr
	}
}

func failureError(ctx context.Context, entities []domain.EntitySyncResult) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("sync aborted: %w", err)
	}
	for _, e := range entities {
		if e.Error != "" {
			return fmt.Errorf("%w: %s", ErrCRMUnavailable, e.Error)
		}
	}
	return ErrCRMUnavailable
}
