package service

import (
	"context"
	"fmt"
	"time"

	"github.com/salesops/crm-dashboard/internal/analytics"
	"github.com/salesops/crm-dashboard/internal/domain"
	"github.com/salesops/crm-dashboard/internal/repository"
	"go.uber.org/zap"
)

// DashboardService loads the synchronized snapshot and runs the analytics
// engine over it. Each call reads a fresh snapshot.
type DashboardService struct {
	snapshotRepo *repository.SnapshotRepository
	engine       *analytics.Engine
	defaults     analytics.Options
	logger       *zap.Logger
}

func NewDashboardService(
	snapshotRepo *repository.SnapshotRepository,
	engine *analytics.Engine,
	defaults analytics.Options,
	logger *zap.Logger,
) *DashboardService {
	return &DashboardService{
		snapshotRepo: snapshotRepo,
		engine:       engine,
		defaults:     defaults,
		logger:       logger,
	}
}

// DefaultOptions returns the configured request defaults.
func (s *DashboardService) DefaultOptions() analytics.Options {
	o := s.defaults
	o.Owners = append([]string(nil), s.defaults.Owners...)
	return o
}

// Location is the timezone dates are interpreted in.
func (s *DashboardService) Location() *time.Location {
	return s.engine.Settings().Location
}

// ValidateOptions rejects option combinations the engine cannot honor.
func ValidateOptions(opts analytics.Options) error {
	if opts.Period != "" && !opts.Period.IsValid() {
		return fmt.Errorf("%w: unknown period %q", ErrInvalidInput, opts.Period)
	}
	if opts.Period == domain.PeriodCustom {
		if opts.Start == nil && opts.End == nil {
			return fmt.Errorf("%w: custom period requires start or end", ErrInvalidInput)
		}
		if opts.Start != nil && opts.End != nil && opts.End.Before(*opts.Start) {
			return fmt.Errorf("%w: end is before start", ErrInvalidInput)
		}
	}
	if opts.RetardThreshold < 0 || opts.CriticalThreshold < 0 {
		return fmt.Errorf("%w: thresholds must not be negative", ErrInvalidInput)
	}
	if opts.CriticalThreshold > 0 && opts.CriticalThreshold < opts.RetardThreshold {
		return fmt.Errorf("%w: critical threshold is below the late threshold", ErrInvalidInput)
	}
	if opts.ClosingTargetPercent < 0 || opts.ClosingTargetPercent > 100 {
		return fmt.Errorf("%w: closing target must be between 0 and 100", ErrInvalidInput)
	}
	return nil
}

func (s *DashboardService) snapshot(ctx context.Context, opts analytics.Options) (*domain.Snapshot, error) {
	if err := ValidateOptions(opts); err != nil {
		return nil, err
	}
	snap, err := s.snapshotRepo.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshot: %w", err)
	}
	return snap, nil
}

// Report computes every dashboard component.
func (s *DashboardService) Report(ctx context.Context, opts analytics.Options) (*domain.Report, error) {
	snap, err := s.snapshot(ctx, opts)
	if err != nil {
		return nil, err
	}

	started := time.Now()
	report := s.engine.Compute(snap, opts)
	s.logger.Debug("dashboard computed",
		zap.Int("leads", len(snap.Leads)),
		zap.Int("deals", len(snap.Deals)),
		zap.Int("activities", len(snap.Activities)),
		zap.String("period", string(report.Funnel.Period.Preset)),
		zap.Duration("elapsed", time.Since(started)),
	)
	return report, nil
}

func (s *DashboardService) Funnel(ctx context.Context, opts analytics.Options) (*domain.FunnelReport, error) {
	snap, err := s.snapshot(ctx, opts)
	if err != nil {
		return nil, err
	}
	r := s.engine.Funnel(snap, opts)
	return &r, nil
}

// Commercials returns the per-commercial scorecards of the funnel.
func (s *DashboardService) Commercials(ctx context.Context, opts analytics.Options) ([]domain.OwnerFunnel, error) {
	funnel, err := s.Funnel(ctx, opts)
	if err != nil {
		return nil, err
	}
	if funnel.Commercials == nil {
		return []domain.OwnerFunnel{}, nil
	}
	return funnel.Commercials, nil
}

func (s *DashboardService) Alerts(ctx context.Context, opts analytics.Options) (*domain.AlertsReport, error) {
	snap, err := s.snapshot(ctx, opts)
	if err != nil {
		return nil, err
	}
	r := s.engine.Alerts(snap, opts)
	return &r, nil
}

func (s *DashboardService) Quality(ctx context.Context) (*domain.QualityReport, error) {
	snap, err := s.snapshot(ctx, s.defaults)
	if err != nil {
		return nil, err
	}
	r := s.engine.Quality(snap)
	return &r, nil
}

func (s *DashboardService) HotDeals(ctx context.Context) (*domain.HotDealsReport, error) {
	snap, err := s.snapshot(ctx, s.defaults)
	if err != nil {
		return nil, err
	}
	r := s.engine.HotDeals(snap)
	return &r, nil
}

func (s *DashboardService) Allocation(ctx context.Context) (*domain.AllocationReport, error) {
	snap, err := s.snapshot(ctx, s.defaults)
	if err != nil {
		return nil, err
	}
	r := s.engine.Allocation(snap)
	return &r, nil
}

// Daily builds the activity report for opts.Day, or today when unset.
func (s *DashboardService) Daily(ctx context.Context, opts analytics.Options) (*domain.DailyReport, error) {
	snap, err := s.snapshot(ctx, opts)
	if err != nil {
		return nil, err
	}
	r := s.engine.Daily(snap, opts)
	return &r, nil
}
