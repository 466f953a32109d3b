package analytics

import (
	"time"

	"github.com/salesops/crm-dashboard/internal/domain"
)

// Engine computes dashboard reports from snapshots.
type Engine struct {
	settings Settings
	now      func() time.Time
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithClock overrides the engine clock.
func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) { e.now = now }
}

// NewEngine creates an engine. A nil location defaults to UTC.
func NewEngine(settings Settings, opts ...EngineOption) *Engine {
	if settings.Location == nil {
		settings.Location = time.UTC
	}
	e := &Engine{settings: settings, now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Settings returns the engine settings.
func (e *Engine) Settings() Settings { return e.settings }

func (e *Engine) buildIndex(snap *domain.Snapshot) *index {
	if snap == nil {
		snap = &domain.Snapshot{}
	}
	return newIndex(snap, e.settings, e.now())
}

// Compute runs every component against one snapshot with a single clock reading.
func (e *Engine) Compute(snap *domain.Snapshot, opts Options) *domain.Report {
	opts = opts.normalized()
	idx := e.buildIndex(snap)
	return &domain.Report{
		GeneratedAt: idx.now,
		Funnel:      e.funnel(idx, opts),
		Alerts:      e.alerts(idx, opts),
		Quality:     e.quality(idx),
		HotDeals:    e.hotDeals(idx),
		Allocation:  e.allocation(idx),
		Daily:       e.daily(idx, opts),
	}
}

// Funnel aggregates leads and commercial deals created in the selected period
// for the selected owners.
func (e *Engine) Funnel(snap *domain.Snapshot, opts Options) domain.FunnelReport {
	return e.funnel(e.buildIndex(snap), opts.normalized())
}

// Alerts classifies stale leads and deals over the whole snapshot.
func (e *Engine) Alerts(snap *domain.Snapshot, opts Options) domain.AlertsReport {
	return e.alerts(e.buildIndex(snap), opts.normalized())
}

// Quality audits data-entry problems over the whole snapshot.
func (e *Engine) Quality(snap *domain.Snapshot) domain.QualityReport {
	return e.quality(e.buildIndex(snap))
}

// HotDeals monitors late-stage commercial deals.
func (e *Engine) HotDeals(snap *domain.Snapshot) domain.HotDealsReport {
	return e.hotDeals(e.buildIndex(snap))
}

// Allocation scores commercials over the trailing window and recommends a
// weekly lead intake for each.
func (e *Engine) Allocation(snap *domain.Snapshot) domain.AllocationReport {
	return e.allocation(e.buildIndex(snap))
}

// Daily summarizes activity on opts.Day, or today.
func (e *Engine) Daily(snap *domain.Snapshot, opts Options) domain.DailyReport {
	return e.daily(e.buildIndex(snap), opts.normalized())
}

// Period resolves the reporting interval of opts at the engine clock.
func (e *Engine) Period(opts Options) domain.Period {
	opts = opts.normalized()
	return ResolvePeriod(opts.Period, e.now(), e.settings.Location, opts.Start, opts.End)
}

func (e *Engine) funnel(idx *index, opts Options) domain.FunnelReport {
	period := ResolvePeriod(opts.Period, idx.now, idx.loc, opts.Start, opts.End)
	owners := newOwnerSet(opts.Owners)
	leads := idx.leadsIn(period, owners)
	deals := idx.commercialDealsIn(period, owners)
	target := opts.ClosingTargetPercent

	lf := e.leadFunnel(idx, leads, owners)
	counts := ownerCounts(leads, deals)
	bySource, byCategory := e.sourceRollups(idx, leads, deals)
	commercials := e.commercialScorecards(idx, counts, target)

	return domain.FunnelReport{
		Period:        period,
		Leads:         lf,
		Deals:         e.dealFunnel(deals, lf, target),
		ByOwner:       e.ownerFunnels(idx, counts, target),
		BySource:      bySource,
		ByCategory:    byCategory,
		Monthly:       e.monthlySeries(idx, leads, deals),
		Delays:        e.delayStats(idx, leads, deals),
		Commercials:   commercials,
		TopClosers:    e.topClosers(commercials),
		ExpiredQuotes: e.expiredQuotes(idx),
	}
}
