package analytics

import (
	"sort"
	"time"

	"github.com/salesops/crm-dashboard/internal/domain"
)

// IsPendingReminder reports whether an activity is an incomplete reminder due
// on or after today. Undated activities are treated as pending.
func IsPendingReminder(a *domain.Activity, today time.Time) bool {
	return isPendingReminder(a, today)
}

// staleCollector accumulates stale items of one entity kind.
type staleCollector struct {
	opts   Options
	dir    *directory
	report domain.StaleReport
	owners map[string]*domain.OwnerAlerts
	stages map[string]*domain.StageCount
}

func newStaleCollector(opts Options, dir *directory) *staleCollector {
	return &staleCollector{
		opts:   opts,
		dir:    dir,
		owners: make(map[string]*domain.OwnerAlerts),
		stages: make(map[string]*domain.StageCount),
	}
}

// offer classifies one non-terminal entity. It returns false when the entity
// is not reported.
func (c *staleCollector) offer(item domain.AlertItem) bool {
	if item.DaysSinceContact <= c.opts.RetardThreshold {
		return false
	}
	if item.HasReminder && c.opts.ExcludeWithPendingReminder {
		c.report.ExcludedByReminder++
		return false
	}

	item.Critical = item.DaysSinceContact > c.opts.CriticalThreshold
	c.report.Total++
	if item.Critical {
		c.report.Critical++
	}

	key := item.Status
	if key == "" {
		key = "NONE"
	}
	sc, ok := c.stages[key]
	if !ok {
		sc = &domain.StageCount{Key: key, Label: item.StatusLabel}
		c.stages[key] = sc
	}
	sc.Count++
	sc.Value += item.Amount

	if c.dir.hiddenFromGroups(item.OwnerID) {
		return true
	}
	group, ok := c.owners[item.OwnerID]
	if !ok {
		group = &domain.OwnerAlerts{OwnerID: item.OwnerID, Name: c.dir.Name(item.OwnerID)}
		c.owners[item.OwnerID] = group
	}
	group.Count++
	if item.Critical {
		group.Critical++
	}
	group.Items = append(group.Items, item)
	return true
}

func (c *staleCollector) finish(withReminder int) domain.StaleReport {
	r := c.report
	r.TotalWithReminder = withReminder
	r.ByStage = sortedStageCounts(c.stages)

	r.ByOwner = make([]domain.OwnerAlerts, 0, len(c.owners))
	for _, g := range c.owners {
		sort.Slice(g.Items, func(i, j int) bool {
			if g.Items[i].DaysSinceContact != g.Items[j].DaysSinceContact {
				return g.Items[i].DaysSinceContact > g.Items[j].DaysSinceContact
			}
			return g.Items[i].ID < g.Items[j].ID
		})
		r.ByOwner = append(r.ByOwner, *g)
	}
	sort.Slice(r.ByOwner, func(i, j int) bool {
		if r.ByOwner[i].Count != r.ByOwner[j].Count {
			return r.ByOwner[i].Count > r.ByOwner[j].Count
		}
		return r.ByOwner[i].Name < r.ByOwner[j].Name
	})
	return r
}

func (e *Engine) alerts(idx *index, opts Options) domain.AlertsReport {
	leads := newStaleCollector(opts, idx.dir)
	for _, r := range idx.allLeads() {
		if r.status.IsTerminal() {
			continue
		}
		l := r.lead
		last := l.LastContact()
		leads.offer(domain.AlertItem{
			ID:               l.ID,
			Title:            l.DisplayTitle(),
			Status:           l.StatusID,
			StatusLabel:      domain.StatusLabel(l.StatusID),
			OwnerID:          l.OwnerID,
			Created:          l.DateCreated,
			Modified:         l.DateModified,
			LastContact:      last,
			DaysSinceContact: DaysAgo(last, idx.now),
			Phone:            l.Phone,
			Email:            l.Email,
			Source:           idx.sourceName(l.SourceID),
			Amount:           l.Amount(),
			HasReminder:      idx.pending[leadKey(l.ID)],
		})
	}

	deals := newStaleCollector(opts, idx.dir)
	for _, r := range idx.allCommercialDeals() {
		if r.stage.IsTerminal() {
			continue
		}
		d := r.deal
		last := d.LastContact()
		deals.offer(domain.AlertItem{
			ID:               d.ID,
			Title:            d.DisplayTitle(),
			Status:           d.StageID,
			StatusLabel:      r.stage.Label(),
			OwnerID:          d.OwnerID,
			Created:          d.DateCreated,
			Modified:         d.DateModified,
			LastContact:      last,
			DaysSinceContact: DaysAgo(last, idx.now),
			Amount:           d.Amount(),
			HasReminder:      idx.pending[dealKey(d.ID)],
		})
	}

	return domain.AlertsReport{
		RetardThreshold:     opts.RetardThreshold,
		CriticalThreshold:   opts.CriticalThreshold,
		ExcludeWithReminder: opts.ExcludeWithPendingReminder,
		Leads:               leads.finish(idx.pendingCount(domain.OwnerTypeLead)),
		Deals:               deals.finish(idx.pendingCount(domain.OwnerTypeDeal)),
		ExpiredQuotes:       e.expiredQuotes(idx),
	}
}
