package analytics

import (
	"time"

	"github.com/salesops/crm-dashboard/internal/domain"
)

type entityKey struct {
	ownerType int
	id        string
}

// index holds the per-invocation lookups shared by every component. It is
// built once from a snapshot and read-only afterwards.
type index struct {
	snap  *domain.Snapshot
	now   time.Time
	loc   *time.Location
	today time.Time
	dir   *directory

	leadByID   map[string]*domain.Lead
	stages     []domain.Stage
	statuses   []domain.LeadStatus
	activities map[entityKey][]*domain.Activity
	pending    map[entityKey]bool
	latest     map[entityKey]time.Time
	first      map[entityKey]time.Time
}

func newIndex(snap *domain.Snapshot, settings Settings, now time.Time) *index {
	loc := settings.Location
	if loc == nil {
		loc = time.UTC
	}
	idx := &index{
		snap:       snap,
		now:        now,
		loc:        loc,
		today:      StartOfDay(now, loc),
		dir:        newDirectory(snap.Users, settings),
		leadByID:   make(map[string]*domain.Lead, len(snap.Leads)),
		stages:     make([]domain.Stage, len(snap.Deals)),
		statuses:   make([]domain.LeadStatus, len(snap.Leads)),
		activities: make(map[entityKey][]*domain.Activity),
		pending:    make(map[entityKey]bool),
		latest:     make(map[entityKey]time.Time),
		first:      make(map[entityKey]time.Time),
	}

	for i := range snap.Leads {
		l := &snap.Leads[i]
		idx.statuses[i] = l.Status()
		if _, dup := idx.leadByID[l.ID]; !dup {
			idx.leadByID[l.ID] = l
		}
	}
	for i := range snap.Deals {
		idx.stages[i] = snap.Deals[i].Stage()
	}

	for i := range snap.Activities {
		a := &snap.Activities[i]
		if a.OwnerID == "" {
			continue
		}
		key := entityKey{ownerType: a.OwnerTypeID, id: a.OwnerID}
		idx.activities[key] = append(idx.activities[key], a)

		if a.Created != nil {
			if cur, ok := idx.latest[key]; !ok || a.Created.After(cur) {
				idx.latest[key] = *a.Created
			}
			if cur, ok := idx.first[key]; !ok || a.Created.Before(cur) {
				idx.first[key] = *a.Created
			}
		}
		if isPendingReminder(a, idx.today) {
			idx.pending[key] = true
		}
	}
	return idx
}

// isPendingReminder reports an incomplete activity due today or later.
// Undated activities count as pending.
func isPendingReminder(a *domain.Activity, today time.Time) bool {
	if a.Completed {
		return false
	}
	due := a.EffectiveDate()
	return due == nil || !due.Before(today)
}

func leadKey(id string) entityKey { return entityKey{ownerType: domain.OwnerTypeLead, id: id} }
func dealKey(id string) entityKey { return entityKey{ownerType: domain.OwnerTypeDeal, id: id} }

// pendingCount counts entities of one kind holding a pending reminder.
func (idx *index) pendingCount(ownerType int) int {
	n := 0
	for key := range idx.pending {
		if key.ownerType == ownerType {
			n++
		}
	}
	return n
}

// dealLastContact reconciles the deal's own last activity timestamp with the
// latest activity row, falling back to the modification date.
func (idx *index) dealLastContact(d *domain.Deal) *time.Time {
	var best *time.Time
	if d.LastActivityAt != nil {
		t := *d.LastActivityAt
		best = &t
	}
	if latest, ok := idx.latest[dealKey(d.ID)]; ok && (best == nil || latest.After(*best)) {
		t := latest
		best = &t
	}
	if best == nil && d.DateModified != nil {
		t := *d.DateModified
		best = &t
	}
	return best
}

// sourceName resolves a lead source id.
func (idx *index) sourceName(id string) string {
	if id == "" {
		return unknownSource
	}
	if name, ok := idx.snap.Sources[id]; ok && name != "" {
		return name
	}
	return id
}
