package analytics

import (
	"sort"
	"time"

	"github.com/salesops/crm-dashboard/internal/domain"
)

const (
	kindLead = "lead"
	kindDeal = "deal"
)

// quality audits the whole snapshot, independently of period and owner filters.
func (e *Engine) quality(idx *index) domain.QualityReport {
	deals := idx.allCommercialDeals()
	leads := idx.allLeads()

	r := domain.QualityReport{
		DealsWithoutLead:    e.orphanDeals(idx, deals),
		NeverContactedDeals: []domain.AuditItem{},
		NeverContactedLeads: []domain.AuditItem{},
		OrphanedOwnerLeads:  []domain.AuditItem{},
		OrphanedOwnerDeals:  []domain.AuditItem{},
		LoyalCustomers:      loyalCustomers(idx, deals),
	}

	for _, ref := range leads {
		l := ref.lead
		if ref.status == domain.LeadStatusNone || ref.status.IsTerminal() {
			continue
		}
		if !e.worked(idx, leadKey(l.ID), l.DateCreated, l.DateModified) {
			r.NeverContactedLeads = append(r.NeverContactedLeads, leadAudit(idx, l))
		}
		if l.OwnerID != "" && !idx.dir.IsActive(l.OwnerID) {
			r.OrphanedOwnerLeads = append(r.OrphanedOwnerLeads, leadAudit(idx, l))
		}
	}

	for _, ref := range deals {
		d := ref.deal
		if !ref.stage.IsSet() || ref.stage.IsTerminal() {
			continue
		}
		if !e.worked(idx, dealKey(d.ID), d.DateCreated, d.DateModified) {
			r.NeverContactedDeals = append(r.NeverContactedDeals, dealAudit(idx, ref))
		}
		if d.OwnerID != "" && !idx.dir.IsActive(d.OwnerID) {
			r.OrphanedOwnerDeals = append(r.OrphanedOwnerDeals, dealAudit(idx, ref))
		}
	}

	for _, items := range [][]domain.AuditItem{
		r.NeverContactedDeals, r.NeverContactedLeads, r.OrphanedOwnerLeads, r.OrphanedOwnerDeals,
	} {
		sortByAge(items)
	}

	r.CriticalCount = r.DealsWithoutLead.Won
	r.IssueCount = r.DealsWithoutLead.Won + r.DealsWithoutLead.InProgress +
		len(r.NeverContactedDeals) + len(r.NeverContactedLeads) +
		len(r.OrphanedOwnerLeads) + len(r.OrphanedOwnerDeals)
	return r
}

// worked reports whether a record shows any sign of handling: an activity row,
// or a modification later than the grace period after creation. The grace
// period absorbs writes made by the CRM itself right after creation.
func (e *Engine) worked(idx *index, key entityKey, created, modified *time.Time) bool {
	if len(idx.activities[key]) > 0 {
		return true
	}
	if created != nil && modified != nil && modified.Sub(*created) > e.settings.NeverContactedGrace {
		return true
	}
	return false
}

func orphanCategory(st domain.Stage) string {
	switch {
	case st.IsWon():
		return domain.OrphanWon
	case st.IsLost():
		return domain.OrphanLost
	case st.IsExpired():
		return domain.OrphanExpired
	case st.IsSet():
		return domain.OrphanInProgress
	default:
		return domain.OrphanOther
	}
}

func (e *Engine) orphanDeals(idx *index, deals []dealRef) domain.OrphanSummary {
	matcher := newLeadMatcher(idx.snap.Leads)
	owners := make(map[string]*domain.OwnerCount)
	s := domain.OrphanSummary{Deals: []domain.OrphanDeal{}}

	for _, ref := range deals {
		d := ref.deal
		if d.HasLead() {
			continue
		}
		o := domain.OrphanDeal{
			ID:         d.ID,
			Title:      d.DisplayTitle(),
			StageID:    d.StageID,
			StageLabel: ref.stage.Label(),
			Category:   orphanCategory(ref.stage),
			OwnerID:    d.OwnerID,
			OwnerName:  idx.dir.Name(d.OwnerID),
			Amount:     d.Amount(),
			Created:    d.DateCreated,
		}
		if lead, ok := matcher.Match(d.Title); ok {
			o.Match = &domain.LeadMatch{
				LeadID:    lead.ID,
				Name:      lead.MatchName(),
				OwnerID:   lead.OwnerID,
				OwnerName: idx.dir.Name(lead.OwnerID),
			}
			o.HasConflict = lead.OwnerID != d.OwnerID
			s.Matched++
			if o.HasConflict {
				s.Conflicts++
			}
		}

		s.Total++
		switch o.Category {
		case domain.OrphanWon:
			s.Won++
			s.WonRevenue += o.Amount
		case domain.OrphanLost:
			s.Lost++
		case domain.OrphanExpired:
			s.Expired++
		case domain.OrphanInProgress:
			s.InProgress++
		}

		oc, ok := owners[d.OwnerID]
		if !ok {
			oc = &domain.OwnerCount{OwnerID: d.OwnerID, Name: o.OwnerName}
			owners[d.OwnerID] = oc
		}
		oc.Count++
		if o.Category == domain.OrphanWon {
			oc.Won++
		}
		s.Deals = append(s.Deals, o)
	}

	sort.SliceStable(s.Deals, func(i, j int) bool {
		a, b := s.Deals[i].Created, s.Deals[j].Created
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return a.After(*b)
		}
	})

	s.ByOwner = make([]domain.OwnerCount, 0, len(owners))
	for _, oc := range owners {
		s.ByOwner = append(s.ByOwner, *oc)
	}
	sort.Slice(s.ByOwner, func(i, j int) bool {
		if s.ByOwner[i].Count != s.ByOwner[j].Count {
			return s.ByOwner[i].Count > s.ByOwner[j].Count
		}
		return s.ByOwner[i].OwnerID < s.ByOwner[j].OwnerID
	})
	return s
}

func loyalCustomers(idx *index, deals []dealRef) []domain.LoyalCustomer {
	byLead := make(map[string]*domain.LoyalCustomer)
	for _, ref := range deals {
		d := ref.deal
		if !d.HasLead() || !ref.stage.IsWon() {
			continue
		}
		c, ok := byLead[d.LeadID]
		if !ok {
			c = &domain.LoyalCustomer{LeadID: d.LeadID, Name: UnknownOwner}
			if lead, found := idx.leadByID[d.LeadID]; found {
				c.Name = lead.MatchName()
				c.Phone = lead.Phone
				c.Email = lead.Email
				c.OwnerID = lead.OwnerID
				c.OwnerName = idx.dir.Name(lead.OwnerID)
			}
			byLead[d.LeadID] = c
		}
		c.WonCount++
		c.Revenue += d.Amount()
		c.DealIDs = append(c.DealIDs, d.ID)
	}

	out := make([]domain.LoyalCustomer, 0)
	for _, c := range byLead {
		if c.WonCount > 1 {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].WonCount != out[j].WonCount {
			return out[i].WonCount > out[j].WonCount
		}
		if out[i].Revenue != out[j].Revenue {
			return out[i].Revenue > out[j].Revenue
		}
		return out[i].LeadID < out[j].LeadID
	})
	return out
}

func leadAudit(idx *index, l *domain.Lead) domain.AuditItem {
	return domain.AuditItem{
		ID:        l.ID,
		Kind:      kindLead,
		Title:     l.DisplayTitle(),
		Status:    domain.StatusLabel(l.StatusID),
		OwnerID:   l.OwnerID,
		OwnerName: idx.dir.Name(l.OwnerID),
		Created:   l.DateCreated,
		DaysOld:   ageInDays(l.DateCreated, idx.now),
		Amount:    l.Amount(),
	}
}

func dealAudit(idx *index, ref dealRef) domain.AuditItem {
	d := ref.deal
	return domain.AuditItem{
		ID:        d.ID,
		Kind:      kindDeal,
		Title:     d.DisplayTitle(),
		Status:    ref.stage.Label(),
		OwnerID:   d.OwnerID,
		OwnerName: idx.dir.Name(d.OwnerID),
		Created:   d.DateCreated,
		DaysOld:   ageInDays(d.DateCreated, idx.now),
		Amount:    d.Amount(),
	}
}

// ageInDays is DaysAgo with 0 for undated records.
func ageInDays(t *time.Time, now time.Time) int {
	if t == nil {
		return 0
	}
	return DaysAgo(t, now)
}

func sortByAge(items []domain.AuditItem) {
	sort.Slice(items, func(i, j int) bool {
		if items[i].DaysOld != items[j].DaysOld {
			return items[i].DaysOld > items[j].DaysOld
		}
		return items[i].ID < items[j].ID
	})
}
