package analytics

import "github.com/salesops/crm-dashboard/internal/domain"

// ownerSet is an owner allow-list. An empty set allows every owner.
type ownerSet map[string]struct{}

func newOwnerSet(ids []string) ownerSet {
	s := make(ownerSet, len(ids))
	for _, id := range ids {
		if id != "" {
			s[id] = struct{}{}
		}
	}
	return s
}

func (s ownerSet) allows(id string) bool {
	if len(s) == 0 {
		return true
	}
	_, ok := s[id]
	return ok
}

type leadRef struct {
	lead   *domain.Lead
	status domain.LeadStatus
}

type dealRef struct {
	deal  *domain.Deal
	stage domain.Stage
}

func leadInScope(l *domain.Lead, period domain.Period, owners ownerSet) bool {
	return period.Contains(l.DateCreated) && owners.allows(l.OwnerID)
}

func dealInScope(d *domain.Deal, st domain.Stage, period domain.Period, owners ownerSet) bool {
	return st.IsCommercial() && period.Contains(d.DateCreated) && owners.allows(d.OwnerID)
}

// FilterLeads keeps leads created within the period and owned by an allowed owner.
func FilterLeads(leads []domain.Lead, period domain.Period, owners []string) []*domain.Lead {
	allowed := newOwnerSet(owners)
	out := make([]*domain.Lead, 0, len(leads))
	for i := range leads {
		if leadInScope(&leads[i], period, allowed) {
			out = append(out, &leads[i])
		}
	}
	return out
}

// FilterCommercialDeals keeps commercial-pipeline deals created within the
// period and owned by an allowed owner. Recruitment and referral deals are
// always dropped.
func FilterCommercialDeals(deals []domain.Deal, period domain.Period, owners []string) []*domain.Deal {
	allowed := newOwnerSet(owners)
	out := make([]*domain.Deal, 0, len(deals))
	for i := range deals {
		if dealInScope(&deals[i], deals[i].Stage(), period, allowed) {
			out = append(out, &deals[i])
		}
	}
	return out
}

func (idx *index) leadsIn(period domain.Period, owners ownerSet) []leadRef {
	out := make([]leadRef, 0, len(idx.snap.Leads))
	for i := range idx.snap.Leads {
		if l := &idx.snap.Leads[i]; leadInScope(l, period, owners) {
			out = append(out, leadRef{lead: l, status: idx.statuses[i]})
		}
	}
	return out
}

func (idx *index) commercialDealsIn(period domain.Period, owners ownerSet) []dealRef {
	out := make([]dealRef, 0, len(idx.snap.Deals))
	for i := range idx.snap.Deals {
		d, st := &idx.snap.Deals[i], idx.stages[i]
		if dealInScope(d, st, period, owners) {
			out = append(out, dealRef{deal: d, stage: st})
		}
	}
	return out
}

// allLeads returns every lead of the snapshot.
func (idx *index) allLeads() []leadRef {
	out := make([]leadRef, len(idx.snap.Leads))
	for i := range idx.snap.Leads {
		out[i] = leadRef{lead: &idx.snap.Leads[i], status: idx.statuses[i]}
	}
	return out
}

// allCommercialDeals returns every commercial-pipeline deal of the snapshot.
func (idx *index) allCommercialDeals() []dealRef {
	out := make([]dealRef, 0, len(idx.snap.Deals))
	for i := range idx.snap.Deals {
		if st := idx.stages[i]; st.IsCommercial() {
			out = append(out, dealRef{deal: &idx.snap.Deals[i], stage: st})
		}
	}
	return out
}
