package analytics

import (
	"sort"
	"time"

	"github.com/salesops/crm-dashboard/internal/domain"
)

// hotDeals monitors late-stage commercial deals over the whole snapshot.
func (e *Engine) hotDeals(idx *index) domain.HotDealsReport {
	var quotes, deposits, tickets []domain.HotDeal
	owners := make(map[string]*domain.HotDealOwner)

	for _, ref := range idx.allCommercialDeals() {
		st := ref.stage
		if !st.IsQuoteSigned() && !st.IsDeposit() && !st.IsTicket() {
			continue
		}
		h := e.hotDeal(idx, ref)

		o, ok := owners[h.OwnerID]
		if !ok {
			o = &domain.HotDealOwner{OwnerID: h.OwnerID, Name: h.OwnerName}
			owners[h.OwnerID] = o
		}
		o.Revenue += h.Amount
		// Stale quotes and stale deposits both count as owner risk.
		if h.AtRisk {
			o.AtRisk++
		}

		switch {
		case st.IsQuoteSigned():
			o.QuoteSigned++
			quotes = append(quotes, h)
		case st.IsDeposit():
			o.Deposit++
			deposits = append(deposits, h)
		default:
			o.Ticket++
			tickets = append(tickets, h)
		}
	}

	byContact := func(a, b domain.HotDeal) bool { return a.DaysSinceContact > b.DaysSinceContact }
	byStageAge := func(a, b domain.HotDeal) bool { return a.DaysInStage > b.DaysInStage }

	r := domain.HotDealsReport{
		QuoteSigned: e.hotDealBucket(quotes, byContact, func(h domain.HotDeal) bool {
			return h.DaysSinceContact > e.settings.QuoteSignedRiskDays
		}),
		Deposit: e.hotDealBucket(deposits, byStageAge, func(h domain.HotDeal) bool {
			return h.DaysInStage > e.settings.DepositRiskDays
		}),
		Ticket: e.hotDealBucket(tickets, byContact, nil),
	}

	for _, b := range []domain.HotDealBucket{r.QuoteSigned, r.Deposit, r.Ticket} {
		r.TotalCount += b.Count
		r.TotalRevenue += b.Revenue
		r.AtRiskCount += len(b.AtRisk)
		r.AtRiskRevenue += b.AtRiskRevenue
	}

	r.ByOwner = make([]domain.HotDealOwner, 0, len(owners))
	for _, o := range owners {
		r.ByOwner = append(r.ByOwner, *o)
	}
	sort.Slice(r.ByOwner, func(i, j int) bool {
		if r.ByOwner[i].Revenue != r.ByOwner[j].Revenue {
			return r.ByOwner[i].Revenue > r.ByOwner[j].Revenue
		}
		return r.ByOwner[i].OwnerID < r.ByOwner[j].OwnerID
	})
	return r
}

func (e *Engine) hotDeal(idx *index, ref dealRef) domain.HotDeal {
	d := ref.deal
	last := idx.dealLastContact(d)
	h := domain.HotDeal{
		ID:               d.ID,
		Title:            d.DisplayTitle(),
		StageID:          d.StageID,
		StageLabel:       ref.stage.Label(),
		OwnerID:          d.OwnerID,
		OwnerName:        idx.dir.Name(d.OwnerID),
		Amount:           d.Amount(),
		Created:          d.DateCreated,
		MovedAt:          d.MovedAt,
		LastContact:      last,
		DaysSinceContact: DaysAgo(last, idx.now),
		DaysInStage:      DaysAgo(stageEntered(d), idx.now),
		HasReminder:      idx.pending[dealKey(d.ID)],
	}
	switch {
	case ref.stage.IsQuoteSigned():
		h.AtRisk = h.DaysSinceContact > e.settings.QuoteSignedRiskDays && !h.HasReminder
	case ref.stage.IsDeposit():
		h.AtRisk = h.DaysInStage > e.settings.DepositRiskDays && !h.HasReminder
	}
	return h
}

// stageEntered is the time the deal moved to its current stage, or its last
// modification when the move time is unknown.
func stageEntered(d *domain.Deal) *time.Time {
	if d.MovedAt != nil {
		return d.MovedAt
	}
	return d.DateModified
}

// hotDealBucket sorts deals and splits the overdue ones into at-risk and
// reminder-covered subsets. A nil overdue predicate disables the split.
func (e *Engine) hotDealBucket(deals []domain.HotDeal, less func(a, b domain.HotDeal) bool, overdue func(domain.HotDeal) bool) domain.HotDealBucket {
	sort.SliceStable(deals, func(i, j int) bool {
		if less(deals[i], deals[j]) {
			return true
		}
		if less(deals[j], deals[i]) {
			return false
		}
		return deals[i].ID < deals[j].ID
	})

	b := domain.HotDealBucket{
		Deals:        make([]domain.HotDeal, 0, len(deals)),
		AtRisk:       []domain.HotDeal{},
		WithReminder: []domain.HotDeal{},
	}
	for _, h := range deals {
		b.Count++
		b.Revenue += h.Amount
		b.Deals = append(b.Deals, h)
		if overdue == nil || !overdue(h) {
			continue
		}
		if h.HasReminder {
			b.WithReminder = append(b.WithReminder, h)
			continue
		}
		b.AtRisk = append(b.AtRisk, h)
		b.AtRiskRevenue += h.Amount
	}
	return b
}
