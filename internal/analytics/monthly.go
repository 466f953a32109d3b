package analytics

import (
	"sort"
	"time"

	"github.com/salesops/crm-dashboard/internal/domain"
)

// monthlySeries buckets leads and deals by the calendar month of their
// creation date. Won and deposit deals stay in their creation month.
func (e *Engine) monthlySeries(idx *index, leads []leadRef, deals []dealRef) []domain.MonthlyPoint {
	buckets := make(map[string]*funnelCounts)
	get := func(t *time.Time) *funnelCounts {
		key := monthKey(*t, idx.loc)
		c, ok := buckets[key]
		if !ok {
			c = &funnelCounts{}
			buckets[key] = c
		}
		return c
	}
	for _, r := range leads {
		if r.lead.DateCreated != nil {
			get(r.lead.DateCreated).addLead(r.status)
		}
	}
	for _, r := range deals {
		if r.deal.DateCreated != nil {
			get(r.deal.DateCreated).addDeal(r)
		}
	}

	keys := make([]string, 0, len(buckets))
	for k := range buckets {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]domain.MonthlyPoint, 0, len(keys))
	for _, k := range keys {
		c := buckets[k]
		out = append(out, domain.MonthlyPoint{
			Month:                  k,
			Leads:                  c.leads,
			Converted:              c.converted,
			Junk:                   c.junk,
			InProgress:             c.inProgress(),
			ConversionRate:         rate(c.converted, c.leads),
			Deals:                  c.deals,
			Won:                    c.won,
			Deposit:                c.deposit,
			Revenue:                c.revenue,
			ClosingRateWithDeposit: rate(c.sales(), c.converted),
		})
	}
	return out
}

type mean struct {
	sum float64
	n   int
}

func (m *mean) add(from, to *time.Time) {
	d := DaysBetween(from, to)
	if d == nil || *d < 0 {
		return
	}
	m.sum += float64(*d)
	m.n++
}

func (m *mean) value() *float64 {
	if m.n == 0 {
		return nil
	}
	v := m.sum / float64(m.n)
	return &v
}

// delayStats averages lifecycle durations in whole days. Negative spans are
// treated as bad data and skipped.
func (e *Engine) delayStats(idx *index, leads []leadRef, deals []dealRef) domain.DelayStats {
	var toConverted, toJunk, dealWon, dealDeposit, leadWon, leadDeposit mean

	for _, r := range leads {
		switch r.status {
		case domain.LeadStatusConverted:
			toConverted.add(r.lead.DateCreated, r.lead.DateModified)
		case domain.LeadStatusJunk:
			toJunk.add(r.lead.DateCreated, r.lead.DateModified)
		}
	}

	for _, r := range deals {
		var lead *domain.Lead
		if r.deal.HasLead() {
			lead = idx.leadByID[r.deal.LeadID]
		}
		switch {
		case r.stage.IsWon():
			dealWon.add(r.deal.DateCreated, r.deal.CloseDate)
			if lead != nil {
				leadWon.add(lead.DateCreated, r.deal.CloseDate)
			}
		case r.stage.IsDeposit():
			dealDeposit.add(r.deal.DateCreated, r.deal.DateModified)
			if lead != nil {
				leadDeposit.add(lead.DateCreated, r.deal.DateModified)
			}
		}
	}

	return domain.DelayStats{
		LeadToConverted: toConverted.value(),
		LeadToJunk:      toJunk.value(),
		DealToWon:       dealWon.value(),
		DealToDeposit:   dealDeposit.value(),
		LeadToWon:       leadWon.value(),
		LeadToDeposit:   leadDeposit.value(),
	}
}
