package analytics

import (
	"sort"

	"github.com/salesops/crm-dashboard/internal/domain"
)

// rate returns num/den as a percentage, or 0 when den is zero.
func rate(num, den int) float64 {
	if den == 0 {
		return 0
	}
	return float64(num) / float64(den) * 100
}

// VerdictFor colours a rate: green at or above target, yellow at or above
// yellowRatio of the target, red otherwise.
func VerdictFor(value, target, yellowRatio float64) domain.Verdict {
	switch {
	case value >= target:
		return domain.VerdictGreen
	case value >= target*yellowRatio:
		return domain.VerdictYellow
	default:
		return domain.VerdictRed
	}
}

// funnelCounts accumulates lead and deal outcomes for one rollup key.
type funnelCounts struct {
	leads     int
	converted int
	junk      int
	deals     int
	won       int
	deposit   int
	lost      int
	expired   int
	revenue   float64
}

func (c *funnelCounts) addLead(st domain.LeadStatus) {
	c.leads++
	switch st {
	case domain.LeadStatusConverted:
		c.converted++
	case domain.LeadStatusJunk:
		c.junk++
	}
}

func (c *funnelCounts) addDeal(r dealRef) {
	c.deals++
	switch {
	case r.stage.IsWon():
		c.won++
		c.revenue += r.deal.Amount()
	case r.stage.IsDeposit():
		c.deposit++
	case r.stage.IsExpired():
		c.expired++
	case r.stage.IsLost():
		c.lost++
	}
}

func (c *funnelCounts) inProgress() int { return c.leads - c.converted - c.junk }
func (c *funnelCounts) sales() int      { return c.won + c.deposit }

func (c *funnelCounts) ownerFunnel(id, name string, target, yellowRatio float64) domain.OwnerFunnel {
	closing := rate(c.sales(), c.converted)
	return domain.OwnerFunnel{
		OwnerID:                   id,
		Name:                      name,
		Leads:                     c.leads,
		Converted:                 c.converted,
		Junk:                      c.junk,
		InProgress:                c.inProgress(),
		Deals:                     c.deals,
		Won:                       c.won,
		Deposit:                   c.deposit,
		Lost:                      c.lost,
		Expired:                   c.expired,
		SalesWithDeposit:          c.sales(),
		Revenue:                   c.revenue,
		ConversionRate:            rate(c.converted, c.leads),
		ClosingRateWithDeposit:    closing,
		ClosingRateWithoutDeposit: rate(c.won, c.converted),
		GlobalRateWithDeposit:     rate(c.sales(), c.leads),
		GlobalRateWithoutDeposit:  rate(c.won, c.leads),
		Verdict:                   VerdictFor(closing, target, yellowRatio),
	}
}

func (e *Engine) leadFunnel(idx *index, leads []leadRef, owners ownerSet) domain.LeadFunnel {
	var c funnelCounts
	for _, r := range leads {
		c.addLead(r.status)
	}
	f := domain.LeadFunnel{
		Total:          c.leads,
		Converted:      c.converted,
		Junk:           c.junk,
		InProgress:     c.inProgress(),
		ConversionRate: rate(c.converted, c.leads),
	}
	for i := range idx.snap.Leads {
		l := &idx.snap.Leads[i]
		if !owners.allows(l.OwnerID) {
			continue
		}
		if SameDay(l.DateCreated, idx.now, idx.loc) {
			f.CreatedToday++
		}
		if SameDay(l.DateModified, idx.now, idx.loc) {
			f.ModifiedToday++
		}
	}
	return f
}

func (e *Engine) dealFunnel(deals []dealRef, lf domain.LeadFunnel, target float64) domain.DealFunnel {
	var c funnelCounts
	stages := make(map[string]*domain.StageCount)
	for _, r := range deals {
		c.addDeal(r)
		key := stageKey(r.stage)
		sc, ok := stages[key]
		if !ok {
			sc = &domain.StageCount{Key: key, Label: r.stage.Label()}
			stages[key] = sc
		}
		sc.Count++
		sc.Value += r.deal.Amount()
	}

	closing := rate(c.sales(), lf.Converted)
	return domain.DealFunnel{
		Total:                     c.deals,
		Won:                       c.won,
		Deposit:                   c.deposit,
		Lost:                      c.lost,
		Expired:                   c.expired,
		InProgress:                c.deals - c.won - c.deposit - c.lost - c.expired,
		SalesWithDeposit:          c.sales(),
		SalesWithoutDeposit:       c.won,
		Revenue:                   c.revenue,
		ClosingRateWithDeposit:    closing,
		ClosingRateWithoutDeposit: rate(c.won, lf.Converted),
		GlobalRateWithDeposit:     rate(c.sales(), lf.Total),
		GlobalRateWithoutDeposit:  rate(c.won, lf.Total),
		Verdict:                   VerdictFor(closing, target, e.settings.VerdictYellowRatio),
		ByStage:                   sortedStageCounts(stages),
	}
}

// stageKey is the histogram key of a stage: its keyword, or the raw id for
// unrecognized stages.
func stageKey(st domain.Stage) string {
	switch st.Keyword {
	case domain.StageOther:
		return st.Raw
	case domain.StageNone:
		return "NONE"
	default:
		return string(st.Keyword)
	}
}

func sortedStageCounts(m map[string]*domain.StageCount) []domain.StageCount {
	out := make([]domain.StageCount, 0, len(m))
	for _, sc := range m {
		out = append(out, *sc)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Key < out[j].Key
	})
	return out
}

// ownerCounts partitions leads and deals by owner id.
func ownerCounts(leads []leadRef, deals []dealRef) map[string]*funnelCounts {
	m := make(map[string]*funnelCounts)
	get := func(id string) *funnelCounts {
		c, ok := m[id]
		if !ok {
			c = &funnelCounts{}
			m[id] = c
		}
		return c
	}
	for _, r := range leads {
		get(r.lead.OwnerID).addLead(r.status)
	}
	for _, r := range deals {
		get(r.deal.OwnerID).addDeal(r)
	}
	return m
}

func (e *Engine) ownerFunnels(idx *index, counts map[string]*funnelCounts, target float64) []domain.OwnerFunnel {
	out := make([]domain.OwnerFunnel, 0, len(counts))
	for id, c := range counts {
		out = append(out, c.ownerFunnel(id, idx.dir.Name(id), target, e.settings.VerdictYellowRatio))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Leads != out[j].Leads {
			return out[i].Leads > out[j].Leads
		}
		return out[i].OwnerID < out[j].OwnerID
	})
	return out
}

// commercialScorecards returns one funnel per active, non-excluded user,
// ordered by lead count.
func (e *Engine) commercialScorecards(idx *index, counts map[string]*funnelCounts, target float64) []domain.OwnerFunnel {
	ids := idx.dir.reportingUsers()
	out := make([]domain.OwnerFunnel, 0, len(ids))
	for _, id := range ids {
		c := counts[id]
		if c == nil {
			c = &funnelCounts{}
		}
		out = append(out, c.ownerFunnel(id, idx.dir.Name(id), target, e.settings.VerdictYellowRatio))
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Leads > out[j].Leads })
	return out
}

// topClosers keeps scorecards with enough converted leads, best closing rate first.
func (e *Engine) topClosers(scorecards []domain.OwnerFunnel) []domain.OwnerFunnel {
	out := make([]domain.OwnerFunnel, 0)
	for _, sc := range scorecards {
		if sc.Converted >= e.settings.TopCloserMinConverted {
			out = append(out, sc)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].ClosingRateWithDeposit > out[j].ClosingRateWithDeposit
	})
	if limit := e.settings.TopCloserLimit; limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// expiredQuotes counts open quotes older than the expiry threshold.
func (e *Engine) expiredQuotes(idx *index) int {
	n := 0
	for i := range idx.snap.Quotes {
		q := &idx.snap.Quotes[i]
		if q.IsOpen() && q.DateCreated != nil && DaysAgo(q.DateCreated, idx.now) > e.settings.QuoteExpiryDays {
			n++
		}
	}
	return n
}
