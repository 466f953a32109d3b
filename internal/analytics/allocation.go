package analytics

import (
	"math"
	"sort"
	"time"

	"github.com/salesops/crm-dashboard/internal/domain"
)

// ScoreInputs are the per-commercial measurements feeding the allocation score.
type ScoreInputs struct {
	ClosingRate         float64
	AvgFirstContactDays float64
	PctOverdue          float64
	PctNeverContacted   float64
	ActivitiesPerDay    float64
	OverdueLeads        int
}

// ClosingScore scales the closing rate linearly up to the target rate.
func (m ScoringModel) ClosingScore(closingRate float64) float64 {
	if m.ClosingTargetRate <= 0 {
		return 0
	}
	return math.Min(m.ClosingMax, closingRate/m.ClosingTargetRate*m.ClosingMax)
}

// ReactivityScore awards the first tier whose bound covers the mean delay.
func (m ScoringModel) ReactivityScore(avgDays float64) float64 {
	for _, t := range m.ReactivityTiers {
		if avgDays <= t.MaxDays {
			return t.Points
		}
	}
	return 0
}

// SaturationScore penalizes the share of overdue active leads.
func (m ScoringModel) SaturationScore(pctOverdue float64) float64 {
	return math.Max(0, m.SaturationMax-m.SaturationPenalty*pctOverdue)
}

// WasteScore penalizes the share of leads never contacted.
func (m ScoringModel) WasteScore(pctNeverContacted float64) float64 {
	return math.Max(0, m.WasteMax-m.WastePenalty*pctNeverContacted)
}

// VolumeScore scales daily activity linearly up to the target volume.
func (m ScoringModel) VolumeScore(activitiesPerDay float64) float64 {
	if m.VolumeTarget <= 0 {
		return 0
	}
	return math.Min(m.VolumeMax, activitiesPerDay/m.VolumeTarget*m.VolumeMax)
}

// Capacity is the number of additional overdue leads still tolerated.
func (m ScoringModel) Capacity(overdueLeads int) int {
	if c := m.CapacityCeiling - overdueLeads; c > 0 {
		return c
	}
	return 0
}

// Recommend picks the first tier the score and capacity both reach.
func (m ScoringModel) Recommend(score, capacity int) (domain.Recommendation, int) {
	for _, t := range m.Tiers {
		if score < t.MinScore || capacity < t.MinCapacity {
			continue
		}
		steps := 0
		if m.ScoreStep > 0 {
			steps = (score - t.MinScore) / m.ScoreStep
		}
		return t.Recommendation, t.BaseIntake + t.StepIntake*steps
	}
	return domain.RecommendationStop, 0
}

// Score computes the sub-scores, total, capacity and recommendation.
func (m ScoringModel) Score(in ScoreInputs) domain.Scorecard {
	sc := domain.Scorecard{
		ClosingRate:         in.ClosingRate,
		AvgFirstContactDays: in.AvgFirstContactDays,
		PctOverdue:          in.PctOverdue,
		PctNeverContacted:   in.PctNeverContacted,
		ActivitiesPerDay:    in.ActivitiesPerDay,
		OverdueLeads:        in.OverdueLeads,
		ScoreClosing:        m.ClosingScore(in.ClosingRate),
		ScoreReactivity:     m.ReactivityScore(in.AvgFirstContactDays),
		ScoreSaturation:     m.SaturationScore(in.PctOverdue),
		ScoreWaste:          m.WasteScore(in.PctNeverContacted),
		ScoreVolume:         m.VolumeScore(in.ActivitiesPerDay),
	}
	sc.ScoreTotal = int(math.Round(sc.ScoreClosing + sc.ScoreReactivity + sc.ScoreSaturation + sc.ScoreWaste + sc.ScoreVolume))
	sc.Capacity = m.Capacity(in.OverdueLeads)
	sc.Recommendation, sc.WeeklyIntake = m.Recommend(sc.ScoreTotal, sc.Capacity)
	return sc
}

// ownerWindow gathers one commercial's records for the scoring window.
type ownerWindow struct {
	leads      []leadRef
	deals      int
	sales      int
	active     int
	overdue    int
	activities int
}

// allocation scores every allocatable owner with leads or deals created in
// the trailing window.
func (e *Engine) allocation(idx *index) domain.AllocationReport {
	m := e.settings.Model
	windowStart := idx.now.Add(-time.Duration(m.WindowDays) * day)
	inWindow := func(t *time.Time) bool { return t != nil && !t.Before(windowStart) }

	windows := make(map[string]*ownerWindow)
	track := func(id string) *ownerWindow {
		if id == "" || !idx.dir.isAllocatable(id) {
			return nil
		}
		w, ok := windows[id]
		if !ok {
			w = &ownerWindow{}
			windows[id] = w
		}
		return w
	}

	for _, ref := range idx.allLeads() {
		if inWindow(ref.lead.DateCreated) {
			if w := track(ref.lead.OwnerID); w != nil {
				w.leads = append(w.leads, ref)
			}
		}
	}
	for _, ref := range idx.allCommercialDeals() {
		if !ref.stage.IsSet() || !inWindow(ref.deal.DateCreated) {
			continue
		}
		if w := track(ref.deal.OwnerID); w != nil {
			w.deals++
			if ref.stage.IsSale() {
				w.sales++
			}
		}
	}

	for _, ref := range idx.allLeads() {
		w := windows[ref.lead.OwnerID]
		if w == nil || ref.status == domain.LeadStatusNone || ref.status.IsTerminal() {
			continue
		}
		w.active++
		if fractionalDaysAgo(ref.lead.LastContact(), idx.now) > m.OverdueDays {
			w.overdue++
		}
	}
	for i := range idx.snap.Activities {
		a := &idx.snap.Activities[i]
		if w := windows[a.ResponsibleID]; w != nil && inWindow(a.Created) {
			w.activities++
		}
	}

	report := domain.AllocationReport{
		WindowDays:  m.WindowDays,
		WindowStart: windowStart,
		Scorecards:  make([]domain.Scorecard, 0, len(windows)),
		CostPerLead: m.CostPerLead,
	}
	for id, w := range windows {
		sc := e.scorecard(idx, w)
		sc.OwnerID = id
		sc.Name = idx.dir.Name(id)
		report.Scorecards = append(report.Scorecards, sc)
		report.TotalWeeklyIntake += sc.WeeklyIntake
	}
	sort.Slice(report.Scorecards, func(i, j int) bool {
		a, b := report.Scorecards[i], report.Scorecards[j]
		if a.ScoreTotal != b.ScoreTotal {
			return a.ScoreTotal > b.ScoreTotal
		}
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		return a.OwnerID < b.OwnerID
	})

	report.Groups = recommendationGroups(report.Scorecards)
	report.WeeklyBudget = float64(report.TotalWeeklyIntake) * m.CostPerLead
	report.MonthlyBudget = report.WeeklyBudget * m.WeeksPerMonth
	return report
}

func (e *Engine) scorecard(idx *index, w *ownerWindow) domain.Scorecard {
	m := e.settings.Model

	converted, never := 0, 0
	var delay struct {
		sum float64
		n   int
	}
	for _, ref := range w.leads {
		l := ref.lead
		if ref.status == domain.LeadStatusConverted {
			converted++
		}
		key := leadKey(l.ID)
		if len(idx.activities[key]) == 0 && l.LastActivityAt == nil {
			never++
		}
		first, ok := idx.first[key]
		if !ok || l.DateCreated == nil {
			continue
		}
		if d := first.Sub(*l.DateCreated).Hours() / 24; d >= 0 {
			delay.sum += d
			delay.n++
		}
	}

	in := ScoreInputs{
		ClosingRate:         rate(w.sales, converted),
		AvgFirstContactDays: UnknownDays,
		PctOverdue:          rate(w.overdue, w.active),
		PctNeverContacted:   rate(never, len(w.leads)),
		OverdueLeads:        w.overdue,
	}
	if delay.n > 0 {
		in.AvgFirstContactDays = delay.sum / float64(delay.n)
	}
	if m.WorkingDays > 0 {
		in.ActivitiesPerDay = float64(w.activities) / m.WorkingDays
	}

	sc := m.Score(in)
	sc.WindowLeads = len(w.leads)
	sc.WindowDeals = w.deals
	sc.Converted = converted
	sc.Sales = w.sales
	sc.ContactedLeads = delay.n
	sc.ActiveLeads = w.active
	sc.NeverContacted = never
	sc.Activities = w.activities
	return sc
}

var recommendationOrder = []domain.Recommendation{
	domain.RecommendationPriority,
	domain.RecommendationNormal,
	domain.RecommendationLimited,
	domain.RecommendationStop,
}

func recommendationGroups(cards []domain.Scorecard) []domain.RecommendationGroup {
	groups := make([]domain.RecommendationGroup, len(recommendationOrder))
	pos := make(map[domain.Recommendation]int, len(recommendationOrder))
	for i, r := range recommendationOrder {
		groups[i] = domain.RecommendationGroup{Recommendation: r, OwnerIDs: []string{}, Names: []string{}}
		pos[r] = i
	}
	for _, sc := range cards {
		g := &groups[pos[sc.Recommendation]]
		g.OwnerIDs = append(g.OwnerIDs, sc.OwnerID)
		g.Names = append(g.Names, sc.Name)
		g.WeeklyIntake += sc.WeeklyIntake
	}
	return groups
}
