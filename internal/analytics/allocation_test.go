package analytics_test

import (
	"testing"

	"github.com/salesops/crm-dashboard/internal/analytics"
	"github.com/salesops/crm-dashboard/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScoringModel_PerfectScore(t *testing.T) {
	model := analytics.DefaultScoringModel()

	sc := model.Score(analytics.ScoreInputs{
		ClosingRate:         15,
		AvgFirstContactDays: 1,
		PctOverdue:          0,
		PctNeverContacted:   0,
		ActivitiesPerDay:    15,
		OverdueLeads:        0,
	})

	assert.InDelta(t, 35.0, sc.ScoreClosing, 1e-9)
	assert.InDelta(t, 25.0, sc.ScoreReactivity, 1e-9)
	assert.InDelta(t, 20.0, sc.ScoreSaturation, 1e-9)
	assert.InDelta(t, 15.0, sc.ScoreWaste, 1e-9)
	assert.InDelta(t, 5.0, sc.ScoreVolume, 1e-9)
	assert.Equal(t, 100, sc.ScoreTotal)
	assert.Equal(t, 10, sc.Capacity)
	assert.Equal(t, domain.RecommendationPriority, sc.Recommendation)
	assert.Equal(t, 30, sc.WeeklyIntake)
}

func TestScoringModel_ClosingScoreIsMonotonic(t *testing.T) {
	model := analytics.DefaultScoringModel()

	prev := model.ClosingScore(0)
	assert.Equal(t, 0.0, prev)
	for r := 0.5; r <= 60; r += 0.5 {
		cur := model.ClosingScore(r)
		assert.GreaterOrEqual(t, cur, prev, "rate %.1f", r)
		assert.LessOrEqual(t, cur, 35.0)
		prev = cur
	}
}

func TestScoringModel_SubScoresAreCapped(t *testing.T) {
	model := analytics.DefaultScoringModel()

	assert.Equal(t, 35.0, model.ClosingScore(500))
	assert.Equal(t, 25.0, model.ReactivityScore(0))
	assert.Equal(t, 0.0, model.ReactivityScore(analytics.UnknownDays))
	assert.Equal(t, 10.0, model.ReactivityScore(4.5))
	assert.Equal(t, 20.0, model.SaturationScore(0))
	assert.Equal(t, 0.0, model.SaturationScore(100))
	assert.Equal(t, 15.0, model.WasteScore(0))
	assert.Equal(t, 0.0, model.WasteScore(100))
	assert.Equal(t, 5.0, model.VolumeScore(200))
	assert.Equal(t, 0, model.Capacity(25))
}

func TestScoringModel_Recommend(t *testing.T) {
	model := analytics.DefaultScoringModel()

	tests := []struct {
		score, capacity int
		want            domain.Recommendation
		intake          int
	}{
		{75, 5, domain.RecommendationPriority, 15},
		{75, 4, domain.RecommendationNormal, 12},
		{65, 3, domain.RecommendationNormal, 8},
		{59, 2, domain.RecommendationLimited, 3},
		{70, 1, domain.RecommendationStop, 0},
		{49, 10, domain.RecommendationStop, 0},
	}
	for _, tt := range tests {
		rec, intake := model.Recommend(tt.score, tt.capacity)
		assert.Equal(t, tt.want, rec, "score %d capacity %d", tt.score, tt.capacity)
		assert.Equal(t, tt.intake, intake, "score %d capacity %d", tt.score, tt.capacity)
	}
}

func allocationSnapshot() *domain.Snapshot {
	users := append(testUsers(), domain.User{ID: "3", Name: "Carl", LastName: "Gone", Active: false})
	return &domain.Snapshot{
		Users: users,
		Leads: []domain.Lead{
			{ID: "LA1", StatusID: "CONVERTED", OwnerID: "1", DateCreated: ago(10), DateModified: ago(9)},
			{ID: "LA2", StatusID: "NEW", OwnerID: "1", DateCreated: ago(5), LastActivityAt: ago(1)},
			{ID: "LB1", StatusID: "NEW", OwnerID: "2", DateCreated: ago(20), DateModified: ago(20)},
			{ID: "LB2", StatusID: "NEW", OwnerID: "2", DateCreated: ago(100), DateModified: ago(100)},
			{ID: "LT1", StatusID: "NEW", OwnerID: "9", DateCreated: ago(3)},
			{ID: "LC1", StatusID: "NEW", OwnerID: "3", DateCreated: ago(3)},
			{ID: "LU1", StatusID: "NEW", OwnerID: "77", DateCreated: ago(3)},
		},
		Deals: []domain.Deal{
			{ID: "DA1", StageID: "WON", OwnerID: "1", LeadID: "LA1", DateCreated: ago(8)},
		},
		Activities: []domain.Activity{
			{ID: "A1", OwnerTypeID: domain.OwnerTypeLead, OwnerID: "LA1", ResponsibleID: "1", Created: ago(9.5), Completed: true},
			{ID: "A2", OwnerTypeID: domain.OwnerTypeLead, OwnerID: "LA2", ResponsibleID: "1", Created: ago(4), Completed: true},
		},
	}
}

func TestAllocation_Scorecards(t *testing.T) {
	engine := newTestEngine()
	report := engine.Allocation(allocationSnapshot())

	assert.Equal(t, 60, report.WindowDays)
	require.Len(t, report.Scorecards, 2, "excluded, inactive and unknown owners are not scored")

	alice := report.Scorecards[0]
	assert.Equal(t, "1", alice.OwnerID)
	assert.Equal(t, 2, alice.WindowLeads)
	assert.Equal(t, 1, alice.Converted)
	assert.Equal(t, 1, alice.Sales)
	assert.InDelta(t, 0.75, alice.AvgFirstContactDays, 1e-9)
	assert.Equal(t, 0, alice.OverdueLeads)
	assert.Equal(t, 2, alice.Activities)
	assert.Equal(t, 95, alice.ScoreTotal)
	assert.Equal(t, domain.RecommendationPriority, alice.Recommendation)
	assert.Equal(t, 25, alice.WeeklyIntake)

	bob := report.Scorecards[1]
	assert.Equal(t, "2", bob.OwnerID)
	assert.Equal(t, 1, bob.WindowLeads)
	assert.Equal(t, float64(analytics.UnknownDays), bob.AvgFirstContactDays)
	assert.Equal(t, 2, bob.OverdueLeads)
	assert.InDelta(t, 100.0, bob.PctOverdue, 1e-9)
	assert.InDelta(t, 100.0, bob.PctNeverContacted, 1e-9)
	assert.Equal(t, 0, bob.ScoreTotal)
	assert.Equal(t, 8, bob.Capacity)
	assert.Equal(t, domain.RecommendationStop, bob.Recommendation)
}

func TestAllocation_Budget(t *testing.T) {
	engine := newTestEngine()
	report := engine.Allocation(allocationSnapshot())

	assert.Equal(t, 25, report.TotalWeeklyIntake)
	assert.InDelta(t, 150.0, report.WeeklyBudget, 1e-9)
	assert.InDelta(t, 600.0, report.MonthlyBudget, 1e-9)

	require.Len(t, report.Groups, 4)
	assert.Equal(t, domain.RecommendationPriority, report.Groups[0].Recommendation)
	assert.Equal(t, []string{"1"}, report.Groups[0].OwnerIDs)
	assert.Empty(t, report.Groups[1].OwnerIDs)
	assert.Equal(t, []string{"2"}, report.Groups[3].OwnerIDs)
}
