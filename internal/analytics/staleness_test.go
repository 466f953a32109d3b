package analytics_test

import (
	"testing"
	"time"

	"github.com/salesops/crm-dashboard/internal/analytics"
	"github.com/salesops/crm-dashboard/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func staleSnapshot() *domain.Snapshot {
	tomorrow := fixedNow.Add(24 * time.Hour)
	return &domain.Snapshot{
		Users: testUsers(),
		Leads: []domain.Lead{
			{ID: "A", Name: "Junk lead", StatusID: "JUNK", OwnerID: "1", DateModified: ago(30)},
			{ID: "B", Name: "Late", StatusID: "NEW", OwnerID: "1", LastActivityAt: ago(5)},
			{ID: "C", Name: "Very late", StatusID: "NEW", OwnerID: "1", LastActivityAt: ago(10)},
			{ID: "D", Name: "Reminded", StatusID: "NEW", OwnerID: "2", DateModified: ago(20)},
			{ID: "E", Name: "Test owned", StatusID: "NEW", OwnerID: "9", DateModified: ago(12)},
			{ID: "F", Name: "Fresh", StatusID: "NEW", OwnerID: "1", LastActivityAt: ago(1)},
		},
		Deals: []domain.Deal{
			{ID: "X1", Title: "Open deal", StageID: "PREPARATION", OwnerID: "2", DateModified: ago(9)},
			{ID: "X2", Title: "Won deal", StageID: "WON", OwnerID: "2", DateModified: ago(40)},
			{ID: "X3", Title: "Recruitment", StageID: "C1:NEW", OwnerID: "2", DateModified: ago(40)},
			{ID: "X4", Title: "Undated", StageID: "NEW", OwnerID: "1"},
		},
		Activities: []domain.Activity{
			{ID: "R1", OwnerTypeID: domain.OwnerTypeLead, OwnerID: "D", Deadline: &tomorrow},
			{ID: "R2", OwnerTypeID: domain.OwnerTypeLead, OwnerID: "C", Deadline: ago(2)},
			{ID: "R3", OwnerTypeID: domain.OwnerTypeLead, OwnerID: "B", Completed: true, Deadline: &tomorrow},
		},
	}
}

func TestAlerts_Leads(t *testing.T) {
	engine := newTestEngine()
	report := engine.Alerts(staleSnapshot(), analytics.DefaultOptions())
	leads := report.Leads

	assert.Equal(t, 3, leads.Total, "B, C and E are stale")
	assert.Equal(t, 2, leads.Critical)
	assert.Equal(t, 1, leads.ExcludedByReminder)
	assert.Equal(t, 1, leads.TotalWithReminder)

	require.Len(t, leads.ByOwner, 1, "test accounts are left out of grouped output")
	alice := leads.ByOwner[0]
	assert.Equal(t, "Alice Martin", alice.Name)
	assert.Equal(t, 2, alice.Count)
	assert.Equal(t, 1, alice.Critical)
	assert.Equal(t, []string{"C", "B"}, alertIDs(alice.Items))
	assert.True(t, alice.Items[0].Critical)
	assert.False(t, alice.Items[1].Critical)
}

func TestAlerts_JunkLeadIsNeverStale(t *testing.T) {
	engine := newTestEngine()
	report := engine.Alerts(staleSnapshot(), analytics.DefaultOptions())

	for _, group := range report.Leads.ByOwner {
		assert.NotContains(t, alertIDs(group.Items), "A")
	}
	for _, sc := range report.Leads.ByStage {
		assert.NotEqual(t, "JUNK", sc.Key)
	}
}

func TestAlerts_IncludeReminded(t *testing.T) {
	engine := newTestEngine()
	opts := analytics.DefaultOptions()
	opts.ExcludeWithPendingReminder = false

	leads := engine.Alerts(staleSnapshot(), opts).Leads

	assert.Equal(t, 4, leads.Total)
	assert.Equal(t, 0, leads.ExcludedByReminder)
	bob := findOwnerAlerts(leads.ByOwner, "2")
	require.NotNil(t, bob)
	require.Len(t, bob.Items, 1)
	assert.True(t, bob.Items[0].HasReminder)
	assert.Equal(t, 20, bob.Items[0].DaysSinceContact)
}

func TestAlerts_Thresholds(t *testing.T) {
	engine := newTestEngine()
	opts := analytics.DefaultOptions()
	opts.RetardThreshold = 10
	opts.CriticalThreshold = 11

	leads := engine.Alerts(staleSnapshot(), opts).Leads

	assert.Equal(t, 1, leads.Total, "only E is older than 10 days")
	assert.Equal(t, 1, leads.Critical)
	assert.Equal(t, 11, engine.Alerts(staleSnapshot(), opts).CriticalThreshold)
}

func TestAlerts_Deals(t *testing.T) {
	engine := newTestEngine()
	deals := engine.Alerts(staleSnapshot(), analytics.DefaultOptions()).Deals

	assert.Equal(t, 2, deals.Total, "terminal and recruitment deals are skipped")
	assert.Equal(t, 2, deals.Critical)

	alice := findOwnerAlerts(deals.ByOwner, "1")
	require.NotNil(t, alice)
	assert.Equal(t, analytics.UnknownDays, alice.Items[0].DaysSinceContact)

	bob := findOwnerAlerts(deals.ByOwner, "2")
	require.NotNil(t, bob)
	assert.Equal(t, []string{"X1"}, alertIDs(bob.Items))
	assert.Equal(t, "Preparation", bob.Items[0].StatusLabel)
}

func TestIsPendingReminder(t *testing.T) {
	today := analytics.StartOfDay(fixedNow, time.UTC)
	later := fixedNow.Add(2 * time.Hour)
	earlierToday := today.Add(time.Hour)

	tests := []struct {
		name     string
		activity domain.Activity
		want     bool
	}{
		{"undated", domain.Activity{}, true},
		{"due later", domain.Activity{Deadline: &later}, true},
		{"due earlier today", domain.Activity{Deadline: &earlierToday}, true},
		{"overdue", domain.Activity{Deadline: ago(1)}, false},
		{"start time fallback", domain.Activity{StartTime: &later}, true},
		{"completed", domain.Activity{Completed: true, Deadline: &later}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, analytics.IsPendingReminder(&tt.activity, today))
		})
	}
}
