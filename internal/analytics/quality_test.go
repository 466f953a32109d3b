package analytics_test

import (
	"testing"
	"time"

	"github.com/salesops/crm-dashboard/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func qualitySnapshot() *domain.Snapshot {
	return &domain.Snapshot{
		Users: testUsers(),
		Leads: []domain.Lead{
			{ID: "L1", Name: "John Smith", StatusID: "NEW", OwnerID: "2", DateCreated: ago(5), DateModified: ago(5)},
			{ID: "L2", Name: "Claire Loyal", StatusID: "CONVERTED", OwnerID: "1", DateCreated: ago(100), DateModified: ago(90), Phone: "+33 6 00 00 00 00"},
			{ID: "L3", Title: "Ghost lead", StatusID: "IN_PROCESS", OwnerID: "42", DateCreated: ago(20), DateModified: ago(19)},
		},
		Deals: []domain.Deal{
			{ID: "D1", Title: "Acme Corp", StageID: "WON", OwnerID: "1", Opportunity: 500, DateCreated: ago(30), DateModified: ago(10)},
			{ID: "D2", Title: "John Smith Surgery", StageID: "PREPARATION", OwnerID: "1", LeadID: "0", DateCreated: ago(3), DateModified: after(ago(3), 30*time.Second)},
			{ID: "D3", Title: "Recruit", StageID: "C1:NEW", OwnerID: "1", DateCreated: ago(3)},
			{ID: "D4", Title: "Claire first", StageID: "WON", OwnerID: "1", LeadID: "L2", Opportunity: 100, DateCreated: ago(80)},
			{ID: "D5", Title: "Claire second", StageID: "C3:WON", OwnerID: "1", LeadID: "L2", Opportunity: 200, DateCreated: ago(40)},
		},
	}
}

func TestQuality_OrphanDeals(t *testing.T) {
	engine := newTestEngine()
	q := engine.Quality(qualitySnapshot())
	orphans := q.DealsWithoutLead

	assert.Equal(t, 2, orphans.Total, "recruitment deals are not audited")
	assert.Equal(t, 1, orphans.Won)
	assert.Equal(t, 1, orphans.InProgress)
	assert.Equal(t, 0, orphans.Lost)
	assert.InDelta(t, 500.0, orphans.WonRevenue, 1e-9)
	assert.Equal(t, 1, q.CriticalCount, "a won deal without lead is critical")

	require.Len(t, orphans.Deals, 2)
	assert.Equal(t, "D2", orphans.Deals[0].ID, "newest first")
	assert.Equal(t, domain.OrphanWon, orphans.Deals[1].Category)

	require.Len(t, orphans.ByOwner, 1)
	assert.Equal(t, 2, orphans.ByOwner[0].Count)
	assert.Equal(t, 1, orphans.ByOwner[0].Won)
}

func TestQuality_FuzzyMatchFlagsConflict(t *testing.T) {
	engine := newTestEngine()
	orphans := engine.Quality(qualitySnapshot()).DealsWithoutLead

	var surgery, acme *domain.OrphanDeal
	for i := range orphans.Deals {
		switch orphans.Deals[i].ID {
		case "D2":
			surgery = &orphans.Deals[i]
		case "D1":
			acme = &orphans.Deals[i]
		}
	}
	require.NotNil(t, surgery)
	require.NotNil(t, acme)

	require.NotNil(t, surgery.Match)
	assert.Equal(t, "L1", surgery.Match.LeadID)
	assert.Equal(t, "Bob Durand", surgery.Match.OwnerName)
	assert.True(t, surgery.HasConflict)

	assert.Nil(t, acme.Match)
	assert.False(t, acme.HasConflict)

	assert.Equal(t, 1, orphans.Matched)
	assert.Equal(t, 1, orphans.Conflicts)
}

func TestQuality_NeverContacted(t *testing.T) {
	engine := newTestEngine()
	q := engine.Quality(qualitySnapshot())

	assert.Equal(t, []string{"L1"}, auditIDs(q.NeverContactedLeads))
	assert.Equal(t, []string{"D2"}, auditIDs(q.NeverContactedDeals), "a 30 second edit is within the grace period")

	snap := qualitySnapshot()
	snap.Activities = []domain.Activity{{ID: "A1", OwnerTypeID: domain.OwnerTypeLead, OwnerID: "L1", Created: ago(4)}}
	assert.Empty(t, engine.Quality(snap).NeverContactedLeads)
}

func TestQuality_OrphanedOwners(t *testing.T) {
	engine := newTestEngine()
	q := engine.Quality(qualitySnapshot())

	require.Equal(t, []string{"L3"}, auditIDs(q.OrphanedOwnerLeads))
	assert.Equal(t, 20, q.OrphanedOwnerLeads[0].DaysOld)
	assert.Equal(t, "Unknown", q.OrphanedOwnerLeads[0].OwnerName)
	assert.Empty(t, q.OrphanedOwnerDeals)
	assert.Equal(t, 5, q.IssueCount)
}

func TestQuality_LoyalCustomers(t *testing.T) {
	engine := newTestEngine()
	loyal := engine.Quality(qualitySnapshot()).LoyalCustomers

	require.Len(t, loyal, 1)
	assert.Equal(t, "L2", loyal[0].LeadID)
	assert.Equal(t, "Claire Loyal", loyal[0].Name)
	assert.Equal(t, 2, loyal[0].WonCount)
	assert.InDelta(t, 300.0, loyal[0].Revenue, 1e-9)
	assert.Equal(t, []string{"D4", "D5"}, loyal[0].DealIDs)
	assert.NotEmpty(t, loyal[0].Phone)
}
