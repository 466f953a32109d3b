package analytics_test

import (
	"encoding/json"
	"testing"

	"github.com/salesops/crm-dashboard/internal/analytics"
	"github.com/salesops/crm-dashboard/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func funnelSnapshot() *domain.Snapshot {
	return &domain.Snapshot{
		Users: testUsers(),
		Sources: map[string]string{
			"WEB":   "Website form",
			"CALL":  "Inbound call",
			"OTHER": "Trade show",
		},
		Leads: []domain.Lead{
			{ID: "L1", Name: "Lead one", StatusID: "CONVERTED", SourceID: "WEB", OwnerID: "1", DateCreated: ago(10), DateModified: ago(8)},
			{ID: "L2", Name: "Lead two", StatusID: "JUNK", SourceID: "WEB", OwnerID: "1", DateCreated: ago(5), DateModified: ago(4)},
			{ID: "L3", Name: "Lead three", StatusID: "NEW", SourceID: "CALL", OwnerID: "2", DateCreated: ago(3)},
			{ID: "L4", Name: "Lead four", StatusID: "IN_PROCESS", SourceID: "OTHER", OwnerID: "2", DateCreated: ago(2)},
			{ID: "L5", Name: "Lead five", StatusID: "NEW", OwnerID: "77", DateCreated: ago(1)},
		},
		Deals: []domain.Deal{
			{ID: "D1", Title: "Won deal", StageID: "WON", OwnerID: "1", LeadID: "L1", Opportunity: 1000, Currency: "EUR", DateCreated: ago(8), CloseDate: ago(2)},
			{ID: "D2", Title: "Deposit deal", StageID: "FINAL_INVOICE", OwnerID: "1", DateCreated: ago(7), DateModified: ago(6)},
			{ID: "D3", Title: "Recruitment", StageID: "C1:WON", OwnerID: "2", Opportunity: 5000, DateCreated: ago(6)},
			{ID: "D4", Title: "Expired", StageID: "C3:APOLOGY", OwnerID: "2", DateCreated: ago(5)},
			{ID: "D5", Title: "Open", StageID: "C3:NEW", OwnerID: "2", DateCreated: ago(4)},
		},
	}
}

func TestFunnel_LeadPartition(t *testing.T) {
	engine := newTestEngine()
	report := engine.Funnel(funnelSnapshot(), analytics.DefaultOptions())

	leads := report.Leads
	assert.Equal(t, 5, leads.Total)
	assert.Equal(t, 1, leads.Converted)
	assert.Equal(t, 1, leads.Junk)
	assert.Equal(t, 3, leads.InProgress)
	assert.Equal(t, leads.Total, leads.Converted+leads.Junk+leads.InProgress)
	assert.InDelta(t, 20.0, leads.ConversionRate, 1e-9)

	sum := 0
	for _, o := range report.ByOwner {
		sum += o.Leads
	}
	assert.Equal(t, leads.Total, sum)
}

func TestFunnel_DealClassification(t *testing.T) {
	engine := newTestEngine()
	deals := engine.Funnel(funnelSnapshot(), analytics.DefaultOptions()).Deals

	assert.Equal(t, 4, deals.Total, "recruitment pipeline deals are excluded")
	assert.Equal(t, 1, deals.Won)
	assert.Equal(t, 1, deals.Deposit)
	assert.Equal(t, 1, deals.Expired)
	assert.Equal(t, 0, deals.Lost)
	assert.Equal(t, 1, deals.InProgress)
	assert.Equal(t, 2, deals.SalesWithDeposit)
	assert.InDelta(t, 1000.0, deals.Revenue, 1e-9)
	assert.Equal(t, domain.VerdictGreen, deals.Verdict)

	for _, sc := range deals.ByStage {
		assert.NotEqual(t, "C1:WON", sc.Key)
	}
}

func TestFunnel_ZeroConvertedRatesAreZero(t *testing.T) {
	engine := newTestEngine()
	opts := analytics.DefaultOptions()
	opts.Owners = []string{"2"}

	report := engine.Funnel(funnelSnapshot(), opts)

	assert.Equal(t, 2, report.Leads.Total)
	assert.Equal(t, 0, report.Leads.Converted)
	assert.Equal(t, 0.0, report.Deals.ClosingRateWithDeposit)
	assert.Equal(t, 0.0, report.Deals.ClosingRateWithoutDeposit)
	assert.Equal(t, domain.VerdictRed, report.Deals.Verdict)
	require.Len(t, report.ByOwner, 1)
	assert.Equal(t, "2", report.ByOwner[0].OwnerID)
	assert.Equal(t, 0.0, report.ByOwner[0].ClosingRateWithDeposit)
}

func TestFunnel_PeriodFilter(t *testing.T) {
	engine := newTestEngine()
	opts := analytics.DefaultOptions()
	opts.Period = domain.PeriodThisWeek

	report := engine.Funnel(funnelSnapshot(), opts)

	// The week starts on Monday 16 June: only L4 and L5 qualify.
	assert.Equal(t, 2, report.Leads.Total)
	assert.Equal(t, 0, report.Deals.Total)
	assert.Equal(t, domain.PeriodThisWeek, report.Period.Preset)
}

func TestFunnel_SourceRollups(t *testing.T) {
	engine := newTestEngine()
	report := engine.Funnel(funnelSnapshot(), analytics.DefaultOptions())

	require.NotEmpty(t, report.BySource)
	web := report.BySource[0]
	assert.Equal(t, "WEB", web.Key)
	assert.Equal(t, "Website form", web.Name)
	assert.Equal(t, "Website", web.Category)
	assert.Equal(t, 2, web.Leads)
	assert.Equal(t, 1, web.Won, "won deal counts toward its lead's source")

	categories := map[string]int{}
	for _, c := range report.ByCategory {
		categories[c.Name] = c.Leads
	}
	assert.Equal(t, 2, categories["Website"])
	assert.Equal(t, 1, categories["Calls"])
	assert.Equal(t, 2, categories["Other"])
}

func TestFunnel_CommercialScorecardsSkipExcludedAccounts(t *testing.T) {
	engine := newTestEngine()
	report := engine.Funnel(funnelSnapshot(), analytics.DefaultOptions())

	names := make([]string, 0, len(report.Commercials))
	for _, c := range report.Commercials {
		names = append(names, c.Name)
	}
	assert.ElementsMatch(t, []string{"Alice Martin", "Bob Durand"}, names)
	assert.Empty(t, report.TopClosers, "no commercial reaches the converted minimum")
}

func TestFunnel_MonthlyAndDelays(t *testing.T) {
	engine := newTestEngine()
	report := engine.Funnel(funnelSnapshot(), analytics.DefaultOptions())

	require.Len(t, report.Monthly, 1)
	assert.Equal(t, "2025-06", report.Monthly[0].Month)
	assert.Equal(t, 5, report.Monthly[0].Leads)
	assert.Equal(t, 1, report.Monthly[0].Won)

	require.NotNil(t, report.Delays.LeadToConverted)
	assert.InDelta(t, 2.0, *report.Delays.LeadToConverted, 1e-9)
	require.NotNil(t, report.Delays.DealToWon)
	assert.InDelta(t, 6.0, *report.Delays.DealToWon, 1e-9)
	require.NotNil(t, report.Delays.LeadToWon)
	assert.InDelta(t, 8.0, *report.Delays.LeadToWon, 1e-9)
	assert.NotNil(t, report.Delays.DealToDeposit)
}

func TestFunnel_DelaysSkipNegativeSpans(t *testing.T) {
	snap := &domain.Snapshot{
		Users: testUsers(),
		Leads: []domain.Lead{
			{ID: "A", StatusID: "CONVERTED", OwnerID: "1", DateCreated: ago(5), DateModified: ago(7)},
			{ID: "B", StatusID: "CONVERTED", OwnerID: "1", DateCreated: ago(6), DateModified: ago(2)},
			{ID: "C", StatusID: "JUNK", OwnerID: "1", DateCreated: ago(3), DateModified: ago(9)},
		},
	}

	delays := newTestEngine().Funnel(snap, analytics.DefaultOptions()).Delays

	require.NotNil(t, delays.LeadToConverted)
	assert.InDelta(t, 4.0, *delays.LeadToConverted, 1e-9)
	assert.Nil(t, delays.LeadToJunk, "a negative span is not a sample")
}

func TestFunnel_SourceDealsFollowLinkedLeadSource(t *testing.T) {
	snap := &domain.Snapshot{
		Users:   testUsers(),
		Sources: map[string]string{"WEB": "Website form", "CALL": "Inbound call"},
		Leads: []domain.Lead{
			{ID: "L1", StatusID: "CONVERTED", SourceID: "WEB", OwnerID: "1", DateCreated: ago(4)},
			{ID: "L2", StatusID: "CONVERTED", SourceID: "WEB", OwnerID: "2", DateCreated: ago(4)},
			{ID: "L3", StatusID: "CONVERTED", SourceID: "CALL", OwnerID: "2", DateCreated: ago(4)},
		},
		Deals: []domain.Deal{
			{ID: "D1", StageID: "WON", OwnerID: "1", LeadID: "L2", DateCreated: ago(2)},
			{ID: "D2", StageID: "WON", OwnerID: "1", LeadID: "L3", DateCreated: ago(2)},
		},
	}
	opts := analytics.DefaultOptions()
	opts.Owners = []string{"1"}

	report := newTestEngine().Funnel(snap, opts)

	require.Len(t, report.BySource, 1)
	web := report.BySource[0]
	assert.Equal(t, "WEB", web.Key)
	assert.Equal(t, 1, web.Leads)
	assert.Equal(t, 1, web.Won, "the linked lead is outside the owner filter but shares its source")
}

func TestCompute_Idempotent(t *testing.T) {
	engine := newTestEngine()
	snap := funnelSnapshot()

	first, err := json.Marshal(engine.Compute(snap, analytics.DefaultOptions()))
	require.NoError(t, err)
	second, err := json.Marshal(engine.Compute(snap, analytics.DefaultOptions()))
	require.NoError(t, err)

	assert.Equal(t, string(first), string(second))
}

func TestCompute_EmptySnapshot(t *testing.T) {
	engine := newTestEngine()

	report := engine.Compute(&domain.Snapshot{}, analytics.Options{})
	require.NotNil(t, report)
	assert.Equal(t, 0, report.Funnel.Leads.Total)
	assert.Equal(t, domain.PeriodAll, report.Funnel.Period.Preset)
	assert.Empty(t, report.Allocation.Scorecards)

	assert.NotPanics(t, func() { engine.Compute(nil, analytics.DefaultOptions()) })
}

func TestVerdictFor(t *testing.T) {
	assert.Equal(t, domain.VerdictGreen, analytics.VerdictFor(15, 15, 0.7))
	assert.Equal(t, domain.VerdictYellow, analytics.VerdictFor(10.5, 15, 0.7))
	assert.Equal(t, domain.VerdictRed, analytics.VerdictFor(10, 15, 0.7))
}
