package analytics_test

import (
	"time"

	"github.com/salesops/crm-dashboard/internal/analytics"
	"github.com/salesops/crm-dashboard/internal/domain"
)

// fixedNow is a Wednesday.
var fixedNow = time.Date(2025, time.June, 18, 12, 0, 0, 0, time.UTC)

func ago(days float64) *time.Time {
	t := fixedNow.Add(-time.Duration(days * float64(24*time.Hour)))
	return &t
}

func after(t *time.Time, d time.Duration) *time.Time {
	v := t.Add(d)
	return &v
}

func newTestEngine() *analytics.Engine {
	return analytics.NewEngine(analytics.DefaultSettings(), analytics.WithClock(func() time.Time { return fixedNow }))
}

func testUsers() []domain.User {
	return []domain.User{
		{ID: "1", Name: "Alice", LastName: "Martin", Active: true},
		{ID: "2", Name: "Bob", LastName: "Durand", Active: true},
		{ID: "9", Name: "Test", LastName: "Account", Active: true},
	}
}

func findOwnerAlerts(groups []domain.OwnerAlerts, id string) *domain.OwnerAlerts {
	for i := range groups {
		if groups[i].OwnerID == id {
			return &groups[i]
		}
	}
	return nil
}

func alertIDs(items []domain.AlertItem) []string {
	ids := make([]string, len(items))
	for i, it := range items {
		ids[i] = it.ID
	}
	return ids
}

func auditIDs(items []domain.AuditItem) []string {
	ids := make([]string, len(items))
	for i, it := range items {
		ids[i] = it.ID
	}
	return ids
}

func hotDealIDs(items []domain.HotDeal) []string {
	ids := make([]string, len(items))
	for i, it := range items {
		ids[i] = it.ID
	}
	return ids
}
