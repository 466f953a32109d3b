package handler_test

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/salesops/crm-dashboard/internal/analytics"
	"github.com/salesops/crm-dashboard/internal/domain"
	"github.com/salesops/crm-dashboard/internal/repository"
	"github.com/salesops/crm-dashboard/internal/service"
	"github.com/salesops/crm-dashboard/internal/testutil"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var handlerNow = time.Date(2025, time.June, 18, 15, 0, 0, 0, time.UTC)

func newDashboardService(db *gorm.DB) *service.DashboardService {
	engine := analytics.NewEngine(analytics.DefaultSettings(), analytics.WithClock(func() time.Time { return handlerNow }))
	return service.NewDashboardService(repository.NewSnapshotRepository(db), engine, analytics.DefaultOptions(), zap.NewNop())
}

func seedSnapshot(t *testing.T, db *gorm.DB) {
	t.Helper()
	ctx := context.Background()

	_, err := repository.NewUserRepository(db).UpsertBatch(ctx, []domain.User{
		{ID: "10", Name: "Alice Martin", Active: true},
		{ID: "11", Name: "Bruno Petit", Active: true},
	}, 10)
	require.NoError(t, err)

	_, err = repository.NewLeadRepository(db).UpsertBatch(ctx, []domain.Lead{
		{ID: "1", StatusID: "NEW", OwnerID: "10", DateCreated: testutil.Time(2025, time.June, 18, 9)},
		{ID: "2", StatusID: "CONVERTED", OwnerID: "11", DateCreated: testutil.Time(2025, time.May, 2, 9)},
		{ID: "3", StatusID: "JUNK", OwnerID: "10", DateCreated: testutil.Time(2024, time.December, 2, 9)},
	}, 10)
	require.NoError(t, err)

	_, err = repository.NewDealRepository(db).UpsertBatch(ctx, []domain.Deal{
		{ID: "100", StageID: "WON", OwnerID: "11", Opportunity: 1000, Currency: "EUR", LeadID: "2", DateCreated: testutil.Time(2025, time.May, 3, 9)},
	}, 10)
	require.NoError(t, err)

	_, err = repository.NewActivityRepository(db).UpsertBatch(ctx, []domain.Activity{
		{ID: "500", OwnerTypeID: 1, OwnerID: "1", TypeID: domain.ActivityTypeCall, ResponsibleID: "10", Created: testutil.Time(2025, time.June, 17, 10)},
	}, 10)
	require.NoError(t, err)
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder, target interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), target), rr.Body.String())
}
