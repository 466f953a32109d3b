package jobs_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/salesops/crm-dashboard/internal/domain"
	"github.com/salesops/crm-dashboard/internal/jobs"
	"github.com/salesops/crm-dashboard/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeSyncService struct {
	mu       sync.Mutex
	triggers []string
	last     *domain.SyncRun
	lastErr  error
	runErr   error
}

func (f *fakeSyncService) Run(ctx context.Context, trigger string) (*domain.SyncResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.triggers = append(f.triggers, trigger)
	if f.runErr != nil {
		return nil, f.runErr
	}
	return &domain.SyncResult{
		RunID:    "run-1",
		Entities: []domain.EntitySyncResult{{Entity: "leads", Fetched: 3, Upserted: 3}},
	}, nil
}

func (f *fakeSyncService) LastSucceeded(ctx context.Context) (*domain.SyncRun, error) {
	return f.last, f.lastErr
}

func (f *fakeSyncService) calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.triggers...)
}

func TestCRMSyncJob_Run(t *testing.T) {
	svc := &fakeSyncService{}
	job := jobs.NewCRMSyncJob(svc, zap.NewNop(), time.Minute)

	job.Run()
	assert.Equal(t, []string{service.TriggerScheduled}, svc.calls())
}

func TestCRMSyncJob_RunToleratesFailures(t *testing.T) {
	for _, err := range []error{service.ErrSyncInProgress, service.ErrCRMUnavailable} {
		svc := &fakeSyncService{runErr: err}
		job := jobs.NewCRMSyncJob(svc, zap.NewNop(), time.Minute)

		assert.NotPanics(t, job.Run)
		assert.Len(t, svc.calls(), 1)
	}
}

func TestCRMSyncJob_RunStartupSync(t *testing.T) {
	recent := time.Now().Add(-5 * time.Minute)
	old := time.Now().Add(-2 * time.Hour)

	tests := []struct {
		name    string
		last    *domain.SyncRun
		lastErr error
		wantRan bool
	}{
		{"never synced", nil, nil, true},
		{"stale data", &domain.SyncRun{FinishedAt: &old}, nil, true},
		{"fresh data", &domain.SyncRun{FinishedAt: &recent}, nil, false},
		{"history unreadable", nil, errors.New("db down"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeSyncService{last: tt.last, lastErr: tt.lastErr}
			job := jobs.NewCRMSyncJob(svc, zap.NewNop(), time.Minute)

			ran := job.RunStartupSync(jobs.DefaultStaleMaxAge)
			assert.Equal(t, tt.wantRan, ran)
			if tt.wantRan {
				assert.Equal(t, []string{service.TriggerStartup}, svc.calls())
			} else {
				assert.Empty(t, svc.calls())
			}
		})
	}
}

func TestRegisterCRMSyncJob(t *testing.T) {
	s := jobs.NewScheduler(zap.NewNop())
	svc := &fakeSyncService{}

	require.NoError(t, jobs.RegisterCRMSyncJob(s, svc, zap.NewNop(), "0 */15 * * * *", time.Minute, false))
	assert.Equal(t, []string{jobs.CRMSyncJobName}, s.GetJobNames())

	err := jobs.RegisterCRMSyncJob(s, svc, zap.NewNop(), "0 */15 * * * *", time.Minute, false)
	assert.Error(t, err)
	assert.Empty(t, svc.calls(), "no startup sync was requested")
}
