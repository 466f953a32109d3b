package jobs_test

import (
	"testing"
	"time"

	"github.com/salesops/crm-dashboard/internal/jobs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestScheduler_AddAndRemove(t *testing.T) {
	s := jobs.NewScheduler(zap.NewNop())

	require.NoError(t, s.AddJob("b", "0 */15 * * * *", func() {}))
	require.NoError(t, s.AddJob("a", "@every 1h", func() {}))
	assert.Equal(t, []string{"a", "b"}, s.GetJobNames())

	err := s.AddJob("a", "@every 1h", func() {})
	assert.Error(t, err, "duplicate names are rejected")

	require.NoError(t, s.RemoveJob("a"))
	assert.Equal(t, []string{"b"}, s.GetJobNames())
	assert.Error(t, s.RemoveJob("a"))
}

func TestScheduler_RejectsInvalidExpression(t *testing.T) {
	s := jobs.NewScheduler(zap.NewNop())

	err := s.AddJob("bad", "every now and then", func() {})
	assert.Error(t, err)
	assert.Empty(t, s.GetJobNames())
}

func TestScheduler_RunsJobs(t *testing.T) {
	s := jobs.NewScheduler(zap.NewNop())
	ran := make(chan struct{}, 1)

	require.NoError(t, s.AddJob("tick", "* * * * * *", func() {
		select {
		case ran <- struct{}{}:
		default:
		}
	}))

	s.Start()
	defer func() { <-s.Stop().Done() }()

	next, ok := s.NextRun("tick")
	assert.True(t, ok)
	assert.False(t, next.IsZero())

	select {
	case <-ran:
	case <-time.After(3 * time.Second):
		t.Fatal("job did not run")
	}

	_, ok = s.NextRun("missing")
	assert.False(t, ok)
}
