package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingRefresher struct {
	runs atomic.Int32
}

func (r *countingRefresher) RefreshExpiring(ctx context.Context, now time.Time) (int, error) {
	r.runs.Add(1)
	return 0, nil
}

func TestStartRejectsBadSchedule(t *testing.T) {
	s := NewScheduler("every tuesday", &countingRefresher{})
	assert.Error(t, s.Start())
}

func TestRunOnceCallsRefresher(t *testing.T) {
	refresher := &countingRefresher{}
	s := NewScheduler("@every 1h", refresher)

	s.RunOnce()
	assert.Equal(t, int32(1), refresher.runs.Load())
}

func TestScheduledRuns(t *testing.T) {
	refresher := &countingRefresher{}
	s := NewScheduler("@every 1s", refresher)

	require.NoError(t, s.Start())
	defer s.Stop()

	assert.Eventually(t, func() bool {
		return refresher.runs.Load() >= 1
	}, 3*time.Second, 50*time.Millisecond)
}
