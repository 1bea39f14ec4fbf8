package scheduler

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"wedding-booking/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeRunner struct {
	calls   atomic.Int32
	drained atomic.Int32
	release chan struct{}
	started chan struct{}
	err     error
	panics  bool

	mu         sync.Mutex
	ctxErrSeen error
}

func (f *fakeRunner) RunCycle(ctx context.Context) ([]usecase.CheckReport, error) {
	f.calls.Add(1)
	if f.started != nil {
		f.started <- struct{}{}
	}
	if f.release != nil {
		<-f.release
	}
	f.mu.Lock()
	f.ctxErrSeen = ctx.Err()
	f.mu.Unlock()
	if f.panics {
		panic("boom")
	}
	return []usecase.CheckReport{{Check: usecase.CheckDepositOverdue, Processed: 1}}, f.err
}

func (f *fakeRunner) Drain() { f.drained.Add(1) }

// newManual returns a scheduler that only runs cycles when told to.
func newManual(runner CycleRunner, interval time.Duration) *Scheduler {
	s := New(runner, interval, zap.NewNop())
	s.runOnStart = false
	return s
}

func TestScheduler_RunsOnceAtStart(t *testing.T) {
	runner := &fakeRunner{}
	s := New(runner, time.Hour, zap.NewNop())

	s.Start(t.Context())
	s.Stop()

	assert.Equal(t, int32(1), runner.calls.Load())
	require.NotNil(t, s.Status().LastCycle)
	assert.Equal(t, "startup", s.Status().LastCycle.Trigger)
}

func TestScheduler_StartupFailureKeepsTicking(t *testing.T) {
	runner := &fakeRunner{err: errors.New("db down")}
	s := New(runner, 10*time.Millisecond, zap.NewNop())

	s.Start(t.Context())
	defer s.Stop()

	assert.Eventually(t, func() bool { return runner.calls.Load() >= 3 }, time.Second, 5*time.Millisecond)
}

func TestScheduler_StartTwice(t *testing.T) {
	s := newManual(&fakeRunner{}, time.Hour)

	assert.True(t, s.Start(t.Context()))
	assert.False(t, s.Start(t.Context()))
	assert.True(t, s.Running())

	s.Stop()
	assert.False(t, s.Running())

	// restartable after stop
	assert.True(t, s.Start(t.Context()))
	s.Stop()
}

func TestScheduler_RunsOnInterval(t *testing.T) {
	runner := &fakeRunner{}
	s := newManual(runner, 10*time.Millisecond)

	s.Start(t.Context())
	defer s.Stop()

	assert.Eventually(t, func() bool { return runner.calls.Load() >= 2 }, time.Second, 5*time.Millisecond)
}

func TestScheduler_TriggerNow(t *testing.T) {
	runner := &fakeRunner{}
	s := newManual(runner, time.Hour)

	assert.ErrorIs(t, s.TriggerNow(), ErrNotRunning)

	s.Start(t.Context())
	require.NoError(t, s.TriggerNow())
	s.Stop()

	assert.Equal(t, int32(1), runner.calls.Load())
	assert.Equal(t, int32(1), runner.drained.Load())

	st := s.Status()
	require.NotNil(t, st.LastCycle)
	assert.Equal(t, "manual", st.LastCycle.Trigger)
	assert.Len(t, st.LastCycle.Reports, 1)
	assert.NoError(t, st.LastCycle.Err)
}

func TestScheduler_OverlappingTriggerIsSkipped(t *testing.T) {
	runner := &fakeRunner{release: make(chan struct{}), started: make(chan struct{}, 1)}
	s := newManual(runner, time.Hour)
	s.Start(t.Context())

	require.NoError(t, s.TriggerNow())
	<-runner.started

	assert.ErrorIs(t, s.TriggerNow(), ErrBusy)
	assert.True(t, s.Status().Busy)

	close(runner.release)
	s.Stop()

	assert.Equal(t, int32(1), runner.calls.Load())
	assert.False(t, s.Status().Busy)
}

func TestScheduler_StopWaitsForInFlightCycle(t *testing.T) {
	runner := &fakeRunner{release: make(chan struct{}), started: make(chan struct{}, 1)}
	s := newManual(runner, time.Hour)

	ctx, cancel := context.WithCancel(t.Context())
	s.Start(ctx)
	require.NoError(t, s.TriggerNow())
	<-runner.started

	stopped := make(chan struct{})
	go func() {
		cancel()
		s.Stop()
		close(stopped)
	}()

	select {
	case <-stopped:
		t.Fatal("Stop returned while a cycle was still running")
	case <-time.After(50 * time.Millisecond):
	}

	close(runner.release)
	<-stopped

	runner.mu.Lock()
	defer runner.mu.Unlock()
	assert.NoError(t, runner.ctxErrSeen, "cycle context must not be cancelled by shutdown")
	assert.NotNil(t, s.Status().LastCycle)
}

func TestScheduler_CycleErrorsAndPanicsAreRecorded(t *testing.T) {
	t.Run("error", func(t *testing.T) {
		runner := &fakeRunner{err: errors.New("check failed")}
		s := newManual(runner, time.Hour)
		s.Start(t.Context())
		require.NoError(t, s.TriggerNow())
		s.Stop()

		assert.ErrorContains(t, s.Status().LastCycle.Err, "check failed")
	})

	t.Run("panic", func(t *testing.T) {
		runner := &fakeRunner{panics: true}
		s := newManual(runner, time.Hour)
		s.Start(t.Context())
		require.NoError(t, s.TriggerNow())
		s.Stop()

		assert.ErrorContains(t, s.Status().LastCycle.Err, "panicked")

		// the run lock was released
		s.Start(t.Context())
		assert.NoError(t, s.TriggerNow())
		s.Stop()
	})
}
