package workers

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"meridian/pkg/errors"
)

type stubWorker struct {
	*BaseWorker
	runs    int32
	runFunc func(ctx context.Context) error
}

func newStubWorker(name string, interval time.Duration, enabled bool) *stubWorker {
	return &stubWorker{
		BaseWorker: NewBaseWorker(name, interval, enabled),
	}
}

func (w *stubWorker) Run(ctx context.Context) error {
	atomic.AddInt32(&w.runs, 1)
	if w.runFunc != nil {
		return w.runFunc(ctx)
	}
	return nil
}

func (w *stubWorker) Runs() int {
	return int(atomic.LoadInt32(&w.runs))
}

func TestSchedulerRunsWorkerImmediatelyThenOnTicks(t *testing.T) {
	s := NewScheduler()
	w := newStubWorker("assessment", 50*time.Millisecond, true)
	s.RegisterWorker(w)

	require.NoError(t, s.Start(context.Background()))
	assert.True(t, s.IsRunning())

	time.Sleep(180 * time.Millisecond)
	require.NoError(t, s.Stop())
	assert.False(t, s.IsRunning())

	// One immediate run plus at least two ticks.
	assert.GreaterOrEqual(t, w.Runs(), 3)
}

func TestSchedulerSkipsDisabledWorker(t *testing.T) {
	s := NewScheduler()
	enabled := newStubWorker("enabled", 50*time.Millisecond, true)
	disabled := newStubWorker("disabled", 50*time.Millisecond, false)
	s.RegisterWorker(enabled)
	s.RegisterWorker(disabled)

	require.NoError(t, s.Start(context.Background()))
	time.Sleep(120 * time.Millisecond)
	require.NoError(t, s.Stop())

	assert.Greater(t, enabled.Runs(), 0)
	assert.Equal(t, 0, disabled.Runs())
}

func TestSchedulerSurvivesWorkerPanic(t *testing.T) {
	s := NewScheduler()
	w := newStubWorker("panicky", 40*time.Millisecond, true)
	w.runFunc = func(ctx context.Context) error {
		panic("boom")
	}
	s.RegisterWorker(w)

	require.NoError(t, s.Start(context.Background()))
	time.Sleep(150 * time.Millisecond)
	require.NoError(t, s.Stop())

	// The panic is recovered per iteration, so the loop keeps going.
	assert.GreaterOrEqual(t, w.Runs(), 2)
}

func TestSchedulerStopsOnParentContextCancel(t *testing.T) {
	s := NewScheduler()
	w := newStubWorker("assessment", 50*time.Millisecond, true)
	s.RegisterWorker(w)

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, s.Start(ctx))

	cancel()
	time.Sleep(100 * time.Millisecond)

	require.NoError(t, s.Stop())
}

func TestSchedulerRejectsDoubleStart(t *testing.T) {
	s := NewScheduler()
	s.RegisterWorker(newStubWorker("assessment", 50*time.Millisecond, true))

	require.NoError(t, s.Start(context.Background()))
	defer s.Stop()

	err := s.Start(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrInternal))
}

func TestSchedulerStopWithoutStartErrors(t *testing.T) {
	s := NewScheduler()
	err := s.Stop()
	require.Error(t, err)
}

func TestSchedulerIgnoresRegistrationAfterStart(t *testing.T) {
	s := NewScheduler()
	s.RegisterWorker(newStubWorker("first", 50*time.Millisecond, true))

	require.NoError(t, s.Start(context.Background()))
	defer s.Stop()

	late := newStubWorker("late", 50*time.Millisecond, true)
	s.RegisterWorker(late)

	assert.Len(t, s.GetWorkers(), 1)
	time.Sleep(80 * time.Millisecond)
	assert.Equal(t, 0, late.Runs())
}

func TestSchedulerGetWorkersReturnsCopy(t *testing.T) {
	s := NewScheduler()
	s.RegisterWorker(newStubWorker("a", time.Second, true))
	s.RegisterWorker(newStubWorker("b", time.Second, false))

	workers := s.GetWorkers()
	require.Len(t, workers, 2)
	assert.Equal(t, "a", workers[0].Name())
	assert.Equal(t, "b", workers[1].Name())

	workers[0] = nil
	assert.NotNil(t, s.GetWorkers()[0])
}
