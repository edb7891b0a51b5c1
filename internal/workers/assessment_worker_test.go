package workers

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"meridian/internal/adapters/config"
	domain "meridian/internal/domain/assessment"
	"meridian/internal/events"
	"meridian/pkg/errors"
)

type fakeRunner struct {
	mu    sync.Mutex
	calls []uuid.UUID
	useAI []bool
	errs  []error
	block bool
}

func (f *fakeRunner) Run(ctx context.Context, id uuid.UUID, useAI bool) (*domain.Assessment, error) {
	f.mu.Lock()
	f.calls = append(f.calls, id)
	f.useAI = append(f.useAI, useAI)
	var err error
	if len(f.errs) > 0 {
		err = f.errs[0]
		f.errs = f.errs[1:]
	}
	block := f.block
	f.mu.Unlock()

	if block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if err != nil {
		return nil, err
	}
	return &domain.Assessment{}, nil
}

func (f *fakeRunner) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

// cancellingSource feeds a fixed batch of messages and cancels the context
// once drained, mimicking shutdown after the backlog is consumed.
type cancellingSource struct {
	msgs   []kafkago.Message
	cancel context.CancelFunc
}

func (s *cancellingSource) ReadMessageWithShutdownCheck(ctx context.Context) (kafkago.Message, error) {
	if len(s.msgs) == 0 {
		s.cancel()
		return kafkago.Message{}, ctx.Err()
	}
	m := s.msgs[0]
	s.msgs = s.msgs[1:]
	return m, nil
}

type erroringSource struct{ err error }

func (s *erroringSource) ReadMessageWithShutdownCheck(ctx context.Context) (kafkago.Message, error) {
	return kafkago.Message{}, s.err
}

func workerConfig() config.WorkerConfig {
	return config.WorkerConfig{
		AssessmentEnabled:    true,
		AssessmentRetries:    2,
		AssessmentRetryDelay: time.Millisecond,
	}
}

func submissionMessage(t *testing.T, id uuid.UUID) kafkago.Message {
	t.Helper()

	event := events.ApplicationSubmittedEvent{
		BaseEvent:     events.NewBaseEvent(events.TypeApplicationSubmitted, "intake"),
		ApplicationID: id,
	}
	payload, err := json.Marshal(event)
	require.NoError(t, err)

	return kafkago.Message{
		Key:   []byte("application:" + id.String()),
		Value: payload,
	}
}

func TestAssessmentWorkerProcessesBacklogAndStops(t *testing.T) {
	appID := uuid.New()
	runner := &fakeRunner{}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	source := &cancellingSource{
		msgs:   []kafkago.Message{submissionMessage(t, appID)},
		cancel: cancel,
	}

	worker := NewAssessmentWorker(source, runner, workerConfig(), true)

	err := worker.Run(ctx)
	require.NoError(t, err)

	require.Equal(t, 1, runner.callCount())
	assert.Equal(t, appID, runner.calls[0])
	assert.True(t, runner.useAI[0])

	health := worker.Health()
	assert.Equal(t, int64(1), health.RunCount)
	assert.Equal(t, int64(0), health.ErrorCount)
}

func TestAssessmentWorkerReadErrorReturns(t *testing.T) {
	source := &erroringSource{err: errors.Wrapf(errors.ErrUnavailable, "broker down")}
	worker := NewAssessmentWorker(source, &fakeRunner{}, workerConfig(), true)

	err := worker.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read submission event")
}

func TestAssessmentWorkerRetriesTransientFailure(t *testing.T) {
	runner := &fakeRunner{errs: []error{
		errors.Wrapf(errors.ErrUnavailable, "db gone"),
		errors.Wrapf(errors.ErrUnavailable, "db gone"),
	}}
	worker := NewAssessmentWorker(&erroringSource{}, runner, workerConfig(), false)

	err := worker.processApplication(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Equal(t, 3, runner.callCount())
	assert.False(t, runner.useAI[0])
}

func TestAssessmentWorkerExhaustsRetries(t *testing.T) {
	cause := errors.Wrapf(errors.ErrAssessmentFailed, "persist failed")
	runner := &fakeRunner{errs: []error{cause, cause, cause}}
	worker := NewAssessmentWorker(&erroringSource{}, runner, workerConfig(), true)

	err := worker.processApplication(context.Background(), uuid.New())
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrAssessmentFailed))
	assert.Contains(t, err.Error(), "exhausted 3 attempts")
	assert.Equal(t, 3, runner.callCount())
}

func TestAssessmentWorkerSkipsUnassessableWithoutRetry(t *testing.T) {
	runner := &fakeRunner{errs: []error{
		errors.Wrapf(errors.ErrApplicationNotAssessable, "status draft"),
	}}
	worker := NewAssessmentWorker(&erroringSource{}, runner, workerConfig(), true)

	err := worker.processApplication(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Equal(t, 1, runner.callCount())
}

func TestAssessmentWorkerDropsMalformedEvent(t *testing.T) {
	runner := &fakeRunner{}
	worker := NewAssessmentWorker(&erroringSource{}, runner, workerConfig(), true)

	worker.handleMessage(context.Background(), kafkago.Message{Value: []byte("not json")})

	assert.Equal(t, 0, runner.callCount())
	assert.Equal(t, int64(1), worker.Health().ErrorCount)
}

func TestAssessmentWorkerDropsEventWithoutApplicationID(t *testing.T) {
	runner := &fakeRunner{}
	worker := NewAssessmentWorker(&erroringSource{}, runner, workerConfig(), true)

	worker.handleMessage(context.Background(), submissionMessage(t, uuid.Nil))

	assert.Equal(t, 0, runner.callCount())
	assert.Equal(t, int64(1), worker.Health().ErrorCount)
}

func TestAssessmentWorkerHardLimitCancelsAttempt(t *testing.T) {
	runner := &fakeRunner{block: true}
	cfg := workerConfig()
	cfg.AssessmentRetries = 0
	cfg.AssessmentHardLimit = 20 * time.Millisecond
	worker := NewAssessmentWorker(&erroringSource{}, runner, cfg, true)

	start := time.Now()
	err := worker.processApplication(context.Background(), uuid.New())
	require.Error(t, err)
	assert.Less(t, time.Since(start), 2*time.Second)
	assert.Equal(t, 1, runner.callCount())
}
