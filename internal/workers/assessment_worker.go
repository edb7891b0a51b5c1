package workers

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"

	"meridian/internal/adapters/config"
	domain "meridian/internal/domain/assessment"
	"meridian/internal/events"
	"meridian/pkg/errors"
)

// messageSource abstracts the Kafka consumer so the worker can be tested
// without a broker.
type messageSource interface {
	ReadMessageWithShutdownCheck(ctx context.Context) (kafkago.Message, error)
}

// assessmentRunner is the slice of the assessment service the worker needs.
type assessmentRunner interface {
	Run(ctx context.Context, applicationID uuid.UUID, useAI bool) (*domain.Assessment, error)
}

// AssessmentWorker consumes application submission events and drives the
// risk-assessment service. Transient failures are retried with a fixed
// delay; applications in a non-assessable status are skipped without retry.
type AssessmentWorker struct {
	*BaseWorker
	source  messageSource
	service assessmentRunner
	useAI   bool

	retries    int
	retryDelay time.Duration
	softLimit  time.Duration
	hardLimit  time.Duration
}

// NewAssessmentWorker creates the submission consumer worker.
func NewAssessmentWorker(source messageSource, service assessmentRunner, cfg config.WorkerConfig, useAI bool) *AssessmentWorker {
	retries := cfg.AssessmentRetries
	if retries < 0 {
		retries = 0
	}

	return &AssessmentWorker{
		// Interval only throttles restarts after a consumer error;
		// Run blocks on the Kafka reader while healthy.
		BaseWorker: NewBaseWorker("assessment", 5*time.Second, cfg.AssessmentEnabled),
		source:     source,
		service:    service,
		useAI:      useAI,
		retries:    retries,
		retryDelay: cfg.AssessmentRetryDelay,
		softLimit:  cfg.AssessmentSoftLimit,
		hardLimit:  cfg.AssessmentHardLimit,
	}
}

// Run consumes submission events until the context is cancelled. A read
// error returns to the scheduler, which restarts the loop after Interval().
func (w *AssessmentWorker) Run(ctx context.Context) error {
	for {
		msg, err := w.source.ReadMessageWithShutdownCheck(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return errors.Wrap(err, "read submission event")
		}

		w.handleMessage(ctx, msg)

		if ctx.Err() != nil {
			return nil
		}
	}
}

func (w *AssessmentWorker) handleMessage(ctx context.Context, msg kafkago.Message) {
	start := time.Now()

	var event events.ApplicationSubmittedEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		w.Log().Warnw("Dropping malformed submission event",
			"key", string(msg.Key),
			"error", err,
		)
		w.RecordError(err, time.Since(start))
		return
	}

	if event.ApplicationID == uuid.Nil {
		w.Log().Warnw("Dropping submission event without application_id",
			"event_id", event.EventID,
		)
		w.RecordError(errors.Wrapf(errors.ErrInvalidInput, "missing application_id"), time.Since(start))
		return
	}

	if err := w.processApplication(ctx, event.ApplicationID); err != nil {
		w.Log().Errorw("Assessment job failed",
			"application_id", event.ApplicationID,
			"error", err,
		)
		w.RecordError(err, time.Since(start))
		return
	}

	w.RecordRun(time.Since(start))
}

// processApplication runs the assessment with job-level retries.
func (w *AssessmentWorker) processApplication(ctx context.Context, applicationID uuid.UUID) error {
	var lastErr error

	for attempt := 1; attempt <= w.retries+1; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(w.retryDelay):
			}
			w.Log().Infow("Retrying assessment",
				"application_id", applicationID,
				"attempt", attempt,
			)
		}

		err := w.runOnce(ctx, applicationID)
		if err == nil {
			return nil
		}
		if errors.Is(err, errors.ErrApplicationNotAssessable) {
			w.Log().Infow("Application not assessable, skipping",
				"application_id", applicationID,
				"error", err,
			)
			return nil
		}
		lastErr = err
	}

	return errors.Wrapf(lastErr, "assessment exhausted %d attempts", w.retries+1)
}

// runOnce executes a single attempt under the hard wall-clock limit,
// warning once the soft limit is crossed.
func (w *AssessmentWorker) runOnce(parent context.Context, applicationID uuid.UUID) error {
	ctx := parent
	if w.hardLimit > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(parent, w.hardLimit)
		defer cancel()
	}

	if w.softLimit > 0 {
		soft := time.AfterFunc(w.softLimit, func() {
			w.Log().Warnw("Assessment exceeding soft time limit",
				"application_id", applicationID,
				"soft_limit", w.softLimit,
			)
		})
		defer soft.Stop()
	}

	_, err := w.service.Run(ctx, applicationID, w.useAI)
	return err
}
