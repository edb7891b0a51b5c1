package assessment

import (
	"context"
	"time"

	"github.com/google/uuid"

	"meridian/internal/domain/application"
	domain "meridian/internal/domain/assessment"
	"meridian/internal/domain/creditreport"
	"meridian/internal/metrics"
	"meridian/pkg/errors"
	"meridian/pkg/logger"
)

// maxStoredError bounds the failure message persisted with an attempt.
const maxStoredError = 500

// BureauPuller produces a credit report for an application snapshot.
type BureauPuller interface {
	PullReport(snap *application.Snapshot) (*creditreport.Report, error)
}

// ReportCache holds pulled reports between retried attempts.
type ReportCache interface {
	Get(ctx context.Context, applicationID uuid.UUID) (*creditreport.Report, error)
	Save(ctx context.Context, report *creditreport.Report) error
}

// PipelineRunner executes the multi-dimensional risk pipeline.
type PipelineRunner interface {
	Run(ctx context.Context, snap *application.Snapshot, report *creditreport.Report, useAI bool) *domain.PipelineResult
}

// EventPublisher emits assessment lifecycle events.
type EventPublisher interface {
	PublishAssessmentStarted(ctx context.Context, applicationID, assessmentID uuid.UUID, attempt int, useAI bool) error
	PublishAssessmentProgress(ctx context.Context, applicationID, assessmentID uuid.UUID, result domain.DimensionResult) error
	PublishAssessmentCompleted(ctx context.Context, applicationID, assessmentID uuid.UUID, res *domain.PipelineResult) error
	PublishAssessmentFailed(ctx context.Context, applicationID, assessmentID uuid.UUID, attempt int, cause string) error
	PublishServicerNotification(ctx context.Context, applicationID, assessmentID uuid.UUID, res *domain.PipelineResult) error
}

// Service orchestrates one assessment attempt end to end: snapshot, bureau
// pull, pipeline run, persistence and event emission.
type Service struct {
	apps        application.Repository
	reports     creditreport.Repository
	assessments domain.Repository
	bureau      BureauPuller
	cache       ReportCache
	pipeline    PipelineRunner
	publisher   EventPublisher
	log         *logger.Logger
}

// NewService creates a new assessment service. cache and publisher may be
// nil when Redis or Kafka is not configured.
func NewService(
	apps application.Repository,
	reports creditreport.Repository,
	assessments domain.Repository,
	bureau BureauPuller,
	cache ReportCache,
	pipeline PipelineRunner,
	publisher EventPublisher,
) *Service {
	return &Service{
		apps:        apps,
		reports:     reports,
		assessments: assessments,
		bureau:      bureau,
		cache:       cache,
		pipeline:    pipeline,
		publisher:   publisher,
		log:         logger.Get().With("component", "assessment_service"),
	}
}

// Run executes one assessment attempt for an application. Bureau failures
// degrade to a reportless run; only load, persistence, and snapshot
// failures abort the attempt.
func (s *Service) Run(ctx context.Context, applicationID uuid.UUID, useAI bool) (*domain.Assessment, error) {
	app, err := s.apps.GetByID(ctx, applicationID)
	if err != nil {
		return nil, errors.Wrapf(err, "load application %s", applicationID)
	}
	if !app.Status.Assessable() {
		return nil, errors.Wrapf(errors.ErrApplicationNotAssessable, "application %s in status %s", applicationID, app.Status)
	}

	docs, err := s.apps.ListDocumentSummaries(ctx, applicationID)
	if err != nil {
		s.log.Warnw("failed to load document summaries, assessing without them",
			"application_id", applicationID, "error", err)
		docs = nil
	}

	snap, err := app.Snapshot(docs)
	if err != nil {
		return nil, errors.Wrapf(err, "build snapshot for application %s", applicationID)
	}

	attempt := &domain.Assessment{
		ID:            uuid.New(),
		ApplicationID: applicationID,
		StartedAt:     time.Now().UTC(),
	}
	if err := s.assessments.CreateAttempt(ctx, attempt); err != nil {
		return nil, err
	}

	if s.publisher != nil {
		if err := s.publisher.PublishAssessmentStarted(ctx, applicationID, attempt.ID, attempt.AttemptNumber, useAI); err != nil {
			s.log.Warnw("failed to publish started event", "error", err)
		}
	}

	report := s.obtainReport(ctx, snap)
	res := s.pipeline.Run(ctx, snap, report, useAI)

	if s.publisher != nil {
		for _, r := range res.DimensionResults {
			if err := s.publisher.PublishAssessmentProgress(ctx, applicationID, attempt.ID, r); err != nil {
				s.log.Warnw("failed to publish progress event", "dimension", r.Dimension, "error", err)
				break
			}
		}
	}

	if err := s.persist(ctx, app, attempt, res); err != nil {
		metrics.RecordAssessment(0, "", "", 0, err)
		return nil, s.failAttempt(ctx, attempt, err)
	}
	metrics.RecordAssessment(res.OverallScore, string(res.Recommendation), string(res.RiskBand),
		time.Duration(res.DurationMS)*time.Millisecond, nil)

	if s.publisher != nil {
		if err := s.publisher.PublishAssessmentCompleted(ctx, applicationID, attempt.ID, res); err != nil {
			s.log.Warnw("failed to publish completed event", "error", err)
		}
		if err := s.publisher.PublishServicerNotification(ctx, applicationID, attempt.ID, res); err != nil {
			s.log.Warnw("failed to publish servicer notification", "error", err)
		}
	}

	return attempt, nil
}

// obtainReport returns the cached report for the application, pulls a fresh
// one when none is cached, and returns nil when the bureau is unreachable.
// A missing report never fails the attempt.
func (s *Service) obtainReport(ctx context.Context, snap *application.Snapshot) *creditreport.Report {
	if s.cache != nil {
		if report, err := s.cache.Get(ctx, snap.ApplicationID); err == nil {
			s.log.Debugw("using cached credit report",
				"application_id", snap.ApplicationID, "pulled_at", report.PulledAt)
			metrics.RecordBureauPull(true, nil)
			return report
		} else if !errors.Is(err, errors.ErrNotFound) {
			s.log.Warnw("credit report cache read failed", "error", err)
		}
	}

	report, err := s.bureau.PullReport(snap)
	metrics.RecordBureauPull(false, err)
	if err != nil {
		s.log.Warnw("credit bureau pull failed, assessing without bureau data",
			"application_id", snap.ApplicationID, "error", err)
		return nil
	}

	if err := s.reports.Create(ctx, report); err != nil {
		s.log.Warnw("failed to persist credit report", "error", err)
	}
	if s.cache != nil {
		if err := s.cache.Save(ctx, report); err != nil {
			s.log.Warnw("failed to cache credit report", "error", err)
		}
	}
	return report
}

// persist writes the attempt outcome, its dimension rows, and moves a
// freshly submitted application into review.
func (s *Service) persist(ctx context.Context, app *application.Application, attempt *domain.Assessment, res *domain.PipelineResult) error {
	completedAt := time.Now().UTC()
	attempt.Status = domain.StatusCompleted
	attempt.OverallScore = res.OverallScore
	attempt.RiskBand = res.RiskBand
	attempt.Recommendation = res.Recommendation
	attempt.Summary = res.Summary
	attempt.Confidence = res.Confidence
	attempt.Conditions = domain.WrapConditions(res.Conditions)
	attempt.AgentsSucceeded = res.AgentsSucceeded
	attempt.AgentsFailed = res.AgentsFailed
	attempt.TotalTokens = res.TotalTokens
	attempt.DurationMS = res.DurationMS
	attempt.UsedAI = res.UsedAI
	attempt.CompletedAt = &completedAt

	if err := s.assessments.Complete(ctx, attempt); err != nil {
		return errors.Wrap(err, "complete assessment")
	}

	scores := make([]domain.DimensionScore, 0, len(res.DimensionResults))
	for _, r := range res.DimensionResults {
		scores = append(scores, r.ToScore(attempt.ID))
	}
	if err := s.assessments.SaveDimensionScores(ctx, scores); err != nil {
		return errors.Wrap(err, "save dimension scores")
	}

	if app.Status == application.StatusSubmitted {
		if err := s.apps.UpdateStatus(ctx, app.ID, application.StatusUnderReview); err != nil {
			return errors.Wrap(err, "move application to review")
		}
	}
	return nil
}

// failAttempt records a pipeline-level failure and hands the original
// error back to the caller.
func (s *Service) failAttempt(ctx context.Context, attempt *domain.Assessment, cause error) error {
	msg := errors.Truncate(cause, maxStoredError)
	if err := s.assessments.MarkFailed(ctx, attempt.ID, msg); err != nil {
		s.log.Errorw("failed to mark assessment failed",
			"assessment_id", attempt.ID, "error", err)
	}
	if s.publisher != nil {
		if err := s.publisher.PublishAssessmentFailed(ctx, attempt.ApplicationID, attempt.ID, attempt.AttemptNumber, msg); err != nil {
			s.log.Warnw("failed to publish failure event", "error", err)
		}
	}
	return errors.Wrap(cause, "assessment attempt failed")
}
