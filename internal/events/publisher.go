package events

import (
	"context"

	"github.com/google/uuid"

	"meridian/internal/adapters/kafka"
	"meridian/internal/domain/assessment"
	"meridian/pkg/errors"
	"meridian/pkg/logger"
)

const sourceName = "risk_pipeline"

// producer is the slice of the Kafka adapter the publisher needs.
type producer interface {
	Publish(ctx context.Context, topic string, key string, event interface{}) error
}

// Publisher emits assessment lifecycle events to Kafka. Messages for the
// same application share a key so consumers see them in order.
type Publisher struct {
	producer producer
	log      *logger.Logger
}

func NewPublisher(p *kafka.Producer) *Publisher {
	return &Publisher{
		producer: p,
		log:      logger.Get().With("component", "event_publisher"),
	}
}

func newPublisherWith(p producer) *Publisher {
	return &Publisher{producer: p, log: logger.Get().With("component", "event_publisher")}
}

// PublishAssessmentStarted emits the start of an attempt.
func (p *Publisher) PublishAssessmentStarted(ctx context.Context, applicationID, assessmentID uuid.UUID, attempt int, useAI bool) error {
	event := AssessmentStartedEvent{
		BaseEvent:     NewBaseEvent(TypeAssessmentStarted, sourceName),
		ApplicationID: applicationID,
		AssessmentID:  assessmentID,
		AttemptNumber: attempt,
		UseAI:         useAI,
	}
	return p.publish(ctx, kafka.TopicAssessmentStarted, applicationID, event)
}

// PublishAssessmentProgress emits one scored dimension.
func (p *Publisher) PublishAssessmentProgress(ctx context.Context, applicationID, assessmentID uuid.UUID, result assessment.DimensionResult) error {
	event := AssessmentProgressEvent{
		BaseEvent:     NewBaseEvent(TypeAssessmentProgress, sourceName),
		ApplicationID: applicationID,
		AssessmentID:  assessmentID,
		Dimension:     result.Dimension,
		Score:         result.Score,
		Success:       result.Success,
	}
	return p.publish(ctx, kafka.TopicAssessmentProgress, applicationID, event)
}

// PublishAssessmentCompleted emits the final verdict.
func (p *Publisher) PublishAssessmentCompleted(ctx context.Context, applicationID, assessmentID uuid.UUID, res *assessment.PipelineResult) error {
	event := AssessmentCompletedEvent{
		BaseEvent:       NewBaseEvent(TypeAssessmentCompleted, sourceName),
		ApplicationID:   applicationID,
		AssessmentID:    assessmentID,
		OverallScore:    res.OverallScore,
		RiskBand:        res.RiskBand,
		Recommendation:  res.Recommendation,
		AgentsSucceeded: res.AgentsSucceeded,
		AgentsFailed:    res.AgentsFailed,
		DurationMS:      res.DurationMS,
		UsedAI:          res.UsedAI,
	}
	return p.publish(ctx, kafka.TopicAssessmentCompleted, applicationID, event)
}

// PublishAssessmentFailed emits an attempt that errored out.
func (p *Publisher) PublishAssessmentFailed(ctx context.Context, applicationID, assessmentID uuid.UUID, attempt int, cause string) error {
	event := AssessmentFailedEvent{
		BaseEvent:     NewBaseEvent(TypeAssessmentFailed, sourceName),
		ApplicationID: applicationID,
		AssessmentID:  assessmentID,
		AttemptNumber: attempt,
		Error:         cause,
	}
	return p.publish(ctx, kafka.TopicAssessmentCompleted, applicationID, event)
}

// PublishServicerNotification tells the servicing side a decision is ready.
func (p *Publisher) PublishServicerNotification(ctx context.Context, applicationID, assessmentID uuid.UUID, res *assessment.PipelineResult) error {
	event := ServicerNotificationEvent{
		BaseEvent:      NewBaseEvent(TypeServicerDecision, sourceName),
		ApplicationID:  applicationID,
		AssessmentID:   assessmentID,
		OverallScore:   res.OverallScore,
		RiskBand:       res.RiskBand,
		Recommendation: res.Recommendation,
		Summary:        res.Summary,
		Conditions:     res.Conditions,
	}
	return p.publish(ctx, kafka.TopicServicerNotifications, applicationID, event)
}

func (p *Publisher) publish(ctx context.Context, topic string, applicationID uuid.UUID, event interface{}) error {
	key := "application:" + applicationID.String()
	if err := p.producer.Publish(ctx, topic, key, event); err != nil {
		p.log.Errorw("Failed to publish event", "topic", topic, "key", key, "error", err)
		return errors.Wrap(err, "send to kafka")
	}
	p.log.Debugw("Event published", "topic", topic, "key", key)
	return nil
}
