package events

import (
	"time"

	"github.com/google/uuid"

	"meridian/internal/domain/assessment"
)

// Event type identifiers carried in every payload.
const (
	TypeApplicationSubmitted = "application.submitted"

	TypeAssessmentStarted   = "assessment.started"
	TypeAssessmentProgress  = "assessment.progress"
	TypeAssessmentCompleted = "assessment.completed"
	TypeAssessmentFailed    = "assessment.failed"
	TypeServicerDecision    = "servicer.decision_ready"
)

// BaseEvent carries the fields common to every published event.
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Source    string    `json:"source"`
	Timestamp time.Time `json:"timestamp"`
}

// NewBaseEvent fills the envelope for an event type.
func NewBaseEvent(eventType, source string) BaseEvent {
	return BaseEvent{
		EventID:   uuid.NewString(),
		EventType: eventType,
		Source:    source,
		Timestamp: time.Now().UTC(),
	}
}

// ApplicationSubmittedEvent is produced by the intake system when an
// application finishes submission and is ready for risk assessment.
type ApplicationSubmittedEvent struct {
	BaseEvent
	ApplicationID uuid.UUID `json:"application_id"`
}

// AssessmentStartedEvent marks the beginning of an assessment attempt.
type AssessmentStartedEvent struct {
	BaseEvent
	ApplicationID uuid.UUID `json:"application_id"`
	AssessmentID  uuid.UUID `json:"assessment_id"`
	AttemptNumber int       `json:"attempt_number"`
	UseAI         bool      `json:"use_ai"`
}

// AssessmentProgressEvent reports one scored dimension.
type AssessmentProgressEvent struct {
	BaseEvent
	ApplicationID uuid.UUID `json:"application_id"`
	AssessmentID  uuid.UUID `json:"assessment_id"`
	Dimension     string    `json:"dimension"`
	Score         float64   `json:"score"`
	Success       bool      `json:"success"`
}

// AssessmentCompletedEvent carries the final verdict of an attempt.
type AssessmentCompletedEvent struct {
	BaseEvent
	ApplicationID   uuid.UUID                 `json:"application_id"`
	AssessmentID    uuid.UUID                 `json:"assessment_id"`
	OverallScore    float64                   `json:"overall_score"`
	RiskBand        assessment.RiskBand       `json:"risk_band"`
	Recommendation  assessment.Recommendation `json:"recommendation"`
	AgentsSucceeded int                       `json:"agents_succeeded"`
	AgentsFailed    int                       `json:"agents_failed"`
	DurationMS      int64                     `json:"duration_ms"`
	UsedAI          bool                      `json:"used_ai"`
}

// AssessmentFailedEvent marks an attempt that could not complete.
type AssessmentFailedEvent struct {
	BaseEvent
	ApplicationID uuid.UUID `json:"application_id"`
	AssessmentID  uuid.UUID `json:"assessment_id"`
	AttemptNumber int       `json:"attempt_number"`
	Error         string    `json:"error"`
}

// ServicerNotificationEvent tells downstream loan servicing systems that a
// decision is ready for review.
type ServicerNotificationEvent struct {
	BaseEvent
	ApplicationID  uuid.UUID                 `json:"application_id"`
	AssessmentID   uuid.UUID                 `json:"assessment_id"`
	OverallScore   float64                   `json:"overall_score"`
	RiskBand       assessment.RiskBand       `json:"risk_band"`
	Recommendation assessment.Recommendation `json:"recommendation"`
	Summary        string                    `json:"summary"`
	Conditions     []string                  `json:"conditions,omitempty"`
}
