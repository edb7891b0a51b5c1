package assessment

import (
	"time"

	"github.com/google/uuid"
)

// Assessment is one risk-assessment attempt for an application. Re-running
// an assessment creates a new attempt with an incremented number; prior
// attempts are never mutated.
type Assessment struct {
	ID            uuid.UUID `db:"id"`
	ApplicationID uuid.UUID `db:"application_id"`
	AttemptNumber int       `db:"attempt_number"`
	Status        Status    `db:"status"`

	OverallScore   float64        `db:"overall_score"`
	RiskBand       RiskBand       `db:"risk_band"`
	Recommendation Recommendation `db:"recommendation"`
	Summary        string         `db:"summary"`
	Confidence     float64        `db:"confidence"`
	Conditions     []Condition    `db:"-"`

	AgentsSucceeded int   `db:"agents_succeeded"`
	AgentsFailed    int   `db:"agents_failed"`
	TotalTokens     int   `db:"total_tokens"`
	DurationMS      int64 `db:"duration_ms"`

	UsedAI bool   `db:"used_ai"`
	Error  string `db:"error"`

	StartedAt   time.Time  `db:"started_at"`
	CompletedAt *time.Time `db:"completed_at"`
}

// Status represents the attempt lifecycle state
type Status string

const (
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// RiskBand is the overall risk classification
type RiskBand string

const (
	BandLow      RiskBand = "low"
	BandMedium   RiskBand = "medium"
	BandHigh     RiskBand = "high"
	BandCritical RiskBand = "critical"
)

// IsValid checks membership in the band enumeration
func (b RiskBand) IsValid() bool {
	switch b {
	case BandLow, BandMedium, BandHigh, BandCritical:
		return true
	default:
		return false
	}
}

// BandForScore derives the risk band from an overall score.
func BandForScore(score float64) RiskBand {
	switch {
	case score >= 80:
		return BandLow
	case score >= 60:
		return BandMedium
	case score >= 40:
		return BandHigh
	default:
		return BandCritical
	}
}

// Recommendation is the pipeline's underwriting recommendation
type Recommendation string

const (
	RecommendApprove     Recommendation = "approve"
	RecommendConditional Recommendation = "conditional_approve"
	RecommendReview      Recommendation = "review"
	RecommendDeny        Recommendation = "deny"
)

// IsValid checks membership in the recommendation enumeration
func (r Recommendation) IsValid() bool {
	switch r {
	case RecommendApprove, RecommendConditional, RecommendReview, RecommendDeny:
		return true
	default:
		return false
	}
}

// Condition is one requirement attached to a conditional approval
type Condition struct {
	Condition string `json:"condition"`
	Status    string `json:"status"`
}

// ConditionStatusPending is the initial status of every attached condition.
const ConditionStatusPending = "pending"

// WrapConditions attaches the pending status to raw condition strings.
func WrapConditions(conditions []string) []Condition {
	out := make([]Condition, 0, len(conditions))
	for _, c := range conditions {
		out = append(out, Condition{Condition: c, Status: ConditionStatusPending})
	}
	return out
}
