package assessment

import (
	"sort"

	"github.com/google/uuid"
)

// DimensionResult is the output of exactly one scoring agent for one risk
// dimension. Immutable once produced.
type DimensionResult struct {
	Dimension string `json:"dimension"`
	AgentName string `json:"agent_name"`

	Score         float64 `json:"score"`  // clamped 0-100
	Weight        float64 `json:"weight"` // 0.0-1.0, from the fixed weight table
	WeightedScore float64 `json:"weighted_score"`

	PositiveFactors   []string `json:"positive_factors"`
	RiskFactors       []string `json:"risk_factors"`
	MitigatingFactors []string `json:"mitigating_factors"`
	Explanation       string   `json:"explanation"`

	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`

	TokensUsed int   `json:"tokens_used"`
	LatencyMS  int64 `json:"latency_ms"`
}

// NeutralScore substitutes for a dimension that could not be scored.
const NeutralScore = 50.0

// ClampScore bounds a score to [0, 100].
func ClampScore(score float64) float64 {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// SortResults orders dimension results by dimension name so aggregation and
// storage are invariant to agent completion order.
func SortResults(results []DimensionResult) {
	sort.Slice(results, func(i, j int) bool {
		return results[i].Dimension < results[j].Dimension
	})
}

// FraudRiskDimension is the one dimension scored on a risk axis: higher
// means more fraud signal, not more safety. Its raw score drives the fraud
// override and is persisted as-is.
const FraudRiskDimension = "fraud_risk"

// SafetyScore maps a dimension score onto the safety axis. Fraud risk is
// flipped (100 - score) so a fraudier applicant never averages higher;
// every other dimension already scores safety directly.
func SafetyScore(r DimensionResult) float64 {
	if r.Dimension == FraudRiskDimension {
		return 100 - r.Score
	}
	return r.Score
}

// WeightedAverage computes the weighted mean safety score over succeeded
// results only. Returns 50 when no result succeeded.
func WeightedAverage(results []DimensionResult) float64 {
	var sum, weights float64
	for _, r := range results {
		if !r.Success {
			continue
		}
		sum += SafetyScore(r) * r.Weight
		weights += r.Weight
	}
	if weights == 0 {
		return NeutralScore
	}
	return ClampScore(sum / weights)
}

// FindDimension returns the result for a named dimension, nil if absent.
func FindDimension(results []DimensionResult, dimension string) *DimensionResult {
	for i := range results {
		if results[i].Dimension == dimension {
			return &results[i]
		}
	}
	return nil
}

// PipelineResult is the aggregate output of one pipeline run
type PipelineResult struct {
	OverallScore   float64        `json:"overall_score"`
	RiskBand       RiskBand       `json:"risk_band"`
	Recommendation Recommendation `json:"recommendation"`
	Summary        string         `json:"summary"`
	Confidence     float64        `json:"confidence"`
	KeyStrengths   []string       `json:"key_strengths"`
	KeyConcerns    []string       `json:"key_concerns"`
	Conditions     []string       `json:"conditions"`

	DimensionResults []DimensionResult `json:"dimension_results"`

	AgentsSucceeded int   `json:"agents_succeeded"`
	AgentsFailed    int   `json:"agents_failed"`
	TotalTokens     int   `json:"total_tokens"`
	DurationMS      int64 `json:"duration_ms"`

	UsedAI bool `json:"used_ai"`
}

// DimensionScore is the persisted row form of a DimensionResult
type DimensionScore struct {
	ID           uuid.UUID `db:"id"`
	AssessmentID uuid.UUID `db:"assessment_id"`
	Dimension    string    `db:"dimension"`
	AgentName    string    `db:"agent_name"`

	Score         float64 `db:"score"`
	Weight        float64 `db:"weight"`
	WeightedScore float64 `db:"weighted_score"`

	PositiveFactors   []string `db:"-"`
	RiskFactors       []string `db:"-"`
	MitigatingFactors []string `db:"-"`
	Explanation       string   `db:"explanation"`

	Success bool   `db:"success"`
	Error   string `db:"error"`

	TokensUsed int   `db:"tokens_used"`
	LatencyMS  int64 `db:"latency_ms"`
}

// ToScore converts a pipeline result row for persistence.
func (r DimensionResult) ToScore(assessmentID uuid.UUID) DimensionScore {
	return DimensionScore{
		ID:                uuid.New(),
		AssessmentID:      assessmentID,
		Dimension:         r.Dimension,
		AgentName:         r.AgentName,
		Score:             r.Score,
		Weight:            r.Weight,
		WeightedScore:     r.WeightedScore,
		PositiveFactors:   r.PositiveFactors,
		RiskFactors:       r.RiskFactors,
		MitigatingFactors: r.MitigatingFactors,
		Explanation:       r.Explanation,
		Success:           r.Success,
		Error:             r.Error,
		TokensUsed:        r.TokensUsed,
		LatencyMS:         r.LatencyMS,
	}
}
