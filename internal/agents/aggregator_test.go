package agents

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"meridian/internal/adapters/ai"
	"meridian/internal/domain/assessment"
)

func succeededResult(dimension string, score float64, positives, risks []string) assessment.DimensionResult {
	w := Weight(Dimension(dimension))
	return assessment.DimensionResult{
		Dimension:       dimension,
		Score:           score,
		Weight:          w,
		WeightedScore:   score * w,
		PositiveFactors: positives,
		RiskFactors:     risks,
		Success:         true,
	}
}

func TestAggregateValidResponse(t *testing.T) {
	gw := &stubGateway{respond: func(req ai.ChatRequest) (string, error) {
		return aggregationJSON, nil
	}}

	results := []assessment.DimensionResult{
		succeededResult(string(DimensionFinancialHealth), 85, []string{"Low DTI"}, nil),
	}
	res := NewAggregator(gw).Aggregate(context.Background(), results)

	assert.True(t, res.UsedAI)
	assert.Equal(t, 82.0, res.OverallScore)
	assert.Equal(t, assessment.BandLow, res.RiskBand)
	assert.Equal(t, assessment.RecommendApprove, res.Recommendation)
	assert.Equal(t, 0.9, res.Confidence)
	assert.Equal(t, results, res.DimensionResults)
}

func TestAggregateRepairsInvalidFields(t *testing.T) {
	gw := &stubGateway{respond: func(req ai.ChatRequest) (string, error) {
		return `{
			"overall_score": 150,
			"risk_band": "catastrophic",
			"recommendation": "shrug",
			"summary": "",
			"confidence": 1.7
		}`, nil
	}}

	res := NewAggregator(gw).Aggregate(context.Background(), nil)

	assert.Equal(t, 100.0, res.OverallScore)
	assert.Equal(t, assessment.BandLow, res.RiskBand)
	assert.Equal(t, assessment.RecommendReview, res.Recommendation)
	assert.Equal(t, 1.0, res.Confidence)
	assert.NotEmpty(t, res.Summary)
}

func TestAggregateBandFollowsScoreNotModel(t *testing.T) {
	// A high score paired with a contradictory band must resolve from
	// the score: 85 is never critical.
	gw := &stubGateway{respond: func(req ai.ChatRequest) (string, error) {
		return `{
			"overall_score": 85,
			"risk_band": "critical",
			"recommendation": "approve",
			"summary": "Strong applicant.",
			"confidence": 0.8
		}`, nil
	}}

	res := NewAggregator(gw).Aggregate(context.Background(), nil)

	assert.Equal(t, 85.0, res.OverallScore)
	assert.Equal(t, assessment.BandLow, res.RiskBand)
}

func TestAggregateFallsBackOnError(t *testing.T) {
	gw := &stubGateway{respond: func(req ai.ChatRequest) (string, error) {
		return "", assert.AnError
	}}

	results := []assessment.DimensionResult{
		succeededResult(string(DimensionPaymentHistory), 90, nil, nil),
	}
	res := NewAggregator(gw).Aggregate(context.Background(), results)

	assert.False(t, res.UsedAI)
	assert.Contains(t, res.Summary, "AI unavailable")
	assert.Equal(t, 0.5, res.Confidence)
	assert.Equal(t, 90.0, res.OverallScore)
}

func TestRuleBasedAggregate(t *testing.T) {
	results := []assessment.DimensionResult{
		succeededResult(string(DimensionFinancialHealth), 80,
			[]string{"Low DTI", "High reserves", "Third strength dropped"},
			[]string{"Minor concern"}),
		succeededResult(string(DimensionPaymentHistory), 60,
			[]string{"Mostly on time"},
			[]string{"One 30-day late", "Recent inquiry", "Third risk dropped"}),
	}

	res := RuleBasedAggregate(results, "")

	want := (80*0.15 + 60*0.12) / (0.15 + 0.12)
	assert.InDelta(t, want, res.OverallScore, 1e-9)
	assert.Equal(t, assessment.BandForScore(want), res.RiskBand)
	assert.Equal(t, 0.7, res.Confidence)
	assert.Contains(t, res.Summary, "Rule-based assessment. Score:")

	// At most two factors per dimension survive into the lists.
	assert.Equal(t, []string{"Low DTI", "High reserves", "Mostly on time"}, res.KeyStrengths)
	assert.Equal(t, []string{"Minor concern", "One 30-day late", "Recent inquiry"}, res.KeyConcerns)
}

func TestRuleBasedAggregateWithReason(t *testing.T) {
	res := RuleBasedAggregate(nil, "provider timeout")

	assert.Contains(t, res.Summary, "(AI unavailable: provider timeout)")
	assert.Equal(t, 0.5, res.Confidence)
	assert.Equal(t, 50.0, res.OverallScore)
	assert.Equal(t, assessment.BandHigh, res.RiskBand)
}

func TestRuleBasedAggregateRecommendationMapping(t *testing.T) {
	tests := []struct {
		score float64
		want  assessment.Recommendation
	}{
		{85, assessment.RecommendApprove},
		{70, assessment.RecommendReview},
		{45, assessment.RecommendReview},
		{20, assessment.RecommendDeny},
	}
	for _, tt := range tests {
		results := []assessment.DimensionResult{
			succeededResult(string(DimensionFinancialHealth), tt.score, nil, nil),
		}
		res := RuleBasedAggregate(results, "")
		assert.Equal(t, tt.want, res.Recommendation, "score %.0f", tt.score)
	}
}

func TestBuildAggregationInput(t *testing.T) {
	failed := assessment.DimensionResult{
		Dimension: string(DimensionFraudRisk),
		Score:     50,
		Weight:    Weight(DimensionFraudRisk),
	}
	results := []assessment.DimensionResult{
		succeededResult(string(DimensionFinancialHealth), 85,
			[]string{"Low DTI"}, []string{"Thin reserves"}),
		failed,
	}

	input := buildAggregationInput(results)

	assert.Contains(t, input, "### Financial Health (Weight: 15%)")
	assert.Contains(t, input, "Score: 85/100")
	assert.Contains(t, input, "Positive: Low DTI")
	assert.Contains(t, input, "Risk: Thin reserves")
	assert.Contains(t, input, "### Fraud Risk (Weight: 5%)")
	assert.Contains(t, input, "Analysis failed; neutral score 50 substituted.")
	assert.Contains(t, input, "1 of 2 dimensions analyzed successfully")
}

func TestCapList(t *testing.T) {
	require.Len(t, capList([]string{"a", "b", "c"}, 2), 2)
	assert.Len(t, capList([]string{"a"}, 5), 1)
	assert.Nil(t, capList(nil, 5))
}
