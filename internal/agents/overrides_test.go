package agents

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"meridian/internal/domain/assessment"
)

func dimResult(dimension string, score float64, success bool) assessment.DimensionResult {
	return assessment.DimensionResult{
		Dimension: dimension,
		Score:     score,
		Weight:    Weight(Dimension(dimension)),
		Success:   success,
	}
}

func pipelineResult(score float64, dims ...assessment.DimensionResult) *assessment.PipelineResult {
	return &assessment.PipelineResult{
		OverallScore:     score,
		RiskBand:         assessment.BandForScore(score),
		DimensionResults: dims,
	}
}

func TestFraudOverrideDeniesOutright(t *testing.T) {
	res := pipelineResult(85,
		dimResult(string(DimensionFraudRisk), 65, true),
	)
	res.Conditions = []string{"stale condition"}
	res.KeyConcerns = []string{"existing concern"}

	ApplyOverrides(res, strongSnapshot())

	assert.Equal(t, assessment.RecommendDeny, res.Recommendation)
	assert.Nil(t, res.Conditions)
	require.NotEmpty(t, res.KeyConcerns)
	assert.Contains(t, res.KeyConcerns[0], "Fraud screening score 65")
	assert.Equal(t, "existing concern", res.KeyConcerns[1])
}

func TestFraudOverrideIgnoresFailedAgent(t *testing.T) {
	// A crashed fraud agent carries the neutral 50, but even a high score
	// on a failed result must not trigger the absolute denial.
	res := pipelineResult(85,
		dimResult(string(DimensionFraudRisk), 70, false),
	)

	ApplyOverrides(res, strongSnapshot())

	assert.Equal(t, assessment.RecommendApprove, res.Recommendation)
}

func TestFraudExposureNeverLiftsTheAggregate(t *testing.T) {
	// Fraud scores exposure on a risk axis. Through rule-based
	// aggregation plus overrides, an applicant carrying more fraud
	// signal must always come out lower than the cleaner one.
	aggregate := func(fraudScore float64) *assessment.PipelineResult {
		res := RuleBasedAggregate([]assessment.DimensionResult{
			dimResult(string(DimensionFinancialHealth), 87, true),
			dimResult(string(DimensionFraudRisk), fraudScore, true),
		}, "")
		ApplyOverrides(res, strongSnapshot())
		return res
	}

	clean := aggregate(5)
	fraudier := aggregate(59)

	assert.Greater(t, clean.OverallScore, fraudier.OverallScore)
	assert.Equal(t, assessment.RecommendApprove, clean.Recommendation)
	assert.NotEqual(t, assessment.RecommendApprove, fraudier.Recommendation)
	assert.NotEqual(t, assessment.RecommendConditional, fraudier.Recommendation)
}

func TestHighScoreApproves(t *testing.T) {
	res := pipelineResult(84)
	ApplyOverrides(res, strongSnapshot())
	assert.Equal(t, assessment.RecommendApprove, res.Recommendation)
}

func TestHighScoreStressFailureConditions(t *testing.T) {
	res := pipelineResult(84)
	ApplyOverrides(res, stressedSnapshot())

	assert.Equal(t, assessment.RecommendConditional, res.Recommendation)
	require.Len(t, res.Conditions, 2)
	assert.Contains(t, res.Conditions[0], "stressed DTI")
	assert.Contains(t, res.Conditions[1], "Escrow")
}

func TestMediumScoreRecoveryUpgrades(t *testing.T) {
	comp := dimResult(string(DimensionCompensatingFactors), 78, true)
	comp.MitigatingFactors = []string{"Clean recent payment history shows rebuilt credit discipline"}

	res := pipelineResult(68, comp)
	ApplyOverrides(res, strongSnapshot())

	assert.Equal(t, assessment.RecommendConditional, res.Recommendation)
	assert.NotEmpty(t, res.Conditions)
}

func TestMediumScoreNoRecoveryReviews(t *testing.T) {
	comp := dimResult(string(DimensionCompensatingFactors), 78, true)
	comp.MitigatingFactors = []string{"Large down payment"}

	res := pipelineResult(68, comp)
	ApplyOverrides(res, strongSnapshot())

	assert.Equal(t, assessment.RecommendReview, res.Recommendation)
	assert.Nil(t, res.Conditions)
}

func TestMediumScoreStressFailureDenies(t *testing.T) {
	res := pipelineResult(68)
	ApplyOverrides(res, stressedSnapshot())
	assert.Equal(t, assessment.RecommendDeny, res.Recommendation)
}

func TestMediumScoreThinReservesDenies(t *testing.T) {
	snap := strongSnapshot()
	snap.FinancialInfo["liquid_assets"] = 82000.0 // under a month post-closing

	res := pipelineResult(68)
	ApplyOverrides(res, snap)
	assert.Equal(t, assessment.RecommendDeny, res.Recommendation)
}

func TestLowScoreStrongCompensatingReviews(t *testing.T) {
	res := pipelineResult(50,
		dimResult(string(DimensionCompensatingFactors), 80, true),
	)
	ApplyOverrides(res, strongSnapshot())
	assert.Equal(t, assessment.RecommendReview, res.Recommendation)
}

func TestLowScoreWeakCompensatingDenies(t *testing.T) {
	res := pipelineResult(50,
		dimResult(string(DimensionCompensatingFactors), 60, true),
	)
	ApplyOverrides(res, strongSnapshot())
	assert.Equal(t, assessment.RecommendDeny, res.Recommendation)
}

func TestCriticalScoreDenies(t *testing.T) {
	res := pipelineResult(30)
	ApplyOverrides(res, strongSnapshot())
	assert.Equal(t, assessment.RecommendDeny, res.Recommendation)
}

func TestConditionsClearedForNonConditional(t *testing.T) {
	res := pipelineResult(84)
	res.Conditions = []string{"leftover from synthesis"}

	ApplyOverrides(res, strongSnapshot())

	assert.Equal(t, assessment.RecommendApprove, res.Recommendation)
	assert.Nil(t, res.Conditions)
}

func TestHasRecoverySignal(t *testing.T) {
	tests := []struct {
		name    string
		factors []string
		want    bool
	}{
		{"rebuilt", []string{"Borrower rebuilt credit after 2019 bankruptcy"}, true},
		{"recovery", []string{"Strong credit recovery trajectory"}, true},
		{"clean recent", []string{"Clean recent payment history"}, true},
		{"rehabilitated", []string{"Rehabilitated credit profile"}, true},
		{"unrelated", []string{"High income", "Low DTI"}, false},
		{"empty", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := assessment.DimensionResult{MitigatingFactors: tt.factors}
			got := hasRecoverySignal([]assessment.DimensionResult{r})
			assert.Equal(t, tt.want, got)
		})
	}
}
