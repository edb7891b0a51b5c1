package agents

import (
	"context"
	"fmt"
	"strings"

	"meridian/internal/adapters/ai"
	"meridian/internal/domain/assessment"
	"meridian/pkg/errors"
	"meridian/pkg/logger"
)

const aggregationTemperature = 0.2
const aggregationMaxTokens = 3072

const aggregationSystemPrompt = `You are a senior mortgage risk assessment AI. You receive the results of
specialist risk analyses, each covering one dimension of a mortgage
application, and synthesize them into a final underwriting assessment.

You must respond with valid JSON matching this schema:
{
  "overall_score": <number 0-100>,
  "risk_band": "<low|medium|high|critical>",
  "recommendation": "<approve|conditional_approve|review|deny>",
  "summary": "<2-4 sentence narrative of the overall risk picture>",
  "key_strengths": [<top 3-5 strengths across all dimensions>],
  "key_concerns": [<top 3-5 concerns across all dimensions>],
  "conditions": [<conditions to attach if recommending conditional_approve, else empty>],
  "confidence": <number 0.0-1.0>

}

Risk band thresholds:
- low: overall score 80+
- medium: 60-79
- high: 40-59
- critical: below 40

The fraud_risk dimension scores fraud exposure, where higher means more
fraud signal; the weighted average already accounts for this. Every other
dimension scores safety directly.

Anchor your overall score on the weighted average provided. Deviate only
when cross-dimension patterns justify it, and explain the deviation in
the summary. Failed dimensions were scored neutrally; weigh the remaining
evidence accordingly and reduce confidence.`

// synthesisResponse is the model's aggregation output.
type synthesisResponse struct {
	OverallScore   float64  `json:"overall_score"`
	RiskBand       string   `json:"risk_band"`
	Recommendation string   `json:"recommendation"`
	Summary        string   `json:"summary"`
	KeyStrengths   []string `json:"key_strengths"`
	KeyConcerns    []string `json:"key_concerns"`
	Conditions     []string `json:"conditions"`
	Confidence     float64  `json:"confidence"`
}

// Aggregator folds per-dimension results into one assessment, through the
// model when available and through the weighted rule path when not.
type Aggregator struct {
	gateway ChatCaller
	log     *logger.Logger
}

func NewAggregator(gateway ChatCaller) *Aggregator {
	return &Aggregator{
		gateway: gateway,
		log:     logger.Get().With("component", "aggregator"),
	}
}

// Aggregate synthesizes the dimension results with the model, falling back
// to the rule-based path when the call or its output is unusable.
func (a *Aggregator) Aggregate(ctx context.Context, results []assessment.DimensionResult) *assessment.PipelineResult {
	req := ai.ChatRequest{
		Messages: []ai.Message{
			{Role: ai.RoleSystem, Content: aggregationSystemPrompt},
			{Role: ai.RoleUser, Content: buildAggregationInput(results)},
		},
		Temperature: aggregationTemperature,
		MaxTokens:   aggregationMaxTokens,
	}

	var parsed synthesisResponse
	if _, err := a.gateway.CallJSON(ctx, req, &parsed); err != nil {
		a.log.Warnw("aggregation synthesis failed, using rule-based fallback", "error", err)
		return RuleBasedAggregate(results, errors.Truncate(err, 200))
	}

	return validateSynthesis(parsed, results)
}

// buildAggregationInput renders every dimension result for the synthesis
// prompt, with the weighted average stated up front as the anchor.
func buildAggregationInput(results []assessment.DimensionResult) string {
	var b strings.Builder

	avg := assessment.WeightedAverage(results)
	succeeded, failed := countOutcomes(results)
	fmt.Fprintf(&b, "Weighted average score: %.1f/100 (%d of %d dimensions analyzed successfully)\n",
		avg, succeeded, succeeded+failed)

	for _, r := range results {
		fmt.Fprintf(&b, "\n### %s (Weight: %.0f%%)\n", titleLabel(r.Dimension), r.Weight*100)
		if !r.Success {
			fmt.Fprintf(&b, "Analysis failed; neutral score %.0f substituted.\n", r.Score)
			continue
		}
		fmt.Fprintf(&b, "Score: %.0f/100\n", r.Score)
		writeFactorLine(&b, "Positive", r.PositiveFactors)
		writeFactorLine(&b, "Risk", r.RiskFactors)
		writeFactorLine(&b, "Mitigating", r.MitigatingFactors)
	}

	b.WriteString("\nProvide the final assessment as JSON.")
	return b.String()
}

func writeFactorLine(b *strings.Builder, label string, factors []string) {
	if len(factors) == 0 {
		return
	}
	fmt.Fprintf(b, "%s: %s\n", label, strings.Join(factors, "; "))
}

// validateSynthesis repairs out-of-range synthesis fields instead of
// rejecting the whole response.
func validateSynthesis(parsed synthesisResponse, results []assessment.DimensionResult) *assessment.PipelineResult {
	score := assessment.ClampScore(parsed.OverallScore)

	// The band is a function of the score. When the model returns a band
	// that disagrees with its own score, the clamped score wins.
	band := assessment.BandForScore(score)

	rec := assessment.Recommendation(parsed.Recommendation)
	if !rec.IsValid() {
		rec = assessment.RecommendReview
	}

	confidence := parsed.Confidence
	if confidence < 0 {
		confidence = 0
	}
	if confidence > 1 {
		confidence = 1
	}

	summary := parsed.Summary
	if summary == "" {
		summary = fmt.Sprintf("Overall risk score %.1f/100.", score)
	}

	return &assessment.PipelineResult{
		OverallScore:     score,
		RiskBand:         band,
		Recommendation:   rec,
		Summary:          summary,
		Confidence:       confidence,
		KeyStrengths:     capList(parsed.KeyStrengths, 5),
		KeyConcerns:      capList(parsed.KeyConcerns, 5),
		Conditions:       parsed.Conditions,
		DimensionResults: results,
		UsedAI:           true,
	}
}

// RuleBasedAggregate produces the assessment from the weighted average
// alone. reason is embedded in the summary when the rule path is a
// degradation rather than the configured mode.
func RuleBasedAggregate(results []assessment.DimensionResult, reason string) *assessment.PipelineResult {
	score := assessment.WeightedAverage(results)
	band := assessment.BandForScore(score)

	summary := fmt.Sprintf("Rule-based assessment. Score: %.1f/100.", score)
	confidence := 0.7
	if reason != "" {
		summary = fmt.Sprintf("Rule-based assessment (AI unavailable: %s). Score: %.1f/100.", reason, score)
		confidence = 0.5
	}

	var rec assessment.Recommendation
	switch band {
	case assessment.BandLow:
		rec = assessment.RecommendApprove
	case assessment.BandMedium, assessment.BandHigh:
		rec = assessment.RecommendReview
	default:
		rec = assessment.RecommendDeny
	}

	return &assessment.PipelineResult{
		OverallScore:     score,
		RiskBand:         band,
		Recommendation:   rec,
		Summary:          summary,
		Confidence:       confidence,
		KeyStrengths:     collectFactors(results, func(r assessment.DimensionResult) []string { return r.PositiveFactors }),
		KeyConcerns:      collectFactors(results, func(r assessment.DimensionResult) []string { return r.RiskFactors }),
		DimensionResults: results,
	}
}

// collectFactors takes up to two factors per dimension, capped at five
// overall, so the fallback lists stay representative.
func collectFactors(results []assessment.DimensionResult, pick func(assessment.DimensionResult) []string) []string {
	var out []string
	for _, r := range results {
		if !r.Success {
			continue
		}
		factors := pick(r)
		if len(factors) > 2 {
			factors = factors[:2]
		}
		out = append(out, factors...)
	}
	return capList(out, 5)
}

func capList(list []string, max int) []string {
	if len(list) > max {
		return list[:max]
	}
	return list
}

func countOutcomes(results []assessment.DimensionResult) (succeeded, failed int) {
	for _, r := range results {
		if r.Success {
			succeeded++
		} else {
			failed++
		}
	}
	return
}
