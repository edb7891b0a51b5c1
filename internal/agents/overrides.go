package agents

import (
	"fmt"
	"strings"

	"meridian/internal/domain/application"
	"meridian/internal/domain/assessment"
	"meridian/internal/rules"
)

// fraudDenyThreshold is the fraud exposure score at which an application
// is denied outright regardless of every other dimension.
const fraudDenyThreshold = 60.0

// compensatingReviewFloor is the compensating factors score that moves a
// high-band applicant from deny to manual review.
const compensatingReviewFloor = 75.0

// compensatingRecoveryFloor is the compensating factors score required,
// together with recovery language, to upgrade a medium-band applicant.
const compensatingRecoveryFloor = 70.0

var recoveryKeywords = []string{"recovery", "rebuilt", "clean recent", "rehabilitated"}

// ApplyOverrides adjusts the aggregated recommendation with hard policy
// rules that the model synthesis is not allowed to override. It mutates
// the pipeline result in place.
func ApplyOverrides(res *assessment.PipelineResult, snap *application.Snapshot) {
	fraud := assessment.FindDimension(res.DimensionResults, string(DimensionFraudRisk))
	if fraud != nil && fraud.Success && fraud.Score >= fraudDenyThreshold {
		res.Recommendation = assessment.RecommendDeny
		concern := fmt.Sprintf("Fraud screening score %.0f exceeds the denial threshold of %.0f", fraud.Score, fraudDenyThreshold)
		res.KeyConcerns = append([]string{concern}, res.KeyConcerns...)
		res.Conditions = nil
		return
	}

	stress := rules.StressTest(snap)
	compensating := assessment.FindDimension(res.DimensionResults, string(DimensionCompensatingFactors))

	switch {
	case res.OverallScore >= 80:
		if stress.Failed {
			res.Recommendation = assessment.RecommendConditional
			res.Conditions = appendConditions(res.Conditions,
				fmt.Sprintf("Rate lock required or income re-verification: stressed DTI %.1f%% exceeds %.0f%%", stress.StressedDTI, rules.StressDTILimit),
				"Escrow account required for taxes and insurance",
			)
		} else {
			res.Recommendation = assessment.RecommendApprove
		}

	case res.OverallScore >= 60:
		if compensating != nil && compensating.Success &&
			compensating.Score >= compensatingRecoveryFloor &&
			hasRecoverySignal(res.DimensionResults) {
			res.Recommendation = assessment.RecommendConditional
			res.Conditions = appendConditions(res.Conditions,
				"Provide letter of explanation for past derogatory credit events",
				"Provide 12 months of verified on-time housing payment history",
			)
		} else if stress.Failed || rules.ReservesDeficient(snap) {
			res.Recommendation = assessment.RecommendDeny
		} else {
			res.Recommendation = assessment.RecommendReview
		}

	case res.OverallScore >= 40:
		if compensating != nil && compensating.Success && compensating.Score >= compensatingReviewFloor {
			res.Recommendation = assessment.RecommendReview
		} else {
			res.Recommendation = assessment.RecommendDeny
		}

	default:
		res.Recommendation = assessment.RecommendDeny
	}

	if res.Recommendation != assessment.RecommendConditional {
		res.Conditions = nil
	}
}

// hasRecoverySignal reports whether any positive or mitigating factor
// across the dimensions describes rebuilt credit.
func hasRecoverySignal(results []assessment.DimensionResult) bool {
	for _, r := range results {
		for _, factors := range [][]string{r.PositiveFactors, r.MitigatingFactors} {
			for _, f := range factors {
				lower := strings.ToLower(f)
				for _, kw := range recoveryKeywords {
					if strings.Contains(lower, kw) {
						return true
					}
				}
			}
		}
	}
	return false
}

func appendConditions(existing []string, conditions ...string) []string {
	seen := make(map[string]bool, len(existing))
	for _, c := range existing {
		seen[c] = true
	}
	for _, c := range conditions {
		if !seen[c] {
			existing = append(existing, c)
			seen[c] = true
		}
	}
	return existing
}
