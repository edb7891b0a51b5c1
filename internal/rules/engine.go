package rules

import (
	"fmt"

	"meridian/internal/domain/application"
	"meridian/internal/domain/assessment"
	"meridian/internal/domain/creditreport"
)

// AgentName marks rule-engine results in persisted dimension scores.
const AgentName = "rule_engine"

// Rule dimension names
const (
	DimCreditProfile      = "credit_profile"
	DimCreditHistoryDepth = "credit_history_depth"
	DimPaymentHistory     = "payment_history"
	DimIncomeStability    = "income_stability"
	DimEarningPotential   = "earning_potential"
	DimDebtToIncome       = "debt_to_income"
	DimDownPayment        = "down_payment"
	DimEmploymentHistory  = "employment_history"
	DimPropertyAssessment = "property_assessment"
	DimFraudRisk          = "fraud_risk"
	DimCompensating       = "compensating_factors"
)

// Weights is the fixed per-dimension weight table. Weights sum to 1.0
// across the full scorer set.
var Weights = map[string]float64{
	DimCreditProfile:      0.12,
	DimCreditHistoryDepth: 0.08,
	DimPaymentHistory:     0.12,
	DimIncomeStability:    0.10,
	DimEarningPotential:   0.05,
	DimDebtToIncome:       0.13,
	DimDownPayment:        0.10,
	DimEmploymentHistory:  0.05,
	DimPropertyAssessment: 0.10,
	DimFraudRisk:          0.05,
	DimCompensating:       0.10,
}

type scorerFunc func(*application.Snapshot, *creditreport.Report) scorerOutput

type scorerOutput struct {
	score       float64
	positive    []string
	risks       []string
	mitigating  []string
	explanation string
}

var scorers = map[string]scorerFunc{
	DimCreditProfile:      scoreCreditProfile,
	DimCreditHistoryDepth: scoreCreditHistoryDepth,
	DimPaymentHistory:     scorePaymentHistory,
	DimIncomeStability:    scoreIncomeStability,
	DimEarningPotential:   scoreEarningPotential,
	DimDebtToIncome:       scoreDebtToIncome,
	DimDownPayment:        scoreDownPayment,
	DimEmploymentHistory:  scoreEmploymentHistory,
	DimPropertyAssessment: scorePropertyAssessment,
	DimFraudRisk:          scoreFraudRisk,
	DimCompensating:       scoreCompensatingFactors,
}

// Dimensions returns the rule dimension names in scoring order.
func Dimensions() []string {
	return []string{
		DimCreditProfile,
		DimCreditHistoryDepth,
		DimPaymentHistory,
		DimIncomeStability,
		DimEarningPotential,
		DimDebtToIncome,
		DimDownPayment,
		DimEmploymentHistory,
		DimPropertyAssessment,
		DimFraudRisk,
		DimCompensating,
	}
}

// ScoreAll runs every rule scorer against the snapshot. The report may be
// nil; bureau-dependent scorers degrade to flagged neutral scores.
func ScoreAll(snap *application.Snapshot, report *creditreport.Report) []assessment.DimensionResult {
	results := make([]assessment.DimensionResult, 0, len(scorers))
	for _, dim := range Dimensions() {
		results = append(results, Score(dim, snap, report))
	}
	assessment.SortResults(results)
	return results
}

// Score runs a single named rule scorer.
func Score(dimension string, snap *application.Snapshot, report *creditreport.Report) assessment.DimensionResult {
	fn, ok := scorers[dimension]
	if !ok {
		return assessment.DimensionResult{
			Dimension: dimension,
			AgentName: AgentName,
			Score:     50,
			Weight:    Weights[dimension],
			Success:   false,
			Error:     fmt.Sprintf("unknown rule dimension %q", dimension),
		}
	}

	out := fn(snap, report)
	weight := Weights[dimension]
	score := assessment.ClampScore(out.score)

	return assessment.DimensionResult{
		Dimension:         dimension,
		AgentName:         AgentName,
		Score:             score,
		Weight:            weight,
		WeightedScore:     score * weight,
		PositiveFactors:   out.positive,
		RiskFactors:       out.risks,
		MitigatingFactors: out.mitigating,
		Explanation:       out.explanation,
		Success:           true,
	}
}

func scoreCreditProfile(snap *application.Snapshot, report *creditreport.Report) scorerOutput {
	var out scorerOutput

	// Prefer the bureau score when a report was pulled.
	creditScore := 0
	if report != nil {
		creditScore = report.Score
	} else if self, ok := snap.SelfReportedScore(); ok {
		creditScore = self
	}

	switch {
	case creditScore >= 760:
		out.score = 95
		out.positive = append(out.positive, "Excellent credit score (760+)")
	case creditScore >= 700:
		out.score = 80
		out.positive = append(out.positive, "Good credit score (700-759)")
	case creditScore >= 660:
		out.score = 65
		out.positive = append(out.positive, "Fair credit score (660-699)")
		out.risks = append(out.risks, "Credit score below preferred threshold of 700")
	case creditScore >= 620:
		out.score = 45
		out.risks = append(out.risks, "Below-average credit score (620-659)")
		out.mitigating = append(out.mitigating, "Score meets minimum FHA requirements")
	case creditScore > 0:
		out.score = 25
		out.risks = append(out.risks, fmt.Sprintf("Low credit score (%d)", creditScore))
	default:
		out.score = 30
		out.risks = append(out.risks, "Credit score not provided")
	}

	if snap.Declarations.HasBankruptcy {
		out.score = floorAt(out.score-20, 10)
		out.risks = append(out.risks, "History of bankruptcy declared")
	}
	if snap.Declarations.HasForeclosure {
		out.score = floorAt(out.score-25, 10)
		out.risks = append(out.risks, "History of foreclosure declared")
	}

	out.explanation = fmt.Sprintf("Credit profile based on score of %d.", creditScore)
	return out
}

func scoreCreditHistoryDepth(snap *application.Snapshot, report *creditreport.Report) scorerOutput {
	if report == nil {
		return noBureauNeutral("Credit history depth requires bureau data.")
	}

	out := scorerOutput{score: 50}
	s := report.Summary

	switch {
	case s.OldestAccountMonths >= 120:
		out.score += 25
		out.positive = append(out.positive, fmt.Sprintf("Long credit history (%d years oldest account)", s.OldestAccountMonths/12))
	case s.OldestAccountMonths >= 60:
		out.score += 15
		out.positive = append(out.positive, "Established credit history (5+ years)")
	case s.OldestAccountMonths < 36:
		out.score -= 10
		out.risks = append(out.risks, "Short credit history (under 3 years)")
	}

	switch {
	case s.TotalAccounts >= 5:
		out.score += 15
		out.positive = append(out.positive, fmt.Sprintf("Diverse account mix (%d accounts)", s.TotalAccounts))
	case s.TotalAccounts >= 3:
		out.score += 5
	default:
		out.score -= 10
		out.risks = append(out.risks, "Thin credit file")
	}

	if s.AvgAccountAgeMonths >= 48 {
		out.score += 10
		out.positive = append(out.positive, "Mature average account age")
	}

	out.explanation = fmt.Sprintf(
		"History depth from %d accounts, oldest %d months.", s.TotalAccounts, s.OldestAccountMonths)
	return out
}

func scorePaymentHistory(snap *application.Snapshot, report *creditreport.Report) scorerOutput {
	if report == nil {
		return noBureauNeutral("Payment history requires bureau data.")
	}

	var out scorerOutput
	s := report.Summary

	switch {
	case s.OnTimePaymentsPct >= 99.5:
		out.score = 95
		out.positive = append(out.positive, "Near-perfect on-time payment record")
	case s.OnTimePaymentsPct >= 97:
		out.score = 80
		out.positive = append(out.positive, fmt.Sprintf("Strong payment record (%.1f%% on-time)", s.OnTimePaymentsPct))
	case s.OnTimePaymentsPct >= 93:
		out.score = 60
		out.risks = append(out.risks, fmt.Sprintf("Occasional late payments (%.1f%% on-time)", s.OnTimePaymentsPct))
	case s.OnTimePaymentsPct >= 88:
		out.score = 40
		out.risks = append(out.risks, "Recurring late payments")
	default:
		out.score = 20
		out.risks = append(out.risks, fmt.Sprintf("Poor payment record (%.1f%% on-time)", s.OnTimePaymentsPct))
	}

	if s.LatePayments90 > 0 {
		out.score = floorAt(out.score-15, 5)
		out.risks = append(out.risks, fmt.Sprintf("%d payment(s) 90+ days late", s.LatePayments90))
	}
	if len(report.Collections) > 0 {
		out.score = floorAt(out.score-10, 5)
		out.risks = append(out.risks, fmt.Sprintf("%d account(s) in collections", len(report.Collections)))
	}

	out.explanation = fmt.Sprintf("Payment history at %.1f%% on-time.", s.OnTimePaymentsPct)
	return out
}

func scoreIncomeStability(snap *application.Snapshot, report *creditreport.Report) scorerOutput {
	out := scorerOutput{score: 50, explanation: "Income stability assessment."}

	status := application.StringField(snap.EmploymentInfo, "employment_status")
	years := snap.EmploymentYears()

	switch status {
	case "employed":
		out.score += 15
		out.positive = append(out.positive, "Currently employed")
	case "self_employed":
		out.score += 5
		out.risks = append(out.risks, "Self-employed income may be variable")
	case "retired":
		out.score += 10
		out.positive = append(out.positive, "Retired with stable income")
	}

	switch {
	case years >= 5:
		out.score += 20
		out.positive = append(out.positive, fmt.Sprintf("Long tenure (%.0f+ years)", years))
	case years >= 2:
		out.score += 10
		out.positive = append(out.positive, fmt.Sprintf("Stable employment (%.0f years)", years))
	case years > 0:
		out.risks = append(out.risks, fmt.Sprintf("Short tenure (%.1f year(s))", years))
	}

	if snap.LoanAmount > 0 && snap.AnnualIncome() > 0 {
		ratio := snap.AnnualIncome() / snap.LoanAmount
		if ratio >= 0.5 {
			out.score += 15
			out.positive = append(out.positive, "Strong income-to-loan ratio")
		} else if ratio >= 0.25 {
			out.score += 5
		}
	}

	return out
}

func scoreEarningPotential(snap *application.Snapshot, report *creditreport.Report) scorerOutput {
	out := scorerOutput{score: 50, explanation: "Earning potential assessment."}

	income := snap.AnnualIncome()
	switch {
	case income >= 150000:
		out.score += 25
		out.positive = append(out.positive, "High current income supports growth")
	case income >= 90000:
		out.score += 15
		out.positive = append(out.positive, "Above-median income")
	case income >= 50000:
		out.score += 5
	case income > 0:
		out.risks = append(out.risks, "Below-median income limits cushion")
	default:
		out.risks = append(out.risks, "Income not provided")
	}

	if snap.EmploymentYears() >= 5 {
		out.score += 10
		out.positive = append(out.positive, "Established career trajectory")
	}

	if application.StringField(snap.EmploymentInfo, "previous_employer") != "" {
		out.score += 5
		out.positive = append(out.positive, "Documented employment progression")
	}

	return out
}

func scoreDebtToIncome(snap *application.Snapshot, report *creditreport.Report) scorerOutput {
	var out scorerOutput
	dti := snap.DTIRatio

	if dti <= 0 {
		out.score = 50
		out.risks = append(out.risks, "Unable to calculate DTI")
		out.explanation = "DTI unavailable."
		return out
	}

	switch {
	case dti <= 28:
		out.score = 95
		out.positive = append(out.positive, fmt.Sprintf("Excellent DTI (%.1f%%)", dti))
	case dti <= 36:
		out.score = 80
		out.positive = append(out.positive, fmt.Sprintf("Good DTI (%.1f%%)", dti))
	case dti <= 43:
		out.score = 60
		out.risks = append(out.risks, fmt.Sprintf("DTI (%.1f%%) near limit", dti))
	case dti <= 50:
		out.score = 35
		out.risks = append(out.risks, fmt.Sprintf("High DTI (%.1f%%)", dti))
	default:
		out.score = 15
		out.risks = append(out.risks, fmt.Sprintf("Very high DTI (%.1f%%)", dti))
	}

	out.explanation = fmt.Sprintf("DTI ratio: %.1f%%.", dti)
	return out
}

func scoreDownPayment(snap *application.Snapshot, report *creditreport.Report) scorerOutput {
	out := scorerOutput{score: 50, explanation: "Down payment assessment."}

	price := snap.PurchasePrice()
	if price <= 0 || snap.DownPayment <= 0 {
		out.risks = append(out.risks, "Down payment data unavailable")
		return out
	}

	pct := snap.DownPayment / price * 100
	switch {
	case pct >= 20:
		out.score = 95
		out.positive = append(out.positive, fmt.Sprintf("Strong down payment (%.1f%%)", pct))
	case pct >= 10:
		out.score = 75
		out.positive = append(out.positive, fmt.Sprintf("Moderate down payment (%.1f%%)", pct))
	case pct >= 5:
		out.score = 55
		out.risks = append(out.risks, fmt.Sprintf("Low down payment (%.1f%%)", pct))
	case pct >= 3.5:
		out.score = 40
		out.risks = append(out.risks, fmt.Sprintf("Minimum down payment (%.1f%%)", pct))
	default:
		out.score = 20
		out.risks = append(out.risks, fmt.Sprintf("Below minimum down payment (%.1f%%)", pct))
	}

	return out
}

func scoreEmploymentHistory(snap *application.Snapshot, report *creditreport.Report) scorerOutput {
	out := scorerOutput{score: 50, explanation: "Employment history assessment."}

	if application.StringField(snap.EmploymentInfo, "employer_name") != "" &&
		application.StringField(snap.EmploymentInfo, "job_title") != "" {
		out.score += 10
		out.positive = append(out.positive, "Complete employment info")
	}
	if application.StringField(snap.EmploymentInfo, "employment_status") == "employed" &&
		snap.EmploymentYears() >= 2 {
		out.score += 25
		out.positive = append(out.positive, "Stable employment")
	}
	if application.StringField(snap.EmploymentInfo, "previous_employer") != "" {
		out.score += 10
		out.positive = append(out.positive, "History documented")
	}

	return out
}

func scorePropertyAssessment(snap *application.Snapshot, report *creditreport.Report) scorerOutput {
	out := scorerOutput{score: 50, explanation: "Property assessment."}

	switch application.StringField(snap.PropertyInfo, "property_type") {
	case "single_family":
		out.score += 20
		out.positive = append(out.positive, "Standard type (single family)")
	case "townhouse":
		out.score += 20
		out.positive = append(out.positive, "Standard type (townhouse)")
	case "condo":
		out.score += 15
		out.positive = append(out.positive, "Condominium")
	}

	switch application.StringField(snap.PropertyInfo, "usage_type") {
	case "primary_residence":
		out.score += 20
		out.positive = append(out.positive, "Primary residence")
	case "investment":
		out.risks = append(out.risks, "Investment property")
	}

	if snap.PurchasePrice() >= 100000 {
		out.score += 10
		out.positive = append(out.positive, "Property value supports collateral")
	}

	return out
}

// scoreFraudRisk scores on a risk axis: the score IS the bureau fraud score,
// so higher means more fraud exposure. The aggregator's fraud override keys
// off this value.
func scoreFraudRisk(snap *application.Snapshot, report *creditreport.Report) scorerOutput {
	if report == nil {
		return scorerOutput{
			score:       30,
			risks:       []string{"No bureau data available, fraud screening incomplete"},
			explanation: "Fraud risk defaulted without bureau data.",
		}
	}

	out := scorerOutput{
		score:       float64(report.FraudScore),
		explanation: fmt.Sprintf("Bureau fraud score %d/100.", report.FraudScore),
	}

	for _, alert := range report.FraudAlerts {
		out.risks = append(out.risks, alert.Description)
	}
	if len(report.FraudAlerts) == 0 {
		out.positive = append(out.positive, "No fraud indicators triggered")
	}

	return out
}

func scoreCompensatingFactors(snap *application.Snapshot, report *creditreport.Report) scorerOutput {
	out := scorerOutput{score: 50, explanation: "Compensating factors assessment."}

	if report == nil {
		out.risks = append(out.risks, "No bureau data available for compensating analysis")
	}

	months := ReserveMonths(snap)
	switch {
	case months >= 12:
		out.score += 25
		out.positive = append(out.positive, fmt.Sprintf("Substantial reserves (%.0f months of payments)", months))
	case months >= 6:
		out.score += 15
		out.positive = append(out.positive, fmt.Sprintf("Healthy reserves (%.0f months)", months))
	case months >= 3:
		out.score += 5
	default:
		out.risks = append(out.risks, "Reserves below 3 months of payments")
	}

	if price := snap.PurchasePrice(); price > 0 && snap.DownPayment/price >= 0.20 {
		out.score += 10
		out.positive = append(out.positive, "20%+ down payment avoids mortgage insurance")
	}

	if snap.DTIRatio > 0 && snap.DTIRatio <= 28 {
		out.score += 10
		out.positive = append(out.positive, "Low DTI leaves payment headroom")
	}

	// Derogatory history with a clean recent record reads as recovery.
	if report != nil && len(report.PublicRecords) > 0 && recentHistoryClean(report) {
		out.score += 15
		out.mitigating = append(out.mitigating, "Clean recent payment history suggests credit recovery")
	}

	return out
}

// recentHistoryClean reports whether the last 12 months of every open
// tradeline are on-time.
func recentHistoryClean(report *creditreport.Report) bool {
	for _, t := range report.Tradelines {
		if t.Status != creditreport.TradelineStatusOpen {
			continue
		}
		months := len(t.PaymentHistory)
		recent := 12
		if months < recent {
			recent = months
		}
		for _, p := range t.PaymentHistory[:recent] {
			if p != creditreport.PaymentOK {
				return false
			}
		}
	}
	return true
}

func noBureauNeutral(explanation string) scorerOutput {
	return scorerOutput{
		score:       50,
		risks:       []string{"No bureau data available"},
		explanation: explanation,
	}
}

func floorAt(v, floor float64) float64 {
	if v < floor {
		return floor
	}
	return v
}
