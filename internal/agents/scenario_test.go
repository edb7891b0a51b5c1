package agents

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"meridian/internal/bureau"
	"meridian/internal/adapters/config"
	"meridian/internal/domain/application"
	"meridian/internal/domain/assessment"
)

// The scenario tests run the full rule-path flow for one applicant:
// bureau pull, rule scoring, aggregation and policy overrides. The
// application IDs are fixed so the simulated bureau report, and with it
// the whole outcome, is reproducible.

func scenarioClock() time.Time {
	return time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
}

func solidApplicantSnapshot() *application.Snapshot {
	return &application.Snapshot{
		ApplicationID: uuid.MustParse("cb08587d-1963-426d-ae21-8b099afd4015"),
		Status:        application.StatusSubmitted,
		PersonalInfo: map[string]interface{}{
			"first_name":      "Priya",
			"last_name":       "Raman",
			"date_of_birth":   "1986-09-21",
			"current_address": "44 Linden Way",
		},
		EmploymentInfo: map[string]interface{}{
			"employment_status": "employed",
			"employer_name":     "Cascade Systems",
			"job_title":         "analyst",
			"annual_income":     120000.0,
			"years_at_job":      5.0,
		},
		FinancialInfo: map[string]interface{}{
			"credit_score":  700.0,
			"liquid_assets": 95000.0,
			"total_assets":  150000.0,
			"monthly_debts": map[string]interface{}{
				"auto_loan":   400.0,
				"credit_card": 250.0,
			},
		},
		PropertyInfo: map[string]interface{}{
			"property_type":  "single_family",
			"usage_type":     "primary_residence",
			"purchase_price": 400000.0,
		},
		LoanAmount:  320000,
		DownPayment: 80000,
		DTIRatio:    30,
		LoanProduct: application.LoanProduct{
			Name: "30-Year Fixed", Type: "conventional",
			TermMonths: 360, BaseRate: 6.5,
		},
	}
}

func distressedApplicantSnapshot() *application.Snapshot {
	return &application.Snapshot{
		ApplicationID: uuid.MustParse("9e91a71c-7374-4cbf-978c-57d3508850d3"),
		Status:        application.StatusSubmitted,
		PersonalInfo: map[string]interface{}{
			"first_name":      "Marcus",
			"last_name":       "Doyle",
			"date_of_birth":   "1979-01-30",
			"current_address": "9 Fenwick Rd",
		},
		EmploymentInfo: map[string]interface{}{
			"employment_status": "self_employed",
			"employer_name":     "Doyle Contracting",
			"job_title":         "contractor",
			"annual_income":     48000.0,
			"years_at_job":      1.0,
		},
		FinancialInfo: map[string]interface{}{
			"credit_score":  560.0,
			"liquid_assets": 2000.0,
			"total_assets":  9000.0,
			"monthly_debts": map[string]interface{}{
				"credit_card": 350.0,
			},
		},
		PropertyInfo: map[string]interface{}{
			"property_type":  "manufactured",
			"usage_type":     "investment",
			"purchase_price": 210000.0,
		},
		Declarations: application.Declarations{
			HasBankruptcy:  true,
			HasForeclosure: true,
		},
		LoanAmount:  204000,
		DownPayment: 6000,
		DTIRatio:    55,
		LoanProduct: application.LoanProduct{
			Name: "30-Year Fixed", Type: "conventional",
			TermMonths: 360, BaseRate: 7.8,
		},
	}
}

func TestScenarioSolidApplicantApproved(t *testing.T) {
	snap := solidApplicantSnapshot()

	sim := bureau.NewSimulator(bureau.WithClock(scenarioClock))
	report, err := sim.PullReport(snap)
	require.NoError(t, err)

	// The bureau score stays within the simulator's variance band
	// around the self-reported 700.
	assert.GreaterOrEqual(t, report.Score, 670)
	assert.LessOrEqual(t, report.Score, 715)

	p := NewPipeline(nil, config.PipelineConfig{})
	res := p.Run(context.Background(), snap, report, false)

	assert.False(t, res.UsedAI)
	assert.GreaterOrEqual(t, res.OverallScore, 70.0)
	assert.Contains(t,
		[]assessment.Recommendation{assessment.RecommendApprove, assessment.RecommendConditional},
		res.Recommendation)
}

func TestScenarioDistressedApplicantDenied(t *testing.T) {
	snap := distressedApplicantSnapshot()

	sim := bureau.NewSimulator(bureau.WithClock(scenarioClock))
	report, err := sim.PullReport(snap)
	require.NoError(t, err)
	assert.Less(t, report.Score, 580)

	p := NewPipeline(nil, config.PipelineConfig{})
	res := p.Run(context.Background(), snap, report, false)

	assert.False(t, res.UsedAI)
	assert.Less(t, res.OverallScore, 40.0)
	assert.Equal(t, assessment.BandCritical, res.RiskBand)
	assert.Equal(t, assessment.RecommendDeny, res.Recommendation)
}
