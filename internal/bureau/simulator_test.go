package bureau

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"meridian/internal/domain/application"
	"meridian/internal/domain/creditreport"
	"meridian/pkg/logger"
)

func init() {
	_ = logger.Init("error", "test")
}

func fixedClock() time.Time {
	return time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
}

func testSnapshot(id uuid.UUID) *application.Snapshot {
	return &application.Snapshot{
		ApplicationID: id,
		Status:        application.StatusSubmitted,
		PersonalInfo: map[string]interface{}{
			"first_name":      "Dana",
			"last_name":       "Whitfield",
			"date_of_birth":   "1988-04-02",
			"current_address": "17 Alder Ct",
		},
		EmploymentInfo: map[string]interface{}{
			"employer_name": "Cascade Systems",
			"job_title":     "analyst",
			"annual_income": 120000.0,
			"years_at_job":  5.0,
		},
		FinancialInfo: map[string]interface{}{
			"credit_score":  700.0,
			"liquid_assets": 95000.0,
			"total_assets":  150000.0,
			"monthly_debts": map[string]interface{}{
				"credit_card": 250.0,
				"auto_loan":   400.0,
			},
		},
		PropertyInfo: map[string]interface{}{
			"property_type":  "single_family",
			"purchase_price": 400000.0,
		},
		LoanAmount:  320000,
		DownPayment: 80000,
		DTIRatio:    30,
	}
}

func TestPullReportDeterministic(t *testing.T) {
	sim := NewSimulator(WithClock(fixedClock))
	snap := testSnapshot(uuid.MustParse("7b39c2d4-52a1-4b1e-9f6d-0e8a13c5e201"))

	first, err := sim.PullReport(snap)
	require.NoError(t, err)
	second, err := sim.PullReport(snap)
	require.NoError(t, err)

	// IDs differ per pull; everything derived from the seed must not.
	second.ID = first.ID
	a, err := json.Marshal(first)
	require.NoError(t, err)
	b, err := json.Marshal(second)
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
}

func TestPullReportDifferentApplicationsDiffer(t *testing.T) {
	sim := NewSimulator(WithClock(fixedClock))

	first, err := sim.PullReport(testSnapshot(uuid.MustParse("7b39c2d4-52a1-4b1e-9f6d-0e8a13c5e201")))
	require.NoError(t, err)
	second, err := sim.PullReport(testSnapshot(uuid.MustParse("11111111-2222-4333-8444-555555555555")))
	require.NoError(t, err)

	// Two different seeds producing byte-identical tradeline sets would
	// mean the seed is not actually feeding the generator.
	assert.NotEqual(t, first.Tradelines, second.Tradelines)
}

func TestScoreWithinVarianceOfSelfReported(t *testing.T) {
	sim := NewSimulator(WithClock(fixedClock))

	for i := 0; i < 20; i++ {
		snap := testSnapshot(uuid.New())
		report, err := sim.PullReport(snap)
		require.NoError(t, err)

		assert.GreaterOrEqual(t, report.Score, 670)
		assert.LessOrEqual(t, report.Score, 715)
		assert.Equal(t, creditreport.ScoreModelFICO8, report.ScoreModel)
	}
}

func TestScorePenalizedForDerogatories(t *testing.T) {
	sim := NewSimulator(WithClock(fixedClock))

	for i := 0; i < 20; i++ {
		snap := testSnapshot(uuid.New())
		snap.FinancialInfo["credit_score"] = 560.0
		snap.Declarations = application.Declarations{
			HasBankruptcy:  true,
			HasForeclosure: true,
		}

		report, err := sim.PullReport(snap)
		require.NoError(t, err)

		// 560 + max variance 15 - min penalties 40 - 50 = 485
		assert.LessOrEqual(t, report.Score, 485)
		assert.GreaterOrEqual(t, report.Score, 300)

		types := make([]string, 0, len(report.PublicRecords))
		for _, r := range report.PublicRecords {
			types = append(types, r.Type)
		}
		assert.Contains(t, types, creditreport.RecordTypeBankruptcy)
		assert.Contains(t, types, creditreport.RecordTypeForeclosure)
	}
}

func TestScoreClampedAtFloor(t *testing.T) {
	sim := NewSimulator(WithClock(fixedClock))

	for i := 0; i < 10; i++ {
		snap := testSnapshot(uuid.New())
		snap.FinancialInfo["credit_score"] = 320.0
		snap.Declarations = application.Declarations{
			HasBankruptcy:     true,
			HasForeclosure:    true,
			HasJudgments:      true,
			HasDelinquentDebt: true,
		}

		report, err := sim.PullReport(snap)
		require.NoError(t, err)
		assert.Equal(t, 300, report.Score)
	}
}

func TestMinimumThreeTradelines(t *testing.T) {
	sim := NewSimulator(WithClock(fixedClock))
	snap := testSnapshot(uuid.New())
	snap.FinancialInfo["monthly_debts"] = map[string]interface{}{}

	report, err := sim.PullReport(snap)
	require.NoError(t, err)

	assert.GreaterOrEqual(t, len(report.Tradelines), 3)
	for _, tl := range report.Tradelines {
		assert.Equal(t, creditreport.TradelineStatusClosed, tl.Status)
	}
}

func TestRevolvingFanOut(t *testing.T) {
	sim := NewSimulator(WithClock(fixedClock))

	for i := 0; i < 20; i++ {
		snap := testSnapshot(uuid.New())
		report, err := sim.PullReport(snap)
		require.NoError(t, err)

		revolving := 0
		for _, tl := range report.Tradelines {
			if tl.AccountType == creditreport.AccountTypeRevolving && tl.Status == creditreport.TradelineStatusOpen {
				revolving++
				assert.Greater(t, tl.CreditLimit, 0.0)
				assert.GreaterOrEqual(t, tl.CreditLimit, tl.CurrentBalance)
			}
		}
		assert.GreaterOrEqual(t, revolving, 1)
		assert.LessOrEqual(t, revolving, 3)
	}
}

func TestMandatoryMortgageInquiry(t *testing.T) {
	sim := NewSimulator(WithClock(fixedClock))
	report, err := sim.PullReport(testSnapshot(uuid.New()))
	require.NoError(t, err)

	require.NotEmpty(t, report.Inquiries)
	assert.Equal(t, creditreport.InquiryTypeMortgage, report.Inquiries[0].Type)
	assert.LessOrEqual(t, len(report.Inquiries), 4)
}

func TestCollectionsOnlyWhenDelinquentOrSubprime(t *testing.T) {
	sim := NewSimulator(WithClock(fixedClock))

	clean, err := sim.PullReport(testSnapshot(uuid.New()))
	require.NoError(t, err)
	assert.Empty(t, clean.Collections)

	snap := testSnapshot(uuid.New())
	snap.Declarations.HasDelinquentDebt = true
	delinquent, err := sim.PullReport(snap)
	require.NoError(t, err)
	assert.NotEmpty(t, delinquent.Collections)
}

func TestFraudScoreBounds(t *testing.T) {
	sim := NewSimulator(WithClock(fixedClock))

	for i := 0; i < 30; i++ {
		report, err := sim.PullReport(testSnapshot(uuid.New()))
		require.NoError(t, err)
		assert.GreaterOrEqual(t, report.FraudScore, 0)
		assert.LessOrEqual(t, report.FraudScore, 100)
	}
}

func TestFraudIncomePlausibilityAlert(t *testing.T) {
	sim := NewSimulator(WithClock(fixedClock))
	snap := testSnapshot(uuid.New())
	snap.EmploymentInfo["annual_income"] = 280000.0
	snap.EmploymentInfo["years_at_job"] = 0.5

	report, err := sim.PullReport(snap)
	require.NoError(t, err)

	var found bool
	for _, a := range report.FraudAlerts {
		if a.Type == "income_plausibility" {
			found = true
			assert.Equal(t, creditreport.SeverityMedium, a.Severity)
		}
	}
	assert.True(t, found)
	assert.GreaterOrEqual(t, report.FraudScore, 15)
}

func TestFraudDataCompletenessAlert(t *testing.T) {
	sim := NewSimulator(WithClock(fixedClock))
	snap := testSnapshot(uuid.New())
	delete(snap.EmploymentInfo, "employer_name")
	delete(snap.FinancialInfo, "liquid_assets")
	require.Equal(t, 2, snap.MissingFieldCount())

	report, err := sim.PullReport(snap)
	require.NoError(t, err)

	var found bool
	for _, a := range report.FraudAlerts {
		if a.Type == "data_completeness" {
			found = true
			assert.Equal(t, creditreport.SeverityLow, a.Severity)
		}
	}
	assert.True(t, found)

	// A fully populated snapshot must not trip the completeness check.
	clean, err := sim.PullReport(testSnapshot(uuid.New()))
	require.NoError(t, err)
	for _, a := range clean.FraudAlerts {
		assert.NotEqual(t, "data_completeness", a.Type)
	}
}

func TestScoreFactorsGenerated(t *testing.T) {
	sim := NewSimulator(WithClock(fixedClock))
	report, err := sim.PullReport(testSnapshot(uuid.New()))
	require.NoError(t, err)

	assert.GreaterOrEqual(t, len(report.ScoreFactors), 4)
	assert.LessOrEqual(t, len(report.ScoreFactors), 5)
}

func TestSummaryMetrics(t *testing.T) {
	sim := NewSimulator(WithClock(fixedClock))
	report, err := sim.PullReport(testSnapshot(uuid.New()))
	require.NoError(t, err)

	assert.Equal(t, len(report.Tradelines), report.Summary.TotalAccounts)
	assert.GreaterOrEqual(t, report.Summary.TotalAccounts, report.Summary.OpenAccounts)
	assert.Greater(t, report.Summary.OldestAccountMonths, 0)
	assert.GreaterOrEqual(t, report.Summary.OldestAccountMonths, report.Summary.AvgAccountAgeMonths)
	assert.LessOrEqual(t, report.Summary.OnTimePaymentsPct, 100.0)

	for _, tl := range report.Tradelines {
		assert.LessOrEqual(t, len(tl.PaymentHistory), creditreport.PaymentHistoryMonths)
		assert.NotEmpty(t, tl.PaymentHistory)
	}
}
