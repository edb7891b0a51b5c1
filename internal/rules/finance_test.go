package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"meridian/internal/domain/application"
)

func TestMonthlyPayment(t *testing.T) {
	// $320,000 at 6.5% over 30 years is about $2,022.62.
	payment := MonthlyPayment(320000, 6.5, 360)
	assert.InDelta(t, 2022.62, payment, 1.0)

	assert.Equal(t, 0.0, MonthlyPayment(0, 6.5, 360))
	assert.Equal(t, 0.0, MonthlyPayment(320000, 6.5, 0))

	// Zero rate degenerates to straight-line amortization.
	assert.InDelta(t, 1000.0, MonthlyPayment(360000, 0, 360), 1e-9)
}

func financeSnapshot() *application.Snapshot {
	return &application.Snapshot{
		EmploymentInfo: map[string]interface{}{"annual_income": 120000.0},
		FinancialInfo: map[string]interface{}{
			"liquid_assets": 95000.0,
			"monthly_debts": map[string]interface{}{"auto_loan": 400.0},
		},
		LoanAmount:  320000,
		DownPayment: 80000,
		LoanProduct: application.LoanProduct{TermMonths: 360, BaseRate: 6.5},
	}
}

func TestStressTestPasses(t *testing.T) {
	res := StressTest(financeSnapshot())

	// Shocked payment ~$2,450; stressed income $8,000.
	assert.False(t, res.Failed)
	assert.Greater(t, res.ShockPayment, res.BasePayment)
	assert.InDelta(t, 35.6, res.StressedDTI, 1.0)
}

func TestStressTestFailsOnThinIncome(t *testing.T) {
	snap := financeSnapshot()
	snap.EmploymentInfo["annual_income"] = 60000.0

	res := StressTest(snap)

	// Stressed income $4,000 against ~$2,850 obligations exceeds 50% DTI.
	assert.True(t, res.Failed)
	assert.Greater(t, res.StressedDTI, 50.0)
}

func TestStressTestNoIncome(t *testing.T) {
	snap := financeSnapshot()
	snap.EmploymentInfo = map[string]interface{}{}

	res := StressTest(snap)
	assert.True(t, res.Failed)
	assert.Equal(t, 100.0, res.StressedDTI)
}

func TestReserveMonths(t *testing.T) {
	snap := financeSnapshot()

	// ($95,000 - $80,000) / ~$2,022 is about 7.4 months.
	months := ReserveMonths(snap)
	assert.InDelta(t, 7.4, months, 0.2)
	assert.False(t, ReservesDeficient(snap))

	snap.FinancialInfo["liquid_assets"] = 84000.0
	assert.True(t, ReservesDeficient(snap))

	snap.FinancialInfo["liquid_assets"] = 50000.0
	assert.Equal(t, 0.0, ReserveMonths(snap))
}
