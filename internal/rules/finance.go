package rules

import (
	"math"

	"meridian/internal/domain/application"
)

// Underwriting stress parameters
const (
	stressIncomeHaircut = 0.20 // income reduced by 20%
	stressRateShockPct  = 2.0  // annual rate raised by 2 points
	StressDTILimit      = 50.0 // stressed DTI above this fails
	reserveMonthsFloor  = 3.0  // months of payments required after closing
)

// MonthlyPayment computes the standard amortized mortgage payment for a
// principal, an annual rate in percent and a term in months.
func MonthlyPayment(principal, annualRatePct float64, termMonths int) float64 {
	if principal <= 0 || termMonths <= 0 {
		return 0
	}
	if annualRatePct <= 0 {
		return principal / float64(termMonths)
	}

	r := annualRatePct / 100 / 12
	n := float64(termMonths)
	factor := math.Pow(1+r, n)
	return principal * r * factor / (factor - 1)
}

// StressResult is the outcome of the income-shock stress test.
type StressResult struct {
	Failed       bool
	StressedDTI  float64
	BasePayment  float64
	ShockPayment float64
}

// StressTest applies a 20% income haircut and a 2 point rate shock to the
// requested loan and reports whether the stressed DTI exceeds 50%.
func StressTest(snap *application.Snapshot) StressResult {
	term := snap.LoanProduct.TermMonths
	if term <= 0 {
		term = 360
	}

	base := MonthlyPayment(snap.LoanAmount, snap.LoanProduct.BaseRate, term)
	shocked := MonthlyPayment(snap.LoanAmount, snap.LoanProduct.BaseRate+stressRateShockPct, term)

	stressedIncome := snap.MonthlyIncome() * (1 - stressIncomeHaircut)
	if stressedIncome <= 0 {
		return StressResult{Failed: true, StressedDTI: 100, BasePayment: base, ShockPayment: shocked}
	}

	stressedDTI := (shocked + snap.TotalMonthlyDebt()) / stressedIncome * 100
	return StressResult{
		Failed:       stressedDTI > StressDTILimit,
		StressedDTI:  stressedDTI,
		BasePayment:  base,
		ShockPayment: shocked,
	}
}

// ReserveMonths returns how many months of mortgage payments the applicant's
// liquid assets cover after the down payment leaves the account.
func ReserveMonths(snap *application.Snapshot) float64 {
	term := snap.LoanProduct.TermMonths
	if term <= 0 {
		term = 360
	}
	payment := MonthlyPayment(snap.LoanAmount, snap.LoanProduct.BaseRate, term)
	if payment <= 0 {
		return 0
	}

	remaining := snap.LiquidAssets() - snap.DownPayment
	if remaining <= 0 {
		return 0
	}
	return remaining / payment
}

// ReservesDeficient reports whether post-closing reserves cover less than
// three months of payments.
func ReservesDeficient(snap *application.Snapshot) bool {
	return ReserveMonths(snap) < reserveMonthsFloor
}
