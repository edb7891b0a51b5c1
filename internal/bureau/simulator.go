package bureau

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"

	"meridian/internal/domain/application"
	"meridian/internal/domain/creditreport"
	"meridian/pkg/logger"
)

// Simulator generates synthetic credit bureau reports from self-reported
// applicant data. Reports are deterministic: the RNG is seeded from the
// application ID, so retries of the same attempt produce identical output.
type Simulator struct {
	clock func() time.Time
	log   *logger.Logger
}

// Option configures the simulator.
type Option func(*Simulator)

// WithClock overrides the wall clock, used to make generated dates
// reproducible in tests.
func WithClock(clock func() time.Time) Option {
	return func(s *Simulator) {
		s.clock = clock
	}
}

// NewSimulator creates a credit bureau simulator.
func NewSimulator(opts ...Option) *Simulator {
	s := &Simulator{
		clock: time.Now,
		log:   logger.Get().With("component", "credit_bureau"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var creditorNames = map[string][]string{
	creditreport.AccountTypeRevolving:   {"Chase", "Capital One", "Discover", "Citi", "Amex"},
	creditreport.AccountTypeInstallment: {"Toyota Financial", "Ford Motor Credit", "Ally Financial"},
	creditreport.AccountTypeStudentLoan: {"Nelnet", "Great Lakes", "FedLoan"},
	creditreport.AccountTypeMortgage:    {"Wells Fargo", "Quicken Loans", "US Bank"},
}

var (
	collectionAgencies  = []string{"IC System", "Midland Credit", "Portfolio Recovery", "LVNV Funding"}
	collectionCreditors = []string{"Medical Center", "Utility Co", "Telecom"}
	inquiryCreditors    = []string{"Auto Dealer", "Bank of America", "Discover", "SoFi", "Marcus"}
	inquiryTypes        = []string{"auto", "credit_card", "other"}
)

// PullReport generates a full synthetic report for the application.
func (s *Simulator) PullReport(snap *application.Snapshot) (*creditreport.Report, error) {
	rng := seededRNG(snap.ApplicationID)
	now := s.clock()

	selfReported, hasSelfReported := snap.SelfReportedScore()

	score := deriveScore(selfReported, hasSelfReported, snap.Declarations, rng)
	tradelines := s.generateTradelines(snap, score, rng, now)
	publicRecords := generatePublicRecords(snap.Declarations, rng, now)
	inquiries := generateInquiries(rng, now)
	collections := generateCollections(snap.Declarations, score, rng, now)

	summary := computeSummary(tradelines, now)

	fraudAlerts, fraudScore := assessFraud(snap, score, rng)

	totalLates := summary.LatePayments30 + summary.LatePayments60 + summary.LatePayments90
	factors := scoreFactors(score, summary.CreditUtilization, summary.OnTimePaymentsPct,
		summary.OldestAccountMonths, publicRecords, totalLates)

	report := &creditreport.Report{
		ID:            uuid.New(),
		ApplicationID: snap.ApplicationID,
		Score:         score,
		ScoreModel:    creditreport.ScoreModelFICO8,
		ScoreFactors:  factors,
		Tradelines:    tradelines,
		PublicRecords: publicRecords,
		Inquiries:     inquiries,
		Collections:   collections,
		FraudAlerts:   fraudAlerts,
		FraudScore:    fraudScore,
		Summary:       summary,
		PulledAt:      now,
	}

	s.log.Infow("Credit report pulled",
		"application_id", snap.ApplicationID,
		"score", score,
		"utilization_pct", summary.CreditUtilization,
		"fraud_score", fraudScore,
	)

	return report, nil
}

// seededRNG derives a deterministic generator from the application identity.
func seededRNG(applicationID uuid.UUID) *rand.Rand {
	sum := sha256.Sum256([]byte(applicationID.String()))
	seed := int64(binary.BigEndian.Uint64(sum[:8]))
	return rand.New(rand.NewSource(seed))
}

// deriveScore computes the bureau score from the self-reported score with
// bounded variance, minus randomized penalties per derogatory declaration.
func deriveScore(selfReported int, hasSelfReported bool, decl application.Declarations, rng *rand.Rand) int {
	var score int
	if hasSelfReported {
		score = selfReported + randRange(rng, -30, 15)
	} else {
		score = randRange(rng, 580, 720)
	}

	if decl.HasBankruptcy {
		score -= randRange(rng, 40, 80)
	}
	if decl.HasForeclosure {
		score -= randRange(rng, 50, 90)
	}
	if decl.HasJudgments {
		score -= randRange(rng, 20, 40)
	}
	if decl.HasDelinquentDebt {
		score -= randRange(rng, 15, 35)
	}

	if score < 300 {
		score = 300
	}
	if score > 850 {
		score = 850
	}
	return score
}

// debtCategory maps a declared monthly debt key to an account type and label.
func debtCategory(key string) (string, string) {
	switch key {
	case "car_loan", "auto_loan":
		return creditreport.AccountTypeInstallment, "Auto Loan"
	case "student_loan", "student_loans":
		return creditreport.AccountTypeStudentLoan, "Student Loan"
	case "credit_card", "credit_cards":
		return creditreport.AccountTypeRevolving, "Credit Card"
	case "personal_loan":
		return creditreport.AccountTypeInstallment, "Personal Loan"
	case "other":
		return creditreport.AccountTypeInstallment, "Other Installment"
	default:
		return creditreport.AccountTypeInstallment, titleCase(key)
	}
}

func (s *Simulator) generateTradelines(
	snap *application.Snapshot,
	score int,
	rng *rand.Rand,
	now time.Time,
) []creditreport.Tradeline {
	var tradelines []creditreport.Tradeline

	// Map iteration order is not deterministic, so walk categories in a
	// fixed order to keep the report reproducible.
	debts := snap.MonthlyDebts()
	for _, key := range sortedKeys(debts) {
		payment := debts[key]
		acctType, label := debtCategory(key)

		if acctType == creditreport.AccountTypeRevolving {
			// Fan revolving debt out into 1-3 card tradelines.
			numCards := randRange(rng, 1, 3)
			perCard := payment / float64(numCards)
			for i := 0; i < numCards; i++ {
				creditor := choice(rng, creditorNames[creditreport.AccountTypeRevolving])
				monthsOld := randRange(rng, 12, 120)
				opened := now.AddDate(0, 0, -monthsOld*30)

				// Utilization correlates inversely with score tier.
				var utilPct float64
				switch {
				case score >= 740:
					utilPct = uniform(rng, 0.05, 0.25)
				case score >= 670:
					utilPct = uniform(rng, 0.15, 0.45)
				default:
					utilPct = uniform(rng, 0.40, 0.85)
				}

				balance := round2(perCard * uniform(rng, 8, 20))
				limit := round2(balance / utilPct)

				tradelines = append(tradelines, creditreport.Tradeline{
					AccountType:    creditreport.AccountTypeRevolving,
					Creditor:       fmt.Sprintf("%s %s #%d", creditor, label, i+1),
					OpenedDate:     opened,
					CreditLimit:    limit,
					CurrentBalance: balance,
					MonthlyPayment: round2(perCard),
					Status:         creditreport.TradelineStatusOpen,
					PaymentHistory: generatePaymentHistory(score, rng, creditreport.PaymentHistoryMonths),
				})
			}
			continue
		}

		creditor := choice(rng, creditorNames[acctType])
		monthsOld := randRange(rng, 6, 72)
		opened := now.AddDate(0, 0, -monthsOld*30)

		// Remaining balance estimated from elapsed term.
		originalTerm := randRange(rng, 36, 120)
		remaining := originalTerm - monthsOld
		if remaining < 1 {
			remaining = 1
		}
		balance := round2(payment * float64(remaining) * 0.9)

		historyMonths := monthsOld
		if historyMonths > creditreport.PaymentHistoryMonths {
			historyMonths = creditreport.PaymentHistoryMonths
		}

		tradelines = append(tradelines, creditreport.Tradeline{
			AccountType:    acctType,
			Creditor:       fmt.Sprintf("%s %s", creditor, label),
			OpenedDate:     opened,
			CurrentBalance: balance,
			MonthlyPayment: round2(payment),
			Status:         creditreport.TradelineStatusOpen,
			PaymentHistory: generatePaymentHistory(score, rng, historyMonths),
		})
	}

	// Thin files get synthesized closed accounts so every report carries at
	// least 3 tradelines.
	for len(tradelines) < 3 {
		acctType := choice(rng, []string{creditreport.AccountTypeRevolving, creditreport.AccountTypeInstallment})
		creditor := choice(rng, creditorNames[acctType])
		monthsOld := randRange(rng, 24, 96)
		opened := now.AddDate(0, 0, -monthsOld*30)

		var limit, balance, payment float64
		if acctType == creditreport.AccountTypeRevolving {
			limit = round2(uniform(rng, 1000, 15000))
			balance = round2(limit * uniform(rng, 0.0, 0.3))
			payment = round2(balance * 0.03)
		} else {
			payment = round2(uniform(rng, 100, 500))
			balance = round2(payment * float64(randRange(rng, 12, 48)))
		}

		tradelines = append(tradelines, creditreport.Tradeline{
			AccountType:    acctType,
			Creditor:       fmt.Sprintf("%s (Closed)", creditor),
			OpenedDate:     opened,
			CreditLimit:    limit,
			CurrentBalance: balance,
			MonthlyPayment: payment,
			Status:         creditreport.TradelineStatusClosed,
			PaymentHistory: generatePaymentHistory(score, rng, creditreport.PaymentHistoryMonths),
		})
	}

	return tradelines
}

// generatePaymentHistory produces a per-month history with a late
// probability keyed to score tier. A late month is 30/60/90 with 60/25/15
// percent severity split.
func generatePaymentHistory(score int, rng *rand.Rand, months int) []creditreport.PaymentStatus {
	var lateProb float64
	switch {
	case score >= 760:
		lateProb = 0.005
	case score >= 700:
		lateProb = 0.02
	case score >= 660:
		lateProb = 0.06
	case score >= 620:
		lateProb = 0.12
	default:
		lateProb = 0.20
	}

	history := make([]creditreport.PaymentStatus, 0, months)
	for i := 0; i < months; i++ {
		if rng.Float64() < lateProb {
			severity := rng.Float64()
			switch {
			case severity < 0.6:
				history = append(history, creditreport.PaymentLate30)
			case severity < 0.85:
				history = append(history, creditreport.PaymentLate60)
			default:
				history = append(history, creditreport.PaymentLate90)
			}
		} else {
			history = append(history, creditreport.PaymentOK)
		}
	}
	return history
}

func generatePublicRecords(decl application.Declarations, rng *rand.Rand, now time.Time) []creditreport.PublicRecord {
	var records []creditreport.PublicRecord

	if decl.HasBankruptcy {
		yearsAgo := randRange(rng, 2, 8)
		records = append(records, creditreport.PublicRecord{
			Type:      creditreport.RecordTypeBankruptcy,
			FiledDate: now.AddDate(0, 0, -yearsAgo*365),
			Status:    "discharged",
			Amount:    float64(randRange(rng, 20000, 150000)),
		})
	}

	if decl.HasForeclosure {
		yearsAgo := randRange(rng, 3, 10)
		records = append(records, creditreport.PublicRecord{
			Type:      creditreport.RecordTypeForeclosure,
			FiledDate: now.AddDate(0, 0, -yearsAgo*365),
			Status:    "completed",
			Amount:    float64(randRange(rng, 100000, 400000)),
		})
	}

	if decl.HasJudgments {
		yearsAgo := randRange(rng, 1, 6)
		records = append(records, creditreport.PublicRecord{
			Type:      creditreport.RecordTypeJudgment,
			FiledDate: now.AddDate(0, 0, -yearsAgo*365),
			Status:    choice(rng, []string{"satisfied", "active"}),
			Amount:    float64(randRange(rng, 2000, 50000)),
		})
	}

	return records
}

func generateInquiries(rng *rand.Rand, now time.Time) []creditreport.Inquiry {
	num := randRange(rng, 1, 4)

	// The mortgage pull this assessment represents is always present.
	inquiries := []creditreport.Inquiry{{
		Type:        creditreport.InquiryTypeMortgage,
		InquiryDate: now.AddDate(0, 0, -randRange(rng, 1, 14)),
		Creditor:    "Mortgage Lender",
	}}

	for i := 0; i < num-1; i++ {
		inquiries = append(inquiries, creditreport.Inquiry{
			Type:        choice(rng, inquiryTypes),
			InquiryDate: now.AddDate(0, 0, -randRange(rng, 7, 180)),
			Creditor:    choice(rng, inquiryCreditors),
		})
	}

	return inquiries
}

func generateCollections(decl application.Declarations, score int, rng *rand.Rand, now time.Time) []creditreport.Collection {
	if !decl.HasDelinquentDebt && score >= 580 {
		return nil
	}

	num := randRange(rng, 1, 3)
	collections := make([]creditreport.Collection, 0, num)
	for i := 0; i < num; i++ {
		collections = append(collections, creditreport.Collection{
			Agency:           choice(rng, collectionAgencies),
			OriginalCreditor: choice(rng, collectionCreditors),
			Amount:           float64(randRange(rng, 200, 5000)),
			Status:           choice(rng, []string{"open", "paid", "settled"}),
			ReportedDate:     now.AddDate(0, 0, -randRange(rng, 90, 720)),
		})
	}
	return collections
}

func computeSummary(tradelines []creditreport.Tradeline, now time.Time) creditreport.SummaryMetrics {
	summary := creditreport.SummaryMetrics{
		TotalAccounts:     len(tradelines),
		OnTimePaymentsPct: 100.0,
	}

	var totalLimit, totalBalance float64
	var ages []int
	var totalPayments, onTime int

	for _, t := range tradelines {
		if t.Status == creditreport.TradelineStatusOpen {
			summary.OpenAccounts++
		}
		if t.IsRevolving() {
			totalLimit += t.CreditLimit
			totalBalance += t.CurrentBalance
		}

		ageMonths := int(now.Sub(t.OpenedDate).Hours() / 24 / 30)
		if ageMonths < 1 {
			ageMonths = 1
		}
		ages = append(ages, ageMonths)

		for _, p := range t.PaymentHistory {
			totalPayments++
			switch p {
			case creditreport.PaymentOK:
				onTime++
			case creditreport.PaymentLate30:
				summary.LatePayments30++
			case creditreport.PaymentLate60:
				summary.LatePayments60++
			case creditreport.PaymentLate90, creditreport.PaymentChargedOff:
				summary.LatePayments90++
			}
		}
	}

	if totalLimit > 0 {
		summary.CreditUtilization = round1(totalBalance / totalLimit * 100)
	}

	if len(ages) > 0 {
		sum := 0
		for _, a := range ages {
			if a > summary.OldestAccountMonths {
				summary.OldestAccountMonths = a
			}
			sum += a
		}
		summary.AvgAccountAgeMonths = int(float64(sum)/float64(len(ages)) + 0.5)
	}

	if totalPayments > 0 {
		summary.OnTimePaymentsPct = round1(float64(onTime) / float64(totalPayments) * 100)
	}

	return summary
}

// assessFraud runs the bureau-side fraud checks and returns alerts plus a
// 0-100 fraud score.
func assessFraud(snap *application.Snapshot, score int, rng *rand.Rand) ([]creditreport.FraudAlert, int) {
	var alerts []creditreport.FraudAlert
	fraudScore := 0

	annualIncome := snap.AnnualIncome()
	yearsAtJob := snap.EmploymentYears()

	if annualIncome > 200000 && yearsAtJob < 2 {
		fraudScore += 15
		alerts = append(alerts, creditreport.FraudAlert{
			Type:     "income_plausibility",
			Severity: creditreport.SeverityMedium,
			Description: fmt.Sprintf(
				"High income ($%.0f) with short tenure (%.1f years) warrants verification",
				annualIncome, yearsAtJob,
			),
		})
	}

	if missing := snap.MissingFieldCount(); missing >= 2 {
		fraudScore += 10
		alerts = append(alerts, creditreport.FraudAlert{
			Type:        "data_completeness",
			Severity:    creditreport.SeverityLow,
			Description: fmt.Sprintf("%d core applicant fields are missing", missing),
		})
	}

	// Velocity is simulated; a real bureau would check actual pull history.
	recentPulls := randRange(rng, 0, 5)
	if recentPulls > 3 {
		fraudScore += 20
		alerts = append(alerts, creditreport.FraudAlert{
			Type:        "velocity_check",
			Severity:    creditreport.SeverityHigh,
			Description: fmt.Sprintf("%d hard credit pulls in last 6 months", recentPulls),
		})
	}

	if rng.Float64() < 0.03 {
		fraudScore += 30
		alerts = append(alerts, creditreport.FraudAlert{
			Type:        "identity_flag",
			Severity:    creditreport.SeverityHigh,
			Description: "SSN associated with multiple identities in bureau records",
		})
	}

	if selfReported, ok := snap.SelfReportedScore(); ok {
		diff := selfReported - score
		if diff < 0 {
			diff = -diff
		}
		if diff > 50 {
			fraudScore += 10
			alerts = append(alerts, creditreport.FraudAlert{
				Type:     "score_discrepancy",
				Severity: creditreport.SeverityMedium,
				Description: fmt.Sprintf(
					"Self-reported score (%d) differs from bureau score (%d) by %d points",
					selfReported, score, diff,
				),
			})
		}
	}

	fraudScore += randRange(rng, 0, 8)
	if fraudScore > 100 {
		fraudScore = 100
	}

	return alerts, fraudScore
}

// scoreFactors renders 4-5 human-readable explanations for the score.
func scoreFactors(
	score int,
	utilization float64,
	onTimePct float64,
	oldestMonths int,
	publicRecords []creditreport.PublicRecord,
	totalLates int,
) []string {
	var factors []string

	switch {
	case onTimePct >= 99:
		factors = append(factors, "Excellent payment history with near-perfect on-time rate")
	case onTimePct >= 95:
		factors = append(factors, fmt.Sprintf("Good payment history (%.1f%% on-time)", onTimePct))
	default:
		factors = append(factors, fmt.Sprintf(
			"Payment history shows %d late payment(s) (%.1f%% on-time)", totalLates, onTimePct))
	}

	switch {
	case utilization <= 10:
		factors = append(factors, fmt.Sprintf("Very low credit utilization (%.0f%%)", utilization))
	case utilization <= 30:
		factors = append(factors, fmt.Sprintf("Good credit utilization (%.0f%%)", utilization))
	case utilization <= 50:
		factors = append(factors, fmt.Sprintf("Moderate credit utilization (%.0f%%), below 30%% preferred", utilization))
	default:
		factors = append(factors, fmt.Sprintf("High credit utilization (%.0f%%), significant negative factor", utilization))
	}

	years := float64(oldestMonths) / 12
	switch {
	case years >= 10:
		factors = append(factors, fmt.Sprintf("Long credit history (%.0f years oldest account)", years))
	case years >= 5:
		factors = append(factors, fmt.Sprintf("Moderate credit history length (%.1f years)", years))
	default:
		factors = append(factors, fmt.Sprintf("Short credit history (%.1f years), limited track record", years))
	}

	if len(publicRecords) > 0 {
		types := make([]string, 0, len(publicRecords))
		for _, r := range publicRecords {
			types = append(types, r.Type)
		}
		factors = append(factors, fmt.Sprintf("Public records present: %s", strings.Join(types, ", ")))
	} else {
		factors = append(factors, "No derogatory public records found")
	}

	switch {
	case score >= 740:
		factors = append(factors, "Score in super-prime tier (740+)")
	case score >= 670:
		factors = append(factors, "Score in prime tier (670-739)")
	case score >= 580:
		factors = append(factors, "Score in near-prime tier (580-669)")
	default:
		factors = append(factors, "Score in sub-prime tier (below 580)")
	}

	return factors
}
