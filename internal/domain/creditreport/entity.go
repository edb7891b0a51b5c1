package creditreport

import (
	"time"

	"github.com/google/uuid"
)

// Report is a synthetic credit bureau report generated once per assessment
// attempt and persisted for audit and servicer viewing.
type Report struct {
	ID            uuid.UUID `db:"id" json:"id"`
	ApplicationID uuid.UUID `db:"application_id" json:"application_id"`

	Score        int      `db:"score" json:"score"` // 300-850
	ScoreModel   string   `db:"score_model" json:"score_model"`
	ScoreFactors []string `json:"score_factors"`

	Tradelines    []Tradeline    `json:"tradelines"`
	PublicRecords []PublicRecord `json:"public_records"`
	Inquiries     []Inquiry      `json:"inquiries"`
	Collections   []Collection   `json:"collections"`
	FraudAlerts   []FraudAlert   `json:"fraud_alerts"`

	FraudScore int `db:"fraud_score" json:"fraud_score"` // 0-100

	Summary SummaryMetrics `json:"summary"`

	PulledAt time.Time `db:"pulled_at" json:"pulled_at"`
}

// ScoreModelFICO8 is the score model label on generated reports.
const ScoreModelFICO8 = "FICO 8"

// Tradeline is one credit account on the report
type Tradeline struct {
	AccountType    string          `json:"account_type"` // revolving, installment, student_loan, mortgage
	Creditor       string          `json:"creditor"`
	OpenedDate     time.Time       `json:"opened_date"`
	CreditLimit    float64         `json:"credit_limit"` // 0 for installment accounts
	CurrentBalance float64         `json:"current_balance"`
	MonthlyPayment float64         `json:"monthly_payment"`
	Status         string          `json:"status"` // open, closed
	PaymentHistory []PaymentStatus `json:"payment_history_24m"`
}

// Tradeline account types
const (
	AccountTypeRevolving   = "revolving"
	AccountTypeInstallment = "installment"
	AccountTypeStudentLoan = "student_loan"
	AccountTypeMortgage    = "mortgage"
)

// Tradeline statuses
const (
	TradelineStatusOpen   = "open"
	TradelineStatusClosed = "closed"
)

// IsRevolving reports whether the account type carries a credit limit.
func (t Tradeline) IsRevolving() bool {
	return t.AccountType == AccountTypeRevolving
}

// PaymentStatus is one month in a 24-month payment history
type PaymentStatus string

const (
	PaymentOK         PaymentStatus = "OK"
	PaymentLate30     PaymentStatus = "30"
	PaymentLate60     PaymentStatus = "60"
	PaymentLate90     PaymentStatus = "90"
	PaymentChargedOff PaymentStatus = "CO"
)

// PaymentHistoryMonths is the length of every generated payment history.
const PaymentHistoryMonths = 24

// PublicRecord is a bankruptcy, foreclosure or judgment entry
type PublicRecord struct {
	Type      string    `json:"record_type"` // bankruptcy, foreclosure, judgment
	FiledDate time.Time `json:"filed_date"`
	Status    string    `json:"status"` // discharged, completed, satisfied, active
	Amount    float64   `json:"amount"`
}

// Public record types
const (
	RecordTypeBankruptcy  = "bankruptcy"
	RecordTypeForeclosure = "foreclosure"
	RecordTypeJudgment    = "judgment"
)

// Inquiry is a hard credit pull
type Inquiry struct {
	Type        string    `json:"inquiry_type"` // mortgage, auto, credit_card, other
	InquiryDate time.Time `json:"date"`
	Creditor    string    `json:"creditor"`
}

// InquiryTypeMortgage marks the pull this assessment itself represents.
const InquiryTypeMortgage = "mortgage"

// Collection is an account in collections
type Collection struct {
	Agency           string    `json:"agency"`
	OriginalCreditor string    `json:"original_creditor"`
	Amount           float64   `json:"amount"`
	Status           string    `json:"status"` // open, paid, settled
	ReportedDate     time.Time `json:"reported_date"`
}

// FraudAlert is one triggered fraud indicator
type FraudAlert struct {
	Type        string `json:"alert_type"`
	Severity    string `json:"severity"` // low, medium, high
	Description string `json:"description"`
}

// Fraud alert severities
const (
	SeverityLow    = "low"
	SeverityMedium = "medium"
	SeverityHigh   = "high"
)

// SummaryMetrics are derived aggregates over the tradeline set
type SummaryMetrics struct {
	TotalAccounts       int     `json:"total_accounts"`
	OpenAccounts        int     `json:"open_accounts"`
	CreditUtilization   float64 `json:"credit_utilization"` // percent, revolving only
	OldestAccountMonths int     `json:"oldest_account_months"`
	AvgAccountAgeMonths int     `json:"avg_account_age_months"`
	OnTimePaymentsPct   float64 `json:"on_time_payments_pct"`
	LatePayments30      int     `json:"late_payments_30d"`
	LatePayments60      int     `json:"late_payments_60d"`
	LatePayments90      int     `json:"late_payments_90d"`
}
