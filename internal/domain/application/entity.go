package application

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Application is the persisted loan application record
type Application struct {
	ID     uuid.UUID `db:"id"`
	Status Status    `db:"status"`

	// Applicant-supplied sections (JSONB)
	PersonalInfo   json.RawMessage `db:"personal_info"`
	EmploymentInfo json.RawMessage `db:"employment_info"`
	FinancialInfo  json.RawMessage `db:"financial_info"`
	PropertyInfo   json.RawMessage `db:"property_info"`
	Declarations   json.RawMessage `db:"declarations"`

	// Computed at submission
	LoanAmount  decimal.Decimal `db:"loan_amount"`
	DownPayment decimal.Decimal `db:"down_payment"`
	DTIRatio    float64         `db:"dti_ratio"`

	// Loan product
	ProductName string  `db:"product_name"`
	ProductType string  `db:"product_type"`
	TermMonths  int     `db:"term_months"`
	BaseRate    float64 `db:"base_rate"`

	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// Status represents the application lifecycle state
type Status string

const (
	StatusDraft       Status = "draft"
	StatusSubmitted   Status = "submitted"
	StatusUnderReview Status = "under_review"
	StatusApproved    Status = "approved"
	StatusConditional Status = "conditional_approval"
	StatusDenied      Status = "denied"
	StatusWithdrawn   Status = "withdrawn"
)

// Assessable reports whether a risk assessment may run against this status.
func (s Status) Assessable() bool {
	return s == StatusSubmitted || s == StatusUnderReview
}

// Declarations are the applicant's legal declarations
type Declarations struct {
	HasBankruptcy        bool `json:"has_bankruptcy"`
	HasForeclosure       bool `json:"has_foreclosure"`
	HasJudgments         bool `json:"has_judgments"`
	HasDelinquentDebt    bool `json:"has_delinquent_debt"`
	IsPartyToLawsuit     bool `json:"is_party_to_lawsuit"`
	HasAlimonyObligation bool `json:"has_alimony_obligation"`
	IsCosigner           bool `json:"is_cosigner"`
}

// AnyDerogatory reports whether any credit-impacting declaration is set.
func (d Declarations) AnyDerogatory() bool {
	return d.HasBankruptcy || d.HasForeclosure || d.HasJudgments || d.HasDelinquentDebt
}

// LoanProduct describes the product the applicant selected
type LoanProduct struct {
	Name       string  `json:"name"`
	Type       string  `json:"type"` // conventional, fha, va, jumbo
	TermMonths int     `json:"term_months"`
	BaseRate   float64 `json:"base_rate"` // annual, percent
}

// DocumentSummary is the extraction result for one uploaded document.
// Extraction itself happens in a separate service; the risk pipeline only
// consumes these summaries.
type DocumentSummary struct {
	Type          string                 `json:"type"` // pay_stub, w2, bank_statement, tax_return, id
	Status        string                 `json:"status"`
	ExtractedData map[string]interface{} `json:"extracted_data"`
	Confidence    float64                `json:"confidence"`
}

// Document status constants
const (
	DocumentStatusPending   = "pending"
	DocumentStatusProcessed = "processed"
	DocumentStatusFailed    = "failed"
)
