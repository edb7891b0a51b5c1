package application

import (
	"encoding/json"
	"strconv"

	"github.com/google/uuid"

	"meridian/pkg/errors"
)

// Snapshot is the immutable view of an application handed to the risk
// pipeline. Built once per assessment attempt; agents never mutate it.
type Snapshot struct {
	ApplicationID uuid.UUID
	Status        Status

	PersonalInfo   map[string]interface{}
	EmploymentInfo map[string]interface{}
	FinancialInfo  map[string]interface{}
	PropertyInfo   map[string]interface{}
	Declarations   Declarations

	LoanAmount  float64
	DownPayment float64
	DTIRatio    float64 // percent
	LoanProduct LoanProduct

	Documents []DocumentSummary
}

// Snapshot decodes the JSONB sections into an immutable pipeline view.
// Documents are attached separately by the caller.
func (a *Application) Snapshot(documents []DocumentSummary) (*Snapshot, error) {
	snap := &Snapshot{
		ApplicationID: a.ID,
		Status:        a.Status,
		LoanAmount:    a.LoanAmount.InexactFloat64(),
		DownPayment:   a.DownPayment.InexactFloat64(),
		DTIRatio:      a.DTIRatio,
		LoanProduct: LoanProduct{
			Name:       a.ProductName,
			Type:       a.ProductType,
			TermMonths: a.TermMonths,
			BaseRate:   a.BaseRate,
		},
		Documents: documents,
	}

	sections := []struct {
		name string
		raw  json.RawMessage
		dst  *map[string]interface{}
	}{
		{"personal_info", a.PersonalInfo, &snap.PersonalInfo},
		{"employment_info", a.EmploymentInfo, &snap.EmploymentInfo},
		{"financial_info", a.FinancialInfo, &snap.FinancialInfo},
		{"property_info", a.PropertyInfo, &snap.PropertyInfo},
	}
	for _, s := range sections {
		*s.dst = make(map[string]interface{})
		if len(s.raw) == 0 {
			continue
		}
		if err := json.Unmarshal(s.raw, s.dst); err != nil {
			return nil, errors.Wrapf(err, "decode application %s", s.name)
		}
	}

	if len(a.Declarations) > 0 {
		if err := json.Unmarshal(a.Declarations, &snap.Declarations); err != nil {
			return nil, errors.Wrap(err, "decode application declarations")
		}
	}

	return snap, nil
}

// AnnualIncome returns the declared annual income, 0 if absent.
func (s *Snapshot) AnnualIncome() float64 {
	return numberField(s.EmploymentInfo, "annual_income")
}

// MonthlyIncome is annual income divided over 12 months.
func (s *Snapshot) MonthlyIncome() float64 {
	return s.AnnualIncome() / 12.0
}

// SelfReportedScore returns the applicant's self-reported credit score.
// The second return is false when no score was reported.
func (s *Snapshot) SelfReportedScore() (int, bool) {
	v := numberField(s.FinancialInfo, "self_reported_credit_score")
	if v == 0 {
		v = numberField(s.FinancialInfo, "credit_score")
	}
	if v <= 0 {
		return 0, false
	}
	return int(v), true
}

// LiquidAssets returns declared liquid assets, 0 if absent.
func (s *Snapshot) LiquidAssets() float64 {
	return numberField(s.FinancialInfo, "liquid_assets")
}

// EmploymentYears returns declared years at the current job.
func (s *Snapshot) EmploymentYears() float64 {
	return numberField(s.EmploymentInfo, "years_at_job")
}

// PurchasePrice returns the declared property purchase price.
func (s *Snapshot) PurchasePrice() float64 {
	return numberField(s.PropertyInfo, "purchase_price")
}

// MonthlyDebts returns the declared monthly debt payments by category
// (auto_loan, student_loan, credit_card, personal_loan, other).
func (s *Snapshot) MonthlyDebts() map[string]float64 {
	out := make(map[string]float64)
	raw, ok := s.FinancialInfo["monthly_debts"].(map[string]interface{})
	if !ok {
		return out
	}
	for category, v := range raw {
		if f, ok := coerceNumber(v); ok && f > 0 {
			out[category] = f
		}
	}
	return out
}

// TotalMonthlyDebt sums declared monthly debt payments across categories.
func (s *Snapshot) TotalMonthlyDebt() float64 {
	var total float64
	for _, v := range s.MonthlyDebts() {
		total += v
	}
	return total
}

// MissingFieldCount counts absent core applicant fields, used by the fraud
// checks in the bureau simulator.
func (s *Snapshot) MissingFieldCount() int {
	missing := 0
	checks := []struct {
		section map[string]interface{}
		field   string
	}{
		{s.PersonalInfo, "first_name"},
		{s.PersonalInfo, "date_of_birth"},
		{s.PersonalInfo, "current_address"},
		{s.EmploymentInfo, "employer_name"},
		{s.EmploymentInfo, "annual_income"},
		{s.FinancialInfo, "liquid_assets"},
		{s.PropertyInfo, "property_type"},
	}
	for _, c := range checks {
		if c.section == nil {
			missing++
			continue
		}
		v, ok := c.section[c.field]
		if !ok || v == nil || v == "" {
			missing++
		}
	}
	return missing
}

// StringField returns a string value from a section map, "" if absent.
func StringField(section map[string]interface{}, key string) string {
	if section == nil {
		return ""
	}
	if v, ok := section[key].(string); ok {
		return v
	}
	return ""
}

// NumberField returns a numeric value from a section map, 0 if absent.
func NumberField(section map[string]interface{}, key string) float64 {
	return numberField(section, key)
}

func numberField(section map[string]interface{}, key string) float64 {
	if section == nil {
		return 0
	}
	if f, ok := coerceNumber(section[key]); ok {
		return f
	}
	return 0
}

// coerceNumber handles the value shapes JSON decoding and form intake
// produce for numeric fields.
func coerceNumber(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	default:
		return 0, false
	}
}
