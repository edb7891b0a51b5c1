package seeds

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"meridian/internal/domain/application"
	"meridian/internal/testsupport"
)

// ApplicationBuilder provides a fluent API for creating Application entities.
// Defaults describe a strong applicant so tests override only what they exercise.
type ApplicationBuilder struct {
	db     DBTX
	ctx    context.Context
	entity *application.Application

	personal     map[string]interface{}
	employment   map[string]interface{}
	financial    map[string]interface{}
	property     map[string]interface{}
	declarations application.Declarations
}

// NewApplicationBuilder creates a new ApplicationBuilder with sensible defaults
func NewApplicationBuilder(db DBTX, ctx context.Context) *ApplicationBuilder {
	now := time.Now()
	return &ApplicationBuilder{
		db:  db,
		ctx: ctx,
		entity: &application.Application{
			ID:          uuid.New(),
			Status:      application.StatusSubmitted,
			LoanAmount:  decimal.NewFromInt(320000),
			DownPayment: decimal.NewFromInt(80000),
			DTIRatio:    32.0,
			ProductName: "30-Year Fixed Conventional",
			ProductType: "conventional",
			TermMonths:  360,
			BaseRate:    6.5,
			CreatedAt:   now,
			UpdatedAt:   now,
		},
		personal: map[string]interface{}{
			"full_name":     testsupport.UniqueName("applicant"),
			"email":         testsupport.UniqueEmail("borrower"),
			"ssn":           testsupport.UniqueSSN(),
			"date_of_birth": "1988-04-12",
			"phone":         "555-0100",
		},
		employment: map[string]interface{}{
			"employer":        "Acme Manufacturing",
			"employment_type": "w2",
			"annual_income":   96000.0,
			"years_at_job":    5.0,
		},
		financial: map[string]interface{}{
			"self_reported_credit_score": 720.0,
			"liquid_assets":              60000.0,
			"monthly_debts": map[string]interface{}{
				"auto_loan":   350.0,
				"credit_card": 150.0,
			},
		},
		property: map[string]interface{}{
			"purchase_price": 400000.0,
			"property_type":  "single_family",
			"occupancy":      "primary",
			"state":          "CO",
		},
	}
}

// WithID sets a specific ID
func (b *ApplicationBuilder) WithID(id uuid.UUID) *ApplicationBuilder {
	b.entity.ID = id
	return b
}

// WithStatus sets the lifecycle status
func (b *ApplicationBuilder) WithStatus(status application.Status) *ApplicationBuilder {
	b.entity.Status = status
	return b
}

// WithLoanAmount sets the requested loan amount
func (b *ApplicationBuilder) WithLoanAmount(amount decimal.Decimal) *ApplicationBuilder {
	b.entity.LoanAmount = amount
	return b
}

// WithDownPayment sets the down payment
func (b *ApplicationBuilder) WithDownPayment(amount decimal.Decimal) *ApplicationBuilder {
	b.entity.DownPayment = amount
	return b
}

// WithDTIRatio sets the computed debt-to-income ratio (percent)
func (b *ApplicationBuilder) WithDTIRatio(ratio float64) *ApplicationBuilder {
	b.entity.DTIRatio = ratio
	return b
}

// WithProduct sets the loan product fields
func (b *ApplicationBuilder) WithProduct(product application.LoanProduct) *ApplicationBuilder {
	b.entity.ProductName = product.Name
	b.entity.ProductType = product.Type
	b.entity.TermMonths = product.TermMonths
	b.entity.BaseRate = product.BaseRate
	return b
}

// WithAnnualIncome sets the declared annual income
func (b *ApplicationBuilder) WithAnnualIncome(income float64) *ApplicationBuilder {
	b.employment["annual_income"] = income
	return b
}

// WithYearsAtJob sets the declared tenure at the current job
func (b *ApplicationBuilder) WithYearsAtJob(years float64) *ApplicationBuilder {
	b.employment["years_at_job"] = years
	return b
}

// WithSelfReportedScore sets the applicant's self-reported credit score
func (b *ApplicationBuilder) WithSelfReportedScore(score int) *ApplicationBuilder {
	b.financial["self_reported_credit_score"] = float64(score)
	return b
}

// WithLiquidAssets sets declared liquid assets
func (b *ApplicationBuilder) WithLiquidAssets(assets float64) *ApplicationBuilder {
	b.financial["liquid_assets"] = assets
	return b
}

// WithPurchasePrice sets the declared property purchase price
func (b *ApplicationBuilder) WithPurchasePrice(price float64) *ApplicationBuilder {
	b.property["purchase_price"] = price
	return b
}

// WithDeclarations sets the legal declarations
func (b *ApplicationBuilder) WithDeclarations(d application.Declarations) *ApplicationBuilder {
	b.declarations = d
	return b
}

// WithPersonalField sets an arbitrary personal_info field
func (b *ApplicationBuilder) WithPersonalField(key string, value interface{}) *ApplicationBuilder {
	b.personal[key] = value
	return b
}

// WithFinancialField sets an arbitrary financial_info field
func (b *ApplicationBuilder) WithFinancialField(key string, value interface{}) *ApplicationBuilder {
	b.financial[key] = value
	return b
}

// Build returns the built entity without inserting to DB
func (b *ApplicationBuilder) Build() *application.Application {
	b.encodeSections()
	return b.entity
}

func (b *ApplicationBuilder) encodeSections() {
	b.entity.PersonalInfo, _ = json.Marshal(b.personal)
	b.entity.EmploymentInfo, _ = json.Marshal(b.employment)
	b.entity.FinancialInfo, _ = json.Marshal(b.financial)
	b.entity.PropertyInfo, _ = json.Marshal(b.property)
	b.entity.Declarations, _ = json.Marshal(b.declarations)
}

// Insert inserts the application into the database and returns the entity
func (b *ApplicationBuilder) Insert() (*application.Application, error) {
	b.encodeSections()

	query := `
		INSERT INTO applications (
			id, status, personal_info, employment_info, financial_info,
			property_info, declarations, loan_amount, down_payment, dti_ratio,
			product_name, product_type, term_months, base_rate,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`

	_, err := b.db.ExecContext(
		b.ctx,
		query,
		b.entity.ID,
		b.entity.Status,
		b.entity.PersonalInfo,
		b.entity.EmploymentInfo,
		b.entity.FinancialInfo,
		b.entity.PropertyInfo,
		b.entity.Declarations,
		b.entity.LoanAmount,
		b.entity.DownPayment,
		b.entity.DTIRatio,
		b.entity.ProductName,
		b.entity.ProductType,
		b.entity.TermMonths,
		b.entity.BaseRate,
		b.entity.CreatedAt,
		b.entity.UpdatedAt,
	)

	if err != nil {
		return nil, fmt.Errorf("failed to insert application: %w", err)
	}

	return b.entity, nil
}

// MustInsert inserts the application and panics on error (useful for tests)
func (b *ApplicationBuilder) MustInsert() *application.Application {
	entity, err := b.Insert()
	if err != nil {
		panic(err)
	}
	return entity
}
