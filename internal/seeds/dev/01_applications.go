package dev

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"

	"meridian/internal/domain/application"
	"meridian/internal/testsupport/seeds"
)

// SeedApplications creates sample loan applications covering the whole
// decision spectrum for local development (idempotent).
func SeedApplications(ctx context.Context, s *seeds.Seeder) error {
	log := s.Log()

	// Strong applicant: high score, low DTI, 25% down. Should approve.
	strong, err := s.Application().
		WithSelfReportedScore(780).
		WithAnnualIncome(145000).
		WithYearsAtJob(8).
		WithLiquidAssets(120000).
		WithLoanAmount(decimal.NewFromInt(375000)).
		WithDownPayment(decimal.NewFromInt(125000)).
		WithPurchasePrice(500000).
		WithDTIRatio(24.5).
		WithPersonalField("full_name", "Dana Merritt").
		Insert()
	if err != nil {
		if strings.Contains(err.Error(), "duplicate key") {
			log.Info("Applications already seeded, skipping")
			return nil
		}
		return err
	}

	if _, err := s.Document().ForApplication(strong.ID).WithType("pay_stub").Insert(); err != nil {
		return err
	}
	if _, err := s.Document().ForApplication(strong.ID).WithType("w2").WithExtractedData(map[string]interface{}{
		"wages":    145000.0,
		"employer": "Summit Analytics",
		"tax_year": 2025.0,
	}).Insert(); err != nil {
		return err
	}
	if _, err := s.Document().ForApplication(strong.ID).WithType("bank_statement").WithExtractedData(map[string]interface{}{
		"ending_balance": 120000.0,
		"institution":    "First Meridian Bank",
	}).Insert(); err != nil {
		return err
	}

	log.Infow("Created application", "id", strong.ID, "profile", "strong")

	// Marginal applicant: thin reserves and elevated DTI. Lands in
	// conditional or review depending on the AI path.
	marginal, err := s.Application().
		WithSelfReportedScore(665).
		WithAnnualIncome(72000).
		WithYearsAtJob(1.5).
		WithLiquidAssets(18000).
		WithLoanAmount(decimal.NewFromInt(304000)).
		WithDownPayment(decimal.NewFromInt(16000)).
		WithPurchasePrice(320000).
		WithDTIRatio(41.0).
		WithProduct(application.LoanProduct{
			Name:       "30-Year Fixed FHA",
			Type:       "fha",
			TermMonths: 360,
			BaseRate:   6.25,
		}).
		WithPersonalField("full_name", "Luis Ochoa").
		Insert()
	if err != nil {
		return err
	}
	if _, err := s.Document().ForApplication(marginal.ID).WithType("pay_stub").WithConfidence(0.78).Insert(); err != nil {
		return err
	}

	log.Infow("Created application", "id", marginal.ID, "profile", "marginal")

	// Weak applicant: derogatory declarations, low score, minimal down
	// payment. Should deny.
	weak, err := s.Application().
		WithSelfReportedScore(560).
		WithAnnualIncome(48000).
		WithYearsAtJob(0.5).
		WithLiquidAssets(3000).
		WithLoanAmount(decimal.NewFromInt(261000)).
		WithDownPayment(decimal.NewFromInt(9000)).
		WithPurchasePrice(270000).
		WithDTIRatio(52.0).
		WithDeclarations(application.Declarations{
			HasBankruptcy:     true,
			HasDelinquentDebt: true,
		}).
		WithPersonalField("full_name", "Pat Winslow").
		Insert()
	if err != nil {
		return err
	}

	log.Infow("Created application", "id", weak.ID, "profile", "weak")

	// Draft application: not yet submitted, must never be assessed.
	draft, err := s.Application().
		WithStatus(application.StatusDraft).
		WithPersonalField("full_name", "Riley Chen").
		Insert()
	if err != nil {
		return err
	}

	log.Infow("Created application", "id", draft.ID, "profile", "draft")

	return nil
}
