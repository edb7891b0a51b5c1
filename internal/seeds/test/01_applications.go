package test

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"meridian/internal/domain/application"
	"meridian/internal/testsupport/seeds"
)

// Fixed IDs so integration tests can reference seeded rows directly.
var (
	ApprovableApplicationID = uuid.MustParse("a0000000-0000-0000-0000-000000000001")
	DeniableApplicationID   = uuid.MustParse("a0000000-0000-0000-0000-000000000002")
	DraftApplicationID      = uuid.MustParse("a0000000-0000-0000-0000-000000000003")
)

// SeedApplications creates a deterministic application set for the
// integration test environment (idempotent).
func SeedApplications(ctx context.Context, s *seeds.Seeder) error {
	log := s.Log()

	approvable, err := s.Application().
		WithID(ApprovableApplicationID).
		WithSelfReportedScore(760).
		WithAnnualIncome(120000).
		WithYearsAtJob(6).
		WithLiquidAssets(90000).
		WithLoanAmount(decimal.NewFromInt(340000)).
		WithDownPayment(decimal.NewFromInt(85000)).
		WithPurchasePrice(425000).
		WithDTIRatio(27.0).
		Insert()
	if err != nil {
		if strings.Contains(err.Error(), "duplicate key") {
			log.Info("Test applications already seeded, skipping")
			return nil
		}
		return err
	}
	if _, err := s.Document().ForApplication(approvable.ID).WithType("pay_stub").Insert(); err != nil {
		return err
	}
	if _, err := s.Document().ForApplication(approvable.ID).WithType("w2").Insert(); err != nil {
		return err
	}

	if _, err := s.Application().
		WithID(DeniableApplicationID).
		WithSelfReportedScore(555).
		WithAnnualIncome(42000).
		WithYearsAtJob(0.5).
		WithLiquidAssets(2000).
		WithLoanAmount(decimal.NewFromInt(285000)).
		WithDownPayment(decimal.NewFromInt(15000)).
		WithPurchasePrice(300000).
		WithDTIRatio(55.0).
		WithDeclarations(application.Declarations{HasForeclosure: true}).
		Insert(); err != nil {
		return err
	}

	if _, err := s.Application().
		WithID(DraftApplicationID).
		WithStatus(application.StatusDraft).
		Insert(); err != nil {
		return err
	}

	log.Infow("Seeded test applications", "count", 3)
	return nil
}
