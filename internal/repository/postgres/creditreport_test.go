package postgres

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"meridian/internal/domain/creditreport"
	"meridian/pkg/errors"
)

func sampleReport(appID uuid.UUID) *creditreport.Report {
	return &creditreport.Report{
		ID:            uuid.New(),
		ApplicationID: appID,
		Score:         705,
		ScoreModel:    creditreport.ScoreModelFICO8,
		ScoreFactors:  []string{"Strong payment history"},
		FraudScore:    18,
		Summary: creditreport.SummaryMetrics{
			TotalAccounts:     5,
			OpenAccounts:      4,
			CreditUtilization: 22.5,
			OnTimePaymentsPct: 98.1,
		},
		PulledAt: time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC),
	}
}

func TestCreditReportCreate(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewCreditReportRepository(db)

	report := sampleReport(uuid.New())
	mock.ExpectExec(`INSERT INTO credit_reports`).
		WithArgs(report.ID, report.ApplicationID, report.Score, report.ScoreModel,
			report.FraudScore, sqlmock.AnyArg(), report.PulledAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Create(context.Background(), report)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreditReportGetLatest(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewCreditReportRepository(db)

	appID := uuid.New()
	want := sampleReport(appID)
	payload, err := json.Marshal(want)
	require.NoError(t, err)

	mock.ExpectQuery(`SELECT payload FROM credit_reports`).WithArgs(appID).
		WillReturnRows(sqlmock.NewRows([]string{"payload"}).AddRow(payload))

	got, err := repo.GetLatestByApplication(context.Background(), appID)
	require.NoError(t, err)
	assert.Equal(t, want.ID, got.ID)
	assert.Equal(t, 705, got.Score)
	assert.Equal(t, 98.1, got.Summary.OnTimePaymentsPct)
	assert.True(t, want.PulledAt.Equal(got.PulledAt))
}

func TestCreditReportGetLatestNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewCreditReportRepository(db)

	appID := uuid.New()
	mock.ExpectQuery(`SELECT payload FROM credit_reports`).WithArgs(appID).
		WillReturnRows(sqlmock.NewRows([]string{"payload"}))

	_, err := repo.GetLatestByApplication(context.Background(), appID)
	assert.True(t, errors.Is(err, errors.ErrNotFound))
}
