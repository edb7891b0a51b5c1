package postgres

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/google/uuid"

	"meridian/internal/domain/creditreport"
	"meridian/pkg/errors"
)

// Compile-time check that we implement the interface
var _ creditreport.Repository = (*CreditReportRepository)(nil)

// CreditReportRepository implements creditreport.Repository using sqlx.
// The structured report body lives in a JSONB payload column; the scores
// queried by the rule engine and dashboards are lifted into columns.
type CreditReportRepository struct {
	db DBTX
}

// NewCreditReportRepository creates a new credit report repository
func NewCreditReportRepository(db DBTX) *CreditReportRepository {
	return &CreditReportRepository{db: db}
}

// Create stores a generated report
func (r *CreditReportRepository) Create(ctx context.Context, report *creditreport.Report) error {
	payload, err := json.Marshal(report)
	if err != nil {
		return errors.Wrap(err, "marshal credit report")
	}

	query := `
		INSERT INTO credit_reports (
			id, application_id, score, score_model, fraud_score, payload, pulled_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err = r.db.ExecContext(ctx, query,
		report.ID, report.ApplicationID, report.Score, report.ScoreModel,
		report.FraudScore, payload, report.PulledAt,
	)
	return err
}

// GetLatestByApplication returns the most recently pulled report
func (r *CreditReportRepository) GetLatestByApplication(ctx context.Context, applicationID uuid.UUID) (*creditreport.Report, error) {
	var payload []byte

	query := `
		SELECT payload
		FROM credit_reports
		WHERE application_id = $1
		ORDER BY pulled_at DESC
		LIMIT 1`

	err := r.db.QueryRowContext(ctx, query, applicationID).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, errors.Wrap(errors.ErrNotFound, "credit report not found")
	}
	if err != nil {
		return nil, err
	}

	var report creditreport.Report
	if err := json.Unmarshal(payload, &report); err != nil {
		return nil, errors.Wrap(err, "decode credit report payload")
	}
	return &report, nil
}
