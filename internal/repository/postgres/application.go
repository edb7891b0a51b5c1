package postgres

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/google/uuid"

	"meridian/internal/domain/application"
	"meridian/pkg/errors"
)

// Compile-time check that we implement the interface
var _ application.Repository = (*ApplicationRepository)(nil)

// ApplicationRepository implements application.Repository using sqlx
type ApplicationRepository struct {
	db DBTX
}

// NewApplicationRepository creates a new application repository
func NewApplicationRepository(db DBTX) *ApplicationRepository {
	return &ApplicationRepository{db: db}
}

// GetByID retrieves an application by primary key
func (r *ApplicationRepository) GetByID(ctx context.Context, id uuid.UUID) (*application.Application, error) {
	var a application.Application

	query := `
		SELECT id, status, personal_info, employment_info, financial_info, property_info,
		       declarations, loan_amount, down_payment, dti_ratio,
		       product_name, product_type, term_months, base_rate,
		       created_at, updated_at
		FROM applications
		WHERE id = $1`

	err := r.db.GetContext(ctx, &a, query, id)
	if err == sql.ErrNoRows {
		return nil, errors.Wrap(errors.ErrNotFound, "application not found")
	}
	if err != nil {
		return nil, err
	}

	return &a, nil
}

// ListDocumentSummaries returns extraction summaries for an application
func (r *ApplicationRepository) ListDocumentSummaries(ctx context.Context, applicationID uuid.UUID) ([]application.DocumentSummary, error) {
	query := `
		SELECT document_type, status, extracted_data, confidence
		FROM documents
		WHERE application_id = $1
		ORDER BY uploaded_at`

	rows, err := r.db.QueryContext(ctx, query, applicationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var summaries []application.DocumentSummary
	for rows.Next() {
		var d application.DocumentSummary
		var extracted []byte

		if err := rows.Scan(&d.Type, &d.Status, &extracted, &d.Confidence); err != nil {
			return nil, err
		}
		if len(extracted) > 0 {
			if err := json.Unmarshal(extracted, &d.ExtractedData); err != nil {
				return nil, errors.Wrap(err, "decode extracted document data")
			}
		}
		summaries = append(summaries, d)
	}

	return summaries, rows.Err()
}

// UpdateStatus transitions the application lifecycle state
func (r *ApplicationRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status application.Status) error {
	query := `
		UPDATE applications
		SET status = $2, updated_at = NOW()
		WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id, status)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return errors.Wrap(errors.ErrNotFound, "application not found")
	}

	return nil
}
