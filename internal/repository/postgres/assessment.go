package postgres

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/google/uuid"

	"meridian/internal/domain/assessment"
	"meridian/pkg/errors"
)

// Compile-time check that we implement the interface
var _ assessment.Repository = (*AssessmentRepository)(nil)

// AssessmentRepository implements assessment.Repository using sqlx
type AssessmentRepository struct {
	db DBTX
}

// NewAssessmentRepository creates a new assessment repository
func NewAssessmentRepository(db DBTX) *AssessmentRepository {
	return &AssessmentRepository{db: db}
}

// CreateAttempt inserts a new in-progress attempt. The attempt number is
// assigned inside the insert so concurrent attempts for one application
// cannot collide.
func (r *AssessmentRepository) CreateAttempt(ctx context.Context, a *assessment.Assessment) error {
	query := `
		INSERT INTO assessments (
			id, application_id, attempt_number, status, started_at
		)
		SELECT $1, $2, COALESCE(MAX(attempt_number), 0) + 1, $3, $4
		FROM assessments
		WHERE application_id = $2
		RETURNING attempt_number`

	err := r.db.QueryRowContext(ctx, query,
		a.ID, a.ApplicationID, assessment.StatusInProgress, a.StartedAt,
	).Scan(&a.AttemptNumber)
	if err != nil {
		return errors.Wrap(err, "create assessment attempt")
	}

	a.Status = assessment.StatusInProgress
	return nil
}

// Complete records the final outcome of an attempt
func (r *AssessmentRepository) Complete(ctx context.Context, a *assessment.Assessment) error {
	conditions, err := json.Marshal(a.Conditions)
	if err != nil {
		return errors.Wrap(err, "marshal conditions")
	}

	query := `
		UPDATE assessments
		SET status = $2, overall_score = $3, risk_band = $4, recommendation = $5,
		    summary = $6, confidence = $7, conditions = $8,
		    agents_succeeded = $9, agents_failed = $10, total_tokens = $11,
		    duration_ms = $12, used_ai = $13, completed_at = $14
		WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query,
		a.ID, assessment.StatusCompleted, a.OverallScore, a.RiskBand, a.Recommendation,
		a.Summary, a.Confidence, conditions,
		a.AgentsSucceeded, a.AgentsFailed, a.TotalTokens,
		a.DurationMS, a.UsedAI, a.CompletedAt,
	)
	if err != nil {
		return err
	}
	return requireAffected(result, "assessment not found")
}

// MarkFailed records a pipeline-level failure
func (r *AssessmentRepository) MarkFailed(ctx context.Context, id uuid.UUID, errMsg string) error {
	query := `
		UPDATE assessments
		SET status = $2, error = $3, completed_at = NOW()
		WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id, assessment.StatusFailed, errMsg)
	if err != nil {
		return err
	}
	return requireAffected(result, "assessment not found")
}

// SaveDimensionScores stores the per-dimension rows for an attempt
func (r *AssessmentRepository) SaveDimensionScores(ctx context.Context, scores []assessment.DimensionScore) error {
	query := `
		INSERT INTO dimension_scores (
			id, assessment_id, dimension, agent_name,
			score, weight, weighted_score,
			positive_factors, risk_factors, mitigating_factors, explanation,
			success, error, tokens_used, latency_ms
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`

	for _, s := range scores {
		positive, err := json.Marshal(s.PositiveFactors)
		if err != nil {
			return errors.Wrap(err, "marshal positive factors")
		}
		risk, err := json.Marshal(s.RiskFactors)
		if err != nil {
			return errors.Wrap(err, "marshal risk factors")
		}
		mitigating, err := json.Marshal(s.MitigatingFactors)
		if err != nil {
			return errors.Wrap(err, "marshal mitigating factors")
		}

		_, err = r.db.ExecContext(ctx, query,
			s.ID, s.AssessmentID, s.Dimension, s.AgentName,
			s.Score, s.Weight, s.WeightedScore,
			positive, risk, mitigating, s.Explanation,
			s.Success, s.Error, s.TokensUsed, s.LatencyMS,
		)
		if err != nil {
			return errors.Wrapf(err, "save dimension score %s", s.Dimension)
		}
	}
	return nil
}

// GetByID retrieves an attempt by primary key
func (r *AssessmentRepository) GetByID(ctx context.Context, id uuid.UUID) (*assessment.Assessment, error) {
	query := assessmentSelect + ` WHERE id = $1`

	row := r.db.QueryRowContext(ctx, query, id)
	a, err := scanAssessment(row.Scan)
	if err == sql.ErrNoRows {
		return nil, errors.Wrap(errors.ErrNotFound, "assessment not found")
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}

// ListByApplication returns all attempts for an application, newest first
func (r *AssessmentRepository) ListByApplication(ctx context.Context, applicationID uuid.UUID) ([]*assessment.Assessment, error) {
	query := assessmentSelect + ` WHERE application_id = $1 ORDER BY attempt_number DESC`

	rows, err := r.db.QueryContext(ctx, query, applicationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*assessment.Assessment
	for rows.Next() {
		a, err := scanAssessment(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

const assessmentSelect = `
	SELECT id, application_id, attempt_number, status,
	       overall_score, risk_band, recommendation, summary, confidence, conditions,
	       agents_succeeded, agents_failed, total_tokens, duration_ms,
	       used_ai, error, started_at, completed_at
	FROM assessments`

func scanAssessment(scan func(dest ...interface{}) error) (*assessment.Assessment, error) {
	var a assessment.Assessment
	var conditions []byte

	err := scan(
		&a.ID, &a.ApplicationID, &a.AttemptNumber, &a.Status,
		&a.OverallScore, &a.RiskBand, &a.Recommendation, &a.Summary, &a.Confidence, &conditions,
		&a.AgentsSucceeded, &a.AgentsFailed, &a.TotalTokens, &a.DurationMS,
		&a.UsedAI, &a.Error, &a.StartedAt, &a.CompletedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(conditions) > 0 {
		if err := json.Unmarshal(conditions, &a.Conditions); err != nil {
			return nil, errors.Wrap(err, "decode assessment conditions")
		}
	}
	return &a, nil
}

func requireAffected(result sql.Result, msg string) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return errors.Wrap(errors.ErrNotFound, msg)
	}
	return nil
}
