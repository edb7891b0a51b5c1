package assessment

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines the interface for assessment persistence
type Repository interface {
	// CreateAttempt inserts a new in-progress attempt, assigning the next
	// attempt number for the application
	CreateAttempt(ctx context.Context, a *Assessment) error

	// Complete records the final outcome of an attempt
	Complete(ctx context.Context, a *Assessment) error

	// MarkFailed records a pipeline-level failure with a truncated message
	MarkFailed(ctx context.Context, id uuid.UUID, errMsg string) error

	// SaveDimensionScores stores the per-dimension rows for an attempt
	SaveDimensionScores(ctx context.Context, scores []DimensionScore) error

	// GetByID retrieves an attempt by primary key
	GetByID(ctx context.Context, id uuid.UUID) (*Assessment, error)

	// ListByApplication returns all attempts for an application, newest first
	ListByApplication(ctx context.Context, applicationID uuid.UUID) ([]*Assessment, error)
}
