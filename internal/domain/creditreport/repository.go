package creditreport

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines the interface for credit report persistence
type Repository interface {
	// Create stores a generated report
	Create(ctx context.Context, report *Report) error

	// GetLatestByApplication returns the most recently pulled report for an
	// application, or errors.ErrNotFound when none exists
	GetLatestByApplication(ctx context.Context, applicationID uuid.UUID) (*Report, error)
}
