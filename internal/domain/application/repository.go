package application

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines the interface for application data access
type Repository interface {
	// GetByID retrieves an application by primary key
	GetByID(ctx context.Context, id uuid.UUID) (*Application, error)

	// ListDocumentSummaries returns extraction summaries for an application
	ListDocumentSummaries(ctx context.Context, applicationID uuid.UUID) ([]DocumentSummary, error)

	// UpdateStatus transitions the application lifecycle state
	UpdateStatus(ctx context.Context, id uuid.UUID, status Status) error
}
