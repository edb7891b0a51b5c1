package seeds

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"meridian/internal/domain/application"
)

// DocumentBuilder provides a fluent API for creating document extraction rows
type DocumentBuilder struct {
	db  DBTX
	ctx context.Context

	id            uuid.UUID
	applicationID uuid.UUID
	docType       string
	status        string
	extracted     map[string]interface{}
	confidence    float64
	uploadedAt    time.Time
}

// NewDocumentBuilder creates a new DocumentBuilder with sensible defaults
func NewDocumentBuilder(db DBTX, ctx context.Context) *DocumentBuilder {
	return &DocumentBuilder{
		db:      db,
		ctx:     ctx,
		id:      uuid.New(),
		docType: "pay_stub",
		status:  application.DocumentStatusProcessed,
		extracted: map[string]interface{}{
			"gross_pay":  4000.0,
			"pay_period": "semi_monthly",
			"employer":   "Acme Manufacturing",
		},
		confidence: 0.95,
		uploadedAt: time.Now(),
	}
}

// ForApplication sets the owning application
func (b *DocumentBuilder) ForApplication(id uuid.UUID) *DocumentBuilder {
	b.applicationID = id
	return b
}

// WithType sets the document type (pay_stub, w2, bank_statement, tax_return, id)
func (b *DocumentBuilder) WithType(docType string) *DocumentBuilder {
	b.docType = docType
	return b
}

// WithStatus sets the extraction status
func (b *DocumentBuilder) WithStatus(status string) *DocumentBuilder {
	b.status = status
	return b
}

// WithExtractedData replaces the extraction payload
func (b *DocumentBuilder) WithExtractedData(data map[string]interface{}) *DocumentBuilder {
	b.extracted = data
	return b
}

// WithConfidence sets the extraction confidence
func (b *DocumentBuilder) WithConfidence(confidence float64) *DocumentBuilder {
	b.confidence = confidence
	return b
}

// Build returns the summary view without inserting to DB
func (b *DocumentBuilder) Build() application.DocumentSummary {
	return application.DocumentSummary{
		Type:          b.docType,
		Status:        b.status,
		ExtractedData: b.extracted,
		Confidence:    b.confidence,
	}
}

// Insert inserts the document row and returns the summary view
func (b *DocumentBuilder) Insert() (application.DocumentSummary, error) {
	if b.applicationID == uuid.Nil {
		return application.DocumentSummary{}, fmt.Errorf("document requires an application: call ForApplication first")
	}

	payload, err := json.Marshal(b.extracted)
	if err != nil {
		return application.DocumentSummary{}, fmt.Errorf("failed to encode extracted data: %w", err)
	}

	query := `
		INSERT INTO documents (
			id, application_id, document_type, status,
			extracted_data, confidence, uploaded_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err = b.db.ExecContext(
		b.ctx,
		query,
		b.id,
		b.applicationID,
		b.docType,
		b.status,
		payload,
		b.confidence,
		b.uploadedAt,
	)

	if err != nil {
		return application.DocumentSummary{}, fmt.Errorf("failed to insert document: %w", err)
	}

	return b.Build(), nil
}

// MustInsert inserts the document and panics on error (useful for tests)
func (b *DocumentBuilder) MustInsert() application.DocumentSummary {
	summary, err := b.Insert()
	if err != nil {
		panic(err)
	}
	return summary
}
