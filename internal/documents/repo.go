package documents

import (
	"context"
	"time"
)

// ListFilter narrows ListByUser. Zero values mean no filtering; deleted rows
// are always excluded.
type ListFilter struct {
	DocumentType       string
	Status             string
	VerificationStatus string
	Limit              int
	Offset             int
}

// DocumentsRepo defines persistence operations for documents.
//
// Update writes every column except analysis; UpdateAnalysis writes only the
// analysis column. The split keeps the deferred enrichment write from
// clobbering concurrent metadata or verification edits.
type DocumentsRepo interface {
	Create(ctx context.Context, doc Document) error
	GetByID(ctx context.Context, userID, documentID string) (Document, error)
	ListByUser(ctx context.Context, userID string, filter ListFilter) ([]Document, error)
	Update(ctx context.Context, doc Document) error
	UpdateAnalysis(ctx context.Context, userID, documentID string, a Analysis) error

	// ExpiringBetween returns non-deleted, non-replaced documents whose
	// expiry date falls inside [from, to], across all users.
	ExpiringBetween(ctx context.Context, from, to time.Time) ([]Document, error)
}
