package documents

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryRepo is an in-memory implementation of DocumentsRepo used in dev
// mode and tests.
type MemoryRepo struct {
	mu   sync.RWMutex
	data map[string]map[string]Document // userID -> documentID -> document
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		data: make(map[string]map[string]Document),
	}
}

// Create stores a new document for a user.
func (r *MemoryRepo) Create(ctx context.Context, doc Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.data[doc.UserID] == nil {
		r.data[doc.UserID] = make(map[string]Document)
	}
	r.data[doc.UserID][doc.ID] = cloneDocument(doc)
	return nil
}

// GetByID returns a document by ID for a user; deleted rows read as missing.
func (r *MemoryRepo) GetByID(ctx context.Context, userID, documentID string) (Document, error) {
	if err := ctx.Err(); err != nil {
		return Document{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	doc, ok := r.data[userID][documentID]
	if !ok || doc.Status == StatusDeleted {
		return Document{}, ErrNotFound
	}
	return cloneDocument(doc), nil
}

// ListByUser returns non-deleted documents newest-first.
func (r *MemoryRepo) ListByUser(ctx context.Context, userID string, filter ListFilter) ([]Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	var docs []Document
	for _, doc := range r.data[userID] {
		if doc.Status == StatusDeleted {
			continue
		}
		if filter.DocumentType != "" && doc.DocumentType != filter.DocumentType {
			continue
		}
		if filter.Status != "" && doc.Status != filter.Status {
			continue
		}
		if filter.VerificationStatus != "" && doc.VerificationStatus != filter.VerificationStatus {
			continue
		}
		docs = append(docs, cloneDocument(doc))
	}
	r.mu.RUnlock()

	sort.Slice(docs, func(i, j int) bool {
		return docs[i].CreatedAt.After(docs[j].CreatedAt)
	})

	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	if offset >= len(docs) {
		return []Document{}, nil
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	end := offset + limit
	if end > len(docs) {
		end = len(docs)
	}
	return docs[offset:end], nil
}

// Update replaces everything except the analysis field.
func (r *MemoryRepo) Update(ctx context.Context, doc Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.data[doc.UserID][doc.ID]
	if !ok {
		return ErrNotFound
	}
	next := cloneDocument(doc)
	next.Analysis = existing.Analysis
	r.data[doc.UserID][doc.ID] = next
	return nil
}

// UpdateAnalysis writes only the analysis field; stale writes (older
// analysisDate) are dropped so retries stay idempotent.
func (r *MemoryRepo) UpdateAnalysis(ctx context.Context, userID, documentID string, a Analysis) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	doc, ok := r.data[userID][documentID]
	if !ok || doc.Status == StatusDeleted {
		return nil
	}
	if doc.Analysis != nil && doc.Analysis.AnalysisDate.After(a.AnalysisDate) {
		return nil
	}
	copied := a
	doc.Analysis = &copied
	doc.UpdatedAt = time.Now().UTC()
	r.data[userID][documentID] = doc
	return nil
}

// ExpiringBetween scans all users for documents expiring in the window,
// skipping deleted and replaced rows.
func (r *MemoryRepo) ExpiringBetween(ctx context.Context, from, to time.Time) ([]Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []Document
	for _, docs := range r.data {
		for _, doc := range docs {
			if doc.Status == StatusDeleted || doc.Status == StatusReplaced {
				continue
			}
			expiry := doc.Metadata.ExpiryDate
			if expiry == nil || expiry.Before(from) || expiry.After(to) {
				continue
			}
			out = append(out, cloneDocument(doc))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Metadata.ExpiryDate.Before(*out[j].Metadata.ExpiryDate)
	})
	return out, nil
}

func cloneDocument(doc Document) Document {
	out := doc
	out.Versions = append([]Version(nil), doc.Versions...)
	out.AuditTrail = append([]AuditEntry(nil), doc.AuditTrail...)
	if doc.Metadata.Tags != nil {
		out.Metadata.Tags = append([]string(nil), doc.Metadata.Tags...)
	}
	if doc.Analysis != nil {
		copied := *doc.Analysis
		out.Analysis = &copied
	}
	return out
}

var _ DocumentsRepo = (*MemoryRepo)(nil)
