package documents

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// PGRepo implements DocumentsRepo using Postgres. Embedded parts persist as
// JSONB columns; indexable fields stay scalar.
type PGRepo struct {
	DB *sql.DB
}

const documentColumns = `
id, user_id, document_type, file_name, original_filename, mime_type, size_bytes,
storage_provider, storage_key, status, verification_status,
verification, metadata, analysis, versions, audit_trail,
created_at, updated_at`

// Create inserts a new document row.
func (r *PGRepo) Create(ctx context.Context, doc Document) error {
	const query = `
INSERT INTO documents (
    id, user_id, document_type, file_name, original_filename, mime_type, size_bytes,
    storage_provider, storage_key, status, verification_status,
    verification, metadata, analysis, versions, audit_trail,
    expiry_date, created_at, updated_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)`

	verification, metadata, analysisJSON, versions, audit, err := marshalEmbedded(doc)
	if err != nil {
		return err
	}

	_, err = r.DB.ExecContext(
		ctx,
		query,
		doc.ID,
		doc.UserID,
		doc.DocumentType,
		doc.FileName,
		nullString(doc.OriginalFilename),
		doc.MimeType,
		doc.SizeBytes,
		nullString(doc.StorageProvider),
		nullString(doc.StorageKey),
		doc.Status,
		doc.VerificationStatus,
		verification,
		metadata,
		analysisJSON,
		versions,
		audit,
		nullTime(doc.Metadata.ExpiryDate),
		doc.CreatedAt,
		doc.UpdatedAt,
	)
	return err
}

// GetByID fetches a document by ID for a user. Soft-deleted rows read as
// not found.
func (r *PGRepo) GetByID(ctx context.Context, userID, documentID string) (Document, error) {
	query := `
SELECT ` + documentColumns + `
FROM documents
WHERE user_id = $1 AND id = $2 AND status <> 'deleted'
LIMIT 1`
	doc, err := scanDocument(r.DB.QueryRowContext(ctx, query, userID, documentID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Document{}, ErrNotFound
		}
		return Document{}, err
	}
	return doc, nil
}

// ListByUser lists documents newest-first, excluding deleted rows.
func (r *PGRepo) ListByUser(ctx context.Context, userID string, filter ListFilter) ([]Document, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := `
SELECT ` + documentColumns + `
FROM documents
WHERE user_id = $1 AND status <> 'deleted'`
	args := []any{userID}

	if filter.DocumentType != "" {
		args = append(args, filter.DocumentType)
		query += fmt.Sprintf(" AND document_type = $%d", len(args))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if filter.VerificationStatus != "" {
		args = append(args, filter.VerificationStatus)
		query += fmt.Sprintf(" AND verification_status = $%d", len(args))
	}

	args = append(args, limit, offset)
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	return out, rows.Err()
}

// Update rewrites every column except analysis, which belongs to
// UpdateAnalysis alone.
func (r *PGRepo) Update(ctx context.Context, doc Document) error {
	const query = `
UPDATE documents
SET file_name = $3,
    original_filename = $4,
    mime_type = $5,
    size_bytes = $6,
    storage_provider = $7,
    storage_key = $8,
    status = $9,
    verification_status = $10,
    verification = $11,
    metadata = $12,
    versions = $13,
    audit_trail = $14,
    expiry_date = $15,
    updated_at = $16
WHERE user_id = $1 AND id = $2`

	verification, metadata, _, versions, audit, err := marshalEmbedded(doc)
	if err != nil {
		return err
	}

	res, err := r.DB.ExecContext(
		ctx,
		query,
		doc.UserID,
		doc.ID,
		doc.FileName,
		nullString(doc.OriginalFilename),
		doc.MimeType,
		doc.SizeBytes,
		nullString(doc.StorageProvider),
		nullString(doc.StorageKey),
		doc.Status,
		doc.VerificationStatus,
		verification,
		metadata,
		versions,
		audit,
		nullTime(doc.Metadata.ExpiryDate),
		doc.UpdatedAt,
	)
	if err != nil {
		return err
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateAnalysis writes only the analysis column. Last writer per
// analysisDate wins, so retries and out-of-order completions are safe.
func (r *PGRepo) UpdateAnalysis(ctx context.Context, userID, documentID string, a Analysis) error {
	const query = `
UPDATE documents
SET analysis = $3, updated_at = $4
WHERE user_id = $1 AND id = $2 AND status <> 'deleted'
  AND (analysis IS NULL OR analysis->>'analysisDate' <= $5)`

	payload, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("marshal analysis: %w", err)
	}

	_, err = r.DB.ExecContext(
		ctx,
		query,
		userID,
		documentID,
		payload,
		time.Now().UTC(),
		a.AnalysisDate.UTC().Format(time.RFC3339Nano),
	)
	return err
}

// ExpiringBetween returns documents whose expiry date falls in the window,
// skipping deleted and replaced rows.
func (r *PGRepo) ExpiringBetween(ctx context.Context, from, to time.Time) ([]Document, error) {
	query := `
SELECT ` + documentColumns + `
FROM documents
WHERE expiry_date IS NOT NULL
  AND expiry_date BETWEEN $1 AND $2
  AND status NOT IN ('deleted', 'replaced')
ORDER BY expiry_date ASC`

	rows, err := r.DB.QueryContext(ctx, query, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (Document, error) {
	var doc Document
	var originalName, storageProvider, storageKey sql.NullString
	var verification, metadata, analysisJSON, versions, audit []byte

	err := row.Scan(
		&doc.ID,
		&doc.UserID,
		&doc.DocumentType,
		&doc.FileName,
		&originalName,
		&doc.MimeType,
		&doc.SizeBytes,
		&storageProvider,
		&storageKey,
		&doc.Status,
		&doc.VerificationStatus,
		&verification,
		&metadata,
		&analysisJSON,
		&versions,
		&audit,
		&doc.CreatedAt,
		&doc.UpdatedAt,
	)
	if err != nil {
		return Document{}, err
	}

	doc.OriginalFilename = originalName.String
	doc.StorageProvider = storageProvider.String
	doc.StorageKey = storageKey.String

	if len(verification) > 0 {
		if err := json.Unmarshal(verification, &doc.Verification); err != nil {
			return Document{}, fmt.Errorf("unmarshal verification: %w", err)
		}
	}
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &doc.Metadata); err != nil {
			return Document{}, fmt.Errorf("unmarshal metadata: %w", err)
		}
	}
	if len(analysisJSON) > 0 {
		var a Analysis
		if err := json.Unmarshal(analysisJSON, &a); err != nil {
			return Document{}, fmt.Errorf("unmarshal analysis: %w", err)
		}
		doc.Analysis = &a
	}
	if len(versions) > 0 {
		if err := json.Unmarshal(versions, &doc.Versions); err != nil {
			return Document{}, fmt.Errorf("unmarshal versions: %w", err)
		}
	}
	if len(audit) > 0 {
		if err := json.Unmarshal(audit, &doc.AuditTrail); err != nil {
			return Document{}, fmt.Errorf("unmarshal audit trail: %w", err)
		}
	}
	return doc, nil
}

func marshalEmbedded(doc Document) (verification, metadata, analysisJSON, versions, audit []byte, err error) {
	if verification, err = json.Marshal(doc.Verification); err != nil {
		return nil, nil, nil, nil, nil, fmt.Errorf("marshal verification: %w", err)
	}
	if metadata, err = json.Marshal(doc.Metadata); err != nil {
		return nil, nil, nil, nil, nil, fmt.Errorf("marshal metadata: %w", err)
	}
	if doc.Analysis != nil {
		if analysisJSON, err = json.Marshal(doc.Analysis); err != nil {
			return nil, nil, nil, nil, nil, fmt.Errorf("marshal analysis: %w", err)
		}
	}
	if doc.Versions == nil {
		doc.Versions = []Version{}
	}
	if versions, err = json.Marshal(doc.Versions); err != nil {
		return nil, nil, nil, nil, nil, fmt.Errorf("marshal versions: %w", err)
	}
	if doc.AuditTrail == nil {
		doc.AuditTrail = []AuditEntry{}
	}
	if audit, err = json.Marshal(doc.AuditTrail); err != nil {
		return nil, nil, nil, nil, nil, fmt.Errorf("marshal audit trail: %w", err)
	}
	return verification, metadata, analysisJSON, versions, audit, nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

var _ DocumentsRepo = (*PGRepo)(nil)
