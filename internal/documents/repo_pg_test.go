package documents

import (
	"context"
	"encoding/json"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"docvault-backend/internal/analysis"
)

func newPGRepo(t *testing.T) (*PGRepo, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	return &PGRepo{DB: db}, mock, func() { db.Close() }
}

func sampleDocument() Document {
	now := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)
	expiry := time.Date(2031, 6, 20, 0, 0, 0, 0, time.UTC)
	return Document{
		ID:                 "doc-1",
		UserID:             "user-1",
		DocumentType:       "passport",
		FileName:           "scan.pdf",
		OriginalFilename:   "scan.pdf",
		MimeType:           "application/pdf",
		SizeBytes:          2048,
		StorageProvider:    "s3",
		StorageKey:         "users/u1/scan.pdf",
		Status:             StatusUploaded,
		VerificationStatus: VerificationPendingSubmission,
		Verification:       VerificationDetails{WorkflowState: WorkflowNone},
		Metadata:           Metadata{ExpiryDate: &expiry},
		Versions:           []Version{{VersionNumber: 1, FileName: "scan.pdf", UploadedAt: now}},
		AuditTrail:         []AuditEntry{{Actor: "user-1", Action: AuditUpload, Timestamp: now}},
		CreatedAt:          now,
		UpdatedAt:          now,
	}
}

func documentRow(t *testing.T, doc Document) *sqlmock.Rows {
	t.Helper()
	verification, _ := json.Marshal(doc.Verification)
	metadata, _ := json.Marshal(doc.Metadata)
	versions, _ := json.Marshal(doc.Versions)
	audit, _ := json.Marshal(doc.AuditTrail)
	var analysisJSON []byte
	if doc.Analysis != nil {
		analysisJSON, _ = json.Marshal(doc.Analysis)
	}

	return sqlmock.NewRows([]string{
		"id", "user_id", "document_type", "file_name", "original_filename", "mime_type", "size_bytes",
		"storage_provider", "storage_key", "status", "verification_status",
		"verification", "metadata", "analysis", "versions", "audit_trail",
		"created_at", "updated_at",
	}).AddRow(
		doc.ID, doc.UserID, doc.DocumentType, doc.FileName, doc.OriginalFilename, doc.MimeType, doc.SizeBytes,
		doc.StorageProvider, doc.StorageKey, doc.Status, doc.VerificationStatus,
		verification, metadata, analysisJSON, versions, audit,
		doc.CreatedAt, doc.UpdatedAt,
	)
}

func TestPGCreate(t *testing.T) {
	repo, mock, done := newPGRepo(t)
	defer done()

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO documents")).
		WithArgs(
			"doc-1", "user-1", "passport", "scan.pdf", sqlmock.AnyArg(), "application/pdf", int64(2048),
			sqlmock.AnyArg(), sqlmock.AnyArg(), StatusUploaded, VerificationPendingSubmission,
			sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(),
			sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(),
		).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.Create(context.Background(), sampleDocument()); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestPGGetByID(t *testing.T) {
	repo, mock, done := newPGRepo(t)
	defer done()

	doc := sampleDocument()
	mock.ExpectQuery("SELECT(.|\n)+FROM documents(.|\n)+status <> 'deleted'").
		WithArgs("user-1", "doc-1").
		WillReturnRows(documentRow(t, doc))

	got, err := repo.GetByID(context.Background(), "user-1", "doc-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.ID != "doc-1" || got.VerificationStatus != VerificationPendingSubmission {
		t.Fatalf("unexpected document: %+v", got)
	}
	if len(got.Versions) != 1 || got.Versions[0].VersionNumber != 1 {
		t.Fatalf("versions not decoded: %+v", got.Versions)
	}
	if got.Metadata.ExpiryDate == nil {
		t.Fatal("metadata not decoded")
	}
	if got.Analysis != nil {
		t.Fatal("analysis should be nil when the column is null")
	}
}

func TestPGGetByIDNotFound(t *testing.T) {
	repo, mock, done := newPGRepo(t)
	defer done()

	mock.ExpectQuery("SELECT(.|\n)+FROM documents").
		WithArgs("user-1", "missing").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.GetByID(context.Background(), "user-1", "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPGListByUserFilters(t *testing.T) {
	repo, mock, done := newPGRepo(t)
	defer done()

	doc := sampleDocument()
	mock.ExpectQuery("SELECT(.|\n)+document_type = \\$2(.|\n)+verification_status = \\$3(.|\n)+ORDER BY created_at DESC").
		WithArgs("user-1", "passport", VerificationVerified, 20, 0).
		WillReturnRows(documentRow(t, doc))

	got, err := repo.ListByUser(context.Background(), "user-1", ListFilter{
		DocumentType:       "passport",
		VerificationStatus: VerificationVerified,
	})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected one document, got %d", len(got))
	}
}

func TestPGUpdateNotFound(t *testing.T) {
	repo, mock, done := newPGRepo(t)
	defer done()

	mock.ExpectExec("UPDATE documents").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Update(context.Background(), sampleDocument())
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPGUpdateAnalysisGuardsStaleWrites(t *testing.T) {
	repo, mock, done := newPGRepo(t)
	defer done()

	analysisDate := time.Date(2026, 2, 1, 11, 0, 0, 0, time.UTC)
	record := Analysis{Report: analysis.Report{OverallScore: 75, AnalysisDate: analysisDate}}

	mock.ExpectExec(regexp.QuoteMeta("analysis IS NULL OR analysis->>'analysisDate' <= $5")).
		WithArgs("user-1", "doc-1", sqlmock.AnyArg(), sqlmock.AnyArg(), analysisDate.Format(time.RFC3339Nano)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.UpdateAnalysis(context.Background(), "user-1", "doc-1", record); err != nil {
		t.Fatalf("update analysis: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestPGExpiringBetween(t *testing.T) {
	repo, mock, done := newPGRepo(t)
	defer done()

	from := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, 90)
	mock.ExpectQuery("expiry_date BETWEEN \\$1 AND \\$2(.|\n)+status NOT IN \\('deleted', 'replaced'\\)").
		WithArgs(from, to).
		WillReturnRows(documentRow(t, sampleDocument()))

	got, err := repo.ExpiringBetween(context.Background(), from, to)
	if err != nil {
		t.Fatalf("expiring: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected one document, got %d", len(got))
	}
}
