package documents

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"docvault-backend/internal/doctypes"
	"docvault-backend/internal/shared/metrics"
	"docvault-backend/internal/shared/storage/object"
	"docvault-backend/internal/shared/telemetry"
)

// Enricher schedules the recognition pipeline for a document. Implementations
// are the SQS queue publisher and the inline-goroutine runner.
type Enricher interface {
	Schedule(ctx context.Context, userID, documentID, engine string) error
}

// URLSigner issues time-boxed download URLs. The S3 store implements it; the
// local store does not, so downloads stream through the API instead.
type URLSigner interface {
	PresignGet(ctx context.Context, storageKey string, expires time.Duration) (string, error)
}

// DownloadURLExpiry bounds presigned download links.
const DownloadURLExpiry = 5 * time.Minute

// Service orchestrates uploads and owns every document mutation.
type Service struct {
	Catalog  doctypes.Catalog
	Store    object.ObjectStore
	Repo     DocumentsRepo
	Enricher Enricher
	Signer   URLSigner
}

// UploadInput carries one upload request.
type UploadInput struct {
	FileName     string
	DocumentType string
	Engine       string
	Metadata     Metadata
	Body         io.Reader
}

// Upload validates the declared type, stores the file, creates the record,
// and schedules enrichment. The returned record carries a nil Analysis; the
// pipeline reconciles it later. Enrichment failures never fail the upload.
func (s *Service) Upload(ctx context.Context, userID string, in UploadInput) (Document, error) {
	if in.FileName == "" || in.Body == nil {
		return Document{}, fmt.Errorf("%w: file is required", ErrInvalidInput)
	}

	def, err := s.Catalog.Get(in.DocumentType)
	if err != nil {
		return Document{}, fmt.Errorf("%w: %q", ErrInvalidDocumentType, in.DocumentType)
	}

	storageKey, size, mimeType, err := s.Store.Save(ctx, userID, in.FileName, in.Body)
	if err != nil {
		return Document{}, fmt.Errorf("%w: %v", ErrStorageFailure, err)
	}

	if !def.AcceptsMIME(mimeType) {
		return Document{}, fmt.Errorf("%w: %s not accepted for %s", ErrUnsupportedMIME, mimeType, def.Code)
	}
	if def.MaxFileSizeBytes > 0 && size > def.MaxFileSizeBytes {
		return Document{}, fmt.Errorf("%w: %d bytes exceeds %d", ErrFileTooLarge, size, def.MaxFileSizeBytes)
	}

	now := time.Now().UTC()
	doc := Document{
		ID:                 uuid.NewString(),
		UserID:             userID,
		DocumentType:       def.Code,
		FileName:           in.FileName,
		OriginalFilename:   in.FileName,
		MimeType:           mimeType,
		SizeBytes:          size,
		StorageKey:         storageKey,
		Status:             StatusUploaded,
		VerificationStatus: seedVerificationStatus(def.VerificationRequired),
		Verification:       VerificationDetails{WorkflowState: WorkflowNone},
		Metadata:           in.Metadata,
		Versions: []Version{{
			VersionNumber: 1,
			FileName:      in.FileName,
			MimeType:      mimeType,
			SizeBytes:     size,
			StorageKey:    storageKey,
			UploadedBy:    userID,
			UploadedAt:    now,
		}},
		AuditTrail: appendAudit(nil, userID, AuditUpload, fmt.Sprintf("uploaded %s (%d bytes)", in.FileName, size), now),
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := s.Repo.Create(ctx, doc); err != nil {
		return Document{}, err
	}
	metrics.IncDocumentsUploaded()

	s.schedule(ctx, userID, doc.ID, in.Engine)
	return doc, nil
}

// schedule hands the document to the enrichment path. Failures are logged
// only; the record already exists and must not be reverted.
func (s *Service) schedule(ctx context.Context, userID, documentID, engine string) {
	if s.Enricher == nil {
		return
	}
	if err := s.Enricher.Schedule(ctx, userID, documentID, engine); err != nil {
		telemetry.Error("documents.enrichment_schedule_failed", map[string]any{
			"user_id":     userID,
			"document_id": documentID,
			"err":         err.Error(),
		})
	}
}

// Get returns one document owned by the caller.
func (s *Service) Get(ctx context.Context, userID, documentID string) (Document, error) {
	if userID == "" || documentID == "" {
		return Document{}, ErrInvalidInput
	}
	return s.Repo.GetByID(ctx, userID, documentID)
}

// List returns the caller's documents, deleted ones excluded.
func (s *Service) List(ctx context.Context, userID string, filter ListFilter) ([]Document, error) {
	if userID == "" {
		return nil, ErrInvalidInput
	}
	return s.Repo.ListByUser(ctx, userID, filter)
}

// DownloadURL issues a 5-minute presigned link and records the download in
// the audit trail. Returns ErrInvalidInput when no signer is configured.
func (s *Service) DownloadURL(ctx context.Context, userID, documentID string) (string, error) {
	if s.Signer == nil {
		return "", fmt.Errorf("%w: downloads not available", ErrInvalidInput)
	}
	doc, err := s.Repo.GetByID(ctx, userID, documentID)
	if err != nil {
		return "", err
	}

	url, err := s.Signer.PresignGet(ctx, doc.StorageKey, DownloadURLExpiry)
	if err != nil {
		return "", fmt.Errorf("presign download: %w", err)
	}

	doc.AuditTrail = appendAudit(doc.AuditTrail, userID, AuditDownload, "download link issued", time.Now().UTC())
	doc.UpdatedAt = time.Now().UTC()
	if err := s.Repo.Update(ctx, doc); err != nil {
		telemetry.Error("documents.audit_write_failed", map[string]any{
			"document_id": documentID,
			"err":         err.Error(),
		})
	}
	return url, nil
}

// OpenFile streams the stored object, for deployments without a URL signer.
func (s *Service) OpenFile(ctx context.Context, userID, documentID string) (Document, io.ReadCloser, error) {
	doc, err := s.Repo.GetByID(ctx, userID, documentID)
	if err != nil {
		return Document{}, nil, err
	}
	rc, err := s.Store.Open(ctx, doc.StorageKey)
	if err != nil {
		return Document{}, nil, fmt.Errorf("open stored object: %w", err)
	}
	return doc, rc, nil
}

// MetadataPatch updates only the fields the caller may edit. Nil fields are
// left untouched.
type MetadataPatch struct {
	Notes          *string
	Tags           *[]string
	ExpiryDate     *time.Time
	IssuedDate     *time.Time
	IssuedBy       *string
	DocumentNumber *string
}

// UpdateMetadata applies an allow-listed patch and appends one audit entry
// naming the changed fields.
func (s *Service) UpdateMetadata(ctx context.Context, userID, documentID string, patch MetadataPatch) (Document, error) {
	doc, err := s.Repo.GetByID(ctx, userID, documentID)
	if err != nil {
		return Document{}, err
	}

	var changed []string
	if patch.Notes != nil {
		doc.Metadata.Notes = *patch.Notes
		changed = append(changed, "notes")
	}
	if patch.Tags != nil {
		doc.Metadata.Tags = *patch.Tags
		changed = append(changed, "tags")
	}
	if patch.ExpiryDate != nil {
		doc.Metadata.ExpiryDate = patch.ExpiryDate
		changed = append(changed, "expiryDate")
	}
	if patch.IssuedDate != nil {
		doc.Metadata.IssuedDate = patch.IssuedDate
		changed = append(changed, "issuedDate")
	}
	if patch.IssuedBy != nil {
		doc.Metadata.IssuedBy = *patch.IssuedBy
		changed = append(changed, "issuedBy")
	}
	if patch.DocumentNumber != nil {
		doc.Metadata.DocumentNumber = *patch.DocumentNumber
		changed = append(changed, "documentNumber")
	}
	if len(changed) == 0 {
		return Document{}, fmt.Errorf("%w: no updatable fields supplied", ErrInvalidInput)
	}

	now := time.Now().UTC()
	doc.AuditTrail = appendAudit(doc.AuditTrail, userID, AuditMetadata, "updated "+strings.Join(changed, ", "), now)
	doc.UpdatedAt = now

	if err := s.Repo.Update(ctx, doc); err != nil {
		return Document{}, err
	}
	return doc, nil
}

// Delete soft-deletes a document. The row stays; listing and the expiry
// sweep skip it from then on.
func (s *Service) Delete(ctx context.Context, userID, documentID string) error {
	doc, err := s.Repo.GetByID(ctx, userID, documentID)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	doc.Status = StatusDeleted
	doc.AuditTrail = appendAudit(doc.AuditTrail, userID, AuditDelete, "document deleted", now)
	doc.UpdatedAt = now
	return s.Repo.Update(ctx, doc)
}

// AddVersion stores a replacement file and appends the next version. Prior
// versions are never mutated; the top-level storage fields mirror the new
// one. Enrichment reruns against the new content.
func (s *Service) AddVersion(ctx context.Context, userID, documentID, fileName string, body io.Reader, engine string) (Document, error) {
	if fileName == "" || body == nil {
		return Document{}, fmt.Errorf("%w: file is required", ErrInvalidInput)
	}
	doc, err := s.Repo.GetByID(ctx, userID, documentID)
	if err != nil {
		return Document{}, err
	}

	storageKey, size, mimeType, err := s.Store.Save(ctx, userID, fileName, body)
	if err != nil {
		return Document{}, fmt.Errorf("%w: %v", ErrStorageFailure, err)
	}

	now := time.Now().UTC()
	next := Version{
		VersionNumber: doc.CurrentVersion() + 1,
		FileName:      fileName,
		MimeType:      mimeType,
		SizeBytes:     size,
		StorageKey:    storageKey,
		UploadedBy:    userID,
		UploadedAt:    now,
	}
	doc.Versions = append(doc.Versions, next)
	doc.FileName = fileName
	doc.MimeType = mimeType
	doc.SizeBytes = size
	doc.StorageKey = storageKey
	doc.AuditTrail = appendAudit(doc.AuditTrail, userID, AuditReupload, fmt.Sprintf("uploaded version %d", next.VersionNumber), now)
	doc.UpdatedAt = now

	if err := s.Repo.Update(ctx, doc); err != nil {
		return Document{}, err
	}

	s.schedule(ctx, userID, doc.ID, engine)
	return doc, nil
}

// VerificationUpdate is one verifier-driven transition.
type VerificationUpdate struct {
	Status          string
	VerifiedBy      string
	VerifierID      string
	RejectionReason string
	Notes           string
}

// UpdateVerification moves the document to the named verification state. Any
// of the seven literals is reachable from any state; anything else is
// rejected. RejectionReason is kept only while the state is rejected.
func (s *Service) UpdateVerification(ctx context.Context, userID, documentID string, update VerificationUpdate) (Document, error) {
	if !ValidVerificationStatus(update.Status) {
		return Document{}, fmt.Errorf("%w: %q", ErrInvalidStatus, update.Status)
	}
	doc, err := s.Repo.GetByID(ctx, userID, documentID)
	if err != nil {
		return Document{}, err
	}

	now := time.Now().UTC()
	previous := doc.VerificationStatus
	doc.VerificationStatus = update.Status
	doc.Verification.VerifiedBy = update.VerifiedBy
	doc.Verification.VerifierID = update.VerifierID
	doc.Verification.VerifiedAt = &now
	if update.Notes != "" {
		doc.Verification.Notes = update.Notes
	}
	if update.Status == VerificationRejected {
		doc.Verification.RejectionReason = update.RejectionReason
	} else {
		doc.Verification.RejectionReason = ""
	}

	doc.AuditTrail = appendAudit(doc.AuditTrail, update.VerifierID, AuditVerification, "verification status set to "+update.Status, now)
	doc.UpdatedAt = now

	if err := s.Repo.Update(ctx, doc); err != nil {
		return Document{}, err
	}
	telemetry.Info("documents.verification_transition", map[string]any{
		"document_id": documentID,
		"from":        previous,
		"to":          update.Status,
	})
	return doc, nil
}

// StartWorkflow puts the document into pending_review with an optional
// assignee. Documents whose type requires no verification are not eligible.
func (s *Service) StartWorkflow(ctx context.Context, userID, documentID, assignedTo string) (Document, error) {
	doc, err := s.Repo.GetByID(ctx, userID, documentID)
	if err != nil {
		return Document{}, err
	}
	// Types that skip verification are not eligible; the record reads as
	// absent for workflow purposes.
	if doc.VerificationStatus == VerificationNotRequired {
		return Document{}, fmt.Errorf("%w: document type does not require verification", ErrNotFound)
	}

	now := time.Now().UTC()
	doc.Verification.WorkflowState = WorkflowPendingReview
	doc.Verification.AssignedTo = assignedTo
	doc.AuditTrail = appendAudit(doc.AuditTrail, userID, AuditWorkflow, "verification workflow started", now)
	doc.UpdatedAt = now

	if err := s.Repo.Update(ctx, doc); err != nil {
		return Document{}, err
	}
	return doc, nil
}

// RequestAnalysis schedules a manual re-run with an optional engine
// preference. Unknown engines fall back inside the selector.
func (s *Service) RequestAnalysis(ctx context.Context, userID, documentID, engine string) error {
	if _, err := s.Repo.GetByID(ctx, userID, documentID); err != nil {
		return err
	}
	if s.Enricher == nil {
		return errors.New("analysis pipeline not configured")
	}
	return s.Enricher.Schedule(ctx, userID, documentID, engine)
}
