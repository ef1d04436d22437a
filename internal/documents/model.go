package documents

import (
	"time"

	"docvault-backend/internal/analysis"
)

// Document is one uploaded file owned by a user, tracked through analysis
// and verification. Soft-deleted rows keep their data; only status flips.
type Document struct {
	ID                 string
	UserID             string
	DocumentType       string
	FileName           string
	OriginalFilename   string
	MimeType           string
	SizeBytes          int64
	StorageProvider    string
	StorageKey         string
	Status             string
	VerificationStatus string
	Verification       VerificationDetails
	Metadata           Metadata
	Analysis           *Analysis
	Versions           []Version
	AuditTrail         []AuditEntry
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// VerificationDetails carries the reviewer-side state. RejectionReason is
// populated only while the status is rejected.
type VerificationDetails struct {
	VerifiedBy      string     `json:"verifiedBy,omitempty"`
	VerifierID      string     `json:"verifierId,omitempty"`
	VerifiedAt      *time.Time `json:"verifiedAt,omitempty"`
	RejectionReason string     `json:"rejectionReason,omitempty"`
	Notes           string     `json:"notes,omitempty"`
	WorkflowState   string     `json:"workflowState"`
	AssignedTo      string     `json:"assignedTo,omitempty"`
}

// Metadata holds the caller-editable fields. ExpiryDate is mirrored to a
// scalar column so the reminder sweep can index on it.
type Metadata struct {
	Notes          string     `json:"notes,omitempty"`
	Tags           []string   `json:"tags,omitempty"`
	ExpiryDate     *time.Time `json:"expiryDate,omitempty"`
	IssuedDate     *time.Time `json:"issuedDate,omitempty"`
	IssuedBy       string     `json:"issuedBy,omitempty"`
	DocumentNumber string     `json:"documentNumber,omitempty"`
}

// Analysis is the enrichment result reconciled onto the record after the
// recognition pipeline completes. Nil until the first reconciliation write.
type Analysis struct {
	analysis.Report
	ExtractedFields map[string]any     `json:"extractedFields,omitempty"`
	FieldConfidence map[string]float64 `json:"fieldConfidence,omitempty"`
	EngineUsed      string             `json:"engineUsed,omitempty"`
}

// Version captures one stored revision of the file. The slice is append-only
// and numbered from 1; the record's top-level storage fields mirror the last
// entry.
type Version struct {
	VersionNumber int       `json:"versionNumber"`
	FileName      string    `json:"fileName"`
	MimeType      string    `json:"mimeType"`
	SizeBytes     int64     `json:"sizeBytes"`
	StorageKey    string    `json:"storageKey"`
	UploadedBy    string    `json:"uploadedBy"`
	UploadedAt    time.Time `json:"uploadedAt"`
}

// AuditEntry records one state-changing operation. The trail is append-only.
type AuditEntry struct {
	Actor     string    `json:"actor"`
	Action    string    `json:"action"`
	Timestamp time.Time `json:"timestamp"`
	Details   string    `json:"details,omitempty"`
}

// Audit action tags.
const (
	AuditUpload       = "upload"
	AuditReupload     = "reupload"
	AuditMetadata     = "metadata_update"
	AuditVerification = "verification_update"
	AuditWorkflow     = "workflow_start"
	AuditAnalyze      = "analyze"
	AuditDownload     = "download"
	AuditDelete       = "delete"
)

// appendAudit returns the trail with one more entry; never truncates.
func appendAudit(trail []AuditEntry, actor, action, details string, at time.Time) []AuditEntry {
	return append(trail, AuditEntry{
		Actor:     actor,
		Action:    action,
		Timestamp: at,
		Details:   details,
	})
}

// CurrentVersion returns the latest version number, 0 when none exist.
func (d *Document) CurrentVersion() int {
	if len(d.Versions) == 0 {
		return 0
	}
	return d.Versions[len(d.Versions)-1].VersionNumber
}
