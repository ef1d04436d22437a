package documents

import "time"

// DocumentResponse is the outward-facing representation of a document.
// Analysis stays null until the enrichment pipeline reconciles its result.
type DocumentResponse struct {
	ID                 string              `json:"id"`
	OwnerID            string              `json:"ownerId"`
	DocumentType       string              `json:"documentType"`
	FileName           string              `json:"fileName"`
	MimeType           string              `json:"mimeType"`
	SizeBytes          int64               `json:"sizeBytes"`
	Status             string              `json:"status"`
	VerificationStatus string              `json:"verificationStatus"`
	Verification       VerificationDetails `json:"verificationDetails"`
	Metadata           Metadata            `json:"metadata"`
	Analysis           *Analysis           `json:"analysis"`
	Versions           []Version           `json:"versions"`
	AuditTrail         []AuditEntry        `json:"auditTrail"`
	UploadedAt         time.Time           `json:"uploadedAt"`
	UpdatedAt          time.Time           `json:"updatedAt"`
	DownloadURL        string              `json:"downloadUrl,omitempty"`
}

// DocumentSummary is the list-view shape.
type DocumentSummary struct {
	ID                 string     `json:"id"`
	DocumentType       string     `json:"documentType"`
	FileName           string     `json:"fileName"`
	MimeType           string     `json:"mimeType"`
	SizeBytes          int64      `json:"sizeBytes"`
	Status             string     `json:"status"`
	VerificationStatus string     `json:"verificationStatus"`
	OverallScore       *int       `json:"overallScore,omitempty"`
	ExpiryDate         *time.Time `json:"expiryDate,omitempty"`
	UploadedAt         time.Time  `json:"uploadedAt"`
}

func toResponse(doc Document) DocumentResponse {
	return DocumentResponse{
		ID:                 doc.ID,
		OwnerID:            doc.UserID,
		DocumentType:       doc.DocumentType,
		FileName:           doc.FileName,
		MimeType:           doc.MimeType,
		SizeBytes:          doc.SizeBytes,
		Status:             doc.Status,
		VerificationStatus: doc.VerificationStatus,
		Verification:       doc.Verification,
		Metadata:           doc.Metadata,
		Analysis:           doc.Analysis,
		Versions:           doc.Versions,
		AuditTrail:         doc.AuditTrail,
		UploadedAt:         doc.CreatedAt,
		UpdatedAt:          doc.UpdatedAt,
	}
}

func toSummary(doc Document) DocumentSummary {
	out := DocumentSummary{
		ID:                 doc.ID,
		DocumentType:       doc.DocumentType,
		FileName:           doc.FileName,
		MimeType:           doc.MimeType,
		SizeBytes:          doc.SizeBytes,
		Status:             doc.Status,
		VerificationStatus: doc.VerificationStatus,
		ExpiryDate:         doc.Metadata.ExpiryDate,
		UploadedAt:         doc.CreatedAt,
	}
	if doc.Analysis != nil {
		score := doc.Analysis.OverallScore
		out.OverallScore = &score
	}
	return out
}
