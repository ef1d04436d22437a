package documents

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"docvault-backend/internal/doctypes"
	"docvault-backend/internal/shared/server/middleware"
	"docvault-backend/internal/shared/server/respond"
)

const maxUploadSize = 16 << 20 // hard cap; per-type limits apply below it

// Handler wires HTTP handlers to the service.
type Handler struct {
	Svc     *Service
	Catalog doctypes.Catalog
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service, catalog doctypes.Catalog) *Handler {
	return &Handler{Svc: svc, Catalog: catalog}
}

// RegisterRoutes attaches document routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/documents", h.upload)
	rg.GET("/documents", h.list)
	rg.GET("/documents/:id", h.get)
	rg.PATCH("/documents/:id", h.updateMetadata)
	rg.DELETE("/documents/:id", h.remove)
	rg.POST("/documents/:id/versions", h.addVersion)
	rg.PUT("/documents/:id/verification", h.updateVerification)
	rg.POST("/documents/:id/workflow", h.startWorkflow)
	rg.POST("/documents/:id/analyze", h.analyze)
	rg.GET("/document-types", h.listTypes)
}

func (h *Handler) upload(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadSize)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "file is required", nil)
		return
	}

	docType := strings.TrimSpace(c.PostForm("documentTypeCode"))
	if docType == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "documentTypeCode is required", nil)
		return
	}

	metadata, fieldErrs := parseMetadataForm(c)
	if len(fieldErrs) > 0 {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid metadata fields", fieldErrs)
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "unable to read file", nil)
		return
	}
	defer file.Close()

	doc, err := h.Svc.Upload(c.Request.Context(), userID, UploadInput{
		FileName:     fileHeader.Filename,
		DocumentType: docType,
		Engine:       strings.TrimSpace(c.PostForm("engine")),
		Metadata:     metadata,
		Body:         file,
	})
	if err != nil {
		h.serviceError(c, err, "failed to upload document")
		return
	}

	respond.JSON(c, http.StatusCreated, toResponse(doc))
}

// parseMetadataForm reads the optional metadata form fields, reporting each
// malformed field by name.
func parseMetadataForm(c *gin.Context) (Metadata, map[string]string) {
	var metadata Metadata
	fieldErrs := map[string]string{}

	if v := strings.TrimSpace(c.PostForm("expiryDate")); v != "" {
		if t, ok := parseDateField(v); ok {
			metadata.ExpiryDate = &t
		} else {
			fieldErrs["expiryDate"] = "expected YYYY-MM-DD or RFC3339"
		}
	}
	if v := strings.TrimSpace(c.PostForm("issuedDate")); v != "" {
		if t, ok := parseDateField(v); ok {
			metadata.IssuedDate = &t
		} else {
			fieldErrs["issuedDate"] = "expected YYYY-MM-DD or RFC3339"
		}
	}
	if v := strings.TrimSpace(c.PostForm("tags")); v != "" {
		var tags []string
		if err := json.Unmarshal([]byte(v), &tags); err != nil {
			fieldErrs["tags"] = "expected a JSON array of strings"
		} else {
			metadata.Tags = tags
		}
	}
	metadata.Notes = strings.TrimSpace(c.PostForm("notes"))
	metadata.IssuedBy = strings.TrimSpace(c.PostForm("issuedBy"))
	metadata.DocumentNumber = strings.TrimSpace(c.PostForm("documentNumber"))

	if len(fieldErrs) > 0 {
		return Metadata{}, fieldErrs
	}
	return metadata, nil
}

func parseDateField(v string) (time.Time, bool) {
	if t, err := time.Parse("2006-01-02", v); err == nil {
		return t.UTC(), true
	}
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t.UTC(), true
	}
	return time.Time{}, false
}

func (h *Handler) list(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	filter := ListFilter{
		DocumentType:       strings.TrimSpace(c.Query("documentType")),
		Status:             strings.TrimSpace(c.Query("status")),
		VerificationStatus: strings.TrimSpace(c.Query("verificationStatus")),
		Limit:              20,
	}
	if v := c.Query("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			filter.Limit = parsed
		}
	}
	if v := c.Query("offset"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			filter.Offset = parsed
		}
	}

	docs, err := h.Svc.List(c.Request.Context(), userID, filter)
	if err != nil {
		h.serviceError(c, err, "failed to list documents")
		return
	}

	resp := make([]DocumentSummary, 0, len(docs))
	for _, doc := range docs {
		resp = append(resp, toSummary(doc))
	}
	respond.JSON(c, http.StatusOK, resp)
}

// documentParam reads the :id path param and tags the request log with it.
func documentParam(c *gin.Context) string {
	documentID := c.Param("id")
	c.Set("documentId", documentID)
	return documentID
}

func (h *Handler) get(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	documentID := documentParam(c)

	doc, err := h.Svc.Get(c.Request.Context(), userID, documentID)
	if err != nil {
		h.serviceError(c, err, "failed to fetch document")
		return
	}

	resp := toResponse(doc)
	if c.Query("download") == "true" {
		if h.Svc.Signer != nil {
			url, err := h.Svc.DownloadURL(c.Request.Context(), userID, documentID)
			if err != nil {
				h.serviceError(c, err, "failed to issue download link")
				return
			}
			resp.DownloadURL = url
		} else {
			// No signer in this deployment; stream the file directly.
			doc, rc, err := h.Svc.OpenFile(c.Request.Context(), userID, documentID)
			if err != nil {
				h.serviceError(c, err, "failed to open document")
				return
			}
			defer rc.Close()
			c.Header("Content-Disposition", `attachment; filename="`+doc.FileName+`"`)
			c.DataFromReader(http.StatusOK, doc.SizeBytes, doc.MimeType, rc, nil)
			return
		}
	}

	respond.JSON(c, http.StatusOK, resp)
}

type metadataRequest struct {
	Notes          *string   `json:"notes"`
	Tags           *[]string `json:"tags"`
	ExpiryDate     *string   `json:"expiryDate"`
	IssuedDate     *string   `json:"issuedDate"`
	IssuedBy       *string   `json:"issuedBy"`
	DocumentNumber *string   `json:"documentNumber"`
}

func (h *Handler) updateMetadata(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	documentID := documentParam(c)

	var req metadataRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}

	patch := MetadataPatch{
		Notes:          req.Notes,
		Tags:           req.Tags,
		IssuedBy:       req.IssuedBy,
		DocumentNumber: req.DocumentNumber,
	}
	fieldErrs := map[string]string{}
	if req.ExpiryDate != nil {
		if t, ok := parseDateField(*req.ExpiryDate); ok {
			patch.ExpiryDate = &t
		} else {
			fieldErrs["expiryDate"] = "expected YYYY-MM-DD or RFC3339"
		}
	}
	if req.IssuedDate != nil {
		if t, ok := parseDateField(*req.IssuedDate); ok {
			patch.IssuedDate = &t
		} else {
			fieldErrs["issuedDate"] = "expected YYYY-MM-DD or RFC3339"
		}
	}
	if len(fieldErrs) > 0 {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid metadata fields", fieldErrs)
		return
	}

	doc, err := h.Svc.UpdateMetadata(c.Request.Context(), userID, documentID, patch)
	if err != nil {
		h.serviceError(c, err, "failed to update document")
		return
	}
	respond.JSON(c, http.StatusOK, toResponse(doc))
}

func (h *Handler) remove(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	documentID := documentParam(c)

	if err := h.Svc.Delete(c.Request.Context(), userID, documentID); err != nil {
		h.serviceError(c, err, "failed to delete document")
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) addVersion(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	documentID := documentParam(c)
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadSize)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "file is required", nil)
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "unable to read file", nil)
		return
	}
	defer file.Close()

	doc, err := h.Svc.AddVersion(c.Request.Context(), userID, documentID, fileHeader.Filename, file, strings.TrimSpace(c.PostForm("engine")))
	if err != nil {
		h.serviceError(c, err, "failed to add version")
		return
	}
	respond.JSON(c, http.StatusCreated, toResponse(doc))
}

type verificationRequest struct {
	Status          string `json:"status"`
	VerifiedBy      string `json:"verifiedBy"`
	VerifierID      string `json:"verifierId"`
	RejectionReason string `json:"rejectionReason"`
	Notes           string `json:"notes"`
}

func (h *Handler) updateVerification(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	documentID := documentParam(c)

	var req verificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}

	doc, err := h.Svc.UpdateVerification(c.Request.Context(), userID, documentID, VerificationUpdate{
		Status:          strings.TrimSpace(req.Status),
		VerifiedBy:      strings.TrimSpace(req.VerifiedBy),
		VerifierID:      strings.TrimSpace(req.VerifierID),
		RejectionReason: strings.TrimSpace(req.RejectionReason),
		Notes:           strings.TrimSpace(req.Notes),
	})
	if err != nil {
		h.serviceError(c, err, "failed to update verification status")
		return
	}
	respond.JSON(c, http.StatusOK, toResponse(doc))
}

type workflowRequest struct {
	AssignedTo string `json:"assignedTo"`
}

func (h *Handler) startWorkflow(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	documentID := documentParam(c)

	var req workflowRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
			return
		}
	}

	doc, err := h.Svc.StartWorkflow(c.Request.Context(), userID, documentID, strings.TrimSpace(req.AssignedTo))
	if err != nil {
		h.serviceError(c, err, "failed to start verification workflow")
		return
	}
	respond.JSON(c, http.StatusOK, toResponse(doc))
}

type analyzeRequest struct {
	Engine string `json:"engine"`
}

func (h *Handler) analyze(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	documentID := documentParam(c)

	var req analyzeRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
			return
		}
	}

	if err := h.Svc.RequestAnalysis(c.Request.Context(), userID, documentID, strings.TrimSpace(req.Engine)); err != nil {
		h.serviceError(c, err, "failed to schedule analysis")
		return
	}
	respond.JSON(c, http.StatusAccepted, gin.H{"status": "analysis_scheduled"})
}

func (h *Handler) listTypes(c *gin.Context) {
	respond.JSON(c, http.StatusOK, h.Catalog.List())
}

// serviceError maps service sentinels onto the standard error envelope.
func (h *Handler) serviceError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "document not found", nil)
	case errors.Is(err, ErrInvalidDocumentType):
		respond.Error(c, http.StatusBadRequest, "invalid_document_type", err.Error(), nil)
	case errors.Is(err, ErrUnsupportedMIME):
		respond.Error(c, http.StatusBadRequest, "unsupported_file_type", err.Error(), nil)
	case errors.Is(err, ErrFileTooLarge):
		respond.Error(c, http.StatusBadRequest, "file_too_large", err.Error(), nil)
	case errors.Is(err, ErrInvalidStatus):
		respond.Error(c, http.StatusBadRequest, "invalid_status", err.Error(), nil)
	case errors.Is(err, ErrInvalidInput):
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
	case errors.Is(err, ErrStorageFailure):
		respond.Error(c, http.StatusInternalServerError, "storage_failure", "failed to store file", nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", fallback, nil)
	}
}
