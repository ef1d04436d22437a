// Package pipeline runs the enrichment chain for one document: recognize,
// extract, analyze, then reconcile the result onto the record. It is invoked
// from the inline upload path, the SQS worker, and the manual re-run
// endpoint.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"time"

	"docvault-backend/internal/analysis"
	"docvault-backend/internal/doctypes"
	"docvault-backend/internal/documents"
	"docvault-backend/internal/extraction"
	"docvault-backend/internal/ocr"
	"docvault-backend/internal/shared/metrics"
	"docvault-backend/internal/shared/storage/object"
	"docvault-backend/internal/shared/telemetry"
)

// Notifier is the external notification hook invoked after a successful
// reconciliation write. Implementations must not block for long.
type Notifier interface {
	AnalysisCompleted(ctx context.Context, doc documents.Document, result documents.Analysis)
}

// LogNotifier is the default Notifier; it only logs.
type LogNotifier struct{}

// AnalysisCompleted logs the outcome.
func (LogNotifier) AnalysisCompleted(_ context.Context, doc documents.Document, result documents.Analysis) {
	telemetry.Info("pipeline.analysis_completed", map[string]any{
		"document_id":   doc.ID,
		"document_type": doc.DocumentType,
		"overall_score": result.OverallScore,
		"engine":        result.EngineUsed,
	})
}

// Runner executes the enrichment chain.
type Runner struct {
	Repo     documents.DocumentsRepo
	Store    object.ObjectStore
	Selector *ocr.Selector
	Catalog  doctypes.Catalog
	Notifier Notifier
}

// Process enriches one document. Recognition failures degrade to a valid
// zero-score report instead of propagating; the returned error covers only
// faults that should make a queue consumer retry (missing record, storage
// read, reconciliation write).
func (r *Runner) Process(ctx context.Context, userID, documentID, enginePref string) error {
	metrics.IncAnalysisStarted()
	started := time.Now()

	doc, err := r.Repo.GetByID(ctx, userID, documentID)
	if err != nil {
		metrics.IncAnalysisFailed()
		return fmt.Errorf("load document %s: %w", documentID, err)
	}

	result, ocrErr := r.recognize(ctx, doc, enginePref)

	var record documents.Analysis
	if ocrErr != nil {
		telemetry.Error("pipeline.recognition_failed", map[string]any{
			"document_id": documentID,
			"engine":      enginePref,
			"err":         ocrErr.Error(),
		})
		record = documents.Analysis{Report: analysis.ErrorReport(time.Now().UTC())}
	} else {
		ext := extraction.Extract(result.Text, doc.DocumentType)
		report := analysis.Analyze(analysis.Input{
			DocumentType:  doc.DocumentType,
			MIMEType:      doc.MimeType,
			FileSizeBytes: doc.SizeBytes,
			OCRText:       result.Text,
			OCRConfidence: result.Confidence,
		}, ext, r.requiredFields(doc.DocumentType), time.Now().UTC())

		record = documents.Analysis{
			Report:          report,
			ExtractedFields: ext.Fields,
			FieldConfidence: ext.Confidence,
			EngineUsed:      result.Engine,
		}
	}

	if err := r.Repo.UpdateAnalysis(ctx, userID, documentID, record); err != nil {
		metrics.IncAnalysisFailed()
		return fmt.Errorf("reconcile analysis for %s: %w", documentID, err)
	}
	r.appendAnalyzeAudit(ctx, userID, documentID, record)

	metrics.IncAnalysisCompleted()
	metrics.ObserveAnalysisDurationMs(float64(time.Since(started).Milliseconds()))

	if r.Notifier != nil {
		doc.Analysis = &record
		r.Notifier.AnalysisCompleted(ctx, doc, record)
	}
	return nil
}

// recognize opens the stored object and runs the selected engine.
func (r *Runner) recognize(ctx context.Context, doc documents.Document, enginePref string) (ocr.Result, error) {
	rc, err := r.Store.Open(ctx, doc.StorageKey)
	if err != nil {
		return ocr.Result{}, fmt.Errorf("open stored object: %w", err)
	}
	defer func(rc io.ReadCloser) { _ = rc.Close() }(rc)

	return r.Selector.Recognize(ctx, ocr.Input{
		Reader:   rc,
		MIMEType: doc.MimeType,
		FileName: doc.FileName,
	}, doc.DocumentType, enginePref)
}

// requiredFields pulls the requirement list from the catalog, nil when the
// type is unknown so the analyzer falls back to its own table.
func (r *Runner) requiredFields(docTypeCode string) []string {
	if r.Catalog == nil {
		return nil
	}
	def, err := r.Catalog.Get(docTypeCode)
	if err != nil {
		return nil
	}
	return def.RequiredFields
}

// appendAnalyzeAudit records the enrichment on the audit trail. Best effort:
// the analysis write already succeeded and must not be rolled back.
func (r *Runner) appendAnalyzeAudit(ctx context.Context, userID, documentID string, record documents.Analysis) {
	doc, err := r.Repo.GetByID(ctx, userID, documentID)
	if err != nil {
		return
	}
	now := time.Now().UTC()
	doc.AuditTrail = append(doc.AuditTrail, documents.AuditEntry{
		Actor:     "system",
		Action:    documents.AuditAnalyze,
		Timestamp: now,
		Details:   fmt.Sprintf("analysis completed, overall score %d", record.OverallScore),
	})
	doc.UpdatedAt = now
	if err := r.Repo.Update(ctx, doc); err != nil {
		telemetry.Error("pipeline.audit_write_failed", map[string]any{
			"document_id": documentID,
			"err":         err.Error(),
		})
	}
}
