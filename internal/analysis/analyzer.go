// Package analysis scores a document's quality and completeness and derives
// a prioritized suggestion list. Every scoring function is total: failures
// degrade to a zero score instead of propagating.
package analysis

import (
	"fmt"
	"math"
	"time"

	"docvault-backend/internal/extraction"
	"docvault-backend/internal/shared/telemetry"
)

// Analyze produces the full report for a document. The required parameter
// overrides the built-in per-type requirement table when non-nil; pass nil to
// use the defaults. Analyze never panics and never returns an error: any
// internal failure yields a zero-score report with one error issue.
func Analyze(in Input, ext extraction.Result, required []string, now time.Time) (report Report) {
	defer func() {
		if r := recover(); r != nil {
			telemetry.Error("analysis.panic", map[string]any{
				"documentType": in.DocumentType,
				"panic":        fmt.Sprintf("%v", r),
			})
			report = ErrorReport(now)
		}
	}()

	metrics := Metrics{
		ImageQuality:         imageQuality(in.MIMEType, in.FileSizeBytes),
		TextClarity:          textClarity(in.OCRText, in.OCRConfidence),
		ExtractionConfidence: ext.OverallConfidence(),
		FormatConsistency:    formatConsistency(in.DocumentType, ext),
	}

	qScore := qualityScore(metrics)
	qLevel := qualityLevel(qScore)
	issues := qualityIssues(metrics, qLevel)

	completeness := analyzeCompleteness(in.DocumentType, ext, required)

	return Report{
		Metrics:           metrics,
		QualityScore:      qScore,
		QualityLevel:      qLevel,
		CompletenessScore: completeness.Score,
		CompletenessLevel: completeness.Level,
		RequiredFields:    completeness.Required,
		PresentFields:     completeness.Present,
		MissingFields:     completeness.Missing,
		Issues:            issues,
		Suggestions:       buildSuggestions(in.DocumentType, ext, issues, completeness.Missing, now),
		OverallScore:      overallScore(qScore, completeness.Score),
		AnalysisDate:      now.UTC(),
	}
}

// overallScore weights completeness above quality.
func overallScore(quality, completeness int) int {
	return int(math.Round(float64(quality)*0.4 + float64(completeness)*0.6))
}

// ErrorReport is the safe default substituted when analysis itself fails,
// including recognition-engine failures caught at the pipeline boundary.
func ErrorReport(now time.Time) Report {
	return Report{
		QualityLevel:      QualityPoor,
		CompletenessLevel: CompletenessIncomplete,
		Issues: []Issue{{
			Type:     "error",
			Message:  "Failed to analyze document quality",
			Severity: SeverityError,
		}},
		Suggestions: []Suggestion{{
			Type:     "analysis_error",
			Message:  "Document could not be analyzed",
			Details:  "Re-upload the document or request analysis again later",
			Priority: SeverityError,
		}},
		AnalysisDate: now.UTC(),
	}
}
