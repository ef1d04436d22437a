package analysis

import "time"

const (
	SeverityLow      = "low"
	SeverityMedium   = "medium"
	SeverityHigh     = "high"
	SeverityCritical = "critical"
	SeverityError    = "error"
)

const (
	QualityExcellent = "excellent"
	QualityGood      = "good"
	QualityFair      = "fair"
	QualityPoor      = "poor"
)

const (
	CompletenessComplete   = "complete"
	CompletenessMostly     = "mostly_complete"
	CompletenessPartially  = "partially_complete"
	CompletenessIncomplete = "incomplete"
)

// Metrics are the four normalized quality signals, each in [0,1].
type Metrics struct {
	ImageQuality         float64 `json:"imageQuality"`
	TextClarity          float64 `json:"textClarity"`
	ExtractionConfidence float64 `json:"extractionConfidence"`
	FormatConsistency    float64 `json:"formatConsistency"`
}

// Issue is a quality defect detected during analysis.
type Issue struct {
	Type     string `json:"type"`
	Message  string `json:"message"`
	Severity string `json:"severity"`
}

// Suggestion is an actionable, severity-tagged hint surfaced to the uploader.
type Suggestion struct {
	Type     string `json:"type"`
	Message  string `json:"message"`
	Details  string `json:"details,omitempty"`
	Priority string `json:"priority"`
}

// Report is the full analysis result folded onto the document record.
type Report struct {
	Metrics           Metrics      `json:"metrics"`
	QualityScore      int          `json:"qualityScore"`
	QualityLevel      string       `json:"qualityLevel"`
	CompletenessScore int          `json:"completenessScore"`
	CompletenessLevel string       `json:"completenessLevel"`
	RequiredFields    []string     `json:"requiredFields,omitempty"`
	PresentFields     []string     `json:"presentFields,omitempty"`
	MissingFields     []string     `json:"missingFields,omitempty"`
	Issues            []Issue      `json:"issues,omitempty"`
	Suggestions       []Suggestion `json:"suggestions"`
	OverallScore      int          `json:"overallScore"`
	AnalysisDate      time.Time    `json:"analysisDate"`
}

// Input carries the document facts the analyzer scores against.
type Input struct {
	DocumentType  string
	MIMEType      string
	FileSizeBytes int64
	OCRText       string
	OCRConfidence float64
}
