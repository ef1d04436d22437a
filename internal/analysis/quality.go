package analysis

import (
	"math"
	"regexp"
	"strings"

	"docvault-backend/internal/extraction"
)

const (
	weightImageQuality         = 0.30
	weightTextClarity          = 0.30
	weightExtractionConfidence = 0.25
	weightFormatConsistency    = 0.15
)

var highQualityFormats = map[string]bool{
	"application/pdf": true,
	"image/png":       true,
	"image/tiff":      true,
}

var mediumQualityFormats = map[string]bool{
	"image/jpeg": true,
	"image/bmp":  true,
}

// Garbling patterns typical of low-quality OCR output: runs of confusable
// characters and runs of special characters.
var garblePatterns = []*regexp.Regexp{
	regexp.MustCompile(`[il1|]{3,}`),
	regexp.MustCompile(`[0O]{3,}`),
	regexp.MustCompile(`[^a-zA-Z0-9\s.,;:'"!?()-]{3,}`),
}

// imageQuality rates the declared format, then adjusts for file size. Very
// small files are penalized, files over a megabyte get a small bonus.
func imageQuality(mimeType string, sizeBytes int64) float64 {
	score := 0.4
	if highQualityFormats[mimeType] {
		score = 0.8
	} else if mediumQualityFormats[mimeType] {
		score = 0.6
	}

	if sizeBytes > 0 {
		sizeMB := float64(sizeBytes) / (1024 * 1024)
		if sizeMB < 0.1 {
			score -= 0.3
		} else if sizeMB > 1 {
			score += 0.1
		}
	}

	return clamp01(score)
}

// textClarity prefers the engine-reported confidence. Without one it counts
// garbling matches per character and inverts the error rate.
func textClarity(text string, engineConfidence float64) float64 {
	if engineConfidence > 0 {
		return clamp01(engineConfidence)
	}
	if text == "" {
		return 0.5
	}

	errorCount := 0
	for _, pattern := range garblePatterns {
		errorCount += len(pattern.FindAllString(text, -1))
	}
	errorRate := float64(errorCount) / float64(len(text))
	return clamp01(1 - errorRate*10)
}

// formatConsistency judges whether the extraction looks like the document
// type it claims to be.
func formatConsistency(docTypeCode string, ext extraction.Result) float64 {
	if ext.Fields == nil {
		return 0.5
	}

	switch strings.ToLower(docTypeCode) {
	case "passport":
		core := 0
		for _, f := range []string{"passportNumber", "name", "dateOfBirth"} {
			if extraction.PathPresent(ext.Fields, f) {
				core++
			}
		}
		switch {
		case core == 3:
			return 0.9
		case core >= 1:
			return 0.7
		default:
			return 0.3
		}
	case "language_test":
		testType, _ := ext.Fields["testType"].(string)
		known := testType != "" && testType != extraction.TestTypeUnknown
		hasScores := extraction.PathPresent(ext.Fields, "scores")
		switch {
		case known && hasScores:
			return 0.9
		case known:
			return 0.6
		default:
			return 0.3
		}
	case "education_credential":
		hasInstitution := extraction.PathPresent(ext.Fields, "institution")
		hasDegree := extraction.PathPresent(ext.Fields, "degree")
		switch {
		case hasInstitution && hasDegree:
			return 0.9
		case hasInstitution || hasDegree:
			return 0.6
		default:
			return 0.3
		}
	default:
		if extraction.PathPresent(ext.Fields, "dates") {
			return 0.7
		}
		return 0.5
	}
}

// qualityScore weight-averages the four metrics and scales to 0-100.
func qualityScore(m Metrics) int {
	weighted := m.ImageQuality*weightImageQuality +
		m.TextClarity*weightTextClarity +
		m.ExtractionConfidence*weightExtractionConfidence +
		m.FormatConsistency*weightFormatConsistency
	return int(math.Round(weighted * 100))
}

func qualityLevel(score int) string {
	switch {
	case score >= 85:
		return QualityExcellent
	case score >= 70:
		return QualityGood
	case score >= 50:
		return QualityFair
	default:
		return QualityPoor
	}
}

// qualityIssues emits one issue per sub-metric under 0.6; under 0.3 the
// severity escalates to high. Excellent documents carry no issues.
func qualityIssues(m Metrics, level string) []Issue {
	if level == QualityExcellent {
		return nil
	}

	var issues []Issue
	if m.ImageQuality < 0.6 {
		msg := "Document image quality could be improved"
		if m.ImageQuality < 0.3 {
			msg = "Document image quality is very poor"
		}
		issues = append(issues, Issue{
			Type:     "image_quality",
			Message:  msg,
			Severity: thresholdSeverity(m.ImageQuality),
		})
	}
	if m.TextClarity < 0.6 {
		msg := "Text clarity could be improved"
		if m.TextClarity < 0.3 {
			msg = "Text in the document is difficult to read"
		}
		issues = append(issues, Issue{
			Type:     "text_clarity",
			Message:  msg,
			Severity: thresholdSeverity(m.TextClarity),
		})
	}
	if m.ExtractionConfidence < 0.6 {
		issues = append(issues, Issue{
			Type:     "extraction_confidence",
			Message:  "Information could not be reliably extracted from the document",
			Severity: thresholdSeverity(m.ExtractionConfidence),
		})
	}
	if m.FormatConsistency < 0.6 {
		issues = append(issues, Issue{
			Type:     "format_consistency",
			Message:  "Document format does not match expected standards",
			Severity: thresholdSeverity(m.FormatConsistency),
		})
	}
	return issues
}

func thresholdSeverity(v float64) string {
	if v < 0.3 {
		return SeverityHigh
	}
	return SeverityMedium
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
