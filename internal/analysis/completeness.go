package analysis

import (
	"math"

	"docvault-backend/internal/extraction"
)

// fallbackRequirements covers the core document types when the caller did not
// supply a requirement list from the catalog. Paths may be dotted.
var fallbackRequirements = map[string][]string{
	"passport":             {"passportNumber", "name", "dateOfBirth", "nationality", "expiryDate"},
	"language_test":        {"testType", "candidateName", "testDate", "scores.overall"},
	"education_credential": {"institution", "degree", "graduationDate", "studentName"},
	"employment_letter":    {"company", "employeeName", "position", "startDate"},
}

type completenessResult struct {
	Required []string
	Present  []string
	Missing  []string
	Score    int
	Level    string
}

// analyzeCompleteness partitions the required fields into present and
// missing. A type with no requirements is trivially complete.
func analyzeCompleteness(docTypeCode string, ext extraction.Result, required []string) completenessResult {
	if required == nil {
		required = fallbackRequirements[docTypeCode]
	}
	if len(required) == 0 {
		return completenessResult{Score: 100, Level: CompletenessComplete}
	}

	var present, missing []string
	for _, field := range required {
		if extraction.PathPresent(ext.Fields, field) {
			present = append(present, field)
		} else {
			missing = append(missing, field)
		}
	}

	score := int(math.Round(float64(len(present)) / float64(len(required)) * 100))
	return completenessResult{
		Required: required,
		Present:  present,
		Missing:  missing,
		Score:    score,
		Level:    completenessLevel(score),
	}
}

func completenessLevel(score int) string {
	switch {
	case score == 100:
		return CompletenessComplete
	case score >= 75:
		return CompletenessMostly
	case score >= 50:
		return CompletenessPartially
	default:
		return CompletenessIncomplete
	}
}
