// Package extraction turns recognized text into typed, per-document-type
// structured fields with independent per-field confidence.
package extraction

import (
	"regexp"
	"strconv"
	"strings"
)

// Test family markers checked in order; the first literal hit wins.
const (
	TestTypeIELTS   = "IELTS"
	TestTypeTOEFL   = "TOEFL"
	TestTypeCELPIP  = "CELPIP"
	TestTypeUnknown = "Unknown"
)

// Extract dispatches on the document type code to a typed extractor, falling
// back to generic signal extraction for unrecognized codes.
func Extract(text, docTypeCode string) Result {
	fields := make(map[string]any)
	confidence := make(map[string]float64)

	switch strings.ToLower(strings.TrimSpace(docTypeCode)) {
	case "passport":
		applyRules(text, passportRules, fields, confidence)
	case "language_test":
		extractLanguageTest(text, fields, confidence)
	case "education_credential":
		applyRules(text, educationRules, fields, confidence)
	case "employment_letter":
		applyRules(text, employmentRules, fields, confidence)
	default:
		extractGeneric(text, fields, confidence)
	}

	return Result{
		DocumentType: docTypeCode,
		Fields:       fields,
		Confidence:   confidence,
	}
}

func extractLanguageTest(text string, fields map[string]any, confidence map[string]float64) {
	testType := classifyTestFamily(text)
	fields["testType"] = testType
	if testType != TestTypeUnknown {
		confidence["testType"] = 0.9
	} else {
		confidence["testType"] = 0.3
	}

	applyRules(text, languageTestRules, fields, confidence)

	scores := make(map[string]any)
	switch testType {
	case TestTypeIELTS:
		applyScoreRules(text, ieltsScoreRules, scores, false)
	case TestTypeTOEFL:
		applyScoreRules(text, toeflScoreRules, scores, true)
	}
	fields["scores"] = scores

	if anyScorePresent(scores) {
		confidence["scores"] = 0.8
	} else {
		confidence["scores"] = 0
	}
}

func classifyTestFamily(text string) string {
	switch {
	case strings.Contains(text, TestTypeIELTS):
		return TestTypeIELTS
	case strings.Contains(text, TestTypeTOEFL):
		return TestTypeTOEFL
	case strings.Contains(text, TestTypeCELPIP):
		return TestTypeCELPIP
	default:
		return TestTypeUnknown
	}
}

func applyScoreRules(text string, rules []fieldRule, scores map[string]any, integral bool) {
	for _, rule := range rules {
		m := rule.Pattern.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		if integral {
			if v, err := strconv.Atoi(m[1]); err == nil {
				scores[rule.Field] = v
			}
			continue
		}
		if v, err := strconv.ParseFloat(m[1], 64); err == nil {
			scores[rule.Field] = v
		}
	}
}

func anyScorePresent(scores map[string]any) bool {
	for _, v := range scores {
		if v != nil {
			return true
		}
	}
	return false
}

// extractGeneric collects weakly-typed signals: date-like tokens, two-word
// capitalized name-like tokens, and long identifier-like tokens.
func extractGeneric(text string, fields map[string]any, confidence map[string]float64) {
	dates := captureAll(genericDatePattern, text)
	names := captureAll(genericNamePattern, text)
	numbers := captureAll(genericNumberPattern, text)

	fields["dates"] = dates
	fields["names"] = names
	fields["numbers"] = numbers

	confidence["dates"] = presenceConfidence(dates, 0.6)
	confidence["names"] = presenceConfidence(names, 0.5)
	confidence["numbers"] = presenceConfidence(numbers, 0.7)
}

func captureAll(pattern *regexp.Regexp, text string) []string {
	var out []string
	for _, m := range pattern.FindAllStringSubmatch(text, -1) {
		out = append(out, m[1])
	}
	return out
}

func presenceConfidence(values []string, confidence float64) float64 {
	if len(values) > 0 {
		return confidence
	}
	return 0
}
