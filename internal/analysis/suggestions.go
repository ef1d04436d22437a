package analysis

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"docvault-backend/internal/extraction"
)

// buildSuggestions orders suggestions as quality issues first, then missing
// fields, then document-specific validity rules. Nothing is deduplicated.
func buildSuggestions(docTypeCode string, ext extraction.Result, issues []Issue, missing []string, now time.Time) []Suggestion {
	suggestions := []Suggestion{}

	for _, issue := range issues {
		switch issue.Type {
		case "image_quality":
			suggestions = append(suggestions, Suggestion{
				Type:     "quality_improvement",
				Message:  "Upload a higher quality scan or photo of the document",
				Details:  "A clearer image will improve data extraction accuracy",
				Priority: issuePriority(issue),
			})
		case "text_clarity":
			suggestions = append(suggestions, Suggestion{
				Type:     "quality_improvement",
				Message:  "Upload a document with clearer text",
				Details:  "Ensure the text is not blurry, faded, or too small",
				Priority: issuePriority(issue),
			})
		case "format_consistency":
			suggestions = append(suggestions, Suggestion{
				Type:     "format_correction",
				Message:  "Ensure the document follows standard format",
				Details:  "The document format does not match the expected layout",
				Priority: SeverityMedium,
			})
		}
	}

	for _, field := range missing {
		suggestions = append(suggestions, Suggestion{
			Type:     "missing_information",
			Message:  fmt.Sprintf("Document is missing required field: %s", formatFieldName(field)),
			Details:  "Upload a complete document that includes all required information",
			Priority: SeverityHigh,
		})
	}

	if strings.ToLower(docTypeCode) == "passport" {
		suggestions = append(suggestions, passportValiditySuggestions(ext, now)...)
	}

	return suggestions
}

func issuePriority(issue Issue) string {
	if issue.Severity == SeverityHigh {
		return SeverityHigh
	}
	return SeverityMedium
}

// passportValiditySuggestions flags expired passports as critical and ones
// expiring inside six months as high.
func passportValiditySuggestions(ext extraction.Result, now time.Time) []Suggestion {
	raw, ok := ext.Fields["expiryDate"].(string)
	if !ok || strings.TrimSpace(raw) == "" {
		return nil
	}
	expiry, ok := parseLooseDate(raw)
	if !ok {
		return nil
	}

	sixMonthsFromNow := now.AddDate(0, 6, 0)
	switch {
	case expiry.Before(now):
		return []Suggestion{{
			Type:     "document_validity",
			Message:  "Passport has expired",
			Details:  "Upload a valid, non-expired passport",
			Priority: SeverityCritical,
		}}
	case expiry.Before(sixMonthsFromNow):
		return []Suggestion{{
			Type:     "document_validity",
			Message:  "Passport expires in less than 6 months",
			Details:  "Many countries require passports to be valid for at least 6 months",
			Priority: SeverityHigh,
		}}
	}
	return nil
}

var looseDateLayouts = []string{
	"2006-01-02",
	"02/01/2006",
	"01/02/2006",
	"02-01-2006",
	"02.01.2006",
	"2/1/2006",
	"2/1/06",
}

// parseLooseDate accepts the date shapes the extraction patterns capture.
func parseLooseDate(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	for _, layout := range looseDateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

var camelBoundary = regexp.MustCompile(`([a-z])([A-Z])`)

// formatFieldName renders a field path for display: "scores.overall" becomes
// "Scores Overall", "passportNumber" becomes "Passport Number".
func formatFieldName(field string) string {
	formatted := strings.ReplaceAll(field, ".", " ")
	formatted = camelBoundary.ReplaceAllString(formatted, "$1 $2")
	words := strings.Fields(formatted)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
