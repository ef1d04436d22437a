package doctypes

import (
	"errors"
	"sort"
	"strings"
)

// ErrUnknownType is returned when a type code does not resolve.
var ErrUnknownType = errors.New("unknown document type")

// Catalog resolves document type codes to definitions.
type Catalog interface {
	Get(code string) (Definition, error)
	List() []Definition
}

// StaticCatalog is an in-memory catalog seeded at startup.
type StaticCatalog struct {
	byCode map[string]Definition
}

// NewStaticCatalog builds a catalog from the given definitions.
func NewStaticCatalog(defs []Definition) *StaticCatalog {
	byCode := make(map[string]Definition, len(defs))
	for _, d := range defs {
		byCode[strings.ToLower(d.Code)] = d
	}
	return &StaticCatalog{byCode: byCode}
}

// Get resolves a type code, case-insensitively.
func (c *StaticCatalog) Get(code string) (Definition, error) {
	def, ok := c.byCode[strings.ToLower(strings.TrimSpace(code))]
	if !ok {
		return Definition{}, ErrUnknownType
	}
	return def, nil
}

// List returns all definitions ordered by code.
func (c *StaticCatalog) List() []Definition {
	out := make([]Definition, 0, len(c.byCode))
	for _, d := range c.byCode {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

const (
	mimePDF  = "application/pdf"
	mimeJPEG = "image/jpeg"
	mimePNG  = "image/png"
	mimeTIFF = "image/tiff"
	mimeHEIC = "image/heic"
)

var documentMIMETypes = []string{mimePDF, mimeJPEG, mimePNG, mimeTIFF, mimeHEIC}

// Defaults returns the built-in document type definitions.
func Defaults() []Definition {
	return []Definition{
		{
			Code:                 "passport",
			Name:                 "Passport",
			Category:             "identification",
			AcceptedMIMETypes:    documentMIMETypes,
			MaxFileSizeBytes:     15 << 20,
			RequiredFields:       []string{"passportNumber", "name", "dateOfBirth", "nationality", "expiryDate"},
			VerificationRequired: true,
			ExpiryTracked:        true,
			ReminderDays:         []int{90, 60, 30, 7},
		},
		{
			Code:                 "language_test",
			Name:                 "Language Test Report",
			Category:             "language",
			AcceptedMIMETypes:    documentMIMETypes,
			MaxFileSizeBytes:     15 << 20,
			RequiredFields:       []string{"testType", "candidateName", "testDate", "scores.overall"},
			VerificationRequired: true,
			ExpiryTracked:        true,
			ReminderDays:         []int{60, 30, 7},
		},
		{
			Code:                 "education_credential",
			Name:                 "Education Credential",
			Category:             "education",
			AcceptedMIMETypes:    documentMIMETypes,
			MaxFileSizeBytes:     15 << 20,
			RequiredFields:       []string{"institution", "degree", "graduationDate", "studentName"},
			VerificationRequired: true,
		},
		{
			Code:                 "employment_letter",
			Name:                 "Employment Reference Letter",
			Category:             "employment",
			AcceptedMIMETypes:    documentMIMETypes,
			MaxFileSizeBytes:     15 << 20,
			RequiredFields:       []string{"company", "employeeName", "position", "startDate"},
			VerificationRequired: true,
		},
		{
			Code:              "bank_statement",
			Name:              "Bank Statement",
			Category:          "financial",
			AcceptedMIMETypes: documentMIMETypes,
			MaxFileSizeBytes:  15 << 20,
		},
	}
}
