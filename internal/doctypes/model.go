package doctypes

// Definition is a configured document category: accepted formats, required
// extraction fields, and verification policy. It is read-only to the intake
// pipeline.
type Definition struct {
	Code                 string   `json:"code"`
	Name                 string   `json:"name"`
	Category             string   `json:"category"`
	AcceptedMIMETypes    []string `json:"acceptedMimeTypes"`
	MaxFileSizeBytes     int64    `json:"maxFileSizeBytes"`
	RequiredFields       []string `json:"requiredFields"`
	VerificationRequired bool     `json:"verificationRequired"`
	ExpiryTracked        bool     `json:"expiryTracked"`
	ReminderDays         []int    `json:"reminderDays"`
}

// AcceptsMIME reports whether the definition allows the given MIME type.
func (d Definition) AcceptsMIME(mimeType string) bool {
	for _, m := range d.AcceptedMIMETypes {
		if m == mimeType {
			return true
		}
	}
	return false
}
