package extraction

import (
	"regexp"
	"strings"
)

// fieldRule binds one named field to the pattern that captures it and the
// fixed confidence assigned when the pattern matches.
type fieldRule struct {
	Field      string
	Pattern    *regexp.Regexp
	Confidence float64
}

// Free-text captures stop at end of line so a field never swallows the next
// label.
var passportRules = []fieldRule{
	{"passportNumber", regexp.MustCompile(`(?i)(?:Passport No|Passport Number|No|Number)[.:]\s*([A-Z0-9]{6,9})`), 0.8},
	{"name", regexp.MustCompile(`(?i)(?:Name|Surname and given names)[.:][ \t]*([A-Z][A-Z ]*)`), 0.7},
	{"dateOfBirth", regexp.MustCompile(`(?i)(?:Date of Birth|Birth Date|DOB)[.:]\s*(\d{1,2}[/.\-]\d{1,2}[/.\-]\d{2,4})`), 0.8},
	{"nationality", regexp.MustCompile(`(?i)(?:Nationality|Citizenship)[.:][ \t]*([A-Z][A-Z ]*)`), 0.7},
	{"expiryDate", regexp.MustCompile(`(?i)(?:Date of Expiry|Expiry Date|Expiration)[.:]\s*(\d{1,2}[/.\-]\d{1,2}[/.\-]\d{2,4})`), 0.8},
}

var educationRules = []fieldRule{
	{"institution", regexp.MustCompile(`(?i)(?:University|College|Institute|School)[: \t]+([A-Za-z][A-Za-z &,]*)`), 0.8},
	{"degree", regexp.MustCompile(`(?i)(?:Degree|Qualification|Diploma|Certificate)[: \t]+([A-Za-z][A-Za-z &,]*)`), 0.7},
	{"graduationDate", regexp.MustCompile(`(?i)(?:Graduation Date|Date of Graduation|Conferred on|Awarded on)[:\s]+(\d{1,2}[/.\-]\d{1,2}[/.\-]\d{2,4})`), 0.8},
	{"studentName", regexp.MustCompile(`(?i)(?:Student|Name|Graduate)[: \t]+([A-Za-z][A-Za-z ]*)`), 0.7},
}

var employmentRules = []fieldRule{
	{"company", regexp.MustCompile(`(?i)(?:Company|Employer|Organization)[: \t]+([A-Za-z][A-Za-z &,.]*)`), 0.8},
	{"employeeName", regexp.MustCompile(`(?i)(?:Employee|Name)[: \t]+([A-Za-z][A-Za-z ]*)`), 0.7},
	{"position", regexp.MustCompile(`(?i)(?:Position|Job Title|Title|Role)[: \t]+([A-Za-z][A-Za-z ]*)`), 0.8},
	{"startDate", regexp.MustCompile(`(?i)(?:Start Date|Employment Date|Joined on)[:\s]+(\d{1,2}[/.\-]\d{1,2}[/.\-]\d{2,4})`), 0.7},
}

var languageTestRules = []fieldRule{
	{"candidateName", regexp.MustCompile(`(?i)(?:Candidate|Name|Test taker)[.:][ \t]*([A-Za-z][A-Za-z ]*)`), 0.7},
	{"testDate", regexp.MustCompile(`(?i)(?:Test Date|Date of Test|Examination Date)[.:]\s*(\d{1,2}[/.\-]\d{1,2}[/.\-]\d{2,4})`), 0.8},
}

// Score patterns per test family. IELTS band scores are fractional, TOEFL
// section scores are integral.
var ieltsScoreRules = []fieldRule{
	{"listening", regexp.MustCompile(`(?i)Listening[.:]\s*(\d+\.?\d*)`), 0},
	{"reading", regexp.MustCompile(`(?i)Reading[.:]\s*(\d+\.?\d*)`), 0},
	{"writing", regexp.MustCompile(`(?i)Writing[.:]\s*(\d+\.?\d*)`), 0},
	{"speaking", regexp.MustCompile(`(?i)Speaking[.:]\s*(\d+\.?\d*)`), 0},
	{"overall", regexp.MustCompile(`(?i)Overall[.:]\s*(\d+\.?\d*)`), 0},
}

var toeflScoreRules = []fieldRule{
	{"listening", regexp.MustCompile(`(?i)Listening[.:]\s*(\d+)`), 0},
	{"reading", regexp.MustCompile(`(?i)Reading[.:]\s*(\d+)`), 0},
	{"writing", regexp.MustCompile(`(?i)Writing[.:]\s*(\d+)`), 0},
	{"speaking", regexp.MustCompile(`(?i)Speaking[.:]\s*(\d+)`), 0},
	{"total", regexp.MustCompile(`(?i)Total[.:]\s*(\d+)`), 0},
}

var genericDatePattern = regexp.MustCompile(`\b(\d{1,2}[/.\-]\d{1,2}[/.\-]\d{2,4})\b`)
var genericNamePattern = regexp.MustCompile(`\b([A-Z][a-z]+ [A-Z][a-z]+)\b`)
var genericNumberPattern = regexp.MustCompile(`\b([A-Z0-9]{6,})\b`)

// applyRules runs each rule against the text, populating fields and
// confidences. Fields with no match stay absent; their confidence is 0.
func applyRules(text string, rules []fieldRule, fields map[string]any, confidence map[string]float64) {
	for _, rule := range rules {
		m := rule.Pattern.FindStringSubmatch(text)
		if m == nil {
			confidence[rule.Field] = 0
			continue
		}
		fields[rule.Field] = strings.TrimSpace(m[1])
		confidence[rule.Field] = rule.Confidence
	}
}
