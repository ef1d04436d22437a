package ocr

import (
	"context"
	"errors"
	"strings"
	"testing"
)

type stubEngine struct {
	name       string
	result     Result
	err        error
	lastIn     Input
	recognized int
}

func (s *stubEngine) Name() string { return s.name }

func (s *stubEngine) Recognize(ctx context.Context, in Input) (Result, error) {
	s.lastIn = in
	s.recognized++
	if s.err != nil {
		return Result{}, s.err
	}
	return s.result, nil
}

func newTestSelector(cloudReady bool) (*Selector, *stubEngine, *stubEngine) {
	local := &stubEngine{name: "local", result: Result{Text: "local text", Confidence: 0.9}}
	cloud := &stubEngine{name: "azure", result: Result{Text: "cloud text", Confidence: 0.97}}
	sel := &Selector{
		Local:      local,
		Cloud:      cloud,
		CloudReady: func() bool { return cloudReady },
	}
	return sel, local, cloud
}

func TestSelectorDefaultsToLocal(t *testing.T) {
	sel, local, cloud := newTestSelector(true)

	res, err := sel.Recognize(context.Background(), Input{Reader: strings.NewReader("x")}, "passport", "")
	if err != nil {
		t.Fatalf("recognize: %v", err)
	}
	if res.Engine != "local" {
		t.Fatalf("expected local engine, got %q", res.Engine)
	}
	if local.recognized != 1 || cloud.recognized != 0 {
		t.Fatalf("wrong engine ran: local=%d cloud=%d", local.recognized, cloud.recognized)
	}
}

func TestSelectorUsesCloudWhenConfigured(t *testing.T) {
	sel, _, cloud := newTestSelector(true)

	res, err := sel.Recognize(context.Background(), Input{Reader: strings.NewReader("x")}, "passport", "azure")
	if err != nil {
		t.Fatalf("recognize: %v", err)
	}
	if res.Engine != "azure" {
		t.Fatalf("expected azure engine, got %q", res.Engine)
	}
	if cloud.recognized != 1 {
		t.Fatal("cloud engine did not run")
	}
}

func TestSelectorFallsBackWhenCloudUnconfigured(t *testing.T) {
	sel, local, cloud := newTestSelector(false)

	res, err := sel.Recognize(context.Background(), Input{Reader: strings.NewReader("x")}, "passport", "azure")
	if err != nil {
		t.Fatalf("recognize: %v", err)
	}
	if res.Engine != "local" {
		t.Fatalf("expected fallback to local, got %q", res.Engine)
	}
	if local.recognized != 1 || cloud.recognized != 0 {
		t.Fatal("fallback should not touch the cloud engine")
	}
}

func TestSelectorFallsBackOnUnknownEngine(t *testing.T) {
	sel, local, _ := newTestSelector(true)

	res, err := sel.Recognize(context.Background(), Input{Reader: strings.NewReader("x")}, "passport", "tesseract-5")
	if err != nil {
		t.Fatalf("recognize: %v", err)
	}
	if res.Engine != "local" {
		t.Fatalf("expected fallback to local, got %q", res.Engine)
	}
	if local.recognized != 1 {
		t.Fatal("local engine did not run")
	}
}

func TestSelectorPropagatesEngineError(t *testing.T) {
	sel, local, _ := newTestSelector(true)
	local.err = ErrUnsupportedInput

	_, err := sel.Recognize(context.Background(), Input{Reader: strings.NewReader("x")}, "passport", "local")
	if !errors.Is(err, ErrUnsupportedInput) {
		t.Fatalf("expected ErrUnsupportedInput, got %v", err)
	}
}

func TestSelectorAppliesLanguageHint(t *testing.T) {
	sel, local, _ := newTestSelector(true)

	if _, err := sel.Recognize(context.Background(), Input{Reader: strings.NewReader("x")}, "passport_chinese", ""); err != nil {
		t.Fatalf("recognize: %v", err)
	}
	if local.lastIn.Language != "chi_sim+chi_tra+eng" {
		t.Fatalf("language hint not applied: %q", local.lastIn.Language)
	}

	if _, err := sel.Recognize(context.Background(), Input{Reader: strings.NewReader("x"), Language: "fra"}, "passport_chinese", ""); err != nil {
		t.Fatalf("recognize: %v", err)
	}
	if local.lastIn.Language != "fra" {
		t.Fatalf("explicit language should win over hint: %q", local.lastIn.Language)
	}
}

func TestLanguageHint(t *testing.T) {
	cases := map[string]string{
		"passport":               "eng",
		"passport_chinese":       "chi_sim+chi_tra+eng",
		"bank_statement_russian": "rus+eng",
		"":                       "eng",
	}
	for code, want := range cases {
		if got := languageHint(code); got != want {
			t.Errorf("languageHint(%q) = %q, want %q", code, got, want)
		}
	}
}

func TestLocalEnginePlainText(t *testing.T) {
	var e LocalEngine
	res, err := e.Recognize(context.Background(), Input{
		Reader:   strings.NewReader("Passport No: AB123456"),
		MIMEType: "text/plain",
		FileName: "doc.txt",
	})
	if err != nil {
		t.Fatalf("recognize: %v", err)
	}
	if res.Text != "Passport No: AB123456" {
		t.Fatalf("unexpected text: %q", res.Text)
	}
	if res.Confidence != 1 {
		t.Fatalf("plain text confidence should be 1, got %v", res.Confidence)
	}
	if res.Engine != "local" {
		t.Fatalf("unexpected engine: %q", res.Engine)
	}
}

func TestLocalEngineRejectsImages(t *testing.T) {
	var e LocalEngine
	_, err := e.Recognize(context.Background(), Input{
		Reader:   strings.NewReader("\x89PNG"),
		MIMEType: "image/png",
		FileName: "scan.png",
	})
	if !errors.Is(err, ErrUnsupportedInput) {
		t.Fatalf("expected ErrUnsupportedInput, got %v", err)
	}
}

func TestNormalizeMIME(t *testing.T) {
	cases := []struct {
		mime, file, want string
	}{
		{"application/pdf", "a.pdf", "application/pdf"},
		{"APPLICATION/PDF; charset=binary", "a.pdf", "application/pdf"},
		{"application/octet-stream", "a.pdf", "application/pdf"},
		{"", "notes.TXT", "text/plain"},
		{"", "scan.png", ""},
	}
	for _, tc := range cases {
		if got := normalizeMIME(tc.mime, tc.file); got != tc.want {
			t.Errorf("normalizeMIME(%q, %q) = %q, want %q", tc.mime, tc.file, got, tc.want)
		}
	}
}
