package ocr

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
)

const (
	mimePDF  = "application/pdf"
	mimeText = "text/plain"

	// Embedded text layers are not scanned, so clarity is near-certain.
	pdfTextConfidence = 0.92
)

// LocalEngine is the free default engine. It reads embedded text layers (PDF)
// and plain text; scanned raster images need the cloud engine.
type LocalEngine struct{}

// Name returns the engine identifier.
func (LocalEngine) Name() string { return "local" }

// Recognize extracts text from the input stream.
func (e LocalEngine) Recognize(ctx context.Context, in Input) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	data, err := io.ReadAll(in.Reader)
	if err != nil {
		return Result{}, fmt.Errorf("local ocr read: %w", err)
	}

	language := in.Language
	if language == "" {
		language = "eng"
	}

	switch normalizeMIME(in.MIMEType, in.FileName) {
	case mimePDF:
		text, err := extractPDFText(data)
		if err != nil {
			return Result{}, fmt.Errorf("local ocr pdf: %w", err)
		}
		return Result{
			Text:       text,
			Confidence: pdfTextConfidence,
			Words:      tokenizeWords(text, pdfTextConfidence),
			Engine:     e.Name(),
			Language:   language,
		}, nil
	case mimeText:
		text := string(data)
		if !utf8.ValidString(text) {
			return Result{}, fmt.Errorf("local ocr text: %w", ErrUnsupportedInput)
		}
		return Result{
			Text:       text,
			Confidence: 1,
			Engine:     e.Name(),
			Language:   language,
		}, nil
	default:
		return Result{}, fmt.Errorf("local ocr mime=%s: %w", in.MIMEType, ErrUnsupportedInput)
	}
}

func extractPDFText(data []byte) (string, error) {
	reader := bytes.NewReader(data)
	pdfReader, err := pdf.NewReader(reader, int64(len(data)))
	if err != nil {
		return "", err
	}
	plain, err := pdfReader.GetPlainText()
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, plain); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func tokenizeWords(text string, confidence float64) []Word {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return nil
	}
	words := make([]Word, 0, len(fields))
	for _, f := range fields {
		words = append(words, Word{Text: f, Confidence: confidence})
	}
	return words
}

func normalizeMIME(mimeType, fileName string) string {
	clean := strings.ToLower(strings.TrimSpace(strings.Split(mimeType, ";")[0]))
	if clean != "" && clean != "application/octet-stream" {
		return clean
	}
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".pdf":
		return mimePDF
	case ".txt":
		return mimeText
	default:
		return clean
	}
}
