package ocr

import (
	"context"
	"errors"
	"io"
)

var (
	// ErrEngineFailure means the engine reported a terminal failure for this input.
	ErrEngineFailure = errors.New("ocr engine failure")
	// ErrEngineTimeout means the engine did not finish within the polling budget.
	ErrEngineTimeout = errors.New("ocr engine timeout")
	// ErrUnsupportedInput means the engine cannot read this MIME type.
	ErrUnsupportedInput = errors.New("unsupported input for ocr engine")
)

// Input is the raw material handed to a recognition engine.
type Input struct {
	Reader   io.Reader
	MIMEType string
	FileName string
	Language string
}

// Word is a recognized token with its per-word confidence.
type Word struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
	Page       int     `json:"page,omitempty"`
}

// Result is the normalized output of any recognition engine.
type Result struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
	Words      []Word  `json:"words,omitempty"`
	Engine     string  `json:"engine"`
	Language   string  `json:"language"`
}

// Engine recognizes text in a document stream.
type Engine interface {
	Name() string
	Recognize(ctx context.Context, in Input) (Result, error)
}
