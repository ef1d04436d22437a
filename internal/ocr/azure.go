package ocr

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	azureAnalyzePath = "/formrecognizer/documentModels/prebuilt-read:analyze?api-version=2023-07-31"

	defaultPollInterval = time.Second
	defaultMaxPolls     = 10
)

// AzureEngine recognizes text via Azure Document Intelligence. The analyze
// call is asynchronous: submit returns an operation URL which is polled at a
// fixed interval up to a bounded attempt count.
type AzureEngine struct {
	Endpoint     string
	APIKey       string
	HTTPClient   *http.Client
	PollInterval time.Duration
	MaxPolls     int
}

// NewAzureEngine constructs a cloud engine.
func NewAzureEngine(endpoint, apiKey string) *AzureEngine {
	return &AzureEngine{
		Endpoint:     strings.TrimRight(strings.TrimSpace(endpoint), "/"),
		APIKey:       strings.TrimSpace(apiKey),
		HTTPClient:   &http.Client{Timeout: 30 * time.Second},
		PollInterval: defaultPollInterval,
		MaxPolls:     defaultMaxPolls,
	}
}

// Name returns the engine identifier.
func (e *AzureEngine) Name() string { return "azure" }

// Configured reports whether credentials are present.
func (e *AzureEngine) Configured() bool {
	return e != nil && e.Endpoint != "" && e.APIKey != ""
}

// Recognize submits the document and polls for the result.
func (e *AzureEngine) Recognize(ctx context.Context, in Input) (Result, error) {
	if !e.Configured() {
		return Result{}, fmt.Errorf("azure credentials not configured: %w", ErrEngineFailure)
	}

	data, err := io.ReadAll(in.Reader)
	if err != nil {
		return Result{}, fmt.Errorf("azure ocr read: %w", err)
	}

	operationURL, err := e.submit(ctx, data)
	if err != nil {
		return Result{}, err
	}

	raw, err := e.poll(ctx, operationURL)
	if err != nil {
		return Result{}, err
	}

	result := decodeAzureResult(raw)
	result.Engine = e.Name()
	if result.Language == "" {
		result.Language = in.Language
	}
	return result, nil
}

func (e *AzureEngine) submit(ctx context.Context, body []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.Endpoint+azureAnalyzePath, strings.NewReader(string(body)))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/octet-stream")
	req.Header.Set("Ocp-Apim-Subscription-Key", e.APIKey)

	resp, err := e.HTTPClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("azure submit: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("azure submit status %d: %w", resp.StatusCode, ErrEngineFailure)
	}

	operationURL := resp.Header.Get("Operation-Location")
	if operationURL == "" {
		return "", fmt.Errorf("azure submit missing operation location: %w", ErrEngineFailure)
	}
	return operationURL, nil
}

type azureOperation struct {
	Status        string `json:"status"`
	Error         any    `json:"error,omitempty"`
	AnalyzeResult struct {
		Content   string   `json:"content"`
		Languages []string `json:"languages"`
		Pages     []struct {
			PageNumber int `json:"pageNumber"`
			Words      []struct {
				Content    string  `json:"content"`
				Confidence float64 `json:"confidence"`
			} `json:"words"`
		} `json:"pages"`
	} `json:"analyzeResult"`
}

// poll retries at a fixed interval. Transient per-poll errors consume an
// attempt but do not abort; exhausting the budget is ErrEngineTimeout.
func (e *AzureEngine) poll(ctx context.Context, operationURL string) (azureOperation, error) {
	interval := e.PollInterval
	if interval <= 0 {
		interval = defaultPollInterval
	}
	maxPolls := e.MaxPolls
	if maxPolls <= 0 {
		maxPolls = defaultMaxPolls
	}

	for attempt := 0; attempt < maxPolls; attempt++ {
		select {
		case <-ctx.Done():
			return azureOperation{}, ctx.Err()
		case <-time.After(interval):
		}

		op, err := e.pollOnce(ctx, operationURL)
		if err != nil {
			if ctx.Err() != nil {
				return azureOperation{}, ctx.Err()
			}
			continue
		}

		switch op.Status {
		case "succeeded":
			return op, nil
		case "failed":
			return azureOperation{}, fmt.Errorf("azure reported failure: %w", ErrEngineFailure)
		}
	}
	return azureOperation{}, fmt.Errorf("azure polling exhausted after %d attempts: %w", maxPolls, ErrEngineTimeout)
}

func (e *AzureEngine) pollOnce(ctx context.Context, operationURL string) (azureOperation, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, operationURL, nil)
	if err != nil {
		return azureOperation{}, err
	}
	req.Header.Set("Ocp-Apim-Subscription-Key", e.APIKey)

	resp, err := e.HTTPClient.Do(req)
	if err != nil {
		return azureOperation{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return azureOperation{}, fmt.Errorf("azure poll status %d", resp.StatusCode)
	}

	var op azureOperation
	if err := json.NewDecoder(resp.Body).Decode(&op); err != nil {
		return azureOperation{}, err
	}
	return op, nil
}

// decodeAzureResult keeps best-effort text even when word positions are
// missing from the payload.
func decodeAzureResult(op azureOperation) Result {
	result := Result{Text: op.AnalyzeResult.Content}
	if len(op.AnalyzeResult.Languages) > 0 {
		result.Language = op.AnalyzeResult.Languages[0]
	}

	var sum float64
	var count int
	for _, page := range op.AnalyzeResult.Pages {
		for _, w := range page.Words {
			result.Words = append(result.Words, Word{
				Text:       w.Content,
				Confidence: w.Confidence,
				Page:       page.PageNumber,
			})
			sum += w.Confidence
			count++
		}
	}
	if count > 0 {
		result.Confidence = sum / float64(count)
	} else if result.Text != "" {
		result.Confidence = 0.9
	}
	return result
}
