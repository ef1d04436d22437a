package ocr

import (
	"context"
	"strings"

	"docvault-backend/internal/shared/telemetry"
)

// CredentialCheck reports whether the cloud engine can actually run. Injected
// so fallback behavior is testable without environment reads.
type CredentialCheck func() bool

// Selector normalizes access to interchangeable recognition engines and owns
// the silent-fallback policy: an unavailable or unknown engine degrades to the
// local one, and the result always names the engine that actually ran.
type Selector struct {
	Local      Engine
	Cloud      Engine
	CloudReady CredentialCheck
}

// NewSelector wires the default engine pair.
func NewSelector(local Engine, cloud *AzureEngine) *Selector {
	return &Selector{
		Local:      local,
		Cloud:      cloud,
		CloudReady: cloud.Configured,
	}
}

// Recognize runs the requested engine, falling back to local when the request
// is unknown or the cloud engine has no credentials. The document type code
// only contributes a language hint.
func (s *Selector) Recognize(ctx context.Context, in Input, docTypeCode, requestedEngine string) (Result, error) {
	if in.Language == "" {
		in.Language = languageHint(docTypeCode)
	}

	engine := s.resolve(requestedEngine)
	result, err := engine.Recognize(ctx, in)
	if err != nil {
		return Result{}, err
	}
	result.Engine = engine.Name()
	return result, nil
}

func (s *Selector) resolve(requested string) Engine {
	switch strings.ToLower(strings.TrimSpace(requested)) {
	case "azure":
		if s.Cloud != nil && s.CloudReady != nil && s.CloudReady() {
			return s.Cloud
		}
		telemetry.Info("ocr.fallback", map[string]any{
			"requested": "azure",
			"used":      s.Local.Name(),
			"reason":    "cloud engine not configured",
		})
		return s.Local
	case "", "local":
		return s.Local
	default:
		telemetry.Info("ocr.fallback", map[string]any{
			"requested": requested,
			"used":      s.Local.Name(),
			"reason":    "unknown engine",
		})
		return s.Local
	}
}

// languageHint maps document type code suffixes to recognizer languages.
func languageHint(docTypeCode string) string {
	code := strings.ToLower(docTypeCode)
	switch {
	case strings.HasSuffix(code, "_chinese"):
		return "chi_sim+chi_tra+eng"
	case strings.HasSuffix(code, "_russian"):
		return "rus+eng"
	default:
		return "eng"
	}
}
