package extraction

import "strings"

// Result holds typed fields pulled out of recognized text, with an
// independent confidence per field. Confidences are fixed per rule and
// reflect empirical pattern reliability, not match quality.
type Result struct {
	DocumentType string             `json:"documentType"`
	Fields       map[string]any     `json:"fields"`
	Confidence   map[string]float64 `json:"confidence"`
}

// OverallConfidence averages the per-field confidences; empty maps score 0.
func (r Result) OverallConfidence() float64 {
	if len(r.Confidence) == 0 {
		return 0
	}
	var sum float64
	for _, v := range r.Confidence {
		sum += v
	}
	return sum / float64(len(r.Confidence))
}

// ResolvePath walks a dotted field path (e.g. "scores.overall") through the
// field map. The second return is false when any segment is missing or nil.
func ResolvePath(fields map[string]any, path string) (any, bool) {
	var current any = fields
	for _, part := range strings.Split(path, ".") {
		m, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		next, ok := m[part]
		if !ok || next == nil {
			return nil, false
		}
		current = next
	}
	return current, true
}

// PathPresent reports whether the path resolves to a usable value: non-nil,
// non-empty string, non-empty slice or map.
func PathPresent(fields map[string]any, path string) bool {
	value, ok := ResolvePath(fields, path)
	if !ok {
		return false
	}
	switch v := value.(type) {
	case string:
		return strings.TrimSpace(v) != ""
	case []string:
		return len(v) > 0
	case []any:
		return len(v) > 0
	case map[string]any:
		return len(v) > 0
	default:
		return true
	}
}
