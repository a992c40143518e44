package ai

import (
	"encoding/json"
	"fmt"
	"strings"
)

// DecodeJSON parses model output as JSON, stripping optional markdown code
// fences first. Models routinely wrap JSON in ```json ... ``` despite
// instructions not to; this is the single place that tolerance lives.
func DecodeJSON(raw string, v any) error {
	cleaned := StripFences(raw)
	if err := json.Unmarshal([]byte(cleaned), v); err != nil {
		return fmt.Errorf("parse model output: %w", err)
	}
	return nil
}

// DecodeJSONOr parses model output into v, calling fallback instead of
// failing when the output is unparseable. Which call sites get a fallback
// and which fail hard is a per-feature decision, not a uniform one.
func DecodeJSONOr(raw string, v any, fallback func()) {
	if err := DecodeJSON(raw, v); err != nil {
		fallback()
	}
}

// StripFences removes a single leading/trailing markdown code fence pair.
func StripFences(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	// Drop an optional language tag on the opening fence line.
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		first := strings.TrimSpace(s[:idx])
		if first == "" || isLangTag(first) {
			s = s[idx+1:]
		}
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func isLangTag(s string) bool {
	for _, r := range s {
		if !('a' <= r && r <= 'z' || '0' <= r && r <= '9') {
			return false
		}
	}
	return len(s) <= 16
}
