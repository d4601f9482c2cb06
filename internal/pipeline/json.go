package pipeline

import (
	"strconv"
	"strings"

	"github.com/sells-group/csrd-cli/pkg/anthropic"
)

// extractText concatenates the text blocks of a message response.
func extractText(resp *anthropic.MessageResponse) string {
	if resp == nil {
		return ""
	}
	var b strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	return b.String()
}

// cleanJSON strips markdown code fences that models wrap JSON output in.
func cleanJSON(text string) string {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "```") {
		if idx := strings.Index(text, "\n"); idx >= 0 {
			text = text[idx+1:]
		}
		text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	}
	return strings.TrimSpace(text)
}

// findJSONObject locates the JSON object in a raw model response. It first
// tries a narrow match: the balanced object enclosing the anchor substring.
// If that fails it falls back to the first balanced object anywhere in the
// text.
func findJSONObject(text, anchor string) (string, bool) {
	text = cleanJSON(text)

	if anchor != "" {
		if idx := strings.Index(text, anchor); idx >= 0 {
			if start := strings.LastIndex(text[:idx], "{"); start >= 0 {
				if obj, ok := balancedObject(text[start:]); ok {
					return obj, true
				}
			}
		}
	}

	if start := strings.Index(text, "{"); start >= 0 {
		if obj, ok := balancedObject(text[start:]); ok {
			return obj, true
		}
	}

	return "", false
}

// balancedObject scans s (which must start with '{') up to the matching
// closing brace, honoring string literals and escapes.
func balancedObject(s string) (string, bool) {
	depth := 0
	inString := false
	escaped := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[:i+1], true
			}
		}
	}
	return "", false
}

// coerceNumber converts a decoded JSON value to float64, accepting numbers
// and separator-formatted numeric strings.
func coerceNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		cleaned := strings.NewReplacer(",", "", " ", "", " ", "").Replace(strings.TrimSpace(n))
		if cleaned == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(cleaned, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// coerceInt converts a decoded JSON value to int.
func coerceInt(v any) (int, bool) {
	f, ok := coerceNumber(v)
	if !ok {
		return 0, false
	}
	return int(f), true
}
