package categorize

import (
	"encoding/json"
	"fmt"
	"strings"
)

// decodeResults extracts a result array from a raw model completion. The
// text is tried as-is first (after code-fence stripping); when that fails,
// the first balanced bracket or brace span is located with a quote-aware
// scan and parsed instead. Models wrap their JSON in prose or fences often
// enough that this recovery path is the normal one.
func decodeResults(raw string) ([]Result, error) {
	text := stripFences(raw)

	var results []Result
	if err := json.Unmarshal([]byte(text), &results); err == nil {
		return results, nil
	}

	span, ok := balancedSpan(text)
	if !ok {
		return nil, fmt.Errorf("no JSON array or object found in response %.80q", raw)
	}
	if strings.HasPrefix(span, "[") {
		if err := json.Unmarshal([]byte(span), &results); err != nil {
			return nil, fmt.Errorf("cannot parse response span: %w", err)
		}
		return results, nil
	}
	// A lone object is accepted as a single-result batch.
	var one Result
	if err := json.Unmarshal([]byte(span), &one); err != nil {
		return nil, fmt.Errorf("cannot parse response span: %w", err)
	}
	return []Result{one}, nil
}

// stripFences removes a surrounding markdown code fence, with or without a
// language tag.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		// Drop the language tag line ("json", typically).
		if first := strings.TrimSpace(s[:i]); first == "" || !strings.ContainsAny(first, "[{") {
			s = s[i+1:]
		}
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// balancedSpan returns the first balanced [...] or {...} span of the text.
// The scan is quote-aware: brackets inside string literals do not count.
func balancedSpan(s string) (string, bool) {
	start := strings.IndexAny(s, "[{")
	if start < 0 {
		return "", false
	}
	open := s[start]
	var close byte = ']'
	if open == '{' {
		close = '}'
	}
	depth := 0
	inString := false
	for i := start; i < len(s); i++ {
		c := s[i]
		switch {
		case inString:
			switch c {
			case '\\':
				i++ // skip the escaped character
			case '"':
				inString = false
			}
		case c == '"':
			inString = true
		case c == open:
			depth++
		case c == close:
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}
