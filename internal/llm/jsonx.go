package llm

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ParseJSONResponse recovers a JSON document from model output. Models are
// asked for bare JSON but routinely wrap it in markdown fences or prose, so
// parsing proceeds in three stages: direct parse, fenced-block parse, then a
// brace/bracket-balanced substring scan. Only when all three fail is the
// response considered unparseable.
func ParseJSONResponse(text string) (json.RawMessage, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil, fmt.Errorf("empty llm response")
	}

	if raw, ok := tryParse(trimmed); ok {
		return raw, nil
	}

	if fenced := stripCodeFences(trimmed); fenced != "" {
		if raw, ok := tryParse(fenced); ok {
			return raw, nil
		}
	}

	for _, pair := range [][2]byte{{'{', '}'}, {'[', ']'}} {
		if candidate := balancedSubstring(trimmed, pair[0], pair[1]); candidate != "" {
			if raw, ok := tryParse(candidate); ok {
				return raw, nil
			}
		}
	}

	preview := trimmed
	if len(preview) > 200 {
		preview = preview[:200] + "..."
	}
	return nil, fmt.Errorf("could not parse JSON from response: %s", preview)
}

func tryParse(s string) (json.RawMessage, bool) {
	var v any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return nil, false
	}
	// Only objects and arrays count as a payload; a bare string or number is
	// almost certainly prose that happened to be valid JSON.
	switch v.(type) {
	case map[string]any, []any:
		return json.RawMessage(s), true
	}
	return nil, false
}

func stripCodeFences(s string) string {
	start := strings.Index(s, "```")
	if start == -1 {
		return ""
	}
	rest := s[start+3:]
	// Skip an optional language tag on the fence line.
	if nl := strings.IndexByte(rest, '\n'); nl != -1 {
		firstLine := strings.TrimSpace(rest[:nl])
		if firstLine == "" || firstLine == "json" {
			rest = rest[nl+1:]
		}
	}
	end := strings.Index(rest, "```")
	if end == -1 {
		return strings.TrimSpace(rest)
	}
	return strings.TrimSpace(rest[:end])
}

// balancedSubstring returns the first substring starting at open and ending
// at the matching close, tracking nesting depth. Quoted strings are not
// special-cased; in practice brace balance suffices for model output.
func balancedSubstring(s string, open, close byte) string {
	start := strings.IndexByte(s, open)
	if start == -1 {
		return ""
	}
	depth := 0
	for i := start; i < len(s); i++ {
		switch s[i] {
		case open:
			depth++
		case close:
			depth--
			if depth == 0 {
				return s[start : i+1]
			}
		}
	}
	return ""
}
