package llm

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var reFence = regexp.MustCompile("(?s)```(?:json)?(.*?)```")

// ExtractJSONObject pulls a JSON object out of a chat reply: a fenced
// ```json block first, else the span from the first '{' to the last '}'.
// Control characters are replaced by spaces so raw newlines inside
// string values do not break decoding.
func ExtractJSONObject(reply string) (string, bool) {
	if m := reFence.FindStringSubmatch(reply); m != nil && strings.Contains(m[1], "{") {
		reply = m[1]
	}
	start := strings.Index(reply, "{")
	end := strings.LastIndex(reply, "}")
	if start < 0 || end <= start {
		return "", false
	}
	candidate := reply[start : end+1]
	candidate = strings.Map(func(r rune) rune {
		if r < 0x20 {
			return ' '
		}
		return r
	}, candidate)
	if !json.Valid([]byte(candidate)) {
		return "", false
	}
	return candidate, true
}

// NormalizeRankReply coerces a similarity reply into the expected shape:
// refs become strings, non-string reasons are dropped and missing
// sections default to empty values.
func NormalizeRankReply(raw []byte) ([]byte, error) {
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("normalize: decode: %w", err)
	}

	refs := []string{}
	if arr, ok := m["similar_cases"].([]any); ok {
		for _, v := range arr {
			switch t := v.(type) {
			case string:
				if s := strings.TrimSpace(t); s != "" {
					refs = append(refs, s)
				}
			case float64:
				refs = append(refs, strconv.FormatFloat(t, 'f', -1, 64))
			}
		}
	}

	reasons := map[string]any{}
	if obj, ok := m["similarity_reasons"].(map[string]any); ok {
		for k, v := range obj {
			if s, ok := v.(string); ok {
				reasons[k] = s
			}
		}
	}

	out := map[string]any{
		"similar_cases":      refs,
		"similarity_reasons": reasons,
		"analysis":           stringOrEmpty(m["analysis"]),
		"recommendations":    stringOrEmpty(m["recommendations"]),
	}
	b, err := json.Marshal(out)
	if err != nil {
		return nil, fmt.Errorf("normalize: encode: %w", err)
	}
	return b, nil
}

func stringOrEmpty(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case []any:
		parts := make([]string, 0, len(t))
		for _, p := range t {
			if s, ok := p.(string); ok {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, "\n")
	}
	return ""
}
