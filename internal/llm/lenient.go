package llm

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// SanitizeFillFields keeps only allowed keys holding usable text, so a
// reply that mixes good and junk values still validates. Numbers become
// strings; null, empty, "null", "N/A" and non-scalar values are dropped.
func SanitizeFillFields(doc []byte, allowed []string) ([]byte, []string, error) {
	var m map[string]any
	if err := json.Unmarshal(doc, &m); err != nil {
		return nil, nil, err
	}

	keep := make(map[string]struct{}, len(allowed))
	for _, k := range allowed {
		keep[k] = struct{}{}
	}

	var dropped []string
	for k, v := range m {
		if _, ok := keep[k]; !ok {
			delete(m, k)
			dropped = append(dropped, k+"(unknown)")
			continue
		}
		switch t := v.(type) {
		case string:
			s := strings.TrimSpace(t)
			if isBlankAnswer(s) {
				delete(m, k)
				dropped = append(dropped, k+"(empty)")
				continue
			}
			m[k] = s
		case float64:
			m[k] = strconv.FormatFloat(t, 'f', -1, 64)
		case nil:
			delete(m, k)
			dropped = append(dropped, k+"(null)")
		default:
			delete(m, k)
			dropped = append(dropped, k+"(type)")
		}
	}

	b, err := json.Marshal(m)
	if err != nil {
		return nil, dropped, fmt.Errorf("sanitize: encode: %w", err)
	}
	return b, dropped, nil
}

func isBlankAnswer(s string) bool {
	switch strings.ToLower(s) {
	case "", "null", "none", "n/a", "na", "inconnu", "unknown":
		return true
	}
	return false
}
