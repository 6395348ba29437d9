package extract

import (
	"strings"
	"time"
)

// dateLayouts in priority order: D/M/Y, D-M-Y, D/M/YY, D-M-YY, Y-M-D, D.M.Y.
// Two-digit years follow the time package pivot (69-99 -> 19xx).
var dateLayouts = []string{
	"2/1/2006",
	"2-1-2006",
	"2/1/06",
	"2-1-06",
	"2006-1-2",
	"2.1.2006",
}

// ParseDate parses a raw decision date. The first layout that matches the
// whole trimmed input wins; anything else reports false.
func ParseDate(raw string) (time.Time, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
