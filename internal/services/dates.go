package services

import (
	"strings"
	"time"
)

var dueDateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",  // ISO date
	"2 Jan 2006",  // e.g., 30 Oct 2025
	"02 Jan 2006", // zero-padded day
}

// parseDueDate accepts the layouts above. Layouts without an offset are
// read in loc, so a bare date means midnight in the evaluation timezone.
func parseDueDate(raw string, loc *time.Location) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range dueDateLayouts {
		if t, err := time.ParseInLocation(layout, raw, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
