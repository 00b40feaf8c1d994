package format

import (
	"strings"
	"time"
)

const dateLayout = "2006/01/02 15:04"

// zoneless layouts are rendered as wall-clock time.
var zonelessLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// FormatDate renders a WooCommerce timestamp. Zoned values are converted to loc.
// ok is false when raw is empty or unparseable.
func FormatDate(raw string, loc *time.Location) (string, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", false
	}
	if loc == nil {
		loc = time.UTC
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.In(loc).Format(dateLayout), true
	}
	for _, layout := range zonelessLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format(dateLayout), true
		}
	}
	return "", false
}
