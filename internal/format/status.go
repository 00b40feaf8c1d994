package format

import "strings"

var statusLabels = map[string]string{
	"pending":    "Pending Payment",
	"processing": "Processing",
	"on-hold":    "On Hold",
	"completed":  "Completed",
	"cancelled":  "Cancelled",
	"refunded":   "Refunded",
	"failed":     "Failed",
}

// StatusLabel returns the human label for a WooCommerce status.
// Unknown statuses are returned unchanged.
func StatusLabel(status string) string {
	if l, ok := statusLabels[strings.TrimSpace(status)]; ok {
		return l
	}
	return status
}
