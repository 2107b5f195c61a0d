package utils

import (
	"fmt"
	"time"
)

// FromMillis converts a store timestamp (ms since epoch) to time.Time
func FromMillis(ms int64) time.Time {
	return time.UnixMilli(ms)
}

// TimeAgo renders a store timestamp relative to now, as the forum lists do
func TimeAgo(timestamp int64, now time.Time) string {
	diff := now.Sub(FromMillis(timestamp))

	switch {
	case diff < time.Minute:
		return "Just now"
	case diff < time.Hour:
		return fmt.Sprintf("%dm ago", int(diff/time.Minute))
	case diff < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(diff/time.Hour))
	case diff < 7*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(diff/(24*time.Hour)))
	default:
		return FromMillis(timestamp).Format("Jan 02, 2006")
	}
}

// FormatTimestamp formats a store timestamp for detail screens
func FormatTimestamp(timestamp int64) string {
	t := FromMillis(timestamp)
	now := time.Now()
	if t.Year() == now.Year() && t.Month() == now.Month() && t.Day() == now.Day() {
		return t.Format("15:04") // Today: show time only
	}
	return t.Format("Jan 2, 2006 15:04")
}
