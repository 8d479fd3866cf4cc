// Package timeutil provides time formatting utilities for Areo.
//
// Stored timestamps (tile fetch times, place creation times) are Unix
// nanoseconds (int64). This package turns them into short human-readable
// strings for the TUI and the CLI.
package timeutil

import (
	"fmt"
	"time"
)

// FromNano converts a Unix nanosecond timestamp to time.Time.
func FromNano(ns int64) time.Time {
	return time.Unix(0, ns)
}

// FormatTimestampFull formats a Unix nanosecond timestamp with date.
// Format: "2006-01-02 15:04:05". Zero renders as "-".
func FormatTimestampFull(ns int64) string {
	if ns == 0 {
		return "-"
	}
	return FromNano(ns).Format("2006-01-02 15:04:05")
}

// FormatDuration formats a duration compactly.
// Examples: "450ms", "1.2s", "2m 15s", "3h 5m", "30d"
func FormatDuration(d time.Duration) string {
	switch {
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	case d < time.Minute:
		return fmt.Sprintf("%.1fs", d.Seconds())
	case d < time.Hour:
		return fmt.Sprintf("%dm %ds", int(d.Minutes()), int(d.Seconds())%60)
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh %dm", int(d.Hours()), int(d.Minutes())%60)
	default:
		return fmt.Sprintf("%dd", int(d.Hours()/24))
	}
}

// RelativeTime returns a human-readable relative time string.
// Examples: "just now", "5s ago", "2m ago", "1h ago"
func RelativeTime(ns int64) string {
	return RelativeTimeFrom(ns, time.Now())
}

// RelativeTimeFrom is RelativeTime measured from now.
func RelativeTimeFrom(ns int64, now time.Time) string {
	diff := now.Sub(FromNano(ns))

	switch {
	case diff < time.Second:
		return "just now"
	case diff < time.Minute:
		return fmt.Sprintf("%ds ago", int(diff.Seconds()))
	case diff < time.Hour:
		return fmt.Sprintf("%dm ago", int(diff.Minutes()))
	case diff < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(diff.Hours()))
	default:
		days := int(diff.Hours() / 24)
		return fmt.Sprintf("%dd ago", days)
	}
}
