// Package dates formats timestamps the compact way thread UIs do: "5m",
// "2h", "3d".
package dates

import (
	"fmt"
	"time"
)

// Compact renders the distance from t to now using the shortest sensible
// unit. Anything under a minute collapses to "0m".
func Compact(t, now time.Time) string {
	d := now.Sub(t)
	if d < 0 {
		d = 0
	}
	switch {
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh", int(d.Hours()))
	case d < 30*24*time.Hour:
		return fmt.Sprintf("%dd", int(d.Hours()/24))
	case d < 365*24*time.Hour:
		return fmt.Sprintf("%dmo", int(d.Hours()/(24*30)))
	default:
		return fmt.Sprintf("%dy", int(d.Hours()/(24*365)))
	}
}

// CompactISO parses an ISO-8601 timestamp and formats it with Compact.
// Unparseable input is returned as-is so a bad record never breaks a render.
func CompactISO(iso string, now time.Time) string {
	t, err := time.Parse(time.RFC3339, iso)
	if err != nil {
		return iso
	}
	return Compact(t, now)
}
