package views

import (
	"fmt"
	"math"
	"time"
)

type SeenBucket string

const (
	SeenOnline SeenBucket = "online"
	SeenRecent SeenBucket = "recent"
	SeenToday  SeenBucket = "today"
	SeenStale  SeenBucket = "stale"
	SeenNever  SeenBucket = "never"
)

func LastSeenBucket(seen *time.Time, now time.Time) SeenBucket {
	if seen == nil || seen.IsZero() {
		return SeenNever
	}
	age := now.Sub(*seen)
	switch {
	case age < 5*time.Minute:
		return SeenOnline
	case age < time.Hour:
		return SeenRecent
	case age < 24*time.Hour:
		return SeenToday
	}
	return SeenStale
}

// TimeAgo is the short form used in tables: "Just now", "5m ago", "3h ago".
func TimeAgo(t *time.Time, now time.Time) string {
	if t == nil || t.IsZero() {
		return "Never"
	}
	d := now.Sub(*t)
	switch {
	case d < time.Minute:
		return "Just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d/time.Minute))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d/time.Hour))
	}
	return fmt.Sprintf("%dd ago", int(d/(24*time.Hour)))
}

const dateLayout = "Jan 2, 2006, 3:04:05 PM"

func FormatDate(t *time.Time) string {
	if t == nil || t.IsZero() {
		return "N/A"
	}
	return t.Local().Format(dateLayout)
}

// FormatRelative renders "5 minutes ago" or "in about 2 hours".
func FormatRelative(t time.Time, now time.Time) string {
	d := now.Sub(t)
	future := d < 0
	if future {
		d = -d
	}
	s := distance(d)
	if future {
		return "in " + s
	}
	return s + " ago"
}

func distance(d time.Duration) string {
	mins := d.Minutes()
	plural := func(n int, unit string) string {
		if n == 1 {
			return "1 " + unit
		}
		return fmt.Sprintf("%d %ss", n, unit)
	}
	switch {
	case d < 30*time.Second:
		return "less than a minute"
	case mins < 1.5:
		return "1 minute"
	case mins < 44.5:
		return plural(int(math.Round(mins)), "minute")
	case mins < 89.5:
		return "about 1 hour"
	case mins < 1439.5:
		return "about " + plural(int(math.Round(mins/60)), "hour")
	case mins < 2519.5:
		return "1 day"
	case mins < 43199.5:
		return plural(int(math.Round(mins/1440)), "day")
	case mins < 86399.5:
		return "about " + plural(int(math.Round(mins/43200)), "month")
	case mins < 525600:
		return plural(int(math.Round(mins/43200)), "month")
	}
	return "about " + plural(int(math.Round(mins/525600)), "year")
}
