package temporal

import (
	"fmt"
	"time"
)

// RecencyScore maps an event date to a [0,1] relevance weight relative to ref.
// Piecewise linear, decreasing within each age band; future dates score a
// flat 0.5.
func RecencyScore(date, ref time.Time) float64 {
	days := ref.Sub(date).Hours() / 24

	switch {
	case days < 0:
		return 0.5
	case days < 1:
		return 1.0
	case days < 7:
		return 0.9 - 0.05*days
	case days < 30:
		return 0.6 - 0.01*(days-7)
	case days < 365:
		return 0.35 - 0.001*(days-30)
	default:
		s := 0.25 - 0.0001*(days-365)
		if s < 0.1 {
			return 0.1
		}
		return s
	}
}

// SamePeriod reports whether a and b fall in the same period at the given
// granularity. Exact means within 60 seconds; approximate and unknown mean
// within 14 days; the rest are calendar-period equality.
func SamePeriod(a, b time.Time, g Granularity) bool {
	switch g {
	case GranExact:
		return absDuration(a.Sub(b)) <= 60*time.Second
	case GranDay:
		ay, am, ad := a.Date()
		by, bm, bd := b.Date()
		return ay == by && am == bm && ad == bd
	case GranWeek:
		ay, aw := a.ISOWeek()
		by, bw := b.ISOWeek()
		return ay == by && aw == bw
	case GranMonth:
		return a.Year() == b.Year() && a.Month() == b.Month()
	case GranYear:
		return a.Year() == b.Year()
	default:
		return absDuration(a.Sub(b)) <= 14*24*time.Hour
	}
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}

// calendarDays counts whole calendar days from a to b.
func calendarDays(a, b time.Time) int {
	ad := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, a.Location())
	bd := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, b.Location())
	return int(bd.Sub(ad).Hours() / 24)
}

// FormatRelative renders a date as a human-readable offset from ref
// ("today", "3 days ago", "in 2 days"). Far-future dates fall back to an
// absolute date.
func FormatRelative(date, ref time.Time) string {
	if SamePeriod(date, ref, GranDay) {
		return "today"
	}

	// Future offsets count calendar days so a date early tomorrow, less
	// than 24 hours ahead, still reads "in 1 day" rather than "today".
	if date.After(ref) {
		ahead := calendarDays(ref, date)
		if ahead < 30 {
			if ahead <= 1 {
				return "in 1 day"
			}
			return fmt.Sprintf("in %d days", ahead)
		}
		return date.Format("Jan 2, 2006")
	}

	days := int(ref.Sub(date).Hours() / 24)

	switch {
	case days <= 1:
		return "1 day ago"
	case days < 7:
		return fmt.Sprintf("%d days ago", days)
	case days < 30:
		return fmt.Sprintf("%d weeks ago", days/7)
	case days < 365:
		return fmt.Sprintf("%d months ago", days/30)
	default:
		return fmt.Sprintf("%d years ago", days/365)
	}
}
