package temporal

import (
	"math"
	"testing"
	"time"
)

func TestRecencyScore(t *testing.T) {
	ref := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	cases := []struct {
		name string
		date time.Time
		want float64
	}{
		{"same instant", ref, 1.0},
		{"twelve hours", ref.Add(-12 * time.Hour), 1.0},
		{"three days", ref.Add(-3 * 24 * time.Hour), 0.75},
		{"ten days", ref.Add(-10 * 24 * time.Hour), 0.57},
		{"hundred days", ref.Add(-100 * 24 * time.Hour), 0.28},
		{"four hundred days", ref.Add(-400 * 24 * time.Hour), 0.2465},
		{"floor", ref.Add(-3000 * 24 * time.Hour), 0.1},
		{"future", ref.Add(24 * time.Hour), 0.5},
	}

	for _, tc := range cases {
		if got := RecencyScore(tc.date, ref); math.Abs(got-tc.want) > 1e-9 {
			t.Errorf("%s: score = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestRecencyScoreBounds(t *testing.T) {
	ref := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	for d := 0; d < 4000; d += 13 {
		got := RecencyScore(ref.Add(-time.Duration(d)*24*time.Hour), ref)
		if got <= 0 || got > 1.0 {
			t.Fatalf("day %d: score %v outside (0, 1.0]", d, got)
		}
	}
}

func TestSamePeriod(t *testing.T) {
	base := time.Date(2024, 3, 19, 12, 0, 0, 0, time.UTC)

	cases := []struct {
		name string
		a, b time.Time
		g    Granularity
		want bool
	}{
		{"exact within minute", base, base.Add(30 * time.Second), GranExact, true},
		{"exact beyond minute", base, base.Add(90 * time.Second), GranExact, false},
		{"same day", base, base.Add(8 * time.Hour), GranDay, true},
		{"different day", base, base.Add(24 * time.Hour), GranDay, false},
		{"same iso week", time.Date(2024, 3, 18, 0, 0, 0, 0, time.UTC), time.Date(2024, 3, 24, 0, 0, 0, 0, time.UTC), GranWeek, true},
		{"next iso week", time.Date(2024, 3, 18, 0, 0, 0, 0, time.UTC), time.Date(2024, 3, 25, 0, 0, 0, 0, time.UTC), GranWeek, false},
		{"same month", base, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), GranMonth, true},
		{"different month", base, time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC), GranMonth, false},
		{"same year", base, time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC), GranYear, true},
		{"different year", base, time.Date(2023, 3, 19, 0, 0, 0, 0, time.UTC), GranYear, false},
		{"approximate near", base, base.Add(10 * 24 * time.Hour), GranApproximate, true},
		{"approximate far", base, base.Add(20 * 24 * time.Hour), GranApproximate, false},
		{"unknown near", base, base.Add(-5 * 24 * time.Hour), GranUnknown, true},
	}

	for _, tc := range cases {
		if got := SamePeriod(tc.a, tc.b, tc.g); got != tc.want {
			t.Errorf("%s: SamePeriod = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestFormatRelative(t *testing.T) {
	ref := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

	cases := []struct {
		name string
		date time.Time
		want string
	}{
		{"today", ref.Add(-2 * time.Hour), "today"},
		{"one day", ref.Add(-24 * time.Hour), "1 day ago"},
		{"days", ref.Add(-3 * 24 * time.Hour), "3 days ago"},
		{"weeks", ref.Add(-14 * 24 * time.Hour), "2 weeks ago"},
		{"months", ref.Add(-60 * 24 * time.Hour), "2 months ago"},
		{"years", ref.Add(-800 * 24 * time.Hour), "2 years ago"},
		{"near future", ref.Add(3 * 24 * time.Hour), "in 3 days"},
		{"tomorrow", ref.Add(24 * time.Hour), "in 1 day"},
		// Next calendar day, under 24 hours ahead.
		{"early tomorrow", time.Date(2024, 6, 16, 8, 0, 0, 0, time.UTC), "in 1 day"},
		{"late yesterday", time.Date(2024, 6, 14, 23, 0, 0, 0, time.UTC), "1 day ago"},
		{"far future", ref.Add(60 * 24 * time.Hour), "Aug 14, 2024"},
	}

	for _, tc := range cases {
		if got := FormatRelative(tc.date, ref); got != tc.want {
			t.Errorf("%s: FormatRelative = %q, want %q", tc.name, got, tc.want)
		}
	}
}
