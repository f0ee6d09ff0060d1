package temporal

import (
	"regexp"
	"sort"
	"strings"
	"time"
)

// relativePhrases is the fixed marker vocabulary, compounds before bare day
// names so "last monday" claims its span before "monday" can.
var relativePhrases = []string{
	"a few days ago", "a few weeks ago", "a few months ago",
	"last night", "last week", "last month", "last year",
	"next week", "next month", "next year",
	"this week", "this month", "this year",
	"yesterday", "tomorrow", "today", "recently",
}

var dayNames = []string{
	"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday",
}

var weekdayFor = map[string]time.Weekday{
	"monday": time.Monday, "tuesday": time.Tuesday, "wednesday": time.Wednesday,
	"thursday": time.Thursday, "friday": time.Friday, "saturday": time.Saturday,
	"sunday": time.Sunday,
}

// Tense indicators, checked in priority order: future, then past, then
// habitual. The categories overlap linguistically; the first matching
// category wins.
var (
	futureWords   = []string{"will", "going to", "tomorrow", "next"}
	pastWords     = []string{"yesterday", "ago", "was", "were", "went", "last", "did", "finished"}
	habitualWords = []string{"always", "usually", "every day", "every week", "every morning", "often"}
)

// Ongoing-state phrases win over point-in-time phrases.
var (
	ongoingPhrases = []string{"currently", "i've been", "i have been", "for a while", "these days", "nowadays"}
	pointPhrases   = []string{"yesterday", "went", "was", "were", "visited", "ago", "finished", "last week"}
)

var (
	monthNameDateRe = regexp.MustCompile(`\b(january|february|march|april|may|june|july|august|september|october|november|december)\s+(\d{1,2})(?:st|nd|rd|th)?(?:,?\s+(\d{4}))?`)
	numericDateRe   = regexp.MustCompile(`\b(\d{1,2})/(\d{1,2})(?:/(\d{2,4}))?\b`)
)

var monthFor = map[string]time.Month{
	"january": time.January, "february": time.February, "march": time.March,
	"april": time.April, "may": time.May, "june": time.June, "july": time.July,
	"august": time.August, "september": time.September, "october": time.October,
	"november": time.November, "december": time.December,
}

// Extract parses temporal references out of content relative to ref.
// Deterministic for the same content and reference date.
func Extract(content string, ref time.Time) Info {
	lower := strings.ToLower(content)

	info := Info{
		StorageTime: ref,
		Granularity: GranUnknown,
		Markers:     scanMarkers(lower),
	}

	info.Type = classifyType(lower)
	info.Ongoing = classifyOngoing(lower)

	// Explicit dates (month-name or M/D[/Y]) take priority over relative
	// markers, then each marker is tried in scan order; first success wins.
	if t, ok := parseExplicitDate(lower, ref); ok {
		info.EventTime = &t
		info.Granularity = GranDay
		return info
	}

	for _, m := range info.Markers {
		if t, g, ok := resolveMarker(m, ref); ok {
			info.EventTime = &t
			info.Granularity = g
			return info
		}
	}

	return info
}

// scanMarkers collects every vocabulary match in content order. A span claimed
// by a longer phrase is not re-reported by a shorter one inside it.
func scanMarkers(lower string) []string {
	type span struct {
		pos    int
		phrase string
	}

	var spans []span
	claimed := make([][2]int, 0, 4)

	overlaps := func(start, end int) bool {
		for _, c := range claimed {
			if start < c[1] && end > c[0] {
				return true
			}
		}
		return false
	}

	vocab := make([]string, 0, len(relativePhrases)+3*len(dayNames))
	vocab = append(vocab, relativePhrases...)
	for _, d := range dayNames {
		vocab = append(vocab, "last "+d, "next "+d)
	}
	vocab = append(vocab, dayNames...)

	for _, phrase := range vocab {
		for _, pos := range wordMatches(lower, phrase) {
			end := pos + len(phrase)
			if overlaps(pos, end) {
				continue
			}
			claimed = append(claimed, [2]int{pos, end})
			spans = append(spans, span{pos: pos, phrase: phrase})
		}
	}

	sort.Slice(spans, func(i, j int) bool { return spans[i].pos < spans[j].pos })

	markers := make([]string, len(spans))
	for i, s := range spans {
		markers[i] = s.phrase
	}
	return markers
}

// wordMatches returns every index where phrase occurs in s bounded by
// non-alphanumeric characters (or the string edges).
func wordMatches(s, phrase string) []int {
	var matches []int
	from := 0
	for {
		i := strings.Index(s[from:], phrase)
		if i < 0 {
			return matches
		}
		pos := from + i
		end := pos + len(phrase)
		if boundaryAt(s, pos-1) && boundaryAt(s, end) {
			matches = append(matches, pos)
		}
		from = pos + 1
	}
}

func boundaryAt(s string, i int) bool {
	if i < 0 || i >= len(s) {
		return true
	}
	c := s[i]
	return !(c >= 'a' && c <= 'z') && !(c >= '0' && c <= '9')
}

func containsWord(lower, w string) bool {
	if strings.ContainsRune(w, ' ') {
		return strings.Contains(lower, w)
	}
	return len(wordMatches(lower, w)) > 0
}

func containsAnyWord(lower string, words []string) bool {
	for _, w := range words {
		if containsWord(lower, w) {
			return true
		}
	}
	return false
}

func classifyType(lower string) Type {
	switch {
	case containsAnyWord(lower, futureWords):
		return TypeFuture
	case containsAnyWord(lower, pastWords):
		return TypePast
	case containsAnyWord(lower, habitualWords):
		return TypeHabitual
	default:
		return TypePresent
	}
}

func classifyOngoing(lower string) bool {
	if containsAnyWord(lower, ongoingPhrases) {
		return true
	}
	if containsAnyWord(lower, pointPhrases) {
		return false
	}
	return containsWord(lower, "i am") || containsWord(lower, "i'm")
}

// parseExplicitDate attempts month-name ("march 5, 2024") and numeric
// ("3/5/24") date forms. A missing year defaults to the reference year;
// two-digit years are read as 2000+Y.
func parseExplicitDate(lower string, ref time.Time) (time.Time, bool) {
	if m := monthNameDateRe.FindStringSubmatch(lower); m != nil {
		month := monthFor[m[1]]
		day := atoi(m[2])
		year := ref.Year()
		if m[3] != "" {
			year = atoi(m[3])
		}
		if day >= 1 && day <= 31 {
			return time.Date(year, month, day, 0, 0, 0, 0, ref.Location()), true
		}
	}

	if m := numericDateRe.FindStringSubmatch(lower); m != nil {
		month := atoi(m[1])
		day := atoi(m[2])
		year := ref.Year()
		if m[3] != "" {
			year = atoi(m[3])
			if year < 100 {
				year += 2000
			}
		}
		if month >= 1 && month <= 12 && day >= 1 && day <= 31 {
			return time.Date(year, time.Month(month), day, 0, 0, 0, 0, ref.Location()), true
		}
	}

	return time.Time{}, false
}

func atoi(s string) int {
	n := 0
	for i := 0; i < len(s); i++ {
		n = n*10 + int(s[i]-'0')
	}
	return n
}

// resolveMarker maps a recognized marker to an event time via fixed offsets
// from the reference date.
func resolveMarker(marker string, ref time.Time) (time.Time, Granularity, bool) {
	switch marker {
	case "today":
		return startOfDay(ref), GranDay, true
	case "yesterday", "last night":
		return ref.AddDate(0, 0, -1), GranDay, true
	case "tomorrow":
		return ref.AddDate(0, 0, 1), GranDay, true
	case "last week":
		return ref.AddDate(0, 0, -7), GranWeek, true
	case "next week":
		return ref.AddDate(0, 0, 7), GranWeek, true
	case "last month":
		return ref.AddDate(0, -1, 0), GranMonth, true
	case "next month":
		return ref.AddDate(0, 1, 0), GranMonth, true
	case "last year":
		return ref.AddDate(-1, 0, 0), GranYear, true
	case "next year":
		return ref.AddDate(1, 0, 0), GranYear, true
	case "this week":
		return ref, GranWeek, true
	case "this month":
		return ref, GranMonth, true
	case "this year":
		return ref, GranYear, true
	case "a few days ago":
		return ref.AddDate(0, 0, -3), GranApproximate, true
	case "a few weeks ago":
		return ref.AddDate(0, 0, -14), GranApproximate, true
	case "a few months ago":
		return ref.AddDate(0, -2, 0), GranApproximate, true
	case "recently":
		return ref.AddDate(0, 0, -2), GranApproximate, true
	}

	// Day-of-week markers: bare and "last" resolve to the nearest previous
	// occurrence, "next" to the nearest next occurrence.
	name := marker
	forward := false
	if rest, ok := strings.CutPrefix(marker, "last "); ok {
		name = rest
	} else if rest, ok := strings.CutPrefix(marker, "next "); ok {
		name = rest
		forward = true
	}

	wd, ok := weekdayFor[name]
	if !ok {
		return time.Time{}, GranUnknown, false
	}

	if forward {
		return nextWeekday(ref, wd), GranDay, true
	}
	return prevWeekday(ref, wd), GranDay, true
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func prevWeekday(ref time.Time, wd time.Weekday) time.Time {
	t := ref.AddDate(0, 0, -1)
	for t.Weekday() != wd {
		t = t.AddDate(0, 0, -1)
	}
	return t
}

func nextWeekday(ref time.Time, wd time.Weekday) time.Time {
	t := ref.AddDate(0, 0, 1)
	for t.Weekday() != wd {
		t = t.AddDate(0, 0, 1)
	}
	return t
}
