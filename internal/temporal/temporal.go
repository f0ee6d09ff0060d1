// Package temporal extracts structured time references from natural-language
// memory content. Extraction is pattern-based: a fixed vocabulary of relative
// phrases plus a couple of explicit date formats, not a full date/time
// grammar. Unparsable content degrades to an unknown granularity rather than
// an error.
package temporal

import "time"

// Granularity is the precision of a resolved event time.
type Granularity string

const (
	GranExact       Granularity = "exact"
	GranDay         Granularity = "day"
	GranWeek        Granularity = "week"
	GranMonth       Granularity = "month"
	GranYear        Granularity = "year"
	GranApproximate Granularity = "approximate"
	GranUnknown     Granularity = "unknown"
)

// Type classifies the tense of a statement.
type Type string

const (
	TypePast     Type = "past"
	TypePresent  Type = "present"
	TypeFuture   Type = "future"
	TypeHabitual Type = "habitual"
)

// Info is the structured temporal metadata attached to a memory.
type Info struct {
	StorageTime time.Time   `json:"storage_time"`
	EventTime   *time.Time  `json:"event_time,omitempty"`
	Granularity Granularity `json:"granularity"`
	Ongoing     bool        `json:"ongoing"`
	Markers     []string    `json:"markers,omitempty"`
	Type        Type        `json:"type"`
}
