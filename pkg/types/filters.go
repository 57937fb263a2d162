package types

import (
	"strings"
	"time"
)

// DateRange is an inclusive time window.
type DateRange struct {
	Start time.Time `json:"start,omitempty"`
	End   time.Time `json:"end,omitempty"`
}

// TimelineFilters narrows an assembled timeline. All fields are optional
// and combined conjunctively: an event must pass every populated filter.
type TimelineFilters struct {
	// Kinds is an allow-list of kind strings.
	Kinds []string `json:"kinds,omitempty"`

	// DateRange bounds the event timestamp inclusively. A contradictory
	// range (Start after End) yields an empty result.
	DateRange *DateRange `json:"date_range,omitempty"`

	// Participants is an allow-list; an event passes if at least one of
	// its participants appears in the list (case-insensitive).
	Participants []string `json:"participants,omitempty"`

	// SearchQuery is matched case-insensitively as a substring against
	// the event's title, description, and participants.
	SearchQuery string `json:"search_query,omitempty"`
}

// Matches reports whether the event passes every populated filter.
// A nil filter set matches everything.
func (f *TimelineFilters) Matches(ev *TimelineEvent) bool {
	if f == nil {
		return true
	}

	if len(f.Kinds) > 0 {
		allowed := false
		for _, kind := range f.Kinds {
			if ev.Kind == kind {
				allowed = true
				break
			}
		}
		if !allowed {
			return false
		}
	}

	if f.DateRange != nil {
		// Contradictory ranges are defined to yield an empty result.
		if !f.DateRange.Start.IsZero() && !f.DateRange.End.IsZero() &&
			f.DateRange.Start.After(f.DateRange.End) {
			return false
		}
		if !f.DateRange.Start.IsZero() && ev.Timestamp.Before(f.DateRange.Start) {
			return false
		}
		if !f.DateRange.End.IsZero() && ev.Timestamp.After(f.DateRange.End) {
			return false
		}
	}

	if len(f.Participants) > 0 && !participantsIntersect(f.Participants, ev.Participants) {
		return false
	}

	if f.SearchQuery != "" {
		haystack := strings.ToLower(ev.Title + " " + ev.Description + " " + strings.Join(ev.Participants, " "))
		if !strings.Contains(haystack, strings.ToLower(f.SearchQuery)) {
			return false
		}
	}

	return true
}

// participantsIntersect reports whether the two participant lists share at
// least one identifier, ignoring case.
func participantsIntersect(want, have []string) bool {
	for _, w := range want {
		for _, h := range have {
			if strings.EqualFold(w, h) {
				return true
			}
		}
	}
	return false
}
