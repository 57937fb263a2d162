package types

import (
	"testing"
	"time"
)

func testEvent() *TimelineEvent {
	return &TimelineEvent{
		ID:           "rec-1",
		Kind:         KindEmail,
		Module:       "mail",
		Timestamp:    time.Date(2026, 3, 15, 10, 30, 0, 0, time.UTC),
		Title:        "Quarterly review",
		Description:  "Agenda attached",
		Participants: []string{"a@x.com", "b@x.com"},
	}
}

func TestFilters_NilMatchesEverything(t *testing.T) {
	var f *TimelineFilters
	if !f.Matches(testEvent()) {
		t.Error("nil filters should match any event")
	}
}

func TestFilters_Kinds(t *testing.T) {
	ev := testEvent()

	if !(&TimelineFilters{Kinds: []string{KindEmail, KindCall}}).Matches(ev) {
		t.Error("kind in allow-list should match")
	}
	if (&TimelineFilters{Kinds: []string{KindCall}}).Matches(ev) {
		t.Error("kind outside allow-list should not match")
	}
}

func TestFilters_DateRange(t *testing.T) {
	ev := testEvent()
	day := 24 * time.Hour

	cases := []struct {
		name  string
		start time.Time
		end   time.Time
		want  bool
	}{
		{"inside", ev.Timestamp.Add(-day), ev.Timestamp.Add(day), true},
		{"start boundary inclusive", ev.Timestamp, ev.Timestamp.Add(day), true},
		{"end boundary inclusive", ev.Timestamp.Add(-day), ev.Timestamp, true},
		{"before range", ev.Timestamp.Add(day), ev.Timestamp.Add(2 * day), false},
		{"after range", ev.Timestamp.Add(-2 * day), ev.Timestamp.Add(-day), false},
		{"contradictory range", ev.Timestamp.Add(day), ev.Timestamp.Add(-day), false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := &TimelineFilters{DateRange: &DateRange{Start: tc.start, End: tc.end}}
			if got := f.Matches(ev); got != tc.want {
				t.Errorf("Matches() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestFilters_Participants(t *testing.T) {
	ev := testEvent()

	if !(&TimelineFilters{Participants: []string{"A@X.COM"}}).Matches(ev) {
		t.Error("participant intersection should be case-insensitive")
	}
	if (&TimelineFilters{Participants: []string{"c@x.com"}}).Matches(ev) {
		t.Error("disjoint participants should not match")
	}
}

func TestFilters_SearchQuery(t *testing.T) {
	ev := testEvent()

	cases := []struct {
		query string
		want  bool
	}{
		{"quarterly", true}, // title, case-insensitive
		{"AGENDA", true},    // description
		{"b@x.com", true},   // participants
		{"missing", false},
	}

	for _, tc := range cases {
		f := &TimelineFilters{SearchQuery: tc.query}
		if got := f.Matches(ev); got != tc.want {
			t.Errorf("Matches(query=%q) = %v, want %v", tc.query, got, tc.want)
		}
	}
}

func TestFilters_Conjunction(t *testing.T) {
	ev := testEvent()

	// All filters populated and passing.
	f := &TimelineFilters{
		Kinds:        []string{KindEmail},
		DateRange:    &DateRange{Start: ev.Timestamp.Add(-time.Hour), End: ev.Timestamp.Add(time.Hour)},
		Participants: []string{"a@x.com"},
		SearchQuery:  "review",
	}
	if !f.Matches(ev) {
		t.Error("all passing filters should match")
	}

	// One failing filter rejects the event regardless of the others.
	f.Kinds = []string{KindCall}
	if f.Matches(ev) {
		t.Error("a single failing filter should reject the event")
	}
}
