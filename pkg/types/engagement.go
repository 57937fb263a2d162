package types

import "time"

// EngagementLevel classifies how recently a contact was active.
type EngagementLevel string

// Engagement tier constants. The tier is a step function of days since the
// most recent event: ≤7 hot, ≤30 warm, ≤90 cold, otherwise dormant.
const (
	EngagementHot     EngagementLevel = "hot"
	EngagementWarm    EngagementLevel = "warm"
	EngagementCold    EngagementLevel = "cold"
	EngagementDormant EngagementLevel = "dormant"
)

// NoContactSentinel is the DaysSinceLastContact value reported when the
// analyzed timeline contains no events at all.
const NoContactSentinel = 999

// Trend direction constants for activity summaries.
const (
	TrendIncreasing = "increasing"
	TrendDecreasing = "decreasing"
	TrendStable     = "stable"
)

// EngagementSummary holds derived engagement metrics for a subject entity.
type EngagementSummary struct {
	// EngagementLevel is the recency tier (hot/warm/cold/dormant).
	EngagementLevel EngagementLevel `json:"engagement_level"`

	// DaysSinceLastContact is the whole number of days since the most
	// recent event; NoContactSentinel when there are no events.
	DaysSinceLastContact int `json:"days_since_last_contact"`

	// PreferredChannel is the kind with the highest event count in the
	// analyzed window. Ties break by encounter order.
	PreferredChannel string `json:"preferred_channel"`

	// BestTimeToContact is a one-hour window label derived from the most
	// frequent event hour-of-day (e.g. "9:00 - 10:00").
	BestTimeToContact string `json:"best_time_to_contact"`

	// ResponseRate is a percentage defined only over email events:
	// events not attributed to the subject divided by events attributed
	// to the subject, times 100. Zero when the subject authored nothing.
	ResponseRate float64 `json:"response_rate"`

	// AverageResponseTime is the mean response latency in hours between
	// inbound email events and the subject's next reply; 24 when no
	// response pairs exist.
	AverageResponseTime float64 `json:"average_response_time"`
}

// ActivitySummary holds aggregate activity statistics over a time window.
type ActivitySummary struct {
	TotalActivities int            `json:"total_activities"`
	ByKind          map[string]int `json:"by_kind"`

	// Trend compares event counts in the two halves of the window, split
	// at its temporal midpoint: increasing when the second half exceeds
	// the first by more than 20%, decreasing when below 80%, else stable.
	Trend string `json:"trend"`

	// LastActivity is the timestamp of the most recent in-window event.
	LastActivity *time.Time `json:"last_activity,omitempty"`

	// NextScheduled is the start time of the nearest future calendar-type
	// record, looked up independently of the summarized events.
	NextScheduled *time.Time `json:"next_scheduled,omitempty"`
}
