package timeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/evercore/timeline/internal/storage"
	"github.com/evercore/timeline/pkg/types"
)

// DefaultAnalysisWindowDays is the analysis window used when the caller
// doesn't specify one.
const DefaultAnalysisWindowDays = 90

// defaultResponseHours is reported when no response pairs exist.
const defaultResponseHours = 24

// defaultContactHour anchors the best-time-to-contact label when the
// timeline holds no events: standard business-morning hours.
const defaultContactHour = 9

// GetActivitySummary assembles the entity's timeline and reduces it to
// activity statistics over the most recent days-long window. A missing
// entity yields a default-valued summary, not an error.
func (s *Service) GetActivitySummary(ctx context.Context, workspaceID, entityID string, days int) (*types.ActivitySummary, error) {
	if days <= 0 {
		days = DefaultAnalysisWindowDays
	}

	entity, err := s.store.FindByID(ctx, workspaceID, entityID)
	if errors.Is(err, storage.ErrNotFound) {
		return &types.ActivitySummary{ByKind: map[string]int{}, Trend: types.TrendStable}, nil
	}
	if err != nil {
		return nil, err
	}

	events, err := s.timelineByKind(ctx, workspaceID, entity)
	if err != nil {
		return nil, err
	}

	summary := SummarizeActivity(events, days, s.now())

	// nextScheduled comes from an independent forward-looking query, not
	// from the assembled events.
	next, err := s.nextScheduledMeeting(ctx, workspaceID, entity)
	if err != nil {
		return nil, err
	}
	summary.NextScheduled = next

	return &summary, nil
}

// GetEngagementInsights assembles the entity's timeline and reduces it to
// engagement metrics. A missing entity yields the dormant default summary,
// not an error.
func (s *Service) GetEngagementInsights(ctx context.Context, workspaceID, entityID string) (*types.EngagementSummary, error) {
	entity, err := s.store.FindByID(ctx, workspaceID, entityID)
	if errors.Is(err, storage.ErrNotFound) {
		summary := ComputeEngagement(nil, "", s.now())
		return &summary, nil
	}
	if err != nil {
		return nil, err
	}

	events, err := s.timelineByKind(ctx, workspaceID, entity)
	if err != nil {
		return nil, err
	}

	summary := ComputeEngagement(events, entity.DataString("email"), s.now())
	return &summary, nil
}

// SummarizeActivity reduces a timeline to counts and a trend over the
// window ending at now. The trend splits the window at its temporal
// midpoint: more than a 20% count increase in the second half classifies
// as increasing, below 80% as decreasing, anything between as stable.
func SummarizeActivity(events []types.TimelineEvent, windowDays int, now time.Time) types.ActivitySummary {
	if windowDays <= 0 {
		windowDays = DefaultAnalysisWindowDays
	}
	windowStart := now.Add(-time.Duration(windowDays) * 24 * time.Hour)
	midpoint := now.Add(-time.Duration(windowDays) * 12 * time.Hour)

	summary := types.ActivitySummary{ByKind: map[string]int{}}

	var firstHalf, secondHalf int
	var last time.Time
	for i := range events {
		ts := events[i].Timestamp
		if ts.Before(windowStart) || ts.After(now) {
			continue
		}

		summary.TotalActivities++
		summary.ByKind[events[i].Kind]++
		if ts.After(last) {
			last = ts
		}

		if ts.Before(midpoint) {
			firstHalf++
		} else {
			secondHalf++
		}
	}

	switch {
	case float64(secondHalf) > float64(firstHalf)*1.2:
		summary.Trend = types.TrendIncreasing
	case float64(secondHalf) < float64(firstHalf)*0.8:
		summary.Trend = types.TrendDecreasing
	default:
		summary.Trend = types.TrendStable
	}

	if !last.IsZero() {
		summary.LastActivity = &last
	}
	return summary
}

// ComputeEngagement reduces a timeline to the engagement summary for the
// subject identified by subjectEmail. Email attribution compares the
// event's originating address against subjectEmail.
func ComputeEngagement(events []types.TimelineEvent, subjectEmail string, now time.Time) types.EngagementSummary {
	summary := types.EngagementSummary{
		EngagementLevel:      types.EngagementDormant,
		DaysSinceLastContact: types.NoContactSentinel,
		PreferredChannel:     types.KindEmail,
		BestTimeToContact:    hourWindow(defaultContactHour),
		AverageResponseTime:  defaultResponseHours,
	}
	if len(events) == 0 {
		return summary
	}

	last := events[0].Timestamp
	for i := range events {
		if events[i].Timestamp.After(last) {
			last = events[i].Timestamp
		}
	}

	days := int(now.Sub(last).Hours() / 24)
	if days < 0 {
		days = 0
	}
	summary.DaysSinceLastContact = days
	summary.EngagementLevel = engagementTier(days)
	summary.PreferredChannel = preferredChannel(events)
	summary.BestTimeToContact = bestContactHour(events)
	summary.ResponseRate = responseRate(events, subjectEmail)
	summary.AverageResponseTime = averageResponseHours(events, subjectEmail)
	return summary
}

// engagementTier is the recency step function over whole days.
func engagementTier(daysSince int) types.EngagementLevel {
	switch {
	case daysSince <= 7:
		return types.EngagementHot
	case daysSince <= 30:
		return types.EngagementWarm
	case daysSince <= 90:
		return types.EngagementCold
	default:
		return types.EngagementDormant
	}
}

// preferredChannel returns the kind with the highest event count; ties
// break in favour of the kind encountered first.
func preferredChannel(events []types.TimelineEvent) string {
	counts := make(map[string]int)
	firstSeen := make(map[string]int)

	for i := range events {
		kind := events[i].Kind
		counts[kind]++
		if _, ok := firstSeen[kind]; !ok {
			firstSeen[kind] = i
		}
	}

	best := ""
	for kind, count := range counts {
		if best == "" ||
			count > counts[best] ||
			(count == counts[best] && firstSeen[kind] < firstSeen[best]) {
			best = kind
		}
	}
	return best
}

// bestContactHour returns the one-hour window label of the most frequent
// event hour-of-day; ties break toward the earlier hour.
func bestContactHour(events []types.TimelineEvent) string {
	var histogram [24]int
	for i := range events {
		histogram[events[i].Timestamp.Hour()]++
	}

	best := 0
	for hour := 1; hour < 24; hour++ {
		if histogram[hour] > histogram[best] {
			best = hour
		}
	}
	return hourWindow(best)
}

func hourWindow(hour int) string {
	return fmt.Sprintf("%d:00 - %d:00", hour, hour+1)
}

// eventFromSubject reports whether the email event is attributed to the
// subject, i.e. originated from the subject's address.
func eventFromSubject(ev *types.TimelineEvent, subjectEmail string) bool {
	if subjectEmail == "" || ev.Metadata == nil {
		return false
	}
	from, _ := ev.Metadata["from"].(string)
	return from != "" && strings.EqualFold(from, subjectEmail)
}

// responseRate is defined only over email events: events not attributed
// to the subject divided by events attributed to the subject, times 100.
// Zero when the subject authored no email events.
func responseRate(events []types.TimelineEvent, subjectEmail string) float64 {
	var fromSubject, toSubject int
	for i := range events {
		if events[i].Kind != types.KindEmail {
			continue
		}
		if eventFromSubject(&events[i], subjectEmail) {
			fromSubject++
		} else {
			toSubject++
		}
	}

	if fromSubject == 0 {
		return 0
	}
	return float64(toSubject) / float64(fromSubject) * 100
}

// averageResponseHours pairs each subject-authored email with the nearest
// preceding non-subject email while walking the timeline newest-first,
// and averages the gaps in hours. Defaults to defaultResponseHours when
// no pairs exist.
func averageResponseHours(events []types.TimelineEvent, subjectEmail string) float64 {
	var totalHours float64
	var pairs int

	var pendingReply *types.TimelineEvent
	for i := range events {
		ev := &events[i]
		if ev.Kind != types.KindEmail {
			continue
		}

		if eventFromSubject(ev, subjectEmail) {
			pendingReply = ev
			continue
		}

		if pendingReply != nil {
			gap := pendingReply.Timestamp.Sub(ev.Timestamp).Hours()
			if gap >= 0 {
				totalHours += gap
				pairs++
			}
			pendingReply = nil
		}
	}

	if pairs == 0 {
		return defaultResponseHours
	}
	return totalHours / float64(pairs)
}

// nextScheduledMeeting finds the start time of the nearest future
// calendar-type record that references the entity.
func (s *Service) nextScheduledMeeting(ctx context.Context, workspaceID string, entity *types.Record) (*time.Time, error) {
	mention := mentionQuery(workspaceID, entity)

	query := storage.Query{
		WorkspaceID: workspaceID,
		Where: append([]storage.Predicate{{Or: []storage.Predicate{
			{Field: "type", Op: storage.OpEqual, Value: types.KindCalendarEvent},
			{Field: "type", Op: storage.OpEqual, Value: types.KindMeeting},
		}}}, mention.Where...),
		Limit: mentionSearchLimit,
	}

	candidates, err := s.store.Find(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query upcoming meetings for %s: %w", entity.ID, err)
	}

	now := s.now()
	var next *time.Time
	for _, record := range candidates {
		start := eventTime(record)
		if !start.After(now) {
			continue
		}
		if next == nil || start.Before(*next) {
			ts := start
			next = &ts
		}
	}
	return next, nil
}
