// Package timeline implements the timeline aggregation and engagement
// analytics engine. It resolves the records related to a subject entity
// (contact, company, or deal), normalizes each one into a TimelineEvent,
// injects synthetic lifecycle events, and reduces assembled timelines into
// summary metrics.
//
// The engine is request-scoped and stateless between calls: it owns no
// cache and never writes to the entity store.
package timeline

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/evercore/timeline/pkg/types"
)

// Subject identifies the entity whose timeline is being assembled. The
// transformer uses it for context-dependent derivations (e.g. email
// direction); everything else on the event depends only on the record.
type Subject struct {
	ID    string
	Type  string
	Email string
	Name  string
}

// maxDescriptionLen caps derived descriptions.
const maxDescriptionLen = 200

// handlerFunc fills the kind-specific parts of an event from its record.
// The base fields (id, kind, module, timestamp, metadata skeleton) are set
// before dispatch.
type handlerFunc func(record *types.Record, subject *Subject, ev *types.TimelineEvent)

// kindHandlers maps record kinds to their transformers. Kinds outside the
// table go through transformGeneric; the dispatch never fails, so a new
// record kind introduced by another subsystem degrades gracefully instead
// of dropping events.
var kindHandlers = map[string]handlerFunc{
	types.KindEmail:          transformEmail,
	types.KindMessage:        transformMessage,
	types.KindCalendarEvent:  transformMeeting,
	types.KindMeeting:        transformMeeting,
	types.KindTask:           transformTask,
	types.KindDeal:           transformDeal,
	types.KindNote:           transformNote,
	types.KindCall:           transformCall,
	types.KindInvoice:        transformInvoice,
	types.KindPayment:        transformPayment,
	types.KindTicket:         transformTicket,
	types.KindSupportTicket:  transformTicket,
	types.KindDocument:       transformDocument,
	types.KindContract:       transformDocument,
	types.KindCampaign:       transformCampaign,
	types.KindFormSubmission: transformFormSubmission,
}

// Transform converts one raw record into a normalized TimelineEvent.
// It always produces exactly one event for a well-formed record, whatever
// the record's type tag.
func Transform(record *types.Record, subject *Subject) types.TimelineEvent {
	ev := types.TimelineEvent{
		ID:        record.ID,
		Kind:      record.Type,
		Module:    types.ModuleForKind(record.Type),
		Timestamp: eventTime(record),
		Metadata:  baseMetadata(record),
	}

	handler, ok := kindHandlers[record.Type]
	if !ok {
		handler = transformGeneric
	}
	handler(record, subject, &ev)

	return ev
}

// baseMetadata seeds the event metadata with the record's own metadata
// plus the always-present entityType key.
func baseMetadata(record *types.Record) map[string]interface{} {
	metadata := make(map[string]interface{}, len(record.Metadata)+1)
	for k, v := range record.Metadata {
		metadata[k] = v
	}
	metadata["entityType"] = record.Type
	return metadata
}

// -----------------------------------------------------------------------
// Kind-specific transformers
// -----------------------------------------------------------------------

func transformEmail(record *types.Record, subject *Subject, ev *types.TimelineEvent) {
	ev.Title = firstString(record.Data, "subject")
	if ev.Title == "" {
		ev.Title = "Email"
	}

	ev.Description = firstString(record.Data, "preview", "snippet")
	if ev.Description == "" {
		ev.Description = truncate(firstString(record.Data, "body"), maxDescriptionLen)
	}

	ev.Participants = collectParticipants(record.Data, "from", "to", "cc")
	ev.Icon, ev.Color = "mail", "#3B82F6"

	if from := firstAddress(record.Data["from"]); from != "" {
		ev.Metadata["from"] = from
		if subject != nil && subject.Email != "" {
			if strings.EqualFold(from, subject.Email) {
				ev.Metadata["direction"] = "received"
			} else {
				ev.Metadata["direction"] = "sent"
			}
		}
	}
	if important, ok := record.Data["important"].(bool); ok && important {
		ev.Metadata["important"] = true
	}
}

func transformMessage(record *types.Record, subject *Subject, ev *types.TimelineEvent) {
	ev.Title = firstString(record.Data, "subject", "channel")
	if ev.Title == "" {
		ev.Title = "Message"
	}

	ev.Description = truncate(firstString(record.Data, "text", "content", "body"), maxDescriptionLen)
	ev.Participants = collectParticipants(record.Data, "from", "to", "participants")
	ev.Icon, ev.Color = "message-circle", "#8B5CF6"

	if sentiment := firstString(record.Data, "sentiment"); sentiment != "" {
		ev.Metadata["sentiment"] = sentiment
	}
}

func transformMeeting(record *types.Record, subject *Subject, ev *types.TimelineEvent) {
	ev.Title = firstString(record.Data, "title", "summary", "subject")
	if ev.Title == "" {
		ev.Title = "Meeting"
	}

	ev.Description = truncate(firstString(record.Data, "description", "agenda"), maxDescriptionLen)
	ev.Participants = collectParticipants(record.Data, "organizer", "attendees")
	ev.Icon, ev.Color = "calendar", "#F59E0B"

	if location := firstString(record.Data, "location"); location != "" {
		ev.Metadata["location"] = location
	}
}

func transformTask(record *types.Record, subject *Subject, ev *types.TimelineEvent) {
	ev.Title = firstString(record.Data, "title", "name")
	if ev.Title == "" {
		ev.Title = "Task"
	}

	ev.Description = truncate(firstString(record.Data, "description", "notes"), maxDescriptionLen)
	ev.Participants = collectParticipants(record.Data, "assignee", "assignees")
	ev.Icon, ev.Color = "check-square", "#10B981"

	if status := firstString(record.Data, "status"); status != "" {
		ev.Metadata["status"] = status
	}
}

func transformDeal(record *types.Record, subject *Subject, ev *types.TimelineEvent) {
	ev.Title = firstString(record.Data, "name", "title")
	if ev.Title == "" {
		ev.Title = "Deal"
	}

	ev.Description = truncate(firstString(record.Data, "description"), maxDescriptionLen)
	ev.Participants = collectParticipants(record.Data, "owner")
	ev.Icon, ev.Color = "briefcase", "#6366F1"

	if value, ok := numberValue(record.Data, "value", "amount"); ok {
		ev.Metadata["value"] = value
	}
	if stage := firstString(record.Data, "stage"); stage != "" {
		ev.Metadata["stage"] = stage
	}
}

func transformNote(record *types.Record, subject *Subject, ev *types.TimelineEvent) {
	ev.Title = firstString(record.Data, "title", "subject")
	if ev.Title == "" {
		ev.Title = "Note"
	}

	ev.Description = truncate(firstString(record.Data, "content", "body", "text"), maxDescriptionLen)
	ev.Participants = collectParticipants(record.Data, "author")
	ev.Icon, ev.Color = "file-text", "#64748B"
}

func transformCall(record *types.Record, subject *Subject, ev *types.TimelineEvent) {
	ev.Title = firstString(record.Data, "subject", "title")
	if ev.Title == "" {
		ev.Title = "Call"
	}

	ev.Description = truncate(firstString(record.Data, "notes", "summary", "transcript"), maxDescriptionLen)
	ev.Participants = collectParticipants(record.Data, "from", "to", "participants")
	ev.Icon, ev.Color = "phone", "#14B8A6"

	if duration, ok := numberValue(record.Data, "duration"); ok {
		ev.Metadata["duration"] = duration
	}
	if outcome := firstString(record.Data, "outcome"); outcome != "" {
		ev.Metadata["outcome"] = outcome
	}
}

func transformInvoice(record *types.Record, subject *Subject, ev *types.TimelineEvent) {
	if number := firstString(record.Data, "number", "invoiceNumber"); number != "" {
		ev.Title = "Invoice " + number
	} else {
		ev.Title = "Invoice"
	}

	ev.Description = truncate(firstString(record.Data, "description", "memo"), maxDescriptionLen)
	ev.Icon, ev.Color = "receipt", "#F97316"

	if amount, ok := numberValue(record.Data, "amount", "total"); ok {
		ev.Metadata["value"] = amount
	}
	if status := firstString(record.Data, "status"); status != "" {
		ev.Metadata["status"] = status
	}
}

func transformPayment(record *types.Record, subject *Subject, ev *types.TimelineEvent) {
	ev.Title = firstString(record.Data, "description")
	if ev.Title == "" {
		ev.Title = "Payment"
	}

	ev.Icon, ev.Color = "credit-card", "#22C55E"

	if amount, ok := numberValue(record.Data, "amount"); ok {
		ev.Metadata["value"] = amount
	}
	if method := firstString(record.Data, "method"); method != "" {
		ev.Metadata["method"] = method
	}
}

func transformTicket(record *types.Record, subject *Subject, ev *types.TimelineEvent) {
	ev.Title = firstString(record.Data, "subject", "title")
	if ev.Title == "" {
		ev.Title = "Support ticket"
	}

	ev.Description = truncate(firstString(record.Data, "description", "lastMessage"), maxDescriptionLen)
	ev.Participants = collectParticipants(record.Data, "requester", "assignee")
	ev.Icon, ev.Color = "life-buoy", "#EF4444"

	if status := firstString(record.Data, "status"); status != "" {
		ev.Metadata["status"] = status
	}
	if priority := firstString(record.Data, "priority"); priority != "" {
		ev.Metadata["priority"] = priority
	}
}

func transformDocument(record *types.Record, subject *Subject, ev *types.TimelineEvent) {
	ev.Title = firstString(record.Data, "name", "title", "filename")
	if ev.Title == "" {
		ev.Title = types.TitleCaseKind(record.Type)
	}

	ev.Description = truncate(firstString(record.Data, "description"), maxDescriptionLen)
	ev.Icon, ev.Color = "file", "#0EA5E9"

	if status := firstString(record.Data, "status"); status != "" {
		ev.Metadata["status"] = status
	}
}

func transformCampaign(record *types.Record, subject *Subject, ev *types.TimelineEvent) {
	ev.Title = firstString(record.Data, "name", "title")
	if ev.Title == "" {
		ev.Title = "Campaign"
	}

	ev.Description = truncate(firstString(record.Data, "description", "subject"), maxDescriptionLen)
	ev.Icon, ev.Color = "megaphone", "#EC4899"

	if channel := firstString(record.Data, "channel"); channel != "" {
		ev.Metadata["channel"] = channel
	}
	if status := firstString(record.Data, "status"); status != "" {
		ev.Metadata["status"] = status
	}
}

func transformFormSubmission(record *types.Record, subject *Subject, ev *types.TimelineEvent) {
	if form := firstString(record.Data, "formName", "form"); form != "" {
		ev.Title = form + " submission"
	} else {
		ev.Title = "Form submission"
	}

	ev.Description = truncate(firstString(record.Data, "message", "comment"), maxDescriptionLen)
	ev.Participants = collectParticipants(record.Data, "email")
	ev.Icon, ev.Color = "clipboard", "#A855F7"
	ev.Metadata["source"] = "form"
}

// -----------------------------------------------------------------------
// Generic fallback
// -----------------------------------------------------------------------

// Field name candidates scanned, in order, by the generic fallback path.
var (
	genericTitleFields       = []string{"title", "name", "subject", "summary", "label"}
	genericDescFields        = []string{"description", "content", "body", "text", "message", "notes"}
	genericParticipantFields = []string{"participants", "users", "attendees", "members", "contacts", "people"}
)

// iconKeywords maps kind substrings to presentation hints for kinds the
// transformer has never seen. First match wins.
var iconKeywords = []struct {
	keyword string
	icon    string
	color   string
}{
	{"email", "mail", "#3B82F6"},
	{"mail", "mail", "#3B82F6"},
	{"message", "message-circle", "#8B5CF6"},
	{"chat", "message-circle", "#8B5CF6"},
	{"call", "phone", "#14B8A6"},
	{"phone", "phone", "#14B8A6"},
	{"meet", "calendar", "#F59E0B"},
	{"calendar", "calendar", "#F59E0B"},
	{"event", "calendar", "#F59E0B"},
	{"task", "check-square", "#10B981"},
	{"todo", "check-square", "#10B981"},
	{"deal", "briefcase", "#6366F1"},
	{"opportunity", "briefcase", "#6366F1"},
	{"invoice", "receipt", "#F97316"},
	{"payment", "credit-card", "#22C55E"},
	{"billing", "receipt", "#F97316"},
	{"ticket", "life-buoy", "#EF4444"},
	{"support", "life-buoy", "#EF4444"},
	{"doc", "file", "#0EA5E9"},
	{"file", "file", "#0EA5E9"},
	{"contract", "file", "#0EA5E9"},
	{"campaign", "megaphone", "#EC4899"},
	{"form", "clipboard", "#A855F7"},
}

// transformGeneric is the guaranteed default handler: it never drops a
// record, however unfamiliar its kind.
func transformGeneric(record *types.Record, subject *Subject, ev *types.TimelineEvent) {
	ev.Title = firstString(record.Data, genericTitleFields...)
	if ev.Title == "" {
		ev.Title = types.TitleCaseKind(record.Type)
	}

	ev.Description = truncate(firstString(record.Data, genericDescFields...), maxDescriptionLen)
	if ev.Description == "" {
		ev.Description = summarizePairs(record.Data)
	}

	ev.Participants = collectParticipants(record.Data, genericParticipantFields...)
	ev.Icon, ev.Color = fallbackIcon(record.Type)
}

// fallbackIcon picks presentation hints for an unknown kind by substring
// matching against the keyword table.
func fallbackIcon(kind string) (string, string) {
	lowered := strings.ToLower(kind)
	for _, entry := range iconKeywords {
		if strings.Contains(lowered, entry.keyword) {
			return entry.icon, entry.color
		}
	}
	return "activity", "#94A3B8"
}

// summarizePairs renders up to 3 key/value pairs from the record's data,
// in sorted key order for determinism, truncated to maxDescriptionLen.
func summarizePairs(data map[string]interface{}) string {
	if len(data) == 0 {
		return ""
	}

	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	if len(keys) > 3 {
		keys = keys[:3]
	}

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+": "+stringify(data[k]))
	}
	return truncate(strings.Join(pairs, ", "), maxDescriptionLen)
}

// -----------------------------------------------------------------------
// Timestamp resolution
// -----------------------------------------------------------------------

// kindTimeFields lists per-kind event-time fields checked before the
// generic candidates. The record's creation time is the final fallback,
// so an event timestamp is always resolvable.
var kindTimeFields = map[string][]string{
	types.KindEmail:         {"sentAt", "receivedAt", "date"},
	types.KindMessage:       {"sentAt"},
	types.KindCalendarEvent: {"startTime", "start", "scheduledAt"},
	types.KindMeeting:       {"startTime", "start", "scheduledAt"},
	types.KindCall:          {"startedAt"},
	types.KindPayment:       {"paidAt"},
	types.KindInvoice:       {"issuedAt"},
}

var genericTimeFields = []string{"timestamp", "occurredAt", "date"}

// eventTime resolves when the record's event occurred.
func eventTime(record *types.Record) time.Time {
	for _, field := range kindTimeFields[record.Type] {
		if ts, ok := parseTimeValue(record.Data[field]); ok {
			return ts
		}
	}
	for _, field := range genericTimeFields {
		if ts, ok := parseTimeValue(record.Data[field]); ok {
			return ts
		}
	}
	return record.CreatedAt
}

// parseTimeValue interprets the time encodings a JSON-backed store can
// hold: time.Time values, RFC3339-ish strings, and epoch numbers (seconds,
// or milliseconds when implausibly large for seconds).
func parseTimeValue(v interface{}) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, true
	case string:
		for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"} {
			if ts, err := time.Parse(layout, t); err == nil {
				return ts, true
			}
		}
		return time.Time{}, false
	case float64:
		return epochToTime(t), true
	case int64:
		return epochToTime(float64(t)), true
	case int:
		return epochToTime(float64(t)), true
	default:
		return time.Time{}, false
	}
}

func epochToTime(epoch float64) time.Time {
	if epoch > 1e12 { // milliseconds
		return time.UnixMilli(int64(epoch)).UTC()
	}
	return time.Unix(int64(epoch), 0).UTC()
}

// -----------------------------------------------------------------------
// Field extraction helpers
// -----------------------------------------------------------------------

// firstString returns the first present, non-empty field value among the
// candidates, stringified when scalar but not a string.
func firstString(data map[string]interface{}, keys ...string) string {
	for _, key := range keys {
		value, ok := data[key]
		if !ok || value == nil {
			continue
		}
		if s := scalarString(value); s != "" {
			return s
		}
	}
	return ""
}

// collectParticipants flattens the named fields into a single identifier
// list, accepting scalars and sequences, and filtering empty values.
func collectParticipants(data map[string]interface{}, keys ...string) []string {
	participants := make([]string, 0)
	for _, key := range keys {
		participants = append(participants, gatherStrings(data[key])...)
	}
	if len(participants) == 0 {
		return nil
	}
	return participants
}

// gatherStrings flattens a scalar-or-sequence value into strings.
func gatherStrings(v interface{}) []string {
	switch value := v.(type) {
	case nil:
		return nil
	case string:
		if value == "" {
			return nil
		}
		return []string{value}
	case []string:
		out := make([]string, 0, len(value))
		for _, s := range value {
			if s != "" {
				out = append(out, s)
			}
		}
		return out
	case []interface{}:
		out := make([]string, 0, len(value))
		for _, item := range value {
			if s := scalarString(item); s != "" {
				out = append(out, s)
			}
		}
		return out
	default:
		if s := scalarString(v); s != "" {
			return []string{s}
		}
		return nil
	}
}

// firstAddress returns the first identifier from a scalar-or-sequence
// field value.
func firstAddress(v interface{}) string {
	addresses := gatherStrings(v)
	if len(addresses) == 0 {
		return ""
	}
	return addresses[0]
}

// numberValue returns the first numeric field among the candidates.
func numberValue(data map[string]interface{}, keys ...string) (float64, bool) {
	for _, key := range keys {
		switch n := data[key].(type) {
		case float64:
			return n, true
		case float32:
			return float64(n), true
		case int:
			return float64(n), true
		case int64:
			return float64(n), true
		}
	}
	return 0, false
}

// scalarString stringifies scalar values; composites yield "".
func scalarString(v interface{}) string {
	switch value := v.(type) {
	case string:
		return value
	case bool:
		return strconv.FormatBool(value)
	case float64:
		return strconv.FormatFloat(value, 'f', -1, 64)
	case int:
		return strconv.Itoa(value)
	case int64:
		return strconv.FormatInt(value, 10)
	case time.Time:
		return value.Format(time.RFC3339)
	default:
		return ""
	}
}

// stringify renders any value for display in fallback descriptions.
func stringify(v interface{}) string {
	if s := scalarString(v); s != "" {
		return s
	}
	if v == nil {
		return "null"
	}
	return fmt.Sprintf("%v", v)
}

// truncate shortens s to at most n runes, appending an ellipsis when
// anything was cut.
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "…"
}
