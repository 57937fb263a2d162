package timeline

import (
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/evercore/timeline/pkg/types"
)

func testRecord(id, kind string, created time.Time, data map[string]interface{}) *types.Record {
	return &types.Record{
		ID:          id,
		WorkspaceID: "ws-1",
		Type:        kind,
		CreatedAt:   created,
		Data:        data,
	}
}

func TestTransformEmail(t *testing.T) {
	created := time.Date(2026, 3, 10, 14, 30, 0, 0, time.UTC)
	record := testRecord("em-1", types.KindEmail, created, map[string]interface{}{
		"subject":   "Q2 renewal",
		"preview":   "Here is the renewal quote you asked for",
		"from":      "sales@vendor.com",
		"to":        []interface{}{"ana@acme.com", "cfo@acme.com"},
		"important": true,
		"sentAt":    "2026-03-10T14:25:00Z",
	})
	subject := &Subject{ID: "c-1", Type: types.KindContact, Email: "ana@acme.com"}

	ev := Transform(record, subject)

	if ev.ID != "em-1" || ev.Kind != types.KindEmail {
		t.Fatalf("unexpected identity: id=%q kind=%q", ev.ID, ev.Kind)
	}
	if ev.Module != "mail" {
		t.Errorf("module = %q, want mail", ev.Module)
	}
	if ev.Title != "Q2 renewal" {
		t.Errorf("title = %q", ev.Title)
	}
	if ev.Description != "Here is the renewal quote you asked for" {
		t.Errorf("description = %q", ev.Description)
	}
	want := []string{"sales@vendor.com", "ana@acme.com", "cfo@acme.com"}
	if !reflect.DeepEqual(ev.Participants, want) {
		t.Errorf("participants = %v, want %v", ev.Participants, want)
	}
	if ev.Icon != "mail" || ev.Color != "#3B82F6" {
		t.Errorf("presentation = %q/%q", ev.Icon, ev.Color)
	}
	if !ev.Timestamp.Equal(time.Date(2026, 3, 10, 14, 25, 0, 0, time.UTC)) {
		t.Errorf("timestamp = %v, want sentAt", ev.Timestamp)
	}
	if ev.Metadata["from"] != "sales@vendor.com" {
		t.Errorf("metadata from = %v", ev.Metadata["from"])
	}
	if ev.Metadata["direction"] != "sent" {
		t.Errorf("direction = %v, want sent", ev.Metadata["direction"])
	}
	if ev.Metadata["important"] != true {
		t.Errorf("important = %v", ev.Metadata["important"])
	}
	if ev.Metadata["entityType"] != types.KindEmail {
		t.Errorf("entityType = %v", ev.Metadata["entityType"])
	}
}

func TestTransformEmailFromSubjectIsReceived(t *testing.T) {
	record := testRecord("em-2", types.KindEmail, time.Now(), map[string]interface{}{
		"subject": "Re: Q2 renewal",
		"from":    "Ana@Acme.com",
	})
	subject := &Subject{ID: "c-1", Type: types.KindContact, Email: "ana@acme.com"}

	ev := Transform(record, subject)
	if ev.Metadata["direction"] != "received" {
		t.Errorf("direction = %v, want received", ev.Metadata["direction"])
	}
}

func TestTransformDeal(t *testing.T) {
	record := testRecord("d-1", types.KindDeal, time.Now(), map[string]interface{}{
		"name":  "Acme expansion",
		"value": 48000.0,
		"stage": "proposal",
		"owner": "rep@vendor.com",
	})

	ev := Transform(record, nil)
	if ev.Title != "Acme expansion" {
		t.Errorf("title = %q", ev.Title)
	}
	if ev.Metadata["value"] != 48000.0 {
		t.Errorf("value = %v", ev.Metadata["value"])
	}
	if ev.Metadata["stage"] != "proposal" {
		t.Errorf("stage = %v", ev.Metadata["stage"])
	}
	if ev.Icon != "briefcase" {
		t.Errorf("icon = %q", ev.Icon)
	}
}

func TestTransformInvoiceTitle(t *testing.T) {
	record := testRecord("inv-1", types.KindInvoice, time.Now(), map[string]interface{}{
		"number": "INV-0042",
		"amount": 1250.5,
		"status": "overdue",
	})

	ev := Transform(record, nil)
	if ev.Title != "Invoice INV-0042" {
		t.Errorf("title = %q", ev.Title)
	}
	if ev.Metadata["value"] != 1250.5 {
		t.Errorf("value = %v", ev.Metadata["value"])
	}
	if ev.Metadata["status"] != "overdue" {
		t.Errorf("status = %v", ev.Metadata["status"])
	}
}

func TestTransformUnknownKind(t *testing.T) {
	created := time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC)
	record := testRecord("wh-1", "future_webhook_event", created, map[string]interface{}{
		"eventName": "ping",
		"ts":        1767603600.0,
	})

	ev := Transform(record, nil)
	if ev.Title != "Future Webhook Event" {
		t.Errorf("title = %q, want title-cased kind", ev.Title)
	}
	if ev.Description == "" {
		t.Error("description should be built from key/value pairs")
	}
	if !strings.Contains(ev.Description, "eventName: ping") {
		t.Errorf("description = %q", ev.Description)
	}
	if ev.Module != types.ModuleUnknown {
		t.Errorf("module = %q, want unknown", ev.Module)
	}
	if ev.Icon != "activity" {
		t.Errorf("icon = %q, want generic fallback", ev.Icon)
	}
	if ev.Metadata["entityType"] != "future_webhook_event" {
		t.Errorf("entityType = %v", ev.Metadata["entityType"])
	}
}

func TestTransformUnknownKindIconKeyword(t *testing.T) {
	record := testRecord("sms-1", "sms_message", time.Now(), map[string]interface{}{
		"text": "see you at 3",
	})

	ev := Transform(record, nil)
	if ev.Icon != "message-circle" {
		t.Errorf("icon = %q, want keyword match", ev.Icon)
	}
	if ev.Description != "see you at 3" {
		t.Errorf("description = %q", ev.Description)
	}
}

func TestTransformTimestampFallsBackToCreatedAt(t *testing.T) {
	created := time.Date(2025, 11, 20, 8, 15, 0, 0, time.UTC)
	record := testRecord("n-1", types.KindNote, created, map[string]interface{}{
		"content": "left a voicemail",
	})

	ev := Transform(record, nil)
	if !ev.Timestamp.Equal(created) {
		t.Errorf("timestamp = %v, want createdAt %v", ev.Timestamp, created)
	}
}

func TestTransformEpochMillisTimestamp(t *testing.T) {
	record := testRecord("m-1", types.KindMessage, time.Now(), map[string]interface{}{
		"text":   "hi",
		"sentAt": 1767603600000.0,
	})

	ev := Transform(record, nil)
	want := time.UnixMilli(1767603600000).UTC()
	if !ev.Timestamp.Equal(want) {
		t.Errorf("timestamp = %v, want %v", ev.Timestamp, want)
	}
}

func TestTransformIsDeterministic(t *testing.T) {
	record := testRecord("wh-2", "sensor_reading", time.Now(), map[string]interface{}{
		"b": 2, "a": 1, "c": 3, "d": 4,
	})

	first := Transform(record, nil)
	for i := 0; i < 20; i++ {
		again := Transform(record, nil)
		if again.Title != first.Title || again.Description != first.Description {
			t.Fatalf("transform not deterministic: %q / %q vs %q / %q",
				again.Title, again.Description, first.Title, first.Description)
		}
	}
	if strings.Count(first.Description, ":") != 3 {
		t.Errorf("description should list 3 pairs, got %q", first.Description)
	}
}

func TestTruncateLongBody(t *testing.T) {
	record := testRecord("em-3", types.KindEmail, time.Now(), map[string]interface{}{
		"subject": "long one",
		"body":    strings.Repeat("x", 500),
	})

	ev := Transform(record, nil)
	if got := len([]rune(ev.Description)); got != maxDescriptionLen+1 {
		t.Errorf("description length = %d runes, want %d plus ellipsis", got, maxDescriptionLen)
	}
	if !strings.HasSuffix(ev.Description, "…") {
		t.Error("truncated description should end with ellipsis")
	}
}
