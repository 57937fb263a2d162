package types

import "strings"

// Record kind constants for the kinds the transformer knows natively.
// The set is open: any other string is still a valid kind and goes through
// the generic fallback path.
const (
	KindContact        = "contact"
	KindCompany        = "company"
	KindEmail          = "email"
	KindMessage        = "message"
	KindCalendarEvent  = "calendar_event"
	KindMeeting        = "meeting"
	KindTask           = "task"
	KindDeal           = "deal"
	KindNote           = "note"
	KindCall           = "call"
	KindInvoice        = "invoice"
	KindPayment        = "payment"
	KindTicket         = "ticket"
	KindSupportTicket  = "support_ticket"
	KindDocument       = "document"
	KindContract       = "contract"
	KindCampaign       = "campaign"
	KindFormSubmission = "form_submission"
)

// Synthetic event kinds injected by the assembler rather than derived from
// stored records.
const (
	KindContactCreated  = "contact_created"
	KindContactEnriched = "contact_enriched"
	KindDealCreated     = "deal_created"
	KindDealChange      = "deal_change"
)

// ModuleUnknown is returned by ModuleForKind for unmapped kinds.
const ModuleUnknown = "unknown"

// moduleByKind maps a record kind to its presumed origin subsystem.
var moduleByKind = map[string]string{
	KindContact:        "crm",
	KindCompany:        "crm",
	KindEmail:          "mail",
	KindMessage:        "chat",
	KindCalendarEvent:  "calendar",
	KindMeeting:        "calendar",
	KindTask:           "tasks",
	KindDeal:           "crm",
	KindNote:           "crm",
	KindCall:           "crm",
	KindInvoice:        "billing",
	KindPayment:        "billing",
	KindTicket:         "support",
	KindSupportTicket:  "support",
	KindDocument:       "documents",
	KindContract:       "documents",
	KindCampaign:       "marketing",
	KindFormSubmission: "forms",

	KindContactCreated:  "crm",
	KindContactEnriched: "crm",
	KindDealCreated:     "crm",
	KindDealChange:      "crm",
}

// ModuleForKind returns the origin subsystem for a record kind.
// It is a pure function of its input and returns ModuleUnknown for any
// kind without a mapping.
func ModuleForKind(kind string) string {
	if module, ok := moduleByKind[kind]; ok {
		return module
	}
	return ModuleUnknown
}

// TitleCaseKind converts a kind string into a human-readable label:
// underscores become spaces and each word is capitalized
// (e.g. "future_webhook_event" → "Future Webhook Event").
func TitleCaseKind(kind string) string {
	words := strings.Split(strings.ReplaceAll(kind, "_", " "), " ")
	for i, word := range words {
		if word == "" {
			continue
		}
		words[i] = strings.ToUpper(word[:1]) + word[1:]
	}
	return strings.Join(words, " ")
}
