package types

import "time"

// RelatedEntity is a cross-reference from a timeline event to another
// business entity. Not populated by the default transformation path;
// reserved for transformers that can resolve their record's neighbours.
type RelatedEntity struct {
	Type string `json:"type"`
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}

// TimelineEvent is the normalized representation of a single business
// record (or synthetic lifecycle moment) on an entity's timeline.
// Events are immutable value objects: the assembler builds them once and
// never mutates them afterwards.
type TimelineEvent struct {
	// ID is stable and matches the originating record's ID, which makes it
	// usable as a deduplication key. Synthetic events derive their ID from
	// the subject entity's ID plus a fixed suffix.
	ID string `json:"id"`

	// Kind is the original record's type tag. It is deliberately an open
	// string rather than an enum: unknown kinds introduced by future
	// subsystems still produce events through the generic fallback path.
	Kind string `json:"kind"`

	// Module is the origin subsystem inferred from Kind via a static
	// lookup table; "unknown" when no mapping exists.
	Module string `json:"module"`

	// Timestamp is when the event occurred. Always resolvable: records
	// without an explicit event time use their creation time.
	Timestamp time.Time `json:"timestamp"`

	Title       string `json:"title"`
	Description string `json:"description,omitempty"`

	// Participants are identifiers (email addresses, user IDs) involved in
	// the event, in extraction order.
	Participants []string `json:"participants,omitempty"`

	// Icon and Color are presentation hints. They carry no business
	// meaning but are deterministic per kind.
	Icon  string `json:"icon"`
	Color string `json:"color"`

	// Metadata always includes "entityType" (the record's kind); per-kind
	// transformers add extra keys such as "value", "stage", "sentiment",
	// "important", or "source". Pre-existing record metadata is preserved.
	Metadata map[string]interface{} `json:"metadata,omitempty"`

	RelatedEntities []RelatedEntity `json:"related_entities,omitempty"`
}
