// Package types defines the core data structures for the timeline engine.
// These types represent stored business records, the normalized timeline
// events derived from them, and the summary metrics computed over assembled
// timelines.
package types

import "time"

// Record represents a stored business object (email, deal, contact, etc.)
// in the external entity store. Records are opaque to the engine beyond the
// fields declared here: the type tag drives event transformation, and the
// open Data/Metadata maps carry everything else.
type Record struct {
	// Core identification fields
	ID          string    `json:"id"`           // Unique identifier within the workspace
	WorkspaceID string    `json:"workspace_id"` // Tenant/workspace the record belongs to
	Type        string    `json:"type"`         // Record kind (e.g., "email", "deal", "contact")
	CreatedAt   time.Time `json:"created_at"`   // When the record was created in the store

	// Open payloads
	Data     map[string]interface{} `json:"data,omitempty"`     // Kind-specific fields
	Metadata map[string]interface{} `json:"metadata,omitempty"` // Arbitrary metadata (back-references, flags)
}

// DataString returns the string value stored under key in the record's Data
// map, or "" when the key is absent or not a string.
func (r *Record) DataString(key string) string {
	if r.Data == nil {
		return ""
	}
	if s, ok := r.Data[key].(string); ok {
		return s
	}
	return ""
}

// MetaString returns the string value stored under key in the record's
// Metadata map, or "" when the key is absent or not a string.
func (r *Record) MetaString(key string) string {
	if r.Metadata == nil {
		return ""
	}
	if s, ok := r.Metadata[key].(string); ok {
		return s
	}
	return ""
}
