package v1

import (
	"fmt"
	"time"
)

// Event is the atomic unit of the system: one behavioral fact emitted by the
// storefront (a page view, a cart action, a completed order, ...).
// Raw events are the single source of truth; every rollup is derived from them.
type Event struct {
	// ID is the unique immutable identifier of the event.
	// Client-supplied when the producer wants retry idempotency,
	// server-generated (uuid) otherwise.
	ID string `json:"id"`

	// UserID is the authenticated identity that produced the event, if any.
	// It is the only mutable field: identity stitching sets it on events that
	// were recorded under an AnonymousID before the actor logged in.
	UserID string `json:"user_id,omitempty"`

	// AnonymousID is the client-generated pseudo-identity for pre-login
	// activity. At least one of UserID/AnonymousID is present in practice;
	// system events may carry neither and simply skip identity-keyed rollups.
	AnonymousID string `json:"anonymous_id,omitempty"`

	// Name is the event kind, e.g. "page_viewed", "cart_item_added",
	// "order_completed". It selects which rollup definitions apply.
	Name string `json:"name"`

	// Properties is the open, schema-less payload specific to Name.
	// Deliberately never validated against a schema: new event shapes must
	// not require a migration. Rollup definitions defensively type-check the
	// fields they read.
	Properties map[string]interface{} `json:"properties,omitempty"`

	// OccurredAt is the event timestamp (client clock, millisecond
	// precision). It is the sole ordering and bucketing key.
	OccurredAt time.Time `json:"occurred_at"`

	// IngestedAt is when the server received the event.
	IngestedAt time.Time `json:"ingested_at"`

	// IngestSeq is a monotonic sequence number assigned by the database
	// (BIGSERIAL). Internal; not exposed in the public API.
	IngestSeq int64 `json:"-"`
}

// Actor id prefixes. The activeUsers rollup keys buckets by prefixed actor id
// so authenticated-only counts can filter on the "user:" prefix.
const (
	ActorPrefixUser = "user:"
	ActorPrefixAnon = "anon:"
)

// ActorID returns the prefixed identity of the event's actor, preferring the
// authenticated id. Empty string means the event has no actor.
func (e *Event) ActorID() string {
	if e.UserID != "" {
		return ActorPrefixUser + e.UserID
	}
	if e.AnonymousID != "" {
		return ActorPrefixAnon + e.AnonymousID
	}
	return ""
}

// Day returns the event's UTC day bucket in YYYY-MM-DD form.
func (e *Event) Day() string {
	return e.OccurredAt.UTC().Format("2006-01-02")
}

// Validate ensures the event has all required attributes.
func (e *Event) Validate() error {
	if e.ID == "" {
		return fmt.Errorf("id is required")
	}

	if e.Name == "" {
		return fmt.Errorf("name is required")
	}

	if e.OccurredAt.IsZero() {
		return fmt.Errorf("occurred_at is required")
	}

	return nil
}
