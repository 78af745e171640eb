package domain

import (
	"encoding/json"
	"time"
)

// Action verbs and entity type tags are open string enums: handlers outside
// this core attach their own values, so only non-emptiness is validated.
const (
	ActionCreate = "create"
	ActionUpdate = "update"
	ActionDelete = "delete"
	ActionView   = "view"
	ActionTopUp  = "topup"
	ActionLogin  = "login"
)

const (
	EntityUniversityCard = "university_card"
	EntityStudent        = "student"
	EntityOrder          = "order"
)

// NewActivity is the write-side input to the audit sink. Details holds an
// arbitrary JSON-shaped object; it is serialized to a string at insert time.
type NewActivity struct {
	UserID     string
	Action     string
	EntityType string
	EntityID   string
	Details    any
	IPAddress  string
}

// Validate enforces the malformed-write policy: actor, action and entity
// type are required, everything else is optional.
func (a NewActivity) Validate() error {
	if a.UserID == "" || a.Action == "" || a.EntityType == "" {
		return ErrInvalidField
	}
	return nil
}

// ActivityEntry is an immutable audit fact. Entries are append-only: once
// written they are never mutated or deleted. On read, Details carries the
// stored string decoded back to JSON; text that fails to decode is returned
// as a JSON string value instead of failing the query.
type ActivityEntry struct {
	ID         string
	UserID     string
	Action     string
	EntityType string
	EntityID   string
	Details    json.RawMessage
	IPAddress  string
	CreatedAt  time.Time
}

// EntityActivityEntry joins an entry with the actor's display name for the
// per-entity history view.
type EntityActivityEntry struct {
	ActivityEntry
	UserName string
}

// CardActivityEntry enriches a card-scoped entry with actor and card-holder
// context for the filtered administrative view.
type CardActivityEntry struct {
	ActivityEntry
	UserName   string
	UserRole   string
	CardNumber string
	HolderName string
}

// ActivityFilter narrows the card-focused activity view. Zero-valued fields
// impose no constraint; populated fields combine with logical AND.
type ActivityFilter struct {
	UserID string
	Start  time.Time
	End    time.Time
	Action string
	Limit  int
	Offset int
}

// DecodeDetails maps a stored detail string to its JSON form: valid JSON
// passes through structurally, anything else is wrapped as a JSON string.
func DecodeDetails(stored string) json.RawMessage {
	if stored == "" {
		return nil
	}
	raw := json.RawMessage(stored)
	if json.Valid(raw) {
		return raw
	}
	quoted, err := json.Marshal(stored)
	if err != nil {
		return nil
	}
	return quoted
}
