package audit

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event is one append-only audit trail row. Details is free-form JSON
// describing what changed.
type Event struct {
	ID         uuid.UUID  `db:"id" json:"id"`
	ActorID    *uuid.UUID `db:"actor_id" json:"actor_id,omitempty"`
	Action     string     `db:"action" json:"action"`
	EntityType string     `db:"entity_type" json:"entity_type"`
	EntityID   *uuid.UUID `db:"entity_id" json:"entity_id,omitempty"`
	Details    json.RawMessage `db:"details" json:"details,omitempty"`
	CreatedAt  time.Time  `db:"created_at" json:"created_at"`
}

// Filter narrows audit event listings.
type Filter struct {
	Action     string
	EntityType string
	EntityID   *uuid.UUID
	Limit      int
	Offset     int
}
