package audit

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/gamevault/loyalty-api/internal/middleware"
)

// Recorder writes audit events. It satisfies the Auditor interfaces the
// domain services declare. Failures are logged and swallowed; auditing never
// fails a business operation.
type Recorder struct {
	repo Repository
}

// NewRecorder creates a new audit recorder
func NewRecorder(repo Repository) *Recorder {
	return &Recorder{repo: repo}
}

// Record appends one audit event. When actorID is nil the staff id is taken
// from the request context, if present.
func (r *Recorder) Record(ctx context.Context, action string, actorID *uuid.UUID, entityType string, entityID uuid.UUID, details map[string]interface{}) {
	if actorID == nil {
		if staffID := middleware.GetStaffID(ctx); staffID != uuid.Nil {
			actorID = &staffID
		}
	}

	var raw json.RawMessage
	if details != nil {
		b, err := json.Marshal(details)
		if err != nil {
			log.Warn().Err(err).Str("action", action).Msg("audit details not serializable")
		} else {
			raw = b
		}
	}

	eid := entityID
	event := &Event{
		ID:         uuid.New(),
		ActorID:    actorID,
		Action:     action,
		EntityType: entityType,
		EntityID:   &eid,
		Details:    raw,
		CreatedAt:  time.Now(),
	}

	if err := r.repo.Insert(ctx, event); err != nil {
		log.Error().Err(err).Str("action", action).Str("entity_type", entityType).Msg("audit event insert failed")
	}
}
