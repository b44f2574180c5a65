package card

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines the persistence operations of the card account engine.
// ApplyDelta is the only way a balance changes: implementations must perform
// the balance check, the update, the tier recomputation and the ledger append
// as one atomic step under a per-card row lock.
type Repository interface {
	// Create inserts a freshly issued card
	Create(ctx context.Context, c *Card) error

	// GetByID returns a card by id, ErrCardNotFound if absent
	GetByID(ctx context.Context, id uuid.UUID) (*Card, error)

	// GetByNumber returns a card by its external number
	GetByNumber(ctx context.Context, number string) (*Card, error)

	// ApplyDelta atomically applies a signed point delta, appends the ledger
	// entry and recomputes the tier. Returns ErrInsufficientBalance when the
	// delta would take the balance below zero.
	ApplyDelta(ctx context.Context, cardID uuid.UUID, delta int64, entry Entry) (*Card, error)

	// SetTierLevel persists a repaired tier level
	SetTierLevel(ctx context.Context, cardID uuid.UUID, level int) error

	// SetStatus updates the card status
	SetStatus(ctx context.Context, cardID uuid.UUID, status Status) error

	// ListTransactions returns the card's ledger, newest first
	ListTransactions(ctx context.Context, cardID uuid.UUID, limit, offset int) ([]Transaction, error)

	// CountTransactions returns the total number of ledger rows for a card
	CountTransactions(ctx context.Context, cardID uuid.UUID) (int, error)
}

// Auditor records structured audit events after successful mutations.
// A nil Auditor disables auditing.
type Auditor interface {
	Record(ctx context.Context, action string, actorID *uuid.UUID, entityType string, entityID uuid.UUID, details map[string]interface{})
}
