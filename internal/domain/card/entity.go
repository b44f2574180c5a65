package card

import (
	"time"

	"github.com/google/uuid"
)

// Status represents card status
type Status string

const (
	StatusActive  Status = "active"
	StatusBlocked Status = "blocked"
)

// TxType defines supported ledger transaction types.
type TxType string

const (
	TxTypeDeposit    TxType = "deposit"
	TxTypeWithdraw   TxType = "withdraw"
	TxTypeBonus      TxType = "bonus"
	TxTypeAdjustment TxType = "adjustment"
)

// Card is a member's point-bearing loyalty account. Points never go below
// zero; TierLevel is always derived from Points via the tier table.
type Card struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Number    string    `db:"number" json:"number"`
	MemberID  uuid.UUID `db:"member_id" json:"member_id"`
	Points    int64     `db:"points" json:"points"`
	TierLevel int       `db:"tier_level" json:"tier_level"`
	Status    Status    `db:"status" json:"status"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// IsBlocked returns true if the card cannot be used
func (c *Card) IsBlocked() bool {
	return c.Status == StatusBlocked
}

// Transaction is an append-only ledger row recording one signed point
// change. The sum of deltas for a card always equals its balance.
type Transaction struct {
	ID          uuid.UUID  `db:"id" json:"id"`
	CardID      uuid.UUID  `db:"card_id" json:"card_id"`
	Type        TxType     `db:"type" json:"type"`
	PointsDelta int64      `db:"points_delta" json:"points_delta"`
	Description string     `db:"description" json:"description"`
	SessionID   *uuid.UUID `db:"session_id" json:"session_id,omitempty"`
	PromoCodeID *uuid.UUID `db:"promo_code_id" json:"promo_code_id,omitempty"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
}

// Entry describes the ledger row written alongside a balance mutation.
type Entry struct {
	Type        TxType
	Description string
	SessionID   *uuid.UUID
	PromoCodeID *uuid.UUID
}
