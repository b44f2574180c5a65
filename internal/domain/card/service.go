package card

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/gamevault/loyalty-api/internal/domain/tier"
	"github.com/gamevault/loyalty-api/internal/pkg/lock"
)

// Service is the card account engine. It owns every point-balance mutation:
// staff add/deduct, session accrual credits and promo bonuses all come
// through here or through ApplyDeltaTx on the repository, never through
// direct writes to the cards table.
type Service struct {
	repo    Repository
	tiers   *tier.Table
	locker  lock.Locker
	auditor Auditor
}

// NewService creates a new card service. auditor may be nil.
func NewService(repo Repository, tiers *tier.Table, locker lock.Locker, auditor Auditor) *Service {
	return &Service{repo: repo, tiers: tiers, locker: locker, auditor: auditor}
}

// IssueCard creates a card for a member with zero points and the lowest tier.
func (s *Service) IssueCard(ctx context.Context, memberID uuid.UUID, number string) (*Card, error) {
	now := time.Now()
	c := &Card{
		ID:        uuid.New(),
		Number:    number,
		MemberID:  memberID,
		Points:    0,
		TierLevel: s.tiers.Lowest().Level,
		Status:    StatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, err
	}

	s.audit(ctx, "card.issued", nil, c.ID, map[string]interface{}{"number": c.Number, "member_id": c.MemberID})
	log.Info().Str("card_id", c.ID.String()).Str("number", c.Number).Msg("card issued")
	return c, nil
}

// AddPoints credits points to a card and appends a deposit transaction.
func (s *Service) AddPoints(ctx context.Context, cardID uuid.UUID, amount int64, description string) (*Card, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	return s.apply(ctx, cardID, amount, Entry{Type: TxTypeDeposit, Description: description})
}

// DeductPoints debits points from a card and appends a withdraw transaction.
// The balance check and the decrement happen in one atomic step; the balance
// can never go negative. A tier downgrade after a deduction is expected.
func (s *Service) DeductPoints(ctx context.Context, cardID uuid.UUID, amount int64, description string) (*Card, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	return s.apply(ctx, cardID, -amount, Entry{Type: TxTypeWithdraw, Description: description})
}

// apply serializes on the card and applies the signed delta.
func (s *Service) apply(ctx context.Context, cardID uuid.UUID, delta int64, entry Entry) (*Card, error) {
	release, err := s.locker.Acquire(ctx, cardID.String())
	if err != nil {
		return nil, err
	}
	defer release()

	c, err := s.repo.ApplyDelta(ctx, cardID, delta, entry)
	if err != nil {
		return nil, err
	}

	action := "card.points_added"
	if delta < 0 {
		action = "card.points_deducted"
	}
	s.audit(ctx, action, nil, c.ID, map[string]interface{}{
		"delta":       delta,
		"points":      c.Points,
		"tier_level":  c.TierLevel,
		"description": entry.Description,
	})
	log.Info().
		Str("card_id", c.ID.String()).
		Int64("delta", delta).
		Int64("points", c.Points).
		Int("tier_level", c.TierLevel).
		Msg("card balance updated")
	return c, nil
}

// RecomputeTier re-derives the tier from the current balance and persists it
// only when it differs. Idempotent; intended for administrative repair, the
// regular mutation path recomputes tiers itself.
func (s *Service) RecomputeTier(ctx context.Context, cardID uuid.UUID) (*Card, error) {
	release, err := s.locker.Acquire(ctx, cardID.String())
	if err != nil {
		return nil, err
	}
	defer release()

	c, err := s.repo.GetByID(ctx, cardID)
	if err != nil {
		return nil, err
	}

	t, err := s.tiers.TierForPoints(c.Points)
	if err != nil {
		return nil, err
	}
	if t.Level == c.TierLevel {
		return c, nil
	}

	if err := s.repo.SetTierLevel(ctx, cardID, t.Level); err != nil {
		return nil, err
	}
	c.TierLevel = t.Level

	s.audit(ctx, "card.tier_recomputed", nil, c.ID, map[string]interface{}{"tier_level": t.Level})
	log.Info().Str("card_id", c.ID.String()).Int("tier_level", t.Level).Msg("card tier repaired")
	return c, nil
}

// Block stops all future sessions for the card. Balance mutations initiated
// by staff remain possible so refunds can still be processed.
func (s *Service) Block(ctx context.Context, cardID uuid.UUID) error {
	if err := s.repo.SetStatus(ctx, cardID, StatusBlocked); err != nil {
		return err
	}
	s.audit(ctx, "card.blocked", nil, cardID, nil)
	log.Info().Str("card_id", cardID.String()).Msg("card blocked")
	return nil
}

// Unblock reactivates a blocked card.
func (s *Service) Unblock(ctx context.Context, cardID uuid.UUID) error {
	if err := s.repo.SetStatus(ctx, cardID, StatusActive); err != nil {
		return err
	}
	s.audit(ctx, "card.unblocked", nil, cardID, nil)
	log.Info().Str("card_id", cardID.String()).Msg("card unblocked")
	return nil
}

// GetCard returns a card by id
func (s *Service) GetCard(ctx context.Context, cardID uuid.UUID) (*Card, error) {
	return s.repo.GetByID(ctx, cardID)
}

// GetByNumber returns a card by its external number
func (s *Service) GetByNumber(ctx context.Context, number string) (*Card, error) {
	return s.repo.GetByNumber(ctx, number)
}

// ListTransactions returns the card's ledger page plus the total row count
func (s *Service) ListTransactions(ctx context.Context, cardID uuid.UUID, limit, offset int) ([]Transaction, int, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	if _, err := s.repo.GetByID(ctx, cardID); err != nil {
		return nil, 0, err
	}

	txs, err := s.repo.ListTransactions(ctx, cardID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.repo.CountTransactions(ctx, cardID)
	if err != nil {
		return nil, 0, err
	}
	return txs, total, nil
}

func (s *Service) audit(ctx context.Context, action string, actorID *uuid.UUID, entityID uuid.UUID, details map[string]interface{}) {
	if s.auditor == nil {
		return
	}
	s.auditor.Record(ctx, action, actorID, "card", entityID, details)
}
