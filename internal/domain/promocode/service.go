package promocode

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/gamevault/loyalty-api/internal/domain/card"
	"github.com/gamevault/loyalty-api/internal/pkg/lock"
)

// CardDirectory is the card lookup the redemption engine needs up front.
type CardDirectory interface {
	GetByID(ctx context.Context, id uuid.UUID) (*card.Card, error)
}

// Auditor records structured audit events. A nil Auditor disables auditing.
type Auditor interface {
	Record(ctx context.Context, action string, actorID *uuid.UUID, entityType string, entityID uuid.UUID, details map[string]interface{})
}

// Service is the promo-code redemption engine plus the admin surface for
// managing promotions and codes.
type Service struct {
	repo    Repository
	cards   CardDirectory
	locker  lock.Locker
	auditor Auditor

	now func() time.Time // swapped in tests
}

// NewService creates a new promocode service. auditor may be nil.
func NewService(repo Repository, cards CardDirectory, locker lock.Locker, auditor Auditor) *Service {
	return &Service{
		repo:    repo,
		cards:   cards,
		locker:  locker,
		auditor: auditor,
		now:     time.Now,
	}
}

// Redeem applies a promo code to a card. The card is serialized for the
// duration so the redemption cannot interleave with other balance mutations.
func (s *Service) Redeem(ctx context.Context, code string, cardID uuid.UUID) (*RedemptionResult, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, ErrCodeNotFound
	}

	c, err := s.cards.GetByID(ctx, cardID)
	if err != nil {
		return nil, err
	}
	if c.IsBlocked() {
		return nil, card.ErrCardBlocked
	}

	release, err := s.locker.Acquire(ctx, cardID.String())
	if err != nil {
		return nil, err
	}
	defer release()

	result, err := s.repo.Redeem(ctx, code, cardID, s.now())
	if err != nil {
		return nil, err
	}

	s.audit(ctx, "promocode.redeemed", result.CodeID, map[string]interface{}{
		"code":             result.Code,
		"card_id":          cardID,
		"bonus_points":     result.BonusPoints,
		"discount_percent": result.DiscountPercent,
	})
	log.Info().
		Str("code", result.Code).
		Str("card_id", cardID.String()).
		Int64("bonus_points", result.BonusPoints).
		Int("discount_percent", result.DiscountPercent).
		Msg("promo code redeemed")
	return result, nil
}

// CreateCode registers a new promo code. A code that grants neither bonus
// points nor a discount is rejected.
func (s *Service) CreateCode(ctx context.Context, code string, promotionID *uuid.UUID, bonusPoints *int64, discountPercent *int, expiresAt time.Time, usesLimit *int) (*PromoCode, error) {
	code = strings.TrimSpace(code)

	hasBonus := bonusPoints != nil && *bonusPoints > 0
	hasDiscount := discountPercent != nil && *discountPercent > 0
	if !hasBonus && !hasDiscount {
		return nil, ErrNoEffect
	}

	if promotionID != nil {
		if _, err := s.repo.GetPromotion(ctx, *promotionID); err != nil {
			return nil, err
		}
	}

	pc := &PromoCode{
		ID:              uuid.New(),
		Code:            code,
		PromotionID:     promotionID,
		BonusPoints:     bonusPoints,
		DiscountPercent: discountPercent,
		ExpiresAt:       expiresAt,
		UsesLimit:       usesLimit,
		Active:          true,
		CreatedAt:       s.now(),
	}
	if err := s.repo.CreateCode(ctx, pc); err != nil {
		return nil, err
	}

	s.audit(ctx, "promocode.created", pc.ID, map[string]interface{}{
		"code":       pc.Code,
		"expires_at": pc.ExpiresAt,
	})
	log.Info().Str("code", pc.Code).Msg("promo code created")
	return pc, nil
}

// DeactivateCode retires a code without deleting its redemption history.
func (s *Service) DeactivateCode(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.DeactivateCode(ctx, id); err != nil {
		return err
	}
	s.audit(ctx, "promocode.deactivated", id, nil)
	log.Info().Str("code_id", id.String()).Msg("promo code deactivated")
	return nil
}

// GetCode returns a code by its value
func (s *Service) GetCode(ctx context.Context, code string) (*PromoCode, error) {
	return s.repo.GetCodeByValue(ctx, strings.TrimSpace(code))
}

// ListCodes returns codes, newest first
func (s *Service) ListCodes(ctx context.Context, limit, offset int) ([]PromoCode, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.ListCodes(ctx, limit, offset)
}

// CreatePromotion registers a campaign grouping promo codes.
func (s *Service) CreatePromotion(ctx context.Context, title, description string, startsAt, endsAt time.Time) (*Promotion, error) {
	p := &Promotion{
		ID:          uuid.New(),
		Title:       title,
		Description: description,
		StartsAt:    startsAt,
		EndsAt:      endsAt,
		Active:      true,
		CreatedAt:   s.now(),
	}
	if err := s.repo.CreatePromotion(ctx, p); err != nil {
		return nil, err
	}

	s.audit(ctx, "promotion.created", p.ID, map[string]interface{}{"title": p.Title})
	log.Info().Str("title", p.Title).Msg("promotion created")
	return p, nil
}

// GetPromotion returns a promotion by id
func (s *Service) GetPromotion(ctx context.Context, id uuid.UUID) (*Promotion, error) {
	return s.repo.GetPromotion(ctx, id)
}

// ListPromotions returns promotions, newest first
func (s *Service) ListPromotions(ctx context.Context, limit, offset int) ([]Promotion, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.ListPromotions(ctx, limit, offset)
}

func (s *Service) audit(ctx context.Context, action string, entityID uuid.UUID, details map[string]interface{}) {
	if s.auditor == nil {
		return
	}
	s.auditor.Record(ctx, action, nil, "promocode", entityID, details)
}
