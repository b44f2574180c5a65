package promocode

import (
	"time"

	"github.com/google/uuid"
)

// Promotion groups promo codes under a campaign. Codes may also exist
// standalone, without a promotion.
type Promotion struct {
	ID          uuid.UUID `db:"id" json:"id"`
	Title       string    `db:"title" json:"title"`
	Description string    `db:"description" json:"description"`
	StartsAt    time.Time `db:"starts_at" json:"starts_at"`
	EndsAt      time.Time `db:"ends_at" json:"ends_at"`
	Active      bool      `db:"active" json:"active"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// PromoCode is a redeemable code granting bonus points, a discount, or both.
// At least one of BonusPoints / DiscountPercent is always set.
type PromoCode struct {
	ID              uuid.UUID  `db:"id" json:"id"`
	Code            string     `db:"code" json:"code"`
	PromotionID     *uuid.UUID `db:"promotion_id" json:"promotion_id,omitempty"`
	BonusPoints     *int64     `db:"bonus_points" json:"bonus_points,omitempty"`
	DiscountPercent *int       `db:"discount_percent" json:"discount_percent,omitempty"`
	ExpiresAt       time.Time  `db:"expires_at" json:"expires_at"`
	UsesLimit       *int       `db:"uses_limit" json:"uses_limit,omitempty"`
	UsesCount       int        `db:"uses_count" json:"uses_count"`
	Active          bool       `db:"active" json:"active"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
}

// ValidateRedemption walks the redemption error ladder in order. Expiry is
// judged against the redemption instant, not the request arrival.
func (p *PromoCode) ValidateRedemption(now time.Time, alreadyRedeemed bool) error {
	if !p.Active {
		return ErrCodeInactive
	}
	if now.After(p.ExpiresAt) {
		return ErrCodeExpired
	}
	if p.UsesLimit != nil && p.UsesCount >= *p.UsesLimit {
		return ErrUsesExhausted
	}
	if alreadyRedeemed {
		return ErrAlreadyRedeemed
	}
	return nil
}

// RedemptionResult reports what a successful redemption granted. The discount
// is informational for the point-of-sale terminal; only the bonus touches the
// card balance.
type RedemptionResult struct {
	CodeID          uuid.UUID  `json:"code_id"`
	Code            string     `json:"code"`
	CardID          uuid.UUID  `json:"card_id"`
	BonusPoints     int64      `json:"bonus_points"`
	DiscountPercent int        `json:"discount_percent"`
	CardBalance     int64      `json:"card_balance"`
	PromotionID     *uuid.UUID `json:"promotion_id,omitempty"`
	RedeemedAt      time.Time  `json:"redeemed_at"`
}
