package promocode

import "time"

// RedeemRequest is the payload for POST /promo-codes/redeem
type RedeemRequest struct {
	Code   string `json:"code" validate:"required,min=1,max=64"`
	CardID string `json:"card_id" validate:"required,uuid"`
}

// CreateCodeRequest is the admin payload for creating a code
type CreateCodeRequest struct {
	Code            string    `json:"code" validate:"required,min=3,max=64"`
	PromotionID     *string   `json:"promotion_id,omitempty" validate:"omitempty,uuid"`
	BonusPoints     *int64    `json:"bonus_points,omitempty" validate:"omitempty,gt=0"`
	DiscountPercent *int      `json:"discount_percent,omitempty" validate:"omitempty,gt=0,lte=100"`
	ExpiresAt       time.Time `json:"expires_at" validate:"required"`
	UsesLimit       *int      `json:"uses_limit,omitempty" validate:"omitempty,gt=0"`
}

// CreatePromotionRequest is the admin payload for creating a promotion
type CreatePromotionRequest struct {
	Title       string    `json:"title" validate:"required,min=1,max=128"`
	Description string    `json:"description" validate:"max=512"`
	StartsAt    time.Time `json:"starts_at" validate:"required"`
	EndsAt      time.Time `json:"ends_at" validate:"required,gtfield=StartsAt"`
}
