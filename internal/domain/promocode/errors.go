package promocode

import "errors"

var (
	ErrCodeNotFound      = errors.New("promo code not found")
	ErrCodeInactive      = errors.New("promo code is not active")
	ErrCodeExpired       = errors.New("promo code has expired")
	ErrUsesExhausted     = errors.New("promo code uses limit reached")
	ErrAlreadyRedeemed   = errors.New("promo code already redeemed by this card")
	ErrPromotionNotFound = errors.New("promotion not found")
	ErrDuplicateCode     = errors.New("promo code already exists")
	ErrNoEffect          = errors.New("promo code must grant bonus points or a discount")
)
