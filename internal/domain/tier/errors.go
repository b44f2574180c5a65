package tier

import "errors"

var (
	// ErrEmptyTable means no tiers are configured at all.
	ErrEmptyTable = errors.New("tier table is empty")

	// ErrNoBaseTier means no tier covers zero points; a freshly issued card
	// could not be assigned a tier. Fatal at startup.
	ErrNoBaseTier = errors.New("tier table has no tier with min_points = 0")

	// ErrUnordered means levels or thresholds are not strictly increasing.
	ErrUnordered = errors.New("tier levels and thresholds must be strictly increasing")

	// ErrNegativePoints is returned for lookups below zero; card balances
	// can never go negative, so seeing this indicates a caller bug.
	ErrNegativePoints = errors.New("points must be non-negative")
)
