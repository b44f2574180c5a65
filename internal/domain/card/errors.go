package card

import "errors"

var (
	// ErrCardNotFound is returned when the card does not exist
	ErrCardNotFound = errors.New("card not found")

	// ErrInvalidAmount is returned when amount is <= 0
	ErrInvalidAmount = errors.New("invalid amount: must be greater than 0")

	// ErrInsufficientBalance is returned when a deduction exceeds the balance
	ErrInsufficientBalance = errors.New("insufficient point balance")

	// ErrCardBlocked is returned when operating on a blocked card
	ErrCardBlocked = errors.New("card is blocked")

	// ErrDuplicateNumber is returned when issuing a card with a taken number
	ErrDuplicateNumber = errors.New("card number already in use")

	// ErrMemberNotFound is returned when issuing a card for an unknown member
	ErrMemberNotFound = errors.New("member not found")
)
