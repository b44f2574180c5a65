package session

import "errors"

var (
	// ErrSessionNotFound is returned when the session does not exist
	ErrSessionNotFound = errors.New("session not found")

	// ErrInvalidMinutes is returned when planned minutes is <= 0
	ErrInvalidMinutes = errors.New("planned minutes must be greater than 0")
)
