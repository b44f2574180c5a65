package member

import "errors"

var (
	ErrMemberNotFound = errors.New("member not found")
	ErrDuplicatePhone = errors.New("phone number already registered")
	ErrHasCards       = errors.New("member still has cards")
)
