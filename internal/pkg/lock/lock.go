// Package lock provides per-key mutual exclusion with a bounded wait.
//
// Every balance-affecting operation acquires the card's lock before its
// read-modify-write sequence, so at most one mutation per card is in flight
// at any time. Operations on different cards never contend.
package lock

import (
	"context"
	"errors"
)

// ErrBusy is returned when the lock could not be acquired within the
// configured wait. Callers are expected to retry with backoff.
var ErrBusy = errors.New("resource busy, try again")

// Locker serializes operations per key.
type Locker interface {
	// Acquire blocks until the key's lock is held, the wait bound elapses
	// (ErrBusy), or ctx is done. The returned release function must be
	// called exactly once.
	Acquire(ctx context.Context, key string) (release func(), err error)
}
