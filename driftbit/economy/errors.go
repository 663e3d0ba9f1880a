// Package economy holds the shared vocabulary of the ledger: typed errors
// returned by the store and engines, matched with errors.Is at the surfaces.
package economy

import (
	"errors"
	"fmt"
)

var (
	// ErrInsufficientFunds is returned when a guarded debit finds less
	// balance than it needs. The balance is never driven negative.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrInsufficientItems is returned when an inventory debit finds fewer
	// items than requested.
	ErrInsufficientItems = errors.New("insufficient items")

	// ErrConflict is returned when a conditional update lost a race: a
	// listing vanished, a cooldown stamp moved, a roster changed underneath.
	ErrConflict = errors.New("conflicting concurrent update")

	// ErrCorruptBalance is returned when a stored balance is negative.
	// Operations refuse to act on corrupt accounts until repaired.
	ErrCorruptBalance = errors.New("corrupt account balance")

	// ErrNotFound is returned when the requested record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrOnCooldown is returned when a rate-gated action is retried before
	// its cooldown has elapsed.
	ErrOnCooldown = errors.New("action on cooldown")
)

// Insufficient reports whether an error means a guarded debit came up short,
// for either currency or items.
func Insufficient(err error) bool {
	return errors.Is(err, ErrInsufficientFunds) || errors.Is(err, ErrInsufficientItems)
}

// MergeConflictError reports why an account merge was aborted. Merges never
// partially apply: either both sides combine or the error names the blocker.
type MergeConflictError struct {
	Reason string
}

func (e *MergeConflictError) Error() string {
	return fmt.Sprintf("merge aborted: %s", e.Reason)
}
