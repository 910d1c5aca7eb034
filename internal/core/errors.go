package core

import "errors"

// Error kinds for programmatic handling. Every user-visible failure wraps one
// of these so the transport layer can classify it with errors.Is.
var (
	// ErrNotFound covers both missing entities and entities owned by another
	// user, so existence never leaks across owners.
	ErrNotFound = errors.New("not found")

	ErrInvalidAmount       = errors.New("invalid amount")
	ErrEmptyPayee          = errors.New("empty payee name")
	ErrInvalidDate         = errors.New("invalid date")
	ErrInvalidType         = errors.New("invalid transaction type")
	ErrInvalidFrequency    = errors.New("invalid frequency")
	ErrSameCategory        = errors.New("source and target categories must be different")
	ErrInsufficientFunds   = errors.New("insufficient funds in source category")
	ErrExternalUnavailable = errors.New("external dependency unavailable")
	ErrNotATransaction     = errors.New("text does not describe a financial transaction")
	ErrAlreadyReviewed     = errors.New("pending transaction already reviewed")
)
