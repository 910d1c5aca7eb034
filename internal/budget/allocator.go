// Package budget computes the envelope summary and moves money between
// envelopes. Allocator operations never touch the transaction ledger.
package budget

import (
	"context"
	"fmt"
	"log/slog"

	"busta/internal/core"
	"busta/internal/store"
)

type Allocator struct {
	store *store.Store
}

func New(s *store.Store) *Allocator {
	return &Allocator{store: s}
}

// Summary is the owner's budget position, recomputed from the store on every
// call. No cached aggregate is trusted across calls.
type Summary struct {
	ToBeBudgeted  core.Money `json:"to_be_budgeted"`
	TotalBalance  core.Money `json:"total_balance"`
	TotalAssigned core.Money `json:"total_assigned"`
	TotalActivity core.Money `json:"total_spent"`
}

// Summary derives to_be_budgeted as the sum of active account balances minus
// the sum assigned to visible categories, the system's core correctness
// property.
func (a *Allocator) Summary(ctx context.Context, userID string) (Summary, error) {
	balance, err := a.store.SumActiveBalances(ctx, userID)
	if err != nil {
		return Summary{}, err
	}
	assigned, activity, err := a.store.SumVisibleCategories(ctx, userID)
	if err != nil {
		return Summary{}, err
	}
	return Summary{
		ToBeBudgeted:  core.MoneyFromCents(balance - assigned),
		TotalBalance:  core.MoneyFromCents(balance),
		TotalAssigned: core.MoneyFromCents(assigned),
		TotalActivity: core.MoneyFromCents(activity),
	}, nil
}

// Assign adds delta to the category's assigned amount. The delta may carry
// either sign; there is no account-side effect.
func (a *Allocator) Assign(ctx context.Context, userID, categoryID string, delta core.Money) (core.Category, error) {
	if _, err := a.store.GetCategory(ctx, userID, categoryID); err != nil {
		return core.Category{}, err
	}
	if err := a.store.IncrementCategoryAssigned(ctx, categoryID, delta.Cents()); err != nil {
		return core.Category{}, err
	}
	return a.store.GetCategory(ctx, userID, categoryID)
}

// Move shifts amount from one envelope to another. Both sides update in one
// store transaction; the source's guarded decrement makes the operation fail
// with ErrInsufficientFunds instead of overdrawing, even under concurrency.
func (a *Allocator) Move(ctx context.Context, userID, fromID, toID string, amount core.Money) (from, to core.Category, err error) {
	if !amount.IsPositive() {
		return core.Category{}, core.Category{}, core.ErrInvalidAmount
	}
	if fromID == toID {
		return core.Category{}, core.Category{}, core.ErrSameCategory
	}

	err = a.store.InTx(ctx, func(tx *store.Store) error {
		if _, err := tx.GetCategory(ctx, userID, fromID); err != nil {
			return err
		}
		if _, err := tx.GetCategory(ctx, userID, toID); err != nil {
			return err
		}

		ok, err := tx.DecrementCategoryAssignedGuarded(ctx, userID, fromID, amount.Cents())
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("move %s from category %s: %w", amount, fromID, core.ErrInsufficientFunds)
		}
		if err := tx.IncrementCategoryAssigned(ctx, toID, amount.Cents()); err != nil {
			return err
		}

		from, err = tx.GetCategory(ctx, userID, fromID)
		if err != nil {
			return err
		}
		to, err = tx.GetCategory(ctx, userID, toID)
		return err
	})
	if err != nil {
		return core.Category{}, core.Category{}, err
	}

	slog.InfoContext(ctx, "Moved money between envelopes",
		"user_id", userID,
		"from", fromID,
		"to", toID,
		"amount_cents", amount.Cents())
	return from, to, nil
}
