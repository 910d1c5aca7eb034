// Package ledger applies transaction effects to account balances and
// category activity as one unit of work.
//
// Every mutation path into those numbers funnels through here: post applies
// an effect, void applies its exact inverse, and amend is a reverse-then-apply
// so the net change looks like the original was never posted.
package ledger

import (
	"context"
	"fmt"
	"log/slog"

	"busta/internal/core"
	"busta/internal/store"
)

type Engine struct {
	store *store.Store
}

func New(s *store.Store) *Engine {
	return &Engine{store: s}
}

// Post validates ownership, inserts the transaction and applies its effect to
// the account balance and, for categorized expenses, the category activity.
// The insert and both increments commit or roll back together.
func (e *Engine) Post(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}

	err := e.store.InTx(ctx, func(tx *store.Store) error {
		if err := e.checkOwnership(ctx, tx, &t); err != nil {
			return err
		}
		if err := tx.InsertTransaction(ctx, &t); err != nil {
			return err
		}
		return applyEffect(ctx, tx, t, +1)
	})
	if err != nil {
		return core.Transaction{}, err
	}

	slog.InfoContext(ctx, "Transaction posted",
		"id", t.ID,
		"user_id", t.UserID,
		"type", t.Type,
		"amount_cents", t.Amount.Cents(),
		"account_id", t.AccountID)
	return t, nil
}

// Patch carries the amendable fields; nil leaves a field unchanged. An empty
// CategoryID clears the category.
type Patch struct {
	AccountID  *string
	CategoryID *string
	PayeeName  *string
	Amount     *core.Money
	Type       *core.TransactionType
	Date       *core.Date
	Memo       *string
	Cleared    *bool
}

func (p Patch) merge(t core.Transaction) core.Transaction {
	if p.AccountID != nil {
		t.AccountID = *p.AccountID
	}
	if p.CategoryID != nil {
		t.CategoryID = *p.CategoryID
	}
	if p.PayeeName != nil {
		t.PayeeName = *p.PayeeName
	}
	if p.Amount != nil {
		t.Amount = *p.Amount
	}
	if p.Type != nil {
		t.Type = *p.Type
	}
	if p.Date != nil {
		t.Date = *p.Date
	}
	if p.Memo != nil {
		t.Memo = *p.Memo
	}
	if p.Cleared != nil {
		t.Cleared = *p.Cleared
	}
	return t
}

// Amend reverses the original transaction's effect, then applies the patched
// one, all inside a single store transaction.
func (e *Engine) Amend(ctx context.Context, userID, id string, patch Patch) (core.Transaction, error) {
	var amended core.Transaction

	err := e.store.InTx(ctx, func(tx *store.Store) error {
		original, err := tx.GetTransaction(ctx, userID, id)
		if err != nil {
			return err
		}

		amended = patch.merge(original)
		if err := amended.Validate(); err != nil {
			return err
		}
		if err := e.checkOwnership(ctx, tx, &amended); err != nil {
			return err
		}

		if err := applyEffect(ctx, tx, original, -1); err != nil {
			return err
		}
		if err := tx.ReplaceTransaction(ctx, &amended); err != nil {
			return err
		}
		return applyEffect(ctx, tx, amended, +1)
	})
	if err != nil {
		return core.Transaction{}, err
	}

	slog.InfoContext(ctx, "Transaction amended", "id", id, "user_id", userID)
	return amended, nil
}

// Void applies the exact inverse of the original post and removes the
// transaction.
func (e *Engine) Void(ctx context.Context, userID, id string) error {
	err := e.store.InTx(ctx, func(tx *store.Store) error {
		t, err := tx.GetTransaction(ctx, userID, id)
		if err != nil {
			return err
		}
		if err := applyEffect(ctx, tx, t, -1); err != nil {
			return err
		}
		return tx.DeleteTransaction(ctx, userID, id)
	})
	if err != nil {
		return err
	}

	slog.InfoContext(ctx, "Transaction voided", "id", id, "user_id", userID)
	return nil
}

// checkOwnership rejects accounts or categories the caller does not own.
// Foreign entities surface as not-found, never as forbidden.
func (e *Engine) checkOwnership(ctx context.Context, tx *store.Store, t *core.Transaction) error {
	if _, err := tx.GetAccount(ctx, t.UserID, t.AccountID); err != nil {
		return err
	}
	if t.CategoryID != "" {
		if _, err := tx.GetCategory(ctx, t.UserID, t.CategoryID); err != nil {
			return err
		}
	}
	return nil
}

// applyEffect mutates account balance and category activity via the store's
// atomic increments. sign is +1 to apply, -1 to reverse.
//
// Account deltas: expense subtracts, income adds, transfer nets to zero per
// leg. Only categorized expenses touch activity.
func applyEffect(ctx context.Context, tx *store.Store, t core.Transaction, sign int64) error {
	cents := t.Amount.Cents()

	var accountDelta int64
	switch t.Type {
	case core.Expense:
		accountDelta = -cents
	case core.Income:
		accountDelta = cents
	case core.Transfer:
		accountDelta = 0
	default:
		return fmt.Errorf("%w: %q", core.ErrInvalidType, t.Type)
	}

	if accountDelta != 0 {
		if err := tx.IncrementAccountBalance(ctx, t.AccountID, sign*accountDelta); err != nil {
			return err
		}
	}

	if t.Type == core.Expense && t.CategoryID != "" {
		if err := tx.IncrementCategoryActivity(ctx, t.CategoryID, sign*cents); err != nil {
			return err
		}
	}
	return nil
}
