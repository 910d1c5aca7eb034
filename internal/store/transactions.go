package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"busta/internal/core"
)

const transactionColumns = "id, user_id, account_id, category_id, payee_name, amount_cents, transaction_type, transaction_date, memo, is_cleared"

func scanTransaction(row interface{ Scan(...any) error }) (core.Transaction, error) {
	var (
		t          core.Transaction
		categoryID sql.NullString
		cents      int64
		date       string
	)
	if err := row.Scan(&t.ID, &t.UserID, &t.AccountID, &categoryID, &t.PayeeName,
		&cents, &t.Type, &date, &t.Memo, &t.Cleared); err != nil {
		return core.Transaction{}, err
	}
	t.CategoryID = fromNullable(categoryID)
	t.Amount = core.MoneyFromCents(cents)
	parsed, err := core.ParseDate(date)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("transaction %s has malformed date %q", t.ID, date)
	}
	t.Date = parsed
	return t, nil
}

func (s *Store) InsertTransaction(ctx context.Context, t *core.Transaction) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	_, err := s.q.ExecContext(ctx,
		`INSERT INTO transactions (id, user_id, account_id, category_id, payee_name, amount_cents, transaction_type, transaction_date, memo, is_cleared)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.UserID, t.AccountID, nullable(t.CategoryID), t.PayeeName,
		t.Amount.Cents(), t.Type, t.Date.String(), t.Memo, t.Cleared)
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}

func (s *Store) GetTransaction(ctx context.Context, userID, id string) (core.Transaction, error) {
	row := s.q.QueryRowContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE id = ? AND user_id = ?`, id, userID)
	t, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, fmt.Errorf("transaction %s: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction: %w", err)
	}
	return t, nil
}

// TransactionFilter narrows ListTransactions. Zero values mean no constraint.
type TransactionFilter struct {
	AccountID  string
	CategoryID string
	Type       core.TransactionType
	StartDate  core.Date
	EndDate    core.Date
	Limit      int
	Offset     int
}

func (s *Store) ListTransactions(ctx context.Context, userID string, f TransactionFilter) ([]core.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE user_id = ?`
	args := []any{userID}

	if f.AccountID != "" {
		query += ` AND account_id = ?`
		args = append(args, f.AccountID)
	}
	if f.CategoryID != "" {
		query += ` AND category_id = ?`
		args = append(args, f.CategoryID)
	}
	if f.Type != "" {
		query += ` AND transaction_type = ?`
		args = append(args, f.Type)
	}
	if !f.StartDate.IsZero() {
		query += ` AND transaction_date >= ?`
		args = append(args, f.StartDate.String())
	}
	if !f.EndDate.IsZero() {
		query += ` AND transaction_date <= ?`
		args = append(args, f.EndDate.String())
	}

	query += ` ORDER BY transaction_date DESC, created_at DESC`
	if f.Limit > 0 {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, f.Limit, f.Offset)
	}

	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var transactions []core.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		transactions = append(transactions, t)
	}
	return transactions, rows.Err()
}

// ListExpensesSince returns the owner's expense transactions on or after
// start, oldest first. This is the detector's lookback read.
func (s *Store) ListExpensesSince(ctx context.Context, userID string, start core.Date) ([]core.Transaction, error) {
	rows, err := s.q.QueryContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions
		 WHERE user_id = ? AND transaction_type = ? AND transaction_date >= ?
		 ORDER BY transaction_date`,
		userID, core.Expense, start.String())
	if err != nil {
		return nil, fmt.Errorf("list expenses since %s: %w", start, err)
	}
	defer rows.Close()

	var transactions []core.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		transactions = append(transactions, t)
	}
	return transactions, rows.Err()
}

// ReplaceTransaction overwrites the stored row with t; used by amend after
// the ledger has reversed the original effect.
func (s *Store) ReplaceTransaction(ctx context.Context, t *core.Transaction) error {
	res, err := s.q.ExecContext(ctx,
		`UPDATE transactions
		 SET account_id = ?, category_id = ?, payee_name = ?, amount_cents = ?,
		     transaction_type = ?, transaction_date = ?, memo = ?, is_cleared = ?
		 WHERE id = ? AND user_id = ?`,
		t.AccountID, nullable(t.CategoryID), t.PayeeName, t.Amount.Cents(),
		t.Type, t.Date.String(), t.Memo, t.Cleared, t.ID, t.UserID)
	if err != nil {
		return fmt.Errorf("replace transaction: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("transaction %s: %w", t.ID, core.ErrNotFound)
	}
	return nil
}

func (s *Store) DeleteTransaction(ctx context.Context, userID, id string) error {
	res, err := s.q.ExecContext(ctx,
		`DELETE FROM transactions WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("transaction %s: %w", id, core.ErrNotFound)
	}
	return nil
}
