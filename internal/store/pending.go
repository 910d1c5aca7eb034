package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"busta/internal/core"
)

const pendingColumns = "id, user_id, raw_text, source, parsed_payee, parsed_cents, parsed_date, suggested_account_id, suggested_category_id, confidence, status"

func scanPending(row interface{ Scan(...any) error }) (core.PendingTransaction, error) {
	var (
		p          core.PendingTransaction
		cents      int64
		date       sql.NullString
		accountID  sql.NullString
		categoryID sql.NullString
	)
	if err := row.Scan(&p.ID, &p.UserID, &p.RawText, &p.Source, &p.ParsedPayee,
		&cents, &date, &accountID, &categoryID, &p.Confidence, &p.Status); err != nil {
		return core.PendingTransaction{}, err
	}
	p.ParsedAmount = core.MoneyFromCents(cents)
	if date.Valid && date.String != "" {
		parsed, err := core.ParseDate(date.String)
		if err != nil {
			return core.PendingTransaction{}, fmt.Errorf("pending %s has malformed date %q", p.ID, date.String)
		}
		p.ParsedDate = parsed
	}
	p.SuggestedAccountID = fromNullable(accountID)
	p.SuggestedCategoryID = fromNullable(categoryID)
	return p, nil
}

func (s *Store) InsertPendingTransaction(ctx context.Context, p *core.PendingTransaction) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.Status == "" {
		p.Status = core.PendingStatusPending
	}
	var date sql.NullString
	if !p.ParsedDate.IsZero() {
		date = sql.NullString{String: p.ParsedDate.String(), Valid: true}
	}
	_, err := s.q.ExecContext(ctx,
		`INSERT INTO pending_transactions (id, user_id, raw_text, source, parsed_payee, parsed_cents, parsed_date, suggested_account_id, suggested_category_id, confidence, status)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.UserID, p.RawText, p.Source, p.ParsedPayee, p.ParsedAmount.Cents(),
		date, nullable(p.SuggestedAccountID), nullable(p.SuggestedCategoryID),
		p.Confidence, p.Status)
	if err != nil {
		return fmt.Errorf("insert pending transaction: %w", err)
	}
	return nil
}

func (s *Store) GetPendingTransaction(ctx context.Context, userID, id string) (core.PendingTransaction, error) {
	row := s.q.QueryRowContext(ctx,
		`SELECT `+pendingColumns+` FROM pending_transactions WHERE id = ? AND user_id = ?`, id, userID)
	p, err := scanPending(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.PendingTransaction{}, fmt.Errorf("pending transaction %s: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.PendingTransaction{}, fmt.Errorf("get pending transaction: %w", err)
	}
	return p, nil
}

// ListPendingTransactions returns the owner's pending rows, newest first.
// An empty status lists every state.
func (s *Store) ListPendingTransactions(ctx context.Context, userID, status string) ([]core.PendingTransaction, error) {
	query := `SELECT ` + pendingColumns + ` FROM pending_transactions WHERE user_id = ?`
	args := []any{userID}
	if status != "" {
		query += ` AND status = ?`
		args = append(args, status)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list pending transactions: %w", err)
	}
	defer rows.Close()

	var pendings []core.PendingTransaction
	for rows.Next() {
		p, err := scanPending(rows)
		if err != nil {
			return nil, fmt.Errorf("scan pending transaction: %w", err)
		}
		pendings = append(pendings, p)
	}
	return pendings, rows.Err()
}

// SetPendingStatus transitions a pending row out of review.
func (s *Store) SetPendingStatus(ctx context.Context, userID, id, status string) error {
	res, err := s.q.ExecContext(ctx,
		`UPDATE pending_transactions SET status = ? WHERE id = ? AND user_id = ?`,
		status, id, userID)
	if err != nil {
		return fmt.Errorf("set pending status: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("pending transaction %s: %w", id, core.ErrNotFound)
	}
	return nil
}
