package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"busta/internal/core"
)

const accountColumns = "id, user_id, name, account_type, balance_cents, is_active"

func scanAccount(row interface{ Scan(...any) error }) (core.Account, error) {
	var (
		a     core.Account
		cents int64
	)
	if err := row.Scan(&a.ID, &a.UserID, &a.Name, &a.Type, &cents, &a.Active); err != nil {
		return core.Account{}, err
	}
	a.Balance = core.MoneyFromCents(cents)
	return a, nil
}

func (s *Store) CreateAccount(ctx context.Context, a *core.Account) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	_, err := s.q.ExecContext(ctx,
		`INSERT INTO accounts (id, user_id, name, account_type, balance_cents, is_active)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		a.ID, a.UserID, a.Name, a.Type, a.Balance.Cents(), a.Active)
	if err != nil {
		return fmt.Errorf("insert account: %w", err)
	}
	return nil
}

func (s *Store) GetAccount(ctx context.Context, userID, id string) (core.Account, error) {
	row := s.q.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE id = ? AND user_id = ?`, id, userID)
	a, err := scanAccount(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Account{}, fmt.Errorf("account %s: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.Account{}, fmt.Errorf("get account: %w", err)
	}
	return a, nil
}

func (s *Store) ListAccounts(ctx context.Context, userID string, activeOnly bool) ([]core.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE user_id = ?`
	if activeOnly {
		query += ` AND is_active = 1`
	}
	query += ` ORDER BY created_at`

	rows, err := s.q.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	var accounts []core.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

// AccountPatch carries optional field updates; nil means leave unchanged.
type AccountPatch struct {
	Name    *string
	Type    *core.AccountType
	Balance *core.Money
	Active  *bool
}

func (s *Store) UpdateAccount(ctx context.Context, userID, id string, patch AccountPatch) (core.Account, error) {
	var (
		sets []string
		args []any
	)
	if patch.Name != nil {
		sets = append(sets, "name = ?")
		args = append(args, *patch.Name)
	}
	if patch.Type != nil {
		sets = append(sets, "account_type = ?")
		args = append(args, *patch.Type)
	}
	if patch.Balance != nil {
		sets = append(sets, "balance_cents = ?")
		args = append(args, patch.Balance.Cents())
	}
	if patch.Active != nil {
		sets = append(sets, "is_active = ?")
		args = append(args, *patch.Active)
	}
	if len(sets) > 0 {
		args = append(args, id, userID)
		res, err := s.q.ExecContext(ctx,
			`UPDATE accounts SET `+strings.Join(sets, ", ")+` WHERE id = ? AND user_id = ?`, args...)
		if err != nil {
			return core.Account{}, fmt.Errorf("update account: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return core.Account{}, fmt.Errorf("account %s: %w", id, core.ErrNotFound)
		}
	}
	return s.GetAccount(ctx, userID, id)
}

// DeactivateAccount soft-deletes; history referencing the account survives.
func (s *Store) DeactivateAccount(ctx context.Context, userID, id string) error {
	res, err := s.q.ExecContext(ctx,
		`UPDATE accounts SET is_active = 0 WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("deactivate account: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("account %s: %w", id, core.ErrNotFound)
	}
	return nil
}

// IncrementAccountBalance applies a relative balance change in one statement,
// the lost-update-safe primitive every ledger mutation goes through.
func (s *Store) IncrementAccountBalance(ctx context.Context, id string, deltaCents int64) error {
	res, err := s.q.ExecContext(ctx,
		`UPDATE accounts SET balance_cents = balance_cents + ? WHERE id = ?`, deltaCents, id)
	if err != nil {
		return fmt.Errorf("increment account balance: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("account %s: %w", id, core.ErrNotFound)
	}
	return nil
}

// SumActiveBalances totals the owner's active account balances in cents.
func (s *Store) SumActiveBalances(ctx context.Context, userID string) (int64, error) {
	var total int64
	err := s.q.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(balance_cents), 0) FROM accounts WHERE user_id = ? AND is_active = 1`,
		userID).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("sum active balances: %w", err)
	}
	return total, nil
}

// FirstActiveAccountID returns the oldest active account, or "" if none.
func (s *Store) FirstActiveAccountID(ctx context.Context, userID string) (string, error) {
	var id string
	err := s.q.QueryRowContext(ctx,
		`SELECT id FROM accounts WHERE user_id = ? AND is_active = 1 ORDER BY created_at LIMIT 1`,
		userID).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("first active account: %w", err)
	}
	return id, nil
}
