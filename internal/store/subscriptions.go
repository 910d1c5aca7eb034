package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"busta/internal/core"
)

const subscriptionColumns = "id, user_id, payee_name, estimated_cents, next_due_date, frequency, category_id, account_id, is_active"

func scanSubscription(row interface{ Scan(...any) error }) (core.Subscription, error) {
	var (
		sub        core.Subscription
		cents      int64
		due        string
		categoryID sql.NullString
		accountID  sql.NullString
	)
	if err := row.Scan(&sub.ID, &sub.UserID, &sub.PayeeName, &cents, &due,
		&sub.Frequency, &categoryID, &accountID, &sub.Active); err != nil {
		return core.Subscription{}, err
	}
	sub.EstimatedAmount = core.MoneyFromCents(cents)
	parsed, err := core.ParseDate(due)
	if err != nil {
		return core.Subscription{}, fmt.Errorf("subscription %s has malformed due date %q", sub.ID, due)
	}
	sub.NextDueDate = parsed
	sub.CategoryID = fromNullable(categoryID)
	sub.AccountID = fromNullable(accountID)
	return sub, nil
}

func (s *Store) InsertSubscription(ctx context.Context, sub *core.Subscription) error {
	if sub.ID == "" {
		sub.ID = uuid.NewString()
	}
	_, err := s.q.ExecContext(ctx,
		`INSERT INTO subscriptions (id, user_id, payee_name, estimated_cents, next_due_date, frequency, category_id, account_id, is_active)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sub.ID, sub.UserID, sub.PayeeName, sub.EstimatedAmount.Cents(),
		sub.NextDueDate.String(), sub.Frequency, nullable(sub.CategoryID),
		nullable(sub.AccountID), sub.Active)
	if err != nil {
		return fmt.Errorf("insert subscription: %w", err)
	}
	return nil
}

func (s *Store) GetSubscription(ctx context.Context, userID, id string) (core.Subscription, error) {
	row := s.q.QueryRowContext(ctx,
		`SELECT `+subscriptionColumns+` FROM subscriptions WHERE id = ? AND user_id = ?`, id, userID)
	sub, err := scanSubscription(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Subscription{}, fmt.Errorf("subscription %s: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.Subscription{}, fmt.Errorf("get subscription: %w", err)
	}
	return sub, nil
}

// ListDueSubscriptions returns active subscriptions with next_due_date on or
// before asOf. An empty userID spans all owners (the scheduled global batch).
func (s *Store) ListDueSubscriptions(ctx context.Context, userID string, asOf core.Date) ([]core.Subscription, error) {
	query := `SELECT ` + subscriptionColumns + ` FROM subscriptions
	          WHERE is_active = 1 AND next_due_date <= ?`
	args := []any{asOf.String()}
	if userID != "" {
		query += ` AND user_id = ?`
		args = append(args, userID)
	}
	query += ` ORDER BY next_due_date`

	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list due subscriptions: %w", err)
	}
	defer rows.Close()

	var subs []core.Subscription
	for rows.Next() {
		sub, err := scanSubscription(rows)
		if err != nil {
			return nil, fmt.Errorf("scan subscription: %w", err)
		}
		subs = append(subs, sub)
	}
	return subs, rows.Err()
}

// UpcomingSubscription is a subscription joined with its category name for
// display.
type UpcomingSubscription struct {
	core.Subscription
	CategoryName string
}

// ListUpcomingSubscriptions returns active subscriptions due in [from, to],
// ordered by due date, with the category name joined in.
func (s *Store) ListUpcomingSubscriptions(ctx context.Context, userID string, from, to core.Date) ([]UpcomingSubscription, error) {
	rows, err := s.q.QueryContext(ctx,
		`SELECT s.id, s.user_id, s.payee_name, s.estimated_cents, s.next_due_date,
		        s.frequency, s.category_id, s.account_id, s.is_active,
		        COALESCE(c.name, '')
		 FROM subscriptions s
		 LEFT JOIN categories c ON c.id = s.category_id
		 WHERE s.user_id = ? AND s.is_active = 1
		   AND s.next_due_date >= ? AND s.next_due_date <= ?
		 ORDER BY s.next_due_date`,
		userID, from.String(), to.String())
	if err != nil {
		return nil, fmt.Errorf("list upcoming subscriptions: %w", err)
	}
	defer rows.Close()

	var subs []UpcomingSubscription
	for rows.Next() {
		var (
			sub        core.Subscription
			cents      int64
			due        string
			categoryID sql.NullString
			accountID  sql.NullString
			name       string
		)
		if err := rows.Scan(&sub.ID, &sub.UserID, &sub.PayeeName, &cents, &due,
			&sub.Frequency, &categoryID, &accountID, &sub.Active, &name); err != nil {
			return nil, fmt.Errorf("scan upcoming subscription: %w", err)
		}
		sub.EstimatedAmount = core.MoneyFromCents(cents)
		parsed, err := core.ParseDate(due)
		if err != nil {
			return nil, fmt.Errorf("subscription %s has malformed due date %q", sub.ID, due)
		}
		sub.NextDueDate = parsed
		sub.CategoryID = fromNullable(categoryID)
		sub.AccountID = fromNullable(accountID)
		subs = append(subs, UpcomingSubscription{Subscription: sub, CategoryName: name})
	}
	return subs, rows.Err()
}

// AdvanceDueDateIfUnchanged moves next_due_date from oldDue to newDue only if
// the row still shows oldDue. A false return means another batch got there
// first, the overlap guard against double-processing.
func (s *Store) AdvanceDueDateIfUnchanged(ctx context.Context, id string, oldDue, newDue core.Date) (bool, error) {
	res, err := s.q.ExecContext(ctx,
		`UPDATE subscriptions SET next_due_date = ?
		 WHERE id = ? AND next_due_date = ? AND is_active = 1`,
		newDue.String(), id, oldDue.String())
	if err != nil {
		return false, fmt.Errorf("advance due date: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// UpdateSubscriptionDueDate sets next_due_date unconditionally (the manual
// advance operation).
func (s *Store) UpdateSubscriptionDueDate(ctx context.Context, userID, id string, due core.Date) error {
	res, err := s.q.ExecContext(ctx,
		`UPDATE subscriptions SET next_due_date = ? WHERE id = ? AND user_id = ?`,
		due.String(), id, userID)
	if err != nil {
		return fmt.Errorf("update subscription due date: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("subscription %s: %w", id, core.ErrNotFound)
	}
	return nil
}
