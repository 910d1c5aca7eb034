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

const categoryColumns = "id, user_id, group_id, name, sort_order, assigned_cents, activity_cents, is_hidden"

func scanCategory(row interface{ Scan(...any) error }) (core.Category, error) {
	var (
		c        core.Category
		groupID  sql.NullString
		assigned int64
		activity int64
	)
	if err := row.Scan(&c.ID, &c.UserID, &groupID, &c.Name, &c.SortOrder, &assigned, &activity, &c.Hidden); err != nil {
		return core.Category{}, err
	}
	c.GroupID = fromNullable(groupID)
	c.Assigned = core.MoneyFromCents(assigned)
	c.Activity = core.MoneyFromCents(activity)
	return c, nil
}

func (s *Store) CreateCategoryGroup(ctx context.Context, g *core.CategoryGroup) error {
	if g.ID == "" {
		g.ID = uuid.NewString()
	}
	_, err := s.q.ExecContext(ctx,
		`INSERT INTO category_groups (id, user_id, name, sort_order) VALUES (?, ?, ?, ?)`,
		g.ID, g.UserID, g.Name, g.SortOrder)
	if err != nil {
		return fmt.Errorf("insert category group: %w", err)
	}
	return nil
}

func (s *Store) ListCategoryGroups(ctx context.Context, userID string) ([]core.CategoryGroup, error) {
	rows, err := s.q.QueryContext(ctx,
		`SELECT id, user_id, name, sort_order FROM category_groups WHERE user_id = ? ORDER BY sort_order`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("list category groups: %w", err)
	}
	defer rows.Close()

	var groups []core.CategoryGroup
	for rows.Next() {
		var g core.CategoryGroup
		if err := rows.Scan(&g.ID, &g.UserID, &g.Name, &g.SortOrder); err != nil {
			return nil, fmt.Errorf("scan category group: %w", err)
		}
		groups = append(groups, g)
	}
	return groups, rows.Err()
}

func (s *Store) CreateCategory(ctx context.Context, c *core.Category) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	_, err := s.q.ExecContext(ctx,
		`INSERT INTO categories (id, user_id, group_id, name, sort_order, assigned_cents, activity_cents, is_hidden)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.UserID, nullable(c.GroupID), c.Name, c.SortOrder,
		c.Assigned.Cents(), c.Activity.Cents(), c.Hidden)
	if err != nil {
		return fmt.Errorf("insert category: %w", err)
	}
	return nil
}

func (s *Store) GetCategory(ctx context.Context, userID, id string) (core.Category, error) {
	row := s.q.QueryRowContext(ctx,
		`SELECT `+categoryColumns+` FROM categories WHERE id = ? AND user_id = ?`, id, userID)
	c, err := scanCategory(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Category{}, fmt.Errorf("category %s: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.Category{}, fmt.Errorf("get category: %w", err)
	}
	return c, nil
}

func (s *Store) ListCategories(ctx context.Context, userID string, visibleOnly bool) ([]core.Category, error) {
	query := `SELECT ` + categoryColumns + ` FROM categories WHERE user_id = ?`
	if visibleOnly {
		query += ` AND is_hidden = 0`
	}
	query += ` ORDER BY sort_order, name`

	rows, err := s.q.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var categories []core.Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

// CategoryPatch carries optional field updates; nil means leave unchanged.
type CategoryPatch struct {
	Name      *string
	GroupID   *string
	SortOrder *int
	Hidden    *bool
}

func (s *Store) UpdateCategory(ctx context.Context, userID, id string, patch CategoryPatch) (core.Category, error) {
	var (
		sets []string
		args []any
	)
	if patch.Name != nil {
		sets = append(sets, "name = ?")
		args = append(args, *patch.Name)
	}
	if patch.GroupID != nil {
		sets = append(sets, "group_id = ?")
		args = append(args, nullable(*patch.GroupID))
	}
	if patch.SortOrder != nil {
		sets = append(sets, "sort_order = ?")
		args = append(args, *patch.SortOrder)
	}
	if patch.Hidden != nil {
		sets = append(sets, "is_hidden = ?")
		args = append(args, *patch.Hidden)
	}
	if len(sets) > 0 {
		args = append(args, id, userID)
		res, err := s.q.ExecContext(ctx,
			`UPDATE categories SET `+strings.Join(sets, ", ")+` WHERE id = ? AND user_id = ?`, args...)
		if err != nil {
			return core.Category{}, fmt.Errorf("update category: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return core.Category{}, fmt.Errorf("category %s: %w", id, core.ErrNotFound)
		}
	}
	return s.GetCategory(ctx, userID, id)
}

// HideCategory soft-deletes; the envelope's history stays recomputable.
func (s *Store) HideCategory(ctx context.Context, userID, id string) error {
	res, err := s.q.ExecContext(ctx,
		`UPDATE categories SET is_hidden = 1 WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("hide category: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("category %s: %w", id, core.ErrNotFound)
	}
	return nil
}

// IncrementCategoryActivity accrues (or reverses) expense activity atomically.
func (s *Store) IncrementCategoryActivity(ctx context.Context, id string, deltaCents int64) error {
	res, err := s.q.ExecContext(ctx,
		`UPDATE categories SET activity_cents = activity_cents + ? WHERE id = ?`, deltaCents, id)
	if err != nil {
		return fmt.Errorf("increment category activity: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("category %s: %w", id, core.ErrNotFound)
	}
	return nil
}

// IncrementCategoryAssigned adjusts the envelope's assigned amount atomically.
func (s *Store) IncrementCategoryAssigned(ctx context.Context, id string, deltaCents int64) error {
	res, err := s.q.ExecContext(ctx,
		`UPDATE categories SET assigned_cents = assigned_cents + ? WHERE id = ?`, deltaCents, id)
	if err != nil {
		return fmt.Errorf("increment category assigned: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("category %s: %w", id, core.ErrNotFound)
	}
	return nil
}

// DecrementCategoryAssignedGuarded subtracts from assigned only when the
// envelope holds at least amountCents. Returns false when the guard fails, so
// a concurrent move can never overdraw the source.
func (s *Store) DecrementCategoryAssignedGuarded(ctx context.Context, userID, id string, amountCents int64) (bool, error) {
	res, err := s.q.ExecContext(ctx,
		`UPDATE categories SET assigned_cents = assigned_cents - ?
		 WHERE id = ? AND user_id = ? AND assigned_cents >= ?`,
		amountCents, id, userID, amountCents)
	if err != nil {
		return false, fmt.Errorf("guarded decrement assigned: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// SumVisibleCategories totals assigned and activity cents over visible
// categories.
func (s *Store) SumVisibleCategories(ctx context.Context, userID string) (assigned, activity int64, err error) {
	err = s.q.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(assigned_cents), 0), COALESCE(SUM(activity_cents), 0)
		 FROM categories WHERE user_id = ? AND is_hidden = 0`,
		userID).Scan(&assigned, &activity)
	if err != nil {
		return 0, 0, fmt.Errorf("sum visible categories: %w", err)
	}
	return assigned, activity, nil
}
