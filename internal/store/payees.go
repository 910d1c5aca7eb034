package store

import (
	"context"
	"fmt"
)

// PayeeCategory is one remembered payee-to-category association.
type PayeeCategory struct {
	UserID          string
	NormalizedPayee string
	CategoryID      string
	HitCount        int
}

// UpsertPayeeCategory records that a payee was filed under a category,
// keyed by (user_id, normalized_payee). Repeats bump the hit count; a
// different category replaces the old association.
func (s *Store) UpsertPayeeCategory(ctx context.Context, userID, normalizedPayee, categoryID string) error {
	_, err := s.q.ExecContext(ctx,
		`INSERT INTO payee_categories (user_id, normalized_payee, category_id, hit_count)
		 VALUES (?, ?, ?, 1)
		 ON CONFLICT (user_id, normalized_payee)
		 DO UPDATE SET category_id = excluded.category_id, hit_count = hit_count + 1`,
		userID, normalizedPayee, categoryID)
	if err != nil {
		return fmt.Errorf("upsert payee category: %w", err)
	}
	return nil
}

// ListPayeeCategories returns every remembered association for the owner.
func (s *Store) ListPayeeCategories(ctx context.Context, userID string) ([]PayeeCategory, error) {
	rows, err := s.q.QueryContext(ctx,
		`SELECT user_id, normalized_payee, category_id, hit_count
		 FROM payee_categories WHERE user_id = ?`, userID)
	if err != nil {
		return nil, fmt.Errorf("list payee categories: %w", err)
	}
	defer rows.Close()

	var memory []PayeeCategory
	for rows.Next() {
		var pc PayeeCategory
		if err := rows.Scan(&pc.UserID, &pc.NormalizedPayee, &pc.CategoryID, &pc.HitCount); err != nil {
			return nil, fmt.Errorf("scan payee category: %w", err)
		}
		memory = append(memory, pc)
	}
	return memory, rows.Err()
}
