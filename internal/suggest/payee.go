// Package suggest remembers which category a user files each payee under and
// suggests one for new payees. Exact matches on the normalized payee win;
// otherwise the closest remembered payee within an edit-distance bound is
// used, so "Netflix.com" still finds "netflix".
package suggest

import (
	"context"
	"strings"

	"github.com/agnivade/levenshtein"

	"busta/internal/store"
)

// similarityThreshold is the minimum normalized similarity for a fuzzy match,
// 1 - distance/maxlen.
const similarityThreshold = 0.8

type Memory struct {
	store *store.Store
}

func New(s *store.Store) *Memory {
	return &Memory{store: s}
}

// Remember reinforces the payee-to-category association. Called whenever the
// user confirms a categorized transaction.
func (m *Memory) Remember(ctx context.Context, userID, payee, categoryID string) error {
	key := Normalize(payee)
	if key == "" || categoryID == "" {
		return nil
	}
	return m.store.UpsertPayeeCategory(ctx, userID, key, categoryID)
}

// Lookup returns the remembered category for the payee, or "" when nothing
// close enough is known.
func (m *Memory) Lookup(ctx context.Context, userID, payee string) (string, error) {
	key := Normalize(payee)
	if key == "" {
		return "", nil
	}

	memory, err := m.store.ListPayeeCategories(ctx, userID)
	if err != nil {
		return "", err
	}

	var (
		bestCategory   string
		bestSimilarity float64
		bestHits       int
	)
	for _, pc := range memory {
		if pc.NormalizedPayee == key {
			return pc.CategoryID, nil
		}
		s := similarity(key, pc.NormalizedPayee)
		if s < similarityThreshold {
			continue
		}
		// Prefer the closer match; on equal similarity the better-reinforced
		// association wins.
		if s > bestSimilarity || (s == bestSimilarity && pc.HitCount > bestHits) {
			bestCategory = pc.CategoryID
			bestSimilarity = s
			bestHits = pc.HitCount
		}
	}
	return bestCategory, nil
}

// Normalize folds case and trims whitespace, the same key the recurring
// detector groups by.
func Normalize(payee string) string {
	return strings.ToLower(strings.TrimSpace(payee))
}

func similarity(a, b string) float64 {
	if a == b {
		return 1
	}
	maxlen := len(a)
	if len(b) > maxlen {
		maxlen = len(b)
	}
	if maxlen == 0 {
		return 0
	}
	return 1 - float64(levenshtein.ComputeDistance(a, b))/float64(maxlen)
}
