// Package ingest files raw SMS/receipt text into the pending-transaction
// inbox and turns reviewed entries into real ledger posts.
package ingest

import (
	"context"
	"fmt"
	"log/slog"

	"busta/internal/core"
	"busta/internal/extract"
	"busta/internal/ledger"
	"busta/internal/store"
	"busta/internal/suggest"
)

type Service struct {
	store     *store.Store
	ledger    *ledger.Engine
	memory    *suggest.Memory
	extractor extract.Extractor
	fallback  extract.Fallback
}

// New builds the ingest service. A nil extractor means the regex fallback is
// the only parser.
func New(s *store.Store, eng *ledger.Engine, mem *suggest.Memory, ext extract.Extractor) *Service {
	if ext == nil {
		ext = extract.Fallback{}
	}
	return &Service{store: s, ledger: eng, memory: mem, extractor: ext}
}

// IngestText extracts a transaction candidate from raw text and files it as a
// pending transaction with suggested account and category. Text that is not a
// transaction is refused with ErrNotATransaction. An extractor outage is
// absorbed by the regex fallback and never surfaces to the caller.
func (s *Service) IngestText(ctx context.Context, userID, rawText, source string) (core.PendingTransaction, error) {
	categories, err := s.store.ListCategories(ctx, userID, true)
	if err != nil {
		return core.PendingTransaction{}, err
	}
	choices := make([]extract.Category, 0, len(categories))
	for _, c := range categories {
		choices = append(choices, extract.Category{ID: c.ID, Name: c.Name})
	}

	result, err := s.extractor.Extract(ctx, rawText, choices)
	if err != nil {
		slog.WarnContext(ctx, "Extractor failed, using regex fallback",
			"user_id", userID, "source", source,
			"error", fmt.Errorf("%w: %v", core.ErrExternalUnavailable, err))
		result, _ = s.fallback.Extract(ctx, rawText, choices)
	}

	if !result.IsTransaction {
		return core.PendingTransaction{}, core.ErrNotATransaction
	}

	// The payee memory beats the extractor's category guess when it knows the
	// payee.
	categoryID := result.CategoryID
	if remembered, err := s.memory.Lookup(ctx, userID, result.Payee); err != nil {
		return core.PendingTransaction{}, err
	} else if remembered != "" {
		categoryID = remembered
	}

	accountID, err := s.store.FirstActiveAccountID(ctx, userID)
	if err != nil {
		return core.PendingTransaction{}, err
	}

	pending := core.PendingTransaction{
		UserID:              userID,
		RawText:             rawText,
		Source:              source,
		ParsedPayee:         result.Payee,
		ParsedAmount:        result.Amount,
		ParsedDate:          result.Date,
		SuggestedAccountID:  accountID,
		SuggestedCategoryID: categoryID,
		Confidence:          result.Confidence,
		Status:              core.PendingStatusPending,
	}
	if err := s.store.InsertPendingTransaction(ctx, &pending); err != nil {
		return core.PendingTransaction{}, err
	}

	slog.InfoContext(ctx, "Filed pending transaction",
		"id", pending.ID,
		"user_id", userID,
		"source", source,
		"payee", pending.ParsedPayee,
		"confidence", pending.Confidence)
	return pending, nil
}

// Pending lists the review inbox. An empty status returns every entry.
func (s *Service) Pending(ctx context.Context, userID, status string) ([]core.PendingTransaction, error) {
	return s.store.ListPendingTransactions(ctx, userID, status)
}

// Approval carries the reviewer's overrides. AccountID is required; the rest
// default to the parsed suggestion.
type Approval struct {
	AccountID  string      `json:"account_id"`
	CategoryID string      `json:"category_id,omitempty"`
	PayeeName  string      `json:"payee_name,omitempty"`
	Amount     *core.Money `json:"amount,omitempty"`
	Date       *core.Date  `json:"transaction_date,omitempty"`
	Memo       string      `json:"memo,omitempty"`
}

// Approve posts the pending transaction as a real expense and reinforces the
// payee memory. Only entries still in pending state can be approved.
func (s *Service) Approve(ctx context.Context, userID, id string, approval Approval) (core.Transaction, error) {
	pending, err := s.store.GetPendingTransaction(ctx, userID, id)
	if err != nil {
		return core.Transaction{}, err
	}
	if pending.Status != core.PendingStatusPending {
		return core.Transaction{}, fmt.Errorf("pending transaction %s is %s: %w", id, pending.Status, core.ErrAlreadyReviewed)
	}

	t := core.Transaction{
		UserID:     userID,
		AccountID:  approval.AccountID,
		CategoryID: approval.CategoryID,
		PayeeName:  pending.ParsedPayee,
		Amount:     pending.ParsedAmount,
		Type:       core.Expense,
		Date:       pending.ParsedDate,
		Memo:       approval.Memo,
	}
	if t.AccountID == "" {
		t.AccountID = pending.SuggestedAccountID
	}
	if t.CategoryID == "" {
		t.CategoryID = pending.SuggestedCategoryID
	}
	if approval.PayeeName != "" {
		t.PayeeName = approval.PayeeName
	}
	if approval.Amount != nil {
		t.Amount = *approval.Amount
	}
	if approval.Date != nil {
		t.Date = *approval.Date
	}
	if t.Date.IsZero() {
		t.Date = core.Today()
	}

	var posted core.Transaction
	err = s.store.InTx(ctx, func(tx *store.Store) error {
		posted, err = ledger.New(tx).Post(ctx, t)
		if err != nil {
			return err
		}
		return tx.SetPendingStatus(ctx, userID, id, core.PendingStatusApproved)
	})
	if err != nil {
		return core.Transaction{}, err
	}

	if posted.CategoryID != "" {
		if err := s.memory.Remember(ctx, userID, posted.PayeeName, posted.CategoryID); err != nil {
			slog.WarnContext(ctx, "Failed to reinforce payee memory",
				"user_id", userID, "payee", posted.PayeeName, "error", err)
		}
	}

	slog.InfoContext(ctx, "Pending transaction approved",
		"id", id, "user_id", userID, "transaction_id", posted.ID)
	return posted, nil
}

// Reject marks the entry rejected without touching the ledger.
func (s *Service) Reject(ctx context.Context, userID, id string) error {
	pending, err := s.store.GetPendingTransaction(ctx, userID, id)
	if err != nil {
		return err
	}
	if pending.Status != core.PendingStatusPending {
		return fmt.Errorf("pending transaction %s is %s: %w", id, pending.Status, core.ErrAlreadyReviewed)
	}
	if err := s.store.SetPendingStatus(ctx, userID, id, core.PendingStatusRejected); err != nil {
		return err
	}

	slog.InfoContext(ctx, "Pending transaction rejected", "id", id, "user_id", userID)
	return nil
}
