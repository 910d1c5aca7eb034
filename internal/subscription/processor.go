package subscription

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"busta/internal/core"
	"busta/internal/ledger"
	"busta/internal/store"
)

// DefaultUpcomingDays is the lookahead window for the upcoming listing.
const DefaultUpcomingDays = 7

// Outcome reports what happened to one due subscription during a processing
// run.
type Outcome struct {
	SubscriptionID string     `json:"subscription_id"`
	PayeeName      string     `json:"payee_name"`
	Status         string     `json:"status"`
	Reason         string     `json:"reason,omitempty"`
	Amount         core.Money `json:"amount,omitempty"`
	TransactionID  string     `json:"transaction_id,omitempty"`
	NextDueDate    core.Date  `json:"next_due_date,omitempty"`
}

// Outcome statuses.
const (
	StatusProcessed = "processed"
	StatusSkipped   = "skipped"
	StatusError     = "error"
)

// Skip reasons.
const (
	ReasonNoAccount        = "no_account_id"
	ReasonAlreadyProcessed = "already_processed"
)

// Upcoming is a subscription due soon, annotated for display.
type Upcoming struct {
	ID              string         `json:"id"`
	PayeeName       string         `json:"payee_name"`
	EstimatedAmount core.Money     `json:"estimated_amount"`
	NextDueDate     core.Date      `json:"next_due_date"`
	DaysUntilDue    int            `json:"days_until_due"`
	Frequency       core.Frequency `json:"frequency"`
	CategoryName    string         `json:"category_name,omitempty"`
}

// Processor posts due subscriptions to the ledger and advances their due
// dates.
type Processor struct {
	store *store.Store
}

func NewProcessor(s *store.Store) *Processor {
	return &Processor{store: s}
}

// Upcoming lists active subscriptions due within daysAhead days of today,
// soonest first.
func (p *Processor) Upcoming(ctx context.Context, userID string, daysAhead int) ([]Upcoming, error) {
	if daysAhead <= 0 {
		daysAhead = DefaultUpcomingDays
	}
	today := core.Today()

	rows, err := p.store.ListUpcomingSubscriptions(ctx, userID, today, today.AddDays(daysAhead))
	if err != nil {
		return nil, err
	}

	upcoming := make([]Upcoming, 0, len(rows))
	for _, row := range rows {
		upcoming = append(upcoming, assembleUpcoming(row, today))
	}
	return upcoming, nil
}

// assembleUpcoming is the single place an upcoming row turns into its display
// shape, so every listing agrees on days_until_due.
func assembleUpcoming(row store.UpcomingSubscription, today core.Date) Upcoming {
	return Upcoming{
		ID:              row.ID,
		PayeeName:       row.PayeeName,
		EstimatedAmount: row.EstimatedAmount,
		NextDueDate:     row.NextDueDate,
		DaysUntilDue:    today.DaysUntil(row.NextDueDate),
		Frequency:       row.Frequency,
		CategoryName:    row.CategoryName,
	}
}

// Advance moves the subscription's due date one period forward without
// posting anything, for payments handled outside the system.
func (p *Processor) Advance(ctx context.Context, userID, id string) (core.Subscription, error) {
	sub, err := p.store.GetSubscription(ctx, userID, id)
	if err != nil {
		return core.Subscription{}, err
	}
	next, err := NextDueDate(sub.NextDueDate, sub.Frequency)
	if err != nil {
		return core.Subscription{}, err
	}
	if err := p.store.UpdateSubscriptionDueDate(ctx, userID, id, next); err != nil {
		return core.Subscription{}, err
	}
	sub.NextDueDate = next

	slog.InfoContext(ctx, "Subscription due date advanced",
		"id", id, "user_id", userID, "next_due_date", next.String())
	return sub, nil
}

// ProcessDue posts an expense for every active subscription due on or before
// today and advances its due date one period. An empty userID processes all
// owners, the shape of the scheduled batch.
//
// Items are independent: one failure never blocks the rest, and each item's
// transaction and due-date advance commit or roll back as a pair.
func (p *Processor) ProcessDue(ctx context.Context, userID string) ([]Outcome, error) {
	due, err := p.store.ListDueSubscriptions(ctx, userID, core.Today())
	if err != nil {
		return nil, err
	}

	outcomes := make([]Outcome, 0, len(due))
	for _, sub := range due {
		outcome := p.processOne(ctx, sub)
		if outcome.Status == StatusError {
			slog.ErrorContext(ctx, "Subscription processing failed",
				"id", sub.ID, "user_id", sub.UserID, "reason", outcome.Reason)
		}
		outcomes = append(outcomes, outcome)
	}

	slog.InfoContext(ctx, "Due subscriptions processed",
		"user_id", userID, "due", len(due))
	return outcomes, nil
}

func (p *Processor) processOne(ctx context.Context, sub core.Subscription) Outcome {
	outcome := Outcome{SubscriptionID: sub.ID, PayeeName: sub.PayeeName}

	if sub.AccountID == "" {
		outcome.Status = StatusSkipped
		outcome.Reason = ReasonNoAccount
		return outcome
	}

	next, err := NextDueDate(sub.NextDueDate, sub.Frequency)
	if err != nil {
		outcome.Status = StatusError
		outcome.Reason = err.Error()
		return outcome
	}

	var alreadyProcessed bool
	var posted core.Transaction

	err = p.store.InTx(ctx, func(tx *store.Store) error {
		// Claim the due date first. Losing the claim means another run is
		// handling this period; the rollback then discards nothing.
		ok, err := tx.AdvanceDueDateIfUnchanged(ctx, sub.ID, sub.NextDueDate, next)
		if err != nil {
			return err
		}
		if !ok {
			alreadyProcessed = true
			return nil
		}

		posted, err = ledger.New(tx).Post(ctx, core.Transaction{
			UserID:     sub.UserID,
			AccountID:  sub.AccountID,
			CategoryID: sub.CategoryID,
			PayeeName:  sub.PayeeName,
			Amount:     sub.EstimatedAmount,
			Type:       core.Expense,
			Date:       sub.NextDueDate,
			Memo:       fmt.Sprintf("Recurring payment: %s", sub.PayeeName),
		})
		return err
	})
	if err != nil {
		outcome.Status = StatusError
		outcome.Reason = reasonFor(err)
		return outcome
	}
	if alreadyProcessed {
		outcome.Status = StatusSkipped
		outcome.Reason = ReasonAlreadyProcessed
		return outcome
	}

	outcome.Status = StatusProcessed
	outcome.Amount = posted.Amount
	outcome.TransactionID = posted.ID
	outcome.NextDueDate = next
	return outcome
}

// reasonFor keeps outcome reasons short for the common failure kinds.
func reasonFor(err error) string {
	switch {
	case errors.Is(err, core.ErrNotFound):
		return "account or category not found"
	case errors.Is(err, core.ErrInvalidAmount):
		return "invalid estimated amount"
	default:
		return err.Error()
	}
}
