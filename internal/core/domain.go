package core

import (
	"strings"
	"time"
)

const (
	Checking AccountType = "checking"
	Savings  AccountType = "savings"
	Credit   AccountType = "credit"
	Cash     AccountType = "cash"

	Expense  TransactionType = "expense"
	Income   TransactionType = "income"
	Transfer TransactionType = "transfer"

	Weekly  Frequency = "weekly"
	Monthly Frequency = "monthly"
	Yearly  Frequency = "yearly"
)

type (
	AccountType     string
	TransactionType string
	Frequency       string

	// Date is a calendar day without a time component.
	Date struct {
		time.Time
	}

	Account struct {
		ID      string      `json:"id"`
		UserID  string      `json:"user_id"`
		Name    string      `json:"name"`
		Type    AccountType `json:"account_type"`
		Balance Money       `json:"balance"`
		Active  bool        `json:"is_active"`
	}

	CategoryGroup struct {
		ID        string `json:"id"`
		UserID    string `json:"user_id"`
		Name      string `json:"name"`
		SortOrder int    `json:"sort_order"`
	}

	// Category is a budget envelope. Available is derived, never stored.
	Category struct {
		ID        string `json:"id"`
		UserID    string `json:"user_id"`
		GroupID   string `json:"group_id,omitempty"`
		Name      string `json:"name"`
		SortOrder int    `json:"sort_order"`
		Assigned  Money  `json:"assigned_amount"`
		Activity  Money  `json:"activity_amount"`
		Hidden    bool   `json:"is_hidden"`
	}

	Transaction struct {
		ID         string          `json:"id"`
		UserID     string          `json:"user_id"`
		AccountID  string          `json:"account_id"`
		CategoryID string          `json:"category_id,omitempty"`
		PayeeName  string          `json:"payee_name"`
		Amount     Money           `json:"amount"`
		Type       TransactionType `json:"transaction_type"`
		Date       Date            `json:"transaction_date"`
		Memo       string          `json:"memo,omitempty"`
		Cleared    bool            `json:"is_cleared"`
	}

	// Subscription is a confirmed recurring payment. One with no linked
	// account can be listed but never auto-processed.
	Subscription struct {
		ID              string    `json:"id"`
		UserID          string    `json:"user_id"`
		PayeeName       string    `json:"payee_name"`
		EstimatedAmount Money     `json:"estimated_amount"`
		NextDueDate     Date      `json:"next_due_date"`
		Frequency       Frequency `json:"frequency"`
		CategoryID      string    `json:"category_id,omitempty"`
		AccountID       string    `json:"account_id,omitempty"`
		Active          bool      `json:"is_active"`
	}

	// PendingTransaction is an extracted transaction awaiting review.
	PendingTransaction struct {
		ID                  string  `json:"id"`
		UserID              string  `json:"user_id"`
		RawText             string  `json:"raw_text"`
		Source              string  `json:"source"`
		ParsedPayee         string  `json:"parsed_payee"`
		ParsedAmount        Money   `json:"parsed_amount"`
		ParsedDate          Date    `json:"parsed_date"`
		SuggestedAccountID  string  `json:"suggested_account_id,omitempty"`
		SuggestedCategoryID string  `json:"suggested_category_id,omitempty"`
		Confidence          float64 `json:"confidence_score"`
		Status              string  `json:"status"`
	}
)

// Pending transaction review states.
const (
	PendingStatusPending  = "pending"
	PendingStatusApproved = "approved"
	PendingStatusRejected = "rejected"
)

func (t AccountType) Valid() bool {
	switch t {
	case Checking, Savings, Credit, Cash:
		return true
	}
	return false
}

func (t TransactionType) Valid() bool {
	switch t {
	case Expense, Income, Transfer:
		return true
	}
	return false
}

func (f Frequency) Valid() bool {
	switch f {
	case Weekly, Monthly, Yearly:
		return true
	}
	return false
}

// Available is the remaining spendable balance in the envelope.
func (c Category) Available() Money {
	return c.Assigned.Sub(c.Activity)
}

func (t Transaction) Validate() error {
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	if !t.Type.Valid() {
		return ErrInvalidType
	}
	if strings.TrimSpace(t.PayeeName) == "" {
		return ErrEmptyPayee
	}
	if t.Date.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// NewDate creates a Date from year, month and day in UTC.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

// Today returns the current calendar day in UTC.
func Today() Date {
	now := time.Now().UTC()
	return NewDate(now.Year(), int(now.Month()), now.Day())
}

func (d Date) String() string { return d.Format("2006-01-02") }

// AddDays returns the date n days later.
func (d Date) AddDays(n int) Date {
	return Date{Time: d.AddDate(0, 0, n)}
}

// DaysUntil returns the whole days from d to other, negative if past.
func (d Date) DaysUntil(other Date) int {
	return int(other.Sub(d.Time).Hours() / 24)
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "null" || s == "" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
