// Package extract turns raw ingested text (bank SMS, receipts) into a
// structured transaction candidate. Extraction itself is an external concern;
// this package defines the boundary and ships a deterministic regex fallback
// so ingestion keeps working when the external extractor is down.
package extract

import (
	"context"

	"busta/internal/core"
)

// Category is the id/name pair handed to extractors so they can suggest one
// of the caller's own categories.
type Category struct {
	ID   string
	Name string
}

// Result is the structured candidate an extractor produces. IsTransaction
// false means the text is not a money movement at all (OTP codes, balance
// notices) and must not become a pending transaction.
type Result struct {
	Payee         string
	Amount        core.Money
	Date          core.Date
	Type          core.TransactionType
	CategoryID    string
	CategoryName  string
	IsTransaction bool
	Confidence    float64
}

// Extractor parses raw text into a transaction candidate. Implementations
// return an error only for infrastructure failures; text that simply is not a
// transaction comes back as a Result with IsTransaction false.
type Extractor interface {
	Extract(ctx context.Context, text string, categories []Category) (Result, error)
}
