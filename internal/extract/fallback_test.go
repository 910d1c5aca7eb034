package extract

import (
	"context"
	"testing"

	"busta/internal/core"
)

func TestFallbackExtract(t *testing.T) {
	tests := []struct {
		name          string
		text          string
		wantPayee     string
		wantCents     int64
		wantType      core.TransactionType
		isTransaction bool
	}{
		{
			name:          "purchase with currency prefix",
			text:          "Purchase at Starbucks for SAR 23.50 on 2024-03-01",
			wantPayee:     "Starbucks",
			wantCents:     2350,
			wantType:      core.Expense,
			isTransaction: true,
		},
		{
			name:          "currency suffix and thousands separator",
			text:          "Paid 1,250.00 SAR to Landlord Realty for rent",
			wantPayee:     "Landlord Realty",
			wantCents:     125000,
			wantType:      core.Expense,
			isTransaction: true,
		},
		{
			name:          "amount label",
			text:          "Card transaction. Amount: 99.90. Merchant unknown.",
			wantPayee:     "Unknown",
			wantCents:     9990,
			wantType:      core.Expense,
			isTransaction: true,
		},
		{
			name:          "salary credit is income",
			text:          "Salary deposit received from Acme Corp SAR 8,000.00",
			wantPayee:     "Acme Corp",
			wantCents:     800000,
			wantType:      core.Income,
			isTransaction: true,
		},
		{
			name:          "otp code is not a transaction",
			text:          "Your one-time code is 482910. Do not share it.",
			wantPayee:     "Unknown",
			wantCents:     0,
			wantType:      core.Expense,
			isTransaction: false,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Fallback{}.Extract(context.Background(), tc.text, nil)
			if err != nil {
				t.Fatal(err)
			}
			if got.Payee != tc.wantPayee {
				t.Errorf("payee: %q, want %q", got.Payee, tc.wantPayee)
			}
			if got.Amount.Cents() != tc.wantCents {
				t.Errorf("amount: %d, want %d", got.Amount.Cents(), tc.wantCents)
			}
			if got.Type != tc.wantType {
				t.Errorf("type: %s, want %s", got.Type, tc.wantType)
			}
			if got.IsTransaction != tc.isTransaction {
				t.Errorf("is_transaction: %v", got.IsTransaction)
			}
			if got.Confidence != FallbackConfidence {
				t.Errorf("confidence: %v", got.Confidence)
			}
		})
	}
}

func TestFallbackSuggestsFirstCategory(t *testing.T) {
	categories := []Category{{ID: "c1", Name: "Dining"}, {ID: "c2", Name: "Travel"}}
	got, err := Fallback{}.Extract(context.Background(), "Purchase at Cafe for SAR 10.00", categories)
	if err != nil {
		t.Fatal(err)
	}
	if got.CategoryID != "c1" || got.CategoryName != "Dining" {
		t.Fatalf("suggested category: %q %q", got.CategoryID, got.CategoryName)
	}
}
