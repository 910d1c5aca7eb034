package budget

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"busta/internal/core"
	"busta/internal/store"
)

func newAllocator(t *testing.T) (*Allocator, *store.Store) {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "busta.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return New(s), s
}

func TestSummary(t *testing.T) {
	a, s := newAllocator(t)
	ctx := context.Background()

	acc := core.Account{UserID: "u1", Name: "Main", Type: core.Checking, Balance: core.MoneyFromCents(100000), Active: true}
	if err := s.CreateAccount(ctx, &acc); err != nil {
		t.Fatal(err)
	}
	cat := core.Category{UserID: "u1", Name: "Rent"}
	if err := s.CreateCategory(ctx, &cat); err != nil {
		t.Fatal(err)
	}

	if _, err := a.Assign(ctx, "u1", cat.ID, core.MoneyFromCents(30000)); err != nil {
		t.Fatal(err)
	}

	summary, err := a.Summary(ctx, "u1")
	if err != nil {
		t.Fatal(err)
	}
	// 1000.00 in accounts, 300.00 assigned -> 700.00 to be budgeted
	if summary.ToBeBudgeted.Cents() != 70000 {
		t.Fatalf("to_be_budgeted: %s", summary.ToBeBudgeted)
	}
	if summary.TotalBalance.Cents() != 100000 || summary.TotalAssigned.Cents() != 30000 {
		t.Fatalf("summary: %+v", summary)
	}
}

func TestSummaryIgnoresInactiveAndHidden(t *testing.T) {
	a, s := newAllocator(t)
	ctx := context.Background()

	active := core.Account{UserID: "u1", Name: "Main", Type: core.Checking, Balance: core.MoneyFromCents(50000), Active: true}
	closed := core.Account{UserID: "u1", Name: "Old", Type: core.Savings, Balance: core.MoneyFromCents(99999), Active: false}
	for _, acc := range []*core.Account{&active, &closed} {
		if err := s.CreateAccount(ctx, acc); err != nil {
			t.Fatal(err)
		}
	}
	visible := core.Category{UserID: "u1", Name: "Food", Assigned: core.MoneyFromCents(10000)}
	hidden := core.Category{UserID: "u1", Name: "Gone", Assigned: core.MoneyFromCents(7777), Hidden: true}
	for _, c := range []*core.Category{&visible, &hidden} {
		if err := s.CreateCategory(ctx, c); err != nil {
			t.Fatal(err)
		}
	}

	summary, err := a.Summary(ctx, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if summary.TotalBalance.Cents() != 50000 {
		t.Fatalf("inactive account counted: %s", summary.TotalBalance)
	}
	if summary.TotalAssigned.Cents() != 10000 {
		t.Fatalf("hidden category counted: %s", summary.TotalAssigned)
	}
	if summary.ToBeBudgeted.Cents() != 40000 {
		t.Fatalf("to_be_budgeted: %s", summary.ToBeBudgeted)
	}
}

func TestMoveConservesTotal(t *testing.T) {
	a, s := newAllocator(t)
	ctx := context.Background()

	from := core.Category{UserID: "u1", Name: "Dining", Assigned: core.MoneyFromCents(20000)}
	to := core.Category{UserID: "u1", Name: "Savings", Assigned: core.MoneyFromCents(5000)}
	for _, c := range []*core.Category{&from, &to} {
		if err := s.CreateCategory(ctx, c); err != nil {
			t.Fatal(err)
		}
	}

	gotFrom, gotTo, err := a.Move(ctx, "u1", from.ID, to.ID, core.MoneyFromCents(7500))
	if err != nil {
		t.Fatal(err)
	}
	if gotFrom.Assigned.Cents() != 12500 || gotTo.Assigned.Cents() != 12500 {
		t.Fatalf("after move: from=%d to=%d", gotFrom.Assigned.Cents(), gotTo.Assigned.Cents())
	}
	if gotFrom.Assigned.Cents()+gotTo.Assigned.Cents() != 25000 {
		t.Fatal("move must conserve the assigned total")
	}
}

func TestMoveRejections(t *testing.T) {
	a, s := newAllocator(t)
	ctx := context.Background()

	from := core.Category{UserID: "u1", Name: "Dining", Assigned: core.MoneyFromCents(1000)}
	to := core.Category{UserID: "u1", Name: "Savings"}
	for _, c := range []*core.Category{&from, &to} {
		if err := s.CreateCategory(ctx, c); err != nil {
			t.Fatal(err)
		}
	}

	if _, _, err := a.Move(ctx, "u1", from.ID, to.ID, core.MoneyFromCents(0)); !errors.Is(err, core.ErrInvalidAmount) {
		t.Fatalf("zero amount: got %v", err)
	}
	if _, _, err := a.Move(ctx, "u1", from.ID, from.ID, core.MoneyFromCents(100)); !errors.Is(err, core.ErrSameCategory) {
		t.Fatalf("same category: got %v", err)
	}
	if _, _, err := a.Move(ctx, "u1", from.ID, to.ID, core.MoneyFromCents(2000)); !errors.Is(err, core.ErrInsufficientFunds) {
		t.Fatalf("overdraw: got %v", err)
	}
	if _, _, err := a.Move(ctx, "u1", "missing", to.ID, core.MoneyFromCents(100)); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("missing source: got %v", err)
	}

	// Failed moves must leave both envelopes untouched.
	f, _ := s.GetCategory(ctx, "u1", from.ID)
	g, _ := s.GetCategory(ctx, "u1", to.ID)
	if f.Assigned.Cents() != 1000 || g.Assigned.Cents() != 0 {
		t.Fatalf("failed move mutated envelopes: from=%d to=%d", f.Assigned.Cents(), g.Assigned.Cents())
	}
}

func TestAssignNegativeDelta(t *testing.T) {
	a, s := newAllocator(t)
	ctx := context.Background()

	cat := core.Category{UserID: "u1", Name: "Food", Assigned: core.MoneyFromCents(5000)}
	if err := s.CreateCategory(ctx, &cat); err != nil {
		t.Fatal(err)
	}

	got, err := a.Assign(ctx, "u1", cat.ID, core.MoneyFromCents(-2000))
	if err != nil {
		t.Fatal(err)
	}
	if got.Assigned.Cents() != 3000 {
		t.Fatalf("assigned: %d", got.Assigned.Cents())
	}

	if _, err := a.Assign(ctx, "u1", "missing", core.MoneyFromCents(100)); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("missing category: got %v", err)
	}
}
