package ledger

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"busta/internal/core"
	"busta/internal/store"
)

type fixture struct {
	store   *store.Store
	engine  *Engine
	account core.Account
	cat     core.Category
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "busta.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	ctx := context.Background()
	acc := core.Account{UserID: "u1", Name: "Main", Type: core.Checking, Balance: core.MoneyFromCents(100000), Active: true}
	if err := s.CreateAccount(ctx, &acc); err != nil {
		t.Fatal(err)
	}
	cat := core.Category{UserID: "u1", Name: "Streaming", Assigned: core.MoneyFromCents(10000)}
	if err := s.CreateCategory(ctx, &cat); err != nil {
		t.Fatal(err)
	}
	return &fixture{store: s, engine: New(s), account: acc, cat: cat}
}

func (f *fixture) balances(t *testing.T) (balance, assigned, activity int64) {
	t.Helper()
	ctx := context.Background()
	acc, err := f.store.GetAccount(ctx, "u1", f.account.ID)
	if err != nil {
		t.Fatal(err)
	}
	cat, err := f.store.GetCategory(ctx, "u1", f.cat.ID)
	if err != nil {
		t.Fatal(err)
	}
	return acc.Balance.Cents(), cat.Assigned.Cents(), cat.Activity.Cents()
}

func (f *fixture) expense(cents int64) core.Transaction {
	return core.Transaction{
		UserID:     "u1",
		AccountID:  f.account.ID,
		CategoryID: f.cat.ID,
		PayeeName:  "Netflix",
		Amount:     core.MoneyFromCents(cents),
		Type:       core.Expense,
		Date:       core.NewDate(2024, 1, 15),
	}
}

func TestPostExpense(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	posted, err := f.engine.Post(ctx, f.expense(4900))
	if err != nil {
		t.Fatal(err)
	}
	if posted.ID == "" {
		t.Fatal("expected generated id")
	}

	balance, assigned, activity := f.balances(t)
	if balance != 95100 {
		t.Fatalf("balance: %d", balance)
	}
	if activity != 4900 {
		t.Fatalf("activity: %d", activity)
	}
	// available = assigned - activity must stay recomputable
	if assigned-activity != 5100 {
		t.Fatalf("available: %d", assigned-activity)
	}
}

func TestPostIncomeAndTransfer(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	income := f.expense(20000)
	income.Type = core.Income
	income.CategoryID = ""
	if _, err := f.engine.Post(ctx, income); err != nil {
		t.Fatal(err)
	}
	balance, _, activity := f.balances(t)
	if balance != 120000 {
		t.Fatalf("balance after income: %d", balance)
	}
	if activity != 0 {
		t.Fatalf("income must not touch activity: %d", activity)
	}

	transfer := f.expense(5000)
	transfer.Type = core.Transfer
	if _, err := f.engine.Post(ctx, transfer); err != nil {
		t.Fatal(err)
	}
	balance, _, activity = f.balances(t)
	if balance != 120000 {
		t.Fatalf("transfer must be balance-neutral per leg: %d", balance)
	}
	if activity != 0 {
		t.Fatalf("transfer must not touch activity: %d", activity)
	}
}

func TestPostValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	zero := f.expense(0)
	if _, err := f.engine.Post(ctx, zero); !errors.Is(err, core.ErrInvalidAmount) {
		t.Fatalf("zero amount: got %v", err)
	}

	foreignAccount := f.expense(100)
	foreignAccount.AccountID = "nope"
	if _, err := f.engine.Post(ctx, foreignAccount); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("unknown account: got %v", err)
	}

	foreignCategory := f.expense(100)
	foreignCategory.CategoryID = "nope"
	if _, err := f.engine.Post(ctx, foreignCategory); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("unknown category: got %v", err)
	}

	// A rejected post must leave no trace.
	balance, _, activity := f.balances(t)
	if balance != 100000 || activity != 0 {
		t.Fatalf("rejected posts leaked effects: balance=%d activity=%d", balance, activity)
	}
	txs, err := f.store.ListTransactions(ctx, "u1", store.TransactionFilter{})
	if err != nil {
		t.Fatal(err)
	}
	if len(txs) != 0 {
		t.Fatalf("rejected posts left %d rows", len(txs))
	}
}

func TestPostVoidRoundTrip(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// Repeated post/void cycles must restore the exact starting state.
	for i := 0; i < 5; i++ {
		posted, err := f.engine.Post(ctx, f.expense(3333))
		if err != nil {
			t.Fatal(err)
		}
		if err := f.engine.Void(ctx, "u1", posted.ID); err != nil {
			t.Fatal(err)
		}
	}

	balance, _, activity := f.balances(t)
	if balance != 100000 || activity != 0 {
		t.Fatalf("drift after post/void cycles: balance=%d activity=%d", balance, activity)
	}
}

func TestVoidNotFound(t *testing.T) {
	f := newFixture(t)
	if err := f.engine.Void(context.Background(), "u1", "missing"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("got %v", err)
	}
}

func TestAmendAmountAndCategory(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	posted, err := f.engine.Post(ctx, f.expense(4900))
	if err != nil {
		t.Fatal(err)
	}

	other := core.Category{UserID: "u1", Name: "Entertainment"}
	if err := f.store.CreateCategory(ctx, &other); err != nil {
		t.Fatal(err)
	}

	newAmount := core.MoneyFromCents(5900)
	amended, err := f.engine.Amend(ctx, "u1", posted.ID, Patch{
		Amount:     &newAmount,
		CategoryID: &other.ID,
	})
	if err != nil {
		t.Fatal(err)
	}
	if amended.Amount.Cents() != 5900 || amended.CategoryID != other.ID {
		t.Fatalf("amended: %+v", amended)
	}

	balance, _, oldActivity := f.balances(t)
	if balance != 100000-5900 {
		t.Fatalf("balance after amend: %d", balance)
	}
	if oldActivity != 0 {
		t.Fatalf("old category must be fully reversed: %d", oldActivity)
	}
	newCat, _ := f.store.GetCategory(ctx, "u1", other.ID)
	if newCat.Activity.Cents() != 5900 {
		t.Fatalf("new category activity: %d", newCat.Activity.Cents())
	}
}

func TestAmendTypeChange(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	posted, err := f.engine.Post(ctx, f.expense(1000))
	if err != nil {
		t.Fatal(err)
	}

	income := core.Income
	empty := ""
	if _, err := f.engine.Amend(ctx, "u1", posted.ID, Patch{Type: &income, CategoryID: &empty}); err != nil {
		t.Fatal(err)
	}

	balance, _, activity := f.balances(t)
	if balance != 101000 {
		t.Fatalf("balance after expense->income amend: %d", balance)
	}
	if activity != 0 {
		t.Fatalf("activity after amend away from expense: %d", activity)
	}
}

func TestAmendInvalidPatchLeavesStateIntact(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	posted, err := f.engine.Post(ctx, f.expense(4900))
	if err != nil {
		t.Fatal(err)
	}

	bad := core.MoneyFromCents(-100)
	if _, err := f.engine.Amend(ctx, "u1", posted.ID, Patch{Amount: &bad}); !errors.Is(err, core.ErrInvalidAmount) {
		t.Fatalf("got %v", err)
	}

	balance, _, activity := f.balances(t)
	if balance != 95100 || activity != 4900 {
		t.Fatalf("failed amend mutated state: balance=%d activity=%d", balance, activity)
	}
}

func TestCrossOwnerIsNotFound(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	posted, err := f.engine.Post(ctx, f.expense(4900))
	if err != nil {
		t.Fatal(err)
	}

	if err := f.engine.Void(ctx, "intruder", posted.ID); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("cross-owner void: got %v", err)
	}
	if _, err := f.engine.Amend(ctx, "intruder", posted.ID, Patch{}); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("cross-owner amend: got %v", err)
	}
}
