package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"busta/internal/core"
	"busta/internal/store"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "busta.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return NewServer(s, nil)
}

// do runs a request as user u1 and decodes the JSON response into out when
// out is non-nil.
func do(t *testing.T, srv *Server, method, path string, body any, out any) *httptest.ResponseRecorder {
	t.Helper()
	var payload bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&payload).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &payload)
	req.Header.Set("X-User-ID", "u1")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	if out != nil && rec.Code < 300 {
		if err := json.Unmarshal(rec.Body.Bytes(), out); err != nil {
			t.Fatalf("decode %s %s response: %v\n%s", method, path, err, rec.Body.String())
		}
	}
	return rec
}

func createAccount(t *testing.T, srv *Server, balanceCents int64) core.Account {
	t.Helper()
	var account core.Account
	rec := do(t, srv, http.MethodPost, "/accounts", map[string]any{
		"name":         "Main",
		"account_type": "checking",
		"balance":      fmt.Sprintf("%d.%02d", balanceCents/100, balanceCents%100),
	}, &account)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create account: %d %s", rec.Code, rec.Body.String())
	}
	return account
}

func createCategory(t *testing.T, srv *Server, name string) core.Category {
	t.Helper()
	var category core.Category
	rec := do(t, srv, http.MethodPost, "/categories", map[string]any{"name": name}, &category)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create category: %d %s", rec.Code, rec.Body.String())
	}
	return category
}

func TestAuthRequired(t *testing.T) {
	srv := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/accounts", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("got %d", rec.Code)
	}
}

func TestHealthNeedsNoAuth(t *testing.T) {
	srv := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("got %d", rec.Code)
	}
}

func TestAccountLifecycle(t *testing.T) {
	srv := newTestServer(t)

	account := createAccount(t, srv, 100000)
	if account.ID == "" || !account.Active {
		t.Fatalf("account: %+v", account)
	}

	var fetched core.Account
	if rec := do(t, srv, http.MethodGet, "/accounts/"+account.ID, nil, &fetched); rec.Code != http.StatusOK {
		t.Fatalf("get: %d", rec.Code)
	}
	if fetched.Balance.Cents() != 100000 {
		t.Fatalf("balance: %s", fetched.Balance)
	}

	var patched core.Account
	rec := do(t, srv, http.MethodPatch, "/accounts/"+account.ID, map[string]any{"name": "Primary"}, &patched)
	if rec.Code != http.StatusOK || patched.Name != "Primary" {
		t.Fatalf("patch: %d %+v", rec.Code, patched)
	}

	if rec := do(t, srv, http.MethodDelete, "/accounts/"+account.ID, nil, nil); rec.Code != http.StatusNoContent {
		t.Fatalf("deactivate: %d", rec.Code)
	}

	if rec := do(t, srv, http.MethodGet, "/accounts/missing", nil, nil); rec.Code != http.StatusNotFound {
		t.Fatalf("missing account: %d", rec.Code)
	}
}

func TestTransactionAndBudgetFlow(t *testing.T) {
	srv := newTestServer(t)
	account := createAccount(t, srv, 100000)
	groceries := createCategory(t, srv, "Groceries")
	dining := createCategory(t, srv, "Dining")

	// Fund the groceries envelope.
	var funded core.Category
	rec := do(t, srv, http.MethodPost, "/categories/"+groceries.ID+"/assign", map[string]any{"amount": "300.00"}, &funded)
	if rec.Code != http.StatusOK || funded.Assigned.Cents() != 30000 {
		t.Fatalf("assign: %d %+v", rec.Code, funded)
	}

	// Post an expense against it.
	var posted core.Transaction
	rec = do(t, srv, http.MethodPost, "/transactions", map[string]any{
		"account_id":       account.ID,
		"category_id":      groceries.ID,
		"payee_name":       "Carrefour",
		"amount":           "45.50",
		"transaction_type": "expense",
		"transaction_date": "2024-03-01",
	}, &posted)
	if rec.Code != http.StatusCreated {
		t.Fatalf("post: %d %s", rec.Code, rec.Body.String())
	}

	var summary struct {
		ToBeBudgeted core.Money `json:"to_be_budgeted"`
		TotalBalance core.Money `json:"total_balance"`
	}
	rec = do(t, srv, http.MethodGet, "/budget/summary", nil, &summary)
	if rec.Code != http.StatusOK {
		t.Fatalf("summary: %d", rec.Code)
	}
	// balance 954.50, assigned 300.00
	if summary.TotalBalance.Cents() != 95450 || summary.ToBeBudgeted.Cents() != 65450 {
		t.Fatalf("summary: %+v", summary)
	}

	// Move within the envelopes.
	rec = do(t, srv, http.MethodPost, "/budget/move", map[string]any{
		"from_category_id": groceries.ID,
		"to_category_id":   dining.ID,
		"amount":           "100.00",
	}, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("move: %d %s", rec.Code, rec.Body.String())
	}

	// Overdrawing the source envelope is a 400.
	rec = do(t, srv, http.MethodPost, "/budget/move", map[string]any{
		"from_category_id": groceries.ID,
		"to_category_id":   dining.ID,
		"amount":           "900.00",
	}, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("overdraw move: %d", rec.Code)
	}

	// Void restores the balance.
	if rec := do(t, srv, http.MethodDelete, "/transactions/"+posted.ID, nil, nil); rec.Code != http.StatusNoContent {
		t.Fatalf("void: %d", rec.Code)
	}
	rec = do(t, srv, http.MethodGet, "/budget/summary", nil, &summary)
	if rec.Code != http.StatusOK || summary.TotalBalance.Cents() != 100000 {
		t.Fatalf("summary after void: %+v", summary)
	}
}

func TestPostTransactionValidation(t *testing.T) {
	srv := newTestServer(t)
	account := createAccount(t, srv, 50000)

	rec := do(t, srv, http.MethodPost, "/transactions", map[string]any{
		"account_id":       account.ID,
		"payee_name":       "Nobody",
		"amount":           "0.00",
		"transaction_type": "expense",
		"transaction_date": "2024-03-01",
	}, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("zero amount: %d", rec.Code)
	}

	rec = do(t, srv, http.MethodPost, "/transactions", map[string]any{
		"account_id":       "missing",
		"payee_name":       "Nobody",
		"amount":           "10.00",
		"transaction_type": "expense",
		"transaction_date": "2024-03-01",
	}, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("missing account: %d", rec.Code)
	}
}

func TestIngestFlow(t *testing.T) {
	srv := newTestServer(t)
	account := createAccount(t, srv, 100000)
	dining := createCategory(t, srv, "Dining")

	// Non-transaction text is a 422.
	rec := do(t, srv, http.MethodPost, "/ingest/sms", map[string]any{
		"sms_body": "Your one-time code is 482910",
	}, nil)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("otp text: %d", rec.Code)
	}

	var pending core.PendingTransaction
	rec = do(t, srv, http.MethodPost, "/ingest/sms", map[string]any{
		"sms_body": "Purchase at Starbucks for SAR 23.50",
	}, &pending)
	if rec.Code != http.StatusCreated {
		t.Fatalf("ingest: %d %s", rec.Code, rec.Body.String())
	}
	if pending.SuggestedAccountID != account.ID {
		t.Fatalf("suggested account: %q", pending.SuggestedAccountID)
	}

	var inbox []core.PendingTransaction
	rec = do(t, srv, http.MethodGet, "/ingest/pending", nil, &inbox)
	if rec.Code != http.StatusOK || len(inbox) != 1 {
		t.Fatalf("inbox: %d entries=%d", rec.Code, len(inbox))
	}

	var posted core.Transaction
	rec = do(t, srv, http.MethodPost, "/ingest/pending/"+pending.ID+"/approve", map[string]any{
		"category_id": dining.ID,
	}, &posted)
	if rec.Code != http.StatusCreated || posted.Amount.Cents() != 2350 {
		t.Fatalf("approve: %d %+v", rec.Code, posted)
	}

	// Re-approving is a 400.
	rec = do(t, srv, http.MethodPost, "/ingest/pending/"+pending.ID+"/approve", map[string]any{}, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("double approve: %d", rec.Code)
	}
}

func TestSubscriptionEndpoints(t *testing.T) {
	srv := newTestServer(t)
	account := createAccount(t, srv, 100000)

	var sub core.Subscription
	rec := do(t, srv, http.MethodPost, "/subscriptions", map[string]any{
		"payee_name":       "Netflix",
		"estimated_amount": "49.00",
		"next_due_date":    core.Today().AddDays(-1).String(),
		"frequency":        "monthly",
		"account_id":       account.ID,
	}, &sub)
	if rec.Code != http.StatusCreated || sub.ID == "" {
		t.Fatalf("create subscription: %d %s", rec.Code, rec.Body.String())
	}

	var outcomes []map[string]any
	rec = do(t, srv, http.MethodPost, "/subscriptions/process", nil, &outcomes)
	if rec.Code != http.StatusOK || len(outcomes) != 1 {
		t.Fatalf("process: %d %s", rec.Code, rec.Body.String())
	}
	if outcomes[0]["status"] != "processed" {
		t.Fatalf("outcome: %+v", outcomes[0])
	}

	var upcoming []map[string]any
	rec = do(t, srv, http.MethodGet, "/subscriptions/upcoming?days=40", nil, &upcoming)
	if rec.Code != http.StatusOK || len(upcoming) != 1 {
		t.Fatalf("upcoming: %d %s", rec.Code, rec.Body.String())
	}

	rec = do(t, srv, http.MethodPost, "/subscriptions/"+sub.ID+"/advance", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("advance: %d", rec.Code)
	}

	var detected []map[string]any
	rec = do(t, srv, http.MethodPost, "/subscriptions/detect", nil, &detected)
	if rec.Code != http.StatusOK {
		t.Fatalf("detect: %d", rec.Code)
	}
}

func TestInvalidFrequencyIs400(t *testing.T) {
	srv := newTestServer(t)
	rec := do(t, srv, http.MethodPost, "/subscriptions", map[string]any{
		"payee_name":       "Netflix",
		"estimated_amount": "49.00",
		"next_due_date":    "2024-01-01",
		"frequency":        "daily",
	}, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("got %d", rec.Code)
	}
}
