package http

import (
	"net/http"
	"strings"

	"busta/internal/core"
	"busta/internal/ledger"
	"busta/internal/store"
)

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request, userID string) {
	filter := store.TransactionFilter{
		AccountID:  r.URL.Query().Get("account_id"),
		CategoryID: r.URL.Query().Get("category_id"),
		Type:       core.TransactionType(r.URL.Query().Get("type")),
		Limit:      queryInt(r, "limit", 100),
		Offset:     queryInt(r, "offset", 0),
	}
	if v := strings.TrimSpace(r.URL.Query().Get("start_date")); v != "" {
		d, err := core.ParseDate(v)
		if err != nil {
			writeError(w, r, err)
			return
		}
		filter.StartDate = d
	}
	if v := strings.TrimSpace(r.URL.Query().Get("end_date")); v != "" {
		d, err := core.ParseDate(v)
		if err != nil {
			writeError(w, r, err)
			return
		}
		filter.EndDate = d
	}

	transactions, err := s.store.ListTransactions(r.Context(), userID, filter)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if transactions == nil {
		transactions = []core.Transaction{}
	}
	writeJSON(w, http.StatusOK, transactions)
}

func (s *Server) handlePostTransaction(w http.ResponseWriter, r *http.Request, userID string) {
	var req struct {
		AccountID  string               `json:"account_id"`
		CategoryID string               `json:"category_id"`
		PayeeName  string               `json:"payee_name"`
		Amount     core.Money           `json:"amount"`
		Type       core.TransactionType `json:"transaction_type"`
		Date       core.Date            `json:"transaction_date"`
		Memo       string               `json:"memo"`
		Cleared    bool                 `json:"is_cleared"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	posted, err := s.ledger.Post(r.Context(), core.Transaction{
		UserID:     userID,
		AccountID:  req.AccountID,
		CategoryID: req.CategoryID,
		PayeeName:  req.PayeeName,
		Amount:     req.Amount,
		Type:       req.Type,
		Date:       req.Date,
		Memo:       req.Memo,
		Cleared:    req.Cleared,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, posted)
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request, userID string) {
	transaction, err := s.store.GetTransaction(r.Context(), userID, r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, transaction)
}

func (s *Server) handleAmendTransaction(w http.ResponseWriter, r *http.Request, userID string) {
	var req struct {
		AccountID  *string               `json:"account_id"`
		CategoryID *string               `json:"category_id"`
		PayeeName  *string               `json:"payee_name"`
		Amount     *core.Money           `json:"amount"`
		Type       *core.TransactionType `json:"transaction_type"`
		Date       *core.Date            `json:"transaction_date"`
		Memo       *string               `json:"memo"`
		Cleared    *bool                 `json:"is_cleared"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	amended, err := s.ledger.Amend(r.Context(), userID, r.PathValue("id"), ledger.Patch{
		AccountID:  req.AccountID,
		CategoryID: req.CategoryID,
		PayeeName:  req.PayeeName,
		Amount:     req.Amount,
		Type:       req.Type,
		Date:       req.Date,
		Memo:       req.Memo,
		Cleared:    req.Cleared,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, amended)
}

func (s *Server) handleVoidTransaction(w http.ResponseWriter, r *http.Request, userID string) {
	if err := s.ledger.Void(r.Context(), userID, r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
