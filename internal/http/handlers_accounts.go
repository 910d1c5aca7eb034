package http

import (
	"net/http"

	"busta/internal/core"
	"busta/internal/store"
)

func (s *Server) handleListAccounts(w http.ResponseWriter, r *http.Request, userID string) {
	accounts, err := s.store.ListAccounts(r.Context(), userID, queryBool(r, "active_only"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if accounts == nil {
		accounts = []core.Account{}
	}
	writeJSON(w, http.StatusOK, accounts)
}

func (s *Server) handleCreateAccount(w http.ResponseWriter, r *http.Request, userID string) {
	var req struct {
		Name    string           `json:"name"`
		Type    core.AccountType `json:"account_type"`
		Balance core.Money       `json:"balance"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.Name == "" || !req.Type.Valid() {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "name and a valid account_type are required"})
		return
	}

	account := core.Account{
		UserID:  userID,
		Name:    req.Name,
		Type:    req.Type,
		Balance: req.Balance,
		Active:  true,
	}
	if err := s.store.CreateAccount(r.Context(), &account); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, account)
}

func (s *Server) handleGetAccount(w http.ResponseWriter, r *http.Request, userID string) {
	account, err := s.store.GetAccount(r.Context(), userID, r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, account)
}

func (s *Server) handlePatchAccount(w http.ResponseWriter, r *http.Request, userID string) {
	var req struct {
		Name    *string           `json:"name"`
		Type    *core.AccountType `json:"account_type"`
		Balance *core.Money       `json:"balance"`
		Active  *bool             `json:"is_active"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.Type != nil && !req.Type.Valid() {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid account_type"})
		return
	}

	account, err := s.store.UpdateAccount(r.Context(), userID, r.PathValue("id"), store.AccountPatch{
		Name:    req.Name,
		Type:    req.Type,
		Balance: req.Balance,
		Active:  req.Active,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, account)
}

func (s *Server) handleDeactivateAccount(w http.ResponseWriter, r *http.Request, userID string) {
	if err := s.store.DeactivateAccount(r.Context(), userID, r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
