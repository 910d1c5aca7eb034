package http

import (
	"net/http"

	"busta/internal/core"
)

func (s *Server) handleBudgetSummary(w http.ResponseWriter, r *http.Request, userID string) {
	summary, err := s.budget.Summary(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleBudgetMove(w http.ResponseWriter, r *http.Request, userID string) {
	var req struct {
		FromCategoryID string     `json:"from_category_id"`
		ToCategoryID   string     `json:"to_category_id"`
		Amount         core.Money `json:"amount"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	from, to, err := s.budget.Move(r.Context(), userID, req.FromCategoryID, req.ToCategoryID, req.Amount)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]core.Category{
		"from_category": from,
		"to_category":   to,
	})
}
