package http

import (
	"net/http"

	"busta/internal/core"
	"busta/internal/subscription"
)

func (s *Server) handleDetectSubscriptions(w http.ResponseWriter, r *http.Request, userID string) {
	candidates, err := s.detector.Detect(r.Context(), userID, queryInt(r, "lookback_days", 0))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if candidates == nil {
		candidates = []subscription.Candidate{}
	}
	writeJSON(w, http.StatusOK, candidates)
}

func (s *Server) handleUpcomingSubscriptions(w http.ResponseWriter, r *http.Request, userID string) {
	upcoming, err := s.processor.Upcoming(r.Context(), userID, queryInt(r, "days", 0))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if upcoming == nil {
		upcoming = []subscription.Upcoming{}
	}
	writeJSON(w, http.StatusOK, upcoming)
}

// handleCreateSubscription confirms a detected candidate (or a manual entry)
// as a tracked subscription.
func (s *Server) handleCreateSubscription(w http.ResponseWriter, r *http.Request, userID string) {
	var req struct {
		PayeeName       string         `json:"payee_name"`
		EstimatedAmount core.Money     `json:"estimated_amount"`
		NextDueDate     core.Date      `json:"next_due_date"`
		Frequency       core.Frequency `json:"frequency"`
		CategoryID      string         `json:"category_id"`
		AccountID       string         `json:"account_id"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.PayeeName == "" {
		writeError(w, r, core.ErrEmptyPayee)
		return
	}
	if !req.Frequency.Valid() {
		writeError(w, r, core.ErrInvalidFrequency)
		return
	}
	if err := req.EstimatedAmount.Validate(); err != nil {
		writeError(w, r, err)
		return
	}
	if req.NextDueDate.IsZero() {
		writeError(w, r, core.ErrInvalidDate)
		return
	}

	sub := core.Subscription{
		UserID:          userID,
		PayeeName:       req.PayeeName,
		EstimatedAmount: req.EstimatedAmount,
		NextDueDate:     req.NextDueDate,
		Frequency:       req.Frequency,
		CategoryID:      req.CategoryID,
		AccountID:       req.AccountID,
		Active:          true,
	}
	if err := s.store.InsertSubscription(r.Context(), &sub); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, sub)
}

func (s *Server) handleAdvanceSubscription(w http.ResponseWriter, r *http.Request, userID string) {
	sub, err := s.processor.Advance(r.Context(), userID, r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sub)
}

func (s *Server) handleProcessSubscriptions(w http.ResponseWriter, r *http.Request, userID string) {
	outcomes, err := s.processor.ProcessDue(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if outcomes == nil {
		outcomes = []subscription.Outcome{}
	}
	writeJSON(w, http.StatusOK, outcomes)
}
