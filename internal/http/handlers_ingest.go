package http

import (
	"net/http"

	"busta/internal/core"
	"busta/internal/ingest"
)

func (s *Server) handleIngestSMS(w http.ResponseWriter, r *http.Request, userID string) {
	var req struct {
		Body string `json:"sms_body"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.Body == "" {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "sms_body is required"})
		return
	}

	pending, err := s.ingest.IngestText(r.Context(), userID, req.Body, "sms")
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, pending)
}

func (s *Server) handleListPending(w http.ResponseWriter, r *http.Request, userID string) {
	status := r.URL.Query().Get("status")
	if status == "" {
		status = core.PendingStatusPending
	}
	if status == "all" {
		status = ""
	}

	entries, err := s.ingest.Pending(r.Context(), userID, status)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if entries == nil {
		entries = []core.PendingTransaction{}
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) handleApprovePending(w http.ResponseWriter, r *http.Request, userID string) {
	var approval ingest.Approval
	if err := decodeJSON(r, &approval); err != nil {
		writeError(w, r, err)
		return
	}

	posted, err := s.ingest.Approve(r.Context(), userID, r.PathValue("id"), approval)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, posted)
}

func (s *Server) handleRejectPending(w http.ResponseWriter, r *http.Request, userID string) {
	if err := s.ingest.Reject(r.Context(), userID, r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": core.PendingStatusRejected})
}
