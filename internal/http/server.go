// Package http exposes the budgeting engine as a JSON API. Identity comes
// from the X-User-ID header set by the gateway after token verification;
// handlers never see an unauthenticated request.
package http

import (
	"log/slog"
	"net/http"
	"time"

	"busta/internal/budget"
	"busta/internal/extract"
	"busta/internal/ingest"
	"busta/internal/ledger"
	"busta/internal/store"
	"busta/internal/subscription"
	"busta/internal/suggest"
)

const userIDHeader = "X-User-ID"

type Server struct {
	mux       *http.ServeMux
	store     *store.Store
	ledger    *ledger.Engine
	budget    *budget.Allocator
	detector  *subscription.Detector
	processor *subscription.Processor
	ingest    *ingest.Service
}

// NewServer wires every service over the shared store. A nil extractor leaves
// ingestion on the regex fallback.
func NewServer(st *store.Store, ext extract.Extractor) *Server {
	engine := ledger.New(st)
	s := &Server{
		mux:       http.NewServeMux(),
		store:     st,
		ledger:    engine,
		budget:    budget.New(st),
		detector:  subscription.NewDetector(st),
		processor: subscription.NewProcessor(st),
		ingest:    ingest.New(st, engine, suggest.New(st), ext),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /healthz", s.handleHealth)

	s.mux.HandleFunc("GET /accounts", s.withUser(s.handleListAccounts))
	s.mux.HandleFunc("POST /accounts", s.withUser(s.handleCreateAccount))
	s.mux.HandleFunc("GET /accounts/{id}", s.withUser(s.handleGetAccount))
	s.mux.HandleFunc("PATCH /accounts/{id}", s.withUser(s.handlePatchAccount))
	s.mux.HandleFunc("DELETE /accounts/{id}", s.withUser(s.handleDeactivateAccount))

	s.mux.HandleFunc("GET /categories/groups", s.withUser(s.handleListCategoryGroups))
	s.mux.HandleFunc("POST /categories/groups", s.withUser(s.handleCreateCategoryGroup))
	s.mux.HandleFunc("GET /categories", s.withUser(s.handleListCategories))
	s.mux.HandleFunc("POST /categories", s.withUser(s.handleCreateCategory))
	s.mux.HandleFunc("GET /categories/{id}", s.withUser(s.handleGetCategory))
	s.mux.HandleFunc("PATCH /categories/{id}", s.withUser(s.handlePatchCategory))
	s.mux.HandleFunc("DELETE /categories/{id}", s.withUser(s.handleHideCategory))
	s.mux.HandleFunc("POST /categories/{id}/assign", s.withUser(s.handleAssign))

	s.mux.HandleFunc("GET /transactions", s.withUser(s.handleListTransactions))
	s.mux.HandleFunc("POST /transactions", s.withUser(s.handlePostTransaction))
	s.mux.HandleFunc("GET /transactions/{id}", s.withUser(s.handleGetTransaction))
	s.mux.HandleFunc("PATCH /transactions/{id}", s.withUser(s.handleAmendTransaction))
	s.mux.HandleFunc("DELETE /transactions/{id}", s.withUser(s.handleVoidTransaction))

	s.mux.HandleFunc("GET /budget/summary", s.withUser(s.handleBudgetSummary))
	s.mux.HandleFunc("POST /budget/move", s.withUser(s.handleBudgetMove))

	s.mux.HandleFunc("POST /subscriptions/detect", s.withUser(s.handleDetectSubscriptions))
	s.mux.HandleFunc("GET /subscriptions/upcoming", s.withUser(s.handleUpcomingSubscriptions))
	s.mux.HandleFunc("POST /subscriptions", s.withUser(s.handleCreateSubscription))
	s.mux.HandleFunc("POST /subscriptions/{id}/advance", s.withUser(s.handleAdvanceSubscription))
	s.mux.HandleFunc("POST /subscriptions/process", s.withUser(s.handleProcessSubscriptions))

	s.mux.HandleFunc("POST /ingest/sms", s.withUser(s.handleIngestSMS))
	s.mux.HandleFunc("GET /ingest/pending", s.withUser(s.handleListPending))
	s.mux.HandleFunc("POST /ingest/pending/{id}/approve", s.withUser(s.handleApprovePending))
	s.mux.HandleFunc("POST /ingest/pending/{id}/reject", s.withUser(s.handleRejectPending))
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	s.mux.ServeHTTP(w, r)
	slog.InfoContext(r.Context(), "Request handled",
		"method", r.Method,
		"path", r.URL.Path,
		"duration_ms", time.Since(start).Milliseconds())
}

// withUser extracts the owner id from the gateway header. No header, no
// access.
func (s *Server) withUser(next func(http.ResponseWriter, *http.Request, string)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := r.Header.Get(userIDHeader)
		if userID == "" {
			writeJSON(w, http.StatusUnauthorized, errorBody{Error: "missing " + userIDHeader + " header"})
			return
		}
		next(w, r, userID)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
