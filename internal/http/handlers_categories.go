package http

import (
	"net/http"

	"busta/internal/core"
	"busta/internal/store"
)

func (s *Server) handleListCategoryGroups(w http.ResponseWriter, r *http.Request, userID string) {
	groups, err := s.store.ListCategoryGroups(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if groups == nil {
		groups = []core.CategoryGroup{}
	}
	writeJSON(w, http.StatusOK, groups)
}

func (s *Server) handleCreateCategoryGroup(w http.ResponseWriter, r *http.Request, userID string) {
	var req struct {
		Name      string `json:"name"`
		SortOrder int    `json:"sort_order"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.Name == "" {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "name is required"})
		return
	}

	group := core.CategoryGroup{UserID: userID, Name: req.Name, SortOrder: req.SortOrder}
	if err := s.store.CreateCategoryGroup(r.Context(), &group); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, group)
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request, userID string) {
	categories, err := s.store.ListCategories(r.Context(), userID, !queryBool(r, "include_hidden"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if categories == nil {
		categories = []core.Category{}
	}
	writeJSON(w, http.StatusOK, categories)
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request, userID string) {
	var req struct {
		Name      string `json:"name"`
		GroupID   string `json:"group_id"`
		SortOrder int    `json:"sort_order"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.Name == "" {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "name is required"})
		return
	}

	category := core.Category{UserID: userID, Name: req.Name, GroupID: req.GroupID, SortOrder: req.SortOrder}
	if err := s.store.CreateCategory(r.Context(), &category); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, category)
}

func (s *Server) handleGetCategory(w http.ResponseWriter, r *http.Request, userID string) {
	category, err := s.store.GetCategory(r.Context(), userID, r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, category)
}

func (s *Server) handlePatchCategory(w http.ResponseWriter, r *http.Request, userID string) {
	var req struct {
		Name      *string `json:"name"`
		GroupID   *string `json:"group_id"`
		SortOrder *int    `json:"sort_order"`
		Hidden    *bool   `json:"is_hidden"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	category, err := s.store.UpdateCategory(r.Context(), userID, r.PathValue("id"), store.CategoryPatch{
		Name:      req.Name,
		GroupID:   req.GroupID,
		SortOrder: req.SortOrder,
		Hidden:    req.Hidden,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, category)
}

func (s *Server) handleHideCategory(w http.ResponseWriter, r *http.Request, userID string) {
	if err := s.store.HideCategory(r.Context(), userID, r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleAssign adds (or with a negative amount, removes) budget in one
// envelope.
func (s *Server) handleAssign(w http.ResponseWriter, r *http.Request, userID string) {
	var req struct {
		Amount core.Money `json:"amount"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	category, err := s.budget.Assign(r.Context(), userID, r.PathValue("id"), req.Amount)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, category)
}
