package http

import (
	"errors"
	"log/slog"
	"net/http"

	"spendsense/internal/core"
)

func (s *Server) handleListGroups(w http.ResponseWriter, r *http.Request, userID string) {
	groups, err := s.ledger.ListGroups(r.Context(), userID)
	if err != nil {
		slog.ErrorContext(r.Context(), "List groups failed", "error", err, "user_id", userID)
		writeError(w, r, http.StatusInternalServerError, "list groups failed")
		return
	}
	writeJSON(w, r, http.StatusOK, groups)
}

func (s *Server) handleAddGroup(w http.ResponseWriter, r *http.Request, userID string) {
	var req struct {
		Name      string         `json:"name"`
		Direction core.Direction `json:"type"`
	}
	if err := readJSON(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := req.Direction.Validate(); err != nil {
		writeError(w, r, http.StatusUnprocessableEntity, "type must be DEBIT or CREDIT")
		return
	}

	g, err := s.ledger.AddGroup(r.Context(), userID, sanitizeInput(req.Name), req.Direction)
	if errors.Is(err, core.ErrEmptyName) {
		writeError(w, r, http.StatusUnprocessableEntity, "group name is required")
		return
	}
	if err != nil {
		slog.ErrorContext(r.Context(), "Add group failed", "error", err, "user_id", userID)
		writeError(w, r, http.StatusInternalServerError, "add group failed")
		return
	}
	writeJSON(w, r, http.StatusCreated, g)
}

func (s *Server) handleDeleteGroup(w http.ResponseWriter, r *http.Request, userID string) {
	if err := s.ledger.DeleteGroup(r.Context(), userID, r.PathValue("id")); err != nil {
		slog.ErrorContext(r.Context(), "Delete group failed", "error", err, "user_id", userID)
		writeError(w, r, http.StatusInternalServerError, "delete group failed")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAddSubgroup(w http.ResponseWriter, r *http.Request, userID string) {
	var req struct {
		Name string `json:"name"`
	}
	if err := readJSON(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}

	sub, err := s.ledger.AddSubgroup(r.Context(), userID, r.PathValue("id"), sanitizeInput(req.Name))
	if err != nil {
		slog.ErrorContext(r.Context(), "Add subgroup failed", "error", err, "user_id", userID)
		writeError(w, r, http.StatusInternalServerError, "add sub-group failed")
		return
	}
	if sub.ID == "" {
		// Blank name or unknown group: the operation is a defined no-op.
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, r, http.StatusCreated, sub)
}

func (s *Server) handleDeleteSubgroup(w http.ResponseWriter, r *http.Request, userID string) {
	err := s.ledger.DeleteSubgroup(r.Context(), userID, r.PathValue("id"), r.PathValue("subId"))
	if err != nil {
		slog.ErrorContext(r.Context(), "Delete subgroup failed", "error", err, "user_id", userID)
		writeError(w, r, http.StatusInternalServerError, "delete sub-group failed")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
