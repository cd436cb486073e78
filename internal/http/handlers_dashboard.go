package http

import (
	"log/slog"
	"net/http"

	"spendsense/internal/core"
)

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request, userID string) {
	dash, err := s.ledger.Dashboard(r.Context(), userID)
	if err != nil {
		slog.ErrorContext(r.Context(), "Dashboard failed", "error", err, "user_id", userID)
		writeError(w, r, http.StatusInternalServerError, "dashboard failed")
		return
	}
	writeJSON(w, r, http.StatusOK, dash)
}

func (s *Server) handleStatement(w http.ResponseWriter, r *http.Request, userID string) {
	stmt, err := s.ledger.Statement(r.Context(), userID)
	if err != nil {
		slog.ErrorContext(r.Context(), "Statement failed", "error", err, "user_id", userID)
		writeError(w, r, http.StatusInternalServerError, "statement failed")
		return
	}
	writeJSON(w, r, http.StatusOK, stmt)
}

func (s *Server) handleOrphans(w http.ResponseWriter, r *http.Request, userID string) {
	orphans, err := s.ledger.Orphans(r.Context(), userID)
	if err != nil {
		slog.ErrorContext(r.Context(), "Orphan scan failed", "error", err, "user_id", userID)
		writeError(w, r, http.StatusInternalServerError, "orphan scan failed")
		return
	}
	if orphans == nil {
		orphans = []core.Transaction{}
	}
	writeJSON(w, r, http.StatusOK, orphans)
}

func (s *Server) handleActivity(w http.ResponseWriter, r *http.Request, userID string) {
	entries, err := s.ledger.Activity(r.Context(), userID)
	if err != nil {
		slog.ErrorContext(r.Context(), "Activity list failed", "error", err, "user_id", userID)
		writeError(w, r, http.StatusInternalServerError, "activity list failed")
		return
	}
	if entries == nil {
		entries = []core.ActivityEntry{}
	}
	writeJSON(w, r, http.StatusOK, entries)
}
