package http

import (
	"log/slog"
	"net/http"

	"spendsense/internal/core"
)

func (s *Server) handleListNotes(w http.ResponseWriter, r *http.Request, userID string) {
	notes, err := s.ledger.ListNotes(r.Context(), userID)
	if err != nil {
		slog.ErrorContext(r.Context(), "List notes failed", "error", err, "user_id", userID)
		writeError(w, r, http.StatusInternalServerError, "list notes failed")
		return
	}
	if notes == nil {
		notes = []core.DailyNote{}
	}
	writeJSON(w, r, http.StatusOK, notes)
}

func (s *Server) handleAddNote(w http.ResponseWriter, r *http.Request, userID string) {
	var req struct {
		Date    string `json:"date"`
		Title   string `json:"title"`
		Content string `json:"content"`
	}
	if err := readJSON(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	date, err := core.ParseDate(req.Date)
	if err != nil {
		writeError(w, r, http.StatusUnprocessableEntity, "date must be YYYY-MM-DD")
		return
	}

	id, err := s.ledger.AddNote(r.Context(), userID, core.DailyNote{
		Date:    date,
		Title:   sanitizeInput(req.Title),
		Content: sanitizeInput(req.Content),
	})
	if err != nil {
		writeError(w, r, http.StatusUnprocessableEntity, err.Error())
		return
	}
	writeJSON(w, r, http.StatusCreated, map[string]string{"id": id})
}

func (s *Server) handleDeleteNote(w http.ResponseWriter, r *http.Request, userID string) {
	ok, err := s.ledger.DeleteNote(r.Context(), userID, r.PathValue("id"))
	if err != nil {
		slog.ErrorContext(r.Context(), "Delete note failed", "error", err, "user_id", userID)
		writeError(w, r, http.StatusInternalServerError, "delete note failed")
		return
	}
	if !ok {
		writeError(w, r, http.StatusNotFound, "note not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListReceivables(w http.ResponseWriter, r *http.Request, userID string) {
	recs, err := s.ledger.ListReceivables(r.Context(), userID)
	if err != nil {
		slog.ErrorContext(r.Context(), "List receivables failed", "error", err, "user_id", userID)
		writeError(w, r, http.StatusInternalServerError, "list receivables failed")
		return
	}
	if recs == nil {
		recs = []core.Receivable{}
	}
	writeJSON(w, r, http.StatusOK, recs)
}

func (s *Server) handleAddReceivable(w http.ResponseWriter, r *http.Request, userID string) {
	var req struct {
		Date       string `json:"date"`
		DebtorName string `json:"debtorName"`
		Amount     string `json:"amount"`
		Purpose    string `json:"purpose"`
		DueDate    string `json:"dueDate"`
	}
	if err := readJSON(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	date, err := core.ParseDate(req.Date)
	if err != nil {
		writeError(w, r, http.StatusUnprocessableEntity, "date must be YYYY-MM-DD")
		return
	}
	cents, err := core.ParseDecimalToCents(req.Amount)
	if err != nil {
		writeError(w, r, http.StatusUnprocessableEntity, "invalid amount")
		return
	}
	rec := core.Receivable{
		Date:       date,
		DebtorName: sanitizeInput(req.DebtorName),
		Amount:     core.Money{Cents: cents},
		Purpose:    sanitizeInput(req.Purpose),
	}
	if req.DueDate != "" {
		due, err := core.ParseDate(req.DueDate)
		if err != nil {
			writeError(w, r, http.StatusUnprocessableEntity, "dueDate must be YYYY-MM-DD")
			return
		}
		rec.DueDate = due
	}

	id, err := s.ledger.AddReceivable(r.Context(), userID, rec)
	if err != nil {
		writeError(w, r, http.StatusUnprocessableEntity, err.Error())
		return
	}
	writeJSON(w, r, http.StatusCreated, map[string]string{"id": id})
}

func (s *Server) handleToggleReceivable(w http.ResponseWriter, r *http.Request, userID string) {
	ok, err := s.ledger.ToggleReceivable(r.Context(), userID, r.PathValue("id"))
	if err != nil {
		slog.ErrorContext(r.Context(), "Toggle receivable failed", "error", err, "user_id", userID)
		writeError(w, r, http.StatusInternalServerError, "toggle receivable failed")
		return
	}
	if !ok {
		writeError(w, r, http.StatusNotFound, "receivable not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeleteReceivable(w http.ResponseWriter, r *http.Request, userID string) {
	ok, err := s.ledger.DeleteReceivable(r.Context(), userID, r.PathValue("id"))
	if err != nil {
		slog.ErrorContext(r.Context(), "Delete receivable failed", "error", err, "user_id", userID)
		writeError(w, r, http.StatusInternalServerError, "delete receivable failed")
		return
	}
	if !ok {
		writeError(w, r, http.StatusNotFound, "receivable not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
