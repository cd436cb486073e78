package http

import (
	"errors"
	"log/slog"
	"net/http"

	"spendsense/internal/importer"
	"spendsense/internal/services"
)

func (s *Server) handleImportTemplates(w http.ResponseWriter, r *http.Request, _ string) {
	writeJSON(w, r, http.StatusOK, importer.MockSMSTemplates)
}

func (s *Server) handleImportPending(w http.ResponseWriter, r *http.Request, userID string) {
	writeJSON(w, r, http.StatusOK, s.importer.Pending(userID))
}

func (s *Server) handleImportScan(w http.ResponseWriter, r *http.Request, userID string) {
	var req struct {
		Message string `json:"message"`
	}
	if err := readJSON(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}

	pd, err := s.importer.Scan(r.Context(), userID, req.Message)
	if errors.Is(err, importer.ErrEmptyMessage) {
		writeError(w, r, http.StatusUnprocessableEntity, "message is empty")
		return
	}
	if err != nil {
		// Upstream model failures surface as a gateway error so clients can
		// offer a retry.
		slog.ErrorContext(r.Context(), "Import scan failed", "error", err, "user_id", userID)
		writeError(w, r, http.StatusBadGateway, "message extraction failed")
		return
	}
	writeJSON(w, r, http.StatusOK, pd)
}

func (s *Server) handleImportConfirm(w http.ResponseWriter, r *http.Request, userID string) {
	var in services.ConfirmInput
	if err := readJSON(r, &in); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}

	id, err := s.importer.Confirm(r.Context(), userID, r.PathValue("id"), in)
	if errors.Is(err, services.ErrDraftNotFound) {
		writeError(w, r, http.StatusNotFound, "draft not found")
		return
	}
	if err != nil {
		if isValidationError(err) {
			writeError(w, r, http.StatusUnprocessableEntity, err.Error())
			return
		}
		slog.ErrorContext(r.Context(), "Import confirm failed", "error", err, "user_id", userID)
		writeError(w, r, http.StatusInternalServerError, "confirm failed")
		return
	}
	writeJSON(w, r, http.StatusCreated, map[string]string{"id": id})
}

func (s *Server) handleImportSkip(w http.ResponseWriter, r *http.Request, userID string) {
	id, err := s.importer.Skip(r.Context(), userID, r.PathValue("id"))
	if errors.Is(err, services.ErrDraftNotFound) {
		writeError(w, r, http.StatusNotFound, "draft not found")
		return
	}
	if err != nil {
		slog.ErrorContext(r.Context(), "Import skip failed", "error", err, "user_id", userID)
		writeError(w, r, http.StatusInternalServerError, "skip failed")
		return
	}
	writeJSON(w, r, http.StatusCreated, map[string]string{"id": id})
}

func (s *Server) handleImportDiscard(w http.ResponseWriter, r *http.Request, userID string) {
	if err := s.importer.Discard(userID, r.PathValue("id")); err != nil {
		writeError(w, r, http.StatusNotFound, "draft not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
