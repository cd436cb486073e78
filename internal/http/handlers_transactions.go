package http

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"spendsense/internal/core"
	"spendsense/internal/ledger"
)

// transactionRequest is the write shape for manual entry. Amount arrives as
// a decimal string ("2500.00"); dates as "YYYY-MM-DD".
type transactionRequest struct {
	Date       string `json:"date"`
	Bank       string `json:"bankName"`
	Direction  string `json:"type"`
	RefNo      string `json:"refNo"`
	GroupID    string `json:"groupId"`
	SubgroupID string `json:"subgroupId"`
	Purpose    string `json:"purpose"`
	Amount     string `json:"amount"`
	Merchant   string `json:"merchant"`
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request, userID string) {
	txs, err := s.ledger.ListTransactions(r.Context(), userID)
	if err != nil {
		slog.ErrorContext(r.Context(), "List transactions failed", "error", err, "user_id", userID)
		writeError(w, r, http.StatusInternalServerError, "list transactions failed")
		return
	}
	if txs == nil {
		txs = []core.Transaction{}
	}
	writeJSON(w, r, http.StatusOK, txs)
}

func (s *Server) handleAddTransaction(w http.ResponseWriter, r *http.Request, userID string) {
	var req transactionRequest
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

	tx := core.Transaction{
		Date:       date,
		Bank:       sanitizeInput(req.Bank),
		Direction:  core.Direction(strings.ToUpper(strings.TrimSpace(req.Direction))),
		RefNo:      sanitizeInput(req.RefNo),
		GroupID:    req.GroupID,
		SubgroupID: req.SubgroupID,
		Purpose:    sanitizeInput(req.Purpose),
		Amount:     core.Money{Cents: cents},
		Merchant:   sanitizeInput(req.Merchant),
	}

	id, err := s.ledger.AddTransaction(r.Context(), userID, tx)
	if err != nil {
		if isValidationError(err) {
			writeError(w, r, http.StatusUnprocessableEntity, err.Error())
			return
		}
		slog.ErrorContext(r.Context(), "Add transaction failed", "error", err, "user_id", userID)
		writeError(w, r, http.StatusInternalServerError, "add transaction failed")
		return
	}
	writeJSON(w, r, http.StatusCreated, map[string]string{"id": id})
}

// transactionPatchRequest mirrors transactionRequest with every field
// optional.
type transactionPatchRequest struct {
	Date       *string `json:"date"`
	Bank       *string `json:"bankName"`
	Direction  *string `json:"type"`
	RefNo      *string `json:"refNo"`
	GroupID    *string `json:"groupId"`
	SubgroupID *string `json:"subgroupId"`
	Purpose    *string `json:"purpose"`
	Amount     *string `json:"amount"`
	Merchant   *string `json:"merchant"`
}

func (s *Server) handleEditTransaction(w http.ResponseWriter, r *http.Request, userID string) {
	var req transactionPatchRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}

	var patch ledger.TransactionPatch
	if req.Date != nil {
		d, err := core.ParseDate(*req.Date)
		if err != nil {
			writeError(w, r, http.StatusUnprocessableEntity, "date must be YYYY-MM-DD")
			return
		}
		patch.Date = &d
	}
	if req.Amount != nil {
		cents, err := core.ParseDecimalToCents(*req.Amount)
		if err != nil {
			writeError(w, r, http.StatusUnprocessableEntity, "invalid amount")
			return
		}
		patch.Amount = &core.Money{Cents: cents}
	}
	if req.Direction != nil {
		dir := core.Direction(strings.ToUpper(strings.TrimSpace(*req.Direction)))
		patch.Direction = &dir
	}
	if req.Bank != nil {
		b := sanitizeInput(*req.Bank)
		patch.Bank = &b
	}
	if req.RefNo != nil {
		v := sanitizeInput(*req.RefNo)
		patch.RefNo = &v
	}
	if req.GroupID != nil {
		patch.GroupID = req.GroupID
	}
	if req.SubgroupID != nil {
		patch.SubgroupID = req.SubgroupID
	}
	if req.Purpose != nil {
		p := sanitizeInput(*req.Purpose)
		patch.Purpose = &p
	}
	if req.Merchant != nil {
		m := sanitizeInput(*req.Merchant)
		patch.Merchant = &m
	}

	ok, err := s.ledger.EditTransaction(r.Context(), userID, r.PathValue("id"), patch)
	if err != nil {
		if isValidationError(err) {
			writeError(w, r, http.StatusUnprocessableEntity, err.Error())
			return
		}
		slog.ErrorContext(r.Context(), "Edit transaction failed", "error", err, "user_id", userID)
		writeError(w, r, http.StatusInternalServerError, "edit transaction failed")
		return
	}
	if !ok {
		writeError(w, r, http.StatusNotFound, "transaction not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request, userID string) {
	ok, err := s.ledger.DeleteTransaction(r.Context(), userID, r.PathValue("id"))
	if err != nil {
		slog.ErrorContext(r.Context(), "Delete transaction failed", "error", err, "user_id", userID)
		writeError(w, r, http.StatusInternalServerError, "delete transaction failed")
		return
	}
	if !ok {
		writeError(w, r, http.StatusNotFound, "transaction not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request, userID string) {
	data, filename, err := s.ledger.ExportCSV(r.Context(), userID)
	if err != nil {
		slog.ErrorContext(r.Context(), "Export failed", "error", err, "user_id", userID)
		writeError(w, r, http.StatusInternalServerError, "export failed")
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// isValidationError reports whether err is one of the domain validation
// sentinels, which map to 422 rather than 500.
func isValidationError(err error) bool {
	for _, sentinel := range []error{
		core.ErrInvalidDate,
		core.ErrInvalidDirection,
		core.ErrInvalidAmount,
		core.ErrEmptyBank,
		core.ErrEmptyMerchant,
		core.ErrEmptyName,
	} {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}
