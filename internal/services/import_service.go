package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"spendsense/internal/core"
	"spendsense/internal/importer"
)

// ErrDraftNotFound is returned when a confirm, skip or discard names a
// draft that was never scanned or was already resolved.
var ErrDraftNotFound = errors.New("draft not found")

// skippedPurpose is the purpose recorded when the user skips categorizing
// an imported transaction.
const skippedPurpose = "Skipped categorization"

// PendingDraft is a scanned message awaiting confirmation.
type PendingDraft struct {
	ID    string     `json:"id"`
	Draft core.Draft `json:"draft"`
}

// ImportService runs the SMS import flow: scan a message into a draft,
// hold it until the user confirms, skips or discards it, and only then
// write a transaction through the ledger service.
type ImportService struct {
	extractor importer.Extractor
	ledger    *LedgerService

	mu      sync.Mutex
	pending map[string]map[string]core.Draft // userID -> draftID -> draft
}

func NewImportService(extractor importer.Extractor, ledger *LedgerService) *ImportService {
	return &ImportService{
		extractor: extractor,
		ledger:    ledger,
		pending:   make(map[string]map[string]core.Draft),
	}
}

// Scan extracts a draft from the message and parks it as pending. Nothing
// is persisted until the draft is confirmed.
func (s *ImportService) Scan(ctx context.Context, userID, message string) (PendingDraft, error) {
	draft, err := s.extractor.Extract(ctx, message)
	if err != nil {
		return PendingDraft{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending[userID] == nil {
		s.pending[userID] = make(map[string]core.Draft)
	}
	id := "draft-" + uuid.NewString()
	s.pending[userID][id] = draft
	return PendingDraft{ID: id, Draft: draft}, nil
}

// Pending lists the user's unresolved drafts.
func (s *ImportService) Pending(userID string) []PendingDraft {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]PendingDraft, 0, len(s.pending[userID]))
	for id, d := range s.pending[userID] {
		out = append(out, PendingDraft{ID: id, Draft: d})
	}
	return out
}

func (s *ImportService) take(userID, draftID string) (core.Draft, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.pending[userID][draftID]
	if ok {
		delete(s.pending[userID], draftID)
	}
	return d, ok
}

// ConfirmInput carries the user's corrections and the category assignment.
// Empty fields fall back to the draft, then to defaults.
type ConfirmInput struct {
	GroupID    string     `json:"groupId"`
	SubgroupID string     `json:"subgroupId"`
	Purpose    string     `json:"purpose"`
	Date       core.Date  `json:"date"`
	Bank       string     `json:"bankName"`
	RefNo      string     `json:"refNo"`
	Amount     core.Money `json:"amount"`
}

// Confirm turns a pending draft into a transaction. Defaults cover every
// hole the extraction may have left: today's date, a generated reference,
// an unknown bank.
func (s *ImportService) Confirm(ctx context.Context, userID, draftID string, in ConfirmInput) (string, error) {
	draft, ok := s.take(userID, draftID)
	if !ok {
		return "", ErrDraftNotFound
	}

	tx := draftTransaction(draft, in, time.Now())
	id, err := s.ledger.AddTransaction(ctx, userID, tx)
	if err != nil {
		// Keep the draft so the user can correct and retry.
		s.restore(userID, draftID, draft)
		return "", err
	}
	return id, nil
}

// Skip books the draft under the reserved uncategorized bucket.
func (s *ImportService) Skip(ctx context.Context, userID, draftID string) (string, error) {
	draft, ok := s.take(userID, draftID)
	if !ok {
		return "", ErrDraftNotFound
	}

	purpose := strings.TrimSpace(draft.SuggestedPurpose)
	if purpose == "" {
		purpose = skippedPurpose
	}
	in := ConfirmInput{
		GroupID:    core.UncategorizedGroupID,
		SubgroupID: core.SkippedSubgroupID,
		Purpose:    purpose,
	}
	tx := draftTransaction(draft, in, time.Now())
	id, err := s.ledger.AddTransaction(ctx, userID, tx)
	if err != nil {
		s.restore(userID, draftID, draft)
		return "", err
	}
	return id, nil
}

// Discard drops the draft without writing anything.
func (s *ImportService) Discard(userID, draftID string) error {
	if _, ok := s.take(userID, draftID); !ok {
		return ErrDraftNotFound
	}
	return nil
}

func (s *ImportService) restore(userID, draftID string, draft core.Draft) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending[userID] == nil {
		s.pending[userID] = make(map[string]core.Draft)
	}
	s.pending[userID][draftID] = draft
}

// draftTransaction merges the draft with the confirmation input and fills
// the remaining holes with defaults.
func draftTransaction(draft core.Draft, in ConfirmInput, now time.Time) core.Transaction {
	tx := core.Transaction{
		Date:             draft.Date,
		Bank:             draft.Bank,
		Direction:        draft.Direction,
		RefNo:            draft.RefNo,
		GroupID:          in.GroupID,
		SubgroupID:       in.SubgroupID,
		Purpose:          strings.TrimSpace(in.Purpose),
		Amount:           draft.Amount,
		Merchant:         draft.Merchant,
		RawSMS:           draft.RawSMS,
		SuggestedPurpose: draft.SuggestedPurpose,
	}

	if !in.Date.IsZero() {
		tx.Date = in.Date
	}
	if b := strings.TrimSpace(in.Bank); b != "" {
		tx.Bank = b
	}
	if r := strings.TrimSpace(in.RefNo); r != "" {
		tx.RefNo = r
	}
	if in.Amount.Cents > 0 {
		tx.Amount = in.Amount
	}

	if err := tx.Direction.Validate(); err != nil {
		tx.Direction = core.Debit
	}
	if tx.Date.IsZero() {
		tx.Date = core.NewDate(now.Year(), int(now.Month()), now.Day())
	}
	if tx.RefNo == "" {
		tx.RefNo = fmt.Sprintf("REF-%d", now.UnixMilli())
	}
	if tx.Bank == "" {
		tx.Bank = "Unknown"
	}
	if tx.Merchant == "" {
		tx.Merchant = "Unknown"
	}
	if tx.Purpose == "" {
		tx.Purpose = draft.SuggestedPurpose
	}
	return tx
}
