package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"spendsense/internal/core"
)

type fakeExtractor struct {
	draft core.Draft
	err   error
}

func (f *fakeExtractor) Extract(_ context.Context, message string) (core.Draft, error) {
	if f.err != nil {
		return core.Draft{}, f.err
	}
	d := f.draft
	d.RawSMS = message
	return d, nil
}

func importFixture(t *testing.T) (*ImportService, *LedgerService, *fakeExtractor) {
	t.Helper()
	repo := newFakeRepo()
	ledgerSvc := NewLedgerService(repo, nil)
	ext := &fakeExtractor{
		draft: core.Draft{
			Amount:           core.Money{Cents: 250000},
			Direction:        core.Debit,
			Merchant:         "Swiggy",
			Bank:             "HDFC Bank",
			RefNo:            "862345123456",
			SuggestedPurpose: "Food delivery",
		},
	}
	return NewImportService(ext, ledgerSvc), ledgerSvc, ext
}

func TestScanParksDraft(t *testing.T) {
	svc, ledgerSvc, _ := importFixture(t)
	ctx := context.Background()

	pd, err := svc.Scan(ctx, "u1", "Rs.2,500.00 debited ...")
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if pd.Draft.Merchant != "Swiggy" || pd.Draft.RawSMS != "Rs.2,500.00 debited ..." {
		t.Fatalf("unexpected draft: %+v", pd.Draft)
	}

	// Nothing persisted until confirmation.
	txs, _ := ledgerSvc.ListTransactions(ctx, "u1")
	if len(txs) != 0 {
		t.Fatalf("scan wrote transactions: %+v", txs)
	}
	if got := svc.Pending("u1"); len(got) != 1 {
		t.Fatalf("got %d pending drafts, want 1", len(got))
	}
}

func TestScanPropagatesExtractionError(t *testing.T) {
	svc, _, ext := importFixture(t)
	ext.err = errors.New("model unavailable")

	if _, err := svc.Scan(context.Background(), "u1", "msg"); err == nil {
		t.Fatal("expected extraction error")
	}
	if got := svc.Pending("u1"); len(got) != 0 {
		t.Fatalf("failed scan left pending drafts: %+v", got)
	}
}

func TestConfirmAppliesDefaults(t *testing.T) {
	svc, ledgerSvc, ext := importFixture(t)
	ctx := context.Background()

	// Extraction left date, bank and ref empty.
	ext.draft.Bank = ""
	ext.draft.RefNo = ""
	ext.draft.Date = core.Date{}

	pd, _ := svc.Scan(ctx, "u1", "msg")
	groups, _ := ledgerSvc.ListGroups(ctx, "u1")
	household := groups[1]

	id, err := svc.Confirm(ctx, "u1", pd.ID, ConfirmInput{
		GroupID:    household.ID,
		SubgroupID: household.Subgroups[0].ID,
	})
	if err != nil {
		t.Fatalf("Confirm: %v", err)
	}

	txs, _ := ledgerSvc.ListTransactions(ctx, "u1")
	if len(txs) != 1 || txs[0].ID != id {
		t.Fatalf("unexpected transactions: %+v", txs)
	}
	tx := txs[0]
	if tx.Bank != "Unknown" {
		t.Fatalf("Bank = %q, want Unknown", tx.Bank)
	}
	if !strings.HasPrefix(tx.RefNo, "REF-") {
		t.Fatalf("RefNo = %q", tx.RefNo)
	}
	if !tx.Date.Equal(core.Today()) {
		t.Fatalf("Date = %s, want today", tx.Date)
	}
	if tx.Purpose != "Food delivery" {
		t.Fatalf("Purpose = %q, want suggested purpose", tx.Purpose)
	}
	if tx.RawSMS != "msg" {
		t.Fatalf("RawSMS = %q", tx.RawSMS)
	}

	// Draft is resolved.
	if _, err := svc.Confirm(ctx, "u1", pd.ID, ConfirmInput{}); !errors.Is(err, ErrDraftNotFound) {
		t.Fatalf("second confirm: %v", err)
	}
}

func TestConfirmOverridesWin(t *testing.T) {
	svc, ledgerSvc, _ := importFixture(t)
	ctx := context.Background()

	pd, _ := svc.Scan(ctx, "u1", "msg")
	d, _ := core.ParseDate("2026-08-20")
	_, err := svc.Confirm(ctx, "u1", pd.ID, ConfirmInput{
		GroupID:    "g",
		SubgroupID: "s",
		Purpose:    "Dinner out",
		Date:       d,
		Bank:       "Axis Bank",
		RefNo:      "OVERRIDE-1",
		Amount:     core.Money{Cents: 99900},
	})
	if err != nil {
		t.Fatalf("Confirm: %v", err)
	}

	txs, _ := ledgerSvc.ListTransactions(ctx, "u1")
	tx := txs[0]
	if tx.Purpose != "Dinner out" || tx.Bank != "Axis Bank" || tx.RefNo != "OVERRIDE-1" {
		t.Fatalf("overrides lost: %+v", tx)
	}
	if tx.Amount.Cents != 99900 || tx.Date.String() != "2026-08-20" {
		t.Fatalf("overrides lost: %+v", tx)
	}
}

func TestSkipBooksUncategorized(t *testing.T) {
	svc, ledgerSvc, _ := importFixture(t)
	ctx := context.Background()

	pd, _ := svc.Scan(ctx, "u1", "msg")
	id, err := svc.Skip(ctx, "u1", pd.ID)
	if err != nil {
		t.Fatalf("Skip: %v", err)
	}

	txs, _ := ledgerSvc.ListTransactions(ctx, "u1")
	if len(txs) != 1 || txs[0].ID != id {
		t.Fatalf("unexpected transactions: %+v", txs)
	}
	tx := txs[0]
	if tx.GroupID != core.UncategorizedGroupID || tx.SubgroupID != core.SkippedSubgroupID {
		t.Fatalf("skip assigned %s/%s", tx.GroupID, tx.SubgroupID)
	}
	if tx.Purpose != "Food delivery" {
		t.Fatalf("Purpose = %q, want suggested purpose", tx.Purpose)
	}

	// The reserved pair resolves, so a skipped record is never an orphan.
	orphans, _ := ledgerSvc.Orphans(ctx, "u1")
	if len(orphans) != 0 {
		t.Fatalf("skipped transaction is orphaned: %+v", orphans)
	}
}

func TestSkipWithoutSuggestedPurpose(t *testing.T) {
	svc, ledgerSvc, ext := importFixture(t)
	ext.draft.SuggestedPurpose = ""
	ctx := context.Background()

	pd, _ := svc.Scan(ctx, "u1", "msg")
	if _, err := svc.Skip(ctx, "u1", pd.ID); err != nil {
		t.Fatalf("Skip: %v", err)
	}

	txs, _ := ledgerSvc.ListTransactions(ctx, "u1")
	if len(txs) != 1 || txs[0].Purpose != skippedPurpose {
		t.Fatalf("fallback purpose missing: %+v", txs)
	}
}

func TestDiscard(t *testing.T) {
	svc, ledgerSvc, _ := importFixture(t)
	ctx := context.Background()

	pd, _ := svc.Scan(ctx, "u1", "msg")
	if err := svc.Discard("u1", pd.ID); err != nil {
		t.Fatalf("Discard: %v", err)
	}
	if err := svc.Discard("u1", pd.ID); !errors.Is(err, ErrDraftNotFound) {
		t.Fatalf("second discard: %v", err)
	}
	txs, _ := ledgerSvc.ListTransactions(ctx, "u1")
	if len(txs) != 0 {
		t.Fatalf("discard wrote transactions: %+v", txs)
	}
}

func TestFailedConfirmKeepsDraft(t *testing.T) {
	svc, _, ext := importFixture(t)
	ctx := context.Background()

	// Zero amount fails transaction validation.
	ext.draft.Amount = core.Money{}
	pd, _ := svc.Scan(ctx, "u1", "msg")

	if _, err := svc.Confirm(ctx, "u1", pd.ID, ConfirmInput{GroupID: "g", SubgroupID: "s"}); err == nil {
		t.Fatal("expected validation error")
	}
	if got := svc.Pending("u1"); len(got) != 1 {
		t.Fatalf("draft not restored after failed confirm: %+v", got)
	}
}
