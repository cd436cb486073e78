package services

import (
	"context"
	"errors"
	"testing"

	"spendsense/internal/amqp"
	"spendsense/internal/core"
	"spendsense/internal/ledger"
)

// fakeRepo keeps every dataset in memory.
type fakeRepo struct {
	ledgers  map[string][]core.LedgerGroup
	txs      map[string][]core.Transaction
	activity map[string][]core.ActivityEntry
	notes    map[string][]core.DailyNote
	recs     map[string][]core.Receivable
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		ledgers:  make(map[string][]core.LedgerGroup),
		txs:      make(map[string][]core.Transaction),
		activity: make(map[string][]core.ActivityEntry),
		notes:    make(map[string][]core.DailyNote),
		recs:     make(map[string][]core.Receivable),
	}
}

func (f *fakeRepo) LoadLedgers(_ context.Context, userID string) ([]core.LedgerGroup, error) {
	if g, ok := f.ledgers[userID]; ok {
		return g, nil
	}
	return core.DefaultTaxonomy(), nil
}

func (f *fakeRepo) SaveLedgers(_ context.Context, userID string, groups []core.LedgerGroup) error {
	f.ledgers[userID] = groups
	return nil
}

func (f *fakeRepo) LoadTransactions(_ context.Context, userID string) ([]core.Transaction, error) {
	return f.txs[userID], nil
}

func (f *fakeRepo) SaveTransactions(_ context.Context, userID string, txs []core.Transaction) error {
	f.txs[userID] = txs
	return nil
}

func (f *fakeRepo) LoadActivity(_ context.Context, userID string) ([]core.ActivityEntry, error) {
	return f.activity[userID], nil
}

func (f *fakeRepo) SaveActivity(_ context.Context, userID string, entries []core.ActivityEntry) error {
	f.activity[userID] = entries
	return nil
}

func (f *fakeRepo) LoadNotes(_ context.Context, userID string) ([]core.DailyNote, error) {
	return f.notes[userID], nil
}

func (f *fakeRepo) SaveNotes(_ context.Context, userID string, notes []core.DailyNote) error {
	f.notes[userID] = notes
	return nil
}

func (f *fakeRepo) LoadReceivables(_ context.Context, userID string) ([]core.Receivable, error) {
	return f.recs[userID], nil
}

func (f *fakeRepo) SaveReceivables(_ context.Context, userID string, recs []core.Receivable) error {
	f.recs[userID] = recs
	return nil
}

// fakePublisher records events and can be made to fail.
type fakePublisher struct {
	published []*amqp.ActivityMessage
	err       error
}

func (f *fakePublisher) PublishActivity(_ context.Context, msg *amqp.ActivityMessage) error {
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, msg)
	return nil
}

func newTransaction(t *testing.T, dir core.Direction, cents int64, groupID, subID string) core.Transaction {
	t.Helper()
	d, err := core.ParseDate("2026-08-15")
	if err != nil {
		t.Fatalf("ParseDate: %v", err)
	}
	return core.Transaction{
		Date: d, Bank: "HDFC", Direction: dir, RefNo: "REF-1",
		GroupID: groupID, SubgroupID: subID, Purpose: "test",
		Amount: core.Money{Cents: cents}, Merchant: "Acme",
	}
}

func TestAddGroupLogsAndPublishes(t *testing.T) {
	repo := newFakeRepo()
	pub := &fakePublisher{}
	svc := NewLedgerService(repo, pub)
	ctx := context.Background()

	g, err := svc.AddGroup(ctx, "u1", "TRAVEL", core.Debit)
	if err != nil {
		t.Fatalf("AddGroup: %v", err)
	}
	if g.Name != "TRAVEL" {
		t.Fatalf("unexpected group: %+v", g)
	}

	// Defaults plus the new group.
	if len(repo.ledgers["u1"]) != 4 {
		t.Fatalf("got %d groups, want 4", len(repo.ledgers["u1"]))
	}

	entries, _ := svc.Activity(ctx, "u1")
	if len(entries) != 1 || entries[0].Action != core.ActionAdd || entries[0].Entity != core.EntityGroup {
		t.Fatalf("unexpected activity: %+v", entries)
	}
	if len(pub.published) != 1 || pub.published[0].UserID != "u1" {
		t.Fatalf("unexpected published events: %+v", pub.published)
	}
}

func TestPublishFailureDoesNotFailMutation(t *testing.T) {
	repo := newFakeRepo()
	pub := &fakePublisher{err: errors.New("broker down")}
	svc := NewLedgerService(repo, pub)
	ctx := context.Background()

	if _, err := svc.AddGroup(ctx, "u1", "TRAVEL", core.Debit); err != nil {
		t.Fatalf("AddGroup failed on publish error: %v", err)
	}
	entries, _ := svc.Activity(ctx, "u1")
	if len(entries) != 1 {
		t.Fatalf("activity log not written: %+v", entries)
	}
}

func TestDeleteGroupLeavesOrphans(t *testing.T) {
	repo := newFakeRepo()
	svc := NewLedgerService(repo, nil)
	ctx := context.Background()

	groups, _ := svc.ListGroups(ctx, "u1")
	household := groups[1]
	rent := household.Subgroups[0]

	id, err := svc.AddTransaction(ctx, "u1", newTransaction(t, core.Debit, 5000, household.ID, rent.ID))
	if err != nil {
		t.Fatalf("AddTransaction: %v", err)
	}

	if err := svc.DeleteGroup(ctx, "u1", household.ID); err != nil {
		t.Fatalf("DeleteGroup: %v", err)
	}

	orphans, err := svc.Orphans(ctx, "u1")
	if err != nil {
		t.Fatalf("Orphans: %v", err)
	}
	if len(orphans) != 1 || orphans[0].ID != id {
		t.Fatalf("unexpected orphans: %+v", orphans)
	}

	// The transaction itself survives the group deletion.
	txs, _ := svc.ListTransactions(ctx, "u1")
	if len(txs) != 1 {
		t.Fatalf("transaction lost on group delete: %+v", txs)
	}
}

func TestEditTransactionRepairsOrphan(t *testing.T) {
	repo := newFakeRepo()
	svc := NewLedgerService(repo, nil)
	ctx := context.Background()

	groups, _ := svc.ListGroups(ctx, "u1")
	household := groups[1]
	rent := household.Subgroups[0]
	id, _ := svc.AddTransaction(ctx, "u1", newTransaction(t, core.Debit, 5000, "group-gone", "sub-gone"))

	ok, err := svc.EditTransaction(ctx, "u1", id, ledger.TransactionPatch{
		GroupID:    &household.ID,
		SubgroupID: &rent.ID,
	})
	if err != nil || !ok {
		t.Fatalf("EditTransaction = %v, %v", ok, err)
	}

	orphans, _ := svc.Orphans(ctx, "u1")
	if len(orphans) != 0 {
		t.Fatalf("orphan survived repair: %+v", orphans)
	}
}

func TestDashboard(t *testing.T) {
	repo := newFakeRepo()
	svc := NewLedgerService(repo, nil)
	ctx := context.Background()

	groups, _ := svc.ListGroups(ctx, "u1")
	household := groups[1]
	rent := household.Subgroups[0]
	income := groups[2]
	salary := income.Subgroups[0]

	tx := newTransaction(t, core.Debit, 30000, household.ID, rent.ID)
	tx.Date = core.Today()
	if _, err := svc.AddTransaction(ctx, "u1", tx); err != nil {
		t.Fatalf("AddTransaction: %v", err)
	}
	credit := newTransaction(t, core.Credit, 100000, income.ID, salary.ID)
	credit.Date = core.Today()
	if _, err := svc.AddTransaction(ctx, "u1", credit); err != nil {
		t.Fatalf("AddTransaction: %v", err)
	}

	dash, err := svc.Dashboard(ctx, "u1")
	if err != nil {
		t.Fatalf("Dashboard: %v", err)
	}
	if dash.TotalDebits.Cents != 30000 || dash.TotalCredits.Cents != 100000 {
		t.Fatalf("totals = %+v", dash)
	}
	if dash.NetBalance.Cents != 70000 {
		t.Fatalf("NetBalance = %d", dash.NetBalance.Cents)
	}
	if len(dash.Daily) != dashboardDays {
		t.Fatalf("got %d daily buckets", len(dash.Daily))
	}
	if dash.Daily[dashboardDays-1].Total.Cents != 30000 {
		t.Fatalf("today's spend bucket = %d", dash.Daily[dashboardDays-1].Total.Cents)
	}
	if len(dash.Categories) != 1 || dash.Categories[0].Name != "HOUSEHOLD" {
		t.Fatalf("categories = %+v", dash.Categories)
	}
}

func TestStatementPercentages(t *testing.T) {
	repo := newFakeRepo()
	svc := NewLedgerService(repo, nil)
	ctx := context.Background()

	groups, _ := svc.ListGroups(ctx, "u1")
	household := groups[1]
	rent := household.Subgroups[0]
	groceries := household.Subgroups[1]

	svc.AddTransaction(ctx, "u1", newTransaction(t, core.Debit, 7500, household.ID, rent.ID))
	svc.AddTransaction(ctx, "u1", newTransaction(t, core.Debit, 2500, household.ID, groceries.ID))

	stmt, err := svc.Statement(ctx, "u1")
	if err != nil {
		t.Fatalf("Statement: %v", err)
	}
	var hh *GroupSummary
	for i := range stmt {
		if stmt[i].Group.ID == household.ID {
			hh = &stmt[i]
		}
	}
	if hh == nil {
		t.Fatal("household summary missing")
	}
	if hh.Total.Cents != 10000 {
		t.Fatalf("group total = %d", hh.Total.Cents)
	}
	if hh.Subgroups[0].Percent != 75 || hh.Subgroups[1].Percent != 25 {
		t.Fatalf("percentages = %+v", hh.Subgroups)
	}
}

func TestExportCSVLogsActivity(t *testing.T) {
	repo := newFakeRepo()
	svc := NewLedgerService(repo, nil)
	ctx := context.Background()

	groups, _ := svc.ListGroups(ctx, "u1")
	household := groups[1]
	svc.AddTransaction(ctx, "u1", newTransaction(t, core.Debit, 100, household.ID, household.Subgroups[0].ID))

	data, name, err := svc.ExportCSV(ctx, "u1")
	if err != nil {
		t.Fatalf("ExportCSV: %v", err)
	}
	if len(data) == 0 {
		t.Fatal("empty export")
	}
	if name == "" {
		t.Fatal("empty filename")
	}

	entries, _ := svc.Activity(ctx, "u1")
	if entries[0].Action != core.ActionExport {
		t.Fatalf("export not logged: %+v", entries)
	}
}

func TestNotesAndReceivables(t *testing.T) {
	repo := newFakeRepo()
	svc := NewLedgerService(repo, nil)
	ctx := context.Background()

	d, _ := core.ParseDate("2026-08-30")
	noteID, err := svc.AddNote(ctx, "u1", core.DailyNote{Date: d, Title: "groceries", Content: "buy rice"})
	if err != nil {
		t.Fatalf("AddNote: %v", err)
	}
	notes, _ := svc.ListNotes(ctx, "u1")
	if len(notes) != 1 || notes[0].ID != noteID {
		t.Fatalf("unexpected notes: %+v", notes)
	}
	if ok, _ := svc.DeleteNote(ctx, "u1", noteID); !ok {
		t.Fatal("DeleteNote failed")
	}

	recID, err := svc.AddReceivable(ctx, "u1", core.Receivable{
		Date: d, DebtorName: "Ravi", Amount: core.Money{Cents: 50000}, Purpose: "lunch",
	})
	if err != nil {
		t.Fatalf("AddReceivable: %v", err)
	}
	if ok, _ := svc.ToggleReceivable(ctx, "u1", recID); !ok {
		t.Fatal("ToggleReceivable failed")
	}
	recs, _ := svc.ListReceivables(ctx, "u1")
	if !recs[0].Settled {
		t.Fatal("settled flag not flipped")
	}
	if ok, _ := svc.DeleteReceivable(ctx, "u1", recID); !ok {
		t.Fatal("DeleteReceivable failed")
	}
}
