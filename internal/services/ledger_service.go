package services

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"spendsense/internal/amqp"
	"spendsense/internal/core"
	"spendsense/internal/ledger"
)

// LedgerService orchestrates taxonomy, transaction, note and receivable
// operations across the repository and the activity event stream. Mutations
// are serialized per user: each request loads the user's datasets, applies
// the change in memory and writes the documents back.
type LedgerService struct {
	repo      Repository
	publisher ActivityPublisher

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewLedgerService(repo Repository, publisher ActivityPublisher) *LedgerService {
	return &LedgerService{
		repo:      repo,
		publisher: publisher,
		locks:     make(map[string]*sync.Mutex),
	}
}

func (s *LedgerService) userLock(userID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[userID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[userID] = l
	}
	return l
}

// LogActivity prepends an entry to the user's activity log and publishes
// the matching event. Publish failures are logged and swallowed; the
// mutation already succeeded.
func (s *LedgerService) LogActivity(ctx context.Context, userID, action, entity, details string) {
	entry := core.ActivityEntry{
		ID:        "log-" + uuid.NewString(),
		Action:    action,
		Entity:    entity,
		Details:   details,
		Timestamp: time.Now().UnixMilli(),
	}

	entries, err := s.repo.LoadActivity(ctx, userID)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to load activity log", "user_id", userID, "error", err)
		return
	}
	entries = append([]core.ActivityEntry{entry}, entries...)
	if err := s.repo.SaveActivity(ctx, userID, entries); err != nil {
		slog.ErrorContext(ctx, "Failed to save activity log", "user_id", userID, "error", err)
		return
	}

	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishActivity(ctx, amqp.NewActivityMessage(userID, entry)); err != nil {
		slog.ErrorContext(ctx, "Failed to publish activity event",
			"user_id", userID, "entry_id", entry.ID, "error", err)
		// Don't fail the request - the change is saved locally
	}
}

// Activity returns the user's activity log, newest first.
func (s *LedgerService) Activity(ctx context.Context, userID string) ([]core.ActivityEntry, error) {
	return s.repo.LoadActivity(ctx, userID)
}

// --- taxonomy ---

func (s *LedgerService) ListGroups(ctx context.Context, userID string) ([]core.LedgerGroup, error) {
	groups, err := s.repo.LoadLedgers(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load ledgers: %w", err)
	}
	return groups, nil
}

func (s *LedgerService) AddGroup(ctx context.Context, userID, name string, dir core.Direction) (core.LedgerGroup, error) {
	l := s.userLock(userID)
	l.Lock()
	defer l.Unlock()

	groups, err := s.repo.LoadLedgers(ctx, userID)
	if err != nil {
		return core.LedgerGroup{}, fmt.Errorf("load ledgers: %w", err)
	}
	tax := ledger.Taxonomy{Groups: groups}
	id, err := tax.AddGroup(name, dir)
	if err != nil {
		return core.LedgerGroup{}, err
	}
	if err := s.repo.SaveLedgers(ctx, userID, tax.Groups); err != nil {
		return core.LedgerGroup{}, fmt.Errorf("save ledgers: %w", err)
	}

	g, _ := tax.FindGroup(id)
	s.LogActivity(ctx, userID, core.ActionAdd, core.EntityGroup,
		fmt.Sprintf("Added group %q (%s)", g.Name, g.Direction))
	return g, nil
}

// DeleteGroup removes the group without touching its transactions; they
// surface later through the orphan scan.
func (s *LedgerService) DeleteGroup(ctx context.Context, userID, groupID string) error {
	l := s.userLock(userID)
	l.Lock()
	defer l.Unlock()

	groups, err := s.repo.LoadLedgers(ctx, userID)
	if err != nil {
		return fmt.Errorf("load ledgers: %w", err)
	}
	tax := ledger.Taxonomy{Groups: groups}
	g, found := tax.FindGroup(groupID)
	tax.RemoveGroup(groupID)
	if err := s.repo.SaveLedgers(ctx, userID, tax.Groups); err != nil {
		return fmt.Errorf("save ledgers: %w", err)
	}

	if found {
		s.LogActivity(ctx, userID, core.ActionDelete, core.EntityGroup,
			fmt.Sprintf("Deleted group %q", g.Name))
	}
	return nil
}

func (s *LedgerService) AddSubgroup(ctx context.Context, userID, groupID, name string) (core.LedgerSubgroup, error) {
	l := s.userLock(userID)
	l.Lock()
	defer l.Unlock()

	groups, err := s.repo.LoadLedgers(ctx, userID)
	if err != nil {
		return core.LedgerSubgroup{}, fmt.Errorf("load ledgers: %w", err)
	}
	tax := ledger.Taxonomy{Groups: groups}
	id, ok := tax.AddSubgroup(groupID, name)
	if !ok {
		// Blank names and unknown groups are silent no-ops.
		return core.LedgerSubgroup{}, nil
	}
	if err := s.repo.SaveLedgers(ctx, userID, tax.Groups); err != nil {
		return core.LedgerSubgroup{}, fmt.Errorf("save ledgers: %w", err)
	}

	sub, _ := tax.FindSubgroup(groupID, id)
	s.LogActivity(ctx, userID, core.ActionAdd, core.EntityGroup,
		fmt.Sprintf("Added sub-group %q", sub.Name))
	return sub, nil
}

func (s *LedgerService) DeleteSubgroup(ctx context.Context, userID, groupID, subgroupID string) error {
	l := s.userLock(userID)
	l.Lock()
	defer l.Unlock()

	groups, err := s.repo.LoadLedgers(ctx, userID)
	if err != nil {
		return fmt.Errorf("load ledgers: %w", err)
	}
	tax := ledger.Taxonomy{Groups: groups}
	sub, found := tax.FindSubgroup(groupID, subgroupID)
	tax.RemoveSubgroup(groupID, subgroupID)
	if err := s.repo.SaveLedgers(ctx, userID, tax.Groups); err != nil {
		return fmt.Errorf("save ledgers: %w", err)
	}

	if found {
		s.LogActivity(ctx, userID, core.ActionDelete, core.EntityGroup,
			fmt.Sprintf("Deleted sub-group %q", sub.Name))
	}
	return nil
}

// --- transactions ---

func (s *LedgerService) ListTransactions(ctx context.Context, userID string) ([]core.Transaction, error) {
	return s.repo.LoadTransactions(ctx, userID)
}

func (s *LedgerService) AddTransaction(ctx context.Context, userID string, tx core.Transaction) (string, error) {
	l := s.userLock(userID)
	l.Lock()
	defer l.Unlock()

	txs, err := s.repo.LoadTransactions(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("load transactions: %w", err)
	}
	book := ledger.Book{Transactions: txs}
	id, err := book.Create(tx)
	if err != nil {
		return "", err
	}
	if err := s.repo.SaveTransactions(ctx, userID, book.Transactions); err != nil {
		return "", fmt.Errorf("save transactions: %w", err)
	}

	s.LogActivity(ctx, userID, core.ActionAdd, core.EntityTransaction,
		fmt.Sprintf("Added %s of %s at %q", tx.Direction, tx.Amount.Decimal(), tx.Merchant))
	return id, nil
}

func (s *LedgerService) EditTransaction(ctx context.Context, userID, id string, patch ledger.TransactionPatch) (bool, error) {
	l := s.userLock(userID)
	l.Lock()
	defer l.Unlock()

	txs, err := s.repo.LoadTransactions(ctx, userID)
	if err != nil {
		return false, fmt.Errorf("load transactions: %w", err)
	}
	book := ledger.Book{Transactions: txs}
	ok, err := book.Update(id, patch)
	if err != nil || !ok {
		return ok, err
	}
	if err := s.repo.SaveTransactions(ctx, userID, book.Transactions); err != nil {
		return false, fmt.Errorf("save transactions: %w", err)
	}

	s.LogActivity(ctx, userID, core.ActionEdit, core.EntityTransaction,
		fmt.Sprintf("Edited transaction %s", id))
	return true, nil
}

func (s *LedgerService) DeleteTransaction(ctx context.Context, userID, id string) (bool, error) {
	l := s.userLock(userID)
	l.Lock()
	defer l.Unlock()

	txs, err := s.repo.LoadTransactions(ctx, userID)
	if err != nil {
		return false, fmt.Errorf("load transactions: %w", err)
	}
	book := ledger.Book{Transactions: txs}
	if !book.Delete(id) {
		return false, nil
	}
	if err := s.repo.SaveTransactions(ctx, userID, book.Transactions); err != nil {
		return false, fmt.Errorf("save transactions: %w", err)
	}

	s.LogActivity(ctx, userID, core.ActionDelete, core.EntityTransaction,
		fmt.Sprintf("Deleted transaction %s", id))
	return true, nil
}

// Orphans returns the transactions whose category references no longer
// resolve.
func (s *LedgerService) Orphans(ctx context.Context, userID string) ([]core.Transaction, error) {
	groups, err := s.repo.LoadLedgers(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load ledgers: %w", err)
	}
	txs, err := s.repo.LoadTransactions(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load transactions: %w", err)
	}
	return ledger.Orphans(txs, ledger.Taxonomy{Groups: groups}), nil
}

// --- dashboard and statement ---

// Dashboard is the aggregate snapshot behind the landing screen.
type Dashboard struct {
	TotalDebits  core.Money             `json:"totalDebits"`
	TotalCredits core.Money             `json:"totalCredits"`
	NetBalance   core.Money             `json:"netBalance"`
	Categories   []ledger.CategoryTotal `json:"categories"`
	Daily        []ledger.DayTotal      `json:"daily"`
	Monthly      []ledger.MonthTotal    `json:"monthly"`
}

// dashboardDays is the width of the trailing spend chart.
const dashboardDays = 7

// dashboardMonths is the width of the trailing month comparison.
const dashboardMonths = 6

func (s *LedgerService) Dashboard(ctx context.Context, userID string) (Dashboard, error) {
	groups, err := s.repo.LoadLedgers(ctx, userID)
	if err != nil {
		return Dashboard{}, fmt.Errorf("load ledgers: %w", err)
	}
	txs, err := s.repo.LoadTransactions(ctx, userID)
	if err != nil {
		return Dashboard{}, fmt.Errorf("load transactions: %w", err)
	}

	tax := ledger.Taxonomy{Groups: groups}
	today := core.Today()
	return Dashboard{
		TotalDebits:  ledger.DirectionalTotal(txs, core.Debit),
		TotalCredits: ledger.DirectionalTotal(txs, core.Credit),
		NetBalance:   ledger.NetBalance(txs),
		Categories:   ledger.GroupByCategory(txs, tax, core.Debit),
		Daily:        ledger.DailySeries(txs, dashboardDays, today),
		Monthly:      ledger.MonthlySeries(txs, dashboardMonths, today),
	}, nil
}

// SubgroupSummary is one statement row: a subgroup total and its share of
// the group's direction-wide total.
type SubgroupSummary struct {
	Subgroup core.LedgerSubgroup `json:"subgroup"`
	Total    core.Money          `json:"total"`
	Percent  float64             `json:"percent"`
}

// GroupSummary is one statement section.
type GroupSummary struct {
	Group     core.LedgerGroup  `json:"group"`
	Total     core.Money        `json:"total"`
	Subgroups []SubgroupSummary `json:"subgroups"`
}

// Statement breaks the book down by group and subgroup. Percentages are
// relative to the total for the group's direction.
func (s *LedgerService) Statement(ctx context.Context, userID string) ([]GroupSummary, error) {
	groups, err := s.repo.LoadLedgers(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load ledgers: %w", err)
	}
	txs, err := s.repo.LoadTransactions(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load transactions: %w", err)
	}

	out := make([]GroupSummary, 0, len(groups))
	for _, g := range groups {
		summary := GroupSummary{
			Group: g,
			Total: ledger.GroupTotal(txs, g),
		}
		whole := ledger.DirectionalTotal(txs, g.Direction)
		for _, sub := range g.Subgroups {
			total := ledger.SubgroupTotal(txs, sub.ID)
			pct, _ := ledger.PercentOfSpend(total, whole)
			summary.Subgroups = append(summary.Subgroups, SubgroupSummary{
				Subgroup: sub,
				Total:    total,
				Percent:  pct,
			})
		}
		out = append(out, summary)
	}
	return out, nil
}

// ExportCSV renders the user's full statement and logs the export.
func (s *LedgerService) ExportCSV(ctx context.Context, userID string) ([]byte, string, error) {
	groups, err := s.repo.LoadLedgers(ctx, userID)
	if err != nil {
		return nil, "", fmt.Errorf("load ledgers: %w", err)
	}
	txs, err := s.repo.LoadTransactions(ctx, userID)
	if err != nil {
		return nil, "", fmt.Errorf("load transactions: %w", err)
	}

	var buf bytes.Buffer
	if err := ledger.WriteStatement(&buf, txs, ledger.Taxonomy{Groups: groups}); err != nil {
		return nil, "", fmt.Errorf("write statement: %w", err)
	}

	s.LogActivity(ctx, userID, core.ActionExport, core.EntityTransaction,
		fmt.Sprintf("Exported %d transactions", len(txs)))
	return buf.Bytes(), ledger.ExportFilename(time.Now()), nil
}

// --- notes ---

func (s *LedgerService) ListNotes(ctx context.Context, userID string) ([]core.DailyNote, error) {
	return s.repo.LoadNotes(ctx, userID)
}

func (s *LedgerService) AddNote(ctx context.Context, userID string, note core.DailyNote) (string, error) {
	if err := note.Validate(); err != nil {
		return "", err
	}

	l := s.userLock(userID)
	l.Lock()
	defer l.Unlock()

	notes, err := s.repo.LoadNotes(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("load notes: %w", err)
	}
	note.ID = "note-" + uuid.NewString()
	note.Timestamp = time.Now().UnixMilli()
	notes = append([]core.DailyNote{note}, notes...)
	if err := s.repo.SaveNotes(ctx, userID, notes); err != nil {
		return "", fmt.Errorf("save notes: %w", err)
	}
	return note.ID, nil
}

func (s *LedgerService) DeleteNote(ctx context.Context, userID, id string) (bool, error) {
	l := s.userLock(userID)
	l.Lock()
	defer l.Unlock()

	notes, err := s.repo.LoadNotes(ctx, userID)
	if err != nil {
		return false, fmt.Errorf("load notes: %w", err)
	}
	kept := notes[:0]
	found := false
	for _, n := range notes {
		if n.ID == id {
			found = true
			continue
		}
		kept = append(kept, n)
	}
	if !found {
		return false, nil
	}
	if err := s.repo.SaveNotes(ctx, userID, kept); err != nil {
		return false, fmt.Errorf("save notes: %w", err)
	}
	return true, nil
}

// --- receivables ---

func (s *LedgerService) ListReceivables(ctx context.Context, userID string) ([]core.Receivable, error) {
	return s.repo.LoadReceivables(ctx, userID)
}

func (s *LedgerService) AddReceivable(ctx context.Context, userID string, rec core.Receivable) (string, error) {
	if err := rec.Validate(); err != nil {
		return "", err
	}

	l := s.userLock(userID)
	l.Lock()
	defer l.Unlock()

	recs, err := s.repo.LoadReceivables(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("load receivables: %w", err)
	}
	rec.ID = "rcv-" + uuid.NewString()
	rec.Timestamp = time.Now().UnixMilli()
	recs = append([]core.Receivable{rec}, recs...)
	if err := s.repo.SaveReceivables(ctx, userID, recs); err != nil {
		return "", fmt.Errorf("save receivables: %w", err)
	}
	return rec.ID, nil
}

// ToggleReceivable flips the settled flag.
func (s *LedgerService) ToggleReceivable(ctx context.Context, userID, id string) (bool, error) {
	l := s.userLock(userID)
	l.Lock()
	defer l.Unlock()

	recs, err := s.repo.LoadReceivables(ctx, userID)
	if err != nil {
		return false, fmt.Errorf("load receivables: %w", err)
	}
	found := false
	for i := range recs {
		if recs[i].ID == id {
			recs[i].Settled = !recs[i].Settled
			found = true
			break
		}
	}
	if !found {
		return false, nil
	}
	if err := s.repo.SaveReceivables(ctx, userID, recs); err != nil {
		return false, fmt.Errorf("save receivables: %w", err)
	}
	return true, nil
}

func (s *LedgerService) DeleteReceivable(ctx context.Context, userID, id string) (bool, error) {
	l := s.userLock(userID)
	l.Lock()
	defer l.Unlock()

	recs, err := s.repo.LoadReceivables(ctx, userID)
	if err != nil {
		return false, fmt.Errorf("load receivables: %w", err)
	}
	kept := recs[:0]
	found := false
	for _, r := range recs {
		if r.ID == id {
			found = true
			continue
		}
		kept = append(kept, r)
	}
	if !found {
		return false, nil
	}
	if err := s.repo.SaveReceivables(ctx, userID, kept); err != nil {
		return false, fmt.Errorf("save receivables: %w", err)
	}
	return true, nil
}
