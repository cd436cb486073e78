// Package storage persists per-user datasets as JSON documents in SQLite.
// Each user's ledger taxonomy, transaction book, activity log, notes and
// receivables is one row; the whole document is replaced on every save,
// matching the read-modify-write model of the service layer.
package storage

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"spendsense/internal/core"

	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Dataset names. One row per user per name, except users which is a single
// global document.
const (
	DatasetLedgers      = "ledgers"
	DatasetTransactions = "txs"
	DatasetActivity     = "logs"
	DatasetNotes        = "notes"
	DatasetReceivables  = "receivables"
	DatasetUsers        = "users"
)

// globalUser owns datasets that are not scoped to an account.
const globalUser = "_global"

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := applySchema(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

// applySchema brings the datasets table up to date from the embedded
// migration files. It opens its own connection because the migrate driver
// closes whatever handle it is given.
func applySchema(dbPath string) error {
	schemaDB, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return fmt.Errorf("open schema connection: %w", err)
	}
	defer schemaDB.Close()

	driver, err := sqlite.WithInstance(schemaDB, &sqlite.Config{})
	if err != nil {
		return fmt.Errorf("sqlite migrate driver: %w", err)
	}
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("embedded migration source: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("migrate instance: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// load reads one dataset row into out. Absent rows leave out untouched and
// report false.
func (r *SQLiteRepository) load(ctx context.Context, userID, name string, out any) (bool, error) {
	var payload string
	err := r.db.QueryRowContext(ctx,
		`SELECT payload FROM datasets WHERE user_id = ? AND name = ?`,
		userID, name,
	).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("load dataset %s/%s: %w", userID, name, err)
	}
	if err := json.Unmarshal([]byte(payload), out); err != nil {
		return false, fmt.Errorf("decode dataset %s/%s: %w", userID, name, err)
	}
	return true, nil
}

// save upserts one dataset row, replacing the whole document.
func (r *SQLiteRepository) save(ctx context.Context, userID, name string, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode dataset %s/%s: %w", userID, name, err)
	}
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO datasets (user_id, name, payload, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT (user_id, name) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at`,
		userID, name, string(payload), time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("save dataset %s/%s: %w", userID, name, err)
	}
	slog.DebugContext(ctx, "Dataset saved", "user_id", userID, "name", name, "bytes", len(payload))
	return nil
}

// LoadLedgers returns the user's taxonomy, seeding the default groups when
// the user has never saved one.
func (r *SQLiteRepository) LoadLedgers(ctx context.Context, userID string) ([]core.LedgerGroup, error) {
	var groups []core.LedgerGroup
	found, err := r.load(ctx, userID, DatasetLedgers, &groups)
	if err != nil {
		return nil, err
	}
	if !found {
		return core.DefaultTaxonomy(), nil
	}
	return groups, nil
}

func (r *SQLiteRepository) SaveLedgers(ctx context.Context, userID string, groups []core.LedgerGroup) error {
	return r.save(ctx, userID, DatasetLedgers, groups)
}

func (r *SQLiteRepository) LoadTransactions(ctx context.Context, userID string) ([]core.Transaction, error) {
	var txs []core.Transaction
	if _, err := r.load(ctx, userID, DatasetTransactions, &txs); err != nil {
		return nil, err
	}
	return txs, nil
}

func (r *SQLiteRepository) SaveTransactions(ctx context.Context, userID string, txs []core.Transaction) error {
	return r.save(ctx, userID, DatasetTransactions, txs)
}

func (r *SQLiteRepository) LoadActivity(ctx context.Context, userID string) ([]core.ActivityEntry, error) {
	var entries []core.ActivityEntry
	if _, err := r.load(ctx, userID, DatasetActivity, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *SQLiteRepository) SaveActivity(ctx context.Context, userID string, entries []core.ActivityEntry) error {
	return r.save(ctx, userID, DatasetActivity, entries)
}

func (r *SQLiteRepository) LoadNotes(ctx context.Context, userID string) ([]core.DailyNote, error) {
	var notes []core.DailyNote
	if _, err := r.load(ctx, userID, DatasetNotes, &notes); err != nil {
		return nil, err
	}
	return notes, nil
}

func (r *SQLiteRepository) SaveNotes(ctx context.Context, userID string, notes []core.DailyNote) error {
	return r.save(ctx, userID, DatasetNotes, notes)
}

func (r *SQLiteRepository) LoadReceivables(ctx context.Context, userID string) ([]core.Receivable, error) {
	var recs []core.Receivable
	if _, err := r.load(ctx, userID, DatasetReceivables, &recs); err != nil {
		return nil, err
	}
	return recs, nil
}

func (r *SQLiteRepository) SaveReceivables(ctx context.Context, userID string, recs []core.Receivable) error {
	return r.save(ctx, userID, DatasetReceivables, recs)
}

// LoadUsers returns every registered account. The dataset is global, not
// per user.
func (r *SQLiteRepository) LoadUsers(ctx context.Context) ([]core.User, error) {
	var users []core.User
	if _, err := r.load(ctx, globalUser, DatasetUsers, &users); err != nil {
		return nil, err
	}
	return users, nil
}

func (r *SQLiteRepository) SaveUsers(ctx context.Context, users []core.User) error {
	return r.save(ctx, globalUser, DatasetUsers, users)
}

// DeleteUserData drops every dataset belonging to the user.
func (r *SQLiteRepository) DeleteUserData(ctx context.Context, userID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM datasets WHERE user_id = ?`, userID)
	if err != nil {
		return fmt.Errorf("delete datasets for %s: %w", userID, err)
	}
	slog.InfoContext(ctx, "User datasets deleted", "user_id", userID)
	return nil
}
