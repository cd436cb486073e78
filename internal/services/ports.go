package services

import (
	"context"

	"spendsense/internal/amqp"
	"spendsense/internal/core"
)

// Repository is the persistence surface the services need. Implemented by
// storage.SQLiteRepository; tests substitute an in-memory fake.
type Repository interface {
	LoadLedgers(ctx context.Context, userID string) ([]core.LedgerGroup, error)
	SaveLedgers(ctx context.Context, userID string, groups []core.LedgerGroup) error
	LoadTransactions(ctx context.Context, userID string) ([]core.Transaction, error)
	SaveTransactions(ctx context.Context, userID string, txs []core.Transaction) error
	LoadActivity(ctx context.Context, userID string) ([]core.ActivityEntry, error)
	SaveActivity(ctx context.Context, userID string, entries []core.ActivityEntry) error
	LoadNotes(ctx context.Context, userID string) ([]core.DailyNote, error)
	SaveNotes(ctx context.Context, userID string, notes []core.DailyNote) error
	LoadReceivables(ctx context.Context, userID string) ([]core.Receivable, error)
	SaveReceivables(ctx context.Context, userID string, recs []core.Receivable) error
}

// ActivityPublisher emits activity events to the broker. Implemented by
// amqp.Client; nil disables publishing.
type ActivityPublisher interface {
	PublishActivity(ctx context.Context, msg *amqp.ActivityMessage) error
}
