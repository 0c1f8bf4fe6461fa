package ops

import (
	"context"

	"github.com/jacksmith/rk/internal/model"
)

// Store defines the persistence interface required by the Repository.
// Implementations live in the storage package: CSV, JSON, YAML, SQLite and
// Badger backends all satisfy it, and tests substitute in-memory fakes.
type Store interface {
	// Load returns every persisted record. A missing resource is an empty set.
	Load(ctx context.Context) ([]model.Record, error)
	// Save atomically replaces the persisted set with records.
	Save(ctx context.Context, records []model.Record) error
	// Backup writes a timestamped snapshot and prunes old ones.
	Backup(ctx context.Context, records []model.Record) (string, error)
	Close() error
}

// RowStore is implemented by stores that can persist a single mutation
// without rewriting the whole set. The Repository prefers it over Save.
type RowStore interface {
	Insert(ctx context.Context, r model.Record) error
	Update(ctx context.Context, r model.Record) error
	Delete(ctx context.Context, id string) (bool, error)
}

// Querier is implemented by stores that answer list and search queries
// themselves rather than from the Repository's cache.
type Querier interface {
	List(ctx context.Context) ([]model.Record, error)
	Search(ctx context.Context, f model.Filter) ([]model.Record, error)
}
