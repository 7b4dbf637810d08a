package storage

import (
	"context"

	"github.com/poiesic/evidence/core"
	"github.com/poiesic/evidence/similarity"
)

// Repository provides common storage operations shared across all repositories.
// Implementations must be thread-safe and support concurrent access.
type Repository interface {
	// WithTransaction executes a function within a transaction.
	// If fn returns an error, the transaction is rolled back.
	// If fn returns nil, the transaction is committed.
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error

	// Close releases repository resources.
	Close() error
}

// VectorRepository stores the reference corpus: embedded texts grouped by scope.
// It is the corpus a similarity.Matcher searches.
type VectorRepository interface {
	Repository
	similarity.CorpusLookup

	// AddEntries stores entries, replacing any with the same scope and ID.
	// Entries with an empty ID get one derived from their scope, kind and text.
	// Vectors are normalized to unit length before they are stored.
	// Sets InsertedAt if not already set.
	AddEntries(ctx context.Context, entries ...*core.VectorEntry) ([]*core.VectorEntry, error)

	// GetEntry retrieves one entry.
	// Returns ErrNotFound if it doesn't exist.
	GetEntry(ctx context.Context, scopeID, id string) (*core.VectorEntry, error)

	// ListEntries returns the entries in a scope ordered by ID.
	// An empty kind matches every kind.
	ListEntries(ctx context.Context, scopeID, kind string) ([]*core.VectorEntry, error)

	// DeleteEntries removes entries from a scope.
	// Returns ErrNotFound if any entry doesn't exist.
	DeleteEntries(ctx context.Context, scopeID string, ids ...string) error

	// DeleteScope removes every entry in a scope and returns how many were removed.
	DeleteScope(ctx context.Context, scopeID string) (int, error)

	// CountEntries returns the number of entries in a scope.
	CountEntries(ctx context.Context, scopeID string) (int, error)
}
