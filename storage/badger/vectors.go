// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package badger

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/evidence/core"
	"github.com/poiesic/evidence/embedding"
	"github.com/poiesic/evidence/similarity"
	"github.com/poiesic/evidence/storage"
)

// Candidate payload keys set by FindSimilar.
const (
	PayloadKind  = "kind"
	PayloadLabel = "label"
	PayloadText  = "text"
)

// VectorRepository implements storage.VectorRepository for BadgerDB.
// Similarity search is a brute-force cosine scan over one scope.
type VectorRepository struct {
	backend *Backend
	logger  *slog.Logger
}

var _ storage.VectorRepository = (*VectorRepository)(nil)

// NewVectorRepository creates a vector repository on backend.
func NewVectorRepository(backend *Backend) (storage.VectorRepository, error) {
	if backend == nil {
		return nil, errors.New("badger backend required")
	}
	return &VectorRepository{
		backend: backend,
		logger:  backend.logger.With("repository", "vectors"),
	}, nil
}

// Close releases resources. The backend is owned by the caller.
func (r *VectorRepository) Close() error {
	return nil
}

// WithTransaction delegates to the backend.
func (r *VectorRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.backend.WithTransaction(ctx, fn)
}

// AddEntries stores entries, replacing any with the same scope and ID.
func (r *VectorRepository) AddEntries(ctx context.Context, entries ...*core.VectorEntry) ([]*core.VectorEntry, error) {
	for i, entry := range entries {
		if err := core.ValidateVectorEntry(entry); err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
	}

	now := time.Now().UTC()
	err := r.backend.update(ctx, func(tx *badger.Txn) error {
		for _, entry := range entries {
			if entry.ID == "" {
				entry.ID = core.IDFromContent(entry.ScopeID + "\x00" + entry.Kind + "\x00" + entry.Text).String()
			}
			if entry.InsertedAt.IsZero() {
				entry.InsertedAt = now
			}
			entry.Vector = embedding.NormalizeVector(entry.Vector)

			key, err := makeVectorEntryKey(entry.ScopeID, entry.ID)
			if err != nil {
				return err
			}
			if err := tx.Set(key, storage.MarshalVectorEntry(entry)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	r.logger.Debug("entries stored", "count", len(entries))
	return entries, nil
}

// GetEntry retrieves one entry.
func (r *VectorRepository) GetEntry(ctx context.Context, scopeID, id string) (*core.VectorEntry, error) {
	key, err := makeVectorEntryKey(scopeID, id)
	if err != nil {
		return nil, err
	}

	var entry *core.VectorEntry
	err = r.backend.view(ctx, func(tx *badger.Txn) error {
		entry, err = readEntry(tx, key)
		return err
	})
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, storage.ErrNotFound
	}
	return entry, nil
}

// ListEntries returns the entries in a scope ordered by ID.
func (r *VectorRepository) ListEntries(ctx context.Context, scopeID, kind string) ([]*core.VectorEntry, error) {
	entries := []*core.VectorEntry{}
	err := r.scan(ctx, scopeID, func(entry *core.VectorEntry) {
		if kind == "" || entry.Kind == kind {
			entries = append(entries, entry)
		}
	})
	if err != nil {
		return nil, err
	}
	slices.SortFunc(entries, func(a, b *core.VectorEntry) int {
		return strings.Compare(a.ID, b.ID)
	})
	return entries, nil
}

// DeleteEntries removes entries from a scope.
func (r *VectorRepository) DeleteEntries(ctx context.Context, scopeID string, ids ...string) error {
	return r.backend.update(ctx, func(tx *badger.Txn) error {
		for _, id := range ids {
			key, err := makeVectorEntryKey(scopeID, id)
			if err != nil {
				return err
			}
			if _, err := tx.Get(key); err != nil {
				if errors.Is(err, badger.ErrKeyNotFound) {
					return fmt.Errorf("%w: %s/%s", storage.ErrNotFound, scopeID, id)
				}
				return err
			}
			if err := tx.Delete(key); err != nil {
				return err
			}
		}
		return nil
	})
}

// DeleteScope removes every entry in a scope.
func (r *VectorRepository) DeleteScope(ctx context.Context, scopeID string) (int, error) {
	prefix, err := makeScopePrefix(scopeID)
	if err != nil {
		return 0, err
	}

	var keys [][]byte
	err = r.backend.view(ctx, func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()
		for iter.Rewind(); iter.Valid(); iter.Next() {
			keys = append(keys, iter.Item().KeyCopy(nil))
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	err = r.backend.update(ctx, func(tx *badger.Txn) error {
		for _, key := range keys {
			if err := tx.Delete(key); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	r.logger.Info("scope deleted", "scope", scopeID, "entries", len(keys))
	return len(keys), nil
}

// CountEntries returns the number of entries in a scope.
func (r *VectorRepository) CountEntries(ctx context.Context, scopeID string) (int, error) {
	prefix, err := makeScopePrefix(scopeID)
	if err != nil {
		return 0, err
	}

	count := 0
	err = r.backend.view(ctx, func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()
		for iter.Rewind(); iter.Valid(); iter.Next() {
			count++
		}
		return nil
	})
	return count, err
}

// FindSimilar scores every entry in the query's scope and returns those at or
// above MatchThreshold, highest first, at most MatchCount when it is positive.
func (r *VectorRepository) FindSimilar(ctx context.Context, q similarity.Query) ([]similarity.Candidate, error) {
	if len(q.Vector) == 0 || q.ScopeID == "" {
		return nil, storage.ErrInvalidQuery
	}

	candidates := []similarity.Candidate{}
	scanned := 0
	err := r.scan(ctx, q.ScopeID, func(entry *core.VectorEntry) {
		scanned++
		score := similarity.Cosine(q.Vector, entry.Vector)
		if score < q.MatchThreshold {
			return
		}
		candidates = append(candidates, similarity.Candidate{
			ID:    entry.ID,
			Score: score,
			Payload: map[string]string{
				PayloadKind:  entry.Kind,
				PayloadLabel: entry.Label,
				PayloadText:  entry.Text,
			},
		})
	})
	if err != nil {
		return nil, err
	}

	slices.SortFunc(candidates, func(a, b similarity.Candidate) int {
		if c := cmp.Compare(b.Score, a.Score); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	if q.MatchCount > 0 && len(candidates) > q.MatchCount {
		candidates = candidates[:q.MatchCount]
	}

	r.logger.Debug("similarity scan",
		"scope", q.ScopeID,
		"scanned", scanned,
		"hits", len(candidates),
		"threshold", q.MatchThreshold)
	return candidates, nil
}

// scan decodes every entry in a scope, checking ctx between entries.
func (r *VectorRepository) scan(ctx context.Context, scopeID string, fn func(*core.VectorEntry)) error {
	prefix, err := makeScopePrefix(scopeID)
	if err != nil {
		return err
	}

	return r.backend.view(ctx, func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			var entry *core.VectorEntry
			err := iter.Item().Value(func(val []byte) error {
				var err error
				entry, err = storage.UnmarshalVectorEntry(val)
				return err
			})
			if err != nil {
				return fmt.Errorf("decode %q: %w", iter.Item().Key(), err)
			}
			fn(entry)
		}
		return nil
	})
}

// readEntry reads an entry from a transaction. Returns nil, nil if the key is missing.
func readEntry(tx *badger.Txn, key []byte) (*core.VectorEntry, error) {
	item, err := tx.Get(key)
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, nil
		}
		return nil, err
	}

	var entry *core.VectorEntry
	err = item.Value(func(val []byte) error {
		var err error
		entry, err = storage.UnmarshalVectorEntry(val)
		return err
	})
	return entry, err
}
