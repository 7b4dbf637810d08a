package badger

import (
	"context"
	"math"
	"testing"

	"github.com/poiesic/evidence/core"
	"github.com/poiesic/evidence/similarity"
	"github.com/poiesic/evidence/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepo(t *testing.T) storage.VectorRepository {
	t.Helper()
	repo, backend, err := NewMemoryVectorRepository()
	require.NoError(t, err)
	t.Cleanup(func() {
		repo.Close()
		backend.Close()
	})
	return repo
}

func TestAddEntries_DerivesIDAndNormalizes(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	entry := &core.VectorEntry{ScopeID: "p1", Kind: "theme", Text: "Reporting is manual", Vector: []float32{3, 4}}
	stored, err := repo.AddEntries(ctx, entry)
	require.NoError(t, err)
	require.Len(t, stored, 1)

	assert.NotEmpty(t, stored[0].ID)
	assert.Equal(t, core.IDFromContent("p1\x00theme\x00Reporting is manual").String(), stored[0].ID)
	assert.False(t, stored[0].InsertedAt.IsZero())

	got, err := repo.GetEntry(ctx, "p1", stored[0].ID)
	require.NoError(t, err)
	assert.InDelta(t, 0.6, got.Vector[0], 1e-6)
	assert.InDelta(t, 0.8, got.Vector[1], 1e-6)
	assert.Equal(t, "Reporting is manual", got.Text)
}

func TestAddEntries_RejectsInvalid(t *testing.T) {
	repo := newTestRepo(t)

	_, err := repo.AddEntries(context.Background(),
		&core.VectorEntry{ScopeID: "p1", Text: "ok", Vector: []float32{1}},
		&core.VectorEntry{ScopeID: "p1", Text: "no vector"},
	)
	assert.ErrorIs(t, err, core.ErrEmptyVector)

	count, err := repo.CountEntries(context.Background(), "p1")
	require.NoError(t, err)
	assert.Zero(t, count, "nothing stored when any entry is invalid")
}

func TestAddEntries_ReplacesSameID(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	_, err := repo.AddEntries(ctx, &core.VectorEntry{ID: "t1", ScopeID: "p1", Text: "old", Vector: []float32{1, 0}})
	require.NoError(t, err)
	_, err = repo.AddEntries(ctx, &core.VectorEntry{ID: "t1", ScopeID: "p1", Text: "new", Vector: []float32{0, 1}})
	require.NoError(t, err)

	got, err := repo.GetEntry(ctx, "p1", "t1")
	require.NoError(t, err)
	assert.Equal(t, "new", got.Text)

	count, err := repo.CountEntries(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestListEntries(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	_, err := repo.AddEntries(ctx,
		&core.VectorEntry{ID: "c", ScopeID: "p1", Kind: "theme", Text: "c", Vector: []float32{1}},
		&core.VectorEntry{ID: "a", ScopeID: "p1", Kind: "evidence", Text: "a", Vector: []float32{1}},
		&core.VectorEntry{ID: "b", ScopeID: "p1", Kind: "theme", Text: "b", Vector: []float32{1}},
		&core.VectorEntry{ID: "z", ScopeID: "p2", Kind: "theme", Text: "z", Vector: []float32{1}},
	)
	require.NoError(t, err)

	all, err := repo.ListEntries(ctx, "p1", "")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, ids(all))

	themes, err := repo.ListEntries(ctx, "p1", "theme")
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "c"}, ids(themes))

	none, err := repo.ListEntries(ctx, "missing", "")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestDeleteEntries(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	_, err := repo.AddEntries(ctx,
		&core.VectorEntry{ID: "a", ScopeID: "p1", Text: "a", Vector: []float32{1}},
		&core.VectorEntry{ID: "b", ScopeID: "p1", Text: "b", Vector: []float32{1}},
	)
	require.NoError(t, err)

	require.NoError(t, repo.DeleteEntries(ctx, "p1", "a"))
	_, err = repo.GetEntry(ctx, "p1", "a")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	err = repo.DeleteEntries(ctx, "p1", "b", "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)
	_, err = repo.GetEntry(ctx, "p1", "b")
	assert.NoError(t, err, "failed delete leaves earlier ids in place")
}

func TestDeleteScope(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	_, err := repo.AddEntries(ctx,
		&core.VectorEntry{ID: "a", ScopeID: "p1", Text: "a", Vector: []float32{1}},
		&core.VectorEntry{ID: "b", ScopeID: "p1", Text: "b", Vector: []float32{1}},
		&core.VectorEntry{ID: "a", ScopeID: "p10", Text: "a", Vector: []float32{1}},
	)
	require.NoError(t, err)

	removed, err := repo.DeleteScope(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	count, err := repo.CountEntries(ctx, "p10")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestFindSimilar(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	at := func(s float64) []float32 {
		return []float32{float32(s), float32(math.Sqrt(1 - s*s))}
	}
	_, err := repo.AddEntries(ctx,
		&core.VectorEntry{ID: "low", ScopeID: "p1", Kind: "evidence", Text: "low", Vector: at(0.3)},
		&core.VectorEntry{ID: "high", ScopeID: "p1", Kind: "evidence", Label: "verbatim", Text: "high", Vector: at(0.95)},
		&core.VectorEntry{ID: "mid", ScopeID: "p1", Kind: "facet", Text: "mid", Vector: at(0.7)},
		&core.VectorEntry{ID: "other", ScopeID: "p2", Text: "other scope", Vector: at(1)},
	)
	require.NoError(t, err)

	candidates, err := repo.FindSimilar(ctx, similarity.Query{
		Vector:         []float32{1, 0},
		ScopeID:        "p1",
		MatchThreshold: 0.5,
	})
	require.NoError(t, err)
	require.Len(t, candidates, 2)
	assert.Equal(t, "high", candidates[0].ID)
	assert.InDelta(t, 0.95, candidates[0].Score, 1e-5)
	assert.Equal(t, "evidence", candidates[0].Payload[PayloadKind])
	assert.Equal(t, "verbatim", candidates[0].Payload[PayloadLabel])
	assert.Equal(t, "high", candidates[0].Payload[PayloadText])
	assert.Equal(t, "mid", candidates[1].ID)

	limited, err := repo.FindSimilar(ctx, similarity.Query{Vector: []float32{1, 0}, ScopeID: "p1", MatchCount: 1})
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, "high", limited[0].ID)

	_, err = repo.FindSimilar(ctx, similarity.Query{ScopeID: "p1"})
	assert.ErrorIs(t, err, storage.ErrInvalidQuery)
}

func TestFindSimilar_AsMatcherCorpus(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	_, err := repo.AddEntries(ctx,
		&core.VectorEntry{ID: "theme-1", ScopeID: "p1", Kind: "theme", Text: "manual exports", Vector: []float32{1, 0.1}},
		&core.VectorEntry{ID: "theme-2", ScopeID: "p1", Kind: "theme", Text: "pricing", Vector: []float32{0, 1}},
	)
	require.NoError(t, err)

	m, err := similarity.NewMatcher(similarity.WithCorpus(repo))
	require.NoError(t, err)

	results, err := m.FindMatches(ctx, []float32{1, 0}, "p1", similarity.EvidenceToTheme, 5)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "theme-1", results[0].ID)
	assert.True(t, results[0].IsMatch)
}

func TestFindSimilar_Cancelled(t *testing.T) {
	repo := newTestRepo(t)
	_, err := repo.AddEntries(context.Background(), &core.VectorEntry{ID: "a", ScopeID: "p1", Text: "a", Vector: []float32{1}})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = repo.FindSimilar(ctx, similarity.Query{Vector: []float32{1}, ScopeID: "p1"})
	assert.ErrorIs(t, err, context.Canceled)
}

func ids(entries []*core.VectorEntry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.ID
	}
	return out
}
