package similarity

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/poiesic/evidence/core"
	"github.com/poiesic/evidence/embedding"
	"golang.org/x/sync/errgroup"
)

// Query is a nearest-neighbour request against a reference corpus.
type Query struct {
	Vector         []float32
	ScopeID        string
	MatchThreshold float32
	MatchCount     int
}

// Candidate is one corpus hit. Payload carries store-specific fields such as
// the entry's kind and text.
type Candidate struct {
	ID      string
	Score   float32
	Payload map[string]string
}

// CorpusLookup finds stored vectors similar to a query within a scope.
// Implementations may return candidates in any order.
type CorpusLookup interface {
	FindSimilar(ctx context.Context, q Query) ([]Candidate, error)
}

// LabeledQuery is one text query in a fan-out search.
type LabeledQuery struct {
	Label string
	Text  string
}

// Matcher decides matches against the threshold table.
type Matcher struct {
	thresholds Thresholds
	corpus     CorpusLookup
	embeddings *embedding.Client
	monitor    SearchMonitor
	logger     *slog.Logger
}

// Option configures a Matcher.
type Option func(*Matcher) error

// WithThresholds replaces the default threshold table.
func WithThresholds(t Thresholds) Option {
	return func(m *Matcher) error {
		if err := t.Validate(); err != nil {
			return err
		}
		m.thresholds = t
		return nil
	}
}

// WithCorpus sets the reference corpus used by FindMatches and FanOut.
func WithCorpus(c CorpusLookup) Option {
	return func(m *Matcher) error {
		m.corpus = c
		return nil
	}
}

// WithEmbeddingClient sets the client used to embed FanOut query text.
func WithEmbeddingClient(c *embedding.Client) Option {
	return func(m *Matcher) error {
		m.embeddings = c
		return nil
	}
}

// WithMonitor sets a monitor for FanOut.
func WithMonitor(monitor SearchMonitor) Option {
	return func(m *Matcher) error {
		if monitor == nil {
			monitor = &noopMonitor{}
		}
		m.monitor = monitor
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(m *Matcher) error {
		if logger == nil {
			logger = slog.Default()
		}
		m.logger = logger
		return nil
	}
}

// NewMatcher creates a matcher with DefaultThresholds.
func NewMatcher(opts ...Option) (*Matcher, error) {
	m := &Matcher{
		thresholds: DefaultThresholds(),
		monitor:    &noopMonitor{},
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(m); err != nil {
			return nil, err
		}
	}
	m.logger = m.logger.With("component", "similarity-matcher")
	return m, nil
}

// Thresholds returns the matcher's threshold table.
func (m *Matcher) Thresholds() Thresholds {
	return m.thresholds
}

// Compare scores a against b and applies the threshold for useCase.
// An unknown use case never matches.
func (m *Matcher) Compare(id string, a, b []float32, useCase UseCase) core.MatchResult {
	score := Cosine(a, b)
	threshold, err := m.thresholds.For(useCase)
	return core.MatchResult{
		ID:      id,
		Score:   score,
		IsMatch: err == nil && score >= threshold,
	}
}

// FindMatches returns up to count corpus entries in scopeID whose similarity
// to query meets the threshold for useCase, highest score first. Candidates
// below the threshold are dropped even if the corpus returns them. A count
// of zero or less returns every match.
func (m *Matcher) FindMatches(ctx context.Context, query []float32, scopeID string, useCase UseCase, count int) ([]core.MatchResult, error) {
	if m.corpus == nil {
		return nil, ErrCorpusRequired
	}
	if len(query) == 0 {
		return nil, ErrEmptyQuery
	}
	threshold, err := m.thresholds.For(useCase)
	if err != nil {
		return nil, err
	}

	candidates, err := m.corpus.FindSimilar(ctx, Query{
		Vector:         query,
		ScopeID:        scopeID,
		MatchThreshold: threshold,
		MatchCount:     count,
	})
	if err != nil {
		return nil, fmt.Errorf("corpus lookup: %w", err)
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})

	results := make([]core.MatchResult, 0, len(candidates))
	for _, c := range candidates {
		if c.Score < threshold {
			continue
		}
		results = append(results, core.MatchResult{ID: c.ID, Score: c.Score, IsMatch: true})
		if count > 0 && len(results) == count {
			break
		}
	}
	return results, nil
}

// FanOut embeds and searches every query concurrently. A label whose text
// cannot be embedded or whose lookup fails is logged and left out of the
// result; the other labels are unaffected.
func (m *Matcher) FanOut(ctx context.Context, queries []LabeledQuery, scopeID string, useCase UseCase, count int) map[string][]core.MatchResult {
	out := make(map[string][]core.MatchResult, len(queries))
	labels := make([]string, len(queries))
	for i, q := range queries {
		labels[i] = q.Label
	}
	m.monitor.Start(labels)

	if m.embeddings == nil {
		m.logger.Error("fan-out search without embedding client", "err", ErrEmbeddingClientRequired)
		m.monitor.Finish(out)
		return out
	}

	var mu sync.Mutex
	var g errgroup.Group
	for _, q := range queries {
		g.Go(func() error {
			vector := m.embeddings.Embed(ctx, q.Text, embedding.WithLabel(q.Label))
			m.monitor.AfterEmbedding(q.Label, vector != nil)
			if vector == nil {
				m.logger.Warn("no embedding for query, skipping", "label", q.Label)
				m.monitor.LabelFailed(q.Label, embedding.ErrEmbeddingUnavailable)
				return nil
			}

			results, err := m.FindMatches(ctx, vector, scopeID, useCase, count)
			if err != nil {
				m.logger.Warn("search failed, skipping", "label", q.Label, "err", err)
				m.monitor.LabelFailed(q.Label, err)
				return nil
			}
			m.monitor.AfterLookup(q.Label, results)

			mu.Lock()
			out[q.Label] = results
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	m.monitor.Finish(out)
	return out
}
