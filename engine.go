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


package evidence

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/poiesic/evidence/ai"
	"github.com/poiesic/evidence/ai/openai"
	"github.com/poiesic/evidence/core"
	"github.com/poiesic/evidence/embedding"
	"github.com/poiesic/evidence/extraction"
	"github.com/poiesic/evidence/similarity"
	"github.com/poiesic/evidence/storage"
	"github.com/poiesic/evidence/storage/badger"
)

// Entry kinds written by IndexResult.
const (
	KindEvidence = "evidence"
	KindFacet    = "facet"
	KindTheme    = "theme"
)

// Engine wires the reference corpus, the AI provider, the extraction
// pipeline and the similarity matcher together.
type Engine struct {
	backend    *badger.Backend
	vectors    storage.VectorRepository
	provider   ai.AIProvider
	pipeline   *extraction.Pipeline
	embeddings *embedding.Client
	matcher    *similarity.Matcher
	logger     *slog.Logger
}

// EngineOption configures an Engine.
type EngineOption func(*engineOptions)

type engineOptions struct {
	aiConfig     *ai.Config
	provider     ai.AIProvider
	inMemory     bool
	thresholds   *similarity.Thresholds
	pipelineOpts []extraction.Option
	logger       *slog.Logger
}

// WithAIConfig sets the configuration used to build the OpenAI-compatible provider.
func WithAIConfig(config *ai.Config) EngineOption {
	return func(o *engineOptions) {
		o.aiConfig = config
	}
}

// WithProvider uses provider instead of building one from the AI config.
// The engine takes ownership and closes it.
func WithProvider(provider ai.AIProvider) EngineOption {
	return func(o *engineOptions) {
		o.provider = provider
	}
}

// WithInMemory keeps the corpus in memory; the path is ignored.
func WithInMemory() EngineOption {
	return func(o *engineOptions) {
		o.inMemory = true
	}
}

// WithThresholds replaces the default threshold table.
func WithThresholds(t similarity.Thresholds) EngineOption {
	return func(o *engineOptions) {
		o.thresholds = &t
	}
}

// WithPipelineOptions passes options through to the extraction pipeline.
func WithPipelineOptions(opts ...extraction.Option) EngineOption {
	return func(o *engineOptions) {
		o.pipelineOpts = append(o.pipelineOpts, opts...)
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) EngineOption {
	return func(o *engineOptions) {
		o.logger = logger
	}
}

// NewEngine opens the corpus at filePath and builds every component.
func NewEngine(filePath string, opts ...EngineOption) (*Engine, error) {
	options := &engineOptions{
		aiConfig: ai.DefaultConfig(),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(options)
	}
	if options.logger == nil {
		options.logger = slog.Default()
	}
	logger := options.logger

	backend, err := badger.OpenBackend(filePath, options.inMemory, badger.WithLogger(logger))
	if err != nil {
		return nil, err
	}

	vectors, err := badger.NewVectorRepository(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}

	provider := options.provider
	if provider == nil {
		provider, err = openai.NewProvider(options.aiConfig)
		if err != nil {
			backend.Close()
			return nil, err
		}
	}

	e := &Engine{
		backend:  backend,
		vectors:  vectors,
		provider: provider,
		logger:   logger.With("component", "engine"),
	}
	if err := e.build(options); err != nil {
		e.Close()
		return nil, err
	}
	return e, nil
}

func (e *Engine) build(options *engineOptions) error {
	pipelineOpts := append([]extraction.Option{extraction.WithLogger(options.logger)}, options.pipelineOpts...)
	pipeline, err := extraction.NewPipeline(e.provider.EvidenceExtractor(), pipelineOpts...)
	if err != nil {
		return err
	}
	e.pipeline = pipeline

	embeddings, err := embedding.NewClient(e.provider.Embedder(), embedding.WithLogger(options.logger))
	if err != nil {
		return err
	}
	e.embeddings = embeddings

	matcherOpts := []similarity.Option{
		similarity.WithCorpus(e.vectors),
		similarity.WithEmbeddingClient(embeddings),
		similarity.WithLogger(options.logger),
	}
	if options.thresholds != nil {
		matcherOpts = append(matcherOpts, similarity.WithThresholds(*options.thresholds))
	}
	matcher, err := similarity.NewMatcher(matcherOpts...)
	if err != nil {
		return err
	}
	e.matcher = matcher
	return nil
}

// Close releases the provider, the repository and the backend.
func (e *Engine) Close() error {
	var errs []error
	if err := e.provider.Close(); err != nil {
		e.logger.Error("error closing AI provider", "err", err)
		errs = append(errs, err)
	}
	if err := e.vectors.Close(); err != nil {
		e.logger.Error("error closing vector repository", "err", err)
		errs = append(errs, err)
	}
	if err := e.backend.Close(); err != nil {
		e.logger.Error("error closing backend storage", "err", err)
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Vectors returns the reference corpus.
func (e *Engine) Vectors() storage.VectorRepository {
	return e.vectors
}

// Matcher returns the similarity matcher searching the corpus.
func (e *Engine) Matcher() *similarity.Matcher {
	return e.matcher
}

// Embeddings returns the embedding client.
func (e *Engine) Embeddings() *embedding.Client {
	return e.embeddings
}

// Pipeline returns the extraction pipeline.
func (e *Engine) Pipeline() *extraction.Pipeline {
	return e.pipeline
}

// Extract validates the transcript and runs the extraction pipeline over it.
func (e *Engine) Extract(ctx context.Context, utterances []core.Utterance, opts *extraction.RunOptions) (*core.ExtractionResult, error) {
	if err := core.ValidateTranscript(utterances); err != nil {
		return nil, err
	}
	return e.pipeline.Run(ctx, utterances, opts)
}

// TextItem is a text to embed and store in the corpus.
type TextItem struct {
	ID    string `json:"id,omitempty"` // empty derives an ID from the content
	Label string `json:"label,omitempty"`
	Text  string `json:"text"`
}

// IndexItems embeds items and stores them under scopeID with the given kind.
// Items that cannot be embedded are skipped. Returns the number stored.
func (e *Engine) IndexItems(ctx context.Context, scopeID, kind string, items []TextItem) (int, error) {
	if err := e.checkIndexable(scopeID); err != nil {
		return 0, err
	}
	entries := e.embedItems(ctx, scopeID, kind, items)
	if len(entries) == 0 {
		return 0, nil
	}
	if _, err := e.vectors.AddEntries(ctx, entries...); err != nil {
		return 0, fmt.Errorf("store %s entries: %w", kind, err)
	}
	return len(entries), nil
}

// IndexResult stores the verbatim text of every evidence item and every
// facet label of an extraction result in one write. Evidence IDs are
// "<runKey>-ev-<index>" and facet IDs "<runKey>-facet-<index>", so
// re-indexing a run replaces it.
func (e *Engine) IndexResult(ctx context.Context, scopeID, runKey string, result *core.ExtractionResult) (int, error) {
	if err := e.checkIndexable(scopeID); err != nil {
		return 0, err
	}
	if result == nil {
		return 0, nil
	}

	evidence := make([]TextItem, len(result.Evidence))
	for i, ev := range result.Evidence {
		evidence[i] = TextItem{
			ID:    fmt.Sprintf("%s-ev-%d", runKey, i),
			Label: ev.PersonKey,
			Text:  ev.Verbatim,
		}
	}
	facets := make([]TextItem, len(result.FacetMentions))
	for i, fm := range result.FacetMentions {
		facets[i] = TextItem{
			ID:    fmt.Sprintf("%s-facet-%d", runKey, i),
			Label: fm.KindSlug,
			Text:  fm.Label,
		}
	}

	entries := e.embedItems(ctx, scopeID, KindEvidence, evidence)
	entries = append(entries, e.embedItems(ctx, scopeID, KindFacet, facets)...)
	if len(entries) == 0 {
		return 0, nil
	}
	if _, err := e.vectors.AddEntries(ctx, entries...); err != nil {
		return 0, fmt.Errorf("store extraction: %w", err)
	}

	e.logger.Info("extraction indexed", "scope", scopeID, "run", runKey, "entries", len(entries))
	return len(entries), nil
}

func (e *Engine) checkIndexable(scopeID string) error {
	if scopeID == "" {
		return core.ErrEmptyScope
	}
	if !e.embeddings.Enabled() {
		return ErrEmbeddingsDisabled
	}
	return nil
}

// embedItems embeds items concurrently and returns entries for those that
// produced a vector.
func (e *Engine) embedItems(ctx context.Context, scopeID, kind string, items []TextItem) []*core.VectorEntry {
	texts := make([]string, len(items))
	for i, item := range items {
		texts[i] = item.Text
	}
	vectors := e.embeddings.EmbedBatch(ctx, texts, embedding.WithLabel(kind))

	entries := make([]*core.VectorEntry, 0, len(items))
	for i, item := range items {
		if vectors[i] == nil {
			continue
		}
		entries = append(entries, &core.VectorEntry{
			ID:      item.ID,
			ScopeID: scopeID,
			Kind:    kind,
			Label:   item.Label,
			Text:    item.Text,
			Vector:  vectors[i],
		})
	}
	if skipped := len(items) - len(entries); skipped > 0 {
		e.logger.Warn("items skipped without embedding", "scope", scopeID, "kind", kind, "skipped", skipped)
	}
	return entries
}

// Search embeds text and returns the corpus matches in scopeID for useCase.
func (e *Engine) Search(ctx context.Context, scopeID, text string, useCase similarity.UseCase, count int) ([]core.MatchResult, error) {
	vector, err := e.embeddings.EmbedOrError(ctx, text, embedding.WithLabel("search"))
	if err != nil {
		return nil, err
	}
	return e.matcher.FindMatches(ctx, vector, scopeID, useCase, count)
}

// SearchAll runs several labelled queries concurrently. A failing label is
// left out of the result.
func (e *Engine) SearchAll(ctx context.Context, scopeID string, queries []similarity.LabeledQuery, useCase similarity.UseCase, count int) map[string][]core.MatchResult {
	return e.matcher.FanOut(ctx, queries, scopeID, useCase, count)
}

// Consolidate plans the merge of near-duplicate entries of one kind in a scope,
// typically themes. evidenceCounts picks the canonical entry of each cluster.
func (e *Engine) Consolidate(ctx context.Context, scopeID, kind string, evidenceCounts map[string]int, useCase similarity.UseCase) ([]similarity.Consolidation, error) {
	entries, err := e.vectors.ListEntries(ctx, scopeID, kind)
	if err != nil {
		return nil, err
	}
	items := make([]similarity.Item, len(entries))
	for i, entry := range entries {
		items[i] = similarity.Item{ID: entry.ID, Vector: entry.Vector}
	}
	return e.matcher.Consolidate(items, evidenceCounts, useCase)
}
