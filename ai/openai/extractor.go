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


package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/poiesic/evidence/ai"
	"github.com/poiesic/evidence/core"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// maxParseAttempts bounds regeneration when the model returns malformed JSON.
const maxParseAttempts = 3

// EvidenceExtractor implements ai.EvidenceExtractor using OpenAI-compatible chat APIs.
type EvidenceExtractor struct {
	client llms.Model
	logger *slog.Logger
}

// newEvidenceExtractor is an internal constructor that returns the concrete type.
func newEvidenceExtractor(config *ai.Config) (*EvidenceExtractor, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	client, err := openai.New(
		openai.WithBaseURL(config.ExtractorHost),
		openai.WithToken(token(config.APIKey)),
		openai.WithModel(config.ExtractorModel),
	)
	if err != nil {
		return nil, err
	}

	return newEvidenceExtractorWithModel(client), nil
}

func newEvidenceExtractorWithModel(client llms.Model) *EvidenceExtractor {
	return &EvidenceExtractor{
		client: client,
		logger: slog.Default().With("component", "openai-extractor"),
	}
}

// NewEvidenceExtractor creates a new evidence extractor using the provided configuration.
//
// Returns ai.EvidenceExtractor interface to enforce abstraction.
func NewEvidenceExtractor(config *ai.Config) (ai.EvidenceExtractor, error) {
	return newEvidenceExtractor(config)
}

// ExtractEvidence sends the utterances to the model and parses its JSON answer.
// A transport failure is returned immediately; malformed JSON is regenerated
// up to maxParseAttempts times.
func (e *EvidenceExtractor) ExtractEvidence(ctx context.Context, utterances []core.Utterance) (*core.ExtractionResult, error) {
	if len(utterances) == 0 {
		return emptyResult(), nil
	}

	content := []llms.MessageContent{
		{
			Role:  llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{llms.TextPart(buildSystemPrompt())},
		},
		{
			Role:  llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{llms.TextPart(formatTranscript(utterances))},
		},
	}

	var lastErr error
	for attempt := 0; attempt < maxParseAttempts; attempt++ {
		response, err := e.client.GenerateContent(ctx, content, llms.WithTemperature(0.0), llms.WithJSONMode())
		if err != nil {
			e.logger.Error("failed to generate content", "attempt", attempt+1, "err", err)
			return nil, fmt.Errorf("generate evidence: %w", classifyError(err))
		}

		if len(response.Choices) < 1 {
			e.logger.Debug("no choices returned from model")
			return emptyResult(), nil
		}

		result, err := parseExtraction(response.Choices[0].Content)
		if err != nil {
			lastErr = err
			e.logger.Warn("error parsing extractor response", "attempt", attempt+1, "err", err)
			continue
		}

		dropped := sanitize(result)
		if dropped > 0 {
			e.logger.Warn("dropped out-of-range references", "count", dropped)
		}
		e.logger.Debug("extracted evidence",
			"utterances", len(utterances),
			"people", len(result.People),
			"evidence", len(result.Evidence),
			"facets", len(result.FacetMentions))
		return result, nil
	}

	e.logger.Error("failed to parse extractor response after retries", "err", lastErr)
	return nil, fmt.Errorf("parse evidence: %w", lastErr)
}

func parseExtraction(raw string) (*core.ExtractionResult, error) {
	text := repairJSON(stripCodeFence(raw))
	var result core.ExtractionResult
	if err := json.Unmarshal([]byte(text), &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// sanitize replaces nil slices with empty ones and removes facet mentions and
// scenes whose indices fall outside the evidence slice. It returns how many
// records were removed.
func sanitize(r *core.ExtractionResult) int {
	if r.People == nil {
		r.People = []core.Person{}
	}
	if r.Evidence == nil {
		r.Evidence = []core.Evidence{}
	}
	n := len(r.Evidence)
	dropped := 0

	mentions := make([]core.FacetMention, 0, len(r.FacetMentions))
	for _, m := range r.FacetMentions {
		if m.ParentIndex < 0 || m.ParentIndex >= n {
			dropped++
			continue
		}
		mentions = append(mentions, m)
	}
	r.FacetMentions = mentions

	scenes := make([]core.Scene, 0, len(r.Scenes))
	for _, s := range r.Scenes {
		if s.StartIndex < 0 || s.EndIndex >= n || s.StartIndex > s.EndIndex {
			dropped++
			continue
		}
		scenes = append(scenes, s)
	}
	r.Scenes = scenes

	return dropped
}

func emptyResult() *core.ExtractionResult {
	return &core.ExtractionResult{
		People:        []core.Person{},
		Evidence:      []core.Evidence{},
		FacetMentions: []core.FacetMention{},
		Scenes:        []core.Scene{},
	}
}
