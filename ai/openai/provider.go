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
	"log/slog"

	"github.com/poiesic/evidence/ai"
)

// Provider implements ai.AIProvider using OpenAI-compatible services.
// It manages embedder and evidence extractor instances.
type Provider struct {
	config    *ai.Config
	embedder  ai.Embedder
	extractor *EvidenceExtractor
	logger    *slog.Logger
}

// NewProvider creates a new AI provider with OpenAI-compatible services.
// The config is validated and normalized before use. When the config has no
// embedding host the provider carries no embedder.
//
// Returns ai.AIProvider interface (not *Provider) to enforce abstraction
// and prevent coupling to OpenAI-specific implementation details.
func NewProvider(config *ai.Config) (ai.AIProvider, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	logger := slog.Default().With("component", "openai-provider")

	var embedder ai.Embedder
	if config.EmbeddingsEnabled() {
		var err error
		embedder, err = NewEmbedder(config)
		if err != nil {
			return nil, err
		}
	} else {
		logger.Info("embedding host not configured, embeddings disabled")
	}

	extractor, err := newEvidenceExtractor(config)
	if err != nil {
		return nil, err
	}

	return &Provider{
		config:    config,
		embedder:  embedder,
		extractor: extractor,
		logger:    logger,
	}, nil
}

// Embedder returns the text embedding service, or nil when embeddings are disabled.
func (p *Provider) Embedder() ai.Embedder {
	return p.embedder
}

// EvidenceExtractor returns the evidence extraction service.
func (p *Provider) EvidenceExtractor() ai.EvidenceExtractor {
	return p.extractor
}

// Close releases resources held by the provider.
// Currently a no-op as the underlying clients don't require explicit cleanup.
func (p *Provider) Close() error {
	p.logger.Debug("closing OpenAI provider")
	return nil
}
