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


// Package ai provides abstractions for the AI services used by the evidence engine.
//
// This package defines interfaces for text embeddings and transcript evidence
// extraction so that the extraction pipeline and the similarity engine depend
// on abstractions rather than on a particular vendor.
//
// # Interfaces
//
//   - Embedder: Generates vector embeddings from text
//   - EvidenceExtractor: Turns utterances into people, evidence, facet mentions and scenes
//   - AIProvider: Aggregates AI services for convenient initialization
//
// Provider rate limits surface as *RateLimitError so that callers can honor
// the server's Retry-After hint.
//
// # Implementation Packages
//
//   - ai/openai: Production implementation using OpenAI-compatible APIs
//   - ai/mock: Test doubles for unit testing without external dependencies
//
// Public constructors (openai.NewProvider, openai.NewEmbedder, etc.) return
// interface types. Mock constructors return concrete types so tests can inject
// behavior and inspect call counts.
//
// # Usage Example
//
//	config := ai.NewConfig(ai.WithHost("http://localhost:11434"))
//	provider, err := openai.NewProvider(config)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer provider.Close()
//
//	result, err := provider.EvidenceExtractor().ExtractEvidence(ctx, utterances)
package ai
