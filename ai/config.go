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


package ai

import (
	"errors"
	"strings"
	"time"
)

// Embedding transports understood by the openai provider.
const (
	// EmbeddingTransportLangchain uses langchaingo's OpenAI client.
	EmbeddingTransportLangchain = "langchaingo"

	// EmbeddingTransportREST calls the /embeddings endpoint directly, which
	// exposes Retry-After on 429 responses and supports the dimensions parameter.
	EmbeddingTransportREST = "rest"
)

// Config holds configuration for AI service providers.
type Config struct {
	// EmbeddingHost is the base URL for the embedding service API.
	// An empty host disables embeddings; the embedding client then returns nil vectors.
	// Example: "http://localhost:11434/v1" for local OpenAI-compatible server
	EmbeddingHost string

	// ExtractorHost is the base URL for the evidence extraction chat API.
	ExtractorHost string

	// EmbeddingModel is the model identifier to use for text embeddings.
	// Example: "text-embedding-3-small", "embeddinggemma"
	EmbeddingModel string

	// ExtractorModel is the chat model used to extract evidence from transcripts.
	// Example: "gpt-4o-mini", "qwen2.5:7b"
	ExtractorModel string

	// APIKey is sent as a bearer token. Local servers accept any value.
	APIKey string

	// EmbeddingDimensions requests reduced output dimensions. Zero leaves the
	// model default. Only the REST transport sends it.
	EmbeddingDimensions int

	// EmbeddingTransport selects how embeddings are requested.
	// Default: EmbeddingTransportLangchain
	EmbeddingTransport string

	// RequestTimeout bounds a single HTTP call made by the REST transport.
	RequestTimeout time.Duration
}

// ConfigOption is a functional option for configuring a Config.
type ConfigOption func(*Config)

// WithEmbeddingHost sets the embedding service host URL.
func WithEmbeddingHost(host string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingHost = host
	}
}

// WithExtractorHost sets the extraction service host URL.
func WithExtractorHost(host string) ConfigOption {
	return func(c *Config) {
		c.ExtractorHost = host
	}
}

// WithHost sets both embedding and extractor hosts to the same URL.
func WithHost(host string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingHost = host
		c.ExtractorHost = host
	}
}

// WithEmbeddingModel sets the embedding model identifier.
func WithEmbeddingModel(model string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingModel = model
	}
}

// WithExtractorModel sets the extraction model identifier.
func WithExtractorModel(model string) ConfigOption {
	return func(c *Config) {
		c.ExtractorModel = model
	}
}

// WithAPIKey sets the bearer token sent to both services.
func WithAPIKey(key string) ConfigOption {
	return func(c *Config) {
		c.APIKey = key
	}
}

// WithEmbeddingDimensions sets the requested embedding size.
func WithEmbeddingDimensions(dims int) ConfigOption {
	return func(c *Config) {
		c.EmbeddingDimensions = dims
	}
}

// WithEmbeddingTransport selects the embedding transport.
func WithEmbeddingTransport(transport string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingTransport = transport
	}
}

// WithRequestTimeout sets the per-request timeout of the REST transport.
func WithRequestTimeout(d time.Duration) ConfigOption {
	return func(c *Config) {
		c.RequestTimeout = d
	}
}

// DefaultConfig returns a Config with sensible defaults for local OpenAI-compatible services.
// By default, both embedding and extraction use the same host.
func DefaultConfig() *Config {
	defaultHost := "http://localhost:11434/v1"
	return &Config{
		EmbeddingHost:      defaultHost,
		ExtractorHost:      defaultHost,
		EmbeddingModel:     "embeddinggemma",
		ExtractorModel:     "qwen2.5:7b",
		EmbeddingTransport: EmbeddingTransportLangchain,
		RequestTimeout:     60 * time.Second,
	}
}

// NewConfig creates a Config with the default values and applies the provided options.
//
// Example:
//
//	cfg := NewConfig(
//	    WithHost("https://api.openai.com/v1"),
//	    WithAPIKey(os.Getenv("OPENAI_API_KEY")),
//	    WithEmbeddingModel("text-embedding-3-small"),
//	    WithEmbeddingTransport(EmbeddingTransportREST),
//	)
func NewConfig(opts ...ConfigOption) *Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// EmbeddingsEnabled reports whether an embedding service is configured.
func (c *Config) EmbeddingsEnabled() bool {
	return c.EmbeddingHost != ""
}

// Normalize ensures the configuration is in a canonical form.
// It adds the /v1 suffix to hosts if missing, which is required
// by most OpenAI-compatible APIs (Ollama, LocalAI, vLLM, etc).
func (c *Config) Normalize() {
	c.EmbeddingHost = normalizeHost(c.EmbeddingHost)
	c.ExtractorHost = normalizeHost(c.ExtractorHost)
	if c.EmbeddingTransport == "" {
		c.EmbeddingTransport = EmbeddingTransportLangchain
	}
}

func normalizeHost(host string) string {
	if host == "" || strings.HasSuffix(host, "/v1") {
		return host
	}
	return strings.TrimSuffix(host, "/") + "/v1"
}

// Validate checks that the configuration is valid and complete.
// It normalizes the configuration before validation.
func (c *Config) Validate() error {
	c.Normalize()

	if c.ExtractorHost == "" {
		return errors.New("ai config: ExtractorHost is required")
	}
	if c.ExtractorModel == "" {
		return errors.New("ai config: ExtractorModel is required")
	}
	if c.EmbeddingsEnabled() && c.EmbeddingModel == "" {
		return errors.New("ai config: EmbeddingModel is required when EmbeddingHost is set")
	}
	if c.EmbeddingDimensions < 0 {
		return errors.New("ai config: EmbeddingDimensions must not be negative")
	}
	switch c.EmbeddingTransport {
	case EmbeddingTransportLangchain, EmbeddingTransportREST:
	default:
		return errors.New("ai config: EmbeddingTransport must be \"langchaingo\" or \"rest\"")
	}
	if c.RequestTimeout < 0 {
		return errors.New("ai config: RequestTimeout must not be negative")
	}
	return nil
}
