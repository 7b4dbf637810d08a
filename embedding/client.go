package embedding

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/poiesic/evidence/ai"
	"golang.org/x/sync/errgroup"
)

// Defaults for embedding calls.
const (
	DefaultMaxLength        = 8000
	DefaultRetries          = 2
	DefaultBatchConcurrency = 5
	DefaultLabel            = "text"
)

// Client wraps an ai.Embedder with truncation, retries and graceful failure.
//
// Embed never returns an error: a missing embedder, blank text, exhausted
// retries and cancellation all yield a nil vector, so callers can degrade
// instead of failing.
type Client struct {
	embedder ai.Embedder
	logger   *slog.Logger
	newTimer func() backoff.Timer // nil uses the backoff package's real timer
}

// ClientOption configures a Client.
type ClientOption func(*Client) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) error {
		if logger == nil {
			logger = slog.Default()
		}
		c.logger = logger
		return nil
	}
}

// NewClient creates a client around embedder. A nil embedder means no
// credential is configured; every Embed call then returns nil without work.
func NewClient(embedder ai.Embedder, opts ...ClientOption) (*Client, error) {
	c := &Client{
		embedder: embedder,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	c.logger = c.logger.With("component", "embedding-client")
	return c, nil
}

// Enabled reports whether the client has an embedder to call.
func (c *Client) Enabled() bool {
	return c.embedder != nil
}

type callConfig struct {
	maxLength   int
	retries     int
	label       string
	concurrency int
}

// CallOption adjusts a single Embed, EmbedOrError or EmbedBatch call.
type CallOption func(*callConfig)

// WithMaxLength sets the rune limit applied before submission.
func WithMaxLength(n int) CallOption {
	return func(c *callConfig) {
		if n > 0 {
			c.maxLength = n
		}
	}
}

// WithRetries sets the number of additional attempts after the first failure.
func WithRetries(n int) CallOption {
	return func(c *callConfig) {
		if n >= 0 {
			c.retries = n
		}
	}
}

// WithLabel names the text in logs and errors, e.g. "theme:pricing".
func WithLabel(label string) CallOption {
	return func(c *callConfig) {
		if label != "" {
			c.label = label
		}
	}
}

// WithBatchConcurrency caps concurrent provider calls in EmbedBatch.
func WithBatchConcurrency(n int) CallOption {
	return func(c *callConfig) {
		if n > 0 {
			c.concurrency = n
		}
	}
}

func newCallConfig(opts []CallOption) callConfig {
	cfg := callConfig{
		maxLength:   DefaultMaxLength,
		retries:     DefaultRetries,
		label:       DefaultLabel,
		concurrency: DefaultBatchConcurrency,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// Embed returns the embedding of text, or nil when none can be produced.
//
// Rate-limited attempts wait for the provider's Retry-After (default 5s);
// other failures wait 2^attempt seconds. At most retries additional attempts
// are made.
func (c *Client) Embed(ctx context.Context, text string, opts ...CallOption) []float32 {
	if c.embedder == nil {
		return nil
	}
	if strings.TrimSpace(text) == "" {
		return nil
	}
	cfg := newCallConfig(opts)
	input := Truncate(text, cfg.maxLength)
	logger := c.logger.With("label", cfg.label)

	sched := newSchedule()
	attempt := 0
	var vector []float32
	operation := func() error {
		attempt++
		v, err := c.embedder.EmbedText(ctx, input)
		sched.last = err
		if err != nil {
			return err
		}
		vector = v
		return nil
	}
	notify := func(err error, wait time.Duration) {
		logger.Warn("embedding attempt failed, retrying", "attempt", attempt, "wait", wait, "err", err)
	}

	var inner backoff.BackOff = &backoff.StopBackOff{}
	if cfg.retries > 0 {
		inner = backoff.WithMaxRetries(sched, uint64(cfg.retries))
	}
	policy := backoff.WithContext(inner, ctx)
	var timer backoff.Timer
	if c.newTimer != nil {
		timer = c.newTimer()
	}
	if err := backoff.RetryNotifyWithTimer(operation, policy, notify, timer); err != nil {
		if ctx.Err() != nil {
			logger.Debug("embedding cancelled", "attempts", attempt, "err", err)
			return nil
		}
		logger.Error("embedding failed after retries", "attempts", attempt, "err", err)
		return nil
	}
	if len(vector) == 0 {
		return nil
	}
	return vector
}

// EmbedOrError is Embed for callers that cannot proceed without a vector.
func (c *Client) EmbedOrError(ctx context.Context, text string, opts ...CallOption) ([]float32, error) {
	cfg := newCallConfig(opts)
	vector := c.Embed(ctx, text, opts...)
	if vector == nil {
		return nil, fmt.Errorf("%w: %s", ErrEmbeddingUnavailable, cfg.label)
	}
	return vector, nil
}

// EmbedBatch embeds texts concurrently and returns vectors in input order.
// Failed or blank items are nil. No heartbeat is emitted.
func (c *Client) EmbedBatch(ctx context.Context, texts []string, opts ...CallOption) [][]float32 {
	out := make([][]float32, len(texts))
	if len(texts) == 0 || c.embedder == nil {
		return out
	}
	cfg := newCallConfig(opts)

	var g errgroup.Group
	g.SetLimit(cfg.concurrency)
	for i, text := range texts {
		itemOpts := append(slices.Clip(opts), WithLabel(fmt.Sprintf("%s[%d]", cfg.label, i)))
		g.Go(func() error {
			out[i] = c.Embed(ctx, text, itemOpts...)
			return nil
		})
	}
	_ = g.Wait()
	return out
}
