// Package embedding provides a resilient client for text embeddings.
//
// The client truncates input, retries transient provider failures with
// exponential backoff (honoring Retry-After on rate limits), and degrades to
// a nil vector instead of failing. EmbedOrError is the strict variant and
// EmbedBatch embeds many texts with a concurrency cap.
package embedding
