package evidence

import (
	"context"
	"fmt"
	"time"

	"github.com/poiesic/evidence/core"
	"github.com/poiesic/evidence/embedding"
)

// DefaultReembedBatchSize is the number of entries re-embedded per write.
const DefaultReembedBatchSize = 100

// ReembedProgress reports a re-embedding run after each batch.
type ReembedProgress struct {
	Processed int
	Total     int
	Failed    int
}

// Reembed recomputes the vector of every entry in a scope with the current
// embedder, for example after switching embedding models. Entries that
// cannot be embedded keep their old vector and are counted as failed.
// Each batch is written as it completes, so a cancelled run leaves earlier
// batches updated. Returns the number of entries re-embedded.
func (e *Engine) Reembed(ctx context.Context, scopeID string, batchSize int, observe func(ReembedProgress)) (int, error) {
	if err := e.checkIndexable(scopeID); err != nil {
		return 0, err
	}
	if batchSize < 1 {
		batchSize = DefaultReembedBatchSize
	}

	entries, err := e.vectors.ListEntries(ctx, scopeID, "")
	if err != nil {
		return 0, fmt.Errorf("list entries: %w", err)
	}

	started := time.Now()
	progress := ReembedProgress{Total: len(entries)}
	reembedded := 0
	for start := 0; start < len(entries); start += batchSize {
		if err := ctx.Err(); err != nil {
			return reembedded, err
		}
		batch := entries[start:min(start+batchSize, len(entries))]

		texts := make([]string, len(batch))
		for i, entry := range batch {
			texts[i] = entry.Text
		}
		vectors := e.embeddings.EmbedBatch(ctx, texts, embedding.WithLabel("reembed"))

		updated := make([]*core.VectorEntry, 0, len(batch))
		for i, entry := range batch {
			if vectors[i] == nil {
				progress.Failed++
				continue
			}
			entry.Vector = vectors[i]
			updated = append(updated, entry)
		}
		if len(updated) > 0 {
			if _, err := e.vectors.AddEntries(ctx, updated...); err != nil {
				return reembedded, fmt.Errorf("store batch at %d: %w", start, err)
			}
		}
		reembedded += len(updated)

		progress.Processed += len(batch)
		if observe != nil {
			observe(progress)
		}
	}

	e.logger.Info("scope re-embedded",
		"scope", scopeID,
		"entries", len(entries),
		"reembedded", reembedded,
		"failed", progress.Failed,
		"elapsed", time.Since(started))
	return reembedded, nil
}
