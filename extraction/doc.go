// Package extraction turns long transcripts into structured evidence by
// splitting them into batches, running an evidence extractor over the
// batches with bounded concurrency, and merging the per-batch results.
//
// Index-bearing records (facet mentions, scenes) are rewritten during the
// merge so that they point into the merged evidence slice.
//
// # Usage
//
//	pipeline, err := extraction.NewPipeline(provider.EvidenceExtractor(),
//	    extraction.WithBatchSize(75),
//	    extraction.WithPoolSize(3),
//	)
//	result, err := pipeline.Run(ctx, utterances, &extraction.RunOptions{
//	    Heartbeat: func() { activity.RecordHeartbeat(ctx) },
//	})
package extraction
