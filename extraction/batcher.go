package extraction

import "github.com/poiesic/evidence/core"

// DefaultBatchSize is the number of utterances sent to the extractor per call.
const DefaultBatchSize = 75

// NeedsBatching reports whether n utterances must be split for the given batch size.
// When it returns false the pipeline calls the extractor once with the whole transcript.
func NeedsBatching(n, batchSize int) bool {
	return n > normalizeBatchSize(batchSize)
}

// SplitBatches partitions utterances into ceil(len/batchSize) contiguous batches.
// Every batch except possibly the last holds exactly batchSize utterances.
// A batchSize below 1 falls back to DefaultBatchSize.
// Batches share the backing array of utterances.
func SplitBatches(utterances []core.Utterance, batchSize int) []core.Batch {
	size := normalizeBatchSize(batchSize)
	if len(utterances) == 0 {
		return []core.Batch{}
	}

	batches := make([]core.Batch, 0, (len(utterances)+size-1)/size)
	for start := 0; start < len(utterances); start += size {
		end := min(start+size, len(utterances))
		batches = append(batches, core.Batch{
			Index:      len(batches),
			Utterances: utterances[start:end:end],
		})
	}
	return batches
}

func normalizeBatchSize(size int) int {
	if size < 1 {
		return DefaultBatchSize
	}
	return size
}
