// Package similarity decides whether embedded texts match.
//
// A Matcher holds a threshold table keyed by UseCase. Compare scores two
// vectors with cosine similarity; FindMatches queries a CorpusLookup and
// applies the same threshold to the returned candidates; FanOut runs several
// labelled text queries concurrently and keeps going when one of them fails.
//
// Consolidate groups near-duplicate items (themes, for example) into clusters
// and names a canonical item for each.
package similarity
