package core

import (
	"encoding/binary"
	"strconv"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a content-derived identifier for stored entities.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// String renders the ID in base 16.
func (id ID) String() string {
	return strconv.FormatUint(uint64(id), 16)
}

// Utterance is a single speaker turn in a transcript. It is the atomic unit
// of batching and is never split.
type Utterance struct {
	Speaker string   `json:"speaker"`
	Text    string   `json:"text"`
	Start   *float64 `json:"start,omitempty"` // seconds from start of recording
	End     *float64 `json:"end,omitempty"`
}

// Batch is a contiguous slice of utterances tagged with its zero-based position.
type Batch struct {
	Index      int
	Utterances []Utterance
}

// Person is someone mentioned or speaking in a transcript.
// PersonKey is stable across batches and unique within a merged result.
type Person struct {
	PersonKey   string            `json:"person_key"`
	DisplayName string            `json:"display_name,omitempty"`
	Role        string            `json:"role,omitempty"`
	Attributes  map[string]string `json:"attributes,omitempty"`
}

// Evidence is one extracted record (quote, observation, pain, ...).
// Other records refer to it by its index in ExtractionResult.Evidence.
type Evidence struct {
	PersonKey string              `json:"person_key,omitempty"`
	Verbatim  string              `json:"verbatim"`
	Gist      string              `json:"gist,omitempty"`
	Start     *float64            `json:"start,omitempty"`
	End       *float64            `json:"end,omitempty"`
	Facets    map[string][]string `json:"facets,omitempty"`
}

// FacetMention tags an evidence item with a categorical facet.
// ParentIndex points into the evidence slice of the result that holds it.
type FacetMention struct {
	ParentIndex int    `json:"parent_index"`
	PersonKey   string `json:"person_key,omitempty"`
	KindSlug    string `json:"kind_slug"`
	Label       string `json:"label"`
	Quote       string `json:"quote,omitempty"`
}

// Scene is a contiguous, inclusive span of evidence indices forming one narrative unit.
type Scene struct {
	StartIndex int    `json:"start_index"`
	EndIndex   int    `json:"end_index"`
	Topic      string `json:"topic,omitempty"`
	Summary    string `json:"summary,omitempty"`
}

// ExtractionResult is the output of one extraction call, or of merging several.
type ExtractionResult struct {
	People        []Person       `json:"people"`
	Evidence      []Evidence     `json:"evidence"`
	FacetMentions []FacetMention `json:"facet_mentions"`
	Scenes        []Scene        `json:"scenes"`
}

// MatchResult is the outcome of comparing a similarity score against a threshold.
type MatchResult struct {
	ID      string  `json:"id"`
	Score   float32 `json:"score"`
	IsMatch bool    `json:"is_match"`
}

// VectorEntry is an embedded text stored in the reference corpus.
type VectorEntry struct {
	ID         string
	ScopeID    string // project or interview the entry belongs to
	Kind       string // "evidence", "theme", "facet", ...
	Label      string
	Text       string
	Vector     []float32
	InsertedAt time.Time
}
