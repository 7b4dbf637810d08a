package extraction

import (
	"testing"

	"github.com/poiesic/evidence/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func evidenceN(n int, prefix string) []core.Evidence {
	out := make([]core.Evidence, n)
	for i := range out {
		out[i] = core.Evidence{Verbatim: prefix}
	}
	return out
}

func TestMergeResults_OffsetsAndOrder(t *testing.T) {
	// 200 utterances at 75 per batch: batch sizes 75, 75, 50 with
	// 4, 3 and 2 evidence items respectively.
	results := []*core.ExtractionResult{
		{
			People:        []core.Person{{PersonKey: "ana", DisplayName: "Ana"}},
			Evidence:      evidenceN(4, "b0"),
			FacetMentions: []core.FacetMention{{ParentIndex: 3, KindSlug: "pain"}},
			Scenes:        []core.Scene{{StartIndex: 0, EndIndex: 3}},
		},
		{
			People:        []core.Person{{PersonKey: "ana", DisplayName: "Ana (dup)"}, {PersonKey: "ben"}},
			Evidence:      evidenceN(3, "b1"),
			FacetMentions: []core.FacetMention{{ParentIndex: 0, KindSlug: "goal"}},
			Scenes:        []core.Scene{{StartIndex: 1, EndIndex: 2}},
		},
		{
			Evidence:      evidenceN(2, "b2"),
			FacetMentions: []core.FacetMention{{ParentIndex: 1, KindSlug: "tool"}},
		},
	}

	merged := MergeResults(results)

	require.Len(t, merged.Evidence, 9)
	assert.Equal(t, "b0", merged.Evidence[3].Verbatim)
	assert.Equal(t, "b1", merged.Evidence[4].Verbatim)
	assert.Equal(t, "b2", merged.Evidence[8].Verbatim)

	require.Len(t, merged.People, 2)
	assert.Equal(t, "Ana", merged.People[0].DisplayName, "first occurrence wins")
	assert.Equal(t, "ben", merged.People[1].PersonKey)

	require.Len(t, merged.FacetMentions, 3)
	assert.Equal(t, 3, merged.FacetMentions[0].ParentIndex)
	assert.Equal(t, 4, merged.FacetMentions[1].ParentIndex)
	assert.Equal(t, 8, merged.FacetMentions[2].ParentIndex, "local index 1 in third batch")

	require.Len(t, merged.Scenes, 2)
	assert.Equal(t, core.Scene{StartIndex: 0, EndIndex: 3}, merged.Scenes[0])
	assert.Equal(t, core.Scene{StartIndex: 5, EndIndex: 6}, merged.Scenes[1])
}

func TestMergeResults_FacetRewriteWithSevenPriorEvidence(t *testing.T) {
	results := []*core.ExtractionResult{
		{Evidence: evidenceN(4, "a")},
		{Evidence: evidenceN(3, "b")},
		{Evidence: evidenceN(2, "c"), FacetMentions: []core.FacetMention{{ParentIndex: 1}}},
	}

	merged := MergeResults(results)

	require.Len(t, merged.FacetMentions, 1)
	assert.Equal(t, 8, merged.FacetMentions[0].ParentIndex)
}

func TestMergeResults_NilAndEmpty(t *testing.T) {
	merged := MergeResults([]*core.ExtractionResult{nil, {}, {Evidence: evidenceN(1, "x"), FacetMentions: []core.FacetMention{{ParentIndex: 0}}}})

	require.Len(t, merged.Evidence, 1)
	assert.Equal(t, 0, merged.FacetMentions[0].ParentIndex)
	assert.NotNil(t, merged.People)
	assert.NotNil(t, merged.Scenes)

	empty := MergeResults(nil)
	assert.Empty(t, empty.Evidence)
}

func TestMergeResults_DoesNotMutateInputs(t *testing.T) {
	start := 1.5
	input := []*core.ExtractionResult{
		{Evidence: evidenceN(2, "a")},
		{
			People:        []core.Person{{PersonKey: "p", Attributes: map[string]string{"team": "ops"}}},
			Evidence:      []core.Evidence{{Verbatim: "b", Start: &start, Facets: map[string][]string{"pain": {"slow"}}}},
			FacetMentions: []core.FacetMention{{ParentIndex: 0}},
			Scenes:        []core.Scene{{StartIndex: 0, EndIndex: 0}},
		},
	}

	merged := MergeResults(input)

	assert.Equal(t, 0, input[1].FacetMentions[0].ParentIndex)
	assert.Equal(t, 0, input[1].Scenes[0].StartIndex)

	*merged.Evidence[2].Start = 99
	merged.Evidence[2].Facets["pain"][0] = "changed"
	merged.People[0].Attributes["team"] = "changed"

	assert.Equal(t, 1.5, start)
	assert.Equal(t, "slow", input[1].Evidence[0].Facets["pain"][0])
	assert.Equal(t, "ops", input[1].People[0].Attributes["team"])
}

func TestMergeResults_FirstPersonWinsAcrossBatches(t *testing.T) {
	results := []*core.ExtractionResult{
		{
			People:   []core.Person{{PersonKey: "ana", DisplayName: "Ana", Role: "buyer"}},
			Evidence: evidenceN(1, "b0"),
		},
		{
			People:   []core.Person{{PersonKey: "ben"}},
			Evidence: evidenceN(1, "b1"),
		},
		{
			People:   []core.Person{{PersonKey: "ana", DisplayName: "Ana B.", Role: "admin"}},
			Evidence: evidenceN(1, "b2"),
		},
	}

	merged := MergeResults(results)

	require.Len(t, merged.People, 2)
	assert.Equal(t, core.Person{PersonKey: "ana", DisplayName: "Ana", Role: "buyer"}, merged.People[0])
	assert.Equal(t, "ben", merged.People[1].PersonKey)
}
