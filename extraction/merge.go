package extraction

import (
	"maps"
	"slices"

	"github.com/poiesic/evidence/core"
)

// MergeResults combines per-batch results, given in batch order, into one result.
//
//   - People are kept on first occurrence of their PersonKey.
//   - Evidence is concatenated in batch order.
//   - Facet mention ParentIndex and scene Start/EndIndex are shifted by the
//     number of evidence items merged before their batch.
//
// Inputs are neither validated nor mutated; nil entries count as empty results.
func MergeResults(results []*core.ExtractionResult) *core.ExtractionResult {
	merged := &core.ExtractionResult{
		People:        []core.Person{},
		Evidence:      []core.Evidence{},
		FacetMentions: []core.FacetMention{},
		Scenes:        []core.Scene{},
	}
	seen := make(map[string]struct{})

	for _, r := range results {
		if r == nil {
			continue
		}
		offset := len(merged.Evidence)

		for _, p := range r.People {
			if _, ok := seen[p.PersonKey]; ok {
				continue
			}
			seen[p.PersonKey] = struct{}{}
			p.Attributes = maps.Clone(p.Attributes)
			merged.People = append(merged.People, p)
		}

		for _, ev := range r.Evidence {
			merged.Evidence = append(merged.Evidence, copyEvidence(ev))
		}

		for _, m := range r.FacetMentions {
			m.ParentIndex += offset
			merged.FacetMentions = append(merged.FacetMentions, m)
		}

		for _, s := range r.Scenes {
			s.StartIndex += offset
			s.EndIndex += offset
			merged.Scenes = append(merged.Scenes, s)
		}
	}

	return merged
}

func copyEvidence(ev core.Evidence) core.Evidence {
	if ev.Start != nil {
		start := *ev.Start
		ev.Start = &start
	}
	if ev.End != nil {
		end := *ev.End
		ev.End = &end
	}
	if ev.Facets != nil {
		facets := make(map[string][]string, len(ev.Facets))
		for k, v := range ev.Facets {
			facets[k] = slices.Clone(v)
		}
		ev.Facets = facets
	}
	return ev
}
