package similarity

import (
	"cmp"
	"slices"
)

// Item is an embedded entity taking part in duplicate detection, such as a theme.
type Item struct {
	ID     string
	Vector []float32
}

// Pair is two items whose similarity met the threshold. A < B.
type Pair struct {
	A     string
	B     string
	Score float32
}

// Consolidation merges Duplicates into Canonical.
type Consolidation struct {
	Canonical  string   `json:"canonical"`
	Duplicates []string `json:"duplicates"`
}

// FindDuplicatePairs compares every pair of items and returns those scoring
// at or above the threshold for useCase, highest score first, ties ordered
// by ID. Items without a vector are ignored.
func (m *Matcher) FindDuplicatePairs(items []Item, useCase UseCase) ([]Pair, error) {
	threshold, err := m.thresholds.For(useCase)
	if err != nil {
		return nil, err
	}

	pairs := []Pair{}
	for i := 0; i < len(items); i++ {
		if len(items[i].Vector) == 0 {
			continue
		}
		for j := i + 1; j < len(items); j++ {
			if len(items[j].Vector) == 0 || items[i].ID == items[j].ID {
				continue
			}
			score := Cosine(items[i].Vector, items[j].Vector)
			if score < threshold {
				continue
			}
			a, b := items[i].ID, items[j].ID
			if b < a {
				a, b = b, a
			}
			pairs = append(pairs, Pair{A: a, B: b, Score: score})
		}
	}

	slices.SortFunc(pairs, func(x, y Pair) int {
		if c := cmp.Compare(y.Score, x.Score); c != 0 {
			return c
		}
		if c := cmp.Compare(x.A, y.A); c != 0 {
			return c
		}
		return cmp.Compare(x.B, y.B)
	})

	m.logger.Debug("duplicate pairs", "items", len(items), "pairs", len(pairs), "threshold", threshold)
	return pairs, nil
}

// BuildClusters groups the IDs connected by pairs using union-find with path
// compression. Only clusters of two or more IDs are returned; each cluster is
// sorted and clusters are ordered by their first ID.
func BuildClusters(pairs []Pair) [][]string {
	parent := make(map[string]string)

	var find func(x string) string
	find = func(x string) string {
		if parent[x] != x {
			parent[x] = find(parent[x])
		}
		return parent[x]
	}

	for _, p := range pairs {
		for _, id := range []string{p.A, p.B} {
			if _, ok := parent[id]; !ok {
				parent[id] = id
			}
		}
	}
	for _, p := range pairs {
		ra, rb := find(p.A), find(p.B)
		if ra != rb {
			parent[ra] = rb
		}
	}

	groups := make(map[string][]string)
	for id := range parent {
		root := find(id)
		groups[root] = append(groups[root], id)
	}

	clusters := make([][]string, 0, len(groups))
	for _, members := range groups {
		if len(members) < 2 {
			continue
		}
		slices.Sort(members)
		clusters = append(clusters, members)
	}
	slices.SortFunc(clusters, func(a, b []string) int {
		return cmp.Compare(a[0], b[0])
	})
	return clusters
}

// Consolidate finds clusters of near-duplicate items and picks a canonical
// item for each: the one with the most evidence, ties going to the smaller ID.
// Missing counts are zero.
func (m *Matcher) Consolidate(items []Item, evidenceCounts map[string]int, useCase UseCase) ([]Consolidation, error) {
	pairs, err := m.FindDuplicatePairs(items, useCase)
	if err != nil {
		return nil, err
	}
	clusters := BuildClusters(pairs)

	out := make([]Consolidation, 0, len(clusters))
	for _, cluster := range clusters {
		canonical := cluster[0]
		for _, id := range cluster[1:] {
			if evidenceCounts[id] > evidenceCounts[canonical] {
				canonical = id
			}
		}

		duplicates := make([]string, 0, len(cluster)-1)
		for _, id := range cluster {
			if id != canonical {
				duplicates = append(duplicates, id)
			}
		}
		out = append(out, Consolidation{Canonical: canonical, Duplicates: duplicates})
		m.logger.Debug("cluster",
			"canonical", canonical,
			"evidence", evidenceCounts[canonical],
			"duplicates", len(duplicates))
	}

	m.logger.Info("consolidation planned", "pairs", len(pairs), "clusters", len(out))
	return out, nil
}
