package analysis

// DefaultClusterThreshold is the minimum Jaccard similarity between
// two documents' top-keyword sets for them to share a cluster.
const DefaultClusterThreshold = 0.3

// Cluster groups documents whose keyword sets are pairwise similar
// above the threshold, via union-find over the closed corpus. Cluster
// ids are dense, assigned in input order, and stable for a fixed
// corpus: the same inputs always yield the same ids.
func Cluster(keywordSets []map[string]struct{}, threshold float64) []int {
	n := len(keywordSets)
	parent := make([]int, n)
	for i := range parent {
		parent[i] = i
	}
	var find func(int) int
	find = func(x int) int {
		for parent[x] != x {
			parent[x] = parent[parent[x]]
			x = parent[x]
		}
		return x
	}
	union := func(a, b int) {
		ra, rb := find(a), find(b)
		if ra == rb {
			return
		}
		if ra > rb {
			ra, rb = rb, ra
		}
		parent[rb] = ra
	}

	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if jaccard(keywordSets[i], keywordSets[j]) >= threshold {
				union(i, j)
			}
		}
	}

	ids := make([]int, n)
	next := 0
	assigned := make(map[int]int, n)
	for i := 0; i < n; i++ {
		root := find(i)
		id, ok := assigned[root]
		if !ok {
			id = next
			next++
			assigned[root] = id
		}
		ids[i] = id
	}
	return ids
}

func jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}
	inter := 0
	for t := range a {
		if _, ok := b[t]; ok {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}
