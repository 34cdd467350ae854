package span

import "sort"

// Less implements the deterministic tie-break rule from §4.1: given two
// overlapping candidates, it reports whether a should be preferred over b.
//
//  1. Higher priority wins.
//  2. Equal priority: higher confidence wins.
//  3. Equal confidence: longer span wins.
//  4. Equal length: earlier CharacterStart wins.
//  5. Still tied: lexicographically smaller MatchSource wins (total order).
func Less(a, b Span) bool {
	if a.Priority != b.Priority {
		return a.Priority > b.Priority
	}
	if a.Confidence != b.Confidence {
		return a.Confidence > b.Confidence
	}
	if al, bl := a.Len(), b.Len(); al != bl {
		return al > bl
	}
	if a.CharacterStart != b.CharacterStart {
		return a.CharacterStart < b.CharacterStart
	}
	return a.MatchSource < b.MatchSource
}

// DropOverlappingSpans returns the indices (into candidates, in ascending
// order) of the subset to retain: a maximal set of candidates that, once
// mutually overlapping members are resolved via Less, is pairwise
// non-overlapping. The decision is deterministic regardless of input order.
func DropOverlappingSpans(candidates []Span) []int {
	order := make([]int, len(candidates))
	for i := range candidates {
		order[i] = i
	}
	// Sort candidates best-first so a greedy sweep keeps a winner before any
	// loser it overlaps is considered.
	sort.SliceStable(order, func(i, j int) bool {
		return Less(candidates[order[i]], candidates[order[j]])
	})

	kept := make([]Span, 0, len(candidates))
	keptIdx := make([]int, 0, len(candidates))
	for _, idx := range order {
		c := candidates[idx]
		collides := false
		for _, k := range kept {
			if c.Overlaps(k) {
				collides = true
				break
			}
		}
		if collides {
			continue
		}
		kept = append(kept, c)
		keptIdx = append(keptIdx, idx)
	}

	sort.Ints(keptIdx)
	return keptIdx
}
