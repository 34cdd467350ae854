package dictionary

// DamerauLevenshtein computes the unrestricted (Lowrance-Wagner)
// Damerau-Levenshtein edit distance between a and b. When their lengths
// differ by more than maxDist it returns maxDist+1 without building the
// table; otherwise the result is the exact distance.
func DamerauLevenshtein(a, b string, maxDist int) int {
	ra, rb := []rune(a), []rune(b)
	la, lb := len(ra), len(rb)
	if abs(la-lb) > maxDist {
		return maxDist + 1
	}

	const maxCost = 1 << 30
	d := make([][]int, la+2)
	for i := range d {
		d[i] = make([]int, lb+2)
	}
	d[0][0] = maxCost
	for i := 0; i <= la; i++ {
		d[i+1][0] = maxCost
		d[i+1][1] = i
	}
	for j := 0; j <= lb; j++ {
		d[0][j+1] = maxCost
		d[1][j+1] = j
	}

	lastRow := make(map[rune]int)
	for i := 1; i <= la; i++ {
		lastCol := 0
		for j := 1; j <= lb; j++ {
			i1 := lastRow[rb[j-1]]
			j1 := lastCol
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
				lastCol = j
			}
			del := d[i][j+1] + 1
			ins := d[i+1][j] + 1
			sub := d[i][j] + cost
			trans := d[i1][j1] + (i-i1-1) + 1 + (j-j1-1)
			best := min4(del, ins, sub, trans)
			d[i+1][j+1] = best
		}
		lastRow[ra[i-1]] = i
	}
	return d[la+1][lb+1]
}

func min4(a, b, c, d int) int {
	m := a
	if b < m {
		m = b
	}
	if c < m {
		m = c
	}
	if d < m {
		m = d
	}
	return m
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// deletionIndex is a SymSpell-style precomputed index: every term in the
// backing list is expanded into all of its deletion variants up to
// maxEditDistance, each mapping back to the set of original terms that
// produced it. A fuzzy lookup then only needs to generate deletion
// variants of the (short) query and take the union of candidates, instead
// of comparing against every dictionary entry.
type deletionIndex struct {
	maxEditDistance int
	variants        map[string][]string
}

func buildDeletionIndex(terms []string, maxEditDistance int) *deletionIndex {
	idx := &deletionIndex{maxEditDistance: maxEditDistance, variants: make(map[string][]string)}
	for _, term := range terms {
		for _, v := range deletionsUpTo(term, maxEditDistance) {
			idx.variants[v] = append(idx.variants[v], term)
		}
	}
	return idx
}

// candidates returns the deduplicated set of dictionary terms reachable
// from query within maxEditDistance deletions in either direction.
func (idx *deletionIndex) candidates(query string) []string {
	seen := make(map[string]bool)
	var out []string
	add := func(terms []string) {
		for _, t := range terms {
			if !seen[t] {
				seen[t] = true
				out = append(out, t)
			}
		}
	}
	add(idx.variants[query])
	for _, v := range deletionsUpTo(query, idx.maxEditDistance) {
		add(idx.variants[v])
	}
	return out
}

func deletionsUpTo(word string, maxEdit int) []string {
	level := map[string]bool{word: true}
	all := map[string]bool{word: true}
	for depth := 0; depth < maxEdit; depth++ {
		next := make(map[string]bool)
		for w := range level {
			r := []rune(w)
			for i := range r {
				del := string(append(append([]rune{}, r[:i]...), r[i+1:]...))
				if !all[del] {
					next[del] = true
					all[del] = true
				}
			}
		}
		if len(next) == 0 {
			break
		}
		level = next
	}
	out := make([]string, 0, len(all))
	for w := range all {
		out = append(out, w)
	}
	return out
}
