package textutil

// MatchRatio measures how similar two strings are as 2*M/T, where M is the
// number of characters in matching blocks and T the combined length. Blocks
// are found by repeatedly taking the longest common substring, so the result
// matches the classic sequence-matcher ratio.
func MatchRatio(a, b string) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1
	}
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	matched := matchedSize(a, b, 0, len(a), 0, len(b))
	return 2 * float64(matched) / float64(len(a)+len(b))
}

func matchedSize(a, b string, alo, ahi, blo, bhi int) int {
	i, j, size := longestMatch(a, b, alo, ahi, blo, bhi)
	if size == 0 {
		return 0
	}
	total := size
	total += matchedSize(a, b, alo, i, blo, j)
	total += matchedSize(a, b, i+size, ahi, j+size, bhi)
	return total
}

// longestMatch finds the longest common substring of a[alo:ahi] and
// b[blo:bhi], preferring the leftmost when tied.
func longestMatch(a, b string, alo, ahi, blo, bhi int) (besti, bestj, bestsize int) {
	besti, bestj = alo, blo

	b2j := map[byte][]int{}
	for j := blo; j < bhi; j++ {
		b2j[b[j]] = append(b2j[b[j]], j)
	}

	j2len := map[int]int{}
	for i := alo; i < ahi; i++ {
		newj2len := map[int]int{}
		for _, j := range b2j[a[i]] {
			k := j2len[j-1] + 1
			newj2len[j] = k
			if k > bestsize {
				besti, bestj, bestsize = i-k+1, j-k+1, k
			}
		}
		j2len = newj2len
	}
	return besti, bestj, bestsize
}
