package audit

// Ratio computes the Ratcliff/Obershelp similarity of two strings in [0, 1]:
// 2*M/T where M is the total length of the non-overlapping matching blocks
// found by recursive longest-common-substring matching and T is the combined
// length of both strings. Carrier comparisons depend on this exact algorithm;
// edit-distance scores shift the match boundary near the contract threshold.
func Ratio(a, b string) float64 {
	ar, br := []rune(a), []rune(b)
	total := len(ar) + len(br)
	if total == 0 {
		return 1.0
	}
	matched := matchingTotal(ar, br)
	return 2 * float64(matched) / float64(total)
}

// matchingTotal sums the matching block lengths: it locates the longest
// common substring, then recurses into the unmatched pieces to its left and
// right. Blocks never overlap and are taken longest-first.
func matchingTotal(a, b []rune) int {
	ai, bi, size := longestMatch(a, b)
	if size == 0 {
		return 0
	}
	return size + matchingTotal(a[:ai], b[:bi]) + matchingTotal(a[ai+size:], b[bi+size:])
}

// longestMatch finds the longest contiguous run common to a and b, preferring
// the earliest position in a, then in b, when lengths tie.
func longestMatch(a, b []rune) (ai, bi, size int) {
	if len(a) == 0 || len(b) == 0 {
		return 0, 0, 0
	}

	// prev[j+1] holds the length of the common suffix ending at a[i-1], b[j].
	prev := make([]int, len(b)+1)
	cur := make([]int, len(b)+1)
	for i := 0; i < len(a); i++ {
		for j := 0; j < len(b); j++ {
			if a[i] == b[j] {
				cur[j+1] = prev[j] + 1
				if cur[j+1] > size {
					size = cur[j+1]
					ai = i - size + 1
					bi = j - size + 1
				}
			} else {
				cur[j+1] = 0
			}
		}
		prev, cur = cur, prev
	}
	return ai, bi, size
}
