package fuzzy

import "unicode"

const (
	scoreMatch        = 16
	bonusConsecutive  = 8
	bonusStart        = 8
	bonusBoundary     = 4
	penaltyGapStart   = 3
	penaltyGapExtend  = 1
	maxLeadingPenalty = 16
)

// fuzzyMatch reports whether pattern is a case-insensitive subsequence of name and, if so, the score and matched
// character positions of the tightest alignment: the earliest point at which the whole pattern has been seen,
// scanned back to the latest possible start.
func fuzzyMatch(name string, pattern string) (int, []int, bool) {
	n := lowerRunes(name)
	p := lowerRunes(pattern)
	if len(p) == 0 {
		return 0, nil, true
	}

	end := -1
	pi := 0
	for i := 0; i < len(n); i++ {
		if n[i] == p[pi] {
			pi++
			if pi == len(p) {
				end = i
				break
			}
		}
	}
	if end < 0 {
		return 0, nil, false
	}

	// Scan back from the end so that the match is as tight as possible and packed towards its end.
	positions := make([]int, len(p))
	pi = len(p) - 1
	for i := end; i >= 0 && pi >= 0; i-- {
		if n[i] == p[pi] {
			positions[pi] = i
			pi--
		}
	}
	return scorePositions([]rune(name), positions), positions, true
}

// contiguousMatch returns the score and positions of len(text) characters matched contiguously from the rune
// offset at. Used for exact, prefix, suffix and whole-name terms.
func contiguousMatch(name string, at int, text string) (int, []int) {
	length := len([]rune(text))
	positions := make([]int, length)
	for i := range positions {
		positions[i] = at + i
	}
	return scorePositions([]rune(name), positions), positions
}

// scorePositions scores a set of ascending matched positions. More matched characters, longer contiguous runs,
// matches at the start of the name or of a word, and fewer or shorter gaps all score higher.
func scorePositions(name []rune, positions []int) int {
	if len(positions) == 0 {
		return 0
	}
	score := 0
	for k, pos := range positions {
		score += scoreMatch
		if k > 0 {
			if gap := pos - positions[k-1] - 1; gap == 0 {
				score += bonusConsecutive
			} else {
				score -= penaltyGapStart + (gap-1)*penaltyGapExtend
			}
		}
		if pos == 0 {
			score += bonusStart
		} else if isBoundary(name[pos-1]) {
			score += bonusBoundary
		}
	}
	leading := positions[0]
	if leading > maxLeadingPenalty {
		leading = maxLeadingPenalty
	}
	score -= leading
	if score < 0 {
		return 0
	}
	return score
}

// lowerRunes lower-cases rune by rune, so positions in the result are positions in the original string.
func lowerRunes(s string) []rune {
	rv := []rune(s)
	for i, r := range rv {
		rv[i] = unicode.ToLower(r)
	}
	return rv
}

func isBoundary(r rune) bool {
	switch r {
	case '-', '/', '_', '.', ':':
		return true
	}
	return unicode.IsSpace(r)
}
