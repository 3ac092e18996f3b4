package schema

import "strings"

// similarityCutoff is the minimum normalized similarity for a near-miss enum
// value to be corrected to a valid member. Below it the safe default wins;
// the repairer never guesses a different valid value on a weak match.
const similarityCutoff = 0.6

// ClosestMatch returns the candidate most similar to input, using normalized
// Levenshtein similarity with a tiebreak on shorter edit distance. The second
// return is false when no candidate reaches the cutoff.
func ClosestMatch(input string, candidates []string) (string, bool) {
	input = strings.ToLower(strings.TrimSpace(input))
	if input == "" {
		return "", false
	}

	best := ""
	bestScore := 0.0
	for _, candidate := range candidates {
		score := similarity(input, strings.ToLower(candidate))
		if score > bestScore {
			bestScore = score
			best = candidate
		}
	}
	if bestScore >= similarityCutoff {
		return best, true
	}
	return "", false
}

// similarity maps Levenshtein distance to [0,1]: 1.0 for equal strings,
// 0.0 for entirely different ones.
func similarity(a, b string) float64 {
	if a == b {
		return 1.0
	}
	longest := len(a)
	if len(b) > longest {
		longest = len(b)
	}
	if longest == 0 {
		return 1.0
	}
	return 1.0 - float64(levenshtein(a, b))/float64(longest)
}

func levenshtein(a, b string) int {
	la, lb := len(a), len(b)
	if la == 0 {
		return lb
	}
	if lb == 0 {
		return la
	}
	prev := make([]int, lb+1)
	curr := make([]int, lb+1)
	for j := 0; j <= lb; j++ {
		prev[j] = j
	}
	for i := 1; i <= la; i++ {
		curr[0] = i
		for j := 1; j <= lb; j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min(curr[j-1]+1, min(prev[j]+1, prev[j-1]+cost))
		}
		prev, curr = curr, prev
	}
	return prev[lb]
}
