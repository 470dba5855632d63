package binder

import (
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

// maxHintDistance bounds the edit distance of a suggestion that is not a
// fuzzy subsequence match.
const maxHintDistance = 2

// closestMatch finds the candidate most similar to target, or "" when none
// is close enough to suggest.
func closestMatch(target string, candidates []string) string {
	if target == "" || len(candidates) == 0 {
		return ""
	}

	ranks := fuzzy.RankFindFold(target, candidates)
	if len(ranks) > 0 {
		sort.Sort(ranks)
		return ranks[0].Target
	}

	best, bestDistance := "", maxHintDistance+1
	lower := strings.ToLower(target)
	for _, c := range candidates {
		if d := fuzzy.LevenshteinDistance(lower, strings.ToLower(c)); d < bestDistance {
			best, bestDistance = c, d
		}
	}
	return best
}
