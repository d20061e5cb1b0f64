// Package fuzzy provides approximate string matching for field-name
// suggestions. It is a pure utility with no knowledge of validation
// control flow.
package fuzzy

import (
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"
)

// Match is a candidate string with its similarity to the input.
type Match struct {
	Value string

	// Similarity is 1 - distance/maxLen, in [0, 1].
	Similarity float64
}

// Similarity computes normalized Levenshtein similarity between two strings.
// Identical strings score 1.0; completely different strings approach 0.
func Similarity(a, b string) float64 {
	if a == b {
		return 1.0
	}
	maxLen := len(a)
	if len(b) > maxLen {
		maxLen = len(b)
	}
	if maxLen == 0 {
		return 1.0
	}
	dist := levenshtein.ComputeDistance(a, b)
	return 1.0 - float64(dist)/float64(maxLen)
}

// ClosestMatches returns up to limit candidates most similar to input,
// best first, keeping only those at or above minSimilarity. Comparison is
// case-insensitive; returned values keep their original casing.
func ClosestMatches(input string, candidates []string, limit int, minSimilarity float64) []Match {
	if input == "" || limit <= 0 {
		return nil
	}

	lower := strings.ToLower(input)
	matches := make([]Match, 0, len(candidates))
	for _, c := range candidates {
		sim := Similarity(lower, strings.ToLower(c))
		if sim >= minSimilarity {
			matches = append(matches, Match{Value: c, Similarity: sim})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Similarity > matches[j].Similarity
	})

	if len(matches) > limit {
		matches = matches[:limit]
	}
	return matches
}
