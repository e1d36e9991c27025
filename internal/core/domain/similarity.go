package domain

import "strings"

// Default similarity policy constants. The gate itself is
// threshold-parametrized; these are the orchestrator's defaults.
const (
	// DefaultBodyThreshold is the stricter threshold applied to full
	// post bodies.
	DefaultBodyThreshold = 0.6

	// DefaultOpeningThreshold is the looser threshold applied to post
	// openings only.
	DefaultOpeningThreshold = 0.7

	// DefaultOpeningWords is the prefix length used for opening checks.
	DefaultOpeningWords = 20

	// DefaultWindowLimit bounds the recent-post window.
	DefaultWindowLimit = 10
)

// wordSet tokenizes text into a lowercase whitespace-delimited word set.
func wordSet(text string) map[string]struct{} {
	fields := strings.Fields(strings.ToLower(text))
	set := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		set[f] = struct{}{}
	}
	return set
}

// Jaccard computes the Jaccard similarity of the word sets of a and b:
// |intersection| / |union|. Returns 0 when either set is empty, so a
// degenerate empty text can never look similar to anything.
func Jaccard(a, b string) float64 {
	sa, sb := wordSet(a), wordSet(b)
	if len(sa) == 0 || len(sb) == 0 {
		return 0
	}
	intersection := 0
	for w := range sa {
		if _, ok := sb[w]; ok {
			intersection++
		}
	}
	union := len(sa) + len(sb) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

// TooSimilar reports whether candidate exceeds the similarity threshold
// against any entry of the window. Comparisons where either side
// tokenizes to an empty set are skipped, and an empty window never
// rejects.
func TooSimilar(candidate string, window []string, threshold float64) bool {
	if len(window) == 0 {
		return false
	}
	if len(wordSet(candidate)) == 0 {
		return false
	}
	for _, entry := range window {
		if len(wordSet(entry)) == 0 {
			continue
		}
		if Jaccard(candidate, entry) > threshold {
			return true
		}
	}
	return false
}

// Opening returns the first k whitespace-delimited words of text,
// joined by single spaces. Texts shorter than k words are returned
// whole.
func Opening(text string, k int) string {
	words := strings.Fields(text)
	if len(words) > k {
		words = words[:k]
	}
	return strings.Join(words, " ")
}
