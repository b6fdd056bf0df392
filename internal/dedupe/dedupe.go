// Package dedupe reduces a field's reference list to distinct representative strings.
package dedupe

import (
	"math"
	"sort"

	"github.com/agext/levenshtein"
)

// DefaultThreshold is the similarity ratio (0-100) at or above which two
// references are considered duplicates.
const DefaultThreshold = 85

var params = levenshtein.NewParams()

// ExactReferences drops byte-identical duplicates, keeping the first
// occurrence and its order.
func ExactReferences(refs []string) []string {
	if len(refs) <= 1 {
		return refs
	}
	seen := make(map[string]struct{}, len(refs))
	out := refs[:0:0]
	for _, ref := range refs {
		if _, ok := seen[ref]; ok {
			continue
		}
		seen[ref] = struct{}{}
		out = append(out, ref)
	}
	return out
}

// FuzzyReferences collapses near-duplicate references. Candidates are
// considered longest-first so the most complete phrasing of a fact is
// the one kept; a candidate survives only if its similarity ratio to
// every kept string is below threshold. O(n²) in the reference count,
// which stays in the low tens per field.
func FuzzyReferences(refs []string, threshold int) []string {
	if len(refs) <= 1 {
		return refs
	}
	sorted := make([]string, len(refs))
	copy(sorted, refs)
	sort.SliceStable(sorted, func(i, j int) bool {
		return len(sorted[i]) > len(sorted[j])
	})

	kept := make([]string, 0, len(sorted))
	for _, ref := range sorted {
		duplicate := false
		for _, existing := range kept {
			if Ratio(ref, existing) >= threshold {
				duplicate = true
				break
			}
		}
		if !duplicate {
			kept = append(kept, ref)
		}
	}
	return kept
}

// Ratio is a normalized Levenshtein similarity on a 0-100 scale, where
// 100 means identical.
func Ratio(a, b string) int {
	return int(math.Round(levenshtein.Similarity(a, b, params) * 100))
}
