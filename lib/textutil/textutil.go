package textutil

import (
	"regexp"
	"slices"
	"strings"

	"github.com/antzucaro/matchr"
)

var whitespaceRegex = regexp.MustCompile(`\s+`)

// NormalizeName upper-cases a name and collapses its whitespace, which is how
// names are printed on rosters.
func NormalizeName(name string) string {
	name = strings.ToUpper(name)
	name = strings.TrimSpace(name)
	return whitespaceRegex.ReplaceAllString(name, " ")
}

// ContainsName reports whether the normalized query is part of the
// normalized name.
func ContainsName(name, query string) bool {
	query = NormalizeName(query)
	if query == "" {
		return false
	}
	return strings.Contains(NormalizeName(name), query)
}

type Similar struct {
	Value      string
	Similarity float64
}

// MostSimilar ranks candidates by Jaro-Winkler similarity to target, keeping
// those at or above threshold, best first. At most limit results are
// returned, limit <= 0 means no limit.
func MostSimilar(target string, candidates []string, threshold float64, limit int) []Similar {
	target = NormalizeName(target)

	var result []Similar
	for _, c := range candidates {
		similarity := matchr.JaroWinkler(target, NormalizeName(c), false)
		if similarity < threshold {
			continue
		}
		result = append(result, Similar{Value: c, Similarity: similarity})
	}

	slices.SortStableFunc(result, func(a, b Similar) int {
		switch {
		case a.Similarity > b.Similarity:
			return -1
		case a.Similarity < b.Similarity:
			return 1
		}
		return 0
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result
}
