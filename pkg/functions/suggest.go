package functions

import (
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

// Suggest returns up to n registered names that resemble name, best
// match first. It is used for "did you mean" hints on #NAME? results.
func (r *Registry) Suggest(name string, n int) []string {
	if n <= 0 || name == "" || r.Len() == 0 {
		return nil
	}
	candidates := r.Names()

	// Subsequence matches first: "SUMI" finds "SUMIF" and "SUMIFS".
	ranks := fuzzy.RankFindFold(name, candidates)
	sort.Sort(ranks)

	seen := make(map[string]bool)
	var out []string
	for _, rk := range ranks {
		if len(out) == n {
			return out
		}
		if rk.Target == name {
			continue
		}
		seen[rk.Target] = true
		out = append(out, rk.Target)
	}

	// Then typos: small edit distance, ignoring case.
	limit := max(1, len(name)/3)
	upper := strings.ToUpper(name)
	type scored struct {
		name string
		dist int
	}
	var near []scored
	for _, c := range candidates {
		if seen[c] || c == name {
			continue
		}
		if d := fuzzy.LevenshteinDistance(upper, strings.ToUpper(c)); d <= limit {
			near = append(near, scored{c, d})
		}
	}
	sort.SliceStable(near, func(i, j int) bool { return near[i].dist < near[j].dist })
	for _, s := range near {
		if len(out) == n {
			break
		}
		out = append(out, s.name)
	}
	return out
}
