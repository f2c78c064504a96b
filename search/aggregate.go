package search

import (
	"sort"

	"github.com/gosimple/slug"
)

// minKeyLen is the shortest slug key worth grouping on; one and two
// character keys come from symbol-only or single-word noise titles.
const minKeyLen = 3

// Combine groups results by the slug of their title, ranks the groups
// and truncates to limit. Groups are ranked by size descending, then
// by similarity of their title to the query descending, then by key
// ascending. The output is a deterministic function of its inputs.
func Combine(query string, results []Result, limit int) []CombinedResult {
	grouped := make(map[string][]Result)
	var keys []string
	for _, result := range results {
		if result.Title == "" {
			continue
		}
		key := slug.Make(result.Title)
		if len(key) < minKeyLen {
			continue
		}
		if _, ok := grouped[key]; !ok {
			keys = append(keys, key)
		}
		grouped[key] = append(grouped[key], result)
	}

	combined := make([]CombinedResult, 0, len(keys))
	for _, key := range keys {
		novels := grouped[key]
		sort.Slice(novels, func(i, j int) bool {
			return novels[i].URL < novels[j].URL
		})
		combined = append(combined, CombinedResult{
			ID:     key,
			Title:  novels[0].Title,
			Novels: novels,
		})
	}

	sort.Slice(combined, func(i, j int) bool {
		a, b := combined[i], combined[j]
		if len(a.Novels) != len(b.Novels) {
			return len(a.Novels) > len(b.Novels)
		}
		simA := Similarity(a.Title, query)
		simB := Similarity(b.Title, query)
		if simA != simB {
			return simA > simB
		}
		return a.ID < b.ID
	})

	if limit > 0 && len(combined) > limit {
		combined = combined[:limit]
	}
	return combined
}
