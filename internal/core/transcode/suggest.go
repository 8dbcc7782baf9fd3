package transcode

import (
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

// Suggest 从候选中挑出与 name 相近的名称，按编辑距离升序
//
// 候选需满足：name 的字符按序出现在候选中（忽略大小写），或两者编辑距离不超过 name 长度的三分之一。
func Suggest(name string, candidates []string) []string {
	if name == "" || len(candidates) == 0 {
		return nil
	}
	type match struct {
		target   string
		distance int
		order    int
	}
	position := make(map[string]int, len(candidates))
	for i := len(candidates) - 1; i >= 0; i-- {
		position[candidates[i]] = i
	}
	seen := make(map[string]bool)
	var matches []match
	for _, r := range fuzzy.RankFindNormalizedFold(name, candidates) {
		if !seen[r.Target] {
			seen[r.Target] = true
			matches = append(matches, match{r.Target, r.Distance, position[r.Target]})
		}
	}

	limit := len(name) / 3
	if limit < 1 {
		limit = 1
	}
	lower := strings.ToLower(name)
	for i, c := range candidates {
		if seen[c] {
			continue
		}
		if d := fuzzy.LevenshteinDistance(lower, strings.ToLower(c)); d <= limit {
			seen[c] = true
			matches = append(matches, match{c, d, i})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].distance != matches[j].distance {
			return matches[i].distance < matches[j].distance
		}
		return matches[i].order < matches[j].order
	})
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		if m.target != name {
			out = append(out, m.target)
		}
	}
	return out
}
