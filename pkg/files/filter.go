package files

import "github.com/sahilm/fuzzy"

// Filter narrows a listing to entries whose display name matches
// the pattern. An empty pattern matches everything.
type Filter struct {
	Pattern string
}

func (f Filter) IsEmpty() bool {
	return f.Pattern == ""
}

// Match returns the indexes of matching names, in their original order.
func (f Filter) Match(names []string) []int {
	if f.Pattern == "" {
		indexes := make([]int, len(names))
		for i := range names {
			indexes[i] = i
		}
		return indexes
	}
	matches := fuzzy.Find(f.Pattern, names)
	matched := make(map[int]bool, len(matches))
	for _, m := range matches {
		matched[m.Index] = true
	}
	indexes := make([]int, 0, len(matches))
	for i := range names {
		if matched[i] {
			indexes = append(indexes, i)
		}
	}
	return indexes
}
