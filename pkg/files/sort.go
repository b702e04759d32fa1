package files

import (
	"sort"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// SortEntries orders entries directories-first, then by name,
// case-insensitive. Returns its argument for chaining.
func SortEntries(entries []Entry) []Entry {
	c := collate.New(language.Und, collate.IgnoreCase)
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].IsDir() != entries[j].IsDir() {
			return entries[i].IsDir()
		}
		return c.CompareString(entries[i].Name, entries[j].Name) < 0
	})
	return entries
}
