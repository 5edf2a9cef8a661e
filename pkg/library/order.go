package library

import (
	"sort"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// SortNatural orders keys for display: letters compare without regard to
// case or accents and digit runs compare by value, so item2 sorts before
// item10. Keys that collate equal fall back to byte order.
func SortNatural(keys []string) {
	c := collate.New(language.Und, collate.Loose, collate.Numeric)
	sort.SliceStable(keys, func(i, j int) bool {
		if n := c.CompareString(keys[i], keys[j]); n != 0 {
			return n < 0
		}
		return keys[i] < keys[j]
	})
}

var optionEscaper = strings.NewReplacer("{", `\{`, "}", `\}`, "|", `\|`)

// groupOf joins keys into one alternation group, escaping the characters
// that would otherwise end an option.
func groupOf(keys []string) string {
	escaped := make([]string, len(keys))
	for i, k := range keys {
		escaped[i] = optionEscaper.Replace(k)
	}
	return "{" + strings.Join(escaped, "|") + "}"
}
