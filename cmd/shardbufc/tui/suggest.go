package tui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/xrash/smetrics"
)

// SuggestTables ranks candidates by Jaro-Winkler similarity to want and
// returns a "did you mean" message naming up to five, for when a `view`
// or `inspect` invocation names a root type the schema set doesn't
// declare.
func SuggestTables(want string, candidates []string) string {
	if len(candidates) == 0 {
		return ""
	}

	type scored struct {
		name  string
		score float64
	}
	ranked := make([]scored, len(candidates))
	for i, c := range candidates {
		ranked[i] = scored{c, smetrics.JaroWinkler(want, c, 0.7, 4)}
	}
	sort.Slice(ranked, func(i, j int) bool { return ranked[i].score > ranked[j].score })

	if len(ranked) > 5 {
		ranked = ranked[:5]
	}
	names := make([]string, len(ranked))
	for i, r := range ranked {
		names[i] = r.name
	}
	return fmt.Sprintf(" (did you mean: %s?)", strings.Join(names, ", "))
}
