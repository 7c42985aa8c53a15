package match

import (
	"sort"
	"strings"

	"github.com/letmevibethatforyou/metis"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// RankScored sorts a copy of scored by descending score. Equal scores are
// ordered by ascending id under language-neutral collation, falling back to
// byte order when the collator considers two ids equal.
func RankScored(scored []Scored) []Scored {
	out := make([]Scored, len(scored))
	copy(out, scored)

	// A Collator keeps internal buffers and must not be shared between calls.
	col := collate.New(language.Und)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if c := col.CompareString(a.Record.ID, b.Record.ID); c != 0 {
			return c < 0
		}
		return strings.Compare(a.Record.ID, b.Record.ID) < 0
	})
	return out
}

// Rank orders scored records and drops the scores.
func Rank(scored []Scored) []metis.Record {
	ranked := RankScored(scored)
	out := make([]metis.Record, 0, len(ranked))
	for _, s := range ranked {
		out = append(out, s.Record)
	}
	return out
}
