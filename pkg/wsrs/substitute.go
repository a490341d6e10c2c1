package wsrs

import (
	"strings"
	"unicode/utf8"

	"github.com/abbrevlab/wsrs/pkg/dictionary"
)

// Abbreviate rewrites text by reverse substitution, walking it left to
// right. At every matched index the candidate list is shuffled in place and
// its first pair applied with probability rate; an applied expansion is
// skipped wholesale, so candidates starting inside it never fire. It returns
// the abbreviated text and the pairs applied, in application order.
func Abbreviate(text string, matches MatchMap, rate float64, rng Rand) (string, []dictionary.Pair) {
	runes := []rune(text)
	var out strings.Builder
	out.Grow(len(text))
	var applied []dictionary.Pair
	for i := 0; i < len(runes); {
		if pairs, ok := matches[i]; ok {
			rng.Shuffle(len(pairs), func(a, b int) {
				pairs[a], pairs[b] = pairs[b], pairs[a]
			})
			pair := pairs[0]
			if rng.Float64() < rate {
				applied = append(applied, pair)
				out.WriteString(pair.Abbreviation)
				i += utf8.RuneCountInString(pair.Expansion)
				continue
			}
		}
		out.WriteRune(runes[i])
		i++
	}
	return out.String(), applied
}
