package wsrs

import (
	"strings"

	"github.com/abbrevlab/wsrs/pkg/dictionary"
)

// minTokens is the whitespace-token floor under which an abbreviated snippet
// is discarded outright.
const minTokens = 3

// Example pairs a snippet with its abbreviated form under the snippet key.
type Example struct {
	Key                string
	OriginalSnippet    string
	AbbreviatedSnippet string
}

// Record is one grouping-keyed emission: the pair that was applied, or the
// zero Pair when nothing was replaced, plus the example payload.
type Record struct {
	Pair    dictionary.Pair
	Example Example
}

// BuildRecords filters one processed snippet and fans it out into keyed
// records: one per applied pair, or a single zero-Pair record when no
// substitution occurred. A snippet whose abbreviated text holds fewer than
// three whitespace-delimited tokens produces nothing.
func BuildRecords(snip Snippet, abbreviated string, applied []dictionary.Pair) []Record {
	if len(strings.Fields(abbreviated)) < minTokens {
		return nil
	}
	example := Example{
		Key:                snip.Key,
		OriginalSnippet:    snip.Text,
		AbbreviatedSnippet: abbreviated,
	}
	if len(applied) == 0 {
		return []Record{{Example: example}}
	}
	records := make([]Record, len(applied))
	for i, pair := range applied {
		records[i] = Record{Pair: pair, Example: example}
	}
	return records
}

// ReverseSubstitute runs the whole per-snippet transform: match, abbreviate,
// filter, fan out. rng must be the snippet's own derived source. The
// abbreviation walk is skipped entirely when no expansion matches.
func ReverseSubstitute(snip Snippet, m *Matcher, rate float64, rng Rand) []Record {
	abbreviated, applied := snip.Text, []dictionary.Pair(nil)
	if matches := m.Match(snip.Text); len(matches) > 0 {
		abbreviated, applied = Abbreviate(snip.Text, matches, rate, rng)
	}
	return BuildRecords(snip, abbreviated, applied)
}
