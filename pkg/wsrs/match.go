package wsrs

import (
	"unicode"
	"unicode/utf8"

	"github.com/charmbracelet/log"
	"github.com/tchap/go-patricia/v2/patricia"

	"github.com/abbrevlab/wsrs/pkg/dictionary"
)

// MatchMap records, per rune index of a snippet, the dictionary pairs whose
// expansion occurs there on a word boundary. Indexes with no match are
// absent.
type MatchMap map[int][]dictionary.Pair

// matchEntry is the trie payload for one distinct expansion string.
type matchEntry struct {
	runeLen int
	pairs   []dictionary.Pair
}

// Matcher finds dictionary expansions at word boundaries. Build it once per
// dictionary; afterwards it is read-only and safe for concurrent use.
type Matcher struct {
	trie *patricia.Trie
}

// NewMatcher indexes every expansion of idx into a patricia trie keyed by
// the expansion text. Scanning a snippet then visits, at each index, exactly
// the expansions that prefix the remaining text instead of probing the whole
// dictionary.
func NewMatcher(idx *dictionary.Index) *Matcher {
	trie := patricia.NewTrie()
	for _, p := range idx.Pairs() {
		prefix := patricia.Prefix(p.Expansion)
		if item := trie.Get(prefix); item != nil {
			entry := item.(*matchEntry)
			entry.pairs = append(entry.pairs, p)
			continue
		}
		trie.Insert(prefix, &matchEntry{
			runeLen: utf8.RuneCountInString(p.Expansion),
			pairs:   []dictionary.Pair{p},
		})
	}
	return &Matcher{trie: trie}
}

// Match scans text and returns its match map. Candidates at one index are
// ordered by ascending expansion length, then dictionary order for pairs
// sharing an expansion.
func (m *Matcher) Match(text string) MatchMap {
	runes := []rune(text)
	offsets := runeOffsets(text, len(runes))
	matches := make(MatchMap)
	for i := range runes {
		if !boundaryBefore(runes, i) {
			continue
		}
		var pairs []dictionary.Pair
		err := m.trie.VisitPrefixes(patricia.Prefix(text[offsets[i]:]),
			func(_ patricia.Prefix, item patricia.Item) error {
				entry := item.(*matchEntry)
				if !boundaryAfter(runes, i+entry.runeLen) {
					return nil
				}
				pairs = append(pairs, entry.pairs...)
				return nil
			})
		if err != nil {
			log.Errorf("Error visiting expansion trie: %v", err)
		}
		if len(pairs) > 0 {
			matches[i] = pairs
		}
	}
	return matches
}

// runeOffsets maps each rune index of text to its byte offset.
func runeOffsets(text string, n int) []int {
	offsets := make([]int, 0, n)
	for i := range text {
		offsets = append(offsets, i)
	}
	return offsets
}

// isAlnum reports whether r is a Unicode letter or number.
func isAlnum(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsNumber(r)
}

// boundaryBefore reports whether a match may start at index i. The preceding
// character must not be alphanumeric, and a preceding apostrophe must not
// itself follow an alphanumeric, so nothing matches inside contractions like
// "patient's".
func boundaryBefore(runes []rune, i int) bool {
	if i == 0 {
		return true
	}
	if isAlnum(runes[i-1]) {
		return false
	}
	if runes[i-1] == '\'' && i > 1 && isAlnum(runes[i-2]) {
		return false
	}
	return true
}

// boundaryAfter reports whether a match ending at index end (exclusive) sits
// on a word boundary.
func boundaryAfter(runes []rune, end int) bool {
	return end >= len(runes) || !isAlnum(runes[end])
}
