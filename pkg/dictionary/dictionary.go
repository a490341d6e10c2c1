// Package dictionary holds the abbreviation-expansion mapping that drives
// reverse substitution.
package dictionary

// Pair is one (abbreviation, expansion) entry from the dictionary. The zero
// Pair acts as the no-replacement sentinel for snippets that kept every
// expansion intact.
type Pair struct {
	Abbreviation string
	Expansion    string
}

// IsSentinel reports whether p is the no-replacement sentinel.
func (p Pair) IsSentinel() bool {
	return p.Abbreviation == "" && p.Expansion == ""
}

// Index maps abbreviations to their expansions. First-seen order is kept for
// abbreviations and for the expansions under each abbreviation, and exact
// duplicate rows collapse to one entry. Build it once; afterwards it is
// read-only and safe for concurrent readers.
type Index struct {
	order      []string
	expansions map[string][]string
	pairs      int
}

// NewIndex returns an empty Index.
func NewIndex() *Index {
	return &Index{expansions: make(map[string][]string)}
}

// Add records expansion under abbreviation unless that exact pair is already
// present.
func (x *Index) Add(abbreviation, expansion string) {
	list, ok := x.expansions[abbreviation]
	if !ok {
		x.order = append(x.order, abbreviation)
	}
	for _, e := range list {
		if e == expansion {
			return
		}
	}
	x.expansions[abbreviation] = append(list, expansion)
	x.pairs++
}

// Abbreviations returns every abbreviation in first-seen order.
func (x *Index) Abbreviations() []string {
	out := make([]string, len(x.order))
	copy(out, x.order)
	return out
}

// Expansions returns the expansions recorded under abbreviation, in
// first-seen order. The returned slice is shared and must not be modified.
func (x *Index) Expansions(abbreviation string) []string {
	return x.expansions[abbreviation]
}

// Pairs returns every (abbreviation, expansion) pair, ordered by abbreviation
// first-seen order and then expansion first-seen order.
func (x *Index) Pairs() []Pair {
	out := make([]Pair, 0, x.pairs)
	for _, abbr := range x.order {
		for _, exp := range x.expansions[abbr] {
			out = append(out, Pair{Abbreviation: abbr, Expansion: exp})
		}
	}
	return out
}

// Len returns the number of distinct abbreviations.
func (x *Index) Len() int {
	return len(x.order)
}

// NumPairs returns the number of (abbreviation, expansion) pairs.
func (x *Index) NumPairs() int {
	return x.pairs
}
