/*
Package sampler implements the corpus-wide grouping stage: records are
grouped by replacement pair, every group is capped at a configured number of
snippets, and the survivors are deduplicated by snippet key so one snippet
never appears twice in the output.
*/
package sampler

import (
	"sort"

	"github.com/charmbracelet/log"

	"github.com/abbrevlab/wsrs/pkg/dictionary"
	"github.com/abbrevlab/wsrs/pkg/wsrs"
)

// Grouper accumulates keyed records, capping every group at limit as records
// arrive. Keeping the first limit records per pair leaves exactly what a
// post-hoc cap over the full group would keep, without ever holding the full
// group. A limit of zero retains nothing.
//
// Grouping is a synchronization point over the whole record stream, so a
// Grouper is fed from a single goroutine; it is not safe for concurrent use.
type Grouper struct {
	limit    int
	groups   map[dictionary.Pair][]wsrs.Example
	retained int
	dropped  int
}

// NewGrouper returns a Grouper that keeps at most limit records per
// replacement pair.
func NewGrouper(limit int) *Grouper {
	return &Grouper{
		limit:  limit,
		groups: make(map[dictionary.Pair][]wsrs.Example),
	}
}

// Add routes one record into its pair group, dropping it if the group is
// already full.
func (g *Grouper) Add(rec wsrs.Record) {
	group := g.groups[rec.Pair]
	if len(group) >= g.limit {
		g.dropped++
		return
	}
	g.groups[rec.Pair] = append(group, rec.Example)
	g.retained++
}

// Groups returns the number of pairs holding at least one retained record.
func (g *Grouper) Groups() int {
	return len(g.groups)
}

// Retained returns the number of records currently held.
func (g *Grouper) Retained() int {
	return g.retained
}

// Dropped returns how many records arrived after their group had filled up.
func (g *Grouper) Dropped() int {
	return g.dropped
}

// Flush releases the retained stream and empties the Grouper: groups in
// lexicographic pair order, records in key order within a group, and records
// sharing a snippet key collapsed to the first one the iteration reaches.
// The fixed iteration order pins down which duplicate survives, so a given
// retained set always flushes to the same output no matter how record
// arrival was interleaved.
func (g *Grouper) Flush() []wsrs.Example {
	pairs := make([]dictionary.Pair, 0, len(g.groups))
	for pair := range g.groups {
		pairs = append(pairs, pair)
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].Abbreviation != pairs[j].Abbreviation {
			return pairs[i].Abbreviation < pairs[j].Abbreviation
		}
		return pairs[i].Expansion < pairs[j].Expansion
	})

	seen := newKeyFilter()
	out := make([]wsrs.Example, 0, g.retained)
	for _, pair := range pairs {
		group := g.groups[pair]
		sort.Slice(group, func(i, j int) bool { return group[i].Key < group[j].Key })
		for _, ex := range group {
			if !seen.ShouldInclude(ex.Key) {
				continue
			}
			out = append(out, ex)
		}
	}
	log.Debugf("Flushed %d groups: %d retained, %d deduplicated",
		len(pairs), g.retained, g.retained-len(out))

	g.groups = make(map[dictionary.Pair][]wsrs.Example)
	g.retained = 0
	g.dropped = 0
	return out
}
