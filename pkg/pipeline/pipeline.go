/*
Package pipeline wires the transform stages into a parallel corpus run.

Extraction and substitution are pure per-document work driven by per-record
seeded randomness, so documents fan out across workers with no coordination.
Grouping is the single synchronization point: every record must reach the
grouper before sampling caps are final, so records funnel into one collector
and the sink only starts receiving after the grouper flushes.
*/
package pipeline

import (
	"context"
	"fmt"
	"io"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/abbrevlab/wsrs/internal/logger"
	"github.com/abbrevlab/wsrs/pkg/config"
	"github.com/abbrevlab/wsrs/pkg/dictionary"
	"github.com/abbrevlab/wsrs/pkg/sampler"
	"github.com/abbrevlab/wsrs/pkg/wsrs"
)

// Source yields documents. Next returns io.EOF once the corpus is
// exhausted.
type Source interface {
	Next() (wsrs.Document, error)
}

// Sink receives the final example stream after grouping and sampling.
type Sink interface {
	Write(wsrs.Example) error
	Close() error
}

// Stats summarizes one run.
type Stats struct {
	Documents    int           // documents read from the source
	Snippets     int           // snippets extracted within the length cap
	DroppedLong  int           // snippets dropped for exceeding the length cap
	DroppedShort int           // snippets dropped under the token floor
	Records      int           // keyed records entering the grouper
	Groups       int           // distinct replacement pairs with retained records
	CapDropped   int           // records dropped by full groups
	Sampled      int           // records surviving the per-group cap
	Examples     int           // examples written after deduplication
	Elapsed      time.Duration
}

type counters struct {
	documents    atomic.Int64
	snippets     atomic.Int64
	droppedLong  atomic.Int64
	droppedShort atomic.Int64
	records      atomic.Int64
}

// Pipeline runs the reverse-substitution transform over a corpus.
type Pipeline struct {
	matcher      *wsrs.Matcher
	maxSentences int
	rate         float64
	limit        int
	seed         uint64
	workers      int
	log          *log.Logger
}

// New validates cfg and builds the expansion matcher from dict.
func New(cfg *config.Config, dict *dictionary.Index) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	workers := cfg.Pipeline.Workers
	if workers == 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Pipeline{
		matcher:      wsrs.NewMatcher(dict),
		maxSentences: cfg.Extract.MaxSentencesPerSnippet,
		rate:         cfg.Substitute.AbbreviationRate,
		limit:        cfg.Sample.NumSnippetsPerReplacement,
		seed:         uint64(cfg.Pipeline.Seed),
		workers:      workers,
		log:          logger.New("pipeline"),
	}, nil
}

// Run streams src through the transform and writes the sampled,
// deduplicated examples to sink. The first source, transform, or sink error
// aborts the run; cancelling ctx stops it and discards partial group state.
func (p *Pipeline) Run(ctx context.Context, src Source, sink Sink) (Stats, error) {
	start := time.Now()
	var c counters

	docsCh := make(chan wsrs.Document, p.workers*2)
	recordsCh := make(chan wsrs.Record, p.workers*4)
	grouper := sampler.NewGrouper(p.limit)

	g, gctx := errgroup.WithContext(ctx)

	// feeder: pull from the source until exhaustion
	g.Go(func() error {
		defer close(docsCh)
		for {
			doc, err := src.Next()
			if err == io.EOF {
				return nil
			}
			if err != nil {
				return fmt.Errorf("corpus read failed: %w", err)
			}
			select {
			case docsCh <- doc:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
	})

	// transform workers, fanned out over the document stream
	g.Go(func() error {
		defer close(recordsCh)
		workers, wctx := errgroup.WithContext(gctx)
		for i := 0; i < p.workers; i++ {
			workers.Go(func() error {
				for doc := range docsCh {
					if err := p.processDocument(wctx, doc, recordsCh, &c); err != nil {
						return err
					}
				}
				return nil
			})
		}
		return workers.Wait()
	})

	// collector: the grouper is single-threaded, one goroutine feeds it
	g.Go(func() error {
		for rec := range recordsCh {
			grouper.Add(rec)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return Stats{}, err
	}

	stats := Stats{
		Documents:    int(c.documents.Load()),
		Snippets:     int(c.snippets.Load()),
		DroppedLong:  int(c.droppedLong.Load()),
		DroppedShort: int(c.droppedShort.Load()),
		Records:      int(c.records.Load()),
		Groups:       grouper.Groups(),
		CapDropped:   grouper.Dropped(),
		Sampled:      grouper.Retained(),
	}

	examples := grouper.Flush()
	for _, ex := range examples {
		if err := sink.Write(ex); err != nil {
			return Stats{}, fmt.Errorf("writing example %s: %w", ex.Key, err)
		}
	}
	if err := sink.Close(); err != nil {
		return Stats{}, fmt.Errorf("closing sink: %w", err)
	}
	stats.Examples = len(examples)
	stats.Elapsed = time.Since(start)

	p.log.Debugf("Run complete: %d documents, %d records, %d examples in %v",
		stats.Documents, stats.Records, stats.Examples, stats.Elapsed)
	return stats, nil
}

// processDocument transforms one document and pushes its records
// downstream. All randomness is derived from the job seed and record keys,
// so output does not depend on which worker got the document.
func (p *Pipeline) processDocument(ctx context.Context, doc wsrs.Document, out chan<- wsrs.Record, c *counters) error {
	c.documents.Add(1)
	records, stats := wsrs.TransformDocument(doc, p.matcher, p.maxSentences, p.rate, p.seed)
	c.snippets.Add(int64(stats.Snippets))
	c.droppedLong.Add(int64(stats.DroppedLong))
	c.droppedShort.Add(int64(stats.DroppedShort))
	for _, rec := range records {
		select {
		case out <- rec:
			c.records.Add(1)
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}
