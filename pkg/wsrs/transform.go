package wsrs

// TransformStats counts one document's extraction outcomes.
type TransformStats struct {
	Snippets     int // snippets that passed the length cap
	DroppedLong  int // snippets over the length cap
	DroppedShort int // snippets under the token floor after abbreviation
}

// TransformDocument runs the full per-document transform: extraction with a
// random stream derived from the document URL, then reverse substitution per
// snippet with streams derived from each snippet key. Documents can
// therefore be processed in any order, or again, with identical results for
// a given seed.
func TransformDocument(doc Document, m *Matcher, maxSentences int, rate float64, seed uint64) ([]Record, TransformStats) {
	var stats TransformStats
	var records []Record
	ext := NewExtractor(doc, maxSentences, NewRand(seed, doc.URL))
	for {
		snip, ok := ext.Next()
		if !ok {
			break
		}
		stats.Snippets++
		recs := ReverseSubstitute(snip, m, rate, NewRand(seed, snip.Key))
		if recs == nil {
			stats.DroppedShort++
			continue
		}
		records = append(records, recs...)
	}
	stats.DroppedLong = ext.Dropped()
	return records, stats
}
