package wsrs

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// MaxSnippetLen is the rune-count cap above which an extracted snippet is
// dropped rather than truncated.
const MaxSnippetLen = 1024

// sentenceDelim splits documents into sentence fragments and rejoins them
// inside a snippet.
const sentenceDelim = ". "

// Extractor cuts one document into randomly sized multi-sentence snippets.
// It is a forward-only iterator: every Next call draws a fresh window size,
// so the snippets depend on the Rand it was built with.
type Extractor struct {
	url          string
	rng          Rand
	maxSentences int
	sentences    []string
	cursor       int
	snippetID    int
	dropped      int
}

// NewExtractor prepares a snippet iterator over doc. maxSentences bounds the
// uniformly drawn window size and must be at least 1. Newlines are flattened
// to spaces before sentence splitting so a snippet never spans lines.
func NewExtractor(doc Document, maxSentences int, rng Rand) *Extractor {
	text := strings.ReplaceAll(string(doc.Text), "\n", " ")
	return &Extractor{
		url:          doc.URL,
		rng:          rng,
		maxSentences: maxSentences,
		sentences:    strings.Split(text, sentenceDelim),
	}
}

// Next returns the next snippet, lowercased and trimmed. It reports false
// once every sentence fragment has been consumed. Snippets over MaxSnippetLen
// runes are skipped, though they still consume a snippet id.
func (e *Extractor) Next() (Snippet, bool) {
	for e.cursor < len(e.sentences) {
		k := e.rng.IntN(e.maxSentences) + 1
		end := e.cursor + k
		if end > len(e.sentences) {
			end = len(e.sentences)
		}
		text := strings.Join(e.sentences[e.cursor:end], sentenceDelim)
		if !strings.HasSuffix(text, ".") && e.rng.Float64() < 0.5 {
			text += "."
		}
		key := fmt.Sprintf("url=%s,snippet_id=%d", e.url, e.snippetID)
		e.snippetID++
		e.cursor += k
		text = strings.TrimSpace(strings.ToLower(text))
		if utf8.RuneCountInString(text) > MaxSnippetLen {
			e.dropped++
			continue
		}
		return Snippet{Key: key, Text: text}, true
	}
	return Snippet{}, false
}

// Dropped returns how many oversized snippets were skipped so far.
func (e *Extractor) Dropped() int {
	return e.dropped
}
