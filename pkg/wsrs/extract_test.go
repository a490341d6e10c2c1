package wsrs

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDoc(url, text string) Document {
	return Document{URL: url, Text: []byte(text)}
}

func collect(e *Extractor) []Snippet {
	var out []Snippet
	for {
		s, ok := e.Next()
		if !ok {
			return out
		}
		out = append(out, s)
	}
}

func TestExtractorJoinsWindowIntoOneSnippet(t *testing.T) {
	rng := &scriptedRand{ints: []int{1}} // window of two sentences
	e := NewExtractor(testDoc("test_url", "This is a snippet. It has two parts."), 3, rng)

	got := collect(e)
	require.Len(t, got, 1)
	assert.Equal(t, "url=test_url,snippet_id=0", got[0].Key)
	assert.Equal(t, "this is a snippet. it has two parts.", got[0].Text)
	assert.Zero(t, e.Dropped())
}

func TestExtractorSingleSentenceWindows(t *testing.T) {
	// the 0.3 draw appends the missing final period
	rng := &scriptedRand{floats: []float64{0.3}}
	e := NewExtractor(testDoc("test/url.com", "This is a snippet. It has two parts."), 1, rng)

	got := collect(e)
	require.Len(t, got, 2)
	assert.Equal(t, "this is a snippet.", got[0].Text)
	assert.Equal(t, "url=test/url.com,snippet_id=0", got[0].Key)
	assert.Equal(t, "it has two parts.", got[1].Text)
	assert.Equal(t, "url=test/url.com,snippet_id=1", got[1].Key)
}

func TestExtractorKeepsMissingPeriodOnHighDraw(t *testing.T) {
	rng := &scriptedRand{ints: []int{0, 0}, floats: []float64{0.7}}
	e := NewExtractor(testDoc("u", "no period here. second part."), 3, rng)

	got := collect(e)
	require.Len(t, got, 2)
	assert.Equal(t, "no period here", got[0].Text)
	assert.Equal(t, "second part.", got[1].Text)
}

func TestExtractorFlattensNewlines(t *testing.T) {
	rng := &scriptedRand{ints: []int{2}}
	e := NewExtractor(testDoc("u", "one two. three\nfour. five."), 3, rng)

	got := collect(e)
	require.Len(t, got, 1)
	assert.Equal(t, "one two. three four. five.", got[0].Text)
}

func TestExtractorWindowClampsAtDocumentEnd(t *testing.T) {
	rng := &scriptedRand{ints: []int{4}} // drawn window larger than what remains
	e := NewExtractor(testDoc("u", "one. two."), 5, rng)

	got := collect(e)
	require.Len(t, got, 1)
	assert.Equal(t, "one. two.", got[0].Text)
}

func TestExtractorDropsOversizedSnippets(t *testing.T) {
	long := strings.Repeat("a", MaxSnippetLen+1)
	rng := &scriptedRand{ints: []int{0, 0}, floats: []float64{0.9}}
	e := NewExtractor(testDoc("u", long+". short tail."), 1, rng)

	got := collect(e)
	require.Len(t, got, 1)
	assert.Equal(t, "short tail.", got[0].Text)
	assert.Equal(t, 1, e.Dropped())
	// the dropped attempt still consumed snippet id 0
	assert.Equal(t, "url=u,snippet_id=1", got[0].Key)
}

func TestExtractorLengthCapCountsRunes(t *testing.T) {
	rng := &scriptedRand{ints: []int{0}, floats: []float64{0.9}}
	e := NewExtractor(testDoc("u", strings.Repeat("é", MaxSnippetLen)), 1, rng)

	got := collect(e)
	require.Len(t, got, 1)
	assert.Zero(t, e.Dropped())
}

func TestExtractorEmptyDocumentYieldsEmptySnippet(t *testing.T) {
	rng := &scriptedRand{ints: []int{0}, floats: []float64{0.9}}
	e := NewExtractor(testDoc("u", ""), 3, rng)

	got := collect(e)
	require.Len(t, got, 1)
	assert.Equal(t, "", got[0].Text)
}
