package pipeline

import (
	"context"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abbrevlab/wsrs/pkg/config"
	"github.com/abbrevlab/wsrs/pkg/dictionary"
	"github.com/abbrevlab/wsrs/pkg/wsrs"
)

type sliceSource struct {
	docs []wsrs.Document
	next int
}

func (s *sliceSource) Next() (wsrs.Document, error) {
	if s.next >= len(s.docs) {
		return wsrs.Document{}, io.EOF
	}
	doc := s.docs[s.next]
	s.next++
	return doc, nil
}

type faultySource struct {
	sliceSource
}

func (s *faultySource) Next() (wsrs.Document, error) {
	doc, err := s.sliceSource.Next()
	if err == io.EOF {
		return wsrs.Document{}, fmt.Errorf("corrupt shard line")
	}
	return doc, err
}

type infiniteSource struct {
	doc wsrs.Document
}

func (s *infiniteSource) Next() (wsrs.Document, error) {
	return s.doc, nil
}

type memSink struct {
	examples []wsrs.Example
	closed   bool
}

func (s *memSink) Write(ex wsrs.Example) error {
	s.examples = append(s.examples, ex)
	return nil
}

func (s *memSink) Close() error {
	s.closed = true
	return nil
}

type failSink struct{}

func (failSink) Write(wsrs.Example) error { return fmt.Errorf("disk full") }
func (failSink) Close() error             { return nil }

func testDict() *dictionary.Index {
	idx := dictionary.NewIndex()
	idx.Add("pt", "patient")
	idx.Add("er", "emergency room")
	return idx
}

func deterministicConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Preset("deterministic")
	require.NoError(t, err)
	cfg.Pipeline.Seed = 7
	return cfg
}

func doc(url, text string) wsrs.Document {
	return wsrs.Document{URL: url, Text: []byte(text)}
}

func TestPipelineEndToEnd(t *testing.T) {
	cfg := deterministicConfig(t)
	cfg.Pipeline.Workers = 2
	p, err := New(cfg, testDict())
	require.NoError(t, err)

	src := &sliceSource{docs: []wsrs.Document{
		doc("http://u1", "The patient arrived early today."),
		doc("http://u2", "Visit the emergency room soon please."),
		doc("http://u3", "Nothing to replace in here."),
	}}
	sink := &memSink{}

	stats, err := p.Run(context.Background(), src, sink)
	require.NoError(t, err)
	assert.True(t, sink.closed)

	assert.Equal(t, 3, stats.Documents)
	assert.Equal(t, 3, stats.Snippets)
	assert.Equal(t, 3, stats.Records)
	assert.Equal(t, 3, stats.Groups)
	assert.Equal(t, 3, stats.Sampled)
	assert.Equal(t, 3, stats.Examples)
	assert.Zero(t, stats.DroppedLong)
	assert.Zero(t, stats.DroppedShort)
	assert.Zero(t, stats.CapDropped)

	// groups flush in lexicographic pair order: sentinel, er, pt
	require.Len(t, sink.examples, 3)
	assert.Equal(t, "url=http://u3,snippet_id=0", sink.examples[0].Key)
	assert.Equal(t, "nothing to replace in here.", sink.examples[0].AbbreviatedSnippet)
	assert.Equal(t, "url=http://u2,snippet_id=0", sink.examples[1].Key)
	assert.Equal(t, "visit the er soon please.", sink.examples[1].AbbreviatedSnippet)
	assert.Equal(t, "url=http://u1,snippet_id=0", sink.examples[2].Key)
	assert.Equal(t, "the pt arrived early today.", sink.examples[2].AbbreviatedSnippet)
}

func TestPipelineRunsAreReproducible(t *testing.T) {
	docs := []wsrs.Document{
		doc("http://u1", "The patient arrived. The er was full. A long night followed."),
		doc("http://u2", "Visit the emergency room soon. The patient is waiting."),
	}
	cfg, err := config.Preset("default")
	require.NoError(t, err)
	cfg.Pipeline.Seed = 1234

	run := func(workers int) []wsrs.Example {
		cfg.Pipeline.Workers = workers
		p, perr := New(cfg, testDict())
		require.NoError(t, perr)
		sink := &memSink{}
		_, rerr := p.Run(context.Background(), &sliceSource{docs: docs}, sink)
		require.NoError(t, rerr)
		return sink.examples
	}

	assert.Equal(t, run(1), run(4))
}

func TestPipelineCapsGroups(t *testing.T) {
	cfg := deterministicConfig(t)
	cfg.Pipeline.Workers = 1
	cfg.Sample.NumSnippetsPerReplacement = 1
	p, err := New(cfg, testDict())
	require.NoError(t, err)

	src := &sliceSource{docs: []wsrs.Document{
		doc("http://u1", "The patient arrived early today."),
		doc("http://u2", "The patient arrived early today."),
	}}
	sink := &memSink{}

	stats, err := p.Run(context.Background(), src, sink)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.CapDropped)
	assert.Equal(t, 1, stats.Examples)
	require.Len(t, sink.examples, 1)
	assert.Equal(t, "url=http://u1,snippet_id=0", sink.examples[0].Key)
}

func TestPipelineDeduplicatesAcrossGroups(t *testing.T) {
	cfg := deterministicConfig(t)
	p, err := New(cfg, testDict())
	require.NoError(t, err)

	src := &sliceSource{docs: []wsrs.Document{
		doc("http://u1", "The patient visited the emergency room."),
	}}
	sink := &memSink{}

	stats, err := p.Run(context.Background(), src, sink)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Records)
	assert.Equal(t, 2, stats.Sampled)
	assert.Equal(t, 1, stats.Examples)
	require.Len(t, sink.examples, 1)
	assert.Equal(t, "the pt visited the er.", sink.examples[0].AbbreviatedSnippet)
}

func TestPipelineCountsDroppedSnippets(t *testing.T) {
	cfg := deterministicConfig(t)
	p, err := New(cfg, testDict())
	require.NoError(t, err)

	long := strings.Repeat("a", wsrs.MaxSnippetLen+1)
	src := &sliceSource{docs: []wsrs.Document{doc("http://u1", long+". tiny.")}}
	sink := &memSink{}

	stats, err := p.Run(context.Background(), src, sink)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.DroppedLong)
	assert.Equal(t, 1, stats.DroppedShort)
	assert.Equal(t, 1, stats.Snippets)
	assert.Zero(t, stats.Examples)
}

func TestPipelineAbortsOnSourceError(t *testing.T) {
	cfg := deterministicConfig(t)
	p, err := New(cfg, testDict())
	require.NoError(t, err)

	src := &faultySource{sliceSource{docs: []wsrs.Document{
		doc("http://u1", "The patient arrived early today."),
	}}}

	_, err = p.Run(context.Background(), src, &memSink{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "corpus read failed")
}

func TestPipelineAbortsOnSinkError(t *testing.T) {
	cfg := deterministicConfig(t)
	p, err := New(cfg, testDict())
	require.NoError(t, err)

	src := &sliceSource{docs: []wsrs.Document{
		doc("http://u1", "The patient arrived early today."),
	}}

	_, err = p.Run(context.Background(), src, failSink{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
}

func TestPipelineStopsOnCancel(t *testing.T) {
	cfg := deterministicConfig(t)
	p, err := New(cfg, testDict())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	done := make(chan struct{})
	var runErr error
	go func() {
		defer close(done)
		src := &infiniteSource{doc: doc("http://loop", "Filler sentence goes here.")}
		_, runErr = p.Run(ctx, src, &memSink{})
	}()

	select {
	case <-done:
		require.ErrorIs(t, runErr, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("pipeline did not stop after cancellation")
	}
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := deterministicConfig(t)
	cfg.Substitute.AbbreviationRate = 1.5
	_, err := New(cfg, testDict())
	assert.Error(t, err)
}
