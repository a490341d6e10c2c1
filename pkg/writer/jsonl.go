package writer

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"

	"github.com/abbrevlab/wsrs/pkg/wsrs"
)

// jsonRecord matches the shard schema field for field.
type jsonRecord struct {
	Key                string `json:"key"`
	OriginalSnippet    string `json:"original_snippet"`
	AbbreviatedSnippet string `json:"abbreviated_snippet"`
}

// JSONLWriter emits one JSON object per example into a single file.
type JSONLWriter struct {
	file    *os.File
	bw      *bufio.Writer
	enc     *json.Encoder
	written int
}

// NewJSONLWriter creates or truncates path.
func NewJSONLWriter(path string) (*JSONLWriter, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create output file %s: %w", path, err)
	}
	bw := bufio.NewWriter(f)
	return &JSONLWriter{file: f, bw: bw, enc: json.NewEncoder(bw)}, nil
}

// Write appends one example as a JSON line.
func (w *JSONLWriter) Write(ex wsrs.Example) error {
	rec := jsonRecord{
		Key:                ex.Key,
		OriginalSnippet:    ex.OriginalSnippet,
		AbbreviatedSnippet: ex.AbbreviatedSnippet,
	}
	if err := w.enc.Encode(&rec); err != nil {
		return fmt.Errorf("failed to encode example %s: %w", ex.Key, err)
	}
	w.written++
	return nil
}

// Close flushes buffered lines and closes the file.
func (w *JSONLWriter) Close() error {
	if err := w.bw.Flush(); err != nil {
		w.file.Close()
		return fmt.Errorf("failed to flush output: %w", err)
	}
	return w.file.Close()
}

// Written returns the number of examples written.
func (w *JSONLWriter) Written() int {
	return w.written
}
