// Package corpus streams documents out of C4-style JSON Lines shards.
package corpus

import (
	"bufio"
	"bytes"
	"compress/gzip"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/tidwall/gjson"

	"github.com/abbrevlab/wsrs/pkg/wsrs"
)

// Reader yields one document per JSON line across a list of shard files,
// inflating gzip shards transparently. It is not safe for concurrent use.
type Reader struct {
	paths []string
	index int
	file  *os.File
	gz    *gzip.Reader
	buf   *bufio.Reader
	path  string
	line  int
	docs  int
}

// Open validates every shard path up front and returns a Reader positioned
// before the first document.
func Open(paths ...string) (*Reader, error) {
	if len(paths) == 0 {
		return nil, fmt.Errorf("no corpus shards given")
	}
	for _, p := range paths {
		if _, err := DetectFormat(p); err != nil {
			return nil, err
		}
	}
	return &Reader{paths: paths}, nil
}

// Next returns the next document, or io.EOF once every shard is exhausted.
// A line that is not a JSON object carrying url and text fields violates the
// corpus contract and aborts the read.
func (r *Reader) Next() (wsrs.Document, error) {
	for {
		if r.buf == nil {
			if r.index >= len(r.paths) {
				return wsrs.Document{}, io.EOF
			}
			if err := r.open(r.paths[r.index]); err != nil {
				return wsrs.Document{}, err
			}
			r.index++
		}
		line, err := r.buf.ReadBytes('\n')
		if err != nil && err != io.EOF {
			r.closeShard()
			return wsrs.Document{}, fmt.Errorf("reading %s: %w", r.path, err)
		}
		if err == io.EOF {
			// a final line without a newline still arrives here with data
			r.closeShard()
		}
		r.line++
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}
		doc, perr := parseDocument(line)
		if perr != nil {
			r.closeShard()
			return wsrs.Document{}, fmt.Errorf("%s line %d: %w", r.path, r.line, perr)
		}
		r.docs++
		return doc, nil
	}
}

// Close releases the currently open shard, if any. The Reader is unusable
// afterwards.
func (r *Reader) Close() error {
	r.closeShard()
	r.index = len(r.paths)
	return nil
}

// Documents returns how many documents have been yielded so far.
func (r *Reader) Documents() int {
	return r.docs
}

func (r *Reader) open(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open shard: %w", err)
	}
	r.file, r.path, r.line = f, path, 0
	if FormatOf(path) == FormatJSONLGzip {
		gz, gerr := gzip.NewReader(f)
		if gerr != nil {
			f.Close()
			return fmt.Errorf("failed to inflate shard %s: %w", path, gerr)
		}
		r.gz = gz
		r.buf = bufio.NewReader(gz)
	} else {
		r.buf = bufio.NewReader(f)
	}
	log.Debugf("Reading shard %s", path)
	return nil
}

func (r *Reader) closeShard() {
	if r.gz != nil {
		r.gz.Close()
		r.gz = nil
	}
	if r.file != nil {
		r.file.Close()
		r.file = nil
	}
	r.buf = nil
}

func parseDocument(line []byte) (wsrs.Document, error) {
	if !gjson.ValidBytes(line) {
		return wsrs.Document{}, fmt.Errorf("invalid JSON")
	}
	url := gjson.GetBytes(line, "url")
	text := gjson.GetBytes(line, "text")
	if !url.Exists() || !text.Exists() {
		return wsrs.Document{}, fmt.Errorf("document missing url or text field")
	}
	return wsrs.Document{URL: url.String(), Text: []byte(text.String())}, nil
}
