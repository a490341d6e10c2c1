/*
Package writer persists example streams for downstream training jobs.

Binary shards carry a little-endian int32 record count followed by that many
msgpack-encoded records, and rotate once a configured number of records has
been buffered. A JSON Lines writer is available for spot checks and interop.
*/
package writer

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/abbrevlab/wsrs/internal/utils"
	"github.com/abbrevlab/wsrs/pkg/wsrs"
)

// shardRecord is the on-disk schema for one example.
type shardRecord struct {
	Key                string `msgpack:"key"`
	OriginalSnippet    string `msgpack:"original_snippet"`
	AbbreviatedSnippet string `msgpack:"abbreviated_snippet"`
}

// ShardWriter writes examples into rotating msgpack shards named
// <prefix>_00000.bin onwards under one directory.
type ShardWriter struct {
	dir       string
	prefix    string
	shardSize int
	buffer    []wsrs.Example
	shardID   int
	written   int
}

// NewShardWriter creates dir if needed and returns a writer that rotates
// shards every shardSize records.
func NewShardWriter(dir, prefix string, shardSize int) (*ShardWriter, error) {
	if shardSize < 1 {
		return nil, fmt.Errorf("shard size must be positive, got %d", shardSize)
	}
	if err := utils.EnsureDir(dir); err != nil {
		return nil, fmt.Errorf("failed to create output dir %s: %w", dir, err)
	}
	return &ShardWriter{dir: dir, prefix: prefix, shardSize: shardSize}, nil
}

// Write buffers one example, flushing a full shard to disk.
func (w *ShardWriter) Write(ex wsrs.Example) error {
	w.buffer = append(w.buffer, ex)
	if len(w.buffer) >= w.shardSize {
		return w.flush()
	}
	return nil
}

// Close flushes the trailing partial shard.
func (w *ShardWriter) Close() error {
	return w.flush()
}

// Written returns the number of records flushed to disk so far.
func (w *ShardWriter) Written() int {
	return w.written
}

// Shards returns the number of shard files completed so far.
func (w *ShardWriter) Shards() int {
	return w.shardID
}

func (w *ShardWriter) flush() error {
	if len(w.buffer) == 0 {
		return nil
	}
	path := filepath.Join(w.dir, fmt.Sprintf("%s_%05d.bin", w.prefix, w.shardID))
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create shard %s: %w", path, err)
	}
	bw := bufio.NewWriter(f)
	if err := binary.Write(bw, binary.LittleEndian, int32(len(w.buffer))); err != nil {
		f.Close()
		return fmt.Errorf("failed to write shard header: %w", err)
	}
	enc := msgpack.NewEncoder(bw)
	for _, ex := range w.buffer {
		rec := shardRecord{
			Key:                ex.Key,
			OriginalSnippet:    ex.OriginalSnippet,
			AbbreviatedSnippet: ex.AbbreviatedSnippet,
		}
		if err := enc.Encode(&rec); err != nil {
			f.Close()
			return fmt.Errorf("failed to encode record %s: %w", ex.Key, err)
		}
	}
	if err := bw.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("failed to flush shard %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close shard %s: %w", path, err)
	}
	log.Debugf("Wrote shard %s: %d records", path, len(w.buffer))
	w.written += len(w.buffer)
	w.shardID++
	w.buffer = w.buffer[:0]
	return nil
}

// ReadShard loads every record of one shard file back into memory. Intended
// for validation and small-scale inspection, not bulk processing.
func ReadShard(path string) ([]wsrs.Example, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open shard: %w", err)
	}
	defer f.Close()

	br := bufio.NewReader(f)
	var count int32
	if err := binary.Read(br, binary.LittleEndian, &count); err != nil {
		return nil, fmt.Errorf("failed to read shard header: %w", err)
	}
	if count < 0 {
		return nil, fmt.Errorf("corrupt shard header: count %d", count)
	}
	dec := msgpack.NewDecoder(br)
	out := make([]wsrs.Example, 0, count)
	for i := int32(0); i < count; i++ {
		var rec shardRecord
		if err := dec.Decode(&rec); err != nil {
			if err == io.EOF {
				return nil, fmt.Errorf("shard truncated at record %d of %d", i, count)
			}
			return nil, fmt.Errorf("failed to decode record %d: %w", i, err)
		}
		out = append(out, wsrs.Example{
			Key:                rec.Key,
			OriginalSnippet:    rec.OriginalSnippet,
			AbbreviatedSnippet: rec.AbbreviatedSnippet,
		})
	}
	return out, nil
}
