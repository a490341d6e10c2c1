package corpus

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Format identifies a shard encoding the reader understands.
type Format int

const (
	FormatUnknown Format = iota
	FormatJSONL
	FormatJSONLGzip
)

func (f Format) String() string {
	switch f {
	case FormatJSONL:
		return "jsonl"
	case FormatJSONLGzip:
		return "jsonl+gzip"
	default:
		return "unknown"
	}
}

// shardExtensions maps recognized filename suffixes to their format, longest
// suffix first so ".json.gz" wins over ".json".
var shardExtensions = []struct {
	suffix string
	format Format
}{
	{".jsonl.gz", FormatJSONLGzip},
	{".json.gz", FormatJSONLGzip},
	{".jsonl", FormatJSONL},
	{".json", FormatJSONL},
}

// FormatOf classifies path by filename suffix alone.
func FormatOf(path string) Format {
	name := strings.ToLower(filepath.Base(path))
	for _, e := range shardExtensions {
		if strings.HasSuffix(name, e.suffix) {
			return e.format
		}
	}
	return FormatUnknown
}

// DetectFormat classifies path and verifies it is a readable, non-empty
// file.
func DetectFormat(path string) (Format, error) {
	format := FormatOf(path)
	if format == FormatUnknown {
		return FormatUnknown, fmt.Errorf("unsupported shard format: %s", path)
	}
	stat, err := os.Stat(path)
	if err != nil {
		return FormatUnknown, fmt.Errorf("shard not readable: %w", err)
	}
	if stat.IsDir() {
		return FormatUnknown, fmt.Errorf("shard is a directory: %s", path)
	}
	if stat.Size() == 0 {
		return FormatUnknown, fmt.Errorf("shard is empty: %s", path)
	}
	return format, nil
}

// Discover lists the shard files directly under dir, in lexical order.
func Discover(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read corpus dir: %w", err)
	}
	var shards []string
	for _, entry := range entries {
		if entry.IsDir() || FormatOf(entry.Name()) == FormatUnknown {
			continue
		}
		shards = append(shards, filepath.Join(dir, entry.Name()))
	}
	if len(shards) == 0 {
		return nil, fmt.Errorf("no corpus shards found in %s", dir)
	}
	sort.Strings(shards)
	return shards, nil
}
