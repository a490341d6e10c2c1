package dictionary

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
)

// LoadCSV reads a dictionary from a headerless CSV file with one
// (abbreviation, expansion) row per line.
func LoadCSV(path string) (*Index, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open dictionary file: %w", err)
	}
	defer f.Close()

	idx, err := ReadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("dictionary %s: %w", path, err)
	}
	log.Debugf("Loaded dictionary %s: %d abbreviations, %d pairs",
		path, idx.Len(), idx.NumPairs())
	return idx, nil
}

// ReadCSV parses (abbreviation, expansion) rows from r. Any row with the
// wrong field count or an empty field aborts the load: an empty expansion
// would match at every index and an empty abbreviation would erase words
// silently, so neither is ever accepted.
func ReadCSV(r io.Reader) (*Index, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = 2

	idx := NewIndex()
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("malformed row: %w", err)
		}
		abbreviation, expansion := row[0], row[1]
		if abbreviation == "" || expansion == "" {
			line, _ := reader.FieldPos(0)
			return nil, fmt.Errorf("empty field in row %d", line)
		}
		idx.Add(abbreviation, expansion)
	}
	if idx.NumPairs() == 0 {
		return nil, fmt.Errorf("no dictionary entries found")
	}
	return idx, nil
}
