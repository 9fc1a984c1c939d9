package feed

import (
	"encoding/csv"
	"io"
	"strings"

	"github.com/rxtech-lab/barfeed/pkg/errors"
)

// LineSource yields successive tokenized raw lines. It is stateful and
// positional: consumed lines are not replayable. A line source is owned by
// exactly one parse session.
type LineSource interface {
	// Next returns the next tokenized line, or ok=false on exhaustion.
	Next() (tokens []string, ok bool)
}

// SliceLineSource serves pre-tokenized lines from memory.
type SliceLineSource struct {
	lines [][]string
	pos   int
}

// NewSliceLineSource creates a line source over the given lines.
func NewSliceLineSource(lines [][]string) *SliceLineSource {
	return &SliceLineSource{lines: lines, pos: 0}
}

// Next implements LineSource.
func (s *SliceLineSource) Next() ([]string, bool) {
	if s.pos >= len(s.lines) {
		return nil, false
	}

	line := s.lines[s.pos]
	s.pos++

	return line, true
}

// NewCSVLineSource tokenizes comma-separated Yahoo-format lines from r.
// A leading header row ("Date,Open,...") is skipped. When reverse is set the
// stream is served oldest-first even though it arrived newest-first; this
// materializes the whole input, mirroring how the download files are small
// daily histories.
func NewCSVLineSource(r io.Reader, reverse bool) (*SliceLineSource, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeSourceReadFailed, "failed to read CSV input", err)
	}

	if len(records) > 0 && isHeaderRow(records[0]) {
		records = records[1:]
	}

	if reverse {
		for i, j := 0, len(records)-1; i < j; i, j = i+1, j-1 {
			records[i], records[j] = records[j], records[i]
		}
	}

	return NewSliceLineSource(records), nil
}

func isHeaderRow(tokens []string) bool {
	return len(tokens) > 0 && strings.EqualFold(strings.TrimSpace(tokens[0]), "date")
}
