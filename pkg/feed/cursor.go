package feed

import "github.com/rxtech-lab/barfeed/internal/types"

// Cursor exposes a bar series to an external consumer one record at a time.
// The position starts before the first bar; the first Advance lands on index
// zero. Once exhausted, every further Advance keeps reporting false.
type Cursor struct {
	series *types.BarSeries
	idx    int
	done   bool
}

// NewCursor wraps a bar series for pull iteration.
func NewCursor(series *types.BarSeries) *Cursor {
	return &Cursor{series: series, idx: -1, done: false}
}

// Advance moves to the next bar. It reports false when no more data exists;
// the exhausted state is terminal.
func (c *Cursor) Advance() bool {
	if c.done {
		return false
	}

	c.idx++
	if c.idx >= c.series.Len() {
		c.done = true
		return false
	}

	return true
}

// Current returns the active bar as a field-keyed record. It is only valid
// after a successful Advance; otherwise it returns nil.
func (c *Cursor) Current() types.Lines {
	if c.idx < 0 || c.idx >= c.series.Len() {
		return nil
	}

	return c.series.At(c.idx).Lines()
}
