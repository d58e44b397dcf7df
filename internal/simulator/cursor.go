package simulator

import "InsiderSentinel/internal/model"

// Cursor walks a bar series one day at a time and only exposes bars up to
// the current day.
type Cursor struct {
	bars []model.PriceBar
	pos  int
}

// NewCursor positions a cursor before the first bar.
func NewCursor(bars []model.PriceBar) *Cursor {
	return &Cursor{bars: bars, pos: -1}
}

// Next advances to the next trading day. It returns false at end of data.
func (c *Cursor) Next() bool {
	if c.pos+1 >= len(c.bars) {
		return false
	}
	c.pos++
	return true
}

// Index is the zero-based index of today.
func (c *Cursor) Index() int { return c.pos }

// Today returns the current bar.
func (c *Cursor) Today() model.PriceBar { return c.bars[c.pos] }

// Visible returns bars up to and including today. The slice capacity is
// clipped so appending cannot reach tomorrow's bar.
func (c *Cursor) Visible() []model.PriceBar {
	return c.bars[: c.pos+1 : c.pos+1]
}
