// Package image defines the in-memory representation of a full deep
// image: a width x height grid of row buffers.
package image

import "github.com/mrjoshuak/deepmerge/rowbuffer"

// DeepImage is a rectangular grid of deep pixels, one row buffer per
// scanline, row-major with (0,0) at the top-left.
type DeepImage struct {
	Width, Height int
	Rows          []*rowbuffer.RowBuffer
}

// New allocates an empty DeepImage of the given dimensions. Rows are
// not yet populated; callers fill Rows[y] via the row buffer API.
func New(width, height int) *DeepImage {
	rows := make([]*rowbuffer.RowBuffer, height)
	for y := range rows {
		rows[y] = rowbuffer.New(width)
	}
	return &DeepImage{Width: width, Height: height, Rows: rows}
}

// Row returns the row buffer for scanline y.
func (img *DeepImage) Row(y int) *rowbuffer.RowBuffer {
	return img.Rows[y]
}

// TotalSamples sums TotalSamples() across every row.
func (img *DeepImage) TotalSamples() int {
	total := 0
	for _, r := range img.Rows {
		total += r.TotalSamples()
	}
	return total
}

// CompatibleWith reports whether img and other share the same
// dimensions, the compatibility test two deep images must pass before
// they can be merged together.
func (img *DeepImage) CompatibleWith(other *DeepImage) bool {
	return img.Width == other.Width && img.Height == other.Height
}
