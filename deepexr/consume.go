package deepexr

import (
	"github.com/mrjoshuak/deepmerge/pipeline"
	"github.com/mrjoshuak/deepmerge/rowbuffer"
)

// Consume returns a pipeline.Consume that writes each merged row
// straight through to w, so a merge run can persist the full deep
// result (every sample, not just the flattened color) without
// buffering the whole image in memory first.
func (wr *Writer) Consume() pipeline.Consume {
	return func(y int, merged *rowbuffer.RowBuffer) error {
		return wr.WriteRow(y, merged)
	}
}
