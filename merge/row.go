package merge

import (
	"github.com/mrjoshuak/deepmerge/rowbuffer"
	"github.com/mrjoshuak/deepmerge/sample"
)

// RowScratch extends Scratch with the per-pixel staging this package's
// row-level entry point needs: one reusable fragment buffer per column,
// so a row can be merged pixel-by-pixel and then copied into an exactly
// sized output RowBuffer in one pass, without truncation and without
// reallocating those per-column buffers on every row. The exact output
// size is computed by merging first and sizing the destination to
// match, rather than guessing from input counts and growing on
// overflow.
type RowScratch struct {
	merge   Scratch
	columns [][]sample.Sample // one reusable buffer per column, length == width
}

// NewRowScratch creates a RowScratch for rows of the given width.
func NewRowScratch(width int) *RowScratch {
	return &RowScratch{columns: make([][]sample.Sample, width)}
}

// Row merges one scanline's worth of input pixels into out, which is
// (re)sized exactly to the merged total — no truncation is possible.
// pixelAt(i, x) returns the sample run for source i at column x, for i
// in [0, numSources).
//
// out must not yet be finalized for this pass; Row calls
// AllocateCapacity itself.
func Row(out *rowbuffer.RowBuffer, width int, pixelAt func(source, x int) []sample.Sample, numSources int, eps float64, rs *RowScratch, stats *Stats) error {
	if len(rs.columns) != width {
		rs.columns = make([][]sample.Sample, width)
	}

	inputs := make([][]sample.Sample, numSources)

	total := 0
	for x := 0; x < width; x++ {
		for i := 0; i < numSources; i++ {
			inputs[i] = pixelAt(i, x)
		}
		merged := PixelsScratch(inputs, eps, &rs.merge, stats)

		col := rs.columns[x][:0]
		col = append(col, merged...)
		rs.columns[x] = col
		total += len(col)
	}

	if err := out.AllocateCapacity(total); err != nil {
		return err
	}
	for x := 0; x < width; x++ {
		col := rs.columns[x]
		out.SetSampleCount(x, len(col))
		copy(out.PixelData(x), col)
	}
	return nil
}
