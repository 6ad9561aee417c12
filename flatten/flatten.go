// Package flatten implements the front-to-back Porter-Duff over
// operator that collapses a depth-ordered deep pixel, row, or image
// into a premultiplied RGBA tuple.
package flatten

import (
	"github.com/mrjoshuak/deepmerge/parallelutil"
	"github.com/mrjoshuak/deepmerge/rowbuffer"
	"github.com/mrjoshuak/deepmerge/sample"
)

// earlyOutAlpha is the accumulated alpha at which flattening stops
// early, treating the pixel as fully opaque. Once crossed, farther
// samples contribute nothing.
const earlyOutAlpha = 0.9999

// Pixel composites a depth-ordered run of merged samples front to back
// and returns the resulting premultiplied RGBA. An empty run returns
// (0, 0, 0, 0).
func Pixel(samples []sample.Sample) (r, g, b, a float32) {
	for _, s := range samples {
		w := 1 - a
		r += s.R * w
		g += s.G * w
		b += s.B * w
		a += s.A * w
		if a >= earlyOutAlpha {
			return r, g, b, 1
		}
	}
	return r, g, b, a
}

// Row flattens every pixel of row into dst, row-major and
// channel-interleaved (4 floats per pixel). dst must have length
// row.Width()*4.
func Row(row *rowbuffer.RowBuffer, dst []float32) {
	w := row.Width()
	if len(dst) != w*4 {
		panic("flatten: dst has wrong length for row width")
	}
	for x := 0; x < w; x++ {
		r, g, b, a := Pixel(row.PixelData(x))
		o := x * 4
		dst[o], dst[o+1], dst[o+2], dst[o+3] = r, g, b, a
	}
}

// Image flattens every row of an already-merged deep image, accessed
// through rowAt, into a W*H*4 row-major channel-interleaved buffer.
// Rows are flattened in parallel via parallelutil.For, since unlike the
// streaming pipeline's writer thread (which flattens a row at a time as
// part of its own per-scanline work) a standalone call has no other
// source of per-row concurrency to piggyback on.
func Image(width, height int, rowAt func(y int) *rowbuffer.RowBuffer) []float32 {
	out := make([]float32, width*height*4)
	parallelutil.For(height, func(y int) {
		Row(rowAt(y), out[y*width*4:(y+1)*width*4])
	})
	return out
}
