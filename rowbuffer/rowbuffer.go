// Package rowbuffer implements the physical layout for one scanline of a
// deep image: a per-x sample count plus a single contiguous sample array.
// It is deliberately close to a FrameBuffer/Slice layout but stores
// sample.Sample values directly instead of per-channel byte slices, since
// a merged row always carries all six channels together.
package rowbuffer

import (
	"errors"

	"github.com/mrjoshuak/deepmerge/sample"
)

// ErrOutOfMemory is returned by Allocate/AllocateCapacity when the
// requested storage cannot be reserved.
var ErrOutOfMemory = errors.New("rowbuffer: out of memory")

// wideRowThreshold is the row width above which an incremental offset
// cache stops being optional and becomes load-bearing for performance.
// This implementation always caches offsets incrementally as the row is
// built, regardless of width, so the threshold is kept only as a
// documented constant rather than a behavioral branch.
const wideRowThreshold = 1024

// Pool is an optional backing-store recycler a RowBuffer can draw its
// sample storage from instead of allocating fresh on every
// Allocate/AllocateCapacity call. Get returns a slice with length at
// least n; Put returns a buffer (by its full capacity) for reuse.
type Pool interface {
	Get(n int) []sample.Sample
	Put(buf []sample.Sample)
}

// RowBuffer is a contiguous store of per-pixel variable-length sample
// runs for one scanline. A row buffer is filled monotonically in
// ascending x (the loader/merger writes pixel 0, then 1, …) and then
// reset as a whole via Clear; individual pixels are never resized once
// written.
type RowBuffer struct {
	width   int
	counts  []int32
	offsets []int32 // offsets[x] = sum(counts[:x]); valid for x <= built
	samples []sample.Sample
	built   int // number of pixels whose offset has been finalized
	pool    Pool
}

// New creates an empty RowBuffer for the given width. Call Allocate or
// AllocateCapacity before use.
func New(width int) *RowBuffer {
	rb := &RowBuffer{width: width}
	rb.counts = make([]int32, width)
	rb.offsets = make([]int32, width+1)
	return rb
}

// NewPooled creates a RowBuffer for the given width whose sample
// storage is drawn from pool instead of allocated fresh each time the
// row is rebuilt — the pipeline's window slots use this so a slot's
// backing array is reused across window rotations instead of being
// reallocated every H/W_slots rows.
func NewPooled(width int, pool Pool) *RowBuffer {
	rb := New(width)
	rb.pool = pool
	return rb
}

// Width returns the row's pixel width.
func (rb *RowBuffer) Width() int { return rb.width }

// Allocate reserves exactly sum(counts) samples, laid out contiguously in
// x order, and sets count[x] := counts[x] for all x. Any prior contents
// are discarded. Intended for use by a loader that knows per-pixel
// sample counts up front.
func (rb *RowBuffer) Allocate(counts []int32) error {
	if len(counts) != rb.width {
		return errors.New("rowbuffer: counts length does not match width")
	}

	var total int64
	for x, c := range counts {
		if c < 0 {
			return errors.New("rowbuffer: negative sample count")
		}
		rb.offsets[x] = int32(total)
		total += int64(c)
	}
	rb.offsets[rb.width] = int32(total)

	samples, err := rb.getSamples(total)
	if err != nil {
		return err
	}

	copy(rb.counts, counts)
	rb.samples = samples
	rb.built = rb.width
	return nil
}

// AllocateCapacity reserves storage for up to maxSamples samples with
// count[x] := 0 for all x. Intended for the merger, which fills the row
// one pixel at a time via SetSampleCount followed by PixelData, in
// ascending x order, writing at most maxSamples samples in total.
func (rb *RowBuffer) AllocateCapacity(maxSamples int) error {
	samples, err := rb.getSamples(int64(maxSamples))
	if err != nil {
		return err
	}

	for i := range rb.counts {
		rb.counts[i] = 0
	}
	for i := range rb.offsets {
		rb.offsets[i] = 0
	}
	rb.samples = samples
	rb.built = 0
	return nil
}

// getSamples returns a fresh zeroed slice of length n, either from
// rb.pool (if set) or allocated directly. Any previously pooled
// backing array held by rb is returned to the pool first.
func (rb *RowBuffer) getSamples(n int64) (samples []sample.Sample, err error) {
	if rb.pool != nil && rb.samples != nil {
		rb.pool.Put(rb.samples[:cap(rb.samples)])
	}
	if rb.pool != nil {
		return allocSamplesFrom(n, rb.pool)
	}
	return allocSamples(n)
}

func allocSamples(n int64) (samples []sample.Sample, err error) {
	if n < 0 {
		return nil, ErrOutOfMemory
	}
	defer func() {
		if r := recover(); r != nil {
			samples, err = nil, ErrOutOfMemory
		}
	}()
	return make([]sample.Sample, n), nil
}

func allocSamplesFrom(n int64, pool Pool) (samples []sample.Sample, err error) {
	if n < 0 {
		return nil, ErrOutOfMemory
	}
	defer func() {
		if r := recover(); r != nil {
			samples, err = nil, ErrOutOfMemory
		}
	}()
	buf := pool.Get(int(n))
	buf = buf[:n]
	for i := range buf {
		buf[i] = sample.Sample{}
	}
	return buf, nil
}

// SampleCount returns the number of samples stored at pixel x.
func (rb *RowBuffer) SampleCount(x int) int {
	return int(rb.counts[x])
}

// SetSampleCount sets the number of samples at pixel x and extends the
// offset cache through x. x must equal the number of pixels already
// built (i.e. pixels must be finalized in ascending order); violating
// that is a programming error and panics.
func (rb *RowBuffer) SetSampleCount(x, n int) {
	if x != rb.built {
		panic("rowbuffer: SetSampleCount called out of order")
	}
	if n < 0 {
		panic("rowbuffer: negative sample count")
	}
	cur := rb.offsets[x]
	next := int(cur) + n
	if next > len(rb.samples) {
		panic("rowbuffer: sample count exceeds allocated capacity")
	}
	rb.counts[x] = int32(n)
	rb.offsets[x+1] = int32(next)
	rb.built++
}

// PixelData returns a slice view over the samples stored at pixel x. For
// a row allocated with AllocateCapacity, x must already have been
// finalized via SetSampleCount. Calling this with x >= Width, or before
// pixel x has been finalized, is a programming error and panics.
func (rb *RowBuffer) PixelData(x int) []sample.Sample {
	if x < 0 || x >= rb.width {
		panic("rowbuffer: pixel index out of range")
	}
	if x >= rb.built {
		panic("rowbuffer: PixelData called before pixel was finalized")
	}
	start, end := rb.offsets[x], rb.offsets[x+1]
	return rb.samples[start:end]
}

// TotalSamples returns the total number of samples currently finalized
// across the row (sum of per-pixel counts for pixels built so far).
func (rb *RowBuffer) TotalSamples() int {
	return int(rb.offsets[rb.built])
}

// Clear frees the scalar storage and resets counts, returning the row
// buffer to its zero state so it can be reused for another scanline.
func (rb *RowBuffer) Clear() {
	for i := range rb.counts {
		rb.counts[i] = 0
	}
	for i := range rb.offsets {
		rb.offsets[i] = 0
	}
	if rb.pool != nil && rb.samples != nil {
		rb.pool.Put(rb.samples[:cap(rb.samples)])
	}
	rb.samples = nil
	rb.built = 0
}
