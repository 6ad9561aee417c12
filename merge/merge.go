// Package merge implements the pixel merger: given N per-pixel sample
// runs, it produces one depth-ordered, non-overlapping run with
// Beer-Lambert volumetric splitting and order-independent blending of
// coincident samples.
package merge

import (
	"sort"

	"github.com/mrjoshuak/deepmerge/sample"
)

// Scratch holds the per-thread staging buffers the merger reuses across
// pixels to avoid allocating on every call. A Scratch must not be
// shared across goroutines; the pipeline hands one to each merger
// thread.
type Scratch struct {
	staging     []sample.Sample
	splitPoints []float64
	fragments   []sample.Sample
}

// NewScratch creates an empty Scratch. Its internal slices grow lazily
// and are reused (truncated, not reallocated) across calls.
func NewScratch() *Scratch {
	return &Scratch{}
}

// Stats accumulates counters the merger exposes for the pipeline's
// statistics. Malformed samples are dropped rather than treated as
// fatal, and counted via DroppedSamples.
type Stats struct {
	DroppedSamples int64
}

// Pixels is the pure, allocating building block: merge_pixels(inputs,
// epsilon) -> merged samples. It allocates its own scratch and result
// slice; callers on a hot path (the pipeline) should use PixelsScratch
// instead to avoid allocation.
func Pixels(inputs [][]sample.Sample, eps float64) []sample.Sample {
	scratch := NewScratch()
	var stats Stats
	out := PixelsScratch(inputs, eps, scratch, &stats)
	result := make([]sample.Sample, len(out))
	copy(result, out)
	return result
}

// PixelsScratch merges the N input sample runs for one pixel into a
// single depth-ordered, non-overlapping run. The returned slice aliases
// scratch's internal fragment buffer and is only valid until the next
// call to PixelsScratch on the same Scratch — callers that need to keep
// the result must copy it out (as Pixels does).
func PixelsScratch(inputs [][]sample.Sample, eps float64, scratch *Scratch, stats *Stats) []sample.Sample {
	// Gather, dropping malformed samples.
	scratch.staging = scratch.staging[:0]
	for _, run := range inputs {
		for _, s := range run {
			if !s.Finite() {
				if stats != nil {
					stats.DroppedSamples++
				}
				continue
			}
			scratch.staging = append(scratch.staging, s)
		}
	}

	if len(scratch.staging) == 0 {
		scratch.fragments = scratch.fragments[:0]
		return scratch.fragments
	}

	if len(scratch.staging) == 1 {
		// Single input sample: copied verbatim, no floating perturbation.
		scratch.fragments = append(scratch.fragments[:0], scratch.staging[0])
		return scratch.fragments
	}

	// Collect every distinct z_front/z_back value.
	scratch.splitPoints = collectSplitPoints(scratch.staging, scratch.splitPoints[:0])

	// Split volumetric samples at interior split points.
	scratch.fragments = scratch.fragments[:0]
	for _, s := range scratch.staging {
		scratch.fragments = splitAtInteriorPoints(s, scratch.splitPoints, scratch.fragments)
	}

	// Sort fragments by (z_front, z_back) ascending; stability is not
	// required.
	frags := scratch.fragments
	sort.Slice(frags, func(i, j int) bool {
		if frags[i].ZFront != frags[j].ZFront {
			return frags[i].ZFront < frags[j].ZFront
		}
		return frags[i].ZBack < frags[j].ZBack
	})

	// Fold consecutive coincidents left to right into the final merged
	// pixel.
	return foldCoincidents(frags, eps)
}

// collectSplitPoints returns the sorted set of distinct z_front/z_back
// values appearing in staging, using exact float equality (near
// duplicates are coalesced later by the blend step, not here).
func collectSplitPoints(staging []sample.Sample, dst []float64) []float64 {
	dst = dst[:0]
	for _, s := range staging {
		dst = append(dst, s.ZFront, s.ZBack)
	}
	sort.Float64s(dst)

	out := dst[:0]
	for i, v := range dst {
		if i == 0 || v != out[len(out)-1] {
			out = append(out, v)
		}
	}
	return out
}

// splitAtInteriorPoints emits the fragments of s, splitting at every
// point in splitPoints that falls strictly inside s's interval (at
// least EpsSplit from either endpoint).
func splitAtInteriorPoints(s sample.Sample, splitPoints []float64, dst []sample.Sample) []sample.Sample {
	if s.IsPoint() {
		return append(dst, s)
	}

	lo := s.ZFront + sample.EpsSplit
	hi := s.ZBack - sample.EpsSplit
	if lo >= hi {
		return append(dst, s)
	}

	start := sort.SearchFloat64s(splitPoints, lo)
	cur := s
	for i := start; i < len(splitPoints) && splitPoints[i] < hi; i++ {
		zc := splitPoints[i]
		front, back, ok := sample.Split(cur, zc)
		if !ok {
			continue
		}
		dst = append(dst, front)
		cur = back
	}
	return append(dst, cur)
}

// foldCoincidents scans sorted fragments and blends consecutive runs of
// mutually coincident samples into one.
func foldCoincidents(frags []sample.Sample, eps float64) []sample.Sample {
	if len(frags) == 0 {
		return frags
	}

	out := frags[:1]
	for i := 1; i < len(frags); i++ {
		last := out[len(out)-1]
		if sample.Coincident(last, frags[i], eps) {
			out[len(out)-1] = sample.Blend(last, frags[i])
			continue
		}
		out = append(out, frags[i])
	}
	return out
}
