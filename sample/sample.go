// Package sample implements the algebra of individual deep samples:
// classifying point vs. volume, testing coincidence, splitting a
// volumetric sample at an interior depth, and blending two coincident
// samples under Beer-Lambert attenuation.
//
// All operations are pure and allocation-free so they are safe to call
// from the merge engine's per-thread hot path without synchronization.
package sample

import "math"

// Default tolerances.
const (
	// EpsVolume is the minimum (z_back - z_front) for a sample to count
	// as volumetric rather than a point.
	EpsVolume = 1e-6

	// EpsSplit is the minimum distance from an interval endpoint a cut
	// must have to take effect; closer cuts are ignored.
	EpsSplit = 1e-7

	// EpsColor is the alpha below which a split's color is zeroed
	// instead of divided, to avoid blowing up on a near-zero alpha.
	EpsColor = 1e-6

	// DefaultMergeEpsilon is the default coincidence tolerance used by
	// the merger when the caller does not override it.
	DefaultMergeEpsilon = 1e-3
)

// Sample is a single colored depth interval. Color channels are
// premultiplied by A over [ZFront, ZBack].
type Sample struct {
	ZFront     float64
	ZBack      float64
	R, G, B, A float32
}

// IsVolume reports whether s spans a non-degenerate depth interval.
func (s Sample) IsVolume() bool {
	return s.ZBack-s.ZFront > EpsVolume
}

// IsPoint reports whether s is a hard-surface (degenerate-interval) sample.
func (s Sample) IsPoint() bool {
	return !s.IsVolume()
}

// Finite reports whether s's depths are both finite and ordered, i.e. the
// sample is not malformed per the merger's drop rule.
func (s Sample) Finite() bool {
	if math.IsNaN(s.ZFront) || math.IsInf(s.ZFront, 0) {
		return false
	}
	if math.IsNaN(s.ZBack) || math.IsInf(s.ZBack, 0) {
		return false
	}
	return s.ZBack >= s.ZFront
}

// Coincident reports whether a and b occupy the same depth interval
// within eps.
func Coincident(a, b Sample, eps float64) bool {
	return math.Abs(a.ZFront-b.ZFront) < eps && math.Abs(a.ZBack-b.ZBack) < eps
}

// Split divides a volumetric sample s at depth zc into a front fragment
// [s.ZFront, zc] and a back fragment [zc, s.ZBack], preserving total
// transmittance under Beer-Lambert attenuation:
//
//	(1 - front.A) * (1 - back.A) == (1 - s.A)
//
// If zc does not fall strictly inside (ZFront+EpsSplit, ZBack-EpsSplit),
// the cut is ignored and s is returned unchanged as both "front" and
// "back" (ok reports false so the caller knows not to emit it twice).
func Split(s Sample, zc float64) (front, back Sample, ok bool) {
	thickness := s.ZBack - s.ZFront
	if zc <= s.ZFront+EpsSplit || zc >= s.ZBack-EpsSplit || thickness <= 0 {
		return s, s, false
	}

	rf := (zc - s.ZFront) / thickness
	rb := 1 - rf

	t := 1 - float64(s.A)
	if t < 0 {
		t = 0
	}

	tFront := math.Pow(t, rf)
	tBack := math.Pow(t, rb)

	front = Sample{ZFront: s.ZFront, ZBack: zc}
	back = Sample{ZFront: zc, ZBack: s.ZBack}
	front.A = float32(1 - tFront)
	back.A = float32(1 - tBack)

	if s.A > EpsColor {
		frontScale := front.A / s.A
		backScale := back.A / s.A
		front.R, front.G, front.B = s.R*frontScale, s.G*frontScale, s.B*frontScale
		back.R, back.G, back.B = s.R*backScale, s.G*backScale, s.B*backScale
	}

	return front, back, true
}

// Blend composites two coincident samples into one, assuming uniform
// interspersion of the two populations over the shared interval:
//
//	blended.A   = 1 - (1-a.A)*(1-b.A)
//	blended.RGB = a.RGB + b.RGB
//
// The operation is commutative and associative up to floating-point
// error, so folding a run of mutually coincident samples left-to-right
// is order-independent within the documented tolerance.
func Blend(a, b Sample) Sample {
	return Sample{
		ZFront: a.ZFront,
		ZBack:  a.ZBack,
		R:      a.R + b.R,
		G:      a.G + b.G,
		B:      a.B + b.B,
		A:      1 - (1-a.A)*(1-b.A),
	}
}
