package deepmerge

import (
	"errors"
	"testing"

	"github.com/mrjoshuak/deepmerge/rowbuffer"
	"github.com/mrjoshuak/deepmerge/sample"
	"github.com/mrjoshuak/deepmerge/source"
)

func TestMergeAndFlattenSimplePair(t *testing.T) {
	a := source.NewGenerator(1, 1, func(x, y int) []sample.Sample {
		return []sample.Sample{{ZFront: 1, ZBack: 1, R: 0.8, A: 1}}
	})
	b := source.NewGenerator(1, 1, func(x, y int) []sample.Sample {
		return []sample.Sample{{ZFront: 2, ZBack: 2, B: 0.9, A: 0.9}}
	})

	rgba, w, h, stats, err := MergeAndFlatten([]source.Source{a, b}, DefaultOptions())
	if err != nil {
		t.Fatalf("MergeAndFlatten: %v", err)
	}
	if w != 1 || h != 1 {
		t.Fatalf("dims = %dx%d, want 1x1", w, h)
	}
	if len(rgba) != 4 {
		t.Fatalf("len(rgba) = %d, want 4", len(rgba))
	}
	// Front sample is opaque: occludes everything behind it.
	if rgba[0] != 0.8 || rgba[3] != 1 {
		t.Errorf("rgba = %v, want R=0.8 A=1", rgba)
	}
	if stats.InputImageCount != 2 {
		t.Errorf("InputImageCount = %d, want 2", stats.InputImageCount)
	}
}

func TestMergeDeepPreservesDepthOrder(t *testing.T) {
	a := source.NewGenerator(1, 1, func(x, y int) []sample.Sample {
		return []sample.Sample{{ZFront: 5, ZBack: 5, R: 1, A: 1}}
	})
	b := source.NewGenerator(1, 1, func(x, y int) []sample.Sample {
		return []sample.Sample{{ZFront: 1, ZBack: 1, G: 1, A: 1}}
	})

	img, _, err := MergeDeep([]source.Source{a, b}, DefaultOptions())
	if err != nil {
		t.Fatalf("MergeDeep: %v", err)
	}
	row := img.Row(0)
	data := row.PixelData(0)
	if len(data) != 2 {
		t.Fatalf("len(data) = %d, want 2 (merging keeps both samples; occlusion happens when flattening)", len(data))
	}
	if data[0].ZFront != 1 || data[1].ZFront != 5 {
		t.Errorf("ZFront = %v, %v, want 1, 5 (nearer sample first)", data[0].ZFront, data[1].ZFront)
	}
}

func TestMergeEnableMergingFalsePreservesDuplicates(t *testing.T) {
	a := source.NewGenerator(1, 1, func(x, y int) []sample.Sample {
		return []sample.Sample{{ZFront: 1, ZBack: 1, R: 0.5, A: 0.5}}
	})
	b := source.NewGenerator(1, 1, func(x, y int) []sample.Sample {
		return []sample.Sample{{ZFront: 1, ZBack: 1, G: 0.5, A: 0.5}}
	})

	opts := DefaultOptions()
	opts.EnableMerging = false

	img, _, err := MergeDeep([]source.Source{a, b}, opts)
	if err != nil {
		t.Fatalf("MergeDeep: %v", err)
	}
	if got := img.Row(0).SampleCount(0); got != 2 {
		t.Errorf("SampleCount = %d, want 2 duplicates preserved", got)
	}
}

func TestMergeDeepMismatchedDimensions(t *testing.T) {
	a := source.NewGenerator(2, 2, func(x, y int) []sample.Sample { return nil })
	b := source.NewGenerator(3, 3, func(x, y int) []sample.Sample { return nil })

	_, _, err := MergeDeep([]source.Source{a, b}, DefaultOptions())
	var de *Error
	if !errors.As(err, &de) {
		t.Fatalf("err = %v, want *Error", err)
	}
	if de.Kind != MismatchedDimensions {
		t.Errorf("Kind = %v, want MismatchedDimensions", de.Kind)
	}
}

func TestMergePixelsAndFlattenPixelBuildingBlocks(t *testing.T) {
	merged := MergePixels([][]sample.Sample{
		{{ZFront: 2, ZBack: 2, B: 1, A: 1}},
		{{ZFront: 1, ZBack: 1, R: 1, A: 1}},
	}, sample.DefaultMergeEpsilon)
	if len(merged) != 2 || merged[0].R != 1 {
		t.Fatalf("merged = %+v, want both samples, opaque front first", merged)
	}

	r, g, b, a := FlattenPixel(merged)
	if r != 1 || g != 0 || b != 0 || a != 1 {
		t.Errorf("flatten = (%v,%v,%v,%v), want (1,0,0,1)", r, g, b, a)
	}
}

func TestMergeDeepSourceIoError(t *testing.T) {
	boom := errors.New("disk gone")
	bad := failingSource{width: 1, height: 2, failAt: 1, err: boom}

	_, _, err := MergeDeep([]source.Source{bad}, DefaultOptions())
	var de *Error
	if !errors.As(err, &de) {
		t.Fatalf("err = %v, want *Error", err)
	}
	if de.Kind != SourceIo {
		t.Errorf("Kind = %v, want SourceIo", de.Kind)
	}
}

type failingSource struct {
	width, height int
	failAt        int
	err           error
}

func (f failingSource) Width() int  { return f.width }
func (f failingSource) Height() int { return f.height }
func (f failingSource) SampleCounts(y int) []int32 {
	return make([]int32, f.width)
}
func (f failingSource) ReadRow(y int, dst *rowbuffer.RowBuffer) error {
	if y == f.failAt {
		return f.err
	}
	return dst.Allocate(make([]int32, f.width))
}
