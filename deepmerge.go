// Package deepmerge merges N deep images, front-to-back, into a
// single depth-ordered deep image or a flattened RGBA buffer. It is
// the public surface over the merge, flatten, and pipeline packages;
// callers needing finer control can use those directly.
package deepmerge

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mrjoshuak/deepmerge/flatten"
	"github.com/mrjoshuak/deepmerge/image"
	"github.com/mrjoshuak/deepmerge/merge"
	"github.com/mrjoshuak/deepmerge/pipeline"
	"github.com/mrjoshuak/deepmerge/rowbuffer"
	"github.com/mrjoshuak/deepmerge/sample"
	"github.com/mrjoshuak/deepmerge/source"
)

// Logger receives verbose and error strings from a merge run. Passing
// nil is always safe; nothing requires a Logger to be present.
type Logger = pipeline.Logger

// ProgressReporter receives coarse integer percentage updates from a
// merge run. Passing nil is always safe.
type ProgressReporter = pipeline.ProgressReporter

// Options configures a merge run. The zero value is usable but has
// merging disabled (duplicates preserved); it selects automatic window
// sizing and thread count, and no logging or progress reporting. Use
// DefaultOptions for merging at the default epsilon.
type Options struct {
	// MergeEpsilon is the coincidence tolerance. Use DefaultOptions to
	// get sample.DefaultMergeEpsilon rather than relying on the zero
	// value: coincidence is a strict less-than against epsilon, so 0
	// makes no two samples coincide.
	MergeEpsilon float64

	// EnableMerging, when false, forces the effective epsilon to 0 so
	// coincident samples are kept as separate entries rather than
	// blended. DefaultOptions sets this true; the zero Options value
	// leaves it false.
	EnableMerging bool

	// WindowSlots is the sliding window size. 0 selects the pipeline
	// default (48), clamped upward to Threads+1 if needed.
	WindowSlots int

	// Threads is the number of merger goroutines. 0 selects
	// hardware concurrency minus 2, floored at 1.
	Threads int

	Logger   Logger
	Progress ProgressReporter
}

// DefaultOptions returns the documented defaults: merging enabled at
// sample.DefaultMergeEpsilon, automatic window size and thread count.
func DefaultOptions() Options {
	return Options{
		MergeEpsilon:  sample.DefaultMergeEpsilon,
		EnableMerging: true,
	}
}

func (o Options) toConfig() pipeline.Config {
	eps := o.MergeEpsilon
	if !o.EnableMerging {
		eps = 0
	}
	return pipeline.Config{
		WindowSlots:  o.WindowSlots,
		MergeEpsilon: eps,
		Threads:      o.Threads,
		Logger:       o.Logger,
		Progress:     o.Progress,
	}
}

// Stats summarizes one merge run: the closed set of fields callers need,
// plus DroppedSamples (malformed samples discarded rather than
// treated as fatal).
type Stats struct {
	InputImageCount    int
	TotalInputSamples  int64
	TotalOutputSamples int64
	MinDepth           float64
	MaxDepth           float64
	MergeTimeMs        int64
	FlattenTimeMs      int64
	DroppedSamples     int64
}

func fromPipelineStats(s pipeline.Stats) Stats {
	return Stats{
		InputImageCount:    s.InputImageCount,
		TotalInputSamples:  s.TotalInputSamples,
		TotalOutputSamples: s.TotalOutputSamples,
		MinDepth:           s.MinDepth,
		MaxDepth:           s.MaxDepth,
		MergeTimeMs:        s.MergeTimeMs,
		FlattenTimeMs:      s.FlattenTimeMs,
		DroppedSamples:     s.DroppedSamples,
	}
}

// Kind is the closed set of error variants a merge run can fail with.
type Kind int

const (
	// Ok is never returned as an error; it exists so Kind's zero
	// value has a name distinct from the failure variants.
	Ok Kind = iota
	// MismatchedDimensions means two sources disagree on width or height.
	MismatchedDimensions
	// SourceIo means a source failed to provide a row.
	SourceIo
	// OutOfMemory means a buffer allocation failed.
	OutOfMemory
	// Internal covers any other fatal failure.
	Internal
)

func (k Kind) String() string {
	switch k {
	case Ok:
		return "Ok"
	case MismatchedDimensions:
		return "MismatchedDimensions"
	case SourceIo:
		return "SourceIo"
	case OutOfMemory:
		return "OutOfMemory"
	case Internal:
		return "Internal"
	default:
		return "Unknown"
	}
}

// Error is the sum-type result callers inspect and render: a Kind
// plus the message that produced it.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("deepmerge: %s: %s", e.Kind, e.Message)
}

// classify maps an internal error into the closed Error taxonomy.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pipeline.ErrMismatchedDimensions) {
		return &Error{Kind: MismatchedDimensions, Message: err.Error()}
	}
	if errors.Is(err, rowbuffer.ErrOutOfMemory) {
		return &Error{Kind: OutOfMemory, Message: err.Error()}
	}
	// The pipeline prefixes every stage's wrapped error with its
	// goroutine name ("pipeline: loader/merger/writer: ..."); only the
	// loader's failures originate from a source, everything else is
	// either a sink failure or an unexpected internal condition.
	if strings.Contains(err.Error(), "pipeline: loader:") {
		return &Error{Kind: SourceIo, Message: err.Error()}
	}
	return &Error{Kind: Internal, Message: err.Error()}
}

// MergeDeep merges sources front-to-back into a single depth-ordered
// deep image, returning it in full along with run statistics.
func MergeDeep(sources []source.Source, opts Options) (*image.DeepImage, Stats, error) {
	if len(sources) == 0 {
		return nil, Stats{}, &Error{Kind: Internal, Message: "no sources"}
	}
	width, height := sources[0].Width(), sources[0].Height()
	out := image.New(width, height)

	consume := func(y int, merged *rowbuffer.RowBuffer) error {
		copyRow(out.Row(y), merged, width)
		return nil
	}

	stats, err := pipeline.Run(sources, consume, opts.toConfig())
	if err != nil {
		return nil, Stats{}, classify(err)
	}
	return out, fromPipelineStats(stats), nil
}

// copyRow deep-copies merged's finalized contents into dst, since the
// pipeline reclaims merged's backing storage immediately after the
// consume callback returns.
func copyRow(dst, merged *rowbuffer.RowBuffer, width int) {
	counts := make([]int32, width)
	for x := 0; x < width; x++ {
		counts[x] = int32(merged.SampleCount(x))
	}
	if err := dst.Allocate(counts); err != nil {
		panic(err) // dst is freshly created by image.New; allocation failure here is unrecoverable.
	}
	for x := 0; x < width; x++ {
		copy(dst.PixelData(x), merged.PixelData(x))
	}
}

// MergeAndFlatten merges sources front-to-back and flattens the
// result into a premultiplied-linear RGBA buffer, W·H·4 float32s in
// row-major order.
func MergeAndFlatten(sources []source.Source, opts Options) ([]float32, int, int, Stats, error) {
	if len(sources) == 0 {
		return nil, 0, 0, Stats{}, &Error{Kind: Internal, Message: "no sources"}
	}
	width, height := sources[0].Width(), sources[0].Height()
	out := make([]float32, width*height*4)

	consume := func(y int, merged *rowbuffer.RowBuffer) error {
		flatten.Row(merged, out[y*width*4:(y+1)*width*4])
		return nil
	}

	stats, err := pipeline.Run(sources, consume, opts.toConfig())
	if err != nil {
		return nil, 0, 0, Stats{}, classify(err)
	}
	return out, width, height, fromPipelineStats(stats), nil
}

// MergePixels is the pure, allocating building block merging one
// pixel's worth of samples from every input, in depth order.
func MergePixels(inputs [][]sample.Sample, epsilon float64) []sample.Sample {
	return merge.Pixels(inputs, epsilon)
}

// FlattenPixel composes a single pixel's depth-ordered, non-
// overlapping samples front-to-back into premultiplied RGBA.
func FlattenPixel(pixel []sample.Sample) (r, g, b, a float32) {
	return flatten.Pixel(pixel)
}
