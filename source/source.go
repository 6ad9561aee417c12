// Package source defines the deep image source capability the
// pipeline's loader reads from, plus two reference implementations: an
// in-memory wrapper and a synthetic per-pixel generator.
package source

import (
	"fmt"

	"github.com/mrjoshuak/deepmerge/image"
	"github.com/mrjoshuak/deepmerge/rowbuffer"
	"github.com/mrjoshuak/deepmerge/sample"
)

// Source is the capability interface the core consumes a deep image
// through. It is deliberately narrow: dimensions, a per-row sample
// count, and a way to populate a row buffer. A conforming source must
// produce identical samples for the same row across repeated reads;
// the core relies on that to avoid re-reading.
type Source interface {
	Width() int
	Height() int
	SampleCounts(y int) []int32
	ReadRow(y int, dst *rowbuffer.RowBuffer) error
}

// Memory wraps a pre-built in-memory DeepImage as a Source. Used by
// tests and by callers that already hold a full deep image in memory.
type Memory struct {
	img *image.DeepImage
}

// NewMemory wraps img as a Source.
func NewMemory(img *image.DeepImage) *Memory {
	return &Memory{img: img}
}

func (m *Memory) Width() int  { return m.img.Width }
func (m *Memory) Height() int { return m.img.Height }

func (m *Memory) SampleCounts(y int) []int32 {
	row := m.img.Row(y)
	counts := make([]int32, m.img.Width)
	for x := 0; x < m.img.Width; x++ {
		counts[x] = int32(row.SampleCount(x))
	}
	return counts
}

func (m *Memory) ReadRow(y int, dst *rowbuffer.RowBuffer) error {
	src := m.img.Row(y)
	counts := make([]int32, m.img.Width)
	for x := 0; x < m.img.Width; x++ {
		counts[x] = int32(src.SampleCount(x))
	}
	if err := dst.Allocate(counts); err != nil {
		return fmt.Errorf("source: allocate row %d: %w", y, err)
	}
	for x := 0; x < m.img.Width; x++ {
		copy(dst.PixelData(x), src.PixelData(x))
	}
	return nil
}

// Generator synthesizes a deep image by calling a user function per
// pixel, useful for property tests, fuzzing, and CLI demo modes that
// need a source without a file on disk.
type Generator struct {
	width, height int
	gen           func(x, y int) []sample.Sample
}

// NewGenerator creates a Source of the given dimensions whose pixel at
// (x, y) is produced by gen.
func NewGenerator(width, height int, gen func(x, y int) []sample.Sample) *Generator {
	return &Generator{width: width, height: height, gen: gen}
}

func (g *Generator) Width() int  { return g.width }
func (g *Generator) Height() int { return g.height }

func (g *Generator) SampleCounts(y int) []int32 {
	counts := make([]int32, g.width)
	for x := 0; x < g.width; x++ {
		counts[x] = int32(len(g.gen(x, y)))
	}
	return counts
}

func (g *Generator) ReadRow(y int, dst *rowbuffer.RowBuffer) error {
	pixels := make([][]sample.Sample, g.width)
	counts := make([]int32, g.width)
	for x := 0; x < g.width; x++ {
		pixels[x] = g.gen(x, y)
		counts[x] = int32(len(pixels[x]))
	}
	if err := dst.Allocate(counts); err != nil {
		return fmt.Errorf("source: allocate row %d: %w", y, err)
	}
	for x := 0; x < g.width; x++ {
		copy(dst.PixelData(x), pixels[x])
	}
	return nil
}
