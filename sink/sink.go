// Package sink defines the final image sink capability that receives a
// flattened RGBA buffer, plus reference implementations: an in-memory
// capture and a binary PPM (P6) writer.
package sink

import (
	"bufio"
	"fmt"
	"io"
	"math"
)

// Sink accepts a premultiplied, linear-space W*H*4 RGBA buffer. How it
// is persisted (file format, tone mapping, colour space) is entirely
// the sink's concern; the core does not inspect it.
type Sink interface {
	Width() int
	Height() int
	WriteRGBA(buf []float32) error
}

// Memory captures the flattened buffer for inspection, used by tests
// and by callers that want the raw float buffer rather than a file.
type Memory struct {
	width, height int
	Buf           []float32
}

// NewMemory creates a Memory sink for the given dimensions.
func NewMemory(width, height int) *Memory {
	return &Memory{width: width, height: height}
}

func (m *Memory) Width() int  { return m.width }
func (m *Memory) Height() int { return m.height }

func (m *Memory) WriteRGBA(buf []float32) error {
	if len(buf) != m.width*m.height*4 {
		return fmt.Errorf("sink: buffer length %d, want %d", len(buf), m.width*m.height*4)
	}
	m.Buf = append([]float32(nil), buf...)
	return nil
}

// PPM writes a binary PPM (P6) file, clamping and gamma-encoding the
// premultiplied linear buffer to 8-bit sRGB. Tone mapping is
// deliberately minimal (clamp + fixed gamma) since quantization beyond
// that is out of the core's scope; a hosting tool wanting real tone
// mapping should write its own Sink instead.
type PPM struct {
	width, height int
	w             io.Writer
	gamma         float64
}

// NewPPM creates a PPM sink writing to w. gamma <= 0 uses the standard
// 1/2.2 encoding gamma.
func NewPPM(w io.Writer, width, height int, gamma float64) *PPM {
	if gamma <= 0 {
		gamma = 1.0 / 2.2
	}
	return &PPM{width: width, height: height, w: w, gamma: gamma}
}

func (p *PPM) Width() int  { return p.width }
func (p *PPM) Height() int { return p.height }

func (p *PPM) WriteRGBA(buf []float32) error {
	if len(buf) != p.width*p.height*4 {
		return fmt.Errorf("sink: buffer length %d, want %d", len(buf), p.width*p.height*4)
	}

	bw := bufio.NewWriter(p.w)
	fmt.Fprintf(bw, "P6\n%d %d\n255\n", p.width, p.height)

	row := make([]byte, p.width*3)
	for y := 0; y < p.height; y++ {
		for x := 0; x < p.width; x++ {
			o := (y*p.width + x) * 4
			row[x*3+0] = encodeChannel(buf[o+0], p.gamma)
			row[x*3+1] = encodeChannel(buf[o+1], p.gamma)
			row[x*3+2] = encodeChannel(buf[o+2], p.gamma)
		}
		if _, err := bw.Write(row); err != nil {
			return fmt.Errorf("sink: write row %d: %w", y, err)
		}
	}
	return bw.Flush()
}

func encodeChannel(v float32, gamma float64) byte {
	if v < 0 {
		v = 0
	}
	if v > 1 {
		v = 1
	}
	enc := math.Pow(float64(v), gamma)
	return byte(enc*255 + 0.5)
}
