package deepexr

import (
	"github.com/mrjoshuak/deepmerge/compression"
	"github.com/mrjoshuak/deepmerge/half"
	"github.com/mrjoshuak/deepmerge/internal/predictor"
	"github.com/mrjoshuak/deepmerge/internal/xdr"
	"github.com/mrjoshuak/deepmerge/rowbuffer"
	"github.com/mrjoshuak/deepmerge/sample"
)

// encodeCounts renders the row's per-pixel sample counts as a
// compressed byte block, following the established compressData order:
// horizontal-differencing predictor, then byte interleave, then zlib.
func encodeCounts(row *rowbuffer.RowBuffer, width int) (compressed []byte, rawLen int, err error) {
	w := xdr.NewBufferWriter(width * 4)
	for x := 0; x < width; x++ {
		w.WriteUint32(uint32(row.SampleCount(x)))
	}
	return compressBlock(w.Bytes())
}

// decodeCounts reverses encodeCounts into a []int32 suitable for
// rowbuffer.Allocate.
func decodeCounts(compressed []byte, rawLen, width int) ([]int32, error) {
	raw, err := decompressBlock(compressed, rawLen)
	if err != nil {
		return nil, err
	}
	r := xdr.NewReader(raw)
	counts := make([]int32, width)
	for x := 0; x < width; x++ {
		v, err := r.ReadUint32()
		if err != nil {
			return nil, err
		}
		counts[x] = int32(v)
	}
	return counts, nil
}

// encodePixelData renders one row's samples in channel-major order
// (every ZFront, then every ZBack, then every R, G, B, A, each in
// ascending x then within-pixel order) and compresses the result.
// Channel-major layout keeps each channel's values, which tend to be
// locally coherent, contiguous for the predictor and the compressor.
func encodePixelData(row *rowbuffer.RowBuffer, width int, format PixelFormat) (compressed []byte, rawLen int, err error) {
	total := row.TotalSamples()
	colorBytes := format.colorBytes()
	size := total*8 + total*4*colorBytes
	w := xdr.NewBufferWriter(size)

	writeFloat64Channel(w, row, width, func(s sample.Sample) float64 { return s.ZFront })
	writeFloat64Channel(w, row, width, func(s sample.Sample) float64 { return s.ZBack })
	writeColorChannel(w, row, width, format, func(s sample.Sample) float32 { return s.R })
	writeColorChannel(w, row, width, format, func(s sample.Sample) float32 { return s.G })
	writeColorChannel(w, row, width, format, func(s sample.Sample) float32 { return s.B })
	writeColorChannel(w, row, width, format, func(s sample.Sample) float32 { return s.A })

	return compressBlock(w.Bytes())
}

func writeFloat64Channel(w *xdr.BufferWriter, row *rowbuffer.RowBuffer, width int, get func(sample.Sample) float64) {
	for x := 0; x < width; x++ {
		for _, s := range row.PixelData(x) {
			// Depths are stored as float32 on disk (see PixelFormat
			// doc); truncate here rather than carry float64 through
			// the wire format.
			w.WriteFloat32(float32(get(s)))
		}
	}
}

// writeColorChannel gathers one channel's values into a contiguous
// slice and writes them in a single batched pass: half.ConvertFloat32ToBytes
// when the row is stored at half precision, or plain float32 writes
// otherwise.
func writeColorChannel(w *xdr.BufferWriter, row *rowbuffer.RowBuffer, width int, format PixelFormat, get func(sample.Sample) float32) {
	total := row.TotalSamples()
	values := make([]float32, 0, total)
	for x := 0; x < width; x++ {
		for _, s := range row.PixelData(x) {
			values = append(values, get(s))
		}
	}

	if format == Half {
		bytes := make([]byte, len(values)*2)
		half.ConvertFloat32ToBytes(bytes, values)
		w.WriteBytes(bytes)
		return
	}
	for _, v := range values {
		w.WriteFloat32(v)
	}
}

// decodePixelData reverses encodePixelData into dst, which must
// already be allocated (via Allocate/AllocateCapacity with the
// correct counts) to exactly the row's total sample count.
func decodePixelData(compressed []byte, rawLen, width int, format PixelFormat, dst *rowbuffer.RowBuffer) error {
	raw, err := decompressBlock(compressed, rawLen)
	if err != nil {
		return err
	}
	r := xdr.NewReader(raw)

	total := dst.TotalSamples()
	zfront := make([]float64, total)
	zback := make([]float64, total)
	colors := make([][4]float32, total)

	if err := readFloat64Channel(r, zfront); err != nil {
		return err
	}
	if err := readFloat64Channel(r, zback); err != nil {
		return err
	}
	for c := 0; c < 4; c++ {
		if err := readColorChannel(r, colors, c, format); err != nil {
			return err
		}
	}

	i := 0
	for x := 0; x < width; x++ {
		data := dst.PixelData(x)
		for j := range data {
			data[j] = sample.Sample{
				ZFront: zfront[i],
				ZBack:  zback[i],
				R:      colors[i][0],
				G:      colors[i][1],
				B:      colors[i][2],
				A:      colors[i][3],
			}
			i++
		}
	}
	return nil
}

func readFloat64Channel(r *xdr.Reader, dst []float64) error {
	for i := range dst {
		v, err := r.ReadFloat32()
		if err != nil {
			return err
		}
		dst[i] = float64(v)
	}
	return nil
}

// readColorChannel reverses writeColorChannel: for half-precision rows
// it pulls the channel's raw bytes and batch-decodes them in one pass
// via half.ConvertBytesToFloat32, rather than converting sample by
// sample.
func readColorChannel(r *xdr.Reader, dst [][4]float32, channel int, format PixelFormat) error {
	n := len(dst)
	if format == Half {
		raw, err := r.ReadBytes(n * 2)
		if err != nil {
			return err
		}
		values := make([]float32, n)
		half.ConvertBytesToFloat32(values, raw)
		for i, v := range values {
			dst[i][channel] = v
		}
		return nil
	}
	for i := range dst {
		v, err := r.ReadFloat32()
		if err != nil {
			return err
		}
		dst[i][channel] = v
	}
	return nil
}

// compressBlock applies the predictor/interleave/zlib chain the
// teacher's DeepScanlineWriter.compressData uses for ZIP-compressed
// chunks, in the same order: horizontal differencing first so the
// compressor sees small deltas, then byte-plane interleaving (the
// batched pure-Go path for chunks large enough to benefit) so bytes
// at the same position within a value sit together, then zlib.
func compressBlock(raw []byte) (compressed []byte, rawLen int, err error) {
	rawLen = len(raw)
	if rawLen == 0 {
		return nil, 0, nil
	}
	encoded := make([]byte, rawLen)
	copy(encoded, raw)
	predictor.EncodeSIMD(encoded)
	interleaved := compression.InterleaveFast(encoded)
	compressed, err = compression.ZIPCompress(interleaved)
	return compressed, rawLen, err
}

func decompressBlock(compressed []byte, rawLen int) ([]byte, error) {
	if rawLen == 0 {
		return nil, nil
	}
	interleaved, err := compression.ZIPDecompress(compressed, rawLen)
	if err != nil {
		return nil, err
	}
	decoded := compression.DeinterleaveFast(interleaved)
	predictor.DecodeSIMD(decoded)
	return decoded, nil
}
