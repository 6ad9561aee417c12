package deepexr

import (
	"fmt"
	"io"

	"github.com/mrjoshuak/deepmerge/internal/xdr"
	"github.com/mrjoshuak/deepmerge/rowbuffer"
)

// Reader reads a deep image written by Writer, implementing
// source.Source so it can be fed directly into pipeline.Run alongside
// in-memory or generated sources.
type Reader struct {
	header
	r    *xdr.StreamReader
	rows []rowChunk
}

type rowChunk struct {
	counts               []int32
	dataCompressed        []byte
	dataRawLen            int
}

// NewReader reads and validates the file header from r, then eagerly
// reads every scanline's framing off the stream: the per-pixel count
// table (decompressed immediately, so Width, Height, and
// SampleCounts are available right away) and the compressed pixel
// data bytes (kept compressed until ReadRow decodes a given row). r
// is a forward-only stream, so every chunk must be consumed during
// construction; ReadRow itself can then be called in any order.
func NewReader(r io.Reader) (*Reader, error) {
	sr := xdr.NewStreamReader(r)
	h, err := readHeader(sr)
	if err != nil {
		return nil, err
	}

	rd := &Reader{header: h, r: sr}
	rd.rows = make([]rowChunk, h.Height)
	for y := 0; y < h.Height; y++ {
		chunk, counts, err := rd.readChunkHeader(y)
		if err != nil {
			return nil, fmt.Errorf("deepexr: reading chunk %d: %w", y, err)
		}
		chunk.counts = counts
		rd.rows[y] = chunk
	}
	return rd, nil
}

func readHeader(r *xdr.StreamReader) (header, error) {
	m, err := r.ReadUint32()
	if err != nil {
		return header{}, err
	}
	if m != magic {
		return header{}, ErrBadMagic
	}
	version, err := r.ReadUint16()
	if err != nil {
		return header{}, err
	}
	if version != formatVersion {
		return header{}, ErrUnsupportedVersion
	}
	width, err := r.ReadUint32()
	if err != nil {
		return header{}, err
	}
	height, err := r.ReadUint32()
	if err != nil {
		return header{}, err
	}
	formatByte, err := r.ReadUint8()
	if err != nil {
		return header{}, err
	}
	format := PixelFormat(formatByte)
	if format != Float32 && format != Half {
		return header{}, ErrBadPixelFormat
	}
	return header{Width: int(width), Height: int(height), Format: format}, nil
}

// readChunkHeader reads one full chunk (row y's framing plus its
// counts table, decompressed, and its compressed pixel data bytes
// kept as-is) off the stream; the stream is sequential, so this must
// be called in ascending y order exactly once per row.
func (rd *Reader) readChunkHeader(expectedY int) (rowChunk, []int32, error) {
	y, err := rd.r.ReadUint32()
	if err != nil {
		return rowChunk{}, nil, err
	}
	if int(y) != expectedY {
		return rowChunk{}, nil, ErrOutOfOrder
	}
	countsRawLen, err := rd.r.ReadUint32()
	if err != nil {
		return rowChunk{}, nil, err
	}
	countsCompressedLen, err := rd.r.ReadUint32()
	if err != nil {
		return rowChunk{}, nil, err
	}
	dataRawLen, err := rd.r.ReadUint32()
	if err != nil {
		return rowChunk{}, nil, err
	}
	dataCompressedLen, err := rd.r.ReadUint32()
	if err != nil {
		return rowChunk{}, nil, err
	}

	countsCompressed, err := rd.r.ReadBytes(int(countsCompressedLen))
	if err != nil {
		return rowChunk{}, nil, err
	}
	dataCompressed, err := rd.r.ReadBytes(int(dataCompressedLen))
	if err != nil {
		return rowChunk{}, nil, err
	}

	counts, err := decodeCounts(countsCompressed, int(countsRawLen), rd.Width)
	if err != nil {
		return rowChunk{}, nil, err
	}

	return rowChunk{dataCompressed: dataCompressed, dataRawLen: int(dataRawLen)}, counts, nil
}

// Width implements source.Source.
func (rd *Reader) Width() int { return rd.header.Width }

// Height implements source.Source.
func (rd *Reader) Height() int { return rd.header.Height }

// SampleCounts implements source.Source.
func (rd *Reader) SampleCounts(y int) []int32 {
	return rd.rows[y].counts
}

// ReadRow implements source.Source. Every chunk was already read off
// the underlying stream by NewReader, so rows may be decoded in any
// order; the pipeline loader happens to ask for them in ascending y.
func (rd *Reader) ReadRow(y int, dst *rowbuffer.RowBuffer) error {
	chunk := rd.rows[y]
	if err := dst.Allocate(chunk.counts); err != nil {
		return err
	}
	if err := decodePixelData(chunk.dataCompressed, chunk.dataRawLen, rd.Width, rd.Format, dst); err != nil {
		return fmt.Errorf("deepexr: decode pixel data for row %d: %w", y, err)
	}
	return nil
}
