package deepexr

import (
	"fmt"
	"io"

	"github.com/mrjoshuak/deepmerge/internal/xdr"
	"github.com/mrjoshuak/deepmerge/rowbuffer"
)

// Writer persists a deep image to an io.Writer one scanline at a
// time, in strictly ascending y order, mirroring a
// DeepScanlineWriter but keyed to sample.Sample rows instead of
// per-channel deep slices.
type Writer struct {
	header
	w      *xdr.StreamWriter
	nextY  int
}

// NewWriter writes the file header immediately and returns a Writer
// ready to accept rows via WriteRow.
func NewWriter(w io.Writer, width, height int, format PixelFormat) (*Writer, error) {
	if format != Float32 && format != Half {
		return nil, ErrBadPixelFormat
	}
	sw := xdr.NewStreamWriter(w)
	if err := writeHeader(sw, header{Width: width, Height: height, Format: format}); err != nil {
		return nil, err
	}
	return &Writer{header: header{Width: width, Height: height, Format: format}, w: sw}, nil
}

func writeHeader(w *xdr.StreamWriter, h header) error {
	if err := w.WriteUint32(magic); err != nil {
		return err
	}
	if err := w.WriteUint16(formatVersion); err != nil {
		return err
	}
	if err := w.WriteUint32(uint32(h.Width)); err != nil {
		return err
	}
	if err := w.WriteUint32(uint32(h.Height)); err != nil {
		return err
	}
	return w.WriteUint8(uint8(h.Format))
}

// WriteRow writes row as scanline y. Rows must be written in strictly
// ascending order starting from 0, matching the pipeline's writer
// goroutine, which calls this once per row in that order.
func (wr *Writer) WriteRow(y int, row *rowbuffer.RowBuffer) error {
	if y != wr.nextY {
		return ErrOutOfOrder
	}
	if row.Width() != wr.Width {
		return fmt.Errorf("deepexr: row width %d does not match image width %d", row.Width(), wr.Width)
	}

	countsCompressed, countsRawLen, err := encodeCounts(row, wr.Width)
	if err != nil {
		return fmt.Errorf("deepexr: compress counts for row %d: %w", y, err)
	}
	dataCompressed, dataRawLen, err := encodePixelData(row, wr.Width, wr.Format)
	if err != nil {
		return fmt.Errorf("deepexr: compress pixel data for row %d: %w", y, err)
	}

	if err := wr.writeChunk(y, countsCompressed, countsRawLen, dataCompressed, dataRawLen); err != nil {
		return fmt.Errorf("deepexr: write chunk for row %d: %w", y, err)
	}
	wr.nextY++
	return nil
}

func (wr *Writer) writeChunk(y int, counts []byte, countsRawLen int, data []byte, dataRawLen int) error {
	w := wr.w
	if err := w.WriteUint32(uint32(y)); err != nil {
		return err
	}
	if err := w.WriteUint32(uint32(countsRawLen)); err != nil {
		return err
	}
	if err := w.WriteUint32(uint32(len(counts))); err != nil {
		return err
	}
	if err := w.WriteUint32(uint32(dataRawLen)); err != nil {
		return err
	}
	if err := w.WriteUint32(uint32(len(data))); err != nil {
		return err
	}
	if err := w.WriteBytes(counts); err != nil {
		return err
	}
	return w.WriteBytes(data)
}

// Close reports an error if fewer than Height rows were written; it
// performs no I/O of its own since the underlying writer is owned by
// the caller.
func (wr *Writer) Close() error {
	if wr.nextY != wr.Height {
		return fmt.Errorf("deepexr: wrote %d of %d rows", wr.nextY, wr.Height)
	}
	return nil
}
