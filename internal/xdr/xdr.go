// Package xdr provides little-endian binary encoding and decoding for
// deepexr's on-disk deep scanline format: header fields, per-row chunk
// framing, and the float32/half sample payloads within each chunk.
//
// Reader and BufferWriter operate on an in-memory byte slice (used for
// a chunk's predictor/interleave/zlib-encoded payload, which is built
// up or consumed as a whole before compression). StreamReader and
// StreamWriter wrap an io.Reader/io.Writer directly, for the
// sequential header and chunk-framing fields that surround each
// payload on disk.
package xdr

import (
	"encoding/binary"
	"errors"
	"io"
	"math"
)

var (
	// ErrShortBuffer is returned when a read operation cannot complete
	// because there isn't enough data left in the buffer.
	ErrShortBuffer = errors.New("xdr: buffer too short")

	// ErrNegativeSize is returned when a size parameter is negative.
	ErrNegativeSize = errors.New("xdr: negative size")
)

// ByteOrder is the byte order used throughout the deepexr file format.
var ByteOrder = binary.LittleEndian

// Reader provides bounds-checked little-endian reading from a byte
// slice already held in memory, such as a decompressed chunk payload.
type Reader struct {
	data []byte
	pos  int
}

// NewReader creates a Reader over data.
func NewReader(data []byte) *Reader {
	return &Reader{data: data, pos: 0}
}

// ReadBytes reads n bytes into a new slice.
func (r *Reader) ReadBytes(n int) ([]byte, error) {
	if n < 0 {
		return nil, ErrNegativeSize
	}
	if r.pos+n > len(r.data) {
		return nil, ErrShortBuffer
	}
	result := make([]byte, n)
	copy(result, r.data[r.pos:r.pos+n])
	r.pos += n
	return result, nil
}

// ReadUint32 reads an unsigned 32-bit integer in little-endian order.
func (r *Reader) ReadUint32() (uint32, error) {
	if r.pos+4 > len(r.data) {
		return 0, ErrShortBuffer
	}
	v := ByteOrder.Uint32(r.data[r.pos:])
	r.pos += 4
	return v, nil
}

// ReadFloat32 reads a 32-bit IEEE 754 floating-point number.
func (r *Reader) ReadFloat32() (float32, error) {
	v, err := r.ReadUint32()
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(v), nil
}

// BufferWriter is a growing buffer for little-endian writes, used to
// assemble a chunk's payload before it is handed to the compression
// chain.
type BufferWriter struct {
	buf []byte
}

// NewBufferWriter creates a BufferWriter with an initial capacity.
func NewBufferWriter(capacity int) *BufferWriter {
	return &BufferWriter{buf: make([]byte, 0, capacity)}
}

// Bytes returns the written data. The returned slice is valid until
// the next write.
func (w *BufferWriter) Bytes() []byte {
	return w.buf
}

// WriteBytes appends a byte slice.
func (w *BufferWriter) WriteBytes(b []byte) {
	w.buf = append(w.buf, b...)
}

// WriteUint32 appends an unsigned 32-bit integer in little-endian order.
func (w *BufferWriter) WriteUint32(v uint32) {
	w.buf = append(w.buf, byte(v), byte(v>>8), byte(v>>16), byte(v>>24))
}

// WriteFloat32 appends a 32-bit IEEE 754 floating-point number.
func (w *BufferWriter) WriteFloat32(v float32) {
	w.WriteUint32(math.Float32bits(v))
}

// StreamReader wraps an io.Reader for sequential little-endian reads
// of the header and chunk-framing fields that surround each row's
// compressed payload.
type StreamReader struct {
	r   io.Reader
	buf [4]byte
}

// NewStreamReader creates a StreamReader from an io.Reader.
func NewStreamReader(r io.Reader) *StreamReader {
	return &StreamReader{r: r}
}

// ReadByte reads a single byte.
func (r *StreamReader) ReadByte() (byte, error) {
	_, err := io.ReadFull(r.r, r.buf[:1])
	return r.buf[0], err
}

// ReadBytes reads n bytes into a new slice.
func (r *StreamReader) ReadBytes(n int) ([]byte, error) {
	if n < 0 {
		return nil, ErrNegativeSize
	}
	result := make([]byte, n)
	_, err := io.ReadFull(r.r, result)
	return result, err
}

// ReadUint8 reads an unsigned 8-bit integer.
func (r *StreamReader) ReadUint8() (uint8, error) {
	return r.ReadByte()
}

// ReadUint16 reads an unsigned 16-bit integer in little-endian order.
func (r *StreamReader) ReadUint16() (uint16, error) {
	_, err := io.ReadFull(r.r, r.buf[:2])
	if err != nil {
		return 0, err
	}
	return ByteOrder.Uint16(r.buf[:2]), nil
}

// ReadUint32 reads an unsigned 32-bit integer in little-endian order.
func (r *StreamReader) ReadUint32() (uint32, error) {
	_, err := io.ReadFull(r.r, r.buf[:4])
	if err != nil {
		return 0, err
	}
	return ByteOrder.Uint32(r.buf[:4]), nil
}

// StreamWriter wraps an io.Writer for sequential little-endian writes.
type StreamWriter struct {
	w   io.Writer
	buf [4]byte
}

// NewStreamWriter creates a StreamWriter from an io.Writer.
func NewStreamWriter(w io.Writer) *StreamWriter {
	return &StreamWriter{w: w}
}

// WriteByte writes a single byte.
func (w *StreamWriter) WriteByte(b byte) error {
	w.buf[0] = b
	_, err := w.w.Write(w.buf[:1])
	return err
}

// WriteBytes writes a byte slice.
func (w *StreamWriter) WriteBytes(b []byte) error {
	_, err := w.w.Write(b)
	return err
}

// WriteUint8 writes an unsigned 8-bit integer.
func (w *StreamWriter) WriteUint8(v uint8) error {
	return w.WriteByte(v)
}

// WriteUint16 writes an unsigned 16-bit integer in little-endian order.
func (w *StreamWriter) WriteUint16(v uint16) error {
	ByteOrder.PutUint16(w.buf[:2], v)
	_, err := w.w.Write(w.buf[:2])
	return err
}

// WriteUint32 writes an unsigned 32-bit integer in little-endian order.
func (w *StreamWriter) WriteUint32(v uint32) error {
	ByteOrder.PutUint32(w.buf[:4], v)
	_, err := w.w.Write(w.buf[:4])
	return err
}
