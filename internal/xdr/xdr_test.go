package xdr

import (
	"bytes"
	"io"
	"math"
	"testing"
)

func TestReaderIntegersAndFloats(t *testing.T) {
	buf := make([]byte, 8)
	ByteOrder.PutUint32(buf[0:4], 0x12345678)
	ByteOrder.PutUint32(buf[4:8], math.Float32bits(3.14))

	r := NewReader(buf)

	u32, err := r.ReadUint32()
	if err != nil {
		t.Fatalf("ReadUint32() error = %v", err)
	}
	if u32 != 0x12345678 {
		t.Errorf("ReadUint32() = 0x%08X, want 0x12345678", u32)
	}

	f32, err := r.ReadFloat32()
	if err != nil {
		t.Fatalf("ReadFloat32() error = %v", err)
	}
	if f32 != 3.14 {
		t.Errorf("ReadFloat32() = %v, want 3.14", f32)
	}
}

func TestReaderBytes(t *testing.T) {
	data := []byte{1, 2, 3, 4, 5}
	r := NewReader(data)

	b, err := r.ReadBytes(3)
	if err != nil {
		t.Fatalf("ReadBytes() error = %v", err)
	}
	if !bytes.Equal(b, []byte{1, 2, 3}) {
		t.Errorf("ReadBytes(3) = %v, want [1 2 3]", b)
	}

	rest, err := r.ReadBytes(2)
	if err != nil {
		t.Fatalf("ReadBytes() error = %v", err)
	}
	if !bytes.Equal(rest, []byte{4, 5}) {
		t.Errorf("ReadBytes(2) = %v, want [4 5]", rest)
	}
}

func TestReaderErrors(t *testing.T) {
	r := NewReader([]byte{1, 2})

	if _, err := r.ReadUint32(); err != ErrShortBuffer {
		t.Errorf("ReadUint32() error = %v, want ErrShortBuffer", err)
	}

	if _, err := r.ReadBytes(-1); err != ErrNegativeSize {
		t.Errorf("ReadBytes(-1) error = %v, want ErrNegativeSize", err)
	}

	if _, err := r.ReadBytes(10); err != ErrShortBuffer {
		t.Errorf("ReadBytes(10) error = %v, want ErrShortBuffer", err)
	}
}

func TestBufferWriter(t *testing.T) {
	w := NewBufferWriter(16)

	w.WriteUint32(0x12345678)
	w.WriteFloat32(3.14)
	w.WriteBytes([]byte{0xaa, 0xbb})

	if len(w.Bytes()) != 4+4+2 {
		t.Errorf("len(Bytes()) = %d, want 10", len(w.Bytes()))
	}

	r := NewReader(w.Bytes())
	u32, _ := r.ReadUint32()
	if u32 != 0x12345678 {
		t.Errorf("ReadUint32() = 0x%08X, want 0x12345678", u32)
	}
	f32, _ := r.ReadFloat32()
	if f32 != 3.14 {
		t.Errorf("ReadFloat32() = %v, want 3.14", f32)
	}
	tail, _ := r.ReadBytes(2)
	if !bytes.Equal(tail, []byte{0xaa, 0xbb}) {
		t.Errorf("ReadBytes() = %v, want [0xaa 0xbb]", tail)
	}
}

func TestStreamReaderAndWriter(t *testing.T) {
	var buf bytes.Buffer
	w := NewStreamWriter(&buf)

	if err := w.WriteUint32(0x12345678); err != nil {
		t.Fatalf("WriteUint32() error = %v", err)
	}
	if err := w.WriteUint16(0x1234); err != nil {
		t.Fatalf("WriteUint16() error = %v", err)
	}
	if err := w.WriteUint8(0x42); err != nil {
		t.Fatalf("WriteUint8() error = %v", err)
	}
	if err := w.WriteBytes([]byte{1, 2, 3}); err != nil {
		t.Fatalf("WriteBytes() error = %v", err)
	}

	r := NewStreamReader(bytes.NewReader(buf.Bytes()))

	u32, err := r.ReadUint32()
	if err != nil {
		t.Fatalf("ReadUint32() error = %v", err)
	}
	if u32 != 0x12345678 {
		t.Errorf("ReadUint32() = 0x%08X, want 0x12345678", u32)
	}

	u16, err := r.ReadUint16()
	if err != nil {
		t.Fatalf("ReadUint16() error = %v", err)
	}
	if u16 != 0x1234 {
		t.Errorf("ReadUint16() = 0x%04X, want 0x1234", u16)
	}

	u8, err := r.ReadUint8()
	if err != nil {
		t.Fatalf("ReadUint8() error = %v", err)
	}
	if u8 != 0x42 {
		t.Errorf("ReadUint8() = 0x%02X, want 0x42", u8)
	}

	tail, err := r.ReadBytes(3)
	if err != nil {
		t.Fatalf("ReadBytes() error = %v", err)
	}
	if !bytes.Equal(tail, []byte{1, 2, 3}) {
		t.Errorf("ReadBytes() = %v, want [1 2 3]", tail)
	}
}

func TestStreamReaderShortRead(t *testing.T) {
	r := NewStreamReader(bytes.NewReader([]byte{0x01}))
	if _, err := r.ReadUint32(); err != io.ErrUnexpectedEOF {
		t.Errorf("ReadUint32() error = %v, want io.ErrUnexpectedEOF", err)
	}
}

func TestStreamReaderEOF(t *testing.T) {
	r := NewStreamReader(bytes.NewReader(nil))
	if _, err := r.ReadByte(); err != io.EOF {
		t.Errorf("ReadByte() error = %v, want EOF", err)
	}
}

func BenchmarkReaderUint32(b *testing.B) {
	data := make([]byte, 4*b.N)
	r := NewReader(data)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		r.ReadUint32()
	}
}

func BenchmarkBufferWriterUint32(b *testing.B) {
	w := NewBufferWriter(4 * b.N)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		w.WriteUint32(uint32(i))
	}
}

func BenchmarkStreamReaderUint32(b *testing.B) {
	data := make([]byte, 4*b.N)
	r := NewStreamReader(bytes.NewReader(data))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		r.ReadUint32()
	}
}

func BenchmarkStreamWriterUint32(b *testing.B) {
	var buf bytes.Buffer
	buf.Grow(4 * b.N)
	w := NewStreamWriter(&buf)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		w.WriteUint32(uint32(i))
	}
}
