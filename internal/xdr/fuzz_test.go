package xdr

import (
	"bytes"
	"testing"
)

// FuzzReaderReadUint32 exercises the bounds checking on Reader.ReadUint32
// with arbitrary-length buffers.
func FuzzReaderReadUint32(f *testing.F) {
	f.Add([]byte{0x00, 0x00, 0x00, 0x00})
	f.Add([]byte{0xff, 0xff, 0xff, 0xff})
	f.Add([]byte{})
	f.Add([]byte{0x01, 0x02})

	f.Fuzz(func(t *testing.T, data []byte) {
		r := NewReader(data)
		_, _ = r.ReadUint32()
		_, _ = r.ReadFloat32()
	})
}

// FuzzReaderReadBytes tests byte slice reading with adversarial lengths.
func FuzzReaderReadBytes(f *testing.F) {
	f.Add([]byte{}, 0)
	f.Add([]byte{0x01, 0x02, 0x03}, 2)
	f.Add([]byte{0x01, 0x02, 0x03}, 100) // more than available
	f.Add(bytes.Repeat([]byte{0xaa}, 1000), 500)

	f.Fuzz(func(t *testing.T, data []byte, n int) {
		if n < -1 {
			n = -1
		}
		if n > 1000000 {
			n = 1000000 // bound allocation
		}
		r := NewReader(data)
		_, _ = r.ReadBytes(n)
	})
}

// FuzzBufferWriterRoundtrip writes arbitrary values through BufferWriter
// and checks they read back unchanged via Reader.
func FuzzBufferWriterRoundtrip(f *testing.F) {
	f.Add(uint32(0), float32(0))
	f.Add(uint32(0xffffffff), float32(1.5))
	f.Add(uint32(0x7fffffff), float32(-2.5))

	f.Fuzz(func(t *testing.T, u32 uint32, f32 float32) {
		w := NewBufferWriter(16)
		w.WriteUint32(u32)
		w.WriteFloat32(f32)

		r := NewReader(w.Bytes())
		ru32, err := r.ReadUint32()
		if err != nil {
			t.Fatalf("ReadUint32() error = %v", err)
		}
		if ru32 != u32 {
			t.Errorf("uint32 mismatch: got %d, want %d", ru32, u32)
		}

		rf32, err := r.ReadFloat32()
		if err != nil {
			t.Fatalf("ReadFloat32() error = %v", err)
		}
		if rf32 != f32 && !(rf32 != rf32 && f32 != f32) { // NaN != NaN
			t.Errorf("float32 mismatch: got %v, want %v", rf32, f32)
		}
	})
}

// FuzzStreamReaderWriterRoundtrip exercises the streaming variants the
// same way, over an in-memory bytes.Buffer.
func FuzzStreamReaderWriterRoundtrip(f *testing.F) {
	f.Add(uint32(0x12345678), uint16(0x1234), uint8(0x42))

	f.Fuzz(func(t *testing.T, u32 uint32, u16 uint16, u8 uint8) {
		var buf bytes.Buffer
		w := NewStreamWriter(&buf)
		if err := w.WriteUint32(u32); err != nil {
			t.Fatalf("WriteUint32() error = %v", err)
		}
		if err := w.WriteUint16(u16); err != nil {
			t.Fatalf("WriteUint16() error = %v", err)
		}
		if err := w.WriteUint8(u8); err != nil {
			t.Fatalf("WriteUint8() error = %v", err)
		}

		r := NewStreamReader(bytes.NewReader(buf.Bytes()))
		ru32, err := r.ReadUint32()
		if err != nil || ru32 != u32 {
			t.Errorf("uint32 mismatch: got %d, %v, want %d", ru32, err, u32)
		}
		ru16, err := r.ReadUint16()
		if err != nil || ru16 != u16 {
			t.Errorf("uint16 mismatch: got %d, %v, want %d", ru16, err, u16)
		}
		ru8, err := r.ReadUint8()
		if err != nil || ru8 != u8 {
			t.Errorf("uint8 mismatch: got %d, %v, want %d", ru8, err, u8)
		}
	})
}
