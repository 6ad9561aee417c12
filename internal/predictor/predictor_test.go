package predictor

import (
	"bytes"
	"math/rand"
	"testing"
)

func TestEncodeDecodeEmpty(t *testing.T) {
	data := []byte{}
	EncodeSIMD(data)
	if len(data) != 0 {
		t.Error("empty slice should remain empty")
	}

	data = []byte{42}
	EncodeSIMD(data)
	if data[0] != 42 {
		t.Errorf("single byte = %d, want 42", data[0])
	}
	DecodeSIMD(data)
	if data[0] != 42 {
		t.Errorf("single byte after decode = %d, want 42", data[0])
	}
}

func TestEncodeSIMDConstant(t *testing.T) {
	data := []byte{5, 5, 5, 5}
	EncodeSIMD(data)
	expected := []byte{5, 0, 0, 0}
	if !bytes.Equal(data, expected) {
		t.Errorf("EncodeSIMD constant = %v, want %v", data, expected)
	}
}

func TestDecodeSIMDConstant(t *testing.T) {
	data := []byte{5, 0, 0, 0}
	DecodeSIMD(data)
	expected := []byte{5, 5, 5, 5}
	if !bytes.Equal(data, expected) {
		t.Errorf("DecodeSIMD constant = %v, want %v", data, expected)
	}
}

func TestEncodeSIMDIncreasing(t *testing.T) {
	data := []byte{10, 11, 12, 13, 14}
	EncodeSIMD(data)
	expected := []byte{10, 1, 1, 1, 1}
	if !bytes.Equal(data, expected) {
		t.Errorf("EncodeSIMD increasing = %v, want %v", data, expected)
	}
}

func TestRoundTripSizes(t *testing.T) {
	// Cover the unrolled-loop boundary (multiples of 8 and off by one
	// in both directions) plus a handful of larger, random chunks.
	r := rand.New(rand.NewSource(42))
	sizes := []int{0, 1, 2, 7, 8, 9, 15, 16, 17, 31, 32, 33, 100, 256, 4096}
	for _, size := range sizes {
		t.Run("", func(t *testing.T) {
			original := make([]byte, size)
			r.Read(original)

			data := make([]byte, size)
			copy(data, original)

			EncodeSIMD(data)
			DecodeSIMD(data)

			if !bytes.Equal(data, original) {
				t.Errorf("round-trip failed for size %d:\ngot  %v\nwant %v", size, data, original)
			}
		})
	}
}

func TestEncodeSIMDUnderflow(t *testing.T) {
	// Differences use unsigned byte arithmetic, so a decreasing
	// sequence should wrap rather than go negative.
	data := []byte{10, 5, 2}
	EncodeSIMD(data)
	expected := []byte{10, 251, 253}
	if !bytes.Equal(data, expected) {
		t.Errorf("EncodeSIMD underflow = %v, want %v", data, expected)
	}

	DecodeSIMD(data)
	if data[0] != 10 || data[1] != 5 || data[2] != 2 {
		t.Errorf("DecodeSIMD after underflow = %v, want [10, 5, 2]", data)
	}
}

func BenchmarkEncodeSIMD(b *testing.B) {
	// Roughly one scanline's worth of depth+color samples.
	data := make([]byte, 1920*6*4)
	for i := range data {
		data[i] = byte(i)
	}

	b.ResetTimer()
	b.SetBytes(int64(len(data)))
	for i := 0; i < b.N; i++ {
		EncodeSIMD(data)
	}
}

func BenchmarkDecodeSIMD(b *testing.B) {
	data := make([]byte, 1920*6*4)
	for i := range data {
		data[i] = byte(i)
	}

	b.ResetTimer()
	b.SetBytes(int64(len(data)))
	for i := 0; i < b.N; i++ {
		DecodeSIMD(data)
	}
}
