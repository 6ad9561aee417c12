package compression

import (
	"bytes"
	"math/rand"
	"testing"
)

func TestInterleaveFastRoundTrip(t *testing.T) {
	sizes := []int{16, 32, 33, 64, 100, 256, 1000}
	r := rand.New(rand.NewSource(42))

	for _, size := range sizes {
		t.Run("", func(t *testing.T) {
			original := make([]byte, size)
			r.Read(original)

			interleaved := InterleaveFast(original)
			restored := DeinterleaveFast(interleaved)

			if !bytes.Equal(original, restored) {
				t.Errorf("round trip failed for size %d", size)
			}
		})
	}
}

func TestInterleaveFastMatchesInterleave(t *testing.T) {
	sizes := []int{8, 16, 32, 33, 64, 100}
	r := rand.New(rand.NewSource(42))

	for _, size := range sizes {
		t.Run("", func(t *testing.T) {
			original := make([]byte, size)
			r.Read(original)

			expected := Interleave(original)
			got := InterleaveFast(original)

			if !bytes.Equal(expected, got) {
				t.Errorf("InterleaveFast mismatch for size %d:\nexpected: %v\ngot:      %v",
					size, expected, got)
			}
		})
	}
}

func TestDeinterleaveFastMatchesDeinterleave(t *testing.T) {
	sizes := []int{8, 16, 32, 33, 64, 100}
	r := rand.New(rand.NewSource(42))

	for _, size := range sizes {
		t.Run("", func(t *testing.T) {
			original := make([]byte, size)
			r.Read(original)

			expected := Deinterleave(original)
			got := DeinterleaveFast(original)

			if !bytes.Equal(expected, got) {
				t.Errorf("DeinterleaveFast mismatch for size %d:\nexpected: %v\ngot:      %v",
					size, expected, got)
			}
		})
	}
}

func BenchmarkInterleaveFast(b *testing.B) {
	r := rand.New(rand.NewSource(42))
	data := make([]byte, 4096)
	r.Read(data)

	b.ResetTimer()
	b.SetBytes(int64(len(data)))
	for i := 0; i < b.N; i++ {
		InterleaveFast(data)
	}
}

func BenchmarkDeinterleaveFast(b *testing.B) {
	r := rand.New(rand.NewSource(42))
	data := make([]byte, 4096)
	r.Read(data)

	b.ResetTimer()
	b.SetBytes(int64(len(data)))
	for i := 0; i < b.N; i++ {
		DeinterleaveFast(data)
	}
}
