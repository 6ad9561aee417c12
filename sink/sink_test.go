package sink

import (
	"bytes"
	"testing"
)

func TestMemoryCapturesBuffer(t *testing.T) {
	m := NewMemory(1, 1)
	buf := []float32{0.1, 0.2, 0.3, 1}
	if err := m.WriteRGBA(buf); err != nil {
		t.Fatalf("WriteRGBA: %v", err)
	}
	if len(m.Buf) != 4 || m.Buf[0] != 0.1 {
		t.Errorf("Buf = %v, want %v", m.Buf, buf)
	}
}

func TestMemoryRejectsWrongLength(t *testing.T) {
	m := NewMemory(2, 2)
	if err := m.WriteRGBA([]float32{0, 0, 0, 0}); err == nil {
		t.Error("expected error for mismatched buffer length")
	}
}

func TestPPMWritesValidHeaderAndClamps(t *testing.T) {
	var buf bytes.Buffer
	p := NewPPM(&buf, 1, 1, 1.0) // gamma 1.0: linear, for exact round trip
	if err := p.WriteRGBA([]float32{2.0, 0.5, -1.0, 1}); err != nil {
		t.Fatalf("WriteRGBA: %v", err)
	}

	out := buf.Bytes()
	header := "P6\n1 1\n255\n"
	if string(out[:len(header)]) != header {
		t.Fatalf("header = %q, want %q", out[:len(header)], header)
	}
	pixel := out[len(header):]
	if len(pixel) != 3 {
		t.Fatalf("pixel bytes = %d, want 3", len(pixel))
	}
	if pixel[0] != 255 { // clamped from 2.0
		t.Errorf("R = %d, want 255 (clamped)", pixel[0])
	}
	if pixel[2] != 0 { // clamped from -1.0
		t.Errorf("B = %d, want 0 (clamped)", pixel[2])
	}
	if pixel[1] < 126 || pixel[1] > 129 { // 0.5 * 255 ~= 127.5
		t.Errorf("G = %d, want ~128", pixel[1])
	}
}
