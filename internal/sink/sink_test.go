package sink

import (
	"bytes"
	"encoding/binary"
	"math"
	"testing"
)

func TestCF32Writer_Interleaving(t *testing.T) {
	var buf bytes.Buffer
	s := NewCF32Writer(&buf)

	samples := []complex128{3 + 1i, -1 - 3i, 0}
	if err := s.Write(samples); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	raw := buf.Bytes()
	if len(raw) != len(samples)*8 {
		t.Fatalf("wrote %d bytes, want %d", len(raw), len(samples)*8)
	}
	for i, v := range samples {
		re := math.Float32frombits(binary.LittleEndian.Uint32(raw[i*8:]))
		im := math.Float32frombits(binary.LittleEndian.Uint32(raw[i*8+4:]))
		if re != float32(real(v)) || im != float32(imag(v)) {
			t.Errorf("sample %d = (%v, %v), want %v", i, re, im, v)
		}
	}
}

func TestFunnel_FansOut(t *testing.T) {
	var a, b Counter
	f := NewFunnel(&a, &b)

	if err := f.Write([]complex128{1 + 1i, 2 - 2i}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if a.Count() != 2 || b.Count() != 2 {
		t.Errorf("counts = %d, %d, want 2, 2", a.Count(), b.Count())
	}
}

func TestCounter_Power(t *testing.T) {
	var c Counter
	c.Write([]complex128{3 + 4i, 0})
	if c.Count() != 2 {
		t.Errorf("Count() = %d, want 2", c.Count())
	}
	if got := c.AvgPower(); math.Abs(got-12.5) > 1e-12 {
		t.Errorf("AvgPower() = %v, want 12.5", got)
	}
}

func TestCounter_Empty(t *testing.T) {
	var c Counter
	if c.AvgPower() != 0 {
		t.Errorf("AvgPower() on empty counter = %v, want 0", c.AvgPower())
	}
}
