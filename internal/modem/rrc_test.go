package modem

import (
	"errors"
	"math"
	"math/rand"
	"testing"
)

func TestRRCKernel_Invalid(t *testing.T) {
	tests := []struct {
		name string
		sps  int
		beta float64
		span int
	}{
		{"zero sps", 0, 0.35, 6},
		{"negative sps", -2, 0.35, 6},
		{"zero beta", 2, 0, 6},
		{"beta above one", 2, 1.5, 6},
		{"negative span", 2, 0.35, -1},
	}
	for _, tt := range tests {
		if _, err := NewRRCKernel(tt.sps, tt.beta, tt.span); !errors.Is(err, ErrConfig) {
			t.Errorf("%s: error %v does not wrap ErrConfig", tt.name, err)
		}
	}
}

func TestRRCKernel_Shape(t *testing.T) {
	k, err := NewRRCKernel(4, 0.35, 8)
	if err != nil {
		t.Fatalf("NewRRCKernel: %v", err)
	}
	taps := k.Taps()

	if len(taps) != 8*4+1 {
		t.Fatalf("Len = %d, want %d", len(taps), 8*4+1)
	}
	if k.GroupDelay() != (len(taps)-1)/2 {
		t.Errorf("GroupDelay = %d, want %d", k.GroupDelay(), (len(taps)-1)/2)
	}

	// Symmetric FIR.
	for i := 0; i < len(taps)/2; i++ {
		if math.Abs(taps[i]-taps[len(taps)-1-i]) > 1e-12 {
			t.Errorf("taps not symmetric at %d: %v vs %v", i, taps[i], taps[len(taps)-1-i])
		}
	}

	// Unit DC gain on the symbol-aligned branch, peak at the center.
	center := (len(taps) - 1) / 2
	var gain float64
	for i := center % 4; i < len(taps); i += 4 {
		gain += taps[i]
	}
	if math.Abs(gain-1) > 1e-12 {
		t.Errorf("symbol-branch DC gain = %v, want 1", gain)
	}
	for i, tap := range taps {
		if i != center && tap >= taps[center] {
			t.Errorf("tap %d (%v) is not below the center tap (%v)", i, tap, taps[center])
		}
	}
}

func TestShaper_DegenerateSpanIsZeroStuffing(t *testing.T) {
	// span=0 isolates interpolation from filtering: the output is the
	// zero-stuffed symbol stream unchanged.
	k, err := NewRRCKernel(2, 0.35, 0)
	if err != nil {
		t.Fatalf("NewRRCKernel: %v", err)
	}
	s := NewShaper(k)

	symbols := []complex128{3 + 1i, -1 - 3i, 1 + 1i}
	out := s.Shape(nil, symbols)
	want := []complex128{3 + 1i, 0, -1 - 3i, 0, 1 + 1i, 0}

	if len(out) != len(want) {
		t.Fatalf("output length %d, want %d", len(out), len(want))
	}
	for i := range want {
		if out[i] != want[i] {
			t.Errorf("sample %d = %v, want %v", i, out[i], want[i])
		}
	}
	if tail := s.Flush(nil); len(tail) != 0 {
		t.Errorf("span=0 flush emitted %d samples, want 0", len(tail))
	}
}

func TestShaper_OutputLength(t *testing.T) {
	const (
		sps  = 4
		span = 6
		n    = 37
	)
	k, _ := NewRRCKernel(sps, 0.5, span)
	s := NewShaper(k)

	symbols := make([]complex128, n)
	for i := range symbols {
		symbols[i] = complex(float64(i%7)-3, float64(i%5)-2)
	}

	body := s.Shape(nil, symbols)
	if len(body) != n*sps {
		t.Errorf("body length %d, want %d", len(body), n*sps)
	}
	tail := s.Flush(nil)
	if len(tail) != span*sps {
		t.Errorf("tail length %d, want %d", len(tail), span*sps)
	}
	if got, want := len(body)+len(tail), n*sps+k.Len()-1; got != want {
		t.Errorf("total length %d, want %d", got, want)
	}
}

func TestShaper_ImpulseResponse(t *testing.T) {
	// A single unit symbol plays back the tap vector itself, scaled onto
	// the I rail, followed by the stuffing zeros of the final period.
	k, _ := NewRRCKernel(4, 0.35, 6)
	s := NewShaper(k)

	out := s.Shape(nil, []complex128{1})
	out = s.Flush(out)
	taps := k.Taps()

	if len(out) != len(taps)-1+4 {
		t.Fatalf("impulse output length %d, want %d", len(out), len(taps)-1+4)
	}
	for i, tap := range taps {
		if math.Abs(real(out[i])-tap) > 1e-12 || imag(out[i]) != 0 {
			t.Errorf("impulse sample %d = %v, want (%v, 0)", i, out[i], tap)
		}
	}
	for i := len(taps); i < len(out); i++ {
		if out[i] != 0 {
			t.Errorf("sample %d past the kernel = %v, want 0", i, out[i])
		}
	}
}

func TestShaper_ComplexSymmetry(t *testing.T) {
	// The real kernel must act identically on I and Q.
	k, _ := NewRRCKernel(2, 0.35, 8)
	sI := NewShaper(k)
	sQ := NewShaper(k)

	rng := rand.New(rand.NewSource(3))
	re := make([]complex128, 64)
	im := make([]complex128, 64)
	for i := range re {
		v := rng.Float64()*6 - 3
		re[i] = complex(v, 0)
		im[i] = complex(0, v)
	}

	outI := sI.Flush(sI.Shape(nil, re))
	outQ := sQ.Flush(sQ.Shape(nil, im))
	for i := range outI {
		if math.Abs(real(outI[i])-imag(outQ[i])) > 1e-12 {
			t.Fatalf("I/Q asymmetry at %d: %v vs %v", i, outI[i], outQ[i])
		}
	}
}

func TestShaper_OutputPower(t *testing.T) {
	// For white symbols the output power is σ²·Σh²/L exactly in
	// expectation; with the symbol-branch gain normalized to 1 it also
	// stays close to the constellation's declared power.
	const (
		sps  = 4
		span = 10
		n    = 32768
	)
	c := Square16()
	k, _ := NewRRCKernel(sps, 0.35, span)
	s := NewShaper(k)

	rng := rand.New(rand.NewSource(4))
	symbols := make([]complex128, n)
	for i := range symbols {
		symbols[i] = c.Point(rng.Intn(c.Size()))
	}

	out := s.Flush(s.Shape(nil, symbols))
	var power float64
	for _, v := range out {
		power += real(v)*real(v) + imag(v)*imag(v)
	}
	power /= float64(len(out))

	var sumSq float64
	for _, tap := range k.Taps() {
		sumSq += tap * tap
	}
	predicted := c.AvgPower() * sumSq / float64(sps)

	if rel := math.Abs(power-predicted) / predicted; rel > 0.1 {
		t.Errorf("output power %v vs predicted %v (rel err %.3f)", power, predicted, rel)
	}
	if rel := math.Abs(power-c.AvgPower()) / c.AvgPower(); rel > 0.15 {
		t.Errorf("output power %v too far from declared %v (rel err %.3f)", power, c.AvgPower(), rel)
	}
}

func TestShaper_Reset(t *testing.T) {
	k, _ := NewRRCKernel(2, 0.35, 6)
	s := NewShaper(k)

	symbols := []complex128{1 + 1i, -3 + 3i, 1 - 1i, 3 - 3i}
	first := s.Flush(s.Shape(nil, symbols))
	s.Reset()
	second := s.Flush(s.Shape(nil, symbols))

	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("shaper not deterministic after Reset at sample %d", i)
		}
	}
}
