package modem

import (
	"fmt"
	"math"
)

// RRCKernel holds precomputed root-raised-cosine filter taps. It is built
// once per configuration, immutable afterwards, and safe to share
// read-only across any number of shapers.
type RRCKernel struct {
	taps []float64
	sps  int
	span int
	beta float64
}

// NewRRCKernel computes a symmetric RRC kernel with span·sps+1 taps, where
// sps is the samples-per-symbol interpolation factor, beta the roll-off
// in (0,1] and span the truncation length in symbol periods. Taps are
// scaled for unit DC gain on the symbol-aligned polyphase branch, so a
// span of 0 degenerates to the single tap 1.0 and the shaper becomes a
// pure zero-stuffing interpolator.
func NewRRCKernel(sps int, beta float64, span int) (*RRCKernel, error) {
	if sps < 1 {
		return nil, fmt.Errorf("%w: samples per symbol %d < 1", ErrConfig, sps)
	}
	if beta <= 0 || beta > 1 {
		return nil, fmt.Errorf("%w: roll-off %g outside (0,1]", ErrConfig, beta)
	}
	if span < 0 {
		return nil, fmt.Errorf("%w: filter span %d < 0", ErrConfig, span)
	}

	numTaps := span*sps + 1
	taps := make([]float64, numTaps)
	center := float64(numTaps-1) / 2.0
	centerPhase := ((numTaps - 1) / 2) % sps

	var gain float64
	for i := 0; i < numTaps; i++ {
		t := (float64(i) - center) / float64(sps) // time in symbol periods
		taps[i] = rrc(t, beta)
		if i%sps == centerPhase {
			gain += taps[i]
		}
	}
	for i := range taps {
		taps[i] /= gain
	}

	return &RRCKernel{taps: taps, sps: sps, span: span, beta: beta}, nil
}

// rrc evaluates the continuous root-raised-cosine impulse response at t
// symbol periods from the pulse center, up to a constant scale.
func rrc(t, beta float64) float64 {
	if t == 0 {
		return 1 - beta + 4*beta/math.Pi
	}
	if math.Abs(math.Abs(4*beta*t)-1) < 1e-9 {
		return (beta / math.Sqrt2) * ((1+2/math.Pi)*math.Sin(math.Pi/(4*beta)) +
			(1-2/math.Pi)*math.Cos(math.Pi/(4*beta)))
	}
	num := math.Sin(math.Pi*t*(1-beta)) + 4*beta*t*math.Cos(math.Pi*t*(1+beta))
	den := math.Pi * t * (1 - 16*beta*beta*t*t)
	return num / den
}

// Taps returns a copy of the tap vector.
func (k *RRCKernel) Taps() []float64 {
	return append([]float64(nil), k.taps...)
}

// Len returns the number of taps (span·sps + 1).
func (k *RRCKernel) Len() int { return len(k.taps) }

// Sps returns the interpolation factor.
func (k *RRCKernel) Sps() int { return k.sps }

// Span returns the truncation span in symbol periods.
func (k *RRCKernel) Span() int { return k.span }

// Beta returns the roll-off factor.
func (k *RRCKernel) Beta() float64 { return k.beta }

// GroupDelay returns the filter delay in output samples, (Len-1)/2.
// The shaper does not compensate for it; consumers that align symbol
// decisions against the output must offset by this many samples.
func (k *RRCKernel) GroupDelay() int { return (len(k.taps) - 1) / 2 }

// Shaper turns a discrete complex symbol sequence into a band-limited
// sample stream at Sps samples per symbol: each symbol is zero-stuffed to
// the output rate and convolved with the RRC kernel. The convolution runs
// in polyphase form, one symbol-spaced history shift per input symbol
// instead of one per output sample, which is algebraically identical to
// filtering the zero-stuffed stream directly. The real kernel applies to
// the I and Q components alike.
//
// History starts zeroed, so the first span symbols of output carry the
// filter's leading transient; Flush drains the matching tail at stream
// end. A shaper belongs to a single pipeline and is not safe for
// concurrent use; the kernel behind it is shared freely.
type Shaper struct {
	kernel *RRCKernel
	hist   []complex128
}

// NewShaper creates a shaper over a kernel with zeroed history.
func NewShaper(k *RRCKernel) *Shaper {
	return &Shaper{
		kernel: k,
		hist:   make([]complex128, k.span+1),
	}
}

// Shape appends the shaped output for the given symbols to dst and
// returns it, emitting exactly len(symbols)·Sps samples. Passing dst as
// nil allocates.
func (s *Shaper) Shape(dst []complex128, symbols []complex128) []complex128 {
	taps := s.kernel.taps
	sps := s.kernel.sps

	for _, sym := range symbols {
		for k := len(s.hist) - 1; k > 0; k-- {
			s.hist[k] = s.hist[k-1]
		}
		s.hist[0] = sym

		for j := 0; j < sps; j++ {
			var re, im float64
			for k, h := range s.hist {
				ti := k*sps + j
				if ti >= len(taps) {
					break
				}
				re += real(h) * taps[ti]
				im += imag(h) * taps[ti]
			}
			dst = append(dst, complex(re, im))
		}
	}
	return dst
}

// Flush pushes span zero symbols through the filter, draining the
// span·Sps tail samples still held in the history. Total output for a
// stream of N symbols is therefore N·Sps + span·Sps samples.
func (s *Shaper) Flush(dst []complex128) []complex128 {
	zeros := make([]complex128, s.kernel.span)
	return s.Shape(dst, zeros)
}

// Reset zeroes the filter history for a fresh stream.
func (s *Shaper) Reset() {
	for i := range s.hist {
		s.hist[i] = 0
	}
}
