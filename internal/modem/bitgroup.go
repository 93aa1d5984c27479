package modem

import (
	"fmt"
	"io"
)

// BitOrder selects which end of each byte the grouper consumes first.
// Downstream interoperability depends on this matching the receiver.
type BitOrder int

const (
	// LSBFirst consumes bit 0 of each byte first; the first bit consumed
	// becomes bit 0 of the label. Byte 0x1B with k=4 yields 0xB then 0x1.
	LSBFirst BitOrder = iota
	// MSBFirst consumes bit 7 first; the first bit consumed becomes the
	// label's most significant bit.
	MSBFirst
)

// String returns the order name.
func (o BitOrder) String() string {
	switch o {
	case LSBFirst:
		return "lsb-first"
	case MSBFirst:
		return "msb-first"
	default:
		return "unknown"
	}
}

// PartialPolicy controls what happens to a trailing group of fewer than k
// bits when the byte source ends.
type PartialPolicy int

const (
	// DropPartial discards the trailing bits. This is the default: a
	// transmitter that repeats its payload must not emit partial symbols.
	DropPartial PartialPolicy = iota
	// PadPartial zero-pads the trailing bits up to k and emits one final
	// label.
	PadPartial
)

// BitGrouper regroups an arbitrary byte stream into k-bit symbol labels.
// It pulls bytes from the source one at a time, on demand, and carries a
// small bit accumulator across byte boundaries so any k in [1,8] works.
type BitGrouper struct {
	src    io.Reader
	k      int
	order  BitOrder
	policy PartialPolicy

	acc     uint32 // pending bits, oldest at bit 0
	nbits   int
	done    bool
	dropped int

	buf [1]byte
}

// NewBitGrouper wraps a byte source as a label source. k must be in [1,8].
func NewBitGrouper(src io.Reader, k int, order BitOrder, policy PartialPolicy) (*BitGrouper, error) {
	if k < 1 || k > 8 {
		return nil, fmt.Errorf("%w: bits per symbol %d outside [1,8]", ErrConfig, k)
	}
	if order != LSBFirst && order != MSBFirst {
		return nil, fmt.Errorf("%w: unknown bit order %d", ErrConfig, order)
	}
	return &BitGrouper{src: src, k: k, order: order, policy: policy}, nil
}

// Next returns the next k-bit label, or io.EOF once the source is
// exhausted. Any other source error is passed through.
func (g *BitGrouper) Next() (int, error) {
	for g.nbits < g.k && !g.done {
		n, err := g.src.Read(g.buf[:])
		if n == 1 {
			b := g.buf[0]
			if g.order == MSBFirst {
				b = reverseBits(b)
			}
			g.acc |= uint32(b) << g.nbits
			g.nbits += 8
		}
		if err == io.EOF {
			g.done = true
		} else if err != nil {
			return 0, fmt.Errorf("read byte source: %w", err)
		}
	}

	if g.nbits < g.k {
		if g.nbits > 0 {
			if g.policy == PadPartial {
				label := g.takeLabel(g.acc & (1<<g.k - 1))
				g.acc = 0
				g.nbits = 0
				return label, nil
			}
			g.dropped += g.nbits
			g.acc = 0
			g.nbits = 0
		}
		return 0, io.EOF
	}

	label := g.takeLabel(g.acc & (1<<g.k - 1))
	g.acc >>= g.k
	g.nbits -= g.k
	return label, nil
}

// takeLabel reorders the consumed bits into label bit positions. The
// accumulator always holds bits oldest-first at bit 0; LSB-first labels
// use them as-is, MSB-first labels reversed.
func (g *BitGrouper) takeLabel(bits uint32) int {
	if g.order == LSBFirst {
		return int(bits)
	}
	label := 0
	for i := 0; i < g.k; i++ {
		label = label<<1 | int(bits>>i&1)
	}
	return label
}

// Dropped reports how many trailing bits were discarded under DropPartial.
func (g *BitGrouper) Dropped() int { return g.dropped }

func reverseBits(b byte) byte {
	b = b>>4 | b<<4
	b = b>>2&0x33 | b<<2&0xCC
	b = b>>1&0x55 | b<<1&0xAA
	return b
}
