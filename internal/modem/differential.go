package modem

import "fmt"

// DiffEncoder re-labels symbols so information rides in the change of
// rotation bucket between consecutive symbols instead of in absolute
// phase. A receiver locked to the carrier with an unknown constant offset
// of any multiple of 2π/R then still recovers the stream: the offset
// shifts every bucket by the same amount and cancels in the differences.
//
// The state is a single rotation index carried between symbols. One
// encoder serves exactly one transmission session; it is not safe for
// concurrent use and a new session starts with Reset.
type DiffEncoder struct {
	c     *Constellation
	state int
}

// NewDiffEncoder creates an encoder over the given table. Tables whose
// symmetry cannot partition the label space are already rejected by
// NewConstellation, so construction only guards against a degenerate
// symmetry order.
func NewDiffEncoder(c *Constellation) (*DiffEncoder, error) {
	if c.Symmetry() < 2 {
		return nil, fmt.Errorf("%w: differential encoding needs symmetry order >= 2, table has %d", ErrConfig, c.Symmetry())
	}
	return &DiffEncoder{c: c}, nil
}

// Encode maps a raw label to the transmitted label and advances the state.
func (e *DiffEncoder) Encode(label int) int {
	r, s := e.c.Split(label)
	e.state = (e.state + r) % e.c.Symmetry()
	return e.c.Combine(e.state, s)
}

// EncodeAll encodes a label sequence in place order, returning a new slice.
func (e *DiffEncoder) EncodeAll(labels []int) []int {
	out := make([]int, len(labels))
	for i, l := range labels {
		out[i] = e.Encode(l)
	}
	return out
}

// Reset returns the encoder to the stream-start state.
func (e *DiffEncoder) Reset() { e.state = 0 }

// DiffDecoder inverts DiffEncoder. It lives here rather than in a receiver
// because the encode→decode round trip is the property that defines the
// encoder's correctness; a full receiver would add carrier and timing
// recovery in front of it.
//
// Under a constant rotation of the whole stream the first decoded symbol
// is off by that rotation and every later symbol is exact: the first
// symbol is the phase reference the differences hang off.
type DiffDecoder struct {
	c     *Constellation
	state int
}

// NewDiffDecoder creates a decoder over the given table.
func NewDiffDecoder(c *Constellation) (*DiffDecoder, error) {
	if c.Symmetry() < 2 {
		return nil, fmt.Errorf("%w: differential decoding needs symmetry order >= 2, table has %d", ErrConfig, c.Symmetry())
	}
	return &DiffDecoder{c: c}, nil
}

// Decode maps a transmitted label back to the raw label.
func (d *DiffDecoder) Decode(label int) int {
	rr, s := d.c.Split(label)
	rsym := d.c.Symmetry()
	r := (rr - d.state + rsym) % rsym
	d.state = rr
	return d.c.Combine(r, s)
}

// DecodeAll decodes a label sequence.
func (d *DiffDecoder) DecodeAll(labels []int) []int {
	out := make([]int, len(labels))
	for i, l := range labels {
		out[i] = d.Decode(l)
	}
	return out
}

// Reset returns the decoder to the stream-start state.
func (d *DiffDecoder) Reset() { d.state = 0 }
