package modem

import (
	"fmt"
	"math"
	"math/cmplx"
)

// Point-matching tolerance for table validation and rotation closure.
const pointTol = 1e-9

// Constellation is an immutable lookup table from symbol labels to complex
// reference points, plus the metadata the rest of the chain needs: bits per
// symbol, rotational symmetry order and average point power. A table is
// validated once at construction and is safe for concurrent read-only use
// by any number of pipelines.
type Constellation struct {
	points   []complex128
	bits     int
	symmetry int
	avgPower float64

	// Rotation decomposition: rot[label] is the rotation bucket in
	// [0,symmetry), sub[label] the rotation-invariant sub-index, and
	// combine[r][s] the label carrying that pair.
	rot     []int
	sub     []int
	combine [][]int
}

// NewConstellation builds and validates a constellation from its points in
// label order. symmetry is the rotational symmetry order R: rotating any
// point by 2π/R must land on another point of the table. Validation
// failures wrap ErrConfig.
func NewConstellation(points []complex128, symmetry int) (*Constellation, error) {
	size := len(points)
	bits := 0
	for 1<<bits < size {
		bits++
	}
	if size < 2 || 1<<bits != size {
		return nil, fmt.Errorf("%w: table size %d is not a power of two >= 2", ErrConfig, size)
	}
	if symmetry < 1 {
		return nil, fmt.Errorf("%w: symmetry order %d < 1", ErrConfig, symmetry)
	}
	if size%symmetry != 0 {
		return nil, fmt.Errorf("%w: symmetry order %d does not divide table size %d", ErrConfig, symmetry, size)
	}

	// Distinct points and zero mean.
	var mean complex128
	for i, p := range points {
		for j := i + 1; j < size; j++ {
			if cmplx.Abs(p-points[j]) < pointTol {
				return nil, fmt.Errorf("%w: labels %d and %d share point %v", ErrConfig, i, j, p)
			}
		}
		mean += p
	}
	mean /= complex(float64(size), 0)
	if cmplx.Abs(mean) > pointTol {
		return nil, fmt.Errorf("%w: point set mean %v is not zero", ErrConfig, mean)
	}

	var avgPower float64
	for _, p := range points {
		avgPower += real(p)*real(p) + imag(p)*imag(p)
	}
	avgPower /= float64(size)

	c := &Constellation{
		points:   append([]complex128(nil), points...),
		bits:     bits,
		symmetry: symmetry,
		avgPower: avgPower,
	}
	if err := c.buildRotation(); err != nil {
		return nil, err
	}
	return c, nil
}

// buildRotation precomputes the bucket/sub-index decomposition used by
// differential encoding. Each label's point is assigned the bucket its
// angle falls in; its sub-index is the position of the point rotated back
// into bucket 0, enumerated in label order. The closure check doubles as
// the rotational-symmetry validation.
func (c *Constellation) buildRotation() error {
	size := len(c.points)
	r := c.symmetry
	step := 2 * math.Pi / float64(r)

	c.rot = make([]int, size)
	c.sub = make([]int, size)
	c.combine = make([][]int, r)

	if r == 1 {
		c.combine[0] = make([]int, size)
		for i := range c.points {
			c.sub[i] = i
			c.combine[0][i] = i
		}
		return nil
	}

	for label, p := range c.points {
		if cmplx.Abs(p) < pointTol {
			return fmt.Errorf("%w: point at origin is incompatible with symmetry order %d", ErrConfig, r)
		}
		phase := cmplx.Phase(p)
		if phase < 0 {
			phase += 2 * math.Pi
		}
		bucket := int(phase / step)
		if bucket >= r {
			bucket = r - 1
		}
		// Rotating by 2π/R must stay inside the table.
		rotated := p * cmplx.Rect(1, step)
		if c.labelNear(rotated) < 0 {
			return fmt.Errorf("%w: rotating label %d point %v by 2π/%d leaves the table", ErrConfig, label, p, r)
		}
		c.rot[label] = bucket
	}

	// Bucket 0 points in label order fix the sub-index enumeration.
	c.combine[0] = make([]int, 0, size/r)
	for label := range c.points {
		if c.rot[label] == 0 {
			c.sub[label] = len(c.combine[0])
			c.combine[0] = append(c.combine[0], label)
		}
	}
	if len(c.combine[0]) != size/r {
		return fmt.Errorf("%w: rotation bucket 0 holds %d points, want %d", ErrConfig, len(c.combine[0]), size/r)
	}

	for bucket := 1; bucket < r; bucket++ {
		c.combine[bucket] = make([]int, size/r)
		for s := range c.combine[bucket] {
			c.combine[bucket][s] = -1
		}
	}
	for label := range c.points {
		bucket := c.rot[label]
		if bucket == 0 {
			continue
		}
		// Rotate back into bucket 0 to find the invariant sub-index.
		back := c.points[label] * cmplx.Rect(1, -float64(bucket)*step)
		ref := c.labelNear(back)
		if ref < 0 || c.rot[ref] != 0 {
			return fmt.Errorf("%w: label %d does not project onto rotation bucket 0", ErrConfig, label)
		}
		s := c.sub[ref]
		if c.combine[bucket][s] != -1 {
			return fmt.Errorf("%w: rotation buckets are not a partition of the label space", ErrConfig)
		}
		c.sub[label] = s
		c.combine[bucket][s] = label
	}

	for bucket := 1; bucket < r; bucket++ {
		for s, label := range c.combine[bucket] {
			if label == -1 {
				return fmt.Errorf("%w: rotation bucket %d is missing sub-index %d", ErrConfig, bucket, s)
			}
		}
	}
	return nil
}

// labelNear returns the label whose point matches p within tolerance, or -1.
func (c *Constellation) labelNear(p complex128) int {
	for i, q := range c.points {
		if cmplx.Abs(p-q) < pointTol {
			return i
		}
	}
	return -1
}

// Square builds the canonical order×order grid with coordinates
// {-(order-1), ..., -1, 1, ..., order-1} in both components and labels in
// natural row-major order (label = row·order + col, y growing with row).
func Square(order int) (*Constellation, error) {
	if order < 2 || order%2 != 0 {
		return nil, fmt.Errorf("%w: square grid order %d must be even and >= 2", ErrConfig, order)
	}
	points := make([]complex128, order*order)
	for i := range points {
		row := i / order
		col := i % order
		x := float64(2*col - order + 1)
		y := float64(2*row - order + 1)
		points[i] = complex(x, y)
	}
	return NewConstellation(points, 4)
}

// Square16 is the canonical 16-point table: a 4×4 grid over {-3,-1,1,3}
// with fourfold rotational symmetry. Label 0xB maps to (3,1), label 0x1
// to (-1,-3).
func Square16() *Constellation {
	c, err := Square(4)
	if err != nil {
		panic(err) // fixed table, cannot fail
	}
	return c
}

// BitsPerSymbol returns k, the number of bits carried per symbol.
func (c *Constellation) BitsPerSymbol() int { return c.bits }

// Size returns the number of points (2^k).
func (c *Constellation) Size() int { return len(c.points) }

// Symmetry returns the rotational symmetry order R.
func (c *Constellation) Symmetry() int { return c.symmetry }

// AvgPower returns the declared average point power (10.0 for Square16).
func (c *Constellation) AvgPower() float64 { return c.avgPower }

// Point returns the reference point for a label. Labels outside [0, Size)
// fold to label 0; callers that validated their labels never hit this.
func (c *Constellation) Point(label int) complex128 {
	if label < 0 || label >= len(c.points) {
		label = 0
	}
	return c.points[label]
}

// Label returns the label of the table point nearest to p (hard decision).
func (c *Constellation) Label(p complex128) int {
	minDist := math.MaxFloat64
	minIdx := 0
	for i, q := range c.points {
		d := real(p-q)*real(p-q) + imag(p-q)*imag(p-q)
		if d < minDist {
			minDist = d
			minIdx = i
		}
	}
	return minIdx
}

// Map converts a label sequence to its point sequence.
func (c *Constellation) Map(labels []int) []complex128 {
	out := make([]complex128, len(labels))
	for i, l := range labels {
		out[i] = c.Point(l)
	}
	return out
}

// Split decomposes a label into its rotation bucket r ∈ [0,R) and
// rotation-invariant sub-index s.
func (c *Constellation) Split(label int) (r, s int) {
	if label < 0 || label >= len(c.points) {
		label = 0
	}
	return c.rot[label], c.sub[label]
}

// Combine is the inverse of Split: the label in rotation bucket r carrying
// sub-index s.
func (c *Constellation) Combine(r, s int) int {
	return c.combine[((r%c.symmetry)+c.symmetry)%c.symmetry][s]
}
