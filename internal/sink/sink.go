// Package sink provides complex sample sinks for the modulation
// pipeline: an interleaved float32 I/Q file writer, a fan-out, and a
// sample counter. The pipeline makes no assumption about a sink beyond
// it accepting samples in order.
package sink

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
)

// Sink accepts complex baseband samples in stream order. Write may be
// called with batches of any length; Close flushes whatever the sink
// buffers.
type Sink interface {
	Write(samples []complex128) error
	Close() error
}

// CF32Writer writes samples as interleaved little-endian float32 I/Q
// pairs, the common raw interchange format for SDR tooling.
type CF32Writer struct {
	w   *bufio.Writer
	c   io.Closer
	buf [8]byte
}

// NewCF32Writer wraps w. If w is also an io.Closer it is closed by Close.
func NewCF32Writer(w io.Writer) *CF32Writer {
	s := &CF32Writer{w: bufio.NewWriter(w)}
	if c, ok := w.(io.Closer); ok {
		s.c = c
	}
	return s
}

// CreateCF32 creates path and returns a writer sink over it.
func CreateCF32(path string) (*CF32Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create output: %w", err)
	}
	return NewCF32Writer(f), nil
}

// Write implements Sink.
func (s *CF32Writer) Write(samples []complex128) error {
	for _, v := range samples {
		binary.LittleEndian.PutUint32(s.buf[0:4], math.Float32bits(float32(real(v))))
		binary.LittleEndian.PutUint32(s.buf[4:8], math.Float32bits(float32(imag(v))))
		if _, err := s.w.Write(s.buf[:]); err != nil {
			return fmt.Errorf("write samples: %w", err)
		}
	}
	return nil
}

// Close flushes the buffer and closes the underlying writer if it can be
// closed.
func (s *CF32Writer) Close() error {
	if err := s.w.Flush(); err != nil {
		return fmt.Errorf("flush samples: %w", err)
	}
	if s.c != nil {
		return s.c.Close()
	}
	return nil
}

// Funnel fans samples out to several sinks in order.
type Funnel struct {
	sinks []Sink
}

// NewFunnel combines sinks into one.
func NewFunnel(sinks ...Sink) *Funnel {
	return &Funnel{sinks: sinks}
}

// Write implements Sink; the first sink error stops the fan-out.
func (f *Funnel) Write(samples []complex128) error {
	for _, s := range f.sinks {
		if err := s.Write(samples); err != nil {
			return err
		}
	}
	return nil
}

// Close closes every sink, returning the first error.
func (f *Funnel) Close() error {
	var first error
	for _, s := range f.sinks {
		if err := s.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Counter counts samples and accumulates their power; useful for tests
// and end-of-run reporting.
type Counter struct {
	n     int
	power float64
}

// Write implements Sink.
func (c *Counter) Write(samples []complex128) error {
	for _, v := range samples {
		c.power += real(v)*real(v) + imag(v)*imag(v)
	}
	c.n += len(samples)
	return nil
}

// Close implements Sink.
func (c *Counter) Close() error { return nil }

// Count returns the number of samples seen.
func (c *Counter) Count() int { return c.n }

// AvgPower returns the mean sample power seen so far.
func (c *Counter) AvgPower() float64 {
	if c.n == 0 {
		return 0
	}
	return c.power / float64(c.n)
}
