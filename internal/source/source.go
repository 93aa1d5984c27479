// Package source provides byte-source collaborators for the modulation
// pipeline. Any io.Reader is a byte source; the types here add the
// repeat/loop semantics a continuously transmitting payload needs.
package source

import (
	"fmt"
	"io"
	"os"
)

// Looper reads an io.ReadSeeker and rewinds it on EOF, presenting the
// payload as one continuous byte stream. With times <= 0 it loops
// forever; otherwise it signals io.EOF after the given number of passes.
type Looper struct {
	r      io.ReadSeeker
	times  int
	passes int
}

// NewLooper wraps r. times is the number of passes, or <= 0 for infinite.
func NewLooper(r io.ReadSeeker, times int) *Looper {
	return &Looper{r: r, times: times}
}

// Read implements io.Reader.
func (l *Looper) Read(p []byte) (int, error) {
	if l.times > 0 && l.passes >= l.times {
		return 0, io.EOF
	}
	for {
		n, err := l.r.Read(p)
		if n > 0 {
			return n, nil
		}
		if err != io.EOF {
			return 0, err
		}
		l.passes++
		if l.times > 0 && l.passes >= l.times {
			return 0, io.EOF
		}
		if _, err := l.r.Seek(0, io.SeekStart); err != nil {
			return 0, fmt.Errorf("rewind source: %w", err)
		}
	}
}

// Passes reports how many times the underlying payload has been fully
// consumed so far.
func (l *Looper) Passes() int { return l.passes }

// File opens path as a one-shot byte source. The caller closes it.
func File(path string) (*os.File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open byte source: %w", err)
	}
	return f, nil
}

// FileLoop opens path as a looping byte source backed by the file.
// times <= 0 loops forever. Close the returned file when done.
func FileLoop(path string, times int) (*Looper, *os.File, error) {
	f, err := File(path)
	if err != nil {
		return nil, nil, err
	}
	return NewLooper(f, times), f, nil
}
