// Package audio wraps PortAudio for baseband playback: the modulator's
// I/Q stream maps onto a stereo output, left channel in-phase, right
// channel quadrature.
package audio

import (
	"fmt"
	"sync"

	"github.com/gordonklaus/portaudio"
)

const (
	FramesPerBuf = 512
	NumChannels  = 2 // I left, Q right
)

// Init initializes PortAudio. Call once before opening players.
func Init() error {
	return portaudio.Initialize()
}

// Terminate cleans up PortAudio.
func Terminate() error {
	return portaudio.Terminate()
}

// Player is a stereo output stream for interleaved I/Q frames.
type Player struct {
	stream *portaudio.Stream
	buf    []float32
	mu     sync.Mutex
}

// NewPlayer opens the default output device at the given sample rate.
func NewPlayer(sampleRate float64) (*Player, error) {
	p := &Player{buf: make([]float32, NumChannels*FramesPerBuf)}
	stream, err := portaudio.OpenDefaultStream(0, NumChannels, sampleRate, FramesPerBuf, p.buf)
	if err != nil {
		return nil, fmt.Errorf("open output stream: %w", err)
	}
	p.stream = stream
	return p, nil
}

// Start starts the output stream.
func (p *Player) Start() error {
	if p.stream == nil {
		return fmt.Errorf("output stream not opened")
	}
	return p.stream.Start()
}

// Play writes interleaved stereo frames, blocking until the device has
// taken them. Partial trailing buffers are zero-padded.
func (p *Player) Play(frames []float32) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	step := len(p.buf)
	for i := 0; i < len(frames); i += step {
		end := i + step
		if end > len(frames) {
			for j := range p.buf {
				p.buf[j] = 0
			}
			copy(p.buf, frames[i:])
		} else {
			copy(p.buf, frames[i:end])
		}
		if err := p.stream.Write(); err != nil {
			return fmt.Errorf("write frames: %w", err)
		}
	}
	return nil
}

// Close stops and closes the stream.
func (p *Player) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stream == nil {
		return nil
	}
	p.stream.Stop()
	err := p.stream.Close()
	p.stream = nil
	return err
}
