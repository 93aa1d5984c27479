package sink

import (
	"fmt"

	"github.com/jeongseonghan/qam-modulator/internal/audio"
)

// Audio plays the baseband stream through the sound card, I on the left
// channel and Q on the right. It is mainly a monitoring aid: at audio
// sample rates the shaped stream is directly audible.
type Audio struct {
	player *audio.Player
}

// NewAudio opens the default output device at the given sample rate.
func NewAudio(sampleRate float64) (*Audio, error) {
	player, err := audio.NewPlayer(sampleRate)
	if err != nil {
		return nil, fmt.Errorf("open audio sink: %w", err)
	}
	if err := player.Start(); err != nil {
		player.Close()
		return nil, fmt.Errorf("start audio sink: %w", err)
	}
	return &Audio{player: player}, nil
}

// Write implements Sink.
func (a *Audio) Write(samples []complex128) error {
	frames := make([]float32, 2*len(samples))
	for i, v := range samples {
		frames[2*i] = float32(real(v))
		frames[2*i+1] = float32(imag(v))
	}
	return a.player.Play(frames)
}

// Close stops and closes the output stream.
func (a *Audio) Close() error {
	return a.player.Close()
}
