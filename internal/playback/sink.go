package playback

import (
	"io"

	"github.com/ebitengine/oto/v3"
)

// sinkPlayer is the subset of oto's *oto.Player the engine depends on.
// Abstracting it lets tests substitute a fake player instead of touching
// real audio hardware. oto.Player itself is not a seeker — seeking is
// done on the pcmSource backing its reader, not on the player.
type sinkPlayer interface {
	Play()
	Pause()
	IsPlaying() bool
	SetVolume(volume float64)
	Volume() float64
	Close() error
}

// sinkContext is the subset of *oto.Context the engine depends on.
type sinkContext interface {
	NewPlayer(r io.Reader) sinkPlayer
}

// otoContext adapts a real *oto.Context to sinkContext.
type otoContext struct {
	ctx *oto.Context
}

// NewOtoSink initializes the real oto output device at the given sample
// rate and returns a sinkContext wrapping it, plus the context's ready
// channel per oto/v3's asynchronous device-open contract.
func NewOtoSink(sampleRate int) (sinkContext, chan struct{}, error) {
	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: 2,
		Format:       oto.FormatSignedInt16LE,
	})
	if err != nil {
		return nil, nil, err
	}
	return otoContext{ctx: ctx}, ready, nil
}

func (c otoContext) NewPlayer(r io.Reader) sinkPlayer {
	return c.ctx.NewPlayer(r)
}
