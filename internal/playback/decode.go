package playback

import (
	"bytes"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/hajimehoshi/go-mp3"
)

// pcmSource is a fully-decoded, seekable PCM stream. go-mp3's Decoder does
// not support arbitrary backward seeking, so decode happens once, up
// front, into an in-memory buffer; Seek thereafter is byte-offset
// arithmetic. This trades memory for a simple, correct Seek and keeps
// every subsequent sink interaction inside the single worker goroutine.
type pcmSource struct {
	mu sync.Mutex

	pcm []byte
	pos int64

	sampleRate    int
	bytesPerFrame int // channels * bytes-per-sample, both fixed at 2 channels / 16-bit for go-mp3
}

const mp3BytesPerFrame = 4 // go-mp3 always decodes to stereo 16-bit PCM

// decodeFunc is a seam tests substitute to build a pcmSource directly
// from raw PCM, without needing a real MP3-encoded fixture.
var decodeFunc = decode

func decode(data []byte) (*pcmSource, error) {
	dec, err := mp3.NewDecoder(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("playback: decode source: %w", err)
	}
	pcm, err := io.ReadAll(dec)
	if err != nil {
		return nil, fmt.Errorf("playback: decode source: %w", err)
	}
	return &pcmSource{
		pcm:           pcm,
		sampleRate:    dec.SampleRate(),
		bytesPerFrame: mp3BytesPerFrame,
	}, nil
}

// Read implements io.Reader. Unlike a real source-attached progress
// callback, this source is a plain reader driven by the sink's own read
// loop, so progress is instead sampled by the worker's ticker against
// Position — see worker.go's use of Config.ProgressInterval.
func (p *pcmSource) Read(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.pos >= int64(len(p.pcm)) {
		return 0, io.EOF
	}
	n := copy(b, p.pcm[p.pos:])
	p.pos += int64(n)
	return n, nil
}

// Seek implements io.Seeker over the decoded PCM buffer, aligning to
// frame boundaries so the sink never reads a torn sample.
func (p *pcmSource) Seek(offset int64, whence int) (int64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	var base int64
	switch whence {
	case io.SeekStart:
		base = 0
	case io.SeekCurrent:
		base = p.pos
	case io.SeekEnd:
		base = int64(len(p.pcm))
	default:
		return 0, fmt.Errorf("playback: invalid seek whence %d", whence)
	}
	n := base + offset
	if n < 0 {
		n = 0
	}
	if max := int64(len(p.pcm)); n > max {
		n = max
	}
	n -= n % int64(p.bytesPerFrame)
	p.pos = n
	return n, nil
}

// Duration returns the total decoded playback length.
func (p *pcmSource) Duration() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.durationOf(int64(len(p.pcm)))
}

// Position returns the current playhead as a duration.
func (p *pcmSource) Position() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.durationOf(p.pos)
}

// SeekBy adjusts the playhead by delta in the given direction, clamped to
// [0, Duration()], and returns the resulting position.
func (p *pcmSource) SeekBy(delta time.Duration, dir SeekDirection) time.Duration {
	p.mu.Lock()
	frames := p.framesFor(delta)
	byteDelta := frames * int64(p.bytesPerFrame)
	if dir == SeekBackward {
		byteDelta = -byteDelta
	}
	p.mu.Unlock()

	newPos, _ := p.Seek(byteDelta, io.SeekCurrent)
	return p.durationOfUnlocked(newPos)
}

func (p *pcmSource) durationOf(bytePos int64) time.Duration {
	return p.durationOfUnlocked(bytePos)
}

// durationOfUnlocked must only be called without p.mu held, or with it
// already held by the caller's own stack frame — it takes no lock itself.
func (p *pcmSource) durationOfUnlocked(bytePos int64) time.Duration {
	if p.sampleRate <= 0 {
		return 0
	}
	frames := bytePos / int64(p.bytesPerFrame)
	return time.Duration(frames) * time.Second / time.Duration(p.sampleRate)
}

func (p *pcmSource) framesFor(d time.Duration) int64 {
	if p.sampleRate <= 0 {
		return 0
	}
	return int64(d.Seconds() * float64(p.sampleRate))
}
