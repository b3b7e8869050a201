package playback

import "time"

// Source is an encoded-audio byte buffer. PlaySong/AutoplaySong/QueueSong
// decode it eagerly, before any state change, so a bad source fails the
// call outright instead of surfacing later on the returned stream.
type Source struct {
	Data []byte
}

// SeekDirection is the direction Seek adjusts the playhead.
type SeekDirection int

const (
	SeekForward SeekDirection = iota
	SeekBackward
)

// PlayUpdateKind tags a PlayUpdate variant.
type PlayUpdateKind int

const (
	Playing PlayUpdateKind = iota
	PlayProgress
	DonePlaying
)

// PlayUpdate is one event on the stream returned by PlaySong.
type PlayUpdate struct {
	Kind PlayUpdateKind
	// TotalDuration is set only for Playing, and only when the decoder
	// could estimate it.
	TotalDuration *time.Duration
	// Position is set only for PlayProgress.
	Position time.Duration
}

// AutoplayUpdateKind tags an AutoplayUpdate variant. When id names the
// queued or current song, the only event is AutoplayQueued, and the
// stream terminates immediately — the prior PlaySong/QueueSong stream
// for that id remains the source of further updates. Otherwise
// AutoplaySong behaves exactly like PlaySong, reported through the same
// Playing/PlayProgress/DonePlaying shape under the Autoplay* names.
type AutoplayUpdateKind int

const (
	AutoplayQueued AutoplayUpdateKind = iota
	AutoplayPlaying
	AutoplayProgress
	AutoplayDonePlaying
)

// AutoplayUpdate is one event on the stream returned by AutoplaySong.
type AutoplayUpdate struct {
	Kind          AutoplayUpdateKind
	TotalDuration *time.Duration
	Position      time.Duration
}

// QueueUpdateKind tags a QueueUpdate variant.
type QueueUpdateKind int

const (
	Queued QueueUpdateKind = iota
	QueuePlayProgress
	QueueDonePlaying
)

// QueueUpdate is one event on the stream returned by QueueSong.
type QueueUpdate struct {
	Kind          QueueUpdateKind
	TotalDuration *time.Duration
	Position      time.Duration
}

// Stopped confirms a successful Stop.
type Stopped struct{}

// PausePlayResponse reports which side of the pause toggle was taken.
type PausePlayResponse struct {
	Paused bool
}

// ProgressUpdate reports the playhead position after a Seek.
type ProgressUpdate[I comparable] struct {
	ID       I
	Position time.Duration
}

// VolumeUpdate reports the sink volume after IncreaseVolume, as a percent
// in [0, 100].
type VolumeUpdate struct {
	Percent int
}

// Config tunes the engine's progress cadence and intake buffering.
type Config struct {
	// ProgressInterval is how often PlayProgress/QueuePlayProgress events
	// are emitted, measured by a wall-clock ticker on the worker goroutine.
	// Defaults to 100ms, matching the reference's fixed cadence.
	ProgressInterval time.Duration
	// UpdateBufferSize bounds each operation's update channel. A send
	// that would block past this buffer is dropped rather than stalling
	// the worker — see Config.ProgressInterval and the package doc.
	UpdateBufferSize int
	// RequestBufferSize bounds the shared command channel every public
	// method sends through.
	RequestBufferSize int
}

func (c Config) withDefaults() Config {
	if c.ProgressInterval <= 0 {
		c.ProgressInterval = 100 * time.Millisecond
	}
	if c.UpdateBufferSize <= 0 {
		c.UpdateBufferSize = 16
	}
	if c.RequestBufferSize <= 0 {
		c.RequestBufferSize = 32
	}
	return c
}
