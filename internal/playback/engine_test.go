package playback

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"
)

// fakePlayer simulates oto's background read pump without touching real
// audio hardware: it continuously reads from its reader whenever
// "playing", at a pace slow enough for tests to observe intermediate
// state, and stops cleanly on EOF or Close.
type fakePlayer struct {
	mu      sync.Mutex
	r       io.Reader
	playing bool
	volume  float64

	closeOnce sync.Once
	stopCh    chan struct{}
}

func newFakePlayer(r io.Reader) *fakePlayer {
	p := &fakePlayer{r: r, volume: 1, stopCh: make(chan struct{})}
	go p.pump()
	return p
}

func (p *fakePlayer) pump() {
	buf := make([]byte, 64)
	for {
		select {
		case <-p.stopCh:
			return
		default:
		}
		p.mu.Lock()
		playing := p.playing
		p.mu.Unlock()
		if !playing {
			time.Sleep(time.Millisecond)
			continue
		}
		if _, err := p.r.Read(buf); err != nil {
			return
		}
		time.Sleep(time.Millisecond)
	}
}

func (p *fakePlayer) Play()              { p.mu.Lock(); p.playing = true; p.mu.Unlock() }
func (p *fakePlayer) Pause()             { p.mu.Lock(); p.playing = false; p.mu.Unlock() }
func (p *fakePlayer) IsPlaying() bool    { p.mu.Lock(); defer p.mu.Unlock(); return p.playing }
func (p *fakePlayer) SetVolume(v float64) { p.mu.Lock(); p.volume = v; p.mu.Unlock() }
func (p *fakePlayer) Volume() float64    { p.mu.Lock(); defer p.mu.Unlock(); return p.volume }
func (p *fakePlayer) Close() error {
	p.closeOnce.Do(func() { close(p.stopCh) })
	return nil
}

type fakeSink struct{}

func (fakeSink) NewPlayer(r io.Reader) sinkPlayer { return newFakePlayer(r) }

// testSource builds a Source whose byte length encodes the desired
// silent-PCM frame count; the test-local decodeFunc override below turns
// it into a pcmSource directly, bypassing real MP3 decoding.
func testSource(frames int) Source {
	return Source{Data: make([]byte, frames*mp3BytesPerFrame)}
}

func withFakeDecode(t *testing.T) {
	t.Helper()
	orig := decodeFunc
	decodeFunc = func(data []byte) (*pcmSource, error) {
		return &pcmSource{pcm: make([]byte, len(data)), sampleRate: 44100, bytesPerFrame: mp3BytesPerFrame}, nil
	}
	t.Cleanup(func() { decodeFunc = orig })
}

func newTestEngine(t *testing.T) *Engine[string] {
	t.Helper()
	withFakeDecode(t)
	e := New[string](fakeSink{}, Config{ProgressInterval: 5 * time.Millisecond}, nil)
	t.Cleanup(e.Close)
	return e
}

func drainPlay(ch <-chan PlayUpdate) []PlayUpdate {
	var out []PlayUpdate
	for u := range ch {
		out = append(out, u)
	}
	return out
}

func TestPlaySongOrdering(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	updates, err := e.PlaySong(ctx, testSource(200), "song-1")
	if err != nil {
		t.Fatalf("PlaySong: %v", err)
	}
	got := drainPlay(updates)
	if len(got) < 2 {
		t.Fatalf("expected at least Playing and DonePlaying, got %d events: %+v", len(got), got)
	}
	if got[0].Kind != Playing {
		t.Fatalf("first event = %v, want Playing", got[0].Kind)
	}
	last := got[len(got)-1]
	if last.Kind != DonePlaying {
		t.Fatalf("last event = %v, want DonePlaying", last.Kind)
	}
	for _, mid := range got[1 : len(got)-1] {
		if mid.Kind != PlayProgress {
			t.Fatalf("middle event = %v, want PlayProgress", mid.Kind)
		}
	}
}

func TestStopIgnoresMismatchedID(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	if _, err := e.PlaySong(ctx, testSource(5000), "song-1"); err != nil {
		t.Fatalf("PlaySong: %v", err)
	}

	stopped, err := e.Stop(ctx, "song-other")
	if err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if stopped != nil {
		t.Fatalf("Stop with mismatched id returned %+v, want nil", stopped)
	}

	stopped, err = e.Stop(ctx, "song-1")
	if err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if stopped == nil {
		t.Fatal("Stop with matching id returned nil, want Stopped")
	}
}

func TestPausePlayTogglesOnlyForCurrentID(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	if _, err := e.PlaySong(ctx, testSource(5000), "song-1"); err != nil {
		t.Fatalf("PlaySong: %v", err)
	}

	if resp, err := e.PausePlay(ctx, "other"); err != nil || resp != nil {
		t.Fatalf("PausePlay(other) = %+v, %v; want nil, nil", resp, err)
	}

	resp, err := e.PausePlay(ctx, "song-1")
	if err != nil {
		t.Fatalf("PausePlay: %v", err)
	}
	if resp == nil || !resp.Paused {
		t.Fatalf("PausePlay = %+v, want Paused=true", resp)
	}

	resp, err = e.PausePlay(ctx, "song-1")
	if err != nil {
		t.Fatalf("PausePlay: %v", err)
	}
	if resp == nil || resp.Paused {
		t.Fatalf("second PausePlay = %+v, want Paused=false", resp)
	}
}

func TestSeekClampsToDuration(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	const frames = 20000 // long enough that the fake pump hasn't exhausted it by the time Seek runs
	if _, err := e.PlaySong(ctx, testSource(frames), "song-1"); err != nil {
		t.Fatalf("PlaySong: %v", err)
	}

	update, err := e.Seek(ctx, time.Hour, SeekForward)
	if err != nil {
		t.Fatalf("Seek: %v", err)
	}
	if update == nil {
		t.Fatal("Seek returned nil, want a ProgressUpdate")
	}
	wantDuration := time.Duration(frames) * time.Second / 44100
	if update.Position != wantDuration {
		t.Fatalf("Seek position = %v, want clamped duration %v", update.Position, wantDuration)
	}
	if update.ID != "song-1" {
		t.Fatalf("Seek id = %q, want song-1", update.ID)
	}
}

func TestSeekWithNoCurrentSongReturnsNil(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	update, err := e.Seek(ctx, time.Second, SeekForward)
	if err != nil {
		t.Fatalf("Seek: %v", err)
	}
	if update != nil {
		t.Fatalf("Seek with no current song = %+v, want nil", update)
	}
}

func TestIncreaseVolumeClamped(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	v, err := e.IncreaseVolume(ctx, 150)
	if err != nil {
		t.Fatalf("IncreaseVolume: %v", err)
	}
	if v.Percent != 100 {
		t.Fatalf("volume = %d, want clamped to 100", v.Percent)
	}

	v, err = e.IncreaseVolume(ctx, -1000)
	if err != nil {
		t.Fatalf("IncreaseVolume: %v", err)
	}
	if v.Percent != 0 {
		t.Fatalf("volume = %d, want clamped to 0", v.Percent)
	}
}

// TestGaplessAutoplayHandoff covers scenario S7: Play(s1,id1); Queue(s2,id2);
// wait for s1 to naturally end; Autoplay(s2,id2); expect a single
// AutoplayQueued event and no second "started playing" event, with the
// engine's current song now id2.
func TestGaplessAutoplayHandoff(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	playUpdates, err := e.PlaySong(ctx, testSource(200), "song-1")
	if err != nil {
		t.Fatalf("PlaySong: %v", err)
	}
	if _, err := e.QueueSong(ctx, testSource(200), "song-2"); err != nil {
		t.Fatalf("QueueSong: %v", err)
	}

	// Wait for song-1 to naturally finish.
	for u := range playUpdates {
		if u.Kind == DonePlaying {
			break
		}
	}

	autoplayUpdates, err := e.AutoplaySong(ctx, testSource(200), "song-2")
	if err != nil {
		t.Fatalf("AutoplaySong: %v", err)
	}
	var got []AutoplayUpdate
	for u := range autoplayUpdates {
		got = append(got, u)
	}
	if len(got) != 1 || got[0].Kind != AutoplayQueued {
		t.Fatalf("autoplay events = %+v, want exactly one AutoplayQueued", got)
	}

	// current is now song-2: Stop(song-2) should succeed, Stop(song-1) should not.
	if stopped, err := e.Stop(ctx, "song-1"); err != nil || stopped != nil {
		t.Fatalf("Stop(song-1) = %+v, %v; want nil, nil (song-1 is no longer current)", stopped, err)
	}
	if stopped, err := e.Stop(ctx, "song-2"); err != nil || stopped == nil {
		t.Fatalf("Stop(song-2) = %+v, %v; want Stopped", stopped, err)
	}
}

func TestQueueSongWithNoCurrentBecomesCurrent(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	updates, err := e.QueueSong(ctx, testSource(200), "song-1")
	if err != nil {
		t.Fatalf("QueueSong: %v", err)
	}
	var kinds []QueueUpdateKind
	for u := range updates {
		kinds = append(kinds, u.Kind)
	}
	if len(kinds) < 2 || kinds[0] != Queued || kinds[len(kinds)-1] != QueueDonePlaying {
		t.Fatalf("queue events = %+v, want Queued ... QueueDonePlaying", kinds)
	}

	if stopped, err := e.Stop(ctx, "song-1"); err != nil || stopped != nil {
		// Song already finished naturally by the time Stop runs; either a
		// clean nil (already gone) is acceptable here since we only
		// drained the channel after DonePlaying fired.
		t.Logf("Stop after natural completion: %+v, %v", stopped, err)
	}
}
