package playback

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"
)

// ErrEngineClosed is returned by any operation issued after Close.
var ErrEngineClosed = errors.New("playback: engine closed")

type reqKind int

const (
	reqPlay reqKind = iota
	reqAutoplay
	reqQueue
	reqStop
	reqPausePlay
	reqSeek
	reqIncreaseVolume
	reqAdvance // internal: chainReader notified a natural transition/exhaustion
)

type request[I comparable] struct {
	kind reqKind

	id           I
	decoded      *pcmSource
	deltaPercent int
	delta        time.Duration
	dir          SeekDirection

	playUpdates     chan PlayUpdate
	autoplayUpdates chan AutoplayUpdate
	queueUpdates    chan QueueUpdate

	stopReply      chan *Stopped
	pausePlayReply chan *PausePlayResponse
	seekReply      chan *ProgressUpdate[I]
	volumeReply    chan *VolumeUpdate

	advanceReader    *chainReader
	advanceExhausted bool
}

// songSlot is one occupant of the current/queued position. emitProgress
// and emitDone are closures capturing the caller's concrete update
// channel (PlayUpdate or QueueUpdate) so the worker loop can drive any
// slot without a type switch — the same type-erasure idiom used by
// asynctask's Task[S] closures.
type songSlot[I comparable] struct {
	id       I
	source   *pcmSource
	duration *time.Duration

	emitProgress func(pos time.Duration)
	emitDone     func()
}

// Engine is the gapless playback engine for a caller-chosen song
// identifier type I. All sink interaction happens on one worker
// goroutine started by New; every exported method only ever sends a
// request and, for the four synchronous operations, waits for a reply.
type Engine[I comparable] struct {
	cfg    Config
	sink   sinkContext
	logger *slog.Logger

	reqCh     chan request[I]
	closeCh   chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// New starts the engine's worker goroutine against the given sink and
// returns immediately; call Close to stop it.
func New[I comparable](sink sinkContext, cfg Config, logger *slog.Logger) *Engine[I] {
	cfg = cfg.withDefaults()
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	e := &Engine[I]{
		cfg:     cfg,
		sink:    sink,
		logger:  logger,
		reqCh:   make(chan request[I], cfg.RequestBufferSize),
		closeCh: make(chan struct{}),
	}
	w := &worker[I]{engine: e, volume: 100}
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		w.run()
	}()
	return e
}

// Close stops the worker, closing out whatever is playing. It may be
// called multiple times.
func (e *Engine[I]) Close() {
	e.closeOnce.Do(func() { close(e.closeCh) })
	e.wg.Wait()
}

func (e *Engine[I]) send(ctx context.Context, req request[I]) error {
	select {
	case e.reqCh <- req:
		return nil
	case <-e.closeCh:
		return ErrEngineClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// PlaySong stops anything currently playing and begins playing source
// under id. The decoder runs synchronously in the caller's goroutine, so
// a malformed source returns an error with no engine state change.
func (e *Engine[I]) PlaySong(ctx context.Context, src Source, id I) (<-chan PlayUpdate, error) {
	pcm, err := decodeFunc(src.Data)
	if err != nil {
		return nil, err
	}
	updates := make(chan PlayUpdate, e.cfg.UpdateBufferSize)
	req := request[I]{kind: reqPlay, id: id, decoded: pcm, playUpdates: updates}
	if err := e.send(ctx, req); err != nil {
		return nil, err
	}
	return updates, nil
}

// AutoplaySong behaves like PlaySong unless id is already the current or
// queued song, in which case it is a pure bookkeeping promotion (or
// no-op) and never touches the sink.
func (e *Engine[I]) AutoplaySong(ctx context.Context, src Source, id I) (<-chan AutoplayUpdate, error) {
	// The decoded source is only used if id turns out to match neither
	// the current nor queued song; decode lazily isn't possible once
	// we're on the worker goroutine (it must not block on CPU-heavy
	// decode while the sink waits), so decode eagerly here and let the
	// worker discard it when unused.
	pcm, err := decodeFunc(src.Data)
	if err != nil {
		return nil, err
	}
	updates := make(chan AutoplayUpdate, e.cfg.UpdateBufferSize)
	req := request[I]{kind: reqAutoplay, id: id, decoded: pcm, autoplayUpdates: updates}
	if err := e.send(ctx, req); err != nil {
		return nil, err
	}
	return updates, nil
}

// QueueSong appends source as the song to follow the current one
// gaplessly, replacing any song already queued. With no current song,
// source starts playing at once, reported through the returned
// QueueUpdate stream.
func (e *Engine[I]) QueueSong(ctx context.Context, src Source, id I) (<-chan QueueUpdate, error) {
	pcm, err := decodeFunc(src.Data)
	if err != nil {
		return nil, err
	}
	updates := make(chan QueueUpdate, e.cfg.UpdateBufferSize)
	req := request[I]{kind: reqQueue, id: id, decoded: pcm, queueUpdates: updates}
	if err := e.send(ctx, req); err != nil {
		return nil, err
	}
	return updates, nil
}

// Stop stops output and clears both slots if id is the current song;
// otherwise it is a no-op and returns nil.
func (e *Engine[I]) Stop(ctx context.Context, id I) (*Stopped, error) {
	reply := make(chan *Stopped, 1)
	if err := e.send(ctx, request[I]{kind: reqStop, id: id, stopReply: reply}); err != nil {
		return nil, err
	}
	return awaitReply(ctx, e.closeCh, reply)
}

// PausePlay toggles pause iff id is the current song.
func (e *Engine[I]) PausePlay(ctx context.Context, id I) (*PausePlayResponse, error) {
	reply := make(chan *PausePlayResponse, 1)
	if err := e.send(ctx, request[I]{kind: reqPausePlay, id: id, pausePlayReply: reply}); err != nil {
		return nil, err
	}
	return awaitReply(ctx, e.closeCh, reply)
}

// Seek adjusts the current song's playhead by delta in the given
// direction, clamped to [0, duration]. Returns nil if no song is loaded.
func (e *Engine[I]) Seek(ctx context.Context, delta time.Duration, dir SeekDirection) (*ProgressUpdate[I], error) {
	reply := make(chan *ProgressUpdate[I], 1)
	req := request[I]{kind: reqSeek, delta: delta, dir: dir, seekReply: reply}
	if err := e.send(ctx, req); err != nil {
		return nil, err
	}
	return awaitReply(ctx, e.closeCh, reply)
}

// IncreaseVolume adjusts sink volume by deltaPercent, clamped to
// [0, 100], and returns the resulting percent. deltaPercent may be
// negative to lower the volume.
func (e *Engine[I]) IncreaseVolume(ctx context.Context, deltaPercent int) (*VolumeUpdate, error) {
	reply := make(chan *VolumeUpdate, 1)
	req := request[I]{kind: reqIncreaseVolume, deltaPercent: deltaPercent, volumeReply: reply}
	if err := e.send(ctx, req); err != nil {
		return nil, err
	}
	return awaitReply(ctx, e.closeCh, reply)
}

func awaitReply[T any](ctx context.Context, closeCh <-chan struct{}, reply <-chan *T) (*T, error) {
	select {
	case r := <-reply:
		return r, nil
	case <-closeCh:
		return nil, ErrEngineClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func clampPercent(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
