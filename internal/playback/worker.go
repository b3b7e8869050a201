package playback

import "time"

// worker owns every sink interaction; it runs on exactly one goroutine
// for the engine's lifetime, started by New and stopped by Close. The
// sink's player handle is never touched from any other goroutine.
type worker[I comparable] struct {
	engine *Engine[I]

	player sinkPlayer
	reader *chainReader

	current *songSlot[I]
	queued  *songSlot[I]

	volume int // percent, [0, 100]
}

func (w *worker[I]) run() {
	e := w.engine
	ticker := time.NewTicker(e.cfg.ProgressInterval)
	defer ticker.Stop()
	for {
		select {
		case <-e.closeCh:
			w.shutdown()
			return
		case req := <-e.reqCh:
			w.handle(req)
		case <-ticker.C:
			w.tick()
		}
	}
}

func (w *worker[I]) shutdown() {
	if w.current != nil {
		w.current.emitDone()
	}
	if w.queued != nil {
		w.queued.emitDone()
	}
	if w.player != nil {
		_ = w.player.Close()
	}
	w.player, w.reader, w.current, w.queued = nil, nil, nil, nil
}

func (w *worker[I]) tick() {
	if w.current == nil || w.reader == nil {
		return
	}
	w.current.emitProgress(w.current.source.Position())
}

func (w *worker[I]) handle(req request[I]) {
	switch req.kind {
	case reqPlay:
		w.handlePlay(req)
	case reqAutoplay:
		w.handleAutoplay(req)
	case reqQueue:
		w.handleQueue(req)
	case reqStop:
		w.handleStop(req)
	case reqPausePlay:
		w.handlePausePlay(req)
	case reqSeek:
		w.handleSeek(req)
	case reqIncreaseVolume:
		w.handleVolume(req)
	case reqAdvance:
		w.handleAdvance(req)
	}
}

func (w *worker[I]) handlePlay(req request[I]) {
	w.teardownCurrent()
	dur := req.decoded.Duration()
	trySend(req.playUpdates, PlayUpdate{Kind: Playing, TotalDuration: &dur})

	updates := req.playUpdates
	doneOnce := onceFunc(func() {
		trySend(updates, PlayUpdate{Kind: DonePlaying})
		close(updates)
	})
	slot := &songSlot[I]{
		id:       req.id,
		source:   req.decoded,
		duration: &dur,
		emitProgress: func(pos time.Duration) {
			trySend(updates, PlayUpdate{Kind: PlayProgress, Position: pos})
		},
		emitDone: doneOnce,
	}
	w.startFresh(slot)
}

func (w *worker[I]) handleAutoplay(req request[I]) {
	if w.current != nil && w.current.id == req.id {
		trySend(req.autoplayUpdates, AutoplayUpdate{Kind: AutoplayQueued})
		close(req.autoplayUpdates)
		return
	}
	if w.queued != nil && w.queued.id == req.id {
		if _, ok := w.reader.forceAdvance(); ok {
			if w.current != nil {
				w.current.emitDone()
			}
			w.current = w.queued
			w.queued = nil
		}
		trySend(req.autoplayUpdates, AutoplayUpdate{Kind: AutoplayQueued})
		close(req.autoplayUpdates)
		return
	}

	w.teardownCurrent()
	dur := req.decoded.Duration()
	trySend(req.autoplayUpdates, AutoplayUpdate{Kind: AutoplayPlaying, TotalDuration: &dur})

	updates := req.autoplayUpdates
	doneOnce := onceFunc(func() {
		trySend(updates, AutoplayUpdate{Kind: AutoplayDonePlaying})
		close(updates)
	})
	slot := &songSlot[I]{
		id:       req.id,
		source:   req.decoded,
		duration: &dur,
		emitProgress: func(pos time.Duration) {
			trySend(updates, AutoplayUpdate{Kind: AutoplayProgress, Position: pos})
		},
		emitDone: doneOnce,
	}
	w.startFresh(slot)
}

func (w *worker[I]) handleQueue(req request[I]) {
	dur := req.decoded.Duration()

	if w.current == nil {
		// Nothing is playing: there is no predecessor to queue behind, so
		// this song becomes the current one instead, reported through the
		// same QueueUpdate stream the caller is holding.
		trySend(req.queueUpdates, QueueUpdate{Kind: Queued, TotalDuration: &dur})
		updates := req.queueUpdates
		doneOnce := onceFunc(func() {
			trySend(updates, QueueUpdate{Kind: QueueDonePlaying})
			close(updates)
		})
		slot := &songSlot[I]{
			id:       req.id,
			source:   req.decoded,
			duration: &dur,
			emitProgress: func(pos time.Duration) {
				trySend(updates, QueueUpdate{Kind: QueuePlayProgress, Position: pos})
			},
			emitDone: doneOnce,
		}
		w.startFresh(slot)
		return
	}

	if w.queued != nil {
		// Replacing an already-queued song: its stream never played, so
		// its only lifecycle event is its own termination.
		w.queued.emitDone()
	}

	trySend(req.queueUpdates, QueueUpdate{Kind: Queued, TotalDuration: &dur})
	updates := req.queueUpdates
	doneOnce := onceFunc(func() {
		trySend(updates, QueueUpdate{Kind: QueueDonePlaying})
		close(updates)
	})
	slot := &songSlot[I]{
		id:       req.id,
		source:   req.decoded,
		duration: &dur,
		emitProgress: func(pos time.Duration) {
			trySend(updates, QueueUpdate{Kind: QueuePlayProgress, Position: pos})
		},
		emitDone: doneOnce,
	}
	w.queued = slot
	w.reader.setNext(req.decoded)
}

func (w *worker[I]) handleStop(req request[I]) {
	if w.current == nil || w.current.id != req.id {
		req.stopReply <- nil
		return
	}
	w.teardownCurrent()
	req.stopReply <- &Stopped{}
}

func (w *worker[I]) handlePausePlay(req request[I]) {
	if w.current == nil || w.current.id != req.id || w.player == nil {
		req.pausePlayReply <- nil
		return
	}
	var paused bool
	if w.player.IsPlaying() {
		w.player.Pause()
		paused = true
	} else {
		w.player.Play()
		paused = false
	}
	req.pausePlayReply <- &PausePlayResponse{Paused: paused}
}

func (w *worker[I]) handleSeek(req request[I]) {
	if w.current == nil {
		req.seekReply <- nil
		return
	}
	w.current.source.SeekBy(req.delta, req.dir)
	// The sink reports a stale position if queried immediately after a
	// seek; sleeping briefly first is a known, documented workaround.
	time.Sleep(5 * time.Millisecond)
	pos := w.current.source.Position()
	req.seekReply <- &ProgressUpdate[I]{ID: w.current.id, Position: pos}
}

func (w *worker[I]) handleVolume(req request[I]) {
	w.volume = clampPercent(w.volume + req.deltaPercent)
	if w.player != nil {
		w.player.SetVolume(float64(w.volume) / 100)
	}
	req.volumeReply <- &VolumeUpdate{Percent: w.volume}
}

func (w *worker[I]) handleAdvance(req request[I]) {
	if req.advanceReader != w.reader {
		return // stale event from a reader this worker has since replaced
	}
	if w.current != nil {
		w.current.emitDone()
	}
	if req.advanceExhausted {
		if w.player != nil {
			_ = w.player.Close()
		}
		w.player, w.reader, w.current, w.queued = nil, nil, nil, nil
		return
	}
	w.current = w.queued
	w.queued = nil
}

// startFresh discards whatever was playing and installs slot as the sole
// occupant of a brand-new player/reader pair.
func (w *worker[I]) startFresh(slot *songSlot[I]) {
	reader := newChainReader(slot.source)
	reqCh := w.engine.reqCh
	reader.onAdvance = func(*pcmSource) {
		trySend(reqCh, request[I]{kind: reqAdvance, advanceReader: reader})
	}
	reader.onExhausted = func() {
		trySend(reqCh, request[I]{kind: reqAdvance, advanceReader: reader, advanceExhausted: true})
	}

	player := w.engine.sink.NewPlayer(reader)
	player.SetVolume(float64(w.volume) / 100)
	player.Play()

	w.player = player
	w.reader = reader
	w.current = slot
	w.queued = nil
}

func (w *worker[I]) teardownCurrent() {
	if w.current != nil {
		w.current.emitDone()
	}
	if w.queued != nil {
		w.queued.emitDone()
		w.queued = nil
	}
	if w.player != nil {
		_ = w.player.Close()
		w.player = nil
	}
	w.reader = nil
	w.current = nil
}

func trySend[T any](ch chan T, v T) bool {
	select {
	case ch <- v:
		return true
	default:
		return false
	}
}

// onceFunc wraps fn so only its first invocation runs; later calls are
// no-ops. Unlike sync.Once, this never blocks a second caller on the
// first call's completion, which matters here because emitDone may be
// invoked from more than one teardown path (e.g. Stop racing a natural
// advance) and must never double-close a channel.
func onceFunc(fn func()) func() {
	var done bool
	return func() {
		if done {
			return
		}
		done = true
		fn()
	}
}
