package tui

import (
	"context"
	"log/slog"
	"time"

	"github.com/basket/jukeboxcore/internal/asynctask"
	"github.com/basket/jukeboxcore/internal/backend"
	"github.com/basket/jukeboxcore/internal/bus"
	"github.com/basket/jukeboxcore/internal/playback"
)

// Type tokens distinguish the handful of concurrent task kinds the player
// spawns, for asynctask's BlockSameType/KillSameType constraints.
const (
	typeTokenSearch   asynctask.TypeToken = "search"
	typeTokenLyrics   asynctask.TypeToken = "lyrics"
	typeTokenStreamAt asynctask.TypeToken = "stream-url"
	typeTokenDownload asynctask.TypeToken = "download-audio"
	typeTokenWatch    asynctask.TypeToken = "watch-queue"
)

// Controller holds everything a player Model needs to turn a key press into
// a catalogue call or a playback command, and to turn a playback update
// into a bus event. It is constructed once in cmd/jukebox and handed to
// New; its fields are only ever touched from the bubbletea event loop or
// from the background goroutines it itself starts, never concurrently.
type Controller struct {
	ctx context.Context

	Client *backend.Client
	Engine *playback.Engine[string]
	Bus    *bus.Bus
	Logger *slog.Logger
}

// NewController builds a Controller. ctx is the application's root
// context: it outlives any single key press and bounds the engine calls
// Mutation handlers make, since Mutation itself carries no context.
func NewController(ctx context.Context, client *backend.Client, engine *playback.Engine[string], b *bus.Bus, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{ctx: ctx, Client: client, Engine: engine, Bus: b, Logger: logger}
}

// searchTask builds the future that searches the catalogue and stores the
// results in state.
func (c *Controller) searchTask(query string) asynctask.Task[State] {
	return asynctask.NewFuture[State, *backend.Client, []backend.Track](
		backend.SearchTracksDescriptor{Query: query},
		func(tracks []backend.Track, state *State) asynctask.Task[State] {
			state.results = tracks
			state.searchErr = ""
			return nil
		},
		asynctask.ConstraintKillSameType,
		typeTokenSearch,
	)
}

// lyricsTask builds the future that fetches lyrics for trackID.
func (c *Controller) lyricsTask(trackID string) asynctask.Task[State] {
	return asynctask.NewFuture[State, *backend.Client, string](
		backend.FetchLyricsDescriptor{TrackID: trackID},
		func(lyrics string, state *State) asynctask.Task[State] {
			state.lyricsFor = trackID
			state.lyrics = lyrics
			return nil
		},
		asynctask.ConstraintKillSameType,
		typeTokenLyrics,
	)
}

// playTask builds the chained future/future pair that resolves trackID's
// stream URL, downloads the encoded audio, and hands it to the gapless
// engine. queue selects which Engine method the final mutation calls:
// QueueSong when true, PlaySong otherwise.
func (c *Controller) playTask(trackID string, queue bool) asynctask.Task[State] {
	return asynctask.NewFuture[State, *backend.Client, string](
		backend.FetchStreamURLDescriptor{TrackID: trackID},
		func(streamURL string, state *State) asynctask.Task[State] {
			return asynctask.NewFuture[State, *backend.Client, []byte](
				backend.DownloadAudioDescriptor{URL: streamURL},
				c.startPlayback(trackID, queue),
				asynctask.ConstraintNone,
				typeTokenDownload,
			)
		},
		asynctask.ConstraintKillSameType,
		typeTokenStreamAt,
	)
}

// startPlayback returns the Mutation run once a track's audio bytes have
// been downloaded: it hands them to the playback engine and starts
// forwarding the returned update stream onto the bus.
func (c *Controller) startPlayback(trackID string, queue bool) asynctask.Mutation[State, []byte] {
	return func(data []byte, state *State) asynctask.Task[State] {
		src := playback.Source{Data: data}
		if queue {
			updates, err := c.Engine.QueueSong(c.ctx, src, trackID)
			if err != nil {
				state.playErr = err.Error()
				return nil
			}
			state.queuedID = trackID
			go c.forwardQueueUpdates(trackID, updates)
			return nil
		}
		updates, err := c.Engine.PlaySong(c.ctx, src, trackID)
		if err != nil {
			state.playErr = err.Error()
			return nil
		}
		state.nowPlayingID = trackID
		go c.forwardPlayUpdates(trackID, updates)
		return nil
	}
}

// watchQueueTask builds the long-running stream that records shared-queue
// position events for the status line.
func (c *Controller) watchQueueTask(queueID string) asynctask.Task[State] {
	return asynctask.NewStream[State, *backend.Client, backend.QueueEvent](
		backend.WatchQueueDescriptor{QueueID: queueID},
		func(ev backend.QueueEvent, state *State) asynctask.Task[State] {
			state.lastQueueEvent = ev
			return nil
		},
		asynctask.ConstraintBlockSameType,
		typeTokenWatch,
	)
}

func (c *Controller) forwardPlayUpdates(id string, updates <-chan playback.PlayUpdate) {
	for u := range updates {
		switch u.Kind {
		case playback.Playing:
			dur := time.Duration(0)
			if u.TotalDuration != nil {
				dur = *u.TotalDuration
			}
			c.Bus.Publish(bus.TopicSongStateChanged, bus.SongStateChangedEvent{SongID: id, OldStatus: "idle", NewStatus: "playing"})
			c.Bus.Publish(bus.TopicSongProgress, bus.SongProgressEvent{SongID: id, Position: 0, Duration: dur})
		case playback.PlayProgress:
			c.Bus.Publish(bus.TopicSongProgress, bus.SongProgressEvent{SongID: id, Position: u.Position})
		case playback.DonePlaying:
			c.Bus.Publish(bus.TopicSongCompleted, bus.SongStateChangedEvent{SongID: id, OldStatus: "playing", NewStatus: "done"})
		}
	}
}

func (c *Controller) forwardQueueUpdates(id string, updates <-chan playback.QueueUpdate) {
	for u := range updates {
		switch u.Kind {
		case playback.Queued:
			c.Bus.Publish(bus.TopicQueueSongQueued, bus.QueueAdvancedEvent{ToSongID: id})
		case playback.QueuePlayProgress:
			c.Bus.Publish(bus.TopicSongProgress, bus.SongProgressEvent{SongID: id, Position: u.Position})
		case playback.QueueDonePlaying:
			c.Bus.Publish(bus.TopicSongCompleted, bus.SongStateChangedEvent{SongID: id, OldStatus: "playing", NewStatus: "done"})
		}
	}
}
