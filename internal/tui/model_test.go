package tui

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/basket/jukeboxcore/internal/asynctask"
	"github.com/basket/jukeboxcore/internal/backend"
	"github.com/basket/jukeboxcore/internal/bus"
)

func TestInsertRunes(t *testing.T) {
	in, cursor := insertRunes([]rune("helo"), 3, []rune("l"))
	if string(in) != "hello" {
		t.Fatalf("got %q, want %q", string(in), "hello")
	}
	if cursor != 4 {
		t.Fatalf("cursor = %d, want 4", cursor)
	}
}

func TestDeleteRuneLeft(t *testing.T) {
	in, cursor := deleteRuneLeft([]rune("helllo"), 5)
	if string(in) != "hello" {
		t.Fatalf("got %q, want %q", string(in), "hello")
	}
	if cursor != 4 {
		t.Fatalf("cursor = %d, want 4", cursor)
	}

	in, cursor = deleteRuneLeft(nil, 0)
	if len(in) != 0 || cursor != 0 {
		t.Fatalf("empty delete: got (%q, %d)", string(in), cursor)
	}
}

func TestModel_ApplySongEvent(t *testing.T) {
	b := bus.New()
	m := Model{playSub: b.Subscribe("song.")}

	m.applySongEvent(bus.Event{
		Topic:   bus.TopicSongStateChanged,
		Payload: bus.SongStateChangedEvent{SongID: "t1", OldStatus: "idle", NewStatus: "playing"},
	})
	if m.nowPlaying != "t1" || m.playingState != "playing" {
		t.Fatalf("state = %+v", m)
	}

	m.applySongEvent(bus.Event{
		Topic:   bus.TopicSongProgress,
		Payload: bus.SongProgressEvent{SongID: "t1", Position: 5 * time.Second, Duration: 200 * time.Second},
	})
	if m.position != 5*time.Second || m.duration != 200*time.Second {
		t.Fatalf("progress not applied: %+v", m)
	}
}

func newTestManagerAndSender(t *testing.T, client *backend.Client) (*asynctask.Sender[State], *State) {
	t.Helper()
	mgr := asynctask.NewManager[State](asynctask.ManagerConfig{})
	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = mgr.ProcessMessages(ctx, client)
	}()
	t.Cleanup(func() {
		cancel()
		wg.Wait()
	})
	return mgr.NewSender(16), &State{}
}

func TestController_SearchTask(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"tracks":[{"id":"t1","title":"One More Time","artist":"Daft Punk","duration_seconds":10}]}`)
	}))
	defer srv.Close()

	client := backend.NewClient(srv.URL, time.Second)
	sender, state := newTestManagerAndSender(t, client)

	ctrl := &Controller{ctx: context.Background(), Client: client, Bus: bus.New()}
	if err := sender.Spawn(context.Background(), ctrl.searchTask("daft punk")); err != nil {
		t.Fatalf("Spawn: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if _, ok := sender.ApplyNext(ctx, state); !ok {
		t.Fatal("expected an outcome")
	}
	if len(state.results) != 1 || state.results[0].ID != "t1" {
		t.Fatalf("results = %+v", state.results)
	}
}

func TestController_LyricsTask(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"lyrics":"la la la"}`)
	}))
	defer srv.Close()

	client := backend.NewClient(srv.URL, time.Second)
	sender, state := newTestManagerAndSender(t, client)

	ctrl := &Controller{ctx: context.Background(), Client: client, Bus: bus.New()}
	if err := sender.Spawn(context.Background(), ctrl.lyricsTask("t1")); err != nil {
		t.Fatalf("Spawn: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if _, ok := sender.ApplyNext(ctx, state); !ok {
		t.Fatal("expected an outcome")
	}
	if state.lyricsFor != "t1" || state.lyrics != "la la la" {
		t.Fatalf("state = %+v", state)
	}
}

func TestController_PlayTask_ChainsThroughDownload(t *testing.T) {
	var gotDownload bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/tracks/t1/stream-url":
			fmt.Fprintf(w, `{"url":%q}`, "http://"+r.Host+"/audio/t1.mp3")
		case "/audio/t1.mp3":
			gotDownload = true
			w.Write([]byte{0x01, 0x02, 0x03})
		default:
			t.Errorf("unexpected path %q", r.URL.Path)
		}
	}))
	defer srv.Close()

	client := backend.NewClient(srv.URL, time.Second)
	sender, state := newTestManagerAndSender(t, client)

	// The final stage of playTask calls into the playback engine, which
	// this test does not construct (it requires a real or fake audio
	// sink — see internal/playback's own tests for that). Route the
	// chain through only the stream-url and download stages by building
	// the same two-future chain playTask builds, stopping short of the
	// engine call.
	ctrl := &Controller{ctx: context.Background(), Client: client, Bus: bus.New()}
	task := asynctask.NewFuture[State, *backend.Client, string](
		backend.FetchStreamURLDescriptor{TrackID: "t1"},
		func(streamURL string, s *State) asynctask.Task[State] {
			return asynctask.NewFuture[State, *backend.Client, []byte](
				backend.DownloadAudioDescriptor{URL: streamURL},
				func(data []byte, s *State) asynctask.Task[State] {
					s.nowPlayingID = "t1"
					return nil
				},
				asynctask.ConstraintNone,
				typeTokenDownload,
			)
		},
		asynctask.ConstraintKillSameType,
		typeTokenStreamAt,
	)
	if err := sender.Spawn(context.Background(), task); err != nil {
		t.Fatalf("Spawn: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	// First outcome resolves the stream URL and chains the download.
	if _, ok := sender.ApplyNext(ctx, state); !ok {
		t.Fatal("expected stream-url outcome")
	}
	// Second outcome resolves the download and sets nowPlayingID.
	if _, ok := sender.ApplyNext(ctx, state); !ok {
		t.Fatal("expected download outcome")
	}
	if state.nowPlayingID != "t1" {
		t.Fatalf("nowPlayingID = %q, want t1", state.nowPlayingID)
	}
	if !gotDownload {
		t.Fatal("expected download request to reach the server")
	}
	_ = ctrl
}
