package backend

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestSearchTracks(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/search" {
			t.Errorf("path = %q, want /v1/search", r.URL.Path)
		}
		if q := r.URL.Query().Get("q"); q != "daft punk" {
			t.Errorf("q = %q, want %q", q, "daft punk")
		}
		fmt.Fprint(w, `{"tracks":[{"id":"t1","title":"One More Time","artist":"Daft Punk","duration_seconds":320.5}]}`)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	tracks, err := c.SearchTracks(context.Background(), "daft punk")
	if err != nil {
		t.Fatalf("SearchTracks: %v", err)
	}
	if len(tracks) != 1 || tracks[0].ID != "t1" {
		t.Fatalf("tracks = %+v", tracks)
	}
	wantDuration := time.Duration(320.5 * float64(time.Second))
	if tracks[0].Duration != wantDuration {
		t.Fatalf("duration = %v, want %v", tracks[0].Duration, wantDuration)
	}
}

func TestSearchTracksServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprint(w, "boom")
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	if _, err := c.SearchTracks(context.Background(), "x"); err == nil {
		t.Fatal("expected error on server 500")
	}
}

func TestFetchLyrics(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/tracks/t1/lyrics" {
			t.Errorf("path = %q", r.URL.Path)
		}
		fmt.Fprint(w, `{"lyrics":"la la la"}`)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	lyrics, err := c.FetchLyrics(context.Background(), "t1")
	if err != nil {
		t.Fatalf("FetchLyrics: %v", err)
	}
	if lyrics != "la la la" {
		t.Fatalf("lyrics = %q", lyrics)
	}
}

func TestFetchStreamURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"url":"https://cdn.example.com/t1.mp3?sig=abc"}`)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	got, err := c.FetchStreamURL(context.Background(), "t1")
	if err != nil {
		t.Fatalf("FetchStreamURL: %v", err)
	}
	if got != "https://cdn.example.com/t1.mp3?sig=abc" {
		t.Fatalf("url = %q", got)
	}
}

func TestDownloadAudio(t *testing.T) {
	want := []byte{0x49, 0x44, 0x33, 0x01, 0x02, 0x03}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(want)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	got, err := c.DownloadAudio(context.Background(), srv.URL+"/audio.mp3")
	if err != nil {
		t.Fatalf("DownloadAudio: %v", err)
	}
	if len(got) != len(want) {
		t.Fatalf("got %d bytes, want %d", len(got), len(want))
	}
}

func TestDownloadAudioServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	if _, err := c.DownloadAudio(context.Background(), srv.URL+"/missing.mp3"); err == nil {
		t.Fatal("expected error on 404")
	}
}

func TestWatchQueueEvents(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		flusher, ok := w.(http.Flusher)
		if !ok {
			t.Fatal("response writer does not support flushing")
		}
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: {\"track_id\":\"t1\",\"position\":0}\n\n")
		flusher.Flush()
		fmt.Fprint(w, "data: {\"track_id\":\"t1\",\"position\":1}\n\n")
		flusher.Flush()
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 2*time.Second)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	events, err := c.WatchQueueEvents(ctx, "q1")
	if err != nil {
		t.Fatalf("WatchQueueEvents: %v", err)
	}

	var got []QueueEvent
	for ev := range events {
		got = append(got, ev)
	}
	if len(got) != 2 || got[0].Position != 0 || got[1].Position != 1 {
		t.Fatalf("events = %+v", got)
	}
}
