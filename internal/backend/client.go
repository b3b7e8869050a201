package backend

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// Track is the catalogue's view of a single song.
type Track struct {
	ID              string        `json:"id"`
	Title           string        `json:"title"`
	Artist          string        `json:"artist"`
	Duration        time.Duration `json:"-"`
	DurationSeconds float64       `json:"duration_seconds"`
}

// QueueEvent is one position update on a shared listening queue,
// delivered over a server-sent-events style stream.
type QueueEvent struct {
	TrackID  string `json:"track_id"`
	Position int    `json:"position"`
}

// Client is a minimal JSON/HTTP client for the upstream catalogue API.
// It is deliberately thin: just enough surface for task descriptors in
// cmd/jukebox to call into, standing in for "the HTTP client to the
// upstream music API."
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// NewClient builds a Client against baseURL with the given request
// timeout applied per call.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
	}
}

// SearchTracks queries the catalogue for tracks matching query.
func (c *Client) SearchTracks(ctx context.Context, query string) ([]Track, error) {
	u := c.baseURL + "/v1/search?q=" + url.QueryEscape(query)
	var result struct {
		Tracks []Track `json:"tracks"`
	}
	if err := c.getJSON(ctx, u, &result); err != nil {
		return nil, fmt.Errorf("backend: search tracks: %w", err)
	}
	for i := range result.Tracks {
		result.Tracks[i].Duration = time.Duration(result.Tracks[i].DurationSeconds * float64(time.Second))
	}
	return result.Tracks, nil
}

// FetchLyrics fetches the lyrics text for trackID, if the catalogue has any.
func (c *Client) FetchLyrics(ctx context.Context, trackID string) (string, error) {
	u := c.baseURL + "/v1/tracks/" + url.PathEscape(trackID) + "/lyrics"
	var result struct {
		Lyrics string `json:"lyrics"`
	}
	if err := c.getJSON(ctx, u, &result); err != nil {
		return "", fmt.Errorf("backend: fetch lyrics: %w", err)
	}
	return result.Lyrics, nil
}

// FetchStreamURL resolves a short-lived, signed URL the caller can
// download/stream trackID's encoded audio from.
func (c *Client) FetchStreamURL(ctx context.Context, trackID string) (string, error) {
	u := c.baseURL + "/v1/tracks/" + url.PathEscape(trackID) + "/stream-url"
	var result struct {
		URL string `json:"url"`
	}
	if err := c.getJSON(ctx, u, &result); err != nil {
		return "", fmt.Errorf("backend: fetch stream url: %w", err)
	}
	return result.URL, nil
}

// WatchQueueEvents opens a server-sent-events stream of position updates
// for a shared listening queue, and returns a channel of decoded events.
// The channel is closed when ctx is cancelled or the stream ends.
func (c *Client) WatchQueueEvents(ctx context.Context, queueID string) (<-chan QueueEvent, error) {
	u := c.baseURL + "/v1/queues/" + url.PathEscape(queueID) + "/events"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("backend: watch queue events: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("backend: watch queue events: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("backend: watch queue events: server returned %s", resp.Status)
	}

	events := make(chan QueueEvent, 16)
	go func() {
		defer close(events)
		defer resp.Body.Close()
		scanner := bufio.NewScanner(resp.Body)
		for scanner.Scan() {
			line := scanner.Bytes()
			const prefix = "data: "
			if len(line) <= len(prefix) || string(line[:len(prefix)]) != prefix {
				continue
			}
			var ev QueueEvent
			if err := json.Unmarshal(line[len(prefix):], &ev); err != nil {
				continue
			}
			select {
			case events <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()
	return events, nil
}

// DownloadAudio fetches the raw encoded-audio bytes at streamURL, as
// resolved by a prior FetchStreamURL call.
func (c *Client) DownloadAudio(ctx context.Context, streamURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, streamURL, nil)
	if err != nil {
		return nil, fmt.Errorf("backend: download audio: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("backend: download audio: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("backend: download audio: server returned %s: %s", resp.Status, truncate(body))
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("backend: download audio: %w", err)
	}
	return data, nil
}

func (c *Client) getJSON(ctx context.Context, u string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("server returned %s: %s", resp.Status, truncate(body))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func truncate(b []byte) string {
	const max = 200
	if len(b) > max {
		return string(b[:max]) + "..."
	}
	return string(b)
}
