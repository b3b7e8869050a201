package backend

import "context"

// SearchTracksDescriptor is an asynctask.FutureDescriptor[*Client, []Track].
type SearchTracksDescriptor struct {
	Query string
}

func (d SearchTracksDescriptor) IntoFuture(ctx context.Context, backend *Client) ([]Track, error) {
	return backend.SearchTracks(ctx, d.Query)
}

// FetchLyricsDescriptor is an asynctask.FutureDescriptor[*Client, string].
type FetchLyricsDescriptor struct {
	TrackID string
}

func (d FetchLyricsDescriptor) IntoFuture(ctx context.Context, backend *Client) (string, error) {
	return backend.FetchLyrics(ctx, d.TrackID)
}

// FetchStreamURLDescriptor is an asynctask.FutureDescriptor[*Client, string].
type FetchStreamURLDescriptor struct {
	TrackID string
}

func (d FetchStreamURLDescriptor) IntoFuture(ctx context.Context, backend *Client) (string, error) {
	return backend.FetchStreamURL(ctx, d.TrackID)
}

// DownloadAudioDescriptor is an asynctask.FutureDescriptor[*Client, []byte].
type DownloadAudioDescriptor struct {
	URL string
}

func (d DownloadAudioDescriptor) IntoFuture(ctx context.Context, backend *Client) ([]byte, error) {
	return backend.DownloadAudio(ctx, d.URL)
}

// WatchQueueDescriptor is an asynctask.StreamDescriptor[*Client, QueueEvent].
type WatchQueueDescriptor struct {
	QueueID string
}

func (d WatchQueueDescriptor) IntoStream(ctx context.Context, backend *Client) (<-chan QueueEvent, error) {
	return backend.WatchQueueEvents(ctx, d.QueueID)
}
