// Package backend is a thin stand-in for the HTTP client to an upstream
// music catalogue API. It exists only to give internal/asynctask's task
// descriptors something real to call into: SearchTracks (a future),
// FetchLyrics (a future), and FetchStreamURL (a future) against a plain
// JSON/HTTP API, plus WatchQueueEvents (a stream) for server-sent
// position updates on a shared listening queue.
package backend
