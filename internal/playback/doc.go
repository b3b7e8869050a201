// Package playback is the gapless playback engine: a request/response
// wrapper around a single audio sink that exposes every operation as a
// stream of progress/state events keyed by a caller-supplied song
// identifier, with at-most-one active song, a single queued follow-on, and
// gapless autoplay hand-off.
//
// Every sink interaction is funneled through one dedicated worker
// goroutine, because the underlying oto player handle is not safe to share
// across goroutines.
package playback
