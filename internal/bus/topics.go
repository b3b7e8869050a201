package bus

// Sink alert topic.
const (
	TopicSinkAlert = "sink.alert"
)

// Backend alert topic, published when a call into internal/backend fails
// in a way callers should know about beyond the immediate error return,
// such as a dropped WatchQueueEvents stream.
const (
	TopicBackendAlert = "backend.alert"
)

// SinkAlertEvent is published when the audio sink needs to surface a
// problem to operators — a device open failure, an unexpected close, or
// similar.
type SinkAlertEvent struct {
	Severity string // "info", "warning", or "error"
	Message  string
}

// BackendAlertEvent is published when a backend call degrades or fails
// outside the normal error-return path.
type BackendAlertEvent struct {
	Severity string // "info", "warning", or "error"
	Message  string
}
