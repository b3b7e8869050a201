package otel

import "go.opentelemetry.io/otel/metric"

// Metrics holds all jukeboxcore metrics instruments.
type Metrics struct {
	TaskDuration        metric.Float64Histogram
	TasksSpawned        metric.Int64Counter
	TasksBlocked        metric.Int64Counter
	TasksKilled         metric.Int64Counter
	ActiveTasks         metric.Int64UpDownCounter
	BackendCallDuration metric.Float64Histogram
	BackendCallErrors   metric.Int64Counter
	SongPlayDuration    metric.Float64Histogram
	QueueAdvances       metric.Int64Counter
	SinkVolumeChanges   metric.Int64Counter
	DroppedBusEvents    metric.Int64Counter
}

// NewMetrics creates all metric instruments from the given meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}
	var err error

	m.TaskDuration, err = meter.Float64Histogram("jukeboxcore.task.duration",
		metric.WithDescription("Async callback task duration from spawn to outcome, in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	m.TasksSpawned, err = meter.Int64Counter("jukeboxcore.task.spawned",
		metric.WithDescription("Total tasks spawned by the callback manager"),
	)
	if err != nil {
		return nil, err
	}

	m.TasksBlocked, err = meter.Int64Counter("jukeboxcore.task.blocked",
		metric.WithDescription("Total tasks rejected by a same-type-token Block constraint"),
	)
	if err != nil {
		return nil, err
	}

	m.TasksKilled, err = meter.Int64Counter("jukeboxcore.task.killed",
		metric.WithDescription("Total in-flight tasks cancelled by a same-type-token Kill constraint"),
	)
	if err != nil {
		return nil, err
	}

	m.ActiveTasks, err = meter.Int64UpDownCounter("jukeboxcore.task.active",
		metric.WithDescription("Number of currently in-flight tasks"),
	)
	if err != nil {
		return nil, err
	}

	m.BackendCallDuration, err = meter.Float64Histogram("jukeboxcore.backend.duration",
		metric.WithDescription("Upstream catalogue API call duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	m.BackendCallErrors, err = meter.Int64Counter("jukeboxcore.backend.errors",
		metric.WithDescription("Upstream catalogue API call error count"),
	)
	if err != nil {
		return nil, err
	}

	m.SongPlayDuration, err = meter.Float64Histogram("jukeboxcore.playback.song_duration",
		metric.WithDescription("Wall-clock time a song spent as the current song, in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	m.QueueAdvances, err = meter.Int64Counter("jukeboxcore.playback.queue_advances",
		metric.WithDescription("Total gapless hand-offs from a current song to its queued follow-on"),
	)
	if err != nil {
		return nil, err
	}

	m.SinkVolumeChanges, err = meter.Int64Counter("jukeboxcore.playback.volume_changes",
		metric.WithDescription("Total IncreaseVolume calls applied to the sink"),
	)
	if err != nil {
		return nil, err
	}

	m.DroppedBusEvents, err = meter.Int64Counter("jukeboxcore.bus.dropped_events",
		metric.WithDescription("Total bus events dropped due to a full subscriber buffer"),
	)
	if err != nil {
		return nil, err
	}

	return m, nil
}
