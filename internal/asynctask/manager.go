package asynctask

import (
	"context"
	"log/slog"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// ManagerConfig tunes the manager's intake and observability.
type ManagerConfig struct {
	// IntakeBufferSize bounds how many not-yet-spawned task requests may
	// queue before AddFuture/AddStream return ErrBackpressureOrClosed.
	// Requests enqueued after ProcessMessages has returned are accepted
	// while this buffer has room and are never spawned.
	IntakeBufferSize int
	// ResultsBufferSize bounds the shared worker-to-manager results
	// channel. 0 uses a sane default.
	ResultsBufferSize int
	// Tracer instruments one span per spawned task. A no-op tracer is
	// used if nil.
	Tracer trace.Tracer
	// Logger receives structured spawn/block/kill/panic events. A
	// discard logger is used if nil.
	Logger *slog.Logger
}

// TaskMeta describes a task at spawn time, passed to OnTaskSpawn observers.
type TaskMeta struct {
	TaskID    TaskID
	Scope     ScopeID
	TypeToken TypeToken
	Kind      TaskKind
}

type spawnRequest[S any] struct {
	scope      ScopeID
	task       Task[S]
	outcomeCh  chan Outcome[S]
	senderDone <-chan struct{}
}

type activeEntry[S any] struct {
	scope      ScopeID
	typeToken  TypeToken
	cancel     context.CancelFunc
	outcomeCh  chan Outcome[S]
	senderDone <-chan struct{}
	span       trace.Span
}

// Manager drives task spawning, constraint enforcement, cancellation, and
// outcome delivery for every Sender created from it. It is generic only
// over the frontend state type S — backend and per-task value types are
// erased behind Task[S] and recovered via type assertions built into
// NewFuture/NewStream.
type Manager[S any] struct {
	cfg ManagerConfig
	ids taskIDAllocator

	intake  chan spawnRequest[S]
	results chan rawOutcome[S]

	mu     sync.Mutex
	active map[TaskID]*activeEntry[S]

	onSpawnMu sync.Mutex
	onSpawn   func(TaskMeta)

	logger *slog.Logger
	tracer trace.Tracer
}

// NewManager constructs a Manager. Call ProcessMessages in its own
// goroutine to drive it; nothing is spawned or delivered otherwise.
func NewManager[S any](cfg ManagerConfig) *Manager[S] {
	if cfg.IntakeBufferSize <= 0 {
		cfg.IntakeBufferSize = 50
	}
	if cfg.ResultsBufferSize <= 0 {
		cfg.ResultsBufferSize = 64
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(discardWriter{}, nil))
	}
	tracer := cfg.Tracer
	if tracer == nil {
		tracer = noop.NewTracerProvider().Tracer("asynctask")
	}
	return &Manager[S]{
		cfg:     cfg,
		intake:  make(chan spawnRequest[S], cfg.IntakeBufferSize),
		results: make(chan rawOutcome[S], cfg.ResultsBufferSize),
		active:  make(map[TaskID]*activeEntry[S]),
		logger:  logger,
		tracer:  tracer,
	}
}

// OnTaskSpawn registers an observer invoked synchronously, once per
// accepted spawn (i.e. not for tasks dropped by BlockSameType). Intended
// for telemetry and tests.
func (m *Manager[S]) OnTaskSpawn(fn func(TaskMeta)) {
	m.onSpawnMu.Lock()
	defer m.onSpawnMu.Unlock()
	m.onSpawn = fn
}

// ProcessMessages is the manager's dispatch loop: it consumes newly
// enqueued task requests, applies their constraint, spawns accepted ones
// against backend, and forwards produced outcomes to their owning
// Sender. It blocks until ctx is cancelled, at which point every active
// task is cancelled and the loop returns ctx.Err().
func (m *Manager[S]) ProcessMessages(ctx context.Context, backend any) error {
	for {
		select {
		case <-ctx.Done():
			m.cancelAll()
			return ctx.Err()
		case req := <-m.intake:
			m.handleSpawnRequest(ctx, backend, req)
		case out := <-m.results:
			m.deliver(out)
		}
	}
}

func (m *Manager[S]) handleSpawnRequest(ctx context.Context, backend any, req spawnRequest[S]) {
	tt := req.task.typeToken()
	scope := req.scope

	m.mu.Lock()
	switch req.task.constraint() {
	case ConstraintBlockSameType:
		for _, e := range m.active {
			if e.scope == scope && e.typeToken == tt {
				m.mu.Unlock()
				m.logger.Debug("asynctask: dropped by block-same-type", "scope", scope, "type_token", tt)
				return
			}
		}
	case ConstraintKillSameType:
		for id, e := range m.active {
			if e.scope == scope && e.typeToken == tt {
				e.cancel()
				if e.span != nil {
					e.span.End()
				}
				delete(m.active, id)
				m.logger.Debug("asynctask: killed same-type active task", "task_id", id, "scope", scope, "type_token", tt)
			}
		}
	}

	id := m.ids.allocate()
	taskCtx, cancel := context.WithCancel(ctx)
	spanCtx, span := m.tracer.Start(taskCtx, "asynctask.task",
		trace.WithAttributes(
			attribute.Int64("asynctask.task_id", int64(id)),
			attribute.String("asynctask.scope", string(scope)),
			attribute.String("asynctask.type_token", string(tt)),
			attribute.String("asynctask.kind", req.task.kind().String()),
		),
	)
	m.active[id] = &activeEntry[S]{
		scope:      scope,
		typeToken:  tt,
		cancel:     cancel,
		outcomeCh:  req.outcomeCh,
		senderDone: req.senderDone,
		span:       span,
	}
	m.mu.Unlock()

	m.onSpawnMu.Lock()
	onSpawn := m.onSpawn
	m.onSpawnMu.Unlock()
	if onSpawn != nil {
		onSpawn(TaskMeta{TaskID: id, Scope: scope, TypeToken: tt, Kind: req.task.kind()})
	}

	m.logger.Debug("asynctask: spawned", "task_id", id, "scope", scope, "type_token", tt, "kind", req.task.kind())
	req.task.spawn(spanCtx, backend, id, scope, m.results)
}

func (m *Manager[S]) deliver(raw rawOutcome[S]) {
	m.mu.Lock()
	entry, ok := m.active[raw.taskID]
	if ok && raw.terminal {
		delete(m.active, raw.taskID)
	}
	m.mu.Unlock()
	if !ok {
		// The task was already evicted (killed) before this outcome was
		// committed; per the cancellation contract, it must not be
		// delivered.
		return
	}
	if raw.terminal && entry.span != nil {
		entry.span.End()
	}

	outcome := raw.toOutcome()
	select {
	case entry.outcomeCh <- outcome:
	case <-entry.senderDone:
		// The owning Sender was closed while this send was pending: drop
		// the item, matching "drop pending items for that scope" on
		// sender teardown.
	}
}

func (m *Manager[S]) cancelAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, e := range m.active {
		e.cancel()
		if e.span != nil {
			e.span.End()
		}
		delete(m.active, id)
	}
}

// cancelScope cancels every active task belonging to scope. Used when a
// Sender is closed by its owning frontend component.
func (m *Manager[S]) cancelScope(scope ScopeID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, e := range m.active {
		if e.scope == scope {
			e.cancel()
			if e.span != nil {
				e.span.End()
			}
			delete(m.active, id)
		}
	}
}

func (m *Manager[S]) enqueue(ctx context.Context, req spawnRequest[S]) error {
	select {
	case m.intake <- req:
		return nil
	case <-ctx.Done():
		return ErrBackpressureOrClosed
	default:
		// Saturated: the intake buffer is full, so the request is refused.
		return ErrBackpressureOrClosed
	}
}

type discardWriter struct{}

func (discardWriter) Write(p []byte) (int, error) { return len(p), nil }
