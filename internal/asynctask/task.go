package asynctask

import (
	"context"
	"runtime/debug"
)

// FutureDescriptor is the "into-future" capability a backend task
// descriptor provides: consume a borrow of the shared backend and produce
// exactly one value. B is the concrete backend handle type the frontend
// component defined; O is the value it produces.
type FutureDescriptor[B, O any] interface {
	IntoFuture(ctx context.Context, backend B) (O, error)
}

// StreamDescriptor is the "into-stream" capability: consume a borrow of the
// shared backend and produce a channel of values, closed when the
// underlying sequence is exhausted.
type StreamDescriptor[B, O any] interface {
	IntoStream(ctx context.Context, backend B) (<-chan O, error)
}

// Mutation is a pure function from a produced value and exclusive access to
// frontend state to an optional follow-up Task. A nil return means no
// follow-up — Go's nil interface value is the natural fit for "nothing
// chains next", so no separate sentinel type is needed.
type Mutation[S, O any] func(value O, state *S) Task[S]

// Task is a type-erased unit of work a Sender can enqueue: it knows its own
// constraint and type token, and how to spawn itself against a backend
// handle (erased to `any` here; the concrete spawn closure built by
// NewFuture/NewStream recovers the real backend type via a type assertion
// before calling the descriptor).
type Task[S any] interface {
	constraint() Constraint
	typeToken() TypeToken
	kind() TaskKind
	spawn(ctx context.Context, backend any, id TaskID, scope ScopeID, results chan<- rawOutcome[S])
}

type futureTask[S, B, O any] struct {
	d  FutureDescriptor[B, O]
	h  Mutation[S, O]
	c  Constraint
	tt TypeToken
}

// NewFuture builds a single-shot Task from a backend descriptor and a
// mutation handler. The returned Task produces exactly one MutationReceived
// outcome (or a single TaskPanicked if the descriptor panics or returns an
// error) before terminating.
func NewFuture[S, B, O any](d FutureDescriptor[B, O], h Mutation[S, O], c Constraint, tt TypeToken) Task[S] {
	return &futureTask[S, B, O]{d: d, h: h, c: c, tt: tt}
}

func (t *futureTask[S, B, O]) constraint() Constraint { return t.c }
func (t *futureTask[S, B, O]) typeToken() TypeToken    { return t.tt }
func (t *futureTask[S, B, O]) kind() TaskKind          { return KindFuture }

func (t *futureTask[S, B, O]) spawn(ctx context.Context, backend any, id TaskID, scope ScopeID, results chan<- rawOutcome[S]) {
	b, _ := backend.(B)
	go func() {
		defer recoverInto(ctx, results, id, scope, true)

		value, err := t.d.IntoFuture(ctx, b)
		if err != nil {
			// Descriptor failure is surfaced through the same captured-panic
			// channel as a genuine runtime panic, so the single deferred
			// recover above does the capturing uniformly.
			panic(err)
		}
		if ctx.Err() != nil {
			// Cancellation was committed before the value could be
			// delivered; the manager guarantees no delivery past this
			// point.
			return
		}

		h := t.h
		outcome := rawOutcome[S]{
			taskID: id,
			scope:  scope,
			kind:   MutationReceived,
			apply: func(state *S) (Task[S], bool) {
				follow := h(value, state)
				return follow, follow != nil
			},
			terminal: true,
		}
		select {
		case results <- outcome:
		case <-ctx.Done():
		}
	}()
}

type streamTask[S, B, O any] struct {
	d  StreamDescriptor[B, O]
	h  Mutation[S, O]
	c  Constraint
	tt TypeToken
}

// NewStream builds a long-running Task from a backend stream descriptor and
// a mutation handler applied to each produced item. The returned Task
// produces zero or more MutationReceived outcomes followed by exactly one
// terminal StreamFinished (normal exhaustion) or StreamPanicked outcome.
func NewStream[S, B, O any](d StreamDescriptor[B, O], h Mutation[S, O], c Constraint, tt TypeToken) Task[S] {
	return &streamTask[S, B, O]{d: d, h: h, c: c, tt: tt}
}

func (t *streamTask[S, B, O]) constraint() Constraint { return t.c }
func (t *streamTask[S, B, O]) typeToken() TypeToken    { return t.tt }
func (t *streamTask[S, B, O]) kind() TaskKind          { return KindStream }

func (t *streamTask[S, B, O]) spawn(ctx context.Context, backend any, id TaskID, scope ScopeID, results chan<- rawOutcome[S]) {
	b, _ := backend.(B)
	go func() {
		defer recoverInto(ctx, results, id, scope, false)

		items, err := t.d.IntoStream(ctx, b)
		if err != nil {
			panic(err)
		}

		h := t.h
		for {
			if ctx.Err() != nil {
				return
			}
			select {
			case <-ctx.Done():
				return
			case item, ok := <-items:
				if !ok {
					select {
					case results <- rawOutcome[S]{taskID: id, scope: scope, kind: StreamFinished, terminal: true}:
					case <-ctx.Done():
					}
					return
				}
				outcome := rawOutcome[S]{
					taskID: id,
					scope:  scope,
					kind:   MutationReceived,
					apply: func(state *S) (Task[S], bool) {
						follow := h(item, state)
						return follow, follow != nil
					},
				}
				select {
				case results <- outcome:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
}

// recoverInto is the shared panic-capture boundary for both task kinds.
func recoverInto[S any](ctx context.Context, results chan<- rawOutcome[S], id TaskID, scope ScopeID, future bool) {
	r := recover()
	if r == nil {
		return
	}
	kind := StreamPanicked
	if future {
		kind = TaskPanicked
	}
	out := rawOutcome[S]{
		taskID:   id,
		scope:    scope,
		kind:     kind,
		panicErr: newPanicError(r, debug.Stack()),
		terminal: true,
	}
	select {
	case results <- out:
	case <-ctx.Done():
	}
}
