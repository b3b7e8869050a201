package asynctask

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// Sender is a frontend component's exclusive handle to the manager: the
// only way that component enqueues tasks, and the channel through which it
// receives outcomes in FIFO order.
type Sender[S any] struct {
	scope   ScopeID
	mgr     *Manager[S]
	outcome chan Outcome[S]

	closeOnce sync.Once
	done      chan struct{}
}

// NewSender allocates a scoped handle for a frontend component, registering
// a bounded outcome channel of the given capacity used to ferry outcomes
// back to it.
func (m *Manager[S]) NewSender(scopeBufferSize int) *Sender[S] {
	if scopeBufferSize <= 0 {
		scopeBufferSize = 50
	}
	return &Sender[S]{
		scope:   ScopeID(uuid.NewString()),
		mgr:     m,
		outcome: make(chan Outcome[S], scopeBufferSize),
		done:    make(chan struct{}),
	}
}

// Scope returns the sender's scope identifier, stable for its lifetime.
func (s *Sender[S]) Scope() ScopeID { return s.scope }

// Close tears the sender down: every task it spawned is cancelled, and any
// outcome already in flight toward it is dropped rather than delivered.
func (s *Sender[S]) Close() {
	s.closeOnce.Do(func() {
		close(s.done)
		s.mgr.cancelScope(s.scope)
	})
}

// Messages returns the channel a frontend component should range/select
// over to receive outcomes in the order the manager committed them.
func (s *Sender[S]) Messages() <-chan Outcome[S] { return s.outcome }

// Next blocks for the next outcome, or returns false if ctx is done or the
// sender is closed with nothing left buffered.
func (s *Sender[S]) Next(ctx context.Context) (Outcome[S], bool) {
	select {
	case out, ok := <-s.outcome:
		return out, ok
	case <-s.done:
		select {
		case out := <-s.outcome:
			return out, true
		default:
			var zero Outcome[S]
			return zero, false
		}
	case <-ctx.Done():
		var zero Outcome[S]
		return zero, false
	}
}

// Drain returns every outcome currently buffered, without blocking. This is
// the Go rendition of the reference's GetMessages() batch call.
func (s *Sender[S]) Drain() []Outcome[S] {
	var out []Outcome[S]
	for {
		select {
		case o := <-s.outcome:
			out = append(out, o)
		default:
			return out
		}
	}
}

// ApplyNext blocks for the next outcome, applies it to state, and — if the
// handler produced a follow-up task — spawns that follow-up into this
// sender's own scope, so a chain of futures advances one hop per outcome.
// It returns false once ctx is done.
func (s *Sender[S]) ApplyNext(ctx context.Context, state *S) (Outcome[S], bool) {
	out, ok := s.Next(ctx)
	if !ok {
		return out, false
	}
	s.applyAndChain(ctx, out, state)
	return out, true
}

// ApplyAll drains every currently buffered outcome, applies each in order,
// and spawns any follow-up tasks. It returns the outcomes applied.
func (s *Sender[S]) ApplyAll(ctx context.Context, state *S) []Outcome[S] {
	batch := s.Drain()
	for _, out := range batch {
		s.applyAndChain(ctx, out, state)
	}
	return batch
}

func (s *Sender[S]) applyAndChain(ctx context.Context, out Outcome[S], state *S) {
	follow, ok := out.Apply(state)
	if !ok || follow == nil {
		return
	}
	_ = s.spawn(ctx, follow)
}

// Spawn enqueues a pre-built Task directly. AddFuture/AddStream are the
// usual entry points; Spawn exists for callers that already hold a
// type-erased Task[S] built with NewFuture/NewStream — typically a
// frontend component enqueueing a task (or a pre-built chain of futures)
// that it constructed itself, outside any Mutation handler.
func (s *Sender[S]) Spawn(ctx context.Context, t Task[S]) error {
	return s.spawn(ctx, t)
}

func (s *Sender[S]) spawn(ctx context.Context, t Task[S]) error {
	select {
	case <-s.done:
		return ErrSenderClosed
	default:
	}
	return s.mgr.enqueue(ctx, spawnRequest[S]{
		scope:      s.scope,
		task:       t,
		outcomeCh:  s.outcome,
		senderDone: s.done,
	})
}

// AddFuture enqueues a single-shot task built from a backend descriptor and
// mutation handler. It is a package-level generic function, not a method on
// Sender, because Go methods cannot introduce type parameters beyond their
// receiver's.
func AddFuture[S, B, O any](ctx context.Context, s *Sender[S], d FutureDescriptor[B, O], h Mutation[S, O], c Constraint, tt TypeToken) error {
	return s.spawn(ctx, NewFuture[S, B, O](d, h, c, tt))
}

// AddStream enqueues a long-running stream task. See AddFuture.
func AddStream[S, B, O any](ctx context.Context, s *Sender[S], d StreamDescriptor[B, O], h Mutation[S, O], c Constraint, tt TypeToken) error {
	return s.spawn(ctx, NewStream[S, B, O](d, h, c, tt))
}
