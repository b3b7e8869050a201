package asynctask

// OutcomeKind tags which of the four task-outcome variants an Outcome
// carries.
type OutcomeKind int

const (
	// MutationReceived carries a value produced by a task; applying it
	// invokes the task's handler against frontend state.
	MutationReceived OutcomeKind = iota
	// StreamFinished reports that a stream task's source was exhausted.
	StreamFinished
	// TaskPanicked reports that a future task's descriptor panicked (or
	// returned an error, which this package surfaces the same way — see
	// task.go).
	TaskPanicked
	// StreamPanicked reports that a stream task's descriptor panicked
	// mid-stream; no further items follow for that task.
	StreamPanicked
)

func (k OutcomeKind) String() string {
	switch k {
	case MutationReceived:
		return "mutation-received"
	case StreamFinished:
		return "stream-finished"
	case TaskPanicked:
		return "task-panicked"
	case StreamPanicked:
		return "stream-panicked"
	default:
		return "unknown"
	}
}

// Outcome is one event produced by a task, addressed to the Sender that
// spawned it. A frontend component applies it against its own state with
// Apply; applying is the only place a task's Mutation handler runs.
type Outcome[S any] struct {
	taskID TaskID
	scope  ScopeID
	kind   OutcomeKind
	apply  func(state *S) (Task[S], bool)
	panic  *PanicError
}

// TaskID returns the identifier of the task this outcome belongs to.
func (o Outcome[S]) TaskID() TaskID { return o.taskID }

// Kind reports which outcome variant this is.
func (o Outcome[S]) Kind() OutcomeKind { return o.kind }

// Panic returns the captured panic payload for TaskPanicked/StreamPanicked
// outcomes, or nil otherwise.
func (o Outcome[S]) Panic() *PanicError { return o.panic }

// Apply invokes the outcome's stored handler (if this is a
// MutationReceived outcome) against state, returning an optional follow-up
// Task and whether one was produced. It is a no-op returning (nil, false)
// for every other outcome kind. Apply must only ever be called by the code
// that owns state — the manager never calls it.
func (o Outcome[S]) Apply(state *S) (Task[S], bool) {
	if o.apply == nil {
		return nil, false
	}
	return o.apply(state)
}

// rawOutcome is the internal message a worker goroutine sends back to the
// manager's dispatch loop over the single results channel shared by every
// in-flight task. Besides the public fields it carries terminal, which the
// manager uses to evict the task and end its span; it is converted into a
// public Outcome[S] right before being forwarded to the owning Sender.
type rawOutcome[S any] struct {
	taskID   TaskID
	scope    ScopeID
	kind     OutcomeKind
	apply    func(state *S) (Task[S], bool)
	panicErr *PanicError
	terminal bool // true if the task is fully done after this outcome
}

func (r rawOutcome[S]) toOutcome() Outcome[S] {
	return Outcome[S]{
		taskID: r.taskID,
		scope:  r.scope,
		kind:   r.kind,
		apply:  r.apply,
		panic:  r.panicErr,
	}
}
