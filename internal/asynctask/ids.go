package asynctask

import "sync/atomic"

// TaskID uniquely identifies a spawned task within a Manager's lifetime.
type TaskID int64

// ScopeID identifies the frontend component that owns a Sender. Constraints
// only ever compare tasks within the same scope.
type ScopeID string

// TypeToken is a caller-supplied tag that is equal for tasks the caller
// considers interchangeable, and used by BlockSameType/KillSameType to find
// same-type active tasks. A plain string sidesteps relying on Go runtime
// type identity across generic instantiations, which does not reliably
// survive separate compilation units the way reflect.TypeOf would suggest.
type TypeToken string

type taskIDAllocator struct {
	next atomic.Int64
}

func (a *taskIDAllocator) allocate() TaskID {
	return TaskID(a.next.Add(1))
}
