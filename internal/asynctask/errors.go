package asynctask

import (
	"errors"
	"fmt"
)

// ErrBackpressureOrClosed is returned by AddFuture/AddStream/Sender.Spawn
// when the manager's intake already holds cfg.IntakeBufferSize requests or
// the caller's ctx is done. A manager whose ProcessMessages has returned is
// not detected: its intake keeps accepting requests until the buffer is
// full.
var ErrBackpressureOrClosed = errors.New("asynctask: intake closed or saturated")

// ErrSenderClosed is returned when enqueueing against a Sender that has
// already been closed by its owning frontend component.
var ErrSenderClosed = errors.New("asynctask: sender closed")

// PanicError carries a recovered panic payload (or a descriptor error,
// which is surfaced through the same channel — see task.go) back to the
// frontend so it can decide whether to re-raise or log and continue.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("asynctask: task panicked: %v", e.Value)
}

func newPanicError(value any, stack []byte) *PanicError {
	return &PanicError{Value: value, Stack: stack}
}
