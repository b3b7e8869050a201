// Package asynctask is the callback manager: a generic runtime that lets a
// synchronous, owned frontend state spawn background work (single-shot
// futures and long-running streams) against a shared backend, and apply the
// results as typed mutations on that state.
//
// A frontend component obtains a *Sender from a *Manager, enqueues Tasks
// built with NewFuture/NewStream, and drains the Sender's Outcomes to apply
// mutations. The Manager itself never touches frontend state: only the
// frontend, via Outcome.Apply, invokes a task's handler.
package asynctask
