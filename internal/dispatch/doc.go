// Package dispatch drives a batch of definitions to a terminal state exactly
// once.
//
// Dispatcher validates the batch, sizes a worker pool from its PoolPolicy,
// enqueues every definition once onto a Queue, and blocks on the queue's
// drain barrier until each enqueued definition has been marked done by the
// worker that processed it. Workers are tracked goroutines joined before
// Dispatch returns, so nothing outlives the call.
//
// Only workers mutate definition state. The dispatcher never polls it while
// work is in flight; it reads snapshots after the drain barrier releases.
package dispatch
