// Package batch runs a set of rows through an executor under bounded
// concurrency.
//
// A Queue owns the pending rows, the in-flight set and the results of one
// batch. Key properties:
//   - At most maxInFlight rows execute at once (fixed worker pool)
//   - Rows are dispatched in enqueue order; completion order is free
//   - A ProgressEvent follows every completion, with an ETA once one row
//     has finished
//   - State is checkpointed on start, every N completions and on stop, so an
//     interrupted batch can be resumed with Resume
//   - A row without a configured credential fails the whole batch
//
// Stop drains: in-flight rows always run to completion.
package batch
