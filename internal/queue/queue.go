// Package queue defines the Queue capability the orchestrator enqueues
// against and workers dequeue from (§9: "Task dispatch... model it as
// execute(job_id) against a Queue capability; tests inject a synchronous
// queue"). The queue broker itself is out of scope per spec.md §1; this
// package exists only so the execution engine never depends on a
// concrete transport.
package queue

import "context"

// Queue enqueues and dequeues job identifiers for asynchronous
// execution.
type Queue interface {
	// Enqueue schedules jobID for execution. It must not block on the
	// job actually starting.
	Enqueue(ctx context.Context, jobID string) error

	// Dequeue blocks until a job is available or ctx is done.
	Dequeue(ctx context.Context) (jobID string, err error)
}
