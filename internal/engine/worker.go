package engine

import (
	"context"
	"errors"

	"code.cloudfoundry.org/lager/v3"

	"github.com/concourse/pipelinex/internal/config"
	"github.com/concourse/pipelinex/internal/pipelinexlog"
	"github.com/concourse/pipelinex/internal/queue"
	"github.com/concourse/pipelinex/internal/workspace"
)

// Worker pulls job ids off a Queue and drives them through an Engine,
// one at a time, implementing the execution plane's single-threaded
// per-job contract (§5: "within one worker, a job executes
// single-threaded sequentially"). Running Parallelism ≥ 1 Workers
// concurrently, each against its own Queue.Dequeue, gives the
// configurable worker-pool concurrency §5 describes.
type Worker struct {
	Engine *Engine
	Queue  queue.Queue
	Root   string
}

// NewWorker builds a Worker reading jobs from q and running them
// against eng, resolving each job id to a workspace handle under
// cfg.WorkspacesDir.
func NewWorker(eng *Engine, q queue.Queue, cfg config.Config) *Worker {
	return &Worker{Engine: eng, Queue: q, Root: cfg.WorkspacesDir}
}

// Run dequeues and executes jobs until ctx is cancelled. A single job's
// execution error is logged and swallowed — it has already been
// recorded as a terminal state.json by Engine.Execute — so one failing
// job never stops the worker loop.
func (w *Worker) Run(ctx context.Context) error {
	logger := pipelinexlog.FromContext(ctx).Session("worker")

	for {
		jobID, err := w.Queue.Dequeue(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			logger.Error("dequeue", err)
			continue
		}

		w.runOne(ctx, logger, jobID)
	}
}

func (w *Worker) runOne(ctx context.Context, logger lager.Logger, jobID string) {
	sess := logger.Session("run-job", lager.Data{"job_id": jobID})
	h, err := workspace.Open(w.Root, jobID)
	if err != nil {
		sess.Error("open-workspace", err)
		return
	}

	jobCtx := pipelinexlog.WithLogger(ctx, sess)
	if err := w.Engine.Execute(jobCtx, h); err != nil {
		sess.Error("execute", err)
	}
}
