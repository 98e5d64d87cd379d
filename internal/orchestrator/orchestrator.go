// Package orchestrator is the single entry point the HTTP layer calls:
// ingest → inject default database config → admit → install → enqueue,
// with guaranteed workspace cleanup on any failure. Grounded on
// original_source/backend/services/job_orchestrator.py, generalized per
// SPEC_FULL §4.8 into one CreateJob entry point parameterized over the
// ingest.Ingestor capability rather than two near-duplicate methods.
package orchestrator

import (
	"context"
	"fmt"

	"github.com/concourse/pipelinex/internal/admission"
	"github.com/concourse/pipelinex/internal/config"
	"github.com/concourse/pipelinex/internal/ingest"
	"github.com/concourse/pipelinex/internal/model"
	"github.com/concourse/pipelinex/internal/pipeline"
	"github.com/concourse/pipelinex/internal/queue"
	"github.com/concourse/pipelinex/internal/workspace"
)

// StackDecl is the caller-declared portion of a job request: everything
// admission.Request needs apart from the database, which the
// orchestrator resolves itself from stack.RequiresDB.
type StackDecl struct {
	Stack    model.Stack
	Versions model.Versions
	Pipeline model.Pipeline
}

// Orchestrator composes ingestion, admission, pipeline installation, and
// enqueueing behind one entry point.
type Orchestrator struct {
	Config    config.Config
	Admission admission.Service
	Installer pipeline.Installer
	Queue     queue.Queue
}

// CreateJob materializes in's source into a fresh workspace, admits it,
// installs its pipeline scripts, and enqueues it for execution. Any
// failure at any step tears the workspace down and returns a
// user-facing error; the workspace only survives when CreateJob
// returns nil.
func (o Orchestrator) CreateJob(ctx context.Context, in ingest.Ingestor, decl StackDecl) (*model.JobMetadata, error) {
	h, err := workspace.Create(o.Config.WorkspacesDir, in.InputType())
	if err != nil {
		return nil, fmt.Errorf("orchestrator: allocate workspace: %w", err)
	}

	metadata, err := o.createJobInWorkspace(ctx, h, in, decl)
	if err != nil {
		_ = workspace.Cleanup(h)
		return nil, err
	}
	return metadata, nil
}

func (o Orchestrator) createJobInWorkspace(ctx context.Context, h *workspace.Handle, in ingest.Ingestor, decl StackDecl) (*model.JobMetadata, error) {
	if err := in.Materialize(ctx, h); err != nil {
		return nil, fmt.Errorf("orchestrator: materialize source: %w", err)
	}

	var db *model.DatabaseConfig
	if decl.Stack.RequiresDB {
		d := o.Config.DefaultDatabase
		db = &d
	}

	metadata, err := o.Admission.Admit(h, admission.Request{
		Stack:    decl.Stack,
		Versions: decl.Versions,
		Pipeline: decl.Pipeline,
		Database: db,
	})
	if err != nil {
		return nil, err
	}

	if err := o.Installer.Install(h, decl.Stack.Framework, decl.Stack.BuildTool); err != nil {
		return nil, fmt.Errorf("orchestrator: install pipelines: %w", err)
	}

	if err := o.Queue.Enqueue(ctx, h.JobID); err != nil {
		return nil, fmt.Errorf("orchestrator: enqueue job: %w", err)
	}

	return metadata, nil
}
