package main

import (
	"context"
	"fmt"
	"net/http"

	"code.cloudfoundry.org/lager/v3"
	"golang.org/x/sync/errgroup"

	"github.com/concourse/pipelinex/internal/admission"
	"github.com/concourse/pipelinex/internal/api"
	"github.com/concourse/pipelinex/internal/config"
	"github.com/concourse/pipelinex/internal/engine"
	"github.com/concourse/pipelinex/internal/metric"
	"github.com/concourse/pipelinex/internal/orchestrator"
	"github.com/concourse/pipelinex/internal/pipeline"
	"github.com/concourse/pipelinex/internal/pipelinexlog"
	"github.com/concourse/pipelinex/internal/queue"
	"github.com/concourse/pipelinex/internal/runtime"
	"github.com/concourse/pipelinex/internal/runtime/dockerengine"
	"github.com/concourse/pipelinex/internal/tracing"
	"github.com/concourse/pipelinex/internal/wrappa"
)

// ServeCommand runs the HTTP admission surface and the execution-plane
// worker pool in one process — the single-binary deployment SPEC_FULL's
// Non-goals leave as the only supported topology, unlike the teacher's
// split web/worker processes.
type ServeCommand struct {
	config.Flags

	TracingConfig tracing.Config `group:"Tracing" namespace:"tracing"`
}

// Execute is go-flags' Commander entry point.
func (cmd *ServeCommand) Execute(_ []string) error {
	ctx := context.Background()
	logger := pipelinexlog.New("pipelinex")
	ctx = pipelinexlog.WithLogger(ctx, logger)

	cfg := cmd.Flags.Resolve()

	shutdown, err := cmd.TracingConfig.Configure(ctx)
	if err != nil {
		return fmt.Errorf("configure tracing: %w", err)
	}
	defer shutdown(ctx)
	metric.Init()

	dockerClient, err := dockerengine.New()
	if err != nil {
		return fmt.Errorf("connect to docker: %w", err)
	}
	rt := runtime.DockerRuntime{Engine: dockerClient}

	q, err := queue.NewFileSpool(cfg.WorkspacesDir + "/.queue")
	if err != nil {
		return fmt.Errorf("open job queue: %w", err)
	}

	orch := orchestrator.Orchestrator{
		Config:    cfg,
		Admission: admission.Service{ContractsRoot: cfg.ContractsRoot},
		Installer: pipeline.Installer{Root: cfg.PipelinesRoot},
		Queue:     q,
	}

	eng := engine.New(cfg, rt)
	worker := engine.NewWorker(eng, q, cfg)

	handler, err := api.NewHandler(&api.Server{Config: cfg, Orchestrator: orch}, wrappa.NewOTelHTTPWrappa())
	if err != nil {
		return fmt.Errorf("build http handler: %w", err)
	}
	server := &http.Server{Addr: cfg.ListenAddress, Handler: handler}

	logger.Info("listening", lager.Data{"address": cfg.ListenAddress})

	group, gctx := errgroup.WithContext(ctx)
	for i := 0; i < cfg.Parallelism; i++ {
		group.Go(func() error { return worker.Run(gctx) })
	}
	group.Go(func() error { return server.ListenAndServe() })
	group.Go(func() error {
		<-gctx.Done()
		return server.Shutdown(context.Background())
	})

	return group.Wait()
}
