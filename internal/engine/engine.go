// Package engine implements §4.9's stage execution state machine: the
// asynchronous worker that drives a single job from RUNNING to a
// terminal state, one stage at a time, against the Runtime capability.
// Grounded on original_source's job execution task for the dispatch
// order and on atc/engine/build_step_delegate.go for the
// span-per-transition/metric-per-completion shape this module adapts to
// per-stage granularity.
package engine

import (
	"context"
	"fmt"
	"path/filepath"

	"code.cloudfoundry.org/clock"
	"code.cloudfoundry.org/lager/v3"
	"github.com/hashicorp/go-multierror"

	"github.com/concourse/pipelinex/internal/config"
	"github.com/concourse/pipelinex/internal/metric"
	"github.com/concourse/pipelinex/internal/model"
	"github.com/concourse/pipelinex/internal/pipelinexlog"
	"github.com/concourse/pipelinex/internal/runtime"
	"github.com/concourse/pipelinex/internal/runtime/compose"
	"github.com/concourse/pipelinex/internal/tracing"
	"github.com/concourse/pipelinex/internal/workspace"
)

// runnerImages maps a supported stack to the image its runner container
// boots from. Unsupported stacks are fatal at resolution time (§4.9.2).
var runnerImages = map[string]string{
	"java/maven": "pipelinex/runner-java-maven:latest",
}

// Engine drives one job's execution against a Runtime.
type Engine struct {
	Config  config.Config
	Runtime runtime.Runtime
	Clock   clock.Clock
}

// New builds an Engine, defaulting Clock to the real wall clock.
func New(cfg config.Config, rt runtime.Runtime) *Engine {
	return &Engine{Config: cfg, Runtime: rt, Clock: clock.NewClock()}
}

// Execute runs h's job to completion: preparation, the stage dispatch
// loop, and finalization, returning the first error encountered. Once
// metadata.json has been read, a returned error always accompanies a
// terminal state.json; callers never need to re-derive FAILED from an
// error return.
func (e *Engine) Execute(ctx context.Context, h *workspace.Handle) error {
	logger := pipelinexlog.FromContext(ctx).Session("execute", lager.Data{"job_id": h.JobID})
	ctx = pipelinexlog.WithLogger(ctx, logger)

	metadata, err := ReadMetadata(h)
	if err != nil {
		return err
	}

	containerName := "pipelinex-" + h.JobID
	defer func() {
		if err := e.Runtime.Remove(context.Background(), containerName); err != nil {
			logger.Error("remove-runner", err)
		}
	}()

	state, err := e.prepare(ctx, h, metadata, containerName)
	if err != nil {
		failed := InitialState(e.Clock.Now().UTC(), metadata.Pipeline)
		failed.State = model.JobFailed
		msg := err.Error()
		failed.Error = &msg
		if werr := WriteState(h, failed); werr != nil {
			logger.Error("write-final-state", werr)
		}
		return err
	}

	metric.RecordJobStarted(ctx)

	runErr := e.dispatch(ctx, h, metadata, state, containerName)

	if runErr != nil {
		state.State = model.JobFailed
		msg := runErr.Error()
		state.Error = &msg
	} else {
		state.State = model.JobSucceeded
	}
	state.CurrentStage = nil
	state.UpdatedAt = e.Clock.Now().UTC()
	if err := WriteState(h, state); err != nil {
		logger.Error("write-final-state", err)
	}

	metric.RecordJobFinished(ctx, string(state.State))

	return runErr
}

// prepare implements §4.9's "Preparation": ensure reports/ exists,
// relax permissions for the runner's unprivileged UID, seed state.json,
// and start the long-lived runner container.
func (e *Engine) prepare(ctx context.Context, h *workspace.Handle, metadata *model.JobMetadata, containerName string) (*model.ExecutionState, error) {
	logger := pipelinexlog.FromContext(ctx)

	if err := ensureReportsDir(h.ReportsDir()); err != nil {
		return nil, err
	}
	if err := relaxPermissions(h.JobDir, h.PipelinesDir()); err != nil {
		return nil, fmt.Errorf("engine: relax permissions: %w", err)
	}

	state := InitialState(e.Clock.Now().UTC(), metadata.Pipeline)
	if err := WriteState(h, state); err != nil {
		return nil, err
	}

	image, err := runnerImage(metadata.Stack)
	if err != nil {
		return nil, err
	}

	hostWorkspacesPath := e.Config.HostWorkspacesPath
	if hostWorkspacesPath == "" {
		hostWorkspacesPath = e.Config.WorkspacesDir
	}

	spec := runtime.RunSpec{
		Name:  containerName,
		Image: image,
		UID:   e.Config.RunnerUID,
		GID:   e.Config.RunnerGID,
		Env: map[string]string{
			"APP_DIR":       "/home/runner/source",
			"PIPELINES_DIR": "/home/runner/pipelines",
			"REPORTS_DIR":   "/home/runner/reports",
		},
		Mounts: []runtime.Mount{
			{HostPath: hostWorkspacesPath + "/" + h.JobID, ContainerPath: "/home/runner"},
		},
		WorkDir: "/home/runner",
	}

	logger.Info("starting-runner", lager.Data{"image": image, "container": containerName})
	if err := e.Runtime.Run(ctx, spec); err != nil {
		return nil, fmt.Errorf("engine: start runner container: %w", err)
	}

	return state, nil
}

// dispatch runs §4.9's stage dispatch loop. It returns a non-nil error
// only when a blocking stage failed or an infrastructure error occurred;
// advisory-stage failures are recorded in state but do not abort.
func (e *Engine) dispatch(ctx context.Context, h *workspace.Handle, metadata *model.JobMetadata, state *model.ExecutionState, containerName string) error {
	logger := pipelinexlog.FromContext(ctx)

	for _, stage := range model.StageOrder {
		st := state.Stages[stage]
		if st == nil || st.Status != model.StagePending {
			continue
		}

		stageCtx, span := tracing.StartSpan(ctx, "stage", tracing.Attrs{
			"job_id": h.JobID,
			"stage":  string(stage),
		})

		st.Status = model.StageRunning
		state.CurrentStage = &stage
		state.UpdatedAt = e.Clock.Now().UTC()
		if err := WriteState(h, state); err != nil {
			span.End()
			return err
		}

		start := e.Clock.Now()
		result, err := e.runStage(stageCtx, h, metadata, stage, containerName)
		metric.RecordStageDuration(ctx, e.Clock.Now().Sub(start), h.JobID, string(stage), result.Status)
		span.End()

		if err != nil {
			logger.Error("run-stage", err, lager.Data{"stage": string(stage)})
			result = model.StageResult{
				Status:  string(model.StageFailure),
				Message: fmt.Sprintf("stage did not produce a result: %v", err),
			}
		}

		st.Status = model.StageStatus(result.Status)
		if result.Message != "" {
			st.Message = model.StrPtr(result.Message)
		}
		state.UpdatedAt = e.Clock.Now().UTC()
		if werr := WriteState(h, state); werr != nil {
			return werr
		}

		if st.Status == model.StageFailure && model.BlockingStages[stage] {
			return fmt.Errorf("engine: blocking stage %s failed: %s", stage, valueOrEmpty(st.Message))
		}
	}

	return nil
}

// runStage resolves topology and script for stage, executes it (either
// inside the runner container or via a composed topology), and reads
// back its result.json. A missing result.json is returned as an error,
// which the caller turns into a synthesized FAILURE per §4.9's
// dispatch-loop rule.
func (e *Engine) runStage(ctx context.Context, h *workspace.Handle, metadata *model.JobMetadata, stage model.Stage, containerName string) (model.StageResult, error) {
	script, err := resolveScript(stage, metadata.Stack, metadata.Pipeline)
	if err != nil {
		return model.StageResult{}, err
	}
	topo, err := resolveTopology(stage, metadata.Stack.RequiresDB)
	if err != nil {
		return model.StageResult{}, err
	}

	command := fmt.Sprintf("cd $APP_DIR && bash $PIPELINES_DIR/%s", script.RelPath)

	if topo.NeedsCompose {
		if err := e.runComposed(ctx, h, metadata, topo, command, script.Env); err != nil {
			return model.StageResult{}, err
		}
	} else {
		if err := e.Runtime.Exec(ctx, runtime.ExecSpec{
			ContainerName: containerName,
			Command:       command,
			Env:           script.Env,
		}); err != nil {
			return model.StageResult{}, err
		}
	}

	if stage == model.StageSecrets {
		if err := normalizeSecretsReportDir(h.ReportsDir()); err != nil {
			return model.StageResult{}, err
		}
	}

	result, ok, err := readStageResult(h.ReportsDir(), stage)
	if err != nil {
		return model.StageResult{}, err
	}
	if !ok {
		return model.StageResult{}, fmt.Errorf("missing result.json for stage %s", stage)
	}
	return result, nil
}

// runComposed implements §4.9.1's composed-topology path: fragments are
// copied into the workspace, `up --abort-on-container-exit
// --exit-code-from=<gate>` runs, and a `down -v --remove-orphans`
// unconditionally follows, regardless of up's outcome.
func (e *Engine) runComposed(ctx context.Context, h *workspace.Handle, metadata *model.JobMetadata, topo resolvedTopology, command string, scriptEnv map[string]string) error {
	fragments := topo.Topology.Fragments()
	fragDir := filepath.Join(h.PipelinesDir(), fmt.Sprintf("%s-%s", metadata.Stack.Framework, metadata.Stack.BuildTool))
	destDir := filepath.Join(h.PipelinesDir(), "compose-"+metadata.Stack.Framework)

	if _, err := compose.Merged(fragDir, fragments); err != nil {
		return fmt.Errorf("engine: validate compose topology: %w", err)
	}
	if err := compose.CopyFragments(fragDir, destDir, fragments); err != nil {
		return err
	}

	env := map[string]string{"RUNNER_COMMAND": command}
	for k, v := range scriptEnv {
		env[k] = v
	}
	if metadata.Stack.RequiresDB {
		db, err := e.databaseEnv(metadata)
		if err != nil {
			return err
		}
		for k, v := range db {
			env[k] = v
		}
	}

	spec := runtime.ComposeSpec{
		ProjectDir:      destDir,
		Fragments:       fragments,
		ExitFromService: topo.Topology.ExitFrom,
		Env:             env,
	}

	// down must run whether up succeeded or not (§4.9: "a guaranteed down
	// ... follows regardless of up outcome"); go-multierror combines both
	// failures instead of masking whichever ran second.
	var result *multierror.Error
	if upErr := e.Runtime.Up(ctx, spec); upErr != nil {
		result = multierror.Append(result, upErr)
	}
	if downErr := e.Runtime.Down(context.Background(), spec); downErr != nil {
		result = multierror.Append(result, downErr)
	}
	return result.ErrorOrNil()
}

// databaseEnv implements §4.9.3: merge the default database config into
// compose environment when stack.requires_db, failing fatally when the
// configuration is absent.
func (e *Engine) databaseEnv(metadata *model.JobMetadata) (map[string]string, error) {
	db := metadata.Database
	if db == nil {
		def := e.Config.DefaultDatabase
		db = &def
	}
	if db.Image == "" {
		return nil, fmt.Errorf("engine: stack requires a database but no configuration is available")
	}
	return map[string]string{
		"DB_IMAGE":    db.Image,
		"DB_NAME":     db.Name,
		"DB_USER":     db.User,
		"DB_PASSWORD": db.Password,
		"DB_PORT":     fmt.Sprintf("%d", db.Port),
		"DB_DRIVER":   db.Driver,
	}, nil
}

func runnerImage(stack model.Stack) (string, error) {
	key := stack.Framework + "/" + stack.BuildTool
	image, ok := runnerImages[key]
	if !ok {
		return "", fmt.Errorf("engine: unsupported stack %s (no runner image)", key)
	}
	return image, nil
}

func valueOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
