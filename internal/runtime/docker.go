package runtime

import (
	"context"
	"fmt"

	"github.com/concourse/pipelinex/internal/runtime/compose"
	"github.com/concourse/pipelinex/internal/runtime/dockerengine"
)

// DockerRuntime implements Runtime against a real Docker daemon: Run/
// Exec/Remove via the Docker Engine API (dockerengine), Up/Down via the
// docker compose CLI subprocess (compose) — the split the teacher pack
// itself has no single library spanning, since no Go SDK for compose
// exists in the example pool.
type DockerRuntime struct {
	Engine *dockerengine.Client
}

var _ Runtime = DockerRuntime{}

func (r DockerRuntime) Run(ctx context.Context, spec RunSpec) error {
	env := make([]string, 0, len(spec.Env))
	for k, v := range spec.Env {
		env = append(env, k+"="+v)
	}
	binds := make([]string, 0, len(spec.Mounts))
	for _, m := range spec.Mounts {
		binds = append(binds, m.HostPath+":"+m.ContainerPath)
	}
	_, err := r.Engine.EnsureRunner(ctx, dockerengine.RunSpec{
		Name:    spec.Name,
		Image:   spec.Image,
		UID:     spec.UID,
		GID:     spec.GID,
		Env:     env,
		Binds:   binds,
		WorkDir: spec.WorkDir,
	})
	return err
}

func (r DockerRuntime) Exec(ctx context.Context, spec ExecSpec) error {
	env := make([]string, 0, len(spec.Env))
	for k, v := range spec.Env {
		env = append(env, k+"="+v)
	}
	return r.Engine.Exec(ctx, spec.ContainerName, spec.Command, env)
}

func (r DockerRuntime) Remove(ctx context.Context, containerName string) error {
	return r.Engine.Remove(ctx, containerName)
}

func (r DockerRuntime) Up(ctx context.Context, spec ComposeSpec) error {
	if spec.ExitFromService == "" {
		return fmt.Errorf("runtime: compose spec missing exit-from service")
	}
	return compose.Up(ctx, spec.ProjectDir, spec.Fragments, spec.ExitFromService, envSlice(spec.Env))
}

func (r DockerRuntime) Down(ctx context.Context, spec ComposeSpec) error {
	return compose.Down(ctx, spec.ProjectDir, spec.Fragments, envSlice(spec.Env))
}

func envSlice(env map[string]string) []string {
	out := make([]string, 0, len(env))
	for k, v := range env {
		out = append(out, k+"="+v)
	}
	return out
}
