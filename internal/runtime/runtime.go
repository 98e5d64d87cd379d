// Package runtime defines the Runtime capability wrapping subprocess and
// container control (§9: "wrap as a Runtime capability exposing run,
// exec, up/down; tests supply a recording fake that inspects argv and
// emits canned result.json files"). Production code depends only on
// this interface; internal/runtime/fake implements the test double,
// internal/runtime/dockerengine plus internal/runtime/compose implement
// the real thing.
package runtime

import "context"

// Mount is a host-path-to-container-path bind mount.
type Mount struct {
	HostPath      string
	ContainerPath string
}

// RunSpec describes the long-lived runner container §6 creates with
// `run -d -u UID:GID -e ... -v ... -w /home/runner IMAGE tail -f
// /dev/null`.
type RunSpec struct {
	Name    string
	Image   string
	UID     int
	GID     int
	Env     map[string]string
	Mounts  []Mount
	WorkDir string
}

// ExecSpec describes a single `exec bash -lc '...'` invocation inside an
// already-running container.
type ExecSpec struct {
	ContainerName string
	Command       string
	Env           map[string]string
}

// ComposeSpec describes a `compose -f <frag>... up/down` invocation.
type ComposeSpec struct {
	// ProjectDir is the directory the compose fragments and .env live
	// in; compose is invoked with this as its working directory.
	ProjectDir string
	Fragments  []string
	// ExitFromService names the service whose exit code gates `up
	// --abort-on-container-exit --exit-code-from=<service>` (§4.9.1:
	// zap if present, else app).
	ExitFromService string
	Env             map[string]string
}

// Runtime is the capability boundary over container and subprocess
// control that the execution engine depends on.
type Runtime interface {
	// Run creates and starts the long-lived runner container described
	// by spec, replacing any existing container of the same name.
	Run(ctx context.Context, spec RunSpec) error

	// Exec runs a command inside an already-running container and
	// blocks until it exits, returning an error if the command exited
	// non-zero.
	Exec(ctx context.Context, spec ExecSpec) error

	// Up brings a composed topology up and blocks until the gating
	// service exits.
	Up(ctx context.Context, spec ComposeSpec) error

	// Down guarantees teardown of a composed topology; called
	// regardless of Up's outcome.
	Down(ctx context.Context, spec ComposeSpec) error

	// Remove tears down the single long-lived runner container created
	// by Run.
	Remove(ctx context.Context, containerName string) error
}
