// Package fake implements a recording runtime.Runtime for tests, in the
// hand-authored counterfeiter shape used across the teacher's codebase
// (call-count tracking, args-for-call slices, a mutex guarding
// concurrent access) even though no generated *fakes package survived
// into the example pool to copy verbatim. Grounded on the
// //counterfeiter:generate convention seen on atc/compression's
// Compression and atc/db's Worker interfaces.
package fake

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/concourse/pipelinex/internal/runtime"
)

// Runtime records every Run/Exec/Up/Down/Remove invocation and, for
// Exec, writes a caller-supplied canned result.json so engine tests can
// drive complete stage outcomes without a Docker daemon.
type Runtime struct {
	mu sync.Mutex

	RunArgsForCall    []runtime.RunSpec
	ExecArgsForCall   []runtime.ExecSpec
	UpArgsForCall     []runtime.ComposeSpec
	DownArgsForCall   []runtime.ComposeSpec
	RemoveArgsForCall []string

	RunReturns    error
	ExecReturns   error
	UpReturns     error
	DownReturns   error
	RemoveReturns error

	// ExecResultWriter, when set, is called after recording each Exec
	// invocation so a test can materialize reports/<stage>/result.json
	// as if a real stage script had run.
	ExecResultWriter func(spec runtime.ExecSpec) error
}

var _ runtime.Runtime = (*Runtime)(nil)

func (r *Runtime) Run(_ context.Context, spec runtime.RunSpec) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.RunArgsForCall = append(r.RunArgsForCall, spec)
	return r.RunReturns
}

func (r *Runtime) Exec(_ context.Context, spec runtime.ExecSpec) error {
	r.mu.Lock()
	r.ExecArgsForCall = append(r.ExecArgsForCall, spec)
	writer := r.ExecResultWriter
	r.mu.Unlock()

	if writer != nil {
		if err := writer(spec); err != nil {
			return err
		}
	}
	return r.ExecReturns
}

func (r *Runtime) Up(_ context.Context, spec runtime.ComposeSpec) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.UpArgsForCall = append(r.UpArgsForCall, spec)
	return r.UpReturns
}

func (r *Runtime) Down(_ context.Context, spec runtime.ComposeSpec) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.DownArgsForCall = append(r.DownArgsForCall, spec)
	return r.DownReturns
}

func (r *Runtime) Remove(_ context.Context, containerName string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.RemoveArgsForCall = append(r.RemoveArgsForCall, containerName)
	return r.RemoveReturns
}

// WriteResult is a convenience ExecResultWriter that writes a fixed
// {"status":...} body to reports/<stage>/result.json under reportsDir,
// for tests that want every stage to succeed or fail uniformly without
// inspecting the exec command.
func WriteResult(reportsDir, stage, status, message string) func(runtime.ExecSpec) error {
	return func(runtime.ExecSpec) error {
		dir := filepath.Join(reportsDir, stage)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
		body := fmt.Sprintf(`{"status":%q`, status)
		if message != "" {
			body += fmt.Sprintf(`,"message":%q`, message)
		}
		body += "}"
		return os.WriteFile(filepath.Join(dir, "result.json"), []byte(body), 0o644)
	}
}
