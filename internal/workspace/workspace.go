// Package workspace allocates, lays out, and tears down the per-job
// directories under config.Config.WorkspacesDir. Grounded on
// original_source/backend/services/workspace_service.py, generalized to
// resolve job-id collisions by exclusive directory creation rather than
// counting existing directories (§3: "Generation races are resolved by
// exclusive directory creation").
package workspace

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/concourse/pipelinex/internal/model"
)

// Handle is the opaque result of Create: the one reference downstream
// components hold to a job's directory tree.
type Handle struct {
	JobID     string
	JobDir    string
	SourceDir string
	InputType model.InputType
}

// PipelinesDir returns <job_dir>/pipelines.
func (h Handle) PipelinesDir() string { return filepath.Join(h.JobDir, "pipelines") }

// ReportsDir returns <job_dir>/reports.
func (h Handle) ReportsDir() string { return filepath.Join(h.JobDir, "reports") }

// MetadataPath returns <job_dir>/metadata.json.
func (h Handle) MetadataPath() string { return filepath.Join(h.JobDir, "metadata.json") }

// StatePath returns <job_dir>/state.json.
func (h Handle) StatePath() string { return filepath.Join(h.JobDir, "state.json") }

const maxIDAttempts = 1000

// Create allocates a new job directory under root, generating a job-NNN
// identifier and creating it via an exclusive mkdir so concurrent
// admissions racing for the same counter value regenerate rather than
// collide (§5: "collisions on exclusive directory creation cause
// regeneration").
func Create(root string, inputType model.InputType) (*Handle, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("workspace: ensure root: %w", err)
	}

	next, err := nextCounter(root)
	if err != nil {
		return nil, err
	}

	var jobID, jobDir string
	for attempt := 0; attempt < maxIDAttempts; attempt++ {
		jobID = fmt.Sprintf("job-%03d", next+attempt)
		jobDir = filepath.Join(root, jobID)
		err := os.Mkdir(jobDir, 0o755)
		if err == nil {
			break
		}
		if !os.IsExist(err) {
			return nil, fmt.Errorf("workspace: create job dir: %w", err)
		}
		jobDir = ""
	}
	if jobDir == "" {
		return nil, fmt.Errorf("workspace: exhausted job id attempts under %s", root)
	}

	sourceDir := filepath.Join(jobDir, "source")
	if err := os.Mkdir(sourceDir, 0o755); err != nil {
		_ = Cleanup(&Handle{JobDir: jobDir})
		return nil, fmt.Errorf("workspace: create source dir: %w", err)
	}
	if err := os.Mkdir(filepath.Join(jobDir, "pipelines"), 0o755); err != nil {
		_ = Cleanup(&Handle{JobDir: jobDir})
		return nil, fmt.Errorf("workspace: create pipelines dir: %w", err)
	}

	return &Handle{
		JobID:     jobID,
		JobDir:    jobDir,
		SourceDir: sourceDir,
		InputType: inputType,
	}, nil
}

// Open reconstructs a Handle for an already-admitted job id, used by the
// execution plane when picking a job id off the queue rather than
// allocating a fresh workspace.
func Open(root, jobID string) (*Handle, error) {
	jobDir := filepath.Join(root, jobID)
	sourceDir := filepath.Join(jobDir, "source")
	if _, err := os.Stat(jobDir); err != nil {
		return nil, fmt.Errorf("workspace: open %s: %w", jobID, err)
	}

	var inputType model.InputType
	if data, err := os.ReadFile(filepath.Join(jobDir, "metadata.json")); err == nil {
		var meta model.JobMetadata
		if json.Unmarshal(data, &meta) == nil {
			inputType = meta.InputType
		}
	}

	return &Handle{
		JobID:     jobID,
		JobDir:    jobDir,
		SourceDir: sourceDir,
		InputType: inputType,
	}, nil
}

// nextCounter returns 1 + the count of existing job-* directories, the
// starting point for collision-free id generation.
func nextCounter(root string) (int, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return 0, fmt.Errorf("workspace: list root: %w", err)
	}
	count := 0
	for _, e := range entries {
		if e.IsDir() && len(e.Name()) > 4 && e.Name()[:4] == "job-" {
			count++
		}
	}
	return count + 1, nil
}

// Cleanup recursively removes the job directory, tolerant of partial or
// already-removed state. Every failure path downstream of Create must
// call Cleanup before propagating (§4.2).
func Cleanup(h *Handle) error {
	if h == nil || h.JobDir == "" {
		return nil
	}
	if _, err := os.Stat(h.JobDir); os.IsNotExist(err) {
		return nil
	}
	// Best-effort: relax permissions so read-only files/directories left
	// by a container run don't block removal, mirroring shutil.rmtree's
	// tolerance of read-only flags.
	_ = filepath.WalkDir(h.JobDir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		_ = os.Chmod(path, 0o700)
		return nil
	})
	if err := os.RemoveAll(h.JobDir); err != nil {
		return fmt.Errorf("workspace: cleanup: %w", err)
	}
	return nil
}

// WriteJSONAtomic marshals v and writes it to path via write-then-rename
// (§6: "the writer uses write-then-rename for metadata.json and
// state.json"). Shared by internal/admission and internal/engine so both
// documents this workspace defines get the same durability guarantee.
func WriteJSONAtomic(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("workspace: marshal %s: %w", path, err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("workspace: write temp %s: %w", path, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("workspace: rename %s: %w", path, err)
	}
	return nil
}
