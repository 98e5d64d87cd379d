// Package repo implements the Ingestor capability for public GitHub
// repositories: URL validation, a timeout-bounded shallow or full clone,
// optional .git retention, and the shared repository walk. Grounded on
// original_source/backend/services/repo_input_service.py, extended per
// spec.md §4.4 with the full_history/keep_git conditioning that
// repo_input_service.py's sibling github_service.py lacks.
package repo

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/concourse/pipelinex/internal/apierr"
	"github.com/concourse/pipelinex/internal/model"
	"github.com/concourse/pipelinex/internal/safety"
	"github.com/concourse/pipelinex/internal/workspace"
)

// Ingestor materializes a GitHub URL into a workspace's source
// directory.
type Ingestor struct {
	URL string

	// FullHistory, when true, omits --depth entirely instead of using
	// MaxDepth, and implies KeepGit.
	// Implied by SECRETS with secret_scan_mode=git (§4.4).
	FullHistory bool
	KeepGit     bool

	CloneTimeout time.Duration
	MaxDepth     int // GIT_MAX_DEPTH, the default shallow-clone depth

	WalkLimits safety.WalkLimits
}

// InputType always reports github.
func (Ingestor) InputType() model.InputType { return model.InputTypeGithub }

// ValidGitHubURL reports whether rawURL is https://github.com/<owner>/<repo>
// — scheme, host, and exactly two non-empty path segments (§4.4).
func ValidGitHubURL(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	if u.Scheme != "https" || u.Host != "github.com" {
		return false
	}
	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(segments) != 2 {
		return false
	}
	return segments[0] != "" && segments[1] != ""
}

// Materialize clones in.URL into h.SourceDir under a hard timeout, then
// applies the repository-walk ceilings.
func (in Ingestor) Materialize(ctx context.Context, h *workspace.Handle) error {
	if !ValidGitHubURL(in.URL) {
		return apierr.InputValidationError{Reason: "repo: only public GitHub repositories are allowed"}
	}

	args := []string{"clone", "--no-tags", "--single-branch"}
	if !in.FullHistory {
		depth := in.MaxDepth
		if depth <= 0 {
			depth = 1
		}
		args = append(args, "--depth", strconv.Itoa(depth))
	}
	args = append(args, in.URL, h.SourceDir)

	timeout := in.CloneTimeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	cctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(cctx, "git", args...)
	if err := cmd.Run(); err != nil {
		if cctx.Err() == context.DeadlineExceeded {
			return fmt.Errorf("repo: clone timed out after %s", timeout)
		}
		return fmt.Errorf("repo: clone failed: %w", err)
	}

	keepGit := in.KeepGit || in.FullHistory
	if !keepGit {
		gitDir := filepath.Join(h.SourceDir, ".git")
		if _, err := os.Stat(gitDir); err == nil {
			if err := forceRemove(gitDir); err != nil {
				return fmt.Errorf("repo: remove .git: %w", err)
			}
		}
	}

	if err := safety.ScanTree(h.SourceDir, in.WalkLimits); err != nil {
		return apierr.InputValidationError{Reason: "repo: " + err.Error()}
	}

	return nil
}

// forceRemove mirrors repo_input_service.py's _force_remove: relax
// read-only bits before removal, since git marks pack files read-only.
func forceRemove(path string) error {
	_ = filepath.WalkDir(path, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		_ = os.Chmod(p, 0o700)
		return nil
	})
	return os.RemoveAll(path)
}
