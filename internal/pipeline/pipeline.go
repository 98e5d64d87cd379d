// Package pipeline installs the framework-agnostic and framework-specific
// stage scripts (and compose fragments) into a workspace at admission
// time. Grounded on
// original_source/backend/services/pipeline_installer.py, extended to
// always install "global/" alongside the framework set (§4.7) and to
// source both from an embedded filesystem rather than a path relative to
// the running binary.
package pipeline

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/concourse/pipelinex/internal/workspace"
)

//go:embed pipelines
var embedded embed.FS

const embeddedRoot = "pipelines"

// Installer copies stage-script directories into a workspace, preferring
// an operator-supplied override root over the embedded defaults.
type Installer struct {
	// Root overrides the embedded pipeline templates when non-empty.
	Root string
}

// Install copies "global/" and "<framework>-<buildTool>/" into
// h.PipelinesDir(), replacing any existing destination. A missing
// source directory for the requested stack is fatal (§4.7: "indicates
// unsupported stack").
func (in Installer) Install(h *workspace.Handle, framework, buildTool string) error {
	if err := in.copyNamed("global", h); err != nil {
		return err
	}
	stackDir := fmt.Sprintf("%s-%s", framework, buildTool)
	if err := in.copyNamed(stackDir, h); err != nil {
		return err
	}
	return nil
}

func (in Installer) copyNamed(name string, h *workspace.Handle) error {
	dst := filepath.Join(h.PipelinesDir(), name)
	if err := os.RemoveAll(dst); err != nil {
		return fmt.Errorf("pipeline: clear destination %s: %w", name, err)
	}
	if err := os.MkdirAll(dst, 0o755); err != nil {
		return fmt.Errorf("pipeline: create destination %s: %w", name, err)
	}

	if in.Root != "" {
		src := filepath.Join(in.Root, name)
		if info, err := os.Stat(src); err == nil && info.IsDir() {
			return copyFSTree(os.DirFS(src), ".", dst)
		} else if err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("pipeline: stat override %s: %w", name, err)
		}
	}

	src := filepath.Join(embeddedRoot, name)
	if _, err := fs.Stat(embedded, src); err != nil {
		return fmt.Errorf("pipeline: pipelines not found for framework: %s", name)
	}
	sub, err := fs.Sub(embedded, src)
	if err != nil {
		return fmt.Errorf("pipeline: sub fs %s: %w", name, err)
	}
	return copyFSTree(sub, ".", dst)
}

func copyFSTree(src fs.FS, root, dst string) error {
	return fs.WalkDir(src, root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel := path
		if root != "." {
			r, relErr := filepath.Rel(root, path)
			if relErr != nil {
				return relErr
			}
			rel = r
		}
		target := filepath.Join(dst, rel)
		if d.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		data, err := fs.ReadFile(src, path)
		if err != nil {
			return fmt.Errorf("pipeline: read %s: %w", path, err)
		}
		mode := os.FileMode(0o644)
		if filepath.Ext(path) == ".sh" {
			mode = 0o755
		}
		return os.WriteFile(target, data, mode)
	})
}
