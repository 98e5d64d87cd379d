// Package archive implements the Ingestor capability for ZIP uploads:
// streaming validation, safe extraction, and single-root normalization.
// Grounded on original_source/backend/services/{upload_service,
// zip_input_service}.py, with the incremental size-bomb check from
// upload_service.py and the single-root lift from zip_input_service.py
// both retained since spec.md §4.3 mandates both.
package archive

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/concourse/pipelinex/internal/apierr"
	"github.com/concourse/pipelinex/internal/model"
	"github.com/concourse/pipelinex/internal/safety"
	"github.com/concourse/pipelinex/internal/workspace"
)

// Ingestor materializes a ZIP upload into a workspace's source
// directory.
type Ingestor struct {
	// Data is the full buffered upload body; the caller (internal/api)
	// is responsible for enforcing MaxUploadBytes while reading the
	// multipart body into this buffer before construction.
	Data []byte

	MaxFiles             int
	MaxUncompressedBytes int64
	MaxDepth             int
}

var _ interface {
	Materialize(ctx context.Context, h *workspace.Handle) error
	InputType() model.InputType
} = (*Ingestor)(nil)

// InputType always reports zip.
func (Ingestor) InputType() model.InputType { return model.InputTypeZip }

// Materialize validates the buffered ZIP and extracts it into
// h.SourceDir, then lifts a single wrapper directory if present.
func (in Ingestor) Materialize(_ context.Context, h *workspace.Handle) error {
	if !safety.IsValidZipSignature(in.Data) {
		return apierr.InputValidationError{Reason: "archive: file is not a valid ZIP archive"}
	}

	zr, err := zip.NewReader(bytes.NewReader(in.Data), int64(len(in.Data)))
	if err != nil {
		return fmt.Errorf("archive: open zip: %w", err)
	}
	safety.RegisterFastDeflate(zr)

	if len(zr.File) > in.MaxFiles {
		return apierr.InputValidationError{Reason: "archive: too many files in ZIP archive"}
	}

	var totalSize int64
	for _, entry := range zr.File {
		if isDirEntry(entry.Name) {
			continue
		}
		if safety.PathDepth(entry.Name) > in.MaxDepth {
			return apierr.InputValidationError{Reason: "archive: ZIP directory depth exceeded"}
		}
		if safety.IsSymlinkEntry(entry.ExternalAttrs) {
			return apierr.InputValidationError{Reason: "archive: symlink detected in zip: " + entry.Name}
		}

		// Incremental size-bomb check: trip before extraction completes,
		// using the declared uncompressed size (entry.UncompressedSize64)
		// rather than waiting to read bytes out.
		totalSize += int64(entry.UncompressedSize64)
		if totalSize > in.MaxUncompressedBytes {
			return apierr.InputValidationError{Reason: "archive: ZIP extraction size limit exceeded"}
		}

		if safety.IsDangerousExtension(entry.Name) {
			return apierr.InputValidationError{Reason: "archive: dangerous file type detected: " + entry.Name}
		}

		targetPath, err := safety.SafeExtractPath(h.SourceDir, entry.Name)
		if err != nil {
			return apierr.InputValidationError{Reason: "archive: " + err.Error()}
		}

		if err := extractEntry(entry, targetPath); err != nil {
			return err
		}
	}

	return normalizeSingleRoot(h.SourceDir)
}

func isDirEntry(name string) bool {
	return len(name) > 0 && name[len(name)-1] == '/'
}

func extractEntry(entry *zip.File, targetPath string) error {
	if err := os.MkdirAll(filepath.Dir(targetPath), 0o755); err != nil {
		return fmt.Errorf("archive: create parent dir: %w", err)
	}
	src, err := entry.Open()
	if err != nil {
		return fmt.Errorf("archive: open entry %s: %w", entry.Name, err)
	}
	defer src.Close()

	dst, err := os.OpenFile(targetPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("archive: create %s: %w", targetPath, err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return fmt.Errorf("archive: write %s: %w", targetPath, err)
	}
	return nil
}

// normalizeSingleRoot lifts the children of source's sole entry up one
// level when that entry is a directory, matching
// zip_input_service.py's _normalize_single_root_directory (e.g. a ZIP
// downloaded from GitHub wraps everything in "<repo>-<branch>/").
func normalizeSingleRoot(sourceDir string) error {
	entries, err := os.ReadDir(sourceDir)
	if err != nil {
		return fmt.Errorf("archive: list source dir: %w", err)
	}
	if len(entries) != 1 || !entries[0].IsDir() {
		return nil
	}

	wrapper := filepath.Join(sourceDir, entries[0].Name())
	children, err := os.ReadDir(wrapper)
	if err != nil {
		return fmt.Errorf("archive: list wrapper dir: %w", err)
	}
	for _, child := range children {
		from := filepath.Join(wrapper, child.Name())
		to := filepath.Join(sourceDir, child.Name())
		if err := os.Rename(from, to); err != nil {
			return fmt.Errorf("archive: lift %s: %w", child.Name(), err)
		}
	}
	if err := os.Remove(wrapper); err != nil {
		return fmt.Errorf("archive: remove wrapper dir: %w", err)
	}
	return nil
}
