// Package reports streams a job's reports/ directory as a ZIP archive on
// demand for the GET /api/jobs/{job_id}/reports endpoint (§6), and
// resolves single-file log reads for GET
// /api/jobs/{job_id}/{stage}/logs's per-stage allow-list.
package reports

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/flate"

	"github.com/concourse/pipelinex/internal/model"
)

// WriteZip walks reportsDir and writes every regular file into a ZIP
// stream using klauspost/compress's flate implementation at its
// BestSpeed level, the same fast-deflate registration
// internal/safety applies on the read side.
func WriteZip(w io.Writer, reportsDir string) error {
	zw := zip.NewWriter(w)
	zw.RegisterCompressor(zip.Deflate, func(out io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(out, flate.BestSpeed)
	})
	defer zw.Close()

	return filepath.WalkDir(reportsDir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(reportsDir, path)
		if err != nil {
			return fmt.Errorf("reports: relativize %s: %w", path, err)
		}
		entry, err := zw.Create(filepath.ToSlash(rel))
		if err != nil {
			return fmt.Errorf("reports: create zip entry %s: %w", rel, err)
		}
		src, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("reports: open %s: %w", path, err)
		}
		defer src.Close()
		if _, err := io.Copy(entry, src); err != nil {
			return fmt.Errorf("reports: copy %s: %w", rel, err)
		}
		return nil
	})
}

// logFileAllowList names, per stage, the candidate filenames under
// reports/<stage_lower>/ that GET .../{stage}/logs may serve — the first
// one present wins (§6: "first match from a per-stage file
// allow-list"). SECRETS lists secrets-dir.json and secrets-git.json
// after secrets.json because those are the report files the dir- and
// git-mode scripts write; the worker's normalization moves their
// directory to reports/secrets/, the only directory searched here.
var logFileAllowList = map[model.Stage][]string{
	model.StageSecrets:   {"secrets.json", "secrets-dir.json", "secrets-git.json"},
	model.StageBuild:     {"build.log"},
	model.StageTest:      {"test.log"},
	model.StageSast:      {"sast.json", "sast.log"},
	model.StageSca:       {"sca.json", "sca.log"},
	model.StagePackage:   {"package.log"},
	model.StageSmokeTest: {"smoke-test.log"},
	model.StageDast:      {"dast.json", "dast.log"},
}

// ErrStageUnknown is returned by ResolveLogFile for a stage name outside
// the fixed set.
var ErrStageUnknown = fmt.Errorf("reports: unknown stage")

// ResolveLogFile returns the path to the first allow-listed file present
// under reportsDir/<stage_lower>/, or ("", os.ErrNotExist) if none of
// the candidates exist.
func ResolveLogFile(reportsDir string, stage model.Stage) (string, error) {
	candidates, ok := logFileAllowList[stage]
	if !ok {
		return "", ErrStageUnknown
	}
	dir := filepath.Join(reportsDir, stage.Lower())
	for _, name := range candidates {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	return "", os.ErrNotExist
}
