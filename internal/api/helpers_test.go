package api_test

import (
	"os"
	"path/filepath"

	"github.com/concourse/pipelinex/internal/workspace"
)

func mkdirReports(h *workspace.Handle) error {
	return os.MkdirAll(h.ReportsDir(), 0o755)
}

func writeReportFile(h *workspace.Handle, stageDir, name, contents string) error {
	dir := filepath.Join(h.ReportsDir(), stageDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, name), []byte(contents), 0o644)
}
