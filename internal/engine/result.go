package engine

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/concourse/pipelinex/internal/model"
)

// normalizeSecretsReportDir implements §4.9.2's special post-step for
// SECRETS: the stage may emit into reports/secrets-dir/ or
// reports/secrets-git/; the worker normalizes to reports/secrets/
// before reading result.json. When both exist (a configuration
// collision), secrets-dir takes precedence (§9 open question).
func normalizeSecretsReportDir(reportsDir string) error {
	target := filepath.Join(reportsDir, "secrets")
	dirCandidate := filepath.Join(reportsDir, "secrets-dir")
	gitCandidate := filepath.Join(reportsDir, "secrets-git")

	var chosen string
	if _, err := os.Stat(dirCandidate); err == nil {
		chosen = dirCandidate
	} else if _, err := os.Stat(gitCandidate); err == nil {
		chosen = gitCandidate
	} else {
		return nil
	}

	if _, err := os.Stat(target); err == nil {
		if err := os.RemoveAll(target); err != nil {
			return fmt.Errorf("engine: clear existing secrets report dir: %w", err)
		}
	}
	if err := os.Rename(chosen, target); err != nil {
		return fmt.Errorf("engine: normalize secrets report dir: %w", err)
	}
	return nil
}

// readStageResult reads reports/<stage_lower>/result.json. A missing
// file is reported via ok=false rather than an error, so the caller can
// synthesize the FAILURE status §4.9 mandates.
func readStageResult(reportsDir string, stage model.Stage) (model.StageResult, bool, error) {
	path := filepath.Join(reportsDir, stage.Lower(), "result.json")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return model.StageResult{}, false, nil
		}
		return model.StageResult{}, false, fmt.Errorf("engine: read %s: %w", path, err)
	}
	var result model.StageResult
	if err := json.Unmarshal(data, &result); err != nil {
		return model.StageResult{}, false, fmt.Errorf("engine: parse %s: %w", path, err)
	}
	return result, true, nil
}
