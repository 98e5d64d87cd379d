package engine

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ensureReportsDir creates reports/ if absent (§4.9 preparation step 1).
func ensureReportsDir(reportsDir string) error {
	if err := os.MkdirAll(reportsDir, 0o777); err != nil {
		return fmt.Errorf("engine: ensure reports dir: %w", err)
	}
	return nil
}

// relaxPermissions implements §4.9 preparation step 2: recursively
// grant read/write to files (0666) and traversal to directories (0777)
// under jobDir, and make every *.sh under pipelinesDir executable. The
// runner container executes as a fixed unprivileged UID distinct from
// the worker's own, so ownership-based permissions would otherwise
// block it from reading or writing workspace files. The executable bit
// is scoped to pipelinesDir so a malicious *.sh shipped inside the
// uploaded/cloned source tree is never made executable.
func relaxPermissions(jobDir, pipelinesDir string) error {
	pipelinesPrefix := pipelinesDir + string(os.PathSeparator)
	return filepath.WalkDir(jobDir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return os.Chmod(path, 0o777)
		}
		mode := os.FileMode(0o666)
		if strings.HasSuffix(path, ".sh") && strings.HasPrefix(path, pipelinesPrefix) {
			mode = 0o777
		}
		return os.Chmod(path, mode)
	})
}
