package queue

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"
)

// FileSpool is a durable Queue backed by files under
// WORKSPACES_DIR/.queue/: Enqueue creates an empty file named
// "<enqueued_at_nanos>-<job_id>", Dequeue picks the oldest file, removes
// it, and returns its job id. Restarting the worker process re-reads
// whatever files remain, satisfying "durable queue" at the single-node
// scale spec.md's Non-goals allow.
type FileSpool struct {
	dir          string
	pollInterval time.Duration
}

// NewFileSpool ensures dir exists and returns a FileSpool rooted there.
func NewFileSpool(dir string) (*FileSpool, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("queue: create spool dir: %w", err)
	}
	return &FileSpool{dir: dir, pollInterval: 250 * time.Millisecond}, nil
}

var _ Queue = (*FileSpool)(nil)

func (f *FileSpool) Enqueue(_ context.Context, jobID string) error {
	name := fmt.Sprintf("%020d-%s", time.Now().UnixNano(), jobID)
	path := filepath.Join(f.dir, name)
	file, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("queue: spool %s: %w", jobID, err)
	}
	return file.Close()
}

func (f *FileSpool) Dequeue(ctx context.Context) (string, error) {
	ticker := time.NewTicker(f.pollInterval)
	defer ticker.Stop()

	for {
		jobID, ok, err := f.claimOldest()
		if err != nil {
			return "", err
		}
		if ok {
			return jobID, nil
		}
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-ticker.C:
		}
	}
}

func (f *FileSpool) claimOldest() (string, bool, error) {
	entries, err := os.ReadDir(f.dir)
	if err != nil {
		return "", false, fmt.Errorf("queue: list spool: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	for _, name := range names {
		path := filepath.Join(f.dir, name)
		if err := os.Remove(path); err != nil {
			// Another worker claimed it first; try the next file.
			continue
		}
		idx := indexOfDash(name)
		if idx < 0 {
			continue
		}
		return name[idx+1:], true, nil
	}
	return "", false, nil
}

func indexOfDash(name string) int {
	for i, r := range name {
		if r == '-' {
			return i
		}
	}
	return -1
}
