// Package compose assembles the YAML fragments named by §4.9.1's
// topology table and drives `docker compose up`/`down` as a subprocess
// — no comparable Go SDK exists anywhere in the example pool for the
// compose CLI's orchestration semantics, so this remains a literal
// os/exec invocation exactly matching §6's subprocess contract.
// Fragment merging uses goccy/go-yaml for parsing and dario.cat/mergo
// for the override semantics compose itself implements when given
// multiple -f files, letting the engine validate a topology's shape
// before ever invoking the compose binary.
package compose

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"dario.cat/mergo"
	"github.com/goccy/go-yaml"
)

// Topology names the fragment files (§4.9.1) selected for a stage.
type Topology struct {
	Base       string
	App        string // "app-runner.yml" or "app-jar.yml"
	DB         []string
	Zap        []string
	AppDBZap   string // "app-db-zap.yml", present only when both DB and Zap are set
	ExitFrom   string // "zap" if present else "app"
}

// Fragments returns the ordered list of fragment filenames for t, as
// described in §4.9.1: "base.yml + (app-runner.yml|app-jar.yml) +
// optionally {db.yml,app-db.yml} + optionally {zap.yml,app-zap.yml} +
// app-db-zap.yml when both are present".
func (t Topology) Fragments() []string {
	frags := []string{t.Base, t.App}
	frags = append(frags, t.DB...)
	frags = append(frags, t.Zap...)
	if len(t.DB) > 0 && len(t.Zap) > 0 && t.AppDBZap != "" {
		frags = append(frags, t.AppDBZap)
	}
	return frags
}

// Merged parses and merges fragDir/<name> for every name in
// t.Fragments(), in order, later fragments overriding earlier ones —
// the same semantics `docker compose -f a -f b` applies. Used by the
// engine to fail fast (InfrastructureError) if a fragment is absent or
// malformed before ever shelling out.
func Merged(fragDir string, fragments []string) (map[string]any, error) {
	merged := map[string]any{}
	for _, name := range fragments {
		path := filepath.Join(fragDir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("compose: read fragment %s: %w", name, err)
		}
		var doc map[string]any
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("compose: parse fragment %s: %w", name, err)
		}
		if err := mergo.Merge(&merged, doc, mergo.WithOverride); err != nil {
			return nil, fmt.Errorf("compose: merge fragment %s: %w", name, err)
		}
	}
	return merged, nil
}

// CopyFragments copies fragDir/<name> into destDir/<name> for every
// fragment, matching §4.9.1's "copies these fragments into the
// workspace".
func CopyFragments(fragDir, destDir string, fragments []string) error {
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return fmt.Errorf("compose: create fragment dest: %w", err)
	}
	for _, name := range fragments {
		data, err := os.ReadFile(filepath.Join(fragDir, name))
		if err != nil {
			return fmt.Errorf("compose: read fragment %s: %w", name, err)
		}
		if err := os.WriteFile(filepath.Join(destDir, name), data, 0o644); err != nil {
			return fmt.Errorf("compose: write fragment %s: %w", name, err)
		}
	}
	return nil
}

// Up runs `compose -f <frag>... up --abort-on-container-exit
// --exit-code-from=<exitFromService>` in projectDir.
func Up(ctx context.Context, projectDir string, fragments []string, exitFromService string, env []string) error {
	args := composeFileArgs(fragments)
	args = append(args, "up", "--abort-on-container-exit", "--exit-code-from", exitFromService)
	return run(ctx, projectDir, env, args)
}

// Down runs `compose -f <frag>... down -v --remove-orphans`. Callers
// must invoke this unconditionally after Up, regardless of Up's
// outcome (§4.9: "a guaranteed down -v --remove-orphans follows
// regardless of up outcome").
func Down(ctx context.Context, projectDir string, fragments []string, env []string) error {
	args := composeFileArgs(fragments)
	args = append(args, "down", "-v", "--remove-orphans")
	return run(ctx, projectDir, env, args)
}

func composeFileArgs(fragments []string) []string {
	args := make([]string, 0, len(fragments)*2)
	for _, f := range fragments {
		args = append(args, "-f", f)
	}
	return args
}

func run(ctx context.Context, dir string, env []string, args []string) error {
	cmd := exec.CommandContext(ctx, "docker", append([]string{"compose"}, args...)...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(), env...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("compose: %v: %s: %w", args, string(output), err)
	}
	return nil
}
