package engine

import (
	"fmt"

	"github.com/concourse/pipelinex/internal/model"
	"github.com/concourse/pipelinex/internal/runtime/compose"
)

// resolveTopology implements §4.9.1's per-stage app/db/zap table and the
// fragment-selection rule. Non-compose stages return a zero Topology
// with NeedsCompose=false.
type resolvedTopology struct {
	NeedsCompose bool
	Topology     compose.Topology
}

func resolveTopology(stage model.Stage, requiresDB bool) (resolvedTopology, error) {
	wantsDB := requiresDB && (stage == model.StageSmokeTest || stage == model.StageDast)
	wantsZap := stage == model.StageDast

	if !wantsDB && !wantsZap {
		return resolvedTopology{NeedsCompose: false}, nil
	}

	t := compose.Topology{
		Base: "base.yml",
		App:  "app-runner.yml",
	}
	if stage == model.StageDast {
		t.App = "app-jar.yml"
	}
	if wantsDB {
		t.DB = []string{"db.yml", "app-db.yml"}
	}
	if wantsZap {
		t.Zap = []string{"zap.yml", "app-zap.yml"}
		t.AppDBZap = "app-db-zap.yml"
	}
	t.ExitFrom = "app"
	if wantsZap {
		t.ExitFrom = "zap"
	}

	if wantsZap && !hasApp(t) {
		return resolvedTopology{}, fmt.Errorf("engine: zap topology requires app (invariant violated)")
	}
	if wantsDB && !hasApp(t) {
		return resolvedTopology{}, fmt.Errorf("engine: db topology requires app (invariant violated)")
	}

	return resolvedTopology{NeedsCompose: true, Topology: t}, nil
}

func hasApp(t compose.Topology) bool { return t.App != "" }
