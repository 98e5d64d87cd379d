package api

import (
	"net/http"
	"strings"

	"github.com/tedsuo/rata"

	"github.com/concourse/pipelinex/internal/apierr"
	"github.com/concourse/pipelinex/internal/engine"
	"github.com/concourse/pipelinex/internal/model"
	"github.com/concourse/pipelinex/internal/reports"
	"github.com/concourse/pipelinex/internal/workspace"
)

// handleStageLog serves GET /api/jobs/{job_id}/{stage}/logs: a single
// allow-listed file from reports/<stage_lower>/, 404 if the stage is
// unknown or skipped, 409 if it is pending or still running (§6).
func (s *Server) handleStageLog(w http.ResponseWriter, r *http.Request) {
	jobID := rata.Param(r, "job_id")
	stage := model.Stage(strings.ToUpper(rata.Param(r, "stage")))

	if !isKnownStage(stage) {
		writeError(w, apierr.NotFoundError{Reason: "unknown stage: " + string(stage)})
		return
	}

	h, err := workspace.Open(s.Config.WorkspacesDir, jobID)
	if err != nil {
		writeError(w, apierr.NotFoundError{Reason: "job not found: " + jobID})
		return
	}

	metadata, err := engine.ReadMetadata(h)
	if err != nil {
		writeError(w, apierr.InternalCorruptionError{Reason: "metadata.json unreadable: " + err.Error()})
		return
	}
	state, err := engine.ReadState(h)
	if err != nil {
		writeError(w, apierr.InternalCorruptionError{Reason: "state.json unreadable: " + err.Error()})
		return
	}

	view := engine.DeriveStageView(metadata, state)
	st, ok := view[stage]
	if !ok || st.Status == model.StageSkipped {
		writeError(w, apierr.NotFoundError{Reason: "stage skipped or unknown: " + string(stage)})
		return
	}
	if st.Status == model.StagePending || st.Status == model.StageRunning {
		writeError(w, apierr.ConflictError{Reason: "stage has not finished executing"})
		return
	}

	path, err := reports.ResolveLogFile(h.ReportsDir(), stage)
	if err != nil {
		writeError(w, apierr.NotFoundError{Reason: "no log file available for stage " + string(stage)})
		return
	}

	http.ServeFile(w, r, path)
}

func isKnownStage(stage model.Stage) bool {
	for _, s := range model.StageOrder {
		if s == stage {
			return true
		}
	}
	return false
}
