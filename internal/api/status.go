package api

import (
	"net/http"

	"github.com/tedsuo/rata"

	"github.com/concourse/pipelinex/internal/apierr"
	"github.com/concourse/pipelinex/internal/engine"
	"github.com/concourse/pipelinex/internal/model"
	"github.com/concourse/pipelinex/internal/workspace"
)

// statusResponse is §6's `{job, execution}` shape.
type statusResponse struct {
	Job       *model.JobMetadata `json:"job"`
	Execution executionView      `json:"execution"`
}

type executionView struct {
	State        model.JobState                  `json:"state"`
	CurrentStage *model.Stage                     `json:"current_stage"`
	Stages       map[model.Stage]model.StageState `json:"stages"`
	Error        *string                          `json:"error,omitempty"`
}

// handleStatus serves GET /api/jobs/{job_id}/status.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	jobID := rata.Param(r, "job_id")

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
	resp := statusResponse{Job: metadata, Execution: executionView{Stages: view}}
	if state != nil {
		resp.Execution.State = state.State
		resp.Execution.CurrentStage = state.CurrentStage
		resp.Execution.Error = state.Error
	} else {
		resp.Execution.State = model.JobQueued
	}

	writeJSON(w, http.StatusOK, resp)
}
