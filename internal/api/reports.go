package api

import (
	"net/http"
	"os"

	"github.com/tedsuo/rata"

	"github.com/concourse/pipelinex/internal/apierr"
	"github.com/concourse/pipelinex/internal/engine"
	"github.com/concourse/pipelinex/internal/model"
	"github.com/concourse/pipelinex/internal/reports"
	"github.com/concourse/pipelinex/internal/workspace"
)

// handleReports serves GET /api/jobs/{job_id}/reports: a ZIP of
// reports/, 404 if job or reports dir missing, 409 if the job has not
// started or is still running (§6).
func (s *Server) handleReports(w http.ResponseWriter, r *http.Request) {
	jobID := rata.Param(r, "job_id")

	h, err := workspace.Open(s.Config.WorkspacesDir, jobID)
	if err != nil {
		writeError(w, apierr.NotFoundError{Reason: "job not found: " + jobID})
		return
	}
	if _, err := os.Stat(h.ReportsDir()); err != nil {
		writeError(w, apierr.NotFoundError{Reason: "reports not found for job " + jobID})
		return
	}

	state, err := engine.ReadState(h)
	if err != nil {
		writeError(w, apierr.InternalCorruptionError{Reason: "state.json unreadable: " + err.Error()})
		return
	}
	if state == nil || state.State == model.JobRunning {
		writeError(w, apierr.ConflictError{Reason: "job has not finished executing"})
		return
	}

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", `attachment; filename="`+jobID+`-reports.zip"`)
	w.WriteHeader(http.StatusOK)
	_ = reports.WriteZip(w, h.ReportsDir())
}
