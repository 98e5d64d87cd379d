package api

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/concourse/pipelinex/internal/apierr"
	"github.com/concourse/pipelinex/internal/ingest/archive"
	"github.com/concourse/pipelinex/internal/model"
	"github.com/concourse/pipelinex/internal/orchestrator"
)

// jobRequest is the caller-declared stack/versions/pipeline selection
// shared by both admission entry points.
type jobRequest struct {
	Stack    model.Stack    `json:"stack"`
	Versions model.Versions `json:"versions"`
	Pipeline model.Pipeline `json:"pipeline"`
}

// handleUpload serves POST /api/jobs/upload (§6): a multipart body
// carrying a project_zip file part and a metadata JSON string part.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.Config.MaxUploadBytes+1<<20)
	if err := r.ParseMultipartForm(s.Config.MaxUploadBytes); err != nil {
		writeError(w, apierr.InputValidationError{Reason: "failed to parse multipart upload: " + err.Error()})
		return
	}

	file, _, err := r.FormFile("project_zip")
	if err != nil {
		writeError(w, apierr.InputValidationError{Reason: "missing project_zip file part"})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, s.Config.MaxUploadBytes+1))
	if err != nil {
		writeError(w, apierr.InputValidationError{Reason: "failed to read upload: " + err.Error()})
		return
	}
	if int64(len(data)) > s.Config.MaxUploadBytes {
		writeError(w, apierr.InputValidationError{Reason: "upload exceeds maximum accepted size"})
		return
	}

	var req jobRequest
	if err := json.Unmarshal([]byte(r.FormValue("metadata")), &req); err != nil {
		writeError(w, apierr.InputValidationError{Reason: "invalid metadata JSON: " + err.Error()})
		return
	}

	in := archive.Ingestor{
		Data:                 data,
		MaxFiles:             s.Config.MaxFiles,
		MaxUncompressedBytes: s.Config.MaxUncompressedBytes,
		MaxDepth:             s.Config.MaxDepth,
	}

	metadata, err := s.Orchestrator.CreateJob(r.Context(), in, orchestrator.StackDecl{
		Stack:    req.Stack,
		Versions: req.Versions,
		Pipeline: req.Pipeline,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, metadata)
}
