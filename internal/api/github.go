package api

import (
	"encoding/json"
	"net/http"

	"github.com/concourse/pipelinex/internal/apierr"
	"github.com/concourse/pipelinex/internal/ingest/repo"
	"github.com/concourse/pipelinex/internal/orchestrator"
	"github.com/concourse/pipelinex/internal/safety"
)

type githubRequest struct {
	jobRequest
	GithubURL string `json:"github_url"`
}

// handleGithub serves POST /api/jobs/github (§6): a JSON body naming a
// public GitHub URL to clone. full_history/keep_git live on Pipeline's
// secret-scan selection (§4.4: a git-mode secret scan implies full
// history), so this handler derives them from the decoded request
// rather than accepting them as separate top-level fields.
func (s *Server) handleGithub(w http.ResponseWriter, r *http.Request) {
	var req githubRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apierr.InputValidationError{Reason: "invalid request JSON: " + err.Error()})
		return
	}

	if !repo.ValidGitHubURL(req.GithubURL) {
		writeError(w, apierr.InputValidationError{Reason: "only public GitHub repository URLs are accepted"})
		return
	}

	fullHistory := req.Pipeline.RunSecretScan && req.Pipeline.SecretScanMode == "git"

	in := repo.Ingestor{
		URL:          req.GithubURL,
		FullHistory:  fullHistory,
		CloneTimeout: s.Config.GitCloneTimeout,
		MaxDepth:     s.Config.GitMaxDepth,
		WalkLimits: safety.WalkLimits{
			MaxFiles:             s.Config.MaxFiles,
			MaxUncompressedBytes: s.Config.MaxUncompressedBytes,
			MaxDepth:             s.Config.MaxDepth,
		},
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
