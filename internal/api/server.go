// Package api implements §6's HTTP surface: job admission endpoints
// backed by internal/orchestrator, and read-only status/reports/logs
// endpoints backed by internal/engine's state helpers. Routing follows
// the teacher's tedsuo/rata convention (atc/wrappa wraps a rata.Handlers
// set the same way); response bodies are the plain JSON shapes §3/§6
// specify verbatim, not a JSON:API envelope — google/jsonapi, which the
// teacher's go.mod carries for atc/api, is not wired here because it
// would force a different wire shape than the one this spec fixes.
package api

import (
	"net/http"

	"github.com/tedsuo/rata"

	"github.com/concourse/pipelinex/internal/config"
	"github.com/concourse/pipelinex/internal/orchestrator"
	"github.com/concourse/pipelinex/internal/wrappa"
)

// Server composes the dependencies every handler needs.
type Server struct {
	Config       config.Config
	Orchestrator orchestrator.Orchestrator
}

// NewHandler builds the fully-wrapped http.Handler serving §6's routes.
func NewHandler(s *Server, wrappas ...wrappa.Wrappa) (http.Handler, error) {
	handlers := rata.Handlers{
		UploadJob:   http.HandlerFunc(s.handleUpload),
		GithubJob:   http.HandlerFunc(s.handleGithub),
		JobStatus:   http.HandlerFunc(s.handleStatus),
		JobReports:  http.HandlerFunc(s.handleReports),
		JobStageLog: http.HandlerFunc(s.handleStageLog),
	}
	handlers = wrappa.Wrap(handlers, wrappas...)
	return rata.NewRouter(Routes, handlers)
}
