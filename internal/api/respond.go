package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/concourse/pipelinex/internal/apierr"
)

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeError maps err through apierr.HasHTTPStatus when possible,
// defaulting to 500 for anything else (§7's taxonomy is meant to be
// exhaustive, but an unclassified error must still fail safely).
func writeError(w http.ResponseWriter, err error) {
	var httpErr apierr.HasHTTPStatus
	status := http.StatusInternalServerError
	if errors.As(err, &httpErr) {
		status = httpErr.HTTPStatus()
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
