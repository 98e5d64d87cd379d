// Package ingest defines the Ingestor capability shared by the archive
// and repository materializers, per SPEC_FULL §9's "Polymorphism over
// input source" design note: the orchestrator depends only on this
// interface, never on the zip or git implementations directly.
package ingest

import (
	"context"

	"github.com/concourse/pipelinex/internal/model"
	"github.com/concourse/pipelinex/internal/workspace"
)

// Ingestor materializes a submitted project into an already-allocated
// workspace's source directory.
type Ingestor interface {
	// Materialize populates h.SourceDir from whatever source this
	// ingestor wraps (an uploaded archive, a remote repository).
	Materialize(ctx context.Context, h *workspace.Handle) error

	// InputType reports which model.InputType this ingestor produces,
	// used to populate JobMetadata.InputType.
	InputType() model.InputType
}
