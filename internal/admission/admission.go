// Package admission composes the structure validator and workspace to
// enforce §4.6's preconditions, run validation, and persist metadata.json
// atomically. Grounded on
// original_source/backend/services/job_admission.py.
package admission

import (
	"fmt"
	"time"

	"github.com/concourse/pipelinex/internal/apierr"
	"github.com/concourse/pipelinex/internal/contract"
	"github.com/concourse/pipelinex/internal/model"
	"github.com/concourse/pipelinex/internal/workspace"
)

// Request bundles the caller-declared fields admission needs beyond the
// workspace itself.
type Request struct {
	Stack    model.Stack
	Versions model.Versions
	Pipeline model.Pipeline
	// Database is nil unless Stack.RequiresDB; the orchestrator resolves
	// it against config.Config.DefaultDatabase before calling Admit
	// (§4.8).
	Database *model.DatabaseConfig
}

// Service runs admission against a configured contracts override
// directory (empty uses the embedded defaults).
type Service struct {
	ContractsRoot string
}

// Admit enforces the secret-scan/input-type precondition, validates the
// materialized source tree against the stack's contract, and on
// anything but REFUSED writes metadata.json via write-then-rename.
//
// Returns a StructuralRefusalError if the validator refuses, or an
// InputValidationError for the secret-scan/input-type incoherence.
func (s Service) Admit(h *workspace.Handle, req Request) (*model.JobMetadata, error) {
	if req.Pipeline.RunSecretScan &&
		req.Pipeline.SecretScanMode == model.SecretScanModeGit &&
		h.InputType == model.InputTypeZip {
		return nil, apierr.InputValidationError{
			Reason: "Secret scan mode 'git' is not supported for ZIP inputs (no git history)",
		}
	}

	c, err := contract.Load(s.ContractsRoot, req.Stack.Framework, req.Stack.BuildTool)
	if err != nil {
		return nil, apierr.InfrastructureError{Reason: fmt.Sprintf("unsupported stack: %v", err)}
	}

	validation, err := c.Evaluate(h.SourceDir)
	if err != nil {
		return nil, fmt.Errorf("admission: evaluate contract: %w", err)
	}

	status := validation.Status()
	if status == model.StatusRefused {
		return nil, apierr.StructuralRefusalError{Errors: validation.Errors}
	}

	metadata := &model.JobMetadata{
		JobID:     h.JobID,
		Status:    status,
		Stack:     req.Stack,
		Versions:  req.Versions,
		Pipeline:  req.Pipeline,
		Database:  req.Database,
		Warnings:  validation.Warnings,
		CreatedAt: time.Now().UTC(),
		InputType: h.InputType,
	}

	if err := workspace.WriteJSONAtomic(h.MetadataPath(), metadata); err != nil {
		return nil, fmt.Errorf("admission: persist metadata: %w", err)
	}

	return metadata, nil
}
