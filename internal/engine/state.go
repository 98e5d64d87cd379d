package engine

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/concourse/pipelinex/internal/model"
	"github.com/concourse/pipelinex/internal/workspace"
)

// InitialState seeds state.json at the start of a job's execution: every
// stage the pipeline selects starts PENDING, everything else starts
// SKIPPED, per §4.9's "Preparation" step 3.
func InitialState(now time.Time, pipeline model.Pipeline) *model.ExecutionState {
	stages := make(map[model.Stage]*model.StageState, len(model.StageOrder))
	for _, s := range model.StageOrder {
		status := model.StageSkipped
		if pipeline.Enabled(s) {
			status = model.StagePending
		}
		stages[s] = &model.StageState{Status: status}
	}
	return &model.ExecutionState{
		State:     model.JobRunning,
		UpdatedAt: now,
		Stages:    stages,
	}
}

// ReadState loads state.json from h, returning (nil, nil) if it does not
// exist yet — callers treat that as the QUEUED phase (§3 invariant:
// "state.json absent ⇒ execution is QUEUED").
func ReadState(h *workspace.Handle) (*model.ExecutionState, error) {
	data, err := os.ReadFile(h.StatePath())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("engine: read state.json: %w", err)
	}
	var state model.ExecutionState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("engine: parse state.json: %w", err)
	}
	return &state, nil
}

// WriteState persists state via write-then-rename.
func WriteState(h *workspace.Handle, state *model.ExecutionState) error {
	return workspace.WriteJSONAtomic(h.StatePath(), state)
}

// ReadMetadata loads the immutable metadata.json.
func ReadMetadata(h *workspace.Handle) (*model.JobMetadata, error) {
	data, err := os.ReadFile(h.MetadataPath())
	if err != nil {
		return nil, fmt.Errorf("engine: read metadata.json: %w", err)
	}
	var metadata model.JobMetadata
	if err := json.Unmarshal(data, &metadata); err != nil {
		return nil, fmt.Errorf("engine: parse metadata.json: %w", err)
	}
	return &metadata, nil
}

// DeriveStageView returns the {stage: status} shape both the QUEUED
// phase (no state.json yet) and the running/terminal phases present to
// the status API, implementing §9's open-question resolution that both
// phases must share one code path so they can never drift in shape.
func DeriveStageView(metadata *model.JobMetadata, state *model.ExecutionState) map[model.Stage]model.StageState {
	view := make(map[model.Stage]model.StageState, len(model.StageOrder))
	if state != nil {
		for _, s := range model.StageOrder {
			if st, ok := state.Stages[s]; ok && st != nil {
				view[s] = *st
			} else {
				view[s] = model.StageState{Status: model.StageSkipped}
			}
		}
		return view
	}
	for _, s := range model.StageOrder {
		status := model.StageSkipped
		if metadata.Pipeline.Enabled(s) {
			status = model.StagePending
		}
		view[s] = model.StageState{Status: status}
	}
	return view
}
