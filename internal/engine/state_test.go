package engine

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/concourse/pipelinex/internal/model"
)

var _ = Describe("InitialState", func() {
	It("marks only selected stages PENDING and the rest SKIPPED", func() {
		pipeline := model.Pipeline{RunBuild: true, RunUnitTests: true}
		state := InitialState(time.Now(), pipeline)

		Expect(state.State).To(Equal(model.JobRunning))
		Expect(state.Stages[model.StageBuild].Status).To(Equal(model.StagePending))
		Expect(state.Stages[model.StageTest].Status).To(Equal(model.StagePending))
		Expect(state.Stages[model.StageDast].Status).To(Equal(model.StageSkipped))
		Expect(state.Stages[model.StageSecrets].Status).To(Equal(model.StageSkipped))
	})

	It("seeds an entry for every stage in StageOrder", func() {
		state := InitialState(time.Now(), model.Pipeline{})
		Expect(state.Stages).To(HaveLen(len(model.StageOrder)))
	})
})

var _ = Describe("DeriveStageView", func() {
	It("derives PENDING/SKIPPED from the pipeline selection when state.json is absent (QUEUED phase)", func() {
		metadata := &model.JobMetadata{Pipeline: model.Pipeline{RunBuild: true}}
		view := DeriveStageView(metadata, nil)

		Expect(view[model.StageBuild].Status).To(Equal(model.StagePending))
		Expect(view[model.StageTest].Status).To(Equal(model.StageSkipped))
	})

	It("reflects the persisted state once execution has started", func() {
		metadata := &model.JobMetadata{Pipeline: model.Pipeline{RunBuild: true}}
		state := &model.ExecutionState{
			Stages: map[model.Stage]*model.StageState{
				model.StageBuild: {Status: model.StageSuccess},
			},
		}
		view := DeriveStageView(metadata, state)

		Expect(view[model.StageBuild].Status).To(Equal(model.StageSuccess))
		Expect(view[model.StageTest].Status).To(Equal(model.StageSkipped))
	})
})
