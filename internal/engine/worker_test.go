package engine_test

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/concourse/pipelinex/internal/config"
	"github.com/concourse/pipelinex/internal/engine"
	"github.com/concourse/pipelinex/internal/model"
	"github.com/concourse/pipelinex/internal/queue"
	"github.com/concourse/pipelinex/internal/runtime/fake"
	"github.com/concourse/pipelinex/internal/workspace"
)

var _ = Describe("Worker.Run", func() {
	It("drains enqueued jobs through the engine until its context is cancelled", func() {
		root := GinkgoT().TempDir()
		h, err := workspace.Create(root, model.InputTypeZip)
		Expect(err).NotTo(HaveOccurred())
		metadata := model.JobMetadata{
			JobID:    h.JobID,
			Stack:    model.Stack{Language: "java", Framework: "java", BuildTool: "maven"},
			Pipeline: model.Pipeline{RunBuild: true},
		}
		Expect(workspace.WriteJSONAtomic(h.MetadataPath(), metadata)).To(Succeed())

		rt := &fake.Runtime{
			ExecResultWriter: fake.WriteResult(h.ReportsDir(), "build", "SUCCESS", ""),
		}
		cfg := config.Config{WorkspacesDir: root}
		eng := engine.New(cfg, rt)
		q := queue.NewChannel(1)

		ctx, cancel := context.WithCancel(context.Background())
		w := engine.NewWorker(eng, q, cfg)

		done := make(chan error, 1)
		go func() { done <- w.Run(ctx) }()

		Expect(q.Enqueue(context.Background(), h.JobID)).To(Succeed())

		Eventually(func() (model.JobState, error) {
			state, serr := engine.ReadState(h)
			if serr != nil || state == nil {
				return "", serr
			}
			return state.State, nil
		}, time.Second).Should(Equal(model.JobSucceeded))

		cancel()
		Eventually(done, time.Second).Should(Receive(BeNil()))
	})
})
