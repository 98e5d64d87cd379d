package workspace_test

import (
	"os"
	"path/filepath"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/concourse/pipelinex/internal/model"
	"github.com/concourse/pipelinex/internal/workspace"
)

func TestWorkspace(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Workspace Suite")
}

var _ = Describe("Create", func() {
	It("allocates job-001 for an empty root and lays out source/pipelines", func() {
		root := GinkgoT().TempDir()
		h, err := workspace.Create(root, model.InputTypeZip)
		Expect(err).NotTo(HaveOccurred())
		Expect(h.JobID).To(Equal("job-001"))
		Expect(h.SourceDir).To(BeADirectory())
		Expect(h.PipelinesDir()).To(BeADirectory())
	})

	It("allocates the next sequential id alongside existing job directories", func() {
		root := GinkgoT().TempDir()
		_, err := workspace.Create(root, model.InputTypeZip)
		Expect(err).NotTo(HaveOccurred())
		h2, err := workspace.Create(root, model.InputTypeZip)
		Expect(err).NotTo(HaveOccurred())
		Expect(h2.JobID).To(Equal("job-002"))
	})
})

var _ = Describe("Open", func() {
	It("reconstructs a handle for an admitted job, reading its input type from metadata.json", func() {
		root := GinkgoT().TempDir()
		h, err := workspace.Create(root, model.InputTypeGithub)
		Expect(err).NotTo(HaveOccurred())
		Expect(workspace.WriteJSONAtomic(h.MetadataPath(), model.JobMetadata{
			JobID:     h.JobID,
			InputType: model.InputTypeGithub,
		})).To(Succeed())

		reopened, err := workspace.Open(root, h.JobID)
		Expect(err).NotTo(HaveOccurred())
		Expect(reopened.InputType).To(Equal(model.InputTypeGithub))
		Expect(reopened.JobDir).To(Equal(h.JobDir))
	})

	It("errors for a job id with no directory on disk", func() {
		root := GinkgoT().TempDir()
		_, err := workspace.Open(root, "job-999")
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("Cleanup", func() {
	It("removes the job directory tree", func() {
		root := GinkgoT().TempDir()
		h, err := workspace.Create(root, model.InputTypeZip)
		Expect(err).NotTo(HaveOccurred())
		Expect(workspace.Cleanup(h)).To(Succeed())
		Expect(h.JobDir).NotTo(BeADirectory())
	})

	It("tolerates a nil handle and an already-removed directory", func() {
		Expect(workspace.Cleanup(nil)).To(Succeed())
		root := GinkgoT().TempDir()
		h := &workspace.Handle{JobDir: filepath.Join(root, "job-001")}
		Expect(workspace.Cleanup(h)).To(Succeed())
	})
})

var _ = Describe("WriteJSONAtomic", func() {
	It("writes via a temp file and rename, leaving no .tmp file behind", func() {
		dir := GinkgoT().TempDir()
		path := filepath.Join(dir, "doc.json")
		Expect(workspace.WriteJSONAtomic(path, map[string]string{"a": "b"})).To(Succeed())

		data, err := os.ReadFile(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(string(data)).To(ContainSubstring(`"a": "b"`))

		_, err = os.Stat(path + ".tmp")
		Expect(os.IsNotExist(err)).To(BeTrue())
	})
})
