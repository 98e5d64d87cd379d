package engine

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/concourse/pipelinex/internal/model"
)

var _ = Describe("readStageResult", func() {
	var reportsDir string

	BeforeEach(func() {
		reportsDir = GinkgoT().TempDir()
	})

	It("returns ok=false without error when result.json is absent", func() {
		result, ok, err := readStageResult(reportsDir, model.StageBuild)
		Expect(err).NotTo(HaveOccurred())
		Expect(ok).To(BeFalse())
		Expect(result).To(Equal(model.StageResult{}))
	})

	It("parses a present result.json", func() {
		dir := filepath.Join(reportsDir, "build")
		Expect(os.MkdirAll(dir, 0o755)).To(Succeed())
		Expect(os.WriteFile(filepath.Join(dir, "result.json"), []byte(`{"status":"SUCCESS"}`), 0o644)).To(Succeed())

		result, ok, err := readStageResult(reportsDir, model.StageBuild)
		Expect(err).NotTo(HaveOccurred())
		Expect(ok).To(BeTrue())
		Expect(result.Status).To(Equal("SUCCESS"))
	})

	It("errors on malformed JSON", func() {
		dir := filepath.Join(reportsDir, "test")
		Expect(os.MkdirAll(dir, 0o755)).To(Succeed())
		Expect(os.WriteFile(filepath.Join(dir, "result.json"), []byte(`not json`), 0o644)).To(Succeed())

		_, _, err := readStageResult(reportsDir, model.StageTest)
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("normalizeSecretsReportDir", func() {
	var reportsDir string

	BeforeEach(func() {
		reportsDir = GinkgoT().TempDir()
	})

	It("is a no-op when neither candidate directory exists", func() {
		Expect(normalizeSecretsReportDir(reportsDir)).To(Succeed())
		_, err := os.Stat(filepath.Join(reportsDir, "secrets"))
		Expect(os.IsNotExist(err)).To(BeTrue())
	})

	It("renames secrets-dir to secrets when only secrets-dir is present", func() {
		src := filepath.Join(reportsDir, "secrets-dir")
		Expect(os.MkdirAll(src, 0o755)).To(Succeed())
		Expect(os.WriteFile(filepath.Join(src, "secrets-dir.json"), []byte("{}"), 0o644)).To(Succeed())

		Expect(normalizeSecretsReportDir(reportsDir)).To(Succeed())

		_, err := os.Stat(filepath.Join(reportsDir, "secrets", "secrets-dir.json"))
		Expect(err).NotTo(HaveOccurred())
	})

	It("renames secrets-git to secrets when only secrets-git is present", func() {
		src := filepath.Join(reportsDir, "secrets-git")
		Expect(os.MkdirAll(src, 0o755)).To(Succeed())

		Expect(normalizeSecretsReportDir(reportsDir)).To(Succeed())

		_, err := os.Stat(filepath.Join(reportsDir, "secrets"))
		Expect(err).NotTo(HaveOccurred())
	})

	It("prefers secrets-dir over secrets-git when both are present", func() {
		dirSrc := filepath.Join(reportsDir, "secrets-dir")
		gitSrc := filepath.Join(reportsDir, "secrets-git")
		Expect(os.MkdirAll(dirSrc, 0o755)).To(Succeed())
		Expect(os.MkdirAll(gitSrc, 0o755)).To(Succeed())
		Expect(os.WriteFile(filepath.Join(dirSrc, "marker"), []byte("from-dir"), 0o644)).To(Succeed())
		Expect(os.WriteFile(filepath.Join(gitSrc, "marker"), []byte("from-git"), 0o644)).To(Succeed())

		Expect(normalizeSecretsReportDir(reportsDir)).To(Succeed())

		data, err := os.ReadFile(filepath.Join(reportsDir, "secrets", "marker"))
		Expect(err).NotTo(HaveOccurred())
		Expect(string(data)).To(Equal("from-dir"))
	})
})
