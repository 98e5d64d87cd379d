package contract_test

import (
	"os"
	"path/filepath"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/concourse/pipelinex/internal/contract"
	"github.com/concourse/pipelinex/internal/model"
)

func TestContract(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Contract Suite")
}

var _ = Describe("Load", func() {
	It("loads the embedded java-maven contract with no override root", func() {
		c, err := contract.Load("", "java", "maven")
		Expect(err).NotTo(HaveOccurred())
		Expect(c.RequiredPaths).NotTo(BeEmpty())
	})

	It("errors for an unsupported stack with no matching contract", func() {
		_, err := contract.Load("", "django", "pip")
		Expect(err).To(HaveOccurred())
	})

	It("prefers an override root over the embedded default", func() {
		overrideRoot := GinkgoT().TempDir()
		Expect(os.WriteFile(filepath.Join(overrideRoot, "java-maven.json"),
			[]byte(`{"required_paths":["pom.xml"]}`), 0o644)).To(Succeed())

		c, err := contract.Load(overrideRoot, "java", "maven")
		Expect(err).NotTo(HaveOccurred())
		Expect(c.RequiredPaths).To(Equal([]string{"pom.xml"}))
	})
})

var _ = Describe("Contract.Evaluate", func() {
	var sourceDir string

	BeforeEach(func() {
		sourceDir = GinkgoT().TempDir()
	})

	It("accepts a tree satisfying every required path and file rule", func() {
		Expect(os.WriteFile(filepath.Join(sourceDir, "pom.xml"), []byte("<project/>"), 0o644)).To(Succeed())
		c := &contract.Contract{RequiredPaths: []string{"pom.xml"}}

		result, err := c.Evaluate(sourceDir)
		Expect(err).NotTo(HaveOccurred())
		Expect(result.Status()).To(Equal(model.StatusAccepted))
	})

	It("refuses a tree missing a required path", func() {
		c := &contract.Contract{RequiredPaths: []string{"pom.xml"}}

		result, err := c.Evaluate(sourceDir)
		Expect(err).NotTo(HaveOccurred())
		Expect(result.Status()).To(Equal(model.StatusRefused))
		Expect(result.Errors).To(ContainElement(ContainSubstring("pom.xml")))
	})

	It("refuses when fewer files than MinCount match a required glob", func() {
		c := &contract.Contract{
			RequiredFiles: []contract.RequiredFileRule{{Pattern: "src/**/*.java", MinCount: 2}},
		}
		Expect(os.MkdirAll(filepath.Join(sourceDir, "src", "main"), 0o755)).To(Succeed())
		Expect(os.WriteFile(filepath.Join(sourceDir, "src", "main", "App.java"), []byte("class App {}"), 0o644)).To(Succeed())

		result, err := c.Evaluate(sourceDir)
		Expect(err).NotTo(HaveOccurred())
		Expect(result.Status()).To(Equal(model.StatusRefused))
	})

	It("accepts with a warning when only an optional path is missing", func() {
		c := &contract.Contract{OptionalPaths: []string{"Dockerfile"}}

		result, err := c.Evaluate(sourceDir)
		Expect(err).NotTo(HaveOccurred())
		Expect(result.Status()).To(Equal(model.StatusAcceptedWithIssues))
	})

	It("refuses when a semantic contains_text check expecting exactly one match finds none", func() {
		c := &contract.Contract{
			SemanticChecks: []contract.SemanticCheck{{Type: "contains_text", Value: "@SpringBootApplication", ExactlyOne: true}},
		}
		Expect(os.WriteFile(filepath.Join(sourceDir, "App.java"), []byte("class App {}"), 0o644)).To(Succeed())

		result, err := c.Evaluate(sourceDir)
		Expect(err).NotTo(HaveOccurred())
		Expect(result.Status()).To(Equal(model.StatusRefused))
	})

	It("accepts when the semantic check finds exactly one match", func() {
		c := &contract.Contract{
			SemanticChecks: []contract.SemanticCheck{{Type: "contains_text", Value: "@SpringBootApplication", ExactlyOne: true}},
		}
		Expect(os.WriteFile(filepath.Join(sourceDir, "App.java"), []byte("@SpringBootApplication\nclass App {}"), 0o644)).To(Succeed())

		result, err := c.Evaluate(sourceDir)
		Expect(err).NotTo(HaveOccurred())
		Expect(result.Status()).To(Equal(model.StatusAccepted))
	})
})
