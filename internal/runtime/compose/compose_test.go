package compose_test

import (
	"os"
	"path/filepath"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/concourse/pipelinex/internal/runtime/compose"
)

func TestCompose(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Compose Suite")
}

var _ = Describe("Topology.Fragments", func() {
	It("orders base, app, db, zap for a full topology", func() {
		topo := compose.Topology{
			Base: "base.yml", App: "app-jar.yml",
			DB: []string{"db.yml", "app-db.yml"}, Zap: []string{"zap.yml", "app-zap.yml"},
			AppDBZap: "app-db-zap.yml",
		}
		Expect(topo.Fragments()).To(Equal([]string{
			"base.yml", "app-jar.yml", "db.yml", "app-db.yml", "zap.yml", "app-zap.yml", "app-db-zap.yml",
		}))
	})

	It("omits the combined fragment when only db is set", func() {
		topo := compose.Topology{Base: "base.yml", App: "app-runner.yml", DB: []string{"db.yml", "app-db.yml"}, AppDBZap: "app-db-zap.yml"}
		Expect(topo.Fragments()).To(Equal([]string{"base.yml", "app-runner.yml", "db.yml", "app-db.yml"}))
	})

	It("omits the combined fragment when only zap is set", func() {
		topo := compose.Topology{Base: "base.yml", App: "app-jar.yml", Zap: []string{"zap.yml", "app-zap.yml"}, AppDBZap: "app-db-zap.yml"}
		Expect(topo.Fragments()).To(Equal([]string{"base.yml", "app-jar.yml", "zap.yml", "app-zap.yml"}))
	})
})

var _ = Describe("Merged", func() {
	var fragDir string

	BeforeEach(func() {
		fragDir = GinkgoT().TempDir()
		Expect(os.WriteFile(filepath.Join(fragDir, "base.yml"), []byte("services:\n  app:\n    image: base\n"), 0o644)).To(Succeed())
		Expect(os.WriteFile(filepath.Join(fragDir, "app-db.yml"), []byte("services:\n  app:\n    environment:\n      DB_IMAGE: postgres\n"), 0o644)).To(Succeed())
	})

	It("merges fragments in order with later values overriding earlier ones", func() {
		merged, err := compose.Merged(fragDir, []string{"base.yml", "app-db.yml"})
		Expect(err).NotTo(HaveOccurred())
		services, ok := merged["services"].(map[string]any)
		Expect(ok).To(BeTrue())
		Expect(services).To(HaveKey("app"))
	})

	It("errors when a fragment file is missing", func() {
		_, err := compose.Merged(fragDir, []string{"missing.yml"})
		Expect(err).To(HaveOccurred())
	})

	It("errors when a fragment is malformed YAML", func() {
		Expect(os.WriteFile(filepath.Join(fragDir, "bad.yml"), []byte("services: [this is not a map"), 0o644)).To(Succeed())
		_, err := compose.Merged(fragDir, []string{"bad.yml"})
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("CopyFragments", func() {
	It("copies every named fragment into the destination directory", func() {
		fragDir := GinkgoT().TempDir()
		destDir := filepath.Join(GinkgoT().TempDir(), "dest")
		Expect(os.WriteFile(filepath.Join(fragDir, "base.yml"), []byte("services: {}"), 0o644)).To(Succeed())

		Expect(compose.CopyFragments(fragDir, destDir, []string{"base.yml"})).To(Succeed())

		data, err := os.ReadFile(filepath.Join(destDir, "base.yml"))
		Expect(err).NotTo(HaveOccurred())
		Expect(string(data)).To(Equal("services: {}"))
	})

	It("errors when a named fragment does not exist in the source directory", func() {
		fragDir := GinkgoT().TempDir()
		destDir := filepath.Join(GinkgoT().TempDir(), "dest")
		Expect(compose.CopyFragments(fragDir, destDir, []string{"missing.yml"})).To(HaveOccurred())
	})
})
