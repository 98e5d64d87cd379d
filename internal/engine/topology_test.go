package engine

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/concourse/pipelinex/internal/model"
)

var _ = Describe("resolveTopology", func() {
	It("needs no compose for a plain stage like BUILD", func() {
		topo, err := resolveTopology(model.StageBuild, false)
		Expect(err).NotTo(HaveOccurred())
		Expect(topo.NeedsCompose).To(BeFalse())
	})

	It("needs no compose for SMOKE-TEST when the stack does not require a db", func() {
		topo, err := resolveTopology(model.StageSmokeTest, false)
		Expect(err).NotTo(HaveOccurred())
		Expect(topo.NeedsCompose).To(BeFalse())
	})

	It("selects the db fragments and app-runner for SMOKE-TEST when requires_db", func() {
		topo, err := resolveTopology(model.StageSmokeTest, true)
		Expect(err).NotTo(HaveOccurred())
		Expect(topo.NeedsCompose).To(BeTrue())
		Expect(topo.Topology.App).To(Equal("app-runner.yml"))
		Expect(topo.Topology.DB).To(Equal([]string{"db.yml", "app-db.yml"}))
		Expect(topo.Topology.Zap).To(BeEmpty())
		Expect(topo.Topology.ExitFrom).To(Equal("app"))
	})

	It("always includes zap fragments for DAST, db-independent", func() {
		topo, err := resolveTopology(model.StageDast, false)
		Expect(err).NotTo(HaveOccurred())
		Expect(topo.NeedsCompose).To(BeTrue())
		Expect(topo.Topology.App).To(Equal("app-jar.yml"))
		Expect(topo.Topology.DB).To(BeEmpty())
		Expect(topo.Topology.Zap).To(Equal([]string{"zap.yml", "app-zap.yml"}))
		Expect(topo.Topology.ExitFrom).To(Equal("zap"))
	})

	It("includes both db and zap fragments for DAST when requires_db", func() {
		topo, err := resolveTopology(model.StageDast, true)
		Expect(err).NotTo(HaveOccurred())
		Expect(topo.Topology.DB).To(Equal([]string{"db.yml", "app-db.yml"}))
		Expect(topo.Topology.Zap).To(Equal([]string{"zap.yml", "app-zap.yml"}))
		Expect(topo.Topology.AppDBZap).To(Equal("app-db-zap.yml"))
		Expect(topo.Topology.Fragments()).To(ContainElement("app-db-zap.yml"))
	})

	It("never selects the combined fragment when only one of db/zap is present", func() {
		topo, err := resolveTopology(model.StageDast, false)
		Expect(err).NotTo(HaveOccurred())
		Expect(topo.Topology.Fragments()).NotTo(ContainElement("app-db-zap.yml"))
	})
})
