package archive_test

import (
	"archive/zip"
	"bytes"
	"context"
	"path/filepath"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/concourse/pipelinex/internal/ingest/archive"
	"github.com/concourse/pipelinex/internal/model"
	"github.com/concourse/pipelinex/internal/workspace"
)

func TestArchive(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Archive Suite")
}

func buildZip(files map[string]string) []byte {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, contents := range files {
		w, err := zw.Create(name)
		Expect(err).NotTo(HaveOccurred())
		_, err = w.Write([]byte(contents))
		Expect(err).NotTo(HaveOccurred())
	}
	Expect(zw.Close()).To(Succeed())
	return buf.Bytes()
}

func newHandle() *workspace.Handle {
	root := GinkgoT().TempDir()
	h, err := workspace.Create(root, model.InputTypeZip)
	Expect(err).NotTo(HaveOccurred())
	return h
}

var _ = Describe("Ingestor.Materialize", func() {
	It("extracts every entry into the workspace source directory", func() {
		data := buildZip(map[string]string{
			"pom.xml":        "<project/>",
			"src/Main.java":  "class Main {}",
		})
		h := newHandle()
		in := archive.Ingestor{Data: data, MaxFiles: 100, MaxUncompressedBytes: 1 << 20, MaxDepth: 10}
		Expect(in.Materialize(context.Background(), h)).To(Succeed())

		Expect(filepath.Join(h.SourceDir, "pom.xml")).To(BeAnExistingFile())
		Expect(filepath.Join(h.SourceDir, "src", "Main.java")).To(BeAnExistingFile())
	})

	It("lifts a single wrapping root directory up one level", func() {
		data := buildZip(map[string]string{
			"myrepo-main/pom.xml":       "<project/>",
			"myrepo-main/src/Main.java": "class Main {}",
		})
		h := newHandle()
		in := archive.Ingestor{Data: data, MaxFiles: 100, MaxUncompressedBytes: 1 << 20, MaxDepth: 10}
		Expect(in.Materialize(context.Background(), h)).To(Succeed())

		Expect(filepath.Join(h.SourceDir, "pom.xml")).To(BeAnExistingFile())
		Expect(filepath.Join(h.SourceDir, "myrepo-main")).NotTo(BeADirectory())
	})

	It("rejects a buffer that is not a valid zip", func() {
		h := newHandle()
		in := archive.Ingestor{Data: []byte("not a zip"), MaxFiles: 100, MaxUncompressedBytes: 1 << 20, MaxDepth: 10}
		Expect(in.Materialize(context.Background(), h)).To(HaveOccurred())
	})

	It("rejects an archive with more entries than MaxFiles", func() {
		data := buildZip(map[string]string{"a.txt": "x", "b.txt": "y"})
		h := newHandle()
		in := archive.Ingestor{Data: data, MaxFiles: 1, MaxUncompressedBytes: 1 << 20, MaxDepth: 10}
		Expect(in.Materialize(context.Background(), h)).To(HaveOccurred())
	})

	It("rejects an archive whose declared uncompressed size exceeds the limit", func() {
		data := buildZip(map[string]string{"big.txt": string(make([]byte, 1024))})
		h := newHandle()
		in := archive.Ingestor{Data: data, MaxFiles: 100, MaxUncompressedBytes: 10, MaxDepth: 10}
		Expect(in.Materialize(context.Background(), h)).To(HaveOccurred())
	})

	It("rejects an entry nested deeper than MaxDepth", func() {
		data := buildZip(map[string]string{"a/b/c/d/e.txt": "x"})
		h := newHandle()
		in := archive.Ingestor{Data: data, MaxFiles: 100, MaxUncompressedBytes: 1 << 20, MaxDepth: 2}
		Expect(in.Materialize(context.Background(), h)).To(HaveOccurred())
	})

	It("rejects a dangerous file extension", func() {
		data := buildZip(map[string]string{"payload.exe": "MZ"})
		h := newHandle()
		in := archive.Ingestor{Data: data, MaxFiles: 100, MaxUncompressedBytes: 1 << 20, MaxDepth: 10}
		Expect(in.Materialize(context.Background(), h)).To(HaveOccurred())
	})

	It("reports InputType zip", func() {
		Expect(archive.Ingestor{}.InputType()).To(Equal(model.InputTypeZip))
	})
})

var _ = Describe("path traversal", func() {
	It("rejects an entry that escapes the source directory via ../", func() {
		data := buildZip(map[string]string{"../../evil.txt": "x"})
		h := newHandle()
		in := archive.Ingestor{Data: data, MaxFiles: 100, MaxUncompressedBytes: 1 << 20, MaxDepth: 10}
		Expect(in.Materialize(context.Background(), h)).To(HaveOccurred())
	})
})
