package wrappa_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/tedsuo/rata"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/concourse/pipelinex/internal/wrappa"
)

func TestWrappa(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Wrappa Suite")
}

var _ = Describe("OTelHTTPWrappa", func() {
	It("preserves every route name while wrapping its handler", func() {
		called := false
		handlers := rata.Handlers{
			"Status": http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				called = true
				w.WriteHeader(http.StatusOK)
			}),
		}

		wrapped := wrappa.NewOTelHTTPWrappa().Wrap(handlers)
		Expect(wrapped).To(HaveKey("Status"))

		req := httptest.NewRequest(http.MethodGet, "/status", nil)
		rec := httptest.NewRecorder()
		wrapped["Status"].ServeHTTP(rec, req)

		Expect(called).To(BeTrue())
		Expect(rec.Code).To(Equal(http.StatusOK))
	})
})

var _ = Describe("Wrap", func() {
	It("applies every wrappa in sequence without dropping route names", func() {
		handlers := rata.Handlers{
			"Upload": http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusCreated) }),
		}

		result := wrappa.Wrap(handlers, wrappa.NewOTelHTTPWrappa(), wrappa.NewOTelHTTPWrappa())
		Expect(result).To(HaveKey("Upload"))

		req := httptest.NewRequest(http.MethodPost, "/upload", nil)
		rec := httptest.NewRecorder()
		result["Upload"].ServeHTTP(rec, req)
		Expect(rec.Code).To(Equal(http.StatusCreated))
	})

	It("returns the input unchanged when given no wrappas", func() {
		handlers := rata.Handlers{"X": http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})}
		Expect(wrappa.Wrap(handlers)).To(Equal(handlers))
	})
})
