// Package wrappa wraps a rata.Handlers set with cross-cutting HTTP
// middleware, mirroring atc/wrappa's Wrappa interface and the
// OTelHTTPWrappa implementation this package adapts verbatim (the
// teacher's version wraps every named route handler in an OTel span
// exactly the same way regardless of the domain behind it).
package wrappa

import (
	"github.com/tedsuo/rata"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Wrappa wraps every handler in a rata.Handlers set, returning a new set
// with the same route names.
type Wrappa interface {
	Wrap(rata.Handlers) rata.Handlers
}

// OTelHTTPWrappa instruments each named route with an OTel HTTP span
// tagged by its rata route name.
type OTelHTTPWrappa struct{}

func NewOTelHTTPWrappa() Wrappa { return OTelHTTPWrappa{} }

func (w OTelHTTPWrappa) Wrap(handlers rata.Handlers) rata.Handlers {
	wrapped := rata.Handlers{}
	for name, handler := range handlers {
		wrapped[name] = otelhttp.NewHandler(handler, name)
	}
	return wrapped
}

// Wrap applies each Wrappa in order, outermost first.
func Wrap(handlers rata.Handlers, wrappas ...Wrappa) rata.Handlers {
	for _, w := range wrappas {
		handlers = w.Wrap(handlers)
	}
	return handlers
}
