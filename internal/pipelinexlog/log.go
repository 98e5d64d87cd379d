// Package pipelinexlog wires up the lager logger used across pipelinex,
// following the same lagerctx-threaded Session() convention as
// atc/worker/k8sruntime.
package pipelinexlog

import (
	"context"
	"os"

	"code.cloudfoundry.org/lager/v3"
	"code.cloudfoundry.org/lager/v3/lagerctx"
)

// New builds a root logger with a single JSON sink to stdout at DEBUG
// level, named after the component (e.g. "pipelinex-web",
// "pipelinex-worker").
func New(component string) lager.Logger {
	logger := lager.NewLogger(component)
	logger.RegisterSink(lager.NewWriterSink(os.Stdout, lager.DEBUG))
	return logger
}

// WithLogger stores logger on ctx for retrieval via FromContext, matching
// lagerctx's convention used throughout atc/worker.
func WithLogger(ctx context.Context, logger lager.Logger) context.Context {
	return lagerctx.NewContext(ctx, logger)
}

// FromContext retrieves the logger WithLogger attached to ctx,
// or a disabled logger if none was set.
func FromContext(ctx context.Context) lager.Logger {
	return lagerctx.FromContext(ctx)
}
