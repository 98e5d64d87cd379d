// Package pipelinex exposes the build-time version identifiers
// referenced by cmd/pipelinex's --version flag, following the same
// ldflags-overridden package var convention the teacher's versions.go
// uses for its CLI.
package pipelinex

// Version is pipelinex's own version, overridden at build time via
// ldflags.
var Version = "0.0.0-dev"
