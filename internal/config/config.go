// Package config assembles the process-wide configuration value once at
// startup and passes it explicitly through constructors, per SPEC_FULL's
// "Global process state" design note — nothing in this codebase reads a
// config value from a package-level global.
package config

import (
	"time"

	"github.com/concourse/pipelinex/internal/model"
)

const (
	defaultMaxUploadBytes       = 50 * 1024 * 1024
	defaultMaxFiles             = 10_000
	defaultMaxUncompressedBytes = 200 * 1024 * 1024
	defaultMaxDepth             = 25
	defaultGitCloneTimeout      = 60 * time.Second
	defaultGitMaxDepth          = 1
)

// Config is the immutable set of process-wide limits and paths named by
// §6. Built once via Flags.Resolve and threaded through every constructor
// that needs it.
type Config struct {
	// WorkspacesDir is where the worker process reads and writes job
	// directories.
	WorkspacesDir string

	// HostWorkspacesPath is the path the workspaces directory is
	// bind-mounted at on the Docker host, which may differ from
	// WorkspacesDir when the worker itself runs inside a container.
	HostWorkspacesPath string

	// PipelinesRoot holds the repository-local `global/` and
	// `<framework>-<build_tool>/` stage-script template directories
	// copied into each workspace at admission; empty uses the binary's
	// embedded copy.
	PipelinesRoot string

	// ContractsRoot holds operator-supplied contract overrides checked
	// before the embedded contracts; empty disables the override.
	ContractsRoot string

	MaxUploadBytes       int64
	MaxFiles             int
	MaxUncompressedBytes int64
	MaxDepth             int

	GitCloneTimeout time.Duration
	GitMaxDepth     int

	DefaultDatabase model.DatabaseConfig

	// RunnerUID/RunnerGID is the fixed non-root identity every runner
	// container executes as (§6: "-u 10001:10001").
	RunnerUID int
	RunnerGID int

	// Parallelism is the number of worker goroutines/processes draining
	// the execution queue concurrently (§5).
	Parallelism int

	// ListenAddress is the HTTP surface's bind address.
	ListenAddress string
}

// Flags is the go-flags-tagged struct the CLI parses into; Resolve
// converts it into a Config with defaults applied. Kept separate from
// Config so the HTTP/engine layers never see flag-parsing concerns,
// mirroring cmd/concourse's separation of *Command structs from the
// runtime types they produce.
type Flags struct {
	WorkspacesDir      string `long:"workspaces-dir" env:"WORKSPACES_DIR" required:"true" description:"root directory for per-job workspaces"`
	HostWorkspacesPath string `long:"host-workspaces-path" env:"HOST_WORKSPACES_PATH" description:"path the workspaces directory is bind-mounted at on the Docker host"`
	PipelinesRoot      string `long:"pipelines-root" env:"PIPELINES_ROOT" description:"override directory for stage-script templates; default uses the embedded set"`
	ContractsRoot      string `long:"contracts-root" env:"CONTRACTS_ROOT" description:"override directory for structure contracts; default uses the embedded set"`

	MaxUploadBytes       int64 `long:"max-upload-bytes" env:"MAX_UPLOAD_BYTES" default:"52428800" description:"maximum accepted ZIP upload size"`
	MaxFiles             int   `long:"max-files" env:"MAX_FILES" default:"10000" description:"maximum entry/file count for an archive or cloned repository"`
	MaxUncompressedBytes int64 `long:"max-uncompressed-bytes" env:"MAX_UNCOMPRESSED_BYTES" default:"209715200" description:"maximum cumulative uncompressed size"`
	MaxDepth             int   `long:"max-depth" env:"MAX_DEPTH" default:"25" description:"maximum path depth for any entry"`

	GitCloneTimeout time.Duration `long:"git-clone-timeout" env:"GIT_CLONE_TIMEOUT" default:"60s" description:"hard timeout applied to git clone"`
	GitMaxDepth     int           `long:"git-max-depth" env:"GIT_MAX_DEPTH" default:"1" description:"default clone depth absent full_history"`

	RunnerUID int `long:"runner-uid" env:"RUNNER_UID" default:"10001" description:"fixed UID the runner container executes as"`
	RunnerGID int `long:"runner-gid" env:"RUNNER_GID" default:"10001" description:"fixed GID the runner container executes as"`

	Parallelism int `long:"parallelism" env:"PARALLELISM" default:"1" description:"number of concurrent execution-plane workers"`

	ListenAddress string `long:"listen-address" env:"LISTEN_ADDRESS" default:"127.0.0.1:8080" description:"HTTP surface bind address"`

	DBImage    string `long:"default-db-image" env:"DEFAULT_DB_IMAGE" default:"postgres:16-alpine"`
	DBName     string `long:"default-db-name" env:"DEFAULT_DB_NAME" default:"app"`
	DBUser     string `long:"default-db-user" env:"DEFAULT_DB_USER" default:"app"`
	DBPassword string `long:"default-db-password" env:"DEFAULT_DB_PASSWORD" default:"app"`
	DBPort     int    `long:"default-db-port" env:"DEFAULT_DB_PORT" default:"5432"`
	DBDriver   string `long:"default-db-driver" env:"DEFAULT_DB_DRIVER" default:"postgresql"`
}

// Resolve builds the immutable Config, applying any defaults the
// zero-value Flags left unset (used by tests that construct Flags{}
// directly rather than via go-flags parsing).
func (f Flags) Resolve() Config {
	c := Config{
		WorkspacesDir:        f.WorkspacesDir,
		HostWorkspacesPath:   f.HostWorkspacesPath,
		PipelinesRoot:        f.PipelinesRoot,
		ContractsRoot:        f.ContractsRoot,
		MaxUploadBytes:       f.MaxUploadBytes,
		MaxFiles:             f.MaxFiles,
		MaxUncompressedBytes: f.MaxUncompressedBytes,
		MaxDepth:             f.MaxDepth,
		GitCloneTimeout:      f.GitCloneTimeout,
		GitMaxDepth:          f.GitMaxDepth,
		RunnerUID:            f.RunnerUID,
		RunnerGID:            f.RunnerGID,
		Parallelism:          f.Parallelism,
		ListenAddress:        f.ListenAddress,
		DefaultDatabase: model.DatabaseConfig{
			Image:    f.DBImage,
			Name:     f.DBName,
			User:     f.DBUser,
			Password: f.DBPassword,
			Port:     f.DBPort,
			Driver:   f.DBDriver,
		},
	}
	if c.MaxUploadBytes == 0 {
		c.MaxUploadBytes = defaultMaxUploadBytes
	}
	if c.MaxFiles == 0 {
		c.MaxFiles = defaultMaxFiles
	}
	if c.MaxUncompressedBytes == 0 {
		c.MaxUncompressedBytes = defaultMaxUncompressedBytes
	}
	if c.MaxDepth == 0 {
		c.MaxDepth = defaultMaxDepth
	}
	if c.GitCloneTimeout == 0 {
		c.GitCloneTimeout = defaultGitCloneTimeout
	}
	if c.GitMaxDepth == 0 {
		c.GitMaxDepth = defaultGitMaxDepth
	}
	if c.Parallelism == 0 {
		c.Parallelism = 1
	}
	if c.RunnerUID == 0 {
		c.RunnerUID = 10001
	}
	if c.RunnerGID == 0 {
		c.RunnerGID = 10001
	}
	return c
}
