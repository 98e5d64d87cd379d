// Package dockerengine implements the container-lifecycle half of the
// Runtime capability against the Docker Engine API, rather than
// shelling out to the docker CLI's text UI. Grounded on
// Aureuma-si/agents/shared/docker/client.go, adapted from a
// general-purpose agent sandbox client into the single-purpose "one
// long-lived runner container per job, driven by exec" shape described
// in spec.md §6 and structurally modeled on atc/worker/k8sruntime's
// Worker→Container lifecycle (reimplemented here against Docker Engine
// rather than Kubernetes Pods).
package dockerengine

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/client"
	"github.com/docker/docker/pkg/stdcopy"
)

// Client wraps the Docker Engine SDK client with the narrow surface the
// execution engine needs: create/start/exec/remove by a caller-chosen
// container name.
type Client struct {
	api *client.Client
}

// New connects to the Docker daemon using the standard DOCKER_HOST /
// DOCKER_* environment, negotiating the API version with the daemon.
func New() (*Client, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("dockerengine: connect: %w", err)
	}
	return &Client{api: cli}, nil
}

// Close releases the underlying connection.
func (c *Client) Close() error {
	if c == nil || c.api == nil {
		return nil
	}
	return c.api.Close()
}

// ContainerIDByName returns the container ID for name, or "" if no such
// container exists.
func (c *Client) ContainerIDByName(ctx context.Context, name string) (string, error) {
	info, err := c.api.ContainerInspect(ctx, name)
	if err != nil {
		if client.IsErrNotFound(err) {
			return "", nil
		}
		return "", fmt.Errorf("dockerengine: inspect %s: %w", name, err)
	}
	return info.ID, nil
}

// RunSpec is the subset of runtime.RunSpec this package needs, kept
// separate so this package has no import-cycle dependency on the parent
// runtime package; internal/runtime/docker.go adapts between the two.
type RunSpec struct {
	Name    string
	Image   string
	UID     int
	GID     int
	Env     []string
	Binds   []string
	WorkDir string
}

// EnsureRunner creates and starts the long-lived runner container
// described by spec, removing any pre-existing container of the same
// name first (a stale container from a crashed prior attempt must not
// be reused, since its mounts may be stale).
//
// Matches §6's `run -d -u UID:GID -e ... -v ... -w /home/runner IMAGE
// tail -f /dev/null`.
func (c *Client) EnsureRunner(ctx context.Context, spec RunSpec) (string, error) {
	if existing, err := c.ContainerIDByName(ctx, spec.Name); err != nil {
		return "", err
	} else if existing != "" {
		_ = c.api.ContainerRemove(ctx, existing, container.RemoveOptions{Force: true, RemoveVolumes: true})
	}

	cfg := &container.Config{
		Image:      spec.Image,
		User:       fmt.Sprintf("%d:%d", spec.UID, spec.GID),
		Env:        spec.Env,
		WorkingDir: spec.WorkDir,
		Cmd:        []string{"tail", "-f", "/dev/null"},
	}
	hostCfg := &container.HostConfig{
		Binds: spec.Binds,
	}

	resp, err := c.api.ContainerCreate(ctx, cfg, hostCfg, nil, nil, spec.Name)
	if err != nil {
		return "", fmt.Errorf("dockerengine: create %s: %w", spec.Name, err)
	}
	if err := c.api.ContainerStart(ctx, resp.ID, container.StartOptions{}); err != nil {
		return "", fmt.Errorf("dockerengine: start %s: %w", spec.Name, err)
	}
	return resp.ID, nil
}

// Exec runs `bash -lc command` inside the named container, blocking
// until it exits, and returns an error including captured
// stdout+stderr if the command exited non-zero.
//
// Matches §6's `exec bash -lc 'cd $APP_DIR && bash <script>'`.
func (c *Client) Exec(ctx context.Context, containerName, command string, env []string) error {
	id, err := c.ContainerIDByName(ctx, containerName)
	if err != nil {
		return err
	}
	if id == "" {
		return fmt.Errorf("dockerengine: container not found: %s", containerName)
	}

	execResp, err := c.api.ContainerExecCreate(ctx, id, container.ExecOptions{
		AttachStdout: true,
		AttachStderr: true,
		Cmd:          []string{"bash", "-lc", command},
		Env:          env,
	})
	if err != nil {
		return fmt.Errorf("dockerengine: exec create: %w", err)
	}

	attach, err := c.api.ContainerExecAttach(ctx, execResp.ID, container.ExecStartOptions{})
	if err != nil {
		return fmt.Errorf("dockerengine: exec attach: %w", err)
	}
	defer attach.Close()

	var buf bytes.Buffer
	if _, err := stdcopy.StdCopy(&buf, &buf, attach.Reader); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("dockerengine: read exec output: %w", err)
	}

	inspect, err := c.api.ContainerExecInspect(ctx, execResp.ID)
	if err != nil {
		return fmt.Errorf("dockerengine: exec inspect: %w", err)
	}
	if inspect.ExitCode != 0 {
		return fmt.Errorf("dockerengine: command exited %d: %s", inspect.ExitCode, strings.TrimSpace(buf.String()))
	}
	return nil
}

// Remove force-removes the named container and its anonymous volumes,
// tolerating the container already being gone.
func (c *Client) Remove(ctx context.Context, name string) error {
	id, err := c.ContainerIDByName(ctx, name)
	if err != nil {
		return err
	}
	if id == "" {
		return nil
	}
	if err := c.api.ContainerRemove(ctx, id, container.RemoveOptions{Force: true, RemoveVolumes: true}); err != nil {
		return fmt.Errorf("dockerengine: remove %s: %w", name, err)
	}
	return nil
}
