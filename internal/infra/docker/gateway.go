// Package docker adapts sandbox lifecycle operations onto the Docker
// Engine API. The Gateway is stateless: no business state lives here,
// only timeout handling and error classification.
package docker

import (
	"archive/tar"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/containerd/errdefs"
	"github.com/docker/docker/api/types/build"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/api/types/mount"
	"github.com/docker/docker/client"
	"github.com/docker/docker/pkg/jsonmessage"
	"github.com/docker/go-connections/nat"
	"github.com/moby/go-archive"

	"vivarium/internal/sandbox"
)

const (
	// defaultOpTimeout bounds quick engine calls (inspect, start, remove).
	defaultOpTimeout = 30 * time.Second
	// defaultBuildTimeout bounds image pulls and builds, which move real
	// bytes.
	defaultBuildTimeout = 5 * time.Minute
)

var _ sandbox.Runtime = (*Gateway)(nil)

// Gateway talks to the Docker Engine API.
type Gateway struct {
	cli          client.APIClient
	opTimeout    time.Duration
	buildTimeout time.Duration
}

// GatewayOption configures a Gateway.
type GatewayOption func(*Gateway)

// WithOpTimeout overrides the per-call timeout for quick engine
// operations.
func WithOpTimeout(d time.Duration) GatewayOption {
	return func(g *Gateway) { g.opTimeout = d }
}

// WithBuildTimeout overrides the timeout for image pulls and builds.
func WithBuildTimeout(d time.Duration) GatewayOption {
	return func(g *Gateway) { g.buildTimeout = d }
}

// NewGateway connects to the engine using the standard environment
// (DOCKER_HOST etc.) with API version negotiation.
func NewGateway(opts ...GatewayOption) (*Gateway, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("create docker client: %w", err)
	}
	g := &Gateway{cli: cli, opTimeout: defaultOpTimeout, buildTimeout: defaultBuildTimeout}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// Close releases the underlying client connection.
func (g *Gateway) Close() error {
	return g.cli.Close()
}

// EnsureImage pulls the spec image, or builds it from the spec's build
// context when one is set. It returns the image reference the container
// will run.
func (g *Gateway) EnsureImage(ctx context.Context, spec sandbox.Spec) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.buildTimeout)
	defer cancel()

	if spec.BuildContext != "" {
		return g.buildImage(ctx, spec)
	}

	rc, err := g.cli.ImagePull(ctx, spec.Image, image.PullOptions{})
	if err != nil {
		return "", classify(fmt.Sprintf("pull image %q", spec.Image), err)
	}
	defer rc.Close()
	if _, err := io.Copy(io.Discard, rc); err != nil {
		return "", classify(fmt.Sprintf("pull image %q", spec.Image), err)
	}
	return spec.Image, nil
}

func (g *Gateway) buildImage(ctx context.Context, spec sandbox.Spec) (string, error) {
	ref := spec.Image
	if ref == "" {
		ref = spec.Name + ":latest"
	}
	dockerfile := spec.Dockerfile
	if dockerfile == "" {
		dockerfile = "Dockerfile"
	}

	buildCtx, err := archive.TarWithOptions(spec.BuildContext, &archive.TarOptions{})
	if err != nil {
		return "", fmt.Errorf("tar build context %q: %w", spec.BuildContext, err)
	}
	defer buildCtx.Close()

	resp, err := g.cli.ImageBuild(ctx, buildCtx, build.ImageBuildOptions{
		Tags:       []string{ref},
		Dockerfile: dockerfile,
		Remove:     true,
	})
	if err != nil {
		return "", classify(fmt.Sprintf("build image %q", ref), err)
	}
	defer resp.Body.Close()

	// Build failures ride the JSON message stream, not the response code.
	if err := jsonmessage.DisplayJSONMessagesStream(resp.Body, io.Discard, 0, false, nil); err != nil {
		return "", classify(fmt.Sprintf("build image %q", ref), err)
	}
	return ref, nil
}

// CreateContainer creates (without starting) the sandbox container from
// the spec, attaching the given labels.
func (g *Gateway) CreateContainer(ctx context.Context, spec sandbox.Spec, labels map[string]string) error {
	ctx, cancel := context.WithTimeout(ctx, g.opTimeout)
	defer cancel()

	exposed, bindings, err := portMappings(spec.Ports)
	if err != nil {
		return fmt.Errorf("map ports: %w", err)
	}

	imageRef := spec.Image
	if imageRef == "" {
		imageRef = spec.Name + ":latest"
	}

	cfg := &container.Config{
		Image:        imageRef,
		Cmd:          spec.Command,
		Env:          spec.Environment,
		ExposedPorts: exposed,
		Labels:       labels,
	}
	hostCfg := &container.HostConfig{
		PortBindings:  bindings,
		Mounts:        bindMounts(spec.Mounts),
		RestartPolicy: restartPolicy(spec.RestartPolicy),
		Resources: container.Resources{
			NanoCPUs: int64(spec.CPULimit * 1e9),
			Memory:   spec.MemoryLimit,
		},
	}
	if spec.NetworkMode != "" {
		hostCfg.NetworkMode = container.NetworkMode(spec.NetworkMode)
	}

	if _, err := g.cli.ContainerCreate(ctx, cfg, hostCfg, nil, nil, spec.Name); err != nil {
		return classify(fmt.Sprintf("create container %q", spec.Name), err)
	}
	return nil
}

// StartContainer starts the named container.
func (g *Gateway) StartContainer(ctx context.Context, name string) error {
	ctx, cancel := context.WithTimeout(ctx, g.opTimeout)
	defer cancel()

	if err := g.cli.ContainerStart(ctx, name, container.StartOptions{}); err != nil {
		return classify(fmt.Sprintf("start container %q", name), err)
	}
	return nil
}

// StopContainer stops the named container, giving its main process the
// grace period before the engine kills it.
func (g *Gateway) StopContainer(ctx context.Context, name string, grace time.Duration) error {
	seconds := int(grace.Seconds())
	if seconds < 1 {
		seconds = 1
	}
	ctx, cancel := context.WithTimeout(ctx, grace+g.opTimeout)
	defer cancel()

	if err := g.cli.ContainerStop(ctx, name, container.StopOptions{Timeout: &seconds}); err != nil {
		return classify(fmt.Sprintf("stop container %q", name), err)
	}
	return nil
}

// RemoveContainer force-removes the named container and waits until the
// engine has forgotten it. Removing an absent container is a no-op.
func (g *Gateway) RemoveContainer(ctx context.Context, name string) error {
	ctx, cancel := context.WithTimeout(ctx, g.opTimeout)
	defer cancel()

	err := g.cli.ContainerRemove(ctx, name, container.RemoveOptions{Force: true})
	if err != nil {
		if errdefs.IsNotFound(err) {
			return nil
		}
		return classify(fmt.Sprintf("remove container %q", name), err)
	}
	return g.waitRemoved(ctx, name)
}

// waitRemoved polls until the container is gone. Removal is asynchronous
// in the engine; create-after-remove races without this.
func (g *Gateway) waitRemoved(ctx context.Context, name string) error {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		if _, err := g.cli.ContainerInspect(ctx, name); errdefs.IsNotFound(err) {
			return nil
		}
		select {
		case <-ctx.Done():
			return classify(fmt.Sprintf("wait for container %q removal", name), ctx.Err())
		case <-ticker.C:
		}
	}
}

// Status reports the engine-level view of the named container. An absent
// container is not an error.
func (g *Gateway) Status(ctx context.Context, name string) (sandbox.EngineStatus, error) {
	ctx, cancel := context.WithTimeout(ctx, g.opTimeout)
	defer cancel()

	info, err := g.cli.ContainerInspect(ctx, name)
	if err != nil {
		if errdefs.IsNotFound(err) {
			return sandbox.EngineStatus{}, nil
		}
		return sandbox.EngineStatus{}, classify(fmt.Sprintf("inspect container %q", name), err)
	}

	st := sandbox.EngineStatus{Exists: true}
	if info.State != nil {
		st.Running = info.State.Running
		st.ExitCode = info.State.ExitCode
	}
	if info.Config != nil {
		st.SpecHash = info.Config.Labels[sandbox.SpecHashLabel]
	}
	return st, nil
}

// Stats takes a one-shot resource reading of the named container.
func (g *Gateway) Stats(ctx context.Context, name string) (sandbox.ResourceSnapshot, error) {
	ctx, cancel := context.WithTimeout(ctx, g.opTimeout)
	defer cancel()

	resp, err := g.cli.ContainerStatsOneShot(ctx, name)
	if err != nil {
		return sandbox.ResourceSnapshot{}, classify(fmt.Sprintf("stats for container %q", name), err)
	}
	defer resp.Body.Close()

	var raw container.StatsResponse
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return sandbox.ResourceSnapshot{}, fmt.Errorf("decode stats for container %q: %w", name, err)
	}

	return sandbox.ResourceSnapshot{
		At:          time.Now().UTC(),
		CPUPercent:  cpuPercent(raw),
		MemoryUsage: raw.MemoryStats.Usage,
		MemoryLimit: raw.MemoryStats.Limit,
		PIDs:        raw.PidsStats.Current,
	}, nil
}

// cpuPercent follows the docker CLI formula: usage delta over system
// delta, scaled by online CPUs.
func cpuPercent(raw container.StatsResponse) float64 {
	cpuDelta := float64(raw.CPUStats.CPUUsage.TotalUsage) - float64(raw.PreCPUStats.CPUUsage.TotalUsage)
	sysDelta := float64(raw.CPUStats.SystemUsage) - float64(raw.PreCPUStats.SystemUsage)
	if cpuDelta <= 0 || sysDelta <= 0 {
		return 0
	}
	online := float64(raw.CPUStats.OnlineCPUs)
	if online == 0 {
		online = float64(len(raw.CPUStats.CPUUsage.PercpuUsage))
	}
	if online == 0 {
		online = 1
	}
	return cpuDelta / sysDelta * online * 100
}

// CopyFrom copies one file out of the container and returns its bytes.
func (g *Gateway) CopyFrom(ctx context.Context, name, path string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, g.opTimeout)
	defer cancel()

	rc, _, err := g.cli.CopyFromContainer(ctx, name, path)
	if err != nil {
		return nil, classify(fmt.Sprintf("copy %q from container %q", path, name), err)
	}
	defer rc.Close()

	tr := tar.NewReader(rc)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil, fmt.Errorf("copy %q from container %q: %w", path, name, sandbox.ErrNotFound)
		}
		if err != nil {
			return nil, fmt.Errorf("read copy stream for %q: %w", path, err)
		}
		if hdr.Typeflag != tar.TypeReg {
			continue
		}
		data, err := io.ReadAll(tr)
		if err != nil {
			return nil, fmt.Errorf("read %q from copy stream: %w", path, err)
		}
		return data, nil
	}
}

func portMappings(ports []sandbox.PortMapping) (nat.PortSet, nat.PortMap, error) {
	if len(ports) == 0 {
		return nil, nil, nil
	}
	exposed := make(nat.PortSet, len(ports))
	bindings := make(nat.PortMap, len(ports))
	for _, pm := range ports {
		proto := pm.Protocol
		if proto == "" {
			proto = "tcp"
		}
		port, err := nat.NewPort(proto, strconv.Itoa(int(pm.ContainerPort)))
		if err != nil {
			return nil, nil, fmt.Errorf("container port %d/%s: %w", pm.ContainerPort, proto, err)
		}
		exposed[port] = struct{}{}
		hostPort := ""
		if pm.HostPort > 0 {
			hostPort = strconv.Itoa(int(pm.HostPort))
		}
		bindings[port] = append(bindings[port], nat.PortBinding{HostPort: hostPort})
	}
	return exposed, bindings, nil
}

func bindMounts(mounts []sandbox.Mount) []mount.Mount {
	if len(mounts) == 0 {
		return nil
	}
	out := make([]mount.Mount, 0, len(mounts))
	for _, m := range mounts {
		out = append(out, mount.Mount{
			Type:     mount.TypeBind,
			Source:   m.Source,
			Target:   m.Target,
			ReadOnly: m.ReadOnly,
		})
	}
	return out
}

func restartPolicy(policy string) container.RestartPolicy {
	switch strings.TrimSpace(policy) {
	case "", "no", "none":
		return container.RestartPolicy{Name: container.RestartPolicyDisabled}
	case "always", "any":
		return container.RestartPolicy{Name: container.RestartPolicyAlways}
	case "unless-stopped":
		return container.RestartPolicy{Name: container.RestartPolicyUnlessStopped}
	default:
		if strings.HasPrefix(policy, "on-failure") {
			return container.RestartPolicy{Name: container.RestartPolicyOnFailure}
		}
		return container.RestartPolicy{Name: container.RestartPolicyDisabled}
	}
}

// classify maps engine errors onto the sandbox error taxonomy so callers
// can branch with errors.Is.
func classify(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errdefs.IsNotFound(err):
		return fmt.Errorf("%s: %w: %v", op, sandbox.ErrNotFound, err)
	case client.IsErrConnectionFailed(err):
		return fmt.Errorf("%s: %w: %v", op, sandbox.ErrDaemonUnavailable, err)
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%s: %w", op, sandbox.ErrTimeout)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}
