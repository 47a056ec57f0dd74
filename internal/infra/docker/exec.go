package docker

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"slices"
	"strconv"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/pkg/stdcopy"

	"vivarium/internal/sandbox"
)

const (
	// defaultExecTimeout applies when the caller passes no timeout.
	defaultExecTimeout = 30 * time.Second
	// execSlack is host-side headroom past the in-container guard, so the
	// guard fires first and we still collect its exit code.
	execSlack = 2 * time.Second
	// sigkillExit is 128+SIGKILL, what the guard reports after killing
	// the command.
	sigkillExit = 137
)

// Exec runs argv inside the named container and returns the captured
// result. The command is wrapped in `timeout -s KILL` so the process is
// dead inside the container once the deadline passes, not just abandoned
// by the host.
func (g *Gateway) Exec(ctx context.Context, name string, argv []string, timeout time.Duration) (sandbox.ExecResult, error) {
	if len(argv) == 0 {
		return sandbox.ExecResult{}, fmt.Errorf("exec in container %q: empty argv", name)
	}
	if timeout <= 0 {
		timeout = defaultExecTimeout
	}
	seconds := int(math.Ceil(timeout.Seconds()))
	if seconds < 1 {
		seconds = 1
	}
	guarded := append([]string{"timeout", "-s", "KILL", strconv.Itoa(seconds)}, argv...)

	ctx, cancel := context.WithTimeout(ctx, timeout+execSlack)
	defer cancel()

	res := sandbox.ExecResult{Command: slices.Clone(argv)}

	start := time.Now()
	created, err := g.cli.ContainerExecCreate(ctx, name, container.ExecOptions{
		Cmd:          guarded,
		AttachStdout: true,
		AttachStderr: true,
	})
	if err != nil {
		return res, classify(fmt.Sprintf("create exec in container %q", name), err)
	}

	attach, err := g.cli.ContainerExecAttach(ctx, created.ID, container.ExecAttachOptions{})
	if err != nil {
		return res, classify(fmt.Sprintf("attach exec in container %q", name), err)
	}
	defer attach.Close()

	// The hijacked stream ignores context cancellation; close it by hand
	// so StdCopy cannot outlive the deadline.
	copied := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			attach.Close()
		case <-copied:
		}
	}()

	var stdout, stderr bytes.Buffer
	_, copyErr := stdcopy.StdCopy(&stdout, &stderr, attach.Reader)
	close(copied)

	res.Duration = time.Since(start)
	res.Stdout = stdout.String()
	res.Stderr = stderr.String()

	if copyErr != nil {
		if ctx.Err() != nil {
			res.ExitCode = sandbox.TimedOutExitCode
			return res, fmt.Errorf("exec %q in container %q: %w", argv[0], name, sandbox.ErrTimeout)
		}
		return res, classify(fmt.Sprintf("read exec output from container %q", name), copyErr)
	}

	info, err := g.cli.ContainerExecInspect(ctx, created.ID)
	if err != nil {
		return res, classify(fmt.Sprintf("inspect exec in container %q", name), err)
	}
	res.ExitCode = info.ExitCode

	// The guard exits 137 after a SIGKILL. A fast 137 is the command's
	// own (OOM and friends); only the wall clock tells them apart.
	if info.ExitCode == sigkillExit && res.Duration >= timeout {
		res.ExitCode = sandbox.TimedOutExitCode
		return res, fmt.Errorf("exec %q in container %q: %w", argv[0], name, sandbox.ErrTimeout)
	}
	return res, nil
}
