package observer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"vivarium/internal/sandbox"
)

const (
	// defaultRemotePath is where the capture command leaves the image
	// inside the container before it is copied out.
	defaultRemotePath = "/tmp/vivarium-screen.png"

	defaultCaptureTimeout = 10 * time.Second
)

// CaptureConfig configures a ScreenCapture. Zero values get defaults;
// only Container and Dir are required.
type CaptureConfig struct {
	// Container is the sandbox container name.
	Container string
	// Dir is the host directory snapshots are stored in.
	Dir string
	// Command runs inside the container and must write a PNG to
	// RemotePath. Defaults to scrot.
	Command []string
	// RemotePath is the in-container image location.
	RemotePath string
	// Timeout bounds the capture command.
	Timeout time.Duration
}

// ScreenCapture takes desktop snapshots by running a capture command
// inside the container and copying the image out to the host.
type ScreenCapture struct {
	runtime sandbox.Runtime
	cfg     CaptureConfig
}

var _ Snapshotter = (*ScreenCapture)(nil)

// NewScreenCapture returns a Snapshotter over the given runtime.
func NewScreenCapture(rt sandbox.Runtime, cfg CaptureConfig) *ScreenCapture {
	if cfg.RemotePath == "" {
		cfg.RemotePath = defaultRemotePath
	}
	if len(cfg.Command) == 0 {
		cfg.Command = []string{"scrot", "-z", "-o", cfg.RemotePath}
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultCaptureTimeout
	}
	return &ScreenCapture{runtime: rt, cfg: cfg}
}

// Snapshot captures the container's screen and writes it to a
// timestamped file under the configured directory.
func (s *ScreenCapture) Snapshot(ctx context.Context) (string, []byte, error) {
	res, err := s.runtime.Exec(ctx, s.cfg.Container, s.cfg.Command, s.cfg.Timeout)
	if err != nil {
		return "", nil, fmt.Errorf("run capture command: %w", err)
	}
	if res.ExitCode != 0 {
		return "", nil, fmt.Errorf("capture command exited %d: %s", res.ExitCode, res.Stderr)
	}

	data, err := s.runtime.CopyFrom(ctx, s.cfg.Container, s.cfg.RemotePath)
	if err != nil {
		return "", nil, fmt.Errorf("copy snapshot out: %w", err)
	}

	if err := os.MkdirAll(s.cfg.Dir, 0o755); err != nil {
		return "", nil, fmt.Errorf("create snapshot directory: %w", err)
	}
	name := "screenshot_" + time.Now().UTC().Format("20060102_150405") + ".png"
	path := filepath.Join(s.cfg.Dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", nil, fmt.Errorf("store snapshot: %w", err)
	}
	return path, data, nil
}
