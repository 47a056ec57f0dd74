// Package cmdutil assembles the production components behind the CLI
// commands: config loading, the Docker-backed sandbox manager, vision
// clients, and the full agent supervisor.
package cmdutil

import (
	"context"
	"fmt"
	"strings"

	"vivarium/config"
	"vivarium/internal/audit"
	"vivarium/internal/decision"
	"vivarium/internal/infra/docker"
	"vivarium/internal/jsonl"
	"vivarium/internal/observer"
	"vivarium/internal/safety"
	"vivarium/internal/sandbox"
	"vivarium/internal/supervisor"
	"vivarium/internal/vision"
	"vivarium/internal/vocab"
	"vivarium/internal/whisper"

	units "github.com/docker/go-units"
)

// LoadConfig reads the config file at path, or the default location
// when path is empty.
func LoadConfig(path string) (*config.Config, error) {
	return config.Load(path)
}

// SharedMountTarget is where the shared host directory appears inside
// the sandbox; the whisper file lands there.
const SharedMountTarget = "/shared"

// ResolveSpec produces the sandbox spec: from the configured compose
// file when one is set, otherwise from the inline sandbox section. An
// explicit sandbox name in the config wins over the compose-derived
// one either way. Both paths guarantee the shared directory is
// mounted, so whisper injections are visible inside the sandbox.
func ResolveSpec(ctx context.Context, cfg *config.Config) (sandbox.Spec, error) {
	if cfg.Sandbox.ComposeFile != "" {
		spec, err := sandbox.LoadComposeSpec(ctx, cfg.Sandbox.ComposeFile, cfg.Sandbox.Service)
		if err != nil {
			return sandbox.Spec{}, err
		}
		if cfg.Sandbox.Name != "" {
			spec.Name = cfg.Sandbox.Name
		}
		ensureSharedMount(&spec, cfg.SharedDir())
		return spec, nil
	}

	spec := sandbox.Spec{
		Name:     cfg.ContainerName(),
		Image:    cfg.Sandbox.Image,
		CPULimit: cfg.Sandbox.CPUs,
	}
	if mem := strings.TrimSpace(cfg.Sandbox.Memory); mem != "" {
		bytes, err := units.RAMInBytes(mem)
		if err != nil {
			return sandbox.Spec{}, fmt.Errorf("parse memory limit %q: %w", mem, err)
		}
		spec.MemoryLimit = bytes
	}
	ensureSharedMount(&spec, cfg.SharedDir())
	return spec, nil
}

// ensureSharedMount appends the shared directory bind unless the spec
// already claims the target (a compose file may mount its own).
func ensureSharedMount(spec *sandbox.Spec, source string) {
	for _, m := range spec.Mounts {
		if m.Target == SharedMountTarget {
			return
		}
	}
	spec.Mounts = append(spec.Mounts, sandbox.Mount{Source: source, Target: SharedMountTarget})
}

// OpenSandbox builds the Docker-backed manager with its audit store.
// The gateway is returned as well because the observer's screen capture
// talks to the engine directly. The cleanup closes the audit store.
func OpenSandbox(ctx context.Context, cfg *config.Config) (*sandbox.Manager, *docker.Gateway, func(), error) {
	spec, err := ResolveSpec(ctx, cfg)
	if err != nil {
		return nil, nil, nil, err
	}

	gw, err := docker.NewGateway()
	if err != nil {
		return nil, nil, nil, err
	}

	store, err := audit.Open(cfg.AuditDBPath())
	if err != nil {
		return nil, nil, nil, fmt.Errorf("open audit store: %w", err)
	}

	mgr, err := sandbox.NewManager(ctx, spec, gw, safety.NewFilter(), sandbox.WithAudit(store))
	if err != nil {
		_ = store.Close()
		return nil, nil, nil, err
	}

	cleanup := func() { _ = store.Close() }
	return mgr, gw, cleanup, nil
}

// OpenAudit opens the audit store alone, for read-only commands.
func OpenAudit(cfg *config.Config) (*audit.Store, error) {
	return audit.Open(cfg.AuditDBPath())
}

// NewVisionClient builds the OpenAI-compatible client for model. It
// fails when no API key is configured.
func NewVisionClient(cfg *config.Config, model string) (*vision.Client, error) {
	key := cfg.APIKey()
	if key == "" {
		return nil, fmt.Errorf("no API key: set api.key in %s or export OPENAI_API_KEY", config.Path())
	}
	return vision.NewClient(cfg.API.BaseURL, key, model), nil
}

// NewPolicy selects the decision policy named in the config: "rules"
// for the offline rule policy, anything else for the model policy.
func NewPolicy(cfg *config.Config) (decision.Policy, error) {
	if cfg.Decision.Policy == "rules" {
		return decision.NewRulePolicy(), nil
	}
	client, err := NewVisionClient(cfg, cfg.Decision.Model)
	if err != nil {
		return nil, err
	}
	return decision.NewModelPolicy(client), nil
}

// BuildAgent assembles the full supervisor for an agent session. The
// cleanup closes the audit store.
func BuildAgent(ctx context.Context, cfg *config.Config) (*supervisor.Supervisor, func(), error) {
	mgr, gw, cleanup, err := OpenSandbox(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	fail := func(err error) (*supervisor.Supervisor, func(), error) {
		cleanup()
		return nil, nil, err
	}

	analyzer, err := NewVisionClient(cfg, cfg.Observer.VisionModel)
	if err != nil {
		return fail(err)
	}
	policy, err := NewPolicy(cfg)
	if err != nil {
		return fail(err)
	}

	capture := observer.NewScreenCapture(gw, observer.CaptureConfig{
		Container: mgr.Spec().Name,
		Dir:       cfg.SnapshotsDir(),
		Command:   cfg.Observer.CaptureCommand,
	})

	sink := make(chan observer.Observation)
	obs := observer.NewObserver(capture, analyzer, jsonl.NewWriter(cfg.ObservationLogPath()),
		observer.WithInterval(cfg.Observer.Interval.Std()),
		observer.WithBackoff(cfg.Observer.Backoff.Std()),
		observer.WithHistoryCap(cfg.Observer.HistoryCap),
		observer.WithSink(sink),
	)

	engine := decision.NewEngine(policy, mgr, jsonl.NewWriter(cfg.DecisionLogPath()),
		decision.WithExecTimeout(cfg.Sandbox.ExecTimeout.Std()),
	)

	words, err := vocab.Open(cfg.VocabularyPath())
	if err != nil {
		return fail(fmt.Errorf("open vocabulary: %w", err))
	}
	injLog, err := whisper.OpenLog(cfg.InjectionLogPath(), cfg.Whisper.LogCap)
	if err != nil {
		return fail(fmt.Errorf("open injection log: %w", err))
	}
	injector := whisper.NewInjector(words, cfg.WhisperPath(), injLog,
		whisper.WithInterval(cfg.Whisper.Interval.Std()),
	)

	return &supervisor.Supervisor{
		Sandbox:      mgr,
		Observer:     obs,
		Engine:       engine,
		Injector:     injector,
		Observations: sink,
	}, cleanup, nil
}
