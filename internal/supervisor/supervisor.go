// Package supervisor runs the agent session: it brings the sandbox up,
// then drives the observation, decision, and whisper loops until the
// context is cancelled.
package supervisor

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"vivarium/internal/check"
	"vivarium/internal/decision"
	"vivarium/internal/observer"
	"vivarium/internal/sandbox"
	"vivarium/internal/whisper"
)

type Supervisor struct {
	Sandbox  *sandbox.Manager
	Observer *observer.Observer
	Engine   *decision.Engine
	Injector *whisper.Injector // optional: nil disables whisper injection

	// Observations carries each observation from the Observer to the
	// Engine. The Observer must have been built with this channel as its
	// sink; the Supervisor closes it once the Observer stops.
	Observations chan observer.Observation

	OnEvent   func(eventType, message string)
	OnFailure func(error)
}

func (s *Supervisor) emit(eventType, message string) {
	if s.OnEvent != nil {
		s.OnEvent(eventType, message)
	}
	slog.Debug("supervisor event", "event", eventType, "message", message)
}

func (s *Supervisor) fail(err error) {
	if s.OnFailure != nil {
		s.OnFailure(err)
	}
	if err != nil {
		slog.Warn("supervisor failure", "err", err)
	}
}

// Run brings the sandbox to Running, starts the loops, and blocks until
// ctx is cancelled and every loop has exited.
func (s *Supervisor) Run(ctx context.Context) error {
	check.Assert(s.Sandbox != nil, "Supervisor.Run: Sandbox must not be nil")
	check.Assert(s.Observer != nil, "Supervisor.Run: Observer must not be nil")
	check.Assert(s.Engine != nil, "Supervisor.Run: Engine must not be nil")

	if s.Observations == nil {
		return fmt.Errorf("supervisor: observation channel is required")
	}

	if err := s.ensureRunning(ctx); err != nil {
		return err
	}

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		s.Engine.Run(ctx, s.Observations)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		s.Observer.Run(ctx)
		// The Observer is the only sender; closing here lets the Engine
		// drain and exit before it notices the cancellation itself.
		close(s.Observations)
	}()

	if s.Injector != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Injector.Run(ctx)
		}()
	}

	s.emit("agent.ready", "observation loop started")
	wg.Wait()
	return ctx.Err()
}

// ensureRunning builds the sandbox if it is absent and starts it if it
// is not running. Already-satisfied steps are no-ops.
func (s *Supervisor) ensureRunning(ctx context.Context) error {
	st, err := s.Sandbox.Status(ctx)
	if err != nil {
		s.fail(err)
		return fmt.Errorf("probe sandbox: %w", err)
	}

	if st == sandbox.StateAbsent {
		s.emit("sandbox.build", "building sandbox "+s.Sandbox.Spec().Name)
		if err := s.Sandbox.Build(ctx); err != nil {
			s.fail(err)
			return err
		}
	}

	if s.Sandbox.Current() != sandbox.StateRunning {
		s.emit("sandbox.start", "starting sandbox "+s.Sandbox.Spec().Name)
		if err := s.Sandbox.Start(ctx); err != nil {
			s.fail(err)
			return err
		}
	}

	s.emit("sandbox.ready", "sandbox running")
	return nil
}
