package ui

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"

	"vivarium/internal/telemetry"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// TelemetryOutput renders planned-operation spans as terminal progress:
// an animated checklist on interactive terminals, plain step lines
// otherwise.
type TelemetryOutput struct {
	provider *sdktrace.TracerProvider
	closeFn  func()
}

func NewTelemetryOutput() *TelemetryOutput {
	var (
		report  func(stepSnapshot)
		closeFn = func() {}
	)
	if IsInteractive() {
		checklist := NewChecklist()
		report = checklist.OnSnapshot
		closeFn = checklist.Close
	} else {
		report = newPlainPrinter().OnSnapshot
	}

	tracker := newPlanTracker(report)
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(&progressSpanProcessor{tracker: tracker}))
	return &TelemetryOutput{provider: provider, closeFn: closeFn}
}

func (o *TelemetryOutput) Tracer(name string) trace.Tracer {
	if o == nil || o.provider == nil {
		return otel.Tracer(name)
	}
	return o.provider.Tracer(name)
}

func (o *TelemetryOutput) Close() {
	if o == nil {
		return
	}
	if o.provider != nil {
		_ = o.provider.Shutdown(context.Background())
	}
	if o.closeFn != nil {
		o.closeFn()
	}
}

// plainPrinter logs one line per step transition, for CI logs and
// redirected output. Repeated snapshots of an unchanged step print
// nothing.
type plainPrinter struct {
	mu   sync.Mutex
	seen map[string]stepChange
}

type stepChange struct {
	status  stepStatus
	message string
}

func newPlainPrinter() *plainPrinter {
	return &plainPrinter{seen: make(map[string]stepChange)}
}

func (p *plainPrinter) OnSnapshot(snapshot stepSnapshot) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, step := range snapshot.Steps {
		if step.Status == stepPending {
			continue
		}

		id := strings.TrimSpace(step.ID)
		if id == "" {
			id = strings.TrimSpace(step.Title)
		}
		if id == "" {
			continue
		}

		change := stepChange{status: step.Status, message: strings.TrimSpace(step.Message)}
		if p.seen[id] == change {
			continue
		}
		p.seen[id] = change
		fmt.Fprintln(os.Stderr, plainStepLine(step, change.message))
	}
}

func plainStepLine(step stepState, msg string) string {
	marker := "[ ]"
	switch step.Status {
	case stepRunning:
		marker = "[~]"
	case stepDone:
		marker = "[x]"
	case stepFailed:
		marker = "[!]"
	}

	title := strings.TrimSpace(step.Title)
	if title == "" {
		title = strings.TrimSpace(step.ID)
	}
	if msg != "" {
		return fmt.Sprintf("  %s %s (%s)", marker, title, msg)
	}
	return fmt.Sprintf("  %s %s", marker, title)
}

// planTracker folds span events into an ordered step list and reports a
// full snapshot after every change. Steps keep the plan's order;
// unplanned steps append as they appear.
type planTracker struct {
	mu     sync.Mutex
	steps  map[string]stepState
	order  []string
	report func(stepSnapshot)
}

func newPlanTracker(report func(stepSnapshot)) *planTracker {
	return &planTracker{
		steps:  make(map[string]stepState),
		order:  make([]string, 0, 8),
		report: report,
	}
}

func (t *planTracker) onPlan(plan telemetry.Plan) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, planned := range plan.Steps {
		id := strings.TrimSpace(planned.ID)
		if id == "" {
			continue
		}

		step, exists := t.steps[id]
		if !exists {
			t.order = append(t.order, id)
			step = stepState{ID: id, Status: stepPending}
		}
		step.Title = strings.TrimSpace(planned.Title)
		if step.Title == "" {
			step.Title = id
		}
		t.steps[id] = step
	}

	t.emitLocked()
}

func (t *planTracker) onStepStart(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	step := t.ensureLocked(id)
	step.Status = stepRunning
	step.Message = ""
	t.steps[step.ID] = step
	t.emitLocked()
}

func (t *planTracker) onStepEnd(id string, failed bool, message string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	step := t.ensureLocked(id)
	if failed {
		step.Status = stepFailed
		step.Message = strings.TrimSpace(message)
	} else {
		step.Status = stepDone
		step.Message = ""
	}
	t.steps[step.ID] = step
	t.emitLocked()
}

func (t *planTracker) ensureLocked(id string) stepState {
	id = strings.TrimSpace(id)
	if id == "" {
		id = "unnamed"
	}

	if step, exists := t.steps[id]; exists {
		return step
	}

	t.order = append(t.order, id)
	return stepState{ID: id, Title: id, Status: stepPending}
}

func (t *planTracker) emitLocked() {
	if t.report == nil {
		return
	}

	steps := make([]stepState, 0, len(t.order))
	for _, id := range t.order {
		if step, exists := t.steps[id]; exists {
			steps = append(steps, step)
		}
	}
	t.report(stepSnapshot{Steps: steps})
}

// progressSpanProcessor feeds the tracker: the root span carries the
// plan as a JSON attribute, child spans are the steps themselves.
type progressSpanProcessor struct {
	tracker *planTracker
}

func (p *progressSpanProcessor) OnStart(_ context.Context, span sdktrace.ReadWriteSpan) {
	if p == nil || p.tracker == nil {
		return
	}

	if span.Parent().IsValid() {
		p.tracker.onStepStart(span.Name())
		return
	}
	if plan, ok := planFromSpan(span.Attributes()); ok {
		p.tracker.onPlan(plan)
	}
}

func (p *progressSpanProcessor) OnEnd(span sdktrace.ReadOnlySpan) {
	if p == nil || p.tracker == nil {
		return
	}
	if !span.Parent().IsValid() {
		return
	}

	status := span.Status()
	p.tracker.onStepEnd(span.Name(), status.Code == codes.Error, strings.TrimSpace(status.Description))
}

func (p *progressSpanProcessor) Shutdown(context.Context) error   { return nil }
func (p *progressSpanProcessor) ForceFlush(context.Context) error { return nil }

func planFromSpan(attrs []attribute.KeyValue) (telemetry.Plan, bool) {
	var raw string
	for _, attr := range attrs {
		if string(attr.Key) == telemetry.PlanJSONKey {
			raw = attr.Value.AsString()
			break
		}
	}
	if strings.TrimSpace(raw) == "" {
		return telemetry.Plan{}, false
	}

	var plan telemetry.Plan
	if err := json.Unmarshal([]byte(raw), &plan); err != nil {
		return telemetry.Plan{}, false
	}
	return plan, true
}
