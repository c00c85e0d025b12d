package tool

import (
	"context"
	"errors"
	"time"

	"github.com/go-logr/logr"
	"github.com/google/uuid"
)

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithLogger sets the logger used for invocation records.
func WithLogger(log logr.Logger) DispatcherOption {
	return func(d *Dispatcher) {
		d.log = log
	}
}

// WithObserver sets the observer notified after every invocation.
func WithObserver(observer Observer) DispatcherOption {
	return func(d *Dispatcher) {
		if observer != nil {
			d.observer = observer
		}
	}
}

// Dispatcher routes calls to registered tools. Each call is independent; the
// dispatcher keeps no per-call state and is safe for concurrent use.
type Dispatcher struct {
	registry *Registry
	log      logr.Logger
	observer Observer
	now      func() time.Time
}

// NewDispatcher creates a dispatcher over registry.
func NewDispatcher(registry *Registry, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		registry: registry,
		log:      logr.Discard(),
		observer: noopObserver{},
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Registry returns the registry the dispatcher routes to.
func (d *Dispatcher) Registry() *Registry {
	return d.registry
}

// Invoke looks up name, validates args against its schema and runs its
// handler with canonical integer arguments. Handler results and errors are
// returned unchanged.
func (d *Dispatcher) Invoke(ctx context.Context, name string, args Arguments) (Result, error) {
	invocationID := uuid.NewString()
	log := d.log.WithValues("tool", name, "invocation_id", invocationID)
	start := d.now()

	result, err := d.invoke(ctx, name, args)

	durationMS := d.now().Sub(start).Milliseconds()
	observation := ToolInvokeObservation{
		ToolName:     name,
		InvocationID: invocationID,
		StartedAt:    start,
		DurationMS:   durationMS,
		Success:      err == nil,
	}
	if err != nil {
		observation.ErrorCode = ErrorCodeOrDefault(err, ToolErrorCodeInvocationFailed)
		log.Info("tool invocation failed", "duration_ms", durationMS, "error_code", observation.ErrorCode, "error", err.Error())
	} else {
		log.V(1).Info("tool invocation succeeded", "duration_ms", durationMS)
	}
	d.observer.ObserveInvoke(observation)
	return result, err
}

func (d *Dispatcher) invoke(ctx context.Context, name string, args Arguments) (Result, error) {
	if d.registry == nil {
		return Result{}, errors.New("tool: dispatcher has no registry")
	}
	def, ok := d.registry.Lookup(name)
	if !ok {
		return Result{}, Errorf(ToolErrorCodeUnknownTool, "unknown tool %q", name)
	}
	if args == nil {
		args = Arguments{}
	}
	if err := def.Schema.Validate(args); err != nil {
		return Result{}, err
	}
	return def.Handler(ctx, def.Schema.Canonicalize(args))
}
