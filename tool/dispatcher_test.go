package tool

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/go-logr/zapr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type recordingObserver struct {
	mu           sync.Mutex
	observations []ToolInvokeObservation
}

func (r *recordingObserver) ObserveInvoke(observation ToolInvokeObservation) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.observations = append(r.observations, observation)
}

func newEchoDispatcher(t *testing.T, handler Handler, opts ...DispatcherOption) *Dispatcher {
	t.Helper()
	reg := NewRegistry()
	err := reg.Register(Definition{
		Name:   "echo",
		Schema: Schema{{Name: "text", Type: TypeString, Required: true}},
		Handler: func(ctx context.Context, args Arguments) (Result, error) {
			return handler(ctx, args)
		},
	})
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	return NewDispatcher(reg, opts...)
}

func TestDispatcherInvokeSuccess(t *testing.T) {
	observer := &recordingObserver{}
	d := newEchoDispatcher(t, echoHandler, WithObserver(observer))

	result, err := d.Invoke(context.Background(), "echo", Arguments{"text": "hello", "extra": 1.0})
	if err != nil {
		t.Fatalf("Invoke() error = %v", err)
	}
	if result.Text() != "hello" {
		t.Fatalf("Text() = %q, want hello", result.Text())
	}
	if len(observer.observations) != 1 {
		t.Fatalf("observations = %d, want 1", len(observer.observations))
	}
	obs := observer.observations[0]
	if !obs.Success || obs.ToolName != "echo" || obs.InvocationID == "" || obs.ErrorCode != "" {
		t.Fatalf("observation = %+v", obs)
	}
}

func TestDispatcherInvokeUnknownTool(t *testing.T) {
	observer := &recordingObserver{}
	d := newEchoDispatcher(t, echoHandler, WithObserver(observer))

	_, err := d.Invoke(context.Background(), "missing", Arguments{})
	if !HasCode(err, ToolErrorCodeUnknownTool) {
		t.Fatalf("Invoke() error = %v, want UNKNOWN_TOOL", err)
	}
	if got := observer.observations[0].ErrorCode; got != ToolErrorCodeUnknownTool {
		t.Fatalf("observed ErrorCode = %q, want UNKNOWN_TOOL", got)
	}
}

func TestDispatcherValidatesBeforeHandler(t *testing.T) {
	var calls atomic.Int32
	d := newEchoDispatcher(t, func(ctx context.Context, args Arguments) (Result, error) {
		calls.Add(1)
		return Result{}, nil
	})

	_, err := d.Invoke(context.Background(), "echo", nil)
	if !HasCode(err, ToolErrorCodeInvalidArguments) {
		t.Fatalf("Invoke() error = %v, want INVALID_ARGUMENTS", err)
	}
	if calls.Load() != 0 {
		t.Fatalf("handler calls = %d, want 0", calls.Load())
	}
}

func TestDispatcherPropagatesHandlerErrorUnchanged(t *testing.T) {
	handlerErr := Errorf(ToolErrorCodeUpstreamFailure, "upstream returned status 503: busy").WithRetryable(true)
	d := newEchoDispatcher(t, func(context.Context, Arguments) (Result, error) {
		return Result{}, handlerErr
	})

	_, err := d.Invoke(context.Background(), "echo", Arguments{"text": "x"})
	if err != handlerErr {
		t.Fatalf("Invoke() error = %v, want the handler error instance", err)
	}

	plain := errors.New("boom")
	observer := &recordingObserver{}
	d = newEchoDispatcher(t, func(context.Context, Arguments) (Result, error) {
		return Result{}, plain
	}, WithObserver(observer))
	_, err = d.Invoke(context.Background(), "echo", Arguments{"text": "x"})
	if err != plain {
		t.Fatalf("Invoke() error = %v, want plain handler error", err)
	}
	if got := observer.observations[0].ErrorCode; got != ToolErrorCodeInvocationFailed {
		t.Fatalf("observed ErrorCode = %q, want INVOCATION_FAILED", got)
	}
}

func TestDispatcherConcurrentInvocations(t *testing.T) {
	d := newEchoDispatcher(t, echoHandler)

	var wg sync.WaitGroup
	errs := make(chan error, 32)
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result, err := d.Invoke(context.Background(), "echo", Arguments{"text": "same"})
			if err != nil {
				errs <- err
				return
			}
			if result.Text() != "same" {
				errs <- errors.New("unexpected text " + result.Text())
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("concurrent Invoke() error = %v", err)
	}
}

func TestDispatcherLogsFailures(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	d := newEchoDispatcher(t, echoHandler, WithLogger(zapr.NewLogger(zap.New(core))))

	if _, err := d.Invoke(context.Background(), "echo", Arguments{"text": "ok"}); err != nil {
		t.Fatalf("Invoke() error = %v", err)
	}
	if logs.Len() != 0 {
		t.Fatalf("success logged at info level: %v", logs.All())
	}

	_, _ = d.Invoke(context.Background(), "echo", Arguments{})
	if logs.Len() != 1 {
		t.Fatalf("log entries = %d, want 1", logs.Len())
	}
	fields := logs.All()[0].ContextMap()
	if fields["tool"] != "echo" || fields["error_code"] != ToolErrorCodeInvalidArguments {
		t.Fatalf("fields = %v", fields)
	}
	if id, _ := fields["invocation_id"].(string); id == "" {
		t.Fatalf("invocation_id missing: %v", fields)
	}
}

func TestDispatcherPassesCanonicalIntegers(t *testing.T) {
	reg := NewRegistry()
	var got Arguments
	err := reg.Register(Definition{
		Name:   "page",
		Schema: Schema{{Name: "page", Type: TypeInteger, Minimum: Bound(1)}},
		Handler: func(_ context.Context, args Arguments) (Result, error) {
			got = args
			return TextResult("ok"), nil
		},
	})
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	d := NewDispatcher(reg)

	for raw, want := range map[string]string{"2.0": "2", "1e1": "10", "7": "7"} {
		if _, err := d.Invoke(context.Background(), "page", Arguments{"page": json.Number(raw)}); err != nil {
			t.Fatalf("Invoke(page=%s) error = %v", raw, err)
		}
		if got["page"] != json.Number(want) {
			t.Fatalf("handler saw page=%#v for %s, want %s", got["page"], raw, want)
		}
	}
}
