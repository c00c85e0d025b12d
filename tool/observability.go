package tool

import "time"

// ToolInvokeObservation captures one dispatcher invocation outcome.
type ToolInvokeObservation struct {
	ToolName     string
	InvocationID string
	StartedAt    time.Time
	DurationMS   int64
	Success      bool
	ErrorCode    string
}

// Observer receives tool-level observability events.
type Observer interface {
	ObserveInvoke(observation ToolInvokeObservation)
}

type noopObserver struct{}

func (noopObserver) ObserveInvoke(ToolInvokeObservation) {}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(observation ToolInvokeObservation)

// ObserveInvoke calls f.
func (f ObserverFunc) ObserveInvoke(observation ToolInvokeObservation) {
	if f != nil {
		f(observation)
	}
}
