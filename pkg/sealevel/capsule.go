package sealevel

import (
	"errors"
	"sync"
)

var ErrNoInvokeContext = errors.New("ErrNoInvokeContext")

// The capsule holds the InvokeContext of the instruction currently executing,
// for code that runs underneath a processing function and was not handed the
// context: program logging, sysvar reads and compute metering. Everything else
// receives the context as a parameter.
//
// One slot per process. Invocations are sequential; overlapping invocations
// from different goroutines are not supported.
var capsule struct {
	mu  sync.Mutex
	ctx InvokeContext
}

// CaptureInvokeContext makes invokeCtx the active context and returns a func
// restoring the previously active one. Callers must defer the release so the
// slot never outlives the invocation.
func CaptureInvokeContext(invokeCtx InvokeContext) (release func()) {
	capsule.mu.Lock()
	prev := capsule.ctx
	capsule.ctx = invokeCtx
	capsule.mu.Unlock()

	return func() {
		capsule.mu.Lock()
		capsule.ctx = prev
		capsule.mu.Unlock()
	}
}

// WithInvokeContext calls f with the active context, or returns
// ErrNoInvokeContext when no invocation is in progress.
func WithInvokeContext(f func(invokeCtx InvokeContext) error) error {
	capsule.mu.Lock()
	invokeCtx := capsule.ctx
	capsule.mu.Unlock()

	if invokeCtx == nil {
		return ErrNoInvokeContext
	}
	return f(invokeCtx)
}
