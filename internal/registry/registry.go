package registry

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/vk/testrig/internal/ctxlog"
	"github.com/vk/testrig/internal/model"
	"github.com/vk/testrig/internal/progress"
)

// Module is the interface that all engine modules must implement to be
// registered.
type Module interface {
	Register(r *Registry)
}

// Engine runs one test case and always returns a result, never an error.
type Engine interface {
	Execute(ctx context.Context, tc *model.TestCase, sink progress.Sink) *model.ExecutionResult
}

// EngineFunc adapts a function to the Engine interface.
type EngineFunc func(ctx context.Context, tc *model.TestCase, sink progress.Sink) *model.ExecutionResult

// Execute calls f.
func (f EngineFunc) Execute(ctx context.Context, tc *model.TestCase, sink progress.Sink) *model.ExecutionResult {
	return f(ctx, tc, sink)
}

// Registry holds the engines of a single application instance.
type Registry struct {
	engines map[model.TestType]Engine
}

// New creates and initializes a new Registry instance.
func New() *Registry {
	return &Registry{engines: make(map[model.TestType]Engine)}
}

// RegisterEngine binds an engine to a test type, replacing any previous
// binding.
func (r *Registry) RegisterEngine(t model.TestType, e Engine) {
	r.engines[t] = e
}

// Engine returns the engine registered for t.
func (r *Registry) Engine(t model.TestType) (Engine, bool) {
	e, ok := r.engines[t]
	return e, ok
}

// Types lists the registered test types in sorted order.
func (r *Registry) Types() []model.TestType {
	types := make([]model.TestType, 0, len(r.engines))
	for t := range r.engines {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}

// Validate checks that at least one engine is registered.
func (r *Registry) Validate(ctx context.Context) error {
	if len(r.engines) == 0 {
		return fmt.Errorf("registry validation failed: no engines registered")
	}
	ctxlog.FromContext(ctx).Debug("Registry validation passed.", "types", r.Types())
	return nil
}

// Dispatch validates tc, picks its engine and runs it. Configuration
// problems and a panicking engine both become failed results, so the
// caller only ever sees a structured result.
func (r *Registry) Dispatch(ctx context.Context, tc *model.TestCase, sink progress.Sink) (result *model.ExecutionResult) {
	start := time.Now()
	ctx, logger := ctxlog.With(ctx, "test", tc.Name, "type", tc.Type)

	if err := tc.Validate(); err != nil {
		return model.NewResult(false, 0, err.Error())
	}
	engine, ok := r.Engine(tc.Type)
	if !ok {
		return model.NewResult(false, 0, fmt.Sprintf("no engine registered for test type %q", tc.Type))
	}

	defer func() {
		if rec := recover(); rec != nil {
			logger.Error("Engine panicked.", "panic", rec)
			result = model.NewResult(false, time.Since(start), fmt.Sprintf("engine failure: %v", rec))
		}
	}()

	logger.Info("Executing test case.")
	result = engine.Execute(ctx, tc, progress.OrDiscard(sink))
	logger.Info("Test case finished.", "success", result.Success, "duration_ms", result.Duration)
	return result
}
