// Package load implements the rate-controlled load generator. A run is a
// fixed number of one-second ticks; each tick issues a computed number of
// requests, spaced uniformly, subject to a cap on in-flight requests.
package load

import (
	"context"

	"github.com/vk/testrig/internal/model"
	"github.com/vk/testrig/internal/progress"
	"github.com/vk/testrig/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Register binds the load engine to the "load" test type.
func (m *Module) Register(r *registry.Registry) {
	engine := New()
	r.RegisterEngine(model.TypeLoad, registry.EngineFunc(
		func(ctx context.Context, tc *model.TestCase, sink progress.Sink) *model.ExecutionResult {
			return engine.Execute(ctx, tc.Load, sink)
		}))
}
