// Package api implements the HTTP assertion engine: one request, every
// configured assertion, and an implicit status check.
package api

import (
	"context"

	"github.com/vk/testrig/internal/model"
	"github.com/vk/testrig/internal/progress"
	"github.com/vk/testrig/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Register binds the API engine to the "api" test type.
func (m *Module) Register(r *registry.Registry) {
	engine := New()
	r.RegisterEngine(model.TypeAPI, registry.EngineFunc(
		func(ctx context.Context, tc *model.TestCase, sink progress.Sink) *model.ExecutionResult {
			return engine.Execute(ctx, tc.API, sink)
		}))
}
