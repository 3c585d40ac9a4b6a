// Package ui implements the UI step automator. Steps run against a real
// browser when one is available and against the raw page HTML otherwise.
package ui

import (
	"context"

	"github.com/vk/testrig/internal/model"
	"github.com/vk/testrig/internal/progress"
	"github.com/vk/testrig/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct {
	// Browser overrides the browser capability. When nil a Chrome
	// capability is detected from the local installation.
	Browser Browser
}

// Register binds the UI engine to the "ui" test type.
func (m *Module) Register(r *registry.Registry) {
	browser := m.Browser
	if browser == nil {
		browser = NewChrome(ChromeOptions{})
	}
	engine := New(browser)
	r.RegisterEngine(model.TypeUI, registry.EngineFunc(
		func(ctx context.Context, tc *model.TestCase, sink progress.Sink) *model.ExecutionResult {
			return engine.Execute(ctx, tc.UI, sink)
		}))
}
