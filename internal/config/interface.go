package config

import (
	"context"

	"github.com/vk/testrig/internal/model"
)

// Loader is the interface for a format-specific test-case loader.
type Loader interface {
	// Load reads test cases from files or directories. Names are unique
	// across the returned slice.
	Load(ctx context.Context, paths ...string) ([]*model.TestCase, error)
}

// LoaderFunc adapts a function to the Loader interface.
type LoaderFunc func(ctx context.Context, paths ...string) ([]*model.TestCase, error)

// Load calls f.
func (f LoaderFunc) Load(ctx context.Context, paths ...string) ([]*model.TestCase, error) {
	return f(ctx, paths...)
}
