package registry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/testrig/internal/model"
	"github.com/vk/testrig/internal/progress"
)

type stubModule struct {
	engine Engine
}

func (m *stubModule) Register(r *Registry) {
	r.RegisterEngine(model.TypeAPI, m.engine)
}

func TestDispatch_RoutesByType(t *testing.T) {
	r := New()
	var seen *model.TestCase
	(&stubModule{engine: EngineFunc(func(ctx context.Context, tc *model.TestCase, sink progress.Sink) *model.ExecutionResult {
		seen = tc
		require.NotNil(t, sink)
		return model.NewResult(true, 0, "")
	})}).Register(r)

	tc := &model.TestCase{Name: "ping", Type: model.TypeAPI, API: &model.APIConfig{URL: "http://x"}}
	res := r.Dispatch(context.Background(), tc, nil)

	assert.True(t, res.Success)
	assert.Same(t, tc, seen)
	assert.Equal(t, []model.TestType{model.TypeAPI}, r.Types())
}

func TestDispatch_UnregisteredType(t *testing.T) {
	r := New()
	res := r.Dispatch(context.Background(), &model.TestCase{Name: "x", Type: model.TypeLoad, Load: &model.LoadConfig{}}, nil)
	assert.False(t, res.Success)
	assert.Contains(t, res.ErrorMessage(), "no engine registered")
}

func TestDispatch_InvalidTestCase(t *testing.T) {
	r := New()
	res := r.Dispatch(context.Background(), &model.TestCase{Name: "x", Type: model.TypeUI}, nil)
	assert.False(t, res.Success)
	assert.Contains(t, res.ErrorMessage(), "missing ui configuration")
}

func TestDispatch_RecoversEnginePanic(t *testing.T) {
	r := New()
	r.RegisterEngine(model.TypeAPI, EngineFunc(func(context.Context, *model.TestCase, progress.Sink) *model.ExecutionResult {
		panic("driver exploded")
	}))
	res := r.Dispatch(context.Background(), &model.TestCase{Name: "x", Type: model.TypeAPI, API: &model.APIConfig{}}, nil)
	assert.False(t, res.Success)
	assert.Contains(t, res.ErrorMessage(), "driver exploded")
}

func TestValidate(t *testing.T) {
	assert.Error(t, New().Validate(context.Background()))
}
