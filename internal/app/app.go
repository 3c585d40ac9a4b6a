package app

import (
	"context"
	"io"
	"log/slog"
	"net/http"

	"github.com/vk/testrig/internal/config"
	"github.com/vk/testrig/internal/ctxlog"
	"github.com/vk/testrig/internal/progress"
	"github.com/vk/testrig/internal/registry"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	ctx        context.Context
	outW       io.Writer
	logger     *slog.Logger
	config     *Config
	registry   *registry.Registry
	loader     config.Loader
	latest     *progress.Latest
	httpServer *http.Server
}

// NewApp is the constructor for the main application. Reports go to outW
// and logs to logW; test cases come from loader. Without explicit modules
// the core engines are registered.
func NewApp(outW, logW io.Writer, cfg *Config, loader config.Loader, modules ...registry.Module) *App {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, logW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	reg := registry.New()
	if len(modules) == 0 {
		modules = coreModules(cfg)
	}
	for _, mod := range modules {
		mod.Register(reg)
	}
	logger.Debug("All engine modules registered.", "count", len(modules), "types", reg.Types())

	return &App{
		ctx:      ctx,
		outW:     outW,
		logger:   logger,
		config:   cfg,
		registry: reg,
		loader:   loader,
		latest:   progress.NewLatest(),
	}
}

// Registry returns the application's registry. This is primarily for testing.
func (a *App) Registry() *registry.Registry {
	return a.registry
}
