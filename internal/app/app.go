package app

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"sync"

	"github.com/vk/blockbind/internal/ctxlog"
	"github.com/vk/blockbind/internal/document"
	"github.com/vk/blockbind/internal/registry"
	"github.com/vk/blockbind/internal/workspace"
)

// Codec reads and writes documents in one file format.
type Codec interface {
	document.Loader
	document.ScriptLoader
	document.Writer
	Extension() string
}

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW     io.Writer
	logger   *slog.Logger
	ctx      context.Context
	config   *Config
	registry *registry.Registry
	codec    Codec

	httpServer *http.Server

	// mu serializes runs started by the watcher.
	mu         sync.Mutex
	lastMu     sync.RWMutex
	lastReport *workspace.Report
}

// NewApp is the constructor for the main application. It returns a fully
// initialized App instance, including its own isolated logger and registry.
// An inconsistent registry is a programmer error and panics.
func NewApp(outW io.Writer, cfg *Config, codec Codec, modules ...registry.Module) *App {
	logW := cfg.LogOutput
	if logW == nil {
		logW = outW
	}
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, logW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	if len(modules) == 0 {
		modules = coreModules
	}
	reg := registry.NewWith(modules...)
	logger.Debug("All kind modules registered.", "modules", len(modules), "kinds", len(reg.Kinds()))

	if err := reg.Validate(ctx); err != nil {
		panic(err)
	}
	logger.Debug("Registry validation passed.")

	return &App{
		outW:     outW,
		logger:   logger,
		ctx:      ctx,
		config:   cfg,
		registry: reg,
		codec:    codec,
	}
}

// Registry returns the application's registry. This is primarily for testing.
func (a *App) Registry() *registry.Registry {
	return a.registry
}

// LastReport returns the report of the most recent run, if any.
func (a *App) LastReport() (workspace.Report, bool) {
	a.lastMu.RLock()
	defer a.lastMu.RUnlock()
	if a.lastReport == nil {
		return workspace.Report{}, false
	}
	return *a.lastReport, true
}

func (a *App) setLastReport(rep workspace.Report) {
	a.lastMu.Lock()
	defer a.lastMu.Unlock()
	a.lastReport = &rep
}

func (a *App) newWorkspace() *workspace.Workspace {
	return workspace.New(a.registry, workspace.WithMaxEvents(a.config.MaxEvents))
}

// withLogger attaches the app logger to ctx and remembers ctx for the
// background servers.
func (a *App) withLogger(ctx context.Context) context.Context {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.ctx = ctx
	return ctx
}
