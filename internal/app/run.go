package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/vk/blockbind/internal/bridge"
	"github.com/vk/blockbind/internal/ctxlog"
	"github.com/vk/blockbind/internal/document"
	"github.com/vk/blockbind/internal/storage"
	"github.com/vk/blockbind/internal/watcher"
	"github.com/vk/blockbind/internal/workspace"
)

// ErrDiagnostics is returned by Run when FailOnDiagnostics is set and the
// report is not clean.
var ErrDiagnostics = errors.New("document has diagnostics")

// Run loads the document, replays the script if one is configured, and
// publishes the report, the index and the normalized document.
func (a *App) Run(ctx context.Context) error {
	ctx = a.withLogger(ctx)
	a.logger.Debug("App.Run method started.")
	a.healthCheckServer()
	defer a.closeHealthCheckServer()

	rep, err := a.process(ctx)
	if err != nil {
		return err
	}
	if a.config.FailOnDiagnostics && !rep.OK() {
		return fmt.Errorf("%w: %d warning(s)", ErrDiagnostics, len(rep.Diagnostics))
	}
	a.logger.Debug("App.Run method finished.")
	return nil
}

// Format loads the document and writes it back in normalized form.
func (a *App) Format(ctx context.Context) error {
	ctx = a.withLogger(ctx)
	ws, err := a.load(ctx)
	if err != nil {
		return err
	}
	path := a.config.OutputPath
	if path == "" {
		path = "-"
	}
	return a.writeDocument(path, ws.Snapshot())
}

// Watch runs once and then again whenever the document changes, until ctx
// is cancelled. Failed runs are logged and do not stop the watch.
func (a *App) Watch(ctx context.Context) error {
	ctx = ctxlog.With(a.withLogger(ctx), "mode", "watch")
	logger := ctxlog.FromContext(ctx)
	a.healthCheckServer()
	defer a.closeHealthCheckServer()

	if _, err := a.process(ctx); err != nil {
		logger.Error("Initial run failed.", "error", err)
	}

	w, err := watcher.New(a.config.DocumentPath, func(ctx context.Context, files []string) {
		logger.Info("Document changed, reloading.", "files", len(files))
		if _, err := a.process(ctx); err != nil {
			logger.Error("Reload failed.", "error", err)
		}
	},
		watcher.WithExtension(a.codec.Extension()),
		watcher.WithDebounceDelay(a.debounce()),
		watcher.WithOnError(func(err error) { logger.Error("Watch error.", "error", err) }),
	)
	if err != nil {
		return err
	}
	logger.Info("Watching for changes.", "path", a.config.DocumentPath)
	return w.Run(ctx)
}

// Serve connects to the editor and keeps the workspace in sync with it
// until ctx is cancelled.
func (a *App) Serve(ctx context.Context) error {
	ctx = ctxlog.With(a.withLogger(ctx), "mode", "serve")
	a.healthCheckServer()
	defer a.closeHealthCheckServer()

	ws, err := a.load(ctx)
	if err != nil {
		return err
	}
	a.setLastReport(ws.Report())

	conn, err := bridge.Dial(ctx, bridge.Config{
		URL:                a.config.EditorURL,
		Namespace:          a.config.EditorNamespace,
		InsecureSkipVerify: a.config.InsecureSkipVerify,
		ConnectTimeout:     a.config.ConnectTimeout,
	})
	if err != nil {
		return err
	}
	defer conn.Disconnect()

	return bridge.New(conn, &session{Workspace: ws, app: a}).Run(ctx)
}

// session keeps the index and the last report current while the bridge
// applies operations.
type session struct {
	*workspace.Workspace
	app *App
}

func (s *session) Apply(ctx context.Context, op document.Operation) error {
	err := s.Workspace.Apply(ctx, op)
	rep := s.Report()
	s.app.setLastReport(rep)
	if s.app.config.IndexPath != "" {
		if ierr := s.app.writeIndex(ctx, s.Snapshot(), rep); ierr != nil {
			ctxlog.FromContext(ctx).Error("Failed to update index.", "error", ierr)
		}
	}
	return err
}

func (a *App) process(ctx context.Context) (workspace.Report, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	ws, err := a.load(ctx)
	if err != nil {
		return workspace.Report{}, err
	}
	if a.config.ScriptPath != "" {
		script, err := a.codec.LoadScript(ctx, a.config.ScriptPath)
		if err != nil {
			return workspace.Report{}, fmt.Errorf("failed to load script: %w", err)
		}
		if err := ws.ApplyScript(ctx, script); err != nil {
			return workspace.Report{}, fmt.Errorf("replay failed: %w", err)
		}
		ctxlog.FromContext(ctx).Info("Script replayed.", "operations", len(script.Operations))
	}

	rep := ws.Report()
	a.setLastReport(rep)
	if err := printReport(a.outW, rep, a.config.ReportFormat); err != nil {
		return rep, err
	}
	if a.config.IndexPath != "" {
		if err := a.writeIndex(ctx, ws.Snapshot(), rep); err != nil {
			return rep, err
		}
	}
	if a.config.OutputPath != "" {
		if err := a.writeDocument(a.config.OutputPath, ws.Snapshot()); err != nil {
			return rep, err
		}
	}
	return rep, nil
}

// load builds a workspace from the configured document. Mutation values
// that fall back to defaults are logged, not fatal.
func (a *App) load(ctx context.Context) (*workspace.Workspace, error) {
	ws := a.newWorkspace()
	if a.config.DocumentPath == "" {
		return ws, nil
	}
	doc, err := a.codec.Load(ctx, a.config.DocumentPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load document: %w", err)
	}
	if err := ws.Load(ctx, doc); err != nil {
		if !errors.Is(err, workspace.ErrMutationFallback) {
			return nil, fmt.Errorf("failed to load document: %w", err)
		}
		ctxlog.FromContext(ctx).Warn("Document loaded with defaults.", "error", err)
	}
	ctxlog.FromContext(ctx).Info("Document loaded.", "path", a.config.DocumentPath, "nodes", len(doc.Nodes))
	return ws, nil
}

func (a *App) writeIndex(ctx context.Context, doc *document.Document, rep workspace.Report) error {
	db, err := storage.Open(a.config.IndexPath)
	if err != nil {
		return fmt.Errorf("failed to open index: %w", err)
	}
	defer db.Close()
	if err := db.Write(ctx, doc, rep); err != nil {
		return fmt.Errorf("failed to write index: %w", err)
	}
	return nil
}

func (a *App) writeDocument(path string, doc *document.Document) error {
	var w io.Writer = a.outW
	if path != "-" {
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}
	if err := a.codec.Write(w, doc); err != nil {
		return fmt.Errorf("failed to write document: %w", err)
	}
	return nil
}

func (a *App) debounce() time.Duration {
	if a.config.Debounce > 0 {
		return a.config.Debounce
	}
	return watcher.DefaultDebounce
}
