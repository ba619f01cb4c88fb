// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/starford/vaultsort/internal/bulkedit"
	"github.com/starford/vaultsort/internal/console"
	"github.com/starford/vaultsort/internal/lineedit"
	"github.com/starford/vaultsort/internal/mcpserver"
	"github.com/starford/vaultsort/internal/mover"
	"github.com/starford/vaultsort/internal/route"
	"github.com/starford/vaultsort/internal/storage"
	"github.com/starford/vaultsort/internal/watcher"
)

// runtime is everything a command needs, built once from the options.
type runtime struct {
	cfg     *Config
	logger  *slog.Logger
	store   *storage.FS
	console *console.Console
	app     *application
}

func setup(opts []Option) (*runtime, error) {
	app := &application{}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}
	if app.logOutput == nil {
		app.logOutput = os.Stderr
	}
	if app.console == nil {
		app.console = console.Stdio()
	}
	if app.stdin == nil {
		app.stdin = os.Stdin
	}
	if app.stdout == nil {
		app.stdout = os.Stdout
	}

	cfg := app.config

	// Initialize structured JSON logger.
	logger := slog.New(slog.NewJSONHandler(app.logOutput, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("vault_path", cfg.Vault.Path),
		slog.String("notes_dir", cfg.Notes.SourceDir),
		slog.String("attachments_dir", cfg.Attachments.SourceDir),
		slog.String("log_level", cfg.App.LogLevel.String()))

	store, err := storage.NewFS(cfg.Vault.Path)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}

	return &runtime{cfg: cfg, logger: logger, store: store, console: app.console, app: app}, nil
}

// routers loads both routing tables. A missing or malformed table aborts
// the run before any file is touched.
func (rt *runtime) routers() (route.NoteRouter, route.FileRouter, error) {
	noteRules, err := route.LoadRules(rt.store, rt.cfg.Notes.RulesFile, false)
	if err != nil {
		return route.NoteRouter{}, route.FileRouter{}, err
	}
	fileRules, err := route.LoadRules(rt.store, rt.cfg.Attachments.RulesFile, true)
	if err != nil {
		return route.NoteRouter{}, route.FileRouter{}, err
	}
	rt.logger.Debug("routing rules loaded",
		slog.Int("note_types", len(noteRules)),
		slog.Int("file_types", len(fileRules)))
	return rt.cfg.Notes.Router(noteRules), rt.cfg.Attachments.Router(fileRules), nil
}

func (rt *runtime) moverOptions(dryRun bool) mover.Options {
	return mover.Options{
		NotesDir:       rt.cfg.Notes.SourceDir,
		AttachmentsDir: rt.cfg.Attachments.SourceDir,
		LogDir:         rt.cfg.Vault.LogDir,
		InboxDir:       rt.cfg.Vault.InboxDir,
		TaskTitle:      rt.cfg.Task.Title,
		ReadLineLimit:  rt.cfg.Notes.ReadLineLimit,
		DryRun:         dryRun,
		Logger:         rt.logger,
	}
}

// RunMove runs one organizing batch and prints its summary.
func RunMove(ctx context.Context, dryRun bool, opts ...Option) error {
	rt, err := setup(opts)
	if err != nil {
		return err
	}
	notes, files, err := rt.routers()
	if err != nil {
		return err
	}
	run := mover.New(rt.store, notes, files, rt.moverOptions(dryRun))
	rep, err := run.Execute(ctx)
	if rep != nil {
		rt.console.MoveReport(rep, dryRun)
	}
	if err != nil {
		return fmt.Errorf("move: %w", err)
	}
	if run.TaskPath != "" {
		_, _ = fmt.Fprintf(rt.console.Out, "follow-up task: %s\n", run.TaskPath)
	}
	return nil
}

// EditRequest describes one bulk edit.
type EditRequest struct {
	Dir       string
	Filter    bulkedit.Filter
	Operation bulkedit.Operation
	// AutoAccept applies staged replacements without asking.
	AutoAccept bool
}

// RunEdit applies one line-edit operation to every matching note under
// req.Dir. Replace operations without a decider ask on the console.
func RunEdit(ctx context.Context, req EditRequest, opts ...Option) error {
	rt, err := setup(opts)
	if err != nil {
		return err
	}
	rt.console.AutoAccept = req.AutoAccept || rt.cfg.Edit.AutoAccept

	op := req.Operation
	if r, ok := op.(bulkedit.Replace); ok && r.Decider == nil {
		r.Decider = rt.console
		op = r
	}

	sum, err := bulkedit.Run(ctx, lineedit.New(rt.store), rt.store, req.Dir, op, req.Filter, bulkedit.Options{
		ReadLineLimit: rt.cfg.Notes.ReadLineLimit,
		Logger:        rt.logger,
	})
	rt.console.EditSummary(sum)
	if err != nil {
		return fmt.Errorf("edit: %w", err)
	}
	return nil
}

// RunWatch runs a batch at start and again whenever files land in the
// source folders, until SIGINT/SIGTERM.
func RunWatch(ctx context.Context, opts ...Option) error {
	rt, err := setup(opts)
	if err != nil {
		return err
	}
	notes, files, err := rt.routers()
	if err != nil {
		return err
	}
	logger := rt.logger

	batch := func(ctx context.Context) error {
		rep, err := mover.New(rt.store, notes, files, rt.moverOptions(false)).Execute(ctx)
		if err != nil {
			return err
		}
		logger.Info("batch complete", slog.Int("moved", rep.Moved()), slog.Int("not_moved", rep.NotMoved()))
		return nil
	}

	g, gCtx := errgroup.WithContext(ctx)
	gCtx, cancel := context.WithCancel(gCtx)
	defer cancel()

	g.Go(func() error {
		if err := batch(gCtx); err != nil && gCtx.Err() == nil {
			logger.Error("initial batch failed", slog.String("error", err.Error()))
		}
		dirs := []string{
			filepath.Join(rt.store.Root(), filepath.FromSlash(rt.cfg.Notes.SourceDir)),
			filepath.Join(rt.store.Root(), filepath.FromSlash(rt.cfg.Attachments.SourceDir)),
		}
		return watcher.Watch(gCtx, dirs, rt.cfg.Watch.Debounce, logger, batch)
	})

	g.Go(func() error {
		waitForSignal(gCtx, logger)
		cancel()
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Watcher stopped successfully")
	return nil
}

// RunMCP serves the read-only MCP tools over stdio until stdin closes or
// SIGINT/SIGTERM.
func RunMCP(ctx context.Context, opts ...Option) error {
	rt, err := setup(opts)
	if err != nil {
		return err
	}
	notes, files, err := rt.routers()
	if err != nil {
		return err
	}
	srv := mcpserver.New(rt.store, notes, files, rt.moverOptions(true))
	logger := rt.logger

	g, gCtx := errgroup.WithContext(ctx)
	gCtx, cancel := context.WithCancel(gCtx)
	defer cancel()

	g.Go(func() error {
		logger.Info("Starting MCP server on stdio")
		defer cancel()
		return srv.Serve(gCtx, rt.app.stdin, rt.app.stdout)
	})

	g.Go(func() error {
		waitForSignal(gCtx, logger)
		cancel()
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("MCP server stopped successfully")
	return nil
}

// waitForSignal blocks until SIGINT/SIGTERM or ctx is done.
func waitForSignal(ctx context.Context, logger *slog.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case sig := <-quit:
		logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
	case <-ctx.Done():
		logger.Info("Context cancelled, initiating shutdown")
	}
}
