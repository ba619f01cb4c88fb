// Package mover runs one batch: route every note and attachment, move it,
// and report what was left behind.
package mover

import (
	"context"
	"crypto/rand"
	"fmt"
	"log/slog"
	"path"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/starford/vaultsort/internal/apperr"
	"github.com/starford/vaultsort/internal/header"
	"github.com/starford/vaultsort/internal/models"
	"github.com/starford/vaultsort/internal/report"
	"github.com/starford/vaultsort/internal/route"
	"github.com/starford/vaultsort/internal/storage"
)

// Options configures a Run. Directories are relative to the vault root.
type Options struct {
	NotesDir       string
	AttachmentsDir string
	LogDir         string
	InboxDir       string
	TaskTitle      string
	ReadLineLimit  int
	// DryRun computes and reports decisions without touching the vault.
	DryRun bool
	Now    func() time.Time
	Logger *slog.Logger
}

// Run is a single batch over the vault.
type Run struct {
	store storage.Provider
	notes route.NoteRouter
	files route.FileRouter
	opts  Options

	ID       string
	LogPath  string
	TaskPath string

	log *report.Log
}

// New prepares a batch. Nothing is read until Execute.
func New(store storage.Provider, notes route.NoteRouter, files route.FileRouter, opts Options) *Run {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.TaskTitle == "" {
		opts.TaskTitle = "Check files not moved"
	}
	return &Run{
		store: store,
		notes: notes,
		files: files,
		opts:  opts,
		ID:    ulid.MustNew(ulid.Timestamp(opts.Now()), rand.Reader).String(),
	}
}

// Execute runs the note pass, then the attachment pass, then writes the
// summary. Per-file failures are recorded in the report; the returned
// error is reserved for failures that stop the batch or hide its result
// (cancellation, an unreadable source folder, an unwritable log or task
// note). The report is returned alongside such errors.
func (r *Run) Execute(ctx context.Context) (*report.Report, error) {
	rep := report.New()
	logger := r.opts.Logger.With("run_id", r.ID)

	if !r.opts.DryRun {
		l, err := report.OpenLog(r.store, r.opts.LogDir, r.ID, r.opts.Now)
		if err != nil {
			return nil, err
		}
		r.log = l
		r.LogPath = l.Path()
	}
	logger.Info("batch started", "dry_run", r.opts.DryRun, "log", r.LogPath)

	r.log.Entry("Starting note mover")
	if err := r.notePass(ctx, rep.Notes, logger); err != nil {
		return rep, r.abort(err)
	}
	r.log.Entry("Starting attachment mover")
	if err := r.filePass(ctx, rep.Files, logger); err != nil {
		return rep, r.abort(err)
	}

	r.log.Entry("Total notes moved: %d", rep.Notes.Moved)
	r.log.Entry("Total notes not moved: %d", len(rep.Notes.NotMoved))
	r.log.Entry("Total files moved: %d", rep.Files.Moved)
	r.log.Entry("Total files not moved: %d", len(rep.Files.NotMoved))

	if !r.opts.DryRun {
		taskPath, err := rep.Finalize(r.log, r.store, r.opts.InboxDir, r.opts.TaskTitle, r.opts.Now())
		if err != nil {
			logger.Error("task note", "error", err)
			return rep, r.abort(fmt.Errorf("mover: task note: %w", err))
		}
		r.TaskPath = taskPath
	}
	if err := r.log.Close(); err != nil {
		return rep, err
	}
	logger.Info("batch finished",
		"moved", rep.Moved(),
		"not_moved", rep.NotMoved(),
		"task", r.TaskPath,
	)
	return rep, nil
}

func (r *Run) abort(err error) error {
	r.log.Entry("Batch stopped: %v", err)
	if cerr := r.log.Close(); cerr != nil {
		r.opts.Logger.Error("close log", "error", cerr)
	}
	return err
}

func (r *Run) notePass(ctx context.Context, s *report.Section, logger *slog.Logger) error {
	entries, err := r.store.List(r.opts.NotesDir)
	if err != nil {
		return fmt.Errorf("mover: list notes: %w", err)
	}
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		o := r.note(e)
		s.Record(o)
		r.logOutcome(logger, o)
	}
	return nil
}

func (r *Run) note(e models.FileEntry) models.Outcome {
	data, err := r.store.Read(e.Path)
	if err != nil {
		return models.Failed(e.Name, apperr.KindOtherIO, "", err.Error())
	}
	h, err := header.ParseFile(data, r.opts.ReadLineLimit)
	if err != nil {
		return models.Failed(e.Name, apperr.Kind(err), "", err.Error())
	}
	d := r.notes.Decide(h)
	if d.Action != route.ActionMove {
		return models.SkippedNoRule(e.Name, d.Kind, d.Reason, d.Observed)
	}
	return r.move(e, d.Folder, d.Folder)
}

func (r *Run) filePass(ctx context.Context, s *report.Section, logger *slog.Logger) error {
	entries, err := r.store.List(r.opts.AttachmentsDir)
	if err != nil {
		return fmt.Errorf("mover: list attachments: %w", err)
	}
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		d := r.files.Decide(e.Name)
		var o models.Outcome
		switch d.Action {
		case route.ActionIgnore:
			o = models.Ignored(e.Name)
		case route.ActionSkip:
			o = models.SkippedNoRule(e.Name, d.Kind, d.Reason, d.Observed)
		default:
			o = r.move(e, path.Join(r.opts.AttachmentsDir, d.Folder), d.Folder)
		}
		s.Record(o)
		r.logOutcome(logger, o)
	}
	return nil
}

// move places e inside dir (vault-relative). label is the folder name
// reported back to the user.
func (r *Run) move(e models.FileEntry, dir, label string) models.Outcome {
	if r.opts.DryRun {
		return models.Moved(e.Name, label)
	}
	if err := r.store.Move(e.Path, path.Join(dir, e.Name)); err != nil {
		return models.Failed(e.Name, apperr.Kind(err), label, err.Error())
	}
	return models.Moved(e.Name, label)
}

func (r *Run) logOutcome(logger *slog.Logger, o models.Outcome) {
	switch o.Status {
	case models.StatusIgnored:
		logger.Debug("ignored", "file", o.File)
		return
	case models.StatusFailed:
		logger.Warn("not moved", "file", o.File, "kind", o.ErrorKind, "detail", o.Detail)
	default:
		logger.Info(string(o.Status), "file", o.File, "destination", o.Destination)
	}
	r.log.Entry("%s", o.Describe())
}
