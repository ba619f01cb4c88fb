// Package bulkedit applies one line-edit operation to every matching note
// under a folder.
package bulkedit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/starford/vaultsort/internal/header"
	"github.com/starford/vaultsort/internal/lineedit"
	"github.com/starford/vaultsort/internal/models"
	"github.com/starford/vaultsort/internal/storage"
)

// Operation is one of DeleteLine, RemoveValue, InsertAfter or Replace.
type Operation interface {
	Name() string
	apply(ctx context.Context, e *lineedit.Editor, path string) (FileResult, error)
}

// DeleteLine removes every line equal to Line.
type DeleteLine struct {
	Line string
}

func (DeleteLine) Name() string { return "delete-line" }

func (o DeleteLine) apply(_ context.Context, e *lineedit.Editor, p string) (FileResult, error) {
	n, err := e.DeleteLine(p, o.Line)
	return counted(p, n), err
}

// RemoveValue removes Value from the first list under Property.
type RemoveValue struct {
	Property string
	Value    string
}

func (RemoveValue) Name() string { return "remove-value" }

func (o RemoveValue) apply(_ context.Context, e *lineedit.Editor, p string) (FileResult, error) {
	removed, err := e.RemovePropertyValue(p, o.Property, o.Value)
	if removed {
		return counted(p, 1), err
	}
	return counted(p, 0), err
}

// InsertAfter inserts Line after the first (or, with Every, each) line
// equal to Marker.
type InsertAfter struct {
	Marker string
	Line   string
	Every  bool
}

func (InsertAfter) Name() string { return "insert-after" }

func (o InsertAfter) apply(_ context.Context, e *lineedit.Editor, p string) (FileResult, error) {
	n, err := e.InsertAfter(p, o.Marker, o.Line, !o.Every)
	return counted(p, n), err
}

// Replace substitutes Old with New after Decider accepts the diff.
type Replace struct {
	Old     string
	New     string
	Decider lineedit.Decider
}

func (Replace) Name() string { return "replace" }

func (o Replace) apply(ctx context.Context, e *lineedit.Editor, p string) (FileResult, error) {
	d := o.Decider
	if d == nil {
		d = lineedit.RejectAll
	}
	res, err := e.Replace(ctx, p, o.Old, o.New, d)
	if err != nil {
		return FileResult{Path: p}, err
	}
	r := FileResult{Path: p, Diff: res.Diff}
	switch res.Status {
	case lineedit.ReplaceAccepted:
		r.Status, r.Changes = StatusEdited, 1
	case lineedit.ReplaceRejected:
		r.Status = StatusRejected
	default:
		r.Status = StatusUnchanged
	}
	return r, nil
}

func counted(p string, n int) FileResult {
	if n > 0 {
		return FileResult{Path: p, Status: StatusEdited, Changes: n}
	}
	return FileResult{Path: p, Status: StatusUnchanged}
}

// Filter selects notes by header. The zero Filter matches every note
// without parsing its header.
type Filter struct {
	Property string
	Value    string
}

// Match reports whether h passes the filter.
func (f Filter) Match(h *header.Header) bool {
	if f.Property == "" {
		return true
	}
	if !h.Has(f.Property) {
		return false
	}
	return f.Value == "" || h.HasValue(f.Property, f.Value) || h.HasTag(f.Property, f.Value)
}

// Status of one file.
type Status string

const (
	StatusEdited    Status = "edited"
	StatusUnchanged Status = "unchanged"
	StatusSkipped   Status = "skipped"
	StatusRejected  Status = "rejected"
	StatusError     Status = "error"
)

// FileResult is what happened to one note.
type FileResult struct {
	Path    string `json:"path"`
	Status  Status `json:"status"`
	Changes int    `json:"changes,omitempty"`
	Diff    string `json:"diff,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Summary counts results per status.
type Summary struct {
	Operation string
	Edited    int
	Unchanged int
	Skipped   int
	Rejected  int
	Errors    int
	Files     []FileResult
}

func (s *Summary) add(r FileResult) {
	switch r.Status {
	case StatusEdited:
		s.Edited++
	case StatusSkipped:
		s.Skipped++
	case StatusRejected:
		s.Rejected++
	case StatusError:
		s.Errors++
	default:
		s.Unchanged++
	}
	s.Files = append(s.Files, r)
}

// Options tune Run.
type Options struct {
	ReadLineLimit int
	Logger        *slog.Logger
}

// Run applies op to every .md note under dir, one file at a time in walk
// order. Per-file failures are counted; the returned error is reserved for
// cancellation and an unreadable dir.
func Run(ctx context.Context, e *lineedit.Editor, store storage.Provider, dir string, op Operation, filter Filter, opts Options) (Summary, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	sum := Summary{Operation: op.Name()}

	// Collect first: committed replacements rename files inside the tree.
	var notes []models.FileEntry
	if err := store.Walk(dir, ".md", func(fe models.FileEntry) error {
		notes = append(notes, fe)
		return nil
	}); err != nil {
		return sum, fmt.Errorf("bulkedit: %w", err)
	}

	for _, n := range notes {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		r, err := process(ctx, e, store, n.Path, op, filter, opts.ReadLineLimit)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return sum, err
			}
			r = FileResult{Path: n.Path, Status: StatusError, Error: err.Error()}
			logger.Warn("edit failed", "op", op.Name(), "path", n.Path, "error", err)
		} else if r.Status == StatusEdited {
			logger.Info("edited", "op", op.Name(), "path", n.Path, "changes", r.Changes)
		}
		sum.add(r)
	}
	return sum, nil
}

func process(ctx context.Context, e *lineedit.Editor, store storage.Provider, p string, op Operation, filter Filter, limit int) (FileResult, error) {
	if filter.Property != "" {
		data, err := store.Read(p)
		if err != nil {
			return FileResult{}, err
		}
		h, err := header.ParseFile(data, limit)
		if err != nil {
			return FileResult{Path: p, Status: StatusSkipped, Error: err.Error()}, nil
		}
		if !filter.Match(h) {
			return FileResult{Path: p, Status: StatusSkipped}, nil
		}
	}
	return op.apply(ctx, e, p)
}
