package lineedit

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"strings"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/starford/vaultsort/internal/apperr"
	"github.com/starford/vaultsort/internal/checksum"
)

// Decider accepts or rejects a staged change after seeing its diff.
type Decider interface {
	Decide(ctx context.Context, file, diff string) (bool, error)
}

// DeciderFunc adapts a function to Decider.
type DeciderFunc func(ctx context.Context, file, diff string) (bool, error)

// Decide calls f.
func (f DeciderFunc) Decide(ctx context.Context, file, diff string) (bool, error) {
	return f(ctx, file, diff)
}

var (
	// AcceptAll accepts every change.
	AcceptAll Decider = DeciderFunc(func(context.Context, string, string) (bool, error) { return true, nil })
	// RejectAll rejects every change.
	RejectAll Decider = DeciderFunc(func(context.Context, string, string) (bool, error) { return false, nil })
)

// ReplaceStatus is the final state of a staged replacement.
type ReplaceStatus string

const (
	ReplaceUnchanged ReplaceStatus = "unchanged"
	ReplaceAccepted  ReplaceStatus = "accepted"
	ReplaceRejected  ReplaceStatus = "rejected"
)

// ReplaceResult reports what happened to one file.
type ReplaceResult struct {
	Status ReplaceStatus
	Diff   string
}

// Staged is a replacement materialized next to the original but not yet
// committed.
type Staged struct {
	Path   string
	Shadow string
	Diff   string

	sum    string
	editor *Editor
}

// ShadowPath returns where the staged copy of p is written.
func ShadowPath(p string) string {
	dir, base := path.Split(p)
	return dir + "." + base + ".vaultsort-shadow"
}

// Stage writes a copy of p with every occurrence of oldText replaced by newText
// and diffs it against the original. When nothing changes the copy is
// discarded and Diff is empty.
func (e *Editor) Stage(p, oldText, newText string) (*Staged, error) {
	if oldText == "" {
		return nil, errors.New("lineedit: replacement text to find is empty")
	}
	data, err := e.store.Read(p)
	if err != nil {
		return nil, err
	}
	original := string(data)
	alternate := strings.ReplaceAll(original, oldText, newText)

	s := &Staged{Path: p, Shadow: ShadowPath(p), sum: checksum.Sum(data), editor: e}
	if alternate == original {
		return s, nil
	}
	if err := e.store.Write(s.Shadow, []byte(alternate)); err != nil {
		return nil, fmt.Errorf("lineedit: stage: %w", err)
	}
	diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(original),
		B:        difflib.SplitLines(alternate),
		FromFile: p,
		ToFile:   p + " (staged)",
		Context:  3,
	})
	if err != nil {
		_ = s.Discard()
		return nil, fmt.Errorf("lineedit: diff: %w", err)
	}
	s.Diff = diff
	return s, nil
}

// Commit replaces the original with the staged copy. If the original
// changed since staging, the copy is discarded and ErrConflict returned.
func (s *Staged) Commit() error {
	if s.Diff == "" {
		return nil
	}
	current, err := s.editor.store.Read(s.Path)
	if err != nil {
		_ = s.Discard()
		return err
	}
	if !checksum.Matches(current, s.sum) {
		_ = s.Discard()
		return fmt.Errorf("lineedit: %s changed since staging: %w", s.Path, apperr.ErrConflict)
	}
	if err := s.editor.store.Replace(s.Shadow, s.Path); err != nil {
		_ = s.Discard()
		return fmt.Errorf("lineedit: commit: %w", err)
	}
	return nil
}

// Discard removes the staged copy.
func (s *Staged) Discard() error {
	if err := s.editor.store.Delete(s.Shadow); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// Replace stages the replacement, hands a non-empty diff to d and commits
// only on acceptance. An empty diff leaves the original untouched.
func (e *Editor) Replace(ctx context.Context, p, oldText, newText string, d Decider) (ReplaceResult, error) {
	s, err := e.Stage(p, oldText, newText)
	if err != nil {
		return ReplaceResult{}, err
	}
	if s.Diff == "" {
		return ReplaceResult{Status: ReplaceUnchanged}, nil
	}
	if err := ctx.Err(); err != nil {
		_ = s.Discard()
		return ReplaceResult{}, err
	}
	ok, err := d.Decide(ctx, p, s.Diff)
	if err != nil {
		_ = s.Discard()
		return ReplaceResult{}, fmt.Errorf("lineedit: decide: %w", err)
	}
	if !ok {
		if err := s.Discard(); err != nil {
			return ReplaceResult{}, err
		}
		return ReplaceResult{Status: ReplaceRejected, Diff: s.Diff}, nil
	}
	if err := s.Commit(); err != nil {
		return ReplaceResult{}, err
	}
	return ReplaceResult{Status: ReplaceAccepted, Diff: s.Diff}, nil
}
