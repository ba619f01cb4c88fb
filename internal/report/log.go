package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/starford/vaultsort/internal/header"
	"github.com/starford/vaultsort/internal/storage"
)

// Log is the human-readable execution log of one run: a note with a
// metadata header and a fenced log body. Every line is appended to the
// file as soon as it is written.
//
// Write failures are sticky: the first one is kept and returned by Close,
// later writes are dropped. A nil *Log discards everything.
type Log struct {
	store storage.Provider
	path  string
	now   func() time.Time
	err   error
}

// OpenLog creates a new log file in dir named after the run start time.
func OpenLog(store storage.Provider, dir, runID string, now func() time.Time) (*Log, error) {
	start := now()
	p, err := uniquePath(store, dir, start.Format(StampLayout)+"_vaultsort_mover", ".md")
	if err != nil {
		return nil, fmt.Errorf("report: log path: %w", err)
	}
	h := header.New()
	h.SetInline("date", start.Format(DateLayout))
	h.SetInline("run_id", runID)
	h.Set("note_type", "script_log")
	h.Set("cssclasses", "script_log")
	if err := store.Write(p, []byte(h.Block()+"Execution log:\n```log\n")); err != nil {
		return nil, fmt.Errorf("report: create log: %w", err)
	}
	return &Log{store: store, path: p, now: now}, nil
}

// Path returns the vault-relative path of the log file.
func (l *Log) Path() string {
	if l == nil {
		return ""
	}
	return l.path
}

func (l *Log) append(s string) {
	if l == nil || l.err != nil {
		return
	}
	if err := l.store.Append(l.path, []byte(s)); err != nil {
		l.err = fmt.Errorf("report: append log: %w", err)
	}
}

// Entry appends a timestamped line.
func (l *Log) Entry(format string, args ...any) {
	if l == nil {
		return
	}
	l.append(l.now().Format(EntryLayout) + " - " + fmt.Sprintf(format, args...) + "\n")
}

// Text appends raw lines without a timestamp.
func (l *Log) Text(lines ...string) {
	if len(lines) == 0 {
		return
	}
	l.append(strings.Join(lines, "\n") + "\n")
}

// Close writes the closing entry and fence.
func (l *Log) Close() error {
	if l == nil {
		return nil
	}
	l.Entry("End of script")
	l.append("```\n")
	return l.err
}
