// Package lineedit rewrites note files line by line.
//
// Every primitive assembles the complete new content before touching the
// original, which is then replaced through an atomic write, so a crash
// mid-rewrite leaves the original intact.
package lineedit

import (
	"fmt"
	"strings"

	"github.com/starford/vaultsort/internal/storage"
)

// Editor applies line rewrites to vault files.
type Editor struct {
	store storage.Provider
}

// New creates an Editor backed by store.
func New(store storage.Provider) *Editor {
	return &Editor{store: store}
}

// splitLines splits s keeping each line's terminator.
func splitLines(s string) []string {
	lines := strings.SplitAfter(s, "\n")
	if n := len(lines); n > 0 && lines[n-1] == "" {
		lines = lines[:n-1]
	}
	return lines
}

// text returns a line without its "\n" terminator. A "\r" before it is
// content, so a CRLF line never equals its LF-only target.
func text(line string) string {
	return strings.TrimSuffix(line, "\n")
}

// rewrite runs fn over the lines of path and writes the result back when
// fn reports at least one change.
func (e *Editor) rewrite(path string, fn func(lines []string) ([]string, int)) (int, error) {
	data, err := e.store.Read(path)
	if err != nil {
		return 0, err
	}
	out, changed := fn(splitLines(string(data)))
	if changed == 0 {
		return 0, nil
	}
	if err := e.store.Write(path, []byte(strings.Join(out, ""))); err != nil {
		return 0, fmt.Errorf("lineedit: %w", err)
	}
	return changed, nil
}

// DeleteLine removes every line exactly equal to target and returns how
// many were removed.
func (e *Editor) DeleteLine(path, target string) (int, error) {
	return e.rewrite(path, func(lines []string) ([]string, int) {
		out := make([]string, 0, len(lines))
		removed := 0
		for _, l := range lines {
			if text(l) == target {
				removed++
				continue
			}
			out = append(out, l)
		}
		return out, removed
	})
}

// RemovePropertyValue drops the first "  - value" line inside the block
// of the first "property:" line. Later blocks and later repeats are left
// alone.
func (e *Editor) RemovePropertyValue(path, property, value string) (bool, error) {
	keyLine := property + ":"
	valueLine := "  - " + value
	n, err := e.rewrite(path, func(lines []string) ([]string, int) {
		out := make([]string, 0, len(lines))
		armed, seen, removed := false, false, 0
		for _, l := range lines {
			t := text(l)
			switch {
			case armed && t == valueLine:
				armed = false
				removed++
				continue
			case !seen && t == keyLine:
				armed, seen = true, true
			case armed && strings.TrimSpace(t) != "" && !strings.HasPrefix(t, "  -"):
				armed = false
			}
			out = append(out, l)
		}
		return out, removed
	})
	return n > 0, err
}

// InsertAfter emits line after every line equal to marker, or only after
// the first one when onlyOnce is set. It returns the number of insertions.
func (e *Editor) InsertAfter(path, marker, line string, onlyOnce bool) (int, error) {
	return e.rewrite(path, func(lines []string) ([]string, int) {
		out := make([]string, 0, len(lines)+1)
		inserted := 0
		for _, l := range lines {
			if text(l) != marker || (onlyOnce && inserted > 0) {
				out = append(out, l)
				continue
			}
			if !strings.HasSuffix(l, "\n") {
				l += "\n"
			}
			out = append(out, l, line+"\n")
			inserted++
		}
		return out, inserted
	})
}
