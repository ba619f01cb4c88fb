// Package report accumulates per-file outcomes of a batch and renders the
// follow-up task note and the execution log.
package report

import (
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/gosimple/slug"

	"github.com/starford/vaultsort/internal/header"
	"github.com/starford/vaultsort/internal/models"
	"github.com/starford/vaultsort/internal/storage"
)

// Timestamp layouts used in file names and log lines.
const (
	StampLayout = "20060102_1504"
	DateLayout  = "2006-01-02"
	EntryLayout = "2006-01-02 15:04"
)

// Section holds the outcomes of one category of files.
type Section struct {
	Name     string
	Moved    int
	NotMoved []string
	Outcomes []models.Outcome
}

// Record adds one outcome. Ignored files are not recorded at all.
func (s *Section) Record(o models.Outcome) {
	switch o.Status {
	case models.StatusIgnored:
		return
	case models.StatusMoved:
		s.Moved++
	default:
		s.NotMoved = append(s.NotMoved, o.Describe())
	}
	s.Outcomes = append(s.Outcomes, o)
}

// Report is the result of one batch: notes first, then attachment files.
type Report struct {
	Notes *Section
	Files *Section
}

// New returns an empty report.
func New() *Report {
	return &Report{
		Notes: &Section{Name: "notes"},
		Files: &Section{Name: "files"},
	}
}

// NotMoved returns the total count of entries that need manual triage.
func (r *Report) NotMoved() int {
	return len(r.Notes.NotMoved) + len(r.Files.NotMoved)
}

// Moved returns the total count of moved files.
func (r *Report) Moved() int {
	return r.Notes.Moved + r.Files.Moved
}

// Outcomes returns every recorded outcome, notes first.
func (r *Report) Outcomes() []models.Outcome {
	out := append([]models.Outcome{}, r.Notes.Outcomes...)
	return append(out, r.Files.Outcomes...)
}

func taskHeader(date time.Time) *header.Header {
	h := header.New()
	h.SetInline("date", date.Format(DateLayout))
	h.SetInline("status", "false")
	h.Set("projects", `"[[This vault]]"`)
	h.Set("topics")
	h.Set("meetings")
	h.Set("tasks")
	h.Set("scope", "personal")
	h.Set("tags", `"#generated_by_script"`)
	h.Set("aliases")
	h.Set("note_type", "task")
	h.Set("cssclasses", "task")
	return h
}

// TaskNote renders the follow-up task listing every not-moved entry. ok is
// false when everything was moved and no note is needed.
func (r *Report) TaskNote(date time.Time) (content []byte, ok bool) {
	if r.NotMoved() == 0 {
		return nil, false
	}
	var b strings.Builder
	b.WriteString(taskHeader(date).Block())
	for _, s := range []struct {
		title string
		items []string
	}{
		{"Notes not moved", r.Notes.NotMoved},
		{"Files not moved", r.Files.NotMoved},
	} {
		if len(s.items) == 0 {
			continue
		}
		fmt.Fprintf(&b, "\n### %s:\n", s.title)
		for _, item := range s.items {
			b.WriteString("- [ ] " + item + "\n")
		}
	}
	return []byte(b.String()), true
}

// WriteTaskNote writes the follow-up task into dir and returns its path.
// Nothing is written when every file was moved.
func (r *Report) WriteTaskNote(store storage.Provider, dir, title string, now time.Time) (string, error) {
	content, ok := r.TaskNote(now)
	if !ok {
		return "", nil
	}
	p, err := uniquePath(store, dir, now.Format(StampLayout)+"-"+slug.Make(title), ".md")
	if err != nil {
		return "", err
	}
	if err := store.Write(p, content); err != nil {
		return "", fmt.Errorf("report: write task note: %w", err)
	}
	return p, nil
}

// uniquePath returns dir/stem+ext, or dir/stem_N+ext when that is taken.
func uniquePath(store storage.Provider, dir, stem, ext string) (string, error) {
	p := path.Join(dir, stem+ext)
	for n := 2; ; n++ {
		exists, err := store.Exists(p)
		if err != nil {
			return "", err
		}
		if !exists {
			return p, nil
		}
		p = path.Join(dir, fmt.Sprintf("%s_%d%s", stem, n, ext))
	}
}

// Finalize writes the end-of-batch summary to l and, when anything was
// left behind, the follow-up task note into inboxDir. It returns the task
// note path, empty when none was written.
func (r *Report) Finalize(l *Log, store storage.Provider, inboxDir, title string, now time.Time) (string, error) {
	if r.NotMoved() == 0 {
		l.Entry("All notes and files moved successfully")
		return "", nil
	}
	l.Entry("Creating task to check notes and files that were not moved")
	taskPath, err := r.WriteTaskNote(store, inboxDir, title, now)
	if err != nil {
		l.Entry("Could not create task note: %v", err)
		return "", err
	}
	for _, s := range []*Section{r.Notes, r.Files} {
		if len(s.NotMoved) == 0 {
			continue
		}
		l.Entry("List of %s not moved", s.Name)
		l.Text(s.NotMoved...)
		l.Text("")
	}
	l.Entry("Task created at '%s'", taskPath)
	return taskPath, nil
}
