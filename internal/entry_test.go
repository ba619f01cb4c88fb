package internal

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/fatih/color"

	"github.com/starford/vaultsort/internal/apperr"
	"github.com/starford/vaultsort/internal/bulkedit"
	"github.com/starford/vaultsort/internal/console"
	"github.com/starford/vaultsort/internal/testutil"
)

func init() {
	color.NoColor = true
}

func testConfig(t *testing.T) (*Config, string) {
	t.Helper()
	root, _ := testutil.TestVault(t)
	cfg := NewDefaultConfig()
	cfg.Vault.Path = root
	testutil.Mkdir(t, root, "1_to_organize", "tasks", "zb_gitignored", "za_vault_assets/pdfs")
	testutil.WriteFile(t, root, cfg.Notes.RulesFile, `{"task": "tasks"}`)
	testutil.WriteFile(t, root, cfg.Attachments.RulesFile, `{".pdf": "pdfs", ".md": "ignore_file"}`)
	return cfg, root
}

func testOptions(cfg *Config, in string, out *bytes.Buffer) []Option {
	return []Option{
		WithConfig(cfg),
		WithConsole(console.New(strings.NewReader(in), out)),
		WithLogOutput(io.Discard),
	}
}

func TestRun_ConfigRequired(t *testing.T) {
	if err := RunMove(context.Background(), false); err == nil {
		t.Fatal("expected error without config")
	}
}

func TestRunMove(t *testing.T) {
	cfg, root := testConfig(t)
	testutil.WriteFile(t, root, "1_to_organize/a.md", testutil.Note("", "note_type:", "  - task"))
	testutil.WriteFile(t, root, "1_to_organize/b.md", testutil.Note("", "note_type:", "  - other"))
	testutil.WriteFile(t, root, "za_vault_assets/doc.pdf", "%PDF")

	var out bytes.Buffer
	if err := RunMove(context.Background(), false, testOptions(cfg, "", &out)...); err != nil {
		t.Fatalf("RunMove: %v", err)
	}
	if !testutil.Exists(t, root, "tasks/a.md") || !testutil.Exists(t, root, "za_vault_assets/pdfs/doc.pdf") {
		t.Error("files not moved")
	}
	s := out.String()
	if !strings.Contains(s, "moved 2, not moved 1") || !strings.Contains(s, "follow-up task: 0_inbox/") {
		t.Errorf("output:\n%s", s)
	}
}

func TestRunMove_DryRun(t *testing.T) {
	cfg, root := testConfig(t)
	testutil.WriteFile(t, root, "1_to_organize/a.md", testutil.Note("", "note_type:", "  - task"))

	var out bytes.Buffer
	if err := RunMove(context.Background(), true, testOptions(cfg, "", &out)...); err != nil {
		t.Fatalf("RunMove: %v", err)
	}
	if !testutil.Exists(t, root, "1_to_organize/a.md") {
		t.Error("dry run moved a file")
	}
	if !strings.Contains(out.String(), "would move 1") {
		t.Errorf("output:\n%s", out.String())
	}
}

func TestRunMove_MissingRulesAborts(t *testing.T) {
	cfg, root := testConfig(t)
	cfg.Notes.RulesFile = "nope.md"
	testutil.WriteFile(t, root, "1_to_organize/a.md", testutil.Note("", "note_type:", "  - task"))

	err := RunMove(context.Background(), false, testOptions(cfg, "", &bytes.Buffer{})...)
	if !errors.Is(err, apperr.ErrConfig) {
		t.Fatalf("err = %v, want ErrConfig", err)
	}
	if !testutil.Exists(t, root, "1_to_organize/a.md") {
		t.Error("file touched despite config error")
	}
}

func TestRunEdit_ReplacePrompts(t *testing.T) {
	cfg, root := testConfig(t)
	testutil.WriteFile(t, root, "notes/a.md", "old\n")

	// Buffers are not terminals, so the prompt declines.
	var out bytes.Buffer
	req := EditRequest{Dir: "notes", Operation: bulkedit.Replace{Old: "old", New: "new"}}
	if err := RunEdit(context.Background(), req, testOptions(cfg, "y\n", &out)...); err != nil {
		t.Fatalf("RunEdit: %v", err)
	}
	if testutil.ReadFile(t, root, "notes/a.md") != "old\n" {
		t.Error("non-interactive replace applied")
	}

	req.AutoAccept = true
	if err := RunEdit(context.Background(), req, testOptions(cfg, "", &out)...); err != nil {
		t.Fatalf("RunEdit: %v", err)
	}
	if testutil.ReadFile(t, root, "notes/a.md") != "new\n" {
		t.Error("auto-accepted replace not applied")
	}
	if !strings.Contains(out.String(), "replace: edited 1") {
		t.Errorf("output:\n%s", out.String())
	}
}

func TestRunEdit_DeleteLineWithFilter(t *testing.T) {
	cfg, root := testConfig(t)
	testutil.WriteFile(t, root, "notes/a.md", testutil.Note("drop\n", "note_type:", "  - task"))
	testutil.WriteFile(t, root, "notes/b.md", testutil.Note("drop\n", "note_type:", "  - other"))

	req := EditRequest{
		Dir:       "notes",
		Filter:    bulkedit.Filter{Property: "note_type", Value: "task"},
		Operation: bulkedit.DeleteLine{Line: "drop"},
	}
	if err := RunEdit(context.Background(), req, testOptions(cfg, "", &bytes.Buffer{})...); err != nil {
		t.Fatalf("RunEdit: %v", err)
	}
	if strings.Contains(testutil.ReadFile(t, root, "notes/a.md"), "drop") {
		t.Error("matching note not edited")
	}
	if !strings.Contains(testutil.ReadFile(t, root, "notes/b.md"), "drop") {
		t.Error("filtered note edited")
	}
}
