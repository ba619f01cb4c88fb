package lineedit

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/starford/vaultsort/internal/apperr"
	"github.com/starford/vaultsort/internal/testutil"
)

func setup(t *testing.T, content string) (string, *Editor) {
	t.Helper()
	root, store := testutil.TestVault(t)
	testutil.WriteFile(t, root, "n.md", content)
	return root, New(store)
}

func TestDeleteLine(t *testing.T) {
	root, e := setup(t, "---\ntags:\n  - a\n---\nkeep\nremove me\nkeep\nremove me")
	n, err := e.DeleteLine("n.md", "remove me")
	if err != nil {
		t.Fatalf("DeleteLine: %v", err)
	}
	if n != 2 {
		t.Errorf("removed = %d, want 2", n)
	}
	if got := testutil.ReadFile(t, root, "n.md"); got != "---\ntags:\n  - a\n---\nkeep\nkeep\n" {
		t.Errorf("content = %q", got)
	}
}

func TestDeleteLine_NoMatchLeavesFile(t *testing.T) {
	root, e := setup(t, "a\nb")
	before, _ := os.Stat(filepath.Join(root, "n.md"))
	n, err := e.DeleteLine("n.md", "remove")
	if err != nil || n != 0 {
		t.Fatalf("DeleteLine = %d, %v", n, err)
	}
	after, _ := os.Stat(filepath.Join(root, "n.md"))
	if !after.ModTime().Equal(before.ModTime()) {
		t.Error("file rewritten although nothing matched")
	}
	if got := testutil.ReadFile(t, root, "n.md"); got != "a\nb" {
		t.Errorf("content = %q", got)
	}
}

func TestDeleteLine_ExactMatchOnly(t *testing.T) {
	root, e := setup(t, "remove me\r\nremove me \nremove me\n")
	n, err := e.DeleteLine("n.md", "remove me")
	if err != nil || n != 1 {
		t.Fatalf("DeleteLine = %d, %v", n, err)
	}
	if got := testutil.ReadFile(t, root, "n.md"); got != "remove me\r\nremove me \n" {
		t.Errorf("content = %q", got)
	}
}

func TestRemovePropertyValue_CRLFNotMatched(t *testing.T) {
	root, e := setup(t, "tags:\r\n  - a\r\n")
	ok, err := e.RemovePropertyValue("n.md", "tags", "a")
	if err != nil || ok {
		t.Fatalf("RemovePropertyValue = %v, %v", ok, err)
	}
	if got := testutil.ReadFile(t, root, "n.md"); got != "tags:\r\n  - a\r\n" {
		t.Errorf("content = %q", got)
	}
}

func TestRemovePropertyValue(t *testing.T) {
	root, e := setup(t, "tags:\n  - a\n  - b\nother:\n  - c\n")
	ok, err := e.RemovePropertyValue("n.md", "tags", "a")
	if err != nil || !ok {
		t.Fatalf("RemovePropertyValue = %v, %v", ok, err)
	}
	if got := testutil.ReadFile(t, root, "n.md"); got != "tags:\n  - b\nother:\n  - c\n" {
		t.Errorf("content = %q", got)
	}
}

func TestRemovePropertyValue_FirstOccurrenceOnly(t *testing.T) {
	root, e := setup(t, "tags:\n  - a\n  - a\nother:\ntags:\n  - a\n")
	if _, err := e.RemovePropertyValue("n.md", "tags", "a"); err != nil {
		t.Fatal(err)
	}
	if got := testutil.ReadFile(t, root, "n.md"); got != "tags:\n  - a\nother:\ntags:\n  - a\n" {
		t.Errorf("content = %q", got)
	}
}

func TestRemovePropertyValue_LaterBlockUntouched(t *testing.T) {
	content := "tags:\n  - x\nother:\n  - a\ntags:\n  - a\n"
	root, e := setup(t, content)
	ok, err := e.RemovePropertyValue("n.md", "tags", "a")
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Error("nothing should be removed")
	}
	if got := testutil.ReadFile(t, root, "n.md"); got != content {
		t.Errorf("content = %q", got)
	}
}

func TestInsertAfter(t *testing.T) {
	root, e := setup(t, "tags:\n  - a\ntags:\n")
	n, err := e.InsertAfter("n.md", "tags:", "  - new", true)
	if err != nil || n != 1 {
		t.Fatalf("InsertAfter = %d, %v", n, err)
	}
	if got := testutil.ReadFile(t, root, "n.md"); got != "tags:\n  - new\n  - a\ntags:\n" {
		t.Errorf("content = %q", got)
	}
}

func TestInsertAfter_Every(t *testing.T) {
	root, e := setup(t, "m\nx\nm")
	n, err := e.InsertAfter("n.md", "m", "y", false)
	if err != nil || n != 2 {
		t.Fatalf("InsertAfter = %d, %v", n, err)
	}
	if got := testutil.ReadFile(t, root, "n.md"); got != "m\ny\nx\nm\ny\n" {
		t.Errorf("content = %q", got)
	}
}

func TestReplace_EmptyDiffLeavesOriginal(t *testing.T) {
	content := "---\ntags:\n  - a\n---\nbody\n"
	root, e := setup(t, content)
	called := false
	d := DeciderFunc(func(context.Context, string, string) (bool, error) {
		called = true
		return true, nil
	})
	res, err := e.Replace(context.Background(), "n.md", "absent", "x", d)
	if err != nil {
		t.Fatalf("Replace: %v", err)
	}
	if res.Status != ReplaceUnchanged || res.Diff != "" {
		t.Errorf("result = %+v", res)
	}
	if called {
		t.Error("decider should not be consulted for an empty diff")
	}
	if got := testutil.ReadFile(t, root, "n.md"); got != content {
		t.Errorf("content = %q", got)
	}
	if testutil.Exists(t, root, ShadowPath("n.md")) {
		t.Error("shadow left behind")
	}
}

func TestReplace_Accepted(t *testing.T) {
	root, e := setup(t, "tags:\n  - Confi\nbody Confi\n")
	var seenDiff string
	d := DeciderFunc(func(_ context.Context, file, diff string) (bool, error) {
		if file != "n.md" {
			t.Errorf("file = %q", file)
		}
		seenDiff = diff
		return true, nil
	})
	res, err := e.Replace(context.Background(), "n.md", "Confi", "Config", d)
	if err != nil {
		t.Fatalf("Replace: %v", err)
	}
	if res.Status != ReplaceAccepted {
		t.Errorf("status = %s", res.Status)
	}
	if !strings.Contains(seenDiff, "-  - Confi\n") || !strings.Contains(seenDiff, "+  - Config\n") {
		t.Errorf("diff = %q", seenDiff)
	}
	if got := testutil.ReadFile(t, root, "n.md"); got != "tags:\n  - Config\nbody Config\n" {
		t.Errorf("content = %q", got)
	}
	if testutil.Exists(t, root, ShadowPath("n.md")) {
		t.Error("shadow left behind")
	}
}

func TestReplace_Rejected(t *testing.T) {
	content := "hello world\n"
	root, e := setup(t, content)
	res, err := e.Replace(context.Background(), "n.md", "world", "there", RejectAll)
	if err != nil {
		t.Fatalf("Replace: %v", err)
	}
	if res.Status != ReplaceRejected || res.Diff == "" {
		t.Errorf("result = %+v", res)
	}
	if got := testutil.ReadFile(t, root, "n.md"); got != content {
		t.Errorf("content = %q", got)
	}
	if testutil.Exists(t, root, ShadowPath("n.md")) {
		t.Error("shadow left behind")
	}
}

func TestReplace_OriginalUntouchedWhileDeciding(t *testing.T) {
	content := "a b a\n"
	root, e := setup(t, content)
	d := DeciderFunc(func(context.Context, string, string) (bool, error) {
		if got := testutil.ReadFile(t, root, "n.md"); got != content {
			t.Errorf("original mutated before decision: %q", got)
		}
		if !testutil.Exists(t, root, ShadowPath("n.md")) {
			t.Error("shadow should exist while deciding")
		}
		return false, nil
	})
	if _, err := e.Replace(context.Background(), "n.md", "a", "z", d); err != nil {
		t.Fatal(err)
	}
}

func TestStagedCommit_Conflict(t *testing.T) {
	root, e := setup(t, "one\n")
	s, err := e.Stage("n.md", "one", "two")
	if err != nil {
		t.Fatalf("Stage: %v", err)
	}
	testutil.WriteFile(t, root, "n.md", "edited elsewhere\n")
	if err := s.Commit(); !errors.Is(err, apperr.ErrConflict) {
		t.Fatalf("Commit err = %v, want ErrConflict", err)
	}
	if got := testutil.ReadFile(t, root, "n.md"); got != "edited elsewhere\n" {
		t.Errorf("content = %q", got)
	}
	if testutil.Exists(t, root, ShadowPath("n.md")) {
		t.Error("shadow left behind")
	}
}

func TestReplace_DeciderError(t *testing.T) {
	root, e := setup(t, "x\n")
	boom := errors.New("prompt closed")
	d := DeciderFunc(func(context.Context, string, string) (bool, error) { return false, boom })
	if _, err := e.Replace(context.Background(), "n.md", "x", "y", d); !errors.Is(err, boom) {
		t.Fatalf("err = %v", err)
	}
	if got := testutil.ReadFile(t, root, "n.md"); got != "x\n" {
		t.Errorf("content = %q", got)
	}
}

func TestStage_EmptySearch(t *testing.T) {
	_, e := setup(t, "x\n")
	if _, err := e.Stage("n.md", "", "y"); err == nil {
		t.Error("expected error for empty search text")
	}
}

func TestShadowPath(t *testing.T) {
	if got := ShadowPath("notes/a.md"); got != "notes/.a.md.vaultsort-shadow" {
		t.Errorf("ShadowPath = %q", got)
	}
}
