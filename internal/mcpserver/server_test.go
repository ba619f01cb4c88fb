package mcpserver

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/vaultsort/internal/header"
	"github.com/starford/vaultsort/internal/mover"
	"github.com/starford/vaultsort/internal/route"
	"github.com/starford/vaultsort/internal/testutil"
)

func testServer(t *testing.T) (*Server, string) {
	t.Helper()
	root, store := testutil.TestVault(t)
	testutil.Mkdir(t, root, "inbox", "assets", "tasks", "logs")

	notes := route.NoteRouter{
		Rules:   route.Rules{"task": "tasks"},
		Options: route.NoteOptions{TypeProperty: "note_type", TagsProperty: "tags", IgnoreTag: "#gitignored", QuarantineDir: "q"},
	}
	files := route.FileRouter{Rules: route.Rules{".pdf": "pdfs"}, IgnoreValue: "ignore_file"}
	srv := New(store, notes, files, mover.Options{
		NotesDir:       "inbox",
		AttachmentsDir: "assets",
		LogDir:         "logs",
		InboxDir:       "inbox",
		Now:            func() time.Time { return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC) },
	})
	return srv, root
}

func callTool(t *testing.T, srv *Server, name string, args map[string]interface{}) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	var result *mcp.CallToolResult
	var err error

	switch name {
	case "parse_header":
		result, err = srv.parseHeader(ctx, req)
	case "plan_moves":
		result, err = srv.planMoves(ctx, req)
	case "get_routing_rules":
		result, err = srv.getRoutingRules(ctx, req)
	case "list_pending":
		result, err = srv.listPending(ctx, req)
	default:
		t.Fatalf("unknown tool: %s", name)
	}

	if err != nil {
		t.Fatalf("tool %s error: %v", name, err)
	}
	return result
}

func resultText(r *mcp.CallToolResult) string {
	if len(r.Content) > 0 {
		if tc, ok := r.Content[0].(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func TestParseHeader(t *testing.T) {
	srv, root := testServer(t)
	testutil.WriteFile(t, root, "inbox/a.md", testutil.Note("body", "note_type:", "  - task", "date: 2024-01-01"))

	r := callTool(t, srv, "parse_header", map[string]interface{}{"path": "inbox/a.md"})
	if r.IsError {
		t.Fatalf("unexpected error: %s", resultText(r))
	}
	var props []header.Property
	if err := json.Unmarshal([]byte(resultText(r)), &props); err != nil {
		t.Fatalf("bad JSON: %v", err)
	}
	if len(props) != 2 || props[0].Key != "note_type" || props[0].Values[0] != "task" || !props[1].Inline {
		t.Errorf("props = %+v", props)
	}
}

func TestParseHeader_Errors(t *testing.T) {
	srv, root := testServer(t)
	testutil.WriteFile(t, root, "inbox/plain.md", "no header")

	if r := callTool(t, srv, "parse_header", map[string]interface{}{"path": "inbox/plain.md"}); !r.IsError {
		t.Error("expected error for note without header")
	}
	if r := callTool(t, srv, "parse_header", map[string]interface{}{"path": "inbox/missing.md"}); !r.IsError {
		t.Error("expected error for missing note")
	}
	if r := callTool(t, srv, "parse_header", map[string]interface{}{}); !r.IsError {
		t.Error("expected error for missing path")
	}
}

func TestPlanMoves_DoesNotMove(t *testing.T) {
	srv, root := testServer(t)
	testutil.WriteFile(t, root, "inbox/a.md", testutil.Note("", "note_type:", "  - task"))
	testutil.WriteFile(t, root, "inbox/b.md", testutil.Note("", "note_type:", "  - other"))

	r := callTool(t, srv, "plan_moves", nil)
	if r.IsError {
		t.Fatalf("unexpected error: %s", resultText(r))
	}
	var p plan
	if err := json.Unmarshal([]byte(resultText(r)), &p); err != nil {
		t.Fatalf("bad JSON: %v", err)
	}
	if p.Moved != 1 || p.NotMoved != 1 || len(p.Notes) != 2 {
		t.Errorf("plan = %+v", p)
	}
	if !testutil.Exists(t, root, "inbox/a.md") {
		t.Error("plan_moves moved a file")
	}
	if testutil.Exists(t, root, "logs/20240101_0000_vaultsort_mover.md") {
		t.Error("plan_moves wrote a log")
	}
}

func TestGetRoutingRules(t *testing.T) {
	srv, _ := testServer(t)
	text := resultText(callTool(t, srv, "get_routing_rules", nil))
	for _, want := range []string{`"task": "tasks"`, `".pdf": "pdfs"`, `"#gitignored"`} {
		if !strings.Contains(text, want) {
			t.Errorf("rules missing %s:\n%s", want, text)
		}
	}
}

func TestListPending(t *testing.T) {
	srv, root := testServer(t)
	testutil.WriteFile(t, root, "inbox/a.md", "x")
	testutil.WriteFile(t, root, "assets/b.pdf", "x")

	var out map[string][]string
	if err := json.Unmarshal([]byte(resultText(callTool(t, srv, "list_pending", nil))), &out); err != nil {
		t.Fatalf("bad JSON: %v", err)
	}
	if len(out["inbox"]) != 1 || out["assets"][0] != "assets/b.pdf" {
		t.Errorf("pending = %v", out)
	}
}

func TestHeaderFormatResource(t *testing.T) {
	srv, _ := testServer(t)
	contents, err := srv.readHeaderFormatResource(context.Background(), mcp.ReadResourceRequest{})
	if err != nil {
		t.Fatal(err)
	}
	tc, ok := contents[0].(mcp.TextResourceContents)
	if !ok || tc.URI != HeaderFormatURI || !strings.Contains(tc.Text, "UndefinedKeyForValue") {
		t.Errorf("resource = %+v", contents)
	}
}

func TestServe_StopsOnClosedInput(t *testing.T) {
	srv, _ := testServer(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var out strings.Builder
	if err := srv.Serve(ctx, strings.NewReader(""), &out); err != nil {
		t.Errorf("Serve: %v", err)
	}
}
