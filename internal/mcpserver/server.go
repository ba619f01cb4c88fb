// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes read-only vaultsort tools for LLM integration via stdio
// transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/vaultsort/internal/header"
	"github.com/starford/vaultsort/internal/models"
	"github.com/starford/vaultsort/internal/mover"
	"github.com/starford/vaultsort/internal/route"
	"github.com/starford/vaultsort/internal/storage"
)

// Server wraps the MCP server with vaultsort tools.
type Server struct {
	mcp   *server.MCPServer
	store storage.Provider
	notes route.NoteRouter
	files route.FileRouter
	opts  mover.Options
}

// New creates a new MCP server with all tools registered. opts are the
// mover options used for planning; DryRun is forced on.
func New(store storage.Provider, notes route.NoteRouter, files route.FileRouter, opts mover.Options) *Server {
	opts.DryRun = true
	s := &Server{store: store, notes: notes, files: files, opts: opts}

	s.mcp = server.NewMCPServer(
		"vaultsort",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("parse_header",
		mcp.WithDescription("Parse the metadata header of a note and return its properties in order. "+
			"See the vaultsort://header-format resource for the accepted format."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Relative path to the note (e.g. 1_to_organize/note.md)")),
	), s.parseHeader)

	s.mcp.AddTool(mcp.NewTool("plan_moves",
		mcp.WithDescription("Compute where every pending note and attachment would be moved, without moving anything."),
	), s.planMoves)

	s.mcp.AddTool(mcp.NewTool("get_routing_rules",
		mcp.WithDescription("Return the note type and file extension routing tables currently in effect."),
	), s.getRoutingRules)

	s.mcp.AddTool(mcp.NewTool("list_pending",
		mcp.WithDescription("List the files waiting in the notes and attachments source folders."),
	), s.listPending)

	s.mcp.AddResource(
		mcp.NewResource(HeaderFormatURI, "Header Format Contract",
			mcp.WithResourceDescription("Metadata header format that vaultsort reads and routes on."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readHeaderFormatResource,
	)

	return s
}

// Serve runs the server on in/out until ctx is cancelled or in is closed.
func (s *Server) Serve(ctx context.Context, in io.Reader, out io.Writer) error {
	err := server.NewStdioServer(s.mcp).Listen(ctx, in, out)
	if err != nil && (errors.Is(err, context.Canceled) || errors.Is(err, io.EOF)) {
		return nil
	}
	return err
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) parseHeader(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	data, err := s.store.Read(path)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", path)), nil
	}
	h, err := header.ParseFile(data, s.opts.ReadLineLimit)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(h.Properties())
}

type plan struct {
	Moved    int              `json:"moved"`
	NotMoved int              `json:"not_moved"`
	Notes    []models.Outcome `json:"notes"`
	Files    []models.Outcome `json:"files"`
}

func (s *Server) planMoves(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	rep, err := mover.New(s.store, s.notes, s.files, s.opts).Execute(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	p := plan{
		Moved:    rep.Moved(),
		NotMoved: rep.NotMoved(),
		Notes:    rep.Notes.Outcomes,
		Files:    rep.Files.Outcomes,
	}
	if p.Notes == nil {
		p.Notes = []models.Outcome{}
	}
	if p.Files == nil {
		p.Files = []models.Outcome{}
	}
	return jsonResult(p)
}

func (s *Server) getRoutingRules(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(map[string]any{
		"note_types":      s.notes.Rules,
		"file_types":      s.files.Rules,
		"type_property":   s.notes.Options.TypeProperty,
		"ignore_tag":      s.notes.Options.IgnoreTag,
		"quarantine_dir":  s.notes.Options.QuarantineDir,
		"scopes":          s.notes.Options.Scopes,
		"file_ignore_val": s.files.IgnoreValue,
	})
}

func (s *Server) listPending(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	out := map[string][]string{}
	for _, dir := range []string{s.opts.NotesDir, s.opts.AttachmentsDir} {
		entries, err := s.store.List(dir)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		paths := []string{}
		for _, e := range entries {
			paths = append(paths, e.Path)
		}
		out[dir] = paths
	}
	return jsonResult(out)
}

func (s *Server) readHeaderFormatResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      HeaderFormatURI,
			MIMEType: "text/markdown",
			Text:     HeaderFormatContract,
		},
	}, nil
}
