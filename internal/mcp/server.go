package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Aman-CERP/spor/internal/ui"
	"github.com/Aman-CERP/spor/internal/workspace"
	"github.com/Aman-CERP/spor/pkg/version"
)

// ServerName is reported to clients during initialization.
const ServerName = "spor"

// Server is the MCP server for one spor repository.
type Server struct {
	mcp    *mcp.Server
	ws     *workspace.Workspace
	logger *slog.Logger

	// writes serializes tools that modify the repository.
	writes sync.Mutex
}

// ToolInfo contains information about a registered tool.
type ToolInfo struct {
	Name        string
	Description string
}

var tools = []ToolInfo{
	{
		Name:        "list_anchors",
		Description: "List the anchors stored in the spor repository, optionally only those in one file. Each anchor marks a span of text that spor keeps track of as the file is edited.",
	},
	{
		Name:        "get_anchor",
		Description: "Get one anchor by id or unique id prefix, including its topic, surrounding context and metadata.",
	},
	{
		Name:        "add_anchor",
		Description: "Anchor metadata to a span of a file. The span is given as a character offset and width; spor stores the text around it so the anchor can follow the span through later edits.",
	},
	{
		Name:        "update_anchors",
		Description: "Relocate every anchor against the current contents of its file and save the new locations. Anchors whose text can no longer be found are reported and left unchanged.",
	},
	{
		Name:        "anchor_status",
		Description: "Report which anchors are out of date, meaning their file no longer holds the stored text at the stored offset.",
	},
}

// NewServer creates an MCP server for ws.
func NewServer(ws *workspace.Workspace) (*Server, error) {
	if ws == nil {
		return nil, fmt.Errorf("workspace is required")
	}

	s := &Server{
		ws:     ws,
		logger: slog.Default(),
	}
	s.mcp = mcp.NewServer(&mcp.Implementation{
		Name:    ServerName,
		Version: version.Version,
	}, nil)

	s.registerTools()
	return s, nil
}

// MCPServer returns the underlying MCP server instance.
func (s *Server) MCPServer() *mcp.Server {
	return s.mcp
}

// ListTools returns all registered tools.
func (s *Server) ListTools() []ToolInfo {
	out := make([]ToolInfo, len(tools))
	copy(out, tools)
	return out
}

func (s *Server) registerTools() {
	desc := func(name string) string {
		for _, t := range tools {
			if t.Name == name {
				return t.Description
			}
		}
		return ""
	}

	mcp.AddTool(s.mcp, &mcp.Tool{Name: "list_anchors", Description: desc("list_anchors")}, adapt(s.listAnchors))
	mcp.AddTool(s.mcp, &mcp.Tool{Name: "get_anchor", Description: desc("get_anchor")}, adapt(s.getAnchor))
	mcp.AddTool(s.mcp, &mcp.Tool{Name: "add_anchor", Description: desc("add_anchor")}, adapt(s.addAnchor))
	mcp.AddTool(s.mcp, &mcp.Tool{Name: "update_anchors", Description: desc("update_anchors")}, adapt(s.updateAnchors))
	mcp.AddTool(s.mcp, &mcp.Tool{Name: "anchor_status", Description: desc("anchor_status")}, adapt(s.anchorStatus))

	s.logger.Debug("MCP tools registered", slog.Int("count", len(tools)))
}

// adapt turns a plain handler into an SDK tool handler with mapped errors.
func adapt[In, Out any](h func(context.Context, In) (Out, error)) mcp.ToolHandlerFor[In, Out] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, in In) (*mcp.CallToolResult, Out, error) {
		out, err := h(ctx, in)
		if err != nil {
			var zero Out
			return nil, zero, MapError(err)
		}
		return nil, out, nil
	}
}

// CallTool invokes a tool by name with JSON-style arguments.
func (s *Server) CallTool(ctx context.Context, name string, args map[string]any) (any, error) {
	switch name {
	case "list_anchors":
		return call(ctx, args, s.listAnchors)
	case "get_anchor":
		return call(ctx, args, s.getAnchor)
	case "add_anchor":
		return call(ctx, args, s.addAnchor)
	case "update_anchors":
		return call(ctx, args, s.updateAnchors)
	case "anchor_status":
		return call(ctx, args, s.anchorStatus)
	default:
		return nil, NewMethodNotFoundError(name)
	}
}

func call[In, Out any](ctx context.Context, args map[string]any, h func(context.Context, In) (Out, error)) (any, error) {
	var in In
	if len(args) > 0 {
		data, err := json.Marshal(args)
		if err != nil {
			return nil, NewInvalidParamsError(err.Error())
		}
		if err := json.Unmarshal(data, &in); err != nil {
			return nil, NewInvalidParamsError(fmt.Sprintf("invalid arguments: %v", err))
		}
	}
	out, err := h(ctx, in)
	if err != nil {
		return nil, MapError(err)
	}
	return out, nil
}

func (s *Server) listAnchors(_ context.Context, in ListAnchorsInput) (ListAnchorsOutput, error) {
	items, err := s.ws.Items()
	if err != nil {
		return ListAnchorsOutput{}, err
	}

	filter := ""
	if in.File != "" {
		filter = s.resolve(in.File)
	}

	out := ListAnchorsOutput{Anchors: make([]AnchorOutput, 0, len(items))}
	for _, it := range items {
		if filter != "" && it.Anchor.FilePath() != filter {
			continue
		}
		out.Anchors = append(out.Anchors, toAnchorOutput(ui.NewAnchorView(it.ID, it.Anchor, s.ws.Root())))
	}
	return out, nil
}

func (s *Server) getAnchor(_ context.Context, in GetAnchorInput) (AnchorOutput, error) {
	if in.ID == "" {
		return AnchorOutput{}, NewInvalidParamsError("id parameter is required")
	}
	item, err := s.ws.Find(in.ID)
	if err != nil {
		return AnchorOutput{}, err
	}
	return toAnchorOutput(ui.NewAnchorView(item.ID, item.Anchor, s.ws.Root())), nil
}

func (s *Server) addAnchor(ctx context.Context, in AddAnchorInput) (AddAnchorOutput, error) {
	if in.File == "" {
		return AddAnchorOutput{}, NewInvalidParamsError("file parameter is required")
	}
	if in.Offset < 0 || in.Width < 0 {
		return AddAnchorOutput{}, NewInvalidParamsError("offset and width must not be negative")
	}
	if in.ContextWidth != nil && *in.ContextWidth < 0 {
		return AddAnchorOutput{}, NewInvalidParamsError("context_width must not be negative")
	}

	s.writes.Lock()
	defer s.writes.Unlock()

	item, err := s.ws.Add(ctx, s.resolve(in.File), in.Offset, in.Width, workspace.AnchorOptions{
		ContextWidth: in.ContextWidth,
		Encoding:     in.Encoding,
		Metadata:     in.Metadata,
	})
	if err != nil {
		return AddAnchorOutput{}, err
	}
	return AddAnchorOutput{Anchor: toAnchorOutput(ui.NewAnchorView(item.ID, item.Anchor, s.ws.Root()))}, nil
}

func (s *Server) updateAnchors(ctx context.Context, in UpdateAnchorsInput) (UpdateAnchorsOutput, error) {
	s.writes.Lock()
	defer s.writes.Unlock()

	results, err := s.ws.Update(ctx, in.DryRun)
	if err != nil {
		return UpdateAnchorsOutput{}, err
	}

	out := UpdateAnchorsOutput{Results: make([]UpdateResultOutput, 0, len(results))}
	for _, r := range results {
		res := UpdateResultOutput{
			ID:        r.ID,
			Path:      ui.DisplayPath(r.Path, s.ws.Root()),
			OldOffset: r.OldOffset,
			NewOffset: r.NewOffset,
		}
		switch {
		case r.Err != nil:
			res.Error = r.Err.Error()
			out.Failed++
		case r.NewOffset != r.OldOffset:
			out.Moved++
		}
		out.Results = append(out.Results, res)
	}

	s.logger.Info("update_anchors completed",
		slog.Int("anchors", len(results)),
		slog.Int("moved", out.Moved),
		slog.Int("failed", out.Failed),
		slog.Bool("dry_run", in.DryRun))
	return out, nil
}

func (s *Server) anchorStatus(ctx context.Context, _ AnchorStatusInput) (AnchorStatusOutput, error) {
	statuses, err := s.ws.Status(ctx)
	if err != nil {
		return AnchorStatusOutput{}, err
	}

	out := AnchorStatusOutput{Anchors: make([]ui.StatusView, 0, len(statuses))}
	for _, st := range statuses {
		v := ui.NewStatusView(st.ID, st.Anchor, st.Changed, st.Err, s.ws.Root())
		if v.State == ui.StateOutOfDate {
			out.OutOfDate++
		}
		out.Anchors = append(out.Anchors, v)
	}
	return out, nil
}

// resolve interprets relative paths against the repository root rather than
// the server's working directory.
func (s *Server) resolve(path string) string {
	if !filepath.IsAbs(path) {
		path = filepath.Join(s.ws.Root(), path)
	}
	if resolved, err := s.ws.Repository().Resolve(path); err == nil {
		return resolved
	}
	return path
}

// Serve runs the server on the stdio transport until ctx is cancelled.
func (s *Server) Serve(ctx context.Context) error {
	return s.ServeTransport(ctx, &mcp.StdioTransport{})
}

// ServeTransport runs the server on t until ctx is cancelled or the client
// disconnects.
func (s *Server) ServeTransport(ctx context.Context, t mcp.Transport) error {
	s.logger.Info("Starting MCP server", slog.String("root", s.ws.Root()))

	err := s.mcp.Run(ctx, t)
	if err != nil && ctx.Err() == nil {
		s.logger.Error("MCP server stopped with error", slog.String("error", err.Error()))
		return err
	}
	s.logger.Info("MCP server stopped")
	return nil
}
