package mcp

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/spor/internal/config"
	"github.com/Aman-CERP/spor/internal/repository"
	"github.com/Aman-CERP/spor/internal/ui"
	"github.com/Aman-CERP/spor/internal/workspace"
)

func newTestServer(t *testing.T) (*Server, string) {
	t.Helper()
	repo, err := repository.Initialize(t.TempDir())
	require.NoError(t, err)
	cfg := config.NewConfig()
	cfg.Anchors.ContextWidth = 3

	s, err := NewServer(workspace.New(repo, cfg))
	require.NoError(t, err)
	return s, repo.Root()
}

func writeFile(t *testing.T, root, name, text string) string {
	t.Helper()
	path := filepath.Join(root, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(text), 0o644))
	return path
}

func TestNewServer_RequiresWorkspace(t *testing.T) {
	_, err := NewServer(nil)
	assert.Error(t, err)
}

func TestServer_ListTools(t *testing.T) {
	s, _ := newTestServer(t)

	var names []string
	for _, tool := range s.ListTools() {
		names = append(names, tool.Name)
		assert.NotEmpty(t, tool.Description)
	}

	assert.Equal(t, []string{"list_anchors", "get_anchor", "add_anchor", "update_anchors", "anchor_status"}, names)
	assert.NotNil(t, s.MCPServer())
}

func TestCallTool_AddThenGet(t *testing.T) {
	// Given: a file in the repository
	s, root := newTestServer(t)
	writeFile(t, root, "docs/a.txt", "hello world")
	ctx := context.Background()

	// When: an anchor is added by repository-relative path
	res, err := s.CallTool(ctx, "add_anchor", map[string]any{
		"file":     "docs/a.txt",
		"offset":   6,
		"width":    5,
		"metadata": map[string]any{"ticket": "SP-7"},
	})

	// Then: it is stored and retrievable by prefix
	require.NoError(t, err)
	added := res.(AddAnchorOutput).Anchor
	assert.Equal(t, filepath.Join("docs", "a.txt"), added.Path)
	assert.Equal(t, "world", added.Topic)
	assert.Equal(t, "lo ", added.Before)
	assert.Equal(t, 5, added.Width)
	assert.Equal(t, 3, added.ContextWidth)

	res, err = s.CallTool(ctx, "get_anchor", map[string]any{"id": added.ID[:6]})
	require.NoError(t, err)
	got := res.(AnchorOutput)
	assert.Equal(t, added.ID, got.ID)
	assert.Equal(t, map[string]any{"ticket": "SP-7"}, got.Metadata)
}

func TestCallTool_ListFiltersByFile(t *testing.T) {
	s, root := newTestServer(t)
	writeFile(t, root, "a.txt", "aaaa")
	writeFile(t, root, "b.txt", "bbbb")
	ctx := context.Background()
	for _, f := range []string{"a.txt", "b.txt"} {
		_, err := s.CallTool(ctx, "add_anchor", map[string]any{"file": f, "offset": 0, "width": 2})
		require.NoError(t, err)
	}

	res, err := s.CallTool(ctx, "list_anchors", nil)
	require.NoError(t, err)
	assert.Len(t, res.(ListAnchorsOutput).Anchors, 2)

	res, err = s.CallTool(ctx, "list_anchors", map[string]any{"file": "b.txt"})
	require.NoError(t, err)
	anchors := res.(ListAnchorsOutput).Anchors
	require.Len(t, anchors, 1)
	assert.Equal(t, "b.txt", anchors[0].Path)
}

func TestCallTool_UpdateAndStatus(t *testing.T) {
	s, root := newTestServer(t)
	path := writeFile(t, root, "a.txt", "asdf")
	ctx := context.Background()
	_, err := s.CallTool(ctx, "add_anchor", map[string]any{"file": "a.txt", "offset": 0, "width": 4})
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(path, []byte("qwer\nasdf"), 0o644))

	res, err := s.CallTool(ctx, "anchor_status", nil)
	require.NoError(t, err)
	status := res.(AnchorStatusOutput)
	assert.Equal(t, 1, status.OutOfDate)
	assert.Equal(t, ui.StateOutOfDate, status.Anchors[0].State)

	res, err = s.CallTool(ctx, "update_anchors", map[string]any{})
	require.NoError(t, err)
	update := res.(UpdateAnchorsOutput)
	assert.Equal(t, 1, update.Moved)
	assert.Equal(t, 0, update.Failed)
	assert.Equal(t, 5, update.Results[0].NewOffset)

	res, err = s.CallTool(ctx, "anchor_status", nil)
	require.NoError(t, err)
	assert.Equal(t, 0, res.(AnchorStatusOutput).OutOfDate)
}

func TestCallTool_Errors(t *testing.T) {
	s, root := newTestServer(t)
	writeFile(t, root, "a.txt", "abc")
	ctx := context.Background()

	tests := []struct {
		name     string
		tool     string
		args     map[string]any
		wantCode int
	}{
		{"unknown tool", "nope", nil, ErrCodeMethodNotFound},
		{"missing id", "get_anchor", nil, ErrCodeInvalidParams},
		{"unknown id", "get_anchor", map[string]any{"id": "zzz"}, ErrCodeAnchorNotFound},
		{"missing file", "add_anchor", map[string]any{"offset": 0}, ErrCodeInvalidParams},
		{"negative width", "add_anchor", map[string]any{"file": "a.txt", "width": -1}, ErrCodeInvalidParams},
		{"topic out of range", "add_anchor", map[string]any{"file": "a.txt", "offset": 2, "width": 5}, ErrCodeInvalidParams},
		{"missing file on disk", "add_anchor", map[string]any{"file": "nope.txt", "width": 1}, ErrCodeFileNotFound},
		{"bad argument type", "add_anchor", map[string]any{"file": 3}, ErrCodeInvalidParams},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.CallTool(ctx, tt.tool, tt.args)
			require.Error(t, err)
			mcpErr := MapError(err)
			assert.Equal(t, tt.wantCode, mcpErr.Code, mcpErr.Message)
		})
	}
}
