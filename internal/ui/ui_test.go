package ui

import (
	"bytes"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/spor/internal/anchor"
)

func sampleAnchor(t *testing.T, path string, metadata any) *anchor.Anchor {
	t.Helper()
	ctx, err := anchor.NewContext("one\ntwo\tx\nthree\n", 4, 4, 4)
	require.NoError(t, err)
	a, err := anchor.New(anchor.Absolute, path, ctx, metadata, anchor.DefaultEncoding)
	require.NoError(t, err)
	return a
}

func TestIsTTY_NonFile(t *testing.T) {
	assert.False(t, IsTTY(&bytes.Buffer{}))
	assert.False(t, IsTTY(nil))
	assert.False(t, UseColor(&bytes.Buffer{}))
}

func TestDetectNoColor(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	assert.True(t, DetectNoColor())
}

func TestDisplayPath(t *testing.T) {
	root := filepath.FromSlash("/work/repo")

	assert.Equal(t, filepath.FromSlash("src/a.txt"), DisplayPath(filepath.FromSlash("/work/repo/src/a.txt"), root))
	assert.Equal(t, filepath.FromSlash("/elsewhere/b.txt"), DisplayPath(filepath.FromSlash("/elsewhere/b.txt"), root))
	assert.Equal(t, "x.txt", DisplayPath("x.txt", ""))
}

func TestRenderer_List(t *testing.T) {
	// Given: an anchor with metadata
	root := t.TempDir()
	a := sampleAnchor(t, filepath.Join(root, "notes.txt"), map[string]any{"ticket": "SP-1"})
	buf := &bytes.Buffer{}

	// When: listing it
	NewRenderer(buf, true).List([]AnchorView{NewAnchorView("abc123", a, root)})

	// Then: id, relative path, offset and JSON metadata appear on one line
	assert.Equal(t, `abc123 notes.txt:4 => {"ticket":"SP-1"}`+"\n", buf.String())
}

func TestRenderer_DetailsPrefixesContext(t *testing.T) {
	root := t.TempDir()
	a := sampleAnchor(t, filepath.Join(root, "notes.txt"), nil)
	buf := &bytes.Buffer{}

	NewRenderer(buf, true).Details(NewAnchorView("abc123", a, root))

	out := buf.String()
	assert.Contains(t, out, "id: abc123\n")
	assert.Contains(t, out, "path: notes.txt\n")
	assert.Contains(t, out, "encoding: utf-8\n")
	assert.Contains(t, out, "offset: 4\n")
	assert.Contains(t, out, "width: 4\n")
	assert.Contains(t, out, "metadata: null\n")
	assert.Contains(t, out, "B> one\n")
	assert.Contains(t, out, "T> two\t\n")
	assert.Contains(t, out, "A> x\nA> th\n")
}

func TestRenderer_StatusSkipsCurrent(t *testing.T) {
	buf := &bytes.Buffer{}
	r := NewRenderer(buf, true)

	r.Status([]StatusView{
		{ID: "a", Path: "/p/a.txt", Offset: 1, State: StateCurrent},
		{ID: "b", Path: "/p/b.txt", Offset: 7, State: StateOutOfDate},
		{ID: "c", Path: "/p/c.txt", Offset: 0, State: StateError, Error: "gone"},
	})

	assert.Equal(t, "b /p/b.txt:7 out-of-date\nc /p/c.txt:0 error: gone\n", buf.String())
}

func TestRenderer_UpdateMessages(t *testing.T) {
	buf := &bytes.Buffer{}
	r := NewRenderer(buf, true)

	r.UpdateFailed("abc", errors.New("no alignments"))
	r.Updated("def", "a.txt", 3, 3)
	r.Updated("ghi", "a.txt", 3, 9)

	assert.Equal(t, "Unable to update anchor abc. Reason: no alignments\nghi a.txt:3 -> 9\n", buf.String())
}

func TestRenderer_DiffPassesLinesThrough(t *testing.T) {
	buf := &bytes.Buffer{}
	lines := []string{"*** a [original]\n", "--- a [current]\n", "! old\n", "! new\n"}

	NewRenderer(buf, true).Diff(lines)

	assert.Equal(t, "*** a [original]\n--- a [current]\n! old\n! new\n", buf.String())
}

func TestRenderer_JSONHandlesYAMLMaps(t *testing.T) {
	root := t.TempDir()
	a := sampleAnchor(t, filepath.Join(root, "n.txt"), map[any]any{1: "one", "nested": []any{map[any]any{"k": true}}})
	buf := &bytes.Buffer{}

	require.NoError(t, NewRenderer(buf, true).JSON([]AnchorView{NewAnchorView("id1", a, root)}))

	var parsed []map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &parsed))
	require.Len(t, parsed, 1)
	assert.Equal(t, "id1", parsed[0]["id"])
	assert.Equal(t, "n.txt", parsed[0]["path"])
	md := parsed[0]["metadata"].(map[string]any)
	assert.Equal(t, "one", md["1"])
	ctx := parsed[0]["context"].(map[string]any)
	assert.Equal(t, "two\t", ctx["topic"])
}

func TestGetStyles(t *testing.T) {
	s := GetStyles(true)
	assert.Equal(t, "plain", s.Header.Render("plain"))
}

func TestNewStatusView(t *testing.T) {
	root := t.TempDir()
	a := sampleAnchor(t, filepath.Join(root, "n.txt"), nil)

	assert.Equal(t, StateCurrent, NewStatusView("x", a, false, nil, root).State)
	assert.Equal(t, StateOutOfDate, NewStatusView("x", a, true, nil, root).State)

	v := NewStatusView("x", a, true, errors.New("boom"), root)
	assert.Equal(t, StateError, v.State)
	assert.Equal(t, "boom", v.Error)
	assert.Equal(t, "n.txt", v.Path)
	assert.Equal(t, 4, v.Offset)
}
