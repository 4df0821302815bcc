package integration

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/spor/internal/config"
	"github.com/Aman-CERP/spor/internal/mcp"
	"github.com/Aman-CERP/spor/internal/relocate"
	"github.com/Aman-CERP/spor/internal/repository"
	"github.com/Aman-CERP/spor/internal/watcher"
	"github.com/Aman-CERP/spor/internal/workspace"
)

const document = `# Release checklist

1. Update the changelog.
2. Tag the release.
3. Announce it on the mailing list.
`

func newProject(t *testing.T) (*workspace.Workspace, string) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	root := t.TempDir()
	path := filepath.Join(root, "RELEASE.md")
	require.NoError(t, os.WriteFile(path, []byte(document), 0o644))

	repo, err := repository.Initialize(root)
	require.NoError(t, err)
	cfg := config.NewConfig()
	cfg.Anchors.ContextWidth = 20
	cfg.Relocation.Workers = 2
	return workspace.New(repo, cfg), path
}

func TestAnchors_SurviveEditsAcrossUpdate(t *testing.T) {
	// Given: anchors on two checklist items
	ws, path := newProject(t)
	ctx := context.Background()

	tagOffset := strings.Index(document, "Tag the release.")
	announceOffset := strings.Index(document, "Announce it")
	tag, err := ws.Add(ctx, path, tagOffset, len("Tag the release."), workspace.AnchorOptions{Metadata: "verify signature"})
	require.NoError(t, err)
	announce, err := ws.Add(ctx, path, announceOffset, len("Announce it"), workspace.AnchorOptions{})
	require.NoError(t, err)

	// When: a step is inserted above them and a typo is introduced in one
	edited := strings.Replace(document, "2. Tag", "2. Run the tests.\n3. Tag", 1)
	edited = strings.Replace(edited, "Announce it", "Anounce it", 1)
	require.NoError(t, os.WriteFile(path, []byte(edited), 0o644))

	results, err := ws.Update(ctx, false)
	require.NoError(t, err)
	for _, r := range results {
		require.NoError(t, r.Err, r.ID)
	}

	// Then: both anchors point at their text in the new version
	got, err := ws.Find(tag.ID)
	require.NoError(t, err)
	assert.Equal(t, strings.Index(edited, "Tag the release."), got.Anchor.Context().Offset)
	assert.Equal(t, "Tag the release.", got.Anchor.Context().Topic)
	assert.Equal(t, "verify signature", got.Anchor.Metadata())

	got, err = ws.Find(announce.ID)
	require.NoError(t, err)
	assert.Equal(t, strings.Index(edited, "Anounce it"), got.Anchor.Context().Offset)

	// And: nothing is out of date any more
	statuses, err := ws.Status(ctx)
	require.NoError(t, err)
	for _, st := range statuses {
		assert.False(t, st.Changed, st.ID)
	}
}

func TestAnchors_ConcurrentWritersShareRepository(t *testing.T) {
	// Given: two workspaces on the same repository, as two processes would have
	ws, path := newProject(t)
	other, err := workspace.Open(ws.Root())
	require.NoError(t, err)

	// When: both add anchors at the same time
	ctx := context.Background()
	var wg sync.WaitGroup
	errs := make(chan error, 20)
	for i := 0; i < 10; i++ {
		for _, w := range []*workspace.Workspace{ws, other} {
			wg.Add(1)
			go func(w *workspace.Workspace, offset int) {
				defer wg.Done()
				_, err := w.Add(ctx, path, offset, 3, workspace.AnchorOptions{})
				errs <- err
			}(w, i)
		}
	}
	wg.Wait()
	close(errs)

	// Then: every anchor is stored
	for err := range errs {
		assert.NoError(t, err)
	}
	items, err := other.Items()
	require.NoError(t, err)
	assert.Len(t, items, 20)
}

func TestWatch_RelocatesOnSave(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	// Given: a syncer watching an anchored file
	ws, path := newProject(t)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	offset := strings.Index(document, "Tag the release.")
	item, err := ws.Add(ctx, path, offset, len("Tag the release."), workspace.AnchorOptions{})
	require.NoError(t, err)

	syncer := watcher.NewSyncer(ws.Repository(), ws.Relocator(), watcher.Options{DebounceWindow: 50 * time.Millisecond})
	synced := make(chan relocate.Outcome, 4)
	syncer.OnOutcome = func(o relocate.Outcome) {
		select {
		case synced <- o:
		default:
		}
	}

	done := make(chan error, 1)
	go func() { done <- syncer.Run(ctx) }()
	time.Sleep(200 * time.Millisecond)

	// When: the file is saved with a new first line
	edited := "Owner: release team\n" + document
	require.NoError(t, os.WriteFile(path, []byte(edited), 0o644))

	// Then: the anchor is relocated and saved
	select {
	case o := <-synced:
		require.NoError(t, o.Err)
		assert.Equal(t, item.ID, o.ID)
	case <-ctx.Done():
		t.Fatal("timed out waiting for relocation")
	}
	got, err := ws.Find(item.ID)
	require.NoError(t, err)
	assert.Equal(t, strings.Index(edited, "Tag the release."), got.Anchor.Context().Offset)

	cancel()
	assert.NoError(t, <-done)
}

func TestMCP_SeesCLIChanges(t *testing.T) {
	// Given: an MCP server and a separate workspace on the same repository
	ws, path := newProject(t)
	server, err := mcp.NewServer(ws)
	require.NoError(t, err)
	cli, err := workspace.Open(ws.Root())
	require.NoError(t, err)
	ctx := context.Background()

	// When: the other workspace adds an anchor
	item, err := cli.Add(ctx, path, 0, 1, workspace.AnchorOptions{})
	require.NoError(t, err)

	// Then: the server lists it
	res, err := server.CallTool(ctx, "list_anchors", nil)
	require.NoError(t, err)
	anchors := res.(mcp.ListAnchorsOutput).Anchors
	require.Len(t, anchors, 1)
	assert.Equal(t, item.ID, anchors[0].ID)
	assert.Equal(t, "RELEASE.md", anchors[0].Path)
}
