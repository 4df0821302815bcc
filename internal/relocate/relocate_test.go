package relocate

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/spor/internal/alignment"
	"github.com/Aman-CERP/spor/internal/anchor"
	sperrors "github.com/Aman-CERP/spor/internal/errors"
)

func makeAnchor(t *testing.T, path, text string, offset, width, contextWidth int) *anchor.Anchor {
	t.Helper()
	ctx, err := anchor.NewContext(text, offset, width, contextWidth)
	require.NoError(t, err)
	a, err := anchor.New(anchor.Absolute, path, ctx, map[string]any{"note": "keep"}, "utf-8")
	require.NoError(t, err)
	return a
}

func TestUpdate_TopicMovedByInsertion(t *testing.T) {
	// Given: an anchor over all of "asdf"
	a := makeAnchor(t, "/src/file.txt", "asdf", 0, 4, 3)

	// When: a line is inserted before it
	updated, err := Update(a, "qwer\nasdf", alignment.NewDefault())

	// Then: the topic is found at offset 5
	require.NoError(t, err)
	ctx := updated.Context()
	assert.Equal(t, 5, ctx.Offset)
	assert.Equal(t, "asdf", ctx.Topic)
	assert.Equal(t, "er\n", ctx.Before)
	assert.Equal(t, 3, ctx.Width)
}

func TestUpdate_PreservesPathEncodingMetadata(t *testing.T) {
	a := makeAnchor(t, "/src/file.txt", "asdf", 0, 4, 3)

	updated, err := Update(a, "qwer\nasdf", alignment.NewDefault())

	require.NoError(t, err)
	assert.Equal(t, a.FilePath(), updated.FilePath())
	assert.Equal(t, a.Encoding(), updated.Encoding())
	assert.Equal(t, a.Metadata(), updated.Metadata())
}

func TestUpdate_IdempotentOnUnchangedText(t *testing.T) {
	texts := []struct {
		text   string
		offset int
		width  int
	}{
		{"func main() {\n\tfmt.Println(\"hi\")\n}\n", 14, 18},
		{"the quick brown fox", 4, 5},
		{"ünïcödé text here", 0, 7},
	}

	for _, tt := range texts {
		t.Run(tt.text, func(t *testing.T) {
			// Given: an anchor and the very text it was cut from
			a := makeAnchor(t, "/f", tt.text, tt.offset, tt.width, 5)

			// When: updating against the full text it came from
			updated, err := Update(a, tt.text, alignment.NewDefault())

			// Then: nothing moves
			require.NoError(t, err)
			assert.Equal(t, a.Context(), updated.Context())
		})
	}
}

func TestUpdate_EditsAroundTopic(t *testing.T) {
	// Given: a topic inside a longer text
	original := "alpha beta gamma delta"
	a := makeAnchor(t, "/f", original, 11, 5, 6)
	require.Equal(t, "gamma", a.Context().Topic)

	// When: text before is removed and text after is changed
	updated, err := Update(a, "beta gamma DELTA", alignment.NewDefault())

	// Then: the topic follows
	require.NoError(t, err)
	assert.Equal(t, 5, updated.Context().Offset)
	assert.Equal(t, "gamma", updated.Context().Topic)
}

func TestUpdate_TopicRemoved(t *testing.T) {
	// Given: an anchor on XYZ
	a := makeAnchor(t, "/f", "aaa XYZ bbb", 4, 3, 3)

	// When: XYZ is deleted from the file
	_, err := Update(a, "aaa  bbb", alignment.NewDefault())

	// Then: relocation fails with InvalidAlignment
	var inv *InvalidAlignmentError
	require.True(t, errors.As(err, &inv), "got %v", err)
	assert.True(t, IsRelocationFailure(err))
}

func TestUpdate_NothingInCommon(t *testing.T) {
	a := makeAnchor(t, "/f", "asdf", 0, 4, 3)

	_, err := Update(a, "qwer", alignment.NewDefault())

	var inv *InvalidAlignmentError
	assert.True(t, errors.As(err, &inv))
}

func TestUpdate_EmptyFile(t *testing.T) {
	a := makeAnchor(t, "/f", "asdf", 0, 4, 3)

	_, err := Update(a, "", alignment.NewDefault())

	var inv *InvalidAlignmentError
	require.True(t, errors.As(err, &inv))
	assert.ErrorIs(t, err, alignment.ErrEmptySequence)
}

type stubAligner struct {
	result *alignment.Result
	err    error
}

func (s stubAligner) Align(string, string) (*alignment.Result, error) { return s.result, s.err }

func TestUpdate_NoAlignments(t *testing.T) {
	a := makeAnchor(t, "/f", "asdf", 0, 4, 3)

	_, err := Update(a, "asdf", stubAligner{result: &alignment.Result{}})

	assert.ErrorIs(t, err, ErrNoAlignments)
	assert.True(t, IsRelocationFailure(err))
}

func TestUpdate_PropagatesTracebackError(t *testing.T) {
	a := makeAnchor(t, "/f", "asdf", 0, 4, 3)
	tbErr := &alignment.TracebackError{Traceback: alignment.Traceback{{Row: 3, Col: 3}, {Row: 1, Col: 1}}, Step: 1}

	_, err := Update(a, "asdf", stubAligner{err: tbErr})

	var got *alignment.TracebackError
	require.True(t, errors.As(err, &got))
	assert.False(t, IsRelocationFailure(err))
}

func TestUpdate_RebuiltContextFailureIsInvalidAlignment(t *testing.T) {
	// Given: an aligner reporting a topic position past the end of the text
	a := makeAnchor(t, "/f", "asdf", 0, 4, 3)
	res := &alignment.Result{Score: 3, Alignments: []alignment.Alignment{{alignment.BothCell(0, 10)}}}

	_, err := Update(a, "asdf", stubAligner{result: res})

	var inv *InvalidAlignmentError
	require.True(t, errors.As(err, &inv))
	assert.ErrorIs(t, err, anchor.ErrTopicOutOfRange)
}

func TestRelocator_SearchWindowFindsNearbyTopic(t *testing.T) {
	// Given: a topic in the middle of a long text
	text := strings.Repeat("x", 50) + "TOPIC" + strings.Repeat("y", 50)
	a := makeAnchor(t, "/f", text, 50, 5, 3)
	r := NewRelocator(alignment.NewDefault(), Options{SearchWindow: 10, Workers: 1})

	// When: two characters are inserted at the start
	updated, err := r.Update(a, "zz"+text)

	// Then: the windowed search finds it
	require.NoError(t, err)
	assert.Equal(t, 52, updated.Context().Offset)
	assert.Equal(t, "TOPIC", updated.Context().Topic)
}

func TestRelocator_SearchWindowFallsBackToWholeText(t *testing.T) {
	// Given: a topic that moves far outside the window
	text := strings.Repeat("x", 50) + "TOPIC" + strings.Repeat("y", 50)
	a := makeAnchor(t, "/f", text, 50, 5, 3)
	r := NewRelocator(alignment.NewDefault(), Options{SearchWindow: 10})

	moved := "TOPIC" + strings.Repeat("x", 50) + strings.Repeat("y", 50)
	updated, err := r.Update(a, moved)

	require.NoError(t, err)
	assert.Equal(t, 0, updated.Context().Offset)
}

func TestRelocator_SearchWindowIgnoresPartialMatchNearOldLocation(t *testing.T) {
	// Given: a topic that moved far away, with a fragment of it left behind
	text := strings.Repeat("x", 50) + "ABCDEFGH" + strings.Repeat("y", 50)
	a := makeAnchor(t, "/f", text, 50, 8, 3)
	r := NewRelocator(alignment.NewDefault(), Options{SearchWindow: 10})

	edited := strings.Repeat("x", 50) + "ABCQ" + strings.Repeat("y", 150) + "ABCDEFGHyyy"

	// When: relocating with a search window
	updated, err := r.Update(a, edited)

	// Then: the whole-text result wins over the fragment in the window
	require.NoError(t, err)
	assert.Equal(t, 204, updated.Context().Offset)
	assert.Equal(t, "ABCDEFGH", updated.Context().Topic)

	whole, err := Update(a, edited, alignment.NewDefault())
	require.NoError(t, err)
	assert.Equal(t, whole.Context(), updated.Context())
}

func TestRelocator_UpdateAllReportsFailuresIndependently(t *testing.T) {
	// Given: three anchors, one on a missing file and one whose topic is gone
	dir := t.TempDir()
	good := filepath.Join(dir, "good.txt")
	gone := filepath.Join(dir, "gone.txt")
	missing := filepath.Join(dir, "missing.txt")

	jobs := []Job{
		{ID: "a", Anchor: makeAnchor(t, good, "asdf", 0, 4, 3)},
		{ID: "b", Anchor: makeAnchor(t, missing, "asdf", 0, 4, 3)},
		{ID: "c", Anchor: makeAnchor(t, gone, "asdf", 0, 4, 3)},
	}
	require.NoError(t, os.WriteFile(good, []byte("qwer\nasdf"), 0o644))
	require.NoError(t, os.WriteFile(gone, []byte("qwer"), 0o644))

	// When: relocating all of them
	outcomes, err := NewRelocator(alignment.NewDefault(), Options{Workers: 2}).UpdateAll(context.Background(), jobs)

	// Then: each outcome stands alone, in job order
	require.NoError(t, err)
	require.Len(t, outcomes, 3)

	assert.Equal(t, "a", outcomes[0].ID)
	require.NoError(t, outcomes[0].Err)
	assert.Equal(t, 5, outcomes[0].Anchor.Context().Offset)

	assert.Equal(t, "b", outcomes[1].ID)
	assert.Equal(t, sperrors.ErrCodeFileNotFound, sperrors.GetCode(outcomes[1].Err))
	assert.Nil(t, outcomes[1].Anchor)

	assert.Equal(t, "c", outcomes[2].ID)
	assert.True(t, IsRelocationFailure(outcomes[2].Err))
}

func TestRelocator_UpdateAllHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	jobs := []Job{{ID: "a", Anchor: makeAnchor(t, "/nowhere", "asdf", 0, 4, 3)}}
	_, err := NewRelocator(alignment.NewDefault(), Options{}).UpdateAll(ctx, jobs)

	assert.ErrorIs(t, err, context.Canceled)
}
