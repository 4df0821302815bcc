// Package relocate finds where an anchor's topic moved after its file was edited.
//
// The anchor's stored context (before + topic + after) is aligned against the
// file's current text. Topic characters that pair with characters in the new
// text give the topic's new offset and width.
package relocate

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/Aman-CERP/spor/internal/alignment"
	"github.com/Aman-CERP/spor/internal/anchor"
	"github.com/Aman-CERP/spor/internal/fileio"
)

// ErrNoAlignments is returned when the aligner produced no alignment at all.
var ErrNoAlignments = errors.New("no alignments")

// InvalidAlignmentError is returned when the topic cannot be mapped into the
// new text, or the rebuilt context is not valid.
type InvalidAlignmentError struct {
	Reason string
	Err    error
}

func (e *InvalidAlignmentError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid alignment: %s: %v", e.Reason, e.Err)
	}
	return "invalid alignment: " + e.Reason
}

func (e *InvalidAlignmentError) Unwrap() error { return e.Err }

// Update relocates a against text, the current contents of its file.
//
// The first alignment of the result is used. On success the returned anchor
// has the same path, encoding and metadata and a context rebuilt from text
// with the original context width.
func Update(a *anchor.Anchor, text string, aligner alignment.Aligner) (*anchor.Anchor, error) {
	ctx := a.Context()
	offset, width, err := locate(ctx, text, aligner)
	if err != nil {
		return nil, err
	}
	return rebuild(a, text, offset, width)
}

// UpdateFile reads a's file with its encoding and relocates a against it.
func UpdateFile(a *anchor.Anchor, aligner alignment.Aligner) (*anchor.Anchor, error) {
	text, err := fileio.ReadFile(a.FilePath(), a.Encoding())
	if err != nil {
		return nil, err
	}
	return Update(a, text, aligner)
}

// locate returns the topic's new offset and width within text.
func locate(ctx anchor.Context, text string, aligner alignment.Aligner) (int, int, error) {
	result, err := aligner.Align(ctx.FullText(), text)
	if err != nil {
		if errors.Is(err, alignment.ErrEmptySequence) {
			return 0, 0, &InvalidAlignmentError{Reason: "nothing to align", Err: err}
		}
		return 0, 0, err
	}
	if len(result.Alignments) == 0 {
		return 0, 0, ErrNoAlignments
	}

	// Positions in the full text are shifted by this much relative to the file.
	anchorOffset := ctx.Offset - ctx.BeforeLen()
	topicEnd := ctx.Offset + ctx.TopicLen()

	newOffset, newWidth := -1, 0
	for _, cell := range result.Alignments[0] {
		if cell.Kind != alignment.Both {
			continue
		}
		pos := cell.Left + anchorOffset
		if pos < ctx.Offset || pos >= topicEnd {
			continue
		}
		if newOffset < 0 || cell.Right < newOffset {
			newOffset = cell.Right
		}
		newWidth++
	}

	if newWidth == 0 {
		return 0, 0, &InvalidAlignmentError{Reason: "best alignment does not overlap the topic"}
	}
	return newOffset, newWidth, nil
}

func rebuild(a *anchor.Anchor, text string, offset, width int) (*anchor.Anchor, error) {
	ctx, err := anchor.NewContext(text, offset, width, a.Context().Width)
	if err != nil {
		return nil, &InvalidAlignmentError{Reason: "cannot rebuild context", Err: err}
	}

	slog.Debug("anchor relocated",
		slog.String("path", a.FilePath()),
		slog.Int("old_offset", a.Context().Offset),
		slog.Int("new_offset", offset),
		slog.Int("width", width))

	return a.WithContext(ctx), nil
}
