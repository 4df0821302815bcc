// Package diff compares an anchor's stored context with what its file holds
// at the same place today.
package diff

import (
	"context"
	"fmt"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
	"golang.org/x/sync/errgroup"

	"github.com/Aman-CERP/spor/internal/anchor"
	"github.com/Aman-CERP/spor/internal/fileio"
)

// contextLines is the number of unchanged lines shown around each change.
const contextLines = 3

// AnchorDiff reads a's file and diffs its stored context against the context
// found at the same offset and topic length now.
//
// The lines are a context diff labelled "<path> [original]" and
// "<path> [current]", each ending in a newline. changed is false and lines is
// empty when nothing differs.
func AnchorDiff(a *anchor.Anchor) (bool, []string, error) {
	text, err := fileio.ReadFile(a.FilePath(), a.Encoding())
	if err != nil {
		return false, nil, err
	}
	return Against(a, text)
}

// Against diffs a's stored context against text.
func Against(a *anchor.Anchor, text string) (bool, []string, error) {
	stored := a.Context()
	current, err := anchor.NewContext(text, stored.Offset, stored.TopicLen(), stored.Width)
	if err != nil {
		return false, nil, fmt.Errorf("cannot rebuild context of %s: %w", a.FilePath(), err)
	}

	out, err := difflib.GetContextDiffString(difflib.ContextDiff{
		A:        difflib.SplitLines(stored.FullText()),
		B:        difflib.SplitLines(current.FullText()),
		FromFile: a.FilePath() + " [original]",
		ToFile:   a.FilePath() + " [current]",
		Context:  contextLines,
	})
	if err != nil {
		return false, nil, err
	}
	if out == "" {
		return false, nil, nil
	}
	return true, strings.SplitAfter(strings.TrimSuffix(out, "\n"), "\n"), nil
}

// Job names an anchor to check.
type Job struct {
	ID     string
	Anchor *anchor.Anchor
}

// Status is whether one anchor is out of date.
type Status struct {
	ID      string
	Anchor  *anchor.Anchor
	Changed bool
	Err     error
}

// Statuses checks every job concurrently with at most workers at a time.
// Per-anchor failures are reported in Status.Err. Results keep job order.
func Statuses(ctx context.Context, jobs []Job, workers int) ([]Status, error) {
	out := make([]Status, len(jobs))

	g, gctx := errgroup.WithContext(ctx)
	if workers > 0 {
		g.SetLimit(workers)
	}
	for i, job := range jobs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			changed, _, err := AnchorDiff(job.Anchor)
			out[i] = Status{ID: job.ID, Anchor: job.Anchor, Changed: changed, Err: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// Line renders s the way "spor status" prints an out-of-date anchor.
func (s Status) Line() string {
	return fmt.Sprintf("%s %s:%d out-of-date", s.ID, s.Anchor.FilePath(), s.Anchor.Context().Offset)
}
