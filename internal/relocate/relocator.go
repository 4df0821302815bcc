package relocate

import (
	"context"
	"errors"
	"log/slog"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/Aman-CERP/spor/internal/alignment"
	"github.com/Aman-CERP/spor/internal/anchor"
	sperrors "github.com/Aman-CERP/spor/internal/errors"
	"github.com/Aman-CERP/spor/internal/fileio"
)

// Options configures a Relocator.
type Options struct {
	// SearchWindow, when positive, first aligns against only this many
	// characters on each side of the anchor's previous location. The window
	// result is kept only when it holds the unchanged topic; otherwise the
	// whole text is used.
	SearchWindow int

	// Workers bounds how many anchors UpdateAll relocates at once.
	Workers int
}

// DefaultOptions returns whole-text alignment with one worker per CPU.
func DefaultOptions() Options {
	return Options{Workers: runtime.NumCPU()}
}

// Relocator relocates anchors with a fixed aligner and options.
type Relocator struct {
	aligner alignment.Aligner
	opts    Options
}

// NewRelocator creates a Relocator.
func NewRelocator(aligner alignment.Aligner, opts Options) *Relocator {
	if opts.Workers <= 0 {
		opts.Workers = runtime.NumCPU()
	}
	return &Relocator{aligner: aligner, opts: opts}
}

// Update relocates a against text, trying the search window first.
func (r *Relocator) Update(a *anchor.Anchor, text string) (*anchor.Anchor, error) {
	if r.opts.SearchWindow > 0 {
		if updated, ok := r.updateWindowed(a, text); ok {
			return updated, nil
		}
	}
	return Update(a, text, r.aligner)
}

func (r *Relocator) updateWindowed(a *anchor.Anchor, text string) (*anchor.Anchor, bool) {
	ctx := a.Context()
	runes := []rune(text)

	start := max(0, ctx.Offset-ctx.BeforeLen()-r.opts.SearchWindow)
	end := min(len(runes), ctx.Offset+ctx.TopicLen()+len([]rune(ctx.After))+r.opts.SearchWindow)
	if start >= end || (start == 0 && end == len(runes)) {
		return nil, false
	}

	offset, width, err := locate(ctx, string(runes[start:end]), r.aligner)
	if err != nil {
		slog.Debug("windowed relocation missed, using whole text",
			slog.String("path", a.FilePath()),
			slog.Int("window_start", start),
			slog.Int("window_end", end),
			sperrors.LogAttr(err))
		return nil, false
	}

	if width != ctx.TopicLen() {
		slog.Debug("windowed relocation found a partial topic, using whole text",
			slog.String("path", a.FilePath()),
			slog.Int("width", width),
			slog.Int("topic_len", ctx.TopicLen()))
		return nil, false
	}

	updated, err := rebuild(a, text, offset+start, width)
	if err != nil || updated.Context().Topic != ctx.Topic {
		return nil, false
	}
	return updated, true
}

// UpdateFile reads a's file and relocates a against it.
func (r *Relocator) UpdateFile(a *anchor.Anchor) (*anchor.Anchor, error) {
	text, err := fileio.ReadFile(a.FilePath(), a.Encoding())
	if err != nil {
		return nil, err
	}
	return r.Update(a, text)
}

// Outcome is the result of relocating one anchor in a batch.
type Outcome struct {
	ID     string
	Anchor *anchor.Anchor
	Err    error
}

// Job names an anchor to relocate in a batch.
type Job struct {
	ID     string
	Anchor *anchor.Anchor
}

// UpdateAll relocates every job's anchor concurrently.
//
// Failures are reported per outcome and never stop the batch. The only
// error returned is a context cancellation. Outcomes keep the order of jobs.
func (r *Relocator) UpdateAll(ctx context.Context, jobs []Job) ([]Outcome, error) {
	outcomes := make([]Outcome, len(jobs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.opts.Workers)

	for i, job := range jobs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			updated, err := r.UpdateFile(job.Anchor)
			outcomes[i] = Outcome{ID: job.ID, Anchor: updated, Err: err}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	failed := 0
	for _, o := range outcomes {
		if o.Err != nil {
			failed++
			slog.Debug("anchor relocation failed",
				slog.String("id", o.ID),
				sperrors.LogAttr(o.Err))
		}
	}
	if failed > 0 {
		slog.Warn("some anchors could not be relocated",
			slog.Int("failed", failed),
			slog.Int("total", len(jobs)))
	}

	return outcomes, nil
}

// IsRelocationFailure reports whether err means the topic could not be found,
// as opposed to an I/O or internal failure.
func IsRelocationFailure(err error) bool {
	var inv *InvalidAlignmentError
	return errors.Is(err, ErrNoAlignments) || errors.As(err, &inv)
}
