// Package workspace wires a repository, its configuration and a relocator
// together and implements the operations shared by the CLI and the MCP server.
package workspace

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Aman-CERP/spor/internal/alignment"
	"github.com/Aman-CERP/spor/internal/anchor"
	"github.com/Aman-CERP/spor/internal/config"
	"github.com/Aman-CERP/spor/internal/diff"
	sperrors "github.com/Aman-CERP/spor/internal/errors"
	"github.com/Aman-CERP/spor/internal/fileio"
	"github.com/Aman-CERP/spor/internal/relocate"
	"github.com/Aman-CERP/spor/internal/repository"
)

// Workspace is an open repository plus everything needed to work on it.
type Workspace struct {
	repo      *repository.Repository
	cfg       *config.Config
	relocator *relocate.Relocator
}

// Open finds the repository containing path and loads its configuration.
func Open(path string) (*Workspace, error) {
	repo, err := repository.Open(path)
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(repo.Root())
	if err != nil {
		return nil, sperrors.ConfigError("cannot load configuration", err)
	}
	return New(repo, cfg), nil
}

// New builds a workspace from an open repository and configuration.
func New(repo *repository.Repository, cfg *config.Config) *Workspace {
	if cfg == nil {
		cfg = config.NewConfig()
	}
	return &Workspace{
		repo:      repo,
		cfg:       cfg,
		relocator: relocate.NewRelocator(NewAligner(cfg), relocate.Options{
			SearchWindow: cfg.Relocation.SearchWindow,
			Workers:      cfg.Relocation.Workers,
		}),
	}
}

// NewAligner builds the Smith-Waterman aligner described by cfg.
func NewAligner(cfg *config.Config) *alignment.SmithWaterman {
	return alignment.New(
		alignment.NewSimpleScorer(cfg.Alignment.MatchScore, cfg.Alignment.GapPenalty),
		alignment.Options{
			MaxCells:      cfg.Alignment.MaxCells,
			MaxTracebacks: cfg.Alignment.MaxTracebacks,
		})
}

// Repository returns the underlying repository.
func (w *Workspace) Repository() *repository.Repository { return w.repo }

// Config returns the effective configuration.
func (w *Workspace) Config() *config.Config { return w.cfg }

// Relocator returns the relocator built from the configuration.
func (w *Workspace) Relocator() *relocate.Relocator { return w.relocator }

// Root returns the repository root.
func (w *Workspace) Root() string { return w.repo.Root() }

// AnchorOptions are the optional parts of a new anchor.
type AnchorOptions struct {
	// ContextWidth overrides the configured default when non-nil.
	ContextWidth *int
	// Encoding overrides the configured default when non-empty.
	Encoding string
	Metadata any
}

// NewAnchor reads file and builds an anchor over width characters at offset.
func (w *Workspace) NewAnchor(file string, offset, width int, opts AnchorOptions) (*anchor.Anchor, error) {
	path, err := w.repo.Resolve(file)
	if err != nil {
		return nil, err
	}

	contextWidth := w.cfg.Anchors.ContextWidth
	if opts.ContextWidth != nil {
		contextWidth = *opts.ContextWidth
	}
	encoding := w.cfg.Anchors.Encoding
	if opts.Encoding != "" {
		encoding = opts.Encoding
	}
	_, name, err := fileio.LookupEncoding(encoding)
	if err != nil {
		return nil, err
	}

	text, err := fileio.ReadFile(path, name)
	if err != nil {
		return nil, err
	}

	ctx, err := anchor.NewContext(text, offset, width, contextWidth)
	if err != nil {
		if errors.Is(err, anchor.ErrTopicOutOfRange) {
			return nil, sperrors.New(sperrors.ErrCodeTopicOutOfRange, err.Error(), err).
				WithDetail("path", path).
				WithSuggestion("Check the offset and width against the file length in characters")
		}
		return nil, sperrors.ValidationError(err.Error(), err)
	}

	a, err := anchor.New(anchor.Absolute, path, ctx, opts.Metadata, name)
	if err != nil {
		return nil, sperrors.New(sperrors.ErrCodeInvalidPath, err.Error(), err)
	}
	return a, nil
}

// Add creates an anchor and stores it.
func (w *Workspace) Add(ctx context.Context, file string, offset, width int, opts AnchorOptions) (repository.Item, error) {
	a, err := w.NewAnchor(file, offset, width, opts)
	if err != nil {
		return repository.Item{}, err
	}
	id, err := w.repo.Add(ctx, a)
	if err != nil {
		return repository.Item{}, err
	}
	slog.Info("anchor added",
		slog.String("id", id),
		slog.String("path", a.FilePath()),
		slog.Int("offset", offset),
		slog.Int("width", width))
	return repository.Item{ID: id, Anchor: a}, nil
}

// Items returns every stored anchor sorted by id.
func (w *Workspace) Items() ([]repository.Item, error) {
	return w.repo.Items()
}

// Find returns the single anchor whose id starts with prefix.
func (w *Workspace) Find(prefix string) (repository.Item, error) {
	return w.repo.FindByPrefix(prefix)
}

// Remove deletes the anchor matching prefix and returns its full id.
func (w *Workspace) Remove(ctx context.Context, prefix string) (string, error) {
	item, err := w.repo.FindByPrefix(prefix)
	if err != nil {
		return "", err
	}
	if err := w.repo.Remove(ctx, item.ID); err != nil {
		return "", err
	}
	return item.ID, nil
}

// UpdateResult is what happened to one anchor during Update.
type UpdateResult struct {
	ID        string
	Path      string
	OldOffset int
	NewOffset int
	Anchor    *anchor.Anchor
	Err       error
}

// Moved reports whether the anchor was relocated to a different context.
func (r UpdateResult) Moved(old *anchor.Anchor) bool {
	return r.Err == nil && r.Anchor.Context() != old.Context()
}

// Update relocates every anchor and, unless dryRun is set, saves the ones
// that changed. Per-anchor failures are returned in the results; err is only
// set when the batch itself could not run.
func (w *Workspace) Update(ctx context.Context, dryRun bool) ([]UpdateResult, error) {
	items, err := w.repo.Items()
	if err != nil {
		return nil, err
	}

	jobs := make([]relocate.Job, len(items))
	for i, it := range items {
		jobs[i] = relocate.Job{ID: it.ID, Anchor: it.Anchor}
	}
	outcomes, err := w.relocator.UpdateAll(ctx, jobs)
	if err != nil {
		return nil, err
	}

	results := make([]UpdateResult, len(outcomes))
	for i, o := range outcomes {
		old := items[i].Anchor
		res := UpdateResult{
			ID:        o.ID,
			Path:      old.FilePath(),
			OldOffset: old.Context().Offset,
			NewOffset: old.Context().Offset,
			Anchor:    o.Anchor,
			Err:       classifyRelocation(o.Err),
		}
		if res.Err == nil {
			res.NewOffset = o.Anchor.Context().Offset
			if !dryRun && res.Moved(old) {
				if err := w.repo.Update(ctx, o.ID, o.Anchor); err != nil {
					res.Err = err
				}
			}
		}
		results[i] = res
	}
	return results, nil
}

func classifyRelocation(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := sperrors.As(err); ok {
		return err
	}
	if relocate.IsRelocationFailure(err) {
		return sperrors.New(sperrors.ErrCodeRelocationFailed, err.Error(), err)
	}
	if errors.Is(err, alignment.ErrInputTooLarge) {
		return sperrors.New(sperrors.ErrCodeInputTooLarge, err.Error(), err).
			WithSuggestion("Raise alignment.max_cells or set relocation.search_window")
	}
	return sperrors.New(sperrors.ErrCodeAlignmentFailed, err.Error(), err)
}

// Status reports whether each anchor's file still matches its stored context.
func (w *Workspace) Status(ctx context.Context) ([]diff.Status, error) {
	items, err := w.repo.Items()
	if err != nil {
		return nil, err
	}
	jobs := make([]diff.Job, len(items))
	for i, it := range items {
		jobs[i] = diff.Job{ID: it.ID, Anchor: it.Anchor}
	}
	return diff.Statuses(ctx, jobs, w.cfg.Relocation.Workers)
}

// Diff returns the context diff of the anchor matching prefix.
func (w *Workspace) Diff(prefix string) (repository.Item, []string, error) {
	item, err := w.repo.FindByPrefix(prefix)
	if err != nil {
		return repository.Item{}, nil, err
	}
	_, lines, err := diff.AnchorDiff(item.Anchor)
	if err != nil {
		return item, nil, fmt.Errorf("diff anchor %s: %w", item.ID, err)
	}
	return item, lines, nil
}
