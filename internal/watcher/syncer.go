package watcher

import (
	"context"
	"log/slog"
	"path/filepath"

	"github.com/Aman-CERP/spor/internal/anchor"
	sperrors "github.com/Aman-CERP/spor/internal/errors"
	"github.com/Aman-CERP/spor/internal/relocate"
	"github.com/Aman-CERP/spor/internal/repository"
)

// Store is the part of a repository the Syncer needs.
type Store interface {
	Dir() string
	Items() ([]repository.Item, error)
	Update(ctx context.Context, id string, a *anchor.Anchor) error
}

// Relocator relocates batches of anchors.
type Relocator interface {
	UpdateAll(ctx context.Context, jobs []relocate.Job) ([]relocate.Outcome, error)
}

// Syncer relocates and saves anchors whenever their files change.
type Syncer struct {
	store     Store
	relocator Relocator
	opts      Options

	// OnOutcome, when set, is called for every relocation attempt.
	OnOutcome func(relocate.Outcome)
}

// NewSyncer creates a Syncer.
func NewSyncer(store Store, relocator Relocator, opts Options) *Syncer {
	return &Syncer{store: store, relocator: relocator, opts: opts.WithDefaults()}
}

// Run watches until ctx is cancelled. Anchors added to or removed from the
// repository while running are picked up automatically.
func (s *Syncer) Run(ctx context.Context) error {
	w, err := NewFileWatcher(s.opts)
	if err != nil {
		return err
	}
	defer func() { _ = w.Stop() }()

	if err := s.track(w); err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() { errCh <- w.Run(ctx) }()

	for {
		select {
		case <-ctx.Done():
			<-errCh
			return nil
		case err := <-w.Errors():
			slog.Warn("file watcher error", slog.String("error", err.Error()))
		case batch, ok := <-w.Events():
			if !ok {
				return <-errCh
			}
			if err := s.Sync(ctx, batch); err != nil {
				return err
			}
			if err := s.track(w); err != nil {
				return err
			}
		}
	}
}

// Sync relocates the anchors of every changed file in batch and saves those
// that moved. Failures are logged and reported through OnOutcome; only
// cancellation or a repository read failure stops it.
func (s *Syncer) Sync(ctx context.Context, batch []FileEvent) error {
	changed := make(map[string]struct{})
	for _, e := range batch {
		if filepath.Dir(e.Path) == s.store.Dir() {
			continue
		}
		if e.Operation.Gone() {
			slog.Warn("anchored file removed", slog.String("path", e.Path))
			continue
		}
		changed[e.Path] = struct{}{}
	}
	if len(changed) == 0 {
		return nil
	}

	items, err := s.store.Items()
	if err != nil {
		return err
	}

	var jobs []relocate.Job
	for _, it := range items {
		if _, ok := changed[it.Anchor.FilePath()]; ok {
			jobs = append(jobs, relocate.Job{ID: it.ID, Anchor: it.Anchor})
		}
	}
	if len(jobs) == 0 {
		return nil
	}

	outcomes, err := s.relocator.UpdateAll(ctx, jobs)
	if err != nil {
		return err
	}

	for i, o := range outcomes {
		if o.Err == nil && o.Anchor.Context() != jobs[i].Anchor.Context() {
			if err := s.store.Update(ctx, o.ID, o.Anchor); err != nil {
				if sperrors.GetCode(err) == sperrors.ErrCodeAnchorNotFound {
					slog.Debug("anchor removed before it was synced", slog.String("id", o.ID))
					continue
				}
				o.Err = err
			}
		}
		if o.Err != nil {
			slog.Warn("anchor not updated",
				slog.String("id", o.ID),
				sperrors.LogAttr(o.Err))
		} else {
			slog.Info("anchor synced",
				slog.String("id", o.ID),
				slog.Int("offset", o.Anchor.Context().Offset))
		}
		if s.OnOutcome != nil {
			s.OnOutcome(o)
		}
	}
	return nil
}

// track points w at the files of every stored anchor and the repository
// directory itself.
func (s *Syncer) track(w *FileWatcher) error {
	items, err := s.store.Items()
	if err != nil {
		return err
	}
	seen := make(map[string]struct{})
	var files []string
	for _, it := range items {
		p := it.Anchor.FilePath()
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		files = append(files, p)
	}
	slog.Debug("watching anchored files", slog.Int("files", len(files)))
	return w.Track(files, []string{s.store.Dir()})
}
