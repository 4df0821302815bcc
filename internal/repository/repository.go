// Package repository stores anchors in a .spor directory, one YAML file per
// anchor named by a random UUID.
package repository

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/Aman-CERP/spor/internal/anchor"
	sperrors "github.com/Aman-CERP/spor/internal/errors"
)

const (
	// DirName is the repository directory created by Initialize.
	DirName = ".spor"

	// anchorExt is the extension of anchor files.
	anchorExt = ".yml"

	// DefaultCacheSize is the number of decoded anchors kept in memory.
	DefaultCacheSize = 512
)

// Item is a stored anchor and its id. Anchor paths are absolute.
type Item struct {
	ID     string
	Anchor *anchor.Anchor
}

type cachedAnchor struct {
	modTime time.Time
	size    int64
	anchor  *anchor.Anchor
}

// Repository is a handle on a .spor directory.
type Repository struct {
	root  string
	dir   string
	mu    sync.Mutex // guards lock within this process
	lock  *FileLock
	retry sperrors.RetryConfig
	cache *lru.Cache[string, cachedAnchor]
}

// Initialize creates a repository in dir. It fails if one already exists there.
func Initialize(dir string) (*Repository, error) {
	root, err := canonical(dir)
	if err != nil {
		return nil, err
	}
	spor := filepath.Join(root, DirName)
	if err := os.Mkdir(spor, 0o755); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return nil, sperrors.New(sperrors.ErrCodeRepoExists,
				fmt.Sprintf("spor repository already exists in %s", root), err)
		}
		return nil, sperrors.New(sperrors.ErrCodeFilePermission,
			fmt.Sprintf("cannot create %s", spor), err)
	}
	slog.Debug("repository initialized", slog.String("root", root))
	return newRepository(root), nil
}

// Open finds the repository containing path by walking up its ancestors.
func Open(path string) (*Repository, error) {
	root, err := FindRoot(path)
	if err != nil {
		return nil, err
	}
	return newRepository(root), nil
}

// FindRoot returns the nearest ancestor of path (inclusive) holding a .spor
// directory.
func FindRoot(path string) (string, error) {
	start, err := canonical(path)
	if err != nil {
		return "", err
	}
	for dir := start; ; {
		info, err := os.Stat(filepath.Join(dir, DirName))
		if err == nil && info.IsDir() {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", sperrors.New(sperrors.ErrCodeRepoNotFound,
		fmt.Sprintf("no spor repository found for %s", path), nil).
		WithSuggestion("Run 'spor init' in the project root")
}

func canonical(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", sperrors.New(sperrors.ErrCodeInvalidPath, fmt.Sprintf("invalid path %s", path), err)
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		abs = resolved
	}
	return abs, nil
}

func newRepository(root string) *Repository {
	dir := filepath.Join(root, DirName)
	cache, _ := lru.New[string, cachedAnchor](DefaultCacheSize)
	return &Repository{
		root:  root,
		dir:   dir,
		lock:  NewFileLock(dir),
		retry: sperrors.DefaultRetryConfig(),
		cache: cache,
	}
}

// Root returns the directory containing .spor.
func (r *Repository) Root() string { return r.root }

// Dir returns the .spor directory.
func (r *Repository) Dir() string { return r.dir }

// Add stores a new anchor and returns its id. The anchor path must be absolute
// and inside the repository root.
func (r *Repository) Add(ctx context.Context, a *anchor.Anchor) (string, error) {
	id := uuid.NewString()
	if err := r.write(ctx, id, a, false); err != nil {
		return "", err
	}
	return id, nil
}

// Update replaces the anchor stored under id. An anchor removed before the
// lock is taken stays removed.
func (r *Repository) Update(ctx context.Context, id string, a *anchor.Anchor) error {
	return r.write(ctx, id, a, true)
}

// Remove deletes the anchor stored under id.
func (r *Repository) Remove(ctx context.Context, id string) error {
	unlock, err := r.acquire(ctx)
	if err != nil {
		return err
	}
	defer unlock()

	if err := os.Remove(r.anchorPath(id)); err != nil {
		return r.notFound(id, err)
	}
	r.cache.Remove(id)
	slog.Debug("anchor removed", slog.String("id", id))
	return nil
}

// Get loads the anchor stored under id.
func (r *Repository) Get(id string) (*anchor.Anchor, error) {
	path := r.anchorPath(id)
	info, err := os.Stat(path)
	if err != nil {
		return nil, r.notFound(id, err)
	}

	if c, ok := r.cache.Get(id); ok && c.modTime.Equal(info.ModTime()) && c.size == info.Size() {
		return c.anchor, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, r.notFound(id, err)
	}
	rel, err := decodeRecord(data)
	if err != nil {
		return nil, sperrors.New(sperrors.ErrCodeAnchorCorrupt,
			fmt.Sprintf("anchor %s is corrupt", id), err).WithDetail("file", path)
	}
	abs, err := rel.ToAbsolute(r.root)
	if err != nil {
		return nil, sperrors.New(sperrors.ErrCodeAnchorCorrupt,
			fmt.Sprintf("anchor %s is corrupt", id), err).WithDetail("file", path)
	}

	r.cache.Add(id, cachedAnchor{modTime: info.ModTime(), size: info.Size(), anchor: abs})
	return abs, nil
}

// Items returns every readable anchor, sorted by id.
// Files that cannot be read or parsed are logged and skipped.
func (r *Repository) Items() ([]Item, error) {
	var ids []string
	err := filepath.WalkDir(r.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || filepath.Ext(path) != anchorExt {
			return nil
		}
		ids = append(ids, strings.TrimSuffix(d.Name(), anchorExt))
		return nil
	})
	if err != nil {
		return nil, sperrors.New(sperrors.ErrCodeFileNotFound,
			fmt.Sprintf("cannot list anchors in %s", r.dir), err)
	}
	sort.Strings(ids)

	items := make([]Item, 0, len(ids))
	for _, id := range ids {
		a, err := r.Get(id)
		if err != nil {
			slog.Warn("skipping unreadable anchor",
				slog.String("id", id),
				sperrors.LogAttr(err))
			continue
		}
		items = append(items, Item{ID: id, Anchor: a})
	}
	return items, nil
}

// FindByPrefix returns the single anchor whose id starts with prefix.
func (r *Repository) FindByPrefix(prefix string) (Item, error) {
	items, err := r.Items()
	if err != nil {
		return Item{}, err
	}

	var matches []Item
	for _, it := range items {
		if strings.HasPrefix(it.ID, prefix) {
			matches = append(matches, it)
		}
	}

	switch len(matches) {
	case 0:
		return Item{}, sperrors.New(sperrors.ErrCodeAnchorNotFound,
			"No anchor matching ID specification", nil).WithDetail("prefix", prefix)
	case 1:
		return matches[0], nil
	default:
		return Item{}, sperrors.New(sperrors.ErrCodeAmbiguousID,
			"Ambiguous ID specification", nil).
			WithDetail("prefix", prefix).
			WithSuggestion(fmt.Sprintf("%d anchors match; use a longer prefix", len(matches)))
	}
}

// Resolve returns the canonical absolute form of path, as stored anchors
// expect it.
func (r *Repository) Resolve(path string) (string, error) {
	return canonical(path)
}

func (r *Repository) acquire(ctx context.Context) (func(), error) {
	r.mu.Lock()
	if err := r.lock.Lock(ctx, r.retry); err != nil {
		r.mu.Unlock()
		return nil, err
	}
	return func() {
		if err := r.lock.Unlock(); err != nil {
			slog.Warn("failed to release repository lock", slog.String("error", err.Error()))
		}
		r.mu.Unlock()
	}, nil
}

func (r *Repository) anchorPath(id string) string {
	return filepath.Join(r.dir, id+anchorExt)
}

func (r *Repository) notFound(id string, err error) error {
	if errors.Is(err, fs.ErrNotExist) {
		return sperrors.New(sperrors.ErrCodeAnchorNotFound,
			fmt.Sprintf("no anchor with id %s", id), err)
	}
	return sperrors.New(sperrors.ErrCodeFilePermission,
		fmt.Sprintf("cannot access anchor %s", id), err)
}

// write stores a under id atomically while holding the repository lock.
func (r *Repository) write(ctx context.Context, id string, a *anchor.Anchor, replace bool) error {
	rel, err := a.ToRelative(r.root)
	if err != nil {
		return sperrors.New(sperrors.ErrCodeInvalidPath,
			fmt.Sprintf("%s is not inside the repository at %s", a.FilePath(), r.root), err)
	}
	data, err := encodeRecord(rel)
	if err != nil {
		return sperrors.InternalError("cannot encode anchor", err)
	}

	unlock, err := r.acquire(ctx)
	if err != nil {
		return err
	}
	defer unlock()

	if replace {
		if _, err := os.Stat(r.anchorPath(id)); err != nil {
			return r.notFound(id, err)
		}
	}

	tmp, err := os.CreateTemp(r.dir, ".tmp-*")
	if err != nil {
		return sperrors.New(sperrors.ErrCodeFilePermission, "cannot write anchor", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return sperrors.New(sperrors.ErrCodeFilePermission, "cannot write anchor", err)
	}
	if err := tmp.Close(); err != nil {
		return sperrors.New(sperrors.ErrCodeFilePermission, "cannot write anchor", err)
	}
	if err := os.Rename(tmpName, r.anchorPath(id)); err != nil {
		return sperrors.New(sperrors.ErrCodeFilePermission, "cannot write anchor", err)
	}

	r.cache.Remove(id)
	slog.Debug("anchor stored",
		slog.String("id", id),
		slog.String("path", rel.FilePath()))
	return nil
}
