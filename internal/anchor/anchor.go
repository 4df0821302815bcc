// Package anchor defines the anchor model: a topic span in a file, the text
// around it, and arbitrary user metadata attached to it.
package anchor

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// DefaultEncoding is used when an anchor does not name one.
const DefaultEncoding = "utf-8"

// PathKind tells whether an anchor's file path is absolute or relative to a
// repository root.
type PathKind uint8

const (
	// Absolute paths are used by anchors handed to callers.
	Absolute PathKind = iota
	// Relative paths are used by anchors at rest in a repository.
	Relative
)

func (k PathKind) String() string {
	if k == Relative {
		return "relative"
	}
	return "absolute"
}

// ErrInvalidPath is returned when a path does not match its declared kind.
var ErrInvalidPath = errors.New("invalid anchor path")

// Anchor attaches metadata to a topic in a file.
//
// Anchors are values: relocation and path conversion return new anchors.
type Anchor struct {
	filePath string
	kind     PathKind
	encoding string
	context  Context
	metadata any
}

// New creates an anchor, validating that filePath matches kind.
// An empty encoding defaults to utf-8. The metadata is deep-copied.
func New(kind PathKind, filePath string, ctx Context, metadata any, encoding string) (*Anchor, error) {
	if err := checkPath(kind, filePath); err != nil {
		return nil, err
	}
	if encoding == "" {
		encoding = DefaultEncoding
	}
	return &Anchor{
		filePath: filepath.Clean(filePath),
		kind:     kind,
		encoding: encoding,
		context:  ctx,
		metadata: cloneMetadata(metadata),
	}, nil
}

func checkPath(kind PathKind, p string) error {
	if p == "" {
		return fmt.Errorf("%w: empty path", ErrInvalidPath)
	}
	switch kind {
	case Absolute:
		if !filepath.IsAbs(p) {
			return fmt.Errorf("%w: %s is not absolute", ErrInvalidPath, p)
		}
	case Relative:
		if filepath.IsAbs(p) {
			return fmt.Errorf("%w: %s is not relative", ErrInvalidPath, p)
		}
	default:
		return fmt.Errorf("%w: unknown path kind %d", ErrInvalidPath, kind)
	}
	return nil
}

// FilePath returns the anchored file's path.
func (a *Anchor) FilePath() string { return a.filePath }

// Kind returns the path kind.
func (a *Anchor) Kind() PathKind { return a.kind }

// Encoding returns the file's text encoding label.
func (a *Anchor) Encoding() string { return a.encoding }

// Context returns the stored context.
func (a *Anchor) Context() Context { return a.context }

// Metadata returns a copy of the anchor's metadata.
func (a *Anchor) Metadata() any { return cloneMetadata(a.metadata) }

// WithContext returns a copy of the anchor holding ctx.
func (a *Anchor) WithContext(ctx Context) *Anchor {
	return &Anchor{
		filePath: a.filePath,
		kind:     a.kind,
		encoding: a.encoding,
		context:  ctx,
		metadata: cloneMetadata(a.metadata),
	}
}

// ToRelative returns a copy of an absolute anchor with its path made relative
// to root. Paths outside root are rejected.
func (a *Anchor) ToRelative(root string) (*Anchor, error) {
	if a.kind == Relative {
		return a.WithContext(a.context), nil
	}
	rel, err := filepath.Rel(root, a.filePath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPath, err)
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return nil, fmt.Errorf("%w: %s is outside %s", ErrInvalidPath, a.filePath, root)
	}
	return New(Relative, rel, a.context, a.metadata, a.encoding)
}

// ToAbsolute returns a copy of a relative anchor with its path joined to root.
func (a *Anchor) ToAbsolute(root string) (*Anchor, error) {
	if a.kind == Absolute {
		return a.WithContext(a.context), nil
	}
	return New(Absolute, filepath.Join(root, a.filePath), a.context, a.metadata, a.encoding)
}
