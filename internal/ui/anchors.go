package ui

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/Aman-CERP/spor/internal/anchor"
)

// AnchorView is an anchor as shown to users and emitted by --json.
type AnchorView struct {
	ID       string         `json:"id"`
	Path     string         `json:"path"`
	Encoding string         `json:"encoding"`
	Context  anchor.Context `json:"context"`
	Metadata any            `json:"metadata"`
}

// NewAnchorView builds a view of a with its path shown relative to root when
// it lies inside it.
func NewAnchorView(id string, a *anchor.Anchor, root string) AnchorView {
	return AnchorView{
		ID:       id,
		Path:     DisplayPath(a.FilePath(), root),
		Encoding: a.Encoding(),
		Context:  a.Context(),
		Metadata: jsonSafe(a.Metadata()),
	}
}

// DisplayPath returns path relative to root, or path unchanged if it is
// outside root.
func DisplayPath(path, root string) string {
	if root == "" {
		return path
	}
	rel, err := filepath.Rel(root, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return path
	}
	return rel
}

// StatusView is the state of one anchor for "spor status".
type StatusView struct {
	ID     string `json:"id"`
	Path   string `json:"path"`
	Offset int    `json:"offset"`
	State  string `json:"state"`
	Error  string `json:"error,omitempty"`
}

// NewStatusView builds the status of one anchor. err wins over changed.
func NewStatusView(id string, a *anchor.Anchor, changed bool, err error, root string) StatusView {
	v := StatusView{
		ID:     id,
		Path:   DisplayPath(a.FilePath(), root),
		Offset: a.Context().Offset,
		State:  StateCurrent,
	}
	switch {
	case err != nil:
		v.State = StateError
		v.Error = err.Error()
	case changed:
		v.State = StateOutOfDate
	}
	return v
}

// Anchor states reported by StatusView.
const (
	StateCurrent   = "current"
	StateOutOfDate = "out-of-date"
	StateError     = "error"
)

// Renderer writes command output.
type Renderer struct {
	out     io.Writer
	styles  Styles
	noColor bool
}

// NewRenderer creates a renderer writing to out.
func NewRenderer(out io.Writer, noColor bool) *Renderer {
	return &Renderer{out: out, styles: GetStyles(noColor), noColor: noColor}
}

// List prints one "<id> <path>:<offset> => <metadata>" line per anchor.
func (r *Renderer) List(views []AnchorView) {
	for _, v := range views {
		_, _ = fmt.Fprintf(r.out, "%s %s:%d => %s\n",
			r.paint(r.styles.ID, v.ID),
			r.paint(r.styles.Path, v.Path),
			v.Context.Offset,
			formatMetadata(v.Metadata))
	}
}

// Details prints every field of one anchor. Context lines are prefixed with
// B>, T> and A> for before, topic and after.
func (r *Renderer) Details(v AnchorView) {
	label := func(s string) string { return r.paint(r.styles.Label, s) }
	_, _ = fmt.Fprintf(r.out, "%s %s\n", label("id:"), v.ID)
	_, _ = fmt.Fprintf(r.out, "%s %s\n", label("path:"), r.paint(r.styles.Path, v.Path))
	_, _ = fmt.Fprintf(r.out, "%s %s\n", label("encoding:"), v.Encoding)
	_, _ = fmt.Fprintf(r.out, "%s %d\n", label("offset:"), v.Context.Offset)
	_, _ = fmt.Fprintf(r.out, "%s %d\n", label("width:"), v.Context.Width)
	_, _ = fmt.Fprintf(r.out, "%s %s\n", label("metadata:"), formatMetadata(v.Metadata))
	_, _ = fmt.Fprintln(r.out)

	r.prefixed("B> ", v.Context.Before, r.styles.Dim)
	r.prefixed("T> ", v.Context.Topic, r.styles.Topic)
	r.prefixed("A> ", v.Context.After, r.styles.Dim)
}

func (r *Renderer) prefixed(prefix, text string, style lipgloss.Style) {
	if text == "" {
		return
	}
	for _, line := range strings.Split(strings.TrimSuffix(text, "\n"), "\n") {
		_, _ = fmt.Fprintln(r.out, prefix+r.paint(style, line))
	}
}

// Status prints out-of-date and failing anchors. Current anchors are silent.
func (r *Renderer) Status(views []StatusView) {
	for _, v := range views {
		switch v.State {
		case StateOutOfDate:
			_, _ = fmt.Fprintf(r.out, "%s %s:%d %s\n",
				r.paint(r.styles.ID, v.ID), v.Path, v.Offset, r.paint(r.styles.Warning, StateOutOfDate))
		case StateError:
			_, _ = fmt.Fprintf(r.out, "%s %s:%d %s\n",
				r.paint(r.styles.ID, v.ID), v.Path, v.Offset, r.paint(r.styles.Error, "error: "+v.Error))
		}
	}
}

// Diff writes diff lines as they are, coloring changed lines.
func (r *Renderer) Diff(lines []string) {
	for _, line := range lines {
		switch {
		case strings.HasPrefix(line, "! "), strings.HasPrefix(line, "- "):
			_, _ = io.WriteString(r.out, r.paint(r.styles.Warning, strings.TrimSuffix(line, "\n"))+"\n")
		case strings.HasPrefix(line, "+ "):
			_, _ = io.WriteString(r.out, r.paint(r.styles.Success, strings.TrimSuffix(line, "\n"))+"\n")
		default:
			_, _ = io.WriteString(r.out, line)
		}
	}
}

// UpdateFailed prints the message for an anchor that could not be relocated.
func (r *Renderer) UpdateFailed(id string, err error) {
	_, _ = fmt.Fprintf(r.out, "Unable to update anchor %s. Reason: %v\n", id, err)
}

// Updated prints a relocated anchor's new position.
func (r *Renderer) Updated(id, path string, oldOffset, newOffset int) {
	if oldOffset == newOffset {
		return
	}
	_, _ = fmt.Fprintf(r.out, "%s %s:%d -> %d\n", r.paint(r.styles.ID, id), path, oldOffset, newOffset)
}

// Success prints a confirmation line.
func (r *Renderer) Success(format string, args ...any) {
	_, _ = fmt.Fprintln(r.out, r.paint(r.styles.Success, fmt.Sprintf(format, args...)))
}

// Warning prints a warning line.
func (r *Renderer) Warning(format string, args ...any) {
	_, _ = fmt.Fprintln(r.out, r.paint(r.styles.Warning, fmt.Sprintf(format, args...)))
}

// JSON writes v as indented JSON.
func (r *Renderer) JSON(v any) error {
	encoder := json.NewEncoder(r.out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

// paint renders s with style. Unstyled output is passed through untouched so
// tabs and trailing spaces in anchored text survive.
func (r *Renderer) paint(style lipgloss.Style, s string) string {
	if r.noColor {
		return s
	}
	return style.Render(s)
}

func formatMetadata(md any) string {
	if md == nil {
		return "null"
	}
	data, err := json.Marshal(md)
	if err != nil {
		return fmt.Sprintf("%v", md)
	}
	return string(data)
}

// jsonSafe converts map[any]any values, which YAML can produce and JSON
// cannot encode, into map[string]any.
func jsonSafe(v any) any {
	switch t := v.(type) {
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[fmt.Sprint(k)] = jsonSafe(val)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = jsonSafe(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = jsonSafe(val)
		}
		return out
	default:
		return v
	}
}
