package cmd

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	sperrors "github.com/Aman-CERP/spor/internal/errors"
	"github.com/Aman-CERP/spor/internal/workspace"
)

// metadataTemplate seeds the editor buffer. Comment lines are ignored by YAML.
const metadataTemplate = `# Enter the anchor's metadata as YAML, then save and quit.
# An empty file stores no metadata.
`

func (a *app) newAddCmd() *cobra.Command {
	var (
		contextWidth int
		encoding     string
		metadata     string
	)

	cmd := &cobra.Command{
		Use:   "add <file> <offset> <width>",
		Short: "Anchor metadata to a span of a file",
		Long: `Create an anchor over width characters starting at offset in file.

Metadata is YAML. It is taken from --metadata if given, otherwise read from
stdin. When stdin is a terminal, $VISUAL or $EDITOR is opened to write it.`,
		Example: `  # Anchor the 12 characters at offset 40
  spor add README.md 40 12 --metadata 'note: check this'

  # Read metadata from a file
  spor add main.go 100 20 < review.yml`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			offset, err := parseCount("offset", args[1])
			if err != nil {
				return err
			}
			width, err := parseCount("width", args[2])
			if err != nil {
				return err
			}

			opts := workspace.AnchorOptions{Encoding: encoding}
			if cmd.Flags().Changed("context-width") {
				if contextWidth < 0 {
					return sperrors.ValidationError("context width must not be negative", nil)
				}
				opts.ContextWidth = &contextWidth
			}

			source := metadataSource{
				flag:    metadata,
				flagSet: cmd.Flags().Changed("metadata"),
				stdin:   cmd.InOrStdin(),
			}
			opts.Metadata, err = source.read()
			if err != nil {
				return err
			}

			ws, err := openWorkspace()
			if err != nil {
				return err
			}
			item, err := ws.Add(cmd.Context(), args[0], offset, width, opts)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), item.ID)
			return nil
		},
	}

	cmd.Flags().IntVar(&contextWidth, "context-width", 0, "Characters of context stored on each side (default from config)")
	cmd.Flags().StringVar(&encoding, "encoding", "", "Encoding of the file (default from config)")
	cmd.Flags().StringVar(&metadata, "metadata", "", "Metadata as YAML")

	return cmd
}

func parseCount(name, value string) (int, error) {
	n, err := strconv.Atoi(value)
	if err != nil || n < 0 {
		return 0, sperrors.ValidationError(
			fmt.Sprintf("%s must be a non-negative integer, got %q", name, value), err)
	}
	return n, nil
}

// metadataSource picks where anchor metadata comes from.
type metadataSource struct {
	flag    string
	flagSet bool
	stdin   io.Reader
}

func (s metadataSource) read() (any, error) {
	if s.flagSet {
		return parseMetadata([]byte(s.flag))
	}
	if isTerminal(s.stdin) {
		data, err := editMetadata()
		if err != nil {
			return nil, err
		}
		return parseMetadata(data)
	}
	data, err := io.ReadAll(s.stdin)
	if err != nil {
		return nil, sperrors.IOError("failed to read metadata from stdin", err)
	}
	return parseMetadata(data)
}

// parseMetadata decodes YAML metadata. Blank input means no metadata.
func parseMetadata(data []byte) (any, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}
	var md any
	if err := yaml.Unmarshal(data, &md); err != nil {
		return nil, sperrors.ValidationError("metadata is not valid YAML", err).
			WithSuggestion("Check indentation and quoting")
	}
	return md, nil
}

func isTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// editMetadata opens the user's editor on a temporary file and returns what
// was saved.
func editMetadata() ([]byte, error) {
	editor := os.Getenv("VISUAL")
	if editor == "" {
		editor = os.Getenv("EDITOR")
	}
	if editor == "" {
		editor = "vi"
	}

	f, err := os.CreateTemp("", "spor-metadata-*.yml")
	if err != nil {
		return nil, sperrors.IOError("failed to create metadata file", err)
	}
	path := f.Name()
	defer func() { _ = os.Remove(path) }()

	_, err = f.WriteString(metadataTemplate)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return nil, sperrors.IOError("failed to write metadata file", err)
	}

	fields := strings.Fields(editor)
	c := exec.Command(fields[0], append(fields[1:], path)...)
	c.Stdin, c.Stdout, c.Stderr = os.Stdin, os.Stdout, os.Stderr
	if err := c.Run(); err != nil {
		return nil, sperrors.New(sperrors.ErrCodeInvalidInput,
			fmt.Sprintf("editor %q failed", editor), err).
			WithSuggestion("Pass metadata with --metadata or on stdin")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, sperrors.IOError("failed to read metadata file", err)
	}
	return data, nil
}
