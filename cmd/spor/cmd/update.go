package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	sperrors "github.com/Aman-CERP/spor/internal/errors"
	"github.com/Aman-CERP/spor/internal/ui"
)

func (a *app) newUpdateCmd() *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "update",
		Short: "Relocate every anchor in its current file",
		Long: `Find each anchor's text in the current version of its file and save the
new location. Anchors that cannot be found are reported and left as they
are; the command then exits with a non-zero status.`,
		Example: `  # Relocate and save
  spor update

  # Show where anchors would move without saving
  spor update --dry-run`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ws, err := openWorkspace()
			if err != nil {
				return err
			}
			results, err := ws.Update(cmd.Context(), dryRun)
			if err != nil {
				return err
			}

			r := a.renderer(cmd)
			failed := 0
			for _, res := range results {
				if res.Err != nil {
					failed++
					r.UpdateFailed(res.ID, res.Err)
					continue
				}
				r.Updated(res.ID, ui.DisplayPath(res.Path, ws.Root()), res.OldOffset, res.NewOffset)
			}

			slog.Info("update finished",
				slog.Int("anchors", len(results)),
				slog.Int("failed", failed),
				slog.Bool("dry_run", dryRun))

			if failed > 0 {
				return sperrors.New(sperrors.ErrCodeRelocationFailed,
					fmt.Sprintf("%d of %d anchors could not be updated", failed, len(results)), nil)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Report new locations without saving them")
	return cmd
}
