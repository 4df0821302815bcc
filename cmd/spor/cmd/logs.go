package cmd

import (
	"fmt"
	"regexp"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/spor/internal/logging"
	"github.com/Aman-CERP/spor/internal/ui"
)

func (a *app) newLogsCmd() *cobra.Command {
	var (
		follow  bool
		lines   int
		level   string
		filter  string
		logFile string
	)

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "View spor logs",
		Long: `Show the last lines of ~/.local/state/spor/logs/spor.log. Use -f to
follow new entries, which is handy while 'spor serve' or 'spor watch' runs.`,
		Example: `  spor logs                  # Show last 50 lines
  spor logs -n 200           # Show last 200 lines
  spor logs -f               # Follow in real time
  spor logs --level warn     # Only warnings and errors
  spor logs --filter update  # Only lines matching a pattern`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, err := logging.FindLogFile(logFile)
			if err != nil {
				return err
			}

			var pattern *regexp.Regexp
			if filter != "" {
				pattern, err = regexp.Compile(filter)
				if err != nil {
					return fmt.Errorf("invalid filter pattern: %w", err)
				}
			}

			viewer := logging.NewViewer(logging.ViewerConfig{
				Level:   level,
				Pattern: pattern,
				NoColor: a.noColor || !ui.UseColor(cmd.OutOrStdout()),
			}, cmd.OutOrStdout())

			entries, err := viewer.Tail(path, lines)
			if err != nil {
				return err
			}
			viewer.Print(entries)
			if !follow {
				return nil
			}

			_, _ = fmt.Fprintln(cmd.ErrOrStderr(), "Following... (Ctrl+C to stop)")
			ch := make(chan logging.LogEntry, 64)
			errCh := make(chan error, 1)
			go func() {
				errCh <- viewer.Follow(cmd.Context(), path, ch)
				close(ch)
			}()
			for entry := range ch {
				viewer.Print([]logging.LogEntry{entry})
			}
			return <-errCh
		},
	}

	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Follow log output (like tail -f)")
	cmd.Flags().IntVarP(&lines, "lines", "n", 50, "Number of lines to show")
	cmd.Flags().StringVar(&level, "level", "", "Minimum level (debug|info|warn|error)")
	cmd.Flags().StringVar(&filter, "filter", "", "Only show lines matching this regex")
	cmd.Flags().StringVar(&logFile, "file", "", "Path to log file")
	return cmd
}
