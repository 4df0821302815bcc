package cmd

import (
	"fmt"
	"sync"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/spor/internal/relocate"
	"github.com/Aman-CERP/spor/internal/ui"
	"github.com/Aman-CERP/spor/internal/watcher"
)

func (a *app) newWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Relocate anchors whenever their files change",
		Long: `Watch every anchored file and relocate its anchors shortly after it is
saved. Anchors added or removed while watching are picked up. The quiet
period before relocating is watch.debounce in the configuration.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ws, err := openWorkspace()
			if err != nil {
				return err
			}
			debounce, err := ws.Config().WatchDebounce()
			if err != nil {
				return err
			}

			syncer := watcher.NewSyncer(ws.Repository(), ws.Relocator(), watcher.Options{
				DebounceWindow: debounce,
			})

			r := a.renderer(cmd)
			var mu sync.Mutex
			syncer.OnOutcome = func(o relocate.Outcome) {
				mu.Lock()
				defer mu.Unlock()
				if o.Err != nil {
					r.UpdateFailed(o.ID, o.Err)
					return
				}
				r.Success("%s %s:%d synced", o.ID,
					ui.DisplayPath(o.Anchor.FilePath(), ws.Root()), o.Anchor.Context().Offset)
			}

			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Watching anchors in %s (Ctrl+C to stop)\n", ws.Root())
			return syncer.Run(cmd.Context())
		},
	}
}
