package cmd

import (
	"github.com/spf13/cobra"

	"github.com/Aman-CERP/spor/internal/ui"
)

func (a *app) newListCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List anchors",
		Long:  `List every anchor as "<id> <path>:<offset> => <metadata>", sorted by id.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ws, err := openWorkspace()
			if err != nil {
				return err
			}
			items, err := ws.Items()
			if err != nil {
				return err
			}

			views := make([]ui.AnchorView, len(items))
			for i, it := range items {
				views[i] = ui.NewAnchorView(it.ID, it.Anchor, ws.Root())
			}

			r := a.renderer(cmd)
			if jsonOutput {
				return r.JSON(views)
			}
			r.List(views)
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func (a *app) newDetailsCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "details <id-prefix>",
		Short: "Show one anchor in full",
		Long: `Show an anchor's location, metadata and stored text. Lines of the
context are prefixed with B> (before), T> (topic) and A> (after).`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := openWorkspace()
			if err != nil {
				return err
			}
			item, err := ws.Find(args[0])
			if err != nil {
				return err
			}

			view := ui.NewAnchorView(item.ID, item.Anchor, ws.Root())
			r := a.renderer(cmd)
			if jsonOutput {
				return r.JSON(view)
			}
			r.Details(view)
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func (a *app) newDiffCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "diff <id-prefix>",
		Short: "Show how an anchored file changed since the anchor was stored",
		Long: `Print a context diff between the anchor's stored text and the text now
found at the same offset. Nothing is printed when they match.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := openWorkspace()
			if err != nil {
				return err
			}
			_, lines, err := ws.Diff(args[0])
			if err != nil {
				return err
			}
			a.renderer(cmd).Diff(lines)
			return nil
		},
	}
}

func (a *app) newStatusCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "List anchors whose files have changed",
		Long: `Print "<id> <path>:<offset> out-of-date" for every anchor whose file no
longer holds the stored text at the stored offset. Run 'spor update' to
relocate them.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ws, err := openWorkspace()
			if err != nil {
				return err
			}
			statuses, err := ws.Status(cmd.Context())
			if err != nil {
				return err
			}

			views := make([]ui.StatusView, len(statuses))
			for i, st := range statuses {
				views[i] = ui.NewStatusView(st.ID, st.Anchor, st.Changed, st.Err, ws.Root())
			}

			r := a.renderer(cmd)
			if jsonOutput {
				return r.JSON(views)
			}
			r.Status(views)
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func (a *app) newRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "remove <id-prefix>",
		Aliases: []string{"rm"},
		Short:   "Delete an anchor",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := openWorkspace()
			if err != nil {
				return err
			}
			id, err := ws.Remove(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			a.renderer(cmd).Success("Removed anchor %s", id)
			return nil
		},
	}
}
