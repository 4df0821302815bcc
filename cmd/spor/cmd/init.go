package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/spor/configs"
	"github.com/Aman-CERP/spor/internal/config"
	"github.com/Aman-CERP/spor/internal/repository"
)

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init [dir]",
		Short: "Create a spor repository",
		Long: `Create a .spor directory in dir (default: the current directory).

The directory holds one file per anchor and a config.yaml with repository
settings such as the default context width.`,
		Example: `  # Initialize in the current directory
  spor init

  # Initialize another project
  spor init ~/src/project`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}
			return runInit(cmd, dir)
		},
	}
}

func runInit(cmd *cobra.Command, dir string) error {
	repo, err := repository.Initialize(dir)
	if err != nil {
		return err
	}

	configPath := config.GetRepositoryConfigPath(repo.Root())
	if err := os.WriteFile(configPath, []byte(configs.ProjectConfigTemplate), 0o644); err != nil {
		return fmt.Errorf("failed to write repository config: %w", err)
	}

	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Initialized spor repository in %s\n", repo.Dir())
	return nil
}
