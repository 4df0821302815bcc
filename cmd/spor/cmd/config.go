package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/Aman-CERP/spor/configs"
	"github.com/Aman-CERP/spor/internal/config"
	sperrors "github.com/Aman-CERP/spor/internal/errors"
	"github.com/Aman-CERP/spor/internal/repository"
)

func (a *app) newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration",
		Long: `Show and create spor configuration.

Configuration precedence (lowest to highest):
  1. Hardcoded defaults
  2. User config (~/.config/spor/config.yaml)
  3. Repository config (.spor/config.yaml)
  4. Environment variables (SPOR_*)`,
		Example: `  # Create user config from template
  spor config init

  # Show effective configuration
  spor config show

  # Print user config file path
  spor config path`,
	}

	cmd.AddCommand(a.newConfigShowCmd())
	cmd.AddCommand(a.newConfigInitCmd())
	cmd.AddCommand(newConfigPathCmd())
	return cmd
}

func (a *app) newConfigShowCmd() *cobra.Command {
	var (
		jsonOutput bool
		source     string
	)

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfigSource(source)
			if err != nil {
				return err
			}
			if jsonOutput {
				return a.renderer(cmd).JSON(cfg)
			}
			data, err := yaml.Marshal(cfg)
			if err != nil {
				return fmt.Errorf("failed to marshal config: %w", err)
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	cmd.Flags().StringVar(&source, "source", "merged", "Config source: merged, user, repository, defaults")
	return cmd
}

// loadConfigSource returns the configuration from one layer, or all merged.
func loadConfigSource(source string) (*config.Config, error) {
	root, _ := repository.FindRoot(".")

	switch source {
	case "merged":
		cfg, err := config.Load(root)
		if err != nil {
			return nil, sperrors.ConfigError(err.Error(), err)
		}
		return cfg, nil
	case "defaults":
		return config.NewConfig(), nil
	case "user":
		cfg, err := config.LoadUserConfig()
		if err != nil {
			return nil, sperrors.ConfigError(err.Error(), err)
		}
		if cfg == nil {
			return nil, sperrors.New(sperrors.ErrCodeConfigNotFound, "no user configuration", nil).
				WithDetail("path", config.GetUserConfigPath()).
				WithSuggestion("Run 'spor config init' to create one")
		}
		return cfg, nil
	case "repository":
		if root == "" {
			return nil, sperrors.New(sperrors.ErrCodeRepoNotFound, "no spor repository found", nil).
				WithSuggestion("Run 'spor init' in the project root")
		}
		path := config.GetRepositoryConfigPath(root)
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, sperrors.New(sperrors.ErrCodeConfigNotFound, "no repository configuration", err).
				WithDetail("path", path)
		}
		var cfg config.Config
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, sperrors.New(sperrors.ErrCodeConfigInvalid,
				fmt.Sprintf("failed to parse %s", path), err)
		}
		return &cfg, nil
	default:
		return nil, sperrors.ValidationError(
			fmt.Sprintf("unknown config source %q (want merged, user, repository or defaults)", source), nil)
	}
}

func (a *app) newConfigInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create the user configuration file",
		Long: `Create the user configuration file from a template. With --force an
existing file is backed up next to itself and replaced.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			r := a.renderer(cmd)
			path := config.GetUserConfigPath()

			if config.UserConfigExists() {
				if !force {
					r.Warning("User configuration already exists: %s", path)
					r.Warning("Use --force to replace it (a backup is kept)")
					return nil
				}
				backup, err := config.BackupFile(path)
				if err != nil {
					return sperrors.ConfigError(err.Error(), err)
				}
				r.Success("Backed up %s", backup)
			}

			if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
				return sperrors.ConfigError("failed to create config directory", err)
			}
			if err := os.WriteFile(path, []byte(configs.UserConfigTemplate), 0o644); err != nil {
				return sperrors.ConfigError("failed to write config file", err)
			}
			r.Success("Created user configuration: %s", path)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Replace an existing configuration")
	return cmd
}

func newConfigPathCmd() *cobra.Command {
	var repo bool

	cmd := &cobra.Command{
		Use:   "path",
		Short: "Print the config file path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !repo {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), config.GetUserConfigPath())
				return nil
			}
			root, err := repository.FindRoot(".")
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), config.GetRepositoryConfigPath(root))
			return nil
		},
	}

	cmd.Flags().BoolVar(&repo, "repository", false, "Print the repository config path instead")
	return cmd
}
