package cli

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/toltec-dev/toltecmk/internal/config"
	"github.com/toltec-dev/toltecmk/internal/models"
)

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "toltecmk",
		Short: "Build ipk packages from toltec recipes",
		Long: `Toltecmk builds recipes into opkg packages and indexes the resulting
package feed.

Each recipe lives in its own directory holding a Bash file named
"package", which declares the metadata of one or more packages and the
steps needed to build them. Build steps run inside containers managed by
containerd.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Setup logging
			verbose, _ := cmd.Flags().GetBool("verbose")
			if verbose {
				logrus.SetLevel(logrus.DebugLevel)
			} else {
				logrus.SetLevel(logrus.InfoLevel)
			}
		},
	}

	// Global flags
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringP("config", "c", "", "Path to the configuration file (default $XDG_CONFIG_HOME/"+config.RelPath+")")

	// Add subcommands
	rootCmd.AddCommand(NewBuildCmd())
	rootCmd.AddCommand(NewIndexCmd())

	return rootCmd
}

// override points a command line flag at the configuration value it replaces
type override func(cfg *models.Config) *string

// loadConfig loads the configuration file and applies the command line
// flags that were explicitly set
func loadConfig(cmd *cobra.Command, overrides map[string]override) (*models.Config, error) {
	path, _ := cmd.Flags().GetString("config")

	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	for flag, field := range overrides {
		if !cmd.Flags().Changed(flag) {
			continue
		}
		value, _ := cmd.Flags().GetString(flag)
		*field(cfg) = value
	}

	if err := config.Validate(cfg); err != nil {
		return nil, &models.BuildError{Type: models.ErrInvalidConfig, Err: err}
	}

	logrus.Debugf("Recipes in %s, building in %s, packages in %s", cfg.RecipeDir, cfg.WorkDir, cfg.RepoDir)
	return cfg, nil
}
