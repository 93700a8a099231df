package cli

import (
	"fmt"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/toltec-dev/toltecmk/internal/builder"
	"github.com/toltec-dev/toltecmk/internal/models"
	"github.com/toltec-dev/toltecmk/internal/utils"
)

// NewBuildCmd creates the build command
func NewBuildCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build RECIPE [PACKAGE...]",
		Short: "Build a recipe into packages",
		Long: `Fetches the sources of a recipe, builds them and creates an archive
for each of the given packages, or for every package declared by the
recipe when none are given. Archives are written to the repository
directory.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, buildOverrides)
			if err != nil {
				return err
			}
			return runBuild(cmd, cfg, args[0], args[1:])
		},
	}

	cmd.Flags().String("recipe-dir", "", "Directory holding one subdirectory per recipe")
	cmd.Flags().String("work-dir", "", "Directory holding build directories")
	cmd.Flags().String("repo-dir", "", "Directory receiving built packages")
	cmd.Flags().String("install-lib", "", "Helper library included in install scripts")
	cmd.Flags().String("on-existing", "", "What to do with an existing build directory: ask, cancel, remove or keep")

	return cmd
}

var buildOverrides = map[string]override{
	"recipe-dir":  func(c *models.Config) *string { return &c.RecipeDir },
	"work-dir":    func(c *models.Config) *string { return &c.WorkDir },
	"repo-dir":    func(c *models.Config) *string { return &c.RepoDir },
	"install-lib": func(c *models.Config) *string { return &c.InstallLib },
	"on-existing": func(c *models.Config) *string { return &c.OnExisting },
}

func runBuild(cmd *cobra.Command, cfg *models.Config, recipeName string, packageNames []string) error {
	// Concurrent builds of one recipe would race on its build directory
	lock, err := utils.AcquireLock(filepath.Join(cfg.WorkDir, "."+recipeName+".lock"))
	if err != nil {
		return &models.BuildError{
			Type:   models.ErrSetup,
			Recipe: recipeName,
			Err:    fmt.Errorf("failed to lock build directory: %w", err),
		}
	}
	defer lock.Release()

	var opts []builder.Option
	if cfg.OnExisting != "ask" {
		answer, err := builder.ParseAnswer(cfg.OnExisting)
		if err != nil {
			return &models.BuildError{Type: models.ErrInvalidConfig, Err: err}
		}
		opts = append(opts, builder.WithPrompter(builder.FixedPrompter{Answer: answer}))
	}

	b, err := builder.New(cfg, opts...)
	if err != nil {
		return err
	}
	defer b.Close()

	ok, err := b.Make(cmd.Context(), recipeName, packageNames)
	if err != nil {
		return err
	}

	if !ok {
		logrus.Infof("Build of %s cancelled", recipeName)
		return nil
	}

	logrus.Infof("Built %s, packages are in %s", recipeName, cfg.RepoDir)
	return nil
}
