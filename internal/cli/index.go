package cli

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/toltec-dev/toltecmk/internal/generator/opkg"
	"github.com/toltec-dev/toltecmk/internal/models"
	"github.com/toltec-dev/toltecmk/internal/signer"
)

// NewIndexCmd creates the index command
func NewIndexCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "index",
		Short: "Generate the package feed index",
		Long: `Scans the repository directory for built packages and writes the
Packages and Packages.gz index files of the feed. When a GPG key is
configured, a detached signature is written to Packages.sig.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, indexOverrides)
			if err != nil {
				return err
			}
			return runIndex(cmd, cfg)
		},
	}

	cmd.Flags().String("repo-dir", "", "Directory holding built packages")
	cmd.Flags().StringP("gpg-key", "k", "", "Path to GPG private key")
	cmd.Flags().StringP("gpg-passphrase", "p", "", "GPG key passphrase")

	return cmd
}

var indexOverrides = map[string]override{
	"repo-dir":       func(c *models.Config) *string { return &c.RepoDir },
	"gpg-key":        func(c *models.Config) *string { return &c.GPGKeyPath },
	"gpg-passphrase": func(c *models.Config) *string { return &c.GPGPassphrase },
}

func runIndex(cmd *cobra.Command, cfg *models.Config) error {
	var s signer.Signer

	if cfg.GPGKeyPath != "" {
		gpgSigner, err := signer.NewGPGSigner(cfg.GPGKeyPath, cfg.GPGPassphrase)
		if err != nil {
			return &models.BuildError{
				Type: models.ErrIndex,
				Err:  fmt.Errorf("failed to initialize GPG signer: %w", err),
			}
		}
		s = gpgSigner
		logrus.Info("GPG signer initialized")
	}

	packages, err := opkg.NewGenerator(s).Generate(cmd.Context(), cfg.RepoDir)
	if err != nil {
		return &models.BuildError{Type: models.ErrIndex, Err: err}
	}

	if len(packages) == 0 {
		logrus.Warnf("No packages found in %s", cfg.RepoDir)
	}

	return nil
}
