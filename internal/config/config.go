// Package config loads the toltecmk configuration file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/adrg/xdg"
	"github.com/sirupsen/logrus"
	"github.com/toltec-dev/toltecmk/internal/models"
	"gopkg.in/yaml.v3"
)

// RelPath locates the configuration file below the XDG config directories
const RelPath = "toltecmk/config.yaml"

// Stale build directory policies
var onExistingPolicies = map[string]bool{
	"ask":    true,
	"cancel": true,
	"remove": true,
	"keep":   true,
}

// Load reads the configuration at path on top of the defaults. When path is
// empty, the XDG config directories are searched and a missing file means
// defaults only.
func Load(path string) (*models.Config, error) {
	if path == "" {
		found, err := xdg.SearchConfigFile(RelPath)
		if err != nil {
			logrus.Debugf("No configuration file found, using defaults")
			return models.DefaultConfig(), nil
		}
		path = found
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &models.BuildError{
			Type: models.ErrInvalidConfig,
			Err:  fmt.Errorf("failed to read configuration: %w", err),
		}
	}

	logrus.Debugf("Loading configuration from %s", path)

	cfg, err := Parse(data)
	if err != nil {
		return nil, &models.BuildError{
			Type: models.ErrInvalidConfig,
			Err:  fmt.Errorf("%s: %w", path, err),
		}
	}

	return cfg, nil
}

// Parse decodes YAML configuration on top of the defaults. Unknown keys are
// rejected.
func Parse(data []byte) (*models.Config, error) {
	cfg := models.DefaultConfig()

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)

	if err := decoder.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks a configuration for missing or invalid values
func Validate(cfg *models.Config) error {
	required := []struct {
		name  string
		value string
	}{
		{"recipe_dir", cfg.RecipeDir},
		{"work_dir", cfg.WorkDir},
		{"repo_dir", cfg.RepoDir},
		{"install_lib", cfg.InstallLib},
		{"default_image", cfg.DefaultImage},
		{"containerd.address", cfg.Containerd.Address},
		{"containerd.namespace", cfg.Containerd.Namespace},
	}

	for _, field := range required {
		if field.value == "" {
			return fmt.Errorf("%s must not be empty", field.name)
		}
	}

	if !onExistingPolicies[cfg.OnExisting] {
		return fmt.Errorf("on_existing must be one of ask, cancel, remove or keep, got %q", cfg.OnExisting)
	}

	return nil
}
