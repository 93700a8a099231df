package cli

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/toltec-dev/toltecmk/internal/generator/opkg"
	"github.com/toltec-dev/toltecmk/internal/models"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadConfigOverrides(t *testing.T) {
	path := writeConfig(t, "work_dir: /from/file\nrepo_dir: /from/file/repo\n")

	cmd := &cobra.Command{}
	cmd.Flags().String("config", "", "")
	cmd.Flags().String("work-dir", "", "")
	cmd.Flags().String("repo-dir", "", "")

	if err := cmd.Flags().Set("config", path); err != nil {
		t.Fatal(err)
	}
	if err := cmd.Flags().Set("repo-dir", "/from/flag"); err != nil {
		t.Fatal(err)
	}

	cfg, err := loadConfig(cmd, buildOverrides)
	if err != nil {
		t.Fatalf("loadConfig failed: %v", err)
	}

	if cfg.RepoDir != "/from/flag" {
		t.Errorf("Expected flag to override repo_dir, got %s", cfg.RepoDir)
	}
	if cfg.WorkDir != "/from/file" {
		t.Errorf("Unset flag should keep work_dir from file, got %s", cfg.WorkDir)
	}
	if cfg.RecipeDir != models.DefaultConfig().RecipeDir {
		t.Errorf("Expected default recipe_dir, got %s", cfg.RecipeDir)
	}
}

func TestLoadConfigInvalidOverride(t *testing.T) {
	path := writeConfig(t, "")

	cmd := &cobra.Command{}
	cmd.Flags().String("config", "", "")
	cmd.Flags().String("on-existing", "", "")
	cmd.Flags().Set("config", path)
	cmd.Flags().Set("on-existing", "overwrite")

	_, err := loadConfig(cmd, buildOverrides)

	var buildErr *models.BuildError
	if !errors.As(err, &buildErr) || buildErr.Type != models.ErrInvalidConfig {
		t.Errorf("Expected an invalid configuration error, got %v", err)
	}
}

func TestIndexCommand(t *testing.T) {
	repoDir := t.TempDir()
	path := writeConfig(t, "repo_dir: "+repoDir+"\n")

	cmd := NewRootCmd()
	cmd.SetArgs([]string{"index", "--config", path})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("index failed: %v", err)
	}

	for _, name := range []string{opkg.PackagesFile, opkg.PackagesGzFile} {
		if _, err := os.Stat(filepath.Join(repoDir, name)); err != nil {
			t.Errorf("Expected %s to be written: %v", name, err)
		}
	}
	if _, err := os.Stat(filepath.Join(repoDir, opkg.PackagesSigFile)); !os.IsNotExist(err) {
		t.Errorf("Unsigned index should have no signature")
	}
}

func TestIndexCommandMissingKey(t *testing.T) {
	repoDir := t.TempDir()
	path := writeConfig(t, "")

	cmd := NewRootCmd()
	cmd.SetArgs([]string{"index", "--config", path, "--repo-dir", repoDir, "--gpg-key", filepath.Join(repoDir, "missing.asc")})
	cmd.SetErr(io.Discard)

	err := cmd.Execute()

	var buildErr *models.BuildError
	if !errors.As(err, &buildErr) || buildErr.Type != models.ErrIndex {
		t.Errorf("Expected an index error, got %v", err)
	}
}
