package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/toltec-dev/toltecmk/internal/models"
)

func TestParseOverridesDefaults(t *testing.T) {
	cfg, err := Parse([]byte(`
work_dir: /tmp/build
image_prefix: registry.example.com/toltec/
containerd:
  namespace: ci
on_existing: remove
`))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	want := models.DefaultConfig()
	want.WorkDir = "/tmp/build"
	want.ImagePrefix = "registry.example.com/toltec/"
	want.Containerd.Namespace = "ci"
	want.OnExisting = "remove"

	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("Config mismatch (-want +got):\n%s", diff)
	}
}

func TestParseEmpty(t *testing.T) {
	cfg, err := Parse(nil)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if diff := cmp.Diff(models.DefaultConfig(), cfg); diff != "" {
		t.Errorf("Config mismatch (-want +got):\n%s", diff)
	}
}

func TestParseErrors(t *testing.T) {
	tests := map[string]string{
		"unknown key":    "recipes: package\n",
		"bad policy":     "on_existing: sometimes\n",
		"empty required": "repo_dir: \"\"\n",
		"malformed":      "work_dir: [\n",
	}

	for name, input := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := Parse([]byte(input)); err == nil {
				t.Error("Expected an error")
			}
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("repo_dir: out\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.RepoDir != "out" {
		t.Errorf("Expected repo_dir out, got %s", cfg.RepoDir)
	}
}

func TestLoadInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("bogus: true\n"), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := Load(path)

	var buildErr *models.BuildError
	if !errors.As(err, &buildErr) || buildErr.Type != models.ErrInvalidConfig {
		t.Fatalf("Expected an invalid config error, got %v", err)
	}
}

func TestLoadMissingExplicitPath(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Expected an error for a missing explicit configuration file")
	}
}
