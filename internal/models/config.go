package models

// Config contains configuration for building recipes and indexing the
// resulting packages
type Config struct {
	// Directories
	RecipeDir  string `yaml:"recipe_dir"`  // One subdirectory per recipe
	WorkDir    string `yaml:"work_dir"`    // One build directory per recipe
	RepoDir    string `yaml:"repo_dir"`    // Built archives and the index
	InstallLib string `yaml:"install_lib"` // Helpers shared by lifecycle scripts

	// Container images
	ImagePrefix  string `yaml:"image_prefix"`
	DefaultImage string `yaml:"default_image"` // Used for generic tasks such as stripping

	Containerd ContainerdConfig `yaml:"containerd"`

	// Policy for a build directory left over by a previous run:
	// ask, cancel, remove or keep
	OnExisting string `yaml:"on_existing"`

	// Signing of the repository index
	GPGKeyPath    string `yaml:"gpg_key"`
	GPGPassphrase string `yaml:"gpg_passphrase"`
}

// ContainerdConfig locates the container runtime
type ContainerdConfig struct {
	Address     string `yaml:"address"`
	Namespace   string `yaml:"namespace"`
	Snapshotter string `yaml:"snapshotter"`
}

// DefaultConfig returns the configuration used when nothing overrides it
func DefaultConfig() *Config {
	return &Config{
		RecipeDir:    "package",
		WorkDir:      "build/package",
		RepoDir:      "build/repo",
		InstallLib:   "scripts/install-lib",
		ImagePrefix:  "ghcr.io/toltec-dev/",
		DefaultImage: "base:v1.2.2",
		Containerd: ContainerdConfig{
			Address:     "/run/containerd/containerd.sock",
			Namespace:   "toltec",
			Snapshotter: "overlayfs",
		},
		OnExisting: "ask",
	}
}
