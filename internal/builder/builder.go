// Package builder turns recipes into package archives.
//
// A build fetches the sources of a recipe, runs its prepare step on the
// host, its build step inside the recipe's container image, strips the
// resulting binaries and finally packages and archives each requested
// package. Stages run strictly in sequence and the first failure aborts the
// build.
package builder

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/toltec-dev/toltecmk/internal/bash"
	"github.com/toltec-dev/toltecmk/internal/container"
	"github.com/toltec-dev/toltecmk/internal/ipk"
	"github.com/toltec-dev/toltecmk/internal/models"
	"github.com/toltec-dev/toltecmk/internal/recipe"
	"github.com/toltec-dev/toltecmk/internal/utils"
)

// HostRunner runs scripts on the build machine
type HostRunner interface {
	Run(ctx context.Context, script string, vars *bash.Variables, out bash.LineFunc) error
}

// ContainerRunner runs scripts inside a container image
type ContainerRunner interface {
	Run(ctx context.Context, image string, mounts []container.Mount, vars *bash.Variables, script string, out bash.LineFunc) error
}

// Fetcher downloads remote source files
type Fetcher interface {
	Fetch(ctx context.Context, url string) (int, io.ReadCloser, error)
}

// ArchiveWriter writes the archive of a staged package tree to w
type ArchiveWriter func(w io.Writer, epoch int64, pkgDir, metadata string, scripts map[string]string) error

// Builder builds recipes. It is meant for sequential use only.
type Builder struct {
	config     *models.Config
	installLib string

	host      HostRunner
	container ContainerRunner
	fetcher   Fetcher
	prompter  Prompter
	writer    ArchiveWriter

	// Closed along with the builder when the container runner is owned
	closer io.Closer
}

// Option configures a Builder
type Option func(*Builder)

// WithHostRunner replaces the runner used for host steps
func WithHostRunner(r HostRunner) Option {
	return func(b *Builder) { b.host = r }
}

// WithContainerRunner replaces the containerd-backed runner
func WithContainerRunner(r ContainerRunner) Option {
	return func(b *Builder) { b.container = r }
}

// WithFetcher replaces the HTTP fetcher
func WithFetcher(f Fetcher) Option {
	return func(b *Builder) { b.fetcher = f }
}

// WithPrompter replaces the console prompt shown for stale build directories
func WithPrompter(p Prompter) Option {
	return func(b *Builder) { b.prompter = p }
}

// WithArchiveWriter replaces the ipk writer
func WithArchiveWriter(w ArchiveWriter) Option {
	return func(b *Builder) { b.writer = w }
}

// New creates a builder. It loads the lifecycle script helpers and, unless
// a container runner was supplied, connects to containerd.
func New(cfg *models.Config, opts ...Option) (*Builder, error) {
	b := &Builder{
		config:  cfg,
		host:    &bash.HostRunner{},
		fetcher: utils.NewHTTPFetcher(),
		writer:  ipk.Write,
	}

	for _, opt := range opts {
		opt(b)
	}

	if b.prompter == nil {
		b.prompter = NewConsolePrompter(os.Stdin, os.Stdout)
	}

	for _, dir := range []string{cfg.WorkDir, cfg.RepoDir} {
		if err := utils.EnsureDir(dir); err != nil {
			return nil, &models.BuildError{Type: models.ErrSetup, Err: err}
		}
	}

	installLib, err := loadInstallLib(cfg.InstallLib)
	if err != nil {
		return nil, &models.BuildError{Type: models.ErrSetup, Err: err}
	}
	b.installLib = installLib

	if b.container == nil {
		runner, err := container.New(cfg.Containerd.Address, cfg.Containerd.Namespace, cfg.Containerd.Snapshotter)
		if err != nil {
			return nil, &models.BuildError{
				Type: models.ErrRuntime,
				Err: fmt.Errorf("unable to connect to containerd at %s, check that the service is running "+
					"and that you have the necessary permissions: %w", cfg.Containerd.Address, err),
			}
		}
		b.container = runner
		b.closer = runner
	}

	return b, nil
}

// Close releases the container runtime connection
func (b *Builder) Close() error {
	if b.closer != nil {
		return b.closer.Close()
	}
	return nil
}

// loadInstallLib reads the helper library, dropping comment lines
func loadInstallLib(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to load install-lib: %w", err)
	}
	defer f.Close()

	var lib strings.Builder
	reader := bufio.NewReader(f)
	for {
		line, err := reader.ReadString('\n')
		if line != "" && !strings.HasPrefix(strings.TrimSpace(line), "#") {
			lib.WriteString(line)
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("failed to load install-lib: %w", err)
		}
	}

	return lib.String(), nil
}

// Make builds a recipe and archives the given packages, or every package
// of the recipe when packageNames is empty.
//
// Returns false without error if the user cancelled the build.
func (b *Builder) Make(ctx context.Context, recipeName string, packageNames []string) (bool, error) {
	recipeDir := filepath.Join(b.config.RecipeDir, recipeName)
	r, err := recipe.FromDir(recipeDir)
	if err != nil {
		return false, err
	}

	log := newLogger(r.Name)

	if len(packageNames) == 0 {
		packageNames = r.PackageNames
	}
	for _, name := range packageNames {
		if _, ok := r.Packages[name]; !ok {
			return false, &models.BuildError{
				Type:   models.ErrPackage,
				Recipe: r.Name,
				Err:    fmt.Errorf("package %q does not exist in recipe %q", name, r.Name),
			}
		}
	}

	buildDir, err := filepath.Abs(filepath.Join(b.config.WorkDir, recipeName))
	if err != nil {
		return false, &models.BuildError{Type: models.ErrSetup, Recipe: r.Name, Err: err}
	}

	proceed, err := b.setup(r, buildDir)
	if err != nil || !proceed {
		return false, err
	}

	srcDir := filepath.Join(buildDir, "src")
	basePkgDir := filepath.Join(buildDir, "pkg")

	for _, dir := range []string{srcDir, basePkgDir} {
		if err := utils.EnsureDir(dir); err != nil {
			return false, &models.BuildError{Type: models.ErrSetup, Recipe: r.Name, Err: err}
		}
	}

	if err := b.fetchSources(ctx, log, r, recipeDir, srcDir); err != nil {
		return false, err
	}
	if err := b.prepare(ctx, log, r, srcDir); err != nil {
		return false, err
	}
	if err := b.build(ctx, log, r, srcDir); err != nil {
		return false, err
	}
	if err := b.strip(ctx, log, r, srcDir); err != nil {
		return false, err
	}

	for _, name := range packageNames {
		pkg := r.Packages[name]
		pkgLog := log.forPackage(name)

		pkgDir := filepath.Join(basePkgDir, name)
		if err := utils.EnsureDir(pkgDir); err != nil {
			return false, &models.BuildError{Type: models.ErrPackage, Recipe: r.Name, Package: name, Err: err}
		}

		if err := b.pack(ctx, pkgLog, pkg, srcDir, pkgDir); err != nil {
			return false, err
		}
		if err := b.archive(pkgLog, pkg, pkgDir); err != nil {
			return false, err
		}
	}

	return true, nil
}

// setup creates the build directory, asking what to do with a stale one
func (b *Builder) setup(r *recipe.Recipe, buildDir string) (bool, error) {
	err := os.Mkdir(buildDir, 0755)
	if err == nil {
		return true, nil
	}
	if !errors.Is(err, os.ErrExist) {
		return false, &models.BuildError{Type: models.ErrSetup, Recipe: r.Name, Err: err}
	}

	rel := buildDir
	if wd, err := os.Getwd(); err == nil {
		if path, err := filepath.Rel(wd, buildDir); err == nil {
			rel = path
		}
	}

	answer, err := b.prompter.Ask(fmt.Sprintf("The build directory '%s' for recipe '%s' already exists.\n"+
		"Would you like to [c]ancel, [r]emove that directory, or [k]eep it (not recommended)?", rel, r.Name))
	if err != nil {
		return false, &models.BuildError{Type: models.ErrSetup, Recipe: r.Name, Err: err}
	}

	switch answer {
	case AnswerCancel:
		return false, nil
	case AnswerRemove:
		if err := os.RemoveAll(buildDir); err != nil {
			return false, &models.BuildError{Type: models.ErrSetup, Recipe: r.Name, Err: err}
		}
		if err := os.Mkdir(buildDir, 0755); err != nil {
			return false, &models.BuildError{Type: models.ErrSetup, Recipe: r.Name, Err: err}
		}
	}

	return true, nil
}
