package builder

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/toltec-dev/toltecmk/internal/bash"
	"github.com/toltec-dev/toltecmk/internal/container"
	"github.com/toltec-dev/toltecmk/internal/models"
	"github.com/toltec-dev/toltecmk/internal/recipe"
	"github.com/toltec-dev/toltecmk/internal/utils"
)

// MountSrc is where the source directory appears inside build containers
const MountSrc = "/src"

func (b *Builder) prepare(ctx context.Context, log *buildLogger, r *recipe.Recipe, srcDir string) error {
	if strings.TrimSpace(r.Actions.Prepare) == "" {
		log.Infof("Skipping prepare (nothing to do)")
		return nil
	}

	log.Infof("Preparing source files")

	vars := r.Variables.With("srcdir", srcDir)
	if err := b.host.Run(ctx, r.Actions.Prepare, vars, log.lines()); err != nil {
		return &models.BuildError{Type: models.ErrPrepare, Recipe: r.Name, Err: err}
	}

	return nil
}

func (b *Builder) build(ctx context.Context, log *buildLogger, r *recipe.Recipe, srcDir string) error {
	if strings.TrimSpace(r.Actions.Build) == "" {
		log.Infof("Skipping build (nothing to do)")
		return nil
	}

	log.Infof("Building artifacts")

	// Containers run as root, hand the produced files back to the caller
	script := strings.Join([]string{
		fmt.Sprintf("cd \"%s\"", MountSrc),
		r.Actions.Build,
		fmt.Sprintf("chown -R %d:%d \"%s\"", os.Getuid(), os.Getgid(), MountSrc),
	}, "\n")

	mounts := []container.Mount{{Source: srcDir, Target: MountSrc}}
	vars := r.Variables.With("srcdir", MountSrc)

	if err := b.container.Run(ctx, b.config.ImagePrefix+r.Image, mounts, vars, script, log.lines()); err != nil {
		return &models.BuildError{Type: models.ErrBuild, Recipe: r.Name, Err: err}
	}

	return nil
}

func (b *Builder) strip(ctx context.Context, log *buildLogger, r *recipe.Recipe, srcDir string) error {
	if r.HasFlag(recipe.FlagNoStrip) {
		log.Infof("Not stripping binaries (nostrip flag set)")
		return nil
	}

	log.Infof("Stripping binaries")

	// Not every executable is an object file for both tools
	script := strings.Join([]string{
		fmt.Sprintf("find \"%s\" -type f -executable -print0 | xargs --no-run-if-empty --null \"${CROSS_COMPILE}strip\" --strip-all || true", MountSrc),
		fmt.Sprintf("find \"%s\" -type f -executable -print0 | xargs --no-run-if-empty --null strip --strip-all || true", MountSrc),
	}, "\n")

	mounts := []container.Mount{{Source: srcDir, Target: MountSrc}}
	image := b.config.ImagePrefix + b.config.DefaultImage

	if err := b.container.Run(ctx, image, mounts, bash.NewVariables(), script, log.lines()); err != nil {
		return &models.BuildError{Type: models.ErrStrip, Recipe: r.Name, Err: err}
	}

	return nil
}

// pack runs the package() function of pkg to stage its files in pkgDir
func (b *Builder) pack(ctx context.Context, log *buildLogger, pkg *recipe.Package, srcDir, pkgDir string) error {
	log.Infof("Packaging build artifacts")

	vars := pkg.Variables.With("srcdir", srcDir, "pkgdir", pkgDir)
	if err := b.host.Run(ctx, pkg.Action, vars, log.lines()); err != nil {
		return &models.BuildError{Type: models.ErrPackage, Recipe: pkg.Parent.Name, Package: pkg.Name, Err: err}
	}

	tree, err := utils.ListTree(pkgDir)
	if err != nil {
		return &models.BuildError{Type: models.ErrPackage, Recipe: pkg.Parent.Name, Package: pkg.Name, Err: err}
	}

	log.Debugf("Resulting tree:")
	for _, path := range tree {
		log.Debugf(" - /%s", path)
	}

	return nil
}
