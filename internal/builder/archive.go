package builder

import (
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/toltec-dev/toltecmk/internal/models"
	"github.com/toltec-dev/toltecmk/internal/recipe"
)

// archive writes the package archive into the repository directory
func (b *Builder) archive(log *buildLogger, pkg *recipe.Package, pkgDir string) error {
	log.Infof("Creating archive")

	fail := func(err error) error {
		return &models.BuildError{Type: models.ErrArchive, Recipe: pkg.Parent.Name, Package: pkg.Name, Err: err}
	}

	scripts, err := SynthesizeScripts(pkg, b.installLib)
	if err != nil {
		return fail(err)
	}

	log.Debugf("Install scripts:")
	if len(scripts) == 0 {
		log.Debugf("(none)")
	} else {
		names := make([]string, 0, len(scripts))
		for name := range scripts {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			log.Debugf(" - %s", name)
		}
	}

	path := filepath.Join(b.config.RepoDir, pkg.Filename())
	epoch := pkg.Parent.Epoch()

	f, err := os.Create(path)
	if err != nil {
		return fail(err)
	}

	// A partial archive would break the next index of the repository
	if err := b.writer(f, epoch, pkgDir, pkg.ControlFields(), scripts); err != nil {
		f.Close()
		os.Remove(path)
		return fail(err)
	}

	if err := f.Close(); err != nil {
		os.Remove(path)
		return fail(err)
	}

	// Fixed mtime for the resulting archive
	mtime := time.Unix(epoch, 0)
	if err := os.Chtimes(path, mtime, mtime); err != nil {
		return fail(err)
	}

	log.Debugf("Wrote %s", path)
	return nil
}
