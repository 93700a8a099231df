package builder

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"regexp"

	"github.com/toltec-dev/toltecmk/internal/archive"
	"github.com/toltec-dev/toltecmk/internal/models"
	"github.com/toltec-dev/toltecmk/internal/recipe"
	"github.com/toltec-dev/toltecmk/internal/utils"
)

// Detects non-local paths
var urlRegex = regexp.MustCompile(`^[a-z]+://`)

// fetchSources fetches, verifies and extracts every source of a recipe
func (b *Builder) fetchSources(ctx context.Context, log *buildLogger, r *recipe.Recipe, recipeDir, srcDir string) error {
	log.Infof("Fetching source files")

	for _, source := range r.Sources {
		if err := b.fetchSource(ctx, log, source, recipeDir, srcDir); err != nil {
			return &models.BuildError{Type: models.ErrFetch, Recipe: r.Name, Err: err}
		}
	}

	return nil
}

func (b *Builder) fetchSource(ctx context.Context, log *buildLogger, source recipe.Source, recipeDir, srcDir string) error {
	localPath := filepath.Join(srcDir, source.Filename())

	if urlRegex.MatchString(source.URL) {
		log.Debugf("Downloading %s", source.URL)
		if err := b.download(ctx, source.URL, localPath); err != nil {
			return err
		}
	} else {
		log.Debugf("Copying %s from the recipe directory", source.URL)
		if err := utils.CopyFile(filepath.Join(recipeDir, source.URL), localPath); err != nil {
			return fmt.Errorf("failed to copy source file '%s': %w", source.URL, err)
		}
	}

	if source.Checksum != recipe.ChecksumSkip {
		sum, err := utils.FileSHA256(localPath)
		if err != nil {
			return err
		}
		if sum != source.Checksum {
			return fmt.Errorf("invalid checksum for source file %s: expected %s, got %s",
				source.URL, source.Checksum, sum)
		}
	}

	if source.NoExtract {
		return nil
	}

	extracted, err := archive.AutoExtract(localPath, srcDir)
	if err != nil {
		return fmt.Errorf("failed to extract source file %s: %w", source.URL, err)
	}
	if extracted {
		log.Debugf("Extracted %s", source.Filename())
	}

	return nil
}

// download stores the content at url into path
func (b *Builder) download(ctx context.Context, url, path string) error {
	status, body, err := b.fetcher.Fetch(ctx, url)
	if err != nil {
		return fmt.Errorf("failed to fetch source file '%s': %w", url, err)
	}
	defer body.Close()

	if status != http.StatusOK {
		return fmt.Errorf("unexpected status code while fetching source file '%s', got %d", url, status)
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}

	if _, err := io.Copy(f, body); err != nil {
		f.Close()
		return fmt.Errorf("failed to fetch source file '%s': %w", url, err)
	}

	return f.Close()
}
