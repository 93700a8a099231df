// Package opkg generates opkg feed indexes for a directory of built
// packages.
package opkg

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/toltec-dev/toltecmk/internal/ipk"
	"github.com/toltec-dev/toltecmk/internal/models"
	"github.com/toltec-dev/toltecmk/internal/scanner"
	"github.com/toltec-dev/toltecmk/internal/signer"
	"github.com/toltec-dev/toltecmk/internal/utils"
)

// Index file names
const (
	PackagesFile    = "Packages"
	PackagesGzFile  = "Packages.gz"
	PackagesSigFile = "Packages.sig"
)

// Generator writes the index of an opkg feed
type Generator struct {
	signer  signer.Signer
	scanner scanner.Scanner
}

// NewGenerator creates a generator, signing the index when s is not nil
func NewGenerator(s signer.Signer) *Generator {
	return &Generator{
		signer:  s,
		scanner: scanner.NewFileSystemScanner(),
	}
}

// Generate indexes every package archive found in repoDir and returns the
// indexed packages in index order
func (g *Generator) Generate(ctx context.Context, repoDir string) ([]models.Package, error) {
	logrus.Info("Generating opkg index...")

	scanned, err := g.scanner.Scan(ctx, repoDir)
	if err != nil {
		return nil, err
	}

	packages := make([]models.Package, 0, len(scanned))
	for _, s := range scanned {
		pkg, err := ParsePackage(s.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", s.Path, err)
		}
		packages = append(packages, *pkg)
	}

	if duplicates := utils.FindDuplicates(packages); len(duplicates) > 0 {
		return nil, fmt.Errorf("duplicate packages in %s: %s", repoDir, strings.Join(duplicates, ", "))
	}

	SortPackages(packages)
	data := GeneratePackagesFile(packages)

	if err := utils.WriteFile(filepath.Join(repoDir, PackagesFile), data, 0644); err != nil {
		return nil, fmt.Errorf("failed to write %s: %w", PackagesFile, err)
	}

	// The index only depends on the packages it lists
	compressed, err := utils.GzipCompress(data, time.Unix(0, 0))
	if err != nil {
		return nil, fmt.Errorf("failed to compress %s: %w", PackagesFile, err)
	}
	if err := utils.WriteFile(filepath.Join(repoDir, PackagesGzFile), compressed, 0644); err != nil {
		return nil, fmt.Errorf("failed to write %s: %w", PackagesGzFile, err)
	}

	sigPath := filepath.Join(repoDir, PackagesSigFile)
	if g.signer != nil {
		sig, err := g.signer.SignDetached(data)
		if err != nil {
			return nil, fmt.Errorf("failed to sign %s: %w", PackagesFile, err)
		}
		if err := utils.WriteFile(sigPath, sig, 0644); err != nil {
			return nil, fmt.Errorf("failed to write %s: %w", PackagesSigFile, err)
		}
		logrus.Debugf("Signed %s", PackagesFile)
	} else if err := os.Remove(sigPath); err != nil && !os.IsNotExist(err) {
		// A signature left over would no longer match
		return nil, err
	}

	logrus.Infof("Indexed %d packages in %s", len(packages), repoDir)
	return packages, nil
}

// ParsePackage reads the index metadata of the archive at path
func ParsePackage(path string) (*models.Package, error) {
	checksums, err := utils.CalculateChecksums(path)
	if err != nil {
		return nil, fmt.Errorf("failed to calculate checksums: %w", err)
	}

	control, err := ipk.ReadControlFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to extract control: %w", err)
	}

	pkg, err := ipk.ParseControl([]byte(control.Metadata))
	if err != nil {
		return nil, fmt.Errorf("failed to parse control: %w", err)
	}

	// Feeds are flat, so file names are relative to the index
	pkg.Filename = filepath.Base(path)
	pkg.Size = checksums.Size
	pkg.MD5Sum = checksums.MD5
	pkg.SHA256Sum = checksums.SHA256

	return pkg, nil
}
