package scanner

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/sirupsen/logrus"
)

// FileSystemScanner implements Scanner interface for filesystem scanning
type FileSystemScanner struct{}

// NewFileSystemScanner creates a new filesystem scanner
func NewFileSystemScanner() *FileSystemScanner {
	return &FileSystemScanner{}
}

// Scan lists the package archives directly inside dir, sorted by path.
// Subdirectories are not descended into since opkg feeds are flat.
func (s *FileSystemScanner) Scan(ctx context.Context, dir string) ([]ScannedPackage, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to scan directory: %w", err)
	}

	var packages []ScannedPackage

	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if entry.IsDir() {
			continue
		}

		path := filepath.Join(dir, entry.Name())

		pkgType, err := s.DetectType(path)
		if err != nil {
			logrus.Warnf("Failed to detect type for %s: %v", path, err)
			continue
		}

		switch pkgType {
		case TypeUnknown:
			continue
		case TypeArIpk:
			logrus.Warnf("Skipping %s: ar-based ipk archives are not supported", path)
			continue
		}

		info, err := entry.Info()
		if err != nil {
			return nil, fmt.Errorf("failed to scan directory: %w", err)
		}

		logrus.Debugf("Found %s package: %s", pkgType, path)

		packages = append(packages, ScannedPackage{
			Path: path,
			Type: pkgType,
			Size: info.Size(),
		})
	}

	sort.Slice(packages, func(i, j int) bool {
		return packages[i].Path < packages[j].Path
	})

	logrus.Infof("Found %d packages in %s", len(packages), dir)
	return packages, nil
}

// DetectType determines the package type of a file
func (s *FileSystemScanner) DetectType(path string) (PackageType, error) {
	return DetectPackageType(path)
}
