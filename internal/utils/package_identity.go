package utils

import (
	"strings"

	"github.com/toltec-dev/toltecmk/internal/models"
)

// PackageIdentity returns the unique identifier of a package, in the same
// name_version_arch form used for archive file names
func PackageIdentity(pkg models.Package) string {
	return strings.Join([]string{pkg.Name, pkg.Version, pkg.Architecture}, "_")
}

// FindDuplicates returns the identities shared by more than one package
func FindDuplicates(packages []models.Package) []string {
	seen := make(map[string]int)
	var duplicates []string

	for _, pkg := range packages {
		id := PackageIdentity(pkg)
		seen[id]++
		if seen[id] == 2 {
			duplicates = append(duplicates, id)
		}
	}

	return duplicates
}
