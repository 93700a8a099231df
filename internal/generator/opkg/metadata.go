package opkg

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"github.com/toltec-dev/toltecmk/internal/models"
	"github.com/toltec-dev/toltecmk/internal/version"
)

// SortPackages orders packages by name, then by version
func SortPackages(packages []models.Package) {
	sort.SliceStable(packages, func(i, j int) bool {
		a, b := packages[i], packages[j]
		if a.Name != b.Name {
			return a.Name < b.Name
		}

		va, errA := version.Parse(a.Version)
		vb, errB := version.Parse(b.Version)
		if errA == nil && errB == nil && !va.Equal(vb) {
			return va.LessThan(vb)
		}

		if a.Version != b.Version {
			return a.Version < b.Version
		}
		return a.Architecture < b.Architecture
	})
}

// GeneratePackagesFile creates an opkg Packages file from package metadata.
// Packages are written in the order given.
func GeneratePackagesFile(packages []models.Package) []byte {
	var buf bytes.Buffer

	for _, pkg := range packages {
		// Required fields
		fmt.Fprintf(&buf, "Package: %s\n", pkg.Name)
		fmt.Fprintf(&buf, "Version: %s\n", pkg.Version)

		if len(pkg.Dependencies) > 0 {
			fmt.Fprintf(&buf, "Depends: %s\n", strings.Join(pkg.Dependencies, ", "))
		}
		if len(pkg.Conflicts) > 0 {
			fmt.Fprintf(&buf, "Conflicts: %s\n", strings.Join(pkg.Conflicts, ", "))
		}

		if pkg.Section != "" {
			fmt.Fprintf(&buf, "Section: %s\n", pkg.Section)
		}
		fmt.Fprintf(&buf, "Architecture: %s\n", pkg.Architecture)
		if pkg.Maintainer != "" {
			fmt.Fprintf(&buf, "Maintainer: %s\n", pkg.Maintainer)
		}
		if pkg.License != "" {
			fmt.Fprintf(&buf, "License: %s\n", pkg.License)
		}
		if pkg.Homepage != "" {
			fmt.Fprintf(&buf, "HomePage: %s\n", pkg.Homepage)
		}

		// File information
		fmt.Fprintf(&buf, "Filename: %s\n", pkg.Filename)
		fmt.Fprintf(&buf, "Size: %d\n", pkg.Size)
		fmt.Fprintf(&buf, "MD5Sum: %s\n", pkg.MD5Sum)
		fmt.Fprintf(&buf, "SHA256sum: %s\n", pkg.SHA256Sum)

		if pkg.Description != "" {
			fmt.Fprintf(&buf, "Description: %s\n", pkg.Description)
		}

		for _, field := range pkg.Extra {
			fmt.Fprintf(&buf, "%s: %s\n", field.Key, field.Value)
		}

		// Blank line between packages
		buf.WriteString("\n")
	}

	return buf.Bytes()
}
