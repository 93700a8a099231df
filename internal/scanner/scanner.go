// Package scanner finds built package archives in a repository directory.
package scanner

import "context"

// PackageType represents the type of package
type PackageType int

const (
	TypeUnknown PackageType = iota
	TypeIpk

	// TypeArIpk is an ipk stored as an ar archive, which this tool reads
	// nothing from
	TypeArIpk
)

// String returns the string representation of PackageType
func (pt PackageType) String() string {
	switch pt {
	case TypeIpk:
		return "ipk"
	case TypeArIpk:
		return "ipk (ar)"
	default:
		return "unknown"
	}
}

// ScannedPackage represents a package file found during scanning
type ScannedPackage struct {
	Path string
	Type PackageType
	Size int64
}

// Scanner interface for detecting and scanning packages
type Scanner interface {
	// Scan lists the package archives directly inside dir
	Scan(ctx context.Context, dir string) ([]ScannedPackage, error)

	// DetectType determines the package type of a file
	DetectType(path string) (PackageType, error)
}
