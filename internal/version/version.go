// Package version parses package versions of the form
// [epoch:]upstream[-revision] and orders them the way dpkg and opkg do.
package version

import (
	"fmt"

	debversion "github.com/knqyf263/go-deb-version"
)

// Version is a parsed, comparable package version
type Version struct {
	raw    string
	parsed debversion.Version
}

// Parse parses a version string
func Parse(s string) (Version, error) {
	parsed, err := debversion.NewVersion(s)
	if err != nil {
		return Version{}, fmt.Errorf("invalid version %q: %w", s, err)
	}
	return Version{raw: s, parsed: parsed}, nil
}

// MustParse is like Parse but panics on error
func MustParse(s string) Version {
	v, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return v
}

// String returns the version exactly as it was declared
func (v Version) String() string {
	return v.raw
}

// Compare returns -1, 0 or 1 depending on whether v sorts before, equal to
// or after other
func (v Version) Compare(other Version) int {
	return v.parsed.Compare(other.parsed)
}

// LessThan reports whether v sorts before other
func (v Version) LessThan(other Version) bool {
	return v.Compare(other) < 0
}

// Equal reports whether v and other denote the same version
func (v Version) Equal(other Version) bool {
	return v.Compare(other) == 0
}
