// Package recipe parses recipes.
//
// A package is a final user-installable software archive. A recipe is a Bash
// file which contains the instructions necessary to build one or more related
// packages (in the latter case, it is called a split package). Recipes are
// consumed as declarations only: nothing in them is executed while parsing.
package recipe

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/toltec-dev/toltecmk/internal/bash"
)

// ChecksumSkip disables checksum verification for a source
const ChecksumSkip = "SKIP"

// FlagNoStrip disables stripping of binaries after the build step
const FlagNoStrip = "nostrip"

// Source is a file needed to build a recipe
type Source struct {
	// URL is either a remote URL or a path relative to the recipe directory
	URL       string
	Checksum  string
	NoExtract bool
}

// Filename returns the name under which the source is stored locally
func (s Source) Filename() string {
	if u, err := url.Parse(s.URL); err == nil && u.Scheme != "" && u.Path != "" {
		return path.Base(u.Path)
	}
	return filepath.Base(s.URL)
}

// Actions holds the recipe-wide build steps
type Actions struct {
	Prepare string
	Build   string
}

// Recipe is a parsed and validated recipe
type Recipe struct {
	Name      string
	Variables *bash.Variables
	Functions bash.Functions

	Timestamp  time.Time
	Maintainer string
	Image      string
	Sources    []Source
	NoExtract  map[string]bool
	Flags      []string
	Actions    Actions

	// Packages maps names to packages, PackageNames keeps declaration order
	Packages     map[string]*Package
	PackageNames []string
}

// Parse loads a recipe from its Bash source
func Parse(name, definition string) (*Recipe, error) {
	r, err := parse(name, definition)
	if err != nil {
		var recipeErr *RecipeError
		if errors.As(err, &recipeErr) && recipeErr.Recipe == "" {
			recipeErr.Recipe = name
		}
		return nil, err
	}
	return r, nil
}

// FromDir loads the recipe stored in dir/package, naming it after dir
func FromDir(dir string) (*Recipe, error) {
	data, err := os.ReadFile(filepath.Join(dir, "package"))
	if err != nil {
		return nil, fmt.Errorf("failed to read recipe: %w", err)
	}
	return Parse(filepath.Base(filepath.Clean(dir)), string(data))
}

func parse(name, definition string) (*Recipe, error) {
	variables, functions, err := bash.GetDeclarations(definition)
	if err != nil {
		return nil, &RecipeError{Kind: ErrSyntax, Err: err}
	}

	r := &Recipe{
		Name:      name,
		Variables: variables,
		Functions: functions,
		NoExtract: make(map[string]bool),
		Packages:  make(map[string]*Package),
	}

	// Parse and check recipe metadata
	pkgnames, err := requireIndexed(variables, "pkgnames")
	if err != nil {
		return nil, err
	}

	timestamp, err := requireString(variables, "timestamp")
	if err != nil {
		return nil, err
	}

	r.Timestamp, err = parseTimestamp(timestamp)
	if err != nil {
		return nil, newError(ErrBadTimestamp, "field 'timestamp' does not contain a valid ISO-8601 date: %v", err)
	}

	if r.Maintainer, err = requireString(variables, "maintainer"); err != nil {
		return nil, err
	}
	if r.Image, err = optionalString(variables, "image", ""); err != nil {
		return nil, err
	}
	if r.Flags, err = optionalIndexed(variables, "flags"); err != nil {
		return nil, err
	}

	if err := r.parseSources(variables); err != nil {
		return nil, err
	}

	// Parse recipe build hooks
	_, hasBuild := functions["build"]

	if r.Image != "" && !hasBuild {
		return nil, newError(ErrMissingBuildFunction, "missing build() function for a recipe which declares a build image")
	}

	if r.Image == "" && hasBuild {
		return nil, newError(ErrMissingImage, "missing image declaration for a recipe which has a build() step")
	}

	r.Actions = Actions{
		Prepare: functions["prepare"],
		Build:   functions["build"],
	}

	// Parse packages contained in the recipe
	if len(pkgnames) == 1 {
		pkg, err := newPackage(pkgnames[0], r, definition)
		if err != nil {
			return nil, err
		}
		r.addPackage(pkg)
		return r, nil
	}

	for _, pkgname := range pkgnames {
		body, ok := functions[pkgname]
		if !ok {
			return nil, &RecipeError{
				Kind:    ErrMissingSplitFunction,
				Package: pkgname,
				Err:     fmt.Errorf("missing required function %s() for corresponding package", pkgname),
			}
		}

		pkg, err := newPackage(pkgname, r, body)
		if err != nil {
			return nil, err
		}
		r.addPackage(pkg)
	}

	return r, nil
}

func (r *Recipe) parseSources(variables *bash.Variables) error {
	sources, err := optionalIndexed(variables, "source")
	if err != nil {
		return err
	}
	noextract, err := optionalIndexed(variables, "noextract")
	if err != nil {
		return err
	}
	sha256sums, err := optionalIndexed(variables, "sha256sums")
	if err != nil {
		return err
	}

	if len(sources) != len(sha256sums) {
		return newError(ErrBadCount, "expected the same number of sources and checksums, got %d source(s) and %d checksum(s)",
			len(sources), len(sha256sums))
	}

	for _, filename := range noextract {
		r.NoExtract[filename] = true
	}

	for i, src := range sources {
		source := Source{URL: src, Checksum: sha256sums[i]}
		source.NoExtract = r.NoExtract[source.Filename()]
		r.Sources = append(r.Sources, source)
	}

	return nil
}

func (r *Recipe) addPackage(pkg *Package) {
	if _, ok := r.Packages[pkg.Name]; !ok {
		r.PackageNames = append(r.PackageNames, pkg.Name)
	}
	r.Packages[pkg.Name] = pkg
}

// HasFlag reports whether the recipe declares the given flag
func (r *Recipe) HasFlag(flag string) bool {
	for _, f := range r.Flags {
		if f == flag {
			return true
		}
	}
	return false
}

// Epoch returns the declared timestamp as seconds since the Unix epoch
func (r *Recipe) Epoch() int64 {
	return r.Timestamp.Unix()
}
