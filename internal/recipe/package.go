package recipe

import (
	"errors"
	"fmt"
	"strings"

	"github.com/toltec-dev/toltecmk/internal/bash"
	"github.com/toltec-dev/toltecmk/internal/version"
)

// DefaultArch is used when a package does not declare its architecture
const DefaultArch = "armv7-3.2"

// Extension of built package archives
const Extension = ".ipk"

// Lifecycle hooks a package may declare
const (
	HookPreinstall  = "preinstall"
	HookConfigure   = "configure"
	HookPreremove   = "preremove"
	HookPostremove  = "postremove"
	HookPreupgrade  = "preupgrade"
	HookPostupgrade = "postupgrade"
)

// Hooks lists every lifecycle hook
var Hooks = []string{
	HookPreinstall,
	HookConfigure,
	HookPreremove,
	HookPostremove,
	HookPreupgrade,
	HookPostupgrade,
}

// Package is one installable unit declared by a recipe
type Package struct {
	Name string

	// Parent is the recipe declaring this package. It is only read from.
	Parent *Recipe

	Variables *bash.Variables
	Functions bash.Functions

	Version   version.Version
	Arch      string
	Desc      string
	URL       string
	Section   string
	License   string
	Depends   []string
	Conflicts []string

	// Action is the body of the package() function
	Action string

	// Install maps each of Hooks to its body, empty if undeclared
	Install map[string]string
}

func newPackage(name string, parent *Recipe, definition string) (*Package, error) {
	p, err := parsePackage(name, parent, definition)
	if err != nil {
		var recipeErr *RecipeError
		if errors.As(err, &recipeErr) && recipeErr.Package == "" {
			recipeErr.Package = name
		}
		return nil, err
	}
	return p, nil
}

func parsePackage(name string, parent *Recipe, definition string) (*Package, error) {
	prelude, err := bash.PutVariables(parent.Variables.With("pkgname", name))
	if err != nil {
		return nil, &RecipeError{Kind: ErrSyntax, Err: err}
	}

	variables, functions, err := bash.GetDeclarations(prelude + definition)
	if err != nil {
		return nil, &RecipeError{Kind: ErrSyntax, Err: err}
	}

	p := &Package{
		Name:      name,
		Parent:    parent,
		Variables: variables,
		Functions: parent.Functions.Merge(functions),
		Install:   make(map[string]string, len(Hooks)),
	}

	// Parse and check package metadata
	pkgver, err := requireString(variables, "pkgver")
	if err != nil {
		return nil, err
	}

	p.Version, err = version.Parse(pkgver)
	if err != nil {
		return nil, &RecipeError{Kind: ErrBadVersion, Err: err}
	}

	fields := []struct {
		dst  *string
		name string
		def  *string
	}{
		{&p.Arch, "arch", ptr(DefaultArch)},
		{&p.Desc, "pkgdesc", nil},
		{&p.URL, "url", nil},
		{&p.Section, "section", nil},
		{&p.License, "license", nil},
	}

	for _, field := range fields {
		if field.def != nil {
			*field.dst, err = optionalString(variables, field.name, *field.def)
		} else {
			*field.dst, err = requireString(variables, field.name)
		}
		if err != nil {
			return nil, err
		}
	}

	if p.Depends, err = optionalIndexed(variables, "depends"); err != nil {
		return nil, err
	}
	if p.Conflicts, err = optionalIndexed(variables, "conflicts"); err != nil {
		return nil, err
	}

	action, ok := p.Functions["package"]
	if !ok || strings.TrimSpace(action) == "" {
		return nil, newError(ErrMissingPackageFunction, "missing required function package() for package %s", name)
	}
	p.Action = action

	for _, hook := range Hooks {
		p.Install[hook] = p.Functions[hook]
	}

	return p, nil
}

func ptr(s string) *string {
	return &s
}

// PkgID returns the unique identifier of this package
func (p *Package) PkgID() string {
	return strings.Join([]string{p.Name, p.Version.String(), p.Arch}, "_")
}

// Filename returns the name of the archive corresponding to this package
func (p *Package) Filename() string {
	return p.PkgID() + Extension
}

// ControlFields returns the control metadata for this package
func (p *Package) ControlFields() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Package: %s\n", p.Name)
	fmt.Fprintf(&buf, "Version: %s\n", p.Version)
	fmt.Fprintf(&buf, "Maintainer: %s\n", p.Parent.Maintainer)
	fmt.Fprintf(&buf, "Section: %s\n", p.Section)
	fmt.Fprintf(&buf, "Architecture: %s\n", p.Arch)
	fmt.Fprintf(&buf, "Description: %s\n", p.Desc)
	fmt.Fprintf(&buf, "HomePage: %s\n", p.URL)
	fmt.Fprintf(&buf, "License: %s\n", p.License)

	if depends := nonEmpty(p.Depends); len(depends) > 0 {
		fmt.Fprintf(&buf, "Depends: %s\n", strings.Join(depends, ", "))
	}

	if conflicts := nonEmpty(p.Conflicts); len(conflicts) > 0 {
		fmt.Fprintf(&buf, "Conflicts: %s\n", strings.Join(conflicts, ", "))
	}

	return buf.String()
}

func nonEmpty(items []string) []string {
	var out []string
	for _, item := range items {
		if item != "" {
			out = append(out, item)
		}
	}
	return out
}
