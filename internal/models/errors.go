package models

import "fmt"

// ErrorType represents different categories of errors
type ErrorType int

const (
	ErrSetup ErrorType = iota
	ErrFetch
	ErrPrepare
	ErrBuild
	ErrStrip
	ErrPackage
	ErrArchive
	ErrRuntime
	ErrIndex
	ErrInvalidConfig
)

// String returns the string representation of ErrorType
func (e ErrorType) String() string {
	switch e {
	case ErrSetup:
		return "Setup"
	case ErrFetch:
		return "Fetch"
	case ErrPrepare:
		return "Prepare"
	case ErrBuild:
		return "Build"
	case ErrStrip:
		return "Strip"
	case ErrPackage:
		return "Package"
	case ErrArchive:
		return "Archive"
	case ErrRuntime:
		return "Runtime"
	case ErrIndex:
		return "Index"
	case ErrInvalidConfig:
		return "InvalidConfig"
	default:
		return "Unknown"
	}
}

// BuildError represents a failure while building a recipe
type BuildError struct {
	Type    ErrorType
	Recipe  string
	Package string
	Err     error
}

// Error implements the error interface
func (e *BuildError) Error() string {
	switch {
	case e.Recipe != "" && e.Package != "":
		return fmt.Sprintf("[%s] %s (%s): %v", e.Type, e.Package, e.Recipe, e.Err)
	case e.Recipe != "":
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Recipe, e.Err)
	default:
		return fmt.Sprintf("[%s] %v", e.Type, e.Err)
	}
}

// Unwrap returns the wrapped error
func (e *BuildError) Unwrap() error {
	return e.Err
}
