package recipe

import "fmt"

// ErrorKind represents the different ways a recipe can be invalid
type ErrorKind int

const (
	ErrMissingField ErrorKind = iota
	ErrWrongType
	ErrBadCount
	ErrBadTimestamp
	ErrMissingBuildFunction
	ErrMissingImage
	ErrMissingSplitFunction
	ErrMissingPackageFunction
	ErrBadVersion
	ErrSyntax
)

// String returns the string representation of ErrorKind
func (k ErrorKind) String() string {
	switch k {
	case ErrMissingField:
		return "MissingField"
	case ErrWrongType:
		return "WrongType"
	case ErrBadCount:
		return "BadCount"
	case ErrBadTimestamp:
		return "BadTimestamp"
	case ErrMissingBuildFunction:
		return "MissingBuildFunction"
	case ErrMissingImage:
		return "MissingImage"
	case ErrMissingSplitFunction:
		return "MissingSplitFunction"
	case ErrMissingPackageFunction:
		return "MissingPackageFunction"
	case ErrBadVersion:
		return "BadVersion"
	case ErrSyntax:
		return "Syntax"
	default:
		return "Unknown"
	}
}

// RecipeError is raised when a recipe definition breaks one of its rules
type RecipeError struct {
	Kind    ErrorKind
	Recipe  string
	Package string
	Err     error
}

func newError(kind ErrorKind, format string, args ...any) *RecipeError {
	return &RecipeError{Kind: kind, Err: fmt.Errorf(format, args...)}
}

// Error implements the error interface
func (e *RecipeError) Error() string {
	switch {
	case e.Recipe != "" && e.Package != "" && e.Package != e.Recipe:
		return fmt.Sprintf("%s (%s): %v", e.Package, e.Recipe, e.Err)
	case e.Recipe != "":
		return fmt.Sprintf("%s: %v", e.Recipe, e.Err)
	case e.Package != "":
		return fmt.Sprintf("%s: %v", e.Package, e.Err)
	default:
		return e.Err.Error()
	}
}

// Unwrap returns the wrapped error
func (e *RecipeError) Unwrap() error {
	return e.Err
}
