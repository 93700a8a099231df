package models

// Package is the metadata of a built archive, as listed in a repository index
type Package struct {
	// Control fields
	Name         string
	Version      string
	Architecture string
	Description  string
	Maintainer   string
	Section      string
	Homepage     string
	License      string
	Dependencies []string
	Conflicts    []string

	// File information
	Filename  string
	Size      int64
	MD5Sum    string
	SHA256Sum string

	// Control fields not covered above, in order of appearance
	Extra []Field
}

// Field is a single "Key: value" control entry
type Field struct {
	Key   string
	Value string
}
