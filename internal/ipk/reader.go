package ipk

import (
	"archive/tar"
	"bytes"
	"fmt"
	"io"
	"os"
	"path"
	"strings"

	"github.com/klauspost/compress/gzip"
)

// Control holds the control member of an archive
type Control struct {
	// Metadata is the content of the control file
	Metadata string

	// Scripts maps maintainer script names to their content
	Scripts map[string]string
}

// ReadControlFile reads the control member of the archive at path
func ReadControlFile(path string) (*Control, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return ReadControl(f)
}

// ReadControl reads the control member of an archive
func ReadControl(r io.Reader) (*Control, error) {
	data, err := readMember(r, controlName)
	if err != nil {
		return nil, err
	}

	gr, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("invalid %s: %w", controlName, err)
	}
	defer gr.Close()

	control := &Control{Scripts: make(map[string]string)}
	found := false

	tr := tar.NewReader(gr)
	for {
		header, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if header.Typeflag != tar.TypeReg {
			continue
		}

		content, err := io.ReadAll(tr)
		if err != nil {
			return nil, err
		}

		name := memberName(header.Name)
		if name == "control" {
			control.Metadata = string(content)
			found = true
		} else {
			control.Scripts[name] = string(content)
		}
	}

	if !found {
		return nil, fmt.Errorf("control file not found in %s", controlName)
	}

	return control, nil
}

// readMember returns the raw content of a top-level archive member
func readMember(r io.Reader, name string) ([]byte, error) {
	gr, err := gzip.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("not an ipk archive: %w", err)
	}
	defer gr.Close()

	tr := tar.NewReader(gr)
	for {
		header, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		if memberName(header.Name) == name {
			return io.ReadAll(tr)
		}
	}

	return nil, fmt.Errorf("%s not found in package", name)
}

func memberName(name string) string {
	return strings.TrimPrefix(path.Clean("/"+name), "/")
}
