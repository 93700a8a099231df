// Package archive recognises source archives by their signature and
// extracts them.
package archive

import (
	"archive/tar"
	"bufio"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	securejoin "github.com/cyphar/filepath-securejoin"
	"github.com/klauspost/compress/zip"
	"github.com/sirupsen/logrus"
)

// AutoExtract extracts the archive at src into dest if it is one.
//
// When every entry of the archive lives under the same top-level directory,
// that directory is stripped. Entries are never written outside of dest.
// Returns false, without error, when src is not a recognised archive.
func AutoExtract(src, dest string) (bool, error) {
	format, compression, err := Detect(src)
	if err != nil {
		return false, err
	}

	switch format {
	case FormatTar:
		logrus.Debugf("Extracting tar archive %s", src)
		return true, extractTar(src, dest, compression)
	case FormatZip:
		logrus.Debugf("Extracting zip archive %s", src)
		return true, extractZip(src, dest)
	default:
		return false, nil
	}
}

// entry is an archive member reduced to what extraction needs
type entry struct {
	name     string
	mode     fs.FileMode
	linkname string
	hardlink bool
}

// cleanName normalises an archive member name, returning "" for the root
func cleanName(name string) string {
	name = path.Clean("/" + name)
	return strings.TrimPrefix(name, "/")
}

// commonRoot returns the top-level directory shared by every name, or ""
func commonRoot(names []string) string {
	root := ""
	nested := false

	for _, name := range names {
		if name == "" {
			continue
		}
		first, rest, hasRest := strings.Cut(name, "/")
		if root == "" {
			root = first
		} else if first != root {
			return ""
		}
		if hasRest && rest != "" {
			nested = true
		}
	}

	if !nested {
		return ""
	}
	return root
}

func stripRoot(name, root string) string {
	if root == "" {
		return name
	}
	if name == root {
		return ""
	}
	return strings.TrimPrefix(name, root+"/")
}

// openTar opens src and returns a tar reader over its decompressed content
func openTar(src string, compression Compression) (*tar.Reader, func(), error) {
	f, err := os.Open(src)
	if err != nil {
		return nil, nil, err
	}

	r, closeDecompressor, err := decompress(bufio.NewReader(f), compression)
	if err != nil {
		f.Close()
		return nil, nil, err
	}

	return tar.NewReader(r), func() {
		closeDecompressor()
		f.Close()
	}, nil
}

func extractTar(src, dest string, compression Compression) error {
	// First pass to find a common root
	tr, closeArchive, err := openTar(src, compression)
	if err != nil {
		return err
	}

	var names []string
	for {
		header, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			closeArchive()
			return fmt.Errorf("failed to read %s: %w", src, err)
		}
		names = append(names, cleanName(header.Name))
	}
	closeArchive()

	root := commonRoot(names)

	tr, closeArchive, err = openTar(src, compression)
	if err != nil {
		return err
	}
	defer closeArchive()

	for {
		header, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", src, err)
		}

		e := entry{
			name: stripRoot(cleanName(header.Name), root),
			mode: header.FileInfo().Mode(),
		}

		switch header.Typeflag {
		case tar.TypeSymlink:
			e.linkname = header.Linkname
		case tar.TypeLink:
			e.linkname = stripRoot(cleanName(header.Linkname), root)
			e.hardlink = true
		case tar.TypeDir, tar.TypeReg, tar.TypeRegA:
		default:
			logrus.Debugf("Skipping unsupported entry %s in %s", header.Name, src)
			continue
		}

		if err := writeEntry(dest, e, tr); err != nil {
			return err
		}
	}
}

func extractZip(src, dest string) error {
	zr, err := zip.OpenReader(src)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", src, err)
	}
	defer zr.Close()

	names := make([]string, 0, len(zr.File))
	for _, f := range zr.File {
		names = append(names, cleanName(f.Name))
	}
	root := commonRoot(names)

	for _, f := range zr.File {
		e := entry{
			name: stripRoot(cleanName(f.Name), root),
			mode: f.Mode(),
		}

		rc, err := f.Open()
		if err != nil {
			return fmt.Errorf("failed to open %s in %s: %w", f.Name, src, err)
		}

		if e.mode&fs.ModeSymlink != 0 {
			target, err := io.ReadAll(rc)
			if err != nil {
				rc.Close()
				return err
			}
			e.linkname = string(target)
		}

		err = writeEntry(dest, e, rc)
		rc.Close()
		if err != nil {
			return err
		}
	}

	return nil
}

// writeEntry materialises a single entry below dest
func writeEntry(dest string, e entry, content io.Reader) error {
	if e.name == "" {
		return nil
	}

	target, err := securejoin.SecureJoin(dest, e.name)
	if err != nil {
		return fmt.Errorf("invalid entry %s: %w", e.name, err)
	}

	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return err
	}

	switch {
	case e.mode.IsDir():
		return os.MkdirAll(target, e.mode.Perm()|0700)

	case e.hardlink:
		source, err := securejoin.SecureJoin(dest, e.linkname)
		if err != nil {
			return fmt.Errorf("invalid link %s: %w", e.linkname, err)
		}
		os.Remove(target)
		return os.Link(source, target)

	case e.mode&fs.ModeSymlink != 0:
		os.Remove(target)
		return os.Symlink(e.linkname, target)

	default:
		f, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, e.mode.Perm())
		if err != nil {
			return err
		}
		if _, err := io.Copy(f, content); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
		return os.Chmod(target, e.mode.Perm())
	}
}
