// Package ipk reads and writes opkg package archives.
//
// An ipk is a gzip-compressed tar holding three members: debian-binary,
// control.tar.gz and data.tar.gz. Archives written by this package only
// depend on their inputs, so rebuilding a package from the same tree and
// epoch yields the same bytes.
package ipk

import (
	"archive/tar"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/toltec-dev/toltecmk/internal/utils"
)

const (
	// FormatVersion is the content of the debian-binary member
	FormatVersion = "2.0\n"

	debianBinaryName = "debian-binary"
	controlName      = "control.tar.gz"
	dataName         = "data.tar.gz"
)

// Write creates an archive from the tree at pkgDir, embedding metadata as
// the control file and scripts as maintainer scripts. Every timestamp in the
// archive is set to epoch.
func Write(w io.Writer, epoch int64, pkgDir, metadata string, scripts map[string]string) error {
	mtime := time.Unix(epoch, 0)

	control, err := buildControl(mtime, metadata, scripts)
	if err != nil {
		return fmt.Errorf("failed to build control archive: %w", err)
	}

	data, err := buildData(mtime, pkgDir)
	if err != nil {
		return fmt.Errorf("failed to build data archive: %w", err)
	}

	gw := utils.NewGzipWriter(w, mtime)
	tw := tar.NewWriter(gw)

	members := []struct {
		name string
		data []byte
	}{
		{"./" + debianBinaryName, []byte(FormatVersion)},
		{"./" + controlName, control},
		{"./" + dataName, data},
	}

	for _, m := range members {
		if err := addBytes(tw, m.name, 0644, mtime, m.data); err != nil {
			return err
		}
	}

	if err := tw.Close(); err != nil {
		return err
	}
	return gw.Close()
}

func buildControl(mtime time.Time, metadata string, scripts map[string]string) ([]byte, error) {
	var buf bytes.Buffer
	gw := utils.NewGzipWriter(&buf, mtime)
	tw := tar.NewWriter(gw)

	if err := tw.WriteHeader(normalize(&tar.Header{
		Typeflag: tar.TypeDir,
		Name:     "./",
		Mode:     0755,
	}, mtime)); err != nil {
		return nil, err
	}

	if err := addBytes(tw, "./control", 0644, mtime, []byte(metadata)); err != nil {
		return nil, err
	}

	names := make([]string, 0, len(scripts))
	for name := range scripts {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if err := addBytes(tw, "./"+name, 0755, mtime, []byte(scripts[name])); err != nil {
			return nil, err
		}
	}

	if err := tw.Close(); err != nil {
		return nil, err
	}
	if err := gw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func buildData(mtime time.Time, root string) ([]byte, error) {
	var buf bytes.Buffer
	gw := utils.NewGzipWriter(&buf, mtime)
	tw := tar.NewWriter(gw)

	if err := tw.WriteHeader(normalize(&tar.Header{
		Typeflag: tar.TypeDir,
		Name:     "./",
		Mode:     0755,
	}, mtime)); err != nil {
		return nil, err
	}

	paths, err := utils.ListTree(root)
	if err != nil {
		return nil, err
	}

	for _, rel := range paths {
		if err := addPath(tw, root, rel, mtime); err != nil {
			return nil, err
		}
	}

	if err := tw.Close(); err != nil {
		return nil, err
	}
	if err := gw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// addPath adds the file root/rel with its permissions but none of its
// ownership or timestamps
func addPath(tw *tar.Writer, root, rel string, mtime time.Time) error {
	path := filepath.Join(root, filepath.FromSlash(rel))

	info, err := os.Lstat(path)
	if err != nil {
		return err
	}

	link := ""
	if info.Mode()&os.ModeSymlink != 0 {
		if link, err = os.Readlink(path); err != nil {
			return err
		}
	}

	header, err := tar.FileInfoHeader(info, link)
	if err != nil {
		return err
	}

	header.Name = "./" + rel
	if info.IsDir() {
		header.Name += "/"
	}

	if err := tw.WriteHeader(normalize(header, mtime)); err != nil {
		return err
	}

	if !info.Mode().IsRegular() {
		return nil
	}

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = io.Copy(tw, f)
	return err
}

func addBytes(tw *tar.Writer, name string, mode int64, mtime time.Time, data []byte) error {
	header := normalize(&tar.Header{
		Typeflag: tar.TypeReg,
		Name:     name,
		Mode:     mode,
		Size:     int64(len(data)),
	}, mtime)

	if err := tw.WriteHeader(header); err != nil {
		return err
	}
	_, err := tw.Write(data)
	return err
}

// normalize strips everything host-specific from a header
func normalize(header *tar.Header, mtime time.Time) *tar.Header {
	header.Uid = 0
	header.Gid = 0
	header.Uname = ""
	header.Gname = ""
	header.ModTime = mtime
	header.AccessTime = time.Time{}
	header.ChangeTime = time.Time{}
	header.Devmajor = 0
	header.Devminor = 0
	header.PAXRecords = nil
	header.Format = tar.FormatGNU
	return header
}
