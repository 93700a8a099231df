package archive

import (
	"archive/tar"
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zip"
)

type member struct {
	name    string
	content string
	dir     bool
}

func writeTarGz(t *testing.T, path string, members []member) {
	t.Helper()

	var buf bytes.Buffer
	gw := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gw)

	for _, m := range members {
		header := &tar.Header{Name: m.name, Mode: 0644, Typeflag: tar.TypeReg, Size: int64(len(m.content))}
		if m.dir {
			header.Typeflag = tar.TypeDir
			header.Mode = 0755
			header.Size = 0
		}
		if err := tw.WriteHeader(header); err != nil {
			t.Fatal(err)
		}
		if !m.dir {
			if _, err := tw.Write([]byte(m.content)); err != nil {
				t.Fatal(err)
			}
		}
	}

	if err := tw.Close(); err != nil {
		t.Fatal(err)
	}
	if err := gw.Close(); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		t.Fatal(err)
	}
}

func writeZip(t *testing.T, path string, members []member) {
	t.Helper()

	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	zw := zip.NewWriter(f)
	for _, m := range members {
		w, err := zw.Create(m.name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := w.Write([]byte(m.content)); err != nil {
			t.Fatal(err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
}

func readTree(t *testing.T, root string) map[string]string {
	t.Helper()

	tree := make(map[string]string)
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return err
		}
		rel, _ := filepath.Rel(root, path)
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		tree[filepath.ToSlash(rel)] = string(data)
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	return tree
}

func TestDetect(t *testing.T) {
	dir := t.TempDir()

	tarPath := filepath.Join(dir, "src.tar.gz")
	writeTarGz(t, tarPath, []member{{name: "a.txt", content: "a"}})

	zipPath := filepath.Join(dir, "src.zip")
	writeZip(t, zipPath, []member{{name: "a.txt", content: "a"}})

	plainPath := filepath.Join(dir, "plain.service")
	if err := os.WriteFile(plainPath, []byte("[Unit]\n"), 0644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		path        string
		format      Format
		compression Compression
	}{
		{tarPath, FormatTar, CompressionGzip},
		{zipPath, FormatZip, CompressionNone},
		{plainPath, FormatUnknown, CompressionNone},
	}

	for _, tt := range tests {
		format, compression, err := Detect(tt.path)
		if err != nil {
			t.Fatalf("Detect(%s) failed: %v", tt.path, err)
		}
		if format != tt.format || compression != tt.compression {
			t.Errorf("Detect(%s) = %s/%d, want %s/%d",
				filepath.Base(tt.path), format, compression, tt.format, tt.compression)
		}
	}
}

func TestAutoExtractStripsCommonRoot(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "hello-1.0.tar.gz")
	writeTarGz(t, src, []member{
		{name: "hello-1.0/", dir: true},
		{name: "hello-1.0/hello.c", content: "int main() {}"},
		{name: "hello-1.0/doc/README", content: "readme"},
	})

	dest := filepath.Join(dir, "out")
	extracted, err := AutoExtract(src, dest)
	if err != nil {
		t.Fatalf("AutoExtract failed: %v", err)
	}
	if !extracted {
		t.Fatal("Expected the archive to be extracted")
	}

	want := map[string]string{
		"hello.c":    "int main() {}",
		"doc/README": "readme",
	}
	if diff := cmp.Diff(want, readTree(t, dest)); diff != "" {
		t.Errorf("Extracted tree mismatch (-want +got):\n%s", diff)
	}
}

func TestAutoExtractKeepsMixedRoots(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "assets.zip")
	writeZip(t, src, []member{
		{name: "icons/a.png", content: "a"},
		{name: "fonts/b.ttf", content: "b"},
	})

	dest := filepath.Join(dir, "out")
	extracted, err := AutoExtract(src, dest)
	if err != nil {
		t.Fatalf("AutoExtract failed: %v", err)
	}
	if !extracted {
		t.Fatal("Expected the archive to be extracted")
	}

	want := map[string]string{
		"icons/a.png": "a",
		"fonts/b.ttf": "b",
	}
	if diff := cmp.Diff(want, readTree(t, dest)); diff != "" {
		t.Errorf("Extracted tree mismatch (-want +got):\n%s", diff)
	}
}

func TestAutoExtractContainsTraversal(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "evil.tar.gz")
	writeTarGz(t, src, []member{
		{name: "../../escape.txt", content: "x"},
		{name: "ok.txt", content: "y"},
	})

	dest := filepath.Join(dir, "out")
	if _, err := AutoExtract(src, dest); err != nil {
		t.Fatalf("AutoExtract failed: %v", err)
	}

	if _, err := os.Stat(filepath.Join(dir, "escape.txt")); !os.IsNotExist(err) {
		t.Error("Entry escaped the destination directory")
	}
	if _, err := os.Stat(filepath.Join(dest, "escape.txt")); err != nil {
		t.Errorf("Expected entry to be confined to destination: %v", err)
	}
}

func TestAutoExtractIgnoresPlainFiles(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "hello.service")
	if err := os.WriteFile(src, []byte("[Unit]\n"), 0644); err != nil {
		t.Fatal(err)
	}

	extracted, err := AutoExtract(src, filepath.Join(dir, "out"))
	if err != nil {
		t.Fatalf("AutoExtract failed: %v", err)
	}
	if extracted {
		t.Error("Plain files should not be extracted")
	}
}
