package scanner

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestScan(t *testing.T) {
	dir := t.TempDir()

	files := map[string][]byte{
		"b_1.0-1_armv7-3.2.ipk": {0x1F, 0x8B, 0x08, 0x00},
		"a_1.0-1_armv7-3.2.ipk": {0x1F, 0x8B, 0x08, 0x00},
		"c_1.0-1_armv7-3.2.ipk": []byte("!<arch>\ndebian-binary"),
		"Packages":              []byte("Package: a\n"),
		"broken.ipk":            []byte("nope"),
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), content, 0644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.MkdirAll(filepath.Join(dir, "nested.ipk"), 0755); err != nil {
		t.Fatal(err)
	}

	packages, err := NewFileSystemScanner().Scan(context.Background(), dir)
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}

	want := []ScannedPackage{
		{Path: filepath.Join(dir, "a_1.0-1_armv7-3.2.ipk"), Type: TypeIpk, Size: 4},
		{Path: filepath.Join(dir, "b_1.0-1_armv7-3.2.ipk"), Type: TypeIpk, Size: 4},
	}
	if diff := cmp.Diff(want, packages); diff != "" {
		t.Errorf("Scan mismatch (-want +got):\n%s", diff)
	}
}

func TestDetectPackageType(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		content []byte
		want    PackageType
	}{
		{"hello.ipk", []byte{0x1F, 0x8B}, TypeIpk},
		{"hello-ar.ipk", []byte("!<arch>\n"), TypeArIpk},
		{"hello.tar.gz", []byte{0x1F, 0x8B}, TypeUnknown},
		{"empty.ipk", nil, TypeUnknown},
	}

	for _, tt := range tests {
		path := filepath.Join(dir, tt.name)
		if err := os.WriteFile(path, tt.content, 0644); err != nil {
			t.Fatal(err)
		}

		got, err := DetectPackageType(path)
		if err != nil {
			t.Errorf("DetectPackageType(%s) failed: %v", tt.name, err)
			continue
		}
		if got != tt.want {
			t.Errorf("DetectPackageType(%s) = %s, want %s", tt.name, got, tt.want)
		}
	}
}

func TestScanMissingDirectory(t *testing.T) {
	if _, err := NewFileSystemScanner().Scan(context.Background(), filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Error("Expected an error for a missing directory")
	}
}
