package scanner

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
)

// IpkExtension is the file extension of package archives
const IpkExtension = ".ipk"

// Magic bytes for package detection
var (
	// ipk files written by toltecmk are gzipped tars
	gzipMagic = []byte{0x1F, 0x8B}

	// opkg-build can also produce ar archives
	arMagic = []byte("!<arch>\n")
)

// DetectPackageType determines the package type based on magic bytes and
// file extension
func DetectPackageType(path string) (PackageType, error) {
	if filepath.Ext(path) != IpkExtension {
		return TypeUnknown, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return TypeUnknown, err
	}
	defer f.Close()

	header := make([]byte, len(arMagic))
	n, err := io.ReadFull(f, header)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return TypeUnknown, err
	}
	header = header[:n]

	switch {
	case bytes.HasPrefix(header, gzipMagic):
		return TypeIpk, nil
	case bytes.HasPrefix(header, arMagic):
		return TypeArIpk, nil
	default:
		return TypeUnknown, nil
	}
}
