package archive

import (
	"bufio"
	"bytes"
	"compress/bzip2"
	"io"
	"os"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/ulikunitz/xz"
)

// Format represents the kind of archive a file holds
type Format int

const (
	FormatUnknown Format = iota
	FormatTar
	FormatZip
)

// String returns the string representation of Format
func (f Format) String() string {
	switch f {
	case FormatTar:
		return "tar"
	case FormatZip:
		return "zip"
	default:
		return "unknown"
	}
}

// Compression represents the compression wrapped around a tar stream
type Compression int

const (
	CompressionNone Compression = iota
	CompressionGzip
	CompressionBzip2
	CompressionXz
	CompressionZstd
)

// Magic bytes for archive detection
var (
	gzipMagic  = []byte{0x1F, 0x8B}
	bzip2Magic = []byte("BZh")
	xzMagic    = []byte{0xFD, 0x37, 0x7A, 0x58, 0x5A, 0x00}
	zstdMagic  = []byte{0x28, 0xB5, 0x2F, 0xFD}
	zipMagic   = []byte("PK\x03\x04")

	// POSIX and GNU tar headers carry "ustar" at offset 257
	tarMagic       = []byte("ustar")
	tarMagicOffset = 257
)

// Detect determines the archive format of a file by looking at its content
func Detect(path string) (Format, Compression, error) {
	f, err := os.Open(path)
	if err != nil {
		return FormatUnknown, CompressionNone, err
	}
	defer f.Close()

	header := make([]byte, 512)
	n, err := io.ReadFull(f, header)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return FormatUnknown, CompressionNone, err
	}
	header = header[:n]

	if bytes.HasPrefix(header, zipMagic) {
		return FormatZip, CompressionNone, nil
	}

	compression := detectCompression(header)
	if compression == CompressionNone {
		if isTarHeader(header) {
			return FormatTar, CompressionNone, nil
		}
		return FormatUnknown, CompressionNone, nil
	}

	// Look inside the compressed stream for a tar header
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return FormatUnknown, CompressionNone, err
	}

	r, closer, err := decompress(bufio.NewReader(f), compression)
	if err != nil {
		// Looked compressed but is not, treat it as an opaque file
		return FormatUnknown, CompressionNone, nil
	}
	defer closer()

	inner := make([]byte, 512)
	n, _ = io.ReadFull(r, inner)
	if isTarHeader(inner[:n]) {
		return FormatTar, compression, nil
	}

	return FormatUnknown, compression, nil
}

func detectCompression(header []byte) Compression {
	switch {
	case bytes.HasPrefix(header, gzipMagic):
		return CompressionGzip
	case bytes.HasPrefix(header, bzip2Magic):
		return CompressionBzip2
	case bytes.HasPrefix(header, xzMagic):
		return CompressionXz
	case bytes.HasPrefix(header, zstdMagic):
		return CompressionZstd
	default:
		return CompressionNone
	}
}

func isTarHeader(header []byte) bool {
	end := tarMagicOffset + len(tarMagic)
	return len(header) >= end && bytes.Equal(header[tarMagicOffset:end], tarMagic)
}

// decompress wraps r with the matching decompressor
func decompress(r io.Reader, compression Compression) (io.Reader, func(), error) {
	switch compression {
	case CompressionGzip:
		gr, err := gzip.NewReader(r)
		if err != nil {
			return nil, nil, err
		}
		return gr, func() { gr.Close() }, nil
	case CompressionBzip2:
		return bzip2.NewReader(r), func() {}, nil
	case CompressionXz:
		xr, err := xz.NewReader(r)
		if err != nil {
			return nil, nil, err
		}
		return xr, func() {}, nil
	case CompressionZstd:
		zr, err := zstd.NewReader(r)
		if err != nil {
			return nil, nil, err
		}
		return zr, zr.Close, nil
	default:
		return r, func() {}, nil
	}
}
