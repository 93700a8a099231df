package utils

import (
	"bytes"
	"io"
	"time"

	"github.com/klauspost/compress/gzip"
)

// NewGzipWriter returns a gzip writer whose header only depends on modTime,
// so that identical input always compresses to identical bytes
func NewGzipWriter(w io.Writer, modTime time.Time) *gzip.Writer {
	gw, _ := gzip.NewWriterLevel(w, gzip.BestCompression)
	gw.Header.ModTime = modTime
	gw.Header.Name = ""
	gw.Header.OS = 255
	return gw
}

// GzipCompress compresses data using gzip with a fixed header timestamp
func GzipCompress(data []byte, modTime time.Time) ([]byte, error) {
	var buf bytes.Buffer
	w := NewGzipWriter(&buf, modTime)

	if _, err := w.Write(data); err != nil {
		return nil, err
	}

	if err := w.Close(); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// GzipDecompress decompresses gzip data
func GzipDecompress(data []byte) ([]byte, error) {
	r, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer r.Close()

	return io.ReadAll(r)
}
