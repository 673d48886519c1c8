package u

import (
	"bytes"
	"compress/bzip2"
	"compress/gzip"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/zstd"
)

// Compression identifies how a data file is compressed.
// Determined by file extension.
type Compression int

const (
	CompressionNone Compression = iota
	CompressionGzip
	CompressionBzip2
	CompressionZstd
	CompressionBrotli
)

var (
	// ErrCannotCompress is returned when asked to write a format we can only read
	ErrCannotCompress = errors.New("compression format is read-only")

	extToCompression = map[string]Compression{
		".gz":   CompressionGzip,
		".bz2":  CompressionBzip2,
		".zst":  CompressionZstd,
		".zstd": CompressionZstd,
		".br":   CompressionBrotli,
	}
)

// CompressionFromName returns compression based on extension of name.
// name can be a file path or url path.
func CompressionFromName(name string) Compression {
	if idx := strings.IndexAny(name, "?#"); idx >= 0 && strings.Contains(name, "://") {
		name = name[:idx]
	}
	ext := strings.ToLower(filepath.Ext(name))
	return extToCompression[ext]
}

// readCloser closes both the decompressor and the underlying reader
type readCloser struct {
	io.Reader
	closers []io.Closer
}

func (rc *readCloser) Close() error {
	var errs []error
	for _, c := range rc.closers {
		errs = append(errs, c.Close())
	}
	return getErr(errs...)
}

type closerFunc func()

func (f closerFunc) Close() error {
	f()
	return nil
}

// NewReaderMaybeCompressed wraps r in a decompressor picked by extension
// of name. Closing the result also closes r if it's an io.Closer.
func NewReaderMaybeCompressed(r io.Reader, name string) (io.ReadCloser, error) {
	rc := &readCloser{Reader: r}
	switch CompressionFromName(name) {
	case CompressionGzip:
		zr, err := gzip.NewReader(r)
		if err != nil {
			closeIfCloser(r)
			return nil, err
		}
		rc.Reader = zr
		rc.closers = append(rc.closers, zr)
	case CompressionBzip2:
		rc.Reader = bzip2.NewReader(r)
	case CompressionZstd:
		zr, err := zstd.NewReader(r)
		if err != nil {
			closeIfCloser(r)
			return nil, err
		}
		rc.Reader = zr
		rc.closers = append(rc.closers, closerFunc(zr.Close))
	case CompressionBrotli:
		rc.Reader = brotli.NewReader(r)
	}
	if c, ok := r.(io.Closer); ok {
		rc.closers = append(rc.closers, c)
	}
	return rc, nil
}

// OpenFileMaybeCompressed opens a file that might be compressed with gzip,
// bzip2, zstd or brotli
// TODO: could sniff file content instead of checking file extension
func OpenFileMaybeCompressed(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	return NewReaderMaybeCompressed(f, path)
}

// ReadFileMaybeCompressed reads a whole file, decompressing if needed
func ReadFileMaybeCompressed(path string) ([]byte, error) {
	r, err := OpenFileMaybeCompressed(path)
	if err != nil {
		return nil, err
	}
	defer CloseNoError(r)
	return io.ReadAll(r)
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error {
	return nil
}

// NewWriterMaybeCompressed wraps w in a compressor picked by extension
// of name. Close() flushes the compressor but doesn't close w.
func NewWriterMaybeCompressed(w io.Writer, name string) (io.WriteCloser, error) {
	switch CompressionFromName(name) {
	case CompressionGzip:
		return gzip.NewWriterLevel(w, gzip.BestCompression)
	case CompressionZstd:
		// zstd.SpeedBestCompression is much slower and not much better
		return zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedDefault))
	case CompressionBrotli:
		return brotli.NewWriterLevel(w, brotli.BestCompression), nil
	case CompressionBzip2:
		return nil, ErrCannotCompress
	}
	return nopWriteCloser{w}, nil
}

// CompressData compresses d with a codec picked by extension of name
func CompressData(d []byte, name string) ([]byte, error) {
	var buf bytes.Buffer
	w, err := NewWriterMaybeCompressed(&buf, name)
	if err != nil {
		return nil, err
	}
	_, err = w.Write(d)
	err2 := w.Close()
	if err = getErr(err, err2); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func closeIfCloser(r io.Reader) {
	if c, ok := r.(io.Closer); ok {
		_ = c.Close()
	}
}

func getErr(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
