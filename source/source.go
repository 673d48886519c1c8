// Package source opens a contacts data file wherever it lives:
// a local path, an http(s) url, an s3:// object or an sftp:// file.
// Compressed files (.gz, .bz2, .zst, .br) are decompressed on the fly.
package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kjk/vcard/atomicfile"
	"github.com/kjk/vcard/u"
)

// ErrUnsupported is returned for locations we can't read or write
var ErrUnsupported = errors.New("unsupported location")

type Kind int

const (
	KindLocal Kind = iota
	KindHTTP
	KindS3
	KindSFTP
)

func (k Kind) String() string {
	switch k {
	case KindLocal:
		return "local"
	case KindHTTP:
		return "http"
	case KindS3:
		return "s3"
	case KindSFTP:
		return "sftp"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// S3Config is how we access s3:// locations
type S3Config struct {
	Endpoint string
	Access   string
	Secret   string
	Region   string
	// use http instead of https e.g. for local minio server
	Insecure bool
}

type Config struct {
	S3 S3Config
	// private key for sftp:// locations, defaults to ~/.ssh/id_rsa
	SSHKeyPath string
	// for http and sftp, defaults to 30 seconds
	Timeout time.Duration
}

func (c *Config) timeout() time.Duration {
	if c == nil || c.Timeout == 0 {
		return 30 * time.Second
	}
	return c.Timeout
}

// Location is a parsed data file location
type Location struct {
	Kind Kind
	// for KindLocal: file path with ~ expanded
	// for KindS3 and KindSFTP: path of the file on the server / in the bucket
	// for KindHTTP: full url
	Path string
	// for KindS3: bucket, for KindSFTP: host[:port]
	Host string
	// for KindSFTP
	User string
}

// Name is what we use to detect compression
func (l *Location) Name() string {
	return l.Path
}

func (l *Location) String() string {
	switch l.Kind {
	case KindS3:
		return "s3://" + l.Host + "/" + l.Path
	case KindSFTP:
		return "sftp://" + l.User + "@" + l.Host + l.Path
	}
	return l.Path
}

// Parse parses a location. Anything that doesn't look like
// a url is a local file path.
func Parse(loc string) (*Location, error) {
	if loc == "" {
		return nil, fmt.Errorf("%w: empty location", ErrUnsupported)
	}
	scheme, _, ok := strings.Cut(loc, "://")
	if !ok {
		path, err := u.ExpandTildeInPath(loc)
		if err != nil {
			return nil, err
		}
		return &Location{Kind: KindLocal, Path: path}, nil
	}
	uri, err := url.Parse(loc)
	if err != nil {
		return nil, err
	}
	switch strings.ToLower(scheme) {
	case "file":
		return &Location{Kind: KindLocal, Path: filepath.FromSlash(uri.Path)}, nil
	case "http", "https":
		return &Location{Kind: KindHTTP, Path: loc}, nil
	case "s3":
		key := strings.TrimPrefix(uri.Path, "/")
		if uri.Host == "" || key == "" {
			return nil, fmt.Errorf("invalid s3 location '%s', expected s3://bucket/key", loc)
		}
		return &Location{Kind: KindS3, Host: uri.Host, Path: key}, nil
	case "sftp":
		if uri.Host == "" || uri.Path == "" {
			return nil, fmt.Errorf("invalid sftp location '%s', expected sftp://user@host/path", loc)
		}
		user := uri.User.Username()
		if user == "" {
			user = os.Getenv("USER")
		}
		return &Location{Kind: KindSFTP, Host: uri.Host, Path: uri.Path, User: user}, nil
	}
	return nil, fmt.Errorf("%w: '%s'", ErrUnsupported, loc)
}

// Open opens data file at loc for reading, decompressing if needed
func Open(ctx context.Context, loc string, c *Config) (io.ReadCloser, error) {
	l, err := Parse(loc)
	if err != nil {
		return nil, err
	}
	return OpenLocation(ctx, l, c)
}

func OpenLocation(ctx context.Context, l *Location, c *Config) (io.ReadCloser, error) {
	if c == nil {
		c = &Config{}
	}
	var r io.ReadCloser
	var err error
	switch l.Kind {
	case KindLocal:
		return u.OpenFileMaybeCompressed(l.Path)
	case KindHTTP:
		r, err = openHTTP(ctx, l.Path, c)
	case KindS3:
		r, err = openS3(ctx, l, &c.S3)
	case KindSFTP:
		r, err = openSFTP(l, c)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupported, l.Kind)
	}
	if err != nil {
		return nil, err
	}
	return u.NewReaderMaybeCompressed(r, l.Name())
}

// Upload writes d to loc. d should already be compressed
// if loc's name says so.
func Upload(ctx context.Context, loc string, d []byte, c *Config) error {
	l, err := Parse(loc)
	if err != nil {
		return err
	}
	if c == nil {
		c = &Config{}
	}
	switch l.Kind {
	case KindLocal:
		return writeFileAtomically(l.Path, d)
	case KindHTTP:
		return uploadHTTP(ctx, l.Path, d, c)
	case KindS3:
		return uploadS3(ctx, l, d, &c.S3)
	case KindSFTP:
		return uploadSFTP(l, d, c)
	}
	return fmt.Errorf("%w: %s", ErrUnsupported, l.Kind)
}

func writeFileAtomically(path string, d []byte) error {
	f, err := atomicfile.New(path)
	if err != nil {
		return err
	}
	defer f.RemoveIfNotClosed()
	if _, err = f.Write(d); err != nil {
		return err
	}
	return f.Close()
}
