package source

import (
	"bytes"
	"context"
	"io"

	"github.com/carlmjohnson/requests"
)

const mimeVCard = "text/vcard"

// the whole file is read into memory, contact files are small
func openHTTP(ctx context.Context, uri string, c *Config) (io.ReadCloser, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout())
	defer cancel()

	var buf bytes.Buffer
	err := requests.
		URL(uri).
		ToBytesBuffer(&buf).
		Fetch(ctx)
	if err != nil {
		return nil, err
	}
	return io.NopCloser(&buf), nil
}

func uploadHTTP(ctx context.Context, uri string, d []byte, c *Config) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout())
	defer cancel()

	return requests.
		URL(uri).
		Put().
		BodyBytes(d).
		ContentType(mimeVCard).
		Fetch(ctx)
}
