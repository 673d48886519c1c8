package source

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

func newS3Client(c *S3Config) (*minio.Client, error) {
	if c.Endpoint == "" || c.Access == "" || c.Secret == "" {
		return nil, errors.New("s3 needs endpoint, access key and secret (VCARD_S3_ENDPOINT, VCARD_S3_ACCESS, VCARD_S3_SECRET)")
	}
	return minio.New(c.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(c.Access, c.Secret, ""),
		Region: c.Region,
		Secure: !c.Insecure,
	})
}

func openS3(ctx context.Context, l *Location, c *S3Config) (io.ReadCloser, error) {
	mc, err := newS3Client(c)
	if err != nil {
		return nil, err
	}
	obj, err := mc.GetObject(ctx, l.Host, l.Path, minio.GetObjectOptions{})
	if err != nil {
		return nil, err
	}
	// GetObject is lazy, Stat() surfaces errors like missing object
	// before we start parsing
	if _, err = obj.Stat(); err != nil {
		_ = obj.Close()
		return nil, fmt.Errorf("s3://%s/%s: %w", l.Host, l.Path, err)
	}
	return obj, nil
}

func uploadS3(ctx context.Context, l *Location, d []byte, c *S3Config) error {
	mc, err := newS3Client(c)
	if err != nil {
		return err
	}
	opts := minio.PutObjectOptions{
		ContentType: mimeVCard,
	}
	r := bytes.NewReader(d)
	_, err = mc.PutObject(ctx, l.Host, l.Path, r, int64(len(d)), opts)
	return err
}
