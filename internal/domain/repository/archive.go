package repository

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinioArchive stores uploaded batches in an S3-compatible bucket below prefix.
type MinioArchive struct {
	client *minio.Client
	bucket string
	prefix string
}

func NewMinioArchive(endpoint, accessKeyID, secretKey, bucket, prefix string, secure bool) (*MinioArchive, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKeyID, secretKey, ""),
		Secure: secure,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create S3 client: %w", err)
	}

	return &MinioArchive{client: client, bucket: bucket, prefix: prefix}, nil
}

func (a *MinioArchive) Archive(ctx context.Context, key string, data []byte) error {
	_, err := a.client.PutObject(
		ctx,
		a.bucket,
		path.Join(a.prefix, key),
		bytes.NewReader(data),
		int64(len(data)),
		minio.PutObjectOptions{
			ContentType: "text/csv",
		},
	)
	if err != nil {
		return fmt.Errorf("s3 put object: %w", err)
	}
	return nil
}

// LocalArchive stores uploaded batches below a directory.
type LocalArchive struct {
	dir string
}

func NewLocalArchive(dir string) *LocalArchive {
	return &LocalArchive{dir: dir}
}

func (a *LocalArchive) Archive(_ context.Context, key string, data []byte) error {
	target := filepath.Join(a.dir, filepath.Clean("/"+key))
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("failed to create archive directory: %w", err)
	}
	if err := os.WriteFile(target, data, 0o644); err != nil {
		return fmt.Errorf("failed to write archive file: %w", err)
	}
	return nil
}
