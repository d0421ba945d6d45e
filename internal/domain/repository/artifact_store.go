package repository

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
)

// FileArtifactStore reads model artifacts from a local directory.
type FileArtifactStore struct {
	dir string
}

func NewFileArtifactStore(dir string) *FileArtifactStore {
	return &FileArtifactStore{dir: dir}
}

func (s *FileArtifactStore) Fetch(_ context.Context, name string) ([]byte, error) {
	content, err := os.ReadFile(filepath.Join(s.dir, filepath.Base(name)))
	if err != nil {
		return nil, fmt.Errorf("failed to read artifact %s: %w", name, err)
	}
	return content, nil
}

// S3ArtifactStore downloads model artifacts from an S3 bucket prefix.
type S3ArtifactStore struct {
	svc    s3iface.S3API
	bucket string
	prefix string
}

func NewS3ArtifactStore(region, bucket, prefix string) (*S3ArtifactStore, error) {
	if bucket == "" {
		return nil, fmt.Errorf("artifact bucket is not set")
	}

	sess, err := session.NewSession(&aws.Config{
		Region: aws.String(region),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}

	return NewS3ArtifactStoreWithClient(s3.New(sess), bucket, prefix), nil
}

func NewS3ArtifactStoreWithClient(svc s3iface.S3API, bucket, prefix string) *S3ArtifactStore {
	return &S3ArtifactStore{svc: svc, bucket: bucket, prefix: prefix}
}

func (s *S3ArtifactStore) Fetch(ctx context.Context, name string) ([]byte, error) {
	key := path.Join(s.prefix, name)

	result, err := s.svc.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to download s3://%s/%s: %w", s.bucket, key, err)
	}
	defer result.Body.Close()

	content, err := io.ReadAll(result.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read s3://%s/%s: %w", s.bucket, key, err)
	}

	return content, nil
}
