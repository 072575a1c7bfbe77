package storage

import (
	"context"
	"errors"
	"fmt"
	"io"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// GCSStore keeps blobs as objects in a Cloud Storage bucket.
type GCSStore struct {
	client *storage.Client
	bucket string
}

// NewGCSStore uses credentialsFile when set, application default
// credentials otherwise.
func NewGCSStore(ctx context.Context, bucket, credentialsFile string) (*GCSStore, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCS client: %w", err)
	}
	return &GCSStore{client: client, bucket: bucket}, nil
}

func (s *GCSStore) Name() string { return "gcs" }

func (s *GCSStore) Put(ctx context.Context, key, contentType string, r io.Reader) (int64, error) {
	if !validKey(key) {
		return 0, ErrInvalidKey
	}
	w := s.client.Bucket(s.bucket).Object(key).NewWriter(ctx)
	w.ContentType = contentType
	n, err := io.Copy(w, r)
	if err != nil {
		w.Close()
		return 0, fmt.Errorf("failed to upload to GCS: %w", err)
	}
	if err := w.Close(); err != nil {
		return 0, fmt.Errorf("failed to finalize GCS upload: %w", err)
	}
	return n, nil
}

func (s *GCSStore) Get(ctx context.Context, key string) (io.ReadCloser, string, error) {
	rc, err := s.client.Bucket(s.bucket).Object(key).NewReader(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil, "", ErrNotFound
	}
	if err != nil {
		return nil, "", err
	}
	return rc, rc.Attrs.ContentType, nil
}

func (s *GCSStore) Delete(ctx context.Context, key string) error {
	err := s.client.Bucket(s.bucket).Object(key).Delete(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return ErrNotFound
	}
	return err
}

func (s *GCSStore) Close() error {
	return s.client.Close()
}
