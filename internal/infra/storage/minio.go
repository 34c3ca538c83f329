package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/rotisserie/eris"
)

// MinioConfig holds the object store connection settings.
type MinioConfig struct {
	Endpoint  string
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string
	UseSSL    bool
	// PublicURL overrides the scheme://host used in document URLs.
	PublicURL string
}

type Store struct {
	client     *minio.Client
	bucketName string
	publicURL  string
}

// New buat koneksi MinIO
func New(ctx context.Context, cfg MinioConfig) (*Store, error) {
	cli, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, eris.Wrap(err, "storage: minio client")
	}

	// pastikan bucket ada
	exists, err := cli.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, eris.Wrapf(err, "storage: check bucket %s", cfg.Bucket)
	}
	if !exists {
		if err := cli.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{Region: cfg.Region}); err != nil {
			return nil, eris.Wrapf(err, "storage: make bucket %s", cfg.Bucket)
		}
	}

	public := cfg.PublicURL
	if public == "" {
		public = cli.EndpointURL().String()
	}
	return &Store{client: cli, bucketName: cfg.Bucket, publicURL: public}, nil
}

// Put implementasi DocumentStore
func (s *Store) Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) (string, error) {
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	_, err := s.client.PutObject(ctx, s.bucketName, key, body, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", eris.Wrapf(err, "storage: put %s", key)
	}

	// URL publik (jika bucket public), kalau private harus generate presigned URL
	return objectURL(s.publicURL, s.bucketName, key), nil
}

// Delete hapus object; missing objects are ignored by MinIO.
func (s *Store) Delete(ctx context.Context, key string) error {
	if err := s.client.RemoveObject(ctx, s.bucketName, key, minio.RemoveObjectOptions{}); err != nil {
		return eris.Wrapf(err, "storage: delete %s", key)
	}
	return nil
}

// Ping checks the bucket is reachable.
func (s *Store) Ping(ctx context.Context) error {
	if _, err := s.client.BucketExists(ctx, s.bucketName); err != nil {
		return eris.Wrap(err, "storage: ping")
	}
	return nil
}

func objectURL(base, bucket, key string) string {
	escaped := make([]string, 0, 4)
	for _, seg := range strings.Split(key, "/") {
		escaped = append(escaped, url.PathEscape(seg))
	}
	return fmt.Sprintf("%s/%s/%s", strings.TrimRight(base, "/"), bucket, strings.Join(escaped, "/"))
}
