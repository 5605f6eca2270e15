package storage

import (
	"context"
	"fmt"
	"net/url"
	"path"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/AbdulSamad94/Legalyze-AI-Backend/internal/domain/document"
)

var contentTypes = map[string]string{
	".txt":  "text/plain; charset=utf-8",
	".pdf":  "application/pdf",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".webp": "image/webp",
	".tiff": "image/tiff",
}

// Store archives uploaded source documents in a MinIO/S3 bucket.
type Store struct {
	client     *minio.Client
	bucketName string
	region     string
}

// New buat koneksi MinIO dan pastikan bucket ada
func New(ctx context.Context, endpoint, region, bucket, accessKey, secretKey string, useSSL bool) (*Store, error) {
	cli, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
		Region: region,
	})
	if err != nil {
		return nil, err
	}

	exists, err := cli.BucketExists(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket %s: %w", bucket, err)
	}
	if !exists {
		if err := cli.MakeBucket(ctx, bucket, minio.MakeBucketOptions{Region: region}); err != nil {
			return nil, fmt.Errorf("make bucket %s: %w", bucket, err)
		}
	}

	return &Store{client: cli, bucketName: bucket, region: region}, nil
}

// SessionKey is the object key of a session's source document.
func SessionKey(sessionID, filename string) string {
	return path.Join("sessions", sessionID, path.Base(filename))
}

// Upload implements document.ArchiveStore.
func (s *Store) Upload(ctx context.Context, localPath, key string) (string, error) {
	contentType, ok := contentTypes[document.Ext(key)]
	if !ok {
		contentType = "application/octet-stream"
	}

	_, err := s.client.FPutObject(ctx, s.bucketName, key, localPath, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", key, err)
	}

	// URL publik (jika bucket public), kalau private harus generate presigned URL
	u := url.URL{
		Scheme: s.client.EndpointURL().Scheme,
		Host:   s.client.EndpointURL().Host,
		Path:   "/" + path.Join(s.bucketName, key),
	}
	return u.String(), nil
}

// Ping checks that the bucket is reachable.
func (s *Store) Ping(ctx context.Context) error {
	ok, err := s.client.BucketExists(ctx, s.bucketName)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("bucket %s missing", s.bucketName)
	}
	return nil
}
