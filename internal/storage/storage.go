// Package storage archives applicant documents in object storage. The CRM
// keeps the authoritative copy; the archive exists so documents survive CRM
// file retention limits and stay reachable for audits.
package storage

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"time"

	"admission_portal_backend/platform/config"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// PresignedURLTTL is the expiration for download links.
const PresignedURLTTL = 15 * time.Minute

// MinIOService stores document archives in MinIO.
type MinIOService struct {
	client      *minio.Client
	bucket      string
	maxFileSize int64
}

// NewMinIOService creates the archive service. Returns an error when MinIO
// is not configured; callers treat the archive as optional.
func NewMinIOService(cfg config.StorageConfig) (*MinIOService, error) {
	if !cfg.IsMinIOEnabled() {
		return nil, fmt.Errorf("minio is not configured")
	}

	client, err := minio.New(cfg.GetMinIOEndpoint(), &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.GetMinIOAccessKey(), cfg.GetMinIOSecretKey(), ""),
		Secure: cfg.GetMinIOUseSSL(),
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	return &MinIOService{
		client:      client,
		bucket:      cfg.GetMinIOBucketUploads(),
		maxFileSize: cfg.GetMinIOMaxFileSize(),
	}, nil
}

// EnsureBucketExists creates the uploads bucket if it does not exist.
func (s *MinIOService) EnsureBucketExists(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("check bucket: %w", err)
	}
	if !exists {
		if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("create bucket %s: %w", s.bucket, err)
		}
	}
	return nil
}

// ArchiveDocument stores one document under the opportunity's prefix and
// returns the object key.
func (s *MinIOService) ArchiveDocument(ctx context.Context, opportunityID, docType, ext, contentType string, data []byte) (string, error) {
	if s.maxFileSize > 0 && int64(len(data)) > s.maxFileSize {
		return "", fmt.Errorf("document exceeds maximum size of %d bytes", s.maxFileSize)
	}

	key := fmt.Sprintf("%s/%s_%s.%s", opportunityID, docType, uuid.New().String()[:8], ext)
	_, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return "", fmt.Errorf("put object %s: %w", key, err)
	}
	return key, nil
}

// GenerateDownloadURL creates a presigned link to an archived document.
func (s *MinIOService) GenerateDownloadURL(ctx context.Context, fileKey string) (string, error) {
	u, err := s.client.PresignedGetObject(ctx, s.bucket, fileKey, PresignedURLTTL, url.Values{})
	if err != nil {
		return "", fmt.Errorf("presign %s: %w", fileKey, err)
	}
	return u.String(), nil
}
