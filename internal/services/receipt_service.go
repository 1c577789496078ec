package services

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// ReceiptService stores receipt photos in S3-compatible object storage and
// hands back a durable reference. The billing core treats that reference as
// an opaque string; only this service knows it is an object key or URL.
type ReceiptService interface {
	Upload(ctx context.Context, telegramID int64, r io.Reader, size int64) (string, error)
	PresignedURL(ctx context.Context, objectName string, expiry time.Duration) (string, error)
	EnsureBucket(ctx context.Context) error
	Ping(ctx context.Context) error
}

type receiptService struct {
	client    *minio.Client
	bucket    string
	publicURL string
}

func NewReceiptService(endpoint, accessKey, secretKey string, useSSL bool, bucket, publicURL string) (ReceiptService, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, err
	}
	return &receiptService{client: client, bucket: bucket, publicURL: publicURL}, nil
}

// Upload stores one receipt image under a key scoped to the payer and
// returns the reference recorded in the payment log: a public URL when one
// is configured, otherwise bucket/key.
func (s *receiptService) Upload(ctx context.Context, telegramID int64, r io.Reader, size int64) (string, error) {
	objectName := ReceiptObjectName(telegramID, time.Now())

	_, err := s.client.PutObject(ctx, s.bucket, objectName, r, size, minio.PutObjectOptions{
		ContentType: "image/jpeg",
	})
	if err != nil {
		return "", err
	}

	if s.publicURL != "" {
		return fmt.Sprintf("%s/%s", s.publicURL, objectName), nil
	}
	return fmt.Sprintf("%s/%s", s.bucket, objectName), nil
}

// PresignedURL mints a fresh time-limited download URL for an existing
// receipt object.
func (s *receiptService) PresignedURL(ctx context.Context, objectName string, expiry time.Duration) (string, error) {
	u, err := s.client.PresignedGetObject(ctx, s.bucket, objectName, expiry, nil)
	if err != nil {
		return "", err
	}
	return u.String(), nil
}

func (s *receiptService) EnsureBucket(ctx context.Context) error {
	found, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return err
	}
	if !found {
		return s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{})
	}
	return nil
}

func (s *receiptService) Ping(ctx context.Context) error {
	_, err := s.client.BucketExists(ctx, s.bucket)
	return err
}

// ReceiptObjectName builds the storage key for a receipt photo:
// receipts/<telegram id>/<timestamp>_<short uuid>.jpg.
func ReceiptObjectName(telegramID int64, now time.Time) string {
	return fmt.Sprintf("receipts/%d/%s_%s.jpg",
		telegramID, now.Format("20060102_150405"), uuid.NewString()[:8])
}
