package s3

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/config"
	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/listing/domain"
	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/platform/logger"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"
)

// objectAPI is the part of *minio.Client the storage needs.
type objectAPI interface {
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	RemoveObject(ctx context.Context, bucketName, objectName string, opts minio.RemoveObjectOptions) error
}

// S3Storage keeps listing images in a MinIO/S3 bucket. References handed out
// are public URLs of the form <base>/<bucket>/<key>.
type S3Storage struct {
	objects objectAPI
	bucket  string
	baseURL string
	logger  *logger.Logger
}

func NewS3Storage(ctx context.Context, cfg config.MinIOConfig, log *logger.Logger) (*S3Storage, error) {
	log.Info("Initializing S3 MinIO Storage",
		zap.String("endpoint", cfg.Endpoint),
		zap.String("bucket", cfg.Bucket),
		zap.Bool("use_ssl", cfg.UseSSL))

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client for endpoint %s: %w", cfg.Endpoint, err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket %s: %w", cfg.Bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{Region: cfg.Region}); err != nil {
			return nil, fmt.Errorf("failed to make bucket %s: %w", cfg.Bucket, err)
		}
		log.Info("S3Storage: bucket created", zap.String("bucket", cfg.Bucket))
	}

	base := cfg.PublicBaseURL
	if base == "" {
		base = client.EndpointURL().String()
	}
	return newS3Storage(client, cfg.Bucket, base, log), nil
}

func newS3Storage(objects objectAPI, bucket, baseURL string, log *logger.Logger) *S3Storage {
	return &S3Storage{
		objects: objects,
		bucket:  bucket,
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  log.Named("S3Storage"),
	}
}

func (s *S3Storage) Upload(ctx context.Context, key string, img domain.Image) (string, error) {
	info, err := s.objects.PutObject(ctx, s.bucket, key, bytes.NewReader(img.Data), int64(len(img.Data)), minio.PutObjectOptions{
		ContentType:  img.ContentType,
		UserMetadata: map[string]string{"original-filename": img.FileName},
	})
	if err != nil {
		s.logger.Error("PutObject failed", zap.String("bucket", s.bucket), zap.String("key", key), zap.Error(err))
		return "", fmt.Errorf("failed to upload object %s to bucket %s: %w", key, s.bucket, err)
	}
	s.logger.Debug("Object uploaded", zap.String("key", info.Key), zap.Int64("size", info.Size))
	return s.reference(key), nil
}

// Delete removes the object behind ref. A missing object is not an error.
func (s *S3Storage) Delete(ctx context.Context, ref string) error {
	key, err := s.keyFromReference(ref)
	if err != nil {
		return err
	}
	if err := s.objects.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil
		}
		return fmt.Errorf("failed to remove object %s: %w", key, err)
	}
	return nil
}

func (s *S3Storage) reference(key string) string {
	return fmt.Sprintf("%s/%s/%s", s.baseURL, s.bucket, key)
}

func (s *S3Storage) keyFromReference(ref string) (string, error) {
	prefix := s.reference("")
	if !strings.HasPrefix(ref, prefix) {
		// tolerate a different host as long as the bucket segment matches
		marker := "/" + s.bucket + "/"
		i := strings.Index(ref, marker)
		if i < 0 {
			return "", fmt.Errorf("reference %q is not in bucket %s", ref, s.bucket)
		}
		prefix = ref[:i+len(marker)]
	}
	key := strings.TrimPrefix(ref, prefix)
	if key == "" {
		return "", fmt.Errorf("reference %q has no object key", ref)
	}
	return key, nil
}
