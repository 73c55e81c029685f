// internal/storage/s3.go
package storage

import (
	"bytes"
	"context"
	"fmt"
	"mime"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"

	"github.com/watch4deal/admin-backend/internal/config"
)

// S3BlobStore stores images in an S3 bucket, optionally fronted by
// CloudFront.
type S3BlobStore struct {
	client  *s3.S3
	bucket  string
	region  string
	baseURL string
}

// NewBlobStore returns the S3 store when AWS credentials are configured and
// falls back to in-process memory storage otherwise.
func NewBlobStore(cfg *config.Config) (BlobStore, error) {
	if cfg.AWS.AccessKeyID == "" {
		return NewMemoryBlobStore(), nil
	}

	sess, err := session.NewSession(&aws.Config{
		Region: aws.String(cfg.AWS.Region),
		Credentials: credentials.NewStaticCredentials(
			cfg.AWS.AccessKeyID,
			cfg.AWS.SecretAccessKey,
			"",
		),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}

	store := &S3BlobStore{
		client: s3.New(sess),
		bucket: cfg.AWS.S3Bucket,
		region: cfg.AWS.Region,
	}
	if cfg.AWS.CloudFrontURL != "" {
		store.baseURL = strings.TrimSuffix(cfg.AWS.CloudFrontURL, "/")
	} else {
		store.baseURL = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", store.bucket, store.region)
	}
	return store, nil
}

func (s *S3BlobStore) Upload(ctx context.Context, data []byte, suggestedName string) (string, error) {
	key := blobKey(suggestedName)

	contentType := mime.TypeByExtension(filepath.Ext(suggestedName))
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	_, err := s.client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(data))),
		ACL:           aws.String("public-read"),
	})
	if err != nil {
		return "", &UploadError{Name: suggestedName, Err: err}
	}

	return s.baseURL + "/" + key, nil
}

func (s *S3BlobStore) Remove(ctx context.Context, url string) error {
	key := strings.TrimPrefix(url, s.baseURL+"/")
	if key == url {
		return fmt.Errorf("url %q is not served by this store", url)
	}

	_, err := s.client.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete blob %s: %w", key, err)
	}
	return nil
}
