package export

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

const defaultRegion = "us-east-1"

// S3Sink uploads samples to an S3-compatible bucket.
type S3Sink struct {
	client *minio.Client
	bucket string
	key    string
}

// NewS3Sink builds a minio client for settings. The endpoint may carry an
// http(s) scheme, which then decides TLS.
func NewS3Sink(settings S3Settings, bucket, key string) (*S3Sink, error) {
	if !settings.Enabled() {
		return nil, ErrS3NotConfigured
	}
	endpoint := strings.TrimSpace(settings.Endpoint)
	useSSL := settings.UseSSL
	if strings.Contains(endpoint, "://") {
		u, err := url.Parse(endpoint)
		if err != nil {
			return nil, fmt.Errorf("export: parse endpoint: %w", err)
		}
		useSSL = u.Scheme == "https"
		endpoint = u.Host
	}
	region := strings.TrimSpace(settings.Region)
	if region == "" {
		region = defaultRegion
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(settings.AccessKey, settings.SecretKey, ""),
		Secure: useSSL,
		Region: region,
	})
	if err != nil {
		return nil, fmt.Errorf("export: create s3 client: %w", err)
	}
	return &S3Sink{client: client, bucket: bucket, key: key}, nil
}

func (s *S3Sink) Write(ctx context.Context, data []byte) (string, error) {
	_, err := s.client.PutObject(ctx, s.bucket, s.key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: "text/csv",
	})
	if err != nil {
		return "", fmt.Errorf("export: upload s3://%s/%s: %w", s.bucket, s.key, describeS3Error(err))
	}
	return fmt.Sprintf("s3://%s/%s", s.bucket, s.key), nil
}

func describeS3Error(err error) error {
	var resp minio.ErrorResponse
	if errors.As(err, &resp) {
		switch resp.Code {
		case "NoSuchBucket":
			return fmt.Errorf("bucket %q does not exist: %w", resp.BucketName, err)
		case "AccessDenied", "InvalidAccessKeyId", "SignatureDoesNotMatch":
			return fmt.Errorf("credentials rejected (%s): %w", resp.Code, err)
		}
	}
	return err
}
