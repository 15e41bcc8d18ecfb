// Package export writes downloaded sample bytes to where the operator asked:
// a local file or an S3-compatible bucket.
package export

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"synthkit/internal/config"
)

// Sink stores one sample and reports where it went.
type Sink interface {
	Write(ctx context.Context, data []byte) (string, error)
}

// S3Settings configure the S3 sink. Endpoint is host[:port] without a scheme.
type S3Settings struct {
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	UseSSL    bool
}

// Enabled reports whether an endpoint and credentials are present.
func (s S3Settings) Enabled() bool {
	return s.Endpoint != "" && s.AccessKey != "" && s.SecretKey != ""
}

// ErrS3NotConfigured is returned for s3:// targets without export settings.
var ErrS3NotConfigured = errors.New("export: s3 target requires export.s3_endpoint and credentials")

// Open picks a sink for target: s3://bucket/key goes to object storage, anything
// else is a local path.
func Open(target string, s3 S3Settings) (Sink, error) {
	target = strings.TrimSpace(target)
	if target == "" {
		return nil, errors.New("export: target is required")
	}
	if strings.HasPrefix(target, "s3://") {
		bucket, key, err := ParseS3URL(target)
		if err != nil {
			return nil, err
		}
		if !s3.Enabled() {
			return nil, ErrS3NotConfigured
		}
		return NewS3Sink(s3, bucket, key)
	}
	return &FileSink{Path: target}, nil
}

// ParseS3URL splits s3://bucket/key.
func ParseS3URL(raw string) (bucket, key string, err error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", "", fmt.Errorf("export: parse %q: %w", raw, err)
	}
	if u.Scheme != "s3" {
		return "", "", fmt.Errorf("export: %q is not an s3:// url", raw)
	}
	bucket = u.Host
	key = strings.TrimPrefix(u.Path, "/")
	if bucket == "" || key == "" || strings.HasSuffix(key, "/") {
		return "", "", fmt.Errorf("export: %q must name a bucket and an object key", raw)
	}
	return bucket, key, nil
}

// FileSink writes to a local path, replacing any existing file.
type FileSink struct {
	Path string
}

func (f *FileSink) Write(ctx context.Context, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	path, err := config.ExpandPath(strings.TrimSpace(f.Path))
	if err != nil {
		return "", fmt.Errorf("export: %w", err)
	}
	if path == "" {
		return "", errors.New("export: file path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("export: create directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".sample-*.csv")
	if err != nil {
		return "", fmt.Errorf("export: create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return "", fmt.Errorf("export: write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return "", fmt.Errorf("export: close %s: %w", path, err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		_ = os.Remove(tmpName)
		return "", fmt.Errorf("export: chmod %s: %w", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return "", fmt.Errorf("export: move into place %s: %w", path, err)
	}
	return path, nil
}
