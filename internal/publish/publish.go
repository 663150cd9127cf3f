// Package publish uploads finished renders to S3-compatible object storage
// (MinIO, AWS S3, and others speaking the same API).
package publish

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/backmassage/stillmux/internal/config"
)

var (
	ErrNoEndpoint = errors.New("upload endpoint is not set (STILLMUX_S3_ENDPOINT)")
	ErrNoBucket   = errors.New("upload bucket is not set")
)

// Config holds the connection settings for an Uploader.
type Config struct {
	Endpoint  string // host[:port], optionally with an http:// or https:// scheme.
	AccessKey string
	SecretKey string
	Bucket    string
	Prefix    string
	UseSSL    bool
}

// ConfigFrom extracts the upload settings from the runtime config.
func ConfigFrom(cfg *config.Config) Config {
	return Config{
		Endpoint:  cfg.UploadEndpoint,
		AccessKey: cfg.UploadAccessKey,
		SecretKey: cfg.UploadSecretKey,
		Bucket:    cfg.UploadBucket,
		Prefix:    cfg.UploadPrefix,
		UseSSL:    cfg.UploadUseSSL,
	}
}

// Result describes an uploaded object.
type Result struct {
	Bucket string
	Key    string
	Size   int64
	URL    string
}

// Uploader puts files into one bucket.
type Uploader struct {
	client *minio.Client
	cfg    Config
}

// New validates c and creates a client. No network traffic happens until
// Upload is called.
func New(c Config) (*Uploader, error) {
	if c.Bucket == "" {
		return nil, ErrNoBucket
	}
	host, secure, err := splitEndpoint(c.Endpoint, c.UseSSL)
	if err != nil {
		return nil, err
	}
	client, err := minio.New(host, &minio.Options{
		Creds:  credentials.NewStaticV4(c.AccessKey, c.SecretKey, ""),
		Secure: secure,
	})
	if err != nil {
		return nil, fmt.Errorf("creating storage client: %w", err)
	}
	return &Uploader{client: client, cfg: c}, nil
}

// Upload stores the file at filePath under Prefix/<basename>, creating the
// bucket first when it does not exist.
func (u *Uploader) Upload(ctx context.Context, filePath string) (Result, error) {
	if _, err := os.Stat(filePath); err != nil {
		return Result{}, err
	}
	if err := u.ensureBucket(ctx); err != nil {
		return Result{}, err
	}

	key := ObjectName(u.cfg.Prefix, filePath)
	info, err := u.client.FPutObject(ctx, u.cfg.Bucket, key, filePath, minio.PutObjectOptions{
		ContentType: ContentType(filePath),
	})
	if err != nil {
		return Result{}, fmt.Errorf("uploading %s to %s/%s: %w", filepath.Base(filePath), u.cfg.Bucket, key, err)
	}
	return Result{
		Bucket: u.cfg.Bucket,
		Key:    key,
		Size:   info.Size,
		URL:    u.ObjectURL(key),
	}, nil
}

// ObjectURL returns the path-style URL of key in the configured bucket.
func (u *Uploader) ObjectURL(key string) string {
	base := u.client.EndpointURL()
	return strings.TrimSuffix(base.String(), "/") + "/" + u.cfg.Bucket + "/" + key
}

func (u *Uploader) ensureBucket(ctx context.Context) error {
	err := u.client.MakeBucket(ctx, u.cfg.Bucket, minio.MakeBucketOptions{})
	if err == nil {
		return nil
	}
	// Already owned buckets fail MakeBucket; that is fine.
	exists, existsErr := u.client.BucketExists(ctx, u.cfg.Bucket)
	if existsErr == nil && exists {
		return nil
	}
	return fmt.Errorf("creating bucket %s: %w", u.cfg.Bucket, err)
}

// ObjectName joins prefix and the base name of filePath into an object key.
func ObjectName(prefix, filePath string) string {
	prefix = strings.Trim(prefix, "/")
	base := filepath.Base(filePath)
	if prefix == "" {
		return base
	}
	return path.Join(prefix, base)
}

// ContentType returns the MIME type for a rendered container.
func ContentType(filePath string) string {
	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".mp4", ".m4v":
		return "video/mp4"
	case ".mov":
		return "video/quicktime"
	case ".mkv":
		return "video/x-matroska"
	default:
		return "application/octet-stream"
	}
}

// splitEndpoint strips an optional scheme from endpoint. An explicit scheme
// overrides useSSL.
func splitEndpoint(endpoint string, useSSL bool) (string, bool, error) {
	e := strings.TrimSpace(endpoint)
	switch {
	case e == "":
		return "", false, ErrNoEndpoint
	case strings.HasPrefix(e, "https://"):
		e, useSSL = strings.TrimPrefix(e, "https://"), true
	case strings.HasPrefix(e, "http://"):
		e, useSSL = strings.TrimPrefix(e, "http://"), false
	}
	e = strings.TrimSuffix(e, "/")
	if e == "" || strings.Contains(e, "/") {
		return "", false, fmt.Errorf("invalid upload endpoint %q (use host[:port])", endpoint)
	}
	return e, useSSL, nil
}
