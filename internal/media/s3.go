// Package media uploads admin images to an S3 bucket and returns the URL
// stored in image references.
package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"sportstore/pkg/fsutils"
)

// ErrUnsupportedType is returned for uploads that are not raster images.
var ErrUnsupportedType = errors.New("unsupported content type")

// allowedTypes are the image types served from the bucket. SVG is excluded
// since it can carry script.
var allowedTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

// Allowed reports whether contentType may be uploaded.
func Allowed(contentType string) bool {
	mt, _, _ := strings.Cut(contentType, ";")
	return allowedTypes[strings.ToLower(strings.TrimSpace(mt))]
}

// Uploader stores one file and returns its public URL.
type Uploader interface {
	Upload(ctx context.Context, name, contentType string, body io.Reader) (string, error)
}

// objectPutter is the part of *s3.Client the uploader needs.
type objectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Options configure an S3Uploader.
type Options struct {
	Bucket        string
	Region        string
	Prefix        string // key prefix, e.g. "uploads"
	PublicBaseURL string // CDN or website URL; empty uses the bucket URL
}

// S3Uploader puts objects into one bucket.
type S3Uploader struct {
	client objectPutter
	opts   Options
	logger *slog.Logger
	now    func() time.Time
	newID  func() string
}

// NewS3Uploader loads the default AWS configuration (environment, shared
// files, instance role) for the configured region.
func NewS3Uploader(ctx context.Context, opts Options, logger *slog.Logger) (*S3Uploader, error) {
	if opts.Bucket == "" {
		return nil, fmt.Errorf("bucket name is required")
	}
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(opts.Region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
	}
	return newUploader(s3.NewFromConfig(cfg), opts, logger), nil
}

func newUploader(client objectPutter, opts Options, logger *slog.Logger) *S3Uploader {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	opts.Prefix = strings.Trim(opts.Prefix, "/")
	opts.PublicBaseURL = strings.TrimRight(opts.PublicBaseURL, "/")
	return &S3Uploader{client: client, opts: opts, logger: logger, now: time.Now, newID: uuid.NewString}
}

// Key returns a fresh object key for an upload named name. Two uploads of
// the same name never share a key.
func (u *S3Uploader) Key(name string) string {
	base := fsutils.SanitizeFilename(path.Base(strings.ReplaceAll(name, `\`, "/")))
	if base == "" || base == "." || base == "_" {
		base = "upload"
	}
	key := fmt.Sprintf("%d_%s_%s", u.now().Unix(), u.newID(), base)
	if u.opts.Prefix != "" {
		key = u.opts.Prefix + "/" + key
	}
	return key
}

// URL returns the public URL of an object key.
func (u *S3Uploader) URL(key string) string {
	if u.opts.PublicBaseURL != "" {
		return u.opts.PublicBaseURL + "/" + key
	}
	if u.opts.Region == "" || u.opts.Region == "us-east-1" {
		return fmt.Sprintf("https://%s.s3.amazonaws.com/%s", u.opts.Bucket, key)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", u.opts.Bucket, u.opts.Region, key)
}

// Upload stores an image and returns its public URL.
func (u *S3Uploader) Upload(ctx context.Context, name, contentType string, body io.Reader) (string, error) {
	if !Allowed(contentType) {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedType, contentType)
	}
	key := u.Key(name)
	_, err := u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(u.opts.Bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload file to S3: %w", err)
	}
	u.logger.Info("Uploaded image", "bucket", u.opts.Bucket, "key", key)
	return u.URL(key), nil
}
