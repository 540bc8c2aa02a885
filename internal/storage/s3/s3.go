// Package s3 implements the avatar storage.Uploader against any
// S3-compatible object store (AWS S3, MinIO, Cloudflare R2, ...).
package s3

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/sakif/account-service/internal/storage"
)

// Config holds the connection settings for the object store.
//
// Endpoint is the base URL of the store. For MinIO running locally that is
// something like "http://localhost:9000"; leave PublicBaseURL empty to serve
// avatars from the same endpoint.
type Config struct {
	Region        string
	Endpoint      string
	Bucket        string
	AccessKey     string
	SecretKey     string
	PublicBaseURL string // base URL for avatar links; defaults to Endpoint
}

// Client uploads avatar images to a single bucket.
type Client struct {
	s3     *s3.Client
	bucket string
	public string
}

// compile-time check that *Client implements storage.Uploader
var _ storage.Uploader = (*Client)(nil)

// New builds an S3 client from static credentials.
//
// aws-sdk-go-v2 wants its region/credentials through the config loader, so
// we load the default chain and then override with the static provider —
// MinIO-style deployments hand out a root user/password rather than an AWS
// profile.
func New(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3: bucket must not be empty")
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKey,
			cfg.SecretKey,
			"", // session token unused with static credentials
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("s3: loading aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		// Path-style URLs (endpoint/bucket/key) — virtual-hosted style
		// needs wildcard DNS, which MinIO setups rarely have.
		o.UsePathStyle = true
	})

	public := strings.TrimSuffix(cfg.PublicBaseURL, "/")
	if public == "" {
		public = strings.TrimSuffix(cfg.Endpoint, "/")
	}

	return &Client{s3: client, bucket: cfg.Bucket, public: public}, nil
}

// Upload stores the avatar and returns its storage key and public URL.
//
// The key is date-partitioned and UUID-suffixed, keeping the original file
// extension so browsers infer the type even without the Content-Type header:
//
//	avatars/2026/8/31/9f4c...-a1.png
func (c *Client) Upload(ctx context.Context, filename, contentType string, body io.Reader) (*storage.UploadResult, error) {
	key := avatarKey(filename)

	input := &s3.PutObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
		Body:   body,
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}

	if _, err := c.s3.PutObject(ctx, input); err != nil {
		return nil, fmt.Errorf("s3: uploading avatar %q: %w", key, err)
	}

	return &storage.UploadResult{
		PublicID: key,
		URL:      fmt.Sprintf("%s/%s/%s", c.public, c.bucket, key),
	}, nil
}

// avatarKey builds a collision-free storage key for an uploaded avatar.
func avatarKey(filename string) string {
	d := time.Now()
	return fmt.Sprintf("avatars/%d/%d/%d/%s%s",
		d.Year(), d.Month(), d.Day(), uuid.New(), strings.ToLower(path.Ext(filename)))
}
