package s3

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/Lllllllleong/pagepick/internal/config"
)

// Client implements services.ObjectStore on S3 or an S3 compatible endpoint.
type Client struct {
	client        *s3.Client
	presigner     *s3.PresignClient
	uploader      *manager.Uploader
	presignExpiry time.Duration
}

// NewClient creates an S3 backed object store.
func NewClient(ctx context.Context, cfg *config.S3Config) (*Client, error) {
	var opts []func(*awsconfig.LoadOptions) error
	opts = append(opts, awsconfig.WithRegion(cfg.Region))

	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("loading aws config: %w", err)
	}

	var s3Opts []func(*s3.Options)
	if cfg.Endpoint != "" {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		})
	}

	client := s3.NewFromConfig(awsCfg, s3Opts...)
	return &Client{
		client:        client,
		presigner:     s3.NewPresignClient(client),
		uploader:      manager.NewUploader(client),
		presignExpiry: time.Duration(cfg.PresignExpiry) * time.Second,
	}, nil
}

// Upload stores srcPath under key. The returned location is a presigned GET
// URL when a presign expiry is configured, otherwise an s3:// URI.
func (c *Client) Upload(ctx context.Context, bucket, key, srcPath, contentType string) (string, error) {
	f, err := os.Open(srcPath)
	if err != nil {
		return "", fmt.Errorf("s3 upload open %s: %w", srcPath, err)
	}
	defer f.Close()

	if _, err := c.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(bucket),
		Key:         aws.String(key),
		Body:        f,
		ContentType: aws.String(contentType),
	}); err != nil {
		return "", fmt.Errorf("s3 upload: %w", err)
	}

	if c.presignExpiry <= 0 {
		return URI(bucket, key), nil
	}
	return c.GetPresignedURL(ctx, bucket, key)
}

// Download writes the object to destPath.
func (c *Client) Download(ctx context.Context, bucket, key, destPath string) error {
	result, err := c.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("s3 download: %w", err)
	}
	defer result.Body.Close()

	out, err := os.Create(destPath)
	if err != nil {
		return fmt.Errorf("s3 download create %s: %w", destPath, err)
	}
	if _, err := io.Copy(out, result.Body); err != nil {
		_ = out.Close()
		return fmt.Errorf("s3 download read: %w", err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("s3 download close %s: %w", destPath, err)
	}
	return nil
}

// GetPresignedURL returns a time limited GET URL for the object.
func (c *Client) GetPresignedURL(ctx context.Context, bucket, key string) (string, error) {
	result, err := c.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(c.presignExpiry))
	if err != nil {
		return "", fmt.Errorf("s3 presign: %w", err)
	}
	return result.URL, nil
}

// URI formats an s3:// location.
func URI(bucket, key string) string {
	return fmt.Sprintf("s3://%s/%s", bucket, key)
}
