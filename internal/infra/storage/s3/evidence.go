package s3

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"locadz/internal/app/policies"
)

const (
	maxPresignTTL = 7 * 24 * time.Hour
	// a fixed region keeps presigning offline
	defaultRegion = "us-east-1"
)

// Client keeps payment evidence in a private S3-compatible bucket. Readers
// get presigned links, never a public object URL.
type Client struct {
	bucket         string
	client         *minio.Client
	signer         *minio.Client
	logger         *slog.Logger
	bucketInitOnce sync.Once
	bucketInitErr  error
}

// NewClient configures storage on endpoint. Links are signed against
// publicEndpoint when it differs, so browsers outside the cluster can follow them.
func NewClient(endpoint, publicEndpoint string, useSSL bool, accessKey, secretKey, bucket string, logger *slog.Logger) (*Client, error) {
	cleanEndpoint := strings.TrimSpace(endpoint)
	if cleanEndpoint == "" {
		return nil, errors.New("s3: endpoint is required")
	}
	if bucket = strings.TrimSpace(bucket); bucket == "" {
		return nil, errors.New("s3: bucket is required")
	}
	creds := credentials.NewStaticV4(strings.TrimSpace(accessKey), strings.TrimSpace(secretKey), "")

	minioClient, err := minio.New(parseEndpoint(cleanEndpoint), &minio.Options{Creds: creds, Secure: useSSL, Region: defaultRegion})
	if err != nil {
		return nil, fmt.Errorf("s3: create client: %w", err)
	}
	signer := minioClient
	if public := strings.TrimSpace(publicEndpoint); public != "" && public != cleanEndpoint {
		signer, err = minio.New(parseEndpoint(public), &minio.Options{Creds: creds, Secure: strings.HasPrefix(public, "https://"), Region: defaultRegion})
		if err != nil {
			return nil, fmt.Errorf("s3: create signer: %w", err)
		}
	}
	return &Client{bucket: bucket, client: minioClient, signer: signer, logger: logger}, nil
}

func (c *Client) Upload(ctx context.Context, file policies.Evidence) (string, error) {
	if file.Body == nil {
		return "", errors.New("s3: reader is required")
	}
	key := strings.Trim(strings.TrimSpace(file.Key), "/")
	if key == "" {
		return "", errors.New("s3: object key is required")
	}
	if err := c.ensureBucket(ctx); err != nil {
		return "", err
	}
	contentType := file.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	size := file.Size
	if size <= 0 {
		size = -1
	}
	if _, err := c.client.PutObject(ctx, c.bucket, key, file.Body, size, minio.PutObjectOptions{ContentType: contentType}); err != nil {
		return "", fmt.Errorf("s3: put object: %w", err)
	}
	if c.logger != nil {
		c.logger.Info("s3 upload completed", "bucket", c.bucket, "key", key, "size", size)
	}
	return key, nil
}

func (c *Client) Remove(ctx context.Context, key string) error {
	if err := c.client.RemoveObject(ctx, c.bucket, strings.Trim(key, "/"), minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("s3: remove object: %w", err)
	}
	return nil
}

func (c *Client) URL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	if ttl <= 0 || ttl > maxPresignTTL {
		ttl = maxPresignTTL
	}
	u, err := c.signer.PresignedGetObject(ctx, c.bucket, strings.Trim(key, "/"), ttl, url.Values{})
	if err != nil {
		return "", fmt.Errorf("s3: presign: %w", err)
	}
	return u.String(), nil
}

// Ping checks that the bucket is reachable.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.client.BucketExists(ctx, c.bucket)
	return err
}

// NoopStorage fails fast when S3 is unavailable.
type NoopStorage struct{}

var errNotConfigured = errors.New("s3 evidence storage is not configured")

func (NoopStorage) Upload(context.Context, policies.Evidence) (string, error) {
	return "", errNotConfigured
}

func (NoopStorage) Remove(context.Context, string) error { return errNotConfigured }

func (NoopStorage) URL(context.Context, string, time.Duration) (string, error) {
	return "", errNotConfigured
}

func (c *Client) ensureBucket(ctx context.Context) error {
	c.bucketInitOnce.Do(func() {
		exists, err := c.client.BucketExists(ctx, c.bucket)
		if err != nil {
			c.bucketInitErr = fmt.Errorf("s3: check bucket: %w", err)
			return
		}
		if exists {
			return
		}
		if err := c.client.MakeBucket(ctx, c.bucket, minio.MakeBucketOptions{}); err != nil {
			c.bucketInitErr = fmt.Errorf("s3: create bucket: %w", err)
		}
	})
	return c.bucketInitErr
}

func parseEndpoint(endpoint string) string {
	if parsed, err := url.Parse(endpoint); err == nil && parsed.Host != "" {
		return parsed.Host
	}
	return endpoint
}

var (
	_ policies.EvidenceStorage = (*Client)(nil)
	_ policies.EvidenceStorage = NoopStorage{}
)
