package minio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/tendant/simple-carousel/pkg/carousel"
)

// Config options for the MinIO backend
type Config struct {
	Endpoint        string // host:port of the MinIO server
	Bucket          string
	Prefix          string
	AccessKeyID     string
	SecretAccessKey string
	Region          string
	Secure          bool
	PresignExpiry   time.Duration

	CreateBucketIfNotExist bool
}

// Backend is a MinIO implementation of the carousel.BlobStore interface
type Backend struct {
	client *minio.Client
	config Config
}

// New creates a new MinIO storage backend
func New(ctx context.Context, config Config) (*Backend, error) {
	if config.Endpoint == "" {
		return nil, errors.New("endpoint is required")
	}
	if config.Bucket == "" {
		return nil, errors.New("bucket name is required")
	}
	if config.PresignExpiry == 0 {
		config.PresignExpiry = time.Hour
	}
	config.Prefix = strings.Trim(config.Prefix, "/")

	client, err := minio.New(config.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(config.AccessKeyID, config.SecretAccessKey, ""),
		Secure: config.Secure,
		Region: config.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	backend := &Backend{client: client, config: config}
	if config.CreateBucketIfNotExist {
		if err := backend.createBucketIfNotExists(ctx); err != nil {
			return nil, err
		}
	}

	return backend, nil
}

func (b *Backend) key(objectKey string) string {
	if b.config.Prefix == "" {
		return objectKey
	}
	return b.config.Prefix + "/" + objectKey
}

func isNotFound(err error) bool {
	switch minio.ToErrorResponse(err).Code {
	case "NoSuchKey", "NoSuchBucket", "NotFound":
		return true
	}
	return false
}

func (b *Backend) createBucketIfNotExists(ctx context.Context) error {
	exists, err := b.client.BucketExists(ctx, b.config.Bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket: %w", err)
	}
	if exists {
		return nil
	}

	err = b.client.MakeBucket(ctx, b.config.Bucket, minio.MakeBucketOptions{Region: b.config.Region})
	if err != nil {
		code := minio.ToErrorResponse(err).Code
		if code == "BucketAlreadyOwnedByYou" || code == "BucketAlreadyExists" {
			return nil
		}
		return fmt.Errorf("failed to create bucket: %w", err)
	}
	return nil
}

// Upload stores content in the bucket
func (b *Backend) Upload(ctx context.Context, reader io.Reader, params carousel.UploadParams) error {
	size := params.Size
	if size <= 0 {
		size = -1
	}

	_, err := b.client.PutObject(ctx, b.config.Bucket, b.key(params.ObjectKey), reader, size, minio.PutObjectOptions{
		ContentType: params.MimeType,
	})
	if err != nil {
		return fmt.Errorf("failed to upload to minio: %w", err)
	}
	return nil
}

// Download opens an object. Missing objects are detected with a stat first
// since GetObject defers errors to the first read.
func (b *Backend) Download(ctx context.Context, objectKey string) (io.ReadCloser, error) {
	obj, err := b.client.GetObject(ctx, b.config.Bucket, b.key(objectKey), minio.GetObjectOptions{})
	if err != nil {
		if isNotFound(err) {
			return nil, carousel.ErrObjectNotFound
		}
		return nil, fmt.Errorf("failed to download from minio: %w", err)
	}
	if _, err := obj.Stat(); err != nil {
		obj.Close()
		if isNotFound(err) {
			return nil, carousel.ErrObjectNotFound
		}
		return nil, fmt.Errorf("failed to download from minio: %w", err)
	}
	return obj, nil
}

// Delete removes an object
func (b *Backend) Delete(ctx context.Context, objectKey string) error {
	err := b.client.RemoveObject(ctx, b.config.Bucket, b.key(objectKey), minio.RemoveObjectOptions{})
	if err != nil {
		if isNotFound(err) {
			return carousel.ErrObjectNotFound
		}
		return fmt.Errorf("failed to delete from minio: %w", err)
	}
	return nil
}

// GetObjectMeta retrieves metadata for an object
func (b *Backend) GetObjectMeta(ctx context.Context, objectKey string) (*carousel.ObjectMeta, error) {
	info, err := b.client.StatObject(ctx, b.config.Bucket, b.key(objectKey), minio.StatObjectOptions{})
	if err != nil {
		if isNotFound(err) {
			return nil, carousel.ErrObjectNotFound
		}
		return nil, fmt.Errorf("failed to stat object: %w", err)
	}

	return &carousel.ObjectMeta{
		Key:         objectKey,
		Size:        info.Size,
		ContentType: info.ContentType,
		UpdatedAt:   info.LastModified,
		ETag:        info.ETag,
	}, nil
}

// PresignGetURL returns a time limited URL for reading an object
func (b *Backend) PresignGetURL(ctx context.Context, objectKey string) (string, error) {
	u, err := b.client.PresignedGetObject(ctx, b.config.Bucket, b.key(objectKey), b.config.PresignExpiry, url.Values{})
	if err != nil {
		return "", fmt.Errorf("failed to generate presigned URL: %w", err)
	}
	return u.String(), nil
}
