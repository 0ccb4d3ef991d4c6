package s3

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBackend(t *testing.T, config Config) *Backend {
	t.Helper()
	config.AccessKeyID = "test-key"
	config.SecretAccessKey = "test-secret"
	backend, err := New(context.Background(), config)
	require.NoError(t, err)
	return backend
}

func TestS3Backend_Configuration(t *testing.T) {
	t.Run("EmptyBucket", func(t *testing.T) {
		_, err := New(context.Background(), Config{Region: "us-east-1"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "bucket name is required")
	})

	t.Run("Defaults", func(t *testing.T) {
		backend := newTestBackend(t, Config{Bucket: "carousel"})
		assert.Equal(t, "us-east-1", backend.config.Region)
		assert.Equal(t, time.Hour, backend.presignDuration)
	})

	t.Run("Prefix", func(t *testing.T) {
		backend := newTestBackend(t, Config{Bucket: "carousel", Prefix: "/shop/"})
		assert.Equal(t, "shop/images/a.jpg", backend.key("images/a.jpg"))

		plain := newTestBackend(t, Config{Bucket: "carousel"})
		assert.Equal(t, "images/a.jpg", plain.key("images/a.jpg"))
	})
}

func TestS3Backend_ApplySSE(t *testing.T) {
	backend := newTestBackend(t, Config{
		Bucket:       "carousel",
		EnableSSE:    true,
		SSEAlgorithm: "aws:kms",
		SSEKMSKeyID:  "key-1",
	})

	input := &s3.PutObjectInput{}
	backend.applySSE(input)
	assert.Equal(t, types.ServerSideEncryptionAwsKms, input.ServerSideEncryption)
	assert.Equal(t, "key-1", *input.SSEKMSKeyId)

	disabled := newTestBackend(t, Config{Bucket: "carousel"})
	input = &s3.PutObjectInput{}
	disabled.applySSE(input)
	assert.Empty(t, input.ServerSideEncryption)
}

func TestS3Backend_IsNotFound(t *testing.T) {
	assert.True(t, isNotFound(&types.NoSuchKey{}))
	assert.True(t, isNotFound(&types.NotFound{}))
	assert.True(t, isNotFound(&smithy.GenericAPIError{Code: "NoSuchKey"}))
	assert.False(t, isNotFound(&smithy.GenericAPIError{Code: "AccessDenied"}))
	assert.False(t, isNotFound(errors.New("boom")))
}

func TestS3Backend_PresignGetURL(t *testing.T) {
	backend := newTestBackend(t, Config{
		Bucket:       "carousel",
		Endpoint:     "http://localhost:9000",
		UsePathStyle: true,
	})

	url, err := backend.PresignGetURL(context.Background(), "images/a/photo.jpg")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "http://localhost:9000/carousel/images/a/photo.jpg?"), url)
	assert.Contains(t, url, "X-Amz-Signature=")
}
