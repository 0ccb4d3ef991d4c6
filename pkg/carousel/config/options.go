package config

import (
	"fmt"

	"github.com/tendant/simple-carousel/pkg/carousel"
	"github.com/tendant/simple-carousel/pkg/carousel/owner"
)

// WithPort sets the server port
func WithPort(port string) Option {
	return func(c *ServerConfig) error {
		if port == "" {
			return fmt.Errorf("port cannot be empty")
		}
		c.Port = port
		return nil
	}
}

// WithEnvironment sets the environment (development, production, testing)
func WithEnvironment(env string) Option {
	return func(c *ServerConfig) error {
		if env == "" {
			return fmt.Errorf("environment cannot be empty")
		}
		c.Environment = env
		return nil
	}
}

// WithDatabase configures the database backend
func WithDatabase(dbType, url string) Option {
	return func(c *ServerConfig) error {
		if dbType != "memory" && dbType != "postgres" {
			return fmt.Errorf("database type must be 'memory' or 'postgres', got: %s", dbType)
		}
		if dbType == "postgres" && url == "" {
			return fmt.Errorf("database URL is required for postgres")
		}
		c.DatabaseType = dbType
		c.DatabaseURL = url
		return nil
	}
}

// WithMemoryStorage stores images in process memory
func WithMemoryStorage() Option {
	return func(c *ServerConfig) error {
		c.Storage = StorageConfig{Type: "memory"}
		return nil
	}
}

// WithFilesystemStorage stores images below baseDir
func WithFilesystemStorage(baseDir string) Option {
	return func(c *ServerConfig) error {
		if baseDir == "" {
			return fmt.Errorf("filesystem base directory cannot be empty")
		}
		c.Storage = StorageConfig{Type: "fs", BaseDir: baseDir}
		return nil
	}
}

// WithS3Storage stores images in an S3 bucket
func WithS3Storage(bucket, region, endpoint string) Option {
	return func(c *ServerConfig) error {
		if bucket == "" {
			return fmt.Errorf("s3 bucket cannot be empty")
		}
		c.Storage = StorageConfig{Type: "s3", Bucket: bucket, Region: region, Endpoint: endpoint, UsePathStyle: endpoint != ""}
		return nil
	}
}

// WithMinIOStorage stores images in a MinIO bucket
func WithMinIOStorage(endpoint, bucket, accessKeyID, secretAccessKey string, secure bool) Option {
	return func(c *ServerConfig) error {
		if endpoint == "" || bucket == "" {
			return fmt.Errorf("minio endpoint and bucket cannot be empty")
		}
		c.Storage = StorageConfig{
			Type:            "minio",
			Endpoint:        endpoint,
			Bucket:          bucket,
			AccessKeyID:     accessKeyID,
			SecretAccessKey: secretAccessKey,
			Secure:          secure,
		}
		return nil
	}
}

// WithRedis publishes change events to channel on the Redis at redisURL
func WithRedis(redisURL, channel string) Option {
	return func(c *ServerConfig) error {
		c.RedisURL = redisURL
		if channel != "" {
			c.EventChannel = channel
		}
		return nil
	}
}

// WithJWTSecret sets the secret staff tokens are signed with
func WithJWTSecret(secret string) Option {
	return func(c *ServerConfig) error {
		c.JWTSecret = secret
		return nil
	}
}

// WithCapability sets the capability required to manage carousels
func WithCapability(capability string) Option {
	return func(c *ServerConfig) error {
		if capability == "" {
			return fmt.Errorf("capability cannot be empty")
		}
		c.Capability = capability
		return nil
	}
}

// WithOwnerKinds replaces the owner kinds
func WithOwnerKinds(kinds ...owner.KindSpec) Option {
	return func(c *ServerConfig) error {
		c.OwnerKinds = kinds
		return nil
	}
}

// WithThumbnailSizes replaces the generated thumbnail sizes
func WithThumbnailSizes(sizes ...carousel.ThumbnailSize) Option {
	return func(c *ServerConfig) error {
		for _, s := range sizes {
			if s.Width <= 0 || s.Height <= 0 {
				return fmt.Errorf("invalid thumbnail size %s", s)
			}
		}
		c.ThumbnailSizes = sizes
		return nil
	}
}

// WithListThumbnailSize selects the thumbnail shown in the item list
func WithListThumbnailSize(size carousel.ThumbnailSize) Option {
	return func(c *ServerConfig) error {
		c.ListThumbnailSize = size
		return nil
	}
}

// WithEventLogging toggles logging of change events
func WithEventLogging(enabled bool) Option {
	return func(c *ServerConfig) error {
		c.EnableEventLogging = enabled
		return nil
	}
}
