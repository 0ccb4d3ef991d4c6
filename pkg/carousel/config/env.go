package config

import (
	"fmt"
	"io"
	"net/url"
	"strconv"
	"strings"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/tendant/simple-carousel/pkg/carousel/owner"
)

// envConfig mirrors the environment. Unset variables keep the values
// already present in the ServerConfig.
type envConfig struct {
	Port        string `env:"PORT" env-description:"HTTP listen port"`
	Environment string `env:"ENVIRONMENT" env-description:"development, production or testing"`
	LogLevel    string `env:"LOG_LEVEL" env-description:"debug, info, warn or error"`

	DatabaseURL string `env:"DATABASE_URL" env-description:"memory or postgres://..."`
	DBSchema    string `env:"DB_SCHEMA" env-description:"Postgres search_path"`

	StorageURL         string `env:"STORAGE_URL" env-description:"memory://, file:///dir, s3://bucket or minio://bucket"`
	AWSAccessKeyID     string `env:"AWS_ACCESS_KEY_ID" env-description:"S3/MinIO access key"`
	AWSSecretAccessKey string `env:"AWS_SECRET_ACCESS_KEY" env-description:"S3/MinIO secret key"`
	AWSRegion          string `env:"AWS_REGION" env-description:"S3 region"`

	RedisURL     string `env:"REDIS_URL" env-description:"redis:// URL for change notifications"`
	EventChannel string `env:"EVENT_CHANNEL" env-description:"Redis channel of change notifications"`

	JWTSecret  string `env:"JWT_SECRET" env-description:"HS256 secret of staff tokens"`
	LoginURL   string `env:"LOGIN_URL" env-description:"where unauthorized requests are redirected"`
	Capability string `env:"MANAGE_CAPABILITY" env-description:"capability required to manage carousels"`

	MediaURL            string `env:"MEDIA_URL" env-description:"path prefix under which stored images are served"`
	BasePath            string `env:"BASE_PATH" env-description:"mount point of the carousel routes"`
	OwnerKinds          string `env:"OWNER_KINDS" env-description:"owner kinds, e.g. 1=product:products,2=category"`
	MaxUploadBytes      int64  `env:"MAX_UPLOAD_BYTES" env-description:"upload request size limit"`
	MetricsAPIKeySHA256 string `env:"METRICS_API_KEY_SHA256" env-description:"SHA-256 of the /metrics API key"`
}

// WithEnv applies environment variable overrides.
//
// Database:
//
//	DATABASE_URL - "memory" (default) or "postgres://..." / "postgresql://..."
//
// Storage:
//
//	STORAGE_URL - one of
//	              "memory://" (default)
//	              "file:///path/to/data"
//	              "s3://bucket?region=eu-west-1&endpoint=http://localhost:9000&prefix=carousel&path_style=true"
//	              "minio://bucket?endpoint=localhost:9000&secure=false"
//	              Credentials come from AWS_ACCESS_KEY_ID and AWS_SECRET_ACCESS_KEY.
func WithEnv() Option {
	return func(c *ServerConfig) error {
		var env envConfig
		if err := cleanenv.ReadEnv(&env); err != nil {
			return fmt.Errorf("failed to read environment: %w", err)
		}
		return env.apply(c)
	}
}

// EnvUsage writes the description of every supported variable to w
func EnvUsage(w io.Writer) {
	cleanenv.FUsage(w, &envConfig{}, nil)()
}

func (e envConfig) apply(c *ServerConfig) error {
	setString(&c.Port, e.Port)
	setString(&c.Environment, e.Environment)
	setString(&c.LogLevel, e.LogLevel)
	setString(&c.DBSchema, e.DBSchema)
	setString(&c.RedisURL, e.RedisURL)
	setString(&c.EventChannel, e.EventChannel)
	setString(&c.JWTSecret, e.JWTSecret)
	setString(&c.LoginURL, e.LoginURL)
	setString(&c.Capability, e.Capability)
	setString(&c.MediaURL, e.MediaURL)
	setString(&c.BasePath, e.BasePath)
	setString(&c.MetricsAPIKeySHA256, e.MetricsAPIKeySHA256)
	if e.MaxUploadBytes > 0 {
		c.MaxUploadBytes = e.MaxUploadBytes
	}

	if err := applyDatabaseURL(e.DatabaseURL, c); err != nil {
		return err
	}
	if err := applyStorageURL(e.StorageURL, c); err != nil {
		return err
	}
	if c.Storage.Type == "s3" || c.Storage.Type == "minio" {
		setString(&c.Storage.AccessKeyID, e.AWSAccessKeyID)
		setString(&c.Storage.SecretAccessKey, e.AWSSecretAccessKey)
		if c.Storage.Region == "" {
			c.Storage.Region = e.AWSRegion
		}
	}

	if e.OwnerKinds != "" {
		kinds, err := owner.ParseKinds(e.OwnerKinds)
		if err != nil {
			return fmt.Errorf("invalid OWNER_KINDS: %w", err)
		}
		c.OwnerKinds = kinds
	}

	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func applyDatabaseURL(dbURL string, c *ServerConfig) error {
	switch {
	case dbURL == "":
		return nil
	case dbURL == "memory":
		c.DatabaseType = "memory"
		c.DatabaseURL = ""
	case strings.HasPrefix(dbURL, "postgresql://"), strings.HasPrefix(dbURL, "postgres://"):
		c.DatabaseType = "postgres"
		c.DatabaseURL = dbURL
	default:
		return fmt.Errorf("unsupported DATABASE_URL format: %s (use 'memory' or 'postgresql://...')", dbURL)
	}
	return nil
}

func applyStorageURL(storageURL string, c *ServerConfig) error {
	if storageURL == "" {
		return nil
	}
	if storageURL == "memory" || storageURL == "memory://" {
		c.Storage = StorageConfig{Type: "memory"}
		return nil
	}

	u, err := url.Parse(storageURL)
	if err != nil {
		return fmt.Errorf("invalid STORAGE_URL: %w", err)
	}
	q := u.Query()

	switch u.Scheme {
	case "file":
		if u.Path == "" {
			return fmt.Errorf("filesystem path cannot be empty in STORAGE_URL")
		}
		c.Storage = StorageConfig{Type: "fs", BaseDir: u.Path}
	case "s3", "minio":
		if u.Host == "" {
			return fmt.Errorf("bucket name cannot be empty in STORAGE_URL")
		}
		c.Storage = StorageConfig{
			Type:     u.Scheme,
			Bucket:   u.Host,
			Prefix:   q.Get("prefix"),
			Region:   q.Get("region"),
			Endpoint: q.Get("endpoint"),
		}
		if c.Storage.UsePathStyle, err = queryBool(q, "path_style"); err != nil {
			return err
		}
		if c.Storage.Secure, err = queryBool(q, "secure"); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unsupported STORAGE_URL format: %s (use 'memory://', 'file://...', 's3://...' or 'minio://...')", storageURL)
	}
	return nil
}

func queryBool(q url.Values, key string) (bool, error) {
	raw := q.Get(key)
	if raw == "" {
		return false, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid boolean for STORAGE_URL %s: %w", key, err)
	}
	return v, nil
}
