// Package config assembles a carousel runtime from defaults, functional
// options and the process environment.
package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tendant/simple-carousel/pkg/carousel"
	"github.com/tendant/simple-carousel/pkg/carousel/api"
	redisevents "github.com/tendant/simple-carousel/pkg/carousel/events/redis"
	"github.com/tendant/simple-carousel/pkg/carousel/imaging"
	"github.com/tendant/simple-carousel/pkg/carousel/metrics"
	"github.com/tendant/simple-carousel/pkg/carousel/owner"
	ownerpg "github.com/tendant/simple-carousel/pkg/carousel/owner/postgres"
	"github.com/tendant/simple-carousel/pkg/carousel/render"
	"github.com/tendant/simple-carousel/pkg/carousel/repo/memory"
	repopg "github.com/tendant/simple-carousel/pkg/carousel/repo/postgres"
	fsstorage "github.com/tendant/simple-carousel/pkg/carousel/storage/fs"
	memorystorage "github.com/tendant/simple-carousel/pkg/carousel/storage/memory"
	miniostorage "github.com/tendant/simple-carousel/pkg/carousel/storage/minio"
	s3storage "github.com/tendant/simple-carousel/pkg/carousel/storage/s3"
)

// Option applies configuration to a ServerConfig instance.
type Option func(*ServerConfig) error

// Load constructs a ServerConfig by applying the supplied options on top of library defaults.
func Load(opts ...Option) (*ServerConfig, error) {
	cfg := defaults()

	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func defaults() ServerConfig {
	return ServerConfig{
		Port:         "8080",
		Environment:  "development",
		LogLevel:     "info",
		DatabaseType: "memory",
		AutoMigrate:  true,
		Storage: StorageConfig{
			Type: "memory",
		},
		EventChannel:       redisevents.DefaultChannel,
		LoginURL:           "/login/",
		Capability:         api.DefaultCapability,
		MediaURL:           "/media",
		BasePath:           "/carousel",
		OwnerKinds:         []owner.KindSpec{{ID: 1, Name: "product"}},
		MaxUploadBytes:     32 << 20,
		EnableEventLogging: true,
		ThumbnailSizes:     carousel.DefaultThumbnailSizes,
	}
}

// ServerConfig represents the configuration of a carousel server
type ServerConfig struct {
	Port        string
	Environment string // development, production, testing
	LogLevel    string // debug, info, warn, error

	// Database configuration
	DatabaseURL  string
	DatabaseType string // "memory", "postgres"
	DBSchema     string // Postgres search_path, empty keeps the server default
	AutoMigrate  bool

	Storage StorageConfig

	// Change notifications
	RedisURL           string
	EventChannel       string
	EnableEventLogging bool

	// Access control
	JWTSecret  string
	LoginURL   string
	Capability string

	// HTTP surface
	MediaURL            string
	BasePath            string
	MaxUploadBytes      int64
	MetricsAPIKeySHA256 string

	OwnerKinds     []owner.KindSpec
	ThumbnailSizes []carousel.ThumbnailSize
	// ListThumbnailSize is the thumbnail shown in the item list. It must be
	// one of ThumbnailSizes; zero selects the smallest of them.
	ListThumbnailSize carousel.ThumbnailSize
}

// StorageConfig selects and configures the image store
type StorageConfig struct {
	Type string // "memory", "fs", "s3", "minio"

	BaseDir string // fs

	Bucket          string
	Prefix          string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	UsePathStyle    bool // s3
	Secure          bool // minio
}

// Validate validates the server configuration
func (c *ServerConfig) Validate() error {
	if c.Port == "" {
		return errors.New("port is required")
	}

	if c.DatabaseType != "memory" && c.DatabaseType != "postgres" {
		return errors.New("database_type must be 'memory' or 'postgres'")
	}
	if c.DatabaseType == "postgres" && c.DatabaseURL == "" {
		return errors.New("database_url is required when using postgres")
	}

	switch c.Storage.Type {
	case "memory":
	case "fs":
		if c.Storage.BaseDir == "" {
			return errors.New("storage base_dir is required for fs storage")
		}
	case "s3":
		if c.Storage.Bucket == "" {
			return errors.New("storage bucket is required for s3 storage")
		}
	case "minio":
		if c.Storage.Bucket == "" || c.Storage.Endpoint == "" {
			return errors.New("storage bucket and endpoint are required for minio storage")
		}
	default:
		return fmt.Errorf("unsupported storage type: %s", c.Storage.Type)
	}

	if c.JWTSecret == "" {
		return errors.New("jwt_secret is required")
	}
	if c.Capability == "" {
		return errors.New("capability is required")
	}
	if c.MaxUploadBytes <= 0 {
		return errors.New("max_upload_bytes must be positive")
	}

	if len(c.OwnerKinds) == 0 {
		return errors.New("at least one owner kind is required")
	}
	for _, kind := range c.OwnerKinds {
		if kind.Table != "" && c.DatabaseType != "postgres" {
			return fmt.Errorf("owner kind %s uses table %s but no postgres database is configured", kind.Name, kind.Table)
		}
	}

	if !strings.HasPrefix(c.MediaURL, "/") {
		return fmt.Errorf("media_url must be a path starting with '/', got %q", c.MediaURL)
	}
	if !strings.HasPrefix(c.BasePath, "/") {
		return fmt.Errorf("base_path must start with '/', got %q", c.BasePath)
	}

	if len(c.ThumbnailSizes) == 0 {
		return errors.New("at least one thumbnail size is required")
	}
	if c.ListThumbnailSize != (carousel.ThumbnailSize{}) && !slices.Contains(c.ThumbnailSizes, c.ListThumbnailSize) {
		return fmt.Errorf("list thumbnail size %s is not one of the generated sizes", c.ListThumbnailSize)
	}

	if _, err := c.SlogLevel(); err != nil {
		return err
	}

	return nil
}

// ListThumbnail returns the thumbnail size rendered in the item list
func (c *ServerConfig) ListThumbnail() carousel.ThumbnailSize {
	if c.ListThumbnailSize != (carousel.ThumbnailSize{}) {
		return c.ListThumbnailSize
	}
	var smallest carousel.ThumbnailSize
	for i, size := range c.ThumbnailSizes {
		if i == 0 || size.Width*size.Height < smallest.Width*smallest.Height {
			smallest = size
		}
	}
	return smallest
}

// SlogLevel parses LogLevel
func (c *ServerConfig) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(c.LogLevel))); err != nil {
		return 0, fmt.Errorf("invalid log level %q: %w", c.LogLevel, err)
	}
	return level, nil
}

// IsDevelopment reports whether the server runs in development mode
func (c *ServerConfig) IsDevelopment() bool {
	return c.Environment == "development"
}

// HandlerConfig returns the settings of the carousel HTTP handler
func (c *ServerConfig) HandlerConfig() api.HandlerConfig {
	return api.HandlerConfig{
		BasePath:       c.BasePath,
		Capability:     c.Capability,
		LoginURL:       c.LoginURL,
		MaxUploadBytes: c.MaxUploadBytes,
		CSRF: api.CSRFConfig{
			Secure: !c.IsDevelopment(),
		},
	}
}

// Runtime holds everything built from a ServerConfig
type Runtime struct {
	Config     *ServerConfig
	Service    carousel.Service
	Owners     *owner.Registry
	Renderer   *render.Renderer
	Authorizer api.Authorizer
	Metrics    *metrics.Collector
	BlobStore  carousel.BlobStore

	closers []func()
}

// Close releases connections opened by Build, in reverse order
func (r *Runtime) Close() {
	for i := len(r.closers) - 1; i >= 0; i-- {
		r.closers[i]()
	}
	r.closers = nil
}

// Build creates the carousel service and its collaborators
func (c *ServerConfig) Build(ctx context.Context) (*Runtime, error) {
	rt := &Runtime{Config: c}
	if err := c.build(ctx, rt); err != nil {
		rt.Close()
		return nil, err
	}
	return rt, nil
}

func (c *ServerConfig) build(ctx context.Context, rt *Runtime) error {
	var pool *pgxpool.Pool
	if c.DatabaseType == "postgres" {
		var err error
		pool, err = c.buildPool(ctx)
		if err != nil {
			return err
		}
		rt.closers = append(rt.closers, pool.Close)

		if c.AutoMigrate {
			if err := repopg.Migrate(ctx, pool); err != nil {
				return err
			}
		}
	}

	repo := c.buildRepository(pool)

	store, err := c.buildStorage(ctx)
	if err != nil {
		return fmt.Errorf("failed to build storage: %w", err)
	}
	rt.BlobStore = store

	rt.Owners, err = c.buildOwners(pool)
	if err != nil {
		return fmt.Errorf("failed to build owner registry: %w", err)
	}

	sink, err := c.buildEventSink(ctx, rt)
	if err != nil {
		return fmt.Errorf("failed to build event sink: %w", err)
	}

	rt.Metrics = metrics.New()

	rt.Service, err = carousel.New(
		carousel.WithRepository(repo),
		carousel.WithBlobStore(rt.BlobStore),
		carousel.WithImageProcessor(imaging.New(imaging.WithSizes(c.ThumbnailSizes...))),
		carousel.WithThumbnailSizes(c.ThumbnailSizes...),
		carousel.WithOwnerResolver(rt.Owners),
		carousel.WithEventSink(sink),
		carousel.WithRecorder(rt.Metrics),
	)
	if err != nil {
		return err
	}

	rt.Renderer, err = render.New(render.Config{
		MediaURL:      c.MediaURL,
		ThumbnailSize: c.ListThumbnail(),
	})
	if err != nil {
		return err
	}

	rt.Authorizer = api.NewJWTAuthorizer([]byte(c.JWTSecret))

	return nil
}

// BuildService creates only the carousel service. Connections it opens
// live as long as the process.
func (c *ServerConfig) BuildService(ctx context.Context) (carousel.Service, error) {
	rt, err := c.Build(ctx)
	if err != nil {
		return nil, err
	}
	return rt.Service, nil
}

func (c *ServerConfig) buildPool(ctx context.Context) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(c.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse DATABASE_URL: %w", err)
	}
	if schema := c.DBSchema; schema != "" {
		cfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
			_, err := conn.Exec(ctx, "SET search_path TO "+pgx.Identifier{schema}.Sanitize())
			return err
		}
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create pgx pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("database ping failed: %w", err)
	}
	return pool, nil
}

func (c *ServerConfig) buildRepository(pool *pgxpool.Pool) carousel.Repository {
	if pool != nil {
		return repopg.NewWithPool(pool)
	}
	return memory.New()
}

func (c *ServerConfig) buildStorage(ctx context.Context) (carousel.BlobStore, error) {
	s := c.Storage
	switch s.Type {
	case "memory":
		return memorystorage.New(), nil
	case "fs":
		return fsstorage.New(fsstorage.Config{BaseDir: s.BaseDir})
	case "s3":
		region := s.Region
		if region == "" {
			region = "us-east-1"
		}
		return s3storage.New(ctx, s3storage.Config{
			Region:          region,
			Bucket:          s.Bucket,
			Prefix:          s.Prefix,
			AccessKeyID:     s.AccessKeyID,
			SecretAccessKey: s.SecretAccessKey,
			Endpoint:        s.Endpoint,
			UsePathStyle:    s.UsePathStyle,
		})
	case "minio":
		return miniostorage.New(ctx, miniostorage.Config{
			Endpoint:               s.Endpoint,
			Bucket:                 s.Bucket,
			Prefix:                 s.Prefix,
			AccessKeyID:            s.AccessKeyID,
			SecretAccessKey:        s.SecretAccessKey,
			Region:                 s.Region,
			Secure:                 s.Secure,
			CreateBucketIfNotExist: true,
		})
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", s.Type)
	}
}

func (c *ServerConfig) buildOwners(pool *pgxpool.Pool) (*owner.Registry, error) {
	registry := owner.NewRegistry()
	for _, kc := range c.OwnerKinds {
		kind := carousel.OwnerKind{ID: kc.ID, Name: kc.Name}
		if kc.Table == "" {
			registry.Register(kind, owner.Any(kc.Name))
			continue
		}
		if pool == nil {
			return nil, fmt.Errorf("owner kind %s needs a database", kc.Name)
		}
		accessor, err := ownerpg.NewTableAccessor(pool, kc.Table, "")
		if err != nil {
			return nil, err
		}
		registry.Register(kind, accessor)
	}
	return registry, nil
}

func (c *ServerConfig) buildEventSink(ctx context.Context, rt *Runtime) (carousel.EventSink, error) {
	var sinks []carousel.EventSink
	if c.EnableEventLogging {
		sinks = append(sinks, carousel.NewLoggingEventSink(slog.Default()))
	}
	if c.RedisURL != "" {
		client, err := redisevents.NewClient(ctx, c.RedisURL)
		if err != nil {
			return nil, err
		}
		rt.closers = append(rt.closers, func() { _ = client.Close() })
		sinks = append(sinks, redisevents.NewPublisher(client, c.EventChannel))
	}

	switch len(sinks) {
	case 0:
		return carousel.NewNoopEventSink(), nil
	case 1:
		return sinks[0], nil
	default:
		return carousel.NewFanoutEventSink(sinks...), nil
	}
}
