package runtimeconfig

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

var (
	ErrSiteRequired            = errors.New("cms config: site is required")
	ErrStorageDriverUnknown    = errors.New("cms config: storage driver is invalid")
	ErrStorageDSNRequired      = errors.New("cms config: storage dsn is required")
	ErrCacheProviderUnknown    = errors.New("cms config: cache provider is invalid")
	ErrCacheRedisURLRequired   = errors.New("cms config: redis url is required for the redis cache provider")
	ErrCacheTTLInvalid         = errors.New("cms config: cache ttl must be zero or positive")
	ErrTombstoneTTLInvalid     = errors.New("cms config: tombstone ttl must be positive when cache is enabled")
	ErrLoggingProviderUnknown  = errors.New("cms config: logging provider is invalid")
	ErrLoggingLevelInvalid     = errors.New("cms config: logging level is invalid")
	ErrLoggingFormatInvalid    = errors.New("cms config: logging format is invalid")
	ErrAuthSecretRequired      = errors.New("cms config: jwt secret is required when auth is enabled")
	ErrMarkdownDirRequired     = errors.New("cms config: markdown content directory is required when markdown import is enabled")
	ErrPreviewPermissionNeeded = errors.New("cms config: preview permission must not be empty")
)

// Config aggregates the settings of a resource CMS instance. Struct tags
// drive LoadFromEnv; DefaultConfig mirrors the envDefault values.
type Config struct {
	// Site is the site code resources are scoped to.
	Site     string         `env:"SITE" envDefault:"default"`
	Storage  StorageConfig  `envPrefix:"STORAGE_"`
	Cache    CacheConfig    `envPrefix:"CACHE_"`
	Serve    ServeConfig    `envPrefix:"SERVE_"`
	Files    FilesConfig    `envPrefix:"FILES_"`
	HTTP     HTTPConfig     `envPrefix:"HTTP_"`
	Logging  LoggingConfig  `envPrefix:"LOG_"`
	Markdown MarkdownConfig `envPrefix:"MARKDOWN_"`
}

// StorageConfig selects the SQL backend.
type StorageConfig struct {
	Driver string `env:"DRIVER" envDefault:"sqlite"`
	DSN    string `env:"DSN" envDefault:"file:cms.db?cache=shared"`
	// Debug logs every query through the cms logger.
	Debug bool `env:"DEBUG"`
}

// CacheConfig controls the model cache.
type CacheConfig struct {
	Enabled      bool          `env:"ENABLED" envDefault:"true"`
	Provider     string        `env:"PROVIDER" envDefault:"memory"`
	DefaultTTL   time.Duration `env:"TTL" envDefault:"5m"`
	TombstoneTTL time.Duration `env:"TOMBSTONE_TTL" envDefault:"5s"`
	RedisURL     string        `env:"REDIS_URL"`
	Prefix       string        `env:"PREFIX" envDefault:"cms:"`
	// Repositories enables the go-repository-cache read-through layer on
	// template and resource type repositories.
	Repositories bool `env:"REPOSITORIES" envDefault:"true"`
}

// ServeConfig controls who may view resources that are not live.
type ServeConfig struct {
	AllowSuperuser    bool   `env:"ALLOW_SUPERUSER" envDefault:"true"`
	PreviewPermission string `env:"PREVIEW_PERMISSION" envDefault:"preview_resource"`
}

// FilesConfig locates uploaded field files.
type FilesConfig struct {
	Root    string `env:"ROOT" envDefault:"media"`
	BaseURL string `env:"BASE_URL" envDefault:"/media/"`
}

// HTTPConfig configures the optional http boundary.
type HTTPConfig struct {
	Addr        string `env:"ADDR" envDefault:":8080"`
	AdminPrefix string `env:"ADMIN_PREFIX" envDefault:"/admin/api"`
	JWTSecret   string `env:"JWT_SECRET"`
	AuthEnabled bool   `env:"AUTH_ENABLED"`
}

// LoggingConfig selects the logger provider.
type LoggingConfig struct {
	Provider  string   `env:"PROVIDER" envDefault:"console"`
	Level     string   `env:"LEVEL" envDefault:"info"`
	Format    string   `env:"FORMAT"`
	AddSource bool     `env:"ADD_SOURCE"`
	Focus     []string `env:"FOCUS"`
}

// MarkdownConfig configures importing resources from markdown files.
type MarkdownConfig struct {
	Enabled     bool   `env:"ENABLED"`
	ContentDir  string `env:"DIR" envDefault:"content"`
	Pattern     string `env:"PATTERN" envDefault:"*.md"`
	DefaultType string `env:"DEFAULT_TYPE" envDefault:"page"`
}

// DefaultConfig returns the defaults used when nothing is configured.
func DefaultConfig() Config {
	return Config{
		Site: "default",
		Storage: StorageConfig{
			Driver: "sqlite",
			DSN:    "file:cms.db?cache=shared",
		},
		Cache: CacheConfig{
			Enabled:      true,
			Provider:     "memory",
			DefaultTTL:   5 * time.Minute,
			TombstoneTTL: 5 * time.Second,
			Prefix:       "cms:",
			Repositories: true,
		},
		Serve: ServeConfig{
			AllowSuperuser:    true,
			PreviewPermission: "preview_resource",
		},
		Files: FilesConfig{
			Root:    "media",
			BaseURL: "/media/",
		},
		HTTP: HTTPConfig{
			Addr:        ":8080",
			AdminPrefix: "/admin/api",
		},
		Logging: LoggingConfig{
			Provider: "console",
			Level:    "info",
		},
		Markdown: MarkdownConfig{
			ContentDir:  "content",
			Pattern:     "*.md",
			DefaultType: "page",
		},
	}
}

// LoadFromEnv parses CMS_ prefixed environment variables on top of the
// defaults and validates the result.
func LoadFromEnv() (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: "CMS_"}); err != nil {
		return Config{}, fmt.Errorf("cms config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate performs consistency checks.
func (cfg Config) Validate() error {
	if strings.TrimSpace(cfg.Site) == "" {
		return ErrSiteRequired
	}

	switch normalize(cfg.Storage.Driver) {
	case "sqlite", "sqlite3", "postgres", "pgx":
	default:
		return fmt.Errorf("%w: %s", ErrStorageDriverUnknown, cfg.Storage.Driver)
	}
	if strings.TrimSpace(cfg.Storage.DSN) == "" {
		return ErrStorageDSNRequired
	}

	if cfg.Cache.DefaultTTL < 0 {
		return ErrCacheTTLInvalid
	}
	if cfg.Cache.Enabled {
		switch normalize(cfg.Cache.Provider) {
		case "memory":
		case "redis":
			if strings.TrimSpace(cfg.Cache.RedisURL) == "" {
				return ErrCacheRedisURLRequired
			}
		default:
			return fmt.Errorf("%w: %s", ErrCacheProviderUnknown, cfg.Cache.Provider)
		}
		if cfg.Cache.TombstoneTTL <= 0 {
			return ErrTombstoneTTLInvalid
		}
	}

	if strings.TrimSpace(cfg.Serve.PreviewPermission) == "" {
		return ErrPreviewPermissionNeeded
	}

	if cfg.HTTP.AuthEnabled && strings.TrimSpace(cfg.HTTP.JWTSecret) == "" {
		return ErrAuthSecretRequired
	}

	if cfg.Markdown.Enabled && strings.TrimSpace(cfg.Markdown.ContentDir) == "" {
		return ErrMarkdownDirRequired
	}

	provider := normalize(cfg.Logging.Provider)
	switch provider {
	case "", "console", "gologger", "zerolog":
	default:
		return fmt.Errorf("%w: %s", ErrLoggingProviderUnknown, provider)
	}
	if level := normalize(cfg.Logging.Level); level != "" && !isSupportedLevel(level) {
		return fmt.Errorf("%w: %s", ErrLoggingLevelInvalid, level)
	}
	if format := normalize(cfg.Logging.Format); format != "" && provider == "gologger" && !isSupportedFormat(format) {
		return fmt.Errorf("%w: %s", ErrLoggingFormatInvalid, format)
	}
	return nil
}

// IsPostgres reports whether the storage driver targets postgres.
func (c StorageConfig) IsPostgres() bool {
	switch normalize(c.Driver) {
	case "postgres", "pgx":
		return true
	}
	return false
}

func normalize(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

func isSupportedLevel(level string) bool {
	switch level {
	case "trace", "debug", "info", "warn", "warning", "error", "fatal":
		return true
	}
	return false
}

func isSupportedFormat(format string) bool {
	switch format {
	case "json", "console", "pretty":
		return true
	}
	return false
}
