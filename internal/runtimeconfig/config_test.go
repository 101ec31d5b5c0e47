package runtimeconfig_test

import (
	"errors"
	"testing"
	"time"

	"github.com/goliatone/go-resource-cms/internal/runtimeconfig"
)

func TestDefaultConfigValidates(t *testing.T) {
	if err := runtimeconfig.DefaultConfig().Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
}

func TestConfigValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*runtimeconfig.Config)
		want   error
	}{
		{"empty site", func(c *runtimeconfig.Config) { c.Site = " " }, runtimeconfig.ErrSiteRequired},
		{"unknown driver", func(c *runtimeconfig.Config) { c.Storage.Driver = "oracle" }, runtimeconfig.ErrStorageDriverUnknown},
		{"missing dsn", func(c *runtimeconfig.Config) { c.Storage.DSN = "" }, runtimeconfig.ErrStorageDSNRequired},
		{"unknown cache provider", func(c *runtimeconfig.Config) { c.Cache.Provider = "memcached" }, runtimeconfig.ErrCacheProviderUnknown},
		{"redis without url", func(c *runtimeconfig.Config) { c.Cache.Provider = "redis" }, runtimeconfig.ErrCacheRedisURLRequired},
		{"zero tombstone", func(c *runtimeconfig.Config) { c.Cache.TombstoneTTL = 0 }, runtimeconfig.ErrTombstoneTTLInvalid},
		{"negative ttl", func(c *runtimeconfig.Config) { c.Cache.DefaultTTL = -time.Second }, runtimeconfig.ErrCacheTTLInvalid},
		{"empty preview permission", func(c *runtimeconfig.Config) { c.Serve.PreviewPermission = "" }, runtimeconfig.ErrPreviewPermissionNeeded},
		{"auth without secret", func(c *runtimeconfig.Config) { c.HTTP.AuthEnabled = true }, runtimeconfig.ErrAuthSecretRequired},
		{"markdown without dir", func(c *runtimeconfig.Config) {
			c.Markdown.Enabled = true
			c.Markdown.ContentDir = ""
		}, runtimeconfig.ErrMarkdownDirRequired},
		{"unknown logger", func(c *runtimeconfig.Config) { c.Logging.Provider = "syslog" }, runtimeconfig.ErrLoggingProviderUnknown},
		{"bad level", func(c *runtimeconfig.Config) { c.Logging.Level = "loud" }, runtimeconfig.ErrLoggingLevelInvalid},
		{"bad gologger format", func(c *runtimeconfig.Config) {
			c.Logging.Provider = "gologger"
			c.Logging.Format = "xml"
		}, runtimeconfig.ErrLoggingFormatInvalid},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := runtimeconfig.DefaultConfig()
			tc.mutate(&cfg)
			if err := cfg.Validate(); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestCacheDisabledSkipsCacheChecks(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Cache.Enabled = false
	cfg.Cache.Provider = "redis"
	cfg.Cache.TombstoneTTL = 0
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected disabled cache to skip provider checks, got %v", err)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("CMS_SITE", "blog")
	t.Setenv("CMS_CACHE_TOMBSTONE_TTL", "2s")
	t.Setenv("CMS_SERVE_ALLOW_SUPERUSER", "false")
	t.Setenv("CMS_LOG_PROVIDER", "zerolog")
	t.Setenv("CMS_STORAGE_DRIVER", "postgres")
	t.Setenv("CMS_STORAGE_DSN", "postgres://cms@localhost/cms")

	cfg, err := runtimeconfig.LoadFromEnv()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Site != "blog" {
		t.Fatalf("expected site blog, got %q", cfg.Site)
	}
	if cfg.Cache.TombstoneTTL != 2*time.Second {
		t.Fatalf("expected 2s tombstone ttl, got %v", cfg.Cache.TombstoneTTL)
	}
	if cfg.Serve.AllowSuperuser {
		t.Fatal("expected superuser override to be disabled")
	}
	if cfg.Serve.PreviewPermission != "preview_resource" {
		t.Fatalf("expected default preview permission, got %q", cfg.Serve.PreviewPermission)
	}
	if !cfg.Storage.IsPostgres() {
		t.Fatal("expected postgres storage")
	}
	if cfg.Cache.DefaultTTL != 5*time.Minute {
		t.Fatalf("expected default ttl from envDefault, got %v", cfg.Cache.DefaultTTL)
	}
}
