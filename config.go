package cms

import "github.com/goliatone/go-resource-cms/internal/runtimeconfig"

var (
	ErrSiteRequired            = runtimeconfig.ErrSiteRequired
	ErrStorageDriverUnknown    = runtimeconfig.ErrStorageDriverUnknown
	ErrStorageDSNRequired      = runtimeconfig.ErrStorageDSNRequired
	ErrCacheProviderUnknown    = runtimeconfig.ErrCacheProviderUnknown
	ErrCacheRedisURLRequired   = runtimeconfig.ErrCacheRedisURLRequired
	ErrCacheTTLInvalid         = runtimeconfig.ErrCacheTTLInvalid
	ErrTombstoneTTLInvalid     = runtimeconfig.ErrTombstoneTTLInvalid
	ErrLoggingProviderUnknown  = runtimeconfig.ErrLoggingProviderUnknown
	ErrLoggingLevelInvalid     = runtimeconfig.ErrLoggingLevelInvalid
	ErrLoggingFormatInvalid    = runtimeconfig.ErrLoggingFormatInvalid
	ErrAuthSecretRequired      = runtimeconfig.ErrAuthSecretRequired
	ErrMarkdownDirRequired     = runtimeconfig.ErrMarkdownDirRequired
	ErrPreviewPermissionNeeded = runtimeconfig.ErrPreviewPermissionNeeded
)

type (
	Config         = runtimeconfig.Config
	StorageConfig  = runtimeconfig.StorageConfig
	CacheConfig    = runtimeconfig.CacheConfig
	ServeConfig    = runtimeconfig.ServeConfig
	FilesConfig    = runtimeconfig.FilesConfig
	HTTPConfig     = runtimeconfig.HTTPConfig
	LoggingConfig  = runtimeconfig.LoggingConfig
	MarkdownConfig = runtimeconfig.MarkdownConfig
)

func DefaultConfig() Config {
	return runtimeconfig.DefaultConfig()
}

// LoadConfig reads CMS_ prefixed environment variables over the defaults.
func LoadConfig() (Config, error) {
	return runtimeconfig.LoadFromEnv()
}
