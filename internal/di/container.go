package di

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	repocache "github.com/goliatone/go-repository-cache/cache"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-resource-cms/internal/cache"
	"github.com/goliatone/go-resource-cms/internal/commands"
	resourcescmd "github.com/goliatone/go-resource-cms/internal/commands/resources"
	"github.com/goliatone/go-resource-cms/internal/db"
	"github.com/goliatone/go-resource-cms/internal/fields"
	"github.com/goliatone/go-resource-cms/internal/logging"
	"github.com/goliatone/go-resource-cms/internal/logging/console"
	"github.com/goliatone/go-resource-cms/internal/logging/gologger"
	"github.com/goliatone/go-resource-cms/internal/logging/zerologger"
	"github.com/goliatone/go-resource-cms/internal/markdown"
	"github.com/goliatone/go-resource-cms/internal/render"
	"github.com/goliatone/go-resource-cms/internal/resources"
	"github.com/goliatone/go-resource-cms/internal/runtimeconfig"
	"github.com/goliatone/go-resource-cms/internal/storage"
	"github.com/goliatone/go-resource-cms/pkg/interfaces"
)

// Container wires the resource CMS. Without a bun database it runs on
// memory repositories.
type Container struct {
	Config runtimeconfig.Config

	loggerProvider interfaces.LoggerProvider
	clock          func() time.Time

	bunDB         *bun.DB
	cacheProvider interfaces.CacheProvider
	cacheService  repocache.CacheService
	keySerializer repocache.KeySerializer
	fileStorage   interfaces.FileStorage

	registry      *fields.Registry
	templateRepo  resources.TemplateRepository
	typeRepo      resources.TypeRepository
	resourceRepo  resources.ResourceRepository
	resourceCache *resources.ResourceCache
	typeCache     *resources.TypeCache

	service  resources.Service
	manager  *resources.Manager
	pipeline *render.Pipeline
	commands *resourcescmd.Handlers

	closers []func() error
}

// Option mutates the container before it is finalised.
type Option func(*Container)

// WithBunDB stores templates, types and resources in db.
func WithBunDB(bunDB *bun.DB) Option {
	return func(c *Container) {
		c.bunDB = bunDB
	}
}

// WithCacheProvider overrides the configured model cache provider.
func WithCacheProvider(provider interfaces.CacheProvider) Option {
	return func(c *Container) {
		c.cacheProvider = provider
	}
}

// WithRepositoryCache overrides the go-repository-cache service used by the
// bun template and type repositories.
func WithRepositoryCache(service repocache.CacheService, serializer repocache.KeySerializer) Option {
	return func(c *Container) {
		c.cacheService = service
		c.keySerializer = serializer
	}
}

// WithLoggerProvider overrides the configured logger provider.
func WithLoggerProvider(provider interfaces.LoggerProvider) Option {
	return func(c *Container) {
		c.loggerProvider = provider
	}
}

// WithFileStorage overrides the local file storage of file and image fields.
func WithFileStorage(fs interfaces.FileStorage) Option {
	return func(c *Container) {
		c.fileStorage = fs
	}
}

func WithClock(clock func() time.Time) Option {
	return func(c *Container) {
		if clock != nil {
			c.clock = clock
		}
	}
}

// NewContainer validates cfg and builds every service.
func NewContainer(ctx context.Context, cfg runtimeconfig.Config, opts ...Option) (*Container, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	c := &Container{Config: cfg, clock: time.Now}
	for _, opt := range opts {
		opt(c)
	}

	steps := []func(context.Context) error{
		c.configureLogging,
		c.configureCache,
		c.configureStorage,
		c.configureRepositories,
	}
	for _, step := range steps {
		if err := step(ctx); err != nil {
			_ = c.Close()
			return nil, err
		}
	}
	c.configureServices()
	return c, nil
}

// Open connects to the configured database, creates missing tables and
// returns a container over it. Close releases the connection.
func Open(ctx context.Context, cfg runtimeconfig.Config, opts ...Option) (*Container, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	bunDB, err := db.Open(cfg.Storage.Driver, cfg.Storage.DSN)
	if err != nil {
		return nil, err
	}
	if err := db.CreateSchema(ctx, bunDB); err != nil {
		_ = bunDB.Close()
		return nil, err
	}
	c, err := NewContainer(ctx, cfg, append(opts, WithBunDB(bunDB))...)
	if err != nil {
		_ = bunDB.Close()
		return nil, err
	}
	c.closers = append(c.closers, bunDB.Close)
	return c, nil
}

func (c *Container) configureLogging(context.Context) error {
	if c.loggerProvider != nil {
		return nil
	}
	cfg := c.Config.Logging
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "gologger":
		provider, err := gologger.NewProvider(gologger.Config{
			Level:     cfg.Level,
			Format:    cfg.Format,
			AddSource: cfg.AddSource,
			Focus:     cfg.Focus,
		})
		if err != nil {
			return err
		}
		c.loggerProvider = provider
	case "zerolog":
		provider, err := zerologger.NewProvider(zerologger.Config{
			Level:  cfg.Level,
			Pretty: strings.EqualFold(cfg.Format, "pretty") || strings.EqualFold(cfg.Format, "console"),
		})
		if err != nil {
			return err
		}
		c.loggerProvider = provider
	default:
		c.loggerProvider = console.NewProvider(console.Options{MinLevel: console.ParseLevel(cfg.Level)})
	}
	return nil
}

func (c *Container) configureCache(ctx context.Context) error {
	cfg := c.Config.Cache
	if !cfg.Enabled {
		c.cacheProvider = nil
		return nil
	}
	if c.cacheProvider == nil {
		switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
		case "redis":
			provider, err := cache.NewRedisProvider(ctx, cache.RedisOptions{
				URL:        cfg.RedisURL,
				Prefix:     cfg.Prefix,
				DefaultTTL: cfg.DefaultTTL,
			})
			if err != nil {
				return fmt.Errorf("di: redis cache: %w", err)
			}
			c.cacheProvider = provider
			c.closers = append(c.closers, provider.Close)
		default:
			provider := cache.NewMemoryProvider(cache.MemoryOptions{
				DefaultTTL:      cfg.DefaultTTL,
				CleanupInterval: time.Minute,
				Clock:           c.clock,
			})
			c.cacheProvider = provider
			c.closers = append(c.closers, provider.Close)
		}
	}

	if cfg.Repositories && c.cacheService == nil {
		repoCfg := repocache.DefaultConfig()
		if cfg.DefaultTTL > 0 {
			repoCfg.TTL = cfg.DefaultTTL
		}
		service, err := repocache.NewCacheService(repoCfg)
		if err != nil {
			return fmt.Errorf("di: repository cache: %w", err)
		}
		c.cacheService = service
	}
	if c.cacheService != nil && c.keySerializer == nil {
		c.keySerializer = repocache.NewDefaultKeySerializer()
	}
	return nil
}

func (c *Container) configureStorage(context.Context) error {
	if c.fileStorage == nil {
		local, err := storage.NewLocal(storage.Config{
			BaseDir: c.Config.Files.Root,
			BaseURL: c.Config.Files.BaseURL,
		})
		if err != nil {
			return fmt.Errorf("di: file storage: %w", err)
		}
		c.fileStorage = local
	}
	c.registry = fields.NewRegistry(fields.WithFileStorage(c.fileStorage))
	return nil
}

func (c *Container) configureRepositories(context.Context) error {
	if c.bunDB == nil {
		c.templateRepo = resources.NewMemoryTemplateRepository()
		c.typeRepo = resources.NewMemoryTypeRepository()
		c.resourceRepo = resources.NewMemoryResourceRepository()
		return nil
	}
	if c.Config.Storage.Debug {
		c.bunDB.AddQueryHook(db.NewQueryLogger(c.Logger("cms.db")))
	}
	if c.cacheService != nil {
		c.templateRepo = resources.NewBunTemplateRepositoryWithCache(c.bunDB, c.cacheService, c.keySerializer)
		c.typeRepo = resources.NewBunTypeRepositoryWithCache(c.bunDB, c.cacheService, c.keySerializer)
	} else {
		c.templateRepo = resources.NewBunTemplateRepository(c.bunDB)
		c.typeRepo = resources.NewBunTypeRepository(c.bunDB)
	}
	c.resourceRepo = resources.NewBunResourceRepository(c.bunDB)
	return nil
}

func (c *Container) configureServices() {
	cacheOpts := []cache.ModelOption{
		cache.WithTTL(c.Config.Cache.DefaultTTL),
		cache.WithTombstoneTTL(c.Config.Cache.TombstoneTTL),
		cache.WithLogger(c.Logger(logging.CacheModule)),
	}
	c.resourceCache = resources.NewResourceCache(c.cacheProvider, cacheOpts...)
	c.typeCache = resources.NewTypeCache(c.cacheProvider, cacheOpts...)

	c.service = resources.NewService(c.templateRepo, c.typeRepo, c.resourceRepo,
		resources.WithSite(c.Config.Site),
		resources.WithCache(c.resourceCache, c.typeCache),
		resources.WithRegistry(c.registry),
		resources.WithClock(c.clock),
		resources.WithLogger(c.Logger(logging.ResourcesModule)),
	)
	c.manager = resources.NewManager(c.resourceRepo, c.typeRepo,
		resources.WithManagerSite(c.Config.Site),
		resources.WithManagerCache(c.resourceCache, c.typeCache),
		resources.WithManagerRegistry(c.registry),
		resources.WithServeOptions(resources.ServeOptions{
			AllowSuperuser:    c.Config.Serve.AllowSuperuser,
			PreviewPermission: c.Config.Serve.PreviewPermission,
		}),
		resources.WithManagerClock(c.clock),
		resources.WithManagerLogger(c.Logger(logging.ResourcesModule)),
	)
	c.pipeline = render.NewPipeline(c.manager, c.templateRepo,
		render.WithLogger(c.Logger(logging.RenderModule)),
	)
	c.commands = resourcescmd.NewHandlers(c.service, c.CommandLogger("resources"))
}

// Logger returns the module logger for name.
func (c *Container) Logger(name string) interfaces.Logger {
	return logging.ModuleLogger(c.loggerProvider, name)
}

// CommandLogger returns the logger command handlers of module write to.
func (c *Container) CommandLogger(module string) interfaces.Logger {
	return commands.CommandLogger(c.loggerProvider, module)
}

func (c *Container) LoggerProvider() interfaces.LoggerProvider { return c.loggerProvider }

func (c *Container) Service() resources.Service { return c.service }

func (c *Container) Manager() *resources.Manager { return c.manager }

func (c *Container) Pipeline() *render.Pipeline { return c.pipeline }

func (c *Container) Commands() *resourcescmd.Handlers { return c.commands }

func (c *Container) Registry() *fields.Registry { return c.registry }

func (c *Container) FileStorage() interfaces.FileStorage { return c.fileStorage }

func (c *Container) CacheProvider() interfaces.CacheProvider { return c.cacheProvider }

func (c *Container) DB() *bun.DB { return c.bunDB }

// MarkdownImporter returns an importer writing through the container's
// service with the configured default type.
func (c *Container) MarkdownImporter(parser *markdown.Parser) *markdown.Importer {
	return markdown.NewImporter(markdown.ImporterConfig{
		Service:     c.service,
		Parser:      parser,
		Site:        c.Config.Site,
		DefaultType: c.Config.Markdown.DefaultType,
		Logger:      c.Logger(logging.MarkdownModule),
	})
}

// Close releases connections opened by the container in reverse order.
func (c *Container) Close() error {
	var errs []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	c.closers = nil
	return errors.Join(errs...)
}
