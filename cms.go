package cms

import (
	"context"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"

	markdowncmd "github.com/goliatone/go-resource-cms/internal/commands/markdown"
	resourcescmd "github.com/goliatone/go-resource-cms/internal/commands/resources"
	"github.com/goliatone/go-resource-cms/internal/di"
	cmshttp "github.com/goliatone/go-resource-cms/internal/http"
	"github.com/goliatone/go-resource-cms/internal/logging"
	"github.com/goliatone/go-resource-cms/internal/markdown"
	"github.com/goliatone/go-resource-cms/internal/render"
	"github.com/goliatone/go-resource-cms/internal/resources"
	"github.com/goliatone/go-resource-cms/pkg/interfaces"
)

// ResourceService exports the admin service contract.
type ResourceService = resources.Service

// Manager resolves resources for serving.
type Manager = *resources.Manager

// Pipeline renders resolved resources.
type Pipeline = *render.Pipeline

// CommandHandlers groups the go-command handlers of resource writes.
type CommandHandlers = *resourcescmd.Handlers

// ImportResult reports a markdown import run.
type ImportResult = markdown.ImportResult

// Option overrides container wiring.
type Option = di.Option

var (
	WithBunDB          = di.WithBunDB
	WithCacheProvider  = di.WithCacheProvider
	WithLoggerProvider = di.WithLoggerProvider
	WithFileStorage    = di.WithFileStorage
	WithClock          = di.WithClock
)

// Module is the top level CMS runtime façade.
type Module struct {
	container *di.Container
}

// New builds a module on memory repositories, or on the database given
// through WithBunDB.
func New(ctx context.Context, cfg Config, opts ...Option) (*Module, error) {
	container, err := di.NewContainer(ctx, cfg, opts...)
	if err != nil {
		return nil, err
	}
	return &Module{container: container}, nil
}

// Open connects to the configured database and creates missing tables.
func Open(ctx context.Context, cfg Config, opts ...Option) (*Module, error) {
	container, err := di.Open(ctx, cfg, opts...)
	if err != nil {
		return nil, err
	}
	return &Module{container: container}, nil
}

// Container exposes the underlying DI container for advanced integrations.
func (m *Module) Container() *di.Container {
	return m.container
}

func (m *Module) Resources() ResourceService { return m.container.Service() }

func (m *Module) Manager() Manager { return m.container.Manager() }

func (m *Module) Pipeline() Pipeline { return m.container.Pipeline() }

func (m *Module) Commands() CommandHandlers { return m.container.Commands() }

// Logger returns the module logger for name.
func (m *Module) Logger(name string) interfaces.Logger { return m.container.Logger(name) }

// Handler serves the admin API, uploaded files and the site.
func (m *Module) Handler() http.Handler { return m.container.Router() }

// Mount registers the site routes on an existing chi router. Viewers must
// already be on the request context, see Authenticate.
func (m *Module) Mount(r chi.Router) {
	cmshttp.NewSite(m.container.Manager(), m.container.Pipeline(),
		cmshttp.WithSiteLogger(m.container.Logger(logging.HTTPModule)),
	).Register(r)
}

// Fallback wraps next so that requests next answers with 404 are served
// from the resource tree instead.
func (m *Module) Fallback(next http.Handler) http.Handler {
	site := cmshttp.NewSite(m.container.Manager(), m.container.Pipeline(),
		cmshttp.WithSiteLogger(m.container.Logger(logging.HTTPModule)),
	)
	return site.Fallback(next)
}

// ImportMarkdown imports dir below the configured markdown content root.
func (m *Module) ImportMarkdown(ctx context.Context, dir string, dryRun bool) (*ImportResult, error) {
	handler := m.MarkdownImportHandler()
	err := handler.Execute(ctx, markdowncmd.ImportDirectoryCommand{Directory: dir, DryRun: dryRun})
	return handler.Last(), err
}

// MarkdownImportHandler builds the go-command handler that imports from the
// configured markdown content root.
func (m *Module) MarkdownImportHandler() *markdowncmd.ImportDirectoryHandler {
	cfg := m.container.Config.Markdown
	loader := markdown.NewLoader(os.DirFS(cfg.ContentDir), markdown.LoaderConfig{Pattern: cfg.Pattern, Recursive: true})
	return markdowncmd.NewImportDirectoryHandler(loader, m.container.MarkdownImporter(nil), m.container.CommandLogger("markdown"))
}

// RegisterCommands hands every command handler to registry.
func (m *Module) RegisterCommands(registry resourcescmd.Registry) error {
	if err := m.container.Commands().Register(registry); err != nil {
		return err
	}
	return m.MarkdownImportHandler().Register(registry)
}

// Close releases database and cache connections.
func (m *Module) Close() error {
	if m == nil || m.container == nil {
		return nil
	}
	return m.container.Close()
}
