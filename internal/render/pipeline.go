package render

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"mime"
	"net/http"
	"slices"
	"strings"

	"github.com/goliatone/go-resource-cms/internal/logging"
	"github.com/goliatone/go-resource-cms/internal/resources"
	"github.com/goliatone/go-resource-cms/pkg/interfaces"
)

var (
	ErrNoResource = errors.New("render: resource is required")
	ErrEmptyLink  = errors.New("render: link resource has no target")
)

// TemplateLoader returns templates by name. resources.TemplateRepository
// satisfies it.
type TemplateLoader interface {
	GetByName(ctx context.Context, name string) (*resources.Template, error)
}

// Request is one render of a resolved resource.
type Request struct {
	HTTP     *http.Request
	Viewer   interfaces.Viewer
	Resource *resources.Resource
}

// Result is the rendered output of a resource.
type Result struct {
	Body               string
	MimeType           string
	Redirect           string
	ContentDisposition string
	Template           string
	Cacheable          bool
}

// DefaultMaxInlineDepth bounds nested inline_resource calls.
const DefaultMaxInlineDepth = 8

// Pipeline turns resolved resources into output.
type Pipeline struct {
	manager   *resources.Manager
	templates TemplateLoader
	renderer  *HTMLRenderer
	logger    interfaces.Logger
	maxDepth  int
}

type PipelineOption func(*Pipeline)

func WithRenderer(renderer *HTMLRenderer) PipelineOption {
	return func(p *Pipeline) {
		if renderer != nil {
			p.renderer = renderer
		}
	}
}

func WithLogger(logger interfaces.Logger) PipelineOption {
	return func(p *Pipeline) { p.logger = logging.OrNoOp(logger) }
}

func WithMaxInlineDepth(depth int) PipelineOption {
	return func(p *Pipeline) {
		if depth > 0 {
			p.maxDepth = depth
		}
	}
}

func NewPipeline(manager *resources.Manager, templates TemplateLoader, opts ...PipelineOption) *Pipeline {
	p := &Pipeline{
		manager:   manager,
		templates: templates,
		logger:    logging.NoOp(),
		maxDepth:  DefaultMaxInlineDepth,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.renderer == nil {
		p.renderer = NewHTMLRenderer(NewSource(templates, manager.Site()))
	}
	return p
}

// Renderer returns the template renderer used by the pipeline.
func (p *Pipeline) Renderer() *HTMLRenderer { return p.renderer }

// Render produces the output of req.Resource. Callers gate access with
// resources.CanServe first; Render does not check visibility.
func (p *Pipeline) Render(ctx context.Context, req Request) (*Result, error) {
	return p.render(ctx, req, 0)
}

func (p *Pipeline) render(ctx context.Context, req Request, depth int) (*Result, error) {
	r := req.Resource
	if r == nil {
		return nil, ErrNoResource
	}
	rt, err := p.manager.TypeByID(ctx, r.TypeID)
	if err != nil {
		return nil, err
	}
	if rt.IsLink {
		target := strings.TrimSpace(r.Content)
		if target == "" {
			return nil, fmt.Errorf("%w: %s", ErrEmptyLink, r.URIPath)
		}
		return &Result{Redirect: target}, nil
	}

	rc := &Context{
		Request:  req.HTTP,
		Resource: r,
		Type:     rt,
		Site:     p.manager.Site(),
		Viewer:   req.Viewer,
		Now:      p.manager.Now(),
		ctx:      ctx,
		pipeline: p,
		depth:    depth,
	}

	inline, err := p.renderer.RenderString(ctx, r.Content, rc)
	if err != nil {
		return nil, fmt.Errorf("render %s: %w", r.URIPath, err)
	}
	result := &Result{
		Body:               inline,
		MimeType:           resources.DefaultMimeType,
		ContentDisposition: contentDisposition(r),
		Cacheable:          true,
	}
	if rt.DefaultTemplate == "" {
		return result, nil
	}

	tpl, err := p.loadTemplate(ctx, rt.DefaultTemplate)
	if err != nil {
		return nil, err
	}
	rc.Content = template.HTML(inline)
	body, err := p.renderer.RenderString(ctx, tpl.Content, rc)
	if err != nil {
		return nil, fmt.Errorf("render %s with %s: %w", r.URIPath, tpl.Name, err)
	}
	result.Body = body
	result.Template = tpl.Name
	result.Cacheable = tpl.Cacheable
	if tpl.MimeType != "" {
		result.MimeType = tpl.MimeType
	}
	return result, nil
}

// loadTemplate looks up "<site>/<name>" and then "<name>".
func (p *Pipeline) loadTemplate(ctx context.Context, name string) (*resources.Template, error) {
	return loadForSite(ctx, p.templates, p.manager.Site(), name)
}

func loadForSite(ctx context.Context, loader TemplateLoader, site, name string) (*resources.Template, error) {
	if loader == nil {
		return nil, fmt.Errorf("%w: %s", ErrTemplateNotFound, name)
	}
	for _, candidate := range templateCandidates(site, name) {
		tpl, err := loader.GetByName(ctx, candidate)
		if err != nil {
			if resources.IsNotFound(err) {
				continue
			}
			return nil, err
		}
		if len(tpl.Sites) > 0 && !slices.Contains(tpl.Sites, site) {
			continue
		}
		return tpl, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrTemplateNotFound, name)
}

func templateCandidates(site, name string) []string {
	name = strings.TrimSpace(name)
	if site == "" {
		return []string{name}
	}
	return []string{site + "/" + name, name}
}

func contentDisposition(r *resources.Resource) string {
	if r.ContentDisposition == resources.DispositionNone {
		return ""
	}
	params := map[string]string{}
	if r.Slug != "" {
		params["filename"] = r.Slug
	}
	return mime.FormatMediaType(r.ContentDisposition, params)
}

// Source adapts a TemplateLoader to interfaces.TemplateSource with the same
// site convention as the pipeline.
type Source struct {
	loader TemplateLoader
	site   string
}

var _ interfaces.TemplateSource = (*Source)(nil)

func NewSource(loader TemplateLoader, site string) *Source {
	return &Source{loader: loader, site: site}
}

func (s *Source) Lookup(ctx context.Context, name string) (string, string, error) {
	tpl, err := loadForSite(ctx, s.loader, s.site, name)
	if err != nil {
		return "", "", err
	}
	mimeType := tpl.MimeType
	if mimeType == "" {
		mimeType = resources.DefaultMimeType
	}
	return tpl.Content, mimeType, nil
}
