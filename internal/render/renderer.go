package render

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"html/template"
	"io"
	"strings"
	"sync"

	"github.com/goliatone/go-resource-cms/internal/fields"
	"github.com/goliatone/go-resource-cms/pkg/interfaces"
)

var ErrTemplateNotFound = errors.New("render: template not found")

// FuncProvider is implemented by template data that binds request scoped
// functions, such as *Context.
type FuncProvider interface {
	TemplateFuncs() template.FuncMap
}

// HTMLRenderer renders html/template sources. Parsed templates are kept by
// content hash and cloned for every execution so request scoped functions
// can be bound without reparsing.
type HTMLRenderer struct {
	source interfaces.TemplateSource

	mu     sync.RWMutex
	funcs  template.FuncMap
	parsed map[string]*template.Template
}

var _ interfaces.TemplateRenderer = (*HTMLRenderer)(nil)

// NewHTMLRenderer returns a renderer resolving named templates from source.
// source may be nil when only RenderString is used.
func NewHTMLRenderer(source interfaces.TemplateSource) *HTMLRenderer {
	return &HTMLRenderer{
		source: source,
		funcs:  baseFuncs(),
		parsed: make(map[string]*template.Template),
	}
}

// RegisterFunc adds a template function. Templates parsed earlier are
// dropped so the new function is visible everywhere.
func (r *HTMLRenderer) RegisterFunc(name string, fn any) error {
	name = strings.TrimSpace(name)
	if name == "" || fn == nil {
		return fmt.Errorf("render: function name and value are required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.funcs[name] = fn
	clear(r.parsed)
	return nil
}

// RenderTemplate resolves name through the template source and renders it.
func (r *HTMLRenderer) RenderTemplate(ctx context.Context, name string, data any, out ...io.Writer) (string, error) {
	if r.source == nil {
		return "", fmt.Errorf("%w: %s", ErrTemplateNotFound, name)
	}
	content, _, err := r.source.Lookup(ctx, name)
	if err != nil {
		return "", err
	}
	return r.RenderString(ctx, content, data, out...)
}

// RenderString parses templateContent, or reuses an earlier parse of the
// same content, and executes it with data.
func (r *HTMLRenderer) RenderString(_ context.Context, templateContent string, data any, out ...io.Writer) (string, error) {
	if strings.TrimSpace(templateContent) == "" {
		return "", nil
	}
	tpl, err := r.parse(templateContent)
	if err != nil {
		return "", err
	}
	exec, err := tpl.Clone()
	if err != nil {
		return "", err
	}
	if provider, ok := data.(FuncProvider); ok {
		exec = exec.Funcs(provider.TemplateFuncs())
	}

	var writer io.Writer
	var buffer *bytes.Buffer
	if len(out) > 0 && out[0] != nil {
		writer = out[0]
	} else {
		buffer = &bytes.Buffer{}
		writer = buffer
	}
	if err := exec.Execute(writer, data); err != nil {
		return "", err
	}
	if buffer != nil {
		return buffer.String(), nil
	}
	return "", nil
}

func (r *HTMLRenderer) parse(content string) (*template.Template, error) {
	sum := sha1.Sum([]byte(content))
	key := hex.EncodeToString(sum[:])

	r.mu.RLock()
	tpl, ok := r.parsed[key]
	r.mu.RUnlock()
	if ok {
		return tpl, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if tpl, ok := r.parsed[key]; ok {
		return tpl, nil
	}
	tpl, err := template.New(key).Funcs(r.funcs).Parse(content)
	if err != nil {
		return nil, fmt.Errorf("render: parse template: %w", err)
	}
	r.parsed[key] = tpl
	return tpl, nil
}

// baseFuncs are bound at parse time. Request scoped names are declared
// here and replaced per execution by FuncProvider.
func baseFuncs() template.FuncMap {
	unbound := func(name string) func(...any) (any, error) {
		return func(...any) (any, error) {
			return nil, fmt.Errorf("render: %s needs a resource context", name)
		}
	}
	return template.FuncMap{
		"safe":              toHTML,
		"markdown":          markdown,
		"field":             unbound("field"),
		"inline_resource":   unbound("inline_resource"),
		"resource":          unbound("resource"),
		"children":          unbound("children"),
		"resources_of_type": unbound("resources_of_type"),
	}
}

func markdown(value any) (template.HTML, error) {
	switch v := value.(type) {
	case nil:
		return "", nil
	case fields.MarkdownText:
		return v.HTML(), nil
	case string:
		return fields.RenderMarkdown(v)
	default:
		return fields.RenderMarkdown(fmt.Sprint(v))
	}
}

func toHTML(value any) template.HTML {
	switch v := value.(type) {
	case nil:
		return ""
	case template.HTML:
		return v
	case string:
		return template.HTML(v)
	default:
		return template.HTML(fmt.Sprint(v))
	}
}
