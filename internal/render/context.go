package render

import (
	"context"
	"fmt"
	"html/template"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/goliatone/go-resource-cms/internal/resources"
	"github.com/goliatone/go-resource-cms/pkg/interfaces"
)

// Context is the data passed to resource templates. Field values are loaded
// on first use and kept for the rest of the render.
type Context struct {
	Request  *http.Request
	Resource *resources.Resource
	Type     *resources.ResourceType
	Site     string
	Viewer   interfaces.Viewer
	Now      time.Time
	// Content holds the rendered inline content when the type template runs.
	Content template.HTML

	ctx      context.Context
	pipeline *Pipeline
	depth    int

	fieldsOnce sync.Once
	fields     map[string]any
	fieldsErr  error
}

func (c *Context) Title() string { return c.Resource.Title }

func (c *Context) Status() resources.PublishedStatus {
	return c.Resource.StatusAt(c.Now)
}

// Fields returns the typed field values of the resource.
func (c *Context) Fields() (map[string]any, error) {
	c.fieldsOnce.Do(func() {
		c.fields, c.fieldsErr = c.pipeline.manager.Fields(c.ctx, c.Resource)
	})
	return c.fields, c.fieldsErr
}

// Field returns one typed field value, or nil when it is not set.
func (c *Context) Field(code string) (any, error) {
	values, err := c.Fields()
	if err != nil {
		return nil, err
	}
	return values[code], nil
}

// TemplateFuncs binds the resource helpers to this render.
func (c *Context) TemplateFuncs() template.FuncMap {
	return template.FuncMap{
		"field":             c.Field,
		"inline_resource":   c.inlineResource,
		"resource":          c.resource,
		"children":          c.children,
		"resources_of_type": c.resourcesOfType,
	}
}

// DefaultInlineFallback is rendered when an inline resource cannot be served.
const DefaultInlineFallback = "Resource `%s` not found"

// inlineResource renders another front resource the viewer may see. The
// optional second argument overrides the fallback text; a %s in it is
// replaced by the reference.
func (c *Context) inlineResource(ref any, fallback ...string) (template.HTML, error) {
	key := refString(ref)
	text := DefaultInlineFallback
	if len(fallback) > 0 {
		text = fallback[0]
	}
	notFound := template.HTML(template.HTMLEscapeString(formatFallback(text, key)))

	if c.depth >= c.pipeline.maxDepth {
		c.pipeline.logger.Warn("render.inline.depth_exceeded", "ref", key, "depth", c.depth)
		return notFound, nil
	}
	r, err := c.pipeline.manager.Lookup(c.ctx, key)
	if err != nil {
		if resources.IsNotFound(err) {
			return notFound, nil
		}
		return "", err
	}
	if !resources.CanServe(r, c.Viewer, c.Now, c.pipeline.manager.ServeOptions()) {
		return notFound, nil
	}
	result, err := c.pipeline.render(c.ctx, Request{HTTP: c.Request, Viewer: c.Viewer, Resource: r}, c.depth+1)
	if err != nil {
		return "", err
	}
	if result.Redirect != "" {
		return notFound, nil
	}
	return template.HTML(result.Body), nil
}

// resource returns a live front resource by id or path, or nil.
func (c *Context) resource(ref any) (*Item, error) {
	r, err := c.pipeline.manager.Lookup(c.ctx, refString(ref))
	if err != nil {
		if resources.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	if !r.IsLiveAt(c.Now) {
		return nil, nil
	}
	return c.item(r), nil
}

// children lists live children of the current resource, or of the resource
// given as first argument (an *Item, a *resources.Resource, an id or a
// path). A trailing bool includes resources hidden from menus.
func (c *Context) children(args ...any) ([]*Item, error) {
	parent := c.Resource
	includeHidden := false
	for _, arg := range args {
		switch v := arg.(type) {
		case bool:
			includeHidden = v
		case *Item:
			parent = v.Resource
		case *resources.Resource:
			parent = v
		default:
			r, err := c.pipeline.manager.Lookup(c.ctx, refString(v))
			if err != nil {
				if resources.IsNotFound(err) {
					return nil, nil
				}
				return nil, err
			}
			parent = r
		}
	}
	if parent == nil {
		return nil, nil
	}
	records, err := c.pipeline.manager.Children(c.ctx, parent, includeHidden)
	if err != nil {
		return nil, err
	}
	return c.items(records), nil
}

func (c *Context) resourcesOfType(code string, includeHidden ...bool) ([]*Item, error) {
	hidden := len(includeHidden) > 0 && includeHidden[0]
	records, err := c.pipeline.manager.ByType(c.ctx, code, hidden)
	if err != nil {
		return nil, err
	}
	return c.items(records), nil
}

func (c *Context) items(records []*resources.Resource) []*Item {
	out := make([]*Item, 0, len(records))
	for _, r := range records {
		out = append(out, c.item(r))
	}
	return out
}

func (c *Context) item(r *resources.Resource) *Item {
	return &Item{Resource: r, ctx: c.ctx, manager: c.pipeline.manager}
}

// Item is a resource exposed to templates by the lookup helpers.
type Item struct {
	Resource *resources.Resource

	ctx     context.Context
	manager *resources.Manager

	varsOnce sync.Once
	vars     map[string]any
}

func (i *Item) ID() string        { return i.Resource.ID.String() }
func (i *Item) Title() string     { return i.Resource.Title }
func (i *Item) MenuTitle() string { return i.Resource.MenuLabel() }
func (i *Item) MenuClass() string { return i.Resource.MenuClass }
func (i *Item) URIPath() string   { return i.Resource.URIPath }

// Vars returns the typed field values of the item. Load errors yield an
// empty map.
func (i *Item) Vars() map[string]any {
	i.varsOnce.Do(func() {
		values, err := i.manager.Fields(i.ctx, i.Resource)
		if err != nil {
			values = map[string]any{}
		}
		i.vars = values
	})
	return i.vars
}

func refString(ref any) string {
	switch v := ref.(type) {
	case string:
		return v
	case int:
		return strconv.Itoa(v)
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}

func formatFallback(text, ref string) string {
	return strings.Replace(text, "%s", ref, 1)
}
