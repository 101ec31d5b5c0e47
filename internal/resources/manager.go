package resources

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/goliatone/go-resource-cms/internal/fields"
	"github.com/goliatone/go-resource-cms/internal/logging"
	"github.com/goliatone/go-resource-cms/pkg/interfaces"
)

// Manager resolves request paths and identifiers to visible resources. Every
// front lookup is limited to published, non deleted resources of the
// configured site.
type Manager struct {
	resources ResourceRepository
	types     TypeRepository
	cache     *ResourceCache
	typeCache *TypeCache
	registry  *fields.Registry
	site      string
	serve     ServeOptions
	now       func() time.Time
	logger    interfaces.Logger
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

func WithManagerSite(site string) ManagerOption {
	return func(m *Manager) {
		if strings.TrimSpace(site) != "" {
			m.site = strings.TrimSpace(site)
		}
	}
}

// WithManagerCache enables cache-aside lookups.
func WithManagerCache(resources *ResourceCache, types *TypeCache) ManagerOption {
	return func(m *Manager) {
		m.cache = resources
		m.typeCache = types
	}
}

// WithManagerRegistry sets the registry used to type field values.
func WithManagerRegistry(registry *fields.Registry) ManagerOption {
	return func(m *Manager) {
		if registry != nil {
			m.registry = registry
		}
	}
}

func WithServeOptions(opts ServeOptions) ManagerOption {
	return func(m *Manager) { m.serve = opts }
}

func WithManagerClock(clock func() time.Time) ManagerOption {
	return func(m *Manager) {
		if clock != nil {
			m.now = clock
		}
	}
}

func WithManagerLogger(logger interfaces.Logger) ManagerOption {
	return func(m *Manager) { m.logger = logging.OrNoOp(logger) }
}

// DefaultSite is used when no site is configured.
const DefaultSite = "default"

func NewManager(resources ResourceRepository, types TypeRepository, opts ...ManagerOption) *Manager {
	m := &Manager{
		resources: resources,
		types:     types,
		registry:  fields.NewRegistry(),
		site:      DefaultSite,
		serve:     DefaultServeOptions(),
		now:       time.Now,
		logger:    logging.NoOp(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Site returns the site resources are resolved for.
func (m *Manager) Site() string { return m.site }

// Now returns the manager clock reading.
func (m *Manager) Now() time.Time { return m.now() }

// ServeOptions returns the configured serve policy.
func (m *Manager) ServeOptions() ServeOptions { return m.serve }

// GetByURIPath resolves a published, non deleted resource by path. The
// publish window is not checked here; see ResolvePath.
func (m *Manager) GetByURIPath(ctx context.Context, path string) (*Resource, error) {
	path = NormalizePath(path)
	attrs := pathAttrs(m.site, path)
	if cached, ok := m.cache.GetByAttributes(ctx, attrs); ok && cached != nil && m.visible(cached) {
		m.logger.Debug("resources.cache.hit", logging.FieldPath, path)
		return cloneResource(cached), nil
	}

	record, err := m.GetFront(ctx, ByURIPath(path))
	if err != nil {
		return nil, err
	}
	m.populate(ctx, record)
	return record, nil
}

// GetByID resolves a published, non deleted resource by id.
func (m *Manager) GetByID(ctx context.Context, id uuid.UUID) (*Resource, error) {
	if cached, ok := m.cache.Get(ctx, id); ok && cached != nil && m.visible(cached) {
		return cloneResource(cached), nil
	}
	record, err := m.GetFront(ctx, ByID(id))
	if err != nil {
		return nil, err
	}
	m.populate(ctx, record)
	return record, nil
}

// GetFront returns the first front resource matching filters.
func (m *Manager) GetFront(ctx context.Context, filters ...Filter) (*Resource, error) {
	records, err := m.FilterFront(ctx, append(filters, Limit(1))...)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, &NotFoundError{Resource: "resource", Key: describeFilters(filters)}
	}
	return records[0], nil
}

// FilterFront lists front resources matching filters, ordered by order,
// uri_path and title.
func (m *Manager) FilterFront(ctx context.Context, filters ...Filter) ([]*Resource, error) {
	return m.resources.Find(ctx, m.frontQuery(filters))
}

func (m *Manager) frontQuery(filters []Filter) Query {
	var q Query
	for _, filter := range filters {
		if filter != nil {
			filter(&q)
		}
	}
	published, deleted := true, false
	q.Published = &published
	q.Deleted = &deleted
	q.Site = m.site
	return q
}

// Children lists the live children of parent. Resources hidden from menus
// are skipped unless includeHidden is set.
func (m *Manager) Children(ctx context.Context, parent *Resource, includeHidden bool) ([]*Resource, error) {
	if parent == nil {
		return nil, ErrIDRequired
	}
	filters := []Filter{ByParent(parent.ID)}
	if !includeHidden {
		filters = append(filters, ByHideFromMenu(false))
	}
	return m.live(ctx, filters)
}

// ByType lists live resources of the type with code.
func (m *Manager) ByType(ctx context.Context, code string, includeHidden bool) ([]*Resource, error) {
	rt, err := m.TypeByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	filters := []Filter{ByType(rt.ID)}
	if !includeHidden {
		filters = append(filters, ByHideFromMenu(false))
	}
	return m.live(ctx, filters)
}

func (m *Manager) live(ctx context.Context, filters []Filter) ([]*Resource, error) {
	records, err := m.FilterFront(ctx, filters...)
	if err != nil {
		return nil, err
	}
	now := m.now()
	out := records[:0]
	for _, record := range records {
		if record.IsLiveAt(now) {
			out = append(out, record)
		}
	}
	return out, nil
}

// Lookup resolves a front resource from an id or a path.
func (m *Manager) Lookup(ctx context.Context, idOrPath string) (*Resource, error) {
	idOrPath = strings.TrimSpace(idOrPath)
	if id, err := uuid.Parse(idOrPath); err == nil {
		return m.GetByID(ctx, id)
	}
	return m.GetByURIPath(ctx, idOrPath)
}

// ResolvePath resolves path and applies CanServe for viewer. Denial is
// reported as not found.
func (m *Manager) ResolvePath(ctx context.Context, path string, viewer interfaces.Viewer) (*Resource, error) {
	record, err := m.GetByURIPath(ctx, path)
	if err != nil {
		return nil, err
	}
	return m.gate(record, viewer, NormalizePath(path))
}

// ResolvePreview loads any resource of the site by id, including
// unpublished ones, and applies CanServe for viewer.
func (m *Manager) ResolvePreview(ctx context.Context, id uuid.UUID, viewer interfaces.Viewer) (*Resource, error) {
	record, err := m.resources.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if record.SiteID != m.site {
		return nil, &NotFoundError{Resource: "resource", Key: id.String()}
	}
	return m.gate(record, viewer, id.String())
}

func (m *Manager) gate(record *Resource, viewer interfaces.Viewer, key string) (*Resource, error) {
	if !CanServe(record, viewer, m.now(), m.serve) {
		m.logger.Debug("resources.serve.denied", logging.FieldResourceID, record.ID.String())
		return nil, &NotFoundError{Resource: "resource", Key: key}
	}
	return record, nil
}

// TypeByID returns the resource type with id, cache first.
func (m *Manager) TypeByID(ctx context.Context, id uuid.UUID) (*ResourceType, error) {
	if cached, ok := m.typeCache.Get(ctx, id); ok && cached != nil {
		return cloneType(cached), nil
	}
	rt, err := m.types.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	m.populateType(ctx, rt)
	return rt, nil
}

// TypeByCode returns the resource type with code, cache first.
func (m *Manager) TypeByCode(ctx context.Context, code string) (*ResourceType, error) {
	if cached, ok := m.typeCache.GetByAttribute(ctx, AttrCode, code); ok && cached != nil {
		return cloneType(cached), nil
	}
	rt, err := m.types.GetByCode(ctx, code)
	if err != nil {
		if IsNotFound(err) {
			return nil, &ConfigurationError{Code: code, Cause: ErrUnknownResourceType}
		}
		return nil, err
	}
	m.populateType(ctx, rt)
	return rt, nil
}

// Fields returns the typed dynamic field values of r.
func (m *Manager) Fields(ctx context.Context, r *Resource) (map[string]any, error) {
	if r == nil {
		return nil, ErrIDRequired
	}
	rt, err := m.TypeByID(ctx, r.TypeID)
	if err != nil {
		return nil, err
	}
	stored, err := m.resources.ListFields(ctx, r.ID)
	if err != nil {
		return nil, err
	}
	return TypedFields(m.registry, rt, r.ID, stored)
}

func (m *Manager) visible(r *Resource) bool {
	return r.Published && !r.Deleted && r.SiteID == m.site
}

// populate adds the primary entry, without replacing a writer's tombstone,
// before the reference entry.
func (m *Manager) populate(ctx context.Context, record *Resource) {
	if err := m.cache.AddByAttribute(ctx, cloneResource(record), AttrSite, AttrURIPath); err != nil {
		m.logger.Warn("resources.cache.populate_failed", logging.FieldResourceID, record.ID.String(), "error", err)
	}
}

func (m *Manager) populateType(ctx context.Context, rt *ResourceType) {
	if err := m.typeCache.AddByAttribute(ctx, cloneType(rt), AttrCode); err != nil {
		m.logger.Warn("resources.cache.populate_failed", "type", rt.Code, "error", err)
	}
}

func describeFilters(filters []Filter) string {
	var q Query
	for _, filter := range filters {
		if filter != nil {
			filter(&q)
		}
	}
	switch {
	case q.URIPath != nil:
		return *q.URIPath
	case q.ID != nil:
		return q.ID.String()
	}
	return ""
}
