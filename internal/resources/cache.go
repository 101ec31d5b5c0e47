package resources

import (
	"github.com/goliatone/go-resource-cms/internal/cache"
	"github.com/goliatone/go-resource-cms/pkg/interfaces"
)

// Cache namespaces for resource and type entries.
const (
	ResourceCacheNamespace = "resources.resource"
	TypeCacheNamespace     = "resources.resource_type"
)

// Attribute names used for reference entries.
const (
	AttrSite    = "site"
	AttrURIPath = "uri_path"
	AttrCode    = "code"
)

// ResourceCache caches resources by id and by (site, uri_path).
type ResourceCache = cache.ModelCache[*Resource]

// TypeCache caches resource types by id and by code.
type TypeCache = cache.ModelCache[*ResourceType]

func NewResourceCache(provider interfaces.CacheProvider, opts ...cache.ModelOption) *ResourceCache {
	return cache.NewModelCache(provider, cache.Model[*Resource]{
		Namespace: ResourceCacheNamespace,
		PrimaryKey: func(r *Resource) string {
			if r == nil {
				return ""
			}
			return r.ID.String()
		},
		Attribute: func(r *Resource, name string) (any, bool) {
			if r == nil {
				return nil, false
			}
			switch name {
			case AttrSite:
				return r.SiteID, true
			case AttrURIPath:
				return r.URIPath, true
			}
			return nil, false
		},
	}, opts...)
}

func NewTypeCache(provider interfaces.CacheProvider, opts ...cache.ModelOption) *TypeCache {
	return cache.NewModelCache(provider, cache.Model[*ResourceType]{
		Namespace: TypeCacheNamespace,
		PrimaryKey: func(t *ResourceType) string {
			if t == nil {
				return ""
			}
			return t.ID.String()
		},
		Attribute: func(t *ResourceType, name string) (any, bool) {
			if t == nil || name != AttrCode {
				return nil, false
			}
			return t.Code, true
		},
	}, opts...)
}

func pathAttrs(site, path string) map[string]any {
	return map[string]any{AttrSite: site, AttrURIPath: path}
}
