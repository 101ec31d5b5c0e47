// Package http exposes the CMS over net/http with chi routers.
//
// Site serves resources by request path, previews by id under
// /preview/{id}, and provides a middleware that falls back to CMS content
// when the wrapped handler answers 404.
//
// AdminAPI mounts JSON endpoints under /admin/api:
//   - Templates: /templates, /templates/{name}
//   - Resource types: /types, /types/{code}, /types/{code}/editor-fields
//   - Resources: /resources, /resources/{id}, /resources/{id}/fields
//   - Bulk actions: /resources/actions/{publish,unpublish,clear-cache}
//
// Viewers are read from JWT bearer tokens with go-chi/jwtauth.
package http
