package resources

import (
	"strings"

	"github.com/goliatone/go-slug"
)

// NormalizePath strips exactly one trailing slash from paths longer than
// one character. The empty path is the root.
func NormalizePath(path string) string {
	path = strings.TrimSpace(path)
	if path == "" {
		return "/"
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	if len(path) > 1 && strings.HasSuffix(path, "/") {
		path = path[:len(path)-1]
	}
	return path
}

// BuildURIPath joins a parent path and a slug. A root resource with an empty
// slug is "/".
func BuildURIPath(parentPath, resourceSlug string) string {
	resourceSlug = strings.Trim(resourceSlug, "/")
	base := strings.TrimSuffix(NormalizePath(parentPath), "/")
	if resourceSlug == "" {
		if base == "" {
			return "/"
		}
		return base
	}
	return base + "/" + resourceSlug
}

// NormalizeSlug returns the slug to store for a resource. An explicit slug is
// normalized. Without one, a root resource keeps the empty slug and becomes
// the site root, while a child derives its slug from the title.
func NormalizeSlug(explicit, title string, isRoot bool) (string, error) {
	source := strings.Trim(strings.TrimSpace(explicit), "/")
	if source == "" {
		if isRoot {
			return "", nil
		}
		source = strings.TrimSpace(title)
	}
	if source == "" {
		return "", nil
	}
	return slug.Normalize(source)
}
