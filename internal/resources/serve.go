package resources

import (
	"time"

	"github.com/goliatone/go-resource-cms/pkg/interfaces"
)

// DefaultPreviewPermission lets a viewer see resources that are not live.
const DefaultPreviewPermission = "preview_resource"

// ServeOptions controls who may see resources that are not live.
type ServeOptions struct {
	AllowSuperuser bool
	// PreviewPermission is checked when non-empty.
	PreviewPermission string
}

func DefaultServeOptions() ServeOptions {
	return ServeOptions{AllowSuperuser: true, PreviewPermission: DefaultPreviewPermission}
}

// CanServe checks, in order, that the resource is live, that the viewer is a
// superuser when superusers are allowed, or that the viewer holds the
// preview permission. A nil viewer is anonymous.
func CanServe(r *Resource, viewer interfaces.Viewer, now time.Time, opts ServeOptions) bool {
	if r == nil {
		return false
	}
	if r.IsLiveAt(now) {
		return true
	}
	if viewer == nil {
		return false
	}
	if opts.AllowSuperuser && viewer.IsSuperuser() {
		return true
	}
	return opts.PreviewPermission != "" && viewer.HasPermission(opts.PreviewPermission)
}
