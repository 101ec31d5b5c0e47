package interfaces

import "context"

// Viewer describes the principal attached to a request.
type Viewer interface {
	ID() string
	IsSuperuser() bool
	HasPermission(permission string) bool
}

// AuthProvider resolves the viewer for a request context. Implementations
// return a nil Viewer (and no error) for anonymous requests.
type AuthProvider interface {
	Viewer(ctx context.Context) (Viewer, error)
}

// Anonymous is a Viewer without identity or permissions.
type Anonymous struct{}

func (Anonymous) ID() string                { return "" }
func (Anonymous) IsSuperuser() bool         { return false }
func (Anonymous) HasPermission(string) bool { return false }

// StaticViewer is a Viewer backed by fixed values.
type StaticViewer struct {
	UserID      string
	Superuser   bool
	Permissions []string
}

func (v StaticViewer) ID() string        { return v.UserID }
func (v StaticViewer) IsSuperuser() bool { return v.Superuser }

func (v StaticViewer) HasPermission(permission string) bool {
	for _, p := range v.Permissions {
		if p == permission {
			return true
		}
	}
	return false
}
