package http

import (
	"context"
	"net/http"

	"github.com/go-chi/jwtauth"

	"github.com/goliatone/go-resource-cms/pkg/interfaces"
)

// JWT claims read into a viewer.
const (
	ClaimSubject     = "sub"
	ClaimSuperuser   = "superuser"
	ClaimPermissions = "permissions"
)

type viewerKey struct{}

// WithViewer stores viewer on ctx.
func WithViewer(ctx context.Context, viewer interfaces.Viewer) context.Context {
	return context.WithValue(ctx, viewerKey{}, viewer)
}

// ViewerFromContext returns the viewer stored on ctx, or nil for anonymous
// requests.
func ViewerFromContext(ctx context.Context) interfaces.Viewer {
	viewer, _ := ctx.Value(viewerKey{}).(interfaces.Viewer)
	return viewer
}

// JWTAuthProvider turns verified jwtauth tokens into viewers. Requests
// without a valid token are anonymous.
type JWTAuthProvider struct{}

var _ interfaces.AuthProvider = JWTAuthProvider{}

func (JWTAuthProvider) Viewer(ctx context.Context) (interfaces.Viewer, error) {
	token, claims, err := jwtauth.FromContext(ctx)
	if err != nil || token == nil {
		return nil, nil
	}
	return viewerFromClaims(claims), nil
}

func viewerFromClaims(claims map[string]interface{}) interfaces.Viewer {
	viewer := interfaces.StaticViewer{}
	if sub, ok := claims[ClaimSubject].(string); ok {
		viewer.UserID = sub
	}
	if su, ok := claims[ClaimSuperuser].(bool); ok {
		viewer.Superuser = su
	}
	switch perms := claims[ClaimPermissions].(type) {
	case []interface{}:
		for _, p := range perms {
			if s, ok := p.(string); ok {
				viewer.Permissions = append(viewer.Permissions, s)
			}
		}
	case []string:
		viewer.Permissions = append(viewer.Permissions, perms...)
	}
	return viewer
}

// ViewerMiddleware resolves the viewer with provider and stores it on the
// request context. Provider errors leave the request anonymous.
func ViewerMiddleware(provider interfaces.AuthProvider) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if provider != nil {
				if viewer, err := provider.Viewer(r.Context()); err == nil && viewer != nil {
					r = r.WithContext(WithViewer(r.Context(), viewer))
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Authenticate verifies bearer tokens or the "jwt" cookie with auth and
// attaches the resulting viewer. Invalid tokens are treated as anonymous.
func Authenticate(auth *jwtauth.JWTAuth) func(http.Handler) http.Handler {
	verify := jwtauth.Verifier(auth)
	attach := ViewerMiddleware(JWTAuthProvider{})
	return func(next http.Handler) http.Handler {
		return verify(attach(next))
	}
}

// RequirePermission answers 401 for anonymous requests and 403 when the
// viewer is neither a superuser nor holds permission.
func RequirePermission(permission string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			viewer := ViewerFromContext(r.Context())
			switch {
			case viewer == nil:
				writeJSON(w, r, http.StatusUnauthorized, errorResponse{Error: "unauthorized"})
			case viewer.IsSuperuser(), permission != "" && viewer.HasPermission(permission):
				next.ServeHTTP(w, r)
			default:
				writeJSON(w, r, http.StatusForbidden, errorResponse{Error: "forbidden", Message: "missing permission " + permission})
			}
		})
	}
}
