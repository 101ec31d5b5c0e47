package di

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/jwtauth"

	cmshttp "github.com/goliatone/go-resource-cms/internal/http"
	"github.com/goliatone/go-resource-cms/internal/logging"
)

// Router mounts the admin API, uploaded files and the resource site on a
// chi router. Viewers are read from HS256 bearer tokens when auth is
// enabled; otherwise every request is anonymous.
func (c *Container) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	if c.Config.HTTP.AuthEnabled {
		r.Use(cmshttp.Authenticate(jwtauth.New("HS256", []byte(c.Config.HTTP.JWTSecret), nil)))
	}

	cmshttp.NewAdminAPI(c.service,
		cmshttp.WithBasePath(c.Config.HTTP.AdminPrefix),
		cmshttp.WithCommands(c.commands),
	).Register(r)

	if prefix := mediaPrefix(c.Config.Files.BaseURL); prefix != "" {
		files := http.StripPrefix(prefix, http.FileServer(http.Dir(c.Config.Files.Root)))
		r.Handle(prefix+"*", files)
	}

	cmshttp.NewSite(c.manager, c.pipeline,
		cmshttp.WithSiteLogger(c.Logger(logging.HTTPModule)),
	).Register(r)
	return r
}

// mediaPrefix returns the local mount point of uploaded files, or "" when
// they are served from another host.
func mediaPrefix(baseURL string) string {
	baseURL = strings.TrimSpace(baseURL)
	if !strings.HasPrefix(baseURL, "/") || strings.HasPrefix(baseURL, "//") {
		return ""
	}
	prefix := strings.TrimSuffix(baseURL, "/") + "/"
	if prefix == "/" {
		return ""
	}
	return prefix
}
