package http

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/goliatone/go-resource-cms/internal/logging"
	"github.com/goliatone/go-resource-cms/internal/render"
	"github.com/goliatone/go-resource-cms/internal/resources"
	"github.com/goliatone/go-resource-cms/pkg/interfaces"
)

// DefaultPreviewPath is where resources are previewed by id.
const DefaultPreviewPath = "/preview"

// Site serves rendered resources.
type Site struct {
	manager     *resources.Manager
	pipeline    *render.Pipeline
	logger      interfaces.Logger
	previewPath string
}

type SiteOption func(*Site)

func WithSiteLogger(logger interfaces.Logger) SiteOption {
	return func(s *Site) { s.logger = logging.OrNoOp(logger) }
}

// WithPreviewPath mounts previews below path. An empty path disables them.
func WithPreviewPath(path string) SiteOption {
	return func(s *Site) { s.previewPath = strings.TrimRight(strings.TrimSpace(path), "/") }
}

func NewSite(manager *resources.Manager, pipeline *render.Pipeline, opts ...SiteOption) *Site {
	s := &Site{
		manager:     manager,
		pipeline:    pipeline,
		logger:      logging.NoOp(),
		previewPath: DefaultPreviewPath,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register mounts the preview route and the catch-all resource view.
func (s *Site) Register(r chi.Router) {
	if s.previewPath != "" {
		r.Get(s.previewPath+"/{id}", s.Preview)
	}
	r.Get("/*", s.View)
}

// View renders the resource at the request path.
func (s *Site) View(w http.ResponseWriter, r *http.Request) {
	if !s.serve(w, r) {
		http.NotFound(w, r)
	}
}

// Preview renders any resource of the site by id for viewers allowed to see
// it.
func (s *Site) Preview(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUID(chi.URLParam(r, "id"))
	if err != nil {
		http.NotFound(w, r)
		return
	}
	ctx := s.requestContext(r)
	record, err := s.manager.ResolvePreview(ctx, id, ViewerFromContext(r.Context()))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.write(w, r, record)
}

// Fallback runs next and, when it answers 404, serves the resource at the
// request path instead. The original 404 is replayed when no resource
// matches.
func (s *Site) Fallback(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		buf := &bufferedWriter{header: http.Header{}}
		next.ServeHTTP(buf, r)
		if buf.status() != http.StatusNotFound || (r.Method != http.MethodGet && r.Method != http.MethodHead) {
			buf.flush(w)
			return
		}
		if !s.serve(w, r) {
			buf.flush(w)
		}
	})
}

// serve writes the resource at the request path and reports whether one
// was found. Other errors are written as 500.
func (s *Site) serve(w http.ResponseWriter, r *http.Request) bool {
	ctx := s.requestContext(r)
	record, err := s.manager.ResolvePath(ctx, r.URL.Path, ViewerFromContext(r.Context()))
	if err != nil {
		if resources.IsNotFound(err) {
			return false
		}
		s.fail(w, r, err)
		return true
	}
	s.write(w, r, record)
	return true
}

func (s *Site) write(w http.ResponseWriter, r *http.Request, record *resources.Resource) {
	ctx := s.requestContext(r)
	result, err := s.pipeline.Render(ctx, render.Request{HTTP: r, Viewer: ViewerFromContext(r.Context()), Resource: record})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if result.Redirect != "" {
		http.Redirect(w, r, result.Redirect, http.StatusFound)
		return
	}
	h := w.Header()
	h.Set("Content-Type", contentType(result.MimeType))
	if result.ContentDisposition != "" {
		h.Set("Content-Disposition", result.ContentDisposition)
	}
	if !result.Cacheable {
		h.Set("Cache-Control", "no-store")
	}
	w.WriteHeader(http.StatusOK)
	if r.Method != http.MethodHead {
		_, _ = io.WriteString(w, result.Body)
	}
}

func (s *Site) fail(w http.ResponseWriter, r *http.Request, err error) {
	if resources.IsNotFound(err) {
		http.NotFound(w, r)
		return
	}
	logging.WithFields(s.logger, logging.ContextFields(s.requestContext(r))).Error("http.site.render_failed", "error", err)
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}

func (s *Site) requestContext(r *http.Request) context.Context {
	return logging.RequestFields(r.Context(), middleware.GetReqID(r.Context()), r.URL.Path, s.manager.Site())
}

func contentType(mimeType string) string {
	if mimeType == "" {
		mimeType = resources.DefaultMimeType
	}
	if strings.HasPrefix(mimeType, "text/") && !strings.Contains(mimeType, "charset") {
		return mimeType + "; charset=utf-8"
	}
	return mimeType
}

// bufferedWriter holds a response until the fallback decides whether to
// replay it.
type bufferedWriter struct {
	header http.Header
	code   int
	body   bytes.Buffer
}

func (b *bufferedWriter) Header() http.Header { return b.header }

func (b *bufferedWriter) Write(p []byte) (int, error) {
	if b.code == 0 {
		b.code = http.StatusOK
	}
	return b.body.Write(p)
}

func (b *bufferedWriter) WriteHeader(code int) {
	if b.code == 0 {
		b.code = code
	}
}

func (b *bufferedWriter) status() int {
	if b.code == 0 {
		return http.StatusOK
	}
	return b.code
}

func (b *bufferedWriter) flush(w http.ResponseWriter) {
	dst := w.Header()
	for k, v := range b.header {
		dst[k] = v
	}
	w.WriteHeader(b.status())
	_, _ = w.Write(b.body.Bytes())
}
