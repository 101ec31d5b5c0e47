package http_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cmshttp "github.com/goliatone/go-resource-cms/internal/http"
	"github.com/goliatone/go-resource-cms/internal/resources"
)

func TestSiteServesResourceByPath(t *testing.T) {
	h := newHarness(t)
	h.add(t, resources.AddResourceRequest{Title: "About", Slug: "about", Published: true, Fields: map[string]any{"body": "Hello"}})

	for _, path := range []string{"/about", "/about/"} {
		rec := h.do(t, http.MethodGet, path, "", nil)
		require.Equal(t, http.StatusOK, rec.Code, path)
		assert.Contains(t, rec.Body.String(), "Hello")
		assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
		assert.Empty(t, rec.Header().Get("Cache-Control"))
	}

	rec := h.do(t, http.MethodGet, "/missing", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSiteHidesScheduledResourceFromAnonymous(t *testing.T) {
	h := newHarness(t)
	future := fixedNow.Add(24 * time.Hour)
	h.add(t, resources.AddResourceRequest{Title: "Launch", Slug: "launch", Published: true, PublishDate: &future, Fields: map[string]any{"body": "Soon"}})

	rec := h.do(t, http.MethodGet, "/launch", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = h.do(t, http.MethodGet, "/launch", h.token(t, map[string]interface{}{"sub": "editor", "permissions": []string{resources.DefaultPreviewPermission}}), nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Soon")

	rec = h.do(t, http.MethodGet, "/launch", h.token(t, map[string]interface{}{"sub": "reader"}), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSitePreviewByID(t *testing.T) {
	h := newHarness(t)
	draft := h.add(t, resources.AddResourceRequest{Title: "Draft", Fields: map[string]any{"body": "wip"}})

	rec := h.do(t, http.MethodGet, "/preview/"+draft.ID.String(), "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = h.do(t, http.MethodGet, "/preview/"+draft.ID.String(), h.token(t, map[string]interface{}{"sub": "admin", "superuser": true}), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "wip")

	rec = h.do(t, http.MethodGet, "/preview/not-a-uuid", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSiteRedirectsLinks(t *testing.T) {
	h := newHarness(t)
	_, err := h.service.CreateType(t.Context(), resources.CreateTypeRequest{Name: "Link", Code: "link", IsLink: true})
	require.NoError(t, err)
	h.add(t, resources.AddResourceRequest{Type: "link", Title: "Docs", Slug: "docs", Published: true, Content: "https://example.com/docs"})

	rec := h.do(t, http.MethodGet, "/docs", "", nil)
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "https://example.com/docs", rec.Header().Get("Location"))
}

func TestSiteUncacheableTemplate(t *testing.T) {
	h := newHarness(t)
	noCache := false
	_, err := h.service.CreateTemplate(t.Context(), resources.CreateTemplateRequest{Name: "feed.json", Content: `{"title":"{{ .Title }}"}`, MimeType: "application/json", Cacheable: &noCache})
	require.NoError(t, err)
	_, err = h.service.CreateType(t.Context(), resources.CreateTypeRequest{Name: "Feed", Code: "feed", DefaultTemplate: "feed.json"})
	require.NoError(t, err)
	h.add(t, resources.AddResourceRequest{Type: "feed", Title: "Feed", Slug: "feed", Published: true})

	rec := h.do(t, http.MethodGet, "/feed", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
}

func TestFallbackServesResourceOnlyAfter404(t *testing.T) {
	h := newHarness(t)
	h.add(t, resources.AddResourceRequest{Title: "About", Slug: "about", Published: true, Fields: map[string]any{"body": "Hello"}})
	site := cmshttp.NewSite(h.manager, h.pipeline)

	app := chi.NewRouter()
	app.Use(site.Fallback)
	app.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-App", "yes")
		_, _ = w.Write([]byte("ok"))
	})

	cases := []struct {
		path string
		code int
		body string
	}{
		{"/health", http.StatusOK, "ok"},
		{"/about", http.StatusOK, "Hello"},
		{"/nothing", http.StatusNotFound, "404 page not found"},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		app.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tc.path, nil))
		assert.Equal(t, tc.code, rec.Code, tc.path)
		assert.Contains(t, rec.Body.String(), tc.body, tc.path)
	}
}
