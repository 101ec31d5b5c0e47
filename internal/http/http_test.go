package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/jwtauth"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-resource-cms/internal/cache"
	"github.com/goliatone/go-resource-cms/internal/fields"
	cmshttp "github.com/goliatone/go-resource-cms/internal/http"
	"github.com/goliatone/go-resource-cms/internal/render"
	"github.com/goliatone/go-resource-cms/internal/resources"
)

var fixedNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

type harness struct {
	service  resources.Service
	manager  *resources.Manager
	pipeline *render.Pipeline
	auth     *jwtauth.JWTAuth
	router   chi.Router
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	clock := func() time.Time { return fixedNow }
	templates := resources.NewMemoryTemplateRepository()
	types := resources.NewMemoryTypeRepository()
	store := resources.NewMemoryResourceRepository()
	provider := cache.NewMemoryProvider(cache.MemoryOptions{Clock: clock})
	resCache := resources.NewResourceCache(provider)
	typeCache := resources.NewTypeCache(provider)

	service := resources.NewService(templates, types, store,
		resources.WithCache(resCache, typeCache),
		resources.WithClock(clock),
	)
	manager := resources.NewManager(store, types,
		resources.WithManagerCache(resCache, typeCache),
		resources.WithManagerClock(clock),
	)
	pipeline := render.NewPipeline(manager, templates)

	h := &harness{
		service:  service,
		manager:  manager,
		pipeline: pipeline,
		auth:     jwtauth.New("HS256", []byte("test-secret"), nil),
		router:   chi.NewRouter(),
	}
	h.router.Use(cmshttp.Authenticate(h.auth))
	cmshttp.NewAdminAPI(service).Register(h.router)
	cmshttp.NewSite(manager, pipeline).Register(h.router)

	ctx := context.Background()
	_, err := service.CreateTemplate(ctx, resources.CreateTemplateRequest{
		Name:    "page.html",
		Content: `<h1>{{ .Title }}</h1>{{ field "body" }}`,
	})
	require.NoError(t, err)
	_, err = service.CreateType(ctx, resources.CreateTypeRequest{
		Name:            "Page",
		Code:            "page",
		DefaultTemplate: "page.html",
		ChildTypes:      []string{"page"},
		Fields:          []resources.FieldDefinition{{Code: "body", FieldType: fields.CodeChar}},
	})
	require.NoError(t, err)
	return h
}

func (h *harness) token(t *testing.T, claims map[string]interface{}) string {
	t.Helper()
	_, token, err := h.auth.Encode(claims)
	require.NoError(t, err)
	return token
}

func (h *harness) add(t *testing.T, req resources.AddResourceRequest) *resources.Resource {
	t.Helper()
	if req.Type == "" {
		req.Type = "page"
	}
	r, err := h.service.AddResource(context.Background(), req)
	require.NoError(t, err)
	return r
}

func (h *harness) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}
