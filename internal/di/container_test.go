package di_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/goliatone/go-resource-cms/internal/di"
	"github.com/goliatone/go-resource-cms/internal/fields"
	"github.com/goliatone/go-resource-cms/internal/logging/zerologger"
	"github.com/goliatone/go-resource-cms/internal/markdown"
	"github.com/goliatone/go-resource-cms/internal/resources"
	"github.com/goliatone/go-resource-cms/internal/runtimeconfig"
)

var fixedNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func testConfig(t *testing.T) runtimeconfig.Config {
	t.Helper()
	cfg := runtimeconfig.DefaultConfig()
	cfg.Files.Root = t.TempDir()
	cfg.Logging.Level = "error"
	return cfg
}

func newContainer(t *testing.T, cfg runtimeconfig.Config, opts ...di.Option) *di.Container {
	t.Helper()
	opts = append(opts, di.WithClock(func() time.Time { return fixedNow }))
	c, err := di.NewContainer(context.Background(), cfg, opts...)
	if err != nil {
		t.Fatalf("new container: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func seedPage(t *testing.T, c *di.Container) {
	t.Helper()
	ctx := context.Background()
	svc := c.Service()
	if _, err := svc.CreateTemplate(ctx, resources.CreateTemplateRequest{Name: "page.html", Content: `<main>{{ field "body" }}{{ .Content }}</main>`}); err != nil {
		t.Fatalf("template: %v", err)
	}
	_, err := svc.CreateType(ctx, resources.CreateTypeRequest{
		Name:            "Page",
		Code:            "page",
		DefaultTemplate: "page.html",
		ChildTypes:      []string{"page"},
		Fields:          []resources.FieldDefinition{{Code: "body", FieldType: fields.CodeChar}},
	})
	if err != nil {
		t.Fatalf("type: %v", err)
	}
}

func get(c *di.Container, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	c.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestContainerServesPublishedPage(t *testing.T) {
	c := newContainer(t, testConfig(t))
	seedPage(t, c)
	ctx := context.Background()

	if _, err := c.Service().AddResource(ctx, resources.AddResourceRequest{
		Type: "page", Title: "About", Slug: "about", Published: true,
		Fields: map[string]any{"body": "Hello"},
	}); err != nil {
		t.Fatalf("add: %v", err)
	}
	future := fixedNow.Add(time.Hour)
	if _, err := c.Service().AddResource(ctx, resources.AddResourceRequest{
		Type: "page", Title: "Launch", Slug: "launch", Published: true, PublishDate: &future,
	}); err != nil {
		t.Fatalf("add scheduled: %v", err)
	}

	rec := get(c, "/about")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "<main>Hello</main>") {
		t.Fatalf("unexpected response %d %q", rec.Code, rec.Body.String())
	}
	if rec := get(c, "/launch"); rec.Code != http.StatusNotFound {
		t.Fatalf("expected scheduled page hidden, got %d", rec.Code)
	}
	if _, err := c.Manager().GetByURIPath(ctx, "/launch"); err != nil {
		t.Fatalf("manager should still find the record: %v", err)
	}
}

func TestContainerAdminRequiresAuth(t *testing.T) {
	cfg := testConfig(t)
	cfg.HTTP.AuthEnabled = true
	cfg.HTTP.JWTSecret = "secret"
	c := newContainer(t, cfg)

	if rec := get(c, "/admin/api/resources"); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestContainerServesUploadedFiles(t *testing.T) {
	cfg := testConfig(t)
	c := newContainer(t, cfg)
	name, err := c.FileStorage().Save(context.Background(), "docs/readme.txt", strings.NewReader("read me"))
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, err := os.Stat(filepath.Join(cfg.Files.Root, filepath.FromSlash(name))); err != nil {
		t.Fatalf("expected stored file: %v", err)
	}
	rec := get(c, "/media/"+name)
	if rec.Code != http.StatusOK || rec.Body.String() != "read me" {
		t.Fatalf("unexpected media response %d %q", rec.Code, rec.Body.String())
	}
}

func TestContainerRejectsInvalidConfig(t *testing.T) {
	cfg := testConfig(t)
	cfg.Site = ""
	if _, err := di.NewContainer(context.Background(), cfg); !errors.Is(err, runtimeconfig.ErrSiteRequired) {
		t.Fatalf("expected ErrSiteRequired, got %v", err)
	}
}

func TestContainerWithoutCache(t *testing.T) {
	cfg := testConfig(t)
	cfg.Cache.Enabled = false
	c := newContainer(t, cfg)
	if c.CacheProvider() != nil {
		t.Fatalf("expected no cache provider")
	}
	seedPage(t, c)
	if _, err := c.Service().AddResource(context.Background(), resources.AddResourceRequest{Type: "page", Title: "Home", Published: true}); err != nil {
		t.Fatalf("add: %v", err)
	}
	if rec := get(c, "/"); rec.Code != http.StatusOK {
		t.Fatalf("expected home page, got %d", rec.Code)
	}
}

func TestContainerSelectsLoggerProvider(t *testing.T) {
	cfg := testConfig(t)
	cfg.Logging.Provider = "zerolog"
	c := newContainer(t, cfg)
	if _, ok := c.LoggerProvider().(*zerologger.Provider); !ok {
		t.Fatalf("expected zerolog provider, got %T", c.LoggerProvider())
	}
}

func TestOpenUsesSQLite(t *testing.T) {
	cfg := testConfig(t)
	cfg.Storage.DSN = "file:" + filepath.Join(t.TempDir(), "cms.db")
	cfg.Storage.Debug = true
	c, err := di.Open(context.Background(), cfg)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	if c.DB() == nil {
		t.Fatalf("expected bun database")
	}
	seedPage(t, c)

	docs := []*markdown.Document{{Path: "about.md", FrontMatter: markdown.FrontMatter{Title: "About"}, Body: []byte("Imported")}}
	result, err := c.MarkdownImporter(nil).Import(context.Background(), docs, markdown.ImportOptions{})
	if err != nil || len(result.Created) != 1 {
		t.Fatalf("import: %+v %v", result, err)
	}
	rec := get(c, "/about")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "<p>Imported</p>") {
		t.Fatalf("unexpected response %d %q", rec.Code, rec.Body.String())
	}
}
