package markdown_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/goliatone/go-resource-cms/internal/fields"
	"github.com/goliatone/go-resource-cms/internal/identity"
	"github.com/goliatone/go-resource-cms/internal/markdown"
	"github.com/goliatone/go-resource-cms/internal/resources"
)

func TestParseFrontMatter(t *testing.T) {
	cases := []struct {
		name      string
		source    string
		title     string
		published bool
		body      string
	}{
		{"no header", "# Hi\n", "", true, "# Hi\n"},
		{"title", "---\ntitle: About\n---\nbody", "About", true, "body"},
		{"draft", "---\ntitle: Wip\ndraft: true\n---\n", "Wip", false, ""},
		{"explicit unpublished", "---\npublished: false\n---\nx", "", false, "x"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			meta, body, err := markdown.ParseFrontMatter([]byte(tc.source))
			if err != nil {
				t.Fatalf("parse: %v", err)
			}
			if meta.Title != tc.title || meta.IsPublished() != tc.published {
				t.Fatalf("unexpected meta %+v", meta)
			}
			if strings.TrimSpace(string(body)) != strings.TrimSpace(tc.body) {
				t.Fatalf("expected body %q got %q", tc.body, body)
			}
		})
	}
}

func TestParseFrontMatterFields(t *testing.T) {
	src := "---\ntitle: Launch\npublish_date: 2024-06-01T09:00:00Z\norder: 3\nfields:\n  summary: Soon\n---\n"
	meta, _, err := markdown.ParseFrontMatter([]byte(src))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if meta.PublishDate == nil || !meta.PublishDate.Equal(time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected publish date %v", meta.PublishDate)
	}
	if meta.Order == nil || *meta.Order != 3 {
		t.Fatalf("unexpected order %v", meta.Order)
	}
	if meta.Fields["summary"] != "Soon" {
		t.Fatalf("unexpected fields %v", meta.Fields)
	}
}

func TestParser(t *testing.T) {
	out, err := markdown.NewParser(markdown.ParseOptions{}).Parse([]byte("| a |\n|---|\n| 1 |\n"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !strings.Contains(string(out), "<table>") {
		t.Fatalf("expected gfm table, got %s", out)
	}

	raw := []byte("hello <script>alert(1)</script>")
	unsafe, _ := markdown.NewParser(markdown.ParseOptions{}).Parse(raw)
	if !strings.Contains(string(unsafe), "<script>") {
		t.Fatalf("expected raw html kept, got %s", unsafe)
	}
	safe, _ := markdown.NewParser(markdown.ParseOptions{Sanitize: true}).Parse(raw)
	if strings.Contains(string(safe), "<script>") {
		t.Fatalf("expected script removed, got %s", safe)
	}
}

var site = fstest.MapFS{
	"index.md":                {Data: []byte("---\ntitle: Welcome\n---\nHome page\n")},
	"about.md":                {Data: []byte("---\ntitle: About\nfields:\n  summary: Who we are\n---\nHello\n")},
	"docs/index.md":           {Data: []byte("---\ntitle: Docs\n---\n")},
	"docs/getting-started.md": {Data: []byte("# Start\n")},
	"docs/draft.md":           {Data: []byte("---\ndraft: true\n---\nwip\n")},
	"orphans/child.md":        {Data: []byte("lost\n")},
	"notes.txt":               {Data: []byte("ignored")},
}

func TestLoaderLoadDirectory(t *testing.T) {
	ctx := context.Background()
	flat, err := markdown.NewLoader(site, markdown.LoaderConfig{}).LoadDirectory(ctx, ".")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got := paths(flat); got != "about.md,index.md" {
		t.Fatalf("unexpected flat listing %s", got)
	}

	all, err := markdown.NewLoader(site, markdown.LoaderConfig{Recursive: true}).LoadDirectory(ctx, "/")
	if err != nil {
		t.Fatalf("load recursive: %v", err)
	}
	if len(all) != 6 {
		t.Fatalf("expected 6 documents, got %s", paths(all))
	}
	if len(all[0].Checksum) == 0 {
		t.Fatalf("expected checksum")
	}
}

type fixture struct {
	service  resources.Service
	importer *markdown.Importer
	docs     []*markdown.Document
}

func newFixture(t *testing.T, bodyField string) *fixture {
	t.Helper()
	ctx := context.Background()
	svc := resources.NewService(
		resources.NewMemoryTemplateRepository(),
		resources.NewMemoryTypeRepository(),
		resources.NewMemoryResourceRepository(),
	)
	_, err := svc.CreateType(ctx, resources.CreateTypeRequest{
		Name:       "Page",
		Code:       "page",
		ChildTypes: []string{"page"},
		Fields: []resources.FieldDefinition{
			{Code: "summary", FieldType: fields.CodeChar},
			{Code: "body", FieldType: fields.CodeMarkdown},
		},
	})
	if err != nil {
		t.Fatalf("create type: %v", err)
	}
	docs, err := markdown.NewLoader(site, markdown.LoaderConfig{Recursive: true}).LoadDirectory(ctx, ".")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	return &fixture{
		service: svc,
		importer: markdown.NewImporter(markdown.ImporterConfig{
			Service:     svc,
			DefaultType: "page",
			BodyField:   bodyField,
		}),
		docs: docs,
	}
}

func (fx *fixture) get(t *testing.T, source string) *resources.Resource {
	t.Helper()
	r, err := fx.service.Get(context.Background(), identity.ResourceUUID(resources.DefaultSite, source))
	if err != nil {
		t.Fatalf("get %s: %v", source, err)
	}
	return r
}

func TestImporterBuildsHierarchy(t *testing.T) {
	fx := newFixture(t, "")
	ctx := context.Background()

	result, err := fx.importer.Import(ctx, fx.docs, markdown.ImportOptions{})
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if len(result.Created) != 5 || len(result.Errors) != 1 {
		t.Fatalf("unexpected result %+v", result)
	}
	if result.Errors[0].Path != "orphans/child.md" || !errors.Is(result.Errors[0], markdown.ErrParentMissing) {
		t.Fatalf("expected orphan failure, got %v", result.Errors[0])
	}
	if result.Err() == nil {
		t.Fatalf("expected joined error")
	}

	cases := []struct {
		source    string
		path      string
		title     string
		published bool
	}{
		{"index.md", "/", "Welcome", true},
		{"about.md", "/about", "About", true},
		{"docs/index.md", "/docs", "Docs", true},
		{"docs/getting-started.md", "/docs/getting-started", "Getting Started", true},
		{"docs/draft.md", "/docs/draft", "Draft", false},
	}
	for _, tc := range cases {
		r := fx.get(t, tc.source)
		if r.URIPath != tc.path || r.Title != tc.title || r.Published != tc.published {
			t.Fatalf("%s: unexpected resource %+v", tc.source, r)
		}
	}

	about := fx.get(t, "about.md")
	if !strings.Contains(about.Content, "<p>Hello</p>") {
		t.Fatalf("expected rendered body, got %q", about.Content)
	}
	values, err := fx.service.Fields(ctx, about.ID)
	if err != nil {
		t.Fatalf("fields: %v", err)
	}
	if values["summary"] != "Who we are" {
		t.Fatalf("unexpected fields %v", values)
	}
}

func TestImporterUpdatesInPlace(t *testing.T) {
	fx := newFixture(t, "")
	ctx := context.Background()
	if _, err := fx.importer.Import(ctx, fx.docs, markdown.ImportOptions{}); err != nil {
		t.Fatalf("first import: %v", err)
	}

	changed := *fx.docs[0]
	changed.FrontMatter.Title = "About Us"
	changed.Body = []byte("Changed\n")
	result, err := fx.importer.Import(ctx, []*markdown.Document{&changed}, markdown.ImportOptions{})
	if err != nil {
		t.Fatalf("second import: %v", err)
	}
	if len(result.Updated) != 1 || len(result.Created) != 0 {
		t.Fatalf("unexpected result %+v", result)
	}
	about := fx.get(t, "about.md")
	if about.Title != "About Us" || !strings.Contains(about.Content, "Changed") {
		t.Fatalf("expected update, got %+v", about)
	}
}

func TestImporterDryRunWritesNothing(t *testing.T) {
	fx := newFixture(t, "")
	ctx := context.Background()
	result, err := fx.importer.Import(ctx, fx.docs[:1], markdown.ImportOptions{DryRun: true})
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if len(result.Skipped) != 1 {
		t.Fatalf("expected skipped document, got %+v", result)
	}
	if _, err := fx.service.Get(ctx, identity.ResourceUUID(resources.DefaultSite, "about.md")); !resources.IsNotFound(err) {
		t.Fatalf("expected nothing stored, got %v", err)
	}
}

func TestImporterBodyField(t *testing.T) {
	fx := newFixture(t, "body")
	ctx := context.Background()
	if _, err := fx.importer.Import(ctx, fx.docs[:1], markdown.ImportOptions{}); err != nil {
		t.Fatalf("import: %v", err)
	}
	about := fx.get(t, "about.md")
	if about.Content != "" {
		t.Fatalf("expected empty content, got %q", about.Content)
	}
	values, err := fx.service.Fields(ctx, about.ID)
	if err != nil {
		t.Fatalf("fields: %v", err)
	}
	if body := values["body"]; body == nil || !strings.Contains(toString(body), "Hello") {
		t.Fatalf("expected markdown body field, got %v", values)
	}
}

func TestImporterRequiresService(t *testing.T) {
	_, err := markdown.NewImporter(markdown.ImporterConfig{}).Import(context.Background(), nil, markdown.ImportOptions{})
	if !errors.Is(err, markdown.ErrServiceRequired) {
		t.Fatalf("expected ErrServiceRequired, got %v", err)
	}
}

func paths(docs []*markdown.Document) string {
	out := make([]string, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.Path)
	}
	return strings.Join(out, ",")
}

func toString(v any) string {
	if s, ok := v.(interface{ String() string }); ok {
		return s.String()
	}
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}
